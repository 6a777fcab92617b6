package interactive

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// DB is the subset of pgxpool.Pool the repository needs. pgxmock satisfies
// it in tests.
type DB interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Begin(ctx context.Context) (pgx.Tx, error)
}

type PgRepository struct {
	db DB
}

func NewPgRepository(db DB) *PgRepository {
	return &PgRepository{db: db}
}

const definitionColumns = `id, type, slug, title, topic_code, status, config_json, draft_json, draft_updated_at,
	published_json, published_version, published_at, created_at, updated_at`

func scanDefinition(row pgx.Row) (*Definition, error) {
	var d Definition

	err := row.Scan(
		&d.ID,
		&d.Type,
		&d.Slug,
		&d.Title,
		&d.TopicCode,
		&d.Status,
		&d.ConfigJSON,
		&d.DraftJSON,
		&d.DraftUpdatedAt,
		&d.PublishedJSON,
		&d.PublishedVersion,
		&d.PublishedAt,
		&d.CreatedAt,
		&d.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrDefinitionNotFound
		}
		return nil, err
	}

	return &d, nil
}

const versionColumns = "id, definition_id, version_number, config_json, created_by, created_at"

func scanVersion(row pgx.Row) (*Version, error) {
	var v Version

	err := row.Scan(
		&v.ID,
		&v.DefinitionID,
		&v.Version,
		&v.ConfigJSON,
		&v.CreatedBy,
		&v.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrVersionNotFound
		}
		return nil, err
	}

	return &v, nil
}

func (r *PgRepository) GetDefinition(ctx context.Context, id uuid.UUID) (*Definition, error) {
	row := r.db.QueryRow(ctx, `
		SELECT `+definitionColumns+`
		FROM interactive_definitions
		WHERE id = $1
	`, id)
	return scanDefinition(row)
}

func (r *PgRepository) GetDefinitionBySlug(ctx context.Context, defType Type, slug string) (*Definition, error) {
	row := r.db.QueryRow(ctx, `
		SELECT `+definitionColumns+`
		FROM interactive_definitions
		WHERE type = $1 AND slug = $2
	`, defType, slug)
	return scanDefinition(row)
}

func (r *PgRepository) ListDefinitions(ctx context.Context) ([]Definition, error) {
	rows, err := r.db.Query(ctx, `
		SELECT `+definitionColumns+`
		FROM interactive_definitions
		ORDER BY type, slug
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []Definition
	for rows.Next() {
		d, err := scanDefinition(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *d)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return result, nil
}

func (r *PgRepository) UpdateDraft(ctx context.Context, id uuid.UUID, draft json.RawMessage) (*Definition, error) {
	row := r.db.QueryRow(ctx, `
		UPDATE interactive_definitions
		SET draft_json = $2,
		    draft_updated_at = now(),
		    updated_at = now()
		WHERE id = $1
		RETURNING `+definitionColumns+`
	`, id, draft)
	return scanDefinition(row)
}

func (r *PgRepository) ArchiveDefinition(ctx context.Context, id uuid.UUID) (*Definition, error) {
	row := r.db.QueryRow(ctx, `
		UPDATE interactive_definitions
		SET status = 'archived',
		    updated_at = now()
		WHERE id = $1
		RETURNING `+definitionColumns+`
	`, id)
	return scanDefinition(row)
}

func (r *PgRepository) LatestVersionNumber(ctx context.Context, definitionID uuid.UUID) (int, error) {
	var latest int
	err := r.db.QueryRow(ctx, `
		SELECT COALESCE(MAX(version_number), 0)
		FROM interactive_definition_versions
		WHERE definition_id = $1
	`, definitionID).Scan(&latest)
	if err != nil {
		return 0, fmt.Errorf("latest version number: %w", err)
	}
	return latest, nil
}

func (r *PgRepository) PublishVersion(ctx context.Context, definitionID uuid.UUID, config json.RawMessage, version int, publishedBy *uuid.UUID) (*Definition, *Version, error) {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return nil, nil, fmt.Errorf("begin publish: %w", err)
	}
	defer tx.Rollback(ctx)

	defRow := tx.QueryRow(ctx, `
		UPDATE interactive_definitions
		SET status = 'published',
		    config_json = $2,
		    published_json = $2,
		    published_version = $3,
		    published_at = now(),
		    draft_json = $2,
		    draft_updated_at = now(),
		    updated_at = now()
		WHERE id = $1
		RETURNING `+definitionColumns+`
	`, definitionID, config, version)
	def, err := scanDefinition(defRow)
	if err != nil {
		return nil, nil, err
	}

	verRow := tx.QueryRow(ctx, `
		INSERT INTO interactive_definition_versions (id, definition_id, version_number, config_json, created_by, created_at)
		VALUES ($1, $2, $3, $4, $5, now())
		RETURNING `+versionColumns+`
	`, uuid.New(), definitionID, version, config, publishedBy)
	ver, err := scanVersion(verRow)
	if err != nil {
		return nil, nil, fmt.Errorf("insert version %d: %w", version, err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, nil, fmt.Errorf("commit publish: %w", err)
	}

	return def, ver, nil
}

func (r *PgRepository) ListVersions(ctx context.Context, definitionID uuid.UUID) ([]Version, error) {
	rows, err := r.db.Query(ctx, `
		SELECT `+versionColumns+`
		FROM interactive_definition_versions
		WHERE definition_id = $1
		ORDER BY version_number DESC
	`, definitionID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []Version
	for rows.Next() {
		v, err := scanVersion(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *v)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return result, nil
}

func (r *PgRepository) GetVersion(ctx context.Context, definitionID uuid.UUID, version int) (*Version, error) {
	row := r.db.QueryRow(ctx, `
		SELECT `+versionColumns+`
		FROM interactive_definition_versions
		WHERE definition_id = $1 AND version_number = $2
	`, definitionID, version)
	return scanVersion(row)
}
