package interactive

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/google/uuid"
)

var (
	ErrDefinitionNotFound = errors.New("interactive definition not found")
	ErrVersionNotFound    = errors.New("interactive definition version not found")
)

// Repository contains all DB interactions needed by the interactive service.
type Repository interface {
	GetDefinition(ctx context.Context, id uuid.UUID) (*Definition, error)
	GetDefinitionBySlug(ctx context.Context, defType Type, slug string) (*Definition, error)
	ListDefinitions(ctx context.Context) ([]Definition, error)

	UpdateDraft(ctx context.Context, id uuid.UUID, draft json.RawMessage) (*Definition, error)
	ArchiveDefinition(ctx context.Context, id uuid.UUID) (*Definition, error)

	// LatestVersionNumber returns the highest version recorded for the
	// definition, 0 when none exist.
	LatestVersionNumber(ctx context.Context, definitionID uuid.UUID) (int, error)
	// PublishVersion atomically flips the definition to published with the
	// given config and version number, refreshes its draft to match, and
	// inserts the immutable version row.
	PublishVersion(ctx context.Context, definitionID uuid.UUID, config json.RawMessage, version int, publishedBy *uuid.UUID) (*Definition, *Version, error)

	ListVersions(ctx context.Context, definitionID uuid.UUID) ([]Version, error)
	GetVersion(ctx context.Context, definitionID uuid.UUID, version int) (*Version, error)
}
