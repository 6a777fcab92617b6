package interactive

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/quietpractice/practice-platform/internal/audit"
	"github.com/quietpractice/practice-platform/internal/observability/metrics"
	"github.com/quietpractice/practice-platform/pkg/logging"
)

const (
	ActionDraftSaved = "interactive.draft_saved"
	ActionPublished  = "interactive.published"
	ActionArchived   = "interactive.archived"
)

var (
	ErrInvalidConfig       = errors.New("invalid interactive config")
	ErrDefinitionArchived  = errors.New("interactive definition is archived")
	ErrNotANavigator       = errors.New("definition is not a navigator")
	ErrNavigatorNotServed  = errors.New("navigator is not published")
	ErrNavigatorConfigDrop = errors.New("navigator config failed validation")
)

// ConfigCache caches published configs for the public endpoints. The Redis
// implementation lives in internal/redisclient.
type ConfigCache interface {
	Get(ctx context.Context, defType, slug string) ([]byte, error)
	Set(ctx context.Context, defType, slug string, config []byte) error
	Invalidate(ctx context.Context, defType, slug string) error
}

type Service struct {
	repo    Repository
	cache   ConfigCache
	trail   audit.Trail
	metrics *metrics.PlatformMetrics
	logger  *logging.Logger
}

func NewService(repo Repository, cache ConfigCache, trail audit.Trail, m *metrics.PlatformMetrics, logger *logging.Logger) *Service {
	if trail == nil {
		trail = audit.Nop{}
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &Service{
		repo:    repo,
		cache:   cache,
		trail:   trail,
		metrics: m,
		logger:  logger,
	}
}

func (s *Service) GetDefinition(ctx context.Context, id uuid.UUID) (*Definition, error) {
	return s.repo.GetDefinition(ctx, id)
}

func (s *Service) ListDefinitions(ctx context.Context) ([]Definition, error) {
	defs, err := s.repo.ListDefinitions(ctx)
	if err != nil {
		return nil, fmt.Errorf("list definitions: %w", err)
	}
	return defs, nil
}

// SaveDraft stores the editable working copy. Archived definitions are
// read-only.
func (s *Service) SaveDraft(ctx context.Context, id uuid.UUID, draft json.RawMessage, actorID *uuid.UUID) (*Definition, error) {
	if !json.Valid(draft) {
		return nil, fmt.Errorf("%w: draft is not valid JSON", ErrInvalidConfig)
	}

	current, err := s.repo.GetDefinition(ctx, id)
	if err != nil {
		return nil, err
	}
	if current.Status == StatusArchived {
		return nil, ErrDefinitionArchived
	}

	updated, err := s.repo.UpdateDraft(ctx, id, draft)
	if err != nil {
		return nil, err
	}

	s.trail.Record(ctx, audit.Entry{
		EntityType: "interactive_definition",
		EntityID:   id.String(),
		Action:     ActionDraftSaved,
		ActorID:    actorID,
	})

	return updated, nil
}

// Publish snapshots the given config as the next immutable version and flips
// the definition to published. Version numbers are strictly increasing and
// never reused: next = latest + 1, and the definition update and version
// insert happen in one transaction. The draft is refreshed to the published
// config so the two converge at publish time.
func (s *Service) Publish(ctx context.Context, id uuid.UUID, config json.RawMessage, publishedBy *uuid.UUID) (*Definition, *Version, error) {
	if !json.Valid(config) {
		return nil, nil, fmt.Errorf("%w: config is not valid JSON", ErrInvalidConfig)
	}

	def, err := s.repo.GetDefinition(ctx, id)
	if err != nil {
		return nil, nil, err
	}
	if def.Status == StatusArchived {
		return nil, nil, ErrDefinitionArchived
	}

	if def.Type == TypeNavigator {
		cfg, err := ParseNavigatorConfig(config)
		if err != nil {
			return nil, nil, fmt.Errorf("%w: %v", ErrInvalidConfig, err)
		}
		if issues := ValidateNavigatorConfig(cfg); len(issues) > 0 {
			return nil, nil, fmt.Errorf("%w: %s", ErrNavigatorConfigDrop, issues[0])
		}
	}

	latest, err := s.repo.LatestVersionNumber(ctx, id)
	if err != nil {
		return nil, nil, err
	}
	next := latest + 1

	updated, version, err := s.repo.PublishVersion(ctx, id, config, next, publishedBy)
	if err != nil {
		return nil, nil, fmt.Errorf("publish version %d: %w", next, err)
	}

	if s.cache != nil {
		if err := s.cache.Invalidate(ctx, string(def.Type), def.Slug); err != nil {
			s.logger.Warn("cache invalidation failed after publish", "slug", def.Slug, "error", err)
		}
	}

	s.metrics.ObservePublish()
	s.trail.Record(ctx, audit.Entry{
		EntityType: "interactive_definition",
		EntityID:   id.String(),
		Action:     ActionPublished,
		NewState:   mustJSON(map[string]any{"version": next, "status": StatusPublished}),
		ActorID:    publishedBy,
	})

	return updated, version, nil
}

func (s *Service) ListVersions(ctx context.Context, definitionID uuid.UUID) ([]Version, error) {
	if _, err := s.repo.GetDefinition(ctx, definitionID); err != nil {
		return nil, err
	}
	versions, err := s.repo.ListVersions(ctx, definitionID)
	if err != nil {
		return nil, fmt.Errorf("list versions: %w", err)
	}
	return versions, nil
}

func (s *Service) GetVersion(ctx context.Context, definitionID uuid.UUID, version int) (*Version, error) {
	return s.repo.GetVersion(ctx, definitionID, version)
}

// ValidateDraft runs the navigator integrity checks against a supplied config
// or, when config is nil, the stored draft.
func (s *Service) ValidateDraft(ctx context.Context, id uuid.UUID, config json.RawMessage) ([]string, error) {
	def, err := s.repo.GetDefinition(ctx, id)
	if err != nil {
		return nil, err
	}
	if def.Type != TypeNavigator {
		return nil, ErrNotANavigator
	}

	if config == nil {
		config = def.DraftJSON
	}

	cfg, err := ParseNavigatorConfig(config)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}

	return ValidateNavigatorConfig(cfg), nil
}

// Diff compares the current draft against a prior published version.
func (s *Service) Diff(ctx context.Context, id uuid.UUID, version int) ([]string, error) {
	def, err := s.repo.GetDefinition(ctx, id)
	if err != nil {
		return nil, err
	}
	if def.Type != TypeNavigator {
		return nil, ErrNotANavigator
	}

	prior, err := s.repo.GetVersion(ctx, id, version)
	if err != nil {
		return nil, err
	}

	draftCfg, err := ParseNavigatorConfig(def.DraftJSON)
	if err != nil {
		return nil, fmt.Errorf("%w: draft: %v", ErrInvalidConfig, err)
	}
	priorCfg, err := ParseNavigatorConfig(prior.ConfigJSON)
	if err != nil {
		return nil, fmt.Errorf("%w: version %d: %v", ErrInvalidConfig, version, err)
	}

	return DiffNavigatorConfigs(draftCfg, priorCfg), nil
}

// Archive retires a definition and drops it from the public cache.
func (s *Service) Archive(ctx context.Context, id uuid.UUID, actorID *uuid.UUID) (*Definition, error) {
	def, err := s.repo.ArchiveDefinition(ctx, id)
	if err != nil {
		return nil, err
	}

	if s.cache != nil {
		if err := s.cache.Invalidate(ctx, string(def.Type), def.Slug); err != nil {
			s.logger.Warn("cache invalidation failed after archive", "slug", def.Slug, "error", err)
		}
	}

	s.trail.Record(ctx, audit.Entry{
		EntityType: "interactive_definition",
		EntityID:   id.String(),
		Action:     ActionArchived,
		ActorID:    actorID,
	})

	return def, nil
}

// PublishedNavigator returns the published config for a navigator slug,
// served from cache when possible.
func (s *Service) PublishedNavigator(ctx context.Context, slug string) (json.RawMessage, error) {
	if s.cache != nil {
		if data, err := s.cache.Get(ctx, string(TypeNavigator), slug); err == nil {
			s.metrics.ObserveNavigatorRead("hit")
			return data, nil
		}
	}

	def, err := s.repo.GetDefinitionBySlug(ctx, TypeNavigator, slug)
	if err != nil {
		return nil, err
	}
	if def.Status != StatusPublished || len(def.PublishedJSON) == 0 {
		return nil, ErrNavigatorNotServed
	}

	if s.cache != nil {
		if err := s.cache.Set(ctx, string(TypeNavigator), slug, def.PublishedJSON); err != nil {
			s.logger.Warn("navigator cache fill failed", "slug", slug, "error", err)
		}
	}

	s.metrics.ObserveNavigatorRead("miss")
	return def.PublishedJSON, nil
}

func mustJSON(v any) json.RawMessage {
	data, err := json.Marshal(v)
	if err != nil {
		return nil
	}
	return data
}
