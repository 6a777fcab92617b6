package interactive

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// Type discriminates the config variants of an interactive definition.
type Type string

const (
	TypeQuiz       Type = "quiz"
	TypeNavigator  Type = "navigator"
	TypeRitual     Type = "ritual"
	TypeBoundaries Type = "boundaries"
)

func ValidType(t Type) bool {
	switch t {
	case TypeQuiz, TypeNavigator, TypeRitual, TypeBoundaries:
		return true
	}
	return false
}

type DefinitionStatus string

const (
	StatusDraft     DefinitionStatus = "draft"
	StatusPublished DefinitionStatus = "published"
	StatusArchived  DefinitionStatus = "archived"
)

// Definition is a versioned, JSON-configured user-facing flow. DraftJSON is
// the editable working copy; PublishedJSON the immutable snapshot currently
// served to end users; ConfigJSON tracks the effective config.
type Definition struct {
	ID        uuid.UUID
	Type      Type
	Slug      string
	Title     string
	TopicCode string
	Status    DefinitionStatus

	ConfigJSON     json.RawMessage
	DraftJSON      json.RawMessage
	DraftUpdatedAt *time.Time

	PublishedJSON    json.RawMessage
	PublishedVersion *int
	PublishedAt      *time.Time

	CreatedAt time.Time
	UpdatedAt time.Time
}

// Version is an immutable snapshot of a definition's config at publish time.
type Version struct {
	ID           uuid.UUID
	DefinitionID uuid.UUID
	Version      int
	ConfigJSON   json.RawMessage
	CreatedBy    *uuid.UUID
	CreatedAt    time.Time
}

// NavigatorConfig is the config shape of a navigator definition: a decision
// tree of question steps whose choices lead to other steps or to result
// profiles.
type NavigatorConfig struct {
	InitialStepID  string          `json:"initial_step_id"`
	Steps          []NavigatorStep `json:"steps"`
	ResultProfiles []ResultProfile `json:"result_profiles"`
}

type NavigatorStep struct {
	ID       string            `json:"id"`
	Question string            `json:"question"`
	Choices  []NavigatorChoice `json:"choices"`
}

// NavigatorChoice points to exactly one of a next step or a result profile.
type NavigatorChoice struct {
	ID              string  `json:"id"`
	Text            string  `json:"text"`
	NextStepID      *string `json:"next_step_id,omitempty"`
	ResultProfileID *string `json:"result_profile_id,omitempty"`
}

type ResultProfile struct {
	ID              string        `json:"id"`
	Title           string        `json:"title"`
	Description     string        `json:"description"`
	Recommendations []string      `json:"recommendations,omitempty"`
	CallToAction    *CallToAction `json:"call_to_action,omitempty"`
}

type CallToAction struct {
	Label string `json:"label"`
	URL   string `json:"url"`
}

// ParseNavigatorConfig decodes a navigator config payload.
func ParseNavigatorConfig(data []byte) (*NavigatorConfig, error) {
	var cfg NavigatorConfig
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}
