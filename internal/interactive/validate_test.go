package interactive

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateAcceptsWellFormedConfig(t *testing.T) {
	assert.Empty(t, ValidateNavigatorConfig(baseNavigator()))
}

func TestValidateRequiresInitialStep(t *testing.T) {
	cfg := baseNavigator()
	cfg.InitialStepID = ""
	assert.Contains(t, ValidateNavigatorConfig(cfg), "initial_step_id is required")

	cfg.InitialStepID = "nowhere"
	issues := ValidateNavigatorConfig(cfg)
	require.Len(t, issues, 1)
	assert.Equal(t, `initial_step_id "nowhere" does not resolve to a step`, issues[0])
}

func TestValidateFlagsDuplicateIDs(t *testing.T) {
	cfg := baseNavigator()
	cfg.Steps = append(cfg.Steps, NavigatorStep{ID: "start", Question: "Again?"})
	cfg.ResultProfiles = append(cfg.ResultProfiles, ResultProfile{ID: "therapy"})

	issues := ValidateNavigatorConfig(cfg)
	assert.Contains(t, issues, `duplicate step id "start"`)
	assert.Contains(t, issues, `duplicate result profile id "therapy"`)
}

func TestValidateChoiceTargets(t *testing.T) {
	cfg := baseNavigator()
	cfg.Steps[0].Choices = []NavigatorChoice{
		{ID: "none", Text: "No target"},
		{ID: "both", Text: "Two targets", NextStepID: strptr("work"), ResultProfileID: strptr("therapy")},
		{ID: "ghost-step", Text: "Missing step", NextStepID: strptr("missing")},
		{ID: "ghost-profile", Text: "Missing profile", ResultProfileID: strptr("missing")},
	}

	issues := ValidateNavigatorConfig(cfg)
	assert.Contains(t, issues, `step "start" choice "none" has no target`)
	assert.Contains(t, issues, `step "start" choice "both" has both a step and a profile target`)
	assert.Contains(t, issues, `step "start" choice "ghost-step" targets unknown step "missing"`)
	assert.Contains(t, issues, `step "start" choice "ghost-profile" targets unknown result profile "missing"`)
}
