package interactive

import "fmt"

// ValidateNavigatorConfig checks referential integrity of a navigator config:
// the initial step and every choice target must resolve to an existing step
// or result profile, and every choice must point at exactly one target.
// It returns a list of human-readable issues; an empty list means valid.
func ValidateNavigatorConfig(cfg *NavigatorConfig) []string {
	issues := []string{}

	stepIDs := make(map[string]bool, len(cfg.Steps))
	for _, st := range cfg.Steps {
		if stepIDs[st.ID] {
			issues = append(issues, fmt.Sprintf("duplicate step id %q", st.ID))
		}
		stepIDs[st.ID] = true
	}

	profileIDs := make(map[string]bool, len(cfg.ResultProfiles))
	for _, p := range cfg.ResultProfiles {
		if profileIDs[p.ID] {
			issues = append(issues, fmt.Sprintf("duplicate result profile id %q", p.ID))
		}
		profileIDs[p.ID] = true
	}

	if cfg.InitialStepID == "" {
		issues = append(issues, "initial_step_id is required")
	} else if !stepIDs[cfg.InitialStepID] {
		issues = append(issues, fmt.Sprintf("initial_step_id %q does not resolve to a step", cfg.InitialStepID))
	}

	for _, st := range cfg.Steps {
		for _, c := range st.Choices {
			hasStep := c.NextStepID != nil
			hasProfile := c.ResultProfileID != nil
			switch {
			case !hasStep && !hasProfile:
				issues = append(issues, fmt.Sprintf("step %q choice %q has no target", st.ID, c.ID))
			case hasStep && hasProfile:
				issues = append(issues, fmt.Sprintf("step %q choice %q has both a step and a profile target", st.ID, c.ID))
			case hasStep && !stepIDs[*c.NextStepID]:
				issues = append(issues, fmt.Sprintf("step %q choice %q targets unknown step %q", st.ID, c.ID, *c.NextStepID))
			case hasProfile && !profileIDs[*c.ResultProfileID]:
				issues = append(issues, fmt.Sprintf("step %q choice %q targets unknown result profile %q", st.ID, c.ID, *c.ResultProfileID))
			}
		}
	}

	return issues
}
