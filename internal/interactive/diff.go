package interactive

import (
	"fmt"
	"strings"
)

// DiffNavigatorConfigs compares a draft navigator config against a prior
// version structurally and returns ordered human-readable notes. It is a
// review aid before publishing, not a complete change log: equality is by
// string and reference only, and recommendation lists and call-to-action
// fields are not inspected.
func DiffNavigatorConfigs(draft, prior *NavigatorConfig) []string {
	notes := []string{}

	if draft.InitialStepID != prior.InitialStepID {
		notes = append(notes, fmt.Sprintf("Initial step changed from %q to %q", prior.InitialStepID, draft.InitialStepID))
	}

	priorSteps := make(map[string]NavigatorStep, len(prior.Steps))
	for _, st := range prior.Steps {
		priorSteps[st.ID] = st
	}
	draftSteps := make(map[string]NavigatorStep, len(draft.Steps))
	for _, st := range draft.Steps {
		draftSteps[st.ID] = st
	}

	var added, removed []string
	for _, st := range draft.Steps {
		if _, ok := priorSteps[st.ID]; !ok {
			added = append(added, st.ID)
		}
	}
	for _, st := range prior.Steps {
		if _, ok := draftSteps[st.ID]; !ok {
			removed = append(removed, st.ID)
		}
	}
	if len(added) > 0 {
		notes = append(notes, "Added steps: "+strings.Join(added, ", "))
	}
	if len(removed) > 0 {
		notes = append(notes, "Removed steps: "+strings.Join(removed, ", "))
	}

	for _, st := range draft.Steps {
		old, ok := priorSteps[st.ID]
		if !ok {
			continue
		}
		notes = append(notes, diffStep(st, old)...)
	}

	notes = append(notes, diffProfiles(draft.ResultProfiles, prior.ResultProfiles)...)

	return notes
}

func diffStep(draft, prior NavigatorStep) []string {
	var notes []string

	if draft.Question != prior.Question {
		notes = append(notes, fmt.Sprintf("Step %q: question text changed", draft.ID))
	}

	priorChoices := make(map[string]NavigatorChoice, len(prior.Choices))
	for _, c := range prior.Choices {
		priorChoices[c.ID] = c
	}
	draftChoices := make(map[string]NavigatorChoice, len(draft.Choices))
	for _, c := range draft.Choices {
		draftChoices[c.ID] = c
	}

	var added, removed []string
	for _, c := range draft.Choices {
		if _, ok := priorChoices[c.ID]; !ok {
			added = append(added, c.ID)
		}
	}
	for _, c := range prior.Choices {
		if _, ok := draftChoices[c.ID]; !ok {
			removed = append(removed, c.ID)
		}
	}
	if len(added) > 0 {
		notes = append(notes, fmt.Sprintf("Step %q: added choices: %s", draft.ID, strings.Join(added, ", ")))
	}
	if len(removed) > 0 {
		notes = append(notes, fmt.Sprintf("Step %q: removed choices: %s", draft.ID, strings.Join(removed, ", ")))
	}

	for _, c := range draft.Choices {
		old, ok := priorChoices[c.ID]
		if !ok {
			continue
		}
		if c.Text != old.Text {
			notes = append(notes, fmt.Sprintf("Step %q, choice %q: text changed", draft.ID, c.ID))
		}
		if !refEqual(c.NextStepID, old.NextStepID) || !refEqual(c.ResultProfileID, old.ResultProfileID) {
			notes = append(notes, fmt.Sprintf("Step %q, choice %q: target changed", draft.ID, c.ID))
		}
	}

	return notes
}

func diffProfiles(draft, prior []ResultProfile) []string {
	var notes []string

	priorByID := make(map[string]ResultProfile, len(prior))
	for _, p := range prior {
		priorByID[p.ID] = p
	}
	draftByID := make(map[string]ResultProfile, len(draft))
	for _, p := range draft {
		draftByID[p.ID] = p
	}

	var added, removed []string
	for _, p := range draft {
		if _, ok := priorByID[p.ID]; !ok {
			added = append(added, p.ID)
		}
	}
	for _, p := range prior {
		if _, ok := draftByID[p.ID]; !ok {
			removed = append(removed, p.ID)
		}
	}
	if len(added) > 0 {
		notes = append(notes, "Added result profiles: "+strings.Join(added, ", "))
	}
	if len(removed) > 0 {
		notes = append(notes, "Removed result profiles: "+strings.Join(removed, ", "))
	}

	for _, p := range draft {
		old, ok := priorByID[p.ID]
		if !ok {
			continue
		}
		if p.Title != old.Title || p.Description != old.Description {
			notes = append(notes, fmt.Sprintf("Profile %q: title or description changed", p.ID))
		}
	}

	return notes
}

func refEqual(a, b *string) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}
