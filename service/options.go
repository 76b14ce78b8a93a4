package service

import (
	"strings"

	"polly-backend/models"
)

// OptionInput is one submitted option of an update: NewOption or ExistingOption
type OptionInput interface {
	optionInput()
}

// NewOption has no stored identity yet
type NewOption struct {
	Text string
}

// ExistingOption refers to an option already stored for the poll
type ExistingOption struct {
	ID   string
	Text string
}

func (NewOption) optionInput()      {}
func (ExistingOption) optionInput() {}

// nonBlank keeps the texts that are not empty after trimming
func nonBlank(texts []string) []string {
	kept := make([]string, 0, len(texts))
	for _, t := range texts {
		if strings.TrimSpace(t) != "" {
			kept = append(kept, t)
		}
	}
	return kept
}

// partitionOptions splits submitted options into rows to insert and rows to
// upsert. Blank texts are dropped, so an existing option cleared by the user
// ends up stale and is removed.
func partitionOptions(pollID string, inputs []OptionInput) (fresh, existing []models.PollOption) {
	for _, in := range inputs {
		switch o := in.(type) {
		case NewOption:
			if strings.TrimSpace(o.Text) == "" {
				continue
			}
			fresh = append(fresh, models.PollOption{PollID: pollID, Text: o.Text})
		case ExistingOption:
			if strings.TrimSpace(o.Text) == "" {
				continue
			}
			existing = append(existing, models.PollOption{ID: o.ID, PollID: pollID, Text: o.Text})
		}
	}
	return fresh, existing
}

// staleOptionIDs returns the stored ids that are in neither keep set
func staleOptionIDs(stored []string, keep ...[]models.PollOption) []string {
	kept := make(map[string]struct{})
	for _, set := range keep {
		for _, o := range set {
			kept[o.ID] = struct{}{}
		}
	}

	var stale []string
	for _, id := range stored {
		if _, ok := kept[id]; !ok {
			stale = append(stale, id)
		}
	}
	return stale
}
