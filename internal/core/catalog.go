package core

import (
	"encoding/json"
	"fmt"
	"os"
)

// DefaultChallengeCatalog returns the built-in challenge catalog used
// whenever the stored catalog is empty, so clients never render an empty
// challenges screen. Deployments can override it with a JSON file via
// CHALLENGE_CATALOG_FILE instead of changing code.
func DefaultChallengeCatalog() []Challenge {
	return []Challenge{
		{ID: "dummy-daily-1", Title: "Log in for the day", Description: "Open the app to claim your daily reward.", RewardXP: 10, Type: Daily, IsActive: true},
		{ID: "dummy-daily-2", Title: "Track one expense", Description: "Add any expense transaction.", RewardXP: 20, Type: Daily, IsActive: true},
		{ID: "dummy-weekly-1", Title: "On a budget", Description: "Keep 3 spending categories within budget for the week.", RewardXP: 100, Type: Weekly, IsActive: true},
		{ID: "dummy-weekly-2", Title: "Saver of the week", Description: "Save more than 100 SAR this week.", RewardXP: 150, Type: Weekly, IsActive: true},
	}
}

// LoadChallengeCatalog reads a fallback catalog from a JSON file. Every
// entry must validate; an empty file-level list is rejected since it would
// defeat the point of a fallback.
func LoadChallengeCatalog(path string) ([]Challenge, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read challenge catalog: %w", err)
	}
	var catalog []Challenge
	if err := json.Unmarshal(data, &catalog); err != nil {
		return nil, fmt.Errorf("parse challenge catalog: %w", err)
	}
	if len(catalog) == 0 {
		return nil, fmt.Errorf("challenge catalog %s is empty", path)
	}
	for i, c := range catalog {
		if err := c.Validate(); err != nil {
			return nil, fmt.Errorf("challenge catalog entry %d (%s): %w", i, c.ID, err)
		}
	}
	return catalog, nil
}
