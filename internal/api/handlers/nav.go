package handlers

import (
	"github.com/holycodess/AppDashboard/internal/access"
	"github.com/holycodess/AppDashboard/internal/models"
)

type navEntry struct {
	Label string `json:"label"`
	Path  string `json:"path"`
}

func navigation(profile *models.Profile) []navEntry {
	items := access.NavItems(profile)
	out := make([]navEntry, 0, len(items))
	for _, it := range items {
		out = append(out, navEntry{Label: it.Label, Path: it.Path})
	}
	return out
}
