package sortutil

import (
	"sort"

	"github.com/skaphos/gitsync/internal/model"
)

// LessCategory orders non-local categories before local ones, then by
// name. Local categories run last so more specific categories claim
// overlapping directories first.
func LessCategory(nameI string, modeI model.Mode, nameJ string, modeJ model.Mode) bool {
	localI, localJ := modeI == model.ModeLocal, modeJ == model.ModeLocal
	if localI != localJ {
		return localJ
	}
	return nameI < nameJ
}

// SortCategories orders category names in place using mode to look up each
// category's provisioning mode.
func SortCategories(names []string, mode func(string) model.Mode) {
	sort.SliceStable(names, func(i, j int) bool {
		return LessCategory(names[i], mode(names[i]), names[j], mode(names[j]))
	})
}

// SortOutcomes orders outcomes by provenance, then local path.
func SortOutcomes(outcomes []model.SyncOutcome) {
	sort.SliceStable(outcomes, func(i, j int) bool {
		ti, tj := outcomes[i].Target, outcomes[j].Target
		if ti.Provenance == tj.Provenance {
			return ti.LocalPath < tj.LocalPath
		}
		return ti.Provenance < tj.Provenance
	})
}
