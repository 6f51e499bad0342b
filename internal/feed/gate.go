package feed

import "github.com/DeafMist/tripboard/backend/internal/models"

// Gate returns enriched when it holds at least min items, otherwise current.
// The bool reports whether enriched won.
func Gate(current, enriched []models.DisplayItem, min int) ([]models.DisplayItem, bool) {
	if min < 1 {
		min = 1
	}
	if len(enriched) >= min {
		return enriched, true
	}
	return current, false
}
