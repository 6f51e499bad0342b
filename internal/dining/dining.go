package dining

import (
	"context"
	"fmt"
	"strings"

	"github.com/DeafMist/tripboard/backend/internal/dedupe"
	"github.com/DeafMist/tripboard/backend/internal/models"
	"github.com/DeafMist/tripboard/backend/internal/places"
)

// Finder searches restaurants and turns photo names into URLs.
type Finder interface {
	Restaurants(ctx context.Context, near string, limit int) ([]places.Place, error)
	PhotoURL(name string) string
}

var priceSymbols = map[string]int{
	"FREE":           0,
	"INEXPENSIVE":    1,
	"MODERATE":       2,
	"EXPENSIVE":      3,
	"VERY_EXPENSIVE": 4,
}

// PriceIndicator renders a price level as a run of dollar signs.
// Both "MODERATE" and "PRICE_LEVEL_MODERATE" are accepted.
func PriceIndicator(level string) string {
	key := strings.TrimPrefix(strings.ToUpper(strings.TrimSpace(level)), "PRICE_LEVEL_")
	return strings.Repeat("$", priceSymbols[key])
}

// Recommend lists restaurants near a place, one entry per distinct name.
func Recommend(ctx context.Context, finder Finder, near string, limit int) ([]models.DiningItem, error) {
	found, err := finder.Restaurants(ctx, near, limit)
	if err != nil {
		return nil, fmt.Errorf("search restaurants: %w", err)
	}

	names := dedupe.NewLabels(len(found))
	out := make([]models.DiningItem, 0, len(found))
	for _, p := range found {
		name := strings.TrimSpace(p.DisplayName.Text)
		if !names.Add(name) {
			continue
		}

		item := models.DiningItem{
			Name:           name,
			Address:        p.FormattedAddress,
			Rating:         p.Rating,
			PriceLevel:     p.PriceLevel,
			PriceIndicator: PriceIndicator(p.PriceLevel),
		}
		if len(p.Photos) > 0 && p.Photos[0].Name != "" {
			item.ImageURL = finder.PhotoURL(p.Photos[0].Name)
		}
		out = append(out, item)

		if limit > 0 && len(out) == limit {
			break
		}
	}
	return out, nil
}
