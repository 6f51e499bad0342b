package dining_test

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/DeafMist/tripboard/backend/internal/dining"
	"github.com/DeafMist/tripboard/backend/internal/places"
)

type stubFinder struct {
	places []places.Place
	err    error
}

func (s stubFinder) Restaurants(context.Context, string, int) ([]places.Place, error) {
	return s.places, s.err
}

func (s stubFinder) PhotoURL(name string) string {
	return "https://img.test/" + name
}

func mustPlaces(t *testing.T, raw string) []places.Place {
	t.Helper()
	var out []places.Place
	require.NoError(t, json.Unmarshal([]byte(raw), &out))
	return out
}

func TestPriceIndicator(t *testing.T) {
	tests := []struct {
		level string
		want  string
	}{
		{level: "PRICE_LEVEL_FREE", want: ""},
		{level: "PRICE_LEVEL_INEXPENSIVE", want: "$"},
		{level: "MODERATE", want: "$$"},
		{level: "price_level_expensive", want: "$$$"},
		{level: "PRICE_LEVEL_VERY_EXPENSIVE", want: "$$$$"},
		{level: "PRICE_LEVEL_UNSPECIFIED", want: ""},
		{level: "", want: ""},
	}

	for _, tt := range tests {
		t.Run(tt.level, func(t *testing.T) {
			require.Equal(t, tt.want, dining.PriceIndicator(tt.level))
		})
	}
}

func TestRecommendDedupesAndBuildsItems(t *testing.T) {
	finder := stubFinder{places: mustPlaces(t, `[
		{"displayName":{"text":"Taberna"},"rating":4.6,"priceLevel":"PRICE_LEVEL_MODERATE","photos":[{"name":"p/1"}]},
		{"displayName":{"text":"TABERNA"},"rating":3.1},
		{"displayName":{"text":""}},
		{"displayName":{"text":"Cantinho"},"priceLevel":"PRICE_LEVEL_EXPENSIVE"}
	]`)}

	items, err := dining.Recommend(context.Background(), finder, "Porto", 5)
	require.NoError(t, err)
	require.Len(t, items, 2)
	require.Equal(t, "Taberna", items[0].Name)
	require.Equal(t, "$$", items[0].PriceIndicator)
	require.Equal(t, "https://img.test/p/1", items[0].ImageURL)
	require.Equal(t, "Cantinho", items[1].Name)
	require.Equal(t, "$$$", items[1].PriceIndicator)
	require.Empty(t, items[1].ImageURL)
}

func TestRecommendRespectsLimit(t *testing.T) {
	finder := stubFinder{places: mustPlaces(t, `[
		{"displayName":{"text":"A"}},{"displayName":{"text":"B"}},{"displayName":{"text":"C"}}
	]`)}

	items, err := dining.Recommend(context.Background(), finder, "Porto", 2)
	require.NoError(t, err)
	require.Len(t, items, 2)
}

func TestRecommendPropagatesError(t *testing.T) {
	_, err := dining.Recommend(context.Background(), stubFinder{err: errors.New("quota")}, "Porto", 2)
	require.Error(t, err)
}
