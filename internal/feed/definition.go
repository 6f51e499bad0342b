package feed

import (
	"github.com/DeafMist/tripboard/backend/internal/config"
	"github.com/DeafMist/tripboard/backend/internal/elasticsearch"
	"github.com/DeafMist/tripboard/backend/internal/fallback"
	"github.com/DeafMist/tripboard/backend/internal/models"
)

// Definition describes one card strip end to end.
type Definition struct {
	Name       string
	Query      elasticsearch.QueryParams
	Projection ProjectionSpec
	// Min is the smallest enriched list allowed to replace the fallback.
	Min int
	// PhotoIndex selects which photo of the first matching place is shown.
	PhotoIndex int
	Fallback   func() []models.DisplayItem
}

// Destinations is the featured destinations strip: top public journeys by likes,
// one card per distinct city.
func Destinations(collection string, cfg config.Feed) Definition {
	return Definition{
		Name: "destinations",
		Query: elasticsearch.QueryParams{
			Collection:  collection,
			PublicField: "isPublic",
			RankField:   "likes",
			Limit:       cfg.Limit,
		},
		Projection: ProjectionSpec{
			LabelPath:     "destination.city",
			SecondaryPath: "destination.country",
			LinkTemplate:  "/destinations/{ID}",
		},
		Min:        cfg.Min,
		PhotoIndex: cfg.PhotoIndex,
		Fallback:   fallback.Destinations,
	}
}

// Stories is the latest stories strip: newest public journeys, pictured by
// their destination.
func Stories(collection string, cfg config.Feed) Definition {
	return Definition{
		Name: "stories",
		Query: elasticsearch.QueryParams{
			Collection:  collection,
			PublicField: "isPublic",
			RankField:   "createdAt",
			Limit:       cfg.Limit,
		},
		Projection: ProjectionSpec{
			LabelPath:     "title",
			SecondaryPath: "author.displayName",
			QueryPath:     "destination.city",
			LinkTemplate:  "/journeys/{ID}",
		},
		Min:        cfg.Min,
		PhotoIndex: cfg.PhotoIndex,
		Fallback:   fallback.Stories,
	}
}
