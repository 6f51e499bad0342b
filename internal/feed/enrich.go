package feed

import (
	"context"
	"log/slog"

	"golang.org/x/sync/errgroup"

	"github.com/DeafMist/tripboard/backend/internal/metrics"
	"github.com/DeafMist/tripboard/backend/internal/models"
)

// PhotoFinder resolves a free-text place query to an image URL.
type PhotoFinder interface {
	FindPhoto(ctx context.Context, textQuery string, index int) (string, error)
}

// Enricher attaches photos to candidates.
type Enricher struct {
	Feed       string
	Finder     PhotoFinder
	PhotoIndex int
	Log        *slog.Logger
}

// Enrich looks up every candidate concurrently. A failed lookup drops only its
// own candidate; survivors keep their input order. If ctx ends before the batch
// joins, the whole batch is discarded and nil is returned.
func (e Enricher) Enrich(ctx context.Context, candidates []Candidate) []models.DisplayItem {
	if len(candidates) == 0 {
		return nil
	}

	resolved := make([]string, len(candidates))

	var g errgroup.Group
	for i, c := range candidates {
		g.Go(func() error {
			url, err := e.Finder.FindPhoto(ctx, c.Query, e.PhotoIndex)
			if err != nil || url == "" {
				metrics.EnrichmentLookupsTotal.WithLabelValues(e.Feed, "error").Inc()
				e.Log.Warn("photo lookup failed, dropping item",
					slog.String("feed", e.Feed),
					slog.String("label", c.Item.PrimaryLabel),
					slog.String("query", c.Query),
					slog.Any("err", err),
				)
				return nil
			}
			metrics.EnrichmentLookupsTotal.WithLabelValues(e.Feed, "ok").Inc()
			resolved[i] = url
			return nil
		})
	}
	_ = g.Wait()

	if ctx.Err() != nil {
		return nil
	}

	out := make([]models.DisplayItem, 0, len(candidates))
	for i, c := range candidates {
		if resolved[i] == "" {
			continue
		}
		out = append(out, c.Item.WithImage(resolved[i]))
	}
	return out
}
