// Package feed runs the fetch, project, enrich and gate pipeline behind each
// card strip. A Feed is built fresh for every render and owns its list.
package feed

import (
	"context"
	"errors"
	"log/slog"
	"sync"

	"github.com/DeafMist/tripboard/backend/internal/elasticsearch"
	"github.com/DeafMist/tripboard/backend/internal/metrics"
	"github.com/DeafMist/tripboard/backend/internal/models"
)

// Sources reported by Feed.Source.
const (
	SourceFallback = "fallback"
	SourceRemote   = "remote"
)

// ErrAlreadyLoaded is returned by a second call to Load.
var ErrAlreadyLoaded = errors.New("feed already loaded")

// Store is the document store query used by feeds.
type Store interface {
	QueryPublic(ctx context.Context, params elasticsearch.QueryParams) ([]models.Record, error)
}

// Feed holds the list for one strip. The list is written twice at most:
// the fallback in New, and the gated remote list in Load.
type Feed struct {
	def      Definition
	store    Store
	enricher Enricher
	log      *slog.Logger

	mu     sync.Mutex
	items  []models.DisplayItem
	source string
	loaded bool
}

// New creates a feed already showing its fallback list.
func New(def Definition, store Store, finder PhotoFinder, log *slog.Logger) *Feed {
	log = log.With(slog.String("feed", def.Name))

	var items []models.DisplayItem
	if def.Fallback != nil {
		items = def.Fallback()
	}

	return &Feed{
		def:   def,
		store: store,
		enricher: Enricher{
			Feed:       def.Name,
			Finder:     finder,
			PhotoIndex: def.PhotoIndex,
			Log:        log,
		},
		log:    log,
		items:  items,
		source: SourceFallback,
	}
}

// Load runs the pipeline once. Remote failures never surface: a failed query
// or a short enriched list leaves the fallback in place.
func (f *Feed) Load(ctx context.Context) error {
	f.mu.Lock()
	if f.loaded {
		f.mu.Unlock()
		return ErrAlreadyLoaded
	}
	f.loaded = true
	f.mu.Unlock()

	records, err := f.store.QueryPublic(ctx, f.def.Query)
	if err != nil {
		f.log.Warn("query failed, keeping fallback", slog.Any("err", err))
		metrics.FeedLoadsTotal.WithLabelValues(f.def.Name, metrics.OutcomeQueryError).Inc()
		return nil
	}

	candidates := Project(records, f.def.Projection)
	enriched := f.enricher.Enrich(ctx, candidates)
	if ctx.Err() != nil {
		f.log.Info("load abandoned", slog.Any("err", ctx.Err()))
		metrics.FeedLoadsTotal.WithLabelValues(f.def.Name, metrics.OutcomeFallback).Inc()
		return nil
	}

	f.mu.Lock()
	next, replaced := Gate(f.items, enriched, f.def.Min)
	f.items = next
	if replaced {
		f.source = SourceRemote
	}
	f.mu.Unlock()

	outcome := metrics.OutcomeFallback
	if replaced {
		outcome = metrics.OutcomeRemote
	}
	metrics.FeedLoadsTotal.WithLabelValues(f.def.Name, outcome).Inc()

	f.log.Debug("feed loaded",
		slog.Int("records", len(records)),
		slog.Int("candidates", len(candidates)),
		slog.Int("enriched", len(enriched)),
		slog.String("source", outcome),
	)
	return nil
}

// Items returns a copy of the current list.
func (f *Feed) Items() []models.DisplayItem {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]models.DisplayItem, len(f.items))
	copy(out, f.items)
	return out
}

// Source reports whether the list came from the fallback or the store.
func (f *Feed) Source() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.source
}

// Name returns the strip name.
func (f *Feed) Name() string {
	return f.def.Name
}
