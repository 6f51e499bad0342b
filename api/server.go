package main

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/sync/errgroup"

	"github.com/DeafMist/tripboard/backend/internal/config"
	"github.com/DeafMist/tripboard/backend/internal/dining"
	"github.com/DeafMist/tripboard/backend/internal/feed"
	"github.com/DeafMist/tripboard/backend/internal/metrics"
	"github.com/DeafMist/tripboard/backend/internal/models"
	"github.com/DeafMist/tripboard/backend/internal/places"
	"github.com/DeafMist/tripboard/backend/internal/render"
)

type healthChecker interface {
	Health(ctx context.Context) error
}

type mediaResolver interface {
	PhotoMediaURI(ctx context.Context, name string) (string, error)
}

type server struct {
	log    *slog.Logger
	cfg    *config.API
	store  feed.Store
	health healthChecker
	photos feed.PhotoFinder
	dining dining.Finder
	media  mediaResolver
}

type errorResponse struct {
	Error string `json:"error"`
}

type feedResponse struct {
	Source string               `json:"source"`
	Items  []models.DisplayItem `json:"items"`
}

type diningResponse struct {
	Near  string              `json:"near"`
	Items []models.DiningItem `json:"items"`
}

func (s *server) routes() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(metrics.Middleware)

	r.Get("/", s.handlePage)
	r.Get("/health", s.handleHealth)
	r.Get("/feeds/destinations", s.handleFeed(s.destinations))
	r.Get("/feeds/stories", s.handleFeed(s.stories))
	r.Get("/dining", s.handleDining)
	r.Get("/media/*", s.handleMedia)
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	return r
}

func (s *server) destinations() feed.Definition {
	return feed.Destinations(s.cfg.Collection, s.cfg.Destinations)
}

func (s *server) stories() feed.Definition {
	return feed.Stories(s.cfg.Collection, s.cfg.Stories)
}

// mount builds a fresh feed for this request and runs its pipeline once.
func (s *server) mount(ctx context.Context, def feed.Definition) *feed.Feed {
	f := feed.New(def, s.store, s.photos, s.log)
	if err := f.Load(ctx); err != nil {
		s.log.Error("load feed", slog.String("feed", def.Name), slog.Any("err", err))
	}
	return f
}

func (s *server) handleHealth(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	if err := s.health.Health(ctx); err != nil {
		writeJSON(w, http.StatusServiceUnavailable, errorResponse{Error: err.Error()})
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *server) handleFeed(def func() feed.Definition) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
		defer cancel()

		f := s.mount(ctx, def())
		writeJSON(w, http.StatusOK, feedResponse{Source: f.Source(), Items: f.Items()})
	}
}

func (s *server) handlePage(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	defs := []struct {
		title string
		def   feed.Definition
	}{
		{title: "Featured destinations", def: s.destinations()},
		{title: "Latest stories", def: s.stories()},
	}

	strips := make([]render.Strip, len(defs))
	var g errgroup.Group
	for i, d := range defs {
		g.Go(func() error {
			f := s.mount(ctx, d.def)
			strips[i] = render.Strip{Name: f.Name(), Title: d.title, Source: f.Source(), Items: f.Items()}
			return nil
		})
	}
	_ = g.Wait()

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := render.Page(w, render.PageData{
		Title:       "Plan your next trip",
		Placeholder: s.cfg.PlaceholderURL,
		Strips:      strips,
	}); err != nil {
		s.log.Error("render page", slog.Any("err", err))
	}
}

func (s *server) handleDining(w http.ResponseWriter, r *http.Request) {
	near := strings.TrimSpace(r.URL.Query().Get("near"))
	if near == "" {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "near is required"})
		return
	}
	limit := clampInt(r.URL.Query().Get("limit"), s.cfg.DiningLimit, 20)

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	items, err := dining.Recommend(ctx, s.dining, near, limit)
	if err != nil {
		s.log.Warn("dining lookup failed", slog.String("near", near), slog.Any("err", err))
		writeJSON(w, http.StatusBadGateway, errorResponse{Error: "dining recommendations unavailable"})
		return
	}

	writeJSON(w, http.StatusOK, diningResponse{Near: near, Items: items})
}

// handleMedia redirects a photo name to its public image so the places key
// stays on the server.
func (s *server) handleMedia(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "*")
	if !places.ValidPhotoName(name) {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid photo name"})
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	uri, err := s.media.PhotoMediaURI(ctx, name)
	if err != nil {
		s.log.Warn("photo media lookup failed", slog.String("name", name), slog.Any("err", err))
		writeJSON(w, http.StatusBadGateway, errorResponse{Error: "photo unavailable"})
		return
	}

	w.Header().Set("Cache-Control", "private, max-age=300")
	http.Redirect(w, r, uri, http.StatusFound)
}

func clampInt(raw string, fallback, max int) int {
	if raw == "" {
		return fallback
	}
	value, err := strconv.Atoi(raw)
	if err != nil {
		return fallback
	}
	if value <= 0 {
		return fallback
	}
	if value > max {
		return max
	}
	return value
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}
