package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/DeafMist/tripboard/backend/internal/config"
	"github.com/DeafMist/tripboard/backend/internal/elasticsearch"
	"github.com/DeafMist/tripboard/backend/internal/fallback"
	"github.com/DeafMist/tripboard/backend/internal/logger"
	"github.com/DeafMist/tripboard/backend/internal/models"
	"github.com/DeafMist/tripboard/backend/internal/places"
)

type stubStore struct {
	byRank map[string][]models.Record
	err    error
}

func (s stubStore) QueryPublic(_ context.Context, params elasticsearch.QueryParams) ([]models.Record, error) {
	if s.err != nil {
		return nil, s.err
	}
	return s.byRank[params.RankField], nil
}

type stubHealth struct{ err error }

func (s stubHealth) Health(context.Context) error { return s.err }

type stubPhotos struct{}

func (stubPhotos) FindPhoto(_ context.Context, query string, index int) (string, error) {
	return fmt.Sprintf("https://img.test/%s/%d", strings.ReplaceAll(query, " ", "_"), index), nil
}

type stubDining struct {
	found []places.Place
	err   error
}

func (s stubDining) Restaurants(context.Context, string, int) ([]places.Place, error) {
	return s.found, s.err
}

func (stubDining) PhotoURL(name string) string { return "https://img.test/" + name }

type stubMedia struct {
	uri  string
	err  error
	name string
}

func (s *stubMedia) PhotoMediaURI(_ context.Context, name string) (string, error) {
	s.name = name
	return s.uri, s.err
}

func testConfig() *config.API {
	return &config.API{
		Common:         config.Common{Collection: "journeys"},
		PlaceholderURL: "https://img.test/placeholder.jpg",
		Destinations:   config.Feed{Limit: 10, Min: 4, PhotoIndex: 0},
		Stories:        config.Feed{Limit: 6, Min: 3, PhotoIndex: 1},
		DiningLimit:    6,
	}
}

func newTestServer(store stubStore) *server {
	return &server{
		log:    logger.Discard(),
		cfg:    testConfig(),
		store:  store,
		health: stubHealth{},
		photos: stubPhotos{},
		dining: stubDining{},
		media:  &stubMedia{},
	}
}

func cities(names ...string) []models.Record {
	out := make([]models.Record, 0, len(names))
	for i, name := range names {
		out = append(out, models.Record{ID: fmt.Sprintf("d%d", i), Fields: map[string]any{
			"destination": map[string]any{"city": name},
		}})
	}
	return out
}

func get(t *testing.T, h http.Handler, target string) *httptest.ResponseRecorder {
	t.Helper()
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, target, http.NoBody))
	return rr
}

func TestFeedFallsBackWhenQueryFails(t *testing.T) {
	srv := newTestServer(stubStore{err: errors.New("cluster red")})

	rr := get(t, srv.routes(), "/feeds/destinations")
	require.Equal(t, http.StatusOK, rr.Code)

	var resp feedResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	require.Equal(t, "fallback", resp.Source)
	require.Equal(t, fallback.Destinations(), resp.Items)
}

func TestFeedServesRemoteItems(t *testing.T) {
	srv := newTestServer(stubStore{byRank: map[string][]models.Record{
		"likes": cities("Rome", "Paris", "rome", "Oslo", "Quito"),
	}})

	rr := get(t, srv.routes(), "/feeds/destinations")
	require.Equal(t, http.StatusOK, rr.Code)

	var resp feedResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	require.Equal(t, "remote", resp.Source)
	require.Len(t, resp.Items, 4)
	require.Equal(t, "Rome", resp.Items[0].PrimaryLabel)
	require.Equal(t, "https://img.test/Rome/0", resp.Items[0].ImageURL)
	require.Equal(t, "Quito", resp.Items[3].PrimaryLabel)
}

func TestStoriesBelowMinimumServeFallback(t *testing.T) {
	srv := newTestServer(stubStore{byRank: map[string][]models.Record{
		"createdAt": {
			{ID: "s1", Fields: map[string]any{"title": "Only story"}},
		},
	}})

	rr := get(t, srv.routes(), "/feeds/stories")
	var resp feedResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	require.Equal(t, "fallback", resp.Source)
	require.Equal(t, fallback.Stories(), resp.Items)
}

func TestPageRendersBothStrips(t *testing.T) {
	srv := newTestServer(stubStore{err: errors.New("down")})

	rr := get(t, srv.routes(), "/")
	require.Equal(t, http.StatusOK, rr.Code)
	require.Contains(t, rr.Header().Get("Content-Type"), "text/html")

	body := rr.Body.String()
	require.Contains(t, body, `id="strip-destinations"`)
	require.Contains(t, body, `id="strip-stories"`)
	require.Contains(t, body, `data-fallback="https://img.test/placeholder.jpg"`)
	require.Contains(t, body, fallback.Destinations()[0].PrimaryLabel)
}

func TestHealth(t *testing.T) {
	srv := newTestServer(stubStore{})
	require.Equal(t, http.StatusOK, get(t, srv.routes(), "/health").Code)

	srv.health = stubHealth{err: errors.New("red")}
	require.Equal(t, http.StatusServiceUnavailable, get(t, srv.routes(), "/health").Code)
}

func TestDining(t *testing.T) {
	srv := newTestServer(stubStore{})
	taberna := places.Place{FormattedAddress: "Rua 1", PriceLevel: "PRICE_LEVEL_INEXPENSIVE"}
	taberna.DisplayName.Text = "Taberna"
	srv.dining = stubDining{found: []places.Place{taberna}}

	rr := get(t, srv.routes(), "/dining?near=Porto")
	require.Equal(t, http.StatusOK, rr.Code)

	var resp diningResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	require.Equal(t, "Porto", resp.Near)
	require.Len(t, resp.Items, 1)
	require.Equal(t, "Taberna", resp.Items[0].Name)
	require.Equal(t, "$", resp.Items[0].PriceIndicator)

	require.Equal(t, http.StatusBadRequest, get(t, srv.routes(), "/dining").Code)

	srv.dining = stubDining{err: errors.New("quota")}
	require.Equal(t, http.StatusBadGateway, get(t, srv.routes(), "/dining?near=Porto").Code)
}

func TestMetricsEndpoint(t *testing.T) {
	srv := newTestServer(stubStore{})
	_ = get(t, srv.routes(), "/feeds/destinations")

	rr := get(t, srv.routes(), "/metrics")
	require.Equal(t, http.StatusOK, rr.Code)
	require.Contains(t, rr.Body.String(), "tripboard_feed_loads_total")
}

func TestClampInt(t *testing.T) {
	require.Equal(t, 6, clampInt("", 6, 20))
	require.Equal(t, 6, clampInt("abc", 6, 20))
	require.Equal(t, 6, clampInt("-1", 6, 20))
	require.Equal(t, 20, clampInt("99", 6, 20))
	require.Equal(t, 3, clampInt("3", 6, 20))
}

func TestMediaRedirectsToPublicURI(t *testing.T) {
	srv := newTestServer(stubStore{})
	media := &stubMedia{uri: "https://lh3.test/p/abc"}
	srv.media = media

	rr := get(t, srv.routes(), "/media/places/p9/photos/z")
	require.Equal(t, http.StatusFound, rr.Code)
	require.Equal(t, "https://lh3.test/p/abc", rr.Header().Get("Location"))
	require.Equal(t, "places/p9/photos/z", media.name)
}

func TestMediaRejectsInvalidName(t *testing.T) {
	srv := newTestServer(stubStore{})
	media := &stubMedia{uri: "https://lh3.test/p/abc"}
	srv.media = media

	rr := get(t, srv.routes(), "/media/v1/projects")
	require.Equal(t, http.StatusBadRequest, rr.Code)
	require.Empty(t, media.name)
}

func TestMediaUpstreamFailure(t *testing.T) {
	srv := newTestServer(stubStore{})
	srv.media = &stubMedia{err: errors.New("quota")}

	require.Equal(t, http.StatusBadGateway, get(t, srv.routes(), "/media/places/p9/photos/z").Code)
}
