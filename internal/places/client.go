package places

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// NameToken is replaced by a photo resource name inside the photo URL template.
const NameToken = "{NAME}"

// MediaMaxPx bounds both sides of a resolved photo.
const MediaMaxPx = 400

var photoName = regexp.MustCompile(`^places/[A-Za-z0-9_-]+/photos/[A-Za-z0-9_-]+$`)

var (
	// ErrInvalidPhotoName means a photo resource name is not places/{id}/photos/{id}.
	ErrInvalidPhotoName = errors.New("invalid photo name")
	// ErrNoPlace means the search returned zero places.
	ErrNoPlace = errors.New("no place found")
	// ErrNoPhoto means the first place has no photo at the requested position.
	ErrNoPhoto = errors.New("no photo at index")
)

// Place is the subset of a places search result we read.
type Place struct {
	DisplayName struct {
		Text string `json:"text"`
	} `json:"displayName"`
	FormattedAddress string  `json:"formattedAddress"`
	Rating           float64 `json:"rating"`
	PriceLevel       string  `json:"priceLevel"`
	Photos           []struct {
		Name string `json:"name"`
	} `json:"photos"`
}

type searchRequest struct {
	TextQuery      string `json:"textQuery"`
	IncludedType   string `json:"includedType,omitempty"`
	MaxResultCount int    `json:"maxResultCount,omitempty"`
}

type searchResponse struct {
	Places []Place `json:"places"`
}

// Client talks to the places text search endpoint.
type Client struct {
	http        *http.Client
	baseURL     string
	apiKey      string
	urlTemplate string
}

// New creates a places client. template must contain NameToken.
func New(baseURL, apiKey, template string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Client{
		http:        &http.Client{Timeout: timeout},
		baseURL:     strings.TrimRight(baseURL, "/"),
		apiKey:      apiKey,
		urlTemplate: template,
	}
}

// PhotoName looks up textQuery and returns places[0].photos[index].name.
func (c *Client) PhotoName(ctx context.Context, textQuery string, index int) (string, error) {
	found, err := c.search(ctx, searchRequest{TextQuery: textQuery}, "places.photos")
	if err != nil {
		return "", err
	}
	if len(found) == 0 {
		return "", fmt.Errorf("%w: %q", ErrNoPlace, textQuery)
	}

	photos := found[0].Photos
	if index < 0 || index >= len(photos) || photos[index].Name == "" {
		return "", fmt.Errorf("%w %d: %q", ErrNoPhoto, index, textQuery)
	}
	return photos[index].Name, nil
}

// PhotoURL substitutes a photo name into the URL template.
func (c *Client) PhotoURL(name string) string {
	return strings.Replace(c.urlTemplate, NameToken, name, 1)
}

// FindPhoto resolves a text query straight to a displayable image URL.
func (c *Client) FindPhoto(ctx context.Context, textQuery string, index int) (string, error) {
	name, err := c.PhotoName(ctx, textQuery, index)
	if err != nil {
		return "", err
	}
	return c.PhotoURL(name), nil
}

// ValidPhotoName reports whether name has the places/{id}/photos/{id} shape.
func ValidPhotoName(name string) bool {
	return photoName.MatchString(name)
}

// PhotoMediaURI asks the media endpoint for a short-lived public image URI.
// The API key is sent as a header and never appears in the result.
func (c *Client) PhotoMediaURI(ctx context.Context, name string) (string, error) {
	if !ValidPhotoName(name) {
		return "", fmt.Errorf("%w: %q", ErrInvalidPhotoName, name)
	}

	q := url.Values{}
	q.Set("maxHeightPx", strconv.Itoa(MediaMaxPx))
	q.Set("maxWidthPx", strconv.Itoa(MediaMaxPx))
	q.Set("skipHttpRedirect", "true")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/v1/"+name+"/media?"+q.Encode(), http.NoBody)
	if err != nil {
		return "", fmt.Errorf("build media request: %w", err)
	}
	req.Header.Set("X-Goog-Api-Key", c.apiKey)

	res, err := c.http.Do(req)
	if err != nil {
		return "", fmt.Errorf("places media: %w", err)
	}
	defer res.Body.Close()

	if res.StatusCode < 200 || res.StatusCode >= 300 {
		data, _ := io.ReadAll(io.LimitReader(res.Body, 4096))
		return "", fmt.Errorf("places media failed (%d): %s", res.StatusCode, strings.TrimSpace(string(data)))
	}

	var parsed struct {
		PhotoURI string `json:"photoUri"`
	}
	if err := json.NewDecoder(res.Body).Decode(&parsed); err != nil {
		return "", fmt.Errorf("decode media response: %w", err)
	}
	if parsed.PhotoURI == "" {
		return "", fmt.Errorf("places media: empty photoUri for %q", name)
	}
	return parsed.PhotoURI, nil
}

// Restaurants returns up to limit restaurants near the given place.
func (c *Client) Restaurants(ctx context.Context, near string, limit int) ([]Place, error) {
	req := searchRequest{
		TextQuery:      "restaurants in " + near,
		IncludedType:   "restaurant",
		MaxResultCount: limit,
	}
	return c.search(ctx, req, "places.displayName,places.formattedAddress,places.rating,places.priceLevel,places.photos")
}

func (c *Client) search(ctx context.Context, body searchRequest, fieldMask string) ([]Place, error) {
	payload, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("marshal places request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/v1/places:searchText", bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("build places request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Goog-Api-Key", c.apiKey)
	req.Header.Set("X-Goog-FieldMask", fieldMask)

	res, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("places search: %w", err)
	}
	defer res.Body.Close()

	if res.StatusCode < 200 || res.StatusCode >= 300 {
		data, _ := io.ReadAll(io.LimitReader(res.Body, 4096))
		return nil, fmt.Errorf("places search failed (%d): %s", res.StatusCode, strings.TrimSpace(string(data)))
	}

	var parsed searchResponse
	if err := json.NewDecoder(res.Body).Decode(&parsed); err != nil {
		return nil, fmt.Errorf("decode places response: %w", err)
	}
	return parsed.Places, nil
}
