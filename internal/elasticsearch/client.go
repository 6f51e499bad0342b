package elasticsearch

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/elastic/go-elasticsearch/v8"
	"github.com/elastic/go-elasticsearch/v8/esapi"

	"github.com/DeafMist/tripboard/backend/internal/models"
)

// Client wraps go-elasticsearch with the collection helpers the services need.
// Every collection lives in its own index.
type Client struct {
	es         *elasticsearch.Client
	collection string
	log        *slog.Logger
}

// QueryParams describe a "public records ranked by field" query.
type QueryParams struct {
	// Collection overrides the client's default collection when set.
	Collection  string
	PublicField string
	RankField   string
	Limit       int
}

// New instantiates the Elasticsearch client. collection is the default index.
func New(addr, collection string, logger *slog.Logger) (*Client, error) {
	cfg := elasticsearch.Config{
		Addresses: []string{addr},
	}

	es, err := elasticsearch.NewClient(cfg)
	if err != nil {
		return nil, fmt.Errorf("create elasticsearch client: %w", err)
	}

	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	return &Client{es: es, collection: collection, log: logger}, nil
}

func (c *Client) index(collection string) string {
	if collection != "" {
		return collection
	}
	return c.collection
}

// Ping checks if Elasticsearch is available.
func (c *Client) Ping(ctx context.Context) error {
	res, err := c.es.Ping(c.es.Ping.WithContext(ctx))
	if err != nil {
		return fmt.Errorf("ping elasticsearch: %w", err)
	}
	defer res.Body.Close()

	if res.IsError() {
		return fmt.Errorf("elasticsearch ping failed: %s", res.Status())
	}

	return nil
}

// IndexRecord writes a record into a collection, replacing any previous version.
func (c *Client) IndexRecord(ctx context.Context, collection string, rec models.Record) error {
	if rec.ID == "" {
		return fmt.Errorf("index record: empty id")
	}

	payload, err := json.Marshal(rec.Data())
	if err != nil {
		return fmt.Errorf("marshal record: %w", err)
	}

	req := esapi.IndexRequest{
		Index:      c.index(collection),
		DocumentID: rec.ID,
		Body:       bytes.NewReader(payload),
		Refresh:    "false",
	}

	res, err := req.Do(ctx, c.es)
	if err != nil {
		return fmt.Errorf("index record: %w", err)
	}
	defer res.Body.Close()

	if res.IsError() {
		body, _ := io.ReadAll(res.Body)
		return fmt.Errorf("index record failed: %s", strings.TrimSpace(string(body)))
	}

	return nil
}

// QueryPublic returns up to Limit records whose PublicField is true, ordered by
// RankField descending. Ties come back in whatever order the store picks.
func (c *Client) QueryPublic(ctx context.Context, params QueryParams) ([]models.Record, error) {
	if params.PublicField == "" || params.RankField == "" {
		return nil, fmt.Errorf("query public: public and rank fields are required")
	}
	if params.Limit <= 0 {
		params.Limit = 10
	}

	body := map[string]any{
		"size": params.Limit,
		"query": map[string]any{
			"bool": map[string]any{
				"filter": []map[string]any{
					{"term": map[string]any{params.PublicField: true}},
				},
			},
		},
		"sort": []map[string]any{
			{params.RankField: map[string]any{"order": "desc", "unmapped_type": "long"}},
		},
	}

	payload, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("marshal query body: %w", err)
	}

	res, err := c.es.Search(
		c.es.Search.WithContext(ctx),
		c.es.Search.WithIndex(c.index(params.Collection)),
		c.es.Search.WithBody(bytes.NewReader(payload)),
	)
	if err != nil {
		return nil, fmt.Errorf("query public: %w", err)
	}
	defer res.Body.Close()

	if res.IsError() {
		data, _ := io.ReadAll(res.Body)
		return nil, fmt.Errorf("query public failed: %s", strings.TrimSpace(string(data)))
	}

	var parsed struct {
		Hits struct {
			Hits []struct {
				ID     string         `json:"_id"`
				Source map[string]any `json:"_source"`
			} `json:"hits"`
		} `json:"hits"`
	}

	if err := json.NewDecoder(res.Body).Decode(&parsed); err != nil {
		return nil, fmt.Errorf("decode query response: %w", err)
	}

	records := make([]models.Record, 0, len(parsed.Hits.Hits))
	for _, hit := range parsed.Hits.Hits {
		records = append(records, models.Record{ID: hit.ID, Fields: hit.Source})
	}

	c.log.Debug("queried public records",
		slog.String("collection", c.index(params.Collection)),
		slog.String("rank_field", params.RankField),
		slog.Int("count", len(records)),
	)

	return records, nil
}

// DeleteStaleDrafts removes records that are not public and whose updatedField is
// older than maxAge, using batched delete-by-query. It loops until a batch
// deletes fewer documents than batchSize.
func (c *Client) DeleteStaleDrafts(ctx context.Context, collection, publicField, updatedField string, maxAge time.Duration, batchSize int) (int64, error) {
	if batchSize <= 0 {
		batchSize = 1000
	}

	cutoff := time.Now().Add(-maxAge).UTC().Format(time.RFC3339)
	totalDeleted := int64(0)

	for {
		body := map[string]any{
			"max_docs": batchSize,
			"query": map[string]any{
				"bool": map[string]any{
					"must_not": []map[string]any{
						{"term": map[string]any{publicField: true}},
					},
					"filter": []map[string]any{
						{"range": map[string]any{updatedField: map[string]any{"lte": cutoff}}},
					},
				},
			},
		}

		payload, err := json.Marshal(body)
		if err != nil {
			return totalDeleted, fmt.Errorf("marshal delete body: %w", err)
		}

		res, err := c.es.DeleteByQuery(
			[]string{c.index(collection)},
			bytes.NewReader(payload),
			c.es.DeleteByQuery.WithContext(ctx),
			c.es.DeleteByQuery.WithWaitForCompletion(true),
			c.es.DeleteByQuery.WithConflicts("proceed"),
			c.es.DeleteByQuery.WithScrollSize(batchSize),
		)
		if err != nil {
			return totalDeleted, fmt.Errorf("delete by query: %w", err)
		}

		if res.IsError() {
			data, _ := io.ReadAll(res.Body)
			res.Body.Close()
			return totalDeleted, fmt.Errorf("delete by query failed: %s", strings.TrimSpace(string(data)))
		}

		var parsed struct {
			Deleted int64 `json:"deleted"`
		}
		if err := json.NewDecoder(res.Body).Decode(&parsed); err != nil {
			res.Body.Close()
			return totalDeleted, fmt.Errorf("decode delete response: %w", err)
		}
		res.Body.Close()

		totalDeleted += parsed.Deleted

		if parsed.Deleted < int64(batchSize) {
			break
		}
	}

	return totalDeleted, nil
}

// Health checks cluster health.
func (c *Client) Health(ctx context.Context) error {
	res, err := c.es.Cluster.Health(c.es.Cluster.Health.WithContext(ctx))
	if err != nil {
		return err
	}
	defer res.Body.Close()
	if res.StatusCode >= http.StatusBadRequest {
		data, _ := io.ReadAll(res.Body)
		return fmt.Errorf("cluster health bad: %s", strings.TrimSpace(string(data)))
	}
	return nil
}
