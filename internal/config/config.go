package config

import (
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"strings"
	"time"
)

// Common contains document store parameters shared by every service.
type Common struct {
	ElasticsearchAddr string
	// Collection is the default index journeys are stored in.
	Collection string
}

// Feed tunes one card strip.
type Feed struct {
	Limit      int
	Min        int
	PhotoIndex int
}

// Places configures the external places lookup service.
type Places struct {
	APIKey           string
	BaseURL          string
	PhotoURLTemplate string
	Timeout          time.Duration
}

// API describes HTTP-layer configuration.
type API struct {
	Common
	Places
	BindAddr       string
	PlaceholderURL string
	Destinations   Feed
	Stories        Feed
	DiningLimit    int
}

// Worker holds configuration for the Kafka -> Elasticsearch ingest worker.
type Worker struct {
	Common
	KafkaBrokers  []string
	KafkaTopic    string
	KafkaConsumer string
	BatchSize     int
	// Collections lists the indexes a message may target. It always holds Collection.
	Collections []string
}

// Retention configures the draft cleanup loop.
type Retention struct {
	Common
	Interval  time.Duration
	MaxAge    time.Duration
	BatchSize int
}

// Deploy configures the database rules deployment.
type Deploy struct {
	Source  string
	Target  string
	Command []string
	Timeout time.Duration
}

func loadCommon() Common {
	return Common{
		ElasticsearchAddr: getEnv("ELASTICSEARCH_ADDR", "http://elasticsearch:9200"),
		Collection:        getEnv("FEED_COLLECTION", "journeys"),
	}
}

// LoadAPI builds an API config from environment variables.
func LoadAPI() (*API, error) {
	c := &API{
		Common: loadCommon(),
		Places: Places{
			APIKey:           getEnv("PLACES_API_KEY", ""),
			BaseURL:          strings.TrimRight(getEnv("PLACES_BASE_URL", "https://places.googleapis.com"), "/"),
			PhotoURLTemplate: getEnv("PLACES_PHOTO_URL_TEMPLATE", "/media/{NAME}"),
			Timeout:          getDuration("PLACES_TIMEOUT", "10s"),
		},
		BindAddr:       getEnv("API_BIND_ADDR", "0.0.0.0:8080"),
		PlaceholderURL: getEnv("PLACEHOLDER_IMAGE_URL", "/static/placeholder.jpg"),
		Destinations: Feed{
			Limit:      getInt("FEED_DESTINATIONS_LIMIT", 10),
			Min:        getInt("FEED_DESTINATIONS_MIN", 4),
			PhotoIndex: getInt("FEED_DESTINATIONS_PHOTO_INDEX", 0),
		},
		Stories: Feed{
			Limit:      getInt("FEED_STORIES_LIMIT", 6),
			Min:        getInt("FEED_STORIES_MIN", 3),
			PhotoIndex: getInt("FEED_STORIES_PHOTO_INDEX", 1),
		},
		DiningLimit: getInt("DINING_LIMIT", 6),
	}

	if !strings.Contains(c.PhotoURLTemplate, "{NAME}") {
		return nil, fmt.Errorf("PLACES_PHOTO_URL_TEMPLATE must contain {NAME}")
	}
	if err := validateFeed("FEED_DESTINATIONS", c.Destinations); err != nil {
		return nil, err
	}
	if err := validateFeed("FEED_STORIES", c.Stories); err != nil {
		return nil, err
	}
	if c.DiningLimit <= 0 {
		return nil, fmt.Errorf("DINING_LIMIT must be positive")
	}

	return c, nil
}

func validateFeed(prefix string, f Feed) error {
	if f.Limit <= 0 {
		return fmt.Errorf("%s_LIMIT must be positive", prefix)
	}
	if f.Min <= 0 {
		return fmt.Errorf("%s_MIN must be positive", prefix)
	}
	if f.Min > f.Limit {
		return fmt.Errorf("%s_MIN cannot exceed %s_LIMIT", prefix, prefix)
	}
	if f.PhotoIndex < 0 {
		return fmt.Errorf("%s_PHOTO_INDEX cannot be negative", prefix)
	}
	return nil
}

// LoadWorker builds a Worker config from environment variables.
func LoadWorker() (*Worker, error) {
	c := &Worker{
		Common:        loadCommon(),
		KafkaBrokers:  splitAndTrim(getEnv("KAFKA_BROKERS", "kafka:9092")),
		KafkaTopic:    getEnv("KAFKA_TOPIC", "journeys_raw"),
		KafkaConsumer: getEnv("KAFKA_CONSUMER_GROUP", "journeys-worker"),
		BatchSize:     getInt("WORKER_BATCH_SIZE", 10),
	}

	if len(c.KafkaBrokers) == 0 {
		return nil, fmt.Errorf("KAFKA_BROKERS must contain at least one broker")
	}
	if c.BatchSize <= 0 {
		return nil, fmt.Errorf("WORKER_BATCH_SIZE must be positive")
	}

	c.Collections = splitAndTrim(getEnv("WORKER_COLLECTIONS", c.Collection))
	if !slices.Contains(c.Collections, c.Collection) {
		c.Collections = append(c.Collections, c.Collection)
	}

	return c, nil
}

// LoadRetention builds a Retention config from environment variables.
func LoadRetention() (*Retention, error) {
	c := &Retention{
		Common:    loadCommon(),
		Interval:  getDuration("RETENTION_CRON", "24h"),
		MaxAge:    getDuration("RETENTION_MAX_AGE", "720h"),
		BatchSize: getInt("RETENTION_BATCH_SIZE", 500),
	}

	if c.MaxAge <= 0 {
		return nil, fmt.Errorf("RETENTION_MAX_AGE must be positive")
	}
	if c.Interval <= 0 {
		return nil, fmt.Errorf("RETENTION_CRON must be positive")
	}
	if c.BatchSize <= 0 {
		return nil, fmt.Errorf("RETENTION_BATCH_SIZE must be positive")
	}

	return c, nil
}

// LoadDeploy builds a Deploy config from environment variables.
func LoadDeploy() (*Deploy, error) {
	c := &Deploy{
		Source:  getEnv("RULES_SOURCE", "rules/database.rules"),
		Target:  getEnv("RULES_TARGET", "database.rules"),
		Command: strings.Fields(getEnv("RULES_DEPLOY_CMD", "firebase deploy --only firestore:rules")),
		Timeout: getDuration("RULES_DEPLOY_TIMEOUT", "5m"),
	}

	if len(c.Command) == 0 {
		return nil, fmt.Errorf("RULES_DEPLOY_CMD must not be empty")
	}
	if filepath.Clean(c.Source) == filepath.Clean(c.Target) {
		return nil, fmt.Errorf("RULES_TARGET must differ from RULES_SOURCE")
	}
	if c.Timeout <= 0 {
		return nil, fmt.Errorf("RULES_DEPLOY_TIMEOUT must be positive")
	}

	return c, nil
}

func getEnv(key, fallback string) string {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		return v
	}
	return fallback
}

func getInt(key string, fallback int) int {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		if parsed, err := strconv.Atoi(v); err == nil {
			return parsed
		}
	}
	return fallback
}

func getDuration(key, fallback string) time.Duration {
	raw := getEnv(key, fallback)
	d, err := time.ParseDuration(raw)
	if err != nil {
		fd, ferr := time.ParseDuration(fallback)
		if ferr != nil {
			panic(fmt.Sprintf("invalid fallback duration %q: %v", fallback, ferr))
		}
		return fd
	}
	return d
}

func splitAndTrim(raw string) []string {
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
