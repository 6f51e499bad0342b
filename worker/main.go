package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"slices"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/segmentio/kafka-go"

	"github.com/DeafMist/tripboard/backend/internal/config"
	"github.com/DeafMist/tripboard/backend/internal/elasticsearch"
	"github.com/DeafMist/tripboard/backend/internal/logger"
	"github.com/DeafMist/tripboard/backend/internal/models"
	"github.com/DeafMist/tripboard/backend/internal/processing"
)

type rawRecord struct {
	Collection string          `json:"collection"`
	ID         string          `json:"id"`
	Data       json.RawMessage `json:"data"`
	Timestamp  string          `json:"timestamp"`
}

var errCollectionNotAllowed = errors.New("collection not allowed")

type recordIndexer interface {
	IndexRecord(ctx context.Context, collection string, rec models.Record) error
}

func main() {
	log := logger.New("worker")
	cfg, err := config.LoadWorker()
	if err != nil {
		log.Error("load config", slog.Any("err", err))
		os.Exit(1)
	}

	esClient, err := elasticsearch.New(cfg.ElasticsearchAddr, cfg.Collection, log)
	if err != nil {
		log.Error("init elasticsearch", slog.Any("err", err))
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
	defer stop()

	reader := kafka.NewReader(kafka.ReaderConfig{
		Brokers:       cfg.KafkaBrokers,
		Topic:         cfg.KafkaTopic,
		GroupID:       cfg.KafkaConsumer,
		QueueCapacity: cfg.BatchSize,
		MinBytes:      1e3,
		MaxBytes:      10e6,
	})
	defer reader.Close()

	dlq := &kafka.Writer{
		Addr:         kafka.TCP(cfg.KafkaBrokers...),
		Topic:        dlqTopic(cfg.KafkaTopic),
		MaxAttempts:  3,
		BatchTimeout: 50 * time.Millisecond,
	}
	defer dlq.Close()

	log.Info("worker started",
		slog.String("topic", cfg.KafkaTopic),
		slog.String("group", cfg.KafkaConsumer),
		slog.String("dlq_topic", dlqTopic(cfg.KafkaTopic)),
	)

	for {
		msg, err := reader.FetchMessage(ctx)
		if err != nil {
			if errors.Is(err, context.Canceled) {
				log.Info("context canceled, stopping")
				return
			}
			log.Error("fetch message", slog.Any("err", err))
			continue
		}

		if procErr := processMessage(ctx, log, esClient, cfg, msg); procErr != nil {
			log.Warn("record rejected, sending to DLQ",
				slog.Any("err", procErr),
				slog.Int("partition", msg.Partition),
				slog.Int64("offset", msg.Offset),
			)
			if !deadLetter(ctx, log, dlq, msg, procErr, time.Second) {
				// Leave uncommitted so the record is redelivered after restart.
				continue
			}
		}

		if err := reader.CommitMessages(ctx, msg); err != nil {
			log.Error("commit message", slog.Any("err", err))
		}
	}
}

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
}

func dlqTopic(topic string) string {
	return topic + "_dlq"
}

// dlqMessage copies msg and tags it with where it came from and why it failed.
func dlqMessage(msg kafka.Message, cause error, now time.Time) kafka.Message {
	headers := make([]kafka.Header, 0, len(msg.Headers)+4)
	headers = append(headers, msg.Headers...)
	headers = append(headers,
		kafka.Header{Key: "original_topic", Value: []byte(msg.Topic)},
		kafka.Header{Key: "original_partition", Value: []byte(strconv.Itoa(msg.Partition))},
		kafka.Header{Key: "original_offset", Value: []byte(strconv.FormatInt(msg.Offset, 10))},
		kafka.Header{Key: "error", Value: []byte(cause.Error())},
		kafka.Header{Key: "timestamp", Value: []byte(now.UTC().Format(time.RFC3339))},
	)
	return kafka.Message{Key: msg.Key, Value: msg.Value, Headers: headers}
}

// deadLetter writes msg to the DLQ, doubling the wait after each failed attempt.
// It reports whether the write eventually succeeded.
func deadLetter(ctx context.Context, log *slog.Logger, w messageWriter, msg kafka.Message, cause error, baseBackoff time.Duration) bool {
	out := dlqMessage(msg, cause, time.Now())

	for attempt := range 5 {
		dlqErr := w.WriteMessages(ctx, out)
		if dlqErr == nil {
			log.Info("message sent to DLQ",
				slog.Int("partition", msg.Partition),
				slog.Int64("offset", msg.Offset),
				slog.Int("attempt", attempt+1),
			)
			return true
		}

		backoff := baseBackoff << uint(attempt)
		log.Warn("DLQ write failed, retrying",
			slog.Any("err", dlqErr),
			slog.Int("attempt", attempt+1),
			slog.Duration("backoff", backoff),
		)
		select {
		case <-time.After(backoff):
		case <-ctx.Done():
			log.Info("context canceled during DLQ retry")
			return false
		}
	}

	log.Error("DLQ write exhausted retries",
		slog.Int("partition", msg.Partition),
		slog.Int64("offset", msg.Offset),
	)
	return false
}

func processMessage(ctx context.Context, log *slog.Logger, idx recordIndexer, cfg *config.Worker, msg kafka.Message) error {
	var payload rawRecord
	if err := json.Unmarshal(msg.Value, &payload); err != nil {
		return err
	}

	var data map[string]any
	if len(payload.Data) == 0 || json.Unmarshal(payload.Data, &data) != nil || data == nil {
		return errors.New("record data must be a JSON object")
	}
	if len(data) == 0 {
		return errors.New("empty record")
	}

	collection := strings.TrimSpace(payload.Collection)
	if collection == "" {
		collection = cfg.Collection
	}
	if !slices.Contains(cfg.Collections, collection) {
		return fmt.Errorf("%w: %q", errCollectionNotAllowed, collection)
	}

	// Redelivered records without an id hash to the same document.
	id := strings.TrimSpace(payload.ID)
	if id == "" {
		id = processing.BuildDocumentID(collection, payload.Data)
	}

	ts := parseTimestamp(payload.Timestamp)
	if ts.IsZero() {
		ts = time.Now().UTC()
	}
	data["updatedAt"] = ts.UTC().Format(time.RFC3339)

	// Records without a visibility flag are drafts.
	if _, ok := data["isPublic"]; !ok {
		data["isPublic"] = false
	}

	rec := models.Record{ID: id, Fields: data}
	if err := idx.IndexRecord(ctx, collection, rec); err != nil {
		return fmt.Errorf("index record %s: %w", id, err)
	}

	label, _ := rec.String("title")
	log.Info("indexed record",
		slog.String("collection", collection),
		slog.String("id", id),
		slog.String("title", label),
	)
	return nil
}

func parseTimestamp(raw string) time.Time {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return time.Time{}
	}

	formats := []string{
		time.RFC3339Nano,
		time.RFC3339,
		"2006-01-02 15:04:05",
	}

	for _, f := range formats {
		if ts, err := time.Parse(f, raw); err == nil {
			return ts
		}
	}

	return time.Time{}
}
