package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	kafkago "github.com/segmentio/kafka-go"

	"github.com/couchcryptid/storm-nowcast-service/internal/config"
	"github.com/couchcryptid/storm-nowcast-service/internal/domain"
)

// Message kinds carried in the "kind" header of published events.
const (
	KindStormObject = "storm_object"
	KindImpactHit   = "impact_hit"
	KindBoundaries  = "boundary_candidates"
)

// Writer publishes nowcast results to a Kafka topic.
// It implements pipeline.Publisher.
type Writer struct {
	writer *kafkago.Writer
	logger *slog.Logger
}

// NewWriter creates a Kafka producer for the configured sink topic.
func NewWriter(cfg *config.Config, logger *slog.Logger) *Writer {
	w := &kafkago.Writer{
		Addr:         kafkago.TCP(cfg.KafkaBrokers...),
		Topic:        cfg.KafkaSinkTopic,
		Balancer:     &kafkago.LeastBytes{},
		RequiredAcks: kafkago.RequireAll,
	}
	return &Writer{writer: w, logger: logger}
}

// PublishNowcast fans a cycle's results out as individual messages, one
// per storm object and impact hit plus one boundary summary, in a single
// WriteMessages call for efficiency. An empty cycle publishes nothing.
func (w *Writer) PublishNowcast(ctx context.Context, nowcast domain.Nowcast) error {
	msgs, err := serializeNowcast(nowcast)
	if err != nil {
		return err
	}
	if len(msgs) == 0 {
		return nil
	}
	if err := w.writer.WriteMessages(ctx, msgs...); err != nil {
		return fmt.Errorf("publish nowcast: %w", err)
	}
	w.logger.Debug("published nowcast", "messages", len(msgs))
	return nil
}

func (w *Writer) Close() error {
	return w.writer.Close()
}

// serializeNowcast flattens a nowcast into per-entity Kafka messages.
// Objects are keyed by storm ID so a track's updates land in one
// partition in order.
func serializeNowcast(nowcast domain.Nowcast) ([]kafkago.Message, error) {
	updatedAt := nowcast.UpdatedAt.Format(time.RFC3339)

	var msgs []kafkago.Message
	for _, obj := range nowcast.Objects {
		data, err := json.Marshal(obj)
		if err != nil {
			return nil, fmt.Errorf("serialize storm object %s: %w", obj.ID, err)
		}
		msgs = append(msgs, kafkago.Message{
			Key:     []byte(obj.ID),
			Value:   data,
			Headers: headers(KindStormObject, updatedAt),
		})
	}

	for _, hit := range nowcast.ImpactHits {
		data, err := json.Marshal(hit)
		if err != nil {
			return nil, fmt.Errorf("serialize impact hit %s/%s: %w", hit.StormID, hit.Target, err)
		}
		msgs = append(msgs, kafkago.Message{
			Key:     []byte(hit.StormID),
			Value:   data,
			Headers: headers(KindImpactHit, updatedAt),
		})
	}

	if len(nowcast.BoundaryCandidates) > 0 {
		data, err := json.Marshal(nowcast.BoundaryCandidates)
		if err != nil {
			return nil, fmt.Errorf("serialize boundary candidates: %w", err)
		}
		msgs = append(msgs, kafkago.Message{
			Key:     []byte(updatedAt),
			Value:   data,
			Headers: headers(KindBoundaries, updatedAt),
		})
	}
	return msgs, nil
}

func headers(kind, updatedAt string) []kafkago.Header {
	return []kafkago.Header{
		{Key: "kind", Value: []byte(kind)},
		{Key: "updated_at", Value: []byte(updatedAt)},
	}
}
