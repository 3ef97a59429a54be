// Package kafka publishes transfer plans to downstream consumers.
package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	kafkago "github.com/segmentio/kafka-go"

	"github.com/couchcryptid/wildfire-spread-etl/internal/config"
	"github.com/couchcryptid/wildfire-spread-etl/internal/domain"
)

// Writer produces transfer events to a Kafka topic.
// It implements the HTTP adapter's PlanSink.
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

// PublishPlan serializes every transfer event of a plan and publishes them in
// a single WriteMessages call. A plan with no events publishes nothing.
func (w *Writer) PublishPlan(ctx context.Context, plan domain.TransferPlan) error {
	if len(plan.Events) == 0 {
		return nil
	}
	msgs := make([]kafkago.Message, len(plan.Events))
	for i := range plan.Events {
		msg, err := serializeToMessage(plan, plan.Events[i])
		if err != nil {
			return err
		}
		msgs[i] = msg
	}
	return w.writer.WriteMessages(ctx, msgs...)
}

func (w *Writer) Close() error {
	return w.writer.Close()
}

// serializeToMessage marshals one TransferEvent into a Kafka message keyed by
// the source county, tagged with its plan.
func serializeToMessage(plan domain.TransferPlan, event domain.TransferEvent) (kafkago.Message, error) {
	data, err := json.Marshal(event)
	if err != nil {
		return kafkago.Message{}, fmt.Errorf("serialize transfer event: %w", err)
	}
	return kafkago.Message{
		Key:   []byte(event.From),
		Value: data,
		Headers: []kafkago.Header{
			{Key: "plan_id", Value: []byte(plan.PlanID)},
			{Key: "generated_at", Value: []byte(plan.GeneratedAt.Format(time.RFC3339))},
		},
	}, nil
}
