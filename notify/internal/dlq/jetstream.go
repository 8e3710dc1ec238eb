package dlq

import (
	"context"
	"encoding/json"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/nats-io/nats.go/jetstream"

	"github.com/amesa-systems/amesa-notify/common/logging"
	"github.com/amesa-systems/amesa-notify/common/messaging"
	"github.com/amesa-systems/amesa-notify/common/messaging/nats"
	"github.com/amesa-systems/amesa-notify/notify/internal/metrics"
	"github.com/amesa-systems/amesa-notify/notify/internal/models"
)

// JetStreamQueue publishes entries to the NOTIFY_DLQ stream on
// notify.dlq.<reason>. Safe to share across service instances.
type JetStreamQueue struct {
	js      *nats.JetStreamClient
	stream  jetstream.Stream
	logger  *logging.Logger
	written uint64
}

// NewJetStreamQueue ensures the DLQ stream exists and returns a queue on it.
func NewJetStreamQueue(ctx context.Context, js *nats.JetStreamClient, logger *logging.Logger) (*JetStreamQueue, error) {
	if js == nil {
		return nil, fmt.Errorf("jetstream client is nil")
	}
	if logger == nil {
		logger = logging.Default()
	}

	stream, err := js.CreateOrUpdateStream(ctx, nats.NotifyDLQStream)
	if err != nil {
		return nil, fmt.Errorf("create dlq stream: %w", err)
	}
	logger.Info("dead-letter stream ready", "stream", nats.NotifyDLQStream.Name)

	return &JetStreamQueue{js: js, stream: stream, logger: logger}, nil
}

// Write publishes a failed event. A nil queue discards it.
func (q *JetStreamQueue) Write(ctx context.Context, envelope *models.Envelope, err error, reason string) error {
	if q == nil {
		return nil
	}

	failed := newFailedEvent(envelope, err, reason)
	data, marshalErr := json.Marshal(failed)
	if marshalErr != nil {
		return fmt.Errorf("marshal dlq entry: %w", marshalErr)
	}

	msg := &messaging.Message{
		Subject:  messaging.DLQSubject(reason),
		Data:     data,
		Metadata: map[string]string{},
	}
	if envelope != nil {
		msg.Metadata[messaging.HeaderEventID] = envelope.ID
	}
	if _, pubErr := q.js.PublishSync(ctx, msg); pubErr != nil {
		return fmt.Errorf("publish dlq entry: %w", pubErr)
	}

	atomic.AddUint64(&q.written, 1)
	metrics.DLQWrites.WithLabelValues(reason).Inc()
	q.logger.InfoContext(ctx, "published envelope to dead-letter stream", logging.Reason(reason))
	return nil
}

// Stats reports stream state for the admin API.
func (q *JetStreamQueue) Stats(ctx context.Context) map[string]interface{} {
	if q == nil {
		return map[string]interface{}{"enabled": false, "backend": "jetstream"}
	}

	info, err := q.stream.Info(ctx)
	if err != nil {
		return map[string]interface{}{
			"enabled":       true,
			"backend":       "jetstream",
			"written_local": atomic.LoadUint64(&q.written),
			"error":         err.Error(),
		}
	}
	return map[string]interface{}{
		"enabled":        true,
		"backend":        "jetstream",
		"written_local":  atomic.LoadUint64(&q.written),
		"total_messages": info.State.Msgs,
		"total_bytes":    info.State.Bytes,
		"first_seq":      info.State.FirstSeq,
		"last_seq":       info.State.LastSeq,
		"consumer_count": info.State.Consumers,
	}
}

// List reads up to limit entries through an ephemeral consumer.
func (q *JetStreamQueue) List(ctx context.Context, limit int) ([]FailedEvent, error) {
	if q == nil {
		return nil, fmt.Errorf("dlq not enabled")
	}
	if limit <= 0 {
		limit = 100
	}

	consumer, err := q.stream.OrderedConsumer(ctx, jetstream.OrderedConsumerConfig{
		FilterSubjects: []string{messaging.SubjectDLQAll},
		DeliverPolicy:  jetstream.DeliverAllPolicy,
	})
	if err != nil {
		return nil, fmt.Errorf("create list consumer: %w", err)
	}

	batch, err := consumer.Fetch(limit, jetstream.FetchMaxWait(2*time.Second))
	if err != nil {
		return nil, fmt.Errorf("fetch messages: %w", err)
	}

	var out []FailedEvent
	for msg := range batch.Messages() {
		var failed FailedEvent
		if err := json.Unmarshal(msg.Data(), &failed); err != nil {
			q.logger.WarnContext(ctx, "failed to parse dlq message", logging.Error(err))
			continue
		}
		out = append(out, failed)
	}
	if batch.Error() != nil {
		q.logger.WarnContext(ctx, "dlq fetch completed with error", logging.Error(batch.Error()))
	}
	return out, nil
}

// Purge removes every message from the stream.
func (q *JetStreamQueue) Purge(ctx context.Context) error {
	if q == nil {
		return fmt.Errorf("dlq not enabled")
	}
	if err := q.stream.Purge(ctx); err != nil {
		return fmt.Errorf("purge dlq stream: %w", err)
	}
	q.logger.InfoContext(ctx, "purged dead-letter stream")
	return nil
}
