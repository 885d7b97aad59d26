package worker

import (
	"context"

	"github.com/example/ledger-submitter/internal/kafka/consumer"
)

// RecordSource is the subset of the Kafka consumer the handler uses to
// commit offsets.
type RecordSource interface {
	Commit(ctx context.Context, record *consumer.Record) error
}

// NewKafkaHandler adapts the worker to the Kafka consumer's handler
// contract. Each delivered record is translated into the worker's record
// shape with an acknowledgement hook bound to the originating consumer
// session.
func NewKafkaHandler(w *Worker, source RecordSource) consumer.Handler {
	return func(ctx context.Context, rec *consumer.Record) error {
		if rec == nil {
			return nil
		}
		w.HandleRecord(ctx, &Record{
			Topic:     rec.Topic,
			Partition: rec.Partition,
			Offset:    rec.Offset,
			Key:       rec.Key,
			Value:     rec.Value,
			Timestamp: rec.Timestamp,
			Headers:   rec.Headers,
			Ack: func(ctx context.Context) error {
				return source.Commit(ctx, rec)
			},
		})
		return nil
	}
}
