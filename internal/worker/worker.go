package worker

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"time"

	"github.com/gagliardetto/solana-go"
	"github.com/rs/zerolog"
	"golang.org/x/sync/semaphore"

	"github.com/example/ledger-submitter/internal/models"
)

// Config contains the runtime settings the submission worker relies on.
type Config struct {
	MsgMaxBytes int
	Concurrency int
}

// Record represents a Kafka message delivered to the worker. It is a minimal
// abstraction that keeps the worker decoupled from the concrete consumer
// implementation while still exposing the data it requires.
type Record struct {
	Topic     string
	Partition int32
	Offset    int64
	Key       []byte
	Value     []byte
	Timestamp time.Time
	Headers   map[string][]byte

	// Ack commits the record at its source. The transport layer sets it when
	// the record is handed to the worker.
	Ack func(ctx context.Context) error
}

// Clone returns a deep copy of the record so it can be safely shared with
// asynchronous goroutines without risking data races.
func (r *Record) Clone() *Record {
	if r == nil {
		return nil
	}
	clone := *r
	clone.Key = cloneBytes(r.Key)
	clone.Value = cloneBytes(r.Value)
	if len(r.Headers) > 0 {
		clone.Headers = cloneHeaders(r.Headers)
	}
	return &clone
}

// Executor is the execution engine contract the worker submits through.
type Executor interface {
	ExecuteTransaction(ctx context.Context, payload *models.Payload, signers []solana.PrivateKey) *models.ExecutionResult
}

// PayloadBuilder turns a validated request into a signed payload.
type PayloadBuilder interface {
	Build(ctx context.Context, req *models.SubmissionRequest) (*models.Payload, error)
}

// Validator parses and validates inbound submission records.
type Validator interface {
	ParseAndValidate(ctx context.Context, payload []byte) (*models.SubmissionRequest, error)
}

// StatusPublisher publishes lifecycle updates for a submission request.
type StatusPublisher interface {
	PublishStatus(ctx context.Context, event models.StatusEvent) error
}

// DLQPublisher writes terminally failed submissions to the dead letter
// topic.
type DLQPublisher interface {
	PublishFailed(ctx context.Context, record models.FailedSubmission) error
}

// Committer is the abstraction for committing Kafka offsets after
// processing.
type Committer interface {
	Commit(ctx context.Context, record *Record) error
}

// CommitFunc adapts a function to the Committer interface.
type CommitFunc func(ctx context.Context, record *Record) error

// Commit implements Committer.
func (f CommitFunc) Commit(ctx context.Context, record *Record) error {
	return f(ctx, record)
}

// AckCommitter commits records through their transport acknowledgement hook.
type AckCommitter struct{}

// Commit implements Committer.
func (AckCommitter) Commit(ctx context.Context, record *Record) error {
	if record == nil || record.Ack == nil {
		return errors.New("worker: record has no acknowledgement hook")
	}
	return record.Ack(ctx)
}

// Dependencies collects the runtime collaborators required by the worker.
type Dependencies struct {
	Executor        Executor
	Builder         PayloadBuilder
	Validator       Validator
	Signers         []solana.PrivateKey
	StatusPublisher StatusPublisher
	DLQPublisher    DLQPublisher
	Committer       Committer
	Logger          zerolog.Logger
	Now             func() time.Time
}

// Worker validates inbound submission requests and drives them through the
// execution engine under a bounded concurrency budget. Retry policy lives in
// the engine's fallback path; the worker's job is lifecycle events, DLQ
// handling and offset commits.
type Worker struct {
	cfg             Config
	executor        Executor
	builder         PayloadBuilder
	validator       Validator
	signers         []solana.PrivateKey
	statusPublisher StatusPublisher
	dlqPublisher    DLQPublisher
	committer       Committer
	logger          zerolog.Logger

	semaphore *semaphore.Weighted

	now func() time.Time
}

// New constructs a submission worker using the supplied configuration and
// collaborators. The configuration and dependencies are validated to prevent
// misconfiguration at startup.
func New(cfg Config, deps Dependencies) (*Worker, error) {
	if cfg.Concurrency < 1 {
		return nil, errors.New("worker: concurrency must be >= 1")
	}
	if cfg.MsgMaxBytes < 0 {
		return nil, errors.New("worker: msg max bytes cannot be negative")
	}
	if deps.Executor == nil {
		return nil, errors.New("worker: executor dependency is required")
	}
	if deps.Builder == nil {
		return nil, errors.New("worker: builder dependency is required")
	}
	if deps.Validator == nil {
		return nil, errors.New("worker: validator dependency is required")
	}
	if len(deps.Signers) == 0 {
		return nil, errors.New("worker: at least one signer is required")
	}
	if deps.StatusPublisher == nil {
		return nil, errors.New("worker: status publisher dependency is required")
	}
	if deps.DLQPublisher == nil {
		return nil, errors.New("worker: DLQ publisher dependency is required")
	}
	if deps.Committer == nil {
		return nil, errors.New("worker: committer dependency is required")
	}

	logger := deps.Logger
	if reflect.ValueOf(logger).IsZero() {
		logger = zerolog.Nop()
	}
	logger = logger.With().Str("component", "submit_worker").Logger()

	nowFunc := deps.Now
	if nowFunc == nil {
		nowFunc = time.Now
	}

	return &Worker{
		cfg:             cfg,
		executor:        deps.Executor,
		builder:         deps.Builder,
		validator:       deps.Validator,
		signers:         deps.Signers,
		statusPublisher: deps.StatusPublisher,
		dlqPublisher:    deps.DLQPublisher,
		committer:       deps.Committer,
		logger:          logger,
		semaphore:       semaphore.NewWeighted(int64(cfg.Concurrency)),
		now:             nowFunc,
	}, nil
}

// HandleRecord performs upfront validation for record size, parses the
// payload and triggers asynchronous processing through the engine.
func (w *Worker) HandleRecord(ctx context.Context, record *Record) {
	if record == nil {
		return
	}

	if w.cfg.MsgMaxBytes > 0 && len(record.Value) > w.cfg.MsgMaxBytes {
		err := fmt.Errorf("payload exceeds maximum size: got %d bytes, limit %d bytes", len(record.Value), w.cfg.MsgMaxBytes)
		w.rejectRecord(ctx, record, string(record.Key), nil, err)
		return
	}

	req, err := w.validator.ParseAndValidate(ctx, record.Value)
	if err != nil {
		messageID := string(record.Key)
		if req != nil && req.MessageID != "" {
			messageID = req.MessageID
		}
		w.rejectRecord(ctx, record, messageID, req, err)
		return
	}

	if err := w.semaphore.Acquire(ctx, 1); err != nil {
		w.logger.Error().
			Str("message_id", req.MessageID).
			Err(err).
			Msg("worker: failed to acquire concurrency semaphore")
		return
	}

	go w.process(ctx, record.Clone(), req)
}

func (w *Worker) process(ctx context.Context, record *Record, req *models.SubmissionRequest) {
	defer w.semaphore.Release(1)

	if ctx.Err() != nil {
		w.logger.Warn().
			Str("message_id", req.MessageID).
			Msg("worker: context cancelled before processing began")
		return
	}

	w.publishStatus(ctx, req, models.StatusEvent{EventType: models.StatusEventReceived})

	payload, err := w.builder.Build(ctx, req)
	if err != nil {
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			w.logger.Warn().
				Str("message_id", req.MessageID).
				Err(err).
				Msg("worker: context cancelled while building payload; deferring commit for reprocessing")
			return
		}
		now := w.now()
		w.publishStatus(ctx, req, models.StatusEvent{EventType: models.StatusEventFailed, Error: err.Error(), Timestamp: now})
		w.publishDLQ(ctx, req, models.FailedSubmission{
			FailureType:   models.FailureTypeTransient,
			LastError:     err.Error(),
			FirstFailedAt: now,
			LastAttemptAt: now,
		})
		w.commitRecord(ctx, record)
		return
	}

	w.publishStatus(ctx, req, models.StatusEvent{EventType: models.StatusEventAttempt, Signature: payload.Signature()})

	res := w.executor.ExecuteTransaction(ctx, payload, w.signers)

	logEvent := w.logger.With().
		Str("message_id", req.MessageID).
		Str("strategy", res.Strategy).
		Str("channel", res.Channel).
		Int("retries", res.Retries).
		Dur("elapsed", res.Elapsed).
		Logger()

	if res.Success {
		logEvent.Info().Str("signature", res.Signature).Msg("worker: submission confirmed")
		w.publishStatus(ctx, req, models.StatusEvent{
			EventType: models.StatusEventConfirmed,
			Strategy:  res.Strategy,
			Channel:   res.Channel,
			Signature: res.Signature,
			Retries:   res.Retries,
			ElapsedMs: res.Elapsed.Milliseconds(),
		})
		w.commitRecord(ctx, record)
		return
	}

	if ctx.Err() != nil && res.TimedOut() {
		logEvent.Warn().Msg("worker: shutdown during execution; deferring commit for reprocessing")
		return
	}

	logEvent.Warn().Str("error", res.Error).Msg("worker: submission failed")

	now := w.now()
	w.publishStatus(ctx, req, models.StatusEvent{
		EventType: models.StatusEventFailed,
		Strategy:  res.Strategy,
		Channel:   res.Channel,
		Error:     res.Error,
		Retries:   res.Retries,
		ElapsedMs: res.Elapsed.Milliseconds(),
		Timestamp: now,
	})
	w.publishDLQ(ctx, req, models.FailedSubmission{
		Strategy:      res.Strategy,
		Retries:       res.Retries,
		FailureType:   failureType(res),
		LastError:     res.Error,
		FirstFailedAt: now.Add(-res.Elapsed),
		LastAttemptAt: now,
	})
	w.commitRecord(ctx, record)
}

// rejectRecord handles validation and size failures: terminal, committed,
// dead-lettered.
func (w *Worker) rejectRecord(ctx context.Context, record *Record, messageID string, req *models.SubmissionRequest, cause error) {
	w.logger.Warn().
		Str("message_id", messageID).
		Err(cause).
		Msg("worker: record rejected")

	now := w.now()
	if req == nil {
		req = &models.SubmissionRequest{MessageID: messageID}
	}
	w.publishStatus(ctx, req, models.StatusEvent{EventType: models.StatusEventFailed, Error: cause.Error(), Timestamp: now})
	w.publishDLQ(ctx, req, models.FailedSubmission{
		FailureType:   models.FailureTypeValidation,
		LastError:     cause.Error(),
		FirstFailedAt: now,
		LastAttemptAt: now,
	})
	w.commitRecord(ctx, record)
}

func failureType(res *models.ExecutionResult) string {
	switch res.FailureKind {
	case models.FailureKindRejected:
		return models.FailureTypePermanent
	case models.FailureKindExhausted, models.FailureKindTimeout:
		return models.FailureTypeTransient
	default:
		return models.FailureTypeUnknown
	}
}

func (w *Worker) publishStatus(ctx context.Context, req *models.SubmissionRequest, event models.StatusEvent) {
	if event.Timestamp.IsZero() {
		event.Timestamp = w.now()
	}
	event.MessageID = req.MessageID
	event.TraceID = req.TraceID
	if err := w.statusPublisher.PublishStatus(ctx, event); err != nil {
		w.logger.Error().
			Str("message_id", req.MessageID).
			Str("event", event.EventType).
			Err(err).
			Msg("worker: failed to publish status event")
	}
}

func (w *Worker) publishDLQ(ctx context.Context, req *models.SubmissionRequest, record models.FailedSubmission) {
	record.MessageID = req.MessageID
	record.TraceID = req.TraceID
	record.OriginalRequest = req
	record.Meta = req.Meta
	if err := w.dlqPublisher.PublishFailed(ctx, record); err != nil {
		w.logger.Error().
			Str("message_id", req.MessageID).
			Err(err).
			Msg("worker: failed to publish DLQ record")
	}
}

func (w *Worker) commitRecord(ctx context.Context, record *Record) {
	if record == nil {
		return
	}
	if err := w.committer.Commit(ctx, record); err != nil {
		w.logger.Error().
			Str("topic", record.Topic).
			Int32("partition", record.Partition).
			Int64("offset", record.Offset).
			Err(err).
			Msg("worker: failed to commit record offset")
	}
}

func cloneBytes(b []byte) []byte {
	if len(b) == 0 {
		return nil
	}
	clone := make([]byte, len(b))
	copy(clone, b)
	return clone
}

func cloneHeaders(headers map[string][]byte) map[string][]byte {
	if len(headers) == 0 {
		return nil
	}
	clone := make(map[string][]byte, len(headers))
	for k, v := range headers {
		clone[k] = cloneBytes(v)
	}
	return clone
}
