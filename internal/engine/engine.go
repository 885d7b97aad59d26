package engine

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"strings"
	"time"

	"github.com/gagliardetto/solana-go"
	"github.com/rs/zerolog"

	common "github.com/example/ledger-submitter/internal/channels/common"
	"github.com/example/ledger-submitter/internal/models"
)

// FallbackChannelName is the channel label attached to results produced by
// the direct fallback path.
const FallbackChannelName = "fallback"

// Sequencer is the generic network endpoint the direct fallback submits
// through. It also supplies fresh sequencing anchors, which the fallback
// refreshes before every attempt.
type Sequencer interface {
	LatestBlockhash(ctx context.Context) (solana.Hash, error)
	SendTransaction(ctx context.Context, tx *solana.Transaction) (solana.Signature, error)
}

// Tracker records timing and outcome information for named operations. The
// engine calls it but owns no scheduling logic of its own.
type Tracker interface {
	RecordSubmission(channel string, success bool, elapsed time.Duration)
	RecordExecution(strategy string, success bool, elapsed time.Duration)
	RecordFallbackRetries(retries int)
}

// Config contains the runtime settings the engine relies on to orchestrate
// racing, fallback retries and health probing.
type Config struct {
	MaxRetries          int
	BaseDelay           time.Duration
	OverallTimeout      time.Duration
	SubmitTimeout       time.Duration
	HealthTimeout       time.Duration
	PriorityFeeLamports uint64
}

const (
	defaultMaxRetries     = 3
	defaultBaseDelay      = time.Second
	defaultOverallTimeout = 10 * time.Second
	defaultSubmitTimeout  = 5 * time.Second
	defaultHealthTimeout  = 2 * time.Second
)

// Dependencies collects the collaborators required by the engine.
type Dependencies struct {
	Channels  []common.Descriptor
	Sequencer Sequencer
	Tracker   Tracker
	Logger    zerolog.Logger
	Now       func() time.Time
	// Sleep waits for d or until ctx is done, reporting whether the full
	// delay elapsed. Overridable so tests can assert backoff schedules
	// without real waiting.
	Sleep func(ctx context.Context, d time.Duration) bool
}

// Engine selects an execution strategy for each payload, orchestrates
// concurrent or sequential submission and returns a single aggregated
// result. It holds no state across calls beyond read-only configuration.
type Engine struct {
	cfg       Config
	channels  []common.Descriptor
	sequencer Sequencer
	tracker   Tracker
	logger    zerolog.Logger
	now       func() time.Time
	sleep     func(ctx context.Context, d time.Duration) bool
}

// New constructs an engine from the supplied configuration and
// collaborators. A missing sequencer is a configuration error: without it
// the fallback path cannot be constructed and no call could terminate
// safely.
func New(cfg Config, deps Dependencies) (*Engine, error) {
	if deps.Sequencer == nil {
		return nil, errors.New("engine: sequencer dependency is required")
	}
	if cfg.MaxRetries < 0 {
		return nil, errors.New("engine: max retries cannot be negative")
	}
	if cfg.MaxRetries == 0 {
		cfg.MaxRetries = defaultMaxRetries
	}
	if cfg.BaseDelay <= 0 {
		cfg.BaseDelay = defaultBaseDelay
	}
	if cfg.OverallTimeout <= 0 {
		cfg.OverallTimeout = defaultOverallTimeout
	}
	if cfg.SubmitTimeout <= 0 {
		cfg.SubmitTimeout = defaultSubmitTimeout
	}
	if cfg.HealthTimeout <= 0 {
		cfg.HealthTimeout = defaultHealthTimeout
	}

	logger := deps.Logger
	if reflect.ValueOf(logger).IsZero() {
		logger = zerolog.Nop()
	}
	logger = logger.With().Str("component", "execution_engine").Logger()

	tracker := deps.Tracker
	if tracker == nil {
		tracker = nopTracker{}
	}

	nowFunc := deps.Now
	if nowFunc == nil {
		nowFunc = time.Now
	}
	sleepFunc := deps.Sleep
	if sleepFunc == nil {
		sleepFunc = wait
	}

	return &Engine{
		cfg:       cfg,
		channels:  deps.Channels,
		sequencer: deps.Sequencer,
		tracker:   tracker,
		logger:    logger,
		now:       nowFunc,
		sleep:     sleepFunc,
	}, nil
}

// ExecuteTransaction submits the payload through the strategy selected from
// the currently enabled channels and returns exactly one result. Faults from
// any path are converted into a failure result; nothing escapes this
// boundary.
func (e *Engine) ExecuteTransaction(ctx context.Context, payload *models.Payload, signers []solana.PrivateKey) (res *models.ExecutionResult) {
	start := e.now()
	strategy := SelectStrategy(common.EnabledChannels(e.channels))

	defer func() {
		if r := recover(); r != nil {
			res = &models.ExecutionResult{
				Error:       fmt.Sprintf("execution fault: %v", r),
				FailureKind: models.FailureKindInternal,
			}
			e.logger.Error().
				Str("strategy", strategy.Kind.String()).
				Interface("fault", r).
				Msg("execution path faulted")
		}
		res.Strategy = strategy.Kind.String()
		res.Elapsed = e.now().Sub(start)
		e.tracker.RecordExecution(res.Strategy, res.Success, res.Elapsed)
	}()

	if payload == nil {
		return &models.ExecutionResult{
			Error:       "engine: payload is required",
			FailureKind: models.FailureKindInternal,
		}
	}

	ctx, cancel := context.WithTimeout(ctx, e.cfg.OverallTimeout)
	defer cancel()

	switch strategy.Kind {
	case StrategySingleChannel:
		res = e.runSingle(ctx, strategy.Channels[0], payload, signers)
	case StrategyHybrid:
		res = e.runHybrid(ctx, strategy.Channels, payload, signers)
	default:
		res = e.runFallback(ctx, payload, signers, nil)
	}
	return res
}

// runSingle calls the only enabled channel directly. Its failure becomes the
// result; the fallback is deliberately not invoked for this strategy.
func (e *Engine) runSingle(ctx context.Context, d common.Descriptor, payload *models.Payload, signers []solana.PrivateKey) *models.ExecutionResult {
	out := e.attemptChannel(ctx, d, payload, signers)
	if out.Success {
		return &models.ExecutionResult{
			Success:   true,
			Signature: out.Signature,
			Channel:   out.Channel,
		}
	}
	if ctx.Err() != nil {
		return e.timeoutResult(out.Channel)
	}
	return &models.ExecutionResult{
		Error:       fmt.Sprintf("channel %s failed: %s", out.Channel, out.Err),
		FailureKind: models.FailureKindRejected,
		Channel:     out.Channel,
	}
}

// runHybrid races every enabled channel on an independent payload clone.
// The first success, chronologically, wins; later sibling outcomes are
// absorbed by the buffered channel and discarded, so losers can neither
// block the caller nor double-report. A full failure falls through to the
// direct fallback carrying every channel's error for diagnostics.
func (e *Engine) runHybrid(ctx context.Context, chans []common.Descriptor, payload *models.Payload, signers []solana.PrivateKey) *models.ExecutionResult {
	outcomes := make(chan *common.SubmissionOutcome, len(chans))
	for _, d := range chans {
		d := d
		go func() {
			outcomes <- e.attemptChannel(ctx, d, payload, signers)
		}()
	}

	var failures []string
	for pending := len(chans); pending > 0; pending-- {
		select {
		case out := <-outcomes:
			if out.Success {
				return &models.ExecutionResult{
					Success:   true,
					Signature: out.Signature,
					Channel:   out.Channel,
				}
			}
			failures = append(failures, fmt.Sprintf("%s: %s", out.Channel, out.Err))
		case <-ctx.Done():
			return e.timeoutResult("")
		}
	}

	e.logger.Warn().
		Int("channels", len(chans)).
		Strs("errors", failures).
		Msg("all channels failed; falling through to direct fallback")
	return e.runFallback(ctx, payload, signers, failures)
}

// attemptChannel runs one channel submission on a private clone. Every fault,
// including a panic, is converted into a failed outcome so it can never abort
// the race for sibling channels.
func (e *Engine) attemptChannel(ctx context.Context, d common.Descriptor, payload *models.Payload, signers []solana.PrivateKey) (out *common.SubmissionOutcome) {
	start := e.now()

	defer func() {
		if r := recover(); r != nil {
			out = common.NewFailure(d.Name, fmt.Errorf("channel fault: %v", r), e.now().Sub(start))
		}
		if out.Channel == "" {
			out.Channel = d.Name
		}
		e.tracker.RecordSubmission(out.Channel, out.Success, out.Elapsed)
		e.logger.Debug().
			Str("channel", out.Channel).
			Bool("success", out.Success).
			Dur("elapsed", out.Elapsed).
			Msg("channel attempt finished")
	}()

	clone, err := payload.Clone()
	if err != nil {
		return common.NewFailure(d.Name, err, e.now().Sub(start))
	}

	sctx, cancel := context.WithTimeout(ctx, e.cfg.SubmitTimeout)
	defer cancel()

	outcome, err := d.Adapter.Submit(sctx, clone, signers)
	elapsed := e.now().Sub(start)
	if err != nil {
		return common.NewFailure(d.Name, err, elapsed)
	}
	if outcome == nil {
		return common.NewFailure(d.Name, errors.New("adapter returned no outcome"), elapsed)
	}
	outcome.Elapsed = elapsed
	return outcome
}

func (e *Engine) timeoutResult(channel string) *models.ExecutionResult {
	return &models.ExecutionResult{
		Error:       fmt.Sprintf("execution exceeded overall timeout of %s", e.cfg.OverallTimeout),
		FailureKind: models.FailureKindTimeout,
		Channel:     channel,
	}
}

func joinErrors(errs []string) string {
	return strings.Join(errs, "; ")
}

// wait blocks for d or until ctx is done, reporting whether the full delay
// elapsed.
func wait(ctx context.Context, d time.Duration) bool {
	if d <= 0 {
		return true
	}
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return false
	case <-timer.C:
		return true
	}
}

type nopTracker struct{}

func (nopTracker) RecordSubmission(string, bool, time.Duration) {}
func (nopTracker) RecordExecution(string, bool, time.Duration)  {}
func (nopTracker) RecordFallbackRetries(int)                    {}
