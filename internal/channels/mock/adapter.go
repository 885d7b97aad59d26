package mock

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"sync/atomic"
	"time"

	"github.com/gagliardetto/solana-go"
	"github.com/rs/zerolog"

	common "github.com/example/ledger-submitter/internal/channels/common"
	"github.com/example/ledger-submitter/internal/models"
)

// Scenario enumerates the deterministic behaviours supported by the mock
// channel.
type Scenario string

const (
	ScenarioSuccess   Scenario = "success"
	ScenarioTransient Scenario = "transient"
	ScenarioPermanent Scenario = "permanent"
	ScenarioTimeout   Scenario = "timeout"
)

// Option customises the mock adapter.
type Option func(*Adapter)

// WithScenario sets the behaviour applied to every submission.
func WithScenario(s Scenario) Option {
	return func(a *Adapter) {
		a.scenario = s
	}
}

// WithLatency configures the artificial latency injected before responding.
func WithLatency(d time.Duration) Option {
	return func(a *Adapter) {
		if d < 0 {
			d = 0
		}
		a.latency = d
	}
}

// WithTip sets the configured tip used for cost estimation.
func WithTip(lamports uint64) Option {
	return func(a *Adapter) {
		a.tipLamports = lamports
	}
}

// WithHealthErr makes HealthCheck fail with the supplied error.
func WithHealthErr(err error) Option {
	return func(a *Adapter) {
		a.healthErr = err
	}
}

// Adapter is a deterministic channel used in tests and by the probe harness.
type Adapter struct {
	logger      zerolog.Logger
	name        string
	scenario    Scenario
	latency     time.Duration
	tipLamports uint64
	healthErr   error

	submits int64
}

// New constructs a mock channel with the supplied name.
func New(name string, logger zerolog.Logger, opts ...Option) *Adapter {
	if reflect.ValueOf(logger).IsZero() {
		logger = zerolog.Nop()
	}
	a := &Adapter{
		logger:   logger,
		name:     name,
		scenario: ScenarioSuccess,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(a)
		}
	}
	return a
}

// Name implements common.Adapter.
func (a *Adapter) Name() string { return a.name }

// Submissions reports how many times Submit has been invoked.
func (a *Adapter) Submissions() int64 {
	return atomic.LoadInt64(&a.submits)
}

// Submit implements common.Adapter according to the configured scenario.
func (a *Adapter) Submit(ctx context.Context, payload *models.Payload, _ []solana.PrivateKey) (*common.SubmissionOutcome, error) {
	atomic.AddInt64(&a.submits, 1)
	start := time.Now()

	if payload == nil {
		return nil, common.WrapPermanent(errors.New("mock adapter: payload is nil"))
	}

	if a.latency > 0 {
		timer := time.NewTimer(a.latency)
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil, common.WrapTransient(ctx.Err())
		case <-timer.C:
		}
	}

	elapsed := time.Since(start)
	switch a.scenario {
	case ScenarioSuccess:
		return common.NewSuccess(a.name, payload.Signature(), elapsed), nil
	case ScenarioTransient:
		err := common.WrapTransient(fmt.Errorf("mock adapter %s: rate limited", a.name))
		return common.NewFailure(a.name, err, elapsed), err
	case ScenarioPermanent:
		err := common.WrapPermanent(fmt.Errorf("mock adapter %s: rejected", a.name))
		return common.NewFailure(a.name, err, elapsed), err
	case ScenarioTimeout:
		<-ctx.Done()
		err := common.WrapTransient(ctx.Err())
		return common.NewFailure(a.name, err, time.Since(start)), err
	default:
		err := common.WrapPermanent(fmt.Errorf("mock adapter %s: unknown scenario %q", a.name, a.scenario))
		return common.NewFailure(a.name, err, elapsed), err
	}
}

// HealthCheck implements common.Adapter.
func (a *Adapter) HealthCheck(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return a.healthErr
}

// EstimateCost implements common.Adapter.
func (a *Adapter) EstimateCost(payload *models.Payload) uint64 {
	return common.BaseNetworkFee(payload) + a.tipLamports
}
