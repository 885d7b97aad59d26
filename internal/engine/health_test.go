package engine_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/gagliardetto/solana-go"
	"github.com/rs/zerolog"

	common "github.com/example/ledger-submitter/internal/channels/common"
	"github.com/example/ledger-submitter/internal/channels/mock"
	"github.com/example/ledger-submitter/internal/engine"
	"github.com/example/ledger-submitter/internal/models"
)

func TestHealthReportsEveryEnabledChannel(t *testing.T) {
	healthy := mock.New("healthy", zerolog.Nop())
	unhealthy := mock.New("unhealthy", zerolog.Nop(), mock.WithHealthErr(errors.New("unreachable")))
	disabled := mock.New("disabled", zerolog.Nop())

	e := newEngine(t, engine.Config{}, engine.Dependencies{
		Channels: []common.Descriptor{
			{Name: "healthy", Enabled: true, Adapter: healthy},
			{Name: "unhealthy", Enabled: true, Adapter: unhealthy},
			{Name: "faulty", Enabled: true, Adapter: panicAdapter{}},
			{Name: "disabled", Enabled: false, Adapter: disabled},
		},
	})

	got := e.Health(context.Background())

	if len(got) != 3 {
		t.Fatalf("expected 3 entries, got %v", got)
	}
	if !got["healthy"] {
		t.Fatal("expected healthy channel to report true")
	}
	if got["unhealthy"] {
		t.Fatal("expected unhealthy channel to report false")
	}
	if got["faulty"] {
		t.Fatal("expected faulting channel to report false")
	}
	if _, ok := got["disabled"]; ok {
		t.Fatal("expected disabled channel excluded from the report")
	}
}

func TestHealthKeySetIsStable(t *testing.T) {
	e := newEngine(t, engine.Config{}, engine.Dependencies{
		Channels: []common.Descriptor{
			{Name: "a", Enabled: true, Adapter: mock.New("a", zerolog.Nop())},
			{Name: "b", Enabled: true, Adapter: mock.New("b", zerolog.Nop(), mock.WithHealthErr(errors.New("down")))},
		},
	})

	first := e.Health(context.Background())
	second := e.Health(context.Background())
	if len(first) != len(second) {
		t.Fatalf("expected stable key set, got %v then %v", first, second)
	}
	for name := range first {
		if _, ok := second[name]; !ok {
			t.Fatalf("expected %q present in both reports", name)
		}
	}
}

func TestHealthNoChannels(t *testing.T) {
	e := newEngine(t, engine.Config{}, engine.Dependencies{})
	if got := e.Health(context.Background()); len(got) != 0 {
		t.Fatalf("expected empty report, got %v", got)
	}
}

func TestHealthOneSlowProbeDoesNotBlockOthers(t *testing.T) {
	healthy := mock.New("healthy", zerolog.Nop())

	e := newEngine(t, engine.Config{HealthTimeout: 30 * time.Millisecond}, engine.Dependencies{
		Channels: []common.Descriptor{
			{Name: "healthy", Enabled: true, Adapter: healthy},
			{Name: "stalled", Enabled: true, Adapter: stalledAdapter{}},
		},
	})

	start := time.Now()
	got := e.Health(context.Background())
	elapsed := time.Since(start)

	if !got["healthy"] || got["stalled"] {
		t.Fatalf("unexpected report: %v", got)
	}
	if elapsed > time.Second {
		t.Fatalf("expected probes bounded by the health timeout, took %v", elapsed)
	}
}

// stalledAdapter only responds when its context expires.
type stalledAdapter struct{}

func (stalledAdapter) Name() string { return "stalled" }
func (stalledAdapter) Submit(ctx context.Context, _ *models.Payload, _ []solana.PrivateKey) (*common.SubmissionOutcome, error) {
	<-ctx.Done()
	return nil, ctx.Err()
}
func (stalledAdapter) HealthCheck(ctx context.Context) error {
	<-ctx.Done()
	return ctx.Err()
}
func (stalledAdapter) EstimateCost(*models.Payload) uint64 { return 0 }
