package engine_test

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"

	common "github.com/example/ledger-submitter/internal/channels/common"
	"github.com/example/ledger-submitter/internal/channels/mock"
	"github.com/example/ledger-submitter/internal/engine"
	"github.com/example/ledger-submitter/internal/models"
)

// sleepRecorder captures every backoff delay instead of waiting.
type sleepRecorder struct {
	mu     sync.Mutex
	delays []time.Duration
	allow  bool
}

func newSleepRecorder(allow bool) *sleepRecorder {
	return &sleepRecorder{allow: allow}
}

func (s *sleepRecorder) sleep(_ context.Context, d time.Duration) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.delays = append(s.delays, d)
	return s.allow
}

func (s *sleepRecorder) recorded() []time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]time.Duration(nil), s.delays...)
}

func TestFallbackExhaustionBackoffSchedule(t *testing.T) {
	seq := &stubSequencer{sendErrs: []error{
		errors.New("send 1 failed"),
		errors.New("send 2 failed"),
		errors.New("send 3 failed"),
		errors.New("send 4 failed"),
	}}
	rec := newSleepRecorder(true)

	e := newEngine(t, engine.Config{MaxRetries: 3, BaseDelay: time.Second}, engine.Dependencies{
		Sequencer: seq,
		Sleep:     rec.sleep,
	})

	payload, signers := newTestPayload(t)
	res := e.ExecuteTransaction(context.Background(), payload, signers)

	if res.Success {
		t.Fatalf("expected exhaustion, got %+v", res)
	}
	if res.FailureKind != models.FailureKindExhausted {
		t.Fatalf("expected exhausted failure kind, got %q", res.FailureKind)
	}
	if res.Retries != 3 {
		t.Fatalf("expected retries to equal the configured maximum, got %d", res.Retries)
	}

	want := []time.Duration{time.Second, 2 * time.Second, 3 * time.Second}
	got := rec.recorded()
	if len(got) != len(want) {
		t.Fatalf("expected %d backoff waits, got %v", len(want), got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("expected linear backoff %v, got %v", want, got)
		}
	}

	hashes, sends := seq.counts()
	if hashes != 4 || sends != 4 {
		t.Fatalf("expected a fresh anchor per attempt, got %d hash and %d send calls", hashes, sends)
	}

	for _, fragment := range []string{"attempt 1", "attempt 2", "attempt 3", "attempt 4"} {
		if !strings.Contains(res.Error, fragment) {
			t.Fatalf("expected error to enumerate %q, got %q", fragment, res.Error)
		}
	}
	if !strings.Contains(res.Error, "send 4 failed") || !strings.Contains(res.Error, "send 1 failed") {
		t.Fatalf("expected every attempt error preserved, got %q", res.Error)
	}
}

func TestFallbackRetrySuccessDelaysOnce(t *testing.T) {
	seq := &stubSequencer{sendErrs: []error{errors.New("congested"), nil}}
	rec := newSleepRecorder(true)

	e := newEngine(t, engine.Config{MaxRetries: 3, BaseDelay: time.Second}, engine.Dependencies{
		Sequencer: seq,
		Sleep:     rec.sleep,
	})

	payload, signers := newTestPayload(t)
	res := e.ExecuteTransaction(context.Background(), payload, signers)

	if !res.Success {
		t.Fatalf("expected success on first retry, got %+v", res)
	}
	if res.Retries != 1 {
		t.Fatalf("expected retry count 1, got %d", res.Retries)
	}
	got := rec.recorded()
	if len(got) != 1 || got[0] != time.Second {
		t.Fatalf("expected a single base delay wait, got %v", got)
	}
}

func TestFallbackImmediateSuccessNoWait(t *testing.T) {
	seq := &stubSequencer{}
	rec := newSleepRecorder(true)

	e := newEngine(t, engine.Config{}, engine.Dependencies{
		Sequencer: seq,
		Sleep:     rec.sleep,
	})

	payload, signers := newTestPayload(t)
	res := e.ExecuteTransaction(context.Background(), payload, signers)

	if !res.Success || res.Retries != 0 {
		t.Fatalf("expected immediate success without retries, got %+v", res)
	}
	if got := rec.recorded(); len(got) != 0 {
		t.Fatalf("expected no backoff waits, got %v", got)
	}
	hashes, _ := seq.counts()
	if hashes != 1 {
		t.Fatalf("expected one anchor fetch, got %d", hashes)
	}
}

func TestFallbackCarriesChannelFailures(t *testing.T) {
	a := mock.New("a", zerolog.Nop(), mock.WithScenario(mock.ScenarioPermanent))
	b := mock.New("b", zerolog.Nop(), mock.WithScenario(mock.ScenarioTransient))
	seq := &stubSequencer{sendErrs: []error{
		errors.New("down"), errors.New("down"), errors.New("down"), errors.New("down"),
	}}

	e := newEngine(t, engine.Config{MaxRetries: 3}, engine.Dependencies{
		Channels: []common.Descriptor{
			{Name: "a", Enabled: true, Adapter: a},
			{Name: "b", Enabled: true, Adapter: b},
		},
		Sequencer: seq,
	})

	payload, signers := newTestPayload(t)
	res := e.ExecuteTransaction(context.Background(), payload, signers)

	if res.Success {
		t.Fatalf("expected terminal failure, got %+v", res)
	}
	for _, fragment := range []string{"a:", "b:", engine.FallbackChannelName} {
		if !strings.Contains(res.Error, fragment) {
			t.Fatalf("expected error to mention %q, got %q", fragment, res.Error)
		}
	}
}

func TestFallbackInterruptedSleepIsTimeout(t *testing.T) {
	seq := &stubSequencer{sendErrs: []error{errors.New("congested")}}
	rec := newSleepRecorder(false)

	e := newEngine(t, engine.Config{MaxRetries: 3}, engine.Dependencies{
		Sequencer: seq,
		Sleep:     rec.sleep,
	})

	payload, signers := newTestPayload(t)
	res := e.ExecuteTransaction(context.Background(), payload, signers)

	if res.Success {
		t.Fatalf("expected failure, got %+v", res)
	}
	if !res.TimedOut() {
		t.Fatalf("expected timeout failure kind, got %q", res.FailureKind)
	}
	if res.Channel != engine.FallbackChannelName {
		t.Fatalf("expected fallback channel, got %q", res.Channel)
	}
}

func TestFallbackAnchorFetchFailureCountsAsAttempt(t *testing.T) {
	seq := &stubSequencer{hashErr: errors.New("anchor source down")}
	rec := newSleepRecorder(true)

	e := newEngine(t, engine.Config{MaxRetries: 2, BaseDelay: time.Second}, engine.Dependencies{
		Sequencer: seq,
		Sleep:     rec.sleep,
	})

	payload, signers := newTestPayload(t)
	res := e.ExecuteTransaction(context.Background(), payload, signers)

	if res.Success {
		t.Fatalf("expected exhaustion, got %+v", res)
	}
	if res.Retries != 2 {
		t.Fatalf("expected retries 2, got %d", res.Retries)
	}
	if !strings.Contains(res.Error, "anchor source down") {
		t.Fatalf("expected anchor error surfaced, got %q", res.Error)
	}
	_, sends := seq.counts()
	if sends != 0 {
		t.Fatalf("expected no sends when the anchor fetch fails, got %d", sends)
	}
}
