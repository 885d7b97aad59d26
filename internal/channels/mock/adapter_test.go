package mock_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/gagliardetto/solana-go"
	"github.com/rs/zerolog"

	common "github.com/example/ledger-submitter/internal/channels/common"
	"github.com/example/ledger-submitter/internal/channels/mock"
	"github.com/example/ledger-submitter/internal/models"
	"github.com/example/ledger-submitter/internal/txbuilder"
)

func testPayload(t *testing.T) (*models.Payload, []solana.PrivateKey) {
	t.Helper()
	wallet := solana.NewWallet()
	payload, err := txbuilder.BuildTransfer(1, wallet.PrivateKey, wallet.PrivateKey.PublicKey(), solana.Hash{})
	if err != nil {
		t.Fatalf("build payload: %v", err)
	}
	return payload, []solana.PrivateKey{wallet.PrivateKey}
}

func TestMockScenarios(t *testing.T) {
	payload, signers := testPayload(t)

	success := mock.New("success", zerolog.Nop())
	out, err := success.Submit(context.Background(), payload, signers)
	if err != nil || !out.Success {
		t.Fatalf("expected success, got out=%+v err=%v", out, err)
	}
	if out.Signature != payload.Signature() {
		t.Fatalf("expected payload signature echoed, got %q", out.Signature)
	}

	transient := mock.New("transient", zerolog.Nop(), mock.WithScenario(mock.ScenarioTransient))
	out, err = transient.Submit(context.Background(), payload, signers)
	if out.Success || !errors.Is(err, common.ErrTransient) {
		t.Fatalf("expected transient failure, got out=%+v err=%v", out, err)
	}

	permanent := mock.New("permanent", zerolog.Nop(), mock.WithScenario(mock.ScenarioPermanent))
	out, err = permanent.Submit(context.Background(), payload, signers)
	if out.Success || !errors.Is(err, common.ErrPermanent) {
		t.Fatalf("expected permanent failure, got out=%+v err=%v", out, err)
	}
}

func TestMockLatencyHonoursContext(t *testing.T) {
	payload, signers := testPayload(t)
	slow := mock.New("slow", zerolog.Nop(), mock.WithLatency(time.Second))

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	start := time.Now()
	_, err := slow.Submit(ctx, payload, signers)
	if !errors.Is(err, common.ErrTransient) {
		t.Fatalf("expected transient cancellation, got %v", err)
	}
	if time.Since(start) > 500*time.Millisecond {
		t.Fatal("expected cancellation to short-circuit the latency wait")
	}
}

func TestMockSubmissionCounter(t *testing.T) {
	payload, signers := testPayload(t)
	a := mock.New("a", zerolog.Nop())

	for i := 0; i < 3; i++ {
		if _, err := a.Submit(context.Background(), payload, signers); err != nil {
			t.Fatalf("submit %d: %v", i, err)
		}
	}
	if got := a.Submissions(); got != 3 {
		t.Fatalf("expected 3 submissions, got %d", got)
	}
}

func TestMockHealthAndCost(t *testing.T) {
	payload, _ := testPayload(t)

	healthy := mock.New("healthy", zerolog.Nop(), mock.WithTip(250))
	if err := healthy.HealthCheck(context.Background()); err != nil {
		t.Fatalf("expected healthy, got %v", err)
	}
	want := common.BaseNetworkFee(payload) + 250
	if got := healthy.EstimateCost(payload); got != want {
		t.Fatalf("expected estimate %d, got %d", want, got)
	}

	sick := mock.New("sick", zerolog.Nop(), mock.WithHealthErr(errors.New("down")))
	if err := sick.HealthCheck(context.Background()); err == nil {
		t.Fatal("expected health error")
	}
}
