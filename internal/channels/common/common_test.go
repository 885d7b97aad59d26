package common_test

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/programs/system"

	common "github.com/example/ledger-submitter/internal/channels/common"
	"github.com/example/ledger-submitter/internal/models"
)

func TestWrapTransient(t *testing.T) {
	cause := errors.New("rate limited")
	err := common.WrapTransient(cause)
	if !errors.Is(err, common.ErrTransient) {
		t.Fatalf("expected transient classification, got %v", err)
	}
	if !strings.Contains(err.Error(), "rate limited") {
		t.Fatalf("expected cause preserved, got %v", err)
	}
	if !errors.Is(common.WrapTransient(nil), common.ErrTransient) {
		t.Fatal("expected sentinel for nil cause")
	}
}

func TestWrapPermanent(t *testing.T) {
	err := common.WrapPermanent(errors.New("invalid payload"))
	if !errors.Is(err, common.ErrPermanent) {
		t.Fatalf("expected permanent classification, got %v", err)
	}
	if errors.Is(err, common.ErrTransient) {
		t.Fatal("expected classifications to stay distinct")
	}
}

func TestNewFailureNilError(t *testing.T) {
	out := common.NewFailure("relay", nil, 0)
	if out.Success || out.Err != "" || out.Channel != "relay" {
		t.Fatalf("unexpected outcome: %+v", out)
	}
}

func TestBaseNetworkFee(t *testing.T) {
	if got := common.BaseNetworkFee(nil); got != 0 {
		t.Fatalf("expected zero fee for nil payload, got %d", got)
	}

	wallet := solana.NewWallet()
	transfer := system.NewTransferInstruction(1, wallet.PrivateKey.PublicKey(), solana.NewWallet().PrivateKey.PublicKey()).Build()
	tx, err := solana.NewTransaction([]solana.Instruction{transfer}, solana.Hash{}, solana.TransactionPayer(wallet.PrivateKey.PublicKey()))
	if err != nil {
		t.Fatalf("assemble transaction: %v", err)
	}
	payload, err := models.NewPayload(tx)
	if err != nil {
		t.Fatalf("wrap payload: %v", err)
	}
	if got := common.BaseNetworkFee(payload); got != common.LamportsPerSignature {
		t.Fatalf("expected single-signature fee, got %d", got)
	}
}

func TestEnabledChannels(t *testing.T) {
	all := []common.Descriptor{
		{Name: "a", Enabled: true, Adapter: stubAdapter{}},
		{Name: "b", Enabled: false, Adapter: stubAdapter{}},
		{Name: "c", Enabled: true},
		{Name: "d", Enabled: true, Adapter: stubAdapter{}},
	}

	got := common.EnabledChannels(all)
	if len(got) != 2 {
		t.Fatalf("expected 2 usable channels, got %d", len(got))
	}
	if got[0].Name != "a" || got[1].Name != "d" {
		t.Fatalf("expected order preserved, got %+v", got)
	}
}

type stubAdapter struct{}

func (stubAdapter) Name() string { return "stub" }
func (stubAdapter) Submit(context.Context, *models.Payload, []solana.PrivateKey) (*common.SubmissionOutcome, error) {
	return nil, nil
}
func (stubAdapter) HealthCheck(context.Context) error   { return nil }
func (stubAdapter) EstimateCost(*models.Payload) uint64 { return 0 }
