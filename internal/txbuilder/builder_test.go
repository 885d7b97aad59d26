package txbuilder_test

import (
	"context"
	"errors"
	"testing"

	"github.com/gagliardetto/solana-go"
	"github.com/rs/zerolog"

	"github.com/example/ledger-submitter/internal/models"
	"github.com/example/ledger-submitter/internal/txbuilder"
)

type stubAnchors struct {
	hash solana.Hash
	err  error
}

func (s *stubAnchors) LatestBlockhash(context.Context) (solana.Hash, error) {
	return s.hash, s.err
}

func TestBuildSignedTransfer(t *testing.T) {
	payer := solana.NewWallet().PrivateKey
	recipient := solana.NewWallet().PrivateKey.PublicKey()
	anchors := &stubAnchors{hash: solana.Hash{7}}

	b, err := txbuilder.New(payer, anchors, zerolog.Nop())
	if err != nil {
		t.Fatalf("txbuilder.New: %v", err)
	}

	payload, err := b.Build(context.Background(), &models.SubmissionRequest{
		MessageID: "m-1",
		Recipient: recipient.String(),
		Lamports:  5000,
	})
	if err != nil {
		t.Fatalf("build: %v", err)
	}

	if payload.Signature() == "" {
		t.Fatal("expected a signed payload")
	}
	if payload.Blockhash() != anchors.hash {
		t.Fatalf("expected fresh anchor attached, got %v", payload.Blockhash())
	}
	if payload.NumRequiredSignatures() != 1 {
		t.Fatalf("expected one required signature, got %d", payload.NumRequiredSignatures())
	}
	if payload.InstructionCount() != 1 {
		t.Fatalf("expected a single transfer instruction, got %d", payload.InstructionCount())
	}
}

func TestBuildRejectsBadRequests(t *testing.T) {
	payer := solana.NewWallet().PrivateKey
	b, err := txbuilder.New(payer, &stubAnchors{}, zerolog.Nop())
	if err != nil {
		t.Fatalf("txbuilder.New: %v", err)
	}

	if _, err := b.Build(context.Background(), nil); err == nil {
		t.Fatal("expected error for nil request")
	}
	if _, err := b.Build(context.Background(), &models.SubmissionRequest{Recipient: "junk", Lamports: 1}); err == nil {
		t.Fatal("expected error for invalid recipient")
	}
	recipient := solana.NewWallet().PrivateKey.PublicKey().String()
	if _, err := b.Build(context.Background(), &models.SubmissionRequest{Recipient: recipient}); err == nil {
		t.Fatal("expected error for zero lamports")
	}
}

func TestBuildSurfacesAnchorErrors(t *testing.T) {
	payer := solana.NewWallet().PrivateKey
	anchors := &stubAnchors{err: errors.New("rpc unreachable")}
	b, err := txbuilder.New(payer, anchors, zerolog.Nop())
	if err != nil {
		t.Fatalf("txbuilder.New: %v", err)
	}

	recipient := solana.NewWallet().PrivateKey.PublicKey().String()
	if _, err := b.Build(context.Background(), &models.SubmissionRequest{Recipient: recipient, Lamports: 1}); err == nil {
		t.Fatal("expected anchor error surfaced")
	}
}

func TestNewValidation(t *testing.T) {
	if _, err := txbuilder.New(nil, &stubAnchors{}, zerolog.Nop()); err == nil {
		t.Fatal("expected error for missing payer")
	}
	if _, err := txbuilder.New(solana.NewWallet().PrivateKey, nil, zerolog.Nop()); err == nil {
		t.Fatal("expected error for missing anchor source")
	}
}
