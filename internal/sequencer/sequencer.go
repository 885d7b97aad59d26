package sequencer

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/rpc"
)

// RPC implements the engine's sequencer contract over a plain JSON-RPC
// endpoint. It is the provider-agnostic route used by the direct fallback
// and by the payload builder when fetching fresh sequencing anchors.
type RPC struct {
	client     *rpc.Client
	commitment rpc.CommitmentType
}

// NewRPC constructs a sequencer for the supplied endpoint.
func NewRPC(endpoint string) (*RPC, error) {
	if strings.TrimSpace(endpoint) == "" {
		return nil, errors.New("sequencer: rpc endpoint is required")
	}
	return &RPC{
		client:     rpc.New(endpoint),
		commitment: rpc.CommitmentConfirmed,
	}, nil
}

// LatestBlockhash fetches a fresh sequencing anchor.
func (r *RPC) LatestBlockhash(ctx context.Context) (solana.Hash, error) {
	out, err := r.client.GetLatestBlockhash(ctx, r.commitment)
	if err != nil {
		return solana.Hash{}, fmt.Errorf("sequencer: latest blockhash: %w", err)
	}
	if out == nil || out.Value == nil {
		return solana.Hash{}, errors.New("sequencer: empty blockhash response")
	}
	return out.Value.Blockhash, nil
}

// SendTransaction submits the transaction with preflight skipped; retry
// policy belongs to the execution engine, not the transport.
func (r *RPC) SendTransaction(ctx context.Context, tx *solana.Transaction) (solana.Signature, error) {
	maxRetries := uint(0)
	sig, err := r.client.SendTransactionWithOpts(ctx, tx, rpc.TransactionOpts{
		SkipPreflight: true,
		MaxRetries:    &maxRetries,
	})
	if err != nil {
		return solana.Signature{}, fmt.Errorf("sequencer: send transaction: %w", err)
	}
	return sig, nil
}
