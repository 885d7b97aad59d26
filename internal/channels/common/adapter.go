package common

import (
	"context"

	"github.com/gagliardetto/solana-go"

	"github.com/example/ledger-submitter/internal/models"
)

// Adapter defines the behaviour required from acceptance-channel adapters.
// Adapters wrap one channel's wire protocol and return a normalized
// SubmissionOutcome alongside error classification. Submit receives a private
// clone of the caller's payload and may augment or re-sign it freely.
type Adapter interface {
	// Name identifies the channel in results, metrics and logs.
	Name() string

	// Submit delivers the cloned payload to the channel. Implementations must
	// respect ctx and return rather than panic on any failure.
	Submit(ctx context.Context, payload *models.Payload, signers []solana.PrivateKey) (*SubmissionOutcome, error)

	// HealthCheck probes channel reachability within ctx.
	HealthCheck(ctx context.Context) error

	// EstimateCost returns the expected lamport cost of submitting the
	// payload through this channel. Pure arithmetic; never performs I/O.
	EstimateCost(payload *models.Payload) uint64
}
