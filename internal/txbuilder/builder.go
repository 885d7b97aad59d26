package txbuilder

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/programs/system"
	"github.com/rs/zerolog"

	"github.com/example/ledger-submitter/internal/models"
)

// AnchorSource supplies fresh sequencing anchors for newly built payloads.
type AnchorSource interface {
	LatestBlockhash(ctx context.Context) (solana.Hash, error)
}

// Builder turns validated submission requests into signed transfer payloads.
type Builder struct {
	logger  zerolog.Logger
	payer   solana.PrivateKey
	anchors AnchorSource
}

// New constructs a Builder signing with the supplied payer key.
func New(payer solana.PrivateKey, anchors AnchorSource, logger zerolog.Logger) (*Builder, error) {
	if len(payer) == 0 {
		return nil, errors.New("txbuilder: payer key is required")
	}
	if anchors == nil {
		return nil, errors.New("txbuilder: anchor source is required")
	}
	if reflect.ValueOf(logger).IsZero() {
		logger = zerolog.Nop()
	}
	return &Builder{
		logger:  logger,
		payer:   payer,
		anchors: anchors,
	}, nil
}

// Build constructs and signs a transfer payload for the request using a
// fresh anchor.
func (b *Builder) Build(ctx context.Context, req *models.SubmissionRequest) (*models.Payload, error) {
	if req == nil {
		return nil, errors.New("txbuilder: request is required")
	}
	recipient, err := solana.PublicKeyFromBase58(strings.TrimSpace(req.Recipient))
	if err != nil {
		return nil, fmt.Errorf("txbuilder: recipient: %w", err)
	}
	if req.Lamports == 0 {
		return nil, errors.New("txbuilder: lamports must be positive")
	}

	hash, err := b.anchors.LatestBlockhash(ctx)
	if err != nil {
		return nil, fmt.Errorf("txbuilder: fetch anchor: %w", err)
	}

	return BuildTransfer(req.Lamports, b.payer, recipient, hash)
}

// BuildTransfer assembles and signs a single-transfer payload.
func BuildTransfer(lamports uint64, payer solana.PrivateKey, recipient solana.PublicKey, recent solana.Hash) (*models.Payload, error) {
	transfer := system.NewTransferInstruction(lamports, payer.PublicKey(), recipient).Build()
	tx, err := solana.NewTransaction(
		[]solana.Instruction{transfer},
		recent,
		solana.TransactionPayer(payer.PublicKey()),
	)
	if err != nil {
		return nil, fmt.Errorf("txbuilder: assemble transaction: %w", err)
	}

	payload, err := models.NewPayload(tx)
	if err != nil {
		return nil, err
	}
	if err := payload.SignWith([]solana.PrivateKey{payer}); err != nil {
		return nil, err
	}
	return payload, nil
}
