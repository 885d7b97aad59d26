package helius

import (
	"context"
	"errors"
	"fmt"
	"net"
	"reflect"
	"strings"
	"time"

	"github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/rpc"
	"github.com/rs/zerolog"

	common "github.com/example/ledger-submitter/internal/channels/common"
	"github.com/example/ledger-submitter/internal/models"
)

// ChannelName identifies the staked-RPC channel.
const ChannelName = "helius"

const defaultSubmitTimeout = 5 * time.Second

// Client is the subset of rpc.Client behaviour the adapter relies on.
type Client interface {
	SendTransactionWithOpts(ctx context.Context, tx *solana.Transaction, opts rpc.TransactionOpts) (solana.Signature, error)
	GetHealth(ctx context.Context) (string, error)
}

// Config captures the staked-RPC endpoint settings. The tip is priced into
// the endpoint subscription; it only participates in cost estimation.
type Config struct {
	Endpoint      string
	TipLamports   uint64
	SubmitTimeout time.Duration
}

// Adapter submits the cloned payload through a dedicated staked RPC endpoint
// with preflight skipped and client-side retries disabled, so the race
// dispatcher stays in charge of retry policy.
type Adapter struct {
	logger zerolog.Logger
	cfg    Config
	client Client
}

// New constructs a staked-RPC adapter from the supplied configuration.
func New(cfg Config, logger zerolog.Logger) (*Adapter, error) {
	if strings.TrimSpace(cfg.Endpoint) == "" {
		return nil, errors.New("helius adapter: endpoint is required")
	}
	return NewWithClient(cfg, rpc.New(cfg.Endpoint), logger)
}

// NewWithClient constructs the adapter around an existing client. Used by
// tests and callers that manage the RPC client themselves.
func NewWithClient(cfg Config, client Client, logger zerolog.Logger) (*Adapter, error) {
	if client == nil {
		return nil, errors.New("helius adapter: client is required")
	}
	if cfg.SubmitTimeout <= 0 {
		cfg.SubmitTimeout = defaultSubmitTimeout
	}
	if reflect.ValueOf(logger).IsZero() {
		logger = zerolog.Nop()
	}
	return &Adapter{
		logger: logger,
		cfg:    cfg,
		client: client,
	}, nil
}

// Name implements common.Adapter.
func (a *Adapter) Name() string { return ChannelName }

// Submit implements common.Adapter.
func (a *Adapter) Submit(ctx context.Context, payload *models.Payload, _ []solana.PrivateKey) (*common.SubmissionOutcome, error) {
	start := time.Now()

	if payload == nil {
		return nil, common.WrapPermanent(errors.New("helius adapter: payload is nil"))
	}

	sctx, cancel := context.WithTimeout(ctx, a.cfg.SubmitTimeout)
	defer cancel()

	maxRetries := uint(0)
	sig, err := a.client.SendTransactionWithOpts(sctx, payload.Transaction(), rpc.TransactionOpts{
		SkipPreflight: true,
		MaxRetries:    &maxRetries,
	})
	elapsed := time.Since(start)
	if err != nil {
		wrapped := a.classify(err)
		a.logger.Info().
			Str("channel", ChannelName).
			Str("signature", payload.Signature()).
			Dur("elapsed", elapsed).
			Err(err).
			Msg("staked rpc submission failed")
		return common.NewFailure(ChannelName, wrapped, elapsed), wrapped
	}

	a.logger.Debug().
		Str("channel", ChannelName).
		Str("signature", sig.String()).
		Dur("elapsed", elapsed).
		Msg("staked rpc accepted submission")
	return common.NewSuccess(ChannelName, sig.String(), elapsed), nil
}

// HealthCheck implements common.Adapter.
func (a *Adapter) HealthCheck(ctx context.Context) error {
	out, err := a.client.GetHealth(ctx)
	if err != nil {
		return fmt.Errorf("helius adapter: health: %w", err)
	}
	if out != rpc.HealthOk {
		return fmt.Errorf("helius adapter: unhealthy: %s", out)
	}
	return nil
}

// EstimateCost implements common.Adapter.
func (a *Adapter) EstimateCost(payload *models.Payload) uint64 {
	return common.BaseNetworkFee(payload) + a.cfg.TipLamports
}

func (a *Adapter) classify(err error) error {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return common.WrapTransient(fmt.Errorf("helius adapter: %w", err))
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return common.WrapTransient(fmt.Errorf("helius adapter: %w", err))
	}
	return common.WrapPermanent(fmt.Errorf("helius adapter: %w", err))
}
