package jito

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"reflect"
	"strings"
	"time"

	"github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/programs/system"
	"github.com/rs/zerolog"

	common "github.com/example/ledger-submitter/internal/channels/common"
	"github.com/example/ledger-submitter/internal/models"
)

// ChannelName identifies the bundler channel.
const ChannelName = "jito"

const defaultSubmitTimeout = 5 * time.Second

// Config captures the block-engine settings for the bundler channel.
type Config struct {
	BlockEngineURL string
	TipAccount     string
	TipLamports    uint64
	SubmitTimeout  time.Duration
}

// Adapter submits payloads to a block engine as a two-transaction bundle: the
// caller's (cloned) transaction plus a tip transfer anchored to the same
// blockhash. The caller's payload itself is never augmented.
type Adapter struct {
	logger     zerolog.Logger
	cfg        Config
	tipAccount solana.PublicKey
	hc         *http.Client
}

// New constructs a bundler adapter from the supplied configuration.
func New(cfg Config, logger zerolog.Logger) (*Adapter, error) {
	if strings.TrimSpace(cfg.BlockEngineURL) == "" {
		return nil, errors.New("jito adapter: block engine url is required")
	}
	tipAccount, err := solana.PublicKeyFromBase58(strings.TrimSpace(cfg.TipAccount))
	if err != nil {
		return nil, fmt.Errorf("jito adapter: tip account: %w", err)
	}
	if cfg.TipLamports == 0 {
		return nil, errors.New("jito adapter: tip lamports must be positive")
	}
	if cfg.SubmitTimeout <= 0 {
		cfg.SubmitTimeout = defaultSubmitTimeout
	}
	if reflect.ValueOf(logger).IsZero() {
		logger = zerolog.Nop()
	}

	return &Adapter{
		logger:     logger,
		cfg:        cfg,
		tipAccount: tipAccount,
		hc:         &http.Client{Timeout: cfg.SubmitTimeout},
	}, nil
}

// Name implements common.Adapter.
func (a *Adapter) Name() string { return ChannelName }

// Submit implements common.Adapter. The bundle carries the payload first so
// the tip only lands when the payload does.
func (a *Adapter) Submit(ctx context.Context, payload *models.Payload, signers []solana.PrivateKey) (*common.SubmissionOutcome, error) {
	start := time.Now()

	if payload == nil {
		return nil, common.WrapPermanent(errors.New("jito adapter: payload is nil"))
	}
	if len(signers) == 0 {
		return nil, common.WrapPermanent(errors.New("jito adapter: at least one signer is required"))
	}

	payloadB64, err := payload.Base64()
	if err != nil {
		return nil, common.WrapPermanent(fmt.Errorf("jito adapter: encode payload: %w", err))
	}

	tipB64, err := a.buildTipTransaction(payload.Blockhash(), signers[0])
	if err != nil {
		return nil, common.WrapPermanent(fmt.Errorf("jito adapter: build tip: %w", err))
	}

	bundleID, err := a.sendBundle(ctx, []string{payloadB64, tipB64})
	elapsed := time.Since(start)
	if err != nil {
		a.logger.Info().
			Str("channel", ChannelName).
			Str("signature", payload.Signature()).
			Dur("elapsed", elapsed).
			Err(err).
			Msg("bundle submission failed")
		return common.NewFailure(ChannelName, err, elapsed), err
	}

	a.logger.Debug().
		Str("channel", ChannelName).
		Str("signature", payload.Signature()).
		Str("bundle_id", bundleID).
		Dur("elapsed", elapsed).
		Msg("bundle accepted")
	return common.NewSuccess(ChannelName, payload.Signature(), elapsed), nil
}

// HealthCheck implements common.Adapter by asking the block engine for its
// tip accounts.
func (a *Adapter) HealthCheck(ctx context.Context) error {
	var result []string
	if err := a.call(ctx, "getTipAccounts", []any{}, &result); err != nil {
		return err
	}
	if len(result) == 0 {
		return errors.New("jito adapter: block engine reported no tip accounts")
	}
	return nil
}

// EstimateCost implements common.Adapter.
func (a *Adapter) EstimateCost(payload *models.Payload) uint64 {
	return common.BaseNetworkFee(payload) + a.cfg.TipLamports
}

func (a *Adapter) buildTipTransaction(blockhash solana.Hash, payer solana.PrivateKey) (string, error) {
	transfer := system.NewTransferInstruction(a.cfg.TipLamports, payer.PublicKey(), a.tipAccount).Build()
	tx, err := solana.NewTransaction(
		[]solana.Instruction{transfer},
		blockhash,
		solana.TransactionPayer(payer.PublicKey()),
	)
	if err != nil {
		return "", err
	}
	if _, err := tx.Sign(func(key solana.PublicKey) *solana.PrivateKey {
		if payer.PublicKey().Equals(key) {
			return &payer
		}
		return nil
	}); err != nil {
		return "", err
	}
	return tx.ToBase64()
}

type rpcRequest struct {
	JSONRPC string `json:"jsonrpc"`
	ID      int    `json:"id"`
	Method  string `json:"method"`
	Params  []any  `json:"params"`
}

type rpcError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

type rpcResponse struct {
	Result json.RawMessage `json:"result"`
	Error  *rpcError       `json:"error"`
}

func (a *Adapter) sendBundle(ctx context.Context, txs []string) (string, error) {
	var bundleID string
	params := []any{txs, map[string]string{"encoding": "base64"}}
	if err := a.call(ctx, "sendBundle", params, &bundleID); err != nil {
		return "", err
	}
	return bundleID, nil
}

func (a *Adapter) call(ctx context.Context, method string, params []any, out any) error {
	body, err := json.Marshal(rpcRequest{JSONRPC: "2.0", ID: 1, Method: method, Params: params})
	if err != nil {
		return common.WrapPermanent(fmt.Errorf("jito adapter: marshal %s: %w", method, err))
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, a.cfg.BlockEngineURL, bytes.NewReader(body))
	if err != nil {
		return common.WrapPermanent(fmt.Errorf("jito adapter: build request: %w", err))
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := a.hc.Do(req)
	if err != nil {
		return common.WrapTransient(fmt.Errorf("jito adapter: %s: %w", method, err))
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		err := fmt.Errorf("jito adapter: %s status=%d body=%s", method, resp.StatusCode, strings.TrimSpace(string(raw)))
		if resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500 {
			return common.WrapTransient(err)
		}
		return common.WrapPermanent(err)
	}

	var parsed rpcResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return common.WrapTransient(fmt.Errorf("jito adapter: decode %s response: %w", method, err))
	}
	if parsed.Error != nil {
		err := fmt.Errorf("jito adapter: %s rejected: code=%d %s", method, parsed.Error.Code, parsed.Error.Message)
		if isRateLimitCode(parsed.Error.Code) {
			return common.WrapTransient(err)
		}
		return common.WrapPermanent(err)
	}
	if out != nil && len(parsed.Result) > 0 {
		if err := json.Unmarshal(parsed.Result, out); err != nil {
			return common.WrapTransient(fmt.Errorf("jito adapter: decode %s result: %w", method, err))
		}
	}
	return nil
}

func isRateLimitCode(code int) bool {
	return code == -32097
}
