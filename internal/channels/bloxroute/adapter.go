package bloxroute

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
	"github.com/rs/zerolog"

	common "github.com/example/ledger-submitter/internal/channels/common"
	"github.com/example/ledger-submitter/internal/models"
)

// ChannelName identifies the relay channel.
const ChannelName = "bloxroute"

const (
	defaultSubmitTimeout = 5 * time.Second
	submitPath           = "/api/v2/submit"
)

// Config captures the relay settings.
type Config struct {
	Endpoint      string
	AuthHeader    string
	TipLamports   uint64
	SubmitTimeout time.Duration
}

// Adapter submits the cloned payload to the relay over its authenticated
// HTTP API. The relay charges tips out of band, so the payload is forwarded
// unmodified.
type Adapter struct {
	logger zerolog.Logger
	cfg    Config
	hc     *http.Client
}

// New constructs a relay adapter from the supplied configuration.
func New(cfg Config, logger zerolog.Logger) (*Adapter, error) {
	cfg.Endpoint = strings.TrimRight(strings.TrimSpace(cfg.Endpoint), "/")
	if cfg.Endpoint == "" {
		return nil, errors.New("bloxroute adapter: endpoint is required")
	}
	if strings.TrimSpace(cfg.AuthHeader) == "" {
		return nil, errors.New("bloxroute adapter: auth header is required")
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
		hc:     &http.Client{Timeout: cfg.SubmitTimeout},
	}, nil
}

// Name implements common.Adapter.
func (a *Adapter) Name() string { return ChannelName }

type submitRequest struct {
	Transaction   submitTransaction `json:"transaction"`
	SkipPreflight bool              `json:"skipPreFlight"`
}

type submitTransaction struct {
	Content string `json:"content"`
}

type submitResponse struct {
	Signature string `json:"signature"`
	Message   string `json:"message"`
}

// Submit implements common.Adapter.
func (a *Adapter) Submit(ctx context.Context, payload *models.Payload, _ []solana.PrivateKey) (*common.SubmissionOutcome, error) {
	start := time.Now()

	if payload == nil {
		return nil, common.WrapPermanent(errors.New("bloxroute adapter: payload is nil"))
	}

	content, err := payload.Base64()
	if err != nil {
		return nil, common.WrapPermanent(fmt.Errorf("bloxroute adapter: encode payload: %w", err))
	}

	body, err := json.Marshal(submitRequest{
		Transaction:   submitTransaction{Content: content},
		SkipPreflight: true,
	})
	if err != nil {
		return nil, common.WrapPermanent(fmt.Errorf("bloxroute adapter: marshal request: %w", err))
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, a.cfg.Endpoint+submitPath, bytes.NewReader(body))
	if err != nil {
		return nil, common.WrapPermanent(fmt.Errorf("bloxroute adapter: build request: %w", err))
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", a.cfg.AuthHeader)

	resp, err := a.hc.Do(req)
	if err != nil {
		wrapped := common.WrapTransient(fmt.Errorf("bloxroute adapter: submit: %w", err))
		return common.NewFailure(ChannelName, wrapped, time.Since(start)), wrapped
	}
	defer resp.Body.Close()

	elapsed := time.Since(start)

	if resp.StatusCode != http.StatusOK {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		err := fmt.Errorf("bloxroute adapter: submit status=%d body=%s", resp.StatusCode, strings.TrimSpace(string(raw)))
		wrapped := common.WrapPermanent(err)
		if resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500 {
			wrapped = common.WrapTransient(err)
		}
		a.logger.Info().
			Str("channel", ChannelName).
			Str("signature", payload.Signature()).
			Int("status", resp.StatusCode).
			Dur("elapsed", elapsed).
			Msg("relay rejected submission")
		return common.NewFailure(ChannelName, wrapped, elapsed), wrapped
	}

	var parsed submitResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		wrapped := common.WrapTransient(fmt.Errorf("bloxroute adapter: decode response: %w", err))
		return common.NewFailure(ChannelName, wrapped, elapsed), wrapped
	}

	signature := parsed.Signature
	if signature == "" {
		signature = payload.Signature()
	}

	a.logger.Debug().
		Str("channel", ChannelName).
		Str("signature", signature).
		Dur("elapsed", elapsed).
		Msg("relay accepted submission")
	return common.NewSuccess(ChannelName, signature, elapsed), nil
}

// HealthCheck implements common.Adapter with a lightweight reachability probe
// against the relay host.
func (a *Adapter) HealthCheck(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, a.cfg.Endpoint, nil)
	if err != nil {
		return fmt.Errorf("bloxroute adapter: build health request: %w", err)
	}
	req.Header.Set("Authorization", a.cfg.AuthHeader)

	resp, err := a.hc.Do(req)
	if err != nil {
		return fmt.Errorf("bloxroute adapter: health: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 500 {
		return fmt.Errorf("bloxroute adapter: health status=%d", resp.StatusCode)
	}
	return nil
}

// EstimateCost implements common.Adapter.
func (a *Adapter) EstimateCost(payload *models.Payload) uint64 {
	return common.BaseNetworkFee(payload) + a.cfg.TipLamports
}
