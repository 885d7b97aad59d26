package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gagliardetto/solana-go"
	"github.com/rs/zerolog"

	"github.com/example/ledger-submitter/internal/channels"
	"github.com/example/ledger-submitter/internal/config"
	"github.com/example/ledger-submitter/internal/engine"
	"github.com/example/ledger-submitter/internal/logger"
	"github.com/example/ledger-submitter/internal/sequencer"
	"github.com/example/ledger-submitter/internal/txbuilder"
)

// channel-probe is a one-shot operational tool: it wires the configured
// acceptance channels, probes their health and prints the estimated cost of
// a representative single-transfer payload per route.
func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load()
	if err != nil {
		fail("config load", err)
	}

	baseLogger, err := logger.New(cfg.App.Env, cfg.App.LogLevel)
	if err != nil {
		fail("logger init", err)
	}
	log := baseLogger.With().Str("service", "channel-probe").Logger()

	payer, err := solana.PrivateKeyFromBase58(cfg.Wallet.PrivateKey)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to parse wallet private key")
	}

	seq, err := sequencer.NewRPC(cfg.RPC.Endpoint)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to create sequencer client")
	}

	submitTimeout := time.Duration(cfg.Execution.SubmitTimeoutMs) * time.Millisecond
	descriptors, err := channels.Build(cfg.Channels, submitTimeout, log)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to build acceptance channels")
	}

	exec, err := engine.New(engine.Config{
		HealthTimeout:       time.Duration(cfg.Execution.HealthTimeoutMs) * time.Millisecond,
		PriorityFeeLamports: cfg.Execution.PriorityFeeLamports,
	}, engine.Dependencies{
		Channels:  descriptors,
		Sequencer: seq,
		Logger:    log,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialise execution engine")
	}

	health := exec.Health(ctx)
	for channel, healthy := range health {
		log.Info().Str("channel", channel).Bool("healthy", healthy).Msg("health probe")
	}

	// A self-transfer of one lamport is representative for fee purposes: one
	// signature, one instruction.
	payload, err := txbuilder.BuildTransfer(1, payer, payer.PublicKey(), solana.Hash{})
	if err != nil {
		log.Fatal().Err(err).Msg("failed to build sample payload")
	}

	for channel, lamports := range exec.EstimateCost(payload) {
		log.Info().Str("channel", channel).Uint64("estimated_lamports", lamports).Msg("cost estimate")
	}
}

func fail(stage string, err error) {
	logger := zerolog.New(os.Stdout).With().Timestamp().Logger()
	logger.Fatal().Err(err).Str("stage", stage).Msg("channel probe init failed")
}
