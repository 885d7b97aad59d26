package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gagliardetto/solana-go"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/example/ledger-submitter/internal/channels"
	"github.com/example/ledger-submitter/internal/config"
	"github.com/example/ledger-submitter/internal/engine"
	"github.com/example/ledger-submitter/internal/kafka/consumer"
	"github.com/example/ledger-submitter/internal/kafka/producer"
	kafkapublisher "github.com/example/ledger-submitter/internal/kafka/publisher"
	"github.com/example/ledger-submitter/internal/logger"
	"github.com/example/ledger-submitter/internal/metrics"
	"github.com/example/ledger-submitter/internal/sequencer"
	"github.com/example/ledger-submitter/internal/txbuilder"
	"github.com/example/ledger-submitter/internal/worker"
	submitvalidator "github.com/example/ledger-submitter/internal/worker/validator"
)

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
	log := baseLogger.With().Str("service", "submit-worker").Logger()

	payer, err := solana.PrivateKeyFromBase58(cfg.Wallet.PrivateKey)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to parse wallet private key")
	}

	kafkaLogger := log.With().Str("component", "kafka").Logger()
	prod, err := producer.New(cfg.Kafka.Brokers, kafkaLogger)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to create kafka producer")
	}
	defer func() {
		if err := prod.Close(); err != nil {
			log.Error().Err(err).Msg("failed to close kafka producer")
		}
	}()

	cons, err := consumer.New(cfg.Kafka.Brokers, cfg.Kafka.ConsumerGroup, log.With().Str("component", "consumer").Logger())
	if err != nil {
		log.Fatal().Err(err).Msg("failed to create kafka consumer")
	}
	defer func() {
		if err := cons.Close(); err != nil {
			log.Error().Err(err).Msg("failed to close kafka consumer")
		}
	}()

	statusPublisher := kafkapublisher.NewStatusPublisher(prod, cfg.Kafka.StatusTopic, log.With().Str("component", "status-publisher").Logger())
	if statusPublisher == nil {
		log.Fatal().Msg("failed to create status publisher")
	}
	dlqPublisher := kafkapublisher.NewDLQPublisher(prod, cfg.Kafka.DLQTopic, log.With().Str("component", "dlq-publisher").Logger())
	if dlqPublisher == nil {
		log.Fatal().Msg("failed to create dlq publisher")
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
	for _, d := range descriptors {
		log.Info().Str("channel", d.Name).Uint64("tip_lamports", d.TipLamports).Msg("acceptance channel enabled")
	}

	exec, err := engine.New(engine.Config{
		MaxRetries:          cfg.Execution.MaxRetries,
		BaseDelay:           time.Duration(cfg.Execution.BaseDelayMs) * time.Millisecond,
		OverallTimeout:      time.Duration(cfg.Execution.OverallTimeoutMs) * time.Millisecond,
		SubmitTimeout:       submitTimeout,
		HealthTimeout:       time.Duration(cfg.Execution.HealthTimeoutMs) * time.Millisecond,
		PriorityFeeLamports: cfg.Execution.PriorityFeeLamports,
	}, engine.Dependencies{
		Channels:  descriptors,
		Sequencer: seq,
		Tracker:   metrics.NewTracker(),
		Logger:    log,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialise execution engine")
	}

	builder, err := txbuilder.New(payer, seq, log.With().Str("component", "txbuilder").Logger())
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialise payload builder")
	}

	w, err := worker.New(worker.Config{
		MsgMaxBytes: cfg.Worker.MsgMaxBytes,
		Concurrency: cfg.Worker.Concurrency,
	}, worker.Dependencies{
		Executor:        exec,
		Builder:         builder,
		Validator:       submitvalidator.New(log),
		Signers:         []solana.PrivateKey{payer},
		StatusPublisher: statusPublisher,
		DLQPublisher:    dlqPublisher,
		Committer:       worker.AckCommitter{},
		Logger:          log,
		Now:             time.Now,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialise submission worker")
	}

	metricsSrv := startMetricsServer(cfg.Metrics.Port, prod, log)
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := metricsSrv.Shutdown(shutdownCtx); err != nil {
			log.Error().Err(err).Msg("metrics server shutdown failed")
		}
	}()

	handler := worker.NewKafkaHandler(w, cons)

	errCh := make(chan error, 1)
	go func() {
		if err := cons.Consume(ctx, []string{cfg.Kafka.RequestTopic}, handler); err != nil && !errors.Is(err, context.Canceled) {
			errCh <- err
		}
		close(errCh)
	}()

	log.Info().
		Str("request_topic", cfg.Kafka.RequestTopic).
		Int("channels", len(descriptors)).
		Msg("submit worker started")

	select {
	case <-ctx.Done():
		log.Info().Msg("shutdown signal received")
	case err := <-errCh:
		if err != nil {
			log.Error().Err(err).Msg("consumer terminated with error")
		}
	}
}

func startMetricsServer(port int, prod *producer.Producer, log zerolog.Logger) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		if !prod.IsReady() {
			http.Error(w, "kafka producer not ready", http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	srv := &http.Server{
		Addr:    fmt.Sprintf(":%d", port),
		Handler: mux,
	}
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error().Err(err).Msg("metrics server terminated")
		}
	}()
	return srv
}

func fail(stage string, err error) {
	logger := zerolog.New(os.Stdout).With().Timestamp().Logger()
	logger.Fatal().Err(err).Str("stage", stage).Msg("submit worker init failed")
}
