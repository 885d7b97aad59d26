package channels_test

import (
	"testing"
	"time"

	"github.com/gagliardetto/solana-go"
	"github.com/rs/zerolog"

	"github.com/example/ledger-submitter/internal/channels"
	"github.com/example/ledger-submitter/internal/config"
)

func TestBuildSkipsDisabledChannels(t *testing.T) {
	got, err := channels.Build(config.ChannelsConfig{}, time.Second, zerolog.Nop())
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	if len(got) != 0 {
		t.Fatalf("expected no descriptors, got %d", len(got))
	}
}

func TestBuildEnabledChannels(t *testing.T) {
	cfg := config.ChannelsConfig{
		Jito: config.JitoConfig{
			Enabled:        true,
			BlockEngineURL: "https://block-engine.example",
			TipAccount:     solana.NewWallet().PrivateKey.PublicKey().String(),
			TipLamports:    10000,
		},
		Bloxroute: config.BloxrouteConfig{
			Enabled:     true,
			Endpoint:    "https://relay.example",
			AuthHeader:  "token",
			TipLamports: 500,
		},
		Helius: config.HeliusConfig{
			Enabled:  true,
			Endpoint: "https://staked.example",
		},
	}

	got, err := channels.Build(cfg, time.Second, zerolog.Nop())
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	if len(got) != 3 {
		t.Fatalf("expected 3 descriptors, got %d", len(got))
	}
	names := map[string]bool{}
	for _, d := range got {
		names[d.Name] = true
		if !d.Enabled || d.Adapter == nil {
			t.Fatalf("expected enabled descriptor with adapter, got %+v", d)
		}
	}
	for _, want := range []string{"jito", "bloxroute", "helius"} {
		if !names[want] {
			t.Fatalf("expected %s descriptor, got %v", want, names)
		}
	}
}

func TestBuildSurfacesMisconfiguration(t *testing.T) {
	cfg := config.ChannelsConfig{
		Jito: config.JitoConfig{Enabled: true},
	}
	if _, err := channels.Build(cfg, time.Second, zerolog.Nop()); err == nil {
		t.Fatal("expected error for misconfigured enabled channel")
	}
}
