package channels

import (
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/example/ledger-submitter/internal/channels/bloxroute"
	common "github.com/example/ledger-submitter/internal/channels/common"
	"github.com/example/ledger-submitter/internal/channels/helius"
	"github.com/example/ledger-submitter/internal/channels/jito"
	"github.com/example/ledger-submitter/internal/config"
)

// Build constructs the descriptor set for every configured acceptance
// channel. Disabled channels are skipped entirely so their configuration is
// never validated; a misconfigured enabled channel fails construction.
func Build(cfg config.ChannelsConfig, submitTimeout time.Duration, logger zerolog.Logger) ([]common.Descriptor, error) {
	var out []common.Descriptor

	if cfg.Jito.Enabled {
		adapter, err := jito.New(jito.Config{
			BlockEngineURL: cfg.Jito.BlockEngineURL,
			TipAccount:     cfg.Jito.TipAccount,
			TipLamports:    cfg.Jito.TipLamports,
			SubmitTimeout:  submitTimeout,
		}, logger.With().Str("channel", jito.ChannelName).Logger())
		if err != nil {
			return nil, fmt.Errorf("channels: build %s: %w", jito.ChannelName, err)
		}
		out = append(out, common.Descriptor{
			Name:        jito.ChannelName,
			Enabled:     true,
			TipLamports: cfg.Jito.TipLamports,
			Adapter:     adapter,
		})
	}

	if cfg.Bloxroute.Enabled {
		adapter, err := bloxroute.New(bloxroute.Config{
			Endpoint:      cfg.Bloxroute.Endpoint,
			AuthHeader:    cfg.Bloxroute.AuthHeader,
			TipLamports:   cfg.Bloxroute.TipLamports,
			SubmitTimeout: submitTimeout,
		}, logger.With().Str("channel", bloxroute.ChannelName).Logger())
		if err != nil {
			return nil, fmt.Errorf("channels: build %s: %w", bloxroute.ChannelName, err)
		}
		out = append(out, common.Descriptor{
			Name:        bloxroute.ChannelName,
			Enabled:     true,
			TipLamports: cfg.Bloxroute.TipLamports,
			Adapter:     adapter,
		})
	}

	if cfg.Helius.Enabled {
		adapter, err := helius.New(helius.Config{
			Endpoint:      cfg.Helius.Endpoint,
			TipLamports:   cfg.Helius.TipLamports,
			SubmitTimeout: submitTimeout,
		}, logger.With().Str("channel", helius.ChannelName).Logger())
		if err != nil {
			return nil, fmt.Errorf("channels: build %s: %w", helius.ChannelName, err)
		}
		out = append(out, common.Descriptor{
			Name:        helius.ChannelName,
			Enabled:     true,
			TipLamports: cfg.Helius.TipLamports,
			Adapter:     adapter,
		})
	}

	return out, nil
}
