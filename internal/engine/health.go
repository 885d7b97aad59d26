package engine

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"

	common "github.com/example/ledger-submitter/internal/channels/common"
)

// Health probes every enabled channel concurrently and reports reachability
// per channel name. Each probe runs under its own timeout so one slow or
// failing channel never blocks the others; the key set is always the full
// enabled channel set.
func (e *Engine) Health(ctx context.Context) map[string]bool {
	enabled := common.EnabledChannels(e.channels)
	results := make([]bool, len(enabled))

	var g errgroup.Group
	for i, d := range enabled {
		i, d := i, d
		g.Go(func() error {
			pctx, cancel := context.WithTimeout(ctx, e.cfg.HealthTimeout)
			defer cancel()
			results[i] = e.probe(pctx, d) == nil
			return nil
		})
	}
	_ = g.Wait()

	out := make(map[string]bool, len(enabled))
	for i, d := range enabled {
		out[d.Name] = results[i]
	}
	return out
}

// probe isolates a single health check, converting panics into failures.
func (e *Engine) probe(ctx context.Context, d common.Descriptor) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("health probe fault: %v", r)
		}
	}()
	err = d.Adapter.HealthCheck(ctx)
	if err != nil {
		e.logger.Debug().
			Str("channel", d.Name).
			Err(err).
			Msg("channel health probe failed")
	}
	return err
}
