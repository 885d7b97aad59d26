package engine

import (
	common "github.com/example/ledger-submitter/internal/channels/common"
	"github.com/example/ledger-submitter/internal/models"
)

// EstimateCost returns the advisory lamport cost of submitting the payload
// through each enabled channel, plus the direct fallback. Pure arithmetic
// over configured tips and the base network fee: no network I/O, and it
// never fails even when every channel is unreachable.
func (e *Engine) EstimateCost(payload *models.Payload) map[string]uint64 {
	enabled := common.EnabledChannels(e.channels)
	out := make(map[string]uint64, len(enabled)+1)
	for _, d := range enabled {
		out[d.Name] = safeEstimate(d.Adapter, payload)
	}
	out[FallbackChannelName] = common.BaseNetworkFee(payload) + e.cfg.PriorityFeeLamports
	return out
}

// safeEstimate guards against a misbehaving adapter; estimation is advisory
// and must not fail.
func safeEstimate(a common.Adapter, payload *models.Payload) (cost uint64) {
	defer func() {
		if recover() != nil {
			cost = 0
		}
	}()
	return a.EstimateCost(payload)
}
