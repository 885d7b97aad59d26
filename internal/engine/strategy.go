package engine

import common "github.com/example/ledger-submitter/internal/channels/common"

// StrategyKind enumerates the execution strategies the engine can choose.
type StrategyKind int

const (
	// StrategyDirectFallback submits through the generic sequencer with
	// bounded retries; chosen when no channel is enabled.
	StrategyDirectFallback StrategyKind = iota
	// StrategySingleChannel calls the only enabled channel directly. Its
	// failure is surfaced as-is; an explicitly configured single provider
	// failing is a provider issue the caller should see, not mask.
	StrategySingleChannel
	// StrategyHybrid races every enabled channel concurrently, first success
	// wins, falling through to the direct fallback when all fail.
	StrategyHybrid
)

// String returns the wire name of the strategy kind.
func (k StrategyKind) String() string {
	switch k {
	case StrategySingleChannel:
		return "single_channel"
	case StrategyHybrid:
		return "hybrid"
	default:
		return "direct_fallback"
	}
}

// Strategy pairs a kind with the channel set it operates on.
type Strategy struct {
	Kind     StrategyKind
	Channels []common.Descriptor
}

// SelectStrategy picks the execution strategy for the supplied enabled
// channel set. Pure function of the set's cardinality and membership: no
// I/O, no state between calls, no static ranking among channels.
func SelectStrategy(enabled []common.Descriptor) Strategy {
	switch len(enabled) {
	case 0:
		return Strategy{Kind: StrategyDirectFallback}
	case 1:
		return Strategy{Kind: StrategySingleChannel, Channels: enabled}
	default:
		return Strategy{Kind: StrategyHybrid, Channels: enabled}
	}
}
