package common

// Descriptor binds a channel name to its adapter, enablement flag and
// configured tip. Constructed once at wiring time and immutable afterwards;
// the engine re-reads the set on every execution so enablement is honoured
// per call.
type Descriptor struct {
	Name        string
	Enabled     bool
	TipLamports uint64
	Adapter     Adapter
}

// EnabledChannels filters the supplied set down to enabled descriptors with a
// usable adapter, preserving order.
func EnabledChannels(all []Descriptor) []Descriptor {
	var out []Descriptor
	for _, d := range all {
		if d.Enabled && d.Adapter != nil {
			out = append(out, d)
		}
	}
	return out
}
