package common

import "github.com/example/ledger-submitter/internal/models"

// LamportsPerSignature is the fixed base network fee charged per required
// signature.
const LamportsPerSignature uint64 = 5000

// BaseNetworkFee computes the unavoidable network fee for the payload. Cost
// estimates are advisory: adapters add their configured tip on top of this.
func BaseNetworkFee(payload *models.Payload) uint64 {
	if payload == nil {
		return 0
	}
	n := payload.NumRequiredSignatures()
	if n <= 0 {
		n = 1
	}
	return LamportsPerSignature * uint64(n)
}
