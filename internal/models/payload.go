package models

import (
	"errors"
	"fmt"

	bin "github.com/gagliardetto/binary"
	"github.com/gagliardetto/solana-go"
)

// Payload wraps a signed (or signable) transaction handed to the execution
// engine. The engine treats the wrapped transaction as read-only; channel
// attempts and fallback retries each operate on a private Clone so concurrent
// submissions never observe each other's mutations.
type Payload struct {
	tx *solana.Transaction
}

// NewPayload wraps the supplied transaction.
func NewPayload(tx *solana.Transaction) (*Payload, error) {
	if tx == nil {
		return nil, errors.New("models: payload transaction is required")
	}
	return &Payload{tx: tx}, nil
}

// Transaction exposes the underlying transaction for wire encoding and
// submission.
func (p *Payload) Transaction() *solana.Transaction {
	return p.tx
}

// Signature returns the base58 transaction signature, or an empty string when
// the payload has not been signed yet. Once signed, this identifier is stable
// across clones.
func (p *Payload) Signature() string {
	if p == nil || p.tx == nil || len(p.tx.Signatures) == 0 {
		return ""
	}
	return p.tx.Signatures[0].String()
}

// Blockhash returns the sequencing anchor currently attached to the payload.
func (p *Payload) Blockhash() solana.Hash {
	return p.tx.Message.RecentBlockhash
}

// SetBlockhash replaces the sequencing anchor. Intended for fallback retries
// operating on a clone; existing signatures become invalid and the clone must
// be re-signed via SignWith.
func (p *Payload) SetBlockhash(hash solana.Hash) {
	p.tx.Message.RecentBlockhash = hash
}

// NumRequiredSignatures reports how many signatures the network charges for.
func (p *Payload) NumRequiredSignatures() int {
	return int(p.tx.Message.Header.NumRequiredSignatures)
}

// InstructionCount reports the number of compiled instructions, used when
// sizing cost estimates.
func (p *Payload) InstructionCount() int {
	return len(p.tx.Message.Instructions)
}

// SignWith signs the wrapped transaction with the matching keys from the
// supplied signer set.
func (p *Payload) SignWith(signers []solana.PrivateKey) error {
	if len(signers) == 0 {
		return errors.New("models: at least one signer is required")
	}
	_, err := p.tx.Sign(func(key solana.PublicKey) *solana.PrivateKey {
		for i := range signers {
			if signers[i].PublicKey().Equals(key) {
				return &signers[i]
			}
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("models: sign payload: %w", err)
	}
	return nil
}

// Base64 returns the wire encoding channels submit to their endpoints.
func (p *Payload) Base64() (string, error) {
	out, err := p.tx.ToBase64()
	if err != nil {
		return "", fmt.Errorf("models: encode payload: %w", err)
	}
	return out, nil
}

// Clone produces a deep copy of the payload by round-tripping the binary
// encoding, so a channel attempt can augment or re-anchor its copy without
// touching the caller's transaction.
func (p *Payload) Clone() (*Payload, error) {
	data, err := p.tx.MarshalBinary()
	if err != nil {
		return nil, fmt.Errorf("models: clone payload: marshal: %w", err)
	}
	tx, err := solana.TransactionFromDecoder(bin.NewBinDecoder(data))
	if err != nil {
		return nil, fmt.Errorf("models: clone payload: decode: %w", err)
	}
	return &Payload{tx: tx}, nil
}
