package validator

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"reflect"
	"time"

	"github.com/gagliardetto/solana-go"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/example/ledger-submitter/internal/models"
)

const (
	maxMetaEntries     = 16
	maxMetaValueLength = 256
)

// Validator parses raw submission-request payloads and enforces the
// invariants the rest of the pipeline assumes: a usable message identity, a
// well formed recipient address and a positive transfer amount.
type Validator struct {
	logger zerolog.Logger
	now    func() time.Time
}

// New constructs a Validator.
func New(logger zerolog.Logger) *Validator {
	if reflect.ValueOf(logger).IsZero() {
		logger = zerolog.Nop()
	}
	return &Validator{
		logger: logger.With().Str("component", "validator").Logger(),
		now:    time.Now,
	}
}

// ParseAndValidate decodes the raw payload into a SubmissionRequest and
// validates it. Identity fields are defaulted rather than rejected so that
// producers without UUID support still get traceable submissions.
func (v *Validator) ParseAndValidate(_ context.Context, payload []byte) (*models.SubmissionRequest, error) {
	if len(payload) == 0 {
		return nil, errors.New("validator: empty payload")
	}

	dec := json.NewDecoder(bytes.NewReader(payload))
	dec.DisallowUnknownFields()

	var req models.SubmissionRequest
	if err := dec.Decode(&req); err != nil {
		return nil, fmt.Errorf("validator: decode submission request: %w", err)
	}

	if req.MessageID == "" {
		req.MessageID = uuid.NewString()
		v.logger.Debug().Str("message_id", req.MessageID).Msg("assigned message id to inbound request")
	}
	if req.TraceID == "" {
		req.TraceID = uuid.NewString()
	}
	if req.CreatedAt.IsZero() {
		req.CreatedAt = v.now()
	}

	if err := v.validate(&req); err != nil {
		return &req, err
	}
	return &req, nil
}

func (v *Validator) validate(req *models.SubmissionRequest) error {
	var errs []error

	if req.Recipient == "" {
		errs = append(errs, errors.New("recipient is required"))
	} else if _, err := solana.PublicKeyFromBase58(req.Recipient); err != nil {
		errs = append(errs, fmt.Errorf("recipient is not a valid base58 public key: %w", err))
	}

	if req.Lamports == 0 {
		errs = append(errs, errors.New("lamports must be greater than zero"))
	}

	if len(req.Meta) > maxMetaEntries {
		errs = append(errs, fmt.Errorf("meta has %d entries, limit %d", len(req.Meta), maxMetaEntries))
	}
	for key, value := range req.Meta {
		if len(value) > maxMetaValueLength {
			errs = append(errs, fmt.Errorf("meta value for %q exceeds %d bytes", key, maxMetaValueLength))
			break
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("validator: invalid submission request: %w", errors.Join(errs...))
	}
	return nil
}
