package engine

import (
	"context"
	"fmt"
	"time"

	"github.com/gagliardetto/solana-go"

	common "github.com/example/ledger-submitter/internal/channels/common"
	"github.com/example/ledger-submitter/internal/models"
)

// runFallback is the provider-agnostic path: one immediate attempt plus up
// to MaxRetries retries, with a linear backoff of BaseDelay*k before retry
// k. priorErrors carries the per-channel failures of a preceding hybrid race
// so a terminal failure can enumerate every reason, not just the last one.
func (e *Engine) runFallback(ctx context.Context, payload *models.Payload, signers []solana.PrivateKey, priorErrors []string) *models.ExecutionResult {
	errs := append([]string(nil), priorErrors...)

	for retry := 0; ; retry++ {
		if retry > 0 {
			if !e.sleep(ctx, e.cfg.BaseDelay*time.Duration(retry)) {
				return e.timeoutResult(FallbackChannelName)
			}
		}
		if ctx.Err() != nil {
			return e.timeoutResult(FallbackChannelName)
		}

		out := e.fallbackAttempt(ctx, payload, signers)
		if out.Success {
			e.tracker.RecordFallbackRetries(retry)
			e.logger.Info().
				Str("signature", out.Signature).
				Int("retries", retry).
				Msg("fallback submission succeeded")
			return &models.ExecutionResult{
				Success:   true,
				Signature: out.Signature,
				Channel:   FallbackChannelName,
				Retries:   retry,
			}
		}

		errs = append(errs, fmt.Sprintf("%s attempt %d: %s", FallbackChannelName, retry+1, out.Err))
		e.logger.Warn().
			Int("retry", retry).
			Str("error", out.Err).
			Msg("fallback attempt failed")

		if retry == e.cfg.MaxRetries {
			break
		}
	}

	e.tracker.RecordFallbackRetries(e.cfg.MaxRetries)
	return &models.ExecutionResult{
		Error:       joinErrors(errs),
		FailureKind: models.FailureKindExhausted,
		Channel:     FallbackChannelName,
		Retries:     e.cfg.MaxRetries,
	}
}

// fallbackAttempt refreshes the sequencing anchor, re-signs a private clone
// and submits it through the sequencer. A stale anchor is a common,
// avoidable failure cause, so the refresh happens on every attempt.
func (e *Engine) fallbackAttempt(ctx context.Context, payload *models.Payload, signers []solana.PrivateKey) (out *common.SubmissionOutcome) {
	start := e.now()

	defer func() {
		if r := recover(); r != nil {
			out = common.NewFailure(FallbackChannelName, fmt.Errorf("fallback fault: %v", r), e.now().Sub(start))
		}
		e.tracker.RecordSubmission(FallbackChannelName, out.Success, out.Elapsed)
	}()

	clone, err := payload.Clone()
	if err != nil {
		return common.NewFailure(FallbackChannelName, err, e.now().Sub(start))
	}

	hash, err := e.sequencer.LatestBlockhash(ctx)
	if err != nil {
		return common.NewFailure(FallbackChannelName, fmt.Errorf("refresh blockhash: %w", err), e.now().Sub(start))
	}
	clone.SetBlockhash(hash)
	if err := clone.SignWith(signers); err != nil {
		return common.NewFailure(FallbackChannelName, err, e.now().Sub(start))
	}

	sctx, cancel := context.WithTimeout(ctx, e.cfg.SubmitTimeout)
	defer cancel()

	sig, err := e.sequencer.SendTransaction(sctx, clone.Transaction())
	elapsed := e.now().Sub(start)
	if err != nil {
		return common.NewFailure(FallbackChannelName, err, elapsed)
	}
	return common.NewSuccess(FallbackChannelName, sig.String(), elapsed)
}
