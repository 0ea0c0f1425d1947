package usecase

import (
	"context"
	"fmt"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/trebuchet-org/rollout/internal/domain"
	"github.com/trebuchet-org/rollout/internal/domain/config"
)

// Backoff produces exponentially growing delays capped at Max
type Backoff struct {
	Initial    time.Duration
	Multiplier float64
	Max        time.Duration
}

// BackoffFromPolicy builds the polling backoff of a confirmation policy
func BackoffFromPolicy(p config.ConfirmationPolicy) Backoff {
	return Backoff{Initial: p.PollInitial, Multiplier: p.PollMultiplier, Max: p.PollMax}
}

// Delay returns the wait before poll attempt n (0-based)
func (b Backoff) Delay(n int) time.Duration {
	mult := b.Multiplier
	if mult < 1 {
		mult = 1
	}
	d := float64(b.Initial)
	for i := 0; i < n; i++ {
		d *= mult
		if b.Max > 0 && d >= float64(b.Max) {
			return b.Max
		}
	}
	if b.Max > 0 && time.Duration(d) > b.Max {
		return b.Max
	}
	return time.Duration(d)
}

// Confirmation is the outcome of waiting for a transaction
type Confirmation struct {
	Receipt     *types.Receipt
	BlockNumber uint64
	// Confirmations seen when the wait ended
	Confirmations uint64
	Attempts      int
}

// ReceiptSource is the part of ChainClient the waiter polls
type ReceiptSource interface {
	BlockNumber(ctx context.Context) (uint64, error)
	TransactionReceipt(ctx context.Context, txHash common.Hash) (*types.Receipt, error)
}

// ConfirmationWaiter polls for a receipt until enough blocks sit on top of it
type ConfirmationWaiter struct {
	clock   Clock
	backoff Backoff
	timeout time.Duration
	want    uint64
}

// NewConfirmationWaiter creates a waiter for a policy
func NewConfirmationWaiter(clock Clock, policy config.ConfirmationPolicy) *ConfirmationWaiter {
	want := policy.Confirmations
	if want == 0 {
		want = 1
	}
	return &ConfirmationWaiter{
		clock:   clock,
		backoff: BackoffFromPolicy(policy),
		timeout: policy.Timeout,
		want:    want,
	}
}

// Wait polls until the transaction has the wanted confirmations. It returns
// domain.ErrSubmissionFailed for a reverted receipt, domain.ErrConfirmationTimeout
// once the timeout has elapsed and domain.ErrCancelled when ctx is done. The
// returned Confirmation holds whatever was observed, also on error.
func (w *ConfirmationWaiter) Wait(ctx context.Context, src ReceiptSource, txHash common.Hash) (*Confirmation, error) {
	result := &Confirmation{}
	deadline := w.clock.Now().Add(w.timeout)

	for attempt := 0; ; attempt++ {
		result.Attempts = attempt + 1

		done, err := w.poll(ctx, src, txHash, result)
		if err != nil {
			return result, err
		}
		if done {
			return result, nil
		}

		remaining := deadline.Sub(w.clock.Now())
		if remaining <= 0 {
			return result, fmt.Errorf("%w: %s after %s (%d/%d confirmations)",
				domain.ErrConfirmationTimeout, txHash.Hex(), w.timeout, result.Confirmations, w.want)
		}

		delay := w.backoff.Delay(attempt)
		if delay > remaining {
			delay = remaining
		}
		if err := w.clock.Sleep(ctx, delay); err != nil {
			return result, fmt.Errorf("%w: waiting for %s: %v", domain.ErrCancelled, txHash.Hex(), err)
		}
	}
}

// poll does one receipt + head check; transient RPC errors are retried by the caller's loop
func (w *ConfirmationWaiter) poll(ctx context.Context, src ReceiptSource, txHash common.Hash, result *Confirmation) (bool, error) {
	if ctx.Err() != nil {
		return false, fmt.Errorf("%w: waiting for %s: %v", domain.ErrCancelled, txHash.Hex(), ctx.Err())
	}

	receipt, err := src.TransactionReceipt(ctx, txHash)
	if err != nil {
		if ctx.Err() != nil {
			return false, fmt.Errorf("%w: waiting for %s: %v", domain.ErrCancelled, txHash.Hex(), ctx.Err())
		}
		// domain.ErrNotFound while pending; other RPC errors get the next poll too
		return false, nil
	}

	result.Receipt = receipt
	if receipt.BlockNumber != nil {
		result.BlockNumber = receipt.BlockNumber.Uint64()
	}
	if receipt.Status == types.ReceiptStatusFailed {
		return false, fmt.Errorf("%w: transaction %s reverted in block %d",
			domain.ErrSubmissionFailed, txHash.Hex(), result.BlockNumber)
	}

	head, err := src.BlockNumber(ctx)
	if err != nil {
		return false, nil
	}
	if head >= result.BlockNumber {
		result.Confirmations = head - result.BlockNumber + 1
	}
	return result.Confirmations >= w.want, nil
}
