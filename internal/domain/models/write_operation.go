package models

import (
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"github.com/trebuchet-org/rollout/internal/domain"
)

// OperationState is the lifecycle state of a session write
type OperationState string

const (
	OperationDraft     OperationState = "DRAFT"
	OperationValidated OperationState = "VALIDATED"
	OperationSubmitted OperationState = "SUBMITTED"
	OperationConfirmed OperationState = "CONFIRMED"
	OperationFailed    OperationState = "FAILED"
	OperationTimedOut  OperationState = "TIMED_OUT"
)

// allowedTransitions lists the legal next states for each state
var allowedTransitions = map[OperationState][]OperationState{
	OperationDraft:     {OperationValidated},
	OperationValidated: {OperationSubmitted},
	OperationSubmitted: {OperationConfirmed, OperationFailed, OperationTimedOut},
}

// Terminal reports whether no further transition is possible
func (s OperationState) Terminal() bool {
	return len(allowedTransitions[s]) == 0
}

// WriteOperation tracks one session write from draft to a terminal state.
// Only a submitted transaction reaches a terminal state; an operation that
// fails before submission, or needs no transaction, stays where it stopped.
type WriteOperation struct {
	Method string
	Call   TokenCall
	State  OperationState
	// DryRun is set when the operation stopped after validation without submitting
	DryRun bool
	// NoOp is set when the on-chain state already matched the request
	NoOp bool
	// Effect describes what the operation does or would do
	Effect      string
	GasEstimate uint64
	TxHash      common.Hash
	BlockNumber uint64
	// Prerequisite transactions, like an approval sent before adding liquidity
	Prerequisites []*WriteOperation
	Notes         []string
}

// NewWriteOperation starts an operation in the Draft state
func NewWriteOperation(call TokenCall) *WriteOperation {
	return &WriteOperation{
		Method: call.Method,
		Call:   call,
		State:  OperationDraft,
	}
}

// Transition moves the operation to next, rejecting moves the lifecycle doesn't allow
func (o *WriteOperation) Transition(next OperationState) error {
	for _, s := range allowedTransitions[o.State] {
		if s == next {
			o.State = next
			return nil
		}
	}
	return fmt.Errorf("%w: %s -> %s (%s)", domain.ErrIllegalTransition, o.State, next, o.Method)
}

// Note appends a diagnostic line
func (o *WriteOperation) Note(format string, args ...any) {
	o.Notes = append(o.Notes, fmt.Sprintf(format, args...))
}
