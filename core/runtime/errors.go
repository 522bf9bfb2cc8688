package runtime

import (
	"errors"
	"fmt"

	"github.com/solbridge/solbridge/common"
)

// Sentinel kinds of the execution-failure taxonomy. Concrete failures are
// typed errors matching these through errors.Is, so callers branch on kind
// without losing the carried detail.
var (
	// ErrExecutionReverted marks user-level revert/require failures. The
	// enclosing host transaction is not committed; the reason string is
	// surfaced to the caller.
	ErrExecutionReverted = errors.New("execution reverted")

	// ErrInvariantViolated marks assert-style failures: programmer error,
	// not input error. Callers must not attempt recovery.
	ErrInvariantViolated = errors.New("invariant violated")

	// ErrContractDestroyed is the terminal signal of selfDestruct.
	ErrContractDestroyed = errors.New("contract destroyed")
)

// RevertError carries the human-readable revert reason up the call stack.
type RevertError struct {
	Reason string
}

func (e *RevertError) Error() string {
	if e.Reason == "" {
		return "execution reverted"
	}
	return fmt.Sprintf("execution reverted: %s", e.Reason)
}

func (e *RevertError) Unwrap() error { return ErrExecutionReverted }

// DestroyedError reports the completed self-destruct and where the residual
// balance went. Unrecoverable for the current execution.
type DestroyedError struct {
	Beneficiary common.Address
}

func (e *DestroyedError) Error() string {
	return fmt.Sprintf("contract destroyed, balance sent to %s", e.Beneficiary)
}

func (e *DestroyedError) Unwrap() error { return ErrContractDestroyed }
