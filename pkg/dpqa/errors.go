package dpqa

import "github.com/pkg/errors"

// Compiler error kinds. Infeasibility and budget exhaustion are result
// statuses, not errors; only broken inputs and broken solver internals
// surface as Go errors.
var (
	// ErrPrecondition marks inputs rejected before any solving: a stage
	// sequence violating qubit disjointness, out-of-range qubit ids, or
	// non-positive grid dimensions.
	ErrPrecondition = errors.New("dpqa: precondition violated")

	// ErrInternalSolver marks an implementation-level failure inside the
	// constraint engine or the model: it must propagate to the caller,
	// never be folded into an Infeasible result.
	ErrInternalSolver = errors.New("dpqa: internal solver error")
)
