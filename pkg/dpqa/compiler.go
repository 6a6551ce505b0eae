package dpqa

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/atomarray/dpqa/internal/fd"
)

// Objective selects what the solver minimizes once feasibility is
// established at a stage count.
type Objective uint8

const (
	// ObjectiveMoves minimizes the number of Move instructions in the
	// schedule. The default.
	ObjectiveMoves Objective = iota
	// ObjectiveTransfers minimizes trap-kind changes between stages.
	ObjectiveTransfers
	// ObjectiveNone accepts the first legal schedule found.
	ObjectiveNone
)

// String returns the objective name.
func (o Objective) String() string {
	switch o {
	case ObjectiveTransfers:
		return "transfers"
	case ObjectiveNone:
		return "none"
	default:
		return "moves"
	}
}

// NoExtraStages disables stage-count escalation: the compiler attempts
// only the input stage count.
const NoExtraStages = -1

// CompilerConfig configures a Compiler. The zero value is not usable;
// grid dimensions are required.
type CompilerConfig struct {
	// Rows and Cols give the trap lattice dimensions.
	Rows int
	Cols int

	// MaxExtraStages bounds escalation: the compiler tries stage counts
	// from the input stage count up to input+MaxExtraStages before
	// declaring the model infeasible. Zero defaults to 2; pass
	// NoExtraStages to try only the input stage count.
	MaxExtraStages int

	// TimeBudget caps the total wall time across all stage-count
	// attempts. Zero means no budget beyond the caller's context.
	TimeBudget time.Duration

	// Objective selects the optimization target. ObjectiveMoves unless
	// set.
	Objective Objective

	// Logger receives per-attempt progress. Nil disables logging.
	Logger *zap.Logger
}

// Compiler turns stage sequences into instruction schedules for one
// grid. A Compiler is immutable after construction and safe for
// concurrent Compile calls; each call builds and discards its own
// solver state.
type Compiler struct {
	grid  Grid
	extra int
	budgt time.Duration
	obj   Objective
	log   *zap.Logger
}

// NewCompiler validates the configuration and builds a Compiler.
func NewCompiler(cfg CompilerConfig) (*Compiler, error) {
	grid, err := NewGrid(cfg.Rows, cfg.Cols)
	if err != nil {
		return nil, err
	}
	var extra int
	switch {
	case cfg.MaxExtraStages == 0:
		extra = 2
	case cfg.MaxExtraStages == NoExtraStages:
		extra = 0
	case cfg.MaxExtraStages < 0:
		return nil, errors.Wrapf(ErrPrecondition, "MaxExtraStages must be non-negative or NoExtraStages, got %d", cfg.MaxExtraStages)
	default:
		extra = cfg.MaxExtraStages
	}
	log := cfg.Logger
	if log == nil {
		log = zap.NewNop()
	}
	return &Compiler{
		grid:  grid,
		extra: extra,
		budgt: cfg.TimeBudget,
		obj:   cfg.Objective,
		log:   log,
	}, nil
}

// Grid returns the lattice the compiler targets.
func (c *Compiler) Grid() Grid { return c.grid }

// Compile schedules seq onto the grid. It attempts increasing solver
// stage counts, starting at the input stage count, until one admits a
// legal placement or the escalation bound is hit. The returned Result
// is Infeasible only when every attempted stage count carries a proof
// of infeasibility; running out of time yields Inconclusive instead.
// Errors are reserved for broken inputs (ErrPrecondition) and solver
// defects (ErrInternalSolver).
func (c *Compiler) Compile(ctx context.Context, seq *Sequence) (*Result, error) {
	if seq == nil {
		return nil, errors.Wrap(ErrPrecondition, "nil sequence")
	}
	if c.budgt > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.budgt)
		defer cancel()
	}

	base := seq.NumStages()
	if base == 0 {
		base = 1 // placement only, no gates
	}

	var attempted []int
	for stages := base; stages <= base+c.extra; stages++ {
		attempted = append(attempted, stages)
		c.log.Info("attempting stage count",
			zap.Int("stages", stages),
			zap.Int("qubits", seq.NumQubits()),
			zap.Stringer("objective", c.obj))

		started := time.Now()
		asg, moves, err := c.attempt(ctx, seq, stages)
		elapsed := time.Since(started)

		switch {
		case err == nil && asg != nil:
			c.log.Info("solved",
				zap.Int("stages", stages),
				zap.Int("objective_value", moves),
				zap.Duration("elapsed", elapsed))
			return c.finish(seq, asg, attempted)

		case err == nil:
			c.log.Info("stage count proven infeasible",
				zap.Int("stages", stages),
				zap.Duration("elapsed", elapsed))

		case errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled):
			c.log.Warn("budget exhausted",
				zap.Int("stages", stages),
				zap.Duration("elapsed", elapsed))
			if asg != nil {
				// Best incumbent found before the deadline; it is a
				// complete legal schedule, only optimality is unproven.
				return c.finish(seq, asg, attempted)
			}
			return &Result{Status: Inconclusive, AttemptedStages: attempted}, nil

		default:
			return nil, err
		}
	}

	c.log.Info("infeasible at every attempted stage count",
		zap.Ints("attempted", attempted))
	return &Result{Status: Infeasible, AttemptedStages: attempted}, nil
}

// attempt solves one stage count. It returns a nil Assignment with a
// nil error on proven infeasibility, and passes context errors through
// together with any incumbent found before the cutoff.
func (c *Compiler) attempt(ctx context.Context, seq *Sequence, stages int) (*Assignment, int, error) {
	m, err := buildModel(c.grid, seq, stages, c.obj)
	if err != nil {
		return nil, 0, err
	}
	c.log.Debug("model built",
		zap.Int("stages", stages),
		zap.Int("variables", m.store.VarCount()))

	var sol []int
	objVal := 0
	if m.obj != nil {
		sol, objVal, err = m.store.Minimize(ctx, m.obj)
	} else {
		var sols [][]int
		sols, err = m.store.Solve(ctx, 1)
		if len(sols) > 0 {
			sol = sols[0]
		}
	}
	if err != nil {
		if errors.Is(err, fd.ErrUnresolved) {
			return nil, 0, errors.Wrap(ErrInternalSolver, err.Error())
		}
		if sol != nil {
			return m.assignment(sol), objVal, err
		}
		return nil, 0, err
	}
	if sol == nil {
		return nil, 0, nil
	}
	return m.assignment(sol), objVal, nil
}

// finish validates the assignment and synthesizes the instruction
// stream. A validation failure here is a solver defect, never reported
// as infeasibility.
func (c *Compiler) finish(seq *Sequence, asg *Assignment, attempted []int) (*Result, error) {
	if err := Verify(c.grid, seq, asg); err != nil {
		return nil, errors.Wrapf(ErrInternalSolver, "solver produced an illegal assignment: %v", err)
	}
	instrs := Synthesize(seq, asg)
	moves := 0
	for _, in := range instrs {
		if _, ok := in.(Move); ok {
			moves++
		}
	}
	return &Result{
		Status:          Solved,
		Instructions:    instrs,
		Assignment:      asg,
		StageCount:      asg.NumStages(),
		Moves:           moves,
		AttemptedStages: attempted,
	}, nil
}
