package dpqa

import "fmt"

// Status classifies the outcome of a Compile call.
type Status uint8

const (
	// Solved: a legal schedule was found; Result carries it.
	Solved Status = iota
	// Infeasible: every attempted stage count was proven to admit no
	// legal schedule. A definite negative result.
	Infeasible
	// Inconclusive: the time budget expired before a proof either way.
	// Never conflated with Infeasible.
	Inconclusive
)

// String returns the status name.
func (s Status) String() string {
	switch s {
	case Solved:
		return "solved"
	case Infeasible:
		return "infeasible"
	default:
		return "inconclusive"
	}
}

// Placement is one qubit's site and trap kind at one stage.
type Placement struct {
	X    int
	Y    int
	Kind TrapKind
}

// String renders the placement.
func (p Placement) String() string {
	return fmt.Sprintf("(%d,%d,%s)", p.X, p.Y, p.Kind)
}

// Assignment is a complete solved placement: per solver stage, per
// qubit placements, plus the mapping from input stages to the solver
// stages at which their gates execute. Solver stages not mapped by any
// input stage are gate-free rearrangement stages.
type Assignment struct {
	// Stages[s][q] is qubit q's placement at solver stage s.
	Stages [][]Placement
	// GateStage[k] is the solver stage executing input stage k's gates;
	// strictly increasing.
	GateStage []int
}

// NumStages returns the solver stage count.
func (a *Assignment) NumStages() int { return len(a.Stages) }

// Result is the outcome of one Compile call. Instructions and
// Assignment are populated only when Status is Solved.
type Result struct {
	Status       Status
	Instructions []Instruction
	Assignment   *Assignment
	// StageCount is the solver stage count of the solution.
	StageCount int
	// Moves counts the Move instructions in the schedule.
	Moves int
	// AttemptedStages lists the stage counts tried, in order. On an
	// Infeasible result every listed count was proven infeasible.
	AttemptedStages []int
}
