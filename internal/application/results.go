package application

import "github.com/bnema/drawloop/internal/domain"

type State string

const (
	StateIdle            State = "idle"
	StateProcessingInput State = "processing_input"
	StateAccepted        State = "accepted"
	StateRejected        State = "rejected"
	StateSkipped         State = "skipped"
	StateExploring       State = "exploring"
)

// Progress locates the orchestrator within a run. Index refers to the input
// while processing and to the attempt within the pass while exploring.
type Progress struct {
	State  State
	Index  int
	Inputs int
	Batch  int
}

type StepOutcome string

const (
	OutcomeAccepted StepOutcome = "accepted"
	OutcomeRejected StepOutcome = "rejected"
	OutcomeSkipped  StepOutcome = "skipped"
)

// StepResult describes one supervised input. Reason is set for skipped steps.
type StepResult struct {
	Index       int              `json:"index"`
	Intent      string           `json:"intent"`
	Outcome     StepOutcome      `json:"outcome"`
	Program     string           `json:"program,omitempty"`
	ImagePath   string           `json:"image_path,omitempty"`
	Description string           `json:"description,omitempty"`
	Decision    *domain.Decision `json:"decision,omitempty"`
	Attempts    int              `json:"attempts"`
	CuratedInto string           `json:"curated_into,omitempty"`
	Reason      string           `json:"reason,omitempty"`
	Persisted   bool             `json:"persisted"`
}

// AttemptResult describes one exploration attempt: either a stored record,
// a rejection by the confidence gate, or a failure with its cause.
type AttemptResult struct {
	Index        int                   `json:"index"`
	Program      string                `json:"program,omitempty"`
	CommandCount int                   `json:"command_count"`
	ImagePath    string                `json:"image_path,omitempty"`
	Caption      domain.Caption        `json:"caption"`
	Decision     *domain.Decision      `json:"decision,omitempty"`
	Record       *domain.ExampleRecord `json:"record,omitempty"`
	Err          error                 `json:"-"`
	Reason       string                `json:"reason,omitempty"`
	Persisted    bool                  `json:"persisted"`
}

func (a AttemptResult) Accepted() bool {
	return a.Record != nil
}

func (a AttemptResult) Failed() bool {
	return a.Err != nil
}

type ExplorationReport struct {
	Attempts []AttemptResult    `json:"attempts"`
	Accepted int                `json:"accepted"`
	Rejected int                `json:"rejected"`
	Failed   int                `json:"failed"`
	Stats    domain.CorpusStats `json:"stats"`
}

func (r *ExplorationReport) add(result AttemptResult) {
	r.Attempts = append(r.Attempts, result)
	switch {
	case result.Failed():
		r.Failed++
	case result.Accepted():
		r.Accepted++
	default:
		r.Rejected++
	}
}

type RunReport struct {
	Summary      domain.RunSummary `json:"summary"`
	Steps        []StepResult      `json:"steps"`
	Explorations []AttemptResult   `json:"explorations"`
}
