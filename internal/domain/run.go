package domain

import "time"

// RunSummary counts what happened during one supervised run, including its exploration passes.
type RunSummary struct {
	StartedAt           time.Time `json:"started_at"`
	FinishedAt          time.Time `json:"finished_at"`
	Processed           int       `json:"processed"`
	Accepted            int       `json:"accepted"`
	Rejected            int       `json:"rejected"`
	Skipped             int       `json:"skipped"`
	Curated             int       `json:"curated"`
	ExplorationAttempts int       `json:"exploration_attempts"`
	ExplorationAccepted int       `json:"exploration_accepted"`
	ExplorationFailed   int       `json:"exploration_failed"`
	PersistenceFailures int       `json:"persistence_failures"`
}

func (s RunSummary) Duration() time.Duration {
	if s.StartedAt.IsZero() || s.FinishedAt.Before(s.StartedAt) {
		return 0
	}

	return s.FinishedAt.Sub(s.StartedAt)
}
