package toml

import "fmt"

const (
	currentCorpusSchemaVersion  = 1
	currentHistorySchemaVersion = 1
)

type corpusFileSchema struct {
	Version  int             `toml:"version"`
	Bucket   string          `toml:"bucket"`
	Examples []exampleSchema `toml:"examples"`
}

func (s *corpusFileSchema) applyDefaults() {
	if s.Version == 0 {
		s.Version = currentCorpusSchemaVersion
	}
}

func (s corpusFileSchema) validateVersion() error {
	if s.Version > currentCorpusSchemaVersion {
		return fmt.Errorf("unsupported corpus schema version %d (current %d)", s.Version, currentCorpusSchemaVersion)
	}

	return nil
}

type exampleSchema struct {
	Input       string            `toml:"input"`
	DSL         string            `toml:"dsl"`
	Description string            `toml:"description"`
	Provenance  *provenanceSchema `toml:"provenance,omitempty"`
}

type provenanceSchema struct {
	Confidence   float64 `toml:"confidence"`
	Source       string  `toml:"source"`
	CommandCount int     `toml:"command_count"`
	ImagePath    string  `toml:"image_path,omitempty"`
	CreatedAt    string  `toml:"created_at,omitempty"`
}

type historyFileSchema struct {
	Version int         `toml:"version"`
	Runs    []runSchema `toml:"runs"`
}

func (s *historyFileSchema) applyDefaults() {
	if s.Version == 0 {
		s.Version = currentHistorySchemaVersion
	}
}

func (s historyFileSchema) validateVersion() error {
	if s.Version > currentHistorySchemaVersion {
		return fmt.Errorf("unsupported run history schema version %d (current %d)", s.Version, currentHistorySchemaVersion)
	}

	return nil
}

type runSchema struct {
	StartedAt           string `toml:"started_at"`
	FinishedAt          string `toml:"finished_at"`
	Processed           int    `toml:"processed"`
	Accepted            int    `toml:"accepted"`
	Rejected            int    `toml:"rejected"`
	Skipped             int    `toml:"skipped"`
	Curated             int    `toml:"curated"`
	ExplorationAttempts int    `toml:"exploration_attempts"`
	ExplorationAccepted int    `toml:"exploration_accepted"`
	ExplorationFailed   int    `toml:"exploration_failed"`
	PersistenceFailures int    `toml:"persistence_failures"`
}
