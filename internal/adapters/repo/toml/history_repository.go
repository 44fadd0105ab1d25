package toml

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"sync"

	"github.com/bnema/drawloop/internal/domain"
	"github.com/bnema/drawloop/internal/ports"
	toml "github.com/pelletier/go-toml/v2"
)

const DefaultHistoryLimit = 20

// HistoryRepository keeps the most recent run summaries, oldest first.
type HistoryRepository struct {
	path  string
	limit int
	mu    *sync.RWMutex
}

var _ ports.RunHistoryRepository = (*HistoryRepository)(nil)

func NewHistoryRepository(path string, limit int) (*HistoryRepository, error) {
	if strings.TrimSpace(path) == "" {
		return nil, errors.New("run history path is empty")
	}
	if limit <= 0 {
		limit = DefaultHistoryLimit
	}

	path, err := normalizePath(path)
	if err != nil {
		return nil, err
	}

	return &HistoryRepository{path: path, limit: limit, mu: lockForPath(path)}, nil
}

func (r *HistoryRepository) Append(ctx context.Context, summary domain.RunSummary) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	file, err := r.readSchema()
	if err != nil {
		return err
	}
	file.applyDefaults()

	file.Runs = append(file.Runs, toRunSchema(summary))
	if len(file.Runs) > r.limit {
		file.Runs = file.Runs[len(file.Runs)-r.limit:]
	}

	return writeTOMLFile(r.path, file)
}

func (r *HistoryRepository) List(ctx context.Context) ([]domain.RunSummary, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	file, err := r.readSchema()
	if err != nil {
		return nil, err
	}

	runs := make([]domain.RunSummary, 0, len(file.Runs))
	for _, entry := range file.Runs {
		runs = append(runs, fromRunSchema(entry))
	}

	return runs, nil
}

func (r *HistoryRepository) readSchema() (historyFileSchema, error) {
	data, err := os.ReadFile(r.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return historyFileSchema{}, nil
		}
		return historyFileSchema{}, fmt.Errorf("read run history file: %w", err)
	}

	var file historyFileSchema
	if err := toml.Unmarshal(data, &file); err != nil {
		return historyFileSchema{}, fmt.Errorf("decode run history file: %w", err)
	}
	if err := file.validateVersion(); err != nil {
		return historyFileSchema{}, err
	}
	file.applyDefaults()

	return file, nil
}

func toRunSchema(summary domain.RunSummary) runSchema {
	return runSchema{
		StartedAt:           formatTime(summary.StartedAt),
		FinishedAt:          formatTime(summary.FinishedAt),
		Processed:           summary.Processed,
		Accepted:            summary.Accepted,
		Rejected:            summary.Rejected,
		Skipped:             summary.Skipped,
		Curated:             summary.Curated,
		ExplorationAttempts: summary.ExplorationAttempts,
		ExplorationAccepted: summary.ExplorationAccepted,
		ExplorationFailed:   summary.ExplorationFailed,
		PersistenceFailures: summary.PersistenceFailures,
	}
}

func fromRunSchema(entry runSchema) domain.RunSummary {
	return domain.RunSummary{
		StartedAt:           parseTime(entry.StartedAt),
		FinishedAt:          parseTime(entry.FinishedAt),
		Processed:           entry.Processed,
		Accepted:            entry.Accepted,
		Rejected:            entry.Rejected,
		Skipped:             entry.Skipped,
		Curated:             entry.Curated,
		ExplorationAttempts: entry.ExplorationAttempts,
		ExplorationAccepted: entry.ExplorationAccepted,
		ExplorationFailed:   entry.ExplorationFailed,
		PersistenceFailures: entry.PersistenceFailures,
	}
}
