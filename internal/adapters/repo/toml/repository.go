package toml

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/bnema/drawloop/internal/domain"
	"github.com/bnema/drawloop/internal/ports"
	toml "github.com/pelletier/go-toml/v2"
)

const (
	corpusFileMode  = 0o600
	corpusDirMode   = 0o700
	corpusExtension = ".toml"
	tempFilePattern = ".drawloop-*.toml.tmp"
)

// CorpusRepository keeps one TOML file per bucket under dir. Every save
// rewrites the whole bucket file.
type CorpusRepository struct {
	dir string
}

var (
	lockRegistryMu sync.Mutex
	pathLockMap    = map[string]*sync.RWMutex{}
)

var _ ports.CorpusRepository = (*CorpusRepository)(nil)

func NewCorpusRepository(dir string) (*CorpusRepository, error) {
	if strings.TrimSpace(dir) == "" {
		return nil, errors.New("corpus directory is empty")
	}

	dir, err := normalizePath(dir)
	if err != nil {
		return nil, err
	}

	return &CorpusRepository{dir: dir}, nil
}

func (r *CorpusRepository) Dir() string {
	return r.dir
}

func (r *CorpusRepository) ListBuckets(ctx context.Context) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	entries, err := os.ReadDir(r.dir)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("read corpus directory: %w", err)
	}

	buckets := make([]string, 0, len(entries))
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		bucket, ok := strings.CutSuffix(entry.Name(), corpusExtension)
		if !ok || domain.ValidateBucket(bucket) != nil {
			continue
		}
		buckets = append(buckets, bucket)
	}
	slices.Sort(buckets)

	return buckets, nil
}

func (r *CorpusRepository) LoadBucket(ctx context.Context, bucket string) ([]domain.ExampleRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	path, err := r.pathForBucket(bucket)
	if err != nil {
		return nil, err
	}

	mu := lockForPath(path)
	mu.RLock()
	defer mu.RUnlock()

	file, err := readCorpusFile(path)
	if err != nil {
		return nil, err
	}

	records := make([]domain.ExampleRecord, 0, len(file.Examples))
	for _, entry := range file.Examples {
		records = append(records, fromExampleSchema(entry))
	}

	return records, nil
}

func (r *CorpusRepository) SaveBucket(ctx context.Context, bucket string, records []domain.ExampleRecord) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	path, err := r.pathForBucket(bucket)
	if err != nil {
		return err
	}

	mu := lockForPath(path)
	mu.Lock()
	defer mu.Unlock()

	file := corpusFileSchema{Bucket: bucket, Examples: make([]exampleSchema, 0, len(records))}
	file.applyDefaults()
	for _, record := range records {
		file.Examples = append(file.Examples, toExampleSchema(record))
	}

	if err := ctx.Err(); err != nil {
		return err
	}

	if err := writeTOMLFile(path, file); err != nil {
		return fmt.Errorf("save bucket %q: %w", bucket, err)
	}

	return nil
}

func (r *CorpusRepository) pathForBucket(bucket string) (string, error) {
	if err := domain.ValidateBucket(bucket); err != nil {
		return "", err
	}

	return filepath.Join(r.dir, bucket+corpusExtension), nil
}

func readCorpusFile(path string) (corpusFileSchema, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return corpusFileSchema{}, nil
		}
		return corpusFileSchema{}, fmt.Errorf("read corpus file: %w", err)
	}

	var file corpusFileSchema
	if err := toml.Unmarshal(data, &file); err != nil {
		return corpusFileSchema{}, fmt.Errorf("decode corpus file: %w", err)
	}
	if err := file.validateVersion(); err != nil {
		return corpusFileSchema{}, err
	}
	file.applyDefaults()

	return file, nil
}

func normalizePath(path string) (string, error) {
	absPath, err := filepath.Abs(path)
	if err != nil {
		return "", fmt.Errorf("resolve path %q: %w", path, err)
	}

	return filepath.Clean(absPath), nil
}

func lockForPath(path string) *sync.RWMutex {
	lockRegistryMu.Lock()
	defer lockRegistryMu.Unlock()

	if mu, ok := pathLockMap[path]; ok {
		return mu
	}

	mu := &sync.RWMutex{}
	pathLockMap[path] = mu
	return mu
}

func writeTOMLFile(path string, file any) error {
	if err := os.MkdirAll(filepath.Dir(path), corpusDirMode); err != nil {
		return fmt.Errorf("create directory: %w", err)
	}

	data, err := toml.Marshal(file)
	if err != nil {
		return fmt.Errorf("encode file: %w", err)
	}

	tempFile, err := os.CreateTemp(filepath.Dir(path), tempFilePattern)
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}

	tempName := tempFile.Name()
	cleanup := true
	defer func() {
		if cleanup {
			_ = os.Remove(tempName)
		}
	}()

	if _, err := tempFile.Write(data); err != nil {
		_ = tempFile.Close()
		return fmt.Errorf("write temp file: %w", err)
	}

	if err := tempFile.Chmod(corpusFileMode); err != nil {
		_ = tempFile.Close()
		return fmt.Errorf("chmod temp file: %w", err)
	}

	if err := tempFile.Close(); err != nil {
		return fmt.Errorf("close temp file: %w", err)
	}

	if err := os.Rename(tempName, path); err != nil {
		return fmt.Errorf("replace file: %w", err)
	}

	cleanup = false
	return nil
}

func toExampleSchema(record domain.ExampleRecord) exampleSchema {
	entry := exampleSchema{
		Input:       record.Intent,
		DSL:         record.DSL,
		Description: record.Description,
	}
	if p := record.Provenance; p != nil {
		entry.Provenance = &provenanceSchema{
			Confidence:   p.Confidence,
			Source:       string(p.Source),
			CommandCount: p.CommandCount,
			ImagePath:    p.ImagePath,
			CreatedAt:    formatTime(p.CreatedAt),
		}
	}

	return entry
}

func fromExampleSchema(entry exampleSchema) domain.ExampleRecord {
	record := domain.ExampleRecord{
		Intent:      entry.Input,
		DSL:         entry.DSL,
		Description: entry.Description,
	}
	if p := entry.Provenance; p != nil {
		record.Provenance = &domain.Provenance{
			Confidence:   p.Confidence,
			Source:       domain.Source(p.Source),
			CommandCount: p.CommandCount,
			ImagePath:    p.ImagePath,
			CreatedAt:    parseTime(p.CreatedAt),
		}
	}

	return record
}

func parseTime(raw string) time.Time {
	if raw == "" {
		return time.Time{}
	}

	parsed, err := time.Parse(time.RFC3339Nano, raw)
	if err != nil {
		return time.Time{}
	}

	return parsed
}

func formatTime(value time.Time) string {
	if value.IsZero() {
		return ""
	}

	return value.UTC().Format(time.RFC3339Nano)
}
