package application

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sync"

	"github.com/bnema/drawloop/internal/domain"
	"github.com/bnema/drawloop/internal/ports"
)

// ExampleStore is the in-memory corpus backed by a CorpusRepository. Each
// bucket is bounded and rewritten in full on every change; writes to one
// bucket are serialized.
type ExampleStore struct {
	repo        ports.CorpusRepository
	maxExamples int
	log         ports.Logger

	mu      sync.RWMutex
	buckets map[string][]domain.ExampleRecord

	writeMu    sync.Mutex
	writeLocks map[string]*sync.Mutex
}

func NewExampleStore(repo ports.CorpusRepository, maxExamples int, log ports.Logger) *ExampleStore {
	if log == nil {
		log = ports.NopLogger{}
	}

	return &ExampleStore{
		repo:        repo,
		maxExamples: maxExamples,
		log:         log,
		buckets:     map[string][]domain.ExampleRecord{},
		writeLocks:  map[string]*sync.Mutex{},
	}
}

func (s *ExampleStore) MaxExamples() int {
	return s.maxExamples
}

// Load reads every persisted bucket. Missing storage yields an empty corpus.
// Buckets that cannot be read stay empty and are reported as persistence failures.
func (s *ExampleStore) Load(ctx context.Context) error {
	names, err := s.repo.ListBuckets(ctx)
	if err != nil {
		return fmt.Errorf("%w: list buckets: %w", domain.ErrPersistence, err)
	}

	loaded := make(map[string][]domain.ExampleRecord, len(names))
	var errs []error
	for _, name := range names {
		records, err := s.repo.LoadBucket(ctx, name)
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return ctxErr
			}
			s.log.Warn("corpus bucket unreadable", "bucket", name, "error", err)
			errs = append(errs, fmt.Errorf("load bucket %q: %w", name, err))
			continue
		}
		if s.maxExamples > 0 && len(records) > s.maxExamples {
			records = slices.Clone(records[len(records)-s.maxExamples:])
		}
		loaded[name] = records
	}

	s.mu.Lock()
	s.buckets = loaded
	s.mu.Unlock()

	if len(errs) > 0 {
		return fmt.Errorf("%w: %w", domain.ErrPersistence, errors.Join(errs...))
	}

	return nil
}

// Append adds record to bucket, evicting the oldest entries beyond the bound,
// then persists the bucket. On a persistence error the in-memory bucket keeps
// the new record and the error wraps domain.ErrPersistence.
func (s *ExampleStore) Append(ctx context.Context, bucket string, record domain.ExampleRecord) error {
	if err := domain.ValidateBucket(bucket); err != nil {
		return err
	}
	if err := record.Validate(); err != nil {
		return fmt.Errorf("append example: %w", err)
	}

	lock := s.writeLock(bucket)
	lock.Lock()
	defer lock.Unlock()

	s.mu.Lock()
	updated := domain.AppendBounded(s.buckets[bucket], record, s.maxExamples)
	s.buckets[bucket] = updated
	s.mu.Unlock()

	return s.persist(ctx, bucket, updated)
}

func (s *ExampleStore) Clear(ctx context.Context, bucket string) error {
	if err := domain.ValidateBucket(bucket); err != nil {
		return err
	}

	lock := s.writeLock(bucket)
	lock.Lock()
	defer lock.Unlock()

	s.mu.Lock()
	s.buckets[bucket] = nil
	s.mu.Unlock()

	return s.persist(ctx, bucket, nil)
}

// TopK returns up to k records of bucket ranked by keyword overlap with query.
func (s *ExampleStore) TopK(query string, k int, bucket string) []domain.ExampleRecord {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return domain.TopK(s.buckets[bucket], query, k)
}

func (s *ExampleStore) All(bucket string) []domain.ExampleRecord {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return slices.Clone(s.buckets[bucket])
}

func (s *ExampleStore) Buckets() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	names := make([]string, 0, len(s.buckets))
	for name := range s.buckets {
		names = append(names, name)
	}
	slices.Sort(names)

	return names
}

func (s *ExampleStore) Stats(bucket string) domain.CorpusStats {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return domain.ComputeStats(bucket, s.buckets[bucket])
}

func (s *ExampleStore) persist(ctx context.Context, bucket string, records []domain.ExampleRecord) error {
	if err := s.repo.SaveBucket(ctx, bucket, records); err != nil {
		s.log.Error("persist corpus bucket", "bucket", bucket, "records", len(records), "error", err)
		return fmt.Errorf("%w: %w", domain.ErrPersistence, err)
	}

	return nil
}

func (s *ExampleStore) writeLock(bucket string) *sync.Mutex {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	lock, ok := s.writeLocks[bucket]
	if !ok {
		lock = &sync.Mutex{}
		s.writeLocks[bucket] = lock
	}

	return lock
}
