// Package mocks holds testify mocks for the ports interfaces.
package mocks

import (
	"context"
	"image"
	"time"

	"github.com/bnema/drawloop/internal/domain"
	"github.com/bnema/drawloop/internal/ports"
	"github.com/stretchr/testify/mock"
)

type testingT interface {
	mock.TestingT
	Cleanup(func())
}

var (
	_ ports.DSLConverter     = (*MockDSLConverter)(nil)
	_ ports.Captioner        = (*MockCaptioner)(nil)
	_ ports.SimilarityOracle = (*MockSimilarityOracle)(nil)
	_ ports.CorpusRepository = (*MockCorpusRepository)(nil)
	_ ports.ArtifactStore    = (*MockArtifactStore)(nil)
)

type MockDSLConverter struct {
	mock.Mock
}

func NewMockDSLConverter(t testingT) *MockDSLConverter {
	m := &MockDSLConverter{}
	m.Test(t)
	t.Cleanup(func() { m.AssertExpectations(t) })
	return m
}

func (m *MockDSLConverter) ConvertToDSL(ctx context.Context, intent string, examples []domain.ExampleRecord) (string, error) {
	args := m.Called(ctx, intent, examples)
	return args.String(0), args.Error(1)
}

type MockCaptioner struct {
	mock.Mock
}

func NewMockCaptioner(t testingT) *MockCaptioner {
	m := &MockCaptioner{}
	m.Test(t)
	t.Cleanup(func() { m.AssertExpectations(t) })
	return m
}

func (m *MockCaptioner) Describe(ctx context.Context, img image.Image) (domain.Caption, error) {
	args := m.Called(ctx, img)
	return args.Get(0).(domain.Caption), args.Error(1)
}

type MockSimilarityOracle struct {
	mock.Mock
}

func NewMockSimilarityOracle(t testingT) *MockSimilarityOracle {
	m := &MockSimilarityOracle{}
	m.Test(t)
	t.Cleanup(func() { m.AssertExpectations(t) })
	return m
}

func (m *MockSimilarityOracle) Similarity(ctx context.Context, a, b string) (float64, error) {
	args := m.Called(ctx, a, b)
	return args.Get(0).(float64), args.Error(1)
}

type MockCorpusRepository struct {
	mock.Mock
}

func NewMockCorpusRepository(t testingT) *MockCorpusRepository {
	m := &MockCorpusRepository{}
	m.Test(t)
	t.Cleanup(func() { m.AssertExpectations(t) })
	return m
}

func (m *MockCorpusRepository) ListBuckets(ctx context.Context) ([]string, error) {
	args := m.Called(ctx)
	buckets, _ := args.Get(0).([]string)
	return buckets, args.Error(1)
}

func (m *MockCorpusRepository) LoadBucket(ctx context.Context, bucket string) ([]domain.ExampleRecord, error) {
	args := m.Called(ctx, bucket)
	records, _ := args.Get(0).([]domain.ExampleRecord)
	return records, args.Error(1)
}

func (m *MockCorpusRepository) SaveBucket(ctx context.Context, bucket string, records []domain.ExampleRecord) error {
	args := m.Called(ctx, bucket, records)
	return args.Error(0)
}

type MockArtifactStore struct {
	mock.Mock
}

func NewMockArtifactStore(t testingT) *MockArtifactStore {
	m := &MockArtifactStore{}
	m.Test(t)
	t.Cleanup(func() { m.AssertExpectations(t) })
	return m
}

func (m *MockArtifactStore) Save(ctx context.Context, kind string, img image.Image) (string, error) {
	args := m.Called(ctx, kind, img)
	return args.String(0), args.Error(1)
}

func (m *MockArtifactStore) Prune(ctx context.Context, olderThan time.Time, dryRun bool) ([]string, error) {
	args := m.Called(ctx, olderThan, dryRun)
	paths, _ := args.Get(0).([]string)
	return paths, args.Error(1)
}
