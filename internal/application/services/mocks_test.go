package services

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/retrovault/storefront-backend/internal/domain/entities"
	"github.com/retrovault/storefront-backend/internal/domain/repositories"
)

// Shared hand-written mocks for the service tests.

type MockCatalogRepo struct {
	mock.Mock
	kind entities.EntityKind
}

func NewMockCatalogRepo(kind entities.EntityKind) *MockCatalogRepo {
	return &MockCatalogRepo{kind: kind}
}

func (m *MockCatalogRepo) Kind() entities.EntityKind {
	return m.kind
}

func (m *MockCatalogRepo) GetDocument(ctx context.Context, id string) (*entities.Document, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.Document), args.Error(1)
}

func (m *MockCatalogRepo) ListDocuments(ctx context.Context, afterID string, limit int) ([]entities.Document, error) {
	args := m.Called(ctx, afterID, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]entities.Document), args.Error(1)
}

func (m *MockCatalogRepo) FullTextCandidates(ctx context.Context, terms []string, mode repositories.MatchMode, filter repositories.CatalogFilter, limit int) ([]repositories.Candidate, error) {
	args := m.Called(ctx, terms, mode, filter, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]repositories.Candidate), args.Error(1)
}

func (m *MockCatalogRepo) IdentifierCandidates(ctx context.Context, terms []string, filter repositories.CatalogFilter, limit int) ([]repositories.Candidate, error) {
	args := m.Called(ctx, terms, filter, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]repositories.Candidate), args.Error(1)
}

func (m *MockCatalogRepo) TermJoinCandidates(ctx context.Context, termIDs []int64, filter repositories.CatalogFilter, limit int) ([]repositories.Candidate, error) {
	args := m.Called(ctx, termIDs, filter, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]repositories.Candidate), args.Error(1)
}

func (m *MockCatalogRepo) TopByPopularity(ctx context.Context, filter repositories.CatalogFilter, wPreferences, wSearches float64, limit int) ([]repositories.Candidate, error) {
	args := m.Called(ctx, filter, wPreferences, wSearches, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]repositories.Candidate), args.Error(1)
}

func (m *MockCatalogRepo) IncrementSearches(ctx context.Context, ids []string) error {
	return m.Called(ctx, ids).Error(0)
}

func (m *MockCatalogRepo) IncrementClicks(ctx context.Context, id string) error {
	return m.Called(ctx, id).Error(0)
}

type MockTermIndexRepo struct {
	mock.Mock
}

func (m *MockTermIndexRepo) ReplaceEntityTerms(ctx context.Context, kind entities.EntityKind, entityID string, counts []entities.TermCounts) error {
	return m.Called(ctx, kind, entityID, counts).Error(0)
}

func (m *MockTermIndexRepo) RemoveEntityTerms(ctx context.Context, kind entities.EntityKind, entityID string) error {
	return m.Called(ctx, kind, entityID).Error(0)
}

func (m *MockTermIndexRepo) TruncateAll(ctx context.Context, kind entities.EntityKind) error {
	return m.Called(ctx, kind).Error(0)
}

func (m *MockTermIndexRepo) MatchingTerms(ctx context.Context, kind entities.EntityKind, terms []string) ([]*entities.Term, error) {
	args := m.Called(ctx, kind, terms)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*entities.Term), args.Error(1)
}

func (m *MockTermIndexRepo) BumpSearchStats(ctx context.Context, kind entities.EntityKind, terms []string) error {
	return m.Called(ctx, kind, terms).Error(0)
}

func (m *MockTermIndexRepo) EntityTermHits(ctx context.Context, kind entities.EntityKind, entityIDs []string, termIDs []int64) ([]entities.TermHit, error) {
	args := m.Called(ctx, kind, entityIDs, termIDs)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]entities.TermHit), args.Error(1)
}

type MockDescriptorRepo struct {
	mock.Mock
}

func (m *MockDescriptorRepo) ReplaceEntityDescriptors(ctx context.Context, kind entities.EntityKind, entityID string, scores []entities.DescriptorScore) error {
	return m.Called(ctx, kind, entityID, scores).Error(0)
}

func (m *MockDescriptorRepo) RemoveEntityDescriptors(ctx context.Context, kind entities.EntityKind, entityID string) error {
	return m.Called(ctx, kind, entityID).Error(0)
}

func (m *MockDescriptorRepo) TruncateAll(ctx context.Context, kind entities.EntityKind) error {
	return m.Called(ctx, kind).Error(0)
}

func (m *MockDescriptorRepo) WeightedScoreSums(ctx context.Context, kind entities.EntityKind, entityIDs []string) (map[string]float64, error) {
	args := m.Called(ctx, kind, entityIDs)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(map[string]float64), args.Error(1)
}

func (m *MockDescriptorRepo) EntityDescriptorScores(ctx context.Context, kind entities.EntityKind, entityIDs []string) (map[string][]entities.DescriptorScore, error) {
	args := m.Called(ctx, kind, entityIDs)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(map[string][]entities.DescriptorScore), args.Error(1)
}

func (m *MockDescriptorRepo) DescriptorScoresFor(ctx context.Context, kind entities.EntityKind, entityID string) ([]entities.DescriptorScore, error) {
	args := m.Called(ctx, kind, entityID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]entities.DescriptorScore), args.Error(1)
}

type MockSignalRepo struct {
	mock.Mock
}

func (m *MockSignalRepo) UpsertSignal(ctx context.Context, userID string, kind entities.EntityKind, entityID string, sig entities.SignalKind, qty int64) error {
	return m.Called(ctx, userID, kind, entityID, sig, qty).Error(0)
}

func (m *MockSignalRepo) BumpImpressions(ctx context.Context, userID string, kind entities.EntityKind, entityIDs []string) error {
	return m.Called(ctx, userID, kind, entityIDs).Error(0)
}

func (m *MockSignalRepo) SignalsForUser(ctx context.Context, userID string, kind entities.EntityKind, entityIDs []string) (map[string]*entities.UserSignal, error) {
	args := m.Called(ctx, userID, kind, entityIDs)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(map[string]*entities.UserSignal), args.Error(1)
}

func (m *MockSignalRepo) AddAffinity(ctx context.Context, userID string, deltas map[string]float64) error {
	return m.Called(ctx, userID, deltas).Error(0)
}

func (m *MockSignalRepo) AffinityProfile(ctx context.Context, userID string) (map[string]float64, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(map[string]float64), args.Error(1)
}

type MockSearchLogRepo struct {
	mock.Mock
}

func (m *MockSearchLogRepo) LogQuery(ctx context.Context, log *entities.SearchQueryLog) (string, error) {
	args := m.Called(ctx, log)
	return args.String(0), args.Error(1)
}

func (m *MockSearchLogRepo) SetResultsCount(ctx context.Context, id string, count int) error {
	return m.Called(ctx, id, count).Error(0)
}

func (m *MockSearchLogRepo) LogClick(ctx context.Context, click *entities.SearchClick) error {
	return m.Called(ctx, click).Error(0)
}

func (m *MockSearchLogRepo) ZeroResultQueries(ctx context.Context, kind entities.EntityKind, limit int) ([]*entities.SearchQueryLog, error) {
	args := m.Called(ctx, kind, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*entities.SearchQueryLog), args.Error(1)
}
