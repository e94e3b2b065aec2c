package handlers_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/retrovault/storefront-backend/internal/adapters/search"
	"github.com/retrovault/storefront-backend/internal/api/handlers"
	"github.com/retrovault/storefront-backend/internal/application/services"
	"github.com/retrovault/storefront-backend/internal/domain/entities"
	"github.com/retrovault/storefront-backend/internal/domain/repositories"
	"github.com/retrovault/storefront-backend/pkg/config"
	apperrors "github.com/retrovault/storefront-backend/pkg/errors"
)

type MockCatalogRepo struct {
	mock.Mock
}

func (m *MockCatalogRepo) Kind() entities.EntityKind {
	return entities.EntityKindProduct
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

type MockProductRepo struct {
	mock.Mock
}

func (m *MockProductRepo) GetByID(ctx context.Context, id string) (*entities.Product, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.Product), args.Error(1)
}

func (m *MockProductRepo) ListByIDs(ctx context.Context, ids []string) ([]*entities.Product, error) {
	args := m.Called(ctx, ids)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*entities.Product), args.Error(1)
}

// handlerFixture wires a product catalog handler over mock repositories with
// the default ranking configuration.
type handlerFixture struct {
	catalog     *MockCatalogRepo
	signals     *MockSignalRepo
	descriptors *MockDescriptorRepo
	terms       *MockTermIndexRepo
	logs        *MockSearchLogRepo
	products    *MockProductRepo
	handler     *handlers.CatalogHandler
}

func newHandlerFixture() *handlerFixture {
	f := &handlerFixture{
		catalog:     new(MockCatalogRepo),
		signals:     new(MockSignalRepo),
		descriptors: new(MockDescriptorRepo),
		terms:       new(MockTermIndexRepo),
		logs:        new(MockSearchLogRepo),
		products:    new(MockProductRepo),
	}

	cfg := config.NewStaticRanking(config.DefaultRanking())
	tok := search.NewTokenizer(cfg)
	mapper := search.NewDescriptorMapper(cfg, tok)

	signalSvc := services.NewSignalService(f.signals, f.descriptors, tok, mapper, cfg)
	searchSvc := services.NewSearchService(f.catalog, f.terms, f.logs, signalSvc, tok, cfg)
	trendingSvc := services.NewTrendingService(f.catalog, f.descriptors, cfg)
	feedSvc := services.NewPersonalizationService(f.catalog, f.descriptors, f.signals, tok, cfg)
	analyticsSvc := services.NewSearchAnalyticsService(f.logs, map[entities.EntityKind]repositories.CatalogRepository{
		entities.EntityKindProduct: f.catalog,
	}, tok)

	f.handler = handlers.NewCatalogHandler(
		entities.EntityKindProduct,
		searchSvc,
		trendingSvc,
		feedSvc,
		signalSvc,
		analyticsSvc,
		func(r *http.Request) (interface{}, error) {
			return f.products.GetByID(r.Context(), r.PathValue("id"))
		},
		handlers.NewProductHydrator(f.products),
	)
	return f
}

type rankedResponse struct {
	Items   []entities.Product `json:"items"`
	Total   int                `json:"total"`
	Page    int                `json:"page"`
	PerPage int                `json:"per_page"`
}

func TestCatalogHandler_Search_EmptyQueryReturnsEmptyPage(t *testing.T) {
	f := newHandlerFixture()
	f.logs.On("LogQuery", mock.Anything, mock.Anything).Return("log-1", nil)

	req := httptest.NewRequest(http.MethodGet, "/api/products/search?q=%20%20", nil)
	rr := httptest.NewRecorder()
	f.handler.Search(rr, req)

	assert.Equal(t, http.StatusOK, rr.Code)

	var resp rankedResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	assert.Empty(t, resp.Items)
	assert.Equal(t, 0, resp.Total)
	assert.Equal(t, 1, resp.Page)

	// The blank query is still logged; nothing else runs.
	f.logs.AssertCalled(t, "LogQuery", mock.Anything, mock.Anything)
	f.terms.AssertNotCalled(t, "MatchingTerms", mock.Anything, mock.Anything, mock.Anything)
}

func TestCatalogHandler_Trending_HydratesInRankOrder(t *testing.T) {
	f := newHandlerFixture()

	candidates := []repositories.Candidate{
		{ID: "p2", Primary: "SNES Classic", PreferencesCount: 10, SearchesCount: 5},
		{ID: "p1", Primary: "Game Boy", PreferencesCount: 3, SearchesCount: 2},
	}
	f.catalog.On("TopByPopularity", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything).
		Return(candidates, nil)
	f.descriptors.On("WeightedScoreSums", mock.Anything, entities.EntityKindProduct, mock.Anything).
		Return(map[string]float64{}, nil)
	f.products.On("ListByIDs", mock.Anything, []string{"p2", "p1"}).Return([]*entities.Product{
		{ID: "p1", Name: "Game Boy"},
		{ID: "p2", Name: "SNES Classic"},
	}, nil)

	req := httptest.NewRequest(http.MethodGet, "/api/products/trending", nil)
	rr := httptest.NewRecorder()
	f.handler.Trending(rr, req)

	require.Equal(t, http.StatusOK, rr.Code)

	var resp rankedResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	require.Len(t, resp.Items, 2)
	assert.Equal(t, "p2", resp.Items[0].ID)
	assert.Equal(t, "p1", resp.Items[1].ID)
	assert.Equal(t, 2, resp.Total)
}

func TestCatalogHandler_Feed_RequiresUser(t *testing.T) {
	f := newHandlerFixture()

	req := httptest.NewRequest(http.MethodGet, "/api/products/feed", nil)
	rr := httptest.NewRecorder()
	f.handler.Feed(rr, req)

	assert.Equal(t, http.StatusUnauthorized, rr.Code)
}

func TestCatalogHandler_Get_NotFound(t *testing.T) {
	f := newHandlerFixture()
	f.products.On("GetByID", mock.Anything, "missing").
		Return(nil, apperrors.NewNotFoundError("product not found"))

	req := httptest.NewRequest(http.MethodGet, "/api/products/missing", nil)
	req.SetPathValue("id", "missing")
	rr := httptest.NewRecorder()
	f.handler.Get(rr, req)

	assert.Equal(t, http.StatusNotFound, rr.Code)
}

func TestCatalogHandler_RecordSignal_RequiresUser(t *testing.T) {
	f := newHandlerFixture()

	req := httptest.NewRequest(http.MethodPost, "/api/products/p1/signals", strings.NewReader(`{"kind":"view"}`))
	req.SetPathValue("id", "p1")
	rr := httptest.NewRecorder()
	f.handler.RecordSignal(rr, req)

	assert.Equal(t, http.StatusUnauthorized, rr.Code)
	f.signals.AssertNotCalled(t, "UpsertSignal", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestCatalogHandler_RecordSignal_UnknownKindRejected(t *testing.T) {
	f := newHandlerFixture()

	req := httptest.NewRequest(http.MethodPost, "/api/products/p1/signals", strings.NewReader(`{"kind":"stare"}`))
	req.Header.Set("X-User-ID", "u1")
	req.SetPathValue("id", "p1")
	rr := httptest.NewRecorder()
	f.handler.RecordSignal(rr, req)

	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestCatalogHandler_RecordSignal_Success(t *testing.T) {
	f := newHandlerFixture()
	f.signals.On("UpsertSignal", mock.Anything, "u1", entities.EntityKindProduct, "p1", entities.SignalView, int64(1)).
		Return(nil)
	f.descriptors.On("DescriptorScoresFor", mock.Anything, entities.EntityKindProduct, "p1").
		Return([]entities.DescriptorScore{}, nil)

	req := httptest.NewRequest(http.MethodPost, "/api/products/p1/signals", strings.NewReader(`{"kind":"view","qty":1}`))
	req.Header.Set("X-User-ID", "u1")
	req.SetPathValue("id", "p1")
	rr := httptest.NewRecorder()
	f.handler.RecordSignal(rr, req)

	assert.Equal(t, http.StatusNoContent, rr.Code)
	f.signals.AssertExpectations(t)
}

func TestCatalogHandler_Impressions_Success(t *testing.T) {
	f := newHandlerFixture()
	f.signals.On("BumpImpressions", mock.Anything, "u1", entities.EntityKindProduct, []string{"p1", "p2"}).
		Return(nil)

	req := httptest.NewRequest(http.MethodPost, "/api/products/impressions", strings.NewReader(`{"entity_ids":["p1","p2"]}`))
	req.Header.Set("X-User-ID", "u1")
	rr := httptest.NewRecorder()
	f.handler.Impressions(rr, req)

	assert.Equal(t, http.StatusNoContent, rr.Code)
	f.signals.AssertExpectations(t)
}

func TestCatalogHandler_Click_AlwaysNoContent(t *testing.T) {
	f := newHandlerFixture()
	// The click is processed asynchronously; the beacon response never waits.
	f.logs.On("LogClick", mock.Anything, mock.Anything).Return(nil).Maybe()
	f.catalog.On("IncrementClicks", mock.Anything, "p1").Return(nil).Maybe()

	req := httptest.NewRequest(http.MethodPost, "/api/products/p1/click", strings.NewReader(`{not json`))
	req.SetPathValue("id", "p1")
	rr := httptest.NewRecorder()
	f.handler.Click(rr, req)

	assert.Equal(t, http.StatusNoContent, rr.Code)
}
