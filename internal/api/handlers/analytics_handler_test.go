package handlers_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
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
)

func newAnalyticsHandler(logs *MockSearchLogRepo) *handlers.AnalyticsHandler {
	tok := search.NewTokenizer(config.NewStaticRanking(config.DefaultRanking()))
	svc := services.NewSearchAnalyticsService(logs, map[entities.EntityKind]repositories.CatalogRepository{}, tok)
	return handlers.NewAnalyticsHandler(svc)
}

func TestAnalyticsHandler_ZeroResultQueries(t *testing.T) {
	logs := new(MockSearchLogRepo)
	handler := newAnalyticsHandler(logs)

	logs.On("ZeroResultQueries", mock.Anything, entities.EntityKindEvent, 10).
		Return([]*entities.SearchQueryLog{
			{ID: "log-1", Kind: entities.EntityKindEvent, Query: "torneo melee", ResultsCount: 0},
		}, nil)

	req := httptest.NewRequest(http.MethodGet, "/api/search/zero-results?kind=events&limit=10", nil)
	rr := httptest.NewRecorder()
	handler.ZeroResultQueries(rr, req)

	require.Equal(t, http.StatusOK, rr.Code)

	var resp struct {
		Queries []entities.SearchQueryLog `json:"queries"`
		Count   int                       `json:"count"`
	}
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	assert.Equal(t, 1, resp.Count)
	assert.Equal(t, "torneo melee", resp.Queries[0].Query)
}

func TestAnalyticsHandler_ZeroResultQueries_UnknownKind(t *testing.T) {
	logs := new(MockSearchLogRepo)
	handler := newAnalyticsHandler(logs)

	req := httptest.NewRequest(http.MethodGet, "/api/search/zero-results?kind=gadgets", nil)
	rr := httptest.NewRecorder()
	handler.ZeroResultQueries(rr, req)

	assert.Equal(t, http.StatusBadRequest, rr.Code)
	logs.AssertNotCalled(t, "ZeroResultQueries", mock.Anything, mock.Anything, mock.Anything)
}
