package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/retrovault/storefront-backend/internal/adapters/search"
	"github.com/retrovault/storefront-backend/internal/domain/entities"
	"github.com/retrovault/storefront-backend/internal/domain/repositories"
	"github.com/retrovault/storefront-backend/pkg/config"
)

type searchFixture struct {
	catalog  *MockCatalogRepo
	termRepo *MockTermIndexRepo
	logRepo  *MockSearchLogRepo
	signals  *MockSignalRepo
	descs    *MockDescriptorRepo
	svc      *SearchService
}

func newSearchFixture(kind entities.EntityKind) *searchFixture {
	cfg := config.NewStaticRanking(config.DefaultRanking())
	tok := search.NewTokenizer(cfg)
	mapper := search.NewDescriptorMapper(cfg, tok)

	f := &searchFixture{
		catalog:  NewMockCatalogRepo(kind),
		termRepo: new(MockTermIndexRepo),
		logRepo:  new(MockSearchLogRepo),
		signals:  new(MockSignalRepo),
		descs:    new(MockDescriptorRepo),
	}
	signalSvc := NewSignalService(f.signals, f.descs, tok, mapper, cfg)
	f.svc = NewSearchService(f.catalog, f.termRepo, f.logRepo, signalSvc, tok, cfg)
	return f
}

func TestSearchService_EmptyQuery(t *testing.T) {
	for _, query := range []string{"", "   ", "¡¿!?"} {
		t.Run("query="+query, func(t *testing.T) {
			f := newSearchFixture(entities.EntityKindProduct)
			f.logRepo.On("LogQuery", mock.Anything, mock.Anything).Return("log-1", nil)

			page, err := f.svc.Search(context.Background(), "", query, repositories.CatalogFilter{}, 1, 20)
			require.NoError(t, err)
			assert.Equal(t, 0, page.Total)
			assert.Empty(t, page.IDs)

			// Exactly one query log row, nothing else touched.
			f.logRepo.AssertNumberOfCalls(t, "LogQuery", 1)
			f.termRepo.AssertNotCalled(t, "BumpSearchStats", mock.Anything, mock.Anything, mock.Anything)
			f.catalog.AssertNotCalled(t, "FullTextCandidates", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
		})
	}
}

func TestSearchService_MarioScenario(t *testing.T) {
	f := newSearchFixture(entities.EntityKindProduct)

	cartucho := repositories.Candidate{
		ID:          "p7",
		Primary:     "Cartucho Mario Bros (NES)",
		Identifier:  "MB-NES-01",
		Description: "Cartucho original para NES",
	}

	f.logRepo.On("LogQuery", mock.Anything, mock.MatchedBy(func(l *entities.SearchQueryLog) bool {
		return l.Query == "mario" && len(l.Terms) == 1 && l.Terms[0] == "mario"
	})).Return("log-1", nil)
	f.termRepo.On("BumpSearchStats", mock.Anything, entities.EntityKindProduct, []string{"mario"}).Return(nil)
	f.termRepo.On("MatchingTerms", mock.Anything, entities.EntityKindProduct, []string{"mario"}).
		Return([]*entities.Term{{ID: 7, Term: "mario"}}, nil)
	f.catalog.On("FullTextCandidates", mock.Anything, []string{"mario"}, repositories.MatchAll, mock.Anything, 300).
		Return([]repositories.Candidate{cartucho}, nil)
	f.catalog.On("FullTextCandidates", mock.Anything, []string{"mario"}, repositories.MatchAny, mock.Anything, 300).
		Return([]repositories.Candidate{}, nil)
	f.catalog.On("IdentifierCandidates", mock.Anything, []string{"mario"}, mock.Anything, 300).
		Return([]repositories.Candidate{}, nil)
	f.termRepo.On("EntityTermHits", mock.Anything, entities.EntityKindProduct, []string{"p7"}, []int64{7}).
		Return([]entities.TermHit{{EntityID: "p7", TermID: 7, Term: "mario", InPrimary: 1}}, nil)
	f.catalog.On("IncrementSearches", mock.Anything, []string{"p7"}).Return(nil)
	f.logRepo.On("SetResultsCount", mock.Anything, "log-1", 1).Return(nil)

	page, err := f.svc.Search(context.Background(), "", "mario", repositories.CatalogFilter{}, 1, 20)
	require.NoError(t, err)
	assert.Equal(t, 1, page.Total)
	assert.Equal(t, []string{"p7"}, page.IDs)

	f.termRepo.AssertExpectations(t)
	f.logRepo.AssertExpectations(t)
	f.catalog.AssertExpectations(t)
}

func TestSearchService_AllTermsBonusOutranksPartialMatch(t *testing.T) {
	f := newSearchFixture(entities.EntityKindEvent)

	full := repositories.Candidate{ID: "e1", Primary: "Noche Mario Kart"}
	partial := repositories.Candidate{ID: "e2", Primary: "Mario Party Marathon"}

	f.logRepo.On("LogQuery", mock.Anything, mock.Anything).Return("log-1", nil)
	f.termRepo.On("BumpSearchStats", mock.Anything, mock.Anything, mock.Anything).Return(nil)
	f.termRepo.On("MatchingTerms", mock.Anything, entities.EntityKindEvent, []string{"mario", "kart"}).
		Return([]*entities.Term{{ID: 1, Term: "mario"}, {ID: 2, Term: "kart"}}, nil)
	f.catalog.On("FullTextCandidates", mock.Anything, mock.Anything, repositories.MatchAll, mock.Anything, 300).
		Return([]repositories.Candidate{full}, nil)
	f.catalog.On("FullTextCandidates", mock.Anything, mock.Anything, repositories.MatchAny, mock.Anything, 300).
		Return([]repositories.Candidate{partial}, nil)
	f.termRepo.On("EntityTermHits", mock.Anything, entities.EntityKindEvent, []string{"e1", "e2"}, mock.Anything).
		Return([]entities.TermHit{
			{EntityID: "e1", TermID: 1, Term: "mario", InPrimary: 1},
			{EntityID: "e1", TermID: 2, Term: "kart", InPrimary: 1},
			// Partial match with a larger raw hit count for the one term.
			{EntityID: "e2", TermID: 1, Term: "mario", InPrimary: 2},
		}, nil)
	f.catalog.On("IncrementSearches", mock.Anything, mock.Anything).Return(nil)
	f.logRepo.On("SetResultsCount", mock.Anything, "log-1", 2).Return(nil)

	page, err := f.svc.Search(context.Background(), "", "mario kart", repositories.CatalogFilter{}, 1, 20)
	require.NoError(t, err)
	require.Equal(t, []string{"e1", "e2"}, page.IDs,
		"the entity matching every query term must rank strictly higher")
}

func TestSearchService_TieBreaksOnEntityID(t *testing.T) {
	f := newSearchFixture(entities.EntityKindProduct)

	a := repositories.Candidate{ID: "p2", Primary: "Game Boy Color"}
	b := repositories.Candidate{ID: "p1", Primary: "Game Boy Pocket"}

	f.logRepo.On("LogQuery", mock.Anything, mock.Anything).Return("log-1", nil)
	f.termRepo.On("BumpSearchStats", mock.Anything, mock.Anything, mock.Anything).Return(nil)
	f.termRepo.On("MatchingTerms", mock.Anything, mock.Anything, mock.Anything).
		Return([]*entities.Term{{ID: 1, Term: "game"}}, nil)
	f.catalog.On("FullTextCandidates", mock.Anything, mock.Anything, repositories.MatchAll, mock.Anything, 300).
		Return([]repositories.Candidate{a, b}, nil)
	f.catalog.On("FullTextCandidates", mock.Anything, mock.Anything, repositories.MatchAny, mock.Anything, 300).
		Return([]repositories.Candidate{}, nil)
	f.catalog.On("IdentifierCandidates", mock.Anything, mock.Anything, mock.Anything, 300).
		Return([]repositories.Candidate{}, nil)
	f.termRepo.On("EntityTermHits", mock.Anything, mock.Anything, mock.Anything, mock.Anything).
		Return([]entities.TermHit{
			{EntityID: "p2", TermID: 1, Term: "game", InPrimary: 1},
			{EntityID: "p1", TermID: 1, Term: "game", InPrimary: 1},
		}, nil)
	f.catalog.On("IncrementSearches", mock.Anything, mock.Anything).Return(nil)
	f.logRepo.On("SetResultsCount", mock.Anything, mock.Anything, mock.Anything).Return(nil)

	page, err := f.svc.Search(context.Background(), "", "game", repositories.CatalogFilter{}, 1, 20)
	require.NoError(t, err)
	assert.Equal(t, []string{"p1", "p2"}, page.IDs)
}

func TestSearchService_TermJoinFallback(t *testing.T) {
	f := newSearchFixture(entities.EntityKindProduct)

	f.logRepo.On("LogQuery", mock.Anything, mock.Anything).Return("log-1", nil)
	f.termRepo.On("BumpSearchStats", mock.Anything, mock.Anything, mock.Anything).Return(nil)
	f.termRepo.On("MatchingTerms", mock.Anything, mock.Anything, mock.Anything).
		Return([]*entities.Term{{ID: 9, Term: "famicom"}}, nil)
	f.catalog.On("FullTextCandidates", mock.Anything, mock.Anything, mock.Anything, mock.Anything, 300).
		Return([]repositories.Candidate{}, nil)
	f.catalog.On("IdentifierCandidates", mock.Anything, mock.Anything, mock.Anything, 300).
		Return([]repositories.Candidate{}, nil)
	f.catalog.On("TermJoinCandidates", mock.Anything, []int64{9}, mock.Anything, 300).
		Return([]repositories.Candidate{{ID: "p4", Primary: "Famicom AV"}}, nil)
	f.termRepo.On("EntityTermHits", mock.Anything, mock.Anything, []string{"p4"}, []int64{9}).
		Return([]entities.TermHit{{EntityID: "p4", TermID: 9, Term: "famicom", InPrimary: 1}}, nil)
	f.catalog.On("IncrementSearches", mock.Anything, []string{"p4"}).Return(nil)
	f.logRepo.On("SetResultsCount", mock.Anything, "log-1", 1).Return(nil)

	page, err := f.svc.Search(context.Background(), "", "famicom", repositories.CatalogFilter{}, 1, 20)
	require.NoError(t, err)
	assert.Equal(t, []string{"p4"}, page.IDs)
	f.catalog.AssertCalled(t, "TermJoinCandidates", mock.Anything, []int64{9}, mock.Anything, 300)
}

func TestSearchService_AuthenticatedCallerRecordsSignals(t *testing.T) {
	f := newSearchFixture(entities.EntityKindProduct)

	f.logRepo.On("LogQuery", mock.Anything, mock.Anything).Return("log-1", nil)
	f.termRepo.On("BumpSearchStats", mock.Anything, mock.Anything, mock.Anything).Return(nil)
	f.termRepo.On("MatchingTerms", mock.Anything, mock.Anything, mock.Anything).
		Return([]*entities.Term{{ID: 1, Term: "zelda"}}, nil)
	f.catalog.On("FullTextCandidates", mock.Anything, mock.Anything, repositories.MatchAll, mock.Anything, 300).
		Return([]repositories.Candidate{{ID: "p3", Primary: "Zelda II"}}, nil)
	f.catalog.On("FullTextCandidates", mock.Anything, mock.Anything, repositories.MatchAny, mock.Anything, 300).
		Return([]repositories.Candidate{}, nil)
	f.catalog.On("IdentifierCandidates", mock.Anything, mock.Anything, mock.Anything, 300).
		Return([]repositories.Candidate{}, nil)
	f.termRepo.On("EntityTermHits", mock.Anything, mock.Anything, mock.Anything, mock.Anything).
		Return([]entities.TermHit{{EntityID: "p3", TermID: 1, Term: "zelda", InPrimary: 1}}, nil)
	f.catalog.On("IncrementSearches", mock.Anything, []string{"p3"}).Return(nil)
	f.logRepo.On("SetResultsCount", mock.Anything, "log-1", 1).Return(nil)

	f.signals.On("BumpImpressions", mock.Anything, "u42", entities.EntityKindProduct, []string{"p3"}).Return(nil)
	f.signals.On("AddAffinity", mock.Anything, "u42", map[string]float64{"zelda": 0.25}).Return(nil)

	_, err := f.svc.Search(context.Background(), "u42", "zelda", repositories.CatalogFilter{}, 1, 20)
	require.NoError(t, err)
	f.signals.AssertExpectations(t)
}
