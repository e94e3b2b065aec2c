package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/retrovault/storefront-backend/internal/adapters/search"
	"github.com/retrovault/storefront-backend/internal/domain/entities"
	"github.com/retrovault/storefront-backend/internal/domain/repositories"
	"github.com/retrovault/storefront-backend/pkg/config"
)

func TestSearchAnalyticsService_TrackClick(t *testing.T) {
	logRepo := new(MockSearchLogRepo)
	catalog := NewMockCatalogRepo(entities.EntityKindProduct)
	tok := search.NewTokenizer(config.NewStaticRanking(config.DefaultRanking()))
	svc := NewSearchAnalyticsService(logRepo,
		map[entities.EntityKind]repositories.CatalogRepository{entities.EntityKindProduct: catalog}, tok)

	logged := make(chan *entities.SearchClick, 1)
	logRepo.On("LogClick", mock.Anything, mock.Anything).
		Run(func(args mock.Arguments) {
			logged <- args.Get(1).(*entities.SearchClick)
		}).
		Return(nil)

	counted := make(chan string, 1)
	catalog.On("IncrementClicks", mock.Anything, "p7").
		Run(func(args mock.Arguments) {
			counted <- args.String(1)
		}).
		Return(nil)

	svc.TrackClick(entities.EntityKindProduct, "p7", "Mario Bros", "search_results")

	select {
	case click := <-logged:
		assert.Equal(t, "p7", click.EntityID)
		assert.Equal(t, []string{"mario", "bros"}, click.Terms)
		assert.Equal(t, "search_results", click.Source)
	case <-time.After(2 * time.Second):
		t.Fatal("click was never logged")
	}

	select {
	case id := <-counted:
		assert.Equal(t, "p7", id)
	case <-time.After(2 * time.Second):
		t.Fatal("click counter was never incremented")
	}
}

func TestSearchAnalyticsService_ZeroResultQueries(t *testing.T) {
	logRepo := new(MockSearchLogRepo)
	tok := search.NewTokenizer(config.NewStaticRanking(config.DefaultRanking()))
	svc := NewSearchAnalyticsService(logRepo, nil, tok)

	logRepo.On("ZeroResultQueries", mock.Anything, entities.EntityKindEvent, 50).
		Return([]*entities.SearchQueryLog{{Query: "chrono trigger vinyl"}}, nil)

	// Out-of-range limits clamp to the default.
	logs, err := svc.ZeroResultQueries(context.Background(), entities.EntityKindEvent, -1)
	require.NoError(t, err)
	require.Len(t, logs, 1)
	assert.Equal(t, "chrono trigger vinyl", logs[0].Query)
}
