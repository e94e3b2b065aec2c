package services

import (
	"context"
	"sort"

	"github.com/retrovault/storefront-backend/internal/domain/repositories"
	"github.com/retrovault/storefront-backend/pkg/config"
)

// TrendingService ranks entities by public popularity counters, with an
// optional descriptor-richness multiplier as a topical tie-break.
type TrendingService struct {
	catalog     repositories.CatalogRepository
	descriptors repositories.DescriptorRepository
	cfg         *config.RankingLoader
}

func NewTrendingService(catalog repositories.CatalogRepository, descriptors repositories.DescriptorRepository, cfg *config.RankingLoader) *TrendingService {
	return &TrendingService{
		catalog:     catalog,
		descriptors: descriptors,
		cfg:         cfg,
	}
}

// List returns one page of trending entity IDs. Hydration happens at the
// transport layer and must preserve this order.
func (s *TrendingService) List(ctx context.Context, filter repositories.CatalogFilter, page, perPage int) (*RankedPage, error) {
	ranking := s.cfg.Ranking()
	page, perPage = normalizePage(page, perPage)

	candidates, err := s.catalog.TopByPopularity(ctx, filter,
		ranking.TrendingWeightPreferences, ranking.TrendingWeightSearches,
		ranking.CandidateLimit)
	if err != nil {
		return nil, err
	}
	if len(candidates) == 0 {
		return &RankedPage{IDs: []string{}, Total: 0, Page: page, PerPage: perPage}, nil
	}

	ids := make([]string, len(candidates))
	for i, c := range candidates {
		ids[i] = c.ID
	}

	sums := map[string]float64{}
	if ranking.TrendingDescriptorBeta > 0 {
		sums, err = s.descriptors.WeightedScoreSums(ctx, s.catalog.Kind(), ids)
		if err != nil {
			return nil, err
		}
	}

	scored := make([]scoredEntity, len(candidates))
	for i, c := range candidates {
		score := float64(c.PreferencesCount)*ranking.TrendingWeightPreferences +
			float64(c.SearchesCount)*ranking.TrendingWeightSearches
		if sum, ok := sums[c.ID]; ok {
			if sum > ranking.TrendingDescriptorCap {
				sum = ranking.TrendingDescriptorCap
			}
			score *= 1 + sum*ranking.TrendingDescriptorBeta
		}
		scored[i] = scoredEntity{id: c.ID, score: score}
	}

	sort.Slice(scored, func(i, j int) bool {
		if scored[i].score != scored[j].score {
			return scored[i].score > scored[j].score
		}
		return scored[i].id < scored[j].id
	})

	total := len(scored)
	return &RankedPage{
		IDs:     slicePage(scored, page, perPage),
		Total:   total,
		Page:    page,
		PerPage: perPage,
	}, nil
}
