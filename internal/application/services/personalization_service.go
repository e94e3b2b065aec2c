package services

import (
	"context"
	"sort"
	"strings"

	"github.com/retrovault/storefront-backend/internal/adapters/search"
	"github.com/retrovault/storefront-backend/internal/domain/entities"
	"github.com/retrovault/storefront-backend/internal/domain/repositories"
	"github.com/retrovault/storefront-backend/pkg/config"
)

// PersonalizationService blends public popularity with one user's behavioral
// and descriptor-affinity signals to produce a personalized feed.
type PersonalizationService struct {
	catalog     repositories.CatalogRepository
	descriptors repositories.DescriptorRepository
	signals     repositories.SignalRepository
	tok         *search.Tokenizer
	cfg         *config.RankingLoader
}

func NewPersonalizationService(catalog repositories.CatalogRepository, descriptors repositories.DescriptorRepository, signals repositories.SignalRepository, tok *search.Tokenizer, cfg *config.RankingLoader) *PersonalizationService {
	return &PersonalizationService{
		catalog:     catalog,
		descriptors: descriptors,
		signals:     signals,
		tok:         tok,
		cfg:         cfg,
	}
}

type feedEntry struct {
	scoredEntity
	coreOverlap int
}

// ListForUser returns one page of personalized entity IDs. Entities sharing
// any of the user's core descriptors always rank ahead of entities sharing
// none, whatever the raw scores say.
func (s *PersonalizationService) ListForUser(ctx context.Context, userID string, filter repositories.CatalogFilter, page, perPage int) (*RankedPage, error) {
	ranking := s.cfg.Ranking()
	kind := s.catalog.Kind()
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

	userSignals, err := s.signals.SignalsForUser(ctx, userID, kind, ids)
	if err != nil {
		return nil, err
	}
	profile, err := s.signals.AffinityProfile(ctx, userID)
	if err != nil {
		return nil, err
	}
	entityScores, err := s.descriptors.EntityDescriptorScores(ctx, kind, ids)
	if err != nil {
		return nil, err
	}

	core := coreDescriptors(profile, ranking.CoreTopK, ranking.CoreMinScore)

	entries := make([]feedEntry, len(candidates))
	for i, c := range candidates {
		score := float64(c.PreferencesCount)*ranking.TrendingWeightPreferences +
			float64(c.SearchesCount)*ranking.TrendingWeightSearches

		score *= s.behavioralBoost(userSignals[c.ID], ranking)
		score *= s.descriptorBoost(entityScores[c.ID], profile, ranking)

		overlap := coreOverlapCount(entityScores[c.ID], core)
		if overlap > 0 {
			boost := float64(overlap)
			if boost > ranking.CoreCap {
				boost = ranking.CoreCap
			}
			score *= 1 + boost*ranking.CoreGamma
			if s.nameHit(c.Primary, entityScores[c.ID], core) {
				score *= ranking.CoreNameHitBoost
			}
		}

		entries[i] = feedEntry{
			scoredEntity: scoredEntity{id: c.ID, score: score},
			coreOverlap:  overlap,
		}
	}

	// Two-tier ordering: the core partition first, then everything else.
	sort.Slice(entries, func(i, j int) bool {
		iCore := entries[i].coreOverlap > 0
		jCore := entries[j].coreOverlap > 0
		if iCore != jCore {
			return iCore
		}
		if entries[i].score != entries[j].score {
			return entries[i].score > entries[j].score
		}
		return entries[i].id < entries[j].id
	})

	scored := make([]scoredEntity, len(entries))
	for i, e := range entries {
		scored[i] = e.scoredEntity
	}

	total := len(scored)
	return &RankedPage{
		IDs:     slicePage(scored, page, perPage),
		Total:   total,
		Page:    page,
		PerPage: perPage,
	}, nil
}

func (s *PersonalizationService) behavioralBoost(sig *entities.UserSignal, ranking *config.Ranking) float64 {
	if sig == nil {
		return 1
	}
	affinity := float64(sig.Views)*ranking.BehaviorViewWeight +
		float64(sig.Adds)*ranking.BehaviorAddWeight +
		float64(sig.Purchases)*ranking.BehaviorPurchaseWeight
	if affinity > ranking.BehaviorCap {
		affinity = ranking.BehaviorCap
	}
	return 1 + affinity*ranking.BehaviorBeta
}

func (s *PersonalizationService) descriptorBoost(scores []entities.DescriptorScore, profile map[string]float64, ranking *config.Ranking) float64 {
	if len(scores) == 0 || len(profile) == 0 {
		return 1
	}
	similarity := 0.0
	for _, ds := range scores {
		if user, ok := profile[ds.Key]; ok {
			similarity += ds.Score * user
		}
	}
	if similarity > ranking.DescriptorCap {
		similarity = ranking.DescriptorCap
	}
	return 1 + similarity*ranking.DescriptorLambda
}

// nameHit reports whether any overlapping core descriptor key appears in the
// entity's primary field.
func (s *PersonalizationService) nameHit(primary string, scores []entities.DescriptorScore, core map[string]bool) bool {
	folded := s.tok.ASCII(primary)
	for _, ds := range scores {
		if core[ds.Key] && strings.Contains(folded, ds.Key) {
			return true
		}
	}
	return false
}

// coreDescriptors picks the user's top-K affinity keys at or above the
// minimum score. Ties break on key for determinism.
func coreDescriptors(profile map[string]float64, topK int, minScore float64) map[string]bool {
	type kv struct {
		key   string
		score float64
	}
	eligible := make([]kv, 0, len(profile))
	for key, score := range profile {
		if score >= minScore {
			eligible = append(eligible, kv{key, score})
		}
	}
	sort.Slice(eligible, func(i, j int) bool {
		if eligible[i].score != eligible[j].score {
			return eligible[i].score > eligible[j].score
		}
		return eligible[i].key < eligible[j].key
	})
	if len(eligible) > topK {
		eligible = eligible[:topK]
	}

	core := make(map[string]bool, len(eligible))
	for _, e := range eligible {
		core[e.key] = true
	}
	return core
}

func coreOverlapCount(scores []entities.DescriptorScore, core map[string]bool) int {
	overlap := 0
	for _, ds := range scores {
		if core[ds.Key] {
			overlap++
		}
	}
	return overlap
}
