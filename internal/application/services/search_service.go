package services

import (
	"context"
	"sort"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/retrovault/storefront-backend/internal/adapters/search"
	"github.com/retrovault/storefront-backend/internal/domain/entities"
	"github.com/retrovault/storefront-backend/internal/domain/repositories"
	"github.com/retrovault/storefront-backend/internal/infrastructure/observability"
	"github.com/retrovault/storefront-backend/pkg/config"
)

// RankedPage is one page of ranked entity IDs plus the total match count.
// Hydration to full records happens at the transport layer, preserving order.
type RankedPage struct {
	IDs     []string `json:"ids"`
	Total   int      `json:"total"`
	Page    int      `json:"page"`
	PerPage int      `json:"per_page"`
}

type scoredEntity struct {
	id    string
	score float64
}

// SearchService runs the ranked-retrieval pipeline for one entity kind.
type SearchService struct {
	catalog   repositories.CatalogRepository
	termRepo  repositories.TermIndexRepository
	logRepo   repositories.SearchLogRepository
	signalSvc *SignalService
	tok       *search.Tokenizer
	cfg       *config.RankingLoader
}

func NewSearchService(catalog repositories.CatalogRepository, termRepo repositories.TermIndexRepository, logRepo repositories.SearchLogRepository, signalSvc *SignalService, tok *search.Tokenizer, cfg *config.RankingLoader) *SearchService {
	return &SearchService{
		catalog:   catalog,
		termRepo:  termRepo,
		logRepo:   logRepo,
		signalSvc: signalSvc,
		tok:       tok,
		cfg:       cfg,
	}
}

// Search tokenizes the query, retrieves candidates, scores them and returns
// the requested page of entity IDs. userID may be empty for anonymous
// callers; when present, impressions and query-term affinity are recorded.
func (s *SearchService) Search(ctx context.Context, userID, query string, filter repositories.CatalogFilter, page, perPage int) (*RankedPage, error) {
	start := time.Now()
	kind := s.catalog.Kind()
	ranking := s.cfg.Ranking()
	kr := ranking.ForKind(string(kind))
	page, perPage = normalizePage(page, perPage)

	terms := s.tok.Terms(query)

	logID, err := s.logRepo.LogQuery(ctx, &entities.SearchQueryLog{
		Kind:  kind,
		Query: query,
		Terms: terms,
	})
	if err != nil {
		log.Warn().Err(err).Str("entity_type", string(kind)).Msg("failed to log search query")
	}

	// An empty term list is a defined empty-result case, not an error.
	if len(terms) == 0 {
		return &RankedPage{IDs: []string{}, Total: 0, Page: page, PerPage: perPage}, nil
	}

	// Global query-popularity feedback, independent of whether anything
	// matches below.
	if err := s.termRepo.BumpSearchStats(ctx, kind, terms); err != nil {
		return nil, err
	}

	matched, err := s.termRepo.MatchingTerms(ctx, kind, terms)
	if err != nil {
		return nil, err
	}

	candidates, err := s.retrieveCandidates(ctx, terms, matched, filter, kr, ranking.CandidateLimit)
	if err != nil {
		return nil, err
	}

	scored, err := s.scoreCandidates(ctx, kind, terms, matched, candidates, ranking, kr)
	if err != nil {
		return nil, err
	}

	sort.Slice(scored, func(i, j int) bool {
		if scored[i].score != scored[j].score {
			return scored[i].score > scored[j].score
		}
		return scored[i].id < scored[j].id
	})

	total := len(scored)
	pageIDs := slicePage(scored, page, perPage)

	s.recordSideEffects(ctx, userID, query, logID, total, pageIDs)

	observability.RecordSearchMetric(ctx, string(kind), total, time.Since(start))
	return &RankedPage{IDs: pageIDs, Total: total, Page: page, PerPage: perPage}, nil
}

// retrieveCandidates walks the retrieval cascade: boolean AND, then OR, then
// the identifier-only pass where enabled, then the term-index join fallback
// if full-text matching produced nothing at all.
func (s *SearchService) retrieveCandidates(ctx context.Context, terms []string, matched []*entities.Term, filter repositories.CatalogFilter, kr config.KindRanking, limit int) ([]repositories.Candidate, error) {
	var out []repositories.Candidate
	seen := make(map[string]bool)

	merge := func(batch []repositories.Candidate) {
		for _, c := range batch {
			if len(out) >= limit {
				return
			}
			if seen[c.ID] {
				continue
			}
			seen[c.ID] = true
			out = append(out, c)
		}
	}

	andPass, err := s.catalog.FullTextCandidates(ctx, terms, repositories.MatchAll, filter, limit)
	if err != nil {
		return nil, err
	}
	merge(andPass)

	if len(out) < limit {
		orPass, err := s.catalog.FullTextCandidates(ctx, terms, repositories.MatchAny, filter, limit)
		if err != nil {
			return nil, err
		}
		merge(orPass)
	}

	if kr.IdentifierPass && len(out) < limit {
		idPass, err := s.catalog.IdentifierCandidates(ctx, terms, filter, limit)
		if err != nil {
			return nil, err
		}
		merge(idPass)
	}

	if len(out) == 0 && len(matched) > 0 {
		termIDs := make([]int64, len(matched))
		for i, t := range matched {
			termIDs[i] = t.ID
		}
		joinPass, err := s.catalog.TermJoinCandidates(ctx, termIDs, filter, limit)
		if err != nil {
			return nil, err
		}
		merge(joinPass)
	}

	return out, nil
}

// scoreCandidates computes final scores from one aggregate hit fetch plus the
// post-aggregation bonuses.
func (s *SearchService) scoreCandidates(ctx context.Context, kind entities.EntityKind, terms []string, matched []*entities.Term, candidates []repositories.Candidate, ranking *config.Ranking, kr config.KindRanking) ([]scoredEntity, error) {
	if len(candidates) == 0 {
		return nil, nil
	}

	candidateIDs := make([]string, len(candidates))
	byID := make(map[string]*repositories.Candidate, len(candidates))
	for i := range candidates {
		candidateIDs[i] = candidates[i].ID
		byID[candidates[i].ID] = &candidates[i]
	}

	termIDs := make([]int64, len(matched))
	for i, t := range matched {
		termIDs[i] = t.ID
	}

	hits, err := s.termRepo.EntityTermHits(ctx, kind, candidateIDs, termIDs)
	if err != nil {
		return nil, err
	}

	leadTerm := terms[0]
	scores := make(map[string]float64, len(candidates))
	matchedTerms := make(map[string]map[string]bool, len(candidates))

	for _, h := range hits {
		c := byID[h.EntityID]
		if c == nil {
			continue
		}

		base := float64(h.InPrimary)*kr.FieldBoosts.Primary +
			float64(h.InIdentifier)*kr.FieldBoosts.Identifier +
			float64(h.InDescription)*kr.FieldBoosts.Description
		if base == 0 {
			continue
		}

		score := base * (1 + float64(h.SearchWeight)*ranking.PopularityAlpha)
		if h.Term == leadTerm && h.InPrimary > 0 {
			score *= kr.LeadTermBoost
		}
		clicks := c.ClicksCount
		if clicks > ranking.ClickCap {
			clicks = ranking.ClickCap
		}
		score *= 1 + float64(clicks)*ranking.ClickBeta

		scores[h.EntityID] += score
		if matchedTerms[h.EntityID] == nil {
			matchedTerms[h.EntityID] = make(map[string]bool)
		}
		matchedTerms[h.EntityID][h.Term] = true
	}

	phrase := s.tok.Phrase(terms)
	scored := make([]scoredEntity, 0, len(candidates))
	for _, c := range candidates {
		score := scores[c.ID]

		if len(matchedTerms[c.ID]) == len(terms) {
			score += kr.AllTermsBonus
		}

		if phrase != "" {
			if strings.Contains(s.tok.ASCII(c.Primary), phrase) {
				score += kr.PhrasePrimaryBonus
			}
			if strings.Contains(s.tok.ASCII(c.Description), phrase) {
				score += kr.PhraseDescriptionBonus
			}
		}

		if kr.IdentifierTermBonus > 0 && c.Identifier != "" {
			identifier := s.tok.ASCII(c.Identifier)
			for _, term := range terms {
				if strings.Contains(identifier, term) {
					score += kr.IdentifierTermBonus
				}
			}
		}

		scored = append(scored, scoredEntity{id: c.ID, score: score})
	}

	return scored, nil
}

// recordSideEffects applies the per-request write-backs. All of them are
// best-effort: the ranked page is already computed and a telemetry failure
// must not fail the request.
func (s *SearchService) recordSideEffects(ctx context.Context, userID, query, logID string, total int, pageIDs []string) {
	kind := s.catalog.Kind()

	if len(pageIDs) > 0 {
		if err := s.catalog.IncrementSearches(ctx, pageIDs); err != nil {
			log.Warn().Err(err).Str("entity_type", string(kind)).Msg("failed to increment search counters")
		}
	}

	if logID != "" {
		if err := s.logRepo.SetResultsCount(ctx, logID, total); err != nil {
			log.Warn().Err(err).Str("query_log_id", logID).Msg("failed to backfill results count")
		}
	}

	if userID == "" {
		return
	}
	if len(pageIDs) > 0 {
		if err := s.signalSvc.Impression(ctx, userID, kind, pageIDs); err != nil {
			log.Warn().Err(err).Str("user_id", userID).Msg("failed to record impressions")
		}
	}
	if err := s.signalSvc.RecordSearchQuery(ctx, userID, query); err != nil {
		log.Warn().Err(err).Str("user_id", userID).Msg("failed to record query affinity")
	}
}

func normalizePage(page, perPage int) (int, int) {
	if page < 1 {
		page = 1
	}
	if perPage < 1 || perPage > 100 {
		perPage = 20
	}
	return page, perPage
}

func slicePage(scored []scoredEntity, page, perPage int) []string {
	start := (page - 1) * perPage
	if start >= len(scored) {
		return []string{}
	}
	end := start + perPage
	if end > len(scored) {
		end = len(scored)
	}
	ids := make([]string, 0, end-start)
	for _, se := range scored[start:end] {
		ids = append(ids, se.id)
	}
	return ids
}
