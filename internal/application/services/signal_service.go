package services

import (
	"context"
	"fmt"

	"github.com/retrovault/storefront-backend/internal/adapters/search"
	"github.com/retrovault/storefront-backend/internal/domain/entities"
	"github.com/retrovault/storefront-backend/internal/domain/repositories"
	"github.com/retrovault/storefront-backend/pkg/config"
	apperrors "github.com/retrovault/storefront-backend/pkg/errors"
)

// SignalService records implicit user feedback and folds it into the user's
// descriptor affinity profile.
type SignalService struct {
	signals     repositories.SignalRepository
	descriptors repositories.DescriptorRepository
	tok         *search.Tokenizer
	mapper      *search.DescriptorMapper
	cfg         *config.RankingLoader
}

func NewSignalService(signals repositories.SignalRepository, descriptors repositories.DescriptorRepository, tok *search.Tokenizer, mapper *search.DescriptorMapper, cfg *config.RankingLoader) *SignalService {
	return &SignalService{
		signals:     signals,
		descriptors: descriptors,
		tok:         tok,
		mapper:      mapper,
		cfg:         cfg,
	}
}

// Record upserts the signal row and, when the kind carries a positive
// affinity delta, boosts the user's affinity for every descriptor attached
// to the entity by score x delta.
func (s *SignalService) Record(ctx context.Context, userID string, kind entities.EntityKind, entityID string, sig entities.SignalKind, qty int64) error {
	if !sig.Valid() {
		return apperrors.NewValidationError(fmt.Sprintf("invalid signal kind %q", sig))
	}

	if err := s.signals.UpsertSignal(ctx, userID, kind, entityID, sig, qty); err != nil {
		return err
	}

	delta := s.cfg.Ranking().SignalAffinityDeltas[string(sig)]
	if delta <= 0 {
		return nil
	}

	scores, err := s.descriptors.DescriptorScoresFor(ctx, kind, entityID)
	if err != nil {
		return err
	}
	if len(scores) == 0 {
		return nil
	}

	deltas := make(map[string]float64, len(scores))
	for _, ds := range scores {
		deltas[ds.Key] += ds.Score * delta
	}
	return s.signals.AddAffinity(ctx, userID, deltas)
}

// Impression batch-records that the user saw these entities. Impressions are
// too weak a signal to touch descriptor affinity. Duplicate IDs in one batch
// collapse to one bump: the multi-row upsert cannot touch the same signal
// row twice in a single statement.
func (s *SignalService) Impression(ctx context.Context, userID string, kind entities.EntityKind, entityIDs []string) error {
	unique := dedupeIDs(entityIDs)
	if len(unique) == 0 {
		return nil
	}
	return s.signals.BumpImpressions(ctx, userID, kind, unique)
}

// dedupeIDs drops repeated IDs, keeping first-seen order.
func dedupeIDs(ids []string) []string {
	seen := make(map[string]struct{}, len(ids))
	unique := make([]string, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		unique = append(unique, id)
	}
	return unique
}

// RecordSearchQuery boosts the user's affinity for each query term, resolved
// to its canonical descriptor key, by the fixed search-term boost.
func (s *SignalService) RecordSearchQuery(ctx context.Context, userID, query string) error {
	boost := s.cfg.Ranking().SearchTermAffinityBoost
	if boost <= 0 {
		return nil
	}

	terms := s.tok.Terms(query)
	if len(terms) == 0 {
		return nil
	}

	deltas := make(map[string]float64, len(terms))
	for _, res := range s.mapper.ResolveAll(terms) {
		deltas[res.Key] += boost
	}
	return s.signals.AddAffinity(ctx, userID, deltas)
}

// AffinityProfile exposes the user's descriptor affinity map to the rankers.
func (s *SignalService) AffinityProfile(ctx context.Context, userID string) (map[string]float64, error) {
	return s.signals.AffinityProfile(ctx, userID)
}
