package config

import (
	"encoding/json"
	"fmt"
	"os"
	"sync"
)

// FieldBoosts are the multipliers applied to per-field term occurrences when
// scoring, and to per-field token hits when accumulating descriptor scores.
type FieldBoosts struct {
	Primary     float64 `json:"primary"`
	Identifier  float64 `json:"identifier"`
	Description float64 `json:"description"`
}

// KindRanking carries the weights that differ between the product and event
// instantiations of the engine.
type KindRanking struct {
	FieldBoosts      FieldBoosts `json:"field_boosts"`
	DescriptorBoosts FieldBoosts `json:"descriptor_boosts"`

	LeadTermBoost          float64 `json:"lead_term_boost"`
	AllTermsBonus          float64 `json:"all_terms_bonus"`
	PhrasePrimaryBonus     float64 `json:"phrase_primary_bonus"`
	PhraseDescriptionBonus float64 `json:"phrase_description_bonus"`
	// IdentifierTermBonus is added once per query term literally contained in
	// the identifier field. Zero disables the pass (events).
	IdentifierTermBonus float64 `json:"identifier_term_bonus"`
	// IdentifierPass enables the extra identifier-only OR retrieval pass.
	IdentifierPass bool `json:"identifier_pass"`
}

// Ranking is one immutable snapshot of every tunable ranking coefficient,
// the stop word list and the descriptor alias table. Snapshots are replaced
// wholesale on reload; callers must not mutate them.
type Ranking struct {
	CandidateLimit  int     `json:"candidate_limit"`
	PopularityAlpha float64 `json:"popularity_alpha"`
	ClickBeta       float64 `json:"click_beta"`
	ClickCap        int64   `json:"click_cap"`

	TrendingWeightPreferences float64 `json:"trending_weight_preferences"`
	TrendingWeightSearches    float64 `json:"trending_weight_searches"`
	TrendingDescriptorBeta    float64 `json:"trending_descriptor_beta"`
	TrendingDescriptorCap     float64 `json:"trending_descriptor_cap"`

	BehaviorViewWeight     float64 `json:"behavior_view_weight"`
	BehaviorAddWeight      float64 `json:"behavior_add_weight"`
	BehaviorPurchaseWeight float64 `json:"behavior_purchase_weight"`
	BehaviorCap            float64 `json:"behavior_cap"`
	BehaviorBeta           float64 `json:"behavior_beta"`

	DescriptorLambda float64 `json:"descriptor_lambda"`
	DescriptorCap    float64 `json:"descriptor_cap"`

	CoreTopK         int     `json:"core_top_k"`
	CoreMinScore     float64 `json:"core_min_score"`
	CoreGamma        float64 `json:"core_gamma"`
	CoreCap          float64 `json:"core_cap"`
	CoreNameHitBoost float64 `json:"core_name_hit_boost"`

	SignalAffinityDeltas    map[string]float64 `json:"signal_affinity_deltas"`
	SearchTermAffinityBoost float64            `json:"search_term_affinity_boost"`

	StopWords         []string            `json:"stop_words"`
	DescriptorAliases map[string][]string `json:"descriptor_aliases"`

	Products KindRanking `json:"products"`
	Events   KindRanking `json:"events"`
}

// ForKind returns the per-kind weights for "product" or "event".
func (r *Ranking) ForKind(kind string) KindRanking {
	if kind == "event" {
		return r.Events
	}
	return r.Products
}

// DefaultRanking returns the documented default coefficients. Every missing
// key in the ranking file falls back to these values.
func DefaultRanking() *Ranking {
	return &Ranking{
		CandidateLimit:  300,
		PopularityAlpha: 0.05,
		ClickBeta:       0.02,
		ClickCap:        50,

		TrendingWeightPreferences: 3.0,
		TrendingWeightSearches:    1.0,
		TrendingDescriptorBeta:    0.01,
		TrendingDescriptorCap:     25.0,

		BehaviorViewWeight:     1.0,
		BehaviorAddWeight:      3.0,
		BehaviorPurchaseWeight: 6.0,
		BehaviorCap:            30.0,
		BehaviorBeta:           0.05,

		DescriptorLambda: 0.02,
		DescriptorCap:    40.0,

		CoreTopK:         5,
		CoreMinScore:     2.0,
		CoreGamma:        0.25,
		CoreCap:          4.0,
		CoreNameHitBoost: 1.5,

		SignalAffinityDeltas: map[string]float64{
			"view":     0.5,
			"add":      1.0,
			"purchase": 2.0,
		},
		SearchTermAffinityBoost: 0.25,

		StopWords: []string{
			"a", "an", "and", "at", "by", "de", "del", "el", "en", "for",
			"in", "la", "las", "los", "of", "on", "or", "para", "the",
			"to", "un", "una", "with", "y",
		},
		DescriptorAliases: map[string][]string{},

		Products: KindRanking{
			FieldBoosts:            FieldBoosts{Primary: 3.0, Identifier: 2.0, Description: 1.0},
			DescriptorBoosts:       FieldBoosts{Primary: 3.0, Identifier: 2.0, Description: 1.0},
			LeadTermBoost:          1.25,
			AllTermsBonus:          4.0,
			PhrasePrimaryBonus:     5.0,
			PhraseDescriptionBonus: 2.0,
			IdentifierTermBonus:    1.5,
			IdentifierPass:         true,
		},
		Events: KindRanking{
			FieldBoosts:            FieldBoosts{Primary: 3.0, Identifier: 1.5, Description: 1.0},
			DescriptorBoosts:       FieldBoosts{Primary: 3.0, Identifier: 2.0, Description: 1.0},
			LeadTermBoost:          1.25,
			AllTermsBonus:          4.0,
			PhrasePrimaryBonus:     5.0,
			PhraseDescriptionBonus: 2.0,
			IdentifierTermBonus:    0,
			IdentifierPass:         false,
		},
	}
}

// RankingLoader serves immutable Ranking snapshots and reloads them from a
// JSON file on demand, without restarting or reindexing.
type RankingLoader struct {
	path string

	mu      sync.RWMutex
	current *Ranking
}

// NewRankingLoader reads the ranking file at path, overlaying it on the
// defaults. An empty path yields pure defaults.
func NewRankingLoader(path string) (*RankingLoader, error) {
	l := &RankingLoader{path: path}
	if err := l.Reload(); err != nil {
		return nil, err
	}
	return l, nil
}

// NewStaticRanking wraps an explicit snapshot. Test helper.
func NewStaticRanking(r *Ranking) *RankingLoader {
	return &RankingLoader{current: r}
}

// Ranking returns the current snapshot.
func (l *RankingLoader) Ranking() *Ranking {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.current
}

// Reload re-reads the ranking file and swaps in a fresh snapshot. A failed
// read or parse leaves the previous snapshot in place.
func (l *RankingLoader) Reload() error {
	next := DefaultRanking()

	if l.path != "" {
		data, err := os.ReadFile(l.path)
		if err != nil {
			return fmt.Errorf("failed to read ranking config: %w", err)
		}
		if err := json.Unmarshal(data, next); err != nil {
			return fmt.Errorf("failed to parse ranking config: %w", err)
		}
	}

	l.mu.Lock()
	l.current = next
	l.mu.Unlock()
	return nil
}
