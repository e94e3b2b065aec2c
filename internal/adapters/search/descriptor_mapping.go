package search

import (
	"github.com/retrovault/storefront-backend/pkg/config"
)

// Resolution is the outcome of mapping a token to a descriptor key. The two
// cases stay explicit: Configured means the token hit the alias table,
// otherwise the normalized token itself is the fallback key.
type Resolution struct {
	Key        string
	Configured bool
}

// DescriptorMapper resolves free-text tokens against the configured
// descriptor vocabulary. The alias table lives in the hot-reloadable ranking
// config; reloads change mapping behavior without reindexing.
type DescriptorMapper struct {
	cfg *config.RankingLoader
	tok *Tokenizer
}

// NewDescriptorMapper creates a mapper sharing the tokenizer's normalization.
func NewDescriptorMapper(cfg *config.RankingLoader, tok *Tokenizer) *DescriptorMapper {
	return &DescriptorMapper{cfg: cfg, tok: tok}
}

// Resolve maps one token to a descriptor key. The comparison is case and
// accent insensitive on both sides. Returns ok=false only for tokens that
// normalize to nothing.
func (m *DescriptorMapper) Resolve(token string) (Resolution, bool) {
	norm := m.tok.ASCII(token)
	if norm == "" {
		return Resolution{}, false
	}
	return m.lookup().resolve(norm), true
}

// ResolveAll maps a token slice, dropping empty normalizations.
func (m *DescriptorMapper) ResolveAll(tokens []string) []Resolution {
	lk := m.lookup()
	out := make([]Resolution, 0, len(tokens))
	for _, token := range tokens {
		norm := m.tok.ASCII(token)
		if norm == "" {
			continue
		}
		out = append(out, lk.resolve(norm))
	}
	return out
}

type aliasLookup map[string]string

func (lk aliasLookup) resolve(norm string) Resolution {
	if key, ok := lk[norm]; ok {
		return Resolution{Key: key, Configured: true}
	}
	return Resolution{Key: norm, Configured: false}
}

// lookup builds the normalized alias table from the current config snapshot.
func (m *DescriptorMapper) lookup() aliasLookup {
	aliases := m.cfg.Ranking().DescriptorAliases
	lk := make(aliasLookup, len(aliases)*2)
	for key, list := range aliases {
		canonical := m.tok.ASCII(key)
		if canonical == "" {
			continue
		}
		lk[canonical] = canonical
		for _, alias := range list {
			if norm := m.tok.ASCII(alias); norm != "" {
				lk[norm] = canonical
			}
		}
	}
	return lk
}
