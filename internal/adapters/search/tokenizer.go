package search

import (
	"strings"

	"github.com/retrovault/storefront-backend/pkg/config"
)

// foldTable maps accented Latin runes to their ASCII transliteration. Kept
// explicit so tokenization is deterministic and independent of locale
// settings.
var foldTable = map[rune]string{
	'á': "a", 'à': "a", 'â': "a", 'ä': "a", 'ã': "a", 'å': "a", 'ā': "a",
	'é': "e", 'è': "e", 'ê': "e", 'ë': "e", 'ē': "e",
	'í': "i", 'ì': "i", 'î': "i", 'ï': "i", 'ī': "i",
	'ó': "o", 'ò': "o", 'ô': "o", 'ö': "o", 'õ': "o", 'ø': "o", 'ō': "o",
	'ú': "u", 'ù': "u", 'û': "u", 'ü': "u", 'ū': "u",
	'ý': "y", 'ÿ': "y",
	'ñ': "n", 'ç': "c", 'ß': "ss",
	'æ': "ae", 'œ': "oe", 'ð': "d", 'þ': "th", 'ł': "l", 'š': "s", 'ž': "z",
}

// Tokenizer normalizes free text into ranked-search tokens. Stop words come
// from the hot-reloadable ranking config, so tuning them requires no restart
// and no reindex.
type Tokenizer struct {
	cfg *config.RankingLoader
}

// NewTokenizer creates a tokenizer bound to the ranking config loader.
func NewTokenizer(cfg *config.RankingLoader) *Tokenizer {
	return &Tokenizer{cfg: cfg}
}

// ASCII lowercases text and transliterates accented runes to ASCII. Used both
// as the first tokenization step and standalone for substring phrase matching
// against raw field text.
func (t *Tokenizer) ASCII(text string) string {
	var b strings.Builder
	b.Grow(len(text))
	for _, r := range strings.ToLower(text) {
		if folded, ok := foldTable[r]; ok {
			b.WriteString(folded)
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

// Terms normalizes text into an ordered set of distinct lowercase tokens:
// ASCII-fold, collapse non-alphanumeric runs to spaces, split, drop stop
// words, deduplicate preserving first-seen order.
func (t *Tokenizer) Terms(text string) []string {
	stop := t.stopWords()

	terms := []string{}
	seen := make(map[string]bool)
	for _, tok := range t.tokens(text) {
		if stop[tok] || seen[tok] {
			continue
		}
		seen[tok] = true
		terms = append(terms, tok)
	}
	return terms
}

// Occurrences counts how many times term appears as a whole word in text.
// Works on the raw field text so per-field counts do not depend on
// deduplication.
func (t *Tokenizer) Occurrences(text, term string) int {
	n := 0
	for _, tok := range t.tokens(text) {
		if tok == term {
			n++
		}
	}
	return n
}

// Phrase rejoins parsed terms into the literal phrase used for substring
// containment boosts.
func (t *Tokenizer) Phrase(terms []string) string {
	return strings.Join(terms, " ")
}

// tokens is the raw token stream: folded, split on non-alphanumeric runs,
// no stop word filtering, no deduplication.
func (t *Tokenizer) tokens(text string) []string {
	folded := t.ASCII(text)
	return strings.FieldsFunc(folded, func(r rune) bool {
		return !isAlnum(r)
	})
}

func (t *Tokenizer) stopWords() map[string]bool {
	words := t.cfg.Ranking().StopWords
	stop := make(map[string]bool, len(words))
	for _, w := range words {
		stop[t.ASCII(w)] = true
	}
	return stop
}

func isAlnum(r rune) bool {
	return (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9')
}
