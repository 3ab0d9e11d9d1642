package retrieval

import (
	"sort"
	"strings"
	"unicode"
	"unicode/utf8"

	"gopherai-training/internal/model"
)

const (
	minTermRunes = 2
	DefaultLimit = 10
)

type Index interface {
	ChunkIDsForTerm(term string) []string
	Chunk(id string) (model.Chunk, bool)
}

type Result struct {
	Chunk model.Chunk `json:"chunk"`
	Score float64     `json:"score"`
}

// Filter narrows results by inherited chunk metadata. Zero values match everything.
type Filter struct {
	Category     model.Category
	WeaponSystem string
}

func (f Filter) Empty() bool {
	return f.Category == "" && strings.TrimSpace(f.WeaponSystem) == ""
}

func (f Filter) Matches(c model.Chunk) bool {
	if f.Category != "" && c.Metadata.Category != f.Category {
		return false
	}
	if tag := strings.ToLower(strings.TrimSpace(f.WeaponSystem)); tag != "" {
		return MatchesTag(c.Metadata.Tags(), tag)
	}
	return true
}

func MatchesTag(tags []string, tag string) bool {
	for _, t := range tags {
		if t == tag || strings.Contains(t, tag) {
			return true
		}
	}
	return false
}

type Query struct {
	Text   string
	Filter Filter
	Limit  int
}

// Tokenize lowercases text, splits it on anything that is not a letter or digit and
// returns the distinct terms of at least two runes in first-seen order.
func Tokenize(text string) []string {
	fields := strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
	seen := make(map[string]struct{}, len(fields))
	terms := make([]string, 0, len(fields))
	for _, f := range fields {
		if utf8.RuneCountInString(f) < minTermRunes {
			continue
		}
		if _, ok := seen[f]; ok {
			continue
		}
		seen[f] = struct{}{}
		terms = append(terms, f)
	}
	return terms
}

// Search scores a chunk by the fraction of distinct query terms it contains.
func Search(idx Index, q Query) []Result {
	terms := Tokenize(q.Text)
	if len(terms) == 0 {
		return []Result{}
	}

	matched := make(map[string]int)
	for _, term := range terms {
		for _, id := range idx.ChunkIDsForTerm(term) {
			matched[id]++
		}
	}

	results := make([]Result, 0, len(matched))
	for id, n := range matched {
		c, ok := idx.Chunk(id)
		if !ok || !q.Filter.Matches(c) {
			continue
		}
		results = append(results, Result{
			Chunk: c,
			Score: float64(n) / float64(len(terms)),
		})
	}

	Sort(results)
	return Truncate(results, q.Limit)
}

func Sort(results []Result) {
	sort.Slice(results, func(i, j int) bool {
		a, b := results[i], results[j]
		if a.Score != b.Score {
			return a.Score > b.Score
		}
		if a.Chunk.Order != b.Chunk.Order {
			return a.Chunk.Order < b.Chunk.Order
		}
		if a.Chunk.DocumentID != b.Chunk.DocumentID {
			return a.Chunk.DocumentID < b.Chunk.DocumentID
		}
		return a.Chunk.ID < b.Chunk.ID
	})
}

func Truncate(results []Result, limit int) []Result {
	if limit <= 0 {
		limit = DefaultLimit
	}
	if len(results) > limit {
		results = results[:limit]
	}
	return results
}
