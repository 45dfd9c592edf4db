package companion

import (
	"cmp"
	"math"
	"slices"
	"strings"
	"time"

	"github.com/cyberFlowTech/companion-sdk-go/internal/lexicon"
	"github.com/samber/lo"
)

// ──────────────────────────────────────────────
// Memory Retriever: keyword relevance scoring
// ──────────────────────────────────────────────

const (
	wordMatchWeight   = 10.0
	similarityBonus   = 15.0
	similarityCutoff  = 0.3
	recencyDays       = 10.0
	importanceWeight  = 0.3
	accessCountWeight = 2.0

	// RetrievalTieWindow is the score difference under which two records are
	// ordered by recency instead of score.
	RetrievalTieWindow = 0.1

	// minQueryWordLen drops short filler words from the match count.
	minQueryWordLen = 3
)

type scoredRecord struct {
	rec   *MemoryRecord
	score float64
}

// Retrieve returns up to limit records ordered by relevance to query. Every
// returned record has its access count incremented. limit 0 returns nothing
// and touches nothing; a negative limit is a precondition error.
func (m *MemoryStore) Retrieve(query string, limit int) ([]MemoryRecord, error) {
	if limit < 0 {
		return nil, preconditionf("MemoryStore.Retrieve", nil, "negative limit %d", limit)
	}
	if limit == 0 || len(m.records) == 0 {
		return []MemoryRecord{}, nil
	}

	now := m.now()
	queryTokens := lexicon.Words(query)
	querySet := lexicon.Set(queryTokens)
	queryWords := lo.Uniq(lo.Filter(queryTokens, func(w string, _ int) bool {
		return len([]rune(w)) >= minQueryWordLen
	}))

	scored := make([]scoredRecord, 0, len(m.records))
	for _, r := range m.records {
		scored = append(scored, scoredRecord{rec: r, score: relevanceScore(r, queryWords, querySet, now)})
	}
	sortByRelevance(scored)

	if limit > len(scored) {
		limit = len(scored)
	}
	out := make([]MemoryRecord, 0, limit)
	for _, s := range scored[:limit] {
		s.rec.AccessCount++
		s.rec.LastAccessedAt = now
		m.logAudit(AuditActionAccess, s.rec, "")
		out = append(out, *s.rec)
	}
	m.logger.Debug("Memories retrieved", "query_words", len(queryWords), "returned", len(out))
	return out, nil
}

// RelevanceScore exposes the retrieval score of a single record.
func RelevanceScore(r MemoryRecord, query string, now time.Time) float64 {
	tokens := lexicon.Words(query)
	words := lo.Uniq(lo.Filter(tokens, func(w string, _ int) bool { return len([]rune(w)) >= minQueryWordLen }))
	return relevanceScore(&r, words, lexicon.Set(tokens), now)
}

func relevanceScore(r *MemoryRecord, queryWords []string, querySet map[string]struct{}, now time.Time) float64 {
	contentSet := lexicon.Set(lexicon.Words(r.Content))

	score := 0.0
	for _, w := range queryWords {
		if _, ok := contentSet[w]; ok {
			score += wordMatchWeight
		}
	}
	if jaccard(querySet, contentSet) > similarityCutoff {
		score += similarityBonus
	}
	days := now.Sub(r.CreatedAt).Hours() / 24
	score += math.Max(0, recencyDays-days)
	score += importanceWeight * float64(r.Importance)
	score += accessCountWeight * float64(r.AccessCount)
	return score
}

func jaccard(a, b map[string]struct{}) float64 {
	if len(a) == 0 && len(b) == 0 {
		return 0
	}
	inter := 0
	for w := range a {
		if _, ok := b[w]; ok {
			inter++
		}
	}
	union := len(a) + len(b) - inter
	return float64(inter) / float64(union)
}

// sortByRelevance orders by score descending, then groups maximal runs of
// records whose neighbouring scores differ by at most RetrievalTieWindow and
// orders each run newer CreatedAt first. Any two records within the window
// of each other share a run, so the result does not depend on input order.
func sortByRelevance(scored []scoredRecord) {
	newerFirst := func(a, b scoredRecord) int {
		if c := b.rec.CreatedAt.Compare(a.rec.CreatedAt); c != 0 {
			return c
		}
		return strings.Compare(a.rec.ID, b.rec.ID)
	}
	slices.SortFunc(scored, func(a, b scoredRecord) int {
		if c := cmp.Compare(b.score, a.score); c != 0 {
			return c
		}
		return newerFirst(a, b)
	})

	for start := 0; start < len(scored); {
		end := start + 1
		for end < len(scored) && scored[end-1].score-scored[end].score <= RetrievalTieWindow {
			end++
		}
		slices.SortFunc(scored[start:end], newerFirst)
		start = end
	}
}
