package agent

import (
	"context"
	"strings"

	"github.com/jinzhu/inflection"
	"go.uber.org/zap"

	"github.com/askdb-ai/askdb-engine/pkg/config"
	"github.com/askdb-ai/askdb-engine/pkg/models"
)

// columnSynonyms maps a term's likely type to column names worth probing.
// A column is a candidate when its lowercased name contains any synonym.
var columnSynonyms = map[string][]string{
	"city":     {"city", "location", "address"},
	"status":   {"status"},
	"category": {"category", "type", "kind"},
	"name":     {"name"},
}

// abbreviations expands well-known short forms before trigram matching.
var abbreviations = map[string]string{
	"nyc": "New York",
	"ny":  "New York",
	"la":  "Los Angeles",
	"sf":  "San Francisco",
	"dc":  "Washington",
	"uk":  "United Kingdom",
	"usa": "United States",
	"us":  "United States",
}

// Resolution scores. Containment hits are certain; fuzzy hits are
// strong but inexact; semantic hits carry their cosine similarity.
const (
	scoreContains = 1.0
	scoreFuzzy    = 0.8

	// trigramThreshold is the minimum Jaccard similarity on character
	// 3-grams for a fuzzy match.
	trigramThreshold = 0.5
)

// ValueResolver maps user-mentioned terms to exact stored values using the
// column metadata gathered during enrichment. Categorical columns are scanned
// directly; vector-indexed columns go through embedding similarity.
type ValueResolver struct {
	semantic ValueSearcher
	cfg      *config.AgentConfig
	logger   *zap.Logger
}

// NewValueResolver creates a resolver. semantic may be nil, which disables
// semantic matching (categorical and fuzzy still work).
func NewValueResolver(semantic ValueSearcher, cfg *config.AgentConfig, logger *zap.Logger) *ValueResolver {
	return &ValueResolver{
		semantic: semantic,
		cfg:      cfg,
		logger:   logger.Named("resolver"),
	}
}

// resolveValues runs the resolver over every searchable term. Resolution is
// best-effort: a term that matches nothing is simply skipped, and semantic
// lookup failures degrade to whatever the cheaper methods found.
func (a *Agent) resolveValues(ctx context.Context, state *State) error {
	for _, term := range state.SearchableTerms {
		a.resolver.ResolveTerm(ctx, state, term)
	}

	a.logger.Debug("values resolved",
		zap.Int("terms", len(state.SearchableTerms)),
		zap.Int("resolved", len(state.ResolvedValues)))

	state.Stage = StageGenerate
	return nil
}

// ResolveTerm scans columns in deterministic order (retrieved-table order,
// then column order within a table) and records the first column that yields
// a match for the term, keyed "table.column". The scan stops at that column;
// a term matching nowhere is simply left unresolved. A higher-scoring match
// never loses its key to a lower-scoring one, so resolution is idempotent.
func (r *ValueResolver) ResolveTerm(ctx context.Context, state *State, term SearchableTerm) {
	for _, doc := range state.RelevantTables {
		insight, ok := state.TableInsights[doc.QualifiedName()]
		if !ok {
			continue
		}

		for i := range insight.Columns {
			col := &insight.Columns[i]
			if !r.columnIsCandidate(col, term.LikelyType) {
				continue
			}

			resolved, matched := r.matchColumn(ctx, term, insight, col)
			if !matched {
				continue
			}

			key := resolved.ColumnKey()
			if existing, exists := state.ResolvedValues[key]; !exists || resolved.Score > existing.Score {
				state.ResolvedValues[key] = resolved
			}

			r.logger.Debug("term resolved",
				zap.String("term", term.Term),
				zap.String("column", key),
				zap.String("value", resolved.Value),
				zap.Float64("score", resolved.Score),
				zap.String("method", resolved.Method))
			return
		}
	}
}

// columnIsCandidate reports whether a column is a plausible host for a term
// of the given likely type: its name or summary contains the type string, a
// synonym of the type matches its name, or the column is categorical
// (categorical columns are cheap to probe and the most likely to need
// exact-value substitution).
func (r *ValueResolver) columnIsCandidate(col *models.ColumnInsight, likelyType string) bool {
	if col.IndexingStrategy == models.IndexingSkip {
		return false
	}
	if col.IndexingStrategy == models.IndexingCategorical {
		return true
	}

	lt := normalizeType(likelyType)
	if lt == "" {
		return false
	}

	colName := strings.ToLower(col.ColumnName)
	if strings.Contains(colName, lt) || strings.Contains(strings.ToLower(col.ColumnSummary), lt) {
		return true
	}

	for _, syn := range columnSynonyms[lt] {
		if strings.Contains(colName, syn) {
			return true
		}
	}
	return false
}

// normalizeType canonicalizes a model-guessed likely type: lowercased and
// singularized, so "cities" and "City" both hit the "city" synonyms.
func normalizeType(t string) string {
	return inflection.Singular(strings.ToLower(strings.TrimSpace(t)))
}

// matchColumn tries the match methods appropriate for the column's indexing
// strategy, cheapest first.
func (r *ValueResolver) matchColumn(ctx context.Context, term SearchableTerm, insight *models.TableInsight, col *models.ColumnInsight) (ResolvedValue, bool) {
	base := ResolvedValue{
		Term:       term.Term,
		SchemaName: insight.SchemaName,
		TableName:  insight.TableName,
		ColumnName: col.ColumnName,
	}

	switch col.IndexingStrategy {
	case models.IndexingCategorical:
		if value, ok := matchDirect(term.Term, col.CategoricalValues); ok {
			base.Value = value
			base.Score = scoreContains
			base.Method = "contains"
			return base, true
		}
		if value, ok := matchFuzzy(term.Term, col.CategoricalValues); ok {
			base.Value = value
			base.Score = scoreFuzzy
			base.Method = "fuzzy"
			return base, true
		}

	case models.IndexingVector:
		if r.semantic == nil || len(col.SampleValues) == 0 {
			return ResolvedValue{}, false
		}
		value, score, err := r.semantic.BestMatch(ctx, term.Term, col.SampleValues)
		if err != nil {
			r.logger.Warn("semantic value lookup failed",
				zap.String("term", term.Term),
				zap.String("column", col.ColumnName),
				zap.Error(err))
			return ResolvedValue{}, false
		}
		if score > r.cfg.ScoreThreshold {
			base.Value = value
			base.Score = score
			base.Method = "semantic"
			return base, true
		}
	}

	return ResolvedValue{}, false
}

// matchDirect finds a stored value where term and value contain one another
// case-insensitively (either direction counts).
func matchDirect(term string, values []string) (string, bool) {
	lowerTerm := strings.ToLower(strings.TrimSpace(term))
	if lowerTerm == "" {
		return "", false
	}

	for _, v := range values {
		lowerVal := strings.ToLower(v)
		if strings.Contains(lowerVal, lowerTerm) || strings.Contains(lowerTerm, lowerVal) {
			return v, true
		}
	}
	return "", false
}

// matchFuzzy expands known abbreviations, then falls back to character
// trigram similarity.
func matchFuzzy(term string, values []string) (string, bool) {
	lowerTerm := strings.ToLower(strings.TrimSpace(term))

	if expanded, ok := abbreviations[lowerTerm]; ok {
		if value, found := matchDirect(expanded, values); found {
			return value, true
		}
	}

	var best string
	var bestScore float64
	for _, v := range values {
		if score := trigramSimilarity(lowerTerm, strings.ToLower(v)); score > bestScore {
			best = v
			bestScore = score
		}
	}
	if bestScore >= trigramThreshold {
		return best, true
	}
	return "", false
}

// trigramSimilarity computes Jaccard similarity over padded character
// 3-grams, matching PostgreSQL's pg_trgm behavior closely enough for
// short value strings.
func trigramSimilarity(a, b string) float64 {
	ta := trigrams(a)
	tb := trigrams(b)
	if len(ta) == 0 || len(tb) == 0 {
		return 0
	}

	intersection := 0
	for g := range ta {
		if _, ok := tb[g]; ok {
			intersection++
		}
	}
	union := len(ta) + len(tb) - intersection
	return float64(intersection) / float64(union)
}

func trigrams(s string) map[string]struct{} {
	padded := "  " + s + " "
	grams := make(map[string]struct{})
	for i := 0; i+3 <= len(padded); i++ {
		grams[padded[i:i+3]] = struct{}{}
	}
	return grams
}
