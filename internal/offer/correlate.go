package offer

import (
	"log/slog"
	"math"
	"strings"

	"github.com/FerX10/naturbot/internal/obs"
)

// Weighted-score components. Weights sum to 1.0.
const (
	weightTitle = 0.40
	weightRoom  = 0.35
	weightPromo = 0.15
	weightPrice = 0.10

	// Prices further apart than this get no plausibility credit.
	maxPriceDelta = 0.30
)

// roomKeywords earn partial credit when both descriptions share them but are
// otherwise worded differently.
var roomKeywords = []string{
	"vista", "mar", "ocean", "deluxe", "junior", "suite",
	"standard", "double", "king", "queen",
}

// Config holds the correlation tunables. Immutable once the Correlator is built.
type Config struct {
	// Threshold is the minimum weighted score for two rows to be treated as
	// the same room. Below it the engine never guesses a minors price.
	Threshold float64
}

func DefaultConfig() Config {
	return Config{Threshold: 0.85}
}

// Correlator lines up the adults-only and with-minors result sets and derives
// per-person prices from the difference.
type Correlator struct {
	cfg     Config
	metrics *obs.Metrics
	logger  *slog.Logger
}

func NewCorrelator(cfg Config, metrics *obs.Metrics, logger *slog.Logger) *Correlator {
	if cfg.Threshold <= 0 {
		cfg.Threshold = DefaultConfig().Threshold
	}
	return &Correlator{cfg: cfg, metrics: metrics, logger: logger}
}

type indexKey struct {
	title string
	room  string
}

func keyOf(o Raw) indexKey {
	return indexKey{title: Normalize(o.Title), room: Normalize(o.RoomDescription)}
}

// Correlate merges the two result sets into priced offers. adultsSet is the
// adults-only search, minorsSet the with-minors one; minorsSet is ignored
// when no minors were requested.
func (c *Correlator) Correlate(adultsSet, minorsSet []Raw, adults, minors int) []Correlated {
	if minors == 0 {
		return c.passthrough(adultsSet, adults)
	}
	if len(minorsSet) == 0 {
		// Nothing to correlate against: degrade every row to adults-only
		// rather than inventing a minors price.
		c.logger.Warn("with-minors set empty, degrading to adults-only offers",
			"adults_offers", len(adultsSet))
		return c.passthrough(adultsSet, adults)
	}

	index := make(map[indexKey][]int, len(minorsSet))
	for i, o := range minorsSet {
		k := keyOf(o)
		index[k] = append(index[k], i)
	}

	results := make([]Correlated, 0, len(adultsSet))
	for _, a := range adultsSet {
		best, score := c.bestCandidate(a, minorsSet, index)
		if best < 0 || score < c.cfg.Threshold {
			// Rejection is a debug-level concern, never a hard error.
			c.metrics.IncCorrelationRejections()
			c.logger.Debug("correlation rejected",
				"title", a.Title,
				"room", a.RoomDescription,
				"best_score", score,
				"threshold", c.cfg.Threshold)
			continue
		}

		b := minorsSet[best]
		results = append(results, Correlated{
			Raw:              b,
			PricePerAdult:    math.Round(a.Price / float64(adults)),
			PricePerMinorAvg: math.Round((b.Price - a.Price) / float64(minors)),
			TotalPrice:       b.Price,
			Confidence:       score,
		})
	}
	return results
}

// passthrough maps the adults-only set straight through; no correlation was
// needed, so confidence is 1.0 and the minors price stays zero.
func (c *Correlator) passthrough(adultsSet []Raw, adults int) []Correlated {
	results := make([]Correlated, 0, len(adultsSet))
	for _, a := range adultsSet {
		results = append(results, Correlated{
			Raw:           a,
			PricePerAdult: math.Round(a.Price / float64(adults)),
			TotalPrice:    a.Price,
			Confidence:    1.0,
		})
	}
	return results
}

// bestCandidate prefers exact-key candidates, falling back to a full scan.
// Ties keep the first candidate seen.
func (c *Correlator) bestCandidate(a Raw, minorsSet []Raw, index map[indexKey][]int) (int, float64) {
	best, bestScore := -1, 0.0
	consider := func(i int) {
		if s := Score(a, minorsSet[i]); s > bestScore {
			best, bestScore = i, s
		}
	}

	if candidates, ok := index[keyOf(a)]; ok {
		for _, i := range candidates {
			consider(i)
		}
		return best, bestScore
	}

	for i := range minorsSet {
		consider(i)
	}
	return best, bestScore
}

// Score computes the weighted similarity between a row from each variant.
func Score(a, b Raw) float64 {
	return weightTitle*titleSimilarity(a.Title, b.Title) +
		weightRoom*roomSimilarity(a.RoomDescription, b.RoomDescription) +
		weightPromo*promoSimilarity(a.PromoLabel, b.PromoLabel) +
		weightPrice*pricePlausibility(a.Price, b.Price)
}

func titleSimilarity(a, b string) float64 {
	na, nb := Normalize(a), Normalize(b)
	switch {
	case na == nb:
		return 1.0
	case na != "" && nb != "" && (strings.Contains(na, nb) || strings.Contains(nb, na)):
		return 0.7
	default:
		return jaccard(longWords(na), longWords(nb))
	}
}

func roomSimilarity(a, b string) float64 {
	na, nb := Normalize(a), Normalize(b)
	switch {
	case na == nb:
		return 1.0
	case na != "" && nb != "" && (strings.Contains(na, nb) || strings.Contains(nb, na)):
		return 0.8
	default:
		return keywordOverlap(na, nb)
	}
}

func promoSimilarity(a, b string) float64 {
	na, nb := Normalize(a), Normalize(b)
	switch {
	case na == nb:
		return 1.0
	case na != "" && nb != "" && (strings.Contains(na, nb) || strings.Contains(nb, na)):
		return 0.7
	default:
		return 0.0
	}
}

func pricePlausibility(a, b float64) float64 {
	if a <= 0 || b <= 0 {
		return 0.0
	}
	delta := math.Abs(b-a) / a
	if delta > maxPriceDelta {
		return 0.0
	}
	return 1.0 - delta
}

// longWords keeps only the words that carry meaning for Jaccard similarity.
func longWords(normalized string) map[string]bool {
	words := make(map[string]bool)
	for _, w := range strings.Fields(normalized) {
		if len(w) > 3 {
			words[w] = true
		}
	}
	return words
}

func jaccard(a, b map[string]bool) float64 {
	if len(a) == 0 || len(b) == 0 {
		return 0.0
	}
	shared := 0
	for w := range a {
		if b[w] {
			shared++
		}
	}
	union := len(a) + len(b) - shared
	return float64(shared) / float64(union)
}

func keywordOverlap(a, b string) float64 {
	shared, either := 0, 0
	for _, kw := range roomKeywords {
		inA := containsWord(a, kw)
		inB := containsWord(b, kw)
		if inA || inB {
			either++
		}
		if inA && inB {
			shared++
		}
	}
	if either == 0 {
		return 0.0
	}
	return float64(shared) / float64(either)
}

func containsWord(normalized, word string) bool {
	for _, w := range strings.Fields(normalized) {
		if w == word {
			return true
		}
	}
	return false
}
