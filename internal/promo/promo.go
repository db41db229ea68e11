// Package promo detects promotional attributes on correlated offers, scores
// them and ranks the final lists handed to the conversational layer.
package promo

import (
	"regexp"
	"sort"
	"strings"
	"time"

	"github.com/FerX10/naturbot/internal/offer"
)

var discountRe = regexp.MustCompile(`\d+\s*%`)

// Config holds the classifier's catalog and weights. Immutable once the
// Classifier is built, so parallel tests can run with different setups.
type Config struct {
	Catalog []CatalogEntry
	Weights map[string]int
}

func DefaultConfig() Config {
	return Config{
		Catalog: DefaultCatalog(),
		Weights: DefaultWeights(),
	}
}

// Classifier annotates offers with promotion labels, a fare type and a score.
type Classifier struct {
	catalog    []CatalogEntry
	weights    map[string]int
	fareGroups []fareGroup
}

func NewClassifier(cfg Config) *Classifier {
	if cfg.Catalog == nil {
		cfg.Catalog = DefaultCatalog()
	}
	if cfg.Weights == nil {
		cfg.Weights = DefaultWeights()
	}
	return &Classifier{
		catalog:    cfg.Catalog,
		weights:    cfg.Weights,
		fareGroups: defaultFareGroups(),
	}
}

// Classify returns the deduplicated canonical labels found in the text.
// Matching is case and diacritic insensitive.
func (c *Classifier) Classify(text string) []string {
	norm := offer.Normalize(text)

	var labels []string
	seen := make(map[string]bool)
	add := func(label string) {
		if !seen[label] {
			seen[label] = true
			labels = append(labels, label)
		}
	}

	for _, entry := range c.catalog {
		if strings.Contains(norm, entry.Phrase) {
			add(entry.Label)
		}
	}

	// Heuristic matches outside the fixed catalog.
	for _, h := range []struct {
		label   string
		phrases []string
	}{
		{LabelSpaGratis, []string{"spa gratis", "spa incluido", "acceso al spa"}},
		{LabelWifiGratis, []string{"wifi gratis", "wifi incluido", "internet gratis"}},
		{LabelTrasladoGratis, []string{"traslado gratis", "traslado incluido", "shuttle gratis"}},
		{LabelCenaGratis, []string{"cena gratis", "cena incluida"}},
	} {
		for _, p := range h.phrases {
			if strings.Contains(norm, p) {
				add(h.label)
				break
			}
		}
	}
	// Normalization strips the % sign, so the discount pattern runs over the
	// raw text.
	if strings.Contains(norm, "descuento") && discountRe.MatchString(text) {
		add(LabelDescuento)
	}

	return labels
}

// FareType classifies the cancellation/confirmation terms, first match wins
// over the ordered keyword groups.
func (c *Classifier) FareType(text string) string {
	norm := offer.Normalize(text)
	for _, group := range c.fareGroups {
		for _, kw := range group.keywords {
			if strings.Contains(norm, kw) {
				return group.fare
			}
		}
	}
	return FareStandard
}

// Score sums the label weights plus the multi-promotion bonus.
func (c *Classifier) Score(labels []string) int {
	if len(labels) == 0 {
		return 0
	}
	score := 0
	for _, label := range labels {
		if w, ok := c.weights[label]; ok {
			score += w
		} else {
			score += defaultLabelWeight
		}
	}
	return score + multiPromoBonusStep*len(labels)
}

// Annotate fills the promotion fields of a correlated offer from its
// concatenated text fields.
func (c *Classifier) Annotate(o offer.Correlated) offer.Correlated {
	text := o.Title + " " + o.RoomDescription + " " + o.PromoLabel
	o.Promotions = c.Classify(text)
	o.PromotionScore = c.Score(o.Promotions)
	o.FareType = c.FareType(text)
	return o
}

// Rank partitions offers into promoted (score desc, label count desc, price
// asc) and plain cheapest (price asc), each capped.
func (c *Classifier) Rank(offers []offer.Correlated, maxPromos, maxCheap int) (promoted, cheapest []offer.Correlated) {
	if maxPromos <= 0 {
		maxPromos = 5
	}
	if maxCheap <= 0 {
		maxCheap = 5
	}

	for _, o := range offers {
		if len(o.Promotions) > 0 {
			promoted = append(promoted, o)
		} else {
			cheapest = append(cheapest, o)
		}
	}

	sort.SliceStable(promoted, func(i, j int) bool {
		if promoted[i].PromotionScore != promoted[j].PromotionScore {
			return promoted[i].PromotionScore > promoted[j].PromotionScore
		}
		if len(promoted[i].Promotions) != len(promoted[j].Promotions) {
			return len(promoted[i].Promotions) > len(promoted[j].Promotions)
		}
		return promoted[i].TotalPrice < promoted[j].TotalPrice
	})
	sort.SliceStable(cheapest, func(i, j int) bool {
		return cheapest[i].TotalPrice < cheapest[j].TotalPrice
	})

	if len(promoted) > maxPromos {
		promoted = promoted[:maxPromos]
	}
	if len(cheapest) > maxCheap {
		cheapest = cheapest[:maxCheap]
	}
	return promoted, cheapest
}

// FilterNonRefundable drops NO_REFUNDABLE offers when the trip starts beyond
// the grace period; close-in trips keep them since the money is committed
// either way.
func FilterNonRefundable(offers []offer.Correlated, tripStart, now time.Time, graceDays int) []offer.Correlated {
	if graceDays <= 0 {
		return offers
	}
	cutoff := now.AddDate(0, 0, graceDays)
	if !tripStart.After(cutoff) {
		return offers
	}

	kept := offers[:0:0]
	for _, o := range offers {
		if o.FareType == FareNoRefundable {
			continue
		}
		kept = append(kept, o)
	}
	return kept
}
