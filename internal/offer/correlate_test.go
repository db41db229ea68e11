package offer_test

import (
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/FerX10/naturbot/internal/obs"
	"github.com/FerX10/naturbot/internal/offer"
)

func newCorrelator(threshold float64) (*offer.Correlator, *obs.Metrics) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	metrics := obs.NewMetrics(logger)
	return offer.NewCorrelator(offer.Config{Threshold: threshold}, metrics, logger), metrics
}

func TestNormalize(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"Hotel Sol", "hotel sol"},
		{"  Vista   al Mar,  Deluxe! ", "vista al mar deluxe"},
		{"Habitación Estándar (Niños)", "habitacion estandar ninos"},
		{"GARANTÍA NaturCharter", "garantia naturcharter"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, offer.Normalize(tt.in))
	}
}

func TestScore_IdenticalOffers(t *testing.T) {
	a := offer.Raw{Title: "Hotel Sol", RoomDescription: "Vista al Mar Deluxe", Price: 8000, Variant: offer.AdultsOnly}
	b := offer.Raw{Title: "Hotel Sol", RoomDescription: "Vista al Mar Deluxe", Price: 8000, Variant: offer.WithMinors}

	assert.Equal(t, 1.0, offer.Score(a, b))
}

func TestScore_CosmeticDifferencesStillMatch(t *testing.T) {
	a := offer.Raw{Title: "HOTEL SOL", RoomDescription: "Vista al Mar, Deluxe", Price: 8000}
	b := offer.Raw{Title: "Hotel Sol", RoomDescription: "vista al mar deluxe", Price: 9500}

	assert.GreaterOrEqual(t, offer.Score(a, b), 0.85)
}

func TestCorrelate_PricedPair(t *testing.T) {
	// Adults-only 8000 and with-minors 9500 for the same room, 2 adults and
	// 1 minor: 4000 per adult, the 1500 delta averaged over the minor.
	c, _ := newCorrelator(0.85)

	adultsSet := []offer.Raw{{Title: "Hotel Sol", RoomDescription: "Vista al Mar Deluxe", Price: 8000, Variant: offer.AdultsOnly}}
	minorsSet := []offer.Raw{{Title: "Hotel Sol", RoomDescription: "Vista al Mar Deluxe", Price: 9500, Variant: offer.WithMinors}}

	got := c.Correlate(adultsSet, minorsSet, 2, 1)
	assert.Len(t, got, 1)
	assert.Equal(t, 4000.0, got[0].PricePerAdult)
	assert.Equal(t, 1500.0, got[0].PricePerMinorAvg)
	assert.Equal(t, 9500.0, got[0].TotalPrice)
	assert.Equal(t, offer.WithMinors, got[0].Variant)
	assert.GreaterOrEqual(t, got[0].Confidence, 0.85)
}

func TestCorrelate_MinorAverageAcrossMinors(t *testing.T) {
	c, _ := newCorrelator(0.85)

	adultsSet := []offer.Raw{{Title: "Hotel Sol", RoomDescription: "Suite", Price: 8000, Variant: offer.AdultsOnly}}
	minorsSet := []offer.Raw{{Title: "Hotel Sol", RoomDescription: "Suite", Price: 9000, Variant: offer.WithMinors}}

	got := c.Correlate(adultsSet, minorsSet, 2, 2)
	assert.Len(t, got, 1)
	assert.Equal(t, 500.0, got[0].PricePerMinorAvg)
}

func TestCorrelate_RejectsBelowThreshold(t *testing.T) {
	// Completely different hotel: no confident match, so the row is dropped
	// instead of guessing a minors price.
	c, metrics := newCorrelator(0.85)

	adultsSet := []offer.Raw{{Title: "Hotel Sol", RoomDescription: "Vista al Mar Deluxe", Price: 8000, Variant: offer.AdultsOnly}}
	minorsSet := []offer.Raw{{Title: "Posada Luna", RoomDescription: "Cabaña Rústica", Price: 21000, Variant: offer.WithMinors}}

	got := c.Correlate(adultsSet, minorsSet, 2, 1)
	assert.Empty(t, got)
	assert.Equal(t, int64(1), metrics.Snapshot().CorrelationRejections)
}

func TestCorrelate_NoMinorsPassthrough(t *testing.T) {
	c, _ := newCorrelator(0.85)

	adultsSet := []offer.Raw{
		{Title: "Hotel Sol", RoomDescription: "Standard", Price: 6000, Variant: offer.AdultsOnly},
		{Title: "Hotel Luna", RoomDescription: "Suite", Price: 7400, Variant: offer.AdultsOnly},
	}

	got := c.Correlate(adultsSet, nil, 2, 0)
	assert.Len(t, got, 2)
	for _, o := range got {
		assert.Equal(t, 1.0, o.Confidence)
		assert.Equal(t, 0.0, o.PricePerMinorAvg)
		assert.Equal(t, offer.AdultsOnly, o.Variant)
	}
	assert.Equal(t, 3000.0, got[0].PricePerAdult)
}

func TestCorrelate_EmptyMinorsSetDegrades(t *testing.T) {
	// Minors requested but the with-minors search came back empty: every
	// adults-only row survives with minors priced at zero.
	c, _ := newCorrelator(0.85)

	adultsSet := []offer.Raw{{Title: "Hotel Sol", RoomDescription: "Standard", Price: 6000, Variant: offer.AdultsOnly}}

	got := c.Correlate(adultsSet, nil, 2, 1)
	assert.Len(t, got, 1)
	assert.Equal(t, 1.0, got[0].Confidence)
	assert.Equal(t, 0.0, got[0].PricePerMinorAvg)
	assert.Equal(t, 6000.0, got[0].TotalPrice)
}

func TestCorrelate_ExactKeyPreferredOverGlobalScan(t *testing.T) {
	c, _ := newCorrelator(0.85)

	adultsSet := []offer.Raw{{Title: "Hotel Sol", RoomDescription: "Vista al Mar Deluxe", Price: 8000, Variant: offer.AdultsOnly}}
	minorsSet := []offer.Raw{
		{ID: "near", Title: "Hotel Sol Playa", RoomDescription: "Vista al Mar Deluxe", Price: 9400, Variant: offer.WithMinors},
		{ID: "exact", Title: "Hotel Sol", RoomDescription: "Vista al Mar Deluxe", Price: 9500, Variant: offer.WithMinors},
	}

	got := c.Correlate(adultsSet, minorsSet, 2, 1)
	assert.Len(t, got, 1)
	assert.Equal(t, "exact", got[0].ID)
}

func TestCorrelate_FirstSeenWinsOnTies(t *testing.T) {
	c, _ := newCorrelator(0.85)

	adultsSet := []offer.Raw{{Title: "Hotel Sol", RoomDescription: "Suite", Price: 8000, Variant: offer.AdultsOnly}}
	minorsSet := []offer.Raw{
		{ID: "first", Title: "Hotel Sol", RoomDescription: "Suite", Price: 9500, Variant: offer.WithMinors},
		{ID: "second", Title: "Hotel Sol", RoomDescription: "Suite", Price: 9500, Variant: offer.WithMinors},
	}

	got := c.Correlate(adultsSet, minorsSet, 2, 1)
	assert.Len(t, got, 1)
	assert.Equal(t, "first", got[0].ID)
}

func TestCorrelate_PriceTooFarApart(t *testing.T) {
	// Same naming but a 50% price jump: the plausibility component zeroes
	// out, yet title+room+promo still carry 0.90, so the match holds. The
	// threshold is what protects us, not any single component.
	a := offer.Raw{Title: "Hotel Sol", RoomDescription: "Suite", Price: 8000}
	b := offer.Raw{Title: "Hotel Sol", RoomDescription: "Suite", Price: 12000}

	assert.InDelta(t, 0.90, offer.Score(a, b), 1e-9)
}
