package search_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/FerX10/naturbot/internal/automation"
	"github.com/FerX10/naturbot/internal/dates"
	"github.com/FerX10/naturbot/internal/obs"
	"github.com/FerX10/naturbot/internal/offer"
	"github.com/FerX10/naturbot/internal/passenger"
	"github.com/FerX10/naturbot/internal/promo"
	"github.com/FerX10/naturbot/internal/search"
)

// mockAutomator scripts per-call answers keyed by call order.
type mockAutomator struct {
	searches  []func(automation.Request) ([]offer.Raw, error)
	searchIdx int
	editErr   error
	edits     []dates.Window
	requests  []automation.Request
}

func (m *mockAutomator) PerformSearch(ctx context.Context, req automation.Request) ([]offer.Raw, error) {
	m.requests = append(m.requests, req)
	if m.searchIdx >= len(m.searches) {
		return nil, automation.ErrNoResults
	}
	fn := m.searches[m.searchIdx]
	m.searchIdx++
	return fn(req)
}

func (m *mockAutomator) EditSearchDates(ctx context.Context, w dates.Window) error {
	m.edits = append(m.edits, w)
	return m.editErr
}

func empty() func(automation.Request) ([]offer.Raw, error) {
	return func(automation.Request) ([]offer.Raw, error) {
		return nil, automation.ErrNoResults
	}
}

func withOffers(offers ...offer.Raw) func(automation.Request) ([]offer.Raw, error) {
	return func(automation.Request) ([]offer.Raw, error) {
		return offers, nil
	}
}

func failing(err error) func(automation.Request) ([]offer.Raw, error) {
	return func(automation.Request) ([]offer.Raw, error) {
		return nil, err
	}
}

func solOffer(variant offer.Variant, price float64) offer.Raw {
	return offer.Raw{
		ID:              "OF-1",
		Title:           "Hotel Sol",
		RoomDescription: "Vista al Mar Deluxe",
		Price:           price,
		Refundable:      true,
		Variant:         variant,
	}
}

var testNow = time.Date(2026, time.August, 1, 0, 0, 0, 0, time.UTC)

func testRequest(t *testing.T, minors []int) search.Request {
	t.Helper()
	cfg, _, err := passenger.New(2, len(minors), minors)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	w, err := dates.Plan(
		time.Date(2026, time.August, 27, 0, 0, 0, 0, time.UTC),
		time.Date(2026, time.August, 30, 0, 0, 0, 0, time.UTC),
		dates.Ground, testNow)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	return search.Request{
		Destination: "puerto vallarta",
		Window:      w,
		Passengers:  cfg,
		Transport:   dates.Ground,
	}
}

func newOrchestrator(t *testing.T, m *mockAutomator) *search.Orchestrator {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	metrics := obs.NewMetrics(logger)
	correlator := offer.NewCorrelator(offer.DefaultConfig(), metrics, logger)
	classifier := promo.NewClassifier(promo.DefaultConfig())
	cfg := search.DefaultConfig()
	cfg.RetryDelay = time.Millisecond
	return search.NewOrchestrator(m, correlator, classifier, cfg, metrics, logger)
}

func TestRun_OriginalWindowSucceeds(t *testing.T) {
	m := &mockAutomator{searches: []func(automation.Request) ([]offer.Raw, error){
		withOffers(solOffer(offer.AdultsOnly, 8000)),
		withOffers(solOffer(offer.WithMinors, 9500)),
	}}

	out := newOrchestrator(t, m).Run(context.Background(), testRequest(t, []int{8}))

	if !out.Success {
		t.Fatalf("expected success, got %+v", out)
	}
	if out.LodgingOnlyFallback {
		t.Error("expected no lodging-only fallback")
	}
	if len(out.Offers) != 1 {
		t.Fatalf("expected 1 offer, got %d", len(out.Offers))
	}
	o := out.Offers[0]
	if o.PricePerAdult != 4000 || o.PricePerMinorAvg != 1500 {
		t.Errorf("unexpected pricing: %+v", o)
	}
	if len(m.edits) != 0 {
		t.Errorf("expected no date edits, got %d", len(m.edits))
	}
}

func TestRun_WeekTwoRetrySucceeds(t *testing.T) {
	// Original and week 1 empty; week 2 has offers. Adults only, so one
	// search per phase.
	m := &mockAutomator{searches: []func(automation.Request) ([]offer.Raw, error){
		empty(),
		empty(),
		withOffers(solOffer(offer.AdultsOnly, 8000)),
	}}

	req := testRequest(t, nil)
	out := newOrchestrator(t, m).Run(context.Background(), req)

	if !out.Success {
		t.Fatalf("expected success, got %+v", out)
	}
	if out.LodgingOnlyFallback {
		t.Error("expected no lodging-only fallback")
	}
	wantStart := req.Window.Start.AddDate(0, 0, 14)
	if !out.WindowUsed.Start.Equal(wantStart) {
		t.Errorf("expected week-2 window start %v, got %v", wantStart, out.WindowUsed.Start)
	}
	if len(m.edits) != 2 {
		t.Errorf("expected 2 date edits (week 1 and 2), got %d", len(m.edits))
	}
}

func TestRun_LodgingOnlyFallback(t *testing.T) {
	// Original plus three weekly retries empty; lodging-only succeeds.
	m := &mockAutomator{searches: []func(automation.Request) ([]offer.Raw, error){
		empty(), empty(), empty(), empty(),
		withOffers(solOffer(offer.AdultsOnly, 8000)),
	}}

	req := testRequest(t, nil)
	out := newOrchestrator(t, m).Run(context.Background(), req)

	if !out.Success {
		t.Fatalf("expected success, got %+v", out)
	}
	if !out.LodgingOnlyFallback {
		t.Fatal("expected lodging-only fallback")
	}
	if out.Message == "" {
		t.Fatal("expected advisory message")
	}
	// The fallback reverts to the originally requested window without transport.
	last := m.requests[len(m.requests)-1]
	if last.Transport != dates.None {
		t.Errorf("expected transport none in fallback, got %s", last.Transport)
	}
	if !last.Window.Start.Equal(req.Window.Start) {
		t.Errorf("expected original window in fallback, got %v", last.Window.Start)
	}
}

func TestRun_Exhausted(t *testing.T) {
	m := &mockAutomator{} // every call answers no availability

	out := newOrchestrator(t, m).Run(context.Background(), testRequest(t, nil))

	if out.Success {
		t.Fatalf("expected failure, got %+v", out)
	}
	if out.Message == "" {
		t.Fatal("expected aggregated message")
	}
	// Original + 3 weeks + lodging-only.
	if len(m.requests) != 5 {
		t.Errorf("expected 5 phase searches, got %d", len(m.requests))
	}
}

func TestRun_TransportNoneSkipsWeeklyRetries(t *testing.T) {
	m := &mockAutomator{}

	req := testRequest(t, nil)
	req.Transport = dates.None
	out := newOrchestrator(t, m).Run(context.Background(), req)

	if out.Success {
		t.Fatalf("expected failure, got %+v", out)
	}
	// Original + lodging-only; no weekly phases, no date edits.
	if len(m.requests) != 2 {
		t.Errorf("expected 2 phase searches, got %d", len(m.requests))
	}
	if len(m.edits) != 0 {
		t.Errorf("expected no date edits, got %d", len(m.edits))
	}
}

func TestRun_TransientFailuresRetriedWithinPhase(t *testing.T) {
	transient := errors.New("detached element")
	m := &mockAutomator{searches: []func(automation.Request) ([]offer.Raw, error){
		failing(transient),
		failing(transient),
		withOffers(solOffer(offer.AdultsOnly, 8000)),
	}}

	out := newOrchestrator(t, m).Run(context.Background(), testRequest(t, nil))

	if !out.Success {
		t.Fatalf("expected success after transient retries, got %+v", out)
	}
	// All three attempts belong to the original phase.
	if !out.WindowUsed.Start.Equal(testRequest(t, nil).Window.Start) {
		t.Errorf("expected original window, got %v", out.WindowUsed.Start)
	}
}

func TestRun_NoResultsNotRetriedLocally(t *testing.T) {
	m := &mockAutomator{searches: []func(automation.Request) ([]offer.Raw, error){
		empty(),
		withOffers(solOffer(offer.AdultsOnly, 8000)),
	}}

	out := newOrchestrator(t, m).Run(context.Background(), testRequest(t, nil))

	if !out.Success {
		t.Fatalf("expected success, got %+v", out)
	}
	// The second search must belong to week 1, not a local retry of the
	// original phase.
	if len(m.edits) != 1 {
		t.Errorf("expected 1 date edit before week-1 search, got %d", len(m.edits))
	}
}

func TestRun_WithMinorsSearchFailureDegrades(t *testing.T) {
	m := &mockAutomator{searches: []func(automation.Request) ([]offer.Raw, error){
		withOffers(solOffer(offer.AdultsOnly, 8000)),
		empty(), // with-minors variant finds nothing
	}}

	out := newOrchestrator(t, m).Run(context.Background(), testRequest(t, []int{8}))

	if !out.Success {
		t.Fatalf("expected success, got %+v", out)
	}
	o := out.Offers[0]
	if o.PricePerMinorAvg != 0 {
		t.Errorf("expected degraded minors price 0, got %v", o.PricePerMinorAvg)
	}
	if o.Confidence != 1.0 {
		t.Errorf("expected confidence 1.0 on degraded offer, got %v", o.Confidence)
	}
}

func TestRun_BudgetFilter(t *testing.T) {
	cheap := solOffer(offer.AdultsOnly, 6000)
	expensive := offer.Raw{ID: "OF-2", Title: "Hotel Luna", RoomDescription: "Suite", Price: 20000, Refundable: true, Variant: offer.AdultsOnly}
	m := &mockAutomator{searches: []func(automation.Request) ([]offer.Raw, error){
		withOffers(cheap, expensive),
	}}

	req := testRequest(t, nil)
	req.BudgetPerAdult = 5000
	out := newOrchestrator(t, m).Run(context.Background(), req)

	if !out.Success {
		t.Fatalf("expected success, got %+v", out)
	}
	if len(out.Offers) != 1 || out.Offers[0].Title != "Hotel Sol" {
		t.Errorf("expected only the in-budget offer, got %+v", out.Offers)
	}
}

func TestScanPromotions(t *testing.T) {
	promoted := offer.Raw{
		ID:              "OF-P",
		Title:           "Hotel Sol",
		RoomDescription: "Suite",
		PromoLabel:      "Menores gratis",
		Price:           9000,
		Refundable:      true,
		Variant:         offer.AdultsOnly,
	}
	plain := offer.Raw{ID: "OF-S", Title: "Hotel Luna", RoomDescription: "Standard", Price: 5000, Refundable: true, Variant: offer.AdultsOnly}

	m := &mockAutomator{searches: []func(automation.Request) ([]offer.Raw, error){
		withOffers(promoted, plain),
		empty(),
		withOffers(plain),
		withOffers(promoted),
	}}

	results := newOrchestrator(t, m).ScanPromotions(context.Background(), "puerto vallarta", 4)

	// Window 1 has a promoted offer, window 2 none, window 3 only plain
	// rows, window 4 promoted again.
	if len(results) != 2 {
		t.Fatalf("expected 2 scan results, got %d", len(results))
	}
	for _, r := range results {
		if len(r.Offers) == 0 {
			t.Error("scan result without offers")
		}
		for _, o := range r.Offers {
			if len(o.Promotions) == 0 {
				t.Errorf("expected promoted offer, got %+v", o)
			}
		}
	}
}
