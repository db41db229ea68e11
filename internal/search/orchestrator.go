// Package search drives the multi-phase retry state machine over the
// page-automation collaborator and assembles the final priced, ranked
// outcome.
package search

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/FerX10/naturbot/internal/automation"
	"github.com/FerX10/naturbot/internal/dates"
	"github.com/FerX10/naturbot/internal/obs"
	"github.com/FerX10/naturbot/internal/offer"
	"github.com/FerX10/naturbot/internal/passenger"
	"github.com/FerX10/naturbot/internal/promo"
)

// ErrExhausted is returned inside the Outcome message once every phase
// (original dates, forward weeks, lodging-only) failed.
var ErrExhausted = errors.New("search exhausted")

// Phase names, in the order the state machine walks them.
const (
	PhaseOriginal    = "fechas originales"
	PhaseWeekFmt     = "+%d semana(s)"
	PhaseLodgingOnly = "solo hospedaje"
)

// Request is one fully validated search. Validation (passenger config, date
// window) happens before a Request is ever built.
type Request struct {
	Destination    string           `json:"destination"`
	Window         dates.Window     `json:"window"`
	Passengers     passenger.Config `json:"passengers"`
	Transport      dates.Mode       `json:"transport"`
	Plan           string           `json:"plan,omitempty"`
	BudgetPerAdult float64          `json:"budget_per_adult,omitempty"`
	DesiredHotel   string           `json:"desired_hotel,omitempty"`
}

// Outcome is the terminal result of one retry cycle.
type Outcome struct {
	Success             bool               `json:"success"`
	Offers              []offer.Correlated `json:"offers"`
	Promoted            []offer.Correlated `json:"promoted,omitempty"`
	Cheapest            []offer.Correlated `json:"cheapest,omitempty"`
	WindowUsed          dates.Window       `json:"window_used"`
	LodgingOnlyFallback bool               `json:"lodging_only_fallback"`
	Message             string             `json:"message"`
}

// Config holds the orchestrator tunables.
type Config struct {
	// MaxDateWindows is how many forward-shifted weeks to try (retry depth).
	MaxDateWindows int
	// PhaseAttempts bounds the local retries around each collaborator call.
	PhaseAttempts int
	// RetryDelay is the base for the linear backoff (attempt × RetryDelay).
	RetryDelay time.Duration
	// NonRefundableGraceDays controls filtering of non-refundable offers for
	// far-future trips. Zero disables the filter.
	NonRefundableGraceDays int
	MaxPromotions          int
	MaxCheapOptions        int
}

func DefaultConfig() Config {
	return Config{
		MaxDateWindows:         3,
		PhaseAttempts:          3,
		RetryDelay:             2 * time.Second,
		NonRefundableGraceDays: 14,
		MaxPromotions:          5,
		MaxCheapOptions:        5,
	}
}

// Orchestrator walks ORIGINAL → WEEK_1..k → LODGING_ONLY until a phase
// yields offers or everything is exhausted.
type Orchestrator struct {
	automator  automation.Automator
	correlator *offer.Correlator
	classifier *promo.Classifier
	cfg        Config
	metrics    *obs.Metrics
	logger     *slog.Logger
	now        func() time.Time
	sleep      func(context.Context, time.Duration) error
}

func NewOrchestrator(
	automator automation.Automator,
	correlator *offer.Correlator,
	classifier *promo.Classifier,
	cfg Config,
	metrics *obs.Metrics,
	logger *slog.Logger,
) *Orchestrator {
	if cfg.MaxDateWindows <= 0 {
		cfg.MaxDateWindows = DefaultConfig().MaxDateWindows
	}
	if cfg.PhaseAttempts <= 0 {
		cfg.PhaseAttempts = DefaultConfig().PhaseAttempts
	}
	return &Orchestrator{
		automator:  automator,
		correlator: correlator,
		classifier: classifier,
		cfg:        cfg,
		metrics:    metrics,
		logger:     logger,
		now:        time.Now,
		sleep:      sleepCtx,
	}
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return context.Cause(ctx)
	}
}

// Run executes the full retry cycle for one request. It never returns a raw
// error to the caller; failures are folded into a structured Outcome.
func (o *Orchestrator) Run(ctx context.Context, req Request) Outcome {
	o.metrics.IncSearches()

	var attempted []string

	// ORIGINAL phase: requested window, full transport parameters.
	attempted = append(attempted, PhaseOriginal)
	if adultsSet, minorsSet, ok := o.runPhase(ctx, req, req.Window, req.Transport, PhaseOriginal); ok {
		return o.finish(req, req.Window, adultsSet, minorsSet, false)
	}

	// WEEK_k phases: forward-shifted windows, only when transport matters.
	if req.Transport != dates.None {
		for k := 1; k <= o.cfg.MaxDateWindows; k++ {
			phase := fmt.Sprintf(PhaseWeekFmt, k)
			window := dates.ShiftWeeks(req.Window, k)
			if req.Transport == dates.Ground && !dates.ValidGroundPair(window) {
				o.logger.Warn("skipping shifted window with invalid pattern",
					"phase", phase, "window", window.String())
				continue
			}
			attempted = append(attempted, phase)

			if err := o.editDates(ctx, window, phase); err != nil {
				o.logger.Warn("date edit failed, phase abandoned", "phase", phase, "error", err)
				continue
			}
			if adultsSet, minorsSet, ok := o.runPhase(ctx, req, window, req.Transport, phase); ok {
				return o.finish(req, window, adultsSet, minorsSet, false)
			}
		}
	}

	// LODGING_ONLY phase: original window, transport removed.
	attempted = append(attempted, PhaseLodgingOnly)
	if adultsSet, minorsSet, ok := o.runPhase(ctx, req, req.Window, dates.None, PhaseLodgingOnly); ok {
		o.metrics.IncLodgingFallbacks()
		return o.finish(req, req.Window, adultsSet, minorsSet, true)
	}

	// EXHAUSTED.
	o.metrics.IncSearchFailures()
	o.logger.Error("search exhausted", "destination", req.Destination,
		"phases", attempted)
	return Outcome{
		Success:    false,
		WindowUsed: req.Window,
		Message: fmt.Sprintf("No encontramos disponibilidad en %s. Intentamos: %s.",
			req.Destination, strings.Join(attempted, ", ")),
	}
}

// runPhase performs the occupancy-variant searches for one phase. A phase
// succeeds when the adults-only search yields offers; a failed with-minors
// search degrades to an empty set B rather than failing the phase.
func (o *Orchestrator) runPhase(ctx context.Context, req Request, window dates.Window, transport dates.Mode, phase string) (adultsSet, minorsSet []offer.Raw, ok bool) {
	adultsSet, err := o.searchWithRetry(ctx, automation.Request{
		Destination: req.Destination,
		Window:      window,
		Adults:      req.Passengers.Adults,
		Transport:   transport,
		Plan:        req.Plan,
	}, phase)
	if err != nil {
		o.logger.Info("phase failed", "phase", phase, "error", err)
		return nil, nil, false
	}

	if req.Passengers.Minors() > 0 {
		minorsSet, err = o.searchWithRetry(ctx, automation.Request{
			Destination: req.Destination,
			Window:      window,
			Adults:      req.Passengers.Adults,
			MinorAges:   req.Passengers.MinorAges,
			Transport:   transport,
			Plan:        req.Plan,
		}, phase)
		if err != nil {
			// The correlator knows how to degrade; losing the with-minors
			// variant must not lose the phase.
			o.logger.Warn("with-minors search failed, degrading",
				"phase", phase, "error", err)
			minorsSet = nil
		}
	}
	return adultsSet, minorsSet, true
}

// searchWithRetry absorbs transient automation failures with bounded,
// linearly backed-off retries. An explicit no-availability answer is final
// for the phase and is not retried.
func (o *Orchestrator) searchWithRetry(ctx context.Context, req automation.Request, phase string) ([]offer.Raw, error) {
	var lastErr error
	for attempt := 1; attempt <= o.cfg.PhaseAttempts; attempt++ {
		offers, err := o.automator.PerformSearch(ctx, req)
		if err == nil {
			return offers, nil
		}
		if errors.Is(err, automation.ErrNoResults) {
			return nil, err
		}
		lastErr = err

		o.metrics.IncPhaseRetries()
		o.logger.Warn("collaborator call failed",
			"phase", phase, "attempt", attempt, "error", err)
		if attempt < o.cfg.PhaseAttempts {
			if err := o.sleep(ctx, time.Duration(attempt)*o.cfg.RetryDelay); err != nil {
				return nil, err
			}
		}
	}
	return nil, fmt.Errorf("phase %s failed after %d attempts: %w", phase, o.cfg.PhaseAttempts, lastErr)
}

// editDates runs the atomic edit-and-resubmit with the same retry policy.
func (o *Orchestrator) editDates(ctx context.Context, window dates.Window, phase string) error {
	var lastErr error
	for attempt := 1; attempt <= o.cfg.PhaseAttempts; attempt++ {
		if err := o.automator.EditSearchDates(ctx, window); err == nil {
			return nil
		} else {
			lastErr = err
			o.metrics.IncPhaseRetries()
			o.logger.Warn("date edit failed",
				"phase", phase, "attempt", attempt, "error", err)
		}
		if attempt < o.cfg.PhaseAttempts {
			if err := o.sleep(ctx, time.Duration(attempt)*o.cfg.RetryDelay); err != nil {
				return err
			}
		}
	}
	return lastErr
}

// finish correlates, classifies, filters and ranks a successful phase.
func (o *Orchestrator) finish(req Request, window dates.Window, adultsSet, minorsSet []offer.Raw, lodgingOnly bool) Outcome {
	correlated := o.correlator.Correlate(adultsSet, minorsSet,
		req.Passengers.Adults, req.Passengers.Minors())

	annotated := make([]offer.Correlated, 0, len(correlated))
	for _, c := range correlated {
		annotated = append(annotated, o.classifier.Annotate(c))
	}

	annotated = promo.FilterNonRefundable(annotated, window.Start, o.now(), o.cfg.NonRefundableGraceDays)
	annotated = filterBudget(annotated, req.BudgetPerAdult)
	annotated = prioritizeHotel(annotated, req.DesiredHotel)

	promoted, cheapest := o.classifier.Rank(annotated, o.cfg.MaxPromotions, o.cfg.MaxCheapOptions)

	var msg strings.Builder
	if len(annotated) == 0 {
		fmt.Fprintf(&msg, "Hubo disponibilidad en %s pero ninguna opción pasó los filtros (presupuesto, reembolso).", req.Destination)
	} else {
		fmt.Fprintf(&msg, "Encontramos %d opciones en %s para %s.",
			len(annotated), req.Destination, window.String())
	}
	if window.Adjusted && window.AdjustmentNote != "" {
		msg.WriteString(" " + window.AdjustmentNote)
	}
	if lodgingOnly {
		msg.WriteString(" Aviso: disponibilidad mostrada sin transporte/vuelo.")
	}

	return Outcome{
		Success:             len(annotated) > 0,
		Offers:              annotated,
		Promoted:            promoted,
		Cheapest:            cheapest,
		WindowUsed:          window,
		LodgingOnlyFallback: lodgingOnly,
		Message:             msg.String(),
	}
}

func filterBudget(offers []offer.Correlated, budgetPerAdult float64) []offer.Correlated {
	if budgetPerAdult <= 0 {
		return offers
	}
	kept := offers[:0:0]
	for _, o := range offers {
		if o.PricePerAdult <= budgetPerAdult {
			kept = append(kept, o)
		}
	}
	return kept
}

// prioritizeHotel moves offers matching the requested hotel to the front,
// keeping relative order otherwise.
func prioritizeHotel(offers []offer.Correlated, desired string) []offer.Correlated {
	if desired == "" {
		return offers
	}
	want := offer.Normalize(desired)
	var matched, rest []offer.Correlated
	for _, o := range offers {
		if strings.Contains(offer.Normalize(o.Title), want) {
			matched = append(matched, o)
		} else {
			rest = append(rest, o)
		}
	}
	return append(matched, rest...)
}
