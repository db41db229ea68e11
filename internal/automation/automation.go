// Package automation is the boundary to the page-automation collaborator:
// the stateful browser session that actually drives the booking site. The
// retry and correlation core only ever talks to the Automator interface, so
// it stays testable without a browser.
package automation

import (
	"context"
	"errors"

	"github.com/FerX10/naturbot/internal/dates"
	"github.com/FerX10/naturbot/internal/offer"
)

var (
	// ErrTimeout is a collaborator-level timeout (page readiness, selector
	// visibility, calendar rendering). Recovered by the retry machinery.
	ErrTimeout = errors.New("automation timeout")

	// ErrNoResults means the site answered with an explicit no-availability
	// page rather than failing.
	ErrNoResults = errors.New("no availability")
)

// Request is one structured search against the site.
type Request struct {
	Destination string
	Window      dates.Window
	Adults      int
	MinorAges   []int
	Transport   dates.Mode
	Plan        string
}

// Automator drives one exclusive browser session against the booking site.
// Only one logical search may be in flight at a time; the job queue enforces
// that upstream.
type Automator interface {
	// PerformSearch fills and submits the search form and scrapes the
	// resulting offer rows.
	PerformSearch(ctx context.Context, req Request) ([]offer.Raw, error)

	// EditSearchDates re-enters the date fields of the already-submitted
	// form and resubmits, as one atomic operation.
	EditSearchDates(ctx context.Context, w dates.Window) error
}
