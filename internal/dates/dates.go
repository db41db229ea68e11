// Package dates plans and adjusts the date windows a search may run with.
// Ground (bus/charter) departures only operate on Thursdays and Sundays, so
// ground windows are snapped forward onto those weekdays before any search
// is attempted.
package dates

import (
	"errors"
	"fmt"
	"time"
)

// Mode is the transport requested alongside the lodging.
type Mode string

const (
	Ground Mode = "ground"
	Air    Mode = "air"
	None   Mode = "none"
)

var ErrInvalidDateRange = errors.New("invalid date range")

const dayLayout = "02/01/2006"

// Window is one candidate date range for a search. A window is built once by
// Plan and replaced, never mutated, when the retry machinery shifts it.
type Window struct {
	Start          time.Time `json:"start"`
	End            time.Time `json:"end"`
	Nights         int       `json:"nights"`
	Transport      Mode      `json:"transport"`
	Adjusted       bool      `json:"adjusted"`
	AdjustmentNote string    `json:"adjustment_note,omitempty"`
}

func (w Window) String() string {
	return fmt.Sprintf("%s → %s (%d noches)", w.Start.Format(dayLayout), w.End.Format(dayLayout), w.Nights)
}

func validGroundDay(d time.Weekday) bool {
	return d == time.Thursday || d == time.Sunday
}

// ValidGroundPair reports whether the window's weekday pair is one of the
// four operable ground patterns (Thu→Sun, Sun→Thu, Thu→Thu, Sun→Sun).
func ValidGroundPair(w Window) bool {
	return validGroundDay(w.Start.Weekday()) && validGroundDay(w.End.Weekday()) && w.End.After(w.Start)
}

// truncateDay drops the time-of-day component; all window math is whole days.
func truncateDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

// nextGroundDay shifts d forward (possibly zero days) to the nearer of the
// next Thursday or next Sunday.
func nextGroundDay(d time.Time) time.Time {
	if validGroundDay(d.Weekday()) {
		return d
	}
	toThu := daysUntil(d.Weekday(), time.Thursday)
	toSun := daysUntil(d.Weekday(), time.Sunday)
	if toThu < toSun {
		return d.AddDate(0, 0, toThu)
	}
	return d.AddDate(0, 0, toSun)
}

func daysUntil(from, to time.Weekday) int {
	return (int(to) - int(from) + 7) % 7
}

// bestGroundNights picks the night count closest to requested among the
// patterns reachable from the given start weekday. Ties keep the requested
// trip length when possible, otherwise the shorter stay.
func bestGroundNights(start time.Weekday, requested int) int {
	best := -1
	for _, target := range []time.Weekday{time.Thursday, time.Sunday} {
		base := daysUntil(start, target)
		if base == 0 {
			base = 7
		}
		// Nearest multiple base+7k to the requested length.
		n := base
		for n+7 <= requested {
			n += 7
		}
		if abs(n+7-requested) < abs(n-requested) {
			n += 7
		}
		if best == -1 || abs(n-requested) < abs(best-requested) ||
			(abs(n-requested) == abs(best-requested) && n < best) {
			best = n
		}
	}
	return best
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}

// Plan builds the initial window for a requested range. Zero-night, inverted
// or fully past ranges are rejected before any collaborator call. Ground
// windows are snapped forward onto a valid Thursday/Sunday pattern,
// preferring the pattern whose night count is closest to the request.
func Plan(start, end time.Time, transport Mode, now time.Time) (Window, error) {
	start, end, now = truncateDay(start), truncateDay(end), truncateDay(now)

	if !end.After(start) {
		return Window{}, fmt.Errorf("%w: la salida debe ser posterior a la llegada (%s → %s)",
			ErrInvalidDateRange, start.Format(dayLayout), end.Format(dayLayout))
	}
	if end.Before(now) {
		return Window{}, fmt.Errorf("%w: el rango %s → %s ya pasó",
			ErrInvalidDateRange, start.Format(dayLayout), end.Format(dayLayout))
	}

	nights := int(end.Sub(start).Hours() / 24)
	w := Window{Start: start, End: end, Nights: nights, Transport: transport}
	if transport != Ground {
		return w, nil
	}

	adjStart := nextGroundDay(start)
	adjEnd := nextGroundDay(end)
	if !adjEnd.After(adjStart) || !validGroundDay(adjEnd.Weekday()) {
		adjEnd = adjStart.AddDate(0, 0, bestGroundNights(adjStart.Weekday(), nights))
	}

	if adjStart.Equal(start) && adjEnd.Equal(end) {
		return w, nil
	}

	adjusted := Window{
		Start:     adjStart,
		End:       adjEnd,
		Nights:    int(adjEnd.Sub(adjStart).Hours() / 24),
		Transport: transport,
		Adjusted:  true,
		AdjustmentNote: fmt.Sprintf("Fechas ajustadas de %s → %s a %s → %s: las salidas en autobús operan jueves y domingo.",
			start.Format(dayLayout), end.Format(dayLayout),
			adjStart.Format(dayLayout), adjEnd.Format(dayLayout)),
	}
	return adjusted, nil
}

// ShiftWeeks returns the window moved k weeks forward. The weekday pattern
// and night count are preserved, so a valid ground window stays valid.
func ShiftWeeks(w Window, k int) Window {
	shifted := Window{
		Start:     w.Start.AddDate(0, 0, 7*k),
		End:       w.End.AddDate(0, 0, 7*k),
		Nights:    w.Nights,
		Transport: w.Transport,
		Adjusted:  true,
	}
	shifted.AdjustmentNote = fmt.Sprintf("Ventana desplazada %d semana(s): %s", k, shifted.String())
	return shifted
}

// WeeklyScanWindows generates the consecutive Thursday→Sunday windows used
// by the batch promotion scan, spanning the given number of weeks and
// skipping any window that already ended.
func WeeklyScanWindows(from time.Time, weeks int, now time.Time) []Window {
	from, now = truncateDay(from), truncateDay(now)

	first := from.AddDate(0, 0, daysUntil(from.Weekday(), time.Thursday))
	var windows []Window
	for i := 0; i < weeks; i++ {
		start := first.AddDate(0, 0, 7*i)
		end := start.AddDate(0, 0, 3)
		if end.Before(now) {
			continue
		}
		windows = append(windows, Window{
			Start:     start,
			End:       end,
			Nights:    3,
			Transport: Ground,
		})
	}
	return windows
}
