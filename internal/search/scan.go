package search

import (
	"context"

	"github.com/FerX10/naturbot/internal/automation"
	"github.com/FerX10/naturbot/internal/dates"
	"github.com/FerX10/naturbot/internal/offer"
)

// ScanResult is the promoted offers found for one weekly window.
type ScanResult struct {
	Window dates.Window       `json:"window"`
	Offers []offer.Correlated `json:"offers"`
}

// ScanPromotions sweeps the upcoming Thursday→Sunday windows looking for
// promoted packages. Each window is a single adults-only search (2 adults);
// windows without availability are simply skipped. Used by the weekly
// promotion broadcast.
func (o *Orchestrator) ScanPromotions(ctx context.Context, destination string, weeks int) []ScanResult {
	now := o.now()
	windows := dates.WeeklyScanWindows(now, weeks, now)

	var results []ScanResult
	for _, window := range windows {
		raws, err := o.searchWithRetry(ctx, automation.Request{
			Destination: destination,
			Window:      window,
			Adults:      2,
			Transport:   dates.Ground,
		}, "barrido "+window.String())
		if err != nil {
			o.logger.Info("promotion scan window skipped",
				"window", window.String(), "error", err)
			continue
		}

		correlated := o.correlator.Correlate(raws, nil, 2, 0)
		annotated := make([]offer.Correlated, 0, len(correlated))
		for _, c := range correlated {
			annotated = append(annotated, o.classifier.Annotate(c))
		}

		promoted, _ := o.classifier.Rank(annotated, o.cfg.MaxPromotions, o.cfg.MaxCheapOptions)
		if len(promoted) == 0 {
			continue
		}
		results = append(results, ScanResult{Window: window, Offers: promoted})
	}
	return results
}
