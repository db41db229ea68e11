package messaging_test

import (
	"strings"
	"testing"

	"github.com/FerX10/naturbot/internal/messaging"
	"github.com/FerX10/naturbot/internal/offer"
	"github.com/FerX10/naturbot/internal/promo"
	"github.com/FerX10/naturbot/internal/search"
)

func TestFormatOffer(t *testing.T) {
	o := offer.Correlated{
		Raw: offer.Raw{
			Title:           "Hotel Sol",
			RoomDescription: "Vista al Mar Deluxe",
		},
		PricePerAdult:    4000,
		PricePerMinorAvg: 1500,
		TotalPrice:       9500,
		Promotions:       []string{promo.LabelMenoresGratis},
		FareType:         promo.FareStandard,
	}

	text := messaging.FormatOffer(o)

	for _, want := range []string{
		"Hotel Sol",
		"Vista al Mar Deluxe",
		"$4000",
		"$1500",
		"$9500",
		promo.LabelMenoresGratis,
	} {
		if !strings.Contains(text, want) {
			t.Errorf("block missing %q:\n%s", want, text)
		}
	}
}

func TestFormatOffer_NonRefundableWarning(t *testing.T) {
	o := offer.Correlated{
		Raw:      offer.Raw{Title: "Hotel Luna"},
		FareType: promo.FareNoRefundable,
	}
	if !strings.Contains(messaging.FormatOffer(o), "no reembolsable") {
		t.Error("expected non-refundable warning in block")
	}
}

func TestFormatOffer_NoMinorsLineWithoutMinors(t *testing.T) {
	o := offer.Correlated{Raw: offer.Raw{Title: "Hotel Sol"}, PricePerAdult: 3000}
	if strings.Contains(messaging.FormatOffer(o), "menor") {
		t.Error("unexpected minors line for adults-only offer")
	}
}

func TestFormatOutcome(t *testing.T) {
	out := search.Outcome{
		Success: true,
		Promoted: []offer.Correlated{
			{Raw: offer.Raw{Title: "Promoted"}, Promotions: []string{promo.LabelMenoresGratis}},
		},
		Cheapest: []offer.Correlated{
			{Raw: offer.Raw{Title: "Cheap"}},
		},
		Message: "Encontramos 2 opciones.",
	}

	blocks := messaging.FormatOutcome(out)
	if len(blocks) != 3 {
		t.Fatalf("expected 3 blocks, got %d", len(blocks))
	}
	if !strings.HasPrefix(blocks[0], "⭐") {
		t.Errorf("promoted block should lead: %q", blocks[0])
	}
	if blocks[2] != out.Message {
		t.Errorf("summary must be the last block, got %q", blocks[2])
	}
}

func TestFormatOutcome_Failure(t *testing.T) {
	out := search.Outcome{Success: false, Message: "No encontramos disponibilidad."}
	blocks := messaging.FormatOutcome(out)
	if len(blocks) != 1 || blocks[0] != out.Message {
		t.Errorf("failure outcome should be a single message block, got %v", blocks)
	}
}

// recordingSender captures delivered blocks.
type recordingSender struct {
	blocks []string
}

func (r *recordingSender) Send(chatID, text string) error {
	r.blocks = append(r.blocks, text)
	return nil
}

func TestDeliver(t *testing.T) {
	s := &recordingSender{}
	out := search.Outcome{
		Success:  true,
		Cheapest: []offer.Correlated{{Raw: offer.Raw{Title: "Hotel Sol"}}},
		Message:  "resumen",
	}

	if err := messaging.Deliver(s, "123", out); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(s.blocks) != 2 {
		t.Fatalf("expected 2 delivered blocks, got %d", len(s.blocks))
	}
}
