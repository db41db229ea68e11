// Package messaging formats outcomes as plain text blocks and delivers them.
// The core stays agnostic to the delivery mechanism; only the Sender
// implementations know about a concrete chat platform.
package messaging

import (
	"fmt"
	"strings"

	"github.com/FerX10/naturbot/internal/offer"
	"github.com/FerX10/naturbot/internal/promo"
	"github.com/FerX10/naturbot/internal/search"
)

// Sender delivers one pre-formatted text block to a chat.
type Sender interface {
	Send(chatID, text string) error
}

// FormatOffer renders one offer as a text block.
func FormatOffer(o offer.Correlated) string {
	var b strings.Builder

	fmt.Fprintf(&b, "🏨 %s\n", o.Title)
	if o.RoomDescription != "" {
		fmt.Fprintf(&b, "Habitación: %s\n", o.RoomDescription)
	}
	fmt.Fprintf(&b, "Precio por adulto: $%.0f\n", o.PricePerAdult)
	if o.PricePerMinorAvg > 0 {
		fmt.Fprintf(&b, "Precio por menor (promedio): $%.0f\n", o.PricePerMinorAvg)
	}
	fmt.Fprintf(&b, "Total: $%.0f\n", o.TotalPrice)

	if len(o.Promotions) > 0 {
		fmt.Fprintf(&b, "Promociones: %s\n", strings.Join(o.Promotions, ", "))
	}
	if o.FareType == promo.FareNoRefundable {
		b.WriteString("⚠️ Tarifa no reembolsable\n")
	}
	return strings.TrimRight(b.String(), "\n")
}

// FormatOutcome renders the whole outcome: one block per offer (promoted
// first) plus a trailing summary block.
func FormatOutcome(out search.Outcome) []string {
	if !out.Success {
		return []string{out.Message}
	}

	var blocks []string
	for _, o := range out.Promoted {
		blocks = append(blocks, "⭐ "+FormatOffer(o))
	}
	for _, o := range out.Cheapest {
		blocks = append(blocks, FormatOffer(o))
	}
	blocks = append(blocks, out.Message)
	return blocks
}

// Deliver sends every block of the outcome to the chat, stopping at the
// first delivery error.
func Deliver(s Sender, chatID string, out search.Outcome) error {
	for _, block := range FormatOutcome(out) {
		if err := s.Send(chatID, block); err != nil {
			return fmt.Errorf("failed to deliver block: %w", err)
		}
	}
	return nil
}
