package offer

// Variant tells which occupancy a raw offer was fetched with. The site only
// prices a fixed occupancy per search, so minors are priced by running two
// searches and correlating the rows.
type Variant string

const (
	AdultsOnly Variant = "adults_only"
	WithMinors Variant = "with_minors"
)

// Raw is one row scraped from a results page. Read-only once received.
type Raw struct {
	ID              string  `json:"id"`
	Title           string  `json:"title"`
	RoomDescription string  `json:"room_description"`
	PromoLabel      string  `json:"promo_label,omitempty"`
	Price           float64 `json:"price"`
	Refundable      bool    `json:"refundable"`
	Variant         Variant `json:"source_variant"`
}

// Correlated is a priced offer produced by matching the two search variants,
// annotated later by the promotion classifier.
type Correlated struct {
	Raw

	PricePerAdult    float64  `json:"price_per_adult"`
	PricePerMinorAvg float64  `json:"price_per_minor_avg"`
	TotalPrice       float64  `json:"total_price"`
	FareType         string   `json:"fare_type,omitempty"`
	Confidence       float64  `json:"correlation_confidence"`
	Promotions       []string `json:"promotions,omitempty"`
	PromotionScore   int      `json:"promotion_score"`
}
