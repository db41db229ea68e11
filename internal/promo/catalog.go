package promo

// Canonical promotion labels, as shown to the user. Matching happens on
// normalized text via the catalog phrases, which are stored pre-normalized.
const (
	LabelMenoresGratis     = "Menores gratis"
	LabelGarantia          = "Garantía NaturCharter"
	LabelNochesGratis      = "Noches gratis"
	LabelTodoIncluido      = "Todo incluido"
	LabelDescuento         = "Descuento"
	LabelUpgrade           = "Upgrade de habitación"
	LabelEntregaAnticipada = "Entrega anticipada de la habitación"
	LabelDesayunoIncluido  = "Desayuno incluido"
	LabelLateCheckout      = "Late checkout"
	LabelCenaGratis        = "Cena gratis"
	LabelTrasladoGratis    = "Traslado gratis"
	LabelSpaGratis         = "Spa gratis"
	LabelWifiGratis        = "WiFi gratis"
)

// CatalogEntry maps one target phrase to its canonical label. Several
// phrases may map to the same label; results are deduplicated.
type CatalogEntry struct {
	Phrase string
	Label  string
}

// DefaultCatalog is the fixed set of target phrases the site is known to use.
func DefaultCatalog() []CatalogEntry {
	return []CatalogEntry{
		{"menores gratis", LabelMenoresGratis},
		{"ninos gratis", LabelMenoresGratis},
		{"garantia naturcharter", LabelGarantia},
		{"noches gratis", LabelNochesGratis},
		{"noche gratis", LabelNochesGratis},
		{"todo incluido", LabelTodoIncluido},
		{"upgrade de habitacion", LabelUpgrade},
		{"entrega anticipada de la habitacion", LabelEntregaAnticipada},
		{"entrega anticipada", LabelEntregaAnticipada},
		{"desayuno incluido", LabelDesayunoIncluido},
		{"late checkout", LabelLateCheckout},
		{"salida tardia", LabelLateCheckout},
	}
}

// DefaultWeights scores each canonical label; unlisted labels fall back to
// defaultLabelWeight.
func DefaultWeights() map[string]int {
	return map[string]int{
		LabelMenoresGratis:     100,
		LabelGarantia:          80,
		LabelNochesGratis:      70,
		LabelTodoIncluido:      60,
		LabelDescuento:         50,
		LabelUpgrade:           45,
		LabelEntregaAnticipada: 40,
		LabelDesayunoIncluido:  35,
		LabelLateCheckout:      30,
		LabelCenaGratis:        25,
		LabelTrasladoGratis:    20,
		LabelSpaGratis:         20,
		LabelWifiGratis:        10,
	}
}

const (
	defaultLabelWeight  = 15
	multiPromoBonusStep = 5
)

// Fare types, most operationally significant first.
const (
	FareNoRefundable          = "NO_REFUNDABLE"
	FareOnRequest             = "ON_REQUEST"
	FareImmediateConfirmation = "IMMEDIATE_CONFIRMATION"
	FareSpecialRate           = "SPECIAL_RATE"
	FareStandard              = "STANDARD"
)

type fareGroup struct {
	fare     string
	keywords []string
}

// defaultFareGroups are checked in order, first match wins. Non-refundable
// keywords go first because misclassifying those costs real money.
func defaultFareGroups() []fareGroup {
	return []fareGroup{
		{FareNoRefundable, []string{"no reembolsable", "no rembolsable", "sin reembolso", "non refundable", "tarifa no reembolsable"}},
		{FareOnRequest, []string{"bajo peticion", "a peticion", "on request", "sujeto a disponibilidad"}},
		{FareImmediateConfirmation, []string{"confirmacion inmediata", "confirmacion al instante"}},
		{FareSpecialRate, []string{"tarifa especial", "oferta especial", "precio especial"}},
	}
}
