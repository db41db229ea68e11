package automation

// CSS classes and attributes of the results page. Kept apart from the
// parsing logic so selector churn on the site stays a one-file change.
const (
	offerClass     = "resultado-paquete"
	titleClass     = "titulo-hotel"
	roomClass      = "descripcion-habitacion"
	promoClass     = "etiqueta-promo"
	priceClass     = "precio-total"
	noResultsClass = "sin-disponibilidad"
	offerIDAttr    = "data-oferta-id"
	nonRefundAttr  = "data-no-reembolsable"
	searchPath     = "/buscar"
	editDatesPath  = "/editar-fechas"
	formDateLayout = "2006-01-02"
)
