package main

import (
	"fmt"
	"html/template"
	"log/slog"
	"net/http"
	"strings"
	"sync"
	"time"
)

// pkg is one package the fake site can offer.
type pkg struct {
	id         string
	title      string
	room       string
	promo      string
	baseAdult  float64
	minorRate  float64
	refundable bool
}

// fakeSite mimics the booking site's search session. Availability opens at
// a fixed date so early windows come back empty, and an edited date range
// sticks for later searches, like the real session does.
type fakeSite struct {
	mu            sync.Mutex
	start, end    string
	availableFrom time.Time
	packages      []pkg
	logger        *slog.Logger
}

func newFakeSite(availableFrom time.Time, logger *slog.Logger) *fakeSite {
	return &fakeSite{
		availableFrom: availableFrom,
		logger:        logger,
		packages: []pkg{
			{
				id:         "PKG001",
				title:      "Hotel Playa Dorada",
				room:       "Habitación doble vista al mar",
				promo:      "Menores gratis",
				baseAdult:  4200,
				minorRate:  0,
				refundable: true,
			},
			{
				id:         "PKG002",
				title:      "Gran Hotel del Centro",
				room:       "Habitación estándar",
				baseAdult:  3100,
				minorRate:  1500,
				refundable: true,
			},
			{
				id:         "PKG003",
				title:      "Resort Laguna Azul",
				room:       "Junior suite",
				promo:      "20% descuento",
				baseAdult:  5600,
				minorRate:  1800,
				refundable: false,
			},
		},
	}
}

type offerRow struct {
	ID            string
	Title         string
	Room          string
	Promo         string
	Price         string
	NonRefundable bool
}

var resultsTmpl = template.Must(template.New("results").Parse(`<html><body>
<div class="resultados">
{{range .}}<div class="resultado-paquete" data-oferta-id="{{.ID}}"{{if .NonRefundable}} data-no-reembolsable="true"{{end}}>
  <h3 class="titulo-hotel">{{.Title}}</h3>
  <p class="descripcion-habitacion">{{.Room}}</p>
  {{if .Promo}}<span class="etiqueta-promo">{{.Promo}}</span>{{end}}
  <span class="precio-total">{{.Price}}</span>
</div>
{{end}}</div>
</body></html>
`))

const noResultsPage = `<html><body>
<div class="sin-disponibilidad">No encontramos paquetes para las fechas seleccionadas.</div>
</body></html>
`

// searchHandler renders the results page for the posted form. Dates posted
// here override whatever /editar-fechas set earlier, same as a fresh form
// submission on the site.
func (s *fakeSite) searchHandler(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "malformed form", http.StatusBadRequest)
		return
	}

	destination := strings.TrimSpace(r.FormValue("destino"))
	adults := strings.TrimSpace(r.FormValue("adultos"))
	if destination == "" || adults == "" {
		http.Error(w, "destino y adultos son obligatorios", http.StatusBadRequest)
		return
	}

	s.mu.Lock()
	if v := r.FormValue("inicio"); v != "" {
		s.start = v
	}
	if v := r.FormValue("fin"); v != "" {
		s.end = v
	}
	start := s.start
	s.mu.Unlock()

	minors := 0
	if ages := strings.TrimSpace(r.FormValue("edades_menores")); ages != "" {
		minors = len(strings.Split(ages, ","))
	}

	s.logger.Info("search",
		"destination", destination,
		"start", start,
		"adults", adults,
		"minors", minors,
		"transport", r.FormValue("transporte"))

	w.Header().Set("Content-Type", "text/html; charset=utf-8")

	if !s.available(start) {
		if _, err := w.Write([]byte(noResultsPage)); err != nil {
			s.logger.Error("failed to write response", "error", err)
		}
		return
	}

	rows := make([]offerRow, 0, len(s.packages))
	for _, p := range s.packages {
		rows = append(rows, offerRow{
			ID:            p.id,
			Title:         p.title,
			Room:          p.room,
			Promo:         p.promo,
			Price:         formatPrice(p.baseAdult*2 + p.minorRate*float64(minors)),
			NonRefundable: !p.refundable,
		})
	}
	if err := resultsTmpl.Execute(w, rows); err != nil {
		s.logger.Error("failed to render results", "error", err)
	}
}

// editDatesHandler updates the session's date range.
func (s *fakeSite) editDatesHandler(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "malformed form", http.StatusBadRequest)
		return
	}

	start := strings.TrimSpace(r.FormValue("inicio"))
	end := strings.TrimSpace(r.FormValue("fin"))
	if start == "" || end == "" {
		http.Error(w, "inicio y fin son obligatorios", http.StatusBadRequest)
		return
	}

	s.mu.Lock()
	s.start, s.end = start, end
	s.mu.Unlock()

	s.logger.Info("dates edited", "start", start, "end", end)
	w.WriteHeader(http.StatusOK)
}

// available reports whether the requested start date has opened up.
func (s *fakeSite) available(start string) bool {
	d, err := time.Parse("2006-01-02", start)
	if err != nil {
		return false
	}
	return !d.Before(s.availableFrom)
}

func formatPrice(v float64) string {
	return fmt.Sprintf("$%.2f MXN", v)
}
