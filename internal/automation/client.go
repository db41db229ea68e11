package automation

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"golang.org/x/net/html"
	"golang.org/x/time/rate"

	"github.com/FerX10/naturbot/internal/dates"
	"github.com/FerX10/naturbot/internal/offer"
)

// Client implements Automator against the automation service's HTTP surface,
// parsing the results HTML it returns. Calls are rate limited; the site
// throttles aggressive sessions.
type Client struct {
	baseURL    string
	httpClient *http.Client
	limiter    *rate.Limiter
	logger     *slog.Logger
}

// NewClient creates a new Client. ratePerSec bounds outgoing searches.
func NewClient(baseURL string, timeout time.Duration, ratePerSec float64, logger *slog.Logger) *Client {
	if ratePerSec <= 0 {
		ratePerSec = 1
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: timeout,
		},
		limiter: rate.NewLimiter(rate.Limit(ratePerSec), 1),
		logger:  logger,
	}
}

// PerformSearch submits the search form and parses the offer rows.
func (c *Client) PerformSearch(ctx context.Context, req Request) ([]offer.Raw, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	form := url.Values{}
	form.Set("destino", req.Destination)
	form.Set("inicio", req.Window.Start.Format(formDateLayout))
	form.Set("fin", req.Window.End.Format(formDateLayout))
	form.Set("adultos", strconv.Itoa(req.Adults))
	form.Set("transporte", string(req.Transport))
	if req.Plan != "" {
		form.Set("plan", req.Plan)
	}
	if len(req.MinorAges) > 0 {
		ages := make([]string, len(req.MinorAges))
		for i, a := range req.MinorAges {
			ages[i] = strconv.Itoa(a)
		}
		form.Set("edades_menores", strings.Join(ages, ","))
	}

	body, err := c.postForm(ctx, searchPath, form)
	if err != nil {
		return nil, err
	}

	variant := offer.AdultsOnly
	if len(req.MinorAges) > 0 {
		variant = offer.WithMinors
	}
	return parseOffers(body, variant)
}

// EditSearchDates re-enters the date fields and resubmits.
func (c *Client) EditSearchDates(ctx context.Context, w dates.Window) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return err
	}

	form := url.Values{}
	form.Set("inicio", w.Start.Format(formDateLayout))
	form.Set("fin", w.End.Format(formDateLayout))

	_, err := c.postForm(ctx, editDatesPath, form)
	return err
}

func (c *Client) postForm(ctx context.Context, path string, form url.Values) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path,
		strings.NewReader(form.Encode()))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		var urlErr *url.Error
		if errors.As(err, &urlErr) && urlErr.Timeout() {
			return nil, fmt.Errorf("%w: %s", ErrTimeout, path)
		}
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("automation service returned status %d: %s", resp.StatusCode, string(body))
	}

	return io.ReadAll(resp.Body)
}

// parseOffers walks the results document and extracts one Raw per offer node.
func parseOffers(body []byte, variant offer.Variant) ([]offer.Raw, error) {
	doc, err := html.Parse(bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to parse results page: %w", err)
	}

	var (
		offers    []offer.Raw
		noResults bool
	)

	var walker func(*html.Node)
	walker = func(n *html.Node) {
		if n.Type == html.ElementNode {
			if hasClass(n, noResultsClass) {
				noResults = true
				return
			}
			if hasClass(n, offerClass) {
				if o, ok := extractOffer(n, variant); ok {
					offers = append(offers, o)
				}
				return
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walker(c)
		}
	}
	walker(doc)

	if noResults || len(offers) == 0 {
		return nil, ErrNoResults
	}
	return offers, nil
}

func extractOffer(n *html.Node, variant offer.Variant) (offer.Raw, bool) {
	o := offer.Raw{
		ID:              attr(n, offerIDAttr),
		Title:           textByClass(n, titleClass),
		RoomDescription: textByClass(n, roomClass),
		PromoLabel:      textByClass(n, promoClass),
		Variant:         variant,
		Refundable:      attr(n, nonRefundAttr) != "true",
	}

	price, err := parsePrice(textByClass(n, priceClass))
	if err != nil || o.Title == "" {
		return offer.Raw{}, false
	}
	o.Price = price
	return o, true
}

// parsePrice accepts the site's money formats ("$9,500.00 MXN", "9500").
func parsePrice(s string) (float64, error) {
	cleaned := strings.Map(func(r rune) rune {
		switch {
		case r >= '0' && r <= '9', r == '.':
			return r
		default:
			return -1
		}
	}, s)
	if cleaned == "" {
		return 0, fmt.Errorf("no price in %q", s)
	}
	return strconv.ParseFloat(cleaned, 64)
}

func hasClass(n *html.Node, class string) bool {
	for _, f := range strings.Fields(attr(n, "class")) {
		if f == class {
			return true
		}
	}
	return false
}

func attr(n *html.Node, key string) string {
	for _, a := range n.Attr {
		if a.Key == key {
			return a.Val
		}
	}
	return ""
}

// textByClass returns the trimmed text content of the first descendant
// carrying the class.
func textByClass(n *html.Node, class string) string {
	var found *html.Node
	var walker func(*html.Node)
	walker = func(n *html.Node) {
		if found != nil {
			return
		}
		if n.Type == html.ElementNode && hasClass(n, class) {
			found = n
			return
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walker(c)
		}
	}
	walker(n)

	if found == nil {
		return ""
	}
	var b strings.Builder
	var collect func(*html.Node)
	collect = func(n *html.Node) {
		if n.Type == html.TextNode {
			b.WriteString(n.Data)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			collect(c)
		}
	}
	collect(found)
	return strings.Join(strings.Fields(b.String()), " ")
}
