package portal

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/url"
	"strconv"
	"strings"
	"time"

	"rental-scout/internal/source"

	"github.com/gocolly/colly/v2"
)

const requestTimeout = 15 * time.Second

// Adapter scrapes a server-rendered rental board. It is enabled only when
// a base URL is configured; boards that need a JS runtime are out of scope.
type Adapter struct {
	baseURL     string
	allowedHost string
	logger      *log.Logger
}

func NewAdapter(baseURL string, logger *log.Logger) *Adapter {
	baseURL = strings.TrimSpace(baseURL)
	if baseURL == "" {
		return nil
	}
	return &Adapter{
		baseURL:     strings.TrimRight(baseURL, "/"),
		allowedHost: hostFromBaseURL(baseURL),
		logger:      logger,
	}
}

func (a *Adapter) Name() string {
	return "portal"
}

type card struct {
	ID           string  `json:"id"`
	Title        string  `json:"title"`
	Description  string  `json:"description"`
	Price        float64 `json:"price"`
	Bedrooms     int     `json:"bedrooms"`
	Bathrooms    float64 `json:"bathrooms"`
	Address      string  `json:"address"`
	URL          string  `json:"url"`
	ImageURL     string  `json:"image_url"`
	PropertyType string  `json:"property_type"`
}

func (a *Adapter) Search(ctx context.Context, q source.SearchQuery) ([]source.RawListing, error) {
	if a == nil {
		return nil, fmt.Errorf("%w: nil adapter", source.ErrUnavailable)
	}

	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("%w: %v", source.ErrUnavailable, err)
	}

	listURL := a.baseURL + "/rentals?" + encodeQuery(q)

	c := colly.NewCollector(
		colly.AllowedDomains(a.allowedHost),
	)
	c.SetRequestTimeout(scrapeTimeout(ctx))

	cards := make([]card, 0, q.Limit)
	var scrapeErr error

	c.OnHTML("div.listing-card", func(e *colly.HTMLElement) {
		if q.Limit > 0 && len(cards) >= q.Limit {
			return
		}
		it := card{
			ID:           strings.TrimSpace(e.Attr("data-listing-id")),
			Title:        strings.TrimSpace(e.ChildText("h3.listing-title")),
			Description:  strings.TrimSpace(e.ChildText("p.listing-description")),
			Price:        parsePrice(e.ChildText("span.listing-price")),
			Bedrooms:     parseInt(e.ChildAttr("span.listing-beds", "data-value")),
			Bathrooms:    parseFloat(e.ChildAttr("span.listing-baths", "data-value")),
			Address:      strings.TrimSpace(e.ChildText("span.listing-address")),
			URL:          e.Request.AbsoluteURL(e.ChildAttr("a.listing-link", "href")),
			ImageURL:     e.ChildAttr("img.listing-photo", "src"),
			PropertyType: strings.TrimSpace(e.Attr("data-property-type")),
		}
		cards = append(cards, it)
	})

	c.OnError(func(r *colly.Response, err error) {
		scrapeErr = err
		if a.logger != nil {
			status := 0
			if r != nil {
				status = r.StatusCode
			}
			a.logger.Printf("[Portal] scrape failed | url=%s status=%d error=%v", listURL, status, err)
		}
	})

	if err := c.Visit(listURL); err != nil {
		return nil, fmt.Errorf("%w: %v", source.ErrUnavailable, err)
	}
	c.Wait()

	if scrapeErr != nil {
		return nil, fmt.Errorf("%w: %v", source.ErrUnavailable, scrapeErr)
	}

	out := make([]source.RawListing, 0, len(cards))
	for _, it := range cards {
		if it.ID == "" {
			continue
		}
		payload, _ := json.Marshal(it)
		out = append(out, source.RawListing{
			ExternalID:   "portal-" + it.ID,
			Title:        it.Title,
			Description:  it.Description,
			Price:        it.Price,
			Bedrooms:     it.Bedrooms,
			Bathrooms:    it.Bathrooms,
			Address:      it.Address,
			URL:          it.URL,
			ImageURL:     it.ImageURL,
			PropertyType: it.PropertyType,
			Status:       "Active",
			Payload:      payload,
		})
	}
	return out, nil
}

func encodeQuery(q source.SearchQuery) string {
	v := url.Values{}
	if q.Location != "" {
		v.Set("location", q.Location)
	}
	if q.MinPrice != nil {
		v.Set("min_price", strconv.Itoa(*q.MinPrice))
	}
	if q.MaxPrice != nil {
		v.Set("max_price", strconv.Itoa(*q.MaxPrice))
	}
	if q.MinBedrooms != nil {
		v.Set("min_beds", strconv.Itoa(*q.MinBedrooms))
	}
	if q.PropertyType != "" {
		v.Set("type", q.PropertyType)
	}
	return v.Encode()
}

// scrapeTimeout bounds one scrape at requestTimeout, tightened to the
// context deadline when the caller set a shorter one.
func scrapeTimeout(ctx context.Context) time.Duration {
	timeout := requestTimeout
	if deadline, ok := ctx.Deadline(); ok {
		if remaining := time.Until(deadline); remaining < timeout {
			timeout = remaining
		}
	}
	if timeout <= 0 {
		timeout = time.Millisecond
	}
	return timeout
}

func hostFromBaseURL(baseURL string) string {
	u, err := url.Parse(strings.TrimSpace(baseURL))
	if err != nil || u.Host == "" {
		return ""
	}
	return u.Hostname()
}

func parsePrice(s string) float64 {
	s = strings.TrimSpace(s)
	s = strings.TrimPrefix(s, "$")
	s = strings.ReplaceAll(s, ",", "")
	s = strings.TrimSuffix(s, "/mo")
	return parseFloat(s)
}

func parseInt(s string) int {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return 0
	}
	return n
}

func parseFloat(s string) float64 {
	f, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return 0
	}
	return f
}

var _ source.Source = (*Adapter)(nil)
