package rentcast

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"rental-scout/internal/source"
)

const defaultBaseURL = "https://api.rentcast.io/v1"

// Client talks to the RentCast long-term rental listings API.
type Client struct {
	baseURL string
	apiKey  string
	client  *http.Client
	logger  *log.Logger
}

func NewClient(baseURL, apiKey string, logger *log.Logger) *Client {
	baseURL = strings.TrimSpace(baseURL)
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  strings.TrimSpace(apiKey),
		client:  &http.Client{Timeout: 15 * time.Second},
		logger:  logger,
	}
}

func (c *Client) Name() string {
	return "rentcast"
}

func (c *Client) Search(ctx context.Context, q source.SearchQuery) ([]source.RawListing, error) {
	if c == nil || c.client == nil {
		return nil, fmt.Errorf("%w: nil client", source.ErrUnavailable)
	}

	endpoint := c.baseURL + "/listings/rental/long-term?" + encodeQuery(q)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", source.ErrUnavailable, err)
	}
	req.Header.Set("X-Api-Key", c.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		if c.logger != nil {
			c.logger.Printf("[RentCast] request failed | error=%v", err)
		}
		return nil, fmt.Errorf("%w: %v", source.ErrUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		if c.logger != nil {
			c.logger.Printf("[RentCast] unexpected status | status=%d body=%q", resp.StatusCode, strings.TrimSpace(string(body)))
		}
		return nil, fmt.Errorf("%w: status=%d", source.ErrUnavailable, resp.StatusCode)
	}

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", source.ErrUnavailable, err)
	}

	records, err := decodeRecords(raw)
	if err != nil {
		if c.logger != nil {
			c.logger.Printf("[RentCast] malformed payload | error=%v", err)
		}
		return nil, fmt.Errorf("%w: %v", source.ErrUnavailable, err)
	}

	out := make([]source.RawListing, 0, len(records))
	for _, rec := range records {
		rl, ok := rec.toRawListing()
		if !ok {
			continue
		}
		out = append(out, rl)
	}
	return out, nil
}

func encodeQuery(q source.SearchQuery) string {
	v := url.Values{}
	if q.Location != "" {
		v.Set("location", q.Location)
	}
	if q.MinPrice != nil {
		v.Set("minPrice", strconv.Itoa(*q.MinPrice))
	}
	if q.MaxPrice != nil {
		v.Set("maxPrice", strconv.Itoa(*q.MaxPrice))
	}
	if q.MinBedrooms != nil {
		v.Set("minBedrooms", strconv.Itoa(*q.MinBedrooms))
	}
	if q.MinBathrooms != nil {
		v.Set("minBathrooms", strconv.FormatFloat(*q.MinBathrooms, 'f', -1, 64))
	}
	if q.PropertyType != "" {
		v.Set("propertyType", q.PropertyType)
	}
	if q.Status != "" {
		v.Set("status", q.Status)
	}
	v.Set("limit", strconv.Itoa(q.Limit))
	v.Set("offset", strconv.Itoa(q.Offset))
	return v.Encode()
}

type listingRecord struct {
	ID            string           `json:"id"`
	FormattedAddr string           `json:"formattedAddress"`
	Address       *recordAddress   `json:"address"`
	Price         float64          `json:"price"`
	Bedrooms      int              `json:"bedrooms"`
	Bathrooms     float64          `json:"bathrooms"`
	Description   string           `json:"description"`
	PropertyType  string           `json:"propertyType"`
	AvailableDate string           `json:"availableDate"`
	ListingURL    string           `json:"listingUrl"`
	Photos        []recordPhoto    `json:"photos"`
	ContactName   string           `json:"contactName"`
	ContactEmail  string           `json:"contactEmail"`
	ContactPhone  string           `json:"contactPhone"`
	Status        string           `json:"status"`
	payload       json.RawMessage
}

type recordAddress struct {
	Full string `json:"full"`
}

type recordPhoto struct {
	URL string `json:"url"`
}

// decodeRecords accepts both response shapes RentCast has used: a bare
// array of records and an object with a "data" array.
func decodeRecords(raw []byte) ([]listingRecord, error) {
	var items []json.RawMessage

	trimmed := strings.TrimSpace(string(raw))
	if strings.HasPrefix(trimmed, "[") {
		if err := json.Unmarshal(raw, &items); err != nil {
			return nil, err
		}
	} else {
		var envelope struct {
			Data []json.RawMessage `json:"data"`
		}
		if err := json.Unmarshal(raw, &envelope); err != nil {
			return nil, err
		}
		items = envelope.Data
	}

	records := make([]listingRecord, 0, len(items))
	for _, item := range items {
		var rec listingRecord
		if err := json.Unmarshal(item, &rec); err != nil {
			return nil, err
		}
		rec.payload = item
		records = append(records, rec)
	}
	return records, nil
}

func (r listingRecord) toRawListing() (source.RawListing, bool) {
	id := strings.TrimSpace(r.ID)
	if id == "" {
		return source.RawListing{}, false
	}

	addr := strings.TrimSpace(r.FormattedAddr)
	if addr == "" && r.Address != nil {
		addr = strings.TrimSpace(r.Address.Full)
	}

	var imageURL string
	if len(r.Photos) > 0 {
		imageURL = r.Photos[0].URL
	}

	title := fmt.Sprintf("%d bed %s for rent", r.Bedrooms, strings.ToLower(nonEmpty(r.PropertyType, "property")))

	return source.RawListing{
		ExternalID:    id,
		Title:         title,
		Description:   r.Description,
		Price:         r.Price,
		Bedrooms:      r.Bedrooms,
		Bathrooms:     r.Bathrooms,
		Address:       addr,
		URL:           r.ListingURL,
		ImageURL:      imageURL,
		PropertyType:  r.PropertyType,
		AvailableDate: r.AvailableDate,
		ContactName:   r.ContactName,
		ContactEmail:  r.ContactEmail,
		ContactPhone:  r.ContactPhone,
		Status:        r.Status,
		Payload:       append([]byte(nil), r.payload...),
	}, true
}

func nonEmpty(s, fallback string) string {
	if strings.TrimSpace(s) == "" {
		return fallback
	}
	return s
}

var _ source.Source = (*Client)(nil)
