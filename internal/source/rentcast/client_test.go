package rentcast

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"rental-scout/internal/source"
)

const recordJSON = `{
	"id": "3821-Hargis-St,-Austin,-TX-78723",
	"formattedAddress": "3821 Hargis St, Austin, TX 78723",
	"price": 1500,
	"bedrooms": 2,
	"bathrooms": 1,
	"description": "Remodeled duplex",
	"propertyType": "Apartment",
	"status": "Active",
	"listingUrl": "https://example.com/3821"
}`

func testQuery() source.SearchQuery {
	return source.SearchQuery{Location: "Austin, TX", Status: "Active", Limit: 100}
}

func TestSearch_BareArrayPayload(t *testing.T) {
	var gotKey, gotLocation string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotKey = r.Header.Get("X-Api-Key")
		gotLocation = r.URL.Query().Get("location")
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte("[" + recordJSON + "]"))
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "test-key", nil)
	listings, err := c.Search(context.Background(), testQuery())
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}

	if gotKey != "test-key" {
		t.Fatalf("api key header missing, got %q", gotKey)
	}
	if gotLocation != "Austin, TX" {
		t.Fatalf("location not forwarded, got %q", gotLocation)
	}

	if len(listings) != 1 {
		t.Fatalf("expected 1 listing, got %d", len(listings))
	}
	l := listings[0]
	if l.ExternalID != "3821-Hargis-St,-Austin,-TX-78723" {
		t.Fatalf("unexpected external id %q", l.ExternalID)
	}
	if l.Price != 1500 || l.Bedrooms != 2 {
		t.Fatalf("fields not mapped: %+v", l)
	}
	if l.Title != "2 bed apartment for rent" {
		t.Fatalf("unexpected title %q", l.Title)
	}
	if len(l.Payload) == 0 {
		t.Fatalf("raw payload must be preserved")
	}
}

func TestSearch_DataEnvelopePayload(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"data":[` + recordJSON + `]}`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "test-key", nil)
	listings, err := c.Search(context.Background(), testQuery())
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if len(listings) != 1 {
		t.Fatalf("expected 1 listing, got %d", len(listings))
	}
}

func TestSearch_SkipsRecordsWithoutID(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`[{"price": 900}, ` + recordJSON + `]`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "test-key", nil)
	listings, err := c.Search(context.Background(), testQuery())
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if len(listings) != 1 {
		t.Fatalf("id-less record must be dropped, got %d listings", len(listings))
	}
}

func TestSearch_NonSuccessStatusIsUnavailable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error":"rate limited"}`, http.StatusTooManyRequests)
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "test-key", nil)
	_, err := c.Search(context.Background(), testQuery())
	if !errors.Is(err, source.ErrUnavailable) {
		t.Fatalf("expected ErrUnavailable, got %v", err)
	}
}

func TestSearch_MalformedPayloadIsUnavailable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`[{"id": "x"`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "test-key", nil)
	_, err := c.Search(context.Background(), testQuery())
	if !errors.Is(err, source.ErrUnavailable) {
		t.Fatalf("expected ErrUnavailable, got %v", err)
	}
}

func TestSearch_ConnectionFailureIsUnavailable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	srv.Close()

	c := NewClient(srv.URL, "test-key", nil)
	_, err := c.Search(context.Background(), testQuery())
	if !errors.Is(err, source.ErrUnavailable) {
		t.Fatalf("expected ErrUnavailable, got %v", err)
	}
}
