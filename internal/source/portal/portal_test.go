package portal

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"rental-scout/internal/source"
)

const boardHTML = `<!DOCTYPE html>
<html><body>
<div class="listing-card" data-listing-id="4412" data-property-type="Duplex">
  <h3 class="listing-title">Sunny duplex near the park</h3>
  <p class="listing-description">Two bedrooms, fenced yard.</p>
  <span class="listing-price">$1,450/mo</span>
  <span class="listing-beds" data-value="2"></span>
  <span class="listing-baths" data-value="1.5"></span>
  <span class="listing-address">44 Elm St</span>
  <a class="listing-link" href="/rentals/4412">View</a>
  <img class="listing-photo" src="https://img.example.com/4412.jpg">
</div>
<div class="listing-card">
  <h3 class="listing-title">Card without an id is dropped</h3>
</div>
</body></html>`

func TestSearch_ParsesListingCards(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/rentals" {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "text/html")
		_, _ = w.Write([]byte(boardHTML))
	}))
	defer srv.Close()

	a := NewAdapter(srv.URL, nil)
	listings, err := a.Search(context.Background(), source.SearchQuery{Location: "Austin, TX", Limit: 100})
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if len(listings) != 1 {
		t.Fatalf("expected 1 listing, got %d", len(listings))
	}

	l := listings[0]
	if l.ExternalID != "portal-4412" {
		t.Fatalf("unexpected external id %q", l.ExternalID)
	}
	if l.Price != 1450 {
		t.Fatalf("price not parsed, got %v", l.Price)
	}
	if l.Bedrooms != 2 || l.Bathrooms != 1.5 {
		t.Fatalf("beds/baths wrong: %d %v", l.Bedrooms, l.Bathrooms)
	}
	if l.PropertyType != "Duplex" {
		t.Fatalf("property type wrong: %q", l.PropertyType)
	}
	if l.URL == "" || l.Status != "Active" {
		t.Fatalf("url/status wrong: %q %q", l.URL, l.Status)
	}
	if len(l.Payload) == 0 {
		t.Fatalf("payload must carry the parsed card")
	}
}

func TestSearch_ServerErrorIsUnavailable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "down", http.StatusBadGateway)
	}))
	defer srv.Close()

	a := NewAdapter(srv.URL, nil)
	_, err := a.Search(context.Background(), source.SearchQuery{Location: "Austin, TX"})
	if !errors.Is(err, source.ErrUnavailable) {
		t.Fatalf("expected ErrUnavailable, got %v", err)
	}
}

func TestSearch_CancelledContextIsUnavailable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Error("server must not be reached with a cancelled context")
	}))
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	a := NewAdapter(srv.URL, nil)
	_, err := a.Search(ctx, source.SearchQuery{Location: "Austin, TX"})
	if !errors.Is(err, source.ErrUnavailable) {
		t.Fatalf("expected ErrUnavailable, got %v", err)
	}
}

func TestSearch_DeadlineBoundsSlowServer(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(2 * time.Second)
		_, _ = w.Write([]byte(boardHTML))
	}))
	defer srv.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()

	start := time.Now()
	a := NewAdapter(srv.URL, nil)
	_, err := a.Search(ctx, source.SearchQuery{Location: "Austin, TX"})
	if !errors.Is(err, source.ErrUnavailable) {
		t.Fatalf("expected ErrUnavailable, got %v", err)
	}
	if time.Since(start) > time.Second {
		t.Fatalf("search did not honor the context deadline")
	}
}

func TestScrapeTimeout(t *testing.T) {
	if got := scrapeTimeout(context.Background()); got != requestTimeout {
		t.Fatalf("no deadline should use the default, got %v", got)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	if got := scrapeTimeout(ctx); got > 50*time.Millisecond || got <= 0 {
		t.Fatalf("deadline should tighten the timeout, got %v", got)
	}
}

func TestNewAdapter_DisabledWithoutBaseURL(t *testing.T) {
	if a := NewAdapter("  ", nil); a != nil {
		t.Fatalf("expected nil adapter for empty base URL")
	}
}

func TestParsePrice(t *testing.T) {
	cases := map[string]float64{
		"$1,450/mo": 1450,
		"1450":      1450,
		"$900":      900,
		"":          0,
	}
	for in, want := range cases {
		if got := parsePrice(in); got != want {
			t.Fatalf("parsePrice(%q) = %v, want %v", in, got, want)
		}
	}
}
