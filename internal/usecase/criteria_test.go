package usecase

import (
	"errors"
	"testing"

	"rental-scout/internal/domain/user"
)

func TestBuildSearchQuery_RequiresLocation(t *testing.T) {
	if _, err := BuildSearchQuery(nil); !errors.Is(err, ErrNoSearchLocation) {
		t.Fatalf("nil preferences: expected ErrNoSearchLocation, got %v", err)
	}
	if _, err := BuildSearchQuery(&user.Preferences{Location: "   "}); !errors.Is(err, ErrNoSearchLocation) {
		t.Fatalf("blank location: expected ErrNoSearchLocation, got %v", err)
	}
}

func TestBuildSearchQuery_MapsAllFields(t *testing.T) {
	minPrice, maxPrice := 1000, 2000
	minBeds := 2
	minBaths := 1.5

	q, err := BuildSearchQuery(&user.Preferences{
		Location:      " Austin, TX ",
		MinPrice:      &minPrice,
		MaxPrice:      &maxPrice,
		MinBedrooms:   &minBeds,
		MinBathrooms:  &minBaths,
		PropertyTypes: []string{"Apartment", "Condo"},
	})
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}

	if q.Location != "Austin, TX" {
		t.Fatalf("location not trimmed: %q", q.Location)
	}
	if q.MinPrice == nil || *q.MinPrice != 1000 || q.MaxPrice == nil || *q.MaxPrice != 2000 {
		t.Fatalf("price bounds wrong: %v %v", q.MinPrice, q.MaxPrice)
	}
	if q.PropertyType != "Apartment,Condo" {
		t.Fatalf("property types not joined: %q", q.PropertyType)
	}
	if q.Status != "Active" {
		t.Fatalf("expected active-only search, got %q", q.Status)
	}
	if q.Limit != 100 || q.Offset != 0 {
		t.Fatalf("unexpected paging: limit=%d offset=%d", q.Limit, q.Offset)
	}
}

func TestBuildSearchQuery_OmitsAbsentValues(t *testing.T) {
	q, err := BuildSearchQuery(&user.Preferences{Location: "Denver, CO"})
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if q.MinPrice != nil || q.MaxPrice != nil || q.MinBedrooms != nil || q.MinBathrooms != nil {
		t.Fatalf("absent values must stay nil")
	}
	if q.PropertyType != "" {
		t.Fatalf("expected empty property type, got %q", q.PropertyType)
	}
}
