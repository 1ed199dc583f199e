package usecase

import (
	"errors"
	"strings"

	"rental-scout/internal/domain/user"
	"rental-scout/internal/source"
)

// ErrNoSearchLocation means the preference snapshot has no location to
// anchor a search on. It is a per-user configuration problem, never a
// process-level failure.
var ErrNoSearchLocation = errors.New("no search location in preferences")

// searchPageSize caps every source query; the engine does not paginate
// beyond the first page.
const searchPageSize = 100

// BuildSearchQuery maps a preference snapshot to the normalized source
// query. Absent preference values are omitted; property types collapse
// into one comma-delimited value; only active listings are requested.
func BuildSearchQuery(p *user.Preferences) (source.SearchQuery, error) {
	if p == nil || strings.TrimSpace(p.Location) == "" {
		return source.SearchQuery{}, ErrNoSearchLocation
	}

	q := source.SearchQuery{
		Location: strings.TrimSpace(p.Location),
		Status:   "Active",
		Limit:    searchPageSize,
		Offset:   0,
	}

	if p.MinPrice != nil {
		q.MinPrice = p.MinPrice
	}
	if p.MaxPrice != nil {
		q.MaxPrice = p.MaxPrice
	}
	if p.MinBedrooms != nil {
		q.MinBedrooms = p.MinBedrooms
	}
	if p.MinBathrooms != nil {
		q.MinBathrooms = p.MinBathrooms
	}
	if len(p.PropertyTypes) > 0 {
		q.PropertyType = strings.Join(p.PropertyTypes, ",")
	}

	return q, nil
}
