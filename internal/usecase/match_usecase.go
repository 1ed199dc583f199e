package usecase

import (
	"context"
	"errors"
	"log"
	"time"

	"rental-scout/internal/domain/listing"
	"rental-scout/internal/domain/match"
	"rental-scout/internal/infrastructure/cache"
	"rental-scout/internal/repository"

	"github.com/google/uuid"
)

var (
	ErrInvalidMatchStatus = errors.New("invalid match status")
	ErrMatchForbidden     = errors.New("match belongs to another user")
)

type MatchView struct {
	ID          uuid.UUID   `json:"id"`
	Status      string      `json:"status"`
	Contacted   bool        `json:"contacted"`
	DateMatched time.Time   `json:"date_matched"`
	LastUpdated time.Time   `json:"last_updated"`
	Listing     ListingView `json:"listing"`
}

type ListingView struct {
	ID            uuid.UUID `json:"id"`
	ExternalID    string    `json:"external_id"`
	Source        string    `json:"source"`
	Title         *string   `json:"title"`
	Description   *string   `json:"description,omitempty"`
	Price         *float64  `json:"price"`
	Bedrooms      *int      `json:"bedrooms"`
	Bathrooms     *float64  `json:"bathrooms"`
	Address       *string   `json:"address"`
	URL           *string   `json:"url"`
	ImageURL      *string   `json:"image_url"`
	PropertyType  *string   `json:"property_type"`
	AvailableFrom *string   `json:"available_from"`
	ContactName   *string   `json:"contact_name,omitempty"`
	ContactEmail  *string   `json:"contact_email,omitempty"`
	ContactPhone  *string   `json:"contact_phone,omitempty"`
	Status        string    `json:"status"`
	DateFound     time.Time `json:"date_found"`
}

type MatchUsecase interface {
	ListMatches(ctx context.Context, userID uuid.UUID, f repository.MatchFilter) ([]MatchView, error)
	UpdateStatus(ctx context.Context, userID, matchID uuid.UUID, status string) (MatchView, error)
	SetContacted(ctx context.Context, userID, matchID uuid.UUID, contacted bool) (MatchView, error)

	// GetListingDetail returns the full listing behind a match and flips
	// the match from new to viewed as a side effect of the first read.
	GetListingDetail(ctx context.Context, userID, matchID uuid.UUID) (MatchView, error)

	// GetListingByListingID is the same read addressed by listing id. It
	// requires the caller to be matched to the listing.
	GetListingByListingID(ctx context.Context, userID, listingID uuid.UUID) (MatchView, error)
}

type Matches struct {
	matches  repository.MatchRepository
	listings repository.ListingRepository
	cache    *cache.Redis
	logger   *log.Logger
}

func NewMatchUsecase(matches repository.MatchRepository, listings repository.ListingRepository, redis *cache.Redis, logger *log.Logger) *Matches {
	if logger == nil {
		logger = log.Default()
	}
	return &Matches{matches: matches, listings: listings, cache: redis, logger: logger}
}

func (u *Matches) ListMatches(ctx context.Context, userID uuid.UUID, f repository.MatchFilter) ([]MatchView, error) {
	if f.Status != "" && !match.ValidStatus(f.Status) {
		return nil, ErrInvalidMatchStatus
	}

	key := cache.MatchListKey(userID, f.Status, f.Limit, f.Offset)

	var cached []MatchView
	if hit, err := u.cache.GetMatchList(ctx, key, &cached); err == nil && hit {
		return cached, nil
	}

	rows, err := u.matches.ListForUser(ctx, userID, f)
	if err != nil {
		return nil, err
	}

	views := make([]MatchView, 0, len(rows))
	for _, row := range rows {
		views = append(views, matchView(row.Match, row.Listing))
	}

	if err := u.cache.SetMatchList(ctx, key, views); err != nil {
		u.logger.Printf("[Matches] cache write failed | user=%s err=%v", userID, err)
	}

	return views, nil
}

func (u *Matches) UpdateStatus(ctx context.Context, userID, matchID uuid.UUID, status string) (MatchView, error) {
	if !match.ValidStatus(status) {
		return MatchView{}, ErrInvalidMatchStatus
	}

	m, err := u.ownedMatch(ctx, userID, matchID)
	if err != nil {
		return MatchView{}, err
	}

	if m.Status != status {
		if err := u.matches.UpdateStatus(ctx, matchID, status); err != nil {
			return MatchView{}, err
		}
		u.invalidate(ctx, userID)
	}

	return u.view(ctx, matchID)
}

func (u *Matches) SetContacted(ctx context.Context, userID, matchID uuid.UUID, contacted bool) (MatchView, error) {
	m, err := u.ownedMatch(ctx, userID, matchID)
	if err != nil {
		return MatchView{}, err
	}

	if m.Contacted != contacted {
		if err := u.matches.SetContacted(ctx, matchID, contacted); err != nil {
			return MatchView{}, err
		}
		u.invalidate(ctx, userID)
	}

	return u.view(ctx, matchID)
}

func (u *Matches) GetListingDetail(ctx context.Context, userID, matchID uuid.UUID) (MatchView, error) {
	m, err := u.ownedMatch(ctx, userID, matchID)
	if err != nil {
		return MatchView{}, err
	}
	return u.detailFor(ctx, m)
}

func (u *Matches) GetListingByListingID(ctx context.Context, userID, listingID uuid.UUID) (MatchView, error) {
	m, err := u.matches.FindByUserAndListing(ctx, userID, listingID)
	if err != nil {
		return MatchView{}, err
	}
	return u.detailFor(ctx, m)
}

func (u *Matches) detailFor(ctx context.Context, m match.Match) (MatchView, error) {
	if m.Status == match.StatusNew {
		if err := u.matches.UpdateStatus(ctx, m.ID, match.StatusViewed); err != nil {
			u.logger.Printf("[Matches] viewed transition failed | match=%s err=%v", m.ID, err)
		} else {
			u.invalidate(ctx, m.UserID)
		}
	}
	return u.view(ctx, m.ID)
}

func (u *Matches) ownedMatch(ctx context.Context, userID, matchID uuid.UUID) (match.Match, error) {
	m, err := u.matches.GetByID(ctx, matchID)
	if err != nil {
		return match.Match{}, err
	}
	if m.UserID != userID {
		return match.Match{}, ErrMatchForbidden
	}
	return m, nil
}

func (u *Matches) view(ctx context.Context, matchID uuid.UUID) (MatchView, error) {
	m, err := u.matches.GetByID(ctx, matchID)
	if err != nil {
		return MatchView{}, err
	}
	l, err := u.listings.GetByID(ctx, m.ListingID)
	if err != nil {
		return MatchView{}, err
	}
	return matchView(m, l), nil
}

func (u *Matches) invalidate(ctx context.Context, userID uuid.UUID) {
	if err := u.cache.InvalidateUserMatches(ctx, userID); err != nil {
		u.logger.Printf("[Matches] cache invalidation failed | user=%s err=%v", userID, err)
	}
}

func matchView(m match.Match, l listing.Listing) MatchView {
	return MatchView{
		ID:          m.ID,
		Status:      m.Status,
		Contacted:   m.Contacted,
		DateMatched: m.DateMatched,
		LastUpdated: m.LastUpdated,
		Listing: ListingView{
			ID:            l.ID,
			ExternalID:    l.ExternalID,
			Source:        l.Source,
			Title:         l.Title,
			Description:   l.Description,
			Price:         l.Price,
			Bedrooms:      l.Bedrooms,
			Bathrooms:     l.Bathrooms,
			Address:       l.Address,
			URL:           l.URL,
			ImageURL:      l.ImageURL,
			PropertyType:  l.PropertyType,
			AvailableFrom: l.AvailableFrom,
			ContactName:   l.ContactName,
			ContactEmail:  l.ContactEmail,
			ContactPhone:  l.ContactPhone,
			Status:        l.Status,
			DateFound:     l.DateFound,
		},
	}
}
