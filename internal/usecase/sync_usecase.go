package usecase

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"rental-scout/internal/domain/listing"
	"rental-scout/internal/domain/match"
	"rental-scout/internal/domain/user"
	"rental-scout/internal/infrastructure/cache"
	"rental-scout/internal/repository"
	"rental-scout/internal/source"
	"rental-scout/internal/ws"

	"github.com/google/uuid"
)

// ErrNoPreferences means the user has never set a rental preference
// snapshot; their sync is skipped with a recorded error and no side
// effects.
var ErrNoPreferences = errors.New("no rental preferences set")

type SyncResult struct {
	NewMatches int      `json:"new_matches"`
	Errors     []string `json:"errors"`
}

type UserSyncResult struct {
	UserID     uuid.UUID `json:"user_id"`
	Email      string    `json:"email"`
	NewMatches int       `json:"new_matches"`
	Errors     []string  `json:"errors"`
}

type BatchResult struct {
	TotalUsers      int              `json:"total_users"`
	TotalNewMatches int              `json:"total_new_matches"`
	UserResults     []UserSyncResult `json:"user_results"`
}

type SyncUsecase interface {
	SyncUser(ctx context.Context, u user.User) SyncResult
	SyncAllUsers(ctx context.Context) (BatchResult, error)
}

// Sync is the ingestion and matching engine. It owns the reconcile
// decision for listings (create vs. update vs. skip) and the creation of
// matches; user-driven match workflow is owned elsewhere.
type Sync struct {
	users    user.Repository
	listings repository.ListingRepository
	matches  repository.MatchRepository
	sources  []source.Source
	cache    *cache.Redis
	logger   *log.Logger
}

func NewSyncUsecase(
	users user.Repository,
	listings repository.ListingRepository,
	matches repository.MatchRepository,
	sources []source.Source,
	matchCache *cache.Redis,
	logger *log.Logger,
) *Sync {
	if logger == nil {
		logger = log.Default()
	}
	return &Sync{
		users:    users,
		listings: listings,
		matches:  matches,
		sources:  sources,
		cache:    matchCache,
		logger:   logger,
	}
}

func (s *Sync) SyncUser(ctx context.Context, u user.User) SyncResult {
	res := SyncResult{Errors: []string{}}

	if u.Preferences.Empty() {
		s.logger.Printf("[Sync] skipping user | user_id=%s reason=%v", u.ID, ErrNoPreferences)
		res.Errors = append(res.Errors, ErrNoPreferences.Error())
		return res
	}

	q, err := BuildSearchQuery(u.Preferences)
	if err != nil {
		s.logger.Printf("[Sync] bad preferences | user_id=%s error=%v", u.ID, err)
		res.Errors = append(res.Errors, err.Error())
		return res
	}

	for _, src := range s.sources {
		records, err := src.Search(ctx, q)
		if err != nil {
			res.Errors = append(res.Errors, fmt.Sprintf("%s: %v", src.Name(), err))
			continue
		}
		if len(records) == 0 {
			res.Errors = append(res.Errors, fmt.Sprintf("%s: no listings returned", src.Name()))
			continue
		}

		for _, rec := range records {
			created, err := s.reconcile(ctx, u.ID, src.Name(), rec)
			if err != nil {
				// A storage failure ends this user's sync; other users
				// are unaffected.
				res.Errors = append(res.Errors, fmt.Sprintf("%s: listing %s: %v", src.Name(), rec.ExternalID, err))
				return res
			}
			if created {
				res.NewMatches++
			}
		}
	}

	if res.NewMatches > 0 {
		if s.cache != nil {
			_ = s.cache.InvalidateUserMatches(ctx, u.ID)
		}
		ws.NotifyMatchesUpdated(u.ID, res.NewMatches)
	}

	s.logger.Printf("[Sync] user done | user_id=%s new_matches=%d errors=%d", u.ID, res.NewMatches, len(res.Errors))
	return res
}

func (s *Sync) SyncAllUsers(ctx context.Context) (BatchResult, error) {
	start := time.Now()
	s.logger.Printf("[Sync] batch started")

	users, err := s.users.ListUsers(ctx)
	if err != nil {
		return BatchResult{}, fmt.Errorf("list users: %w", err)
	}

	batch := BatchResult{UserResults: make([]UserSyncResult, 0, len(users))}
	for _, u := range users {
		ur := s.SyncUser(ctx, u)

		batch.TotalUsers++
		batch.TotalNewMatches += ur.NewMatches
		batch.UserResults = append(batch.UserResults, UserSyncResult{
			UserID:     u.ID,
			Email:      u.Email,
			NewMatches: ur.NewMatches,
			Errors:     ur.Errors,
		})
	}

	s.logger.Printf("[Sync] batch done | users=%d new_matches=%d duration=%s",
		batch.TotalUsers, batch.TotalNewMatches, time.Since(start))
	return batch, nil
}

// reconcile applies one raw record against storage and reports whether a
// new match was created for this user. Match creation is gated solely on
// "this user has never been linked to this listing": a listing that was
// already known can still produce a first match for a different user.
func (s *Sync) reconcile(ctx context.Context, userID uuid.UUID, sourceName string, rec source.RawListing) (bool, error) {
	existing, err := s.listings.FindByExternalID(ctx, rec.ExternalID)
	if err != nil && !errors.Is(err, repository.ErrListingNotFound) {
		return false, err
	}

	if errors.Is(err, repository.ErrListingNotFound) {
		listingID, insErr := s.listings.Insert(ctx, listingFromRecord(sourceName, rec))
		if insErr == nil {
			return s.createMatch(ctx, userID, listingID)
		}
		if !errors.Is(insErr, repository.ErrDuplicateListing) {
			return false, insErr
		}
		// Lost an insert race; reconcile against the winner's row.
		existing, err = s.listings.FindByExternalID(ctx, rec.ExternalID)
		if err != nil {
			return false, err
		}
	}

	if changed, fields := watchedFieldsChanged(existing, rec); changed {
		if err := s.listings.UpdateWatchedFields(ctx, existing.ID, fields); err != nil {
			return false, err
		}
	}

	matched, err := s.matches.Exists(ctx, userID, existing.ID)
	if err != nil {
		return false, err
	}
	if matched {
		return false, nil
	}
	return s.createMatch(ctx, userID, existing.ID)
}

// createMatch reports created=false without error when the uniqueness
// backstop rejects the insert: a lost race means someone else already
// matched the pair, and that must not be counted as a new match.
func (s *Sync) createMatch(ctx context.Context, userID, listingID uuid.UUID) (bool, error) {
	m := match.Match{
		ID:          uuid.New(),
		UserID:      userID,
		ListingID:   listingID,
		Status:      match.StatusNew,
		Contacted:   false,
		DateMatched: time.Now().UTC(),
	}
	if err := s.matches.Insert(ctx, m); err != nil {
		if errors.Is(err, repository.ErrDuplicateMatch) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

func listingFromRecord(sourceName string, rec source.RawListing) listing.Listing {
	now := time.Now().UTC()
	l := listing.Listing{
		ID:         uuid.New(),
		ExternalID: rec.ExternalID,
		Source:     sourceName,
		Price:      ptrFloat(rec.Price),
		Raw:        rec.Payload,

		Status:      normalizeListingStatus(rec.Status),
		DateFound:   now,
		LastUpdated: now,
	}
	l.Title = ptrStr(rec.Title)
	l.Description = ptrStr(rec.Description)
	l.Bedrooms = ptrInt(rec.Bedrooms)
	l.Bathrooms = ptrFloat(rec.Bathrooms)
	l.Address = ptrStr(rec.Address)
	l.URL = ptrStr(rec.URL)
	l.ImageURL = ptrStr(rec.ImageURL)
	l.PropertyType = ptrStr(rec.PropertyType)
	l.AvailableFrom = ptrStr(rec.AvailableDate)
	l.ContactName = ptrStr(rec.ContactName)
	l.ContactEmail = ptrStr(rec.ContactEmail)
	l.ContactPhone = ptrStr(rec.ContactPhone)
	return l
}

func watchedFieldsChanged(existing listing.Listing, rec source.RawListing) (bool, repository.WatchedFields) {
	incomingStatus := normalizeListingStatus(rec.Status)

	changed := false
	if existing.Price == nil || *existing.Price != rec.Price {
		changed = true
	}
	if existing.Status != incomingStatus {
		changed = true
	}
	if strValue(existing.Description) != rec.Description {
		changed = true
	}
	if !changed {
		return false, repository.WatchedFields{}
	}

	return true, repository.WatchedFields{
		Price:       ptrFloat(rec.Price),
		Status:      incomingStatus,
		Description: ptrStr(rec.Description),
		Raw:         rec.Payload,
	}
}

// Sources report listing status in their own vocabulary ("Active",
// "Pending", ...); anything that is not active is stored as inactive.
func normalizeListingStatus(s string) string {
	if s == "" || strings.EqualFold(s, listing.StatusActive) {
		return listing.StatusActive
	}
	return listing.StatusInactive
}

func ptrStr(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func ptrInt(n int) *int {
	return &n
}

func ptrFloat(f float64) *float64 {
	return &f
}

func strValue(p *string) string {
	if p == nil {
		return ""
	}
	return *p
}

var _ SyncUsecase = (*Sync)(nil)
