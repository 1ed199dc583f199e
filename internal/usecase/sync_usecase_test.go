package usecase

import (
	"context"
	"errors"
	"testing"
	"time"

	"rental-scout/internal/domain/listing"
	"rental-scout/internal/domain/match"
	"rental-scout/internal/domain/user"
	"rental-scout/internal/repository"
	"rental-scout/internal/source"

	"github.com/google/uuid"
)

type fakeUserRepo struct {
	users []user.User
	err   error
}

func (f *fakeUserRepo) Create(context.Context, user.User) error { return nil }
func (f *fakeUserRepo) GetByID(_ context.Context, id uuid.UUID) (user.User, error) {
	for _, u := range f.users {
		if u.ID == id {
			return u, nil
		}
	}
	return user.User{}, user.ErrNotFound
}
func (f *fakeUserRepo) GetByEmail(_ context.Context, email string) (user.User, error) {
	for _, u := range f.users {
		if u.Email == email {
			return u, nil
		}
	}
	return user.User{}, user.ErrNotFound
}
func (f *fakeUserRepo) ExistsByEmail(context.Context, string) (bool, error) { return false, nil }
func (f *fakeUserRepo) ListUsers(context.Context) ([]user.User, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.users, nil
}
func (f *fakeUserRepo) UpdateProfile(context.Context, uuid.UUID, user.ProfileUpdate) error {
	return nil
}
func (f *fakeUserRepo) UpdatePreferences(context.Context, uuid.UUID, user.Preferences) error {
	return nil
}

type fakeListingRepo struct {
	byID       map[uuid.UUID]listing.Listing
	byExternal map[string]uuid.UUID

	insertErr error
	updateErr error

	inserts int
	updates int
}

func newFakeListingRepo() *fakeListingRepo {
	return &fakeListingRepo{
		byID:       make(map[uuid.UUID]listing.Listing),
		byExternal: make(map[string]uuid.UUID),
	}
}

func (f *fakeListingRepo) FindByExternalID(_ context.Context, externalID string) (listing.Listing, error) {
	id, ok := f.byExternal[externalID]
	if !ok {
		return listing.Listing{}, repository.ErrListingNotFound
	}
	return f.byID[id], nil
}

func (f *fakeListingRepo) GetByID(_ context.Context, id uuid.UUID) (listing.Listing, error) {
	l, ok := f.byID[id]
	if !ok {
		return listing.Listing{}, repository.ErrListingNotFound
	}
	return l, nil
}

func (f *fakeListingRepo) Insert(_ context.Context, l listing.Listing) (uuid.UUID, error) {
	if f.insertErr != nil {
		return uuid.Nil, f.insertErr
	}
	if _, ok := f.byExternal[l.ExternalID]; ok {
		return uuid.Nil, repository.ErrDuplicateListing
	}
	if l.ID == uuid.Nil {
		l.ID = uuid.New()
	}
	f.byID[l.ID] = l
	f.byExternal[l.ExternalID] = l.ID
	f.inserts++
	return l.ID, nil
}

func (f *fakeListingRepo) UpdateWatchedFields(_ context.Context, id uuid.UUID, w repository.WatchedFields) error {
	if f.updateErr != nil {
		return f.updateErr
	}
	l, ok := f.byID[id]
	if !ok {
		return repository.ErrListingNotFound
	}
	l.Price = w.Price
	l.Status = w.Status
	l.Description = w.Description
	l.Raw = w.Raw
	l.LastUpdated = time.Now().UTC()
	f.byID[id] = l
	f.updates++
	return nil
}

type matchPair struct {
	userID    uuid.UUID
	listingID uuid.UUID
}

type fakeMatchRepo struct {
	byID  map[uuid.UUID]match.Match
	pairs map[matchPair]uuid.UUID

	// insertErrFor fails inserts for one user only, so batch isolation
	// can be observed.
	insertErrFor uuid.UUID
	insertErr    error

	inserts int
}

func newFakeMatchRepo() *fakeMatchRepo {
	return &fakeMatchRepo{
		byID:  make(map[uuid.UUID]match.Match),
		pairs: make(map[matchPair]uuid.UUID),
	}
}

func (f *fakeMatchRepo) Exists(_ context.Context, userID, listingID uuid.UUID) (bool, error) {
	_, ok := f.pairs[matchPair{userID, listingID}]
	return ok, nil
}

func (f *fakeMatchRepo) Insert(_ context.Context, m match.Match) error {
	if f.insertErr != nil && (f.insertErrFor == uuid.Nil || f.insertErrFor == m.UserID) {
		return f.insertErr
	}
	key := matchPair{m.UserID, m.ListingID}
	if _, ok := f.pairs[key]; ok {
		return repository.ErrDuplicateMatch
	}
	if m.ID == uuid.Nil {
		m.ID = uuid.New()
	}
	f.byID[m.ID] = m
	f.pairs[key] = m.ID
	f.inserts++
	return nil
}

func (f *fakeMatchRepo) GetByID(_ context.Context, id uuid.UUID) (match.Match, error) {
	m, ok := f.byID[id]
	if !ok {
		return match.Match{}, repository.ErrMatchNotFound
	}
	return m, nil
}

func (f *fakeMatchRepo) FindByUserAndListing(_ context.Context, userID, listingID uuid.UUID) (match.Match, error) {
	id, ok := f.pairs[matchPair{userID, listingID}]
	if !ok {
		return match.Match{}, repository.ErrMatchNotFound
	}
	return f.byID[id], nil
}

func (f *fakeMatchRepo) ListForUser(_ context.Context, userID uuid.UUID, filter repository.MatchFilter) ([]repository.MatchWithListing, error) {
	out := make([]repository.MatchWithListing, 0)
	for _, m := range f.byID {
		if m.UserID != userID {
			continue
		}
		if filter.Status != "" && m.Status != filter.Status {
			continue
		}
		out = append(out, repository.MatchWithListing{Match: m})
	}
	return out, nil
}

func (f *fakeMatchRepo) UpdateStatus(_ context.Context, id uuid.UUID, status string) error {
	m, ok := f.byID[id]
	if !ok {
		return repository.ErrMatchNotFound
	}
	m.Status = status
	m.LastUpdated = time.Now().UTC()
	f.byID[id] = m
	return nil
}

func (f *fakeMatchRepo) SetContacted(_ context.Context, id uuid.UUID, contacted bool) error {
	m, ok := f.byID[id]
	if !ok {
		return repository.ErrMatchNotFound
	}
	m.Contacted = contacted
	f.byID[id] = m
	return nil
}

type fakeSource struct {
	name    string
	records []source.RawListing
	err     error
}

func (f fakeSource) Name() string { return f.name }
func (f fakeSource) Search(context.Context, source.SearchQuery) ([]source.RawListing, error) {
	return f.records, f.err
}

func testUser(location string) user.User {
	u := user.User{ID: uuid.New(), Email: "renter@example.com"}
	if location != "" {
		u.Preferences = &user.Preferences{Location: location}
	}
	return u
}

func rawListing(externalID string, price float64) source.RawListing {
	return source.RawListing{
		ExternalID:  externalID,
		Title:       "2 bed apartment",
		Description: "close to downtown",
		Price:       price,
		Bedrooms:    2,
		Bathrooms:   1,
		Address:     "100 Main St",
		Status:      "Active",
		Payload:     []byte(`{"id":"` + externalID + `"}`),
	}
}

func newSyncForTest(users *fakeUserRepo, listings *fakeListingRepo, matches *fakeMatchRepo, sources ...source.Source) *Sync {
	return NewSyncUsecase(users, listings, matches, sources, nil, nil)
}

func TestSyncUser_CreatesListingAndMatch(t *testing.T) {
	listings := newFakeListingRepo()
	matches := newFakeMatchRepo()
	u := testUser("Austin, TX")

	uc := newSyncForTest(&fakeUserRepo{}, listings, matches,
		fakeSource{name: "rentcast", records: []source.RawListing{rawListing("rc-1", 1500)}})

	res := uc.SyncUser(context.Background(), u)
	if res.NewMatches != 1 {
		t.Fatalf("expected 1 new match, got %d (errors: %v)", res.NewMatches, res.Errors)
	}
	if listings.inserts != 1 {
		t.Fatalf("expected 1 listing insert, got %d", listings.inserts)
	}
	if matches.inserts != 1 {
		t.Fatalf("expected 1 match insert, got %d", matches.inserts)
	}

	l, err := listings.FindByExternalID(context.Background(), "rc-1")
	if err != nil {
		t.Fatalf("listing not stored: %v", err)
	}
	if l.Status != listing.StatusActive {
		t.Fatalf("expected active status, got %q", l.Status)
	}
	if l.DateFound.IsZero() {
		t.Fatalf("date_found not set")
	}
}

func TestSyncUser_SecondRunIsIdempotent(t *testing.T) {
	listings := newFakeListingRepo()
	matches := newFakeMatchRepo()
	u := testUser("Austin, TX")

	uc := newSyncForTest(&fakeUserRepo{}, listings, matches,
		fakeSource{name: "rentcast", records: []source.RawListing{rawListing("rc-1", 1500)}})

	first := uc.SyncUser(context.Background(), u)
	second := uc.SyncUser(context.Background(), u)

	if first.NewMatches != 1 {
		t.Fatalf("first run: expected 1 new match, got %d", first.NewMatches)
	}
	if second.NewMatches != 0 {
		t.Fatalf("second run: expected 0 new matches, got %d", second.NewMatches)
	}
	if listings.inserts != 1 || matches.inserts != 1 {
		t.Fatalf("expected no additional writes, got listings=%d matches=%d", listings.inserts, matches.inserts)
	}
}

func TestSyncUser_KnownListingStillMatchesNewUser(t *testing.T) {
	listings := newFakeListingRepo()
	matches := newFakeMatchRepo()
	src := fakeSource{name: "rentcast", records: []source.RawListing{rawListing("rc-1", 1500)}}

	uc := newSyncForTest(&fakeUserRepo{}, listings, matches, src)

	first := testUser("Austin, TX")
	second := testUser("Austin, TX")

	if res := uc.SyncUser(context.Background(), first); res.NewMatches != 1 {
		t.Fatalf("first user: expected 1 new match, got %d", res.NewMatches)
	}
	if res := uc.SyncUser(context.Background(), second); res.NewMatches != 1 {
		t.Fatalf("second user: expected 1 new match for already-known listing, got %d", res.NewMatches)
	}
	if listings.inserts != 1 {
		t.Fatalf("expected a single listing row, got %d inserts", listings.inserts)
	}
}

func TestSyncUser_PriceChangeUpdatesListingWithoutNewMatch(t *testing.T) {
	listings := newFakeListingRepo()
	matches := newFakeMatchRepo()
	u := testUser("Austin, TX")

	uc := newSyncForTest(&fakeUserRepo{}, listings, matches,
		fakeSource{name: "rentcast", records: []source.RawListing{rawListing("rc-1", 1500)}})
	uc.SyncUser(context.Background(), u)

	uc = newSyncForTest(&fakeUserRepo{}, listings, matches,
		fakeSource{name: "rentcast", records: []source.RawListing{rawListing("rc-1", 1550)}})
	res := uc.SyncUser(context.Background(), u)

	if res.NewMatches != 0 {
		t.Fatalf("expected 0 new matches after price change, got %d", res.NewMatches)
	}
	if listings.updates != 1 {
		t.Fatalf("expected 1 watched-field update, got %d", listings.updates)
	}

	l, _ := listings.FindByExternalID(context.Background(), "rc-1")
	if l.Price == nil || *l.Price != 1550 {
		t.Fatalf("price not updated: %v", l.Price)
	}
}

func TestSyncUser_UnchangedRecordWritesNothing(t *testing.T) {
	listings := newFakeListingRepo()
	matches := newFakeMatchRepo()
	u := testUser("Austin, TX")
	src := fakeSource{name: "rentcast", records: []source.RawListing{rawListing("rc-1", 1500)}}

	uc := newSyncForTest(&fakeUserRepo{}, listings, matches, src)
	uc.SyncUser(context.Background(), u)
	uc.SyncUser(context.Background(), u)

	if listings.updates != 0 {
		t.Fatalf("expected no watched-field updates for identical record, got %d", listings.updates)
	}
}

func TestSyncUser_NoPreferencesSkipsWithoutWrites(t *testing.T) {
	listings := newFakeListingRepo()
	matches := newFakeMatchRepo()
	u := testUser("")

	uc := newSyncForTest(&fakeUserRepo{}, listings, matches,
		fakeSource{name: "rentcast", records: []source.RawListing{rawListing("rc-1", 1500)}})

	res := uc.SyncUser(context.Background(), u)
	if res.NewMatches != 0 {
		t.Fatalf("expected 0 new matches, got %d", res.NewMatches)
	}
	if len(res.Errors) != 1 {
		t.Fatalf("expected 1 recorded error, got %v", res.Errors)
	}
	if listings.inserts != 0 || matches.inserts != 0 {
		t.Fatalf("expected no writes, got listings=%d matches=%d", listings.inserts, matches.inserts)
	}
}

func TestSyncUser_SourceFailureIsRecordedAndOthersContinue(t *testing.T) {
	listings := newFakeListingRepo()
	matches := newFakeMatchRepo()
	u := testUser("Austin, TX")

	uc := newSyncForTest(&fakeUserRepo{}, listings, matches,
		fakeSource{name: "rentcast", err: source.ErrUnavailable},
		fakeSource{name: "portal", records: []source.RawListing{rawListing("portal-1", 1200)}},
	)

	res := uc.SyncUser(context.Background(), u)
	if res.NewMatches != 1 {
		t.Fatalf("expected 1 new match from healthy source, got %d", res.NewMatches)
	}
	if len(res.Errors) != 1 {
		t.Fatalf("expected 1 recorded source error, got %v", res.Errors)
	}
}

func TestSyncUser_DuplicateMatchBackstopNotCounted(t *testing.T) {
	listings := newFakeListingRepo()
	matches := newFakeMatchRepo()
	u := testUser("Austin, TX")
	src := fakeSource{name: "rentcast", records: []source.RawListing{rawListing("rc-1", 1500)}}

	uc := newSyncForTest(&fakeUserRepo{}, listings, matches, src)
	uc.SyncUser(context.Background(), u)

	// Simulate the Exists check losing a race: the pair row is already
	// there, so Insert hits the constraint.
	listingID := listings.byExternal["rc-1"]
	created, err := uc.createMatch(context.Background(), u.ID, listingID)
	if err != nil {
		t.Fatalf("constraint rejection must not surface as error: %v", err)
	}
	if created {
		t.Fatalf("constraint rejection must not count as a new match")
	}
}

func TestSyncAllUsers_IsolatesUserFailures(t *testing.T) {
	listings := newFakeListingRepo()
	matches := newFakeMatchRepo()

	broken := testUser("Austin, TX")
	healthy := testUser("Austin, TX")
	healthy.Email = "second@example.com"

	matches.insertErrFor = broken.ID
	matches.insertErr = errors.New("connection reset")

	users := &fakeUserRepo{users: []user.User{broken, healthy}}
	uc := newSyncForTest(users, listings, matches,
		fakeSource{name: "rentcast", records: []source.RawListing{rawListing("rc-1", 1500)}})

	batch, err := uc.SyncAllUsers(context.Background())
	if err != nil {
		t.Fatalf("batch must not fail on one user's error: %v", err)
	}
	if batch.TotalUsers != 2 {
		t.Fatalf("expected 2 users processed, got %d", batch.TotalUsers)
	}
	if batch.TotalNewMatches != 1 {
		t.Fatalf("expected 1 new match from the healthy user, got %d", batch.TotalNewMatches)
	}

	if len(batch.UserResults[0].Errors) == 0 {
		t.Fatalf("expected the broken user's error to be recorded")
	}
	if len(batch.UserResults[1].Errors) != 0 {
		t.Fatalf("healthy user should have no errors: %v", batch.UserResults[1].Errors)
	}
}

func TestSyncAllUsers_ListFailureFailsBatch(t *testing.T) {
	uc := newSyncForTest(&fakeUserRepo{err: errors.New("db down")}, newFakeListingRepo(), newFakeMatchRepo())
	if _, err := uc.SyncAllUsers(context.Background()); err == nil {
		t.Fatalf("expected error when users cannot be listed")
	}
}
