package repository

import (
	"context"
	"errors"
	"strconv"
	"time"

	"rental-scout/internal/database"
	"rental-scout/internal/domain/listing"
	"rental-scout/internal/domain/match"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

var (
	ErrMatchNotFound = errors.New("match not found")

	// ErrDuplicateMatch is returned when the storage-level uniqueness
	// backstop on (user_id, listing_id) rejects an insert. The engine
	// treats it as "already matched", never as a failure.
	ErrDuplicateMatch = errors.New("match already exists")
)

type MatchFilter struct {
	Status string
	Limit  int
	Offset int
}

type MatchWithListing struct {
	Match   match.Match
	Listing listing.Listing
}

type MatchRepository interface {
	// Exists is the primary duplicate guard: the engine checks it before
	// every insert instead of relying on the constraint.
	Exists(ctx context.Context, userID, listingID uuid.UUID) (bool, error)
	Insert(ctx context.Context, m match.Match) error

	GetByID(ctx context.Context, id uuid.UUID) (match.Match, error)
	FindByUserAndListing(ctx context.Context, userID, listingID uuid.UUID) (match.Match, error)
	ListForUser(ctx context.Context, userID uuid.UUID, f MatchFilter) ([]MatchWithListing, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, status string) error
	SetContacted(ctx context.Context, id uuid.UUID, contacted bool) error
}

type PostgresMatchRepository struct {
	db database.DB
}

func NewPostgresMatchRepository(db database.DB) *PostgresMatchRepository {
	return &PostgresMatchRepository{db: db}
}

func (r *PostgresMatchRepository) Exists(ctx context.Context, userID, listingID uuid.UUID) (bool, error) {
	var exists bool
	row := r.db.QueryRow(ctx,
		`SELECT EXISTS(SELECT 1 FROM matches WHERE user_id = $1 AND listing_id = $2)`,
		userID, listingID,
	)
	if err := row.Scan(&exists); err != nil {
		return false, err
	}
	return exists, nil
}

func (r *PostgresMatchRepository) Insert(ctx context.Context, m match.Match) error {
	if m.ID == uuid.Nil {
		m.ID = uuid.New()
	}
	now := time.Now().UTC()
	if m.DateMatched.IsZero() {
		m.DateMatched = now
	}
	if m.LastUpdated.IsZero() {
		m.LastUpdated = now
	}
	if m.Status == "" {
		m.Status = match.StatusNew
	}

	_, err := r.db.Exec(ctx,
		`INSERT INTO matches (id, user_id, listing_id, status, contacted, date_matched, last_updated)
		 VALUES ($1,$2,$3,$4,$5,$6,$7)`,
		m.ID, m.UserID, m.ListingID, m.Status, m.Contacted, m.DateMatched, m.LastUpdated,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrDuplicateMatch
		}
		return err
	}
	return nil
}

func (r *PostgresMatchRepository) GetByID(ctx context.Context, id uuid.UUID) (match.Match, error) {
	row := r.db.QueryRow(ctx,
		`SELECT id, user_id, listing_id, status, contacted, date_matched, last_updated
		 FROM matches WHERE id = $1`,
		id,
	)
	var m match.Match
	if err := row.Scan(&m.ID, &m.UserID, &m.ListingID, &m.Status, &m.Contacted, &m.DateMatched, &m.LastUpdated); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return match.Match{}, ErrMatchNotFound
		}
		return match.Match{}, err
	}
	return m, nil
}

func (r *PostgresMatchRepository) FindByUserAndListing(ctx context.Context, userID, listingID uuid.UUID) (match.Match, error) {
	row := r.db.QueryRow(ctx,
		`SELECT id, user_id, listing_id, status, contacted, date_matched, last_updated
		 FROM matches WHERE user_id = $1 AND listing_id = $2`,
		userID, listingID,
	)
	var m match.Match
	if err := row.Scan(&m.ID, &m.UserID, &m.ListingID, &m.Status, &m.Contacted, &m.DateMatched, &m.LastUpdated); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return match.Match{}, ErrMatchNotFound
		}
		return match.Match{}, err
	}
	return m, nil
}

func (r *PostgresMatchRepository) ListForUser(ctx context.Context, userID uuid.UUID, f MatchFilter) ([]MatchWithListing, error) {
	if f.Limit <= 0 {
		f.Limit = 20
	}
	if f.Limit > 100 {
		f.Limit = 100
	}
	if f.Offset < 0 {
		f.Offset = 0
	}

	query := `SELECT m.id, m.user_id, m.listing_id, m.status, m.contacted, m.date_matched, m.last_updated,
			l.id, l.external_id, l.source, l.title, l.description, l.price, l.bedrooms, l.bathrooms,
			l.address, l.url, l.image_url, l.property_type, l.available_from,
			l.contact_name, l.contact_email, l.contact_phone, l.raw, l.status, l.date_found, l.last_updated
		 FROM matches m
		 JOIN listings l ON l.id = m.listing_id
		 WHERE m.user_id = $1`
	args := []any{userID}

	if f.Status != "" {
		query += ` AND m.status = $2`
		args = append(args, f.Status)
	}
	query += ` ORDER BY m.date_matched DESC`

	limitPos := len(args) + 1
	query += ` LIMIT $` + strconv.Itoa(limitPos) + ` OFFSET $` + strconv.Itoa(limitPos+1)
	args = append(args, f.Limit, f.Offset)

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]MatchWithListing, 0)
	for rows.Next() {
		var item MatchWithListing
		m := &item.Match
		l := &item.Listing
		if err := rows.Scan(
			&m.ID, &m.UserID, &m.ListingID, &m.Status, &m.Contacted, &m.DateMatched, &m.LastUpdated,
			&l.ID, &l.ExternalID, &l.Source, &l.Title, &l.Description, &l.Price, &l.Bedrooms, &l.Bathrooms,
			&l.Address, &l.URL, &l.ImageURL, &l.PropertyType, &l.AvailableFrom,
			&l.ContactName, &l.ContactEmail, &l.ContactPhone, &l.Raw, &l.Status, &l.DateFound, &l.LastUpdated,
		); err != nil {
			return nil, err
		}
		out = append(out, item)
	}
	return out, rows.Err()
}

func (r *PostgresMatchRepository) UpdateStatus(ctx context.Context, id uuid.UUID, status string) error {
	affected, err := r.db.Exec(ctx,
		`UPDATE matches SET status = $2, last_updated = $3 WHERE id = $1`,
		id, status, time.Now().UTC(),
	)
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrMatchNotFound
	}
	return nil
}

func (r *PostgresMatchRepository) SetContacted(ctx context.Context, id uuid.UUID, contacted bool) error {
	affected, err := r.db.Exec(ctx,
		`UPDATE matches SET contacted = $2, last_updated = $3 WHERE id = $1`,
		id, contacted, time.Now().UTC(),
	)
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrMatchNotFound
	}
	return nil
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}
