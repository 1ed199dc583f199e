package repository

import (
	"context"
	"errors"
	"time"

	"rental-scout/internal/database"
	"rental-scout/internal/domain/listing"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

var (
	ErrListingNotFound = errors.New("listing not found")

	// ErrDuplicateListing signals a lost insert race on external_id;
	// the caller re-reads and reconciles against the winner's row.
	ErrDuplicateListing = errors.New("listing already exists")
)

// WatchedFields is the fixed field set the sync engine compares between a
// stored listing and an incoming record. Raw replaces the stored source
// payload wholesale whenever any watched field changed.
type WatchedFields struct {
	Price       *float64
	Status      string
	Description *string
	Raw         []byte
}

type ListingRepository interface {
	FindByExternalID(ctx context.Context, externalID string) (listing.Listing, error)
	GetByID(ctx context.Context, id uuid.UUID) (listing.Listing, error)
	Insert(ctx context.Context, l listing.Listing) (uuid.UUID, error)
	UpdateWatchedFields(ctx context.Context, id uuid.UUID, f WatchedFields) error
}

type PostgresListingRepository struct {
	db database.DB
}

func NewPostgresListingRepository(db database.DB) *PostgresListingRepository {
	return &PostgresListingRepository{db: db}
}

const listingColumns = `id, external_id, source, title, description, price, bedrooms, bathrooms,
	address, url, image_url, property_type, available_from,
	contact_name, contact_email, contact_phone, raw, status, date_found, last_updated`

func (r *PostgresListingRepository) FindByExternalID(ctx context.Context, externalID string) (listing.Listing, error) {
	row := r.db.QueryRow(ctx,
		`SELECT `+listingColumns+` FROM listings WHERE external_id = $1`,
		externalID,
	)
	return scanListing(row)
}

func (r *PostgresListingRepository) GetByID(ctx context.Context, id uuid.UUID) (listing.Listing, error) {
	row := r.db.QueryRow(ctx,
		`SELECT `+listingColumns+` FROM listings WHERE id = $1`,
		id,
	)
	return scanListing(row)
}

func (r *PostgresListingRepository) Insert(ctx context.Context, l listing.Listing) (uuid.UUID, error) {
	if l.ID == uuid.Nil {
		l.ID = uuid.New()
	}
	now := time.Now().UTC()
	if l.DateFound.IsZero() {
		l.DateFound = now
	}
	if l.LastUpdated.IsZero() {
		l.LastUpdated = now
	}
	if l.Status == "" {
		l.Status = listing.StatusActive
	}

	_, err := r.db.Exec(ctx,
		`INSERT INTO listings (id, external_id, source, title, description, price, bedrooms, bathrooms,
			address, url, image_url, property_type, available_from,
			contact_name, contact_email, contact_phone, raw, status, date_found, last_updated)
		 VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17,$18,$19,$20)`,
		l.ID, l.ExternalID, l.Source, l.Title, l.Description, l.Price, l.Bedrooms, l.Bathrooms,
		l.Address, l.URL, l.ImageURL, l.PropertyType, l.AvailableFrom,
		l.ContactName, l.ContactEmail, l.ContactPhone, l.Raw, l.Status, l.DateFound, l.LastUpdated,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return uuid.Nil, ErrDuplicateListing
		}
		return uuid.Nil, err
	}
	return l.ID, nil
}

// UpdateWatchedFields never touches external_id or date_found.
func (r *PostgresListingRepository) UpdateWatchedFields(ctx context.Context, id uuid.UUID, f WatchedFields) error {
	affected, err := r.db.Exec(ctx,
		`UPDATE listings SET price = $2, status = $3, description = $4, raw = $5, last_updated = $6
		 WHERE id = $1`,
		id, f.Price, f.Status, f.Description, f.Raw, time.Now().UTC(),
	)
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrListingNotFound
	}
	return nil
}

func scanListing(row database.Row) (listing.Listing, error) {
	var l listing.Listing
	err := row.Scan(
		&l.ID, &l.ExternalID, &l.Source, &l.Title, &l.Description, &l.Price, &l.Bedrooms, &l.Bathrooms,
		&l.Address, &l.URL, &l.ImageURL, &l.PropertyType, &l.AvailableFrom,
		&l.ContactName, &l.ContactEmail, &l.ContactPhone, &l.Raw, &l.Status, &l.DateFound, &l.LastUpdated,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return listing.Listing{}, ErrListingNotFound
		}
		return listing.Listing{}, err
	}
	return l, nil
}
