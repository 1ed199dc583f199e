package repository

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"rental-scout/internal/database"
	"rental-scout/internal/domain/user"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

type PostgresUserRepository struct {
	db database.DB
}

func NewPostgresUserRepository(db database.DB) *PostgresUserRepository {
	return &PostgresUserRepository{db: db}
}

const userColumns = `id, email, password_hash, first_name, last_name, phone,
	email_automated, email_review_required, preferences, created_at, updated_at`

func (r *PostgresUserRepository) Create(ctx context.Context, u user.User) error {
	prefs, err := marshalPreferences(u.Preferences)
	if err != nil {
		return err
	}
	_, err = r.db.Exec(ctx,
		`INSERT INTO users (id, email, password_hash, first_name, last_name, phone,
			email_automated, email_review_required, preferences)
		 VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)`,
		u.ID, u.Email, u.PasswordHash, u.FirstName, u.LastName, u.Phone,
		u.EmailAutomated, u.EmailReviewRequired, prefs,
	)
	return err
}

func (r *PostgresUserRepository) GetByID(ctx context.Context, id uuid.UUID) (user.User, error) {
	row := r.db.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1`, id)
	return scanUser(row)
}

func (r *PostgresUserRepository) GetByEmail(ctx context.Context, email string) (user.User, error) {
	row := r.db.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE email = $1`, email)
	return scanUser(row)
}

func (r *PostgresUserRepository) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	var exists bool
	row := r.db.QueryRow(ctx, `SELECT EXISTS(SELECT 1 FROM users WHERE email = $1)`, email)
	if err := row.Scan(&exists); err != nil {
		return false, err
	}
	return exists, nil
}

func (r *PostgresUserRepository) ListUsers(ctx context.Context) ([]user.User, error) {
	rows, err := r.db.Query(ctx, `SELECT `+userColumns+` FROM users ORDER BY created_at`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]user.User, 0)
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, u)
	}
	return out, rows.Err()
}

func (r *PostgresUserRepository) UpdateProfile(ctx context.Context, id uuid.UUID, up user.ProfileUpdate) error {
	affected, err := r.db.Exec(ctx,
		`UPDATE users SET
			first_name = COALESCE($2, first_name),
			last_name = COALESCE($3, last_name),
			phone = COALESCE($4, phone),
			email_automated = COALESCE($5, email_automated),
			email_review_required = COALESCE($6, email_review_required),
			updated_at = $7
		 WHERE id = $1`,
		id, up.FirstName, up.LastName, up.Phone, up.EmailAutomated, up.EmailReviewRequired,
		time.Now().UTC(),
	)
	if err != nil {
		return err
	}
	if affected == 0 {
		return user.ErrNotFound
	}
	return nil
}

func (r *PostgresUserRepository) UpdatePreferences(ctx context.Context, id uuid.UUID, p user.Preferences) error {
	prefs, err := marshalPreferences(&p)
	if err != nil {
		return err
	}
	affected, err := r.db.Exec(ctx,
		`UPDATE users SET preferences = $2, updated_at = $3 WHERE id = $1`,
		id, prefs, time.Now().UTC(),
	)
	if err != nil {
		return err
	}
	if affected == 0 {
		return user.ErrNotFound
	}
	return nil
}

func scanUser(row database.Row) (user.User, error) {
	var u user.User
	var prefs []byte
	err := row.Scan(
		&u.ID, &u.Email, &u.PasswordHash, &u.FirstName, &u.LastName, &u.Phone,
		&u.EmailAutomated, &u.EmailReviewRequired, &prefs, &u.CreatedAt, &u.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return user.User{}, user.ErrNotFound
		}
		return user.User{}, err
	}
	if len(prefs) > 0 {
		var p user.Preferences
		if err := json.Unmarshal(prefs, &p); err != nil {
			return user.User{}, err
		}
		u.Preferences = &p
	}
	return u, nil
}

func marshalPreferences(p *user.Preferences) ([]byte, error) {
	if p == nil {
		return nil, nil
	}
	return json.Marshal(p)
}

var _ user.Repository = (*PostgresUserRepository)(nil)
