package account

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"
)

// Account is a registered user. Username and email are unique across
// all accounts. The password is stored verbatim; comparison lives in
// one place (see auth.credentialsMatch) so hashing can be introduced
// later without touching call sites.
type Account struct {
	ID       int64  `json:"id"`
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"-"`
}

// AuthEvent is an audit row recorded by the worker for every
// login/logout that went through the auth service.
type AuthEvent struct {
	ID         string    `json:"id"`
	Username   string    `json:"username"`
	Kind       string    `json:"kind"`
	OccurredAt time.Time `json:"occurred_at"`
}

// Repository persists accounts in Postgres.
type Repository struct {
	db *sql.DB
}

// NewRepository creates a repo.
func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db}
}

// EnsureSchema creates the accounts tables when missing.
func (r *Repository) EnsureSchema(ctx context.Context) error {
	_, err := r.db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS accounts (
			id BIGSERIAL PRIMARY KEY,
			username VARCHAR(100) UNIQUE NOT NULL,
			email VARCHAR(100) UNIQUE NOT NULL,
			password VARCHAR(100) NOT NULL
		)
	`)
	if err != nil {
		return err
	}
	_, err = r.db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS auth_events (
			id UUID PRIMARY KEY,
			username VARCHAR(100) NOT NULL,
			kind VARCHAR(16) NOT NULL,
			occurred_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)
	`)
	return err
}

// GetByEmail returns the account with the exact email, or nil when absent.
func (r *Repository) GetByEmail(ctx context.Context, email string) (*Account, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT id, username, email, password FROM accounts WHERE email = $1
	`, email)
	return scanAccount(row)
}

// GetByUsername returns the account with the exact username, or nil when absent.
func (r *Repository) GetByUsername(ctx context.Context, username string) (*Account, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT id, username, email, password FROM accounts WHERE username = $1
	`, username)
	return scanAccount(row)
}

// GetByUsernameOrEmail does the sign-up conflict lookup in a single
// disjunctive query.
func (r *Repository) GetByUsernameOrEmail(ctx context.Context, username, email string) (*Account, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT id, username, email, password FROM accounts
		WHERE username = $1 OR email = $2
		LIMIT 1
	`, username, email)
	return scanAccount(row)
}

// Create inserts a new account.
func (r *Repository) Create(ctx context.Context, acc Account) (Account, error) {
	row := r.db.QueryRowContext(ctx, `
		INSERT INTO accounts (username, email, password)
		VALUES ($1, $2, $3)
		RETURNING id
	`, acc.Username, acc.Email, acc.Password)
	if err := row.Scan(&acc.ID); err != nil {
		return Account{}, err
	}
	return acc, nil
}

// Update rewrites username and password for the account id.
func (r *Repository) Update(ctx context.Context, acc Account) error {
	_, err := r.db.ExecContext(ctx, `
		UPDATE accounts SET username = $2, password = $3 WHERE id = $1
	`, acc.ID, acc.Username, acc.Password)
	return err
}

// Delete removes the account by id.
func (r *Repository) Delete(ctx context.Context, id int64) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM accounts WHERE id = $1`, id)
	return err
}

// InsertAuthEvent writes one audit row.
func (r *Repository) InsertAuthEvent(ctx context.Context, evt AuthEvent) error {
	if evt.ID == "" {
		evt.ID = uuid.NewString()
	}
	if evt.OccurredAt.IsZero() {
		evt.OccurredAt = time.Now().UTC()
	}
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO auth_events (id, username, kind, occurred_at)
		VALUES ($1, $2, $3, $4)
	`, evt.ID, evt.Username, evt.Kind, evt.OccurredAt)
	return err
}

// ListAuthEvents returns recent audit rows, newest first.
func (r *Repository) ListAuthEvents(ctx context.Context, limit int) ([]AuthEvent, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, username, kind, occurred_at
		FROM auth_events ORDER BY occurred_at DESC LIMIT $1
	`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var res []AuthEvent
	for rows.Next() {
		var evt AuthEvent
		if err := rows.Scan(&evt.ID, &evt.Username, &evt.Kind, &evt.OccurredAt); err != nil {
			return nil, err
		}
		res = append(res, evt)
	}
	return res, rows.Err()
}

func scanAccount(row *sql.Row) (*Account, error) {
	var acc Account
	if err := row.Scan(&acc.ID, &acc.Username, &acc.Email, &acc.Password); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &acc, nil
}
