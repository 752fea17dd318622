// Package postgres provides the production authcore.UserStore backed by
// PostgreSQL through the pgx stdlib driver.
package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	_ "github.com/jackc/pgx/v5/stdlib"

	"github.com/hauldesk/authcore"
)

// DBTX is the subset of database/sql used by the store. Both *sql.DB and
// *sql.Tx satisfy this interface.
type DBTX interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// Store is a PostgreSQL-backed user store.
type Store struct {
	db DBTX
}

func New(db DBTX) *Store {
	return &Store{db: db}
}

var _ authcore.UserStore = (*Store)(nil)

// Open connects with the pgx stdlib driver and pings.
func Open(ctx context.Context, dsn string) (*sql.DB, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("db open error: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("db ping error: %w", err)
	}
	return db, nil
}

const userColumns = `id, email, password_hash, email_verified, status, mfa_enabled,
		notify_by_email, federated_id, picture_url, role, last_login_at, created_at, updated_at`

func (s *Store) GetByID(ctx context.Context, id int64) (authcore.User, error) {
	query := `SELECT ` + userColumns + `
		 FROM users
		 WHERE id = $1
		 `

	return scanUser(s.db.QueryRowContext(ctx, query, id))
}

func (s *Store) GetByEmail(ctx context.Context, email string) (authcore.User, error) {
	query := `SELECT ` + userColumns + `
		 FROM users
		 WHERE email = LOWER($1)
		 `

	return scanUser(s.db.QueryRowContext(ctx, query, email))
}

func (s *Store) Create(ctx context.Context, input authcore.CreateUserInput) (authcore.User, error) {
	query := `INSERT INTO users
		 (email, password_hash, email_verified, status, mfa_enabled,
		  notify_by_email, federated_id, picture_url, role)
		 VALUES (LOWER($1), $2, $3, $4, $5, $6, $7, $8, $9)
		 RETURNING ` + userColumns + `
		 `

	user, err := scanUser(s.db.QueryRowContext(ctx, query,
		input.Email,
		input.PasswordHash,
		input.EmailVerified,
		int16(input.Status),
		input.MFAEnabled,
		input.NotifyByEmail,
		input.FederatedID,
		input.PictureURL,
		input.Role,
	))
	if err != nil {
		if isUniqueViolation(err) {
			return authcore.User{}, authcore.ErrDuplicateEmail
		}
		return authcore.User{}, err
	}
	return user, nil
}

func (s *Store) Update(ctx context.Context, id int64, update authcore.UserUpdate) (authcore.User, error) {
	sets := make([]string, 0, 8)
	args := make([]any, 0, 9)

	add := func(column string, value any) {
		args = append(args, value)
		sets = append(sets, column+" = $"+strconv.Itoa(len(args)))
	}

	if update.PasswordHash != nil {
		add("password_hash", *update.PasswordHash)
	}
	if update.EmailVerified != nil {
		add("email_verified", *update.EmailVerified)
	}
	if update.Status != nil {
		add("status", int16(*update.Status))
	}
	if update.MFAEnabled != nil {
		add("mfa_enabled", *update.MFAEnabled)
	}
	if update.FederatedID != nil {
		add("federated_id", *update.FederatedID)
	}
	if update.PictureURL != nil {
		add("picture_url", *update.PictureURL)
	}
	if update.LastLoginAt != nil {
		add("last_login_at", *update.LastLoginAt)
	}

	if len(sets) == 0 {
		return s.GetByID(ctx, id)
	}

	sets = append(sets, "updated_at = NOW()")
	args = append(args, id)

	query := `UPDATE users
		 SET ` + strings.Join(sets, ", ") + `
		 WHERE id = $` + strconv.Itoa(len(args)) + `
		 RETURNING ` + userColumns + `
		 `

	return scanUser(s.db.QueryRowContext(ctx, query, args...))
}

func (s *Store) Delete(ctx context.Context, id int64) error {
	result, err := s.db.ExecContext(ctx, `DELETE FROM users WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	if affected == 0 {
		return authcore.ErrUserNotFound
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanUser(row rowScanner) (authcore.User, error) {
	var (
		user      authcore.User
		status    int16
		lastLogin sql.NullTime
	)

	err := row.Scan(
		&user.ID,
		&user.Email,
		&user.PasswordHash,
		&user.EmailVerified,
		&status,
		&user.MFAEnabled,
		&user.NotifyByEmail,
		&user.FederatedID,
		&user.PictureURL,
		&user.Role,
		&lastLogin,
		&user.CreatedAt,
		&user.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return authcore.User{}, authcore.ErrUserNotFound
		}
		return authcore.User{}, fmt.Errorf("db error: %w", err)
	}

	user.Status = authcore.AccountStatus(status)
	if lastLogin.Valid {
		t := lastLogin.Time.In(time.UTC)
		user.LastLoginAt = &t
	}
	return user, nil
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}
