package repository

import (
	"context"
	"database/sql"
	"strings"
	"time"

	"github.com/Sayrikey1/Event-Booking-App/internal/model"
	"github.com/cockroachdb/errors"
)

const userColumns = `id, username, email, password_hash, first_name, last_name, address,
	user_type, is_verified, reset_token, reset_token_expires, created_at, updated_at`

type UserRepo struct{ DB *sql.DB }

func NewUserRepo(db *sql.DB) *UserRepo { return &UserRepo{DB: db} }

// NormalizeEmail lower-cases and trims an address before storage or lookup.
func NormalizeEmail(email string) string { return strings.ToLower(strings.TrimSpace(email)) }

// Create inserts u (PasswordHash must already be set) and fills its ID.
func (r *UserRepo) Create(ctx context.Context, u *model.User) error {
	u.Email = NormalizeEmail(u.Email)
	if u.UserType == "" {
		u.UserType = model.UserTypeUser
	}
	now := time.Now().UTC().Truncate(time.Second)
	res, err := r.DB.ExecContext(ctx,
		`INSERT INTO users (username, email, password_hash, first_name, last_name, address,
			user_type, is_verified, created_at, updated_at)
		 VALUES (?,?,?,?,?,?,?,?,?,?)`,
		u.Username, u.Email, u.PasswordHash, u.FirstName, u.LastName, u.Address,
		u.UserType, u.IsVerified, now, now)
	if err != nil {
		if mysqlErrNumber(err) == mysqlDuplicateEntry {
			return ErrEmailExists
		}
		return errors.Wrap(err, "insert user")
	}
	id, err := res.LastInsertId()
	if err != nil {
		return errors.Wrap(err, "user last insert id")
	}
	u.ID = uint64(id)
	u.CreatedAt, u.UpdatedAt = now, now
	return nil
}

// GetByEmail fetches a user by normalized email.
func (r *UserRepo) GetByEmail(ctx context.Context, email string) (*model.User, error) {
	return getUser(ctx, r.DB, `email = ?`, NormalizeEmail(email))
}

// GetByID fetches a user by id.
func (r *UserRepo) GetByID(ctx context.Context, id uint64) (*model.User, error) {
	return getUser(ctx, r.DB, `id = ?`, id)
}

// GetByIDTx fetches a user by id inside tx.
func (r *UserRepo) GetByIDTx(ctx context.Context, tx *sql.Tx, id uint64) (*model.User, error) {
	return getUser(ctx, tx, `id = ?`, id)
}

// GetByResetToken fetches the user holding token, expired or not.
func (r *UserRepo) GetByResetToken(ctx context.Context, token string) (*model.User, error) {
	return getUser(ctx, r.DB, `reset_token = ?`, token)
}

// List returns all users ordered by id.
func (r *UserRepo) List(ctx context.Context) ([]model.User, error) {
	rows, err := r.DB.QueryContext(ctx, `SELECT `+userColumns+` FROM users ORDER BY id ASC`)
	if err != nil {
		return nil, errors.Wrap(err, "list users")
	}
	defer rows.Close()

	users := []model.User{}
	for rows.Next() {
		var u model.User
		if err := scanUser(rows, &u); err != nil {
			return nil, errors.Wrap(err, "scan user")
		}
		users = append(users, u)
	}
	return users, errors.Wrap(rows.Err(), "iterate users")
}

// UpdateProfile applies the non-nil fields of p. Only whitelisted profile
// columns can be reached through here.
func (r *UserRepo) UpdateProfile(ctx context.Context, id uint64, p model.UserPatch) error {
	var (
		sets []string
		args []any
	)
	if p.Username != nil {
		sets, args = append(sets, "username = ?"), append(args, *p.Username)
	}
	if p.FirstName != nil {
		sets, args = append(sets, "first_name = ?"), append(args, *p.FirstName)
	}
	if p.LastName != nil {
		sets, args = append(sets, "last_name = ?"), append(args, *p.LastName)
	}
	if p.Address != nil {
		sets, args = append(sets, "address = ?"), append(args, *p.Address)
	}
	if len(sets) == 0 {
		return nil
	}
	args = append(args, id)
	res, err := r.DB.ExecContext(ctx,
		`UPDATE users SET `+strings.Join(sets, ", ")+` WHERE id = ?`, args...)
	if err != nil {
		return errors.Wrap(err, "update user")
	}
	if n, _ := res.RowsAffected(); n == 0 {
		// MySQL reports 0 when values are unchanged; confirm the row exists.
		if _, err := r.GetByID(ctx, id); err != nil {
			return err
		}
	}
	return nil
}

// Delete removes the user and everything that cascades from it.
func (r *UserRepo) Delete(ctx context.Context, id uint64) error {
	res, err := r.DB.ExecContext(ctx, `DELETE FROM users WHERE id = ?`, id)
	if err != nil {
		return errors.Wrap(err, "delete user")
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

// SetResetToken stores a password reset token and its expiry.
func (r *UserRepo) SetResetToken(ctx context.Context, id uint64, token string, expires time.Time) error {
	_, err := r.DB.ExecContext(ctx,
		`UPDATE users SET reset_token = ?, reset_token_expires = ? WHERE id = ?`,
		token, expires.UTC(), id)
	return errors.Wrap(err, "set reset token")
}

// UpdatePassword replaces the hash and clears any reset token.
func (r *UserRepo) UpdatePassword(ctx context.Context, id uint64, hash string) error {
	_, err := r.DB.ExecContext(ctx,
		`UPDATE users SET password_hash = ?, reset_token = NULL, reset_token_expires = NULL WHERE id = ?`,
		hash, id)
	return errors.Wrap(err, "update password")
}

// MarkVerifiedTx flags the account as verified.
func (r *UserRepo) MarkVerifiedTx(ctx context.Context, tx *sql.Tx, id uint64) error {
	_, err := tx.ExecContext(ctx, `UPDATE users SET is_verified = 1 WHERE id = ?`, id)
	return errors.Wrap(err, "mark user verified")
}

func getUser(ctx context.Context, q querier, where string, arg any) (*model.User, error) {
	var u model.User
	row := q.QueryRowContext(ctx, `SELECT `+userColumns+` FROM users WHERE `+where+` LIMIT 1`, arg)
	if err := scanUser(row, &u); err != nil {
		return nil, notFound(err, "get user")
	}
	return &u, nil
}

func scanUser(s scanner, u *model.User) error {
	var (
		token   sql.NullString
		expires sql.NullTime
	)
	if err := s.Scan(&u.ID, &u.Username, &u.Email, &u.PasswordHash, &u.FirstName, &u.LastName,
		&u.Address, &u.UserType, &u.IsVerified, &token, &expires, &u.CreatedAt, &u.UpdatedAt); err != nil {
		return err
	}
	if token.Valid {
		u.ResetToken = &token.String
	}
	if expires.Valid {
		u.ResetTokenExpires = &expires.Time
	}
	return nil
}
