package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/Sayrikey1/Event-Booking-App/internal/model"
	"github.com/cockroachdb/errors"
)

// OTPRepo persists one-time verification codes.
type OTPRepo struct {
	DB    *sql.DB
	users *UserRepo
}

func NewOTPRepo(db *sql.DB) *OTPRepo { return &OTPRepo{DB: db, users: NewUserRepo(db)} }

// Create stores a new code for the user.
func (r *OTPRepo) Create(ctx context.Context, o *model.OTP) error {
	now := time.Now().UTC().Truncate(time.Second)
	res, err := r.DB.ExecContext(ctx,
		`INSERT INTO otps (user_id, code, purpose, expires_at, created_at) VALUES (?,?,?,?,?)`,
		o.UserID, o.Code, o.Purpose, o.ExpiresAt.UTC(), now)
	if err != nil {
		return errors.Wrap(err, "insert otp")
	}
	id, err := res.LastInsertId()
	if err != nil {
		return errors.Wrap(err, "otp last insert id")
	}
	o.ID, o.CreatedAt = uint64(id), now
	return nil
}

// FindUnused returns the newest unused code matching userID, code and
// purpose, whether expired or not.
func (r *OTPRepo) FindUnused(ctx context.Context, userID uint64, code, purpose string) (*model.OTP, error) {
	var o model.OTP
	err := r.DB.QueryRowContext(ctx,
		`SELECT id, user_id, code, purpose, expires_at, created_at FROM otps
		 WHERE user_id = ? AND code = ? AND purpose = ? AND used_at IS NULL
		 ORDER BY id DESC LIMIT 1`, userID, code, purpose).
		Scan(&o.ID, &o.UserID, &o.Code, &o.Purpose, &o.ExpiresAt, &o.CreatedAt)
	if err != nil {
		return nil, notFound(err, "find otp")
	}
	return &o, nil
}

// ConsumeAndVerify marks the code used and the user verified atomically.
func (r *OTPRepo) ConsumeAndVerify(ctx context.Context, otpID, userID uint64) error {
	tx, err := r.DB.BeginTx(ctx, nil)
	if err != nil {
		return errors.Wrap(err, "begin tx")
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	res, err := tx.ExecContext(ctx,
		`UPDATE otps SET used_at = UTC_TIMESTAMP() WHERE id = ? AND used_at IS NULL`, otpID)
	if err != nil {
		return errors.Wrap(err, "consume otp")
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	if err := r.users.MarkVerifiedTx(ctx, tx, userID); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return errors.Wrap(err, "commit")
	}
	committed = true
	return nil
}
