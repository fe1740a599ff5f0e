package service

import (
	"context"
	"fmt"
	"net/mail"
	"strings"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/Sayrikey1/Event-Booking-App/internal/model"
	"github.com/Sayrikey1/Event-Booking-App/internal/notify"
	"github.com/Sayrikey1/Event-Booking-App/internal/repository"
	"github.com/Sayrikey1/Event-Booking-App/internal/utils"
)

type UserStore interface {
	Create(ctx context.Context, u *model.User) error
	GetByID(ctx context.Context, id uint64) (*model.User, error)
	GetByEmail(ctx context.Context, email string) (*model.User, error)
	GetByResetToken(ctx context.Context, token string) (*model.User, error)
	List(ctx context.Context) ([]model.User, error)
	UpdateProfile(ctx context.Context, id uint64, p model.UserPatch) error
	Delete(ctx context.Context, id uint64) error
	SetResetToken(ctx context.Context, id uint64, token string, expires time.Time) error
	UpdatePassword(ctx context.Context, id uint64, hash string) error
}

type OTPStore interface {
	Create(ctx context.Context, o *model.OTP) error
	FindUnused(ctx context.Context, userID uint64, code, purpose string) (*model.OTP, error)
	ConsumeAndVerify(ctx context.Context, otpID, userID uint64) error
}

type TokenStore interface {
	StoreRefresh(ctx context.Context, userID uint64, tokenHash string, exp time.Time) error
	ValidateRefresh(ctx context.Context, tokenHash string) (uint64, error)
	RevokeByHash(ctx context.Context, tokenHash string) error
	RevokeAllForUser(ctx context.Context, userID uint64) error
}

// AuthSettings are the token and mail parameters UserService needs.
type AuthSettings struct {
	JWTSecret      string
	AccessTTLMin   int
	RefreshTTLDays int
	BcryptCost     int
	OTPTTLMin      int
	ResetTTLMin    int
	FrontendURL    string
}

// Session is what a successful login or refresh hands back.
type Session struct {
	User    *model.User
	Access  utils.AccessToken
	Refresh utils.RefreshToken
}

// CreateUserInput carries the registration form.
type CreateUserInput struct {
	FirstName string
	LastName  string
	Username  string
	Email     string
	Password  string
	Address   string
	UserType  string
}

const minPasswordLen = 8

type UserService struct {
	users    UserStore
	otps     OTPStore
	tokens   TokenStore
	notifier Notifier
	cfg      AuthSettings
	log      logrus.FieldLogger
}

func NewUserService(users UserStore, otps OTPStore, tokens TokenStore, notifier Notifier, cfg AuthSettings, log logrus.FieldLogger) *UserService {
	return &UserService{users: users, otps: otps, tokens: tokens, notifier: notifier, cfg: cfg, log: log}
}

// CreateUser registers an account and mails a verification code.
func (s *UserService) CreateUser(ctx context.Context, in CreateUserInput) (*model.User, error) {
	email := repository.NormalizeEmail(in.Email)
	if _, err := mail.ParseAddress(email); err != nil {
		return nil, fail(ErrValidation, "a valid email is required")
	}
	if len(in.Password) < minPasswordLen {
		return nil, fail(ErrValidation, "password must be at least %d characters", minPasswordLen)
	}
	userType := strings.ToUpper(strings.TrimSpace(in.UserType))
	switch userType {
	case "":
		userType = model.UserTypeUser
	case model.UserTypeUser, model.UserTypeAdmin:
	default:
		return nil, fail(ErrValidation, "user_type must be USER or ADMIN")
	}

	hash, err := utils.HashPassword(in.Password, s.cfg.BcryptCost)
	if err != nil {
		return nil, err
	}
	u := &model.User{
		Username:     strings.TrimSpace(in.Username),
		Email:        email,
		PasswordHash: hash,
		FirstName:    strings.TrimSpace(in.FirstName),
		LastName:     strings.TrimSpace(in.LastName),
		Address:      strings.TrimSpace(in.Address),
		UserType:     userType,
	}
	if err := s.users.Create(ctx, u); err != nil {
		if errors.Is(err, repository.ErrEmailExists) {
			return nil, fail(ErrConflict, "A user with this email already exists")
		}
		return nil, err
	}

	code, err := utils.NewOTP()
	if err != nil {
		return nil, err
	}
	otp := &model.OTP{
		UserID:    u.ID,
		Code:      code,
		Purpose:   model.OTPUserVerification,
		ExpiresAt: time.Now().UTC().Add(time.Duration(s.cfg.OTPTTLMin) * time.Minute),
	}
	if err := s.otps.Create(ctx, otp); err != nil {
		return nil, err
	}
	s.notifier.Mail(notify.Message{
		To:      u.Email,
		Subject: "Verify your account",
		Body: fmt.Sprintf("Hello %s,\n\nYour verification code is %s. It expires in %d minutes.\n",
			displayName(u), code, s.cfg.OTPTTLMin),
	})
	s.log.WithField("user_id", u.ID).Info("user created")
	return u, nil
}

// VerifyOtp redeems a USER_VERIFICATION code.
func (s *UserService) VerifyOtp(ctx context.Context, email, code string) error {
	u, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		return notFoundOr(err, "User not found")
	}
	if u.IsVerified {
		return fail(ErrValidation, "User is already verified")
	}
	otp, err := s.otps.FindUnused(ctx, u.ID, strings.TrimSpace(code), model.OTPUserVerification)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return fail(ErrValidation, "Invalid OTP")
		}
		return err
	}
	if otp.Expired(time.Now().UTC()) {
		return fail(ErrValidation, "OTP has expired")
	}
	if err := s.otps.ConsumeAndVerify(ctx, otp.ID, u.ID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return fail(ErrValidation, "Invalid OTP")
		}
		return err
	}
	s.notifier.Mail(notify.Message{
		To:      u.Email,
		Subject: "Account Verified",
		Body:    fmt.Sprintf("Hello %s,\n\nYour account has been verified. You can now book events.\n", displayName(u)),
	})
	return nil
}

// Login checks credentials and opens a session.
func (s *UserService) Login(ctx context.Context, email, password string) (*Session, error) {
	u, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		return nil, notFoundOr(err, "User not found")
	}
	if !utils.VerifyPassword(u.PasswordHash, password) {
		return nil, fail(ErrUnauthorized, "Invalid credentials")
	}
	return s.issue(ctx, u)
}

// Refresh rotates a refresh token: the presented one is revoked and a new
// pair is issued.
func (s *UserService) Refresh(ctx context.Context, raw string) (*Session, error) {
	hash := utils.HashRefreshRaw(strings.TrimSpace(raw))
	userID, err := s.tokens.ValidateRefresh(ctx, hash)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, fail(ErrUnauthorized, "Invalid refresh token")
		}
		return nil, err
	}
	if err := s.tokens.RevokeByHash(ctx, hash); err != nil {
		return nil, err
	}
	u, err := s.users.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, fail(ErrUnauthorized, "Invalid refresh token")
		}
		return nil, err
	}
	return s.issue(ctx, u)
}

// Logout revokes one refresh token, or every token of userID when raw is
// empty.
func (s *UserService) Logout(ctx context.Context, userID uint64, raw string) error {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return s.tokens.RevokeAllForUser(ctx, userID)
	}
	return s.tokens.RevokeByHash(ctx, utils.HashRefreshRaw(raw))
}

func (s *UserService) issue(ctx context.Context, u *model.User) (*Session, error) {
	access, err := utils.NewAccessToken(s.cfg.JWTSecret, u.ID, u.UserType, u.Email, s.cfg.AccessTTLMin)
	if err != nil {
		return nil, err
	}
	refresh, err := utils.NewRefreshToken(s.cfg.RefreshTTLDays)
	if err != nil {
		return nil, err
	}
	if err := s.tokens.StoreRefresh(ctx, u.ID, utils.HashRefreshRaw(refresh.Raw), refresh.Exp); err != nil {
		return nil, err
	}
	return &Session{User: u, Access: access, Refresh: refresh}, nil
}

func (s *UserService) GetUser(ctx context.Context, id uint64) (*model.User, error) {
	u, err := s.users.GetByID(ctx, id)
	if err != nil {
		return nil, notFoundOr(err, "User not found")
	}
	return u, nil
}

func (s *UserService) GetAllUsers(ctx context.Context) ([]model.User, error) {
	users, err := s.users.List(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "list users")
	}
	return users, nil
}

// UpdateUser applies a whitelisted profile patch to the caller's own
// account.
func (s *UserService) UpdateUser(ctx context.Context, callerID, targetID uint64, p model.UserPatch) (*model.User, error) {
	if targetID != 0 && targetID != callerID {
		return nil, fail(ErrForbidden, "You can only update your own account")
	}
	if p.Empty() {
		return nil, fail(ErrValidation, "nothing to update")
	}
	if p.Username != nil && strings.TrimSpace(*p.Username) == "" {
		return nil, fail(ErrValidation, "username cannot be empty")
	}
	if err := s.users.UpdateProfile(ctx, callerID, p); err != nil {
		return nil, notFoundOr(err, "User not found")
	}
	return s.GetUser(ctx, callerID)
}

// DeleteUser removes an account. Users may delete themselves; admins may
// delete anyone.
func (s *UserService) DeleteUser(ctx context.Context, callerID uint64, callerRole string, targetID uint64) error {
	if callerID != targetID && callerRole != model.UserTypeAdmin {
		return fail(ErrForbidden, "You are not allowed to delete this user")
	}
	if err := s.users.Delete(ctx, targetID); err != nil {
		return notFoundOr(err, "User not found")
	}
	s.log.WithFields(logrus.Fields{"user_id": targetID, "by": callerID}).Info("user deleted")
	return nil
}

// SendPasswordResetMail stores a reset token and mails a link to it.
func (s *UserService) SendPasswordResetMail(ctx context.Context, email string) error {
	u, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		return notFoundOr(err, "User not found")
	}
	token := uuid.NewString()
	expires := time.Now().UTC().Add(time.Duration(s.cfg.ResetTTLMin) * time.Minute)
	if err := s.users.SetResetToken(ctx, u.ID, token, expires); err != nil {
		return err
	}
	link := fmt.Sprintf("%s/reset-password?token=%s", strings.TrimRight(s.cfg.FrontendURL, "/"), token)
	s.notifier.Mail(notify.Message{
		To:      u.Email,
		Subject: "Password reset",
		Body: fmt.Sprintf("Hello %s,\n\nReset your password here: %s\nThe link expires in %d minutes.\n",
			displayName(u), link, s.cfg.ResetTTLMin),
	})
	return nil
}

// ResetPassword sets a new password using a mailed reset token.
func (s *UserService) ResetPassword(ctx context.Context, token, password string) error {
	u, err := s.users.GetByResetToken(ctx, strings.TrimSpace(token))
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return fail(ErrValidation, "Invalid or expired reset token")
		}
		return err
	}
	if u.ResetTokenExpires == nil || !time.Now().UTC().Before(*u.ResetTokenExpires) {
		return fail(ErrValidation, "Invalid or expired reset token")
	}
	if len(password) < minPasswordLen {
		return fail(ErrValidation, "password must be at least %d characters", minPasswordLen)
	}
	if utils.VerifyPassword(u.PasswordHash, password) {
		return fail(ErrValidation, "New password must be different from the current password")
	}
	hash, err := utils.HashPassword(password, s.cfg.BcryptCost)
	if err != nil {
		return err
	}
	if err := s.users.UpdatePassword(ctx, u.ID, hash); err != nil {
		return err
	}
	if err := s.tokens.RevokeAllForUser(ctx, u.ID); err != nil {
		return err
	}
	s.notifier.Mail(notify.Message{
		To:      u.Email,
		Subject: "Password changed",
		Body:    fmt.Sprintf("Hello %s,\n\nYour password has been changed.\n", displayName(u)),
	})
	return nil
}

func displayName(u *model.User) string {
	if u.FirstName != "" {
		return u.FirstName
	}
	if u.Username != "" {
		return u.Username
	}
	return u.Email
}
