package model

import "time"

// OTP purposes.
const (
	OTPUserVerification = "USER_VERIFICATION"
)

// OTP is a one-time numeric code mailed to a user.
type OTP struct {
	ID        uint64
	UserID    uint64
	Code      string
	Purpose   string
	ExpiresAt time.Time
	UsedAt    *time.Time
	CreatedAt time.Time
}

// Expired reports whether the code can no longer be redeemed at now.
func (o OTP) Expired(now time.Time) bool { return !now.Before(o.ExpiresAt) }
