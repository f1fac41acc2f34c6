package model

import "time"

// ResetTokenPrefix namespaces reset tokens stored in the same table as the
// numeric OTP codes.
const ResetTokenPrefix = "reset:"

// OtpRecord is one issued one-time code, or a reset token derived from a
// verified code (Code carries the ResetTokenPrefix in that case).
type OtpRecord struct {
	ID        int64
	Phone     string
	Code      string
	ExpiresAt time.Time
	Used      bool
	CreatedAt time.Time
}

func (r OtpRecord) Expired(now time.Time) bool {
	return !r.ExpiresAt.After(now)
}
