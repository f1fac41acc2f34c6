package service

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"log/slog"
	"math"
	"math/big"
	"time"

	"golang.org/x/crypto/bcrypt"

	"smsrelay/internal/metrics"
	"smsrelay/internal/model"
	"smsrelay/internal/repo"
)

const (
	// CodeTTL is how long an issued 6-digit code stays valid.
	CodeTTL = 5 * time.Minute

	// ResetTokenTTL is how long the derived reset token stays valid.
	ResetTokenTTL = 10 * time.Minute

	// RequestWindow is the minimum gap between two code requests for the
	// same phone, keyed off creation time of the latest record.
	RequestWindow = 2 * time.Minute

	minPasswordLen = 6
	codeSpace      = 1000000
)

// OtpService issues, verifies and consumes one-time codes, and is the
// primary producer of dispatch queue jobs.
//
// The rate-limit check and the subsequent insert are separate statements,
// so two racing requests for the same phone can both pass the check. That
// race is accepted: the worst case is one extra SMS.
type OtpService struct {
	otps  repo.OtpRepository
	users repo.UserRepository
	queue *QueueService
}

func NewOtpService(otps repo.OtpRepository, users repo.UserRepository, queue *QueueService) *OtpService {
	return &OtpService{otps: otps, users: users, queue: queue}
}

// RequestCode issues a fresh code for a known phone and enqueues the SMS
// carrying it. Returns the code validity in seconds.
func (s *OtpService) RequestCode(ctx context.Context, phone string) (int, error) {
	if phone == "" {
		return 0, ErrInvalidInput
	}

	user, err := s.users.GetByPhone(ctx, phone)
	if err != nil {
		return 0, err
	}
	if user == nil {
		return 0, ErrNotFound
	}

	latest, err := s.otps.LatestByPhone(ctx, phone)
	if err != nil {
		return 0, err
	}
	if latest != nil {
		elapsed := time.Since(latest.CreatedAt)
		if elapsed < RequestWindow {
			metrics.OtpRateLimited.Inc()
			wait := int(math.Ceil((RequestWindow - elapsed).Seconds()))
			return 0, &RateLimitedError{RetryAfter: wait}
		}
	}

	code, err := generateCode()
	if err != nil {
		return 0, err
	}

	// Lazy cleanup of consumed records. Expired-but-unused rows stay so
	// the rate-limit window keeps its creation-time anchor.
	if err := s.otps.DeleteUsed(ctx, phone); err != nil {
		slog.Warn("otp cleanup failed", "phone", phone, "error", err)
	}

	if _, err := s.otps.Insert(ctx, phone, code, time.Now().Add(CodeTTL)); err != nil {
		return 0, err
	}

	message := fmt.Sprintf("Your OTP code is %s. It expires in 5 minutes.", code)
	if _, err := s.queue.Enqueue(ctx, phone, message, "otp"); err != nil {
		return 0, err
	}

	metrics.OtpRequested.Inc()
	slog.Info("otp issued", "phone", phone)

	return int(CodeTTL.Seconds()), nil
}

// VerifyCode consumes a valid code and mints a single-use reset token with
// its own, longer expiry. Wrong, expired and already-used codes are
// indistinguishable to the caller.
func (s *OtpService) VerifyCode(ctx context.Context, phone, code string) (string, int, error) {
	if phone == "" || code == "" {
		return "", 0, ErrInvalidInput
	}

	rec, err := s.otps.FindValid(ctx, phone, code)
	if err != nil {
		return "", 0, err
	}
	if rec == nil {
		return "", 0, ErrInvalidOrExpired
	}

	if err := s.otps.MarkUsed(ctx, rec.ID); err != nil {
		return "", 0, err
	}

	token, err := generateResetToken()
	if err != nil {
		return "", 0, err
	}

	stored := model.ResetTokenPrefix + token
	if _, err := s.otps.Insert(ctx, phone, stored, time.Now().Add(ResetTokenTTL)); err != nil {
		return "", 0, err
	}

	metrics.OtpVerified.Inc()
	slog.Info("otp verified", "phone", phone)

	return token, int(ResetTokenTTL.Seconds()), nil
}

// ResetPassword exchanges a reset token for a password change, then purges
// consumed records for the phone.
func (s *OtpService) ResetPassword(ctx context.Context, phone, resetToken, newPassword string) error {
	if phone == "" || resetToken == "" || newPassword == "" {
		return ErrInvalidInput
	}
	if len(newPassword) < minPasswordLen {
		return ErrInvalidInput
	}

	rec, err := s.otps.FindValid(ctx, phone, model.ResetTokenPrefix+resetToken)
	if err != nil {
		return err
	}
	if rec == nil {
		return ErrInvalidOrExpired
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(newPassword), bcrypt.DefaultCost)
	if err != nil {
		return err
	}

	if err := s.users.UpdatePassword(ctx, phone, string(hashed)); err != nil {
		return err
	}

	if err := s.otps.MarkUsed(ctx, rec.ID); err != nil {
		return err
	}

	if err := s.otps.DeleteUsed(ctx, phone); err != nil {
		slog.Warn("otp cleanup failed", "phone", phone, "error", err)
	}

	slog.Info("password reset", "phone", phone)
	return nil
}

// generateCode draws a uniform 6-digit code, leading zeros kept.
func generateCode() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(codeSpace))
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%06d", n.Int64()), nil
}

// generateResetToken returns 256 bits of randomness, hex-encoded.
func generateResetToken() (string, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return hex.EncodeToString(buf), nil
}
