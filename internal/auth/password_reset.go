package auth

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"math/big"
	"time"

	"github.com/google/uuid"

	"github.com/salesapp/sales-management/internal/hash"
	"github.com/salesapp/sales-management/internal/logging"
	"github.com/salesapp/sales-management/internal/mailer"
	"github.com/salesapp/sales-management/internal/models"
	"github.com/salesapp/sales-management/internal/repo"
)

var (
	ErrBadOTP       = errors.New("invalid or expired code") // 400
	ErrWeakPassword = errors.New("password too short")      // 400
)

const minPasswordLen = 8

// PasswordResetService owns the forgot-password OTP flow: request a code,
// verify it, and reset the password invalidating every session.
type PasswordResetService struct {
	Repo   *repo.GormRepo
	Sender mailer.Sender
	Auth   *Authenticator

	OTPExpiry time.Duration
	now       func() time.Time
}

func NewPasswordResetService(r *repo.GormRepo, sender mailer.Sender, auth *Authenticator, otpExpiry time.Duration) *PasswordResetService {
	if otpExpiry <= 0 {
		otpExpiry = 5 * time.Minute
	}
	return &PasswordResetService{
		Repo:      r,
		Sender:    sender,
		Auth:      auth,
		OTPExpiry: otpExpiry,
		now:       func() time.Time { return time.Now().UTC() },
	}
}

// Request generates a one-time code for the account behind email and hands
// it to the Sender. Old codes for the address are discarded first.
func (s *PasswordResetService) Request(ctx context.Context, email string) error {
	l := logging.FromContext(ctx).With("svc", "auth.password_reset")

	user, err := s.Repo.FindUserByIdentifier(ctx, email)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return ErrNotFound
		}
		return err
	}
	if !user.IsActive {
		return ErrInactive
	}

	otp, err := generateOTP(6)
	if err != nil {
		return err
	}

	reset := &models.PasswordReset{
		Email:     user.Email,
		OTP:       otp,
		Token:     uuid.NewString(),
		ExpiresAt: s.now().Add(s.OTPExpiry),
	}

	if err := s.Repo.DeletePasswordResetsForEmail(ctx, user.Email); err != nil {
		return err
	}
	if err := s.Repo.CreatePasswordReset(ctx, reset); err != nil {
		return err
	}

	subject := "Password reset code"
	body := fmt.Sprintf("Hello %s,\n\nYour one-time code is %s. It expires in %d minutes.\n", user.FullName, otp, int(s.OTPExpiry.Minutes()))
	if err := s.Sender.Send(ctx, user.Email, subject, body); err != nil {
		l.Error("otp_send_failed", "error", err)
		return err
	}

	l.Info("otp_sent", "user_id", user.ID)
	return nil
}

// VerifyOTP checks an emailed code and returns the opaque reset token on
// success.
func (s *PasswordResetService) VerifyOTP(ctx context.Context, email, otp string) (string, error) {
	reset, err := s.Repo.FindValidPasswordReset(ctx, email, otp)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return "", ErrBadOTP
		}
		return "", err
	}
	return reset.Token, nil
}

// Reset replaces the password and deletes every session record of the
// principal in one transaction, forcing re-login everywhere.
func (s *PasswordResetService) Reset(ctx context.Context, email, otp, newPassword string) error {
	if len(newPassword) < minPasswordLen {
		return ErrWeakPassword
	}

	reset, err := s.Repo.FindValidPasswordReset(ctx, email, otp)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return ErrBadOTP
		}
		return err
	}

	user, err := s.Repo.FindUserByIdentifier(ctx, email)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return ErrNotFound
		}
		return err
	}

	pwHash, err := hash.HashPassword(newPassword)
	if err != nil {
		return err
	}

	err = s.Repo.Transaction(ctx, func(tx *repo.GormRepo) error {
		if err := tx.UpdateUserPassword(ctx, user.ID, pwHash); err != nil {
			return err
		}
		if err := tx.MarkPasswordResetUsed(ctx, reset.ID); err != nil {
			return err
		}
		return tx.DeleteSessionsForUser(ctx, user.ID)
	})
	if err != nil {
		return err
	}

	if s.Auth != nil {
		s.Auth.InvalidateUser(user.ID)
	}
	return nil
}

func generateOTP(length int) (string, error) {
	digits := make([]byte, length)
	for i := range digits {
		n, err := rand.Int(rand.Reader, big.NewInt(10))
		if err != nil {
			return "", err
		}
		digits[i] = byte('0' + n.Int64())
	}
	return string(digits), nil
}
