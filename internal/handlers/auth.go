package handlers

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/salesapp/sales-management/internal/auth"
	"github.com/salesapp/sales-management/internal/events"
	"github.com/salesapp/sales-management/internal/hash"
	"github.com/salesapp/sales-management/internal/logging"
	"github.com/salesapp/sales-management/internal/middleware/authmw"
	"github.com/salesapp/sales-management/internal/repo"
)

type AuthHandler struct {
	Verifier *auth.Verifier
	Issuer   *auth.Issuer
	Auth     *auth.Authenticator
	Resets   *auth.PasswordResetService
	Repo     *repo.GormRepo
	Producer *events.Producer

	MailEnabled bool
}

func (h *AuthHandler) publish(c echo.Context, key string, event map[string]any) {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()
	if err := h.Producer.PublishEvent(ctx, "user_events", key, event); err != nil {
		logging.FromContext(c.Request().Context()).Warn("event_publish_failed", "error", err)
	}
}

func (h *AuthHandler) Login(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "auth_login")

	var req struct {
		Identifier string `json:"identifier"`
		Username   string `json:"username"`
		Password   string `json:"password"`
		RememberMe bool   `json:"remember_me"`
	}
	if err := c.Bind(&req); err != nil {
		l.Warn("login_failed", "status", 400, "error", err)
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}
	identifier := req.Identifier
	if identifier == "" {
		identifier = req.Username
	}
	if identifier == "" || req.Password == "" {
		l.Warn("login_failed", "status", 400, "reason", "missing_fields")
		return echo.NewHTTPError(http.StatusBadRequest, "identifier and password are required")
	}

	p, err := h.Verifier.Verify(ctx, identifier, req.Password)
	if err != nil {
		switch {
		case errors.Is(err, auth.ErrInactive):
			// Distinct message: the account exists but is disabled.
			l.Warn("login_failed", "status", 401, "reason", "inactive")
			return echo.NewHTTPError(http.StatusUnauthorized, "account is inactive, contact an administrator")
		case errors.Is(err, auth.ErrNotFound), errors.Is(err, auth.ErrBadSecret):
			// One generic message for both, to avoid identifier enumeration.
			l.Warn("login_failed", "status", 401, "reason", "invalid_credentials")
			return echo.NewHTTPError(http.StatusUnauthorized, "invalid identifier or password")
		default:
			l.Error("login_failed", "status", 500, "error", err)
			return echo.NewHTTPError(http.StatusInternalServerError, "internal error")
		}
	}

	token, expiresAt, err := h.Issuer.Issue(ctx, p, req.RememberMe)
	if err != nil {
		l.Error("login_failed", "status", 500, "reason", "cannot create token", "error", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "cannot create token")
	}

	if req.RememberMe {
		c.SetCookie(&http.Cookie{
			Name:     authmw.SessionCookie,
			Value:    token,
			Path:     "/",
			Expires:  expiresAt,
			HttpOnly: true,
			SameSite: http.SameSiteLaxMode,
		})
	}

	h.publish(c, fmt.Sprint(p.ID), map[string]any{
		"type":    "user_logged_in",
		"user_id": p.ID,
	})

	l.Info("login_success", "user_id", p.ID)
	return c.JSON(http.StatusOK, echo.Map{
		"token":      token,
		"expires_at": expiresAt,
		"user":       p,
	})
}

// Verify re-reads the stored row behind the token so a deactivated
// account is rejected even while its token is still valid.
func (h *AuthHandler) Verify(c echo.Context) error {
	p := authmw.PrincipalFrom(c)
	if p == nil {
		return echo.NewHTTPError(http.StatusUnauthorized, "authentication required")
	}
	return c.JSON(http.StatusOK, echo.Map{"user": p})
}

func (h *AuthHandler) Me(c echo.Context) error {
	ctx := c.Request().Context()
	p := authmw.PrincipalFrom(c)
	if p == nil {
		return echo.NewHTTPError(http.StatusUnauthorized, "authentication required")
	}

	user, err := h.Repo.FindUserByID(ctx, p.ID)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, "user not found")
		}
		return echo.NewHTTPError(http.StatusInternalServerError, "internal error")
	}
	return c.JSON(http.StatusOK, user)
}

func (h *AuthHandler) Logout(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "auth_logout")

	bearer := authmw.BearerFrom(c)
	if bearer != "" {
		if err := h.Issuer.Revoke(ctx, bearer); err != nil {
			l.Warn("logout_session_delete_failed", "error", err)
		}
		h.Auth.Invalidate(bearer)
	}

	// Cookie-only clients carry the session token there, not in the
	// Authorization header; its record must die too.
	if cookie, err := c.Cookie(authmw.SessionCookie); err == nil && cookie.Value != "" && cookie.Value != bearer {
		if err := h.Issuer.Revoke(ctx, cookie.Value); err != nil {
			l.Warn("logout_session_delete_failed", "error", err)
		}
		h.Auth.Invalidate(cookie.Value)
	}

	c.SetCookie(&http.Cookie{
		Name:     authmw.SessionCookie,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
	})

	l.Info("logout_success")
	return c.JSON(http.StatusOK, echo.Map{"message": "logged out"})
}

func (h *AuthHandler) UpdateProfile(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "auth_update_profile")

	p := authmw.PrincipalFrom(c)
	if p == nil {
		return echo.NewHTTPError(http.StatusUnauthorized, "authentication required")
	}

	var req struct {
		OldPassword string  `json:"old_password"`
		NewPassword string  `json:"new_password"`
		FullName    *string `json:"full_name"`
		Phone       *string `json:"phone"`
		Address     *string `json:"address"`
	}
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}

	if req.NewPassword != "" {
		if req.OldPassword == "" {
			return echo.NewHTTPError(http.StatusBadRequest, "old password is required")
		}
		user, err := h.Repo.FindUserByID(ctx, p.ID)
		if err != nil {
			return echo.NewHTTPError(http.StatusInternalServerError, "internal error")
		}
		if !hash.CheckPassword(user.PasswordHash, req.OldPassword) {
			l.Warn("update_profile_failed", "status", 400, "reason", "bad_old_password")
			return echo.NewHTTPError(http.StatusBadRequest, "old password is incorrect")
		}
		if len(req.NewPassword) < 8 {
			return echo.NewHTTPError(http.StatusBadRequest, "password must be at least 8 characters")
		}
		pwHash, err := hash.HashPassword(req.NewPassword)
		if err != nil {
			return echo.NewHTTPError(http.StatusInternalServerError, "internal error")
		}
		if err := h.Repo.UpdateUserPassword(ctx, p.ID, pwHash); err != nil {
			return echo.NewHTTPError(http.StatusInternalServerError, "internal error")
		}
	}

	fields := map[string]any{}
	if req.FullName != nil {
		fields["full_name"] = *req.FullName
	}
	if req.Phone != nil {
		fields["phone"] = *req.Phone
	}
	if req.Address != nil {
		fields["address"] = *req.Address
	}
	if err := h.Repo.UpdateUserProfile(ctx, p.ID, fields); err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "internal error")
	}

	l.Info("update_profile_success", "user_id", p.ID)
	return c.JSON(http.StatusOK, echo.Map{"message": "profile updated"})
}

func (h *AuthHandler) ForgotPassword(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "auth_forgot_password")

	if !h.MailEnabled {
		return echo.NewHTTPError(http.StatusServiceUnavailable, "password reset is not configured")
	}

	var req struct {
		Email string `json:"email"`
	}
	if err := c.Bind(&req); err != nil || req.Email == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "email is required")
	}

	if err := h.Resets.Request(ctx, req.Email); err != nil {
		switch {
		case errors.Is(err, auth.ErrNotFound):
			l.Warn("forgot_password_failed", "status", 404, "reason", "unknown_email")
			return echo.NewHTTPError(http.StatusNotFound, "email not found")
		case errors.Is(err, auth.ErrInactive):
			l.Warn("forgot_password_failed", "status", 401, "reason", "inactive")
			return echo.NewHTTPError(http.StatusUnauthorized, "account is inactive")
		default:
			l.Error("forgot_password_failed", "status", 500, "error", err)
			return echo.NewHTTPError(http.StatusInternalServerError, "internal error")
		}
	}

	return c.JSON(http.StatusOK, echo.Map{"message": "a one-time code was sent to your email"})
}

func (h *AuthHandler) VerifyOTP(c echo.Context) error {
	ctx := c.Request().Context()

	var req struct {
		Email string `json:"email"`
		OTP   string `json:"otp"`
	}
	if err := c.Bind(&req); err != nil || req.Email == "" || req.OTP == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "email and otp are required")
	}

	token, err := h.Resets.VerifyOTP(ctx, req.Email, req.OTP)
	if err != nil {
		if errors.Is(err, auth.ErrBadOTP) {
			return echo.NewHTTPError(http.StatusBadRequest, "invalid or expired code")
		}
		return echo.NewHTTPError(http.StatusInternalServerError, "internal error")
	}

	return c.JSON(http.StatusOK, echo.Map{"token": token})
}

func (h *AuthHandler) ResetPassword(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "auth_reset_password")

	var req struct {
		Email       string `json:"email"`
		OTP         string `json:"otp"`
		NewPassword string `json:"new_password"`
	}
	if err := c.Bind(&req); err != nil || req.Email == "" || req.OTP == "" || req.NewPassword == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "email, otp and new_password are required")
	}

	if err := h.Resets.Reset(ctx, req.Email, req.OTP, req.NewPassword); err != nil {
		switch {
		case errors.Is(err, auth.ErrWeakPassword):
			return echo.NewHTTPError(http.StatusBadRequest, "password must be at least 8 characters")
		case errors.Is(err, auth.ErrBadOTP):
			return echo.NewHTTPError(http.StatusBadRequest, "invalid or expired code")
		case errors.Is(err, auth.ErrNotFound):
			return echo.NewHTTPError(http.StatusNotFound, "user not found")
		default:
			l.Error("reset_password_failed", "status", 500, "error", err)
			return echo.NewHTTPError(http.StatusInternalServerError, "internal error")
		}
	}

	l.Info("reset_password_success")
	return c.JSON(http.StatusOK, echo.Map{"message": "password reset"})
}
