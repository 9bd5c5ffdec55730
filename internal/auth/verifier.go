package auth

import (
	"context"
	"errors"

	"github.com/salesapp/sales-management/internal/hash"
	"github.com/salesapp/sales-management/internal/logging"
	"github.com/salesapp/sales-management/internal/repo"
)

// Verifier validates a login identifier + secret against the stored hash.
type Verifier struct {
	Repo *repo.GormRepo
}

// Verify resolves the identifier against both the username and email
// columns and checks the secret. Failure reasons are distinct so the
// handler can collapse NotFound/BadSecret into one generic message while
// giving Inactive its own.
func (v *Verifier) Verify(ctx context.Context, identifier, secret string) (*Principal, error) {
	l := logging.FromContext(ctx).With("svc", "auth.verify")

	user, err := v.Repo.FindUserByIdentifier(ctx, identifier)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	if !user.IsActive {
		return nil, ErrInactive
	}

	if !hash.CheckPassword(user.PasswordHash, secret) {
		return nil, ErrBadSecret
	}

	// Best-effort: a failed timestamp touch must not fail the login.
	if err := v.Repo.TouchLastLogin(ctx, user.ID); err != nil {
		l.Warn("touch_last_login_failed", "user_id", user.ID, "error", err)
	}

	return PrincipalFromUser(user), nil
}
