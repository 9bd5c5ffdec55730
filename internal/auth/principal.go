package auth

import (
	"errors"

	"github.com/salesapp/sales-management/internal/models"
)

var (
	ErrNotFound     = errors.New("account not found")        // 401, generic message
	ErrInactive     = errors.New("account inactive")         // 401, distinct message
	ErrBadSecret    = errors.New("invalid credentials")      // 401, generic message
	ErrTokenExpired = errors.New("token expired")            // 401
	ErrTokenInvalid = errors.New("invalid token")            // 401
	ErrNoCredential = errors.New("no credential presented")  // 401
	ErrForbidden    = errors.New("insufficient permissions") // 403
)

// Principal is the authenticated identity resolved for a request. It is a
// projection of a stored user row and is never persisted itself.
type Principal struct {
	ID       uint   `json:"id"`
	Username string `json:"username"`
	Email    string `json:"email"`
	Name     string `json:"name"`
	Role     string `json:"role"`
}

func PrincipalFromUser(user *models.User) *Principal {
	name := user.FullName
	if name == "" {
		name = user.Username
	}
	return &Principal{
		ID:       user.ID,
		Username: user.Username,
		Email:    user.Email,
		Name:     name,
		Role:     user.Role,
	}
}

// Require is the role gate applied after authentication. With no roles
// it only demands an authenticated principal.
func Require(p *Principal, roles ...string) error {
	if p == nil {
		return ErrNoCredential
	}
	if len(roles) == 0 {
		return nil
	}
	for _, role := range roles {
		if p.Role == role {
			return nil
		}
	}
	return ErrForbidden
}
