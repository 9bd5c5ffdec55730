package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/glebarez/sqlite"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/salesapp/sales-management/internal/auth"
	"github.com/salesapp/sales-management/internal/hash"
	"github.com/salesapp/sales-management/internal/models"
	"github.com/salesapp/sales-management/internal/order"
	"github.com/salesapp/sales-management/internal/repo"
)

type testEnv struct {
	e       *echo.Echo
	repo    *repo.GormRepo
	issuer  *auth.Issuer
	auth    *auth.Authenticator
	A       *AuthHandler
	O       *OrderHandler
	P       *ProductHandler
	C       *CustomerHandler
	manager *order.Manager
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	require.NoError(t, repo.Migrate(db))
	r := repo.New(db)

	issuer := auth.NewIssuer([]byte("test-jwt-secret"), r)
	authenticator := auth.NewAuthenticator(issuer, r)
	manager := order.NewManager(r)

	return &testEnv{
		e:       echo.New(),
		repo:    r,
		issuer:  issuer,
		auth:    authenticator,
		manager: manager,
		A: &AuthHandler{
			Verifier: &auth.Verifier{Repo: r},
			Issuer:   issuer,
			Auth:     authenticator,
			Repo:     r,
		},
		O: &OrderHandler{Manager: manager, Repo: r},
		P: &ProductHandler{Repo: r},
		C: &CustomerHandler{Repo: r},
	}
}

func (env *testEnv) doJSONRequest(method, target string, payload any) (*httptest.ResponseRecorder, *http.Request, echo.Context) {
	var body bytes.Buffer
	if payload != nil {
		_ = json.NewEncoder(&body).Encode(payload)
	}
	req := httptest.NewRequest(method, target, &body)
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	c := env.e.NewContext(req, rec)
	return rec, req, c
}

func (env *testEnv) seedUser(t *testing.T, username, password, role string, active bool) *models.User {
	t.Helper()

	pwHash, err := hash.HashPassword(password)
	require.NoError(t, err)

	user := &models.User{
		Username:     username,
		Email:        username + "@example.com",
		PasswordHash: pwHash,
		Role:         role,
		IsActive:     active,
	}
	require.NoError(t, env.repo.CreateUser(context.Background(), user))
	return user
}

func orderInput(customerID, productID uint, qty int) order.CreateInput {
	return order.CreateInput{
		CustomerID: customerID,
		Items:      []order.LineItem{{ProductID: productID, Quantity: qty}},
	}
}

func requireHTTPError(t *testing.T, err error, code int) {
	t.Helper()

	var he *echo.HTTPError
	require.ErrorAs(t, err, &he)
	require.Equal(t, code, he.Code)
}
