package handlers

import (
	"encoding/json"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/salesapp/sales-management/internal/models"
)

func TestCustomerCreateAndGet(t *testing.T) {
	env := newTestEnv(t)

	rec, _, c := env.doJSONRequest(http.MethodPost, "/api/customers", map[string]any{
		"name":  "Alice",
		"email": "alice@example.com",
		"phone": "555-0100",
	})
	require.NoError(t, env.C.Create(c))
	require.Equal(t, http.StatusCreated, rec.Code)

	var created models.Customer
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &created))
	require.NotZero(t, created.ID)
	assert.True(t, created.IsActive)

	// Same email again conflicts on the unique index.
	_, _, c = env.doJSONRequest(http.MethodPost, "/api/customers", map[string]any{
		"name":  "Alice Again",
		"email": "alice@example.com",
	})
	requireHTTPError(t, env.C.Create(c), http.StatusConflict)

	rec, _, c = env.doJSONRequest(http.MethodGet, "/api/customers/1", nil)
	c.SetParamNames("id")
	c.SetParamValues("1")
	require.NoError(t, env.C.Get(c))
	require.Equal(t, http.StatusOK, rec.Code)

	var got models.Customer
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.Equal(t, "Alice", got.Name)
}

func TestCustomerCreate_MissingFields(t *testing.T) {
	env := newTestEnv(t)

	_, _, c := env.doJSONRequest(http.MethodPost, "/api/customers", map[string]any{
		"name": "no email",
	})
	requireHTTPError(t, env.C.Create(c), http.StatusBadRequest)
}

func TestCustomerListAndDelete(t *testing.T) {
	env := newTestEnv(t)

	for _, email := range []string{"a@example.com", "b@example.com"} {
		_, _, c := env.doJSONRequest(http.MethodPost, "/api/customers", map[string]any{
			"name":  "c",
			"email": email,
		})
		require.NoError(t, env.C.Create(c))
	}

	rec, _, c := env.doJSONRequest(http.MethodGet, "/api/customers", nil)
	require.NoError(t, env.C.List(c))

	var resp struct {
		Customers []models.Customer `json:"customers"`
		Total     int64             `json:"total"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Len(t, resp.Customers, 2)
	assert.Equal(t, int64(2), resp.Total)

	rec, _, c = env.doJSONRequest(http.MethodDelete, "/api/customers/1", nil)
	c.SetParamNames("id")
	c.SetParamValues("1")
	require.NoError(t, env.C.Delete(c))
	require.Equal(t, http.StatusNoContent, rec.Code)

	// Soft delete: the row is only hidden from the listing.
	rec, _, c = env.doJSONRequest(http.MethodGet, "/api/customers", nil)
	require.NoError(t, env.C.List(c))
	resp.Customers = nil
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Len(t, resp.Customers, 1)
	assert.Equal(t, int64(1), resp.Total)

	_, _, c = env.doJSONRequest(http.MethodDelete, "/api/customers/999", nil)
	c.SetParamNames("id")
	c.SetParamValues("999")
	requireHTTPError(t, env.C.Delete(c), http.StatusNotFound)
}
