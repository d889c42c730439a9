package customer_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/require"

	"github.com/kasirhub/backend-pos/internal/common"
	"github.com/kasirhub/backend-pos/internal/customer"
)

type fakeDirectory struct {
	customers map[string]customer.Customer
}

func newFakeDirectory() *fakeDirectory {
	return &fakeDirectory{customers: map[string]customer.Customer{}}
}

func (f *fakeDirectory) List(_ context.Context, search string, _, _ int) ([]customer.Customer, int64, error) {
	out := make([]customer.Customer, 0, len(f.customers))
	for _, c := range f.customers {
		if search == "" || strings.Contains(c.Name, search) {
			out = append(out, c)
		}
	}
	return out, int64(len(out)), nil
}

func (f *fakeDirectory) Get(_ context.Context, id string) (customer.Customer, error) {
	c, ok := f.customers[id]
	if !ok {
		return customer.Customer{}, common.NotFound("customer not found")
	}
	return c, nil
}

func (f *fakeDirectory) Create(_ context.Context, in customer.Input) (customer.Customer, error) {
	c := customer.Customer{ID: "cust-1", Name: in.Name, Phone: in.Phone, Email: in.Email}
	f.customers[c.ID] = c
	return c, nil
}

func (f *fakeDirectory) Update(_ context.Context, id string, in customer.Input) (customer.Customer, error) {
	c, ok := f.customers[id]
	if !ok {
		return customer.Customer{}, common.NotFound("customer not found")
	}
	c.Name = in.Name
	c.Phone = in.Phone
	c.Email = in.Email
	f.customers[id] = c
	return c, nil
}

func (f *fakeDirectory) Delete(_ context.Context, id string) error {
	if _, ok := f.customers[id]; !ok {
		return common.NotFound("customer not found")
	}
	delete(f.customers, id)
	return nil
}

func withURLParam(r *http.Request, key, value string) *http.Request {
	rc := chi.NewRouteContext()
	rc.URLParams.Add(key, value)
	return r.WithContext(context.WithValue(r.Context(), chi.RouteCtxKey, rc))
}

func TestCreateValidatesPayload(t *testing.T) {
	handler := customer.Handler{Svc: newFakeDirectory()}

	rr := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/customers", strings.NewReader(`{"name":"A","phone":"1"}`))
	handler.Create(rr, req)
	require.Equal(t, http.StatusUnprocessableEntity, rr.Code)

	rr2 := httptest.NewRecorder()
	req2 := httptest.NewRequest(http.MethodPost, "/api/v1/customers", strings.NewReader(`{"name":"Siti Rahayu","phone":"081234567890"}`))
	handler.Create(rr2, req2)
	require.Equal(t, http.StatusCreated, rr2.Code)

	var body struct {
		Data customer.Customer `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rr2.Body.Bytes(), &body))
	require.Equal(t, "Siti Rahayu", body.Data.Name)
}

func TestGetReturnsNotFound(t *testing.T) {
	handler := customer.Handler{Svc: newFakeDirectory()}

	rr := httptest.NewRecorder()
	req := withURLParam(httptest.NewRequest(http.MethodGet, "/api/v1/customers/missing", nil), "id", "missing")
	handler.Get(rr, req)
	require.Equal(t, http.StatusNotFound, rr.Code)
}

func TestUpdateAndDelete(t *testing.T) {
	dir := newFakeDirectory()
	dir.customers["cust-1"] = customer.Customer{ID: "cust-1", Name: "Budi Santoso", Phone: "0811111111"}
	handler := customer.Handler{Svc: dir}

	rr := httptest.NewRecorder()
	req := withURLParam(httptest.NewRequest(http.MethodPut, "/api/v1/customers/cust-1", strings.NewReader(`{"name":"Budi Hartono","phone":"0822222222"}`)), "id", "cust-1")
	handler.Update(rr, req)
	require.Equal(t, http.StatusOK, rr.Code)
	require.Equal(t, "Budi Hartono", dir.customers["cust-1"].Name)

	rr2 := httptest.NewRecorder()
	req2 := withURLParam(httptest.NewRequest(http.MethodDelete, "/api/v1/customers/cust-1", nil), "id", "cust-1")
	handler.Delete(rr2, req2)
	require.Equal(t, http.StatusNoContent, rr2.Code)
	require.Empty(t, dir.customers)
}
