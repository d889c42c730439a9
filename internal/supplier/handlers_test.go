package supplier_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/require"

	"github.com/kasirhub/backend-pos/internal/common"
	"github.com/kasirhub/backend-pos/internal/supplier"
)

type fakeDirectory struct {
	suppliers map[string]supplier.Supplier
}

func (f *fakeDirectory) List(context.Context, int, int) ([]supplier.Supplier, int64, error) {
	out := make([]supplier.Supplier, 0, len(f.suppliers))
	for _, s := range f.suppliers {
		out = append(out, s)
	}
	return out, int64(len(out)), nil
}

func (f *fakeDirectory) Get(_ context.Context, id string) (supplier.Supplier, error) {
	s, ok := f.suppliers[id]
	if !ok {
		return supplier.Supplier{}, common.NotFound("supplier not found")
	}
	return s, nil
}

func (f *fakeDirectory) Create(_ context.Context, in supplier.Input) (supplier.Supplier, error) {
	s := supplier.Supplier{ID: "sup-1", Name: in.Name, Contact: in.Contact, Phone: in.Phone, Address: in.Address}
	f.suppliers[s.ID] = s
	return s, nil
}

func (f *fakeDirectory) Update(_ context.Context, id string, in supplier.Input) (supplier.Supplier, error) {
	s, ok := f.suppliers[id]
	if !ok {
		return supplier.Supplier{}, common.NotFound("supplier not found")
	}
	s.Name = in.Name
	f.suppliers[id] = s
	return s, nil
}

func (f *fakeDirectory) Delete(_ context.Context, id string) error {
	if _, ok := f.suppliers[id]; !ok {
		return common.NotFound("supplier not found")
	}
	delete(f.suppliers, id)
	return nil
}

func TestCreateRejectsShortName(t *testing.T) {
	handler := supplier.Handler{Svc: &fakeDirectory{suppliers: map[string]supplier.Supplier{}}}

	rr := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/suppliers", strings.NewReader(`{"name":"X","contact":"Pak Joko","phone":"0811223344"}`))
	handler.Create(rr, req)
	require.Equal(t, http.StatusUnprocessableEntity, rr.Code)
}

func TestCreateAndGet(t *testing.T) {
	dir := &fakeDirectory{suppliers: map[string]supplier.Supplier{}}
	handler := supplier.Handler{Svc: dir}

	rr := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/suppliers", strings.NewReader(`{"name":"CV Sumber Pangan","contact":"Pak Joko","phone":"0811223344","address":"Jl. Pasar Baru 12"}`))
	handler.Create(rr, req)
	require.Equal(t, http.StatusCreated, rr.Code)
	require.Len(t, dir.suppliers, 1)

	rc := chi.NewRouteContext()
	rc.URLParams.Add("id", "sup-1")
	getReq := httptest.NewRequest(http.MethodGet, "/api/v1/suppliers/sup-1", nil)
	getReq = getReq.WithContext(context.WithValue(getReq.Context(), chi.RouteCtxKey, rc))
	rr2 := httptest.NewRecorder()
	handler.Get(rr2, getReq)
	require.Equal(t, http.StatusOK, rr2.Code)
	require.Contains(t, rr2.Body.String(), "CV Sumber Pangan")
}
