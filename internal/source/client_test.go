package source

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pricofy/catalog-translator/internal/domain"
)

func TestFetchDataset(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		w.Header().Set("Content-Type", "application/json")
		io.WriteString(w, `[
			{"title":"Ghế gỗ","content":"<p>chair</p>","sku":"A1","price":{"value":10},"brand":"acme"},
			{"title":"Bàn"}
		]`)
	}))
	defer srv.Close()

	items, err := New(srv.Client(), "").FetchDataset(context.Background(), srv.URL)
	require.NoError(t, err)
	require.Len(t, items, 2)

	assert.Equal(t, "Ghế gỗ", items[0].Title)
	require.NotNil(t, items[0].Content)
	assert.Equal(t, "<p>chair</p>", *items[0].Content)
	assert.JSONEq(t, `"acme"`, string(items[0].Extra["brand"]))
	assert.False(t, items[1].HasContent())
}

func TestFetchDataset_Errors(t *testing.T) {
	tests := []struct {
		name       string
		status     int
		body       string
		wantStatus int
	}{
		{name: "not found", status: http.StatusNotFound, body: "nope", wantStatus: http.StatusNotFound},
		{name: "server error", status: http.StatusInternalServerError, wantStatus: http.StatusInternalServerError},
		{name: "not an array", status: http.StatusOK, body: `{"title":"x"}`},
		{name: "truncated", status: http.StatusOK, body: `[{"title":`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				io.WriteString(w, tt.body)
			}))
			defer srv.Close()

			_, err := New(srv.Client(), "").FetchDataset(context.Background(), srv.URL)
			require.Error(t, err)
			assert.ErrorIs(t, err, domain.ErrFetch)

			var fe *domain.FetchError
			require.True(t, errors.As(err, &fe))
			assert.Equal(t, tt.wantStatus, fe.StatusCode)
			assert.Equal(t, srv.URL, fe.URL)
		})
	}
}

func TestFetchDataset_Unreachable(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	_, err := New(nil, "").FetchDataset(context.Background(), url)
	assert.ErrorIs(t, err, domain.ErrFetch)
}

func TestLookupProducts(t *testing.T) {
	var gotSKUs []string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))

		var req struct {
			SKUs []string `json:"skus"`
		}
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		gotSKUs = req.SKUs

		io.WriteString(w, `{"data":[
			{"id":17,"sku":"A1","values":{"channel_locale_specific":{}}},
			{"id":"18","sku":"B2","values":"{}"}
		]}`)
	}))
	defer srv.Close()

	records, err := New(srv.Client(), srv.URL).LookupProducts(context.Background(), []string{"A1", "B2", "C3"})
	require.NoError(t, err)

	assert.Equal(t, []string{"A1", "B2", "C3"}, gotSKUs)
	require.Len(t, records, 2)
	assert.Equal(t, domain.ProductID("17"), records[0].ID)
	assert.Equal(t, "B2", records[1].SKU)
	assert.JSONEq(t, `"{}"`, string(records[1].Values))
}

func TestLookupProducts_EmptyData(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, `{}`)
	}))
	defer srv.Close()

	records, err := New(srv.Client(), srv.URL).LookupProducts(context.Background(), []string{"X"})
	require.NoError(t, err)
	assert.NotNil(t, records)
	assert.Empty(t, records)
}

func TestLookupProducts_Status(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	_, err := New(srv.Client(), srv.URL).LookupProducts(context.Background(), []string{"X"})
	var fe *domain.FetchError
	require.True(t, errors.As(err, &fe))
	assert.Equal(t, http.StatusBadGateway, fe.StatusCode)
}
