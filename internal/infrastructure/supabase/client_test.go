package supabase

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/grocerycalc/backend/internal/domain"
)

func newTestClient(baseURL string) *Client {
	client := NewClient(ClientConfig{
		BaseURL:           baseURL,
		APIKey:            "test-api-key",
		RequestsPerSecond: 1000,
		Burst:             100,
	})
	client.backoffBase = time.Millisecond
	return client
}

func TestNewClient(t *testing.T) {
	client := NewClient(ClientConfig{BaseURL: "https://project.supabase.co/", APIKey: "test-api-key"})

	assert.NotNil(t, client)
	assert.Equal(t, "test-api-key", client.apiKey)
	assert.Equal(t, "https://project.supabase.co", client.baseURL)
	assert.Equal(t, "products", client.table)
	assert.Equal(t, 15*time.Second, client.httpClient.Timeout)
	assert.NotNil(t, client.rateLimiter)
	assert.False(t, client.debug)
}

func TestSetDebug(t *testing.T) {
	client := NewClient(ClientConfig{BaseURL: "https://project.supabase.co", APIKey: "k"})

	assert.False(t, client.debug)

	client.SetDebug(true)
	assert.True(t, client.debug)

	client.SetDebug(false)
	assert.False(t, client.debug)
}

func TestExponentialBackoff(t *testing.T) {
	client := NewClient(ClientConfig{})

	tests := []struct {
		attempt  int
		expected time.Duration
	}{
		{1, 500 * time.Millisecond},
		{2, 1000 * time.Millisecond},
		{3, 2000 * time.Millisecond},
	}

	for _, tt := range tests {
		t.Run("", func(t *testing.T) {
			assert.Equal(t, tt.expected, client.exponentialBackoff(tt.attempt))
		})
	}
}

func TestFetchAll_Success(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, "/rest/v1/products", r.URL.Path)
		assert.Equal(t, "*", r.URL.Query().Get("select"))
		assert.Equal(t, "data_added.desc", r.URL.Query().Get("order"))
		assert.Equal(t, "test-api-key", r.Header.Get("apikey"))
		assert.Equal(t, "Bearer test-api-key", r.Header.Get("Authorization"))

		w.Header().Set("Content-Type", "application/json")
		io.WriteString(w, `[
			{"id": 2, "name": "Oil", "barcode": "B2", "price": 120, "data_added": "2024-03-02T10:00:00+00:00"},
			{"id": 1, "name": "Rice", "barcode": "A1", "price": "50.25", "data_added": "2024-03-01T10:00:00+00:00"}
		]`)
	}))
	defer server.Close()

	client := newTestClient(server.URL)
	products, err := client.FetchAll(context.Background())

	require.NoError(t, err)
	require.Len(t, products, 2)
	assert.Equal(t, "2", products[0].ID)
	assert.Equal(t, "Oil", products[0].Name)
	assert.True(t, products[0].Price.Equal(decimal.NewFromInt(120)))
	assert.True(t, products[1].Price.Equal(decimal.RequireFromString("50.25")))
	assert.Equal(t, 2024, products[0].AddedAt.Year())
}

func TestFetchAll_DropsMalformedRecords(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, `[
			{"id": 1, "name": "Rice", "barcode": "A1", "price": 50},
			{"id": null, "name": "Ghost", "barcode": "G0", "price": 1},
			{"id": 3, "name": "Salt", "barcode": "C3", "price": "cheap"},
			{"id": 1, "name": "Rice again", "barcode": "A1", "price": 51}
		]`)
	}))
	defer server.Close()

	products, err := newTestClient(server.URL).FetchAll(context.Background())

	require.NoError(t, err)
	require.Len(t, products, 1)
	assert.Equal(t, "Rice", products[0].Name)
}

func TestFetchAll_ServerError_Retries(t *testing.T) {
	attempts := 0

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attempts++
		if attempts < 3 {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		io.WriteString(w, `[{"id": 1, "name": "Rice", "barcode": "A1", "price": 50}]`)
	}))
	defer server.Close()

	products, err := newTestClient(server.URL).FetchAll(context.Background())

	require.NoError(t, err)
	assert.Len(t, products, 1)
	assert.Equal(t, 3, attempts)
}

func TestFetchAll_ClientError_NoRetry(t *testing.T) {
	attempts := 0

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attempts++
		w.WriteHeader(http.StatusUnauthorized)
		io.WriteString(w, `{"message":"Invalid API key"}`)
	}))
	defer server.Close()

	products, err := newTestClient(server.URL).FetchAll(context.Background())

	assert.Nil(t, products)
	assert.ErrorIs(t, err, domain.ErrRemoteUnavailable)
	assert.Equal(t, 1, attempts) // Should not retry 4xx errors
}

func TestFetchAll_TooManyRequests_Retries(t *testing.T) {
	attempts := 0

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attempts++
		if attempts < 2 {
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		io.WriteString(w, `[]`)
	}))
	defer server.Close()

	products, err := newTestClient(server.URL).FetchAll(context.Background())

	require.NoError(t, err)
	assert.Empty(t, products)
	assert.Equal(t, 2, attempts)
}

func TestFetchAll_AllRetriesFail(t *testing.T) {
	attempts := 0

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attempts++
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer server.Close()

	_, err := newTestClient(server.URL).FetchAll(context.Background())

	assert.ErrorIs(t, err, domain.ErrRemoteUnavailable)
	assert.Equal(t, 3, attempts)
}

func TestFetchAll_Unreachable(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := server.URL
	server.Close()

	_, err := newTestClient(url).FetchAll(context.Background())

	assert.ErrorIs(t, err, domain.ErrRemoteUnavailable)
}

func TestFetchAll_InvalidJSON(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, `{"unexpected": "object"}`)
	}))
	defer server.Close()

	_, err := newTestClient(server.URL).FetchAll(context.Background())

	assert.ErrorIs(t, err, domain.ErrRemoteUnavailable)
}

func TestFetchAll_ContextCancelled(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(time.Second):
		}
	}))
	defer server.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	start := time.Now()
	_, err := newTestClient(server.URL).FetchAll(ctx)

	assert.ErrorIs(t, err, domain.ErrRemoteUnavailable)
	assert.Less(t, time.Since(start), 900*time.Millisecond)
}

func TestInsert(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/rest/v1/products", r.URL.Path)
		assert.Equal(t, "return=representation", r.Header.Get("Prefer"))

		var body []map[string]interface{}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		require.Len(t, body, 1)
		assert.Equal(t, "Oil", body[0]["name"])
		assert.Equal(t, "B2", body[0]["barcode"])
		assert.Equal(t, 120.5, body[0]["price"])

		w.WriteHeader(http.StatusCreated)
		io.WriteString(w, `[{"id": 42, "name": "Oil", "barcode": "B2", "price": 120.5}]`)
	}))
	defer server.Close()

	id, err := newTestClient(server.URL).Insert(context.Background(), domain.ProductInput{
		Name:    "Oil",
		Barcode: "B2",
		Price:   decimal.RequireFromString("120.5"),
	})

	require.NoError(t, err)
	assert.Equal(t, "42", id)
}

func TestUpdate(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPatch, r.Method)
		assert.Equal(t, "eq.7", r.URL.Query().Get("id"))

		var body map[string]interface{}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, map[string]interface{}{"price": 60.0}, body)

		io.WriteString(w, `[{"id": 7, "name": "Rice", "barcode": "A1", "price": 60}]`)
	}))
	defer server.Close()

	price := decimal.NewFromInt(60)
	err := newTestClient(server.URL).Update(context.Background(), "7", domain.ProductUpdate{Price: &price})

	assert.NoError(t, err)
}

func TestUpdate_NotFound(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, `[]`)
	}))
	defer server.Close()

	name := "Nothing"
	err := newTestClient(server.URL).Update(context.Background(), "999", domain.ProductUpdate{Name: &name})

	assert.ErrorIs(t, err, domain.ErrProductNotFound)
}

func TestDelete(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodDelete, r.Method)
		assert.Equal(t, "eq.7", r.URL.Query().Get("id"))
		assert.Equal(t, "return=representation", r.Header.Get("Prefer"))

		io.WriteString(w, `[{"id": 7, "name": "Rice", "barcode": "A1", "price": 60}]`)
	}))
	defer server.Close()

	assert.NoError(t, newTestClient(server.URL).Delete(context.Background(), "7"))
}

func TestDelete_ServerError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	err := newTestClient(server.URL).Delete(context.Background(), "7")

	assert.ErrorIs(t, err, domain.ErrRemoteUnavailable)
}
