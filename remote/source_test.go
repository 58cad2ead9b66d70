package remote

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/goliatone/go-uniquevalue-cache/uniquevalue"
)

func newAPIServer(t *testing.T, payload map[string][]string) *httptest.Server {
	t.Helper()

	mux := http.NewServeMux()
	for path, data := range payload {
		mux.HandleFunc(path, func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			_ = json.NewEncoder(w).Encode(map[string]any{"data": data})
		})
	}
	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)
	return server
}

func TestConfig_Validate(t *testing.T) {
	assert.Error(t, Config{}.Validate())
	assert.Error(t, Config{BaseURL: "not-a-url"}.Validate())
	assert.NoError(t, Config{BaseURL: "https://api.example.com"}.Validate())
}

func TestHTTPSource_FetchAll(t *testing.T) {
	server := newAPIServer(t, map[string][]string{
		"/payers/unique/names":     {"Ravi", "Priya"},
		"/payers/unique/gifts":     {"Ring"},
		"/payers/unique/relations": {"Friend"},
		"/payers/unique/cities":    {"Chennai"},
		"/payers/unique/works":     {"Doctor"},
	})

	source, err := NewHTTPSource(Config{BaseURL: server.URL})
	require.NoError(t, err)

	set, err := source.FetchAll(context.Background())
	require.NoError(t, err)

	assert.Equal(t, []string{"Ravi", "Priya"}, set.Get(uniquevalue.CategoryNames))
	assert.Equal(t, []string{"Ring"}, set.Get(uniquevalue.CategoryGifts))
	assert.Equal(t, []string{"Friend"}, set.Get(uniquevalue.CategoryRelations))
	assert.Equal(t, []string{"Chennai"}, set.Get(uniquevalue.CategoryCities))
	assert.Equal(t, []string{"Doctor"}, set.Get(uniquevalue.CategoryWorkTypes))
}

func TestHTTPSource_SendsBearerToken(t *testing.T) {
	var sawAuth atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") == "Bearer secret-token" {
			sawAuth.Add(1)
		}
		_ = json.NewEncoder(w).Encode(map[string]any{"data": []string{"x"}})
	}))
	t.Cleanup(server.Close)

	source, err := NewHTTPSource(Config{
		BaseURL: server.URL,
		Token:   func() string { return "secret-token" },
	})
	require.NoError(t, err)

	_, err = source.FetchAll(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int32(5), sawAuth.Load(), "every endpoint must carry the bearer token")
}

func TestHTTPSource_ServerErrorFailsBatch(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/payers/unique/gifts" {
			http.Error(w, "boom", http.StatusInternalServerError)
			return
		}
		_ = json.NewEncoder(w).Encode(map[string]any{"data": []string{"x"}})
	})
	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)

	source, err := NewHTTPSource(Config{BaseURL: server.URL})
	require.NoError(t, err)

	_, err = source.FetchAll(context.Background())
	require.Error(t, err)

	var fetchErr *FetchError
	require.ErrorAs(t, err, &fetchErr)
	assert.Equal(t, http.StatusInternalServerError, fetchErr.Status)
	assert.Equal(t, "/payers/unique/gifts", fetchErr.Endpoint)
}

func TestHTTPSource_NullDataBecomesEmptyList(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"data": null}`))
	}))
	t.Cleanup(server.Close)

	source, err := NewHTTPSource(Config{BaseURL: server.URL})
	require.NoError(t, err)

	set, err := source.FetchAll(context.Background())
	require.NoError(t, err)
	for _, category := range uniquevalue.Categories() {
		values, ok := set[category]
		require.True(t, ok)
		assert.NotNil(t, values)
		assert.Empty(t, values)
	}
}

func TestHTTPSource_ContextCancellation(t *testing.T) {
	server := newAPIServer(t, map[string][]string{})

	source, err := NewHTTPSource(Config{BaseURL: server.URL})
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err = source.FetchAll(ctx)
	require.Error(t, err)
}
