package di

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/goliatone/go-uniquevalue-cache/uniquevalue"
)

func newAPIServer(t *testing.T) *httptest.Server {
	t.Helper()

	payloads := map[string][]string{
		"/payers/unique/names":     {"Ravi"},
		"/payers/unique/gifts":     {"Ring"},
		"/payers/unique/relations": {"Friend"},
		"/payers/unique/cities":    {"Chennai"},
		"/payers/unique/works":     {"Doctor"},
	}

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		values, ok := payloads[r.URL.Path]
		if !ok {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{"data": values})
	}))
	t.Cleanup(server.Close)
	return server
}

func TestFromEnv(t *testing.T) {
	t.Setenv("UNIQUE_VALUES_API_BASE_URL", "https://api.example.com/api/v1")
	t.Setenv("UNIQUE_VALUES_STORE_PATH", "/tmp/uv.db")
	t.Setenv("UNIQUE_VALUES_FRESHNESS", "12h")

	cfg, err := FromEnv()
	if err != nil {
		t.Fatalf("expected no error but got: %v", err)
	}
	if cfg.APIBaseURL != "https://api.example.com/api/v1" {
		t.Errorf("unexpected base URL: %q", cfg.APIBaseURL)
	}
	if cfg.StorePath != "/tmp/uv.db" {
		t.Errorf("unexpected store path: %q", cfg.StorePath)
	}
	if cfg.Freshness != 12*time.Hour {
		t.Errorf("unexpected freshness: %v", cfg.Freshness)
	}
	if cfg.Retention != 168*time.Hour {
		t.Errorf("expected default retention but got: %v", cfg.Retention)
	}
	if cfg.CacheCapacity != 64 {
		t.Errorf("expected default capacity but got: %d", cfg.CacheCapacity)
	}
}

func TestConfigValidate(t *testing.T) {
	valid := Config{
		APIBaseURL: "https://api.example.com",
		Freshness:  24 * time.Hour,
		Retention:  168 * time.Hour,
	}
	if err := valid.Validate(); err != nil {
		t.Errorf("expected valid config but got: %v", err)
	}

	missingURL := valid
	missingURL.APIBaseURL = ""
	if err := missingURL.Validate(); err == nil {
		t.Error("expected an error for a missing API base URL")
	}

	shortRetention := valid
	shortRetention.Retention = time.Hour
	if err := shortRetention.Validate(); err == nil {
		t.Error("expected an error when retention is shorter than freshness")
	}
}

func TestNewContainer_FullStack(t *testing.T) {
	server := newAPIServer(t)

	container, err := NewContainer(Config{
		StorePath:  filepath.Join(t.TempDir(), "uv.db"),
		APIBaseURL: server.URL,
		Freshness:  24 * time.Hour,
		Retention:  168 * time.Hour,
	})
	if err != nil {
		t.Fatalf("expected no error but got: %v", err)
	}
	defer func() { _ = container.Close() }()

	if container.Store() == nil {
		t.Fatal("expected a persistent store")
	}
	if container.Source() == nil || container.CacheService() == nil || container.Synchronizer() == nil {
		t.Fatal("expected every collaborator to be wired")
	}

	set, err := container.Manager().Values(context.Background())
	if err != nil {
		t.Fatalf("expected no error but got: %v", err)
	}
	if got := set.Get(uniquevalue.CategoryCities); len(got) != 1 || got[0] != "Chennai" {
		t.Errorf("unexpected cities list: %v", got)
	}

	// The fetch must have been persisted for the next session.
	stored, err := container.Store().Get(context.Background(), uniquevalue.CategoryNames)
	if err != nil {
		t.Fatalf("expected no error but got: %v", err)
	}
	if len(stored) != 1 || stored[0] != "Ravi" {
		t.Errorf("unexpected stored names: %v", stored)
	}
}

func TestNewContainer_StoreFailureDegradesToRemoteOnly(t *testing.T) {
	server := newAPIServer(t)

	// Pointing the store at a directory makes it unopenable.
	container, err := NewContainer(Config{
		StorePath:  t.TempDir(),
		APIBaseURL: server.URL,
		Freshness:  24 * time.Hour,
		Retention:  168 * time.Hour,
	})
	if err != nil {
		t.Fatalf("expected construction to survive a store failure but got: %v", err)
	}
	defer func() { _ = container.Close() }()

	if container.Store() != nil {
		t.Fatal("expected remote-only mode")
	}

	set, err := container.Manager().Values(context.Background())
	if err != nil {
		t.Fatalf("expected remote-only reads to work but got: %v", err)
	}
	if len(set.Get(uniquevalue.CategoryGifts)) != 1 {
		t.Errorf("unexpected gifts list: %v", set.Get(uniquevalue.CategoryGifts))
	}
}

func TestNewContainer_EmptyStorePathSkipsStore(t *testing.T) {
	server := newAPIServer(t)

	container, err := NewContainer(Config{
		APIBaseURL: server.URL,
		Freshness:  24 * time.Hour,
		Retention:  168 * time.Hour,
	})
	if err != nil {
		t.Fatalf("expected no error but got: %v", err)
	}
	defer func() { _ = container.Close() }()

	if container.Store() != nil {
		t.Fatal("expected no store for an empty path")
	}
}

func TestNewContainer_InvalidConfig(t *testing.T) {
	if _, err := NewContainer(Config{}); err == nil {
		t.Error("expected an error for an empty config")
	}
}

func TestContainer_CloseWithoutStore(t *testing.T) {
	server := newAPIServer(t)

	container, err := NewContainer(Config{
		APIBaseURL: server.URL,
		Freshness:  24 * time.Hour,
		Retention:  168 * time.Hour,
	})
	if err != nil {
		t.Fatalf("expected no error but got: %v", err)
	}
	if err := container.Close(); err != nil {
		t.Errorf("expected no error but got: %v", err)
	}
}
