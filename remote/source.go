// Package remote fetches the authoritative unique value lists from the payer
// API. The five category endpoints are read-only and are always fetched
// together as a batch.
package remote

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"golang.org/x/sync/errgroup"

	"github.com/goliatone/go-uniquevalue-cache/uniquevalue"
)

// Source is the read-only remote collaborator returning authoritative value
// lists. FetchAll returns every category in one call; partial results are
// never returned.
type Source interface {
	FetchAll(ctx context.Context) (uniquevalue.Set, error)
}

// FetchError reports a failed category fetch. Status is zero for
// network-level failures that never produced a response.
type FetchError struct {
	Endpoint string
	Status   int
	Err      error
}

func (e *FetchError) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("remote: %s returned status %d", e.Endpoint, e.Status)
	}
	return fmt.Sprintf("remote: %s: %v", e.Endpoint, e.Err)
}

func (e *FetchError) Unwrap() error { return e.Err }

// endpoints maps each category to its API path. The workTypes path differs
// from the category name; the server calls them "works".
var endpoints = map[uniquevalue.Category]string{
	uniquevalue.CategoryNames:     "/payers/unique/names",
	uniquevalue.CategoryGifts:     "/payers/unique/gifts",
	uniquevalue.CategoryRelations: "/payers/unique/relations",
	uniquevalue.CategoryCities:    "/payers/unique/cities",
	uniquevalue.CategoryWorkTypes: "/payers/unique/works",
}

// TokenFunc supplies the bearer credential for each request. The surrounding
// authentication layer owns token refresh; this package just asks.
type TokenFunc func() string

// Config holds the settings for the HTTP source.
type Config struct {
	// BaseURL is the API root, e.g. "https://api.example.com/api/v1".
	BaseURL string

	// Token supplies the bearer credential. Optional; requests go out without
	// an Authorization header when nil.
	Token TokenFunc

	// HTTPClient is the client used for requests. Defaults to one with a
	// 15 second timeout.
	HTTPClient *http.Client
}

// Validate checks whether the configuration values are valid.
func (c Config) Validate() error {
	return validation.ValidateStruct(&c,
		validation.Field(&c.BaseURL, validation.Required, validation.By(func(any) error {
			if !strings.HasPrefix(c.BaseURL, "http://") && !strings.HasPrefix(c.BaseURL, "https://") {
				return fmt.Errorf("must be an absolute http(s) URL")
			}
			return nil
		})),
	)
}

// httpSource implements Source against the payer API.
type httpSource struct {
	baseURL string
	token   TokenFunc
	client  *http.Client
}

var _ Source = (*httpSource)(nil)

// NewHTTPSource builds a Source talking to the payer API described by cfg.
func NewHTTPSource(cfg Config) (Source, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("remote: %w", err)
	}

	client := cfg.HTTPClient
	if client == nil {
		client = &http.Client{Timeout: 15 * time.Second}
	}

	return &httpSource{
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		token:   cfg.Token,
		client:  client,
	}, nil
}

// apiResponse is the envelope every unique-value endpoint wraps its payload in.
type apiResponse struct {
	Data []string `json:"data"`
}

// FetchAll retrieves all five category lists in parallel. Any single failure
// fails the whole batch; the syncer decides whether stale local data can cover
// for it.
func (s *httpSource) FetchAll(ctx context.Context) (uniquevalue.Set, error) {
	set := make(uniquevalue.Set, len(endpoints))
	var mu sync.Mutex

	g, ctx := errgroup.WithContext(ctx)
	for category, path := range endpoints {
		g.Go(func() error {
			values, err := s.fetchOne(ctx, path)
			if err != nil {
				return err
			}
			mu.Lock()
			set[category] = values
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return set, nil
}

func (s *httpSource) fetchOne(ctx context.Context, path string) ([]string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.baseURL+path, nil)
	if err != nil {
		return nil, &FetchError{Endpoint: path, Err: err}
	}
	req.Header.Set("Accept", "application/json")
	if s.token != nil {
		if token := s.token(); token != "" {
			req.Header.Set("Authorization", "Bearer "+token)
		}
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, &FetchError{Endpoint: path, Err: err}
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		// Drain so the connection can be reused.
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil, &FetchError{Endpoint: path, Status: resp.StatusCode}
	}

	var envelope apiResponse
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		return nil, &FetchError{Endpoint: path, Err: fmt.Errorf("decoding response: %w", err)}
	}
	if envelope.Data == nil {
		envelope.Data = []string{}
	}
	return envelope.Data, nil
}
