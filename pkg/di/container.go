// Package di wires the unique value cache from a single configuration value.
// It owns construction order and the degradation policy: a store that fails to
// open is logged and dropped, leaving the rest of the stack in remote-only
// mode instead of failing the whole session.
package di

import (
	"net/http"
	"time"

	"github.com/caarlos0/env/v11"
	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/sirupsen/logrus"

	"github.com/goliatone/go-uniquevalue-cache/cache"
	"github.com/goliatone/go-uniquevalue-cache/remote"
	"github.com/goliatone/go-uniquevalue-cache/store"
	"github.com/goliatone/go-uniquevalue-cache/syncer"
	"github.com/goliatone/go-uniquevalue-cache/uniquevalues"
)

// Config collects everything needed to assemble a Manager. The tagged fields
// load from the environment via FromEnv; the untagged collaborator fields can
// only be set in code.
type Config struct {
	// StorePath is the SQLite file backing the persistent store. Empty disables
	// local persistence entirely (remote-only mode).
	StorePath string `env:"UNIQUE_VALUES_STORE_PATH" envDefault:"unique_values.db"`

	// APIBaseURL is the payer API root, e.g. "https://api.example.com/api/v1".
	APIBaseURL string `env:"UNIQUE_VALUES_API_BASE_URL"`

	// APIToken is a static bearer credential. Ignored when Token is set.
	APIToken string `env:"UNIQUE_VALUES_API_TOKEN"`

	// Freshness is how long an in-memory read is served without revalidation.
	Freshness time.Duration `env:"UNIQUE_VALUES_FRESHNESS" envDefault:"24h"`

	// Retention is how long an unused in-memory entry survives before eviction.
	Retention time.Duration `env:"UNIQUE_VALUES_RETENTION" envDefault:"168h"`

	// CacheCapacity bounds the in-memory cache. The cache holds one combined
	// entry per key, so the default is generous.
	CacheCapacity int `env:"UNIQUE_VALUES_CACHE_CAPACITY" envDefault:"64"`

	// Token supplies the bearer credential per request, for callers with
	// refreshing credentials. Takes precedence over APIToken.
	Token remote.TokenFunc `env:"-"`

	// HTTPClient overrides the default API client.
	HTTPClient *http.Client `env:"-"`

	// Online gates the Manager's retry-once behavior.
	Online uniquevalues.OnlineFunc `env:"-"`

	// Logger receives diagnostics from every layer. Defaults to a discard
	// logger.
	Logger logrus.FieldLogger `env:"-"`
}

// FromEnv loads a Config from UNIQUE_VALUES_* environment variables.
func FromEnv() (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks whether the configuration values are valid.
func (c Config) Validate() error {
	return validation.ValidateStruct(&c,
		validation.Field(&c.APIBaseURL, validation.Required),
		validation.Field(&c.Freshness, validation.Required, validation.Min(time.Minute)),
		validation.Field(&c.Retention, validation.Required, validation.Min(c.Freshness)),
	)
}

// Container provides dependency injection for the unique value components. It
// manages singleton instances of the store, remote source, cache service,
// synchronizer, and manager, constructed once from a Config.
type Container struct {
	config       Config
	store        store.Store
	source       remote.Source
	cacheService cache.Service
	synchronizer *syncer.Synchronizer
	manager      *uniquevalues.Manager
}

// NewContainer assembles the full stack from cfg.
//
// A store that fails to open does not fail construction: the error is logged
// and the container runs remote-only, matching the rule that suggestions are
// an enhancement rather than a dependency. Everything else failing to
// construct is a programming or configuration error and is returned.
func NewContainer(cfg Config) (*Container, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	logger := cfg.Logger
	if logger == nil {
		l := logrus.New()
		l.SetLevel(logrus.PanicLevel)
		logger = l
	}

	token := cfg.Token
	if token == nil && cfg.APIToken != "" {
		static := cfg.APIToken
		token = func() string { return static }
	}

	source, err := remote.NewHTTPSource(remote.Config{
		BaseURL:    cfg.APIBaseURL,
		Token:      token,
		HTTPClient: cfg.HTTPClient,
	})
	if err != nil {
		return nil, err
	}

	var st store.Store
	if cfg.StorePath != "" {
		st, err = store.New(store.Config{Path: cfg.StorePath, Logger: logger})
		if err != nil {
			logger.WithError(err).Warn("opening local store failed, running remote-only")
			st = nil
		}
	}

	cacheService, err := cache.NewService(cacheConfig(cfg))
	if err != nil {
		if st != nil {
			_ = st.Close()
		}
		return nil, err
	}

	sync := syncer.New(st, source, logger)
	manager := uniquevalues.New(sync, cacheService, uniquevalues.Options{
		Logger: logger,
		Online: cfg.Online,
	})

	return &Container{
		config:       cfg,
		store:        st,
		source:       source,
		cacheService: cacheService,
		synchronizer: sync,
		manager:      manager,
	}, nil
}

// cacheConfig maps the session-level freshness and retention settings onto the
// in-memory cache: entries refresh in the background once Freshness elapses
// and are evicted after Retention without use.
func cacheConfig(cfg Config) cache.Config {
	capacity := cfg.CacheCapacity
	if capacity <= 0 {
		capacity = 64
	}
	return cache.Config{
		Capacity:           capacity,
		NumShards:          2,
		TTL:                cfg.Retention,
		EvictionPercentage: 10,
		EarlyRefresh: &cache.EarlyRefreshConfig{
			MinAsyncRefreshTime: cfg.Freshness,
			MaxAsyncRefreshTime: cfg.Freshness + time.Hour,
			SyncRefreshTime:     3 * cfg.Freshness,
			RetryBaseDelay:      time.Second,
		},
	}
}

// Manager returns the singleton manager instance, the entry point components
// should depend on.
func (c *Container) Manager() *uniquevalues.Manager {
	return c.manager
}

// Synchronizer returns the singleton synchronizer instance, for callers that
// need the store-vs-remote layer without the in-memory cache.
func (c *Container) Synchronizer() *syncer.Synchronizer {
	return c.synchronizer
}

// Store returns the singleton store instance. Nil when the container is
// running remote-only.
func (c *Container) Store() store.Store {
	return c.store
}

// Source returns the singleton remote source instance.
func (c *Container) Source() remote.Source {
	return c.source
}

// CacheService returns the singleton in-memory cache service instance.
// This allows access to the underlying cache for advanced use cases.
func (c *Container) CacheService() cache.Service {
	return c.cacheService
}

// Config returns a copy of the configuration used by this container.
// This is useful for debugging and monitoring purposes.
func (c *Container) Config() Config {
	return c.config
}

// Close releases the container's resources, closing the persistent store when
// one is open.
func (c *Container) Close() error {
	if c.store == nil {
		return nil
	}
	return c.store.Close()
}
