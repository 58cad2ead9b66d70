package store

import (
	"github.com/benbjohnson/clock"
	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/sirupsen/logrus"
)

// Config holds the settings for opening the persistent store.
type Config struct {
	// Path is the SQLite database file location. Use a per-user data directory
	// in production; tests typically point this at a temp dir.
	Path string

	// Clock supplies timestamps for record writes. Defaults to the wall clock;
	// tests inject a mock to control lastUpdated values.
	Clock clock.Clock

	// Logger receives store-level diagnostics. Defaults to a discard logger.
	Logger logrus.FieldLogger
}

// Validate checks whether the configuration values are valid.
func (c Config) Validate() error {
	return validation.ValidateStruct(&c,
		validation.Field(&c.Path, validation.Required),
	)
}

func (c Config) withDefaults() Config {
	if c.Clock == nil {
		c.Clock = clock.New()
	}
	if c.Logger == nil {
		logger := logrus.New()
		logger.SetLevel(logrus.PanicLevel)
		c.Logger = logger
	}
	return c
}
