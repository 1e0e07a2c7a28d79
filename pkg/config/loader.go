package config

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// Config is the environment-driven configuration surface of a feed client.
// All values are supplied at construction and immutable thereafter; build
// several Config values to run several independent clients in one process.
type Config struct {
	// APIBaseURL is the platform endpoint, e.g. https://api.example.com.
	APIBaseURL string `env:"FEED_API_BASE_URL,required"`
	// APIKey authenticates the client against the platform.
	APIKey string `env:"FEED_API_KEY,required"`
	// UserToken is the optional signed user token for enhanced security
	// mode.
	UserToken string `env:"FEED_USER_TOKEN"`
	// UserID identifies the feed owner.
	UserID string `env:"FEED_USER_ID,required"`
	// FeedID identifies the feed channel.
	FeedID string `env:"FEED_CHANNEL_ID,required"`

	// PageSize is the default query page size.
	PageSize int `env:"FEED_PAGE_SIZE" envDefault:"50"`
	// Order is the default pagination order (asc or desc).
	Order string `env:"FEED_ORDER" envDefault:"desc"`

	// AutoDisconnect toggles visibility-driven teardown of the realtime
	// connection.
	AutoDisconnect bool `env:"FEED_AUTO_DISCONNECT" envDefault:"true"`
	// AutoDisconnectDelay is the debounce before a hidden surface's
	// connection is dropped.
	AutoDisconnectDelay time.Duration `env:"FEED_AUTO_DISCONNECT_DELAY" envDefault:"2s"`

	// RedisURL, when set, selects the Redis-backed realtime channel.
	RedisURL string `env:"FEED_REDIS_URL"`
	// RedisChannel is the pub/sub channel name for realtime events.
	RedisChannel string `env:"FEED_REDIS_CHANNEL" envDefault:"feed:events"`
}

var defaultEnvLoaded sync.Once

// Load parses environment variables into the provided configuration
// struct. The default .env file is loaded once per process before the
// first parse; a missing file is not an error. Unlike a cached loader,
// every call parses fresh so independent clients can be configured from a
// mutated environment (tests, multi-tenant processes).
func Load[T any](v *T) error {
	defaultEnvLoaded.Do(func() {
		// The .env file might not exist and that's ok.
		_ = godotenv.Load()
	})
	if v == nil {
		return ErrNilPointer
	}

	if err := env.Parse(v); err != nil {
		return errors.Join(ErrParsingConfig, err)
	}
	return nil
}

// MustLoad works like Load but panics if configuration loading fails.
// Useful for configurations required for the application to start.
func MustLoad[T any](v *T) {
	if err := Load(v); err != nil {
		panic(fmt.Sprintf("failed to load required configuration: %v", err))
	}
}
