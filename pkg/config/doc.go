// Package config loads feed client configuration from environment
// variables, with optional .env file support for development.
//
// # Usage
//
//	var cfg config.Config
//	if err := config.Load(&cfg); err != nil {
//	    // handle error
//	}
//
// Fields use caarlos0/env struct tags; required values fail loading when
// absent, defaults cover the rest. Load parses fresh on every call; there
// is deliberately no process-wide cache, so multiple independently
// configured clients can coexist.
package config
