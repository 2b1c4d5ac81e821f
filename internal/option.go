package internal

import "github.com/starford/laguz/internal/storage"

// Option is a functional option for configuring the application.
type Option func(*application)

type application struct {
	config *Config
	store  storage.Provider
}

// WithConfig sets the application configuration.
func WithConfig(cfg *Config) Option {
	return func(a *application) {
		a.config = cfg
	}
}

// WithStore overrides the document store built from the configuration.
// Used by tests and the MCP entrypoint.
func WithStore(store storage.Provider) Option {
	return func(a *application) {
		a.store = store
	}
}
