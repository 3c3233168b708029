package app

import "io"

type Option func(*application)

type application struct {
	config  *Config
	version string
	mcp     bool
	out     io.Writer
}

func WithConfig(cfg *Config) Option {
	return func(a *application) {
		a.config = cfg
	}
}

func WithVersion(v string) Option {
	return func(a *application) {
		a.version = v
	}
}

// WithMCP serves the MCP tools on stdio next to the daemon. Terminal alerts
// are turned off because stdio belongs to the protocol.
func WithMCP() Option {
	return func(a *application) {
		a.mcp = true
	}
}

// WithOutput sets where terminal notifications are printed.
func WithOutput(w io.Writer) Option {
	return func(a *application) {
		a.out = w
	}
}
