package config

import (
	"github.com/marmos91/quark/internal/httpwire"
	"github.com/marmos91/quark/pkg/adapter"
	"github.com/marmos91/quark/pkg/adapter/httpd"
)

// HTTPD maps the loaded configuration onto the HTTP adapter config.
func (c *Config) HTTPD() httpd.Config {
	return httpd.Config{
		DocIndex: c.DocIndex,
		ListDirs: c.ListDirs,
		Mimes:    c.Mimes,
		Limits: httpwire.Limits{
			HeaderMax: int(c.Limits.HeaderMax),
			FieldMax:  int(c.Limits.FieldMax),
			PathMax:   int(c.Limits.PathMax),
		},
		CopyBuffer: int(c.Limits.CopyBuffer),
		IOTimeout:  c.Listen.IOTimeout,
	}
}

// ListenAdapter maps the loaded configuration onto the listener config.
func (c *Config) ListenAdapter() adapter.Config {
	return adapter.Config{
		BindAddress:     c.Listen.BindAddress,
		Port:            c.Listen.Port,
		UnixSocket:      c.Listen.UnixSocket,
		MaxConnections:  c.Listen.MaxConnections,
		ShutdownTimeout: c.Listen.ShutdownTimeout,
	}
}
