// Package httpd implements the quark request/response engine: parsing an
// HTTP/1.x request from a connection, resolving the target against the
// served root (the process working directory), and emitting a file window,
// directory listing, redirect or error response.
//
// One Connection serves exactly one request; every response carries
// "Connection: close". The package holds no mutable state shared across
// connections beyond its read-only Config.
package httpd

import (
	"context"
	"net"

	"github.com/marmos91/quark/pkg/accesslog"
	"github.com/marmos91/quark/pkg/adapter"
)

// RequestMetrics receives per-request events. A nil recorder disables them.
type RequestMetrics interface {
	RecordRequest(method string, status int)
	AddResponseBytes(n int64)
	RecordParseFailure(kind string)
}

// Adapter serves the HTTP/1.x file protocol on one listening socket.
type Adapter struct {
	config Config
	server *adapter.Server
	access *accesslog.Logger

	// Metrics optionally records request outcomes. Set before Serve.
	Metrics RequestMetrics
}

// New creates the HTTP adapter. The access logger must be non-nil; pass
// accesslog.Discard to drop access lines.
func New(config Config, listen adapter.Config, access *accesslog.Logger) *Adapter {
	a := &Adapter{
		config: config,
		server: adapter.New(listen, "HTTP"),
		access: access,
	}
	return a
}

// SetConnectionMetrics wires a recorder for connection lifecycle metrics.
func (a *Adapter) SetConnectionMetrics(m adapter.MetricsRecorder) {
	a.server.Metrics = m
}

// ListenerReady is closed once the listener accepts connections.
func (a *Adapter) ListenerReady() <-chan struct{} {
	return a.server.ListenerReady
}

// Addr returns the bound listener address, or nil before Serve.
func (a *Adapter) Addr() net.Addr {
	return a.server.Addr()
}

// Serve blocks until ctx is cancelled or the listener fails.
func (a *Adapter) Serve(ctx context.Context) error {
	return a.server.Serve(ctx, a)
}

// Stop initiates graceful shutdown and waits for it, bounded by ctx.
func (a *Adapter) Stop(ctx context.Context) error {
	return a.server.Stop(ctx)
}

// NewConnection implements adapter.ConnectionFactory.
func (a *Adapter) NewConnection(conn net.Conn) adapter.ConnectionHandler {
	return newConnection(a, conn)
}
