package httpd

import (
	"context"
	"net"
	"time"

	"github.com/marmos91/quark/internal/httpwire"
	"github.com/marmos91/quark/internal/logger"
)

// Connection drives one client connection through parse → plan → send and
// records the outcome. It is used by exactly one goroutine.
type Connection struct {
	adapter *Adapter
	conn    net.Conn

	// copyBuf is the per-connection file copy buffer. Connection-local so
	// concurrent workers never alias scratch space.
	copyBuf []byte
}

func newConnection(a *Adapter, conn net.Conn) *Connection {
	size := a.config.CopyBuffer
	if size <= 0 {
		size = 32 * 1024
	}
	return &Connection{
		adapter: a,
		conn:    conn,
		copyBuf: make([]byte, size),
	}
}

// Serve handles the single request carried by this connection. The final
// status is always recorded to the access log, whichever component emitted
// the response. The listener closes the socket after Serve returns.
func (c *Connection) Serve(ctx context.Context) {
	start := time.Now()

	var (
		status httpwire.Status
		method string
		target string
	)

	req, werr := httpwire.ReadRequest(c.reader(), c.adapter.config.Limits)
	if werr != nil {
		status = c.sendStatus(werr.Status)
		if m := c.adapter.Metrics; m != nil {
			m.RecordParseFailure(werr.Kind.String())
		}
	} else {
		method = req.Method
		target = req.Target
		status = c.sendResponse(req)
	}

	peer := c.peer()
	c.adapter.access.Log(time.Now(), peer, status.Int(), target)
	if m := c.adapter.Metrics; m != nil {
		if method == "" {
			method = "-"
		}
		m.RecordRequest(method, status.Int())
	}
	logger.Debug("Request finished",
		logger.KeyClientAddr, peer,
		logger.KeyMethod, method,
		logger.KeyTarget, target,
		logger.KeyStatus, status.Int(),
		logger.KeyDurationMS, logger.Duration(start))

	c.shutdownStream()
}

// reader returns the stream the request parser consumes, refreshing the
// read deadline before each read so the timeout bounds single operations,
// not the whole header.
func (c *Connection) reader() *deadlineReader {
	return &deadlineReader{conn: c.conn, timeout: c.adapter.config.IOTimeout}
}

type deadlineReader struct {
	conn    net.Conn
	timeout time.Duration
}

func (r *deadlineReader) Read(p []byte) (int, error) {
	if r.timeout > 0 {
		_ = r.conn.SetReadDeadline(time.Now().Add(r.timeout))
	}
	return r.conn.Read(p)
}

// write sends p fully, bounding the operation by the configured timeout.
// net.Conn.Write already loops over short writes.
func (c *Connection) write(p []byte) error {
	if t := c.adapter.config.IOTimeout; t > 0 {
		_ = c.conn.SetWriteDeadline(time.Now().Add(t))
	}
	_, err := c.conn.Write(p)
	return err
}

// peer returns the client address for logging: the bare IP for TCP, the
// remote address string otherwise.
func (c *Connection) peer() string {
	addr := c.conn.RemoteAddr()
	if addr == nil {
		return "-"
	}
	s := addr.String()
	if host, _, err := net.SplitHostPort(s); err == nil {
		return host
	}
	if s == "" || s == "@" {
		return "-"
	}
	return s
}

// shutdownStream closes both halves of the stream where the transport
// supports it. The listener's cleanup closes the socket itself.
func (c *Connection) shutdownStream() {
	type closeHalves interface {
		CloseRead() error
		CloseWrite() error
	}
	if h, ok := c.conn.(closeHalves); ok {
		_ = h.CloseRead()
		_ = h.CloseWrite()
	}
}
