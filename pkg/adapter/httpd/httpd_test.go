package httpd

import (
	"bytes"
	"context"
	"io"
	"net"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/marmos91/quark/internal/httpwire"
	"github.com/marmos91/quark/pkg/accesslog"
	"github.com/marmos91/quark/pkg/adapter"
	"github.com/stretchr/testify/require"
)

// newTestAdapter builds an Adapter with test defaults and a captured
// access log. Zero-value config fields get small test defaults (a two-entry
// MIME table, a 4 KiB copy buffer, a 2 s I/O timeout), not the production
// defaults of pkg/config.
func newTestAdapter(cfg Config) (*Adapter, *bytes.Buffer) {
	if cfg.Limits == (httpwire.Limits{}) {
		cfg.Limits = httpwire.Limits{HeaderMax: 4096, FieldMax: 200, PathMax: 4096}
	}
	if cfg.IOTimeout == 0 {
		cfg.IOTimeout = 2 * time.Second
	}
	if cfg.DocIndex == "" {
		cfg.DocIndex = "index.html"
	}
	if cfg.Mimes == nil {
		cfg.Mimes = []MimeMapping{
			{Ext: "html", Type: "text/html"},
			{Ext: "txt", Type: "text/plain"},
		}
	}
	if cfg.CopyBuffer == 0 {
		cfg.CopyBuffer = 4096
	}

	var logbuf bytes.Buffer
	a := New(cfg, adapter.Config{}, accesslog.NewWithWriter(&logbuf))
	return a, &logbuf
}

// roundTrip drives one raw request through a Connection over net.Pipe and
// returns the parsed response.
func roundTrip(t *testing.T, a *Adapter, raw string) *response {
	t.Helper()

	client, server := net.Pipe()
	done := make(chan struct{})
	go func() {
		defer close(done)
		newConnection(a, server).Serve(context.Background())
		_ = server.Close()
	}()

	// Write concurrently: for oversized or malformed requests the server
	// responds without draining the stream, and net.Pipe writes block until
	// read. Closing the server side unblocks a stuck writer.
	go func() {
		_, _ = client.Write([]byte(raw))
	}()

	data, err := io.ReadAll(client)
	require.NoError(t, err)
	_ = client.Close()
	<-done

	return parseResponse(t, string(data))
}

type response struct {
	statusLine string
	code       int
	headers    map[string]string
	body       string
	raw        string
}

func parseResponse(t *testing.T, raw string) *response {
	t.Helper()

	head, body, found := strings.Cut(raw, "\r\n\r\n")
	require.True(t, found, "response has no header terminator: %q", raw)

	lines := strings.Split(head, "\r\n")
	require.NotEmpty(t, lines)

	parts := strings.SplitN(lines[0], " ", 3)
	require.Len(t, parts, 3, "bad status line %q", lines[0])
	code, err := strconv.Atoi(parts[1])
	require.NoError(t, err)

	headers := make(map[string]string)
	for _, line := range lines[1:] {
		name, value, ok := strings.Cut(line, ": ")
		require.True(t, ok, "bad header line %q", line)
		headers[name] = value
	}

	return &response{
		statusLine: lines[0],
		code:       code,
		headers:    headers,
		body:       body,
		raw:        raw,
	}
}

// newTestRoot populates a temp directory and chdirs into it, mirroring the
// production contract that the working directory is the served root.
func newTestRoot(t *testing.T, files map[string]string) {
	t.Helper()

	root := t.TempDir()
	for name, content := range files {
		path := filepath.Join(root, name)
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
		if strings.HasSuffix(name, "/") {
			require.NoError(t, os.MkdirAll(path, 0755))
			continue
		}
		require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	}
	t.Chdir(root)
}
