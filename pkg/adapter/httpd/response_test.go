package httpd

import (
	"fmt"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/marmos91/quark/internal/httpwire"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestServeFile(t *testing.T) {
	newTestRoot(t, map[string]string{"a.txt": "hello quark\n"})
	a, _ := newTestAdapter(Config{})

	resp := roundTrip(t, a, "GET /a.txt HTTP/1.1\r\n\r\n")

	assert.Equal(t, 200, resp.code)
	assert.Equal(t, "HTTP/1.1 200 OK", resp.statusLine)
	assert.Equal(t, "hello quark\n", resp.body)
	assert.Equal(t, "12", resp.headers["Content-Length"])
	assert.Equal(t, "text/plain", resp.headers["Content-Type"])
	assert.Equal(t, "close", resp.headers["Connection"])
	assert.NotEmpty(t, resp.headers["Last-Modified"])
	assert.NotEmpty(t, resp.headers["Date"])
}

func TestServeFile_UnknownExtensionFallsBack(t *testing.T) {
	newTestRoot(t, map[string]string{"blob.xyz": "x"})
	a, _ := newTestAdapter(Config{})

	resp := roundTrip(t, a, "GET /blob.xyz HTTP/1.1\r\n\r\n")

	assert.Equal(t, 200, resp.code)
	assert.Equal(t, "application/octet-stream", resp.headers["Content-Type"])
}

func TestServeFile_MimeFirstMatchWins(t *testing.T) {
	newTestRoot(t, map[string]string{"page.html": "<p>hi</p>"})
	a, _ := newTestAdapter(Config{Mimes: []MimeMapping{
		{Ext: "html", Type: "text/html; charset=utf-8"},
		{Ext: "html", Type: "text/x-shadowed"},
	}})

	resp := roundTrip(t, a, "GET /page.html HTTP/1.1\r\n\r\n")

	assert.Equal(t, "text/html; charset=utf-8", resp.headers["Content-Type"])
}

func TestHeadParity(t *testing.T) {
	newTestRoot(t, map[string]string{"a.txt": "hello quark\n"})
	a, _ := newTestAdapter(Config{})

	get := roundTrip(t, a, "GET /a.txt HTTP/1.1\r\n\r\n")
	head := roundTrip(t, a, "HEAD /a.txt HTTP/1.1\r\n\r\n")

	assert.Empty(t, head.body)
	assert.Equal(t, get.statusLine, head.statusLine)

	// Headers must match byte-for-byte except possibly Date.
	delete(get.headers, "Date")
	delete(head.headers, "Date")
	assert.Equal(t, get.headers, head.headers)
}

func TestDirectoryRedirect(t *testing.T) {
	newTestRoot(t, map[string]string{"dir/": ""})
	a, _ := newTestAdapter(Config{})

	resp := roundTrip(t, a, "GET /dir HTTP/1.1\r\n\r\n")

	assert.Equal(t, 301, resp.code)
	assert.Equal(t, "/dir/", resp.headers["Location"])
	assert.Empty(t, resp.body)
}

func TestRedirect_NonCanonicalTarget(t *testing.T) {
	newTestRoot(t, map[string]string{"b.txt": "b"})
	a, _ := newTestAdapter(Config{})

	resp := roundTrip(t, a, "GET /x/../b.txt HTTP/1.1\r\n\r\n")

	assert.Equal(t, 301, resp.code)
	assert.Equal(t, "/b.txt", resp.headers["Location"])
}

func TestRedirect_LocationEncoded(t *testing.T) {
	newTestRoot(t, map[string]string{"b\xc3\xa9.txt": "b"})
	a, _ := newTestAdapter(Config{})

	resp := roundTrip(t, a, "GET /x/../b%C3%A9.txt HTTP/1.1\r\n\r\n")

	assert.Equal(t, 301, resp.code)
	assert.Equal(t, "/b%C3%A9.txt", resp.headers["Location"])
}

func TestHiddenTargetDenied(t *testing.T) {
	newTestRoot(t, map[string]string{".hidden": "secret"})
	a, _ := newTestAdapter(Config{})

	resp := roundTrip(t, a, "GET /.hidden HTTP/1.1\r\n\r\n")

	assert.Equal(t, 403, resp.code)
	assert.Contains(t, resp.body, "403 Forbidden")
}

func TestTraversalContained(t *testing.T) {
	newTestRoot(t, map[string]string{"safe.txt": "in root"})
	a, _ := newTestAdapter(Config{})

	// Percent-encoded dot-dot decodes to /../etc/passwd, which normalizes
	// to /etc/passwd inside the root and is absent there.
	for _, target := range []string{
		"/..%2fetc/passwd",
		"/../../etc/passwd",
		"/%2e%2e/%2e%2e/etc/shadow",
		"//..//..//etc//passwd",
	} {
		resp := roundTrip(t, a, fmt.Sprintf("GET %s HTTP/1.1\r\n\r\n", target))
		assert.Contains(t, []int{301, 400, 403, 404}, resp.code, "target %q", target)
		assert.NotContains(t, resp.body, "root:", "target %q leaked", target)
	}
}

func TestNotFound(t *testing.T) {
	newTestRoot(t, map[string]string{})
	a, _ := newTestAdapter(Config{})

	resp := roundTrip(t, a, "GET /missing.txt HTTP/1.1\r\n\r\n")

	assert.Equal(t, 404, resp.code)
	assert.Contains(t, resp.body, "<h1>404 Not Found</h1>")
}

func TestDirectoryIndexServed(t *testing.T) {
	newTestRoot(t, map[string]string{"dir/index.html": "<p>index</p>"})
	a, _ := newTestAdapter(Config{})

	resp := roundTrip(t, a, "GET /dir/ HTTP/1.1\r\n\r\n")

	assert.Equal(t, 200, resp.code)
	assert.Equal(t, "<p>index</p>", resp.body)
	assert.Equal(t, "text/html", resp.headers["Content-Type"])
}

func TestDirectoryIndexMissing_NoListing(t *testing.T) {
	newTestRoot(t, map[string]string{"dir/a.txt": "a"})
	a, _ := newTestAdapter(Config{ListDirs: false})

	resp := roundTrip(t, a, "GET /dir/ HTTP/1.1\r\n\r\n")

	assert.Equal(t, 404, resp.code)
}

func TestDirectoryIndexNotRegular_NoListing(t *testing.T) {
	newTestRoot(t, map[string]string{"dir/index.html/": ""})
	a, _ := newTestAdapter(Config{ListDirs: false})

	resp := roundTrip(t, a, "GET /dir/ HTTP/1.1\r\n\r\n")

	assert.Equal(t, 403, resp.code)
}

func TestDirectoryListing(t *testing.T) {
	newTestRoot(t, map[string]string{
		"dir/a.txt": "a",
		"dir/sub/":  "",
		"dir/.hide": "x",
		"dir/z.txt": "z",
	})
	a, _ := newTestAdapter(Config{ListDirs: true})

	resp := roundTrip(t, a, "GET /dir/ HTTP/1.1\r\n\r\n")

	require.Equal(t, 200, resp.code)
	assert.Equal(t, "text/html", resp.headers["Content-Type"])
	assert.Contains(t, resp.body, "<title>Index of /dir/</title>")
	assert.NotContains(t, resp.body, ".hide")

	// Parent link first, then directories, then files lexicographically.
	parent := strings.Index(resp.body, `<a href="..">..</a>`)
	sub := strings.Index(resp.body, `<a href="sub">sub/</a>`)
	fileA := strings.Index(resp.body, `<a href="a.txt">a.txt</a>`)
	fileZ := strings.Index(resp.body, `<a href="z.txt">z.txt</a>`)
	require.True(t, parent >= 0 && sub >= 0 && fileA >= 0 && fileZ >= 0, "body: %s", resp.body)
	assert.Less(t, parent, sub)
	assert.Less(t, sub, fileA)
	assert.Less(t, fileA, fileZ)
}

func TestDirectoryListing_Head(t *testing.T) {
	newTestRoot(t, map[string]string{"dir/a.txt": "a"})
	a, _ := newTestAdapter(Config{ListDirs: true})

	resp := roundTrip(t, a, "HEAD /dir/ HTTP/1.1\r\n\r\n")

	assert.Equal(t, 200, resp.code)
	assert.Empty(t, resp.body)
}

func TestRootListing(t *testing.T) {
	newTestRoot(t, map[string]string{"a.txt": "a"})
	a, _ := newTestAdapter(Config{ListDirs: true})

	resp := roundTrip(t, a, "GET / HTTP/1.1\r\n\r\n")

	assert.Equal(t, 200, resp.code)
	assert.Contains(t, resp.body, "<title>Index of /</title>")
	assert.Contains(t, resp.body, `<a href="a.txt">a.txt</a>`)
}

func TestRange(t *testing.T) {
	payload := make([]byte, 1000)
	for i := range payload {
		payload[i] = byte(i % 251)
	}
	newTestRoot(t, map[string]string{"big.bin": string(payload)})
	a, _ := newTestAdapter(Config{})

	t.Run("interior window", func(t *testing.T) {
		resp := roundTrip(t, a, "GET /big.bin HTTP/1.1\r\nRange: bytes=100-199\r\n\r\n")

		assert.Equal(t, 206, resp.code)
		assert.Equal(t, "100", resp.headers["Content-Length"])
		assert.Equal(t, "bytes 100-199/1000", resp.headers["Content-Range"])
		assert.Equal(t, string(payload[100:200]), resp.body)
	})

	t.Run("open end", func(t *testing.T) {
		resp := roundTrip(t, a, "GET /big.bin HTTP/1.1\r\nRange: bytes=900-\r\n\r\n")

		assert.Equal(t, 206, resp.code)
		assert.Equal(t, "100", resp.headers["Content-Length"])
		assert.Equal(t, "bytes 900-999/1000", resp.headers["Content-Range"])
		assert.Equal(t, string(payload[900:]), resp.body)
	})

	t.Run("open start selects leading window", func(t *testing.T) {
		// Deliberate divergence from RFC 7233 suffix semantics: an absent
		// first position means 0, so -99 is the first 100 bytes.
		resp := roundTrip(t, a, "GET /big.bin HTTP/1.1\r\nRange: bytes=-99\r\n\r\n")

		assert.Equal(t, 206, resp.code)
		assert.Equal(t, "100", resp.headers["Content-Length"])
		assert.Equal(t, "bytes 0-99/1000", resp.headers["Content-Range"])
		assert.Equal(t, string(payload[:100]), resp.body)
	})

	t.Run("end clamped to file size", func(t *testing.T) {
		resp := roundTrip(t, a, "GET /big.bin HTTP/1.1\r\nRange: bytes=990-5000\r\n\r\n")

		assert.Equal(t, 206, resp.code)
		assert.Equal(t, "10", resp.headers["Content-Length"])
		assert.Equal(t, "bytes 990-999/1000", resp.headers["Content-Range"])
	})

	t.Run("full range via HEAD", func(t *testing.T) {
		resp := roundTrip(t, a, "HEAD /big.bin HTTP/1.1\r\nRange: bytes=0-\r\n\r\n")

		assert.Equal(t, 206, resp.code)
		assert.Equal(t, "1000", resp.headers["Content-Length"])
		assert.Empty(t, resp.body)
	})

	t.Run("inverted bounds rejected", func(t *testing.T) {
		resp := roundTrip(t, a, "GET /big.bin HTTP/1.1\r\nRange: bytes=5-4\r\n\r\n")

		assert.Equal(t, 400, resp.code)
	})

	t.Run("start beyond file rejected", func(t *testing.T) {
		resp := roundTrip(t, a, "GET /big.bin HTTP/1.1\r\nRange: bytes=2000-\r\n\r\n")

		assert.Equal(t, 400, resp.code)
	})

	t.Run("missing bytes prefix rejected", func(t *testing.T) {
		resp := roundTrip(t, a, "GET /big.bin HTTP/1.1\r\nRange: lines=1-2\r\n\r\n")

		assert.Equal(t, 400, resp.code)
	})

	t.Run("missing dash rejected", func(t *testing.T) {
		resp := roundTrip(t, a, "GET /big.bin HTTP/1.1\r\nRange: bytes=17\r\n\r\n")

		assert.Equal(t, 400, resp.code)
	})

	t.Run("non-decimal rejected", func(t *testing.T) {
		resp := roundTrip(t, a, "GET /big.bin HTTP/1.1\r\nRange: bytes=a-b\r\n\r\n")

		assert.Equal(t, 400, resp.code)
	})
}

func TestIfModifiedSince(t *testing.T) {
	newTestRoot(t, map[string]string{"a.txt": "hello"})
	mtime := time.Date(2024, time.June, 1, 12, 0, 0, 0, time.UTC)
	require.NoError(t, os.Chtimes("a.txt", mtime, mtime))
	a, _ := newTestAdapter(Config{})

	t.Run("not newer yields 304", func(t *testing.T) {
		resp := roundTrip(t, a,
			"GET /a.txt HTTP/1.1\r\nIf-Modified-Since: "+httpwire.HTTPDate(mtime)+"\r\n\r\n")

		assert.Equal(t, 304, resp.code)
		assert.Empty(t, resp.body)
		assert.Empty(t, resp.headers["Content-Length"])
	})

	t.Run("header after mtime yields 304", func(t *testing.T) {
		later := mtime.Add(time.Hour)
		resp := roundTrip(t, a,
			"GET /a.txt HTTP/1.1\r\nIf-Modified-Since: "+httpwire.HTTPDate(later)+"\r\n\r\n")

		assert.Equal(t, 304, resp.code)
	})

	t.Run("header before mtime yields full response", func(t *testing.T) {
		earlier := mtime.Add(-time.Hour)
		resp := roundTrip(t, a,
			"GET /a.txt HTTP/1.1\r\nIf-Modified-Since: "+httpwire.HTTPDate(earlier)+"\r\n\r\n")

		assert.Equal(t, 200, resp.code)
		assert.Equal(t, "hello", resp.body)
	})

	t.Run("HEAD at exact mtime yields 304", func(t *testing.T) {
		resp := roundTrip(t, a,
			"HEAD /a.txt HTTP/1.1\r\nIf-Modified-Since: "+httpwire.HTTPDate(mtime)+"\r\n\r\n")

		assert.Equal(t, 304, resp.code)
		assert.Empty(t, resp.body)
	})

	t.Run("unparseable date rejected", func(t *testing.T) {
		resp := roundTrip(t, a,
			"GET /a.txt HTTP/1.1\r\nIf-Modified-Since: yesterday\r\n\r\n")

		assert.Equal(t, 400, resp.code)
	})

	t.Run("not modified wins over range", func(t *testing.T) {
		resp := roundTrip(t, a,
			"GET /a.txt HTTP/1.1\r\nRange: bytes=0-1\r\nIf-Modified-Since: "+httpwire.HTTPDate(mtime)+"\r\n\r\n")

		assert.Equal(t, 304, resp.code)
		assert.Empty(t, resp.body)
	})
}

func TestTargetExceedingPathBound(t *testing.T) {
	newTestRoot(t, map[string]string{})
	a, _ := newTestAdapter(Config{Limits: httpwire.Limits{HeaderMax: 8192, FieldMax: 200, PathMax: 64}})

	resp := roundTrip(t, a, "GET /"+strings.Repeat("a", 100)+" HTTP/1.1\r\n\r\n")

	assert.Equal(t, 431, resp.code)
}
