package httpd

import (
	"errors"
	"io/fs"
	"os"
	"strings"
	"time"

	"github.com/marmos91/quark/internal/httpwire"
)

// sendResponse resolves a parsed request against the served root (the
// process working directory) and dispatches to the matching sender. The
// return value is the final status for the access log.
//
// Resolution order: normalize, deny hidden segments, stat, canonicalize
// directory targets (redirect on change), substitute the index file,
// conditional GET, byte range, MIME, send.
func (c *Connection) sendResponse(req *httpwire.Request) httpwire.Status {
	cfg := &c.adapter.config

	norm, ok := httpwire.NormalizeAbsPath(req.Target)
	if !ok {
		return c.sendStatus(httpwire.StatusBadRequest)
	}

	if httpwire.HasHiddenSegment(norm) {
		return c.sendStatus(httpwire.StatusForbidden)
	}

	// All filesystem access goes through the root-relative form: the
	// normalized path cannot contain ".." segments, so "." + norm stays
	// inside the root.
	st, err := os.Stat(fsPath(norm))
	if err != nil {
		if errors.Is(err, fs.ErrPermission) {
			return c.sendStatus(httpwire.StatusForbidden)
		}
		return c.sendStatus(httpwire.StatusNotFound)
	}

	canonical := norm
	if st.IsDir() && !strings.HasSuffix(canonical, "/") {
		if len(canonical)+1 > cfg.Limits.PathMax {
			return c.sendStatus(httpwire.StatusHeaderTooLarge)
		}
		canonical += "/"
	}

	if canonical != req.Target {
		return c.sendRedirect(canonical)
	}

	serveSt := st
	finalPath := canonical

	if st.IsDir() {
		indexTarget := canonical + cfg.DocIndex
		if len(indexTarget)+1 > cfg.Limits.PathMax {
			return c.sendStatus(httpwire.StatusHeaderTooLarge)
		}

		ist, ierr := os.Stat(fsPath(indexTarget))
		switch {
		case ierr == nil && ist.Mode().IsRegular():
			serveSt = ist
			finalPath = indexTarget
		case cfg.ListDirs:
			return c.sendDir(canonical, req)
		case ierr == nil, errors.Is(ierr, fs.ErrPermission):
			// Index exists but is not a regular file, or is unreadable.
			return c.sendStatus(httpwire.StatusForbidden)
		default:
			return c.sendStatus(httpwire.StatusNotFound)
		}
	}

	if ims := req.Field(httpwire.FieldIfModifiedSince); ims != "" {
		since, perr := httpwire.ParseHTTPDate(ims)
		if perr != nil {
			return c.sendStatus(httpwire.StatusBadRequest)
		}
		if !serveSt.ModTime().Truncate(time.Second).After(since) {
			return c.sendNotModified()
		}
	}

	lower, upper := int64(0), serveSt.Size()
	ranged := false
	if rng := req.Field(httpwire.FieldRange); rng != "" {
		lower, upper, ok = parseRange(rng, serveSt.Size())
		if !ok {
			return c.sendStatus(httpwire.StatusBadRequest)
		}
		ranged = true
	}

	return c.sendFile(fsPath(finalPath), req, serveSt, cfg.mimeType(finalPath), lower, upper, ranged)
}

// fsPath maps a canonical absolute target onto the served root.
func fsPath(target string) string {
	return "." + target
}

// parseRange parses "bytes=first-last" into the half-open window
// [lower, upper). Either side may be empty: an empty first means 0, an
// empty last means the end of the file. last is clamped to size-1.
//
// Note the deliberate divergence from RFC 7233 suffix ranges: "bytes=-N"
// selects the first N+1 bytes, not the last N.
func parseRange(s string, size int64) (lower, upper int64, ok bool) {
	const prefix = "bytes="
	if !strings.HasPrefix(s, prefix) {
		return 0, 0, false
	}
	first, last, found := strings.Cut(s[len(prefix):], "-")
	if !found {
		return 0, 0, false
	}

	lo := int64(0)
	hi := size - 1
	if first != "" {
		if lo, ok = parseByte(first); !ok {
			return 0, 0, false
		}
	}
	if last != "" {
		if hi, ok = parseByte(last); !ok {
			return 0, 0, false
		}
	}
	if hi > size-1 {
		hi = size - 1
	}
	if lo > hi {
		return 0, 0, false
	}
	return lo, hi + 1, true
}

// parseByte parses a non-negative decimal byte position.
func parseByte(s string) (int64, bool) {
	var n int64
	for i := 0; i < len(s); i++ {
		d := s[i] - '0'
		if d > 9 {
			return 0, false
		}
		n = n*10 + int64(d)
		if n < 0 {
			return 0, false
		}
	}
	return n, true
}
