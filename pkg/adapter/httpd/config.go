package httpd

import (
	"strings"
	"time"

	"github.com/marmos91/quark/internal/httpwire"
)

// MimeMapping binds a file extension (without the dot) to a media type.
type MimeMapping struct {
	Ext  string `mapstructure:"ext"  yaml:"ext"`
	Type string `mapstructure:"type" yaml:"type"`
}

// Config holds the HTTP adapter configuration. It is read-only after
// construction; connections share it without locking.
type Config struct {
	// DocIndex is the index file name served in lieu of a directory
	// listing when present, e.g. "index.html".
	DocIndex string

	// ListDirs enables auto-generated directory listings when the index
	// file is absent. When false such requests get 404 if the index file
	// does not exist and 403 if it exists but is not a regular file or
	// cannot be read.
	ListDirs bool

	// Mimes is the ordered extension→type table; the first match wins.
	// Unmatched extensions fall back to application/octet-stream.
	Mimes []MimeMapping

	// Limits bounds the request parser.
	Limits httpwire.Limits

	// CopyBuffer is the per-connection file copy buffer size in bytes.
	CopyBuffer int

	// IOTimeout bounds each socket read and write.
	IOTimeout time.Duration
}

// defaultMime is the fallback media type for unmatched extensions.
const defaultMime = "application/octet-stream"

// mimeType returns the media type for the final path, matching the
// extension after the last dot against the table in order.
func (c *Config) mimeType(path string) string {
	dot := strings.LastIndexByte(path, '.')
	if dot < 0 {
		return defaultMime
	}
	ext := path[dot+1:]
	for _, m := range c.Mimes {
		if m.Ext == ext {
			return m.Type
		}
	}
	return defaultMime
}
