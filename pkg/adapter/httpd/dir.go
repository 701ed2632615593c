package httpd

import (
	"fmt"
	"io/fs"
	"os"
	"sort"
	"strings"
	"time"

	"github.com/marmos91/quark/internal/httpwire"
)

// sendDir emits an HTML index of the directory at the canonical target.
// Directories sort before other entries, each group lexicographically;
// hidden entries are omitted. For HEAD only the headers go out.
func (c *Connection) sendDir(canonical string, req *httpwire.Request) httpwire.Status {
	entries, err := os.ReadDir(fsPath(canonical))
	if err != nil {
		return c.sendStatus(httpwire.StatusForbidden)
	}

	sort.Slice(entries, func(i, j int) bool {
		di, dj := entries[i].IsDir(), entries[j].IsDir()
		if di != dj {
			return di
		}
		return entries[i].Name() < entries[j].Name()
	})

	// Headers go out as late as possible, once the listing is certain.
	head := fmt.Sprintf("HTTP/1.1 %d %s\r\n"+
		"Date: %s\r\n"+
		"Connection: close\r\n"+
		"Content-Type: text/html\r\n"+
		"\r\n",
		httpwire.StatusOK.Int(), httpwire.StatusOK.Text(),
		httpwire.HTTPDate(time.Now()))
	if err := c.write([]byte(head)); err != nil {
		return httpwire.StatusRequestTimeout
	}

	if req.Method != httpwire.MethodGet {
		return httpwire.StatusOK
	}

	var b strings.Builder
	fmt.Fprintf(&b, "<!DOCTYPE html>\n<html>\n\t<head>"+
		"<title>Index of %s</title></head>\n"+
		"\t<body>\n\t\t<a href=\"..\">..</a>", canonical)

	for _, e := range entries {
		name := e.Name()
		if strings.HasPrefix(name, ".") {
			continue
		}
		fmt.Fprintf(&b, "<br />\n\t\t<a href=\"%s\">%s%s</a>",
			name, name, typeGlyph(e.Type()))
	}
	b.WriteString("\n\t</body>\n</html>\n")

	if err := c.write([]byte(b.String())); err != nil {
		return httpwire.StatusRequestTimeout
	}
	return httpwire.StatusOK
}

// typeGlyph is the suffix appended to a listed name to hint at its type.
func typeGlyph(m fs.FileMode) string {
	switch {
	case m.IsDir():
		return "/"
	case m&fs.ModeNamedPipe != 0:
		return "|"
	case m&fs.ModeSymlink != 0:
		return "@"
	case m&fs.ModeSocket != 0:
		return "="
	}
	return ""
}
