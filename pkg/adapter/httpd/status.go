package httpd

import (
	"fmt"
	"time"

	"github.com/marmos91/quark/internal/httpwire"
)

// sendStatus emits the canonical error/status response for s: minimal
// headers, an Allow hint for 405, and a fixed self-contained HTML body.
// It returns s, or 408 when the stream failed underneath it.
func (c *Connection) sendStatus(s httpwire.Status) httpwire.Status {
	allow := ""
	if s == httpwire.StatusMethodNotAllowed {
		allow = "Allow: HEAD, GET\r\n"
	}

	msg := fmt.Sprintf("HTTP/1.1 %d %s\r\n"+
		"Date: %s\r\n"+
		"Connection: close\r\n"+
		"%s"+
		"Content-Type: text/html\r\n"+
		"\r\n"+
		"<!DOCTYPE html>\n<html>\n\t<head>\n"+
		"\t\t<title>%d %s</title>\n\t</head>\n\t<body>\n"+
		"\t\t<h1>%d %s</h1>\n\t</body>\n</html>\n",
		s.Int(), s.Text(), httpwire.HTTPDate(time.Now()), allow,
		s.Int(), s.Text(), s.Int(), s.Text())

	if err := c.write([]byte(msg)); err != nil {
		return httpwire.StatusRequestTimeout
	}
	return s
}

// sendRedirect emits a 301 pointing at the canonical form of the target.
// The location is percent-encoded; there is no body.
func (c *Connection) sendRedirect(canonical string) httpwire.Status {
	msg := fmt.Sprintf("HTTP/1.1 %d %s\r\n"+
		"Date: %s\r\n"+
		"Connection: close\r\n"+
		"Location: %s\r\n"+
		"\r\n",
		httpwire.StatusMovedPermanently.Int(), httpwire.StatusMovedPermanently.Text(),
		httpwire.HTTPDate(time.Now()),
		httpwire.EncodeLocation(canonical))

	if err := c.write([]byte(msg)); err != nil {
		return httpwire.StatusRequestTimeout
	}
	return httpwire.StatusMovedPermanently
}

// sendNotModified emits a bodyless 304.
func (c *Connection) sendNotModified() httpwire.Status {
	msg := fmt.Sprintf("HTTP/1.1 %d %s\r\n"+
		"Date: %s\r\n"+
		"Connection: close\r\n"+
		"\r\n",
		httpwire.StatusNotModified.Int(), httpwire.StatusNotModified.Text(),
		httpwire.HTTPDate(time.Now()))

	if err := c.write([]byte(msg)); err != nil {
		return httpwire.StatusRequestTimeout
	}
	return httpwire.StatusNotModified
}
