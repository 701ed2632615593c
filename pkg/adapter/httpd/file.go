package httpd

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/marmos91/quark/internal/httpwire"
)

// sendFile streams the byte window [lower, upper) of the regular file at
// fsPath. The status is 206 when the request carried a Range field, 200
// otherwise. For HEAD the body is suppressed.
//
// Once the headers are on the wire no further status response is possible:
// a read failure aborts the stream with final status 500, a write failure
// with 408.
func (c *Connection) sendFile(fsPath string, req *httpwire.Request, st os.FileInfo,
	mime string, lower, upper int64, ranged bool) httpwire.Status {

	f, err := os.Open(fsPath)
	if err != nil {
		return c.sendStatus(httpwire.StatusForbidden)
	}
	defer f.Close()

	if _, err := f.Seek(lower, io.SeekStart); err != nil {
		return c.sendStatus(httpwire.StatusInternalServerError)
	}

	status := httpwire.StatusOK
	if ranged {
		status = httpwire.StatusPartialContent
	}

	head := fmt.Sprintf("HTTP/1.1 %d %s\r\n"+
		"Date: %s\r\n"+
		"Connection: close\r\n"+
		"Last-Modified: %s\r\n"+
		"Content-Type: %s\r\n"+
		"Content-Length: %d\r\n",
		status.Int(), status.Text(),
		httpwire.HTTPDate(time.Now()),
		httpwire.HTTPDate(st.ModTime()),
		mime, upper-lower)
	if ranged {
		head += fmt.Sprintf("Content-Range: bytes %d-%d/%d\r\n", lower, upper-1, st.Size())
	}
	head += "\r\n"

	if err := c.write([]byte(head)); err != nil {
		return httpwire.StatusRequestTimeout
	}

	if req.Method != httpwire.MethodGet {
		return status
	}

	var written int64
	remaining := upper - lower
	for remaining > 0 {
		chunk := c.copyBuf
		if remaining < int64(len(chunk)) {
			chunk = chunk[:remaining]
		}

		n, rerr := f.Read(chunk)
		if n > 0 {
			if werr := c.write(chunk[:n]); werr != nil {
				c.addResponseBytes(written)
				return httpwire.StatusRequestTimeout
			}
			written += int64(n)
			remaining -= int64(n)
		}
		if rerr == io.EOF {
			// The file shrank underneath us; stop at what is there.
			break
		}
		if rerr != nil {
			c.addResponseBytes(written)
			return httpwire.StatusInternalServerError
		}
	}

	c.addResponseBytes(written)
	return status
}

func (c *Connection) addResponseBytes(n int64) {
	if m := c.adapter.Metrics; m != nil && n > 0 {
		m.AddResponseBytes(n)
	}
}
