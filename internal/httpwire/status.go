// Package httpwire implements the wire-level vocabulary of the quark HTTP
// server: the closed status set, RFC-1123 timestamps, the percent codec,
// lexical path normalization and the bounded request parser.
//
// Nothing in this package touches the filesystem or the network beyond the
// io.Reader handed to ReadRequest; it is shared by the httpd adapter and
// its tests.
package httpwire

// Status is the closed set of response codes the server emits. Each code
// carries a fixed reason phrase.
type Status int

const (
	StatusOK                  Status = 200
	StatusPartialContent      Status = 206
	StatusMovedPermanently    Status = 301
	StatusNotModified         Status = 304
	StatusBadRequest          Status = 400
	StatusForbidden           Status = 403
	StatusNotFound            Status = 404
	StatusMethodNotAllowed    Status = 405
	StatusRequestTimeout      Status = 408
	StatusHeaderTooLarge      Status = 431
	StatusInternalServerError Status = 500
	StatusVersionNotSupported Status = 505
)

var statusText = map[Status]string{
	StatusOK:                  "OK",
	StatusPartialContent:      "Partial Content",
	StatusMovedPermanently:    "Moved Permanently",
	StatusNotModified:         "Not Modified",
	StatusBadRequest:          "Bad Request",
	StatusForbidden:           "Forbidden",
	StatusNotFound:            "Not Found",
	StatusMethodNotAllowed:    "Method Not Allowed",
	StatusRequestTimeout:      "Request Time-out",
	StatusHeaderTooLarge:      "Request Header Fields Too Large",
	StatusInternalServerError: "Internal Server Error",
	StatusVersionNotSupported: "HTTP Version not supported",
}

// Text returns the fixed reason phrase for the status, or the empty string
// for codes outside the closed set.
func (s Status) Text() string {
	return statusText[s]
}

// Int returns the status as a plain integer, for logging and metrics labels.
func (s Status) Int() int {
	return int(s)
}
