package httpwire

import "time"

// dateLayout is the fixed-length RFC-1123 form used on the HTTP surface,
// e.g. "Sun, 06 Nov 1994 08:49:37 GMT". Other HTTP date formats are not
// accepted.
const dateLayout = "Mon, 02 Jan 2006 15:04:05 GMT"

// HTTPDate formats t as an RFC-1123 GMT timestamp. Sub-second precision is
// discarded; the result is always 29 bytes.
func HTTPDate(t time.Time) string {
	return t.UTC().Format(dateLayout)
}

// ParseHTTPDate parses an RFC-1123 GMT timestamp as produced by HTTPDate.
// Used only for If-Modified-Since.
func ParseHTTPDate(s string) (time.Time, error) {
	t, err := time.Parse(dateLayout, s)
	if err != nil {
		return time.Time{}, err
	}
	return t.UTC(), nil
}
