package httpwire

import "fmt"

// Kind classifies a request failure independently of the response code.
// The classification feeds metrics labels; the Status decides the wire
// response.
type Kind int

const (
	// KindMalformed covers unparseable request lines and bad field syntax.
	KindMalformed Kind = iota
	// KindUnsupported covers methods outside {GET, HEAD} and versions
	// outside {1.0, 1.1}.
	KindUnsupported
	// KindOversized covers targets, field values or header streams that
	// exceed their configured bound.
	KindOversized
	// KindStream covers read errors and timeouts during header reception.
	KindStream
)

func (k Kind) String() string {
	switch k {
	case KindMalformed:
		return "malformed"
	case KindUnsupported:
		return "unsupported"
	case KindOversized:
		return "oversized"
	case KindStream:
		return "stream"
	default:
		return "unknown"
	}
}

// WireError couples the response status a failure maps to with the failure
// class that produced it. The parser returns it instead of writing to the
// stream; the connection layer emits exactly one response per connection.
type WireError struct {
	Status Status
	Kind   Kind
}

func (e *WireError) Error() string {
	return fmt.Sprintf("%s request: %d %s", e.Kind, int(e.Status), e.Status.Text())
}

func wireErr(s Status, k Kind) *WireError {
	return &WireError{Status: s, Kind: k}
}
