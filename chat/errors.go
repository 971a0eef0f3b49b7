package chat

import (
	"errors"
	"fmt"
)

var (
	// ErrBusy is returned when a request is submitted while another is
	// outstanding.
	ErrBusy = errors.New("chat: a request is already in flight")
	// ErrNetworkUnavailable is wrapped by the TransportError returned when
	// the link is down and reconnecting failed.
	ErrNetworkUnavailable = errors.New("chat: network unavailable")
)

// HTTPError is a response with a status other than 200.
type HTTPError struct {
	Status     int
	BodyPrefix string
}

func (e *HTTPError) Error() string {
	if e.BodyPrefix == "" {
		return fmt.Sprintf("HTTP Error: %d", e.Status)
	}
	return fmt.Sprintf("HTTP Error: %d - %s", e.Status, e.BodyPrefix)
}

// TransportError is a failure before any status was received: no network,
// connection refused, DNS, timeout.
type TransportError struct {
	Detail string
	Err    error
}

func (e *TransportError) Error() string {
	return "Request Fail: " + e.Detail
}

func (e *TransportError) Unwrap() error { return e.Err }
