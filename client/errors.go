package client

import "fmt"

// NetworkError wraps a transport-level failure: the request never produced a
// usable server response. Pollers treat these as transient and keep their
// previous snapshot.
type NetworkError struct {
	Op  string
	Err error
}

func (e *NetworkError) Error() string {
	return fmt.Sprintf("network failure during %s: %v", e.Op, e.Err)
}

func (e *NetworkError) Unwrap() error { return e.Err }

// ServerRejectionError carries a non-2xx response and the server-supplied
// message, e.g. the server-side transition guard firing.
type ServerRejectionError struct {
	StatusCode int
	Message    string
}

func (e *ServerRejectionError) Error() string {
	return fmt.Sprintf("server rejected request (%d): %s", e.StatusCode, e.Message)
}

// NotFoundError means the requested resource does not resolve; the customer
// tracker renders this as its own terminal screen, distinct from a network
// failure.
type NotFoundError struct {
	Resource string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("not found: %s", e.Resource)
}
