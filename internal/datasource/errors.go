package datasource

import "errors"

var (
	// ErrCircuitOpen indicates the client stopped issuing requests after
	// repeated failures
	ErrCircuitOpen = errors.New("circuit breaker open")

	// ErrUnexpectedStatus indicates a non-200 response from the timing API
	ErrUnexpectedStatus = errors.New("unexpected response status")

	// ErrNotConnected indicates a stream operation before Connect
	ErrNotConnected = errors.New("not connected to stream")

	// ErrAlreadyConnected indicates a duplicate Connect call
	ErrAlreadyConnected = errors.New("already connected")
)
