// Package process provides the address and region abstractions shared by
// every memory source: live processes, the calling process and synthetic dumps.
package process

import "errors"

// The value types live in memory_types.go and types.go, the interfaces in
// process_interface.go and process_finder.go.

var (
	// ErrAddressNotMapped is returned when a memory address is not found within any mapped region of a process.
	ErrAddressNotMapped = errors.New("address not mapped")

	// ErrProcessNotOpen is returned when an operation requiring an open process is attempted
	// before the process has been successfully opened or after it has been closed.
	ErrProcessNotOpen = errors.New("process not open")

	ErrInvalidPointer = errors.New("invalid pointer read")

	// ErrShortRead is returned by exact reads that transferred fewer bytes than requested.
	ErrShortRead = errors.New("short read")

	ErrProcessNotFound = errors.New("process not found")
)
