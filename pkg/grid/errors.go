// pkg/grid/errors.go

package grid

import "errors"

var (
	// ErrInvalidMode is returned by Open for an unrecognized mode.
	ErrInvalidMode = errors.New("illegal mode")

	// ErrChunkSizeFrozen is returned when a chunk-size change is attempted
	// outside a fresh write-mode open.
	ErrChunkSizeFrozen = errors.New("chunk size cannot be changed once data has been written")

	// ErrInvalidChunkSize is returned for a non-positive chunk-size option.
	ErrInvalidChunkSize = errors.New("chunk size must be positive")

	// ErrNotWritable is returned by write operations outside write/append mode.
	ErrNotWritable = errors.New("file is not opened for writing")

	// ErrNotOpenForRead is returned by EOF outside read mode.
	ErrNotOpenForRead = errors.New("file is not opened for reading")

	// ErrClosed is returned by any I/O on a closed file.
	ErrClosed = errors.New("file is closed")

	// ErrPushback is returned when the one-byte pushback slot is occupied.
	ErrPushback = errors.New("pushback slot is occupied")
)
