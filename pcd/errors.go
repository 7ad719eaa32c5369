package pcd

import "errors"

var (
	// ErrUnknownFormat is returned when a file declares an encoding other
	// than ascii, binary or binary_compressed.
	ErrUnknownFormat = errors.New("unknown data format")

	// ErrCorruptPayload is returned when the binary_compressed payload is
	// truncated or does not expand to its declared size.
	ErrCorruptPayload = errors.New("corrupt compressed payload")
)
