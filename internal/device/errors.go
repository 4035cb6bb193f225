package device

import "errors"

// Errors returned by frame processing.
var (
	// ErrClusterNotFound indicates no input cluster matches the target cluster id.
	ErrClusterNotFound = errors.New("cluster not found")

	// ErrUnsupportedCommand indicates a command id this endpoint does not implement.
	ErrUnsupportedCommand = errors.New("unsupported command")

	// ErrUnsupportedFrameType indicates a reserved frame type in the frame control field.
	ErrUnsupportedFrameType = errors.New("unsupported frame type")

	// ErrMalformedFrame indicates a frame whose length is inconsistent with its records.
	ErrMalformedFrame = errors.New("malformed frame")

	// ErrPayloadOverflow indicates the response does not fit the caller's buffer.
	ErrPayloadOverflow = errors.New("response exceeds payload capacity")

	// ErrUnsupportedType indicates an attribute data type that cannot be serialized.
	ErrUnsupportedType = errors.New("unsupported data type")

	// ErrAttributeExists indicates a duplicate attribute id within a cluster.
	ErrAttributeExists = errors.New("attribute already exists")
)
