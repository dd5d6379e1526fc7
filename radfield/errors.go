package radfield

import (
	"errors"
	"fmt"

	lerrors "github.com/wzqhbustb/radfield/storage/errors"
)

// Sentinel errors for common cases
var (
	// ErrChannelExists is returned when adding a channel name twice
	ErrChannelExists = errors.New("channel already exists")

	// ErrLayerExists is returned when adding a layer name twice to a channel
	ErrLayerExists = errors.New("layer already exists")

	// ErrInvalidDimensions is returned for non-positive field or voxel dimensions
	ErrInvalidDimensions = errors.New("invalid field dimensions")

	// ErrHistogramLayer is returned when scalar access is used on a histogram
	// layer or histogram access on a scalar layer
	ErrHistogramLayer = errors.New("histogram layer access mismatch")
)

// Error provides structured error information
type Error struct {
	Op   string // Operation: "Save", "Load", "AddLayer", etc.
	Path string // File or channel/layer path (if applicable)
	Err  error
}

// Error returns a formatted error string
func (e *Error) Error() string {
	if e.Path != "" {
		return fmt.Sprintf("radfield: %s %s failed: %v", e.Op, e.Path, e.Err)
	}
	return fmt.Sprintf("radfield: %s failed: %v", e.Op, e.Err)
}

// Unwrap returns the underlying error for errors.Is/As support
func (e *Error) Unwrap() error { return e.Err }

// IsUnknownType reports whether a file or layer used a type tag that cannot
// be resolved to an element kind.
func IsUnknownType(err error) bool {
	return lerrors.Is(err, lerrors.ErrUnknownType)
}

// IsCorrupted reports whether err indicates a damaged or foreign file
func IsCorrupted(err error) bool {
	return lerrors.IsAny(err,
		lerrors.ErrInvalidMagic,
		lerrors.ErrCorruptedFile,
		lerrors.ErrChecksumMismatch,
		lerrors.ErrUnexpectedEOF,
	)
}

// IsNotFound reports whether err is a missing channel or layer
func IsNotFound(err error) bool {
	return lerrors.IsAny(err, lerrors.ErrChannelNotFound, lerrors.ErrLayerNotFound)
}

func wrapError(op, path string, err error) error {
	if err == nil {
		return nil
	}
	return &Error{Op: op, Path: path, Err: err}
}
