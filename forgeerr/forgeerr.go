// Package forgeerr declares the error kinds used across the renderer core
// and a wrapping type that carries one of them alongside the usual Go error
// chain, so callers can branch on kind with errors.As instead of string
// matching.
package forgeerr

import "fmt"

// Kind identifies one of the renderer's classified error categories.
type Kind int

const (
	// KindUnknown is the zero value; never intentionally returned.
	KindUnknown Kind = iota

	// KindCapacityExhausted indicates a resource table has reached its
	// fixed capacity limit (see engine/resources).
	KindCapacityExhausted

	// KindAssetParse indicates a malformed OBJ/glTF/DDS asset.
	KindAssetParse

	// KindUnsupportedFormat indicates a structurally valid asset using a
	// feature this core does not implement (e.g. a DDS cubemap).
	KindUnsupportedFormat

	// KindShaderLoad indicates a precompiled shader asset failed to load.
	KindShaderLoad

	// KindAPIObjectCreate indicates a graphics-API object (pipeline, buffer,
	// texture, bind group) failed to create.
	KindAPIObjectCreate

	// KindUploadFailed indicates a GPU buffer or texture upload failed.
	KindUploadFailed

	// KindDrawBufferOverflow indicates the indirect draw-count buffer's
	// atomic allocator saturated and was clamped.
	KindDrawBufferOverflow

	// KindDeviceLost indicates the graphics device was removed mid-frame.
	KindDeviceLost
)

// String returns the human-readable name of the kind, used in log lines.
func (k Kind) String() string {
	switch k {
	case KindCapacityExhausted:
		return "capacity-exhausted"
	case KindAssetParse:
		return "asset-parse"
	case KindUnsupportedFormat:
		return "unsupported-format"
	case KindShaderLoad:
		return "shader-load"
	case KindAPIObjectCreate:
		return "api-object-create"
	case KindUploadFailed:
		return "upload-failed"
	case KindDrawBufferOverflow:
		return "draw-buffer-overflow"
	case KindDeviceLost:
		return "device-lost"
	default:
		return "unknown"
	}
}

// Error wraps an underlying error with a classified Kind and the operation
// that produced it.
type Error struct {
	Kind Kind
	Op   string
	Err  error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Op, e.Kind, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Op, e.Kind)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// New constructs an *Error for the given kind and operation, wrapping err
// (which may be nil).
func New(kind Kind, op string, err error) *Error {
	return &Error{Kind: kind, Op: op, Err: err}
}

// Is reports whether err carries the given Kind.
func Is(err error, kind Kind) bool {
	var e *Error
	for err != nil {
		if fe, ok := err.(*Error); ok {
			e = fe
			break
		}
		u, ok := err.(interface{ Unwrap() error })
		if !ok {
			break
		}
		err = u.Unwrap()
	}
	return e != nil && e.Kind == kind
}
