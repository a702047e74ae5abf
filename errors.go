package glwindow

import (
	"errors"
	"fmt"
)

var (
	// ErrNoBackendAvailable is returned by every creation call when no native
	// windowing backend could be initialized.
	ErrNoBackendAvailable = errors.New("no windowing backend available")
	// ErrOsError wraps a failed native call.
	ErrOsError = errors.New("native call failed")
	// ErrNoAvailablePixelFormat means the driver offers no format meeting the
	// hard requirements.
	ErrNoAvailablePixelFormat = errors.New("no available pixel format")
	// ErrNotSupported means a requested feature or combination is not
	// supported by the backend.
	ErrNotSupported = errors.New("not supported")
	// ErrRobustnessNotSupported is returned for robustness modes that cannot
	// be honored.
	ErrRobustnessNotSupported = errors.New("robustness mode not supported")
	// ErrOpenGLVersionNotSupported means the requested API version cannot be
	// provided.
	ErrOpenGLVersionNotSupported = errors.New("requested OpenGL version not supported")
	// ErrSharingUnsupported is returned when two contexts of different backend
	// variants are asked to share objects.
	ErrSharingUnsupported = fmt.Errorf("%w: context sharing across backend variants", ErrNotSupported)

	ErrContextNotCurrent = errors.New("context is not current on this thread")
	ErrContextLost       = errors.New("context lost")
	ErrContextDestroyed  = errors.New("context destroyed")
	ErrWindowClosed      = errors.New("window closed")
)

// Stage names the step of window construction that failed.
type Stage int

const (
	StageValidate Stage = iota
	StageBackend
	StageWindow
	StagePixelFormat
	StageContext
)

func (s Stage) String() string {
	switch s {
	case StageValidate:
		return "validate"
	case StageBackend:
		return "backend"
	case StageWindow:
		return "window"
	case StagePixelFormat:
		return "pixel format"
	case StageContext:
		return "context"
	default:
		return fmt.Sprintf("Stage(%d)", int(s))
	}
}

// CreationError is returned by window construction.
type CreationError struct {
	Stage Stage
	Err   error
}

func (e *CreationError) Error() string {
	return fmt.Sprintf("create window (%s): %v", e.Stage, e.Err)
}

func (e *CreationError) Unwrap() error { return e.Err }

// ContextError is returned by context operations after construction.
type ContextError struct {
	Op  string
	Err error
}

func (e *ContextError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *ContextError) Unwrap() error { return e.Err }

func creationErr(stage Stage, err error) error {
	var ce *CreationError
	if errors.As(err, &ce) {
		return err
	}
	return &CreationError{Stage: stage, Err: err}
}

// osErr converts a failed native call into an ErrOsError chain.
func osErr(op string, cause error) error {
	if cause == nil {
		return fmt.Errorf("%s: %w", op, ErrOsError)
	}
	return fmt.Errorf("%s: %w: %w", op, ErrOsError, cause)
}
