package postfx

import (
	"errors"
	"fmt"

	"github.com/gogpu/postfx/effect"
	"github.com/gogpu/postfx/gpucore"
)

// Errors returned by PostProcess.
var (
	// ErrInsufficientTargets is returned when a stage cannot obtain the
	// distinct intermediate surfaces it needs. It is the same value as
	// effect.ErrInsufficientTargets.
	ErrInsufficientTargets = effect.ErrInsufficientTargets

	// ErrNilDevice is returned by New when no device is given.
	ErrNilDevice = errors.New("postfx: nil device")

	// ErrNotChecked is returned when a draw is recorded before Check
	// succeeded for the frame.
	ErrNotChecked = errors.New("postfx: draw before a successful Check")

	// ErrAliasedDestination is returned when the destination lives on the
	// texture the final stage samples.
	ErrAliasedDestination = errors.New("postfx: destination shares the source texture")

	// ErrFormatMismatch is returned when a destination surface does not have
	// the format the composite was checked with.
	ErrFormatMismatch = errors.New("postfx: destination format differs from the composite format")

	// ErrInvalidSurface is returned for a source or destination whose region
	// is empty or outside its texture.
	ErrInvalidSurface = errors.New("postfx: invalid surface")

	// ErrClosed is returned after Close.
	ErrClosed = errors.New("postfx: post-process closed")
)

// UnsupportedFormatError reports a surface format the chain cannot render
// into.
type UnsupportedFormatError struct {
	// Role names what the format was requested for, such as "composite" or
	// "intermediate".
	Role   string
	Format gpucore.SurfaceFormat
}

func (e *UnsupportedFormatError) Error() string {
	return fmt.Sprintf("postfx: unsupported %s format %v", e.Role, e.Format)
}

// checkFormat returns an *UnsupportedFormatError unless f is a renderable
// four-channel color format.
func checkFormat(role string, f gpucore.SurfaceFormat) error {
	if !f.ColorChannels() {
		return &UnsupportedFormatError{Role: role, Format: f}
	}
	return nil
}
