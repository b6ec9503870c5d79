package backend

import (
	"errors"

	"github.com/gogpu/postfx/gpucore"
)

// Backend name constants.
const (
	// BackendRecorder is the name of the in-memory recording backend.
	BackendRecorder = "recorder"
	// BackendNoop is the name of the gogpu/wgpu HAL backend on the noop
	// adapter. It translates every descriptor without a GPU.
	BackendNoop = "noop"
)

var (
	// ErrBackendNotAvailable is returned when no backend is registered.
	ErrBackendNotAvailable = errors.New("backend: not available")

	// ErrNotInitialized is returned when a backend is used before Init.
	ErrNotInitialized = errors.New("backend: not initialized")
)

// Backend opens a gpucore.Device and creates command encoders for it.
type Backend interface {
	// Name returns the backend identifier.
	Name() string

	// Init opens the device.
	Init() error

	// Close releases the device. The backend may be initialized again.
	Close()

	// Device returns the device, or nil before Init.
	Device() gpucore.Device

	// NewEncoder creates a command encoder for one frame.
	NewEncoder(label string) (Encoder, error)
}

// Encoder is a command encoder that can be submitted once.
type Encoder interface {
	gpucore.CommandEncoder

	// Submit finishes recording and submits the commands.
	Submit() error
}
