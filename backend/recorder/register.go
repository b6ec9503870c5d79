package recorder

import (
	"github.com/gogpu/postfx/backend"
	"github.com/gogpu/postfx/gpucore"
)

// init registers the recorder backend on package import.
func init() {
	backend.Register(backend.BackendRecorder, func() backend.Backend {
		return &recorderBackend{}
	})
}

type recorderBackend struct {
	dev *Device
}

func (b *recorderBackend) Name() string { return backend.BackendRecorder }

func (b *recorderBackend) Init() error {
	if b.dev == nil {
		b.dev = New()
	}
	return nil
}

func (b *recorderBackend) Close() { b.dev = nil }

func (b *recorderBackend) Device() gpucore.Device {
	if b.dev == nil {
		return nil
	}
	return b.dev
}

func (b *recorderBackend) NewEncoder(string) (backend.Encoder, error) {
	if b.dev == nil {
		return nil, backend.ErrNotInitialized
	}
	return b.dev.NewEncoder(), nil
}
