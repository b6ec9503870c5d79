package backend_test

import (
	"errors"
	"slices"
	"testing"

	"github.com/gogpu/postfx"
	"github.com/gogpu/postfx/backend"
	_ "github.com/gogpu/postfx/backend/native"
	_ "github.com/gogpu/postfx/backend/recorder"
	"github.com/gogpu/postfx/effect"
	"github.com/gogpu/postfx/gpucore"
)

type failingBackend struct{}

var errInit = errors.New("init failed")

func (failingBackend) Name() string { return "failing" }
func (failingBackend) Init() error { return errInit }
func (failingBackend) Close() {}
func (failingBackend) Device() gpucore.Device { return nil }
func (failingBackend) NewEncoder(string) (backend.Encoder, error) { return nil, errInit }

func TestRegistryRegisterAndGet(t *testing.T) {
	for _, name := range []string{backend.BackendRecorder, backend.BackendNoop} {
		if !backend.IsRegistered(name) {
			t.Errorf("%s backend should be auto-registered", name)
			continue
		}
		b := backend.Get(name)
		if b == nil {
			t.Fatalf("Get(%s) returned nil", name)
		}
		if b.Name() != name {
			t.Errorf("Get(%s).Name() = %q, want %q", name, b.Name(), name)
		}
	}
}

func TestRegistryGetUnregistered(t *testing.T) {
	if b := backend.Get("nonexistent"); b != nil {
		t.Error("Get(nonexistent) should return nil")
	}
	if _, err := backend.Open("nonexistent"); !errors.Is(err, backend.ErrBackendNotAvailable) {
		t.Errorf("Open(nonexistent) error = %v, want ErrBackendNotAvailable", err)
	}
}

func TestRegistryAvailable(t *testing.T) {
	available := backend.Available()
	if !slices.IsSorted(available) {
		t.Errorf("Available() = %v, want sorted", available)
	}
	for _, name := range []string{backend.BackendRecorder, backend.BackendNoop} {
		if !slices.Contains(available, name) {
			t.Errorf("Available() should include %q", name)
		}
	}
}

func TestRegistryDefault(t *testing.T) {
	b := backend.Default()
	if b == nil {
		t.Fatal("Default() returned nil")
	}
	if b.Name() != backend.BackendNoop {
		t.Errorf("Default() = %q, want %q", b.Name(), backend.BackendNoop)
	}
}

func TestRegistryInitDefault(t *testing.T) {
	b, err := backend.InitDefault()
	if err != nil {
		t.Fatalf("InitDefault() error = %v", err)
	}
	defer b.Close()
	if b.Device() == nil {
		t.Error("backend from InitDefault() has no device")
	}
}

func TestRegistryUnregister(t *testing.T) {
	backend.Register("test-backend", func() backend.Backend { return failingBackend{} })
	if !backend.IsRegistered("test-backend") {
		t.Error("test-backend should be registered")
	}
	if _, err := backend.Open("test-backend"); !errors.Is(err, errInit) {
		t.Errorf("Open(test-backend) error = %v, want errInit", err)
	}
	backend.Unregister("test-backend")
	if backend.IsRegistered("test-backend") {
		t.Error("test-backend should be unregistered")
	}
}

func TestBackendLifecycle(t *testing.T) {
	for _, name := range []string{backend.BackendRecorder, backend.BackendNoop} {
		t.Run(name, func(t *testing.T) {
			b := backend.Get(name)
			if b.Device() != nil {
				t.Error("Device() before Init should be nil")
			}
			if _, err := b.NewEncoder("frame"); !errors.Is(err, backend.ErrNotInitialized) {
				t.Errorf("NewEncoder before Init error = %v, want ErrNotInitialized", err)
			}
			if err := b.Init(); err != nil {
				t.Fatalf("Init: %v", err)
			}
			if b.Device() == nil {
				t.Fatal("Device() after Init is nil")
			}
			b.Close()
			if b.Device() != nil {
				t.Error("Device() after Close should be nil")
			}
		})
	}
}

func TestBackendRunsChain(t *testing.T) {
	for _, name := range []string{backend.BackendRecorder, backend.BackendNoop} {
		t.Run(name, func(t *testing.T) {
			b, err := backend.Open(name)
			if err != nil {
				t.Fatal(err)
			}
			defer b.Close()

			dev := b.Device()
			pp, err := postfx.New(dev)
			if err != nil {
				t.Fatal(err)
			}
			defer pp.Close()
			pp.Effects().BloomDual = &effect.BloomDual{Radius: 2, Iteration: 2, Intensity: 1, Threshold: 0.5}

			tex, err := dev.CreateTexture(&gpucore.TextureDesc{Label: "scene", Width: 640, Height: 480, Format: gpucore.FormatRGBA8Unorm})
			if err != nil {
				t.Fatal(err)
			}
			view, err := dev.CreateTextureView(tex)
			if err != nil {
				t.Fatal(err)
			}
			src := gpucore.NewSurfaceDesc(tex, view, 640, 480, gpucore.FormatRGBA8Unorm)

			if err := pp.Check(16, postfx.NewComposite(gpucore.FormatRGBA8Unorm)); err != nil {
				t.Fatal(err)
			}
			enc, err := b.NewEncoder("frame")
			if err != nil {
				t.Fatal(err)
			}
			if _, err := pp.Draw(enc, src, postfx.Allocated(0, 0)); err != nil {
				t.Fatal(err)
			}
			if err := enc.Submit(); err != nil {
				t.Fatalf("Submit: %v", err)
			}
			if st := pp.Stats(); st.Renders != 1 {
				t.Errorf("renders = %d, want 1", st.Renders)
			}
		})
	}
}
