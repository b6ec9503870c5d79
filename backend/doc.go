// Package backend provides a registry of devices that postfx can run on.
//
// Backends register themselves in init functions and are selected at
// runtime by name:
//
//	import (
//		"github.com/gogpu/postfx/backend"
//		_ "github.com/gogpu/postfx/backend/native"
//		_ "github.com/gogpu/postfx/backend/recorder"
//	)
//
//	b, err := backend.Open(backend.BackendRecorder)
//	if err != nil {
//		log.Fatal(err)
//	}
//	defer b.Close()
//
//	pp, err := postfx.New(b.Device())
//
// A host application that already owns a GPU device does not need the
// registry; it wraps the device with backend/native directly.
package backend
