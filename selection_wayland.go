// Copyright 2025 Ayman Bagabas
// SPDX-License-Identifier: MIT

//go:build (linux && !android) || freebsd

package nativeselection

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"runtime"
	"strings"
	"sync"
	"time"
	"unsafe"

	"github.com/ebitengine/purego"
)

// Wayland types
type (
	wlDisplay uintptr
	wlProxy   uintptr
)

// Wayland function pointers
var (
	wlRegistryInterface uintptr

	wlDisplayConnect          func(name *byte) wlDisplay
	wlDisplayDisconnect       func(display wlDisplay)
	wlDisplayRoundtrip        func(display wlDisplay) int32
	wlProxyAddListener        func(proxy wlProxy, implementation uintptr, data uintptr) int32
	wlProxyDestroy            func(proxy wlProxy)
	wlProxyMarshalConstructor func(proxy wlProxy, opcode uint32, iface uintptr, newID uintptr) wlProxy
)

// wlDisplayGetRegistry is the wl_display.get_registry request opcode.
const wlDisplayGetRegistry = 1

// Registry listener for collecting globals
type registryListener struct {
	Global       uintptr
	GlobalRemove uintptr
}

var (
	waylandOnce sync.Once
	waylandErr  error

	registryListenerInstance registryListener

	// globals collects the interfaces advertised during a registry roundtrip.
	// Registry callbacks run on the calling thread inside wl_display_roundtrip.
	globalsMu sync.Mutex
	globals   map[string]uint32
)

//go:uintptrescapes
func registryHandleGlobal(data uintptr, registry wlProxy, name uint32, iface *byte, version uint32) {
	globalsMu.Lock()
	defer globalsMu.Unlock()
	if globals != nil {
		globals[goString(iface)] = version
	}
}

//go:uintptrescapes
func registryHandleGlobalRemove(data uintptr, registry wlProxy, name uint32) {}

func loadWayland() error {
	waylandOnce.Do(func() {
		lib, err := purego.Dlopen("libwayland-client.so.0", purego.RTLD_LAZY|purego.RTLD_GLOBAL)
		if err != nil {
			lib, err = purego.Dlopen("libwayland-client.so", purego.RTLD_LAZY|purego.RTLD_GLOBAL)
			if err != nil {
				waylandErr = fmt.Errorf("%w: failed to load libwayland-client: %v", ErrUnavailable, err)
				return
			}
		}

		purego.RegisterLibFunc(&wlDisplayConnect, lib, "wl_display_connect")
		purego.RegisterLibFunc(&wlDisplayDisconnect, lib, "wl_display_disconnect")
		purego.RegisterLibFunc(&wlDisplayRoundtrip, lib, "wl_display_roundtrip")
		purego.RegisterLibFunc(&wlProxyAddListener, lib, "wl_proxy_add_listener")
		purego.RegisterLibFunc(&wlProxyDestroy, lib, "wl_proxy_destroy")
		purego.RegisterLibFunc(&wlProxyMarshalConstructor, lib, "wl_proxy_marshal_constructor")

		wlRegistryInterface, err = purego.Dlsym(lib, "wl_registry_interface")
		if err != nil {
			waylandErr = fmt.Errorf("%w: failed to load wl_registry_interface: %v", ErrUnavailable, err)
			return
		}

		registryListenerInstance.Global = purego.NewCallback(registryHandleGlobal)
		registryListenerInstance.GlobalRemove = purego.NewCallback(registryHandleGlobalRemove)
	})
	return waylandErr
}

// waylandGlobals connects to the compositor and returns the advertised
// globals and their versions.
func waylandGlobals() (map[string]uint32, error) {
	if err := loadWayland(); err != nil {
		return nil, err
	}

	runtime.LockOSThread()
	defer runtime.UnlockOSThread()

	display := wlDisplayConnect(nil)
	if display == 0 {
		return nil, fmt.Errorf("%w: failed to connect to Wayland display", ErrUnavailable)
	}
	defer wlDisplayDisconnect(display)

	registry := wlProxyMarshalConstructor(wlProxy(display), wlDisplayGetRegistry, wlRegistryInterface, 0)
	if registry == 0 {
		return nil, fmt.Errorf("%w: failed to get registry", ErrUnavailable)
	}
	defer wlProxyDestroy(registry)

	globalsMu.Lock()
	globals = map[string]uint32{}
	globalsMu.Unlock()

	wlProxyAddListener(registry, uintptr(unsafe.Pointer(&registryListenerInstance)), 0)
	if wlDisplayRoundtrip(display) < 0 {
		return nil, fmt.Errorf("%w: wayland roundtrip failed", ErrUnavailable)
	}

	globalsMu.Lock()
	defer globalsMu.Unlock()
	found := globals
	globals = nil
	return found, nil
}

// errNoSeats is returned by the support check when the compositor advertises no seat.
var errNoSeats = errors.New("no seats")

// primarySupported reports whether the advertised globals include a protocol
// that exposes the primary selection.
func primarySupported(globals map[string]uint32) (bool, error) {
	if _, ok := globals["wl_seat"]; !ok {
		return false, errNoSeats
	}
	if _, ok := globals["zwp_primary_selection_device_manager_v1"]; ok {
		return true, nil
	}
	if _, ok := globals["ext_data_control_manager_v1"]; ok {
		return true, nil
	}
	// wlr-data-control gained primary selection in version 2.
	if v, ok := globals["zwlr_data_control_manager_v1"]; ok && v >= 2 {
		return true, nil
	}
	return false, nil
}

// waylandPrimary reads the Wayland primary selection.
type waylandPrimary struct {
	timeout time.Duration
}

// PrimarySupported implements primarySource.
func (w *waylandPrimary) PrimarySupported() (bool, error) {
	found, err := waylandGlobals()
	if err != nil {
		return false, err
	}
	return primarySupported(found)
}

// ReadPrimary reads the primary selection with wl-paste. Empty selections,
// missing seats and selections without a text type are reported as
// ErrNotFound.
func (w *waylandPrimary) ReadPrimary() (string, error) {
	path, err := exec.LookPath("wl-paste")
	if err != nil {
		return "", fmt.Errorf("%w: wl-paste not found: %w", ErrUnavailable, err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), w.timeout)
	defer cancel()

	var stdout, stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, path, "--primary", "--no-newline", "--type", "text")
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		if ctx.Err() != nil {
			return "", fmt.Errorf("%w: wl-paste did not finish within %s", ErrNotFound, w.timeout)
		}
		return "", classifyPasteError(stderr.String(), err)
	}
	return decodeText(stdout.Bytes()), nil
}

// classifyPasteError maps wl-paste failures that mean "nothing selected" to
// ErrNotFound.
func classifyPasteError(stderr string, err error) error {
	msg := strings.ToLower(strings.TrimSpace(stderr))
	for _, empty := range []string{
		"nothing is copied",
		"no selection",
		"no seat",
		"no suitable type of content copied",
	} {
		if strings.Contains(msg, empty) {
			return fmt.Errorf("%w: %s", ErrNotFound, msg)
		}
	}
	if msg == "" {
		return fmt.Errorf("%w: wl-paste: %w", ErrUnavailable, err)
	}
	return fmt.Errorf("%w: wl-paste: %s: %w", ErrUnavailable, msg, err)
}
