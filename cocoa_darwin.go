//go:build cgo

package main

/*
#cgo CFLAGS: -x objective-c -fobjc-arc
#cgo LDFLAGS: -framework Cocoa -framework WebKit
#include <stdlib.h>
#include "cocoa_darwin.h"
*/
import "C"
import (
	"errors"
	"fmt"
	"sync"
	"time"
	"unsafe"

	"viewshell/pdfexport"
)

const (
	surfaceWidth    = 1024
	surfaceHeight   = 768
	navigateTimeout = 30 * time.Second
)

// ---------------------------------------------------------------------------
// Callback registry for dispatchToMain
// ---------------------------------------------------------------------------

var (
	cbMu   sync.Mutex
	cbMap  = make(map[uintptr]func())
	cbNext uintptr
)

func storeCallback(fn func()) uintptr {
	cbMu.Lock()
	defer cbMu.Unlock()
	cbNext++
	id := cbNext
	cbMap[id] = fn
	return id
}

func loadCallback(id uintptr) func() {
	cbMu.Lock()
	defer cbMu.Unlock()
	fn := cbMap[id]
	delete(cbMap, id)
	return fn
}

// dispatchToMain schedules a Go function to run on the main (UI) thread.
func dispatchToMain(fn func()) {
	id := storeCallback(fn)
	C.cocoa_dispatch_main_callback(unsafe.Pointer(id))
}

// onMain runs fn on the main thread and waits for it.
func onMain(fn func()) {
	done := make(chan struct{})
	dispatchToMain(func() {
		defer close(done)
		fn()
	})
	<-done
}

// ---------------------------------------------------------------------------
// Navigation waiters, keyed by the token handed to the navigation delegate.
// ---------------------------------------------------------------------------

var (
	navMu   sync.Mutex
	navMap  = make(map[uintptr]chan error)
	navNext uintptr
)

func storeNavigation() (uintptr, chan error) {
	navMu.Lock()
	defer navMu.Unlock()
	navNext++
	ch := make(chan error, 1)
	navMap[navNext] = ch
	return navNext, ch
}

func takeNavigation(id uintptr) chan error {
	navMu.Lock()
	defer navMu.Unlock()
	ch := navMap[id]
	delete(navMap, id)
	return ch
}

// ---------------------------------------------------------------------------
// DarwinPlatform runs a headless NSApplication on the main thread, which is
// where WebKit expects PDF generation to be started.
// ---------------------------------------------------------------------------

type DarwinPlatform struct{}

func NewPlatform() Platform {
	C.cocoa_init_app()
	return &DarwinPlatform{}
}

func (p *DarwinPlatform) Run()                     { C.cocoa_run_app() }
func (p *DarwinPlatform) Quit()                    { C.cocoa_quit_app() }
func (p *DarwinPlatform) DispatchToMain(fn func()) { dispatchToMain(fn) }

func (p *DarwinPlatform) OnOpenFiles(fn func(paths []string)) {
	openFilesMu.Lock()
	openFilesHandler = fn
	openFilesMu.Unlock()
}

// NewSurface creates an offscreen WKWebView. Must not be called on the main
// thread.
func (p *DarwinPlatform) NewSurface() (pdfexport.Surface, func(), error) {
	var ptr unsafe.Pointer
	onMain(func() { ptr = C.cocoa_new_webview(surfaceWidth, surfaceHeight) })
	if ptr == nil {
		return nil, nil, errors.New("failed to create web view")
	}
	release := func() {
		onMain(func() { C.cocoa_release_webview(ptr) })
	}
	return pdfexport.WebView{Ptr: ptr}, release, nil
}

// Navigate loads url into s and waits for the navigation to finish.
func (p *DarwinPlatform) Navigate(s pdfexport.Surface, url string) error {
	wv, ok := s.(pdfexport.WebView)
	if !ok || wv.Ptr == nil {
		return fmt.Errorf("cannot load into %v", s)
	}

	id, done := storeNavigation()
	curl := C.CString(url)
	defer C.free(unsafe.Pointer(curl))

	var rc C.int
	onMain(func() { rc = C.cocoa_webview_load(wv.Ptr, curl, C.uintptr_t(id)) })
	if rc != 0 {
		takeNavigation(id)
		return fmt.Errorf("invalid url %q", url)
	}

	select {
	case err := <-done:
		return err
	case <-time.After(navigateTimeout):
		takeNavigation(id)
		return fmt.Errorf("loading %s timed out after %s", url, navigateTimeout)
	}
}

// ---------------------------------------------------------------------------
// Exported callbacks invoked from Objective-C
// ---------------------------------------------------------------------------

var (
	openFilesMu      sync.Mutex
	openFilesHandler func(paths []string)
)

//export goDispatchCallback
func goDispatchCallback(ctx unsafe.Pointer) {
	id := uintptr(ctx)
	fn := loadCallback(id)
	if fn != nil {
		fn()
	}
}

//export goOnNavigationDone
func goOnNavigationDone(token C.uintptr_t, errDesc *C.char) {
	ch := takeNavigation(uintptr(token))
	if ch == nil {
		return
	}
	if errDesc != nil {
		ch <- errors.New(C.GoString(errDesc))
		return
	}
	ch <- nil
}

//export goOnOpenURLs
func goOnOpenURLs(paths **C.char, n C.int) {
	openFilesMu.Lock()
	fn := openFilesHandler
	openFilesMu.Unlock()
	if fn == nil || n <= 0 {
		return
	}

	out := make([]string, 0, int(n))
	for _, p := range unsafe.Slice(paths, int(n)) {
		out = append(out, C.GoString(p))
	}
	// The delegate runs on the main thread; keep it free.
	go fn(out)
}
