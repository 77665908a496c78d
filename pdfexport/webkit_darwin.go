//go:build darwin && cgo && !chromium

package pdfexport

/*
#cgo CFLAGS: -x objective-c -fobjc-arc
#cgo LDFLAGS: -framework Foundation -framework WebKit
#include <stdlib.h>
#include "webkit_darwin.h"
*/
import "C"
import (
	"errors"
	"fmt"
	"math"
	"sync"
	"unsafe"

	"github.com/sirupsen/logrus"
)

// Backend names the native backend compiled into this build.
const Backend = "webkit"

// ---------------------------------------------------------------------------
// Completion registry: the Objective-C block only carries an integer token.
// ---------------------------------------------------------------------------

var (
	cbMu   sync.Mutex
	cbMap  = make(map[uintptr]*Completion)
	cbNext uintptr
)

func storeCompletion(c *Completion) uintptr {
	cbMu.Lock()
	defer cbMu.Unlock()
	cbNext++
	id := cbNext
	cbMap[id] = c
	return id
}

func lookupCompletion(id uintptr) *Completion {
	cbMu.Lock()
	defer cbMu.Unlock()
	return cbMap[id]
}

func takeCompletion(id uintptr) *Completion {
	cbMu.Lock()
	defer cbMu.Unlock()
	c := cbMap[id]
	delete(cbMap, id)
	return c
}

// ---------------------------------------------------------------------------
// webkit implements Native with WKWebView createPDFWithConfiguration.
// ---------------------------------------------------------------------------

type webkit struct{}

// NewNative returns the WebKit backend. It must be driven from the Cocoa
// main thread, see WithMainThread.
func NewNative(NativeOptions) (Native, error) {
	return webkit{}, nil
}

func (webkit) CreatePDF(target Surface, cfg PDFConfig, done *Completion) error {
	wv, ok := target.(WebView)
	if !ok {
		return errors.New("webkit backend can only export a WKWebView")
	}
	if wv.Ptr == nil {
		return errors.New("webview is nil")
	}

	id := storeCompletion(done)
	switch rc := C.webkit_create_pdf(wv.Ptr, C.uintptr_t(id)); rc {
	case C.WEBKIT_OK:
		return nil
	case C.WEBKIT_ERR_NOT_MAIN_THREAD:
		takeCompletion(id)
		return errors.New("createPDF called off the main thread")
	case C.WEBKIT_ERR_NOT_WEBVIEW:
		takeCompletion(id)
		return errors.New("target is not a WKWebView")
	default:
		takeCompletion(id)
		return errors.New("createPDF unavailable")
	}
}

// ---------------------------------------------------------------------------
// Exported callbacks invoked from Objective-C on a WebKit-chosen thread.
// ---------------------------------------------------------------------------

//export goOnPDFComplete
func goOnPDFComplete(id C.uintptr_t, data unsafe.Pointer, length C.size_t, errDesc *C.char) {
	if errDesc != nil {
		completePDF(uintptr(id), nil, newNativeError(C.GoString(errDesc)))
		return
	}
	if err := checkPayloadLength(uint64(length)); err != nil {
		completePDF(uintptr(id), nil, err)
		return
	}
	var payload []byte
	if data != nil && length > 0 {
		payload = C.GoBytes(data, C.int(length))
	}
	completePDF(uintptr(id), payload, nil)
}

// goOnPDFRelease runs when the completion block is destroyed, whether or not
// it was ever invoked.
//
//export goOnPDFRelease
func goOnPDFRelease(id C.uintptr_t) {
	releasePDF(uintptr(id))
}

// completePDF delivers the callback result for token id. The entry stays
// registered until releasePDF so late duplicates are recognised and dropped.
func completePDF(id uintptr, payload []byte, nativeErr error) {
	c := lookupCompletion(id)
	if c == nil {
		logrus.WithField("token", uint64(id)).Debug("pdf export: completion for released token")
		return
	}
	if !c.Complete(payload, nativeErr) {
		logrus.WithField("token", uint64(id)).Debug("pdf export: dropped duplicate completion")
	}
}

func releasePDF(id uintptr) {
	if c := takeCompletion(id); c != nil {
		c.Release()
	}
}

// checkPayloadLength rejects payloads C.GoBytes cannot copy in one piece.
func checkPayloadLength(n uint64) error {
	if n > math.MaxInt32 {
		return newNativeError(fmt.Sprintf("PDF payload of %d bytes exceeds the 2 GiB limit", n))
	}
	return nil
}
