package pdfexport

import (
	"fmt"
	"unsafe"
)

// Surface is a borrowed reference to a rendered view that a native backend
// can export. Backends type-assert the concrete kinds they support.
type Surface interface {
	fmt.Stringer
	surface()
}

// WebView references a live WKWebView owned by the host process.
type WebView struct {
	Ptr unsafe.Pointer
}

func (w WebView) String() string { return fmt.Sprintf("webview(%p)", w.Ptr) }
func (WebView) surface()         {}

// DevToolsTarget references a page target of a Chromium instance.
type DevToolsTarget struct {
	ID string
}

func (t DevToolsTarget) String() string { return "devtools:" + t.ID }
func (DevToolsTarget) surface()         {}

// PDFConfig holds the per-call export options. Backends ignore fields they
// cannot honour.
type PDFConfig struct {
	PrintBackground bool
}

// DefaultPDFConfig returns the options every export starts from.
func DefaultPDFConfig() PDFConfig {
	return PDFConfig{PrintBackground: true}
}

// Completion is the deliver side of a pending export as seen by a native
// backend. Complete may be called from any thread, and more than once by a
// misbehaving backend; only the first call counts. Release tells the awaiting
// side that the callback will never run.
type Completion struct {
	d *Deliverer
}

// NewCompletion wraps d for a native backend.
func NewCompletion(d *Deliverer) *Completion {
	return &Completion{d: d}
}

// Complete classifies the raw callback arguments and delivers them.
func (c *Completion) Complete(data []byte, err error) bool {
	return c.d.Deliver(Classify(data, err))
}

// Release drops the completion without a result.
func (c *Completion) Release() {
	c.d.Release()
}

// Native issues the platform export call. CreatePDF must return quickly: a
// non-nil error means nothing was registered and done must not be used;
// otherwise the result arrives later through done.
type Native interface {
	CreatePDF(target Surface, cfg PDFConfig, done *Completion) error
}

// MainThread runs fn on the thread the native subsystem requires for
// UI-bound calls.
type MainThread interface {
	DispatchToMain(fn func())
}

// NativeOptions configures the backend compiled into this build. Backends
// that hold external resources also implement io.Closer.
type NativeOptions struct {
	// ChromeURL is the DevTools websocket URL of a running browser. Empty
	// launches a headless browser. Only the chromium backend reads it.
	ChromeURL string
}
