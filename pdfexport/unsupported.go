//go:build !chromium && !(darwin && cgo)

package pdfexport

// Backend names the native backend compiled into this build.
const Backend = "none"

// NewNative always fails in builds without a native backend; hosts pass a nil
// Native to New, which answers every export with ErrUnsupported.
func NewNative(NativeOptions) (Native, error) {
	return nil, ErrUnsupported
}
