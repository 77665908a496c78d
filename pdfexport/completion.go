package pdfexport

import (
	"errors"
	"sync"
)

// Outcome is the result of one native export: a payload on success, a
// classified *Error otherwise.
type Outcome struct {
	Data []byte
	Err  error
}

// Deliverer is the send half of a pending export. It is safe to call from any
// goroutine or native thread; only the first Deliver or Release takes effect.
type Deliverer struct {
	mu sync.Mutex
	ch chan Outcome // nil once fired
}

// Awaiter is the receive half of a pending export.
type Awaiter struct {
	ch <-chan Outcome
}

// Arm creates a single-use delivery slot and returns its two halves. The
// Deliverer is meant to be captured by the native completion callback, the
// Awaiter is held by the caller.
func Arm() (*Deliverer, *Awaiter) {
	ch := make(chan Outcome, 1)
	return &Deliverer{ch: ch}, &Awaiter{ch: ch}
}

// Deliver hands o to the awaiter. It reports whether this call was the one
// that fired the slot; later calls are dropped.
func (d *Deliverer) Deliver(o Outcome) bool {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.ch == nil {
		return false
	}
	d.ch <- o
	close(d.ch)
	d.ch = nil
	return true
}

// Release drops the deliverer. If nothing was delivered the awaiter resolves
// to ErrChannelClosed.
func (d *Deliverer) Release() {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.ch == nil {
		return
	}
	close(d.ch)
	d.ch = nil
}

// Fired reports whether Deliver or Release has already run.
func (d *Deliverer) Fired() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.ch == nil
}

// Await parks the calling goroutine until the slot fires. There is no
// timeout: a native subsystem that never calls back and never releases the
// deliverer blocks this call forever.
func (a *Awaiter) Await() Outcome {
	o, ok := <-a.ch
	if !ok {
		return Outcome{Err: ErrChannelClosed}
	}
	return o
}

// Classify turns the raw arguments of a native completion callback into an
// Outcome: a native error wins, then a missing payload, then success.
func Classify(data []byte, nativeErr error) Outcome {
	switch {
	case nativeErr != nil:
		return Outcome{Err: callbackFailed(nativeErr)}
	case len(data) == 0:
		return Outcome{Err: ErrEmptyPayload}
	default:
		return Outcome{Data: data}
	}
}

// NativeError carries the localized description reported by a native
// subsystem. Backends use it so the description is preserved verbatim.
type NativeError struct {
	Description string
}

func (e *NativeError) Error() string { return e.Description }

func newNativeError(desc string) error {
	if desc == "" {
		return errors.New("unknown native error")
	}
	return &NativeError{Description: desc}
}
