package pdfexport

import (
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// ExportRequest asks for the surface Target to be written as a PDF to
// Destination. Target is borrowed and must stay alive until Export returns.
type ExportRequest struct {
	Target      Surface
	Destination string
}

// Exporter dispatches export requests to the native backend compiled into
// the build. An Exporter without a backend answers ErrUnsupported.
type Exporter struct {
	native Native
	main   MainThread
}

// Option configures an Exporter.
type Option func(*Exporter)

// WithMainThread routes native calls through m.
func WithMainThread(m MainThread) Option {
	return func(e *Exporter) { e.main = m }
}

// New creates an Exporter. A nil native closes the capability gate.
func New(native Native, opts ...Option) *Exporter {
	e := &Exporter{native: native}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Supported reports whether exports can reach a native backend.
func (e *Exporter) Supported() bool {
	return e.native != nil
}

// Export issues one native export and writes its payload to req.Destination.
// It blocks until the native subsystem completes and must not be called on
// the main thread it dispatches to.
func (e *Exporter) Export(req ExportRequest) error {
	if e.native == nil {
		return ErrUnsupported
	}

	log := logrus.WithFields(logrus.Fields{
		"export_id":   uuid.NewString(),
		"target":      req.Target,
		"destination": req.Destination,
	})
	start := time.Now()

	deliverer, awaiter := Arm()
	if err := e.register(req.Target, deliverer); err != nil {
		deliverer.Release()
		log.WithError(err).Warn("pdf export: registration failed")
		return registrationFailed(err)
	}
	log.Debug("pdf export: awaiting native completion")

	err := Materialize(awaiter.Await(), req.Destination)
	log = log.WithField("elapsed", time.Since(start))
	if err != nil {
		log.WithField("kind", KindOf(err)).WithError(err).Warn("pdf export: failed")
		return err
	}
	log.Info("pdf export: written")
	return nil
}

// register performs the single native call, on the main thread when one is
// configured. Only the registration result crosses back; the outcome travels
// through the deliverer.
func (e *Exporter) register(target Surface, d *Deliverer) error {
	cfg := DefaultPDFConfig()
	call := func() error {
		return e.native.CreatePDF(target, cfg, NewCompletion(d))
	}
	if e.main == nil {
		return call()
	}

	errc := make(chan error, 1)
	e.main.DispatchToMain(func() { errc <- call() })
	return <-errc
}
