package bridge

import (
	"errors"

	"viewshell/pdfexport"
)

// ErrNoNavigator is returned by Load when the host cannot load documents.
var ErrNoNavigator = errors.New("this host cannot load documents")

// ExportRouter resolves surface references through a registry and hands the
// pinned surface to an exporter or a navigator.
type ExportRouter struct {
	registry  *pdfexport.Registry
	exporter  *pdfexport.Exporter
	navigator Navigator
}

// NewExportRouter creates a Router backed by registry and exporter. navigator
// may be nil, in which case Load fails with ErrNoNavigator.
func NewExportRouter(registry *pdfexport.Registry, exporter *pdfexport.Exporter, navigator Navigator) *ExportRouter {
	return &ExportRouter{registry: registry, exporter: exporter, navigator: navigator}
}

// ExportPDF implements Router.
func (r *ExportRouter) ExportPDF(target, path string) error {
	if !r.exporter.Supported() {
		return pdfexport.ErrUnsupported
	}

	surface, release, err := r.registry.Resolve(target)
	if err != nil {
		return err
	}
	defer release()

	return r.exporter.Export(pdfexport.ExportRequest{
		Target:      surface,
		Destination: path,
	})
}

// Load implements Router.
func (r *ExportRouter) Load(target, url string) error {
	if r.navigator == nil {
		return ErrNoNavigator
	}

	surface, release, err := r.registry.Resolve(target)
	if err != nil {
		return err
	}
	defer release()

	return r.navigator.Navigate(surface, url)
}
