package main

import (
	"errors"

	"github.com/sirupsen/logrus"

	"viewshell/events"
	"viewshell/pdfexport"
)

// mainSurface is the registry name of the host-owned web view.
const mainSurface = "main"

// hostSurface creates the platform web view and registers it as
// mainSurface. It needs the platform loop running, so serve calls it from its
// own goroutine. It reports whether a surface was registered.
func hostSurface(platform Platform, registry *pdfexport.Registry) bool {
	surface, release, err := platform.NewSurface()
	if errors.Is(err, errNoSurface) {
		logrus.Debug("surface: platform has no web view, only devtools targets can be exported")
		return false
	}
	if err != nil {
		logrus.WithError(err).Error("surface: failed to create web view")
		return false
	}

	if err := registry.Register(mainSurface, surface); err != nil {
		logrus.WithError(err).Error("surface: failed to register web view")
		release()
		return false
	}
	logrus.WithFields(logrus.Fields{"name": mainSurface, "surface": surface}).Info("surface: registered")
	return true
}

// openFilesHandler turns OS open requests into relay events.
func openFilesHandler(relay *events.Relay) func(paths []string) {
	return func(paths []string) {
		for _, ev := range openFileEvents(paths) {
			logrus.WithField("path", ev.Payload).Info("launch: file opened by the system")
			relay.Emit(ev)
		}
	}
}
