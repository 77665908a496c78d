package main

import (
	"errors"

	"viewshell/pdfexport"
)

// errNoSurface is returned by platforms that cannot host a web view.
var errNoSurface = errors.New("this platform cannot host a web view")

// Platform owns the process main thread. Run must be called from main and
// blocks until Quit; the other methods may be called from any goroutine
// except the main one.
type Platform interface {
	Run()
	Quit()
	DispatchToMain(fn func())

	// NewSurface creates the host-owned view exports are taken from.
	// release tears it down.
	NewSurface() (s pdfexport.Surface, release func(), err error)
	// Navigate loads url into a surface from NewSurface and waits for it.
	Navigate(s pdfexport.Surface, url string) error
	// OnOpenFiles sets the handler for files the OS asks the app to open.
	OnOpenFiles(fn func(paths []string))
}
