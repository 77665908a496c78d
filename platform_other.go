//go:build !darwin || !cgo

package main

import (
	"sync"

	"viewshell/pdfexport"
)

// loopPlatform stands in for a native run loop: functions dispatched to the
// main thread run one at a time on whichever goroutine called Run.
type loopPlatform struct {
	funcs chan func()
	quit  chan struct{}
	once  sync.Once
}

func NewPlatform() Platform {
	return &loopPlatform{
		funcs: make(chan func()),
		quit:  make(chan struct{}),
	}
}

func (p *loopPlatform) Run() {
	for {
		select {
		case fn := <-p.funcs:
			fn()
		case <-p.quit:
			return
		}
	}
}

func (p *loopPlatform) Quit() {
	p.once.Do(func() { close(p.quit) })
}

// DispatchToMain runs fn on the loop, or inline once the loop has stopped.
func (p *loopPlatform) DispatchToMain(fn func()) {
	select {
	case p.funcs <- fn:
	case <-p.quit:
		fn()
	}
}

func (p *loopPlatform) NewSurface() (pdfexport.Surface, func(), error) {
	return nil, nil, errNoSurface
}

func (p *loopPlatform) Navigate(pdfexport.Surface, string) error {
	return errNoSurface
}

// OnOpenFiles is a no-op: only the Cocoa platform receives open requests
// from the OS.
func (p *loopPlatform) OnOpenFiles(func(paths []string)) {}
