package main

import (
	"os"
	"path/filepath"

	"github.com/sirupsen/logrus"

	"viewshell/events"
)

// launchEvent classifies the path the host was started with. A missing or
// unreadable path yields no event.
func launchEvent(path string) (events.Event, bool) {
	if path == "" {
		return events.Event{}, false
	}

	abs, err := filepath.Abs(path)
	if err != nil {
		logrus.WithError(err).WithField("path", path).Warn("launch: cannot resolve path")
		return events.Event{}, false
	}
	info, err := os.Stat(abs)
	if err != nil {
		logrus.WithError(err).WithField("path", abs).Warn("launch: ignoring path")
		return events.Event{}, false
	}

	if info.IsDir() {
		return events.Event{Name: events.OpenFolder, Payload: abs}, true
	}
	return events.Event{Name: events.OpenFile, Payload: abs}, true
}

// openFileEvents keeps the regular files among paths the OS asked the app to
// open. Folders and anything that cannot be read are skipped.
func openFileEvents(paths []string) []events.Event {
	var out []events.Event
	for _, p := range paths {
		info, err := os.Stat(p)
		if err != nil {
			logrus.WithError(err).WithField("path", p).Warn("launch: ignoring opened path")
			continue
		}
		if !info.Mode().IsRegular() {
			logrus.WithField("path", p).Debug("launch: ignoring opened path that is not a file")
			continue
		}
		out = append(out, events.Event{Name: events.OpenFile, Payload: p})
	}
	return out
}
