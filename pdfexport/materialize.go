package pdfexport

import (
	"github.com/docker/docker/pkg/ioutils"
)

const filePerm = 0o644

// Materialize writes a successful outcome to destination, replacing any
// existing file. The payload goes to a temporary file next to destination and
// is renamed into place, so a failed write never leaves a truncated file.
// A failed outcome is returned as is.
func Materialize(o Outcome, destination string) error {
	if o.Err != nil {
		return o.Err
	}
	if err := ioutils.AtomicWriteFile(destination, o.Data, filePerm); err != nil {
		return persistenceFailed(err)
	}
	return nil
}
