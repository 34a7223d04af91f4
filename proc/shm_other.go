//go:build !linux && !freebsd

package proc

import (
	"errors"

	"github.com/AarC10/GSW-Sync/lib/ipc"
)

// ErrShmUnsupported is returned where no process-shared futex exists.
var ErrShmUnsupported = errors.New("shared memory ring is not supported on this platform")

func WriteScenarioConfigToShm(shmDir string, data []byte) (cleanup func(), err error) {
	return nil, ErrShmUnsupported
}

func ReadScenarioConfigFromShm(shmDir string) (*Configuration, error) {
	return nil, ErrShmUnsupported
}

func NewSampleWriter(shmDir string) (ipc.Writer, error) {
	return nil, ErrShmUnsupported
}

func NewSampleReader(shmDir string) (ipc.Reader, error) {
	return nil, ErrShmUnsupported
}
