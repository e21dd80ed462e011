package manifest

import (
	"fmt"
	"os"
	"syscall"
)

type lockMode int

const (
	lockShared lockMode = iota
	lockExclusive
)

// fileLock is a blocking flock on a sidecar file next to the
// manifest. Shared for reads, exclusive for writes, so concurrent CI
// jobs on the same checkout serialize instead of corrupting the file.
type fileLock struct {
	file *os.File
}

func acquireLock(path string, mode lockMode) (*fileLock, error) {
	file, err := os.OpenFile(path, os.O_CREATE|os.O_RDWR, 0o644)
	if err != nil {
		return nil, fmt.Errorf("failed to open lock file: %w", err)
	}

	how := syscall.LOCK_SH
	if mode == lockExclusive {
		how = syscall.LOCK_EX
	}
	if err := syscall.Flock(int(file.Fd()), how); err != nil {
		file.Close()
		return nil, fmt.Errorf("failed to acquire lock: %w", err)
	}
	return &fileLock{file: file}, nil
}

func (l *fileLock) release() {
	if l.file == nil {
		return
	}
	_ = syscall.Flock(int(l.file.Fd()), syscall.LOCK_UN)
	_ = l.file.Close()
	l.file = nil
}
