package fs

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
)

// Stdio is the path that maps to stdin for reads and stdout for writes.
const Stdio = "-"

// Local is an api.Storer backed by the local disk.
type Local struct {
	stdin  io.Reader
	stdout io.Writer
}

func NewLocalStorage() *Local {
	return &Local{
		stdin:  os.Stdin,
		stdout: os.Stdout,
	}
}

func (l *Local) OpenRead(path string) (io.ReadCloser, error) {
	if path == Stdio {
		return io.NopCloser(l.stdin), nil
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}

	return f, nil
}

// Size returns the file length, or -1 for stdin.
func (l *Local) Size(path string) (int64, error) {
	if path == Stdio {
		return -1, nil
	}

	stat, err := os.Stat(path)
	if err != nil {
		return 0, err
	}

	if stat.IsDir() {
		return 0, fmt.Errorf("fs: %s is a directory", path)
	}

	return stat.Size(), nil
}

func (l *Local) OpenWrite(path string) (io.WriteCloser, error) {
	if path == Stdio {
		return nopWriteCloser{l.stdout}, nil
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("fs: failed to create directory %s: %w", dir, err)
	}

	f, err := os.Create(path)
	if err != nil {
		return nil, err
	}

	return f, nil
}

type nopWriteCloser struct {
	io.Writer
}

func (nopWriteCloser) Close() error {
	return nil
}
