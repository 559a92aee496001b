package api

import (
	"io"
)

// Storer defines the contract for the storage backend a run reads its input
// from and writes its output to.
//
// It abstracts away the details of the underlying file system so the
// pipeline only ever sees a byte stream and its length.
type Storer interface {
	// OpenRead opens the source at path for sequential reading.
	OpenRead(path string) (io.ReadCloser, error)

	// Size reports the length of the source at path in bytes.
	//
	// A negative size means the length is not known up front (a pipe or
	// stdin); the splitter then buffers the whole source before splitting.
	Size(path string) (int64, error)

	// OpenWrite opens path for writing. Callers must close the returned
	// writer to flush data.
	OpenWrite(path string) (io.WriteCloser, error)
}
