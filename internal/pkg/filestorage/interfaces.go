package filestorage

import (
	"io"
	"os"
)

// FileInfo represents information about a stored file
type FileInfo struct {
	Path     string // Path relative to the storage root
	Filename string // Original filename
	FileSize int64  // Size in bytes
}

// FileStorage defines the interface for file storage operations
type FileStorage interface {
	// Save copies r into subPath under a generated name keeping the
	// extension of filename.
	Save(r io.Reader, filename, subPath string) (*FileInfo, error)

	// Open opens a stored file for reading
	Open(path string) (*os.File, error)

	// DeleteFile removes a file from storage
	DeleteFile(path string) error
}
