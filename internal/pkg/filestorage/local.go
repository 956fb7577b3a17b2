package filestorage

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"github.com/yigit/aiinfocenter/internal/pkg/logger"
)

// ErrInvalidPath is returned for paths that escape the storage root
var ErrInvalidPath = errors.New("invalid file path")

// LocalStorage handles saving files to the local filesystem.
type LocalStorage struct {
	basePath string // The root directory where files will be stored
}

// NewLocalStorage creates a new LocalStorage rooted at basePath, creating it if needed.
func NewLocalStorage(basePath string) (*LocalStorage, error) {
	if err := os.MkdirAll(basePath, 0o755); err != nil {
		logger.Error().Err(err).Str("path", basePath).Msg("Failed to create storage directory")
		return nil, fmt.Errorf("failed to create storage directory %s: %w", basePath, err)
	}
	logger.Info().Str("path", basePath).Msg("Local storage directory ensured")

	return &LocalStorage{basePath: basePath}, nil
}

// Save writes r to subPath under a unique name
func (ls *LocalStorage) Save(r io.Reader, filename, subPath string) (*FileInfo, error) {
	dir, err := ls.resolve(subPath)
	if err != nil {
		return nil, err
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		logger.Error().Err(err).Str("path", dir).Msg("Failed to create subdirectory")
		return nil, fmt.Errorf("failed to create subdirectory: %w", err)
	}

	uniqueFilename := uuid.New().String() + strings.ToLower(filepath.Ext(filename))
	relPath := filepath.ToSlash(filepath.Join(subPath, uniqueFilename))
	dstPath := filepath.Join(dir, uniqueFilename)

	dst, err := os.Create(dstPath)
	if err != nil {
		logger.Error().Err(err).Str("path", dstPath).Msg("Failed to create destination file")
		return nil, fmt.Errorf("failed to create destination file: %w", err)
	}

	size, err := io.Copy(dst, r)
	closeErr := dst.Close()
	if err == nil {
		err = closeErr
	}
	if err != nil {
		logger.Error().Err(err).Str("path", dstPath).Msg("Failed to copy uploaded file content")
		_ = os.Remove(dstPath)
		return nil, fmt.Errorf("failed to save file content: %w", err)
	}

	logger.Info().Str("filename", filename).Str("saved_as", relPath).Int64("size", size).Msg("File saved successfully")
	return &FileInfo{Path: relPath, Filename: filename, FileSize: size}, nil
}

// Open opens a stored file
func (ls *LocalStorage) Open(path string) (*os.File, error) {
	full, err := ls.resolve(path)
	if err != nil {
		return nil, err
	}
	return os.Open(full)
}

// DeleteFile removes a stored file. A missing file is not an error.
func (ls *LocalStorage) DeleteFile(path string) error {
	if path == "" {
		return nil
	}
	full, err := ls.resolve(path)
	if err != nil {
		return err
	}

	if err := os.Remove(full); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			logger.Warn().Str("path", full).Msg("File to delete does not exist")
			return nil
		}
		logger.Error().Err(err).Str("path", full).Msg("Failed to delete file")
		return fmt.Errorf("failed to delete file: %w", err)
	}

	logger.Info().Str("path", full).Msg("File deleted successfully")
	return nil
}

// resolve joins rel onto the storage root, rejecting anything outside it
func (ls *LocalStorage) resolve(rel string) (string, error) {
	cleaned := filepath.Clean(filepath.FromSlash(rel))
	if filepath.IsAbs(cleaned) || cleaned == ".." || strings.HasPrefix(cleaned, ".."+string(filepath.Separator)) {
		return "", fmt.Errorf("%w: %s", ErrInvalidPath, rel)
	}
	return filepath.Join(ls.basePath, cleaned), nil
}
