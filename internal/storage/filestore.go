// Package storage performs the on-disk side of presentation uploads:
// streaming accepted uploads into the staging area and copying staged files
// to their canonical location.
//
// Every write goes temp file -> fsync -> atomic rename, and the temp file is
// removed on any error, so a reader never observes a partial file.
package storage

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/google/uuid"
)

// ErrTooLarge is returned by Stage when the body exceeds the limit.
var ErrTooLarge = errors.New("file exceeds size limit")

// FileStore owns the staging directory.
type FileStore struct {
	stagingDir string
}

// StageResult describes a staged upload.
type StageResult struct {
	// Path is the staged file, relative to the working directory when
	// stagingDir is relative.
	Path string
	// Size is the number of bytes written.
	Size int64
}

// New creates the staging directory if needed.
func New(stagingDir string) (*FileStore, error) {
	if err := os.MkdirAll(stagingDir, 0o750); err != nil {
		return nil, fmt.Errorf("create staging dir %s: %w", stagingDir, err)
	}
	return &FileStore{stagingDir: stagingDir}, nil
}

// StagingDir returns the staging directory.
func (fs *FileStore) StagingDir() string {
	return fs.stagingDir
}

// Stage streams r into a new uuid-named file in the staging directory,
// keeping ext.  More than limit bytes yields ErrTooLarge and nothing is
// left behind.
func (fs *FileStore) Stage(r io.Reader, ext string, limit int64) (*StageResult, error) {
	fullPath := filepath.Join(fs.stagingDir, uuid.NewString()+ext)

	// read one byte past the limit to detect oversize bodies
	size, err := writeAtomic(fullPath, io.LimitReader(r, limit+1))
	if err != nil {
		return nil, err
	}
	if size > limit {
		_ = os.Remove(fullPath)
		return nil, ErrTooLarge
	}
	return &StageResult{Path: fullPath, Size: size}, nil
}

// Copy copies src into dstDir/dstName, creating dstDir, and verifies the
// copied size matches the source.  It returns the number of bytes copied.
func Copy(src, dstDir, dstName string) (int64, error) {
	in, err := os.Open(src)
	if err != nil {
		return 0, fmt.Errorf("open source %s: %w", src, err)
	}
	defer in.Close()

	info, err := in.Stat()
	if err != nil {
		return 0, fmt.Errorf("stat source %s: %w", src, err)
	}
	if err := os.MkdirAll(dstDir, 0o750); err != nil {
		return 0, fmt.Errorf("create target dir %s: %w", dstDir, err)
	}

	dst := filepath.Join(dstDir, dstName)
	n, err := writeAtomic(dst, in)
	if err != nil {
		return 0, err
	}
	if n != info.Size() {
		_ = os.Remove(dst)
		return 0, fmt.Errorf("copy %s: wrote %d of %d bytes", src, n, info.Size())
	}
	return n, nil
}

// Remove deletes path.  A file that is already gone is not an error.
func Remove(path string) error {
	if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("remove %s: %w", path, err)
	}
	return nil
}

// Exists reports whether path names an existing regular file.
func Exists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.Mode().IsRegular()
}

// SamePath reports whether a and b refer to the same file, either by
// cleaned absolute path or, when both exist, by identity.
func SamePath(a, b string) bool {
	absA, errA := filepath.Abs(a)
	absB, errB := filepath.Abs(b)
	if errA == nil && errB == nil && absA == absB {
		return true
	}
	ia, errA := os.Stat(a)
	ib, errB := os.Stat(b)
	return errA == nil && errB == nil && os.SameFile(ia, ib)
}

func writeAtomic(fullPath string, r io.Reader) (int64, error) {
	tmpPath := fullPath + ".tmp"

	f, err := os.Create(tmpPath)
	if err != nil {
		return 0, fmt.Errorf("create temp file: %w", err)
	}

	size, err := io.Copy(f, r)
	if err != nil {
		f.Close()
		os.Remove(tmpPath)
		return 0, fmt.Errorf("write data: %w", err)
	}

	if err := f.Sync(); err != nil {
		f.Close()
		os.Remove(tmpPath)
		return 0, fmt.Errorf("fsync: %w", err)
	}

	if err := f.Close(); err != nil {
		os.Remove(tmpPath)
		return 0, fmt.Errorf("close temp file: %w", err)
	}

	if err := os.Rename(tmpPath, fullPath); err != nil {
		os.Remove(tmpPath)
		return 0, fmt.Errorf("rename into place: %w", err)
	}
	return size, nil
}
