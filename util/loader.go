package util

import (
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/pkg/errors"
)

// JPEGFile represents a JPEG file read from disk.
type JPEGFile struct {
	// Path is the path to the file.
	Path string
	// Data is the raw bytes of the file.
	Data []byte
	// Frame is the number parsed from a "frame-<n>" file name, or -1.
	Frame int
}

// LoadDirectoryJPEGFiles reads all .jpg and .jpeg files from a directory.
//
// Files named "frame-<n>.jpg" (as written by the capture tool) are ordered
// by n and come first; the rest follow in name order.
//
// Arguments:
// - dir: Directory path containing JPEG files.
//
// Returns:
// - []JPEGFile: Slice of JPEGFile, each containing the raw bytes of a file.
// - error: Error if the directory or a file cannot be read.
func LoadDirectoryJPEGFiles(dir string) ([]JPEGFile, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, errors.Wrapf(err, "read directory %s", dir)
	}

	var files []JPEGFile
	for _, entry := range entries {
		if entry.IsDir() || !IsJPEGName(entry.Name()) {
			continue
		}

		path := filepath.Join(dir, entry.Name())
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, errors.Wrapf(err, "read %s", path)
		}

		files = append(files, JPEGFile{
			Path:  path,
			Data:  data,
			Frame: FrameNumber(entry.Name()),
		})
	}

	sort.SliceStable(files, func(i, j int) bool {
		a, b := files[i], files[j]
		switch {
		case a.Frame >= 0 && b.Frame >= 0:
			return a.Frame < b.Frame
		case a.Frame >= 0 || b.Frame >= 0:
			return a.Frame >= 0
		default:
			return a.Path < b.Path
		}
	})

	return files, nil
}

// IsJPEGName reports whether name has a JPEG extension.
func IsJPEGName(name string) bool {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".jpg", ".jpeg":
		return true
	default:
		return false
	}
}

// FrameNumber parses "frame-<n>.<ext>" and returns n, or -1 for any other name.
func FrameNumber(name string) int {
	base := strings.TrimSuffix(filepath.Base(name), filepath.Ext(name))
	digits, ok := strings.CutPrefix(base, "frame-")
	if !ok {
		return -1
	}
	n, err := strconv.Atoi(digits)
	if err != nil || n < 0 {
		return -1
	}
	return n
}

// FrameName formats the file name FrameNumber parses.
func FrameName(n int) string {
	return "frame-" + strconv.Itoa(n) + ".jpg"
}
