package utils

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// EnsureDir creates a directory if it doesn't exist
func EnsureDir(dir string) error {
	if _, err := os.Stat(dir); os.IsNotExist(err) {
		return os.MkdirAll(dir, 0755)
	}
	return nil
}

// GetFileExtension returns the file extension without the dot
func GetFileExtension(filename string) string {
	ext := filepath.Ext(filename)
	if len(ext) > 0 {
		return strings.ToLower(ext[1:])
	}
	return ""
}

// IsImageFile checks if a file has an image extension
func IsImageFile(filename string) bool {
	ext := GetFileExtension(filename)
	imageExts := []string{"jpg", "jpeg", "png", "webp"}

	for _, imgExt := range imageExts {
		if ext == imgExt {
			return true
		}
	}
	return false
}

// SlideImagePath returns the canonical rendered-slide path for an index.
func SlideImagePath(dir string, index int) string {
	return filepath.Join(dir, fmt.Sprintf("slide_%03d.png", index))
}

// SlideAudioPath returns the canonical narration-audio path for an index.
func SlideAudioPath(dir string, index int) string {
	return filepath.Join(dir, fmt.Sprintf("slide_%03d.mp3", index))
}

// SidecarPath returns the per-slide metadata JSON path for an index.
func SidecarPath(dir string, index int) string {
	return filepath.Join(dir, fmt.Sprintf("slide_%03d.markers.json", index))
}

// WordSidecarPath returns the positioned-word JSON path for an index.
func WordSidecarPath(dir string, index int) string {
	return filepath.Join(dir, fmt.Sprintf("slide_%03d.words.json", index))
}

// ListImageFiles lists all image files in a directory, sorted by name so
// slide order follows the zero-padded numbering.
func ListImageFiles(dir string) ([]string, error) {
	var files []string

	err := filepath.Walk(dir, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}

		if !info.IsDir() && IsImageFile(path) {
			files = append(files, path)
		}

		return nil
	})
	sort.Strings(files)

	return files, err
}

// FileExists checks if a file exists and is not a directory
func FileExists(filename string) bool {
	info, err := os.Stat(filename)
	return err == nil && !info.IsDir()
}

// DirExists checks if a directory exists
func DirExists(dirname string) bool {
	info, err := os.Stat(dirname)
	return err == nil && info.IsDir()
}
