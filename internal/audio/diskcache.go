package audio

import (
	"crypto/sha256"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// DiskCache keeps downloaded clips on local disk between sessions.
type DiskCache struct {
	cacheDir string
}

// NewDiskCache creates a clip cache at the specified directory.
func NewDiskCache(cacheDir string) (*DiskCache, error) {
	if err := os.MkdirAll(cacheDir, 0755); err != nil {
		return nil, fmt.Errorf("create cache dir: %w", err)
	}
	return &DiskCache{cacheDir: cacheDir}, nil
}

// Get returns the cached data for a clip URL, if present.
func (c *DiskCache) Get(bookID uint, clipURL string) ([]byte, bool) {
	data, err := os.ReadFile(c.Path(bookID, clipURL))
	if err != nil || len(data) == 0 {
		return nil, false
	}
	return data, true
}

// Has reports whether a clip URL is cached.
func (c *DiskCache) Has(bookID uint, clipURL string) bool {
	info, err := os.Stat(c.Path(bookID, clipURL))
	return err == nil && info.Size() > 0
}

// Put stores clip data, replacing any previous copy atomically.
func (c *DiskCache) Put(bookID uint, clipURL string, data []byte) error {
	tmpFile, err := os.CreateTemp(c.cacheDir, "clip_tmp_")
	if err != nil {
		return err
	}
	tmpPath := tmpFile.Name()
	defer func() {
		tmpFile.Close()
		os.Remove(tmpPath) // no-op after a successful rename
	}()

	if _, err := tmpFile.Write(data); err != nil {
		return err
	}
	if err := tmpFile.Close(); err != nil {
		return err
	}

	return os.Rename(tmpPath, c.Path(bookID, clipURL))
}

// Invalidate removes every cached clip of a book.
func (c *DiskCache) Invalidate(bookID uint) error {
	pattern := filepath.Join(c.cacheDir, fmt.Sprintf("clip_%d_*", bookID))
	matches, err := filepath.Glob(pattern)
	if err != nil {
		return err
	}

	for _, match := range matches {
		if err := os.Remove(match); err != nil && !os.IsNotExist(err) {
			return err
		}
	}
	return nil
}

// Path returns the cache file path for a clip URL.
func (c *DiskCache) Path(bookID uint, clipURL string) string {
	hash := sha256.Sum256([]byte(clipURL))
	return filepath.Join(c.cacheDir, fmt.Sprintf("clip_%d_%x%s", bookID, hash[:8], clipExt(clipURL)))
}

// Dir returns the cache directory path.
func (c *DiskCache) Dir() string {
	return c.cacheDir
}

// clipExt keeps a short file extension from the URL path for easier inspection.
func clipExt(clipURL string) string {
	p, _, _ := strings.Cut(clipURL, "?")
	ext := filepath.Ext(p)
	if len(ext) > 6 || strings.ContainsAny(ext, "/\\") {
		return ""
	}
	return ext
}
