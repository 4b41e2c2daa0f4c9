package cache

import (
	"bytes"
	"compress/gzip"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/sirupsen/logrus"
)

// DiskCacher caches payloads as gzip files under a directory, surviving the
// process so repeated experiment runs skip refetching. Keys must be safe as
// file names: alphanumerics plus space, dot, dash and underscore.
type DiskCacher struct {
	dir string
}

// NewDiskCacher creates a DiskCacher rooted at dir, creating it on first use.
func NewDiskCacher(dir string) *DiskCacher {
	return &DiskCacher{dir: dir}
}

// Dir returns the cache directory.
func (d *DiskCacher) Dir() string { return d.dir }

func (d *DiskCacher) Contains(key string) bool {
	path, err := d.path(key)
	if err != nil {
		return false
	}
	_, statErr := os.Stat(path)
	return statErr == nil
}

func (d *DiskCacher) Get(key string) ([]byte, bool) {
	path, err := d.path(key)
	if err != nil {
		return nil, false
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, false
	}
	defer f.Close()

	zr, err := gzip.NewReader(f)
	if err != nil {
		// A corrupted entry is worse than a missing one; drop it.
		logrus.Warnf("removing corrupted cache entry %q: %v", key, err)
		d.Remove(key)
		return nil, false
	}
	defer zr.Close()

	payload, err := io.ReadAll(zr)
	if err != nil {
		logrus.Warnf("removing corrupted cache entry %q: %v", key, err)
		d.Remove(key)
		return nil, false
	}
	return payload, true
}

func (d *DiskCacher) Put(key string, value []byte) {
	path, err := d.path(key)
	if err != nil {
		logrus.Warnf("not caching %q: %v", key, err)
		return
	}
	if d.Contains(key) {
		return
	}
	if err := os.MkdirAll(d.dir, 0o755); err != nil {
		logrus.Warnf("not caching %q: %v", key, err)
		return
	}

	var buf bytes.Buffer
	zw, _ := gzip.NewWriterLevel(&buf, 6)
	if _, err := zw.Write(value); err == nil {
		err = zw.Close()
		if err == nil {
			err = os.WriteFile(path, buf.Bytes(), 0o644)
		}
	}
	if err != nil {
		logrus.Warnf("not caching %q: %v", key, err)
		os.Remove(path)
	}
}

func (d *DiskCacher) Remove(key string) {
	if path, err := d.path(key); err == nil {
		os.Remove(path)
	}
}

func (d *DiskCacher) GetPut(key string, fetch func() ([]byte, error)) ([]byte, error) {
	if v, ok := d.Get(key); ok {
		return v, nil
	}
	v, err := fetch()
	if err != nil {
		return nil, err
	}
	d.Put(key, v)
	return v, nil
}

func (d *DiskCacher) path(key string) (string, error) {
	for _, c := range key {
		ok := c == ' ' || c == '.' || c == '_' || c == '-' ||
			(c >= '0' && c <= '9') || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
		if !ok {
			return "", fmt.Errorf("cache key %q cannot be made into a file name", key)
		}
	}
	return filepath.Join(d.dir, key+".gz"), nil
}
