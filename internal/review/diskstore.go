package review

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/pkallio/photoguard-go/internal/datastore"
)

// DiskImageStore keeps original images on the local filesystem, one file per
// entry keyed by entry id.
type DiskImageStore struct {
	Dir string
}

// NewDiskImageStore creates the storage directory if needed.
func NewDiskImageStore(dir string) (*DiskImageStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating image directory %s: %w", dir, err)
	}
	return &DiskImageStore{Dir: dir}, nil
}

// Save writes the image bytes for an entry.
func (d *DiskImageStore) Save(_ context.Context, entry *datastore.Entry, data []byte) error {
	return os.WriteFile(d.path(entry), data, 0o644)
}

// Load reads the stored image bytes for an entry.
func (d *DiskImageStore) Load(_ context.Context, entry *datastore.Entry) ([]byte, error) {
	return os.ReadFile(d.path(entry))
}

// path derives the storage path from the entry id, keeping the original
// extension for operator convenience. The uploaded filename itself is never
// used as a path component.
func (d *DiskImageStore) path(entry *datastore.Entry) string {
	ext := filepath.Ext(entry.Filename)
	if len(ext) > 8 || ext == "." {
		ext = ""
	}
	return filepath.Join(d.Dir, fmt.Sprintf("%d%s", entry.ID, ext))
}
