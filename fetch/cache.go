package fetch

import (
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"

	"folklorovich/types"
)

// Cache keeps the last successfully fetched image set per catalog item, so a
// later run for the same item can survive a fetch outage.
type Cache struct {
	dir string
}

// NewCache returns a cache rooted at dir
func NewCache(dir string) *Cache {
	return &Cache{dir: dir}
}

// Store copies assets into the item's cache slot, replacing whatever was
// there. Best effort: a partial copy only means a smaller cache hit later.
func (c *Cache) Store(itemID string, assets []types.MediaAsset) error {
	slot := filepath.Join(c.dir, itemID)
	if err := os.RemoveAll(slot); err != nil {
		return err
	}
	if err := os.MkdirAll(slot, 0755); err != nil {
		return err
	}
	for _, asset := range assets {
		dst := filepath.Join(slot, filepath.Base(asset.Path))
		if err := copyFile(asset.Path, dst); err != nil {
			log.Printf("[fetch] ⚠️  cache copy failed for %s: %v", asset.Path, err)
		}
	}
	return nil
}

// Lookup returns the cached image set for itemID if it holds at least
// minCount usable files.
func (c *Cache) Lookup(itemID string, minCount int) ([]types.MediaAsset, bool) {
	slot := filepath.Join(c.dir, itemID)
	entries, err := os.ReadDir(slot)
	if err != nil {
		return nil, false
	}

	var assets []types.MediaAsset
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		info, err := entry.Info()
		if err != nil || info.Size() < minImageBytes {
			continue
		}
		assets = append(assets, types.MediaAsset{
			Path:      filepath.Join(slot, entry.Name()),
			SizeBytes: info.Size(),
		})
	}
	if len(assets) < minCount {
		return nil, false
	}
	return assets, true
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.OpenFile(dst, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0644)
	if err != nil {
		return err
	}
	defer out.Close()

	if _, err := io.Copy(out, in); err != nil {
		return fmt.Errorf("copy %s: %w", src, err)
	}
	return out.Close()
}
