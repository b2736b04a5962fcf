package catalog

import (
	"encoding/json"
	"fmt"
	"os"

	"folklorovich/types"
)

// Catalog is the static set of folklore entries eligible for selection.
// Loaded once per run, read-only afterwards.
type Catalog struct {
	Items []types.ContentItem
	byID  map[string]int
}

type catalogFile struct {
	Folklore []types.ContentItem `json:"folklore"`
}

// Load reads the catalog document and indexes it by id.
// Duplicate ids and structurally broken entries are load errors; an empty
// catalog loads fine and is rejected at selection time instead.
func Load(path string) (*Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read catalog: %w", err)
	}

	var doc catalogFile
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parse catalog: %w", err)
	}
	return New(doc.Folklore)
}

// New indexes items into a Catalog. Duplicate or missing ids are errors.
func New(items []types.ContentItem) (*Catalog, error) {
	cat := &Catalog{Items: items, byID: make(map[string]int, len(items))}
	for i, item := range cat.Items {
		if item.ID == "" {
			return nil, fmt.Errorf("catalog entry %d has no id", i)
		}
		if _, dup := cat.byID[item.ID]; dup {
			return nil, fmt.Errorf("catalog has duplicate id %q", item.ID)
		}
		cat.byID[item.ID] = i
	}
	return cat, nil
}

// Len returns the number of catalog entries
func (c *Catalog) Len() int {
	return len(c.Items)
}

// IDs returns every catalog id in document order
func (c *Catalog) IDs() []string {
	ids := make([]string, 0, len(c.Items))
	for _, item := range c.Items {
		ids = append(ids, item.ID)
	}
	return ids
}

// Lookup returns the entry for id
func (c *Catalog) Lookup(id string) (types.ContentItem, bool) {
	i, ok := c.byID[id]
	if !ok {
		return types.ContentItem{}, false
	}
	return c.Items[i], true
}

// Validate checks that every entry carries what a run needs. Used by the
// validate command before any state is touched.
func (c *Catalog) Validate() error {
	if c.Len() == 0 {
		return fmt.Errorf("catalog is empty")
	}
	for _, item := range c.Items {
		if len(item.Narration) < 50 {
			return fmt.Errorf("entry %q: narration too short (%d chars, need 50+)", item.ID, len(item.Narration))
		}
		if len(item.KeywordGroups) == 0 || len(item.KeywordGroups[0]) == 0 {
			return fmt.Errorf("entry %q: no search keywords", item.ID)
		}
		if item.VoiceProfile == "" {
			return fmt.Errorf("entry %q: no voice profile", item.ID)
		}
	}
	return nil
}
