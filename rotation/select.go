package rotation

import (
	"errors"
	"log"
	"math/rand"
	"time"

	"folklorovich/catalog"
	"folklorovich/types"
)

// ErrEmptyCatalog means there is nothing to select from. Fatal to the run.
var ErrEmptyCatalog = errors.New("catalog has no entries")

// SelectNext picks the next content item, guaranteeing no repeats within a
// cycle. When every catalog id has been used, the used set resets and the
// cycle number increments before picking. Selection from the remaining
// candidates is uniformly random, so ordering is not predictable run to run.
//
// The state is mutated in memory only; the caller persists it once the run's
// terminal outcome is known.
func SelectNext(cat *catalog.Catalog, state *types.RotationState) (types.ContentItem, error) {
	if cat.Len() == 0 {
		return types.ContentItem{}, ErrEmptyCatalog
	}

	// Drop ids that no longer exist in the catalog so the subset invariant
	// holds even after catalog edits between runs.
	kept := state.UsedIDsThisCycle[:0]
	for _, id := range state.UsedIDsThisCycle {
		if _, ok := cat.Lookup(id); ok {
			kept = append(kept, id)
		}
	}
	state.UsedIDsThisCycle = kept

	if len(state.UsedIDsThisCycle) >= cat.Len() {
		state.CycleNumber++
		state.UsedIDsThisCycle = nil
		log.Printf("🔄 [select] cycle complete — starting cycle #%d", state.CycleNumber)
	}

	var candidates []string
	for _, id := range cat.IDs() {
		if !state.Used(id) {
			candidates = append(candidates, id)
		}
	}

	id := candidates[rand.Intn(len(candidates))]
	item, _ := cat.Lookup(id)

	state.MarkUsed(id)
	state.LastSelectedID = id
	state.LastRunAt = time.Now().UTC().Format(time.RFC3339)

	log.Printf("📖 [select] picked %q (id %s, cycle %d, %d/%d used)",
		item.Name, id, state.CycleNumber, len(state.UsedIDsThisCycle), cat.Len())
	return item, nil
}
