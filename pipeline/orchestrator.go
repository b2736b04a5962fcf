package pipeline

import (
	"context"
	"fmt"
	"log"
	"math/rand"
	"sync"
	"time"

	"github.com/google/uuid"

	"folklorovich/catalog"
	"folklorovich/config"
	"folklorovich/fetch"
	"folklorovich/ledger"
	"folklorovich/quota"
	"folklorovich/rotation"
	"folklorovich/types"
)

// Adapters are the four stage capabilities the orchestrator drives. Each is
// a black box behind a narrow contract; tests swap in fakes.
type Adapters struct {
	Fetcher     fetch.Fetcher
	Synthesizer SynthesizerFunc
	Composer    ComposerFunc
	Renderer    RendererFunc
}

// The adapter funcs mirror the interfaces in voice, collage, and render.
// Funcs rather than interfaces here keeps test fakes to one line.
type (
	SynthesizerFunc func(ctx context.Context, text, voiceProfile string, targetSec float64) (types.AudioAsset, error)
	ComposerFunc    func(ctx context.Context, assets []types.MediaAsset, layoutHint string) (types.VisualAsset, error)
	RendererFunc    func(ctx context.Context, visual types.VisualAsset, audio types.AudioAsset) (types.VideoAsset, error)
)

// Orchestrator drives one generation run end-to-end:
//
//	Selecting → Fetching → (Composing ∥ Synthesizing) → Rendering → Finalizing
//
// Rotation state is mutated in memory during the run and persisted exactly
// once, after the terminal outcome is known. A failed stage still consumes
// the item's rotation slot for this cycle; the unmark recovery primitive
// clears it manually.
type Orchestrator struct {
	cfg      *config.Config
	cat      *catalog.Catalog
	store    rotation.Store
	counter  *quota.Counter
	ledger   *ledger.Ledger
	cache    *fetch.Cache
	adapters Adapters
	now      func() time.Time
}

// New wires an orchestrator. cache may be nil to disable the cached-media
// fallback.
func New(cfg *config.Config, cat *catalog.Catalog, store rotation.Store, counter *quota.Counter, led *ledger.Ledger, cache *fetch.Cache, adapters Adapters) *Orchestrator {
	return &Orchestrator{
		cfg:      cfg,
		cat:      cat,
		store:    store,
		counter:  counter,
		ledger:   led,
		cache:    cache,
		adapters: adapters,
		now:      time.Now,
	}
}

// RunOnce executes one full generation run. The returned record always
// carries the terminal status; the error is non-nil for aborted and failed
// runs and classifies via Kind.
func (o *Orchestrator) RunOnce(ctx context.Context) (*types.RunRecord, error) {
	started := o.now()
	rec := &types.RunRecord{
		RunID:     uuid.NewString()[:8],
		StartedAt: started.UTC().Format(time.RFC3339),
	}
	log.Printf("🎬 [pipeline] run %s starting", rec.RunID)

	state, err := o.store.Load()
	if err != nil {
		return nil, fmt.Errorf("load rotation state: %w", err)
	}

	o.counter.WarnIfApproaching(o.cfg.Fetch.Service, o.cfg.Quota.WarnThreshold, o.cfg.Quota.DailyLimit)

	// Selecting. Failure here is fatal: nothing has been mutated, nothing
	// can be retried, and rotation state is left untouched.
	item, err := timed(o, rec, types.StageSelect, func() (types.ContentItem, error) {
		return rotation.SelectNext(o.cat, state)
	})
	if err != nil {
		rec.Status = types.StatusAborted
		rec.FailedStage = types.StageSelect
		rec.ErrorKind = Kind(err)
		rec.Error = err.Error()
		rec.CompletedAt = o.now().UTC().Format(time.RFC3339)
		o.appendLedger(rec)
		log.Printf("❌ [pipeline] run %s aborted: %v", rec.RunID, err)
		return rec, err
	}
	rec.ItemID = item.ID
	rec.ItemName = item.Name
	rec.CycleNumber = state.CycleNumber

	video, failedStage, runErr := o.generate(ctx, rec, item)
	if runErr == nil {
		rec.Status = types.StatusSucceeded
		rec.VideoPath = video.Path
		rec.VideoSec = video.DurationSec
		rec.VideoBytes = video.SizeBytes
	} else {
		rec.Status = types.StatusFailed
		rec.FailedStage = failedStage
		rec.ErrorKind = Kind(runErr)
		rec.Error = runErr.Error()
	}

	o.finalize(state, rec, item, started)

	if runErr != nil {
		log.Printf("❌ [pipeline] run %s failed at %s (%s): %v", rec.RunID, failedStage, rec.ErrorKind, runErr)
		return rec, runErr
	}
	log.Printf("✅ [pipeline] run %s complete: %s", rec.RunID, video.Path)
	return rec, nil
}

// generate runs the media stages in dependency order and reports which stage
// failed. Rotation state is not touched here.
func (o *Orchestrator) generate(ctx context.Context, rec *types.RunRecord, item types.ContentItem) (types.VideoAsset, string, error) {
	// Fetching
	media, err := timed(o, rec, types.StageFetch, func() ([]types.MediaAsset, error) {
		return o.fetchMedia(ctx, item)
	})
	if err != nil {
		return types.VideoAsset{}, types.StageFetch, err
	}
	rec.MediaCount = len(media)

	// Composing and Synthesizing have no data dependency on each other;
	// fork, then join before Rendering.
	layout := o.cfg.Collage.Layouts[rand.Intn(len(o.cfg.Collage.Layouts))]

	var (
		wg         sync.WaitGroup
		visual     types.VisualAsset
		audio      types.AudioAsset
		composeErr error
		synthErr   error
		composeSec float64
		synthSec   float64
	)
	wg.Add(2)
	go func() {
		defer wg.Done()
		t := o.now()
		visual, composeErr = o.adapters.Composer(ctx, media, layout)
		composeSec = o.now().Sub(t).Seconds()
	}()
	go func() {
		defer wg.Done()
		t := o.now()
		audio, synthErr = o.adapters.Synthesizer(ctx, item.Narration, item.VoiceProfile, item.TargetSec)
		synthSec = o.now().Sub(t).Seconds()
	}()
	wg.Wait()

	rec.StageTimings = append(rec.StageTimings,
		types.StageTiming{Stage: types.StageCompose, DurationSec: composeSec},
		types.StageTiming{Stage: types.StageSynthesize, DurationSec: synthSec},
	)
	if composeErr != nil {
		return types.VideoAsset{}, types.StageCompose, composeErr
	}
	if synthErr != nil {
		return types.VideoAsset{}, types.StageSynthesize, synthErr
	}
	rec.AudioSec = audio.DurationSec

	// Rendering
	video, err := timed(o, rec, types.StageRender, func() (types.VideoAsset, error) {
		return o.adapters.Renderer(ctx, visual, audio)
	})
	if err != nil {
		return types.VideoAsset{}, types.StageRender, err
	}
	return video, "", nil
}

// fetchMedia tries the item's keyword groups in order, pre-checks quota, and
// falls back to the item's cached image set when every group fails.
func (o *Orchestrator) fetchMedia(ctx context.Context, item types.ContentItem) ([]types.MediaAsset, error) {
	groups := item.KeywordGroups
	if len(groups) == 1 {
		groups = append(groups, fetch.FallbackKeywords(item.Category))
	}

	// Pre-check: one search request per group we might issue. Failing fast
	// here spends zero quota.
	var fetchErr error
	if o.counter.WouldExceed(o.cfg.Fetch.Service, len(groups), o.cfg.Quota.DailyLimit) {
		fetchErr = fmt.Errorf("%w: %d requests used today, limit %d",
			fetch.ErrQuotaExceeded, o.counter.TodayCount(o.cfg.Fetch.Service), o.cfg.Quota.DailyLimit)
	} else {
		for i, group := range groups {
			if i > 0 {
				log.Printf("[pipeline] primary keywords insufficient — trying fallback group %d", i)
			}
			media, err := o.adapters.Fetcher.Fetch(ctx, group, o.cfg.Fetch.MinCount)
			if err == nil {
				if o.cache != nil {
					if cerr := o.cache.Store(item.ID, media); cerr != nil {
						log.Printf("[pipeline] ⚠️  could not cache media: %v", cerr)
					}
				}
				return media, nil
			}
			fetchErr = err
			// A rate-limited service stays rate limited; do not burn the
			// remaining groups on it.
			if Kind(err) == KindQuotaExceeded {
				break
			}
		}
	}

	if o.cache != nil {
		if cached, ok := o.cache.Lookup(item.ID, o.cfg.Fetch.MinCount); ok {
			log.Printf("[pipeline] ⚠️  fetch failed (%v) — reusing %d cached images for %s", fetchErr, len(cached), item.ID)
			return cached, nil
		}
	}
	return nil, fetchErr
}

// finalize folds the run outcome into rotation state and persists it —
// the single state write of the run — then appends the ledger entry.
// A failed run keeps the item marked used and records only failure counters.
func (o *Orchestrator) finalize(state *types.RotationState, rec *types.RunRecord, item types.ContentItem, started time.Time) {
	now := o.now()
	rec.CompletedAt = now.UTC().Format(time.RFC3339)
	runSec := now.Sub(started).Seconds()

	c := &state.Counters
	c.TotalRuns++
	if rec.Status == types.StatusSucceeded {
		c.SuccessfulRuns++
		c.LastSuccessAt = rec.CompletedAt
		// Rolling average over successful runs only
		c.AverageRunSec = ((c.AverageRunSec * float64(c.SuccessfulRuns-1)) + runSec) / float64(c.SuccessfulRuns)

		if state.ByCategory == nil {
			state.ByCategory = make(map[string]int)
		}
		state.ByCategory[item.Category]++
		if state.ByVoice == nil {
			state.ByVoice = make(map[string]int)
		}
		state.ByVoice[item.VoiceProfile]++
	} else {
		c.FailedRuns++
		c.LastFailureAt = rec.CompletedAt
		c.LastError = rec.Error
	}

	if err := o.store.Save(state); err != nil {
		log.Printf("⚠️  [pipeline] could not persist rotation state: %v", err)
	}
	o.appendLedger(rec)
}

func (o *Orchestrator) appendLedger(rec *types.RunRecord) {
	if o.ledger == nil {
		return
	}
	if err := o.ledger.Append(rec); err != nil {
		log.Printf("⚠️  [pipeline] could not append run ledger: %v", err)
	}
}

// timed runs fn and records its wall time as a stage timing on rec
func timed[T any](o *Orchestrator, rec *types.RunRecord, stage string, fn func() (T, error)) (T, error) {
	start := o.now()
	out, err := fn()
	rec.StageTimings = append(rec.StageTimings, types.StageTiming{
		Stage:       stage,
		DurationSec: o.now().Sub(start).Seconds(),
	})
	return out, err
}
