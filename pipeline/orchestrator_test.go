package pipeline

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"folklorovich/catalog"
	"folklorovich/config"
	"folklorovich/fetch"
	"folklorovich/ledger"
	"folklorovich/quota"
	"folklorovich/render"
	"folklorovich/rotation"
	"folklorovich/types"
)

// fakeFetcher scripts one result per call and records the keyword groups it
// was asked for.
type fakeFetcher struct {
	results []fetchResult
	calls   [][]string
}

type fetchResult struct {
	media []types.MediaAsset
	err   error
}

func (f *fakeFetcher) Fetch(_ context.Context, keywords []string, _ int) ([]types.MediaAsset, error) {
	f.calls = append(f.calls, keywords)
	if len(f.results) == 0 {
		return nil, fetch.ErrNoResults
	}
	res := f.results[0]
	f.results = f.results[1:]
	return res.media, res.err
}

func someMedia(n int) []types.MediaAsset {
	media := make([]types.MediaAsset, n)
	for i := range media {
		media[i] = types.MediaAsset{Path: fmt.Sprintf("img_%d.jpg", i), SizeBytes: 200_000}
	}
	return media
}

func okSynthesizer(_ context.Context, _, profile string, _ float64) (types.AudioAsset, error) {
	return types.AudioAsset{Path: "narration.mp3", DurationSec: 24.5, VoiceProfile: profile}, nil
}

func okComposer(_ context.Context, assets []types.MediaAsset, layout string) (types.VisualAsset, error) {
	return types.VisualAsset{Path: "collage.png", SizeBytes: 400_000, Layout: layout, SourceCount: len(assets)}, nil
}

func okRenderer(_ context.Context, _ types.VisualAsset, audio types.AudioAsset) (types.VideoAsset, error) {
	return types.VideoAsset{Path: "short.mp4", DurationSec: audio.DurationSec + 0.4, SizeBytes: 900_000}, nil
}

func testItems() []types.ContentItem {
	return []types.ContentItem{
		{
			ID: "domovoi", Name: "Domovoi", Category: "household_spirits", VoiceProfile: "warm_grandfather",
			Narration:     "The Domovoi is the guardian spirit of the home, living behind the stove.",
			KeywordGroups: [][]string{{"russian cottage", "old stove"}, {"traditional interior"}},
		},
		{
			ID: "rusalka", Name: "Rusalka", Category: "mythical_creatures", VoiceProfile: "mysterious_elder",
			Narration:     "Rusalki are water spirits who lure the unwary to the riverbank at dusk.",
			KeywordGroups: [][]string{{"river mist", "birch forest"}, {"dark water"}},
		},
		{
			ID: "leshy", Name: "Leshy", Category: "forest_spirits", VoiceProfile: "stern_narrator",
			Narration:     "The Leshy rules the forest and leads travellers astray when disrespected.",
			KeywordGroups: [][]string{{"deep forest", "moss"}, {"ancient trees"}},
		},
	}
}

type fixture struct {
	orch    *Orchestrator
	store   *rotation.MemoryStore
	fetcher *fakeFetcher
	ledger  *ledger.Ledger
}

func newFixture(t *testing.T, items []types.ContentItem, fetcher *fakeFetcher, adapters Adapters) *fixture {
	t.Helper()

	cat, err := catalog.New(items)
	require.NoError(t, err)

	counter, err := quota.Open(filepath.Join(t.TempDir(), "usage.json"))
	require.NoError(t, err)

	store := rotation.NewMemoryStore(nil)
	led := ledger.New(filepath.Join(t.TempDir(), "ledger.jsonl"))

	adapters.Fetcher = fetcher
	if adapters.Synthesizer == nil {
		adapters.Synthesizer = okSynthesizer
	}
	if adapters.Composer == nil {
		adapters.Composer = okComposer
	}
	if adapters.Renderer == nil {
		adapters.Renderer = okRenderer
	}

	return &fixture{
		orch:    New(config.Default(), cat, store, counter, led, nil, adapters),
		store:   store,
		fetcher: fetcher,
		ledger:  led,
	}
}

func TestRunOnceSuccess(t *testing.T) {
	fetcher := &fakeFetcher{results: []fetchResult{{media: someMedia(4)}}}
	fx := newFixture(t, testItems(), fetcher, Adapters{})

	rec, err := fx.orch.RunOnce(context.Background())
	require.NoError(t, err)

	assert.Equal(t, types.StatusSucceeded, rec.Status)
	assert.Contains(t, []string{"domovoi", "rusalka", "leshy"}, rec.ItemID)
	assert.Equal(t, "short.mp4", rec.VideoPath)
	assert.Equal(t, 4, rec.MediaCount)
	assert.InDelta(t, 24.5, rec.AudioSec, 0.01)

	// every stage timed
	stages := make([]string, 0, len(rec.StageTimings))
	for _, st := range rec.StageTimings {
		stages = append(stages, st.Stage)
	}
	assert.ElementsMatch(t, []string{
		types.StageSelect, types.StageFetch, types.StageCompose, types.StageSynthesize, types.StageRender,
	}, stages)

	// exactly one state write, with the outcome folded in
	assert.Equal(t, 1, fx.store.Saves())
	state := fx.store.State()
	assert.True(t, state.Used(rec.ItemID))
	assert.Equal(t, rec.ItemID, state.LastSelectedID)
	assert.Equal(t, 1, state.Counters.TotalRuns)
	assert.Equal(t, 1, state.Counters.SuccessfulRuns)
	assert.Equal(t, 0, state.Counters.FailedRuns)
	assert.NotEmpty(t, state.Counters.LastSuccessAt)
	assert.Equal(t, 1, state.ByCategory[itemByID(t, rec.ItemID).Category])
	assert.Equal(t, 1, state.ByVoice[itemByID(t, rec.ItemID).VoiceProfile])

	records, err := fx.ledger.Tail(0)
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, types.StatusSucceeded, records[0].Status)
	assert.Equal(t, rec.RunID, records[0].RunID)
}

func itemByID(t *testing.T, id string) types.ContentItem {
	t.Helper()
	for _, item := range testItems() {
		if item.ID == id {
			return item
		}
	}
	t.Fatalf("unknown item %s", id)
	return types.ContentItem{}
}

func TestRunOnceEmptyCatalogAborts(t *testing.T) {
	fx := newFixture(t, nil, &fakeFetcher{}, Adapters{})

	rec, err := fx.orch.RunOnce(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, rotation.ErrEmptyCatalog)

	assert.Equal(t, types.StatusAborted, rec.Status)
	assert.Equal(t, types.StageSelect, rec.FailedStage)
	assert.Equal(t, KindEmptyCatalog, rec.ErrorKind)

	// nothing selected, nothing persisted
	assert.Equal(t, 0, fx.store.Saves())
	assert.Empty(t, fx.fetcher.calls)

	records, err := fx.ledger.Tail(0)
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, types.StatusAborted, records[0].Status)
}

func TestRunOnceRenderFailureConsumesSlot(t *testing.T) {
	fetcher := &fakeFetcher{results: []fetchResult{{media: someMedia(3)}}}
	fx := newFixture(t, testItems(), fetcher, Adapters{
		Renderer: func(_ context.Context, _ types.VisualAsset, _ types.AudioAsset) (types.VideoAsset, error) {
			return types.VideoAsset{}, fmt.Errorf("%w: rendered 12.0s vs narration 24.5s", render.ErrRenderValidation)
		},
	})

	rec, err := fx.orch.RunOnce(context.Background())
	require.Error(t, err)

	assert.Equal(t, types.StatusFailed, rec.Status)
	assert.Equal(t, types.StageRender, rec.FailedStage)
	assert.Equal(t, KindRenderValidationError, rec.ErrorKind)

	// the failed item stays consumed for this cycle, and only failure
	// counters move
	state := fx.store.State()
	require.NotNil(t, state)
	assert.True(t, state.Used(rec.ItemID))
	assert.Equal(t, 1, state.Counters.TotalRuns)
	assert.Equal(t, 0, state.Counters.SuccessfulRuns)
	assert.Equal(t, 1, state.Counters.FailedRuns)
	assert.NotEmpty(t, state.Counters.LastFailureAt)
	assert.Contains(t, state.Counters.LastError, "rendered 12.0s")
	assert.Empty(t, state.ByCategory)
	assert.Empty(t, state.ByVoice)
}

func TestFetchFallsBackToSecondKeywordGroup(t *testing.T) {
	fetcher := &fakeFetcher{results: []fetchResult{
		{err: fetch.ErrNoResults},
		{media: someMedia(3)},
	}}
	fx := newFixture(t, testItems(), fetcher, Adapters{})

	rec, err := fx.orch.RunOnce(context.Background())
	require.NoError(t, err)
	assert.Equal(t, types.StatusSucceeded, rec.Status)

	require.Len(t, fetcher.calls, 2)
	item := itemByID(t, rec.ItemID)
	assert.Equal(t, item.KeywordGroups[0], fetcher.calls[0])
	assert.Equal(t, item.KeywordGroups[1], fetcher.calls[1])
}

func TestFetchAppendsCategoryFallbackGroup(t *testing.T) {
	items := []types.ContentItem{{
		ID: "bannik", Name: "Bannik", Category: "household_spirits", VoiceProfile: "warm_grandfather",
		Narration:     "The Bannik haunts the bathhouse and must never be disturbed after midnight.",
		KeywordGroups: [][]string{{"old bathhouse"}},
	}}
	fetcher := &fakeFetcher{results: []fetchResult{
		{err: fetch.ErrNoResults},
		{media: someMedia(3)},
	}}
	fx := newFixture(t, items, fetcher, Adapters{})

	_, err := fx.orch.RunOnce(context.Background())
	require.NoError(t, err)

	// a single-group item gets the category fallback appended
	require.Len(t, fetcher.calls, 2)
	assert.Equal(t, []string{"old bathhouse"}, fetcher.calls[0])
	assert.Equal(t, fetch.FallbackKeywords("household_spirits"), fetcher.calls[1])
}

func TestQuotaFailFastSkipsFetch(t *testing.T) {
	fetcher := &fakeFetcher{results: []fetchResult{{media: someMedia(3)}}}
	fx := newFixture(t, testItems(), fetcher, Adapters{})

	cfg := fx.orch.cfg
	require.NoError(t, fx.orch.counter.Record(cfg.Fetch.Service, cfg.Quota.DailyLimit))

	rec, err := fx.orch.RunOnce(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, fetch.ErrQuotaExceeded)

	assert.Equal(t, types.StatusFailed, rec.Status)
	assert.Equal(t, types.StageFetch, rec.FailedStage)
	assert.Equal(t, KindQuotaExceeded, rec.ErrorKind)

	// fail-fast means zero search requests were issued
	assert.Empty(t, fetcher.calls)
}

func TestQuotaExceededStopsFallbackGroups(t *testing.T) {
	fetcher := &fakeFetcher{results: []fetchResult{
		{err: fetch.ErrQuotaExceeded},
		{media: someMedia(3)},
	}}
	fx := newFixture(t, testItems(), fetcher, Adapters{})

	rec, err := fx.orch.RunOnce(context.Background())
	require.Error(t, err)
	assert.Equal(t, KindQuotaExceeded, rec.ErrorKind)

	// a rate-limited service is not probed again with the fallback group
	assert.Len(t, fetcher.calls, 1)
}

func TestComposeAndSynthesizeBothRun(t *testing.T) {
	fetcher := &fakeFetcher{results: []fetchResult{{media: someMedia(3)}}}

	var composed, synthesized bool
	fx := newFixture(t, testItems(), fetcher, Adapters{
		Composer: func(ctx context.Context, assets []types.MediaAsset, layout string) (types.VisualAsset, error) {
			composed = true
			return okComposer(ctx, assets, layout)
		},
		Synthesizer: func(ctx context.Context, text, profile string, target float64) (types.AudioAsset, error) {
			synthesized = true
			return okSynthesizer(ctx, text, profile, target)
		},
	})

	_, err := fx.orch.RunOnce(context.Background())
	require.NoError(t, err)
	assert.True(t, composed)
	assert.True(t, synthesized)
}

func TestSynthesisFailureStillJoinsCompose(t *testing.T) {
	fetcher := &fakeFetcher{results: []fetchResult{{media: someMedia(3)}}}

	var composed bool
	fx := newFixture(t, testItems(), fetcher, Adapters{
		Composer: func(ctx context.Context, assets []types.MediaAsset, layout string) (types.VisualAsset, error) {
			composed = true
			return okComposer(ctx, assets, layout)
		},
		Synthesizer: func(context.Context, string, string, float64) (types.AudioAsset, error) {
			return types.AudioAsset{}, fmt.Errorf("edge-tts exited 1")
		},
	})

	rec, err := fx.orch.RunOnce(context.Background())
	require.Error(t, err)
	assert.Equal(t, types.StageSynthesize, rec.FailedStage)
	assert.True(t, composed)
}

func TestCachedMediaFallback(t *testing.T) {
	items := testItems()[:1] // deterministic selection
	cat, err := catalog.New(items)
	require.NoError(t, err)

	dir := t.TempDir()
	cache := fetch.NewCache(filepath.Join(dir, "cache"))
	slot := filepath.Join(dir, "cache", "domovoi")
	require.NoError(t, os.MkdirAll(slot, 0755))
	big := make([]byte, 12*1024)
	for i := 0; i < 3; i++ {
		require.NoError(t, os.WriteFile(filepath.Join(slot, fmt.Sprintf("img_%d.jpg", i)), big, 0644))
	}

	counter, err := quota.Open(filepath.Join(dir, "usage.json"))
	require.NoError(t, err)
	store := rotation.NewMemoryStore(nil)

	fetcher := &fakeFetcher{} // every search fails with ErrNoResults
	orch := New(config.Default(), cat, store, counter, ledger.New(filepath.Join(dir, "ledger.jsonl")), cache, Adapters{
		Fetcher:     fetcher,
		Synthesizer: okSynthesizer,
		Composer:    okComposer,
		Renderer:    okRenderer,
	})

	rec, err := orch.RunOnce(context.Background())
	require.NoError(t, err)
	assert.Equal(t, types.StatusSucceeded, rec.Status)
	assert.Equal(t, 3, rec.MediaCount)
	assert.NotEmpty(t, fetcher.calls, "cache is a fallback, not a bypass")
}

func TestNoRepeatAcrossSequentialRuns(t *testing.T) {
	items := testItems()
	fetcher := &fakeFetcher{}
	fx := newFixture(t, items, fetcher, Adapters{})

	seen := make(map[string]bool)
	for i := 0; i < len(items); i++ {
		fetcher.results = []fetchResult{{media: someMedia(3)}}
		rec, err := fx.orch.RunOnce(context.Background())
		require.NoError(t, err)
		assert.False(t, seen[rec.ItemID], "item %s repeated within cycle", rec.ItemID)
		seen[rec.ItemID] = true
	}

	state := fx.store.State()
	assert.Equal(t, len(items), state.Counters.SuccessfulRuns)
}
