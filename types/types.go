package types

// ContentItem is one folklore entry in the catalog. The catalog is loaded
// once per run and never mutated.
type ContentItem struct {
	ID            string     `json:"id"`
	Name          string     `json:"name"`
	NameRussian   string     `json:"name_russian,omitempty"`
	Narration     string     `json:"narration"`
	KeywordGroups [][]string `json:"keyword_groups"` // first group is primary, the rest are fallbacks
	VoiceProfile  string     `json:"voice_profile"`  // symbolic tag, e.g. "warm_grandfather"
	Category      string     `json:"category"`
	TargetSec     float64    `json:"target_duration_sec,omitempty"`
}

// MediaAsset is one fetched image on local disk
type MediaAsset struct {
	Path      string `json:"path"`
	SizeBytes int64  `json:"size_bytes"`
	SourceURL string `json:"source_url,omitempty"`
	Query     string `json:"query,omitempty"`
}

// AudioAsset is synthesized narration audio
type AudioAsset struct {
	Path         string  `json:"path"`
	DurationSec  float64 `json:"duration_sec"`
	VoiceProfile string  `json:"voice_profile"`
}

// VisualAsset is the composed collage image
type VisualAsset struct {
	Path        string `json:"path"`
	SizeBytes   int64  `json:"size_bytes"`
	Layout      string `json:"layout"`
	SourceCount int    `json:"source_count"`
}

// VideoAsset is the final rendered artifact
type VideoAsset struct {
	Path        string  `json:"path"`
	DurationSec float64 `json:"duration_sec"`
	SizeBytes   int64   `json:"size_bytes"`
}

// RunCounters are aggregate statistics folded into RotationState after each
// run's terminal outcome is known.
type RunCounters struct {
	TotalRuns      int     `json:"total_runs"`
	SuccessfulRuns int     `json:"successful_runs"`
	FailedRuns     int     `json:"failed_runs"`
	AverageRunSec  float64 `json:"average_run_sec"`
	LastSuccessAt  string  `json:"last_success_at,omitempty"`
	LastFailureAt  string  `json:"last_failure_at,omitempty"`
	LastError      string  `json:"last_error,omitempty"`
}

// RotationState is the durable no-repeat rotation record.
// Invariant: UsedIDsThisCycle is always a subset of the catalog's ids.
type RotationState struct {
	CycleNumber      int            `json:"cycle_number"`
	UsedIDsThisCycle []string       `json:"used_ids_this_cycle"`
	LastSelectedID   string         `json:"last_selected_id,omitempty"`
	LastRunAt        string         `json:"last_run_at,omitempty"`
	Counters         RunCounters    `json:"run_history"`
	ByCategory       map[string]int `json:"by_category,omitempty"`
	ByVoice          map[string]int `json:"by_voice,omitempty"`
}

// NewRotationState returns an empty state for a first run
func NewRotationState() *RotationState {
	return &RotationState{CycleNumber: 1}
}

// Used reports whether id has been selected in the current cycle
func (s *RotationState) Used(id string) bool {
	for _, u := range s.UsedIDsThisCycle {
		if u == id {
			return true
		}
	}
	return false
}

// MarkUsed adds id to the current cycle's used set (idempotent)
func (s *RotationState) MarkUsed(id string) {
	if !s.Used(id) {
		s.UsedIDsThisCycle = append(s.UsedIDsThisCycle, id)
	}
}

// Unmark removes id from the current cycle's used set. Recovery primitive
// for items that failed and would otherwise stay consumed all cycle.
func (s *RotationState) Unmark(id string) bool {
	for i, u := range s.UsedIDsThisCycle {
		if u == id {
			s.UsedIDsThisCycle = append(s.UsedIDsThisCycle[:i], s.UsedIDsThisCycle[i+1:]...)
			return true
		}
	}
	return false
}

// Pipeline stage names, in execution order
const (
	StageSelect     = "select"
	StageFetch      = "fetch"
	StageCompose    = "compose"
	StageSynthesize = "synthesize"
	StageRender     = "render"
	StageFinalize   = "finalize"
)

// Terminal run statuses
const (
	StatusSucceeded = "succeeded"
	StatusFailed    = "failed"
	StatusAborted   = "aborted"
)

// StageTiming records how long one stage took
type StageTiming struct {
	Stage       string  `json:"stage"`
	DurationSec float64 `json:"duration_sec"`
}

// RunRecord tracks the full state of one pipeline run. It is ephemeral:
// folded into RotationState and the ledger, never persisted on its own.
type RunRecord struct {
	RunID        string        `json:"run_id"`
	ItemID       string        `json:"item_id,omitempty"`
	ItemName     string        `json:"item_name,omitempty"`
	CycleNumber  int           `json:"cycle_number,omitempty"`
	StartedAt    string        `json:"started_at"`
	CompletedAt  string        `json:"completed_at,omitempty"`
	Status       string        `json:"status"`
	FailedStage  string        `json:"failed_stage,omitempty"`
	ErrorKind    string        `json:"error_kind,omitempty"`
	Error        string        `json:"error,omitempty"`
	StageTimings []StageTiming `json:"stage_timings,omitempty"`
	MediaCount   int           `json:"media_count,omitempty"`
	AudioSec     float64       `json:"audio_sec,omitempty"`
	VideoPath    string        `json:"video_path,omitempty"`
	VideoSec     float64       `json:"video_sec,omitempty"`
	VideoBytes   int64         `json:"video_bytes,omitempty"`
}
