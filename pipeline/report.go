package pipeline

import (
	"fmt"
	"strings"

	"folklorovich/types"
)

// Report formats a run record as a human-readable summary for the operator.
// A failed run names the stage and error kind so it can be diagnosed without
// reading internal logs.
func Report(rec *types.RunRecord) string {
	var b strings.Builder
	line := strings.Repeat("=", 60)

	fmt.Fprintln(&b, line)
	fmt.Fprintln(&b, "FOLKLOROVICH GENERATION REPORT")
	fmt.Fprintln(&b, line)
	fmt.Fprintf(&b, "Run ID:     %s\n", rec.RunID)
	if rec.ItemID != "" {
		fmt.Fprintf(&b, "Item:       %s (%s), cycle %d\n", rec.ItemName, rec.ItemID, rec.CycleNumber)
	}

	switch rec.Status {
	case types.StatusSucceeded:
		fmt.Fprintln(&b, "Status:     ✅ SUCCESS")
		fmt.Fprintf(&b, "Video:      %s (%.1fs, %.1f MB)\n", rec.VideoPath, rec.VideoSec, float64(rec.VideoBytes)/(1024*1024))
	case types.StatusAborted:
		fmt.Fprintln(&b, "Status:     ❌ ABORTED")
		fmt.Fprintf(&b, "Reason:     %s: %s\n", rec.ErrorKind, rec.Error)
	default:
		fmt.Fprintln(&b, "Status:     ❌ FAILED")
		fmt.Fprintf(&b, "Stage:      %s\n", rec.FailedStage)
		fmt.Fprintf(&b, "Error:      %s: %s\n", rec.ErrorKind, rec.Error)
	}

	if len(rec.StageTimings) > 0 {
		fmt.Fprintln(&b, "Timings:")
		for _, t := range rec.StageTimings {
			fmt.Fprintf(&b, "  %-12s %.2fs\n", t.Stage, t.DurationSec)
		}
	}
	fmt.Fprintln(&b, line)
	return b.String()
}
