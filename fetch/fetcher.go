package fetch

import (
	"context"
	"errors"

	"folklorovich/types"
)

// Errors a fetch attempt can surface. Transient network failures are retried
// inside the implementation and escalate to one of these once attempts run out.
var (
	// ErrNoResults means the search produced fewer usable images than the
	// run's minimum, after validation.
	ErrNoResults = errors.New("not enough usable images")

	// ErrQuotaExceeded means the remote service refused us for rate/usage
	// limits. Retrying this run would only waste quota.
	ErrQuotaExceeded = errors.New("image service quota exceeded")
)

// Fetcher finds and downloads supporting images for one keyword group.
// Implementations record their own API usage against the quota counter.
type Fetcher interface {
	Fetch(ctx context.Context, keywords []string, minCount int) ([]types.MediaAsset, error)
}

// minImageBytes rejects downloads that are really error pages
const minImageBytes = 10 * 1024
