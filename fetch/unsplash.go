package fetch

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"folklorovich/quota"
	"folklorovich/retry"
	"folklorovich/types"
)

// Unsplash fetches portrait images from the Unsplash search API.
// Free tier is tightly limited, so every search is recorded against the
// quota counter before the request goes out.
type Unsplash struct {
	endpoint     string
	accessKey    string
	service      string
	requestCount int
	outDir       string
	client       *http.Client
	counter      *quota.Counter
	policy       retry.Policy
}

// NewUnsplash builds a fetcher downloading into outDir. The access key comes
// from UNSPLASH_ACCESS_KEY in the environment.
func NewUnsplash(endpoint, service string, requestCount, timeoutSec int, outDir string, counter *quota.Counter, policy retry.Policy) *Unsplash {
	return &Unsplash{
		endpoint:     strings.TrimRight(endpoint, "/"),
		accessKey:    os.Getenv("UNSPLASH_ACCESS_KEY"),
		service:      service,
		requestCount: requestCount,
		outDir:       outDir,
		client:       &http.Client{Timeout: time.Duration(timeoutSec) * time.Second},
		counter:      counter,
		policy:       policy,
	}
}

type searchResponse struct {
	Results []searchResult `json:"results"`
}

type searchResult struct {
	ID   string `json:"id"`
	URLs struct {
		Regular string `json:"regular"`
	} `json:"urls"`
	Description    string `json:"description"`
	AltDescription string `json:"alt_description"`
}

// Fetch runs one search for the keyword group and downloads the results.
// Fails with ErrNoResults when fewer than minCount images survive download
// validation, and with ErrQuotaExceeded on a persistent rate limit.
func (u *Unsplash) Fetch(ctx context.Context, keywords []string, minCount int) ([]types.MediaAsset, error) {
	if u.accessKey == "" {
		return nil, fmt.Errorf("UNSPLASH_ACCESS_KEY not set")
	}

	query := strings.Join(keywords, " ")
	log.Printf("[fetch] searching %s for %q", u.service, query)

	if err := u.counter.Record(u.service, 1); err != nil {
		log.Printf("[fetch] ⚠️  could not record API usage: %v", err)
	}

	var results []searchResult
	err := u.policy.Do(ctx, "image search", func() error {
		var err error
		results, err = u.search(ctx, query)
		return err
	})
	if err != nil {
		return nil, err
	}

	if err := os.MkdirAll(u.outDir, 0755); err != nil {
		return nil, fmt.Errorf("create image dir: %w", err)
	}

	var assets []types.MediaAsset
	for _, res := range results {
		if res.URLs.Regular == "" {
			continue
		}
		asset, err := u.download(ctx, res, query)
		if err != nil {
			log.Printf("[fetch] ⚠️  skipping image %s: %v", res.ID, err)
			continue
		}
		assets = append(assets, asset)
		if len(assets) >= u.requestCount {
			break
		}
	}

	if len(assets) < minCount {
		return nil, fmt.Errorf("%w: got %d of %d for %q", ErrNoResults, len(assets), minCount, query)
	}

	log.Printf("[fetch] ✅ downloaded %d images for %q", len(assets), query)
	return assets, nil
}

func (u *Unsplash) search(ctx context.Context, query string) ([]searchResult, error) {
	params := url.Values{}
	params.Set("query", query)
	params.Set("per_page", fmt.Sprintf("%d", u.requestCount))
	params.Set("orientation", "portrait")
	params.Set("content_filter", "high")

	reqURL := fmt.Sprintf("%s/search/photos?%s", u.endpoint, params.Encode())
	req, err := http.NewRequestWithContext(ctx, "GET", reqURL, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Client-ID "+u.accessKey)
	req.Header.Set("Accept-Version", "v1")

	resp, err := u.client.Do(req)
	if err != nil {
		return nil, retry.Transient(err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusTooManyRequests:
		return nil, fmt.Errorf("%w: HTTP 429 from %s", ErrQuotaExceeded, u.service)
	case resp.StatusCode >= 500:
		return nil, retry.Transient(fmt.Errorf("HTTP %d from %s", resp.StatusCode, u.service))
	case resp.StatusCode != http.StatusOK:
		return nil, fmt.Errorf("HTTP %d from %s", resp.StatusCode, u.service)
	}

	var parsed searchResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, fmt.Errorf("decode search response: %w", err)
	}
	return parsed.Results, nil
}

func (u *Unsplash) download(ctx context.Context, res searchResult, query string) (types.MediaAsset, error) {
	outFile := filepath.Join(u.outDir, fmt.Sprintf("img_%s.jpg", uuid.NewString()[:8]))

	var asset types.MediaAsset
	err := u.policy.Do(ctx, "image download", func() error {
		req, err := http.NewRequestWithContext(ctx, "GET", res.URLs.Regular, nil)
		if err != nil {
			return err
		}
		resp, err := u.client.Do(req)
		if err != nil {
			return retry.Transient(err)
		}
		defer resp.Body.Close()

		if resp.StatusCode != http.StatusOK {
			return retry.Transient(fmt.Errorf("HTTP %d downloading image", resp.StatusCode))
		}

		data, err := io.ReadAll(resp.Body)
		if err != nil {
			return retry.Transient(err)
		}
		// Reject tiny payloads — usually an error page, not a photo
		if len(data) < minImageBytes {
			return fmt.Errorf("image too small (%d bytes)", len(data))
		}
		if err := os.WriteFile(outFile, data, 0644); err != nil {
			return err
		}
		asset = types.MediaAsset{
			Path:      outFile,
			SizeBytes: int64(len(data)),
			SourceURL: res.URLs.Regular,
			Query:     query,
		}
		return nil
	})
	return asset, err
}
