package quota

import (
	"encoding/json"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sync"
	"time"
)

// Counter tracks per-service per-day API request counts so the pipeline can
// stop before it burns through a free-tier limit. Persisted as a keyed JSON
// document, replaced atomically on every update.
type Counter struct {
	mu   sync.Mutex
	path string
	data map[string]*serviceUsage
	now  func() time.Time
}

type serviceUsage struct {
	TotalRequests int            `json:"total_requests"`
	RequestsByDay map[string]int `json:"requests_by_day"`
	LastRequest   string         `json:"last_request,omitempty"`
}

// Open loads the usage document at path, starting empty if it does not exist
func Open(path string) (*Counter, error) {
	c := &Counter{path: path, data: make(map[string]*serviceUsage), now: time.Now}

	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return c, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read usage log: %w", err)
	}
	if err := json.Unmarshal(data, &c.data); err != nil {
		return nil, fmt.Errorf("parse usage log %s: %w", path, err)
	}
	return c, nil
}

// Record adds n requests to service's counters and persists the document
func (c *Counter) Record(service string, n int) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	usage, ok := c.data[service]
	if !ok {
		usage = &serviceUsage{RequestsByDay: make(map[string]int)}
		c.data[service] = usage
	}
	if usage.RequestsByDay == nil {
		usage.RequestsByDay = make(map[string]int)
	}

	now := c.now()
	usage.TotalRequests += n
	usage.RequestsByDay[now.Format("2006-01-02")] += n
	usage.LastRequest = now.UTC().Format(time.RFC3339)

	return c.save()
}

// TodayCount returns how many requests service has made today
func (c *Counter) TodayCount(service string) int {
	c.mu.Lock()
	defer c.mu.Unlock()

	usage, ok := c.data[service]
	if !ok {
		return 0
	}
	return usage.RequestsByDay[c.now().Format("2006-01-02")]
}

// WouldExceed reports whether issuing pending more requests today would push
// service past limit. Callers check this before a batch, not after.
func (c *Counter) WouldExceed(service string, pending, limit int) bool {
	return c.TodayCount(service)+pending > limit
}

// WarnIfApproaching logs a warning when today's usage crosses threshold.
// Called at run start so the operator sees quota pressure before it bites.
func (c *Counter) WarnIfApproaching(service string, threshold, limit int) {
	count := c.TodayCount(service)
	if count >= threshold {
		log.Printf("⚠️  [quota] %s usage high today: %d/%d requests — approaching limit", service, count, limit)
	}
}

// save writes the document via temp-then-rename so a crash mid-write never
// leaves a corrupt usage log. Caller holds the lock.
func (c *Counter) save() error {
	data, err := json.MarshalIndent(c.data, "", "  ")
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(c.path), 0755); err != nil {
		return err
	}
	tmp := c.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		return err
	}
	return os.Rename(tmp, c.path)
}
