package services

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"accident-dashboard-api/config"
	"accident-dashboard-api/models"

	"go.uber.org/zap"
)

const tasksCacheKey = "tasks:all"

// Task status filters, matching the task page's radio choices.
const (
	StatusAll       = "all"
	StatusPending   = "pending"
	StatusCompleted = "completed"
)

var ErrUnknownStatus = errors.New("unknown status filter")

// UpstreamError is a non-success answer from a collaborator API.
type UpstreamError struct {
	Status int
	Body   string
}

func (e *UpstreamError) Error() string {
	return fmt.Sprintf("upstream returned %d: %s", e.Status, e.Body)
}

type PriorityCount struct {
	Priority int `json:"priority"`
	Count    int `json:"count"`
}

// TaskClient talks to the mock task API. Listings are cached for the
// configured TTL; a successful create invalidates the cache.
type TaskClient struct {
	baseURL string
	ttl     time.Duration
	http    *http.Client
	cache   *CacheService
	logger  *zap.Logger
	now     func() time.Time

	mu          sync.Mutex
	local       []models.Task
	localExpiry time.Time
}

func NewTaskClient(cfg config.TasksConfig, cache *CacheService, logger *zap.Logger) *TaskClient {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &TaskClient{
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		ttl:     cfg.CacheTTL,
		http:    &http.Client{Timeout: cfg.Timeout},
		cache:   cache,
		logger:  logger,
		now:     time.Now,
	}
}

// List returns all tasks, from cache when fresh.
func (c *TaskClient) List(ctx context.Context) ([]models.Task, error) {
	if tasks, ok := c.cached(ctx); ok {
		return tasks, nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL, nil)
	if err != nil {
		return nil, err
	}
	var tasks []models.Task
	if err := c.do(req, http.StatusOK, &tasks); err != nil {
		return nil, err
	}
	if tasks == nil {
		tasks = []models.Task{}
	}
	c.store(ctx, tasks)
	return tasks, nil
}

// Create posts a new task. Only 201 counts as success.
func (c *TaskClient) Create(ctx context.Context, task models.NewTask) (*models.Task, error) {
	body, err := json.Marshal(task)
	if err != nil {
		return nil, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	var created models.Task
	if err := c.do(req, http.StatusCreated, &created); err != nil {
		return nil, err
	}
	c.invalidate(ctx)
	return &created, nil
}

func (c *TaskClient) do(req *http.Request, want int, dest interface{}) error {
	resp, err := c.http.Do(req)
	if err != nil {
		upstreamRequests.WithLabelValues("tasks", "error").Inc()
		return fmt.Errorf("tasks request failed: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		upstreamRequests.WithLabelValues("tasks", "error").Inc()
		return fmt.Errorf("read tasks response: %w", err)
	}
	if resp.StatusCode != want {
		upstreamRequests.WithLabelValues("tasks", "rejected").Inc()
		return &UpstreamError{Status: resp.StatusCode, Body: strings.TrimSpace(string(data))}
	}
	upstreamRequests.WithLabelValues("tasks", "ok").Inc()
	if err := json.Unmarshal(data, dest); err != nil {
		return fmt.Errorf("decode tasks response: %w", err)
	}
	return nil
}

func (c *TaskClient) cached(ctx context.Context) ([]models.Task, bool) {
	if c.cache.Available() {
		var tasks []models.Task
		if err := c.cache.Get(ctx, tasksCacheKey, &tasks); err == nil && tasks != nil {
			return tasks, true
		}
		return nil, false
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.local != nil && c.now().Before(c.localExpiry) {
		return append([]models.Task(nil), c.local...), true
	}
	return nil, false
}

func (c *TaskClient) store(ctx context.Context, tasks []models.Task) {
	if c.cache.Available() {
		if err := c.cache.Set(ctx, tasksCacheKey, tasks, c.ttl); err != nil {
			c.logger.Warn("tasks cache write failed", zap.Error(err))
		}
		return
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.local = append([]models.Task(nil), tasks...)
	c.localExpiry = c.now().Add(c.ttl)
}

func (c *TaskClient) invalidate(ctx context.Context) {
	if c.cache.Available() {
		if err := c.cache.Delete(ctx, tasksCacheKey); err != nil {
			c.logger.Warn("tasks cache invalidation failed", zap.Error(err))
		}
		return
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.local = nil
}

// FilterTasks keeps the tasks matching a status filter.
func FilterTasks(tasks []models.Task, status string) ([]models.Task, error) {
	out := []models.Task{}
	switch status {
	case "", StatusAll:
		return append(out, tasks...), nil
	case StatusPending:
		for _, t := range tasks {
			if t.IsComplete == "false" {
				out = append(out, t)
			}
		}
	case StatusCompleted:
		for _, t := range tasks {
			if t.Completed() {
				out = append(out, t)
			}
		}
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownStatus, status)
	}
	return out, nil
}

// CountPriorities counts tasks per numeric priority, most frequent first.
// Non-numeric priorities are skipped.
func CountPriorities(tasks []models.Task) []PriorityCount {
	counts := make(map[int]int)
	for _, t := range tasks {
		p, err := strconv.Atoi(strings.TrimSpace(t.Priority))
		if err != nil {
			continue
		}
		counts[p]++
	}

	out := make([]PriorityCount, 0, len(counts))
	for p, n := range counts {
		out = append(out, PriorityCount{Priority: p, Count: n})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].Priority < out[j].Priority
	})
	return out
}
