// Package dlq keeps envelopes the engine gave up on so operators can inspect
// and replay them. The pipeline only ever writes; reads serve the admin API.
package dlq

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/amesa-systems/amesa-notify/common/logging"
	"github.com/amesa-systems/amesa-notify/notify/internal/metrics"
	"github.com/amesa-systems/amesa-notify/notify/internal/models"
)

// Reasons an envelope is dead-lettered.
const (
	ReasonRetryExhausted = "retry_exhausted"
	ReasonDecodeFailed   = "decode_failed"
)

// DefaultBasePath is used by the file backend when no path is configured.
const DefaultBasePath = "./data/dlq"

// FailedEvent is one dead-letter entry.
type FailedEvent struct {
	ID          string           `json:"id"`
	Timestamp   time.Time        `json:"timestamp"`
	Envelope    *models.Envelope `json:"envelope"`
	Error       string           `json:"error"`
	Reason      string           `json:"reason"`
	Attempts    int              `json:"attempts"`
	LastAttempt time.Time        `json:"last_attempt"`
}

// Writer records envelopes. Implementations must be safe for concurrent use.
type Writer interface {
	Write(ctx context.Context, envelope *models.Envelope, err error, reason string) error
}

// Store is a Writer that operators can also read back.
type Store interface {
	Writer
	List(ctx context.Context, limit int) ([]FailedEvent, error)
	Stats(ctx context.Context) map[string]interface{}
	Purge(ctx context.Context) error
}

func newFailedEvent(envelope *models.Envelope, err error, reason string) FailedEvent {
	now := time.Now().UTC()
	msg := ""
	if err != nil {
		msg = err.Error()
	}
	return FailedEvent{
		ID:          uuid.NewString(),
		Timestamp:   now,
		Envelope:    envelope,
		Error:       msg,
		Reason:      reason,
		Attempts:    1,
		LastAttempt: now,
	}
}

// Queue writes one JSON file per entry under basePath.
type Queue struct {
	basePath string
	logger   *logging.Logger
	mu       sync.Mutex
	written  uint64
}

// NewQueue creates a file-backed DLQ rooted at basePath.
func NewQueue(basePath string, logger *logging.Logger) (*Queue, error) {
	if basePath == "" {
		basePath = DefaultBasePath
	}
	if logger == nil {
		logger = logging.Default()
	}
	if err := os.MkdirAll(basePath, 0o755); err != nil {
		return nil, fmt.Errorf("create dlq directory: %w", err)
	}
	return &Queue{basePath: basePath, logger: logger}, nil
}

// Write records a failed event. A nil Queue discards it.
func (q *Queue) Write(ctx context.Context, envelope *models.Envelope, err error, reason string) error {
	if q == nil {
		return nil
	}

	q.mu.Lock()
	defer q.mu.Unlock()

	failed := newFailedEvent(envelope, err, reason)
	filename := fmt.Sprintf("failed_%d_%s.json", failed.Timestamp.UnixNano(), failed.ID)

	data, marshalErr := json.MarshalIndent(failed, "", "  ")
	if marshalErr != nil {
		return fmt.Errorf("marshal dlq entry: %w", marshalErr)
	}
	if writeErr := os.WriteFile(filepath.Join(q.basePath, filename), data, 0o644); writeErr != nil {
		return fmt.Errorf("write dlq entry: %w", writeErr)
	}

	q.written++
	metrics.DLQWrites.WithLabelValues(reason).Inc()
	q.logger.InfoContext(ctx, "wrote envelope to dead-letter queue",
		logging.Reason(reason), "file", filename)
	return nil
}

// Stats reports counters for the admin API.
func (q *Queue) Stats(ctx context.Context) map[string]interface{} {
	if q == nil {
		return map[string]interface{}{"enabled": false, "backend": "file"}
	}

	q.mu.Lock()
	defer q.mu.Unlock()

	files, err := q.entries()
	if err != nil {
		return map[string]interface{}{
			"enabled": true,
			"backend": "file",
			"written": q.written,
			"error":   err.Error(),
		}
	}
	return map[string]interface{}{
		"enabled":       true,
		"backend":       "file",
		"written":       q.written,
		"pending_files": len(files),
		"base_path":     q.basePath,
	}
}

// List returns up to limit entries, oldest first. limit <= 0 means all.
func (q *Queue) List(ctx context.Context, limit int) ([]FailedEvent, error) {
	if q == nil {
		return nil, fmt.Errorf("dlq not enabled")
	}

	q.mu.Lock()
	defer q.mu.Unlock()

	files, err := q.entries()
	if err != nil {
		return nil, err
	}

	var out []FailedEvent
	for _, name := range files {
		if limit > 0 && len(out) >= limit {
			break
		}
		data, err := os.ReadFile(filepath.Join(q.basePath, name))
		if err != nil {
			q.logger.WarnContext(ctx, "failed to read dlq file", "file", name, logging.Error(err))
			continue
		}
		var failed FailedEvent
		if err := json.Unmarshal(data, &failed); err != nil {
			q.logger.WarnContext(ctx, "failed to parse dlq file", "file", name, logging.Error(err))
			continue
		}
		out = append(out, failed)
	}
	return out, nil
}

// Purge removes every entry.
func (q *Queue) Purge(ctx context.Context) error {
	if q == nil {
		return fmt.Errorf("dlq not enabled")
	}

	q.mu.Lock()
	defer q.mu.Unlock()

	files, err := q.entries()
	if err != nil {
		return err
	}
	deleted := 0
	for _, name := range files {
		if err := os.Remove(filepath.Join(q.basePath, name)); err != nil {
			q.logger.WarnContext(ctx, "failed to delete dlq file", "file", name, logging.Error(err))
			continue
		}
		deleted++
	}
	q.logger.InfoContext(ctx, "purged dead-letter queue", logging.Count(deleted))
	return nil
}

// entries returns entry file names sorted oldest first. Caller holds mu.
func (q *Queue) entries() ([]string, error) {
	dirEntries, err := os.ReadDir(q.basePath)
	if err != nil {
		return nil, fmt.Errorf("read dlq directory: %w", err)
	}
	names := make([]string, 0, len(dirEntries))
	for _, e := range dirEntries {
		if e.IsDir() || !strings.HasPrefix(e.Name(), "failed_") || !strings.HasSuffix(e.Name(), ".json") {
			continue
		}
		names = append(names, e.Name())
	}
	sort.Slice(names, func(i, j int) bool { return fileTime(names[i]) < fileTime(names[j]) })
	return names, nil
}

func fileTime(name string) int64 {
	stamp, _, _ := strings.Cut(strings.TrimPrefix(name, "failed_"), "_")
	n, _ := strconv.ParseInt(stamp, 10, 64)
	return n
}
