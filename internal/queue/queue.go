// Package queue defines the task envelope, lane routing and the message-queue
// provider abstraction. The application stays independent of the concrete
// broker; GCP Pub/Sub is the production implementation and Memory backs tests
// and local runs.
package queue

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/jobradar/crawler/internal/crawler"
)

// Lane is a delivery channel. Category syncs ride their own lane so a slow
// taxonomy refresh never starves URL and detail work.
type Lane string

const (
	LaneDefault  Lane = "default"
	LaneCategory Lane = "category"
)

// Operation names carried in task names.
const (
	OpCategorySync     = "category_sync"
	OpURLDiscovery     = "url_discovery"
	OpDetailProcessing = "detail_processing"
)

// Task is one unit of pipeline work addressed to a platform.
type Task struct {
	Name     string           `json:"name"`
	Platform crawler.Platform `json:"platform"`
	// Limit caps how many pending URLs a detail-processing run claims.
	// Zero means the worker's default.
	Limit int `json:"limit,omitempty"`
}

// NewTask builds a task for one platform operation.
func NewTask(platform crawler.Platform, op string) Task {
	return Task{
		Name:     fmt.Sprintf("tasks.%s.%s", platform, op),
		Platform: platform,
	}
}

// LaneFor routes a task name to its lane. Only category syncs leave the
// default lane.
func LaneFor(name string) Lane {
	if strings.HasSuffix(name, "."+OpCategorySync) {
		return LaneCategory
	}
	return LaneDefault
}

// Encode serializes the task for the wire.
func (t Task) Encode() ([]byte, error) {
	data, err := json.Marshal(t)
	if err != nil {
		return nil, fmt.Errorf("encode task %s: %w", t.Name, err)
	}
	return data, nil
}

// DecodeTask parses a wire payload back into a Task.
func DecodeTask(data []byte) (Task, error) {
	var t Task
	if err := json.Unmarshal(data, &t); err != nil {
		return Task{}, fmt.Errorf("decode task: %w", err)
	}
	if t.Name == "" {
		return Task{}, fmt.Errorf("decode task: missing name")
	}
	return t, nil
}

// Handler processes one delivered task. A non-nil error makes the provider
// redeliver the message.
type Handler func(ctx context.Context, task Task) error

// Provider is the broker abstraction. Messages are acknowledged only after
// the handler returns nil; each subscriber holds at most one message in
// flight at a time.
type Provider interface {
	Publish(ctx context.Context, task Task) error
	Subscribe(ctx context.Context, lane Lane, handler Handler) error
	Close() error
}
