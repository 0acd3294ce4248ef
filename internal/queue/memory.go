package queue

import (
	"context"
	"errors"
	"sync"
)

// ErrClosed is returned by Publish and Subscribe after Close.
var ErrClosed = errors.New("queue is closed")

// Memory is an in-process Provider for tests and single-node runs. Failed
// tasks are requeued at the back of their lane, mirroring broker redelivery.
type Memory struct {
	mu     sync.Mutex
	lanes  map[Lane]chan Task
	closed bool
}

const memoryLaneDepth = 1024

// NewMemory constructs an empty in-process queue.
func NewMemory() *Memory {
	return &Memory{lanes: map[Lane]chan Task{
		LaneDefault:  make(chan Task, memoryLaneDepth),
		LaneCategory: make(chan Task, memoryLaneDepth),
	}}
}

// Publish routes the task to its lane.
func (m *Memory) Publish(ctx context.Context, task Task) error {
	if m.isClosed() {
		return ErrClosed
	}
	lane := m.lane(LaneFor(task.Name))
	select {
	case lane <- task:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Subscribe consumes the lane one task at a time until ctx is canceled.
func (m *Memory) Subscribe(ctx context.Context, lane Lane, handler Handler) error {
	if m.isClosed() {
		return ErrClosed
	}
	ch := m.lane(lane)
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case task := <-ch:
			if err := handler(ctx, task); err != nil {
				select {
				case ch <- task:
				case <-ctx.Done():
					return ctx.Err()
				}
			}
		}
	}
}

// Len reports how many tasks are waiting on a lane.
func (m *Memory) Len(lane Lane) int {
	return len(m.lane(lane))
}

// Close stops accepting publishes and new subscribers. Tasks already queued
// stay in their lanes.
func (m *Memory) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed = true
	return nil
}

func (m *Memory) isClosed() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.closed
}

func (m *Memory) lane(lane Lane) chan Task {
	m.mu.Lock()
	defer m.mu.Unlock()
	ch, ok := m.lanes[lane]
	if !ok {
		ch = make(chan Task, memoryLaneDepth)
		m.lanes[lane] = ch
	}
	return ch
}
