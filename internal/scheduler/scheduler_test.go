package scheduler

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/jobradar/crawler/internal/crawler"
	"github.com/jobradar/crawler/internal/queue"
)

func TestNewValidates(t *testing.T) {
	t.Parallel()

	mem := queue.NewMemory()
	platforms := []crawler.Platform{crawler.Platform104}

	_, err := New(nil, platforms, "0 2 * * *", nil)
	require.Error(t, err)

	_, err = New(mem, nil, "0 2 * * *", nil)
	require.Error(t, err)

	_, err = New(mem, platforms, "not a cron spec", nil)
	require.Error(t, err)

	s, err := New(mem, platforms, "0 2 * * *", nil)
	require.NoError(t, err)
	require.NotNil(t, s)
}

func TestEnqueueRunPublishesWorkflowPerPlatform(t *testing.T) {
	t.Parallel()

	mem := queue.NewMemory()
	platforms := []crawler.Platform{crawler.Platform104, crawler.PlatformYes123}
	s, err := New(mem, platforms, "0 2 * * *", nil)
	require.NoError(t, err)

	require.NoError(t, s.EnqueueRun(context.Background()))

	require.Equal(t, len(platforms), mem.Len(queue.LaneCategory))
	require.Equal(t, 2*len(platforms), mem.Len(queue.LaneDefault))
}

func TestStartAndStop(t *testing.T) {
	t.Parallel()

	mem := queue.NewMemory()
	s, err := New(mem, []crawler.Platform{crawler.Platform104}, "0 2 * * *", nil)
	require.NoError(t, err)

	require.NoError(t, s.Start())
	s.Stop()
}
