package p1111

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/jobradar/crawler/internal/crawler"
)

func TestListURLsWarnsWhenNoCategoriesStored(t *testing.T) {
	t.Parallel()

	core, logs := observer.New(zap.WarnLevel)
	load := func(context.Context) ([]crawler.Category, error) { return nil, nil }
	l := NewLister(nil, nil, 1, load, zap.New(core))

	err := l.ListURLs(context.Background(), func(crawler.Item) bool { return true })
	require.NoError(t, err)
	require.Equal(t, 1, logs.FilterMessage("no categories stored, skipping url listing").Len())
}

func TestNewListerToleratesNilLogger(t *testing.T) {
	t.Parallel()

	load := func(context.Context) ([]crawler.Category, error) { return nil, nil }
	l := NewLister(nil, nil, 1, load, nil)

	err := l.ListURLs(context.Background(), func(crawler.Item) bool { return true })
	require.NoError(t, err)
}
