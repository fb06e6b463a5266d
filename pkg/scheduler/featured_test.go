package scheduler

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"diynow/pkg/domain"
	"diynow/pkg/logger"
	"diynow/pkg/sink"
)

type countingDiscoverer struct {
	calls atomic.Int32
}

func (d *countingDiscoverer) Discover(ctx context.Context, keyword string, out sink.Sink) ([]domain.ProjectRecord, error) {
	d.calls.Add(1)
	records := []domain.ProjectRecord{{Title: "Kite", URL: "http://m/kite"}}
	if err := out.Reset(ctx); err != nil {
		return nil, err
	}
	return records, out.Write(ctx, records)
}

func newFeaturedSink(t *testing.T) *sink.RedisSink {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return sink.NewRedisSink(client, sink.KeyFeatured, time.Hour)
}

func TestNewFeaturedRefresher_InvalidSchedule(t *testing.T) {
	_, err := NewFeaturedRefresher("every now and then", &countingDiscoverer{}, newFeaturedSink(t), 0, logger.NewNop())
	assert.Error(t, err)
}

func TestFeaturedRefresher_Refresh(t *testing.T) {
	out := newFeaturedSink(t)
	d := &countingDiscoverer{}
	r, err := NewFeaturedRefresher("@every 6h", d, out, time.Second, logger.NewNop())
	require.NoError(t, err)

	require.NoError(t, r.Refresh(context.Background()))

	got, err := out.Read(context.Background())
	require.NoError(t, err)
	assert.Len(t, got, 1)
}

func TestFeaturedRefresher_StartRunsImmediately(t *testing.T) {
	d := &countingDiscoverer{}
	r, err := NewFeaturedRefresher("@every 1h", d, newFeaturedSink(t), time.Second, logger.NewNop())
	require.NoError(t, err)

	require.NoError(t, r.Start(context.Background()))
	assert.Eventually(t, func() bool { return d.calls.Load() == 1 }, time.Second, 10*time.Millisecond)
	r.Stop()
}

// slowDiscoverer keeps running for a while after its context is cancelled.
type slowDiscoverer struct {
	started  chan struct{}
	finished atomic.Bool
}

func (d *slowDiscoverer) Discover(ctx context.Context, keyword string, out sink.Sink) ([]domain.ProjectRecord, error) {
	close(d.started)
	<-ctx.Done()
	time.Sleep(200 * time.Millisecond)
	d.finished.Store(true)
	return nil, ctx.Err()
}

func TestFeaturedRefresher_StopWaitsForInitialRefresh(t *testing.T) {
	d := &slowDiscoverer{started: make(chan struct{})}
	r, err := NewFeaturedRefresher("@every 1h", d, newFeaturedSink(t), time.Minute, logger.NewNop())
	require.NoError(t, err)

	require.NoError(t, r.Start(context.Background()))
	select {
	case <-d.started:
	case <-time.After(time.Second):
		t.Fatal("initial refresh did not start")
	}

	r.Stop()
	assert.True(t, d.finished.Load(), "Stop returned while the initial refresh was running")
}
