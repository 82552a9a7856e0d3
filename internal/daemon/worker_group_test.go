package daemon

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestWorkerGroupRunsAndStops(t *testing.T) {
	var g WorkerGroup
	var count atomic.Int32

	for range 3 {
		require.True(t, g.Go(func() { count.Add(1) }))
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	require.NoError(t, g.StopAndWait(ctx))
	require.Equal(t, int32(3), count.Load())
}

func TestWorkerGroupRefusesWorkWhileStopping(t *testing.T) {
	var g WorkerGroup
	require.NoError(t, g.StopAndWait(context.Background()))
	require.False(t, g.Go(func() {}))
}

func TestWorkerGroupIgnoresNil(t *testing.T) {
	var g WorkerGroup
	require.False(t, g.Go(nil))
}

func TestWorkerGroupStopTimeout(t *testing.T) {
	var g WorkerGroup
	release := make(chan struct{})
	require.True(t, g.Go(func() { <-release }))

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	require.Error(t, g.StopAndWait(ctx))

	close(release)
}
