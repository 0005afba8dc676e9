package workerpool_test

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/ignitekv/ignite/internal/engine"
	"github.com/ignitekv/ignite/internal/workerpool"
	"github.com/ignitekv/ignite/pkg/enginecontract"
	"github.com/ignitekv/ignite/pkg/logger"
	"github.com/ignitekv/ignite/pkg/options"
)

func newTestEngine(t *testing.T) *engine.Engine {
	t.Helper()
	opts := options.NewDefaultOptions()
	options.WithDataDir(t.TempDir())(&opts)
	options.WithCompactionThreshold(1 << 30)(&opts)

	eng, err := engine.New(context.Background(), &engine.Config{Options: &opts, Logger: logger.Noop()})
	require.NoError(t, err)
	t.Cleanup(func() { eng.Close() })
	return eng
}

func TestPoolRunsSubmittedTasks(t *testing.T) {
	eng := newTestEngine(t)
	pool := workerpool.New(eng, 4, logger.Noop())
	defer pool.Close()

	var wg sync.WaitGroup
	var completed atomic.Int64
	for i := 0; i < 50; i++ {
		wg.Add(1)
		pool.Submit(func(e enginecontract.Engine) {
			defer wg.Done()
			completed.Add(1)
		})
	}
	wg.Wait()
	require.EqualValues(t, 50, completed.Load())
}

func TestPoolSurvivesPanickingTask(t *testing.T) {
	eng := newTestEngine(t)
	pool := workerpool.New(eng, 2, logger.Noop())
	defer pool.Close()

	var wg sync.WaitGroup
	wg.Add(1)
	pool.Submit(func(e enginecontract.Engine) {
		defer wg.Done()
		panic("boom")
	})
	wg.Wait()

	var ok atomic.Bool
	var wg2 sync.WaitGroup
	wg2.Add(1)
	pool.Submit(func(e enginecontract.Engine) {
		defer wg2.Done()
		ok.Store(true)
	})
	wg2.Wait()
	require.True(t, ok.Load())
}

func TestNaiveDispatchRunsOneGoroutinePerTask(t *testing.T) {
	eng := newTestEngine(t)
	pool := workerpool.New(eng, 1, logger.Noop(), workerpool.WithNaiveDispatch())

	var wg sync.WaitGroup
	var completed atomic.Int64
	for i := 0; i < 10; i++ {
		wg.Add(1)
		pool.Submit(func(e enginecontract.Engine) {
			defer wg.Done()
			time.Sleep(time.Millisecond)
			completed.Add(1)
		})
	}
	wg.Wait()
	require.EqualValues(t, 10, completed.Load())
	require.NoError(t, pool.Close())
}
