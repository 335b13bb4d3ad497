package cli

import (
	"context"
	"fmt"
	"log"
	"os"
	"sync"
	"sync/atomic"
	"time"

	"github.com/robfig/cron/v3"
)

// SuiteFunc runs the suite once. ctx is cancelled when the watcher stops.
type SuiteFunc func(ctx context.Context) error

// Watcher runs the suite on a cron schedule. Runs never overlap: a tick that
// arrives while the previous run is still going is skipped.
type Watcher struct {
	spec     string
	schedule cron.Schedule
	cron     *cron.Cron
	run      SuiteFunc
	logger   *log.Logger

	busy    atomic.Bool
	runs    atomic.Int64
	skipped atomic.Int64

	mu     sync.Mutex
	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

var scheduleParser = cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor)

// NewWatcher parses spec, a five-field cron expression or a descriptor such
// as "@every 15m" or "@hourly". Schedules are evaluated in UTC.
func NewWatcher(spec string, run SuiteFunc, logger *log.Logger) (*Watcher, error) {
	schedule, err := scheduleParser.Parse(spec)
	if err != nil {
		return nil, fmt.Errorf("invalid schedule %q: %w", spec, err)
	}
	if logger == nil {
		logger = log.New(os.Stdout, "[watch] ", log.LstdFlags)
	}
	return &Watcher{
		spec:     spec,
		schedule: schedule,
		cron:     cron.New(cron.WithLocation(time.UTC), cron.WithLogger(cron.PrintfLogger(logger))),
		run:      run,
		logger:   logger,
	}, nil
}

// Start schedules the suite. With runNow the first run starts immediately
// instead of waiting for the first tick.
func (w *Watcher) Start(ctx context.Context, runNow bool) {
	w.mu.Lock()
	w.ctx, w.cancel = context.WithCancel(ctx)
	w.mu.Unlock()

	w.cron.Schedule(w.schedule, cron.FuncJob(func() { w.Trigger() }))
	w.cron.Start()
	w.logger.Printf("Suite scheduled %q, next run at %s", w.spec, w.Next().Format(time.RFC3339))
	if runNow {
		w.wg.Add(1)
		go func() {
			defer w.wg.Done()
			w.Trigger()
		}()
	}
}

// Trigger runs the suite now unless a run is already in progress. It
// reports whether it ran.
func (w *Watcher) Trigger() bool {
	if !w.busy.CompareAndSwap(false, true) {
		w.skipped.Add(1)
		w.logger.Printf("Previous run still in progress, skipping")
		return false
	}
	defer w.busy.Store(false)

	w.mu.Lock()
	ctx := w.ctx
	w.mu.Unlock()
	if ctx == nil {
		ctx = context.Background()
	}

	w.runs.Add(1)
	start := time.Now()
	if err := w.run(ctx); err != nil {
		w.logger.Printf("Suite run failed after %s: %v", time.Since(start).Round(time.Millisecond), err)
	} else {
		w.logger.Printf("Suite run passed in %s", time.Since(start).Round(time.Millisecond))
	}
	return true
}

// Next is the time of the next scheduled run.
func (w *Watcher) Next() time.Time {
	return w.schedule.Next(time.Now().In(time.UTC))
}

// Runs counts suite runs started so far.
func (w *Watcher) Runs() int64 {
	return w.runs.Load()
}

// Skipped counts ticks dropped because a run was in progress.
func (w *Watcher) Skipped() int64 {
	return w.skipped.Load()
}

// Stop stops scheduling and waits up to timeout for an in-flight run, then
// cancels it and waits for it to return.
func (w *Watcher) Stop(timeout time.Duration) {
	cronDone := w.cron.Stop().Done()
	done := make(chan struct{})
	go func() {
		<-cronDone
		w.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(timeout):
		w.logger.Printf("Run still in progress after %s, cancelling", timeout)
		w.mu.Lock()
		if w.cancel != nil {
			w.cancel()
		}
		w.mu.Unlock()
		<-done
	}

	w.mu.Lock()
	if w.cancel != nil {
		w.cancel()
	}
	w.mu.Unlock()
}
