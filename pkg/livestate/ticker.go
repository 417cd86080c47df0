package livestate

import (
	"context"
	"log/slog"
	"time"
)

// TickSink receives one call per running timer per tick. Implementations
// build the wire payload and fan it out; they must log their own delivery
// failures and never block long enough to starve the next tick.
type TickSink interface {
	TimerTick(ctx context.Context, project, channel string, objectID int64, state TimerState)
}

// Ticker advances every running timer once per interval and hands the
// projected states to the sink. Exactly one Ticker runs per process.
//
// Each tick snapshots the running timers under the store's locks, then
// delivers outside them, so a slow recipient never blocks timer math or
// concurrent store mutations.
type Ticker struct {
	store    *Store
	sink     TickSink
	interval time.Duration

	cancel context.CancelFunc
	done   chan struct{}
}

// NewTicker creates a ticker. The production interval is one second; tests
// pass something shorter.
func NewTicker(store *Store, sink TickSink, interval time.Duration) *Ticker {
	if store == nil {
		panic("NewTicker: store must not be nil")
	}
	if sink == nil {
		panic("NewTicker: sink must not be nil")
	}
	if interval <= 0 {
		interval = time.Second
	}
	return &Ticker{
		store:    store,
		sink:     sink,
		interval: interval,
	}
}

// Start launches the background tick loop.
func (t *Ticker) Start(ctx context.Context) {
	if t.cancel != nil {
		return
	}
	ctx, t.cancel = context.WithCancel(ctx)
	t.done = make(chan struct{})

	go t.run(ctx)

	slog.Info("Timer ticker started", "interval", t.interval)
}

// Stop signals the tick loop to exit and waits for it to finish.
func (t *Ticker) Stop() {
	if t.cancel == nil {
		return
	}
	t.cancel()
	<-t.done
	slog.Info("Timer ticker stopped")
}

func (t *Ticker) run(ctx context.Context) {
	defer close(t.done)

	ticker := time.NewTicker(t.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			t.tick(ctx)
		}
	}
}

func (t *Ticker) tick(ctx context.Context) {
	for _, rt := range t.store.RunningTimers() {
		t.sink.TimerTick(ctx, rt.Project, rt.Channel, rt.ObjectID, rt.State)
	}
}
