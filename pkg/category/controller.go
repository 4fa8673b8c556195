package category

import (
	"context"
	"sync"
	"sync/atomic"

	"github.com/go-kit/kit/log"
	"github.com/looplab/fsm"
	"github.com/pkg/errors"

	"github.com/cdnctl/snapdiff/pkg/diff"
	"github.com/cdnctl/snapdiff/pkg/snapshot"
)

const (
	StateUninitialized = "uninitialized"
	StateAwaiting      = "awaiting-snapshots"
	StateComputed      = "computed"
	StateDisposed      = "disposed"

	eventSubscribe = "subscribe"
	eventCompute   = "compute"
	eventDispose   = "dispose"
)

// Listener is told a category's count each time it is recomputed.
type Listener func(name string, numChanges int)

// Controller keeps the entity diff for one category up to date as
// snapshot pairs arrive, and tells its listener the new count after
// every recomputation.
type Controller struct {
	strategy Strategy
	listener Listener
	logger   log.Logger

	// disposing is set before Dispose waits for mu, so a computation
	// already under way when Dispose is called drops its result.
	disposing atomic.Bool
	// mu is held across compute and notify, so once Dispose has it no
	// notification can follow.
	mu         sync.Mutex
	machine    *fsm.FSM
	result     diff.EntityDiff
	numChanges int
	err        error

	stop chan struct{}
	wg   sync.WaitGroup
}

func New(strategy Strategy, listener Listener, logger log.Logger) *Controller {
	if logger == nil {
		logger = log.NewNopLogger()
	}
	c := &Controller{
		strategy: strategy,
		listener: listener,
		logger:   log.With(logger, "component", "category", "category", strategy.Name()),
		result:   diff.MakeEntityDiff(),
		stop:     make(chan struct{}),
	}
	c.machine = fsm.NewFSM(
		StateUninitialized,
		fsm.Events{
			{Name: eventSubscribe, Src: []string{StateUninitialized}, Dst: StateAwaiting},
			{Name: eventCompute, Src: []string{StateUninitialized, StateAwaiting}, Dst: StateComputed},
			{Name: eventDispose, Src: []string{StateUninitialized, StateAwaiting, StateComputed}, Dst: StateDisposed},
		},
		fsm.Callbacks{
			"enter_state": func(_ context.Context, e *fsm.Event) {
				c.logger.Log("event", e.Event, "from", e.Src, "to", e.Dst)
			},
		},
	)
	return c
}

func (c *Controller) Name() string {
	return c.strategy.Name()
}

func (c *Controller) State() string {
	return c.machine.Current()
}

// Result is the last computed diff. Before the first computation it is
// empty.
func (c *Controller) Result() diff.EntityDiff {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.result
}

func (c *Controller) NumChanges() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.numChanges
}

// Err is the error from the most recent pair, if it could not be
// diffed.
func (c *Controller) Err() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.err
}

// Subscribe starts consuming pairs from the channel until it is closed
// or the controller is disposed. A controller subscribes at most once.
func (c *Controller) Subscribe(pairs <-chan snapshot.Pair) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.machine.Event(context.Background(), eventSubscribe); err != nil {
		return errors.Wrapf(err, "subscribing category %s", c.Name())
	}
	c.wg.Add(1)
	go c.loop(pairs)
	return nil
}

func (c *Controller) loop(pairs <-chan snapshot.Pair) {
	defer c.wg.Done()
	for {
		select {
		case <-c.stop:
			return
		case pair, ok := <-pairs:
			if !ok {
				return
			}
			// OnSnapshots records and logs its own errors
			_ = c.OnSnapshots(pair)
		}
	}
}

// OnSnapshots diffs this category's entities across the pair, stores
// the result and notifies the listener once. If either side cannot be
// extracted the previous result is kept, the error is recorded and
// the listener is not told. After Dispose it does nothing.
func (c *Controller) OnSnapshots(pair snapshot.Pair) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.disposing.Load() {
		return nil
	}

	previous, err := c.strategy.Extract(pair.Current)
	if err != nil {
		return c.fail(errors.Wrapf(err, "extracting %s from current snapshot", c.Name()))
	}
	current, err := c.strategy.Extract(pair.Pending)
	if err != nil {
		return c.fail(errors.Wrapf(err, "extracting %s from pending snapshot", c.Name()))
	}

	result := diff.DiffEntities(previous, current)
	if c.disposing.Load() {
		return nil
	}
	c.result = result
	c.numChanges = c.result.NumChanges()
	c.err = nil
	if !c.machine.Is(StateComputed) {
		if err := c.machine.Event(context.Background(), eventCompute); err != nil {
			return errors.Wrapf(err, "computing category %s", c.Name())
		}
	}

	c.logger.Log("new", len(c.result.New), "deleted", len(c.result.Deleted), "changed", len(c.result.Changed), "unchanged", len(c.result.Unchanged))
	if c.listener != nil {
		c.listener(c.Name(), c.numChanges)
	}
	return nil
}

func (c *Controller) fail(err error) error {
	c.err = err
	c.logger.Log("err", err)
	return err
}

// Dispose stops the controller. Once it is called the listener will
// not be called again, even for a pair that was already being
// processed. It must not be called from the listener.
func (c *Controller) Dispose() {
	c.disposing.Store(true)
	c.mu.Lock()
	if c.machine.Is(StateDisposed) {
		c.mu.Unlock()
		return
	}
	if err := c.machine.Event(context.Background(), eventDispose); err != nil {
		c.logger.Log("err", err)
	}
	close(c.stop)
	c.mu.Unlock()
	c.wg.Wait()
}
