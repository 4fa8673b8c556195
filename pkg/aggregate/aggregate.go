// Package aggregate keeps the total number of changes pending between
// the current and pending snapshots of a CDN. The total is the number
// of changed global config fields plus the latest count reported by
// each registered category.
package aggregate

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/go-kit/kit/log"
	"github.com/pkg/errors"
	"golang.org/x/sync/errgroup"

	"github.com/cdnctl/snapdiff/pkg/category"
	"github.com/cdnctl/snapdiff/pkg/diff"
	snapmetrics "github.com/cdnctl/snapdiff/pkg/metrics"
	"github.com/cdnctl/snapdiff/pkg/snapshot"
)

// Fetcher supplies the two snapshots to compare.
type Fetcher interface {
	Current(context.Context) (*snapshot.Snapshot, error)
	Pending(context.Context) (*snapshot.Snapshot, error)
}

type registration struct {
	controller *category.Controller
	pairs      chan snapshot.Pair
}

type Aggregator struct {
	fetcher Fetcher
	logger  log.Logger

	mu            sync.Mutex
	pair          *snapshot.Pair
	global        diff.RecordDiff
	resolved      bool
	counts        map[string]int
	registrations map[string]*registration
	order         []string
	disposed      bool
}

func New(fetcher Fetcher, logger log.Logger) *Aggregator {
	if logger == nil {
		logger = log.NewNopLogger()
	}
	return &Aggregator{
		fetcher:       fetcher,
		logger:        log.With(logger, "component", "aggregate"),
		counts:        map[string]int{},
		registrations: map[string]*registration{},
	}
}

// Register creates a controller for the category and subscribes it to
// every pair the aggregator sees from now on. If a pair has already
// been fetched the controller gets it straight away. A category
// registered under a name already in use replaces the earlier one,
// which is disposed.
func (a *Aggregator) Register(strategy category.Strategy) *category.Controller {
	reg := &registration{
		pairs: make(chan snapshot.Pair, 1),
	}
	reg.controller = category.New(strategy, func(name string, n int) {
		a.report(reg, name, n)
	}, a.logger)
	name := strategy.Name()

	a.mu.Lock()
	if a.disposed {
		a.mu.Unlock()
		reg.controller.Dispose()
		return reg.controller
	}
	old, remount := a.registrations[name]
	a.registrations[name] = reg
	if !remount {
		a.order = append(a.order, name)
	}
	// offered under mu, so a Refresh can only displace it with a newer
	// pair
	if a.pair != nil {
		offer(reg.pairs, *a.pair)
	}
	a.mu.Unlock()

	if remount {
		a.logger.Log("category", name, "info", "replacing registered category")
		old.controller.Dispose()
	}
	if err := reg.controller.Subscribe(reg.pairs); err != nil {
		// a fresh controller is always subscribable
		a.logger.Log("category", name, "err", err)
	}
	return reg.controller
}

// offer puts the pair on the channel, displacing any pair that hasn't
// been picked up yet. It never blocks, so it is called with a.mu held;
// that way the order pairs are offered in is the order they are stored.
func offer(pairs chan snapshot.Pair, pair snapshot.Pair) {
	for {
		select {
		case pairs <- pair:
			return
		default:
		}
		select {
		case <-pairs:
		default:
		}
	}
}

// Refresh fetches both snapshots, diffs their global config and hands
// the pair to every registered category. If either fetch fails nothing
// is diffed and the previous state stands.
func (a *Aggregator) Refresh(ctx context.Context) (err error) {
	started := time.Now().UTC()
	defer func() {
		refreshDuration.With(
			snapmetrics.LabelSuccess, fmt.Sprint(err == nil),
		).Observe(time.Since(started).Seconds())
	}()

	if a.isDisposed() {
		return nil
	}

	var current, pending *snapshot.Snapshot
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		s, err := a.fetcher.Current(gctx)
		if err != nil {
			return errors.Wrap(err, "fetching current snapshot")
		}
		current = s
		return nil
	})
	g.Go(func() error {
		s, err := a.fetcher.Pending(gctx)
		if err != nil {
			return errors.Wrap(err, "fetching pending snapshot")
		}
		pending = s
		return nil
	})
	if err := g.Wait(); err != nil {
		return err
	}

	previousConfig, err := current.GlobalConfig()
	if err != nil {
		return errors.Wrap(err, "current snapshot")
	}
	pendingConfig, err := pending.GlobalConfig()
	if err != nil {
		return errors.Wrap(err, "pending snapshot")
	}
	if err := snapshot.CheckVersions(current, pending); err != nil {
		a.logger.Log("warning", err)
	}
	global := diff.DiffRecord(previousConfig, pendingConfig)
	pair := snapshot.Pair{Current: current, Pending: pending}

	a.mu.Lock()
	if a.disposed {
		a.mu.Unlock()
		return nil
	}
	a.pair = &pair
	a.global = global
	a.resolved = true
	regs := a.registrationsLocked()
	for _, reg := range regs {
		offer(reg.pairs, pair)
	}
	total := a.publishLocked()
	a.mu.Unlock()

	a.logger.Log("config", global.ChangedFieldCount, "total", total, "categories", len(regs))
	return nil
}

func (a *Aggregator) report(reg *registration, name string, n int) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.registrations[name] != reg {
		// a replaced controller finishing late
		return
	}
	a.reportLocked(name, n)
}

// Report records the latest count for a category. It replaces any
// count reported before for the same name.
func (a *Aggregator) Report(name string, n int) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.reportLocked(name, n)
}

func (a *Aggregator) reportLocked(name string, n int) {
	if a.disposed {
		return
	}
	a.counts[name] = n
	pendingChanges.With(snapmetrics.LabelCategory, name).Set(float64(n))
	total := a.publishLocked()
	a.logger.Log("category", name, "changes", n, "total", total)
}

// publishLocked updates the gauges and returns the total.
func (a *Aggregator) publishLocked() int {
	total := a.totalLocked()
	if a.resolved {
		pendingChanges.With(snapmetrics.LabelCategory, snapmetrics.CategoryConfig).Set(float64(a.global.ChangedFieldCount))
		pendingChanges.With(snapmetrics.LabelCategory, snapmetrics.CategoryTotal).Set(float64(total))
	}
	return total
}

func (a *Aggregator) totalLocked() int {
	total := a.global.ChangedFieldCount
	for _, n := range a.counts {
		total += n
	}
	return total
}

// TotalChangesPending is the number of changed global config fields
// plus the latest count from each category. Categories which have not
// reported count as zero. It is not known until the first successful
// Refresh.
func (a *Aggregator) TotalChangesPending() (int, bool) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if !a.resolved {
		return 0, false
	}
	return a.totalLocked(), true
}

// GlobalDiff is the diff of the config sections from the last
// successful Refresh.
func (a *Aggregator) GlobalDiff() (diff.RecordDiff, bool) {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.global, a.resolved
}

// Pair returns the snapshots from the last successful Refresh.
func (a *Aggregator) Pair() (snapshot.Pair, bool) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.pair == nil {
		return snapshot.Pair{}, false
	}
	return *a.pair, true
}

// Counts returns the latest reported count for each category.
func (a *Aggregator) Counts() map[string]int {
	a.mu.Lock()
	defer a.mu.Unlock()
	counts := make(map[string]int, len(a.counts))
	for name, n := range a.counts {
		counts[name] = n
	}
	return counts
}

// Controllers returns the registered controllers in the order their
// categories were first registered.
func (a *Aggregator) Controllers() []*category.Controller {
	a.mu.Lock()
	defer a.mu.Unlock()
	var cs []*category.Controller
	for _, reg := range a.registrationsLocked() {
		cs = append(cs, reg.controller)
	}
	return cs
}

func (a *Aggregator) registrationsLocked() []*registration {
	regs := make([]*registration, 0, len(a.order))
	for _, name := range a.order {
		regs = append(regs, a.registrations[name])
	}
	return regs
}

func (a *Aggregator) isDisposed() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.disposed
}

// Dispose disposes every registered controller. Afterwards Refresh and
// Report do nothing, and counts already reported are kept.
func (a *Aggregator) Dispose() {
	a.mu.Lock()
	if a.disposed {
		a.mu.Unlock()
		return
	}
	a.disposed = true
	regs := a.registrationsLocked()
	a.mu.Unlock()

	for _, reg := range regs {
		reg.controller.Dispose()
	}
}
