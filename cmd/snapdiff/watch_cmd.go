package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/go-kit/kit/log"
	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"

	"github.com/cdnctl/snapdiff/pkg/aggregate"
	"github.com/cdnctl/snapdiff/pkg/category"
	"github.com/cdnctl/snapdiff/pkg/snapshot"
)

type watchOpts struct {
	*rootOpts
}

func newWatch(root *rootOpts) *watchOpts {
	return &watchOpts{rootOpts: root}
}

func (opts *watchOpts) Command() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "watch CURRENT PENDING",
		Short: "Reread both snapshots periodically, logging the total changes pending and serving /metrics",
		RunE:  opts.RunE,
	}
	cmd.Flags().Duration("interval", 0, "how often to reread the snapshots (default 30s)")
	cmd.Flags().String("listen-metrics", "", "listen address for the /metrics endpoint (default :9393)")
	cmd.Flags().StringSlice("category", nil, "categories to watch, e.g., servers,routers; all of them if not given")
	return cmd
}

func (opts *watchOpts) RunE(cmd *cobra.Command, args []string) error {
	if len(args) != 2 {
		return errorWantedTwoSnapshots
	}
	strategies, err := opts.strategies()
	if err != nil {
		return err
	}
	logger := opts.Logger

	agg := aggregate.New(snapshot.Files{CurrentPath: args[0], PendingPath: args[1]}, logger)
	for _, s := range strategies {
		agg.Register(s)
	}
	defer agg.Dispose()

	errc := make(chan error)

	// Shutdown trigger
	go func() {
		c := make(chan os.Signal, 1)
		signal.Notify(c, syscall.SIGINT, syscall.SIGTERM)
		errc <- fmt.Errorf("%s", <-c)
	}()

	// Metrics
	go func() {
		logger.Log("addr", opts.Config.ListenMetrics, "info", "serving /metrics")
		router := mux.NewRouter()
		router.Handle("/metrics", promhttp.Handler())
		errc <- http.ListenAndServe(opts.Config.ListenMetrics, router)
	}()

	shutdown := make(chan struct{})
	shutdownWg := &sync.WaitGroup{}
	shutdownWg.Add(1)
	go watchLoop(cmd.Context(), agg, opts.Config.WatchInterval, logger, shutdown, shutdownWg)

	logger.Log("exiting", <-errc)
	close(shutdown)
	shutdownWg.Wait()
	return nil
}

// watchLoop refreshes the aggregate every interval until told to stop,
// and logs the total whenever it is different.
func watchLoop(ctx context.Context, agg *aggregate.Aggregator, interval time.Duration, logger log.Logger, stop chan struct{}, wg *sync.WaitGroup) {
	defer wg.Done()

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	last := -1
	refresh := func() {
		if err := agg.Refresh(ctx); err != nil {
			logger.Log("err", err)
		}
	}
	report := func() {
		total, ok := agg.TotalChangesPending()
		if ok && total != last {
			logger.Log("total", total, "pending", category.PendingChangesStr(total))
			last = total
		}
	}

	refresh()
	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			// category counts from the previous refresh have had an
			// interval to arrive
			report()
			refresh()
		}
	}
}
