package aggregate

import (
	"github.com/go-kit/kit/metrics/prometheus"
	stdprometheus "github.com/prometheus/client_golang/prometheus"

	snapmetrics "github.com/cdnctl/snapdiff/pkg/metrics"
)

var (
	pendingChanges = prometheus.NewGaugeFrom(stdprometheus.GaugeOpts{
		Namespace: "snapdiff",
		Subsystem: "aggregate",
		Name:      "pending_changes",
		Help:      "Changes pending between the current and pending snapshots, by category.",
	}, []string{snapmetrics.LabelCategory})

	refreshDuration = prometheus.NewHistogramFrom(stdprometheus.HistogramOpts{
		Namespace: "snapdiff",
		Subsystem: "aggregate",
		Name:      "refresh_duration_seconds",
		Help:      "Duration of fetching and diffing both snapshots, in seconds.",
		Buckets:   stdprometheus.ExponentialBuckets(0.01, 3, 8),
	}, []string{snapmetrics.LabelSuccess})
)
