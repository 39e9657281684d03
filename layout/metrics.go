package layout

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/warehousesim/gridexport/raster"
)

const (
	familyLabel = "family"

	familyShelf   = "shelf"
	familyMachine = "machine"
	familyAgent   = "agent"
	familyPickup  = "pickup"
	familyDrop    = "drop"
)

var (
	familyFootprintCountTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "layout_footprint_count_total",
		Help: "The total number of exported footprints.",
	}, []string{familyLabel})

	familyDegenerateCountTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "layout_degenerate_footprint_count_total",
		Help: "The total number of objects exported as a single cell because they had no geometry.",
	}, []string{familyLabel})

	buildDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "layout_build_duration_seconds",
		Help:    "The time spent building a layout.",
		Buckets: prometheus.ExponentialBuckets(0.0001, 4, 8),
	})

	snapshotCount = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "layout_snapshot_count",
		Help: "The number of stored layout snapshots.",
	})
)

func instrumentFamily(family string, fp raster.Footprint) {
	labels := prometheus.Labels{familyLabel: family}

	familyFootprintCountTotal.With(labels).Inc()
	if fp.Degenerate {
		familyDegenerateCountTotal.With(labels).Inc()
	}
}

func instrumentBuild(d time.Duration) {
	buildDuration.Observe(d.Seconds())
}

func instrumentSnapshotGauge(count int) {
	snapshotCount.Set(float64(count))
}
