package raster

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const (
	kindLabel = "kind"

	kindBox   = "box"
	kindPoint = "point"
)

var (
	footprintCountTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "footprint_count_total",
		Help: "The total number of rasterized footprints.",
	}, []string{kindLabel})

	footprintClampedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "footprint_clamped_total",
		Help: "The total number of footprints clamped to the grid bounds.",
	})
)

func instrumentFootprint(fp Footprint) {
	kind := kindBox
	if fp.Degenerate {
		kind = kindPoint
	}

	footprintCountTotal.
		With(prometheus.Labels{kindLabel: kind}).
		Inc()

	if fp.Clamped {
		footprintClampedTotal.Inc()
	}
}
