package extensions

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	reactive "github.com/JhonaCodes/reactive-notifier-sub001"
)

// MetricsExtension exports cell lifecycle counters and a live-cell gauge.
type MetricsExtension struct {
	reactive.BaseExtension

	liveCells    prometheus.Gauge
	created      *prometheus.CounterVec
	changes      *prometheus.CounterVec
	asyncSettles *prometheus.CounterVec
	disposed     *prometheus.CounterVec
}

// NewMetricsExtension creates a metrics extension registered on reg.
func NewMetricsExtension(reg prometheus.Registerer) *MetricsExtension {
	factory := promauto.With(reg)
	return &MetricsExtension{
		BaseExtension: reactive.NewBaseExtension("metrics"),
		liveCells: factory.NewGauge(prometheus.GaugeOpts{
			Name: "reactive_cells_live",
			Help: "Number of live cells in the registry.",
		}),
		created: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "reactive_cells_created_total",
			Help: "Cells created, including resurrections.",
		}, []string{"type"}),
		changes: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "reactive_cell_changes_total",
			Help: "Cell mutations by operation kind.",
		}, []string{"type", "op"}),
		asyncSettles: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "reactive_async_settles_total",
			Help: "Async loads settled, by outcome.",
		}, []string{"type", "outcome"}),
		disposed: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "reactive_cells_disposed_total",
			Help: "Cells disposed.",
		}, []string{"type"}),
	}
}

func (e *MetricsExtension) OnCreate(cell reactive.AnyCell) {
	e.liveCells.Inc()
	e.created.WithLabelValues(cell.TypeName()).Inc()
}

func (e *MetricsExtension) OnChange(cell reactive.AnyCell, kind reactive.OperationKind) {
	e.changes.WithLabelValues(cell.TypeName(), string(kind)).Inc()
	switch kind {
	case reactive.OpAsyncSuccess:
		e.asyncSettles.WithLabelValues(cell.TypeName(), "success").Inc()
	case reactive.OpAsyncError:
		e.asyncSettles.WithLabelValues(cell.TypeName(), "error").Inc()
	}
}

func (e *MetricsExtension) OnDispose(cell reactive.AnyCell) {
	e.liveCells.Dec()
	e.disposed.WithLabelValues(cell.TypeName()).Inc()
}
