package metrics

import (
	"net/http"
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/grocerycalc/backend/internal/domain"
)

// Prometheus records sync, scan and cart counters on its own registry
type Prometheus struct {
	registry *prometheus.Registry
	syncs    *prometheus.CounterVec
	scans    *prometheus.CounterVec
	cartOps  *prometheus.CounterVec
}

// NewPrometheus creates and registers the collectors
func NewPrometheus() *Prometheus {
	p := &Prometheus{
		registry: prometheus.NewRegistry(),
		syncs: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "grocerycalc",
			Name:      "catalog_syncs_total",
			Help:      "Catalog syncs by outcome and whether the stored snapshot was used.",
		}, []string{"outcome", "offline"}),
		scans: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "grocerycalc",
			Name:      "scans_total",
			Help:      "Barcode scans by resolution outcome.",
		}, []string{"outcome"}),
		cartOps: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "grocerycalc",
			Name:      "cart_operations_total",
			Help:      "Applied cart operations by kind.",
		}, []string{"op"}),
	}
	p.registry.MustRegister(p.syncs, p.scans, p.cartOps)
	return p
}

// ObserveSync counts a finished catalog sync
func (p *Prometheus) ObserveSync(outcome domain.Outcome, offline bool) {
	p.syncs.WithLabelValues(string(outcome), strconv.FormatBool(offline)).Inc()
}

// ObserveScan counts a barcode resolution
func (p *Prometheus) ObserveScan(outcome domain.Outcome) {
	p.scans.WithLabelValues(string(outcome)).Inc()
}

// ObserveCartOperation counts an applied cart change (confirm, increment, decrement, remove)
func (p *Prometheus) ObserveCartOperation(op string) {
	p.cartOps.WithLabelValues(op).Inc()
}

// Handler serves the registry in the Prometheus exposition format
func (p *Prometheus) Handler() http.Handler {
	return promhttp.HandlerFor(p.registry, promhttp.HandlerOpts{})
}
