// Package metrics records run statistics for the node_exporter textfile collector.
package metrics

import (
	"fmt"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/donaldgifford/imagereport/internal/catalog"
)

const namespace = "imagereport"

// Exporter holds the metrics of a single generate run on a private registry.
type Exporter struct {
	registry *prometheus.Registry

	imagesFetched  prometheus.Gauge
	imagesSelected prometheus.Gauge
	resolutions    *prometheus.CounterVec
	requests       *prometheus.CounterVec
	duration       prometheus.Gauge
	lastSuccess    prometheus.Gauge
}

// NewExporter creates an Exporter with all metrics registered.
func NewExporter() *Exporter {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	return &Exporter{
		registry: reg,
		imagesFetched: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "images_fetched",
			Help:      "Repositories returned by the catalog before filtering.",
		}),
		imagesSelected: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "images_selected",
			Help:      "Images written to the workflow after filtering.",
		}),
		resolutions: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "tag_resolutions_total",
			Help:      "Resolved tags by how they were chosen.",
		}, []string{"source"}),
		requests: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "hub_requests_total",
			Help:      "Requests sent to the registry API.",
		}, []string{"code", "method"}),
		duration: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "run_duration_seconds",
			Help:      "Wall time of the last run.",
		}),
		lastSuccess: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "last_success_timestamp_seconds",
			Help:      "Unix time of the last successful run.",
		}),
	}
}

// InstrumentTransport wraps next so every request is counted.
func (e *Exporter) InstrumentTransport(next http.RoundTripper) http.RoundTripper {
	if next == nil {
		next = http.DefaultTransport
	}

	return promhttp.InstrumentRoundTripperCounter(e.requests, next)
}

// ObserveCatalog records the catalog size before and after the deny-list.
func (e *Exporter) ObserveCatalog(fetched, selected int) {
	e.imagesFetched.Set(float64(fetched))
	e.imagesSelected.Set(float64(selected))
}

// ObserveImages counts tag resolutions by source.
func (e *Exporter) ObserveImages(images []catalog.EnrichedImage) {
	for i := range images {
		e.resolutions.With(prometheus.Labels{"source": string(images[i].Source)}).Inc()
	}
}

// ObserveSuccess records the run duration and completion time.
func (e *Exporter) ObserveSuccess(started, finished time.Time) {
	e.duration.Set(finished.Sub(started).Seconds())
	e.lastSuccess.Set(float64(finished.Unix()))
}

// Registry exposes the underlying registry.
func (e *Exporter) Registry() *prometheus.Registry {
	return e.registry
}

// WriteTextfile writes all metrics to path in the text exposition format.
func (e *Exporter) WriteTextfile(path string) error {
	if err := prometheus.WriteToTextfile(path, e.registry); err != nil {
		return fmt.Errorf("writing metrics to %s: %w", path, err)
	}

	return nil
}
