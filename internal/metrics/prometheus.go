package metrics

import (
	"net/http"
	"time"

	prom "github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// PrometheusRecorder implements Recorder on a Prometheus registry.
type PrometheusRecorder struct {
	imagesProcessed *prom.CounterVec
	renames         *prom.CounterVec
	linkRewrites    *prom.CounterVec
	imagesTrashed   *prom.CounterVec
	scanDuration    *prom.HistogramVec
}

// NewPrometheusRecorder constructs and registers the engine's metrics.
func NewPrometheusRecorder(reg *prom.Registry) *PrometheusRecorder {
	if reg == nil {
		reg = prom.NewRegistry()
	}
	pr := &PrometheusRecorder{
		imagesProcessed: prom.NewCounterVec(prom.CounterOpts{
			Namespace: "pictor",
			Name:      "images_processed_total",
			Help:      "Images taken through the insert pipeline, by entry point",
		}, []string{"source"}),
		renames: prom.NewCounterVec(prom.CounterOpts{
			Namespace: "pictor",
			Name:      "renames_total",
			Help:      "Image renames by outcome",
		}, []string{"outcome"}),
		linkRewrites: prom.NewCounterVec(prom.CounterOpts{
			Namespace: "pictor",
			Name:      "link_rewrites_total",
			Help:      "Document link rewrites by operation",
		}, []string{"op"}),
		imagesTrashed: prom.NewCounterVec(prom.CounterOpts{
			Namespace: "pictor",
			Name:      "images_trashed_total",
			Help:      "Images moved to trash by reason",
		}, []string{"reason"}),
		scanDuration: prom.NewHistogramVec(prom.HistogramOpts{
			Namespace: "pictor",
			Name:      "scan_duration_seconds",
			Help:      "Duration of vault scans",
			Buckets:   prom.DefBuckets,
		}, []string{"kind"}),
	}
	reg.MustRegister(pr.imagesProcessed, pr.renames, pr.linkRewrites, pr.imagesTrashed, pr.scanDuration)
	return pr
}

func (p *PrometheusRecorder) IncImageProcessed(source string) {
	if p == nil || p.imagesProcessed == nil {
		return
	}
	p.imagesProcessed.WithLabelValues(source).Inc()
}

func (p *PrometheusRecorder) IncRename(outcome Outcome) {
	if p == nil || p.renames == nil {
		return
	}
	p.renames.WithLabelValues(string(outcome)).Inc()
}

func (p *PrometheusRecorder) IncLinkRewrite(op string) {
	if p == nil || p.linkRewrites == nil {
		return
	}
	p.linkRewrites.WithLabelValues(op).Inc()
}

func (p *PrometheusRecorder) IncImageTrashed(reason string) {
	if p == nil || p.imagesTrashed == nil {
		return
	}
	p.imagesTrashed.WithLabelValues(reason).Inc()
}

func (p *PrometheusRecorder) ObserveScanDuration(kind string, d time.Duration) {
	if p == nil || p.scanDuration == nil {
		return
	}
	p.scanDuration.WithLabelValues(kind).Observe(d.Seconds())
}

// HTTPHandler serves the registry in Prometheus exposition format.
func HTTPHandler(reg *prom.Registry) http.Handler {
	return promhttp.HandlerFor(reg, promhttp.HandlerOpts{EnableOpenMetrics: true})
}
