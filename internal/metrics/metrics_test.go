package metrics

import (
	"testing"
	"time"

	prom "github.com/prometheus/client_golang/prometheus"
)

var (
	_ Recorder = NoopRecorder{}
	_ Recorder = (*PrometheusRecorder)(nil)
)

func TestPrometheusRecorder(t *testing.T) {
	reg := prom.NewRegistry()
	pr := NewPrometheusRecorder(reg)
	pr.IncImageProcessed("paste")
	pr.IncRename(OutcomeSuccess)
	pr.IncLinkRewrite("caption_set")
	pr.IncImageTrashed("orphan")
	pr.ObserveScanDuration("orphan", 20*time.Millisecond)

	// Basic scrape to ensure metrics encode without panic.
	mfs, err := reg.Gather()
	if err != nil {
		t.Fatalf("gather: %v", err)
	}
	if len(mfs) != 5 {
		t.Fatalf("metric families = %d, want 5", len(mfs))
	}
}

func TestPrometheusRecorder_NilReceiver(t *testing.T) {
	var pr *PrometheusRecorder
	pr.IncImageProcessed("watcher")
	pr.IncRename(OutcomeFailed)
	pr.IncLinkRewrite("retarget")
	pr.IncImageTrashed("link_removed")
	pr.ObserveScanDuration("sync", time.Second)
}
