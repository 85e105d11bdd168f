// Package metrics defines the observability hooks recorded by the engine.
// The Recorder interface decouples callers from Prometheus; NoopRecorder is
// the default when metrics are not configured.
package metrics

import "time"

// Outcome labels rename results.
type Outcome string

const (
	OutcomeSuccess Outcome = "success"
	OutcomeFailed  Outcome = "failed"
)

// Recorder defines the hooks recorded across the engine. Implementations
// must tolerate nil receivers so wiring can inject a recorder optionally.
type Recorder interface {
	IncImageProcessed(source string) // source: paste|watcher|api|mcp
	IncRename(outcome Outcome)
	IncLinkRewrite(op string)      // op: caption_set|caption_removed|retarget
	IncImageTrashed(reason string) // reason: orphan|link_removed
	ObserveScanDuration(kind string, d time.Duration)
}

// NoopRecorder is a Recorder that does nothing.
type NoopRecorder struct{}

func (NoopRecorder) IncImageProcessed(string)                  {}
func (NoopRecorder) IncRename(Outcome)                         {}
func (NoopRecorder) IncLinkRewrite(string)                     {}
func (NoopRecorder) IncImageTrashed(string)                    {}
func (NoopRecorder) ObserveScanDuration(string, time.Duration) {}
