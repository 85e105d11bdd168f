// Package naming resolves collision-free vault paths for new image files
// under a configurable naming policy.
package naming

import (
	"fmt"
	"log/slog"
	"path"
	"strings"
	"time"

	"github.com/starford/pictor/internal/filename"
)

// Policy selects how candidate names are generated.
type Policy string

const (
	// PolicySequential probes "{base} {n}.{ext}" from n=1 upward.
	PolicySequential Policy = "sequential"
	// PolicyTimestamp uses "{base} {timestamp}.{ext}" and falls back to a
	// "-{n}" suffix when two files land in the same timestamp.
	PolicyTimestamp Policy = "timestamp"
)

// probeWarnThreshold is the probe count past which a resolution is logged as
// pathological. Probing continues; the condition is non-fatal.
const probeWarnThreshold = 1000

// Host is the filesystem surface the resolver needs.
type Host interface {
	Exists(path string) bool
	EnsureFolder(dir string) error
}

// Resolver produces collision-free paths. The zero clock and logger default
// to time.Now and slog.Default.
type Resolver struct {
	host    Host
	policy  Policy
	pattern string // timestamp token pattern, PolicyTimestamp only
	now     func() time.Time
	logger  *slog.Logger
}

// New creates a Resolver over host with the given policy. pattern is the
// timestamp token pattern and may be empty for the default.
func New(host Host, policy Policy, pattern string, logger *slog.Logger) *Resolver {
	if logger == nil {
		logger = slog.Default()
	}
	return &Resolver{
		host:    host,
		policy:  policy,
		pattern: pattern,
		now:     time.Now,
		logger:  logger,
	}
}

// WithClock replaces the resolver's time source. Used by tests.
func (r *Resolver) WithClock(now func() time.Time) *Resolver {
	r.now = now
	return r
}

// Resolve returns a vault-relative path in folder for a new file named after
// base with the given extension (without dot). The returned path is never one
// Exists reports present at call time. folder is created first when non-empty;
// an "already exists" outcome of that creation is benign, any other error
// propagates unchanged.
func (r *Resolver) Resolve(folder, base, ext string) (string, error) {
	ext = strings.TrimPrefix(ext, ".")
	if folder != "" {
		if err := r.host.EnsureFolder(folder); err != nil {
			return "", fmt.Errorf("naming: ensure folder %s: %w", folder, err)
		}
	}
	if r.policy == PolicyTimestamp {
		return r.resolveTimestamp(folder, base, ext), nil
	}
	return r.resolveSequential(folder, base, ext), nil
}

func (r *Resolver) resolveSequential(folder, base, ext string) string {
	for n := 1; ; n++ {
		candidate := path.Join(folder, fmt.Sprintf("%s %d.%s", base, n, ext))
		if !r.host.Exists(candidate) {
			return candidate
		}
		if n == probeWarnThreshold {
			r.logger.Warn("naming: excessive collision probing",
				slog.String("folder", folder),
				slog.String("base", base),
				slog.Int("probes", n))
		}
	}
}

func (r *Resolver) resolveTimestamp(folder, base, ext string) string {
	ts := filename.FormatTimestamp(r.pattern, r.now())
	candidate := path.Join(folder, fmt.Sprintf("%s %s.%s", base, ts, ext))
	if !r.host.Exists(candidate) {
		return candidate
	}
	// Timestamp collision: two inserts inside one pattern tick.
	for n := 1; ; n++ {
		candidate = path.Join(folder, fmt.Sprintf("%s %s-%d.%s", base, ts, n, ext))
		if !r.host.Exists(candidate) {
			return candidate
		}
		if n == probeWarnThreshold {
			r.logger.Warn("naming: excessive collision probing",
				slog.String("folder", folder),
				slog.String("base", base),
				slog.Int("probes", n))
		}
	}
}

// NextAvailable probes "{stem} {n}{ext}" suffixes for an existing target path
// until a free slot is found, returning target unchanged when already free.
// ext is taken from target. Used when executing renames whose proposed name
// is already occupied.
func NextAvailable(host Host, target string) string {
	if !host.Exists(target) {
		return target
	}
	dir := path.Dir(target)
	if dir == "." {
		dir = ""
	}
	ext := path.Ext(target)
	stem := strings.TrimSuffix(path.Base(target), ext)
	for n := 1; ; n++ {
		candidate := path.Join(dir, fmt.Sprintf("%s %d%s", stem, n, ext))
		if !host.Exists(candidate) {
			return candidate
		}
	}
}
