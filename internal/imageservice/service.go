// Package imageservice coordinates the image-link consistency engine:
// image insertion, caption edits, renames with reference rewriting,
// link-removal tracking, bulk renames, and orphan cleanup.
package imageservice

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path"
	"strings"
	"sync"
	"time"

	"github.com/starford/pictor/internal/apperr"
	"github.com/starford/pictor/internal/bulkrename"
	"github.com/starford/pictor/internal/debounce"
	"github.com/starford/pictor/internal/filename"
	"github.com/starford/pictor/internal/imagelink"
	"github.com/starford/pictor/internal/index"
	"github.com/starford/pictor/internal/linktrack"
	"github.com/starford/pictor/internal/metrics"
	"github.com/starford/pictor/internal/models"
	"github.com/starford/pictor/internal/naming"
	"github.com/starford/pictor/internal/ttlset"
	"github.com/starford/pictor/internal/vault"
)

// Event names published through the Notifier.
const (
	EventImageCreated  = "image.created"
	EventImageRenamed  = "image.renamed"
	EventImageTrashed  = "image.trashed"
	EventLinkRemoved   = "link.removed"
	EventLinkCaptioned = "link.captioned"
)

// DeleteAction values select how a structural link removal is handled once
// the image has no remaining references.
const (
	DeleteActionPrompt = "prompt"
	DeleteActionAuto   = "auto"
	DeleteActionNever  = "never"
)

// Notifier receives engine events for fan-out.
type Notifier interface {
	Notify(event, path string)
}

// DecisionFunc answers whether an image whose last link vanished should be
// trashed. Declining is a no-op, never a rollback.
type DecisionFunc func(imagePath, docPath string) bool

// Config carries the service tunables.
type Config struct {
	ImageFolder      string        // vault-relative folder inserted images land in
	Aggressive       bool          // sanitizer profile for derived names
	Policy           naming.Policy // naming policy for inserted images
	TimestampPattern string
	DebounceDelay    time.Duration // editor-change diff coalescing window
	GuardTTL         time.Duration // in-flight guard expiry
	DeleteAction     string
	DefaultFilter    bulkrename.Filter
}

func (c Config) withDefaults() Config {
	if c.Policy == "" {
		c.Policy = naming.PolicySequential
	}
	if c.TimestampPattern == "" {
		c.TimestampPattern = filename.DefaultTimestampPattern
	}
	if c.DebounceDelay <= 0 {
		c.DebounceDelay = 300 * time.Millisecond
	}
	if c.GuardTTL <= 0 {
		c.GuardTTL = time.Second
	}
	if c.DeleteAction == "" {
		c.DeleteAction = DeleteActionPrompt
	}
	if c.DefaultFilter == "" {
		c.DefaultFilter = bulkrename.FilterGeneric
	}
	return c
}

// Service owns the tracker cache, the in-flight guard, and the per-document
// diff schedulers, and coordinates vault and index mutations.
type Service struct {
	host     vault.Host
	db       *index.DB
	cfg      Config
	logger   *slog.Logger
	tracker  *linktrack.Tracker
	guard    *ttlset.Set
	resolver *naming.Resolver // insert naming, per configured policy
	seq      *naming.Resolver // auto-rename naming, always sequential
	planner  bulkrename.Planner
	notify   Notifier
	rec      metrics.Recorder
	decide   DecisionFunc

	mu        sync.Mutex
	debounced map[string]*debounce.Debouncer
	pending   map[string]string
}

// Option customizes a Service.
type Option func(*Service)

// WithNotifier wires an event sink.
func WithNotifier(n Notifier) Option {
	return func(s *Service) { s.notify = n }
}

// WithRecorder wires a metrics recorder.
func WithRecorder(r metrics.Recorder) Option {
	return func(s *Service) {
		if r != nil {
			s.rec = r
		}
	}
}

// WithDecision wires the trash-confirmation callback consulted when
// DeleteAction is prompt.
func WithDecision(fn DecisionFunc) Option {
	return func(s *Service) { s.decide = fn }
}

// New creates the service around a vault host and reference index.
func New(host vault.Host, db *index.DB, cfg Config, logger *slog.Logger, opts ...Option) *Service {
	cfg = cfg.withDefaults()
	s := &Service{
		host:      host,
		db:        db,
		cfg:       cfg,
		logger:    logger,
		tracker:   linktrack.New(),
		guard:     ttlset.New(cfg.GuardTTL),
		resolver:  naming.New(host, cfg.Policy, cfg.TimestampPattern, logger),
		seq:       naming.New(host, naming.PolicySequential, "", logger),
		planner:   bulkrename.Planner{Aggressive: cfg.Aggressive},
		rec:       metrics.NoopRecorder{},
		debounced: make(map[string]*debounce.Debouncer),
		pending:   make(map[string]string),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Service) emit(event, path string) {
	if s.notify != nil {
		s.notify.Notify(event, path)
	}
}

// InsertImage writes image data into the vault named after the note and
// appends a plain embed link to the note's text. source labels the entry
// point for metrics. Returns the vault path the image landed at.
func (s *Service) InsertImage(_ context.Context, notePath, ext string, data []byte, source string) (string, error) {
	noteData, err := s.host.Read(notePath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return "", fmt.Errorf("imageservice: note %s: %w", notePath, apperr.ErrNotFound)
		}
		return "", err
	}
	base := filename.Sanitize(stem(notePath), s.cfg.Aggressive)
	if base == "" {
		return "", fmt.Errorf("imageservice: note title %q: %w", stem(notePath), apperr.ErrInvalidName)
	}
	cleanExt, err := normalizeExt(ext)
	if err != nil {
		return "", err
	}
	imagePath, err := s.resolver.Resolve(s.cfg.ImageFolder, base, cleanExt)
	if err != nil {
		return "", err
	}

	// Guard before the write so the watcher's create event for this file
	// skips the auto-rename pass.
	s.guard.Add(imagePath)
	if err := s.host.WriteBinary(imagePath, data); err != nil {
		return "", err
	}

	text := string(noteData)
	var b strings.Builder
	b.WriteString(text)
	if text != "" && !strings.HasSuffix(text, "\n") {
		b.WriteByte('\n')
	}
	b.WriteString(imagelink.Build(imagePath, "", "", imagelink.KindEmbed))
	b.WriteByte('\n')
	updated := b.String()

	if err := s.host.Write(notePath, []byte(updated)); err != nil {
		return "", err
	}
	s.tracker.Snapshot(notePath, updated)
	if err := index.SyncFile(s.db, s.host, notePath); err != nil {
		s.logger.Warn("insert: index note failed", slog.String("path", notePath), slog.String("error", err.Error()))
	}
	if err := index.SyncFile(s.db, s.host, imagePath); err != nil {
		s.logger.Warn("insert: index image failed", slog.String("path", imagePath), slog.String("error", err.Error()))
	}
	s.rec.IncImageProcessed(source)
	s.emit(EventImageCreated, imagePath)
	s.logger.Info("image inserted", slog.String("note", notePath), slog.String("image", imagePath))
	return imagePath, nil
}

// NoteDetail is the full representation of a note for read surfaces.
type NoteDetail struct {
	Path      string           `json:"path"`
	Content   string           `json:"content"`
	Checksum  string           `json:"checksum"`
	Links     []imagelink.Link `json:"links"`
	Backlinks []string         `json:"backlinks"`
	UpdatedAt time.Time        `json:"updated_at"`
}

// GetNote reads a note and derives its image links and backlinks.
func (s *Service) GetNote(_ context.Context, notePath string) (*NoteDetail, error) {
	data, err := s.host.Read(notePath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, apperr.ErrNotFound
		}
		return nil, err
	}
	fi, err := s.host.Stat(notePath)
	if err != nil {
		return nil, err
	}
	backlinks, err := s.db.ReferencingDocuments(notePath)
	if err != nil {
		return nil, err
	}
	text := string(data)
	return &NoteDetail{
		Path:      notePath,
		Content:   text,
		Checksum:  vault.Checksum(data),
		Links:     nonNilSlice(imagelink.ParseAll(text)),
		Backlinks: nonNilSlice(backlinks),
		UpdatedAt: fi.UpdatedAt,
	}, nil
}

// ReadImage returns the raw bytes of a vault image.
func (s *Service) ReadImage(_ context.Context, imagePath string) ([]byte, error) {
	if kind, ok := vault.KindFor(imagePath); !ok || kind != models.KindImage {
		return nil, fmt.Errorf("imageservice: %s: %w", imagePath, apperr.ErrNotFound)
	}
	data, err := s.host.Read(imagePath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("imageservice: %s: %w", imagePath, apperr.ErrNotFound)
		}
		return nil, err
	}
	return data, nil
}

func normalizeExt(ext string) (string, error) {
	ext = strings.ToLower(strings.TrimPrefix(strings.TrimSpace(ext), "."))
	if ext == "" {
		ext = "png"
	}
	if !imagelink.HasImageExt("x." + ext) {
		return "", fmt.Errorf("imageservice: extension %q: %w", ext, apperr.ErrInvalidName)
	}
	return ext, nil
}

func stem(p string) string {
	base := path.Base(p)
	return strings.TrimSuffix(base, path.Ext(base))
}

func nonNilSlice[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}
