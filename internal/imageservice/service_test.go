package imageservice

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/starford/pictor/internal/apperr"
	"github.com/starford/pictor/internal/index"
	"github.com/starford/pictor/internal/vault"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
}

func testService(t *testing.T, cfg Config, opts ...Option) (*Service, vault.Host, *index.DB) {
	t.Helper()
	host, err := vault.NewFS(t.TempDir())
	if err != nil {
		t.Fatalf("NewFS: %v", err)
	}
	f, err := os.CreateTemp("", "pictor-test-*.db")
	if err != nil {
		t.Fatal(err)
	}
	f.Close()
	t.Cleanup(func() { os.Remove(f.Name()) })

	db, err := index.Open(f.Name())
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	return New(host, db, cfg, testLogger(), opts...), host, db
}

func writeIndexed(t *testing.T, host vault.Host, db *index.DB, path, content string) {
	t.Helper()
	if err := host.Write(path, []byte(content)); err != nil {
		t.Fatalf("Write %s: %v", path, err)
	}
	if err := index.SyncFile(db, host, path); err != nil {
		t.Fatalf("SyncFile %s: %v", path, err)
	}
}

func writeImageIndexed(t *testing.T, host vault.Host, db *index.DB, path string) {
	t.Helper()
	if err := host.WriteBinary(path, []byte{0x89, 'P', 'N', 'G'}); err != nil {
		t.Fatalf("WriteBinary %s: %v", path, err)
	}
	if err := index.SyncFile(db, host, path); err != nil {
		t.Fatalf("SyncFile %s: %v", path, err)
	}
}

func readText(t *testing.T, host vault.Host, path string) string {
	t.Helper()
	data, err := host.Read(path)
	if err != nil {
		t.Fatalf("Read %s: %v", path, err)
	}
	return string(data)
}

func eventually(t *testing.T, timeout time.Duration, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal("condition not met in time")
}

// eventLog records Notifier events for assertions.
type eventLog struct {
	mu     sync.Mutex
	events []string
}

func (l *eventLog) Notify(event, path string) {
	l.mu.Lock()
	l.events = append(l.events, event+" "+path)
	l.mu.Unlock()
}

func (l *eventLog) has(entry string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	for _, e := range l.events {
		if e == entry {
			return true
		}
	}
	return false
}

func TestInsertImage(t *testing.T) {
	events := &eventLog{}
	svc, host, db := testService(t, Config{ImageFolder: "attachments"}, WithNotifier(events))
	writeIndexed(t, host, db, "Trip.md", "# Trip\n")

	got, err := svc.InsertImage(context.Background(), "Trip.md", "png", []byte("fakepng"), "api")
	if err != nil {
		t.Fatalf("InsertImage: %v", err)
	}
	if got != "attachments/Trip 1.png" {
		t.Errorf("path = %q, want %q", got, "attachments/Trip 1.png")
	}
	if !host.Exists(got) {
		t.Error("image file missing after insert")
	}
	note := readText(t, host, "Trip.md")
	if !strings.HasSuffix(note, "![[attachments/Trip 1.png]]\n") {
		t.Errorf("note = %q, want embed link appended", note)
	}
	owner, err := db.SourceNote(got)
	if err != nil {
		t.Fatalf("SourceNote: %v", err)
	}
	if owner != "Trip.md" {
		t.Errorf("owner = %q, want %q", owner, "Trip.md")
	}
	if !events.has("image.created attachments/Trip 1.png") {
		t.Error("image.created event not published")
	}
}

func TestInsertImage_SequentialNumbering(t *testing.T) {
	svc, host, db := testService(t, Config{ImageFolder: "attachments"})
	writeIndexed(t, host, db, "Trip.md", "")

	first, err := svc.InsertImage(context.Background(), "Trip.md", "png", []byte("a"), "api")
	if err != nil {
		t.Fatalf("first insert: %v", err)
	}
	second, err := svc.InsertImage(context.Background(), "Trip.md", "png", []byte("b"), "api")
	if err != nil {
		t.Fatalf("second insert: %v", err)
	}
	if first != "attachments/Trip 1.png" || second != "attachments/Trip 2.png" {
		t.Errorf("paths = %q, %q; want Trip 1.png, Trip 2.png", first, second)
	}
}

func TestInsertImage_AddsNewlineBeforeLink(t *testing.T) {
	svc, host, db := testService(t, Config{})
	writeIndexed(t, host, db, "n.md", "no trailing newline")

	got, err := svc.InsertImage(context.Background(), "n.md", "png", []byte("x"), "api")
	if err != nil {
		t.Fatalf("InsertImage: %v", err)
	}
	note := readText(t, host, "n.md")
	want := "no trailing newline\n![[" + got + "]]\n"
	if note != want {
		t.Errorf("note = %q, want %q", note, want)
	}
}

func TestInsertImage_NoteMissing(t *testing.T) {
	svc, _, _ := testService(t, Config{})
	_, err := svc.InsertImage(context.Background(), "ghost.md", "png", []byte("x"), "api")
	if !errors.Is(err, apperr.ErrNotFound) {
		t.Errorf("err = %v, want ErrNotFound", err)
	}
}

func TestInsertImage_RejectsNonImageExtension(t *testing.T) {
	svc, host, db := testService(t, Config{})
	writeIndexed(t, host, db, "n.md", "")
	_, err := svc.InsertImage(context.Background(), "n.md", "exe", []byte("x"), "api")
	if !errors.Is(err, apperr.ErrInvalidName) {
		t.Errorf("err = %v, want ErrInvalidName", err)
	}
}

func TestInsertImage_DefaultsExtensionToPNG(t *testing.T) {
	svc, host, db := testService(t, Config{})
	writeIndexed(t, host, db, "n.md", "")
	got, err := svc.InsertImage(context.Background(), "n.md", "", []byte("x"), "api")
	if err != nil {
		t.Fatalf("InsertImage: %v", err)
	}
	if !strings.HasSuffix(got, ".png") {
		t.Errorf("path = %q, want .png suffix", got)
	}
}

func TestSetCaption(t *testing.T) {
	svc, host, db := testService(t, Config{})
	writeIndexed(t, host, db, "n.md", "![[img.png]]\n")

	if err := svc.SetCaption(context.Background(), "n.md", "img.png", "A caption"); err != nil {
		t.Fatalf("SetCaption: %v", err)
	}
	if got := readText(t, host, "n.md"); got != "![[img.png|A caption]]\n" {
		t.Errorf("note = %q, want captioned link", got)
	}
}

func TestSetCaption_NoMatchIsNoop(t *testing.T) {
	svc, host, db := testService(t, Config{})
	content := "![[other.png]]\n"
	writeIndexed(t, host, db, "n.md", content)

	if err := svc.SetCaption(context.Background(), "n.md", "img.png", "cap"); err != nil {
		t.Fatalf("SetCaption: %v", err)
	}
	if got := readText(t, host, "n.md"); got != content {
		t.Errorf("note = %q, want unchanged", got)
	}
}

func TestSetCaption_DocumentMissing(t *testing.T) {
	svc, _, _ := testService(t, Config{})
	err := svc.SetCaption(context.Background(), "ghost.md", "img.png", "cap")
	if !errors.Is(err, apperr.ErrNotFound) {
		t.Errorf("err = %v, want ErrNotFound", err)
	}
}

func TestRemoveCaption(t *testing.T) {
	svc, host, db := testService(t, Config{})
	writeIndexed(t, host, db, "n.md", "![[img.png|Old caption|400]]\n")

	if err := svc.RemoveCaption(context.Background(), "n.md", "img.png"); err != nil {
		t.Fatalf("RemoveCaption: %v", err)
	}
	if got := readText(t, host, "n.md"); got != "![[img.png||400]]\n" {
		t.Errorf("note = %q, want caption cleared with size kept", got)
	}
}

func TestGetNote(t *testing.T) {
	svc, host, db := testService(t, Config{})
	content := "![[pic.png|cap]]\n![alt](other.png)\n"
	writeIndexed(t, host, db, "A.md", content)
	writeIndexed(t, host, db, "B.md", "see ![[A]]\n")

	detail, err := svc.GetNote(context.Background(), "A.md")
	if err != nil {
		t.Fatalf("GetNote: %v", err)
	}
	if detail.Content != content {
		t.Errorf("content = %q, want %q", detail.Content, content)
	}
	if detail.Checksum != vault.Checksum([]byte(content)) {
		t.Errorf("checksum = %q, want content hash", detail.Checksum)
	}
	if len(detail.Links) != 2 {
		t.Fatalf("links = %d, want 2", len(detail.Links))
	}
	if len(detail.Backlinks) != 1 || detail.Backlinks[0] != "B.md" {
		t.Errorf("backlinks = %v, want [B.md]", detail.Backlinks)
	}
	if detail.UpdatedAt.IsZero() {
		t.Error("UpdatedAt is zero")
	}
}

func TestGetNote_Missing(t *testing.T) {
	svc, _, _ := testService(t, Config{})
	_, err := svc.GetNote(context.Background(), "ghost.md")
	if !errors.Is(err, apperr.ErrNotFound) {
		t.Errorf("err = %v, want ErrNotFound", err)
	}
}

func TestReadImage(t *testing.T) {
	svc, host, db := testService(t, Config{})
	writeImageIndexed(t, host, db, "img.png")

	data, err := svc.ReadImage(context.Background(), "img.png")
	if err != nil {
		t.Fatalf("ReadImage: %v", err)
	}
	if len(data) == 0 {
		t.Error("ReadImage returned empty data")
	}
}

func TestReadImage_RejectsNonImagePath(t *testing.T) {
	svc, host, db := testService(t, Config{})
	writeIndexed(t, host, db, "n.md", "text")

	_, err := svc.ReadImage(context.Background(), "n.md")
	if !errors.Is(err, apperr.ErrNotFound) {
		t.Errorf("err = %v, want ErrNotFound", err)
	}
}

func TestReadImage_Missing(t *testing.T) {
	svc, _, _ := testService(t, Config{})
	_, err := svc.ReadImage(context.Background(), "ghost.png")
	if !errors.Is(err, apperr.ErrNotFound) {
		t.Errorf("err = %v, want ErrNotFound", err)
	}
}
