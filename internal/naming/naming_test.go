package naming

import (
	"errors"
	"testing"
	"time"
)

// fakeHost is an in-memory Host for resolver tests.
type fakeHost struct {
	files     map[string]bool
	folders   []string
	folderErr error
}

func newFakeHost(existing ...string) *fakeHost {
	h := &fakeHost{files: make(map[string]bool)}
	for _, p := range existing {
		h.files[p] = true
	}
	return h
}

func (h *fakeHost) Exists(path string) bool { return h.files[path] }

func (h *fakeHost) EnsureFolder(dir string) error {
	if h.folderErr != nil {
		return h.folderErr
	}
	h.folders = append(h.folders, dir)
	return nil
}

func TestSequential_FirstSlotFree(t *testing.T) {
	r := New(newFakeHost(), PolicySequential, "", nil)
	got, err := r.Resolve("", "Note", "png")
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if got != "Note 1.png" {
		t.Errorf("got %q, want %q", got, "Note 1.png")
	}
}

func TestSequential_SkipsExisting(t *testing.T) {
	h := newFakeHost("Note 1.png", "Note 2.png")
	r := New(h, PolicySequential, "", nil)
	got, err := r.Resolve("", "Note", "png")
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if got != "Note 3.png" {
		t.Errorf("got %q, want %q", got, "Note 3.png")
	}
}

func TestSequential_GapIsUsed(t *testing.T) {
	h := newFakeHost("Note 1.png", "Note 3.png")
	r := New(h, PolicySequential, "", nil)
	got, _ := r.Resolve("", "Note", "png")
	if got != "Note 2.png" {
		t.Errorf("got %q, want %q", got, "Note 2.png")
	}
}

func TestSequential_WithFolder(t *testing.T) {
	h := newFakeHost()
	r := New(h, PolicySequential, "", nil)
	got, err := r.Resolve("attachments", "Trip", "jpg")
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if got != "attachments/Trip 1.jpg" {
		t.Errorf("got %q", got)
	}
	if len(h.folders) != 1 || h.folders[0] != "attachments" {
		t.Errorf("folders ensured = %v, want [attachments]", h.folders)
	}
}

func TestTimestamp_NoCollision(t *testing.T) {
	h := newFakeHost()
	r := New(h, PolicyTimestamp, "YYYYMMDDHHmmss", nil).
		WithClock(func() time.Time { return time.Date(2024, 8, 15, 12, 34, 56, 0, time.UTC) })
	got, err := r.Resolve("", "Note", "png")
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if got != "Note 20240815123456.png" {
		t.Errorf("got %q", got)
	}
}

func TestTimestamp_CollisionFallsBackToCounter(t *testing.T) {
	at := time.Date(2024, 8, 15, 12, 34, 56, 0, time.UTC)
	h := newFakeHost("Note 20240815123456.png", "Note 20240815123456-1.png")
	r := New(h, PolicyTimestamp, "YYYYMMDDHHmmss", nil).
		WithClock(func() time.Time { return at })
	got, _ := r.Resolve("", "Note", "png")
	if got != "Note 20240815123456-2.png" {
		t.Errorf("got %q", got)
	}
}

func TestResolve_NeverReturnsExisting(t *testing.T) {
	h := newFakeHost()
	for _, policy := range []Policy{PolicySequential, PolicyTimestamp} {
		r := New(h, policy, "", nil)
		for i := 0; i < 20; i++ {
			got, err := r.Resolve("dir", "x", "png")
			if err != nil {
				t.Fatalf("Resolve: %v", err)
			}
			if h.Exists(got) {
				t.Fatalf("%s returned occupied path %q", policy, got)
			}
			h.files[got] = true
		}
	}
}

func TestResolve_FolderErrorPropagates(t *testing.T) {
	h := newFakeHost()
	h.folderErr = errors.New("disk full")
	r := New(h, PolicySequential, "", nil)
	if _, err := r.Resolve("attachments", "Note", "png"); err == nil {
		t.Error("expected folder creation error to propagate")
	}
}

func TestResolve_ExtensionDotTrimmed(t *testing.T) {
	r := New(newFakeHost(), PolicySequential, "", nil)
	got, _ := r.Resolve("", "Note", ".png")
	if got != "Note 1.png" {
		t.Errorf("got %q", got)
	}
}

func TestNextAvailable(t *testing.T) {
	h := newFakeHost("dir/Trip 1.png", "dir/Trip 1 1.png")
	if got := NextAvailable(h, "dir/free.png"); got != "dir/free.png" {
		t.Errorf("free target changed: %q", got)
	}
	if got := NextAvailable(h, "dir/Trip 1.png"); got != "dir/Trip 1 2.png" {
		t.Errorf("got %q, want %q", got, "dir/Trip 1 2.png")
	}
}
