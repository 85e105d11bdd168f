package imageservice

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/starford/pictor/internal/apperr"
)

func TestRenameImage_RewritesReferences(t *testing.T) {
	events := &eventLog{}
	svc, host, db := testService(t, Config{}, WithNotifier(events))
	writeImageIndexed(t, host, db, "img.png")
	writeIndexed(t, host, db, "n.md", "before\n![[img.png|Nice|300]]\nafter\n")

	got, err := svc.RenameImage(context.Background(), "img.png", "Photo")
	if err != nil {
		t.Fatalf("RenameImage: %v", err)
	}
	if got != "Photo.png" {
		t.Errorf("path = %q, want %q", got, "Photo.png")
	}
	if host.Exists("img.png") || !host.Exists("Photo.png") {
		t.Error("file not moved")
	}
	if note := readText(t, host, "n.md"); note != "before\n![[Photo.png|Nice|300]]\nafter\n" {
		t.Errorf("note = %q, want link repointed with caption kept", note)
	}
	refs, err := db.ReferencingDocuments("Photo.png")
	if err != nil {
		t.Fatalf("ReferencingDocuments: %v", err)
	}
	if len(refs) != 1 || refs[0] != "n.md" {
		t.Errorf("refs = %v, want [n.md]", refs)
	}
	stale, err := db.ReferencingDocuments("img.png")
	if err != nil {
		t.Fatalf("ReferencingDocuments old: %v", err)
	}
	if len(stale) != 0 {
		t.Errorf("old path still referenced: %v", stale)
	}
	if !events.has("image.renamed Photo.png") {
		t.Error("image.renamed event not published")
	}
}

func TestRenameImage_MultipleDocuments(t *testing.T) {
	svc, host, db := testService(t, Config{})
	writeImageIndexed(t, host, db, "img.png")
	writeIndexed(t, host, db, "a.md", "![[img.png]]\n")
	writeIndexed(t, host, db, "b.md", "![alt](img.png)\n")

	if _, err := svc.RenameImage(context.Background(), "img.png", "Photo"); err != nil {
		t.Fatalf("RenameImage: %v", err)
	}
	if got := readText(t, host, "a.md"); got != "![[Photo.png]]\n" {
		t.Errorf("a.md = %q", got)
	}
	if got := readText(t, host, "b.md"); got != "![alt](Photo.png)\n" {
		t.Errorf("b.md = %q", got)
	}
}

func TestRenameImage_CanvasReferences(t *testing.T) {
	svc, host, db := testService(t, Config{})
	writeImageIndexed(t, host, db, "img.png")
	writeIndexed(t, host, db, "board.canvas",
		`{"nodes":[{"id":"a","type":"file","file":"img.png"},{"id":"b","type":"text","text":"hi"}],"edges":[]}`)

	if _, err := svc.RenameImage(context.Background(), "img.png", "Photo"); err != nil {
		t.Fatalf("RenameImage: %v", err)
	}
	canvas := readText(t, host, "board.canvas")
	if !strings.Contains(canvas, `"file":"Photo.png"`) {
		t.Errorf("canvas = %q, want file node repointed", canvas)
	}
	if strings.Contains(canvas, "img.png") {
		t.Errorf("canvas = %q, old path survives", canvas)
	}
	refs, err := db.ReferencingDocuments("Photo.png")
	if err != nil {
		t.Fatalf("ReferencingDocuments: %v", err)
	}
	if len(refs) != 1 || refs[0] != "board.canvas" {
		t.Errorf("refs = %v, want [board.canvas]", refs)
	}
}

func TestRenameImage_CollisionProbesCounter(t *testing.T) {
	svc, host, db := testService(t, Config{})
	writeImageIndexed(t, host, db, "img.png")
	writeImageIndexed(t, host, db, "Photo.png")

	got, err := svc.RenameImage(context.Background(), "img.png", "Photo")
	if err != nil {
		t.Fatalf("RenameImage: %v", err)
	}
	if got != "Photo 1.png" {
		t.Errorf("path = %q, want %q", got, "Photo 1.png")
	}
}

func TestRenameImage_SameNameIsNoop(t *testing.T) {
	events := &eventLog{}
	svc, host, db := testService(t, Config{}, WithNotifier(events))
	writeImageIndexed(t, host, db, "Photo.png")

	got, err := svc.RenameImage(context.Background(), "Photo.png", "Photo")
	if err != nil {
		t.Fatalf("RenameImage: %v", err)
	}
	if got != "Photo.png" {
		t.Errorf("path = %q, want unchanged", got)
	}
	if events.has("image.renamed Photo.png") {
		t.Error("no-op rename published an event")
	}
}

func TestRenameImage_InvalidName(t *testing.T) {
	svc, host, db := testService(t, Config{})
	writeImageIndexed(t, host, db, "img.png")

	_, err := svc.RenameImage(context.Background(), "img.png", "///")
	if !errors.Is(err, apperr.ErrInvalidName) {
		t.Errorf("err = %v, want ErrInvalidName", err)
	}
}

func TestRenameImage_Missing(t *testing.T) {
	svc, _, _ := testService(t, Config{})
	_, err := svc.RenameImage(context.Background(), "ghost.png", "Photo")
	if !errors.Is(err, apperr.ErrNotFound) {
		t.Errorf("err = %v, want ErrNotFound", err)
	}
}

func TestRenameFromLink_ShorthandTarget(t *testing.T) {
	svc, host, db := testService(t, Config{})
	writeImageIndexed(t, host, db, "diagram.png")
	writeIndexed(t, host, db, "n.md", "![[diagram]]\n")

	got, err := svc.RenameFromLink(context.Background(), "n.md", "diagram", "Figure")
	if err != nil {
		t.Fatalf("RenameFromLink: %v", err)
	}
	if got != "Figure.png" {
		t.Errorf("path = %q, want %q", got, "Figure.png")
	}
	if note := readText(t, host, "n.md"); note != "![[Figure.png]]\n" {
		t.Errorf("note = %q, want shorthand expanded to full path", note)
	}
}

func TestRenameFromLink_Unresolved(t *testing.T) {
	svc, host, db := testService(t, Config{})
	writeIndexed(t, host, db, "n.md", "![[ghost.png]]\n")

	_, err := svc.RenameFromLink(context.Background(), "n.md", "ghost.png", "Figure")
	if !errors.Is(err, apperr.ErrNotFound) {
		t.Errorf("err = %v, want ErrNotFound", err)
	}
}

func TestAutoRename_GenericImageTakesOwnerName(t *testing.T) {
	svc, host, db := testService(t, Config{})
	writeImageIndexed(t, host, db, "Pasted image 20230405123456.png")
	writeIndexed(t, host, db, "Trip.md", "![[Pasted image 20230405123456.png]]\n")

	svc.AutoRenameOnCreate("Pasted image 20230405123456.png")

	if !host.Exists("Trip 1.png") {
		t.Fatal("image not renamed after owner note")
	}
	if note := readText(t, host, "Trip.md"); note != "![[Trip 1.png]]\n" {
		t.Errorf("note = %q, want rewritten embed", note)
	}
}

func TestAutoRename_KeepsImageFolder(t *testing.T) {
	svc, host, db := testService(t, Config{})
	writeImageIndexed(t, host, db, "attachments/Pasted image 1.png")
	writeIndexed(t, host, db, "Trip.md", "![[attachments/Pasted image 1.png]]\n")

	svc.AutoRenameOnCreate("attachments/Pasted image 1.png")

	if !host.Exists("attachments/Trip 1.png") {
		t.Fatal("image not renamed inside its folder")
	}
}

func TestAutoRename_NonGenericSkipped(t *testing.T) {
	svc, host, db := testService(t, Config{})
	writeImageIndexed(t, host, db, "Holiday.png")
	writeIndexed(t, host, db, "Trip.md", "![[Holiday.png]]\n")

	svc.AutoRenameOnCreate("Holiday.png")

	if !host.Exists("Holiday.png") {
		t.Error("non-generic image was renamed")
	}
}

func TestAutoRename_GuardSkips(t *testing.T) {
	svc, host, db := testService(t, Config{})
	writeImageIndexed(t, host, db, "Pasted image 1.png")
	writeIndexed(t, host, db, "Trip.md", "![[Pasted image 1.png]]\n")

	svc.guard.Add("Pasted image 1.png")
	svc.AutoRenameOnCreate("Pasted image 1.png")

	if !host.Exists("Pasted image 1.png") {
		t.Error("guarded image was renamed")
	}
}

func TestAutoRename_AmbiguousOwnerSkipped(t *testing.T) {
	svc, host, db := testService(t, Config{})
	writeImageIndexed(t, host, db, "Pasted image 1.png")
	writeIndexed(t, host, db, "a.md", "![[Pasted image 1.png]]\n")
	writeIndexed(t, host, db, "b.md", "![[Pasted image 1.png]]\n")

	svc.AutoRenameOnCreate("Pasted image 1.png")

	if !host.Exists("Pasted image 1.png") {
		t.Error("image with two referencing notes was renamed")
	}
}
