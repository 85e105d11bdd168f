package index

import (
	"log/slog"
	"os"
	"testing"

	"github.com/starford/pictor/internal/models"
	"github.com/starford/pictor/internal/vault"
)

func testHost(t *testing.T) *vault.FS {
	t.Helper()
	host, err := vault.NewFS(t.TempDir())
	if err != nil {
		t.Fatalf("NewFS: %v", err)
	}
	return host
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
}

func TestSync_IndexesAllKinds(t *testing.T) {
	host := testHost(t)
	db := testDB(t)
	_ = host.Write("Trip.md", []byte("![[attachments/pic.png]]"))
	_ = host.Write("Board.canvas", []byte(`{"nodes":[{"type":"file","file":"attachments/pic.png"}]}`))
	_ = host.WriteBinary("attachments/pic.png", []byte{1})

	if err := Sync(db, host, testLogger()); err != nil {
		t.Fatalf("Sync: %v", err)
	}

	paths, err := db.AllPaths()
	if err != nil {
		t.Fatalf("AllPaths: %v", err)
	}
	if len(paths) != 3 {
		t.Fatalf("len(paths) = %d, want 3 (%v)", len(paths), paths)
	}

	refs, err := db.ReferencingDocuments("attachments/pic.png")
	if err != nil {
		t.Fatalf("ReferencingDocuments: %v", err)
	}
	if len(refs) != 2 {
		t.Errorf("refs = %v, want both documents", refs)
	}
}

func TestSync_NewImagePickedUpOnResync(t *testing.T) {
	host := testHost(t)
	db := testDB(t)
	_ = host.Write("Trip.md", []byte("text"))
	if err := Sync(db, host, testLogger()); err != nil {
		t.Fatalf("Sync: %v", err)
	}

	// Images carry empty checksums; a fresh file must still be indexed.
	_ = host.WriteBinary("attachments/new.png", []byte{1})
	if err := Sync(db, host, testLogger()); err != nil {
		t.Fatalf("Sync: %v", err)
	}
	paths, _ := db.AllPaths()
	if _, ok := paths["attachments/new.png"]; !ok {
		t.Errorf("new image missing from index: %v", paths)
	}
}

func TestSync_ReindexesChangedNote(t *testing.T) {
	host := testHost(t)
	db := testDB(t)
	_ = host.Write("Trip.md", []byte("![[old.png]]"))
	_ = Sync(db, host, testLogger())

	_ = host.Write("Trip.md", []byte("![[new.png]]"))
	if err := Sync(db, host, testLogger()); err != nil {
		t.Fatalf("Sync: %v", err)
	}

	refs, _ := db.ReferencingDocuments("old.png")
	if len(refs) != 0 {
		t.Errorf("stale ref survived: %v", refs)
	}
	refs, _ = db.ReferencingDocuments("new.png")
	if len(refs) != 1 {
		t.Errorf("new ref missing: %v", refs)
	}
}

func TestSync_RemovesStaleEntries(t *testing.T) {
	host := testHost(t)
	db := testDB(t)
	_ = host.Write("gone.md", []byte("x"))
	_ = Sync(db, host, testLogger())

	if _, err := host.Trash("gone.md"); err != nil {
		t.Fatalf("Trash: %v", err)
	}
	if err := Sync(db, host, testLogger()); err != nil {
		t.Fatalf("Sync: %v", err)
	}
	paths, _ := db.AllPaths()
	if _, ok := paths["gone.md"]; ok {
		t.Error("stale entry survived sync")
	}
}

func TestSync_DrawingFrontmatterUpgradesKind(t *testing.T) {
	host := testHost(t)
	db := testDB(t)
	_ = host.Write("sketch.md", []byte("---\nexcalidraw-plugin: parsed\n---\n![[pic.png]]\n"))
	if err := Sync(db, host, testLogger()); err != nil {
		t.Fatalf("Sync: %v", err)
	}

	var kind string
	if err := db.conn.QueryRow(`SELECT kind FROM documents WHERE path = ?`, "sketch.md").Scan(&kind); err != nil {
		t.Fatalf("query kind: %v", err)
	}
	if kind != string(models.KindDrawing) {
		t.Errorf("kind = %q, want %q", kind, models.KindDrawing)
	}
}

func TestSyncFile(t *testing.T) {
	host := testHost(t)
	db := testDB(t)
	_ = host.Write("Trip.md", []byte("![[pic.png]]"))

	if err := SyncFile(db, host, "Trip.md"); err != nil {
		t.Fatalf("SyncFile: %v", err)
	}
	refs, _ := db.ReferencingDocuments("pic.png")
	if len(refs) != 1 {
		t.Errorf("refs = %v, want [Trip.md]", refs)
	}

	cs, _ := db.GetChecksum("Trip.md")
	if cs == "" {
		t.Error("checksum not stored")
	}
}

func TestSyncFile_Image(t *testing.T) {
	host := testHost(t)
	db := testDB(t)
	_ = host.WriteBinary("pic.png", []byte{1})

	if err := SyncFile(db, host, "pic.png"); err != nil {
		t.Fatalf("SyncFile: %v", err)
	}
	paths, _ := db.AllPaths()
	if _, ok := paths["pic.png"]; !ok {
		t.Error("image not indexed")
	}
}

func TestSyncFile_UnrecognizedKindIgnored(t *testing.T) {
	host := testHost(t)
	db := testDB(t)
	_ = host.Write("notes.txt", []byte("x"))

	if err := SyncFile(db, host, "notes.txt"); err != nil {
		t.Fatalf("SyncFile: %v", err)
	}
	paths, _ := db.AllPaths()
	if len(paths) != 0 {
		t.Errorf("paths = %v, want empty", paths)
	}
}
