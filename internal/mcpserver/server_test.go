package mcpserver

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"log/slog"
	"os"
	"strings"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/starford/pictor/internal/bulkrename"
	"github.com/starford/pictor/internal/imageservice"
	"github.com/starford/pictor/internal/index"
	"github.com/starford/pictor/internal/testutil"
	"github.com/starford/pictor/internal/vault"
)

func testServer(t *testing.T) (*Server, vault.Host, *index.DB) {
	t.Helper()

	_, host := testutil.TestVault(t)
	db := testutil.TestDB(t)

	logger := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
	svc := imageservice.New(host, db, imageservice.Config{ImageFolder: "attachments"}, logger)
	return New(svc), host, db
}

func seed(t *testing.T, host vault.Host, db *index.DB, path string, data []byte) {
	t.Helper()
	if err := host.WriteBinary(path, data); err != nil {
		t.Fatal(err)
	}
	if err := index.SyncFile(db, host, path); err != nil {
		t.Fatal(err)
	}
}

func callTool(t *testing.T, srv *Server, name string, args map[string]interface{}) *mcp.CallToolResult {
	t.Helper()
	ctx := context.Background()
	req := mcp.CallToolRequest{}
	req.Method = "tools/call"
	req.Params.Name = name
	req.Params.Arguments = args

	// mcp-go doesn't expose a direct "call tool" test helper, so we test
	// through the tool handler functions directly.
	var result *mcp.CallToolResult
	var err error

	switch name {
	case "read_note":
		result, err = srv.readNote(ctx, req)
	case "insert_image":
		result, err = srv.insertImage(ctx, req)
	case "insert_image_from_url":
		result, err = srv.insertImageFromURL(ctx, req)
	case "set_caption":
		result, err = srv.setCaption(ctx, req)
	case "remove_caption":
		result, err = srv.removeCaption(ctx, req)
	case "rename_image":
		result, err = srv.renameImage(ctx, req)
	case "preview_bulk_rename":
		result, err = srv.previewBulkRename(ctx, req)
	case "execute_bulk_rename":
		result, err = srv.executeBulkRename(ctx, req)
	case "scan_orphans":
		result, err = srv.scanOrphans(ctx, req)
	case "list_images":
		result, err = srv.listImages(ctx, req)
	case "get_naming_contract":
		result, err = srv.getNamingContract(ctx, req)
	default:
		t.Fatalf("unknown tool: %s", name)
	}

	if err != nil {
		t.Fatalf("tool %s error: %v", name, err)
	}
	return result
}

func resultText(r *mcp.CallToolResult) string {
	if len(r.Content) > 0 {
		if tc, ok := r.Content[0].(mcp.TextContent); ok {
			return tc.Text
		}
	}
	return ""
}

func TestInsertAndReadNote(t *testing.T) {
	srv, host, db := testServer(t)
	seed(t, host, db, "Trip.md", []byte("# Trip\n"))

	r := callTool(t, srv, "insert_image", map[string]interface{}{
		"note": "Trip.md",
		"data": base64.StdEncoding.EncodeToString([]byte("fake-png")),
	})
	if text := resultText(r); text != "inserted: attachments/Trip 1.png" {
		t.Errorf("insert result = %q", text)
	}

	r = callTool(t, srv, "read_note", map[string]interface{}{"path": "Trip.md"})
	text := resultText(r)
	if !strings.Contains(text, "![[attachments/Trip 1.png]]") {
		t.Errorf("read result = %q", text)
	}
}

func TestInsertImage_BadBase64(t *testing.T) {
	srv, host, db := testServer(t)
	seed(t, host, db, "Trip.md", []byte("# Trip\n"))

	r := callTool(t, srv, "insert_image", map[string]interface{}{
		"note": "Trip.md",
		"data": "!!!not-base64!!!",
	})
	if !r.IsError {
		t.Error("expected error for bad base64")
	}
}

// pngBytes is a minimal payload http.DetectContentType recognizes as image/png.
var pngBytes = []byte{0x89, 0x50, 0x4E, 0x47, 0x0D, 0x0A, 0x1A, 0x0A, 0, 0, 0, 0}

func TestInsertImageFromURL_DataURI(t *testing.T) {
	srv, host, db := testServer(t)
	seed(t, host, db, "Trip.md", []byte("# Trip\n"))

	uri := "data:image/png;base64," + base64.StdEncoding.EncodeToString(pngBytes)
	r := callTool(t, srv, "insert_image_from_url", map[string]interface{}{
		"note": "Trip.md",
		"url":  uri,
	})
	if text := resultText(r); text != "inserted: attachments/Trip 1.png" {
		t.Errorf("insert result = %q", text)
	}
	if !host.Exists("attachments/Trip 1.png") {
		t.Error("image not on disk")
	}
}

func TestInsertImageFromURL_UnsupportedMIME(t *testing.T) {
	srv, host, db := testServer(t)
	seed(t, host, db, "Trip.md", []byte("# Trip\n"))

	uri := "data:application/pdf;base64," + base64.StdEncoding.EncodeToString([]byte("%PDF-1.4"))
	r := callTool(t, srv, "insert_image_from_url", map[string]interface{}{
		"note": "Trip.md", "url": uri,
	})
	if !r.IsError {
		t.Error("expected error for non-image MIME type")
	}
}

func TestInsertImageFromURL_MagicByteMismatch(t *testing.T) {
	srv, host, db := testServer(t)
	seed(t, host, db, "Trip.md", []byte("# Trip\n"))

	// Declared png, but the bytes are not a PNG.
	uri := "data:image/png;base64," + base64.StdEncoding.EncodeToString([]byte("plain text"))
	r := callTool(t, srv, "insert_image_from_url", map[string]interface{}{
		"note": "Trip.md", "url": uri,
	})
	if !r.IsError {
		t.Error("expected error for content/extension mismatch")
	}
}

func TestInsertImageFromURL_BlocksLoopback(t *testing.T) {
	srv, host, db := testServer(t)
	seed(t, host, db, "Trip.md", []byte("# Trip\n"))

	r := callTool(t, srv, "insert_image_from_url", map[string]interface{}{
		"note": "Trip.md", "url": "http://127.0.0.1:9/x.png",
	})
	if !r.IsError {
		t.Fatal("expected error for loopback URL")
	}
	if !strings.Contains(resultText(r), "blocked host") {
		t.Errorf("error = %q", resultText(r))
	}
}

func TestDecodeDataURI_MissingComma(t *testing.T) {
	if _, _, err := decodeDataURI("data:image/png;base64"); err == nil {
		t.Error("expected error for data URI without comma")
	}
}

func TestReadNoteMissing(t *testing.T) {
	srv, _, _ := testServer(t)
	r := callTool(t, srv, "read_note", map[string]interface{}{"path": "nope.md"})
	if !r.IsError {
		t.Error("expected error for missing note")
	}
}

func TestSetAndRemoveCaption(t *testing.T) {
	srv, host, db := testServer(t)
	seed(t, host, db, "img.png", []byte{0x89, 'P', 'N', 'G'})
	seed(t, host, db, "n.md", []byte("![[img.png]]\n"))

	r := callTool(t, srv, "set_caption", map[string]interface{}{
		"path": "n.md", "target": "img.png", "caption": "Sunset",
	})
	if r.IsError {
		t.Fatalf("set_caption failed: %s", resultText(r))
	}
	data, _ := host.Read("n.md")
	if string(data) != "![[img.png|Sunset]]\n" {
		t.Errorf("note = %q", data)
	}

	r = callTool(t, srv, "remove_caption", map[string]interface{}{
		"path": "n.md", "target": "img.png",
	})
	if r.IsError {
		t.Fatalf("remove_caption failed: %s", resultText(r))
	}
	data, _ = host.Read("n.md")
	if string(data) != "![[img.png]]\n" {
		t.Errorf("note = %q", data)
	}
}

func TestRenameImage_ByPath(t *testing.T) {
	srv, host, db := testServer(t)
	seed(t, host, db, "old.png", []byte{0x89, 'P', 'N', 'G'})
	seed(t, host, db, "n.md", []byte("![[old.png]]\n"))

	r := callTool(t, srv, "rename_image", map[string]interface{}{
		"path": "old.png", "new_name": "Photo",
	})
	if text := resultText(r); text != "renamed: Photo.png" {
		t.Errorf("rename result = %q", text)
	}
	data, _ := host.Read("n.md")
	if string(data) != "![[Photo.png]]\n" {
		t.Errorf("note = %q", data)
	}
}

func TestRenameImage_MissingAddressing(t *testing.T) {
	srv, _, _ := testServer(t)
	r := callTool(t, srv, "rename_image", map[string]interface{}{"new_name": "Photo"})
	if !r.IsError {
		t.Error("expected error without path or doc+target")
	}
}

func TestBulkRenameFlow(t *testing.T) {
	srv, host, db := testServer(t)
	seed(t, host, db, "Pasted image 1.png", []byte{0x89, 'P', 'N', 'G'})
	seed(t, host, db, "Trip.md", []byte("![[Pasted image 1.png]]\n"))

	r := callTool(t, srv, "preview_bulk_rename", map[string]interface{}{"filter": "generic"})
	if r.IsError {
		t.Fatalf("preview failed: %s", resultText(r))
	}
	var items []bulkrename.Item
	if err := json.Unmarshal([]byte(resultText(r)), &items); err != nil {
		t.Fatalf("preview output: %v", err)
	}
	if len(items) != 1 || items[0].NewName != "Trip 1" {
		t.Fatalf("items = %+v", items)
	}

	items[0].Selected = true
	raw, _ := json.Marshal(items)
	r = callTool(t, srv, "execute_bulk_rename", map[string]interface{}{"items": string(raw)})
	if text := resultText(r); text != "renamed 1, failed 0" {
		t.Errorf("execute result = %q", text)
	}
	if !host.Exists("Trip 1.png") {
		t.Error("image not renamed")
	}
}

func TestScanOrphans(t *testing.T) {
	srv, host, db := testServer(t)
	seed(t, host, db, "lost.png", []byte{0x89, 'P', 'N', 'G'})

	r := callTool(t, srv, "scan_orphans", map[string]interface{}{})
	text := resultText(r)
	if !strings.Contains(text, "lost.png") {
		t.Errorf("scan result = %q", text)
	}
}

func TestListImages(t *testing.T) {
	srv, host, db := testServer(t)
	seed(t, host, db, "a.png", []byte{0x89, 'P', 'N', 'G'})

	r := callTool(t, srv, "list_images", map[string]interface{}{})
	if text := resultText(r); !strings.Contains(text, "a.png") {
		t.Errorf("list result = %q", text)
	}
}

func TestListImages_Empty(t *testing.T) {
	srv, _, _ := testServer(t)
	r := callTool(t, srv, "list_images", map[string]interface{}{})
	if text := resultText(r); text != "no images in vault" {
		t.Errorf("empty list = %q", text)
	}
}

func TestNamingContract(t *testing.T) {
	srv, _, _ := testServer(t)
	r := callTool(t, srv, "get_naming_contract", map[string]interface{}{})
	text := resultText(r)
	if !strings.Contains(text, "Naming Rules") || !strings.Contains(text, "![[") {
		t.Error("contract text missing expected sections")
	}
}
