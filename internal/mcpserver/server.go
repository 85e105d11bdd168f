// Package mcpserver provides an MCP (Model Context Protocol) server
// that exposes Pictor tools for LLM integration via stdio transport.
package mcpserver

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/starford/pictor/internal/bulkrename"
	"github.com/starford/pictor/internal/imageservice"
)

// Server wraps the MCP server with Pictor tools.
type Server struct {
	mcp *server.MCPServer
	svc *imageservice.Service
}

// New creates a new MCP server with all Pictor tools registered.
func New(svc *imageservice.Service) *Server {
	s := &Server{svc: svc}

	s.mcp = server.NewMCPServer(
		"Pictor",
		"1.0.0",
		server.WithToolCapabilities(false),
		server.WithResourceCapabilities(false, false),
	)

	s.mcp.AddTool(mcp.NewTool("read_note",
		mcp.WithDescription("Read a Markdown note together with its image links and backlinks."),
		mcp.WithString("path", mcp.Required(), mcp.Description("Relative path to the note (e.g. folder/note.md)")),
	), s.readNote)

	s.mcp.AddTool(mcp.NewTool("insert_image",
		mcp.WithDescription("Store an image in the vault and append an embed link to a note. "+
			"The file name is derived from the note per the naming rules. Read them first via "+
			"the get_naming_contract tool or the pictor://naming-rules resource."),
		mcp.WithString("note", mcp.Required(), mcp.Description("Note the image belongs to (must exist)")),
		mcp.WithString("data", mcp.Required(), mcp.Description("Base64-encoded image bytes")),
		mcp.WithString("extension", mcp.Description("Image extension without the dot (default png)")),
	), s.insertImage)

	s.mcp.AddTool(mcp.NewTool("insert_image_from_url",
		mcp.WithDescription("Fetch an image from an http(s) URL or data: URI and insert it "+
			"into a note like insert_image. Content type and magic bytes are validated."),
		mcp.WithString("note", mcp.Required(), mcp.Description("Note the image belongs to (must exist)")),
		mcp.WithString("url", mcp.Required(), mcp.Description("http(s) URL or base64 data: URI")),
	), s.insertImageFromURL)

	s.mcp.AddTool(mcp.NewTool("set_caption",
		mcp.WithDescription("Set or replace the caption of one image link inside a note. "+
			"A size suffix on the link is preserved."),
		mcp.WithString("path", mcp.Required(), mcp.Description("Note containing the link")),
		mcp.WithString("target", mcp.Required(), mcp.Description("Link target as written in the note, or the image path")),
		mcp.WithString("caption", mcp.Required(), mcp.Description("New caption text")),
	), s.setCaption)

	s.mcp.AddTool(mcp.NewTool("remove_caption",
		mcp.WithDescription("Remove the caption of one image link inside a note."),
		mcp.WithString("path", mcp.Required(), mcp.Description("Note containing the link")),
		mcp.WithString("target", mcp.Required(), mcp.Description("Link target as written in the note, or the image path")),
	), s.removeCaption)

	s.mcp.AddTool(mcp.NewTool("rename_image",
		mcp.WithDescription("Rename a vault image and rewrite every link that references it. "+
			"Address the image either by its path or by a doc/target pair."),
		mcp.WithString("new_name", mcp.Required(), mcp.Description("New base name without extension")),
		mcp.WithString("path", mcp.Description("Image path (e.g. attachments/Pasted image 1.png)")),
		mcp.WithString("doc", mcp.Description("Note containing a link to the image")),
		mcp.WithString("target", mcp.Description("Link target as written in that note")),
	), s.renameImage)

	s.mcp.AddTool(mcp.NewTool("preview_bulk_rename",
		mcp.WithDescription("Plan a bulk rename of images after their referencing notes. "+
			"Returns plan items as JSON; nothing is renamed until execute_bulk_rename."),
		mcp.WithString("mode", mcp.Description("replace, prepend or pattern (default replace)")),
		mcp.WithString("filter", mcp.Description("generic or all (default from config)")),
		mcp.WithString("pattern", mcp.Description("Template for pattern mode, e.g. {note} {n}")),
	), s.previewBulkRename)

	s.mcp.AddTool(mcp.NewTool("execute_bulk_rename",
		mcp.WithDescription("Apply plan items produced by preview_bulk_rename. "+
			"Only items with \"selected\": true are renamed; links are rewritten."),
		mcp.WithString("items", mcp.Required(), mcp.Description("JSON array of plan items from preview_bulk_rename")),
	), s.executeBulkRename)

	s.mcp.AddTool(mcp.NewTool("scan_orphans",
		mcp.WithDescription("Scan the vault for images no document references."),
	), s.scanOrphans)

	s.mcp.AddTool(mcp.NewTool("list_images",
		mcp.WithDescription("List all vault images with their source note and generic-name flag."),
	), s.listImages)

	s.mcp.AddTool(mcp.NewTool("get_naming_contract",
		mcp.WithDescription("Returns the canonical Pictor image naming and link format rules. "+
			"Call this before inserting or renaming images."),
	), s.getNamingContract)

	// Resource: image naming rules.
	s.mcp.AddResource(
		mcp.NewResource("pictor://naming-rules", "Image Naming Rules",
			mcp.WithResourceDescription("Canonical image naming and link format rules for the vault."),
			mcp.WithMIMEType("text/markdown"),
		),
		s.readNamingRulesResource,
	)

	return s
}

// ServeStdio starts the MCP server on stdin/stdout.
func (s *Server) ServeStdio() error {
	return server.ServeStdio(s.mcp)
}

// MCPServer returns the underlying server for testing.
func (s *Server) MCPServer() *server.MCPServer {
	return s.mcp
}

func (s *Server) readNote(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	path, err := req.RequireString("path")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	detail, err := s.svc.GetNote(ctx, path)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("not found: %s", path)), nil
	}
	out, _ := json.MarshalIndent(detail, "", "  ")
	return mcp.NewToolResultText(string(out)), nil
}

func (s *Server) insertImage(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	note, err := req.RequireString("note")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	encoded, err := req.RequireString("data")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	ext := ""
	if e, err := req.RequireString("extension"); err == nil {
		ext = e
	}

	data, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("invalid base64 data: %v", err)), nil
	}
	imagePath, err := s.svc.InsertImage(ctx, note, ext, data, "mcp")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf("inserted: %s", imagePath)), nil
}

func (s *Server) setCaption(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	path, err := req.RequireString("path")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	target, err := req.RequireString("target")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	caption, err := req.RequireString("caption")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if err := s.svc.SetCaption(ctx, path, target, caption); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf("caption set: %s in %s", target, path)), nil
}

func (s *Server) removeCaption(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	path, err := req.RequireString("path")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	target, err := req.RequireString("target")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if err := s.svc.RemoveCaption(ctx, path, target); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf("caption removed: %s in %s", target, path)), nil
}

func (s *Server) renameImage(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	newName, err := req.RequireString("new_name")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	imagePath := ""
	if p, err := req.RequireString("path"); err == nil {
		imagePath = p
	}
	doc := ""
	if d, err := req.RequireString("doc"); err == nil {
		doc = d
	}
	target := ""
	if tg, err := req.RequireString("target"); err == nil {
		target = tg
	}

	var newPath string
	switch {
	case imagePath != "":
		newPath, err = s.svc.RenameImage(ctx, imagePath, newName)
	case doc != "" && target != "":
		newPath, err = s.svc.RenameFromLink(ctx, doc, target, newName)
	default:
		return mcp.NewToolResultError("path or doc+target is required"), nil
	}
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf("renamed: %s", newPath)), nil
}

func (s *Server) previewBulkRename(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	mode := ""
	if m, err := req.RequireString("mode"); err == nil {
		mode = m
	}
	filter := ""
	if f, err := req.RequireString("filter"); err == nil {
		filter = f
	}
	pattern := ""
	if p, err := req.RequireString("pattern"); err == nil {
		pattern = p
	}

	items, err := s.svc.BulkPreview(ctx, bulkrename.Mode(mode), bulkrename.Filter(filter), pattern)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if len(items) == 0 {
		return mcp.NewToolResultText("nothing to rename"), nil
	}
	out, _ := json.MarshalIndent(items, "", "  ")
	return mcp.NewToolResultText(string(out)), nil
}

func (s *Server) executeBulkRename(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	raw, err := req.RequireString("items")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	var items []bulkrename.Item
	if err := json.Unmarshal([]byte(raw), &items); err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("invalid items JSON: %v", err)), nil
	}

	res := s.svc.BulkExecute(ctx, items)
	var b strings.Builder
	fmt.Fprintf(&b, "renamed %d, failed %d", res.Success, res.Failed)
	for _, e := range res.Errors {
		fmt.Fprintf(&b, "\n%s: %v", e.Name, e.Err)
	}
	return mcp.NewToolResultText(b.String()), nil
}

func (s *Server) scanOrphans(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	report, err := s.svc.Orphans(ctx)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	out, _ := json.MarshalIndent(report, "", "  ")
	return mcp.NewToolResultText(string(out)), nil
}

func (s *Server) listImages(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	entries, err := s.svc.ListImages(ctx)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if len(entries) == 0 {
		return mcp.NewToolResultText("no images in vault"), nil
	}
	out, _ := json.MarshalIndent(entries, "", "  ")
	return mcp.NewToolResultText(string(out)), nil
}

func (s *Server) getNamingContract(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return mcp.NewToolResultText(NamingContract), nil
}

func (s *Server) readNamingRulesResource(ctx context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      "pictor://naming-rules",
			MIMEType: "text/markdown",
			Text:     NamingContract,
		},
	}, nil
}
