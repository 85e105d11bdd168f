package internal

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/starford/pictor/internal/bulkrename"
	"github.com/starford/pictor/internal/imageservice"
	"github.com/starford/pictor/internal/index"
	"github.com/starford/pictor/internal/mcpserver"
	"github.com/starford/pictor/internal/vault"
)

// newCLILogger logs to stderr so command output owns stdout.
func newCLILogger(cfg *Config) *slog.Logger {
	logger := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{
		Level: cfg.App.LogLevel,
	}))
	slog.SetDefault(logger)
	return logger
}

// setup builds the vault host, index, and image service shared by the
// one-shot commands. The returned cleanup closes the index.
func setup(cfg *Config, logger *slog.Logger) (*imageservice.Service, func(), error) {
	host, err := vault.NewFS(cfg.Vault.Path)
	if err != nil {
		return nil, nil, fmt.Errorf("init vault: %w", err)
	}
	db, err := index.Open(cfg.SQLite.Path)
	if err != nil {
		return nil, nil, fmt.Errorf("init index: %w", err)
	}
	if err := index.Sync(db, host, logger); err != nil {
		db.Close()
		return nil, nil, fmt.Errorf("initial sync: %w", err)
	}
	svc := imageservice.New(host, db, cfg.ServiceConfig(), logger)
	return svc, func() { db.Close() }, nil
}

// RunOrphanScan scans the vault for unreferenced images, prints the report,
// and optionally trashes what it found.
func RunOrphanScan(ctx context.Context, cfg *Config, trash bool) error {
	logger := newCLILogger(cfg)
	svc, cleanup, err := setup(cfg, logger)
	if err != nil {
		return err
	}
	defer cleanup()

	report, err := svc.Orphans(ctx)
	if err != nil {
		return err
	}

	fmt.Printf("%d image(s), %d referenced, %d orphaned (%d bytes)\n",
		report.TotalCount, report.ReferencedCount, len(report.Orphaned), report.OrphanedBytes)
	for _, img := range report.Orphaned {
		fmt.Printf("  %s (%d bytes)\n", img.Path, img.Size)
	}
	if !trash || len(report.Orphaned) == 0 {
		return nil
	}

	paths := make([]string, len(report.Orphaned))
	for i, img := range report.Orphaned {
		paths[i] = img.Path
	}
	res := svc.TrashOrphans(ctx, paths)
	fmt.Printf("trashed %d image(s)\n", len(res.Trashed))
	for _, e := range res.Errors {
		fmt.Printf("  %s: %s\n", e.Path, e.Error)
	}
	return nil
}

// RunBulkRename previews a bulk rename plan on stdout and, with apply set,
// executes every proposal in it.
func RunBulkRename(ctx context.Context, cfg *Config, mode, filter, pattern string, apply bool) error {
	logger := newCLILogger(cfg)
	svc, cleanup, err := setup(cfg, logger)
	if err != nil {
		return err
	}
	defer cleanup()

	items, err := svc.BulkPreview(ctx, bulkrename.Mode(mode), bulkrename.Filter(filter), pattern)
	if err != nil {
		return err
	}
	if len(items) == 0 {
		fmt.Println("nothing to rename")
		return nil
	}
	for _, it := range items {
		fmt.Printf("  %s -> %s (note %s)\n", it.CurrentName, it.NewName, it.Note)
	}
	if !apply {
		fmt.Printf("%d proposal(s); run with --apply to rename\n", len(items))
		return nil
	}

	for i := range items {
		items[i].Selected = true
	}
	res := svc.BulkExecute(ctx, items)
	fmt.Printf("renamed %d, failed %d\n", res.Success, res.Failed)
	for _, e := range res.Errors {
		fmt.Printf("  %s: %v\n", e.Name, e.Err)
	}
	return nil
}

// RunMCP serves the MCP tool surface on stdin/stdout. Logs go to stderr so
// the stdio transport owns stdout.
func RunMCP(_ context.Context, cfg *Config) error {
	logger := newCLILogger(cfg)
	svc, cleanup, err := setup(cfg, logger)
	if err != nil {
		return err
	}
	defer cleanup()
	return mcpserver.New(svc).ServeStdio()
}
