package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	_ "github.com/joho/godotenv/autoload"
	"github.com/urfave/cli/v3"

	"github.com/starford/pictor/internal"
	pkgconfig "github.com/starford/pictor/pkg/config"
)

func loadConfig(cmd *cli.Command) (*internal.Config, error) {
	cfg := internal.NewDefaultConfig()
	if err := pkgconfig.Load(cmd.String("config"), cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	return cfg, nil
}

func serve(ctx context.Context, cmd *cli.Command) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	if err := internal.Run(ctx, internal.WithConfig(cfg)); err != nil {
		return fmt.Errorf("app run error: %w", err)
	}
	return nil
}

func main() {
	cmd := &cli.Command{
		Name:   "pictor",
		Usage:  "Image-link consistency engine for Markdown note vaults",
		Action: serve,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:        "config",
				Aliases:     []string{"c"},
				Usage:       "Path to config file",
				DefaultText: "config/config.yaml",
				Value:       "config/config.yaml",
				Sources:     cli.EnvVars("APP_CONFIG_FILE"),
			},
		},
		Commands: []*cli.Command{
			{
				Name:   "serve",
				Usage:  "Run the HTTP API, SSE stream, and vault watcher (default)",
				Action: serve,
			},
			{
				Name:  "orphans",
				Usage: "Scan the vault for images no note references",
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:  "trash",
						Usage: "Move orphaned images to the vault trash",
					},
				},
				Action: func(ctx context.Context, cmd *cli.Command) error {
					cfg, err := loadConfig(cmd)
					if err != nil {
						return err
					}
					return internal.RunOrphanScan(ctx, cfg, cmd.Bool("trash"))
				},
			},
			{
				Name:  "rename",
				Usage: "Preview or apply a bulk rename of images after their notes",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:  "mode",
						Usage: "replace, prepend or pattern",
						Value: "replace",
					},
					&cli.StringFlag{
						Name:  "filter",
						Usage: "generic or all (default from config)",
					},
					&cli.StringFlag{
						Name:  "pattern",
						Usage: "template for pattern mode, e.g. \"{note} {n}\"",
					},
					&cli.BoolFlag{
						Name:  "apply",
						Usage: "Apply the plan instead of only printing it",
					},
				},
				Action: func(ctx context.Context, cmd *cli.Command) error {
					cfg, err := loadConfig(cmd)
					if err != nil {
						return err
					}
					return internal.RunBulkRename(ctx, cfg,
						cmd.String("mode"), cmd.String("filter"), cmd.String("pattern"), cmd.Bool("apply"))
				},
			},
			{
				Name:  "mcp",
				Usage: "Serve MCP tools on stdin/stdout",
				Action: func(ctx context.Context, cmd *cli.Command) error {
					cfg, err := loadConfig(cmd)
					if err != nil {
						return err
					}
					return internal.RunMCP(ctx, cfg)
				},
			},
		},
	}

	if err := cmd.Run(context.Background(), os.Args); err != nil {
		slog.Error("application error", slog.String("error", err.Error()))
		os.Exit(1)
	}
}
