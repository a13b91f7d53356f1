package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	_ "github.com/joho/godotenv/autoload"
	"github.com/urfave/cli/v3"
	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/ybarda/stagekeeper/internal/app"
	"github.com/ybarda/stagekeeper/internal/credential"
	"github.com/ybarda/stagekeeper/internal/journal"
	"github.com/ybarda/stagekeeper/internal/model"
)

func run(ctx context.Context, cmd *cli.Command) error {
	configPath := cmd.String("config")
	stageID := cmd.String("stage")

	cfg, err := model.LoadConfig(configPath)
	if err != nil {
		return fmt.Errorf("failed to parse config: %w", err)
	}

	if project := cmd.String("project"); project != "" {
		cfg.Server.ProjectID = project
	}

	// The terminal belongs to the UI; all logging goes to a rotating file.
	logger := slog.New(slog.NewJSONHandler(&lumberjack.Logger{
		Filename:   cfg.Log.File,
		MaxSize:    cfg.Log.MaxSizeMB,
		MaxBackups: cfg.Log.MaxBackups,
	}, nil))
	slog.SetDefault(logger)

	token := os.Getenv("STAGEKEEPER_TOKEN")
	if token == "" {
		// A missing token is not fatal; the app opens on the setup form.
		token, _ = credential.Token()
	}

	j, err := journal.Open(cfg.Journal.Path, logger)
	if err != nil {
		return fmt.Errorf("opening session journal: %w", err)
	}
	defer j.Close()

	logger.Info("starting",
		slog.String("base_url", cfg.Server.BaseURL),
		slog.String("project_id", cfg.Server.ProjectID),
		slog.String("stage_id", stageID))

	root := app.New(cfg, configPath, token, stageID, j, logger)
	program := tea.NewProgram(root, tea.WithAltScreen(), tea.WithContext(ctx))
	if _, err := program.Run(); err != nil {
		return fmt.Errorf("running UI: %w", err)
	}

	return nil
}

func main() {
	cmd := &cli.Command{
		Name:   "stagekeeper",
		Usage:  "Track construction-stage checklists, notes, and photos from the terminal",
		Action: run,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "Path to config file",
				Value:   model.DefaultConfigPath(),
				Sources: cli.EnvVars("STAGEKEEPER_CONFIG"),
			},
			&cli.StringFlag{
				Name:     "stage",
				Aliases:  []string{"s"},
				Usage:    "Stage ID to open",
				Required: true,
			},
			&cli.StringFlag{
				Name:    "project",
				Aliases: []string{"p"},
				Usage:   "Project ID (overrides the configured one)",
			},
		},
	}

	if err := cmd.Run(context.Background(), os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
