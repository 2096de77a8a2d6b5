package main

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/justsurfingit/pipeline-board/internal/board"
	"github.com/justsurfingit/pipeline-board/internal/remote"
	"github.com/justsurfingit/pipeline-board/internal/settings"
	"github.com/justsurfingit/pipeline-board/internal/tui"
)

var (
	apiURL       string
	settingsPath string
	logPath      string
)

var rootCmd = &cobra.Command{
	Use:   "board",
	Short: "Terminal kanban board for the job pipeline",
	RunE: func(cmd *cobra.Command, args []string) error {
		_ = godotenv.Load()

		if apiURL == "" {
			apiURL = os.Getenv("JOBS_API_URL")
		}
		if apiURL == "" {
			apiURL = "http://localhost:8080/api/v1"
		}
		if settingsPath == "" {
			settingsPath = defaultPath("settings.yaml")
		}
		if logPath == "" {
			logPath = defaultPath("board.log")
		}

		logger, closeLog, err := newLogger(logPath)
		if err != nil {
			return err
		}
		defer closeLog()

		port, err := settings.NewFilePort(settingsPath)
		if err != nil {
			return fmt.Errorf("open settings: %w", err)
		}
		prefs := settings.Load(port)

		client := remote.New(apiURL)
		b := board.New(client, prefs, board.WithLogger(logger))

		logger.Info("board starting", "api", apiURL)
		return tui.Run(b)
	},
}

// newLogger writes JSON logs to a file so log output doesn't fight the TUI
// for the terminal.
func newLogger(path string) (*slog.Logger, func(), error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, nil, err
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, nil, err
	}
	logger := slog.New(slog.NewJSONHandler(f, nil))
	return logger, func() { f.Close() }, nil
}

func defaultPath(name string) string {
	home, err := os.UserHomeDir()
	if err != nil {
		return name
	}
	return filepath.Join(home, ".pipeline-board", name)
}

func main() {
	rootCmd.Flags().StringVar(&apiURL, "api-url", "", "Jobs API base URL (default $JOBS_API_URL or http://localhost:8080/api/v1)")
	rootCmd.Flags().StringVar(&settingsPath, "settings", "", "settings file path (default ~/.pipeline-board/settings.yaml)")
	rootCmd.Flags().StringVar(&logPath, "log", "", "log file path (default ~/.pipeline-board/board.log)")
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
