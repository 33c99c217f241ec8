package handlers

import (
	"autoblog/internal/config"
	"autoblog/internal/logger"
	"autoblog/internal/tui"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
)

// NewTUICmd creates the TUI command
func NewTUICmd() *cobra.Command {
	var (
		templateName string
		model        string
		apiKey       string
		logFile      string
	)

	cmd := &cobra.Command{
		Use:   "tui",
		Short: "Launch the interactive terminal interface",
		Long: `Launch an interactive session: enter a topic, review the generated post,
then press f for a fact update, s for a spelling pass, n for a new topic
or q to quit.

The interface owns the terminal, so logs go to a file (tui.log in the data
directory unless --log-file is given).`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(cfgFile)
			if err != nil {
				return fmt.Errorf("failed to load config: %w", err)
			}

			// Redirect before the pipeline is built so every component logs to the file.
			out, err := openTUILog(cfg.App.DataDir, logFile)
			if err != nil {
				fmt.Fprintf(cmd.ErrOrStderr(), "Logging disabled: %v\n", err)
				out = nopCloser{io.Discard}
			}
			logger.SetOutput(out, cfg.LogLevel(), cfg.Logging.Format)
			defer func() {
				logger.Configure(cfg.LogLevel(), cfg.Logging.Format)
				out.Close()
			}()

			a, err := loadApp(cmd.Context())
			if err != nil {
				return err
			}
			defer a.Close()

			body, err := a.resolveTemplate(templateName, "")
			if err != nil {
				return err
			}
			return tui.Run(cmd.Context(), a.pipeline, tui.Options{Template: body, Model: model, APIKey: apiKey})
		},
	}

	cmd.Flags().StringVarP(&templateName, "template", "t", "", "Template name from the library")
	cmd.Flags().StringVarP(&model, "model", "m", "", "Preferred model (default from config)")
	cmd.Flags().StringVar(&apiKey, "api-key", "", "API key for the preferred model's provider (overrides config)")
	cmd.Flags().StringVar(&logFile, "log-file", "", "Write logs here (default: tui.log in the data directory)")

	return cmd
}

type nopCloser struct {
	io.Writer
}

func (nopCloser) Close() error { return nil }

// openTUILog opens path for appending, or tui.log under dataDir when path is empty.
func openTUILog(dataDir, path string) (io.WriteCloser, error) {
	if path == "" {
		if dataDir == "" {
			dataDir = "."
		}
		if err := os.MkdirAll(dataDir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create data directory: %w", err)
		}
		path = filepath.Join(dataDir, "tui.log")
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return nil, fmt.Errorf("failed to open log file: %w", err)
	}
	return f, nil
}
