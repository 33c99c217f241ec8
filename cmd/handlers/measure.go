package handlers

import (
	"autoblog/internal/config"
	"autoblog/internal/textstats"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

// NewMeasureCmd creates the measure command
func NewMeasureCmd() *cobra.Command {
	var (
		script string
		asJSON bool
	)

	cmd := &cobra.Command{
		Use:   "measure [file]",
		Short: "Count characters of an HTML body",
		Long: `Strip markup from an HTML body and count total characters, characters
without whitespace, and characters of the configured script.

Scripts: ` + strings.Join(textstats.ScriptNames(), ", ") + `

Examples:
  autoblog measure post.html
  cat post.html | autoblog measure --script latin`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := ""
			if len(args) == 1 {
				path = args[0]
			}
			html, err := readInput(cmd.InOrStdin(), path)
			if err != nil {
				return err
			}

			if script == "" {
				if cfg, err := config.Load(cfgFile); err == nil {
					script = cfg.Text.Script
				}
			}
			table, err := textstats.ScriptByName(script)
			if err != nil {
				return err
			}

			stats := textstats.NewCounter(table).Measure(html)
			if asJSON {
				return json.NewEncoder(cmd.OutOrStdout()).Encode(stats)
			}
			fmt.Fprintln(cmd.OutOrStdout(), formatStats(stats))
			return nil
		},
	}

	cmd.Flags().StringVar(&script, "script", "", "Script to count (default from config: hangul-syllables)")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print counts as JSON")

	return cmd
}
