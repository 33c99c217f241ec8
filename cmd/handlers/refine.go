package handlers

import (
	"autoblog/internal/core"
	"autoblog/internal/generator"
	"fmt"

	"github.com/spf13/cobra"
)

// NewRefineCmd creates the refine command
func NewRefineCmd() *cobra.Command {
	var (
		file   string
		topic  string
		output string
		apiKey string
		model  string
	)

	cmd := &cobra.Command{
		Use:   "refine fact|spell",
		Short: "Refine existing post content",
		Long: `Refine an existing HTML post body.

  fact   update outdated or wrong facts (needs --topic for context)
  spell  correct spelling, spacing and grammar without touching tags

The content is read from --file or stdin. When the refinement fails the
input is left untouched and nothing is written.

Examples:
  autoblog refine spell --file post.html --output post.html
  cat post.html | autoblog refine fact --topic "전기요금 절약"`,
		Args:      cobra.ExactArgs(1),
		ValidArgs: []string{string(core.RefineFact), string(core.RefineSpell)},
		RunE: func(cmd *cobra.Command, args []string) error {
			kind := core.RefinementKind(args[0])
			if !kind.Valid() {
				return fmt.Errorf("unknown refinement %q: use fact or spell", args[0])
			}

			content, err := readInput(cmd.InOrStdin(), file)
			if err != nil {
				return err
			}

			_, pipeline, err := loadPipeline()
			if err != nil {
				return err
			}

			sess := core.NewSession("cli")
			sess.State = core.StateReady
			sess.Topic = topic
			sess.Backend = model
			sess.Post = &core.BlogPost{Content: content}

			result, err := pipeline.Refine(cmd.Context(), sess, kind, apiKey)
			if err != nil {
				return fmt.Errorf("%s", generator.UserMessage(err))
			}
			if !result.Succeeded {
				return fmt.Errorf("%s refinement failed, content unchanged: %s", kind, result.ErrorDetail)
			}

			if err := writeOutput(cmd.OutOrStdout(), output, result.Content); err != nil {
				return err
			}
			fmt.Fprintln(cmd.ErrOrStderr(), formatStats(sess.Stats))
			return nil
		},
	}

	cmd.Flags().StringVarP(&file, "file", "f", "", "Read content from this file (default: stdin)")
	cmd.Flags().StringVar(&topic, "topic", "", "Original topic, used by the fact update")
	cmd.Flags().StringVarP(&output, "output", "o", "", "Write refined content to this file (default: stdout)")
	cmd.Flags().StringVar(&apiKey, "api-key", "", "API key for the refinement model's provider (overrides config)")
	cmd.Flags().StringVarP(&model, "model", "m", "", "Model to refine with (default from config)")

	return cmd
}
