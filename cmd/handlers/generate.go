package handlers

import (
	"autoblog/internal/core"
	"autoblog/internal/logger"
	"autoblog/internal/visual"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
)

type generateOptions struct {
	templateName string
	templateFile string
	model        string
	apiKey       string
	outputDir    string
	asJSON       bool
	factCheck    bool
	spellCheck   bool
}

// NewGenerateCmd creates the generate command
func NewGenerateCmd() *cobra.Command {
	var opts generateOptions

	cmd := &cobra.Command{
		Use:   "generate [topic]",
		Short: "Generate a blog post from a topic",
		Long: `Generate a blog post (title, HTML body, tags and thumbnail) from a topic.

The preferred model is tried first, then the configured fallback models.
Optional refinements run after a successful generation; a failed
refinement keeps the generated content.

Examples:
  autoblog generate "coffee brewing"
  autoblog generate "coffee brewing" --template "수익형 블로그 규칙 (가이드라인)"
  autoblog generate "coffee brewing" --fact --spell --output-dir ./out
  autoblog generate "coffee brewing" --json`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runGenerate(cmd, strings.Join(args, " "), opts)
		},
	}

	cmd.Flags().StringVarP(&opts.templateName, "template", "t", "", "Template name from the library (default: built-in HTML template)")
	cmd.Flags().StringVar(&opts.templateFile, "template-file", "", "Read the prompt template from a file")
	cmd.Flags().StringVarP(&opts.model, "model", "m", "", "Preferred model (default from config)")
	cmd.Flags().StringVar(&opts.apiKey, "api-key", "", "API key for the preferred model's provider (overrides config)")
	cmd.Flags().StringVarP(&opts.outputDir, "output-dir", "o", "", "Write the HTML body and thumbnail into this directory")
	cmd.Flags().BoolVar(&opts.asJSON, "json", false, "Print the session as JSON")
	cmd.Flags().BoolVar(&opts.factCheck, "fact", false, "Run the fact update after generation")
	cmd.Flags().BoolVar(&opts.spellCheck, "spell", false, "Run the spelling pass after generation")

	return cmd
}

func runGenerate(cmd *cobra.Command, topic string, opts generateOptions) error {
	ctx := cmd.Context()
	a, err := loadApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	body, err := a.resolveTemplate(opts.templateName, opts.templateFile)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	errOut := cmd.ErrOrStderr()

	sess := core.NewSession("cli")
	fmt.Fprintf(errOut, "Generating post for %q...\n", topic)
	if err := a.pipeline.Start(ctx, sess, core.GenerationRequest{
		Topic:           topic,
		PromptTemplate:  body,
		ModelPreference: opts.model,
		APIKey:          opts.apiKey,
	}); err != nil {
		return errors.New(sess.LastError)
	}

	var kinds []core.RefinementKind
	if opts.factCheck {
		kinds = append(kinds, core.RefineFact)
	}
	if opts.spellCheck {
		kinds = append(kinds, core.RefineSpell)
	}
	for _, kind := range kinds {
		fmt.Fprintf(errOut, "Running %s refinement...\n", kind)
		result, err := a.pipeline.Refine(ctx, sess, kind, opts.apiKey)
		if err != nil {
			return err
		}
		if !result.Succeeded {
			fmt.Fprintln(errOut, warnStyle.Render(fmt.Sprintf("%s refinement failed, content kept: %s", kind, result.ErrorDetail)))
		}
	}

	if opts.outputDir != "" {
		if err := writeSessionFiles(errOut, opts.outputDir, sess); err != nil {
			return err
		}
	}

	if opts.asJSON {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(sess)
	}
	printSession(out, sess)
	return nil
}

func printSession(out io.Writer, sess *core.Session) {
	post := sess.Post
	fmt.Fprintln(out, headerStyle.Render(post.Title))
	fmt.Fprintf(out, "%s %s\n", label("thumbnail title"), post.ThumbnailTitle)
	fmt.Fprintf(out, "%s #%s\n", label("tags"), strings.Join(post.Tags, " #"))
	fmt.Fprintf(out, "%s %s\n", label("backend"), sess.Backend)
	fmt.Fprintln(out, formatStats(sess.Stats))
	if sess.Image.URL != "" && !strings.HasPrefix(sess.Image.URL, "data:") {
		fmt.Fprintf(out, "%s %s\n", label("image"), sess.Image.URL)
	}
	fmt.Fprintln(out)
	fmt.Fprintln(out, post.Content)
}

// writeSessionFiles saves <title>.html and, for embedded thumbnails, the image.
func writeSessionFiles(log io.Writer, dir string, sess *core.Session) error {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}
	name := visual.SanitizeFilename(sess.Post.Title)

	htmlPath := filepath.Join(dir, name+".html")
	if err := os.WriteFile(htmlPath, []byte(sess.Post.Content), 0644); err != nil {
		return fmt.Errorf("failed to write %s: %w", htmlPath, err)
	}
	fmt.Fprintln(log, successStyle.Render("Saved "+htmlPath))

	if strings.HasPrefix(sess.Image.URL, "data:") {
		mime, data, err := visual.DecodeDataURL(sess.Image.URL)
		if err != nil {
			logger.Warn("Skipping thumbnail file", "error", err.Error())
			return nil
		}
		ext := ".jpg"
		if mime == "image/png" {
			ext = ".png"
		}
		imgPath := filepath.Join(dir, name+ext)
		if err := os.WriteFile(imgPath, data, 0644); err != nil {
			return fmt.Errorf("failed to write %s: %w", imgPath, err)
		}
		fmt.Fprintln(log, successStyle.Render("Saved "+imgPath))
	}
	return nil
}
