package handlers

import (
	"fmt"

	"github.com/spf13/cobra"
)

// NewTemplatesCmd creates the templates command group
func NewTemplatesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "templates",
		Aliases: []string{"template"},
		Short:   "Manage prompt templates",
		Long: `Manage the prompt template library.

Built-in templates are always available. Custom templates are stored in the
configured backend (sqlite, postgres or redis). Saving a custom template
with a built-in's name overrides it; deleting the override restores it.`,
	}

	cmd.AddCommand(newTemplatesListCmd())
	cmd.AddCommand(newTemplatesShowCmd())
	cmd.AddCommand(newTemplatesSaveCmd())
	cmd.AddCommand(newTemplatesDeleteCmd())

	return cmd
}

func newTemplatesListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List templates",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := loadApp(cmd.Context())
			if err != nil {
				return err
			}
			defer a.Close()

			out := cmd.OutOrStdout()
			for _, tmpl := range a.library.List() {
				kind := "custom"
				if tmpl.Builtin {
					kind = "built-in"
				}
				fmt.Fprintf(out, "%s %s\n", headerStyle.Render(tmpl.Name), labelStyle.Render("("+kind+")"))
			}
			return nil
		},
	}
}

func newTemplatesShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show <name>",
		Short: "Print a template body",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := loadApp(cmd.Context())
			if err != nil {
				return err
			}
			defer a.Close()

			tmpl, err := a.library.Get(args[0])
			if err != nil {
				return err
			}
			return writeOutput(cmd.OutOrStdout(), "", tmpl.Body)
		},
	}
}

func newTemplatesSaveCmd() *cobra.Command {
	var file string

	cmd := &cobra.Command{
		Use:   "save <name>",
		Short: "Save a custom template",
		Long: `Save a custom template. The body is read from --file or stdin and should
contain {topic} where the topic goes.

Examples:
  autoblog templates save "리뷰" --file review.txt
  echo "{topic} 후기를 써 주세요." | autoblog templates save "후기"`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			body, err := readInput(cmd.InOrStdin(), file)
			if err != nil {
				return err
			}

			a, err := loadApp(cmd.Context())
			if err != nil {
				return err
			}
			defer a.Close()

			if err := a.library.Save(cmd.Context(), args[0], body); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), successStyle.Render("Saved template "+args[0]))
			return nil
		},
	}

	cmd.Flags().StringVarP(&file, "file", "f", "", "Read the template body from this file (default: stdin)")
	return cmd
}

func newTemplatesDeleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete <name>",
		Short: "Delete a custom template",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := loadApp(cmd.Context())
			if err != nil {
				return err
			}
			defer a.Close()

			if err := a.library.Delete(cmd.Context(), args[0]); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), successStyle.Render("Deleted template "+args[0]))
			return nil
		},
	}
}
