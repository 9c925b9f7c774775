package cmd

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"watermarker/internal/template"
	"watermarker/internal/tui"
)

var (
	templateSaveFrom  string
	templateSaveFresh bool
	templateSaveFlags *watermarkFlags
)

var templateCmd = &cobra.Command{
	Use:   "template",
	Short: "Manage saved watermark templates",
}

var templateListCmd = &cobra.Command{
	Use:   "list",
	Short: "List saved templates",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		names, err := env.store.List(cmd.Context())
		if err != nil {
			return err
		}
		if len(names) == 0 {
			fmt.Fprintln(os.Stdout, "No templates saved.")
			return nil
		}
		for _, name := range names {
			fmt.Fprintln(os.Stdout, name)
		}
		return nil
	},
}

var templateShowCmd = &cobra.Command{
	Use:   "show [name]",
	Short: "Print a template as JSON; without a name, the last-used settings",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		var (
			tpl template.Template
			err error
		)
		if len(args) == 1 {
			tpl, err = env.store.Load(cmd.Context(), args[0])
		} else {
			tpl, err = env.store.LoadLastUsed(cmd.Context())
			if errors.Is(err, template.ErrNotFound) {
				return fmt.Errorf("no last-used settings recorded yet")
			}
		}
		if err != nil {
			return err
		}
		return printTemplate(tpl)
	},
}

var templateSaveCmd = &cobra.Command{
	Use:   "save [flags] <name>",
	Short: "Save watermark settings under a name",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		name := args[0]
		if err := template.ValidateName(name); err != nil {
			return err
		}

		tpl, err := resolveTemplate(ctx, cmd, env.store, templateSaveFlags, templateSaveFrom, templateSaveFresh)
		if err != nil {
			return err
		}
		tpl.Name = name
		if err := env.store.Save(ctx, tpl); err != nil {
			return err
		}
		if err := env.store.SaveLastUsed(ctx, tpl); err != nil {
			env.log.WithError(err).Warn("Could not record last-used settings")
		}
		fmt.Fprintln(os.Stdout, tui.RenderOK(fmt.Sprintf("Saved template %q", name)))
		return nil
	},
}

var templateLoadCmd = &cobra.Command{
	Use:   "load <name>",
	Short: "Make a saved template the last-used settings and print it",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		tpl, err := env.store.Load(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		if err := env.store.SaveLastUsed(cmd.Context(), tpl); err != nil {
			return err
		}
		return printTemplate(tpl)
	},
}

var templateDeleteCmd = &cobra.Command{
	Use:   "delete <name>",
	Short: "Delete a saved template",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := env.store.Delete(cmd.Context(), args[0]); err != nil {
			return err
		}
		fmt.Fprintln(os.Stdout, tui.RenderOK(fmt.Sprintf("Deleted template %q", args[0])))
		return nil
	},
}

func printTemplate(tpl template.Template) error {
	data, err := template.Encode(tpl)
	if err != nil {
		return err
	}
	fmt.Fprintln(os.Stdout, string(data))
	return nil
}

func init() {
	templateSaveCmd.Flags().StringVar(&templateSaveFrom, "from", "", "start from this saved template instead of the last-used settings")
	templateSaveCmd.Flags().BoolVar(&templateSaveFresh, "fresh", false, "start from default settings")
	templateSaveCmd.MarkFlagsMutuallyExclusive("from", "fresh")
	templateSaveFlags = addWatermarkFlags(templateSaveCmd)

	templateCmd.AddCommand(templateListCmd, templateShowCmd, templateSaveCmd, templateLoadCmd, templateDeleteCmd)
	rootCmd.AddCommand(templateCmd)
}
