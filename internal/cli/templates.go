package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newTemplatesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "templates",
		Short: "List the templates available to \"darkrift new\"",
		Args:  cobra.NoArgs,
		RunE:  runTemplates,
	}
}

type templatesResult struct {
	Root      string   `json:"root"`
	Templates []string `json:"templates"`
}

func runTemplates(cmd *cobra.Command, _ []string) error {
	a, err := openApp(cmd)
	if err != nil {
		return err
	}
	defer a.Close()

	names, err := a.templates.Available()
	if err != nil {
		return err
	}
	if outputJSON {
		if names == nil {
			names = []string{}
		}
		return writeJSON(cmd, templatesResult{Root: a.templates.Root(), Templates: names})
	}
	if len(names) == 0 {
		fmt.Fprintf(cmd.OutOrStdout(), "No templates found in %s\n", a.templates.Root())
		return nil
	}
	for _, name := range names {
		fmt.Fprintln(cmd.OutOrStdout(), name)
	}
	return nil
}
