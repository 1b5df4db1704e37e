package cli

import (
	"fmt"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"darkrift/internal/cache"
	"darkrift/internal/config"
	"darkrift/internal/failure"
	"darkrift/internal/paths"
)

func newConfigCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Inspect or edit the project configuration",
	}

	cmd.AddCommand(newConfigShowCmd())
	cmd.AddCommand(newConfigEditCmd())
	cmd.AddCommand(newConfigValidateCmd())
	return cmd
}

func newConfigShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Print the effective configuration in YAML",
		Args:  cobra.NoArgs,
		RunE:  runConfigShow,
	}
}

func newConfigEditCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "edit",
		Short: "Open darkrift.yaml in $EDITOR",
		Args:  cobra.NoArgs,
		RunE:  runConfigEdit,
	}
}

func newConfigValidateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "validate",
		Short: "Check the project configuration for problems",
		Args:  cobra.NoArgs,
		RunE:  runConfigValidate,
	}
}

func runConfigShow(cmd *cobra.Command, _ []string) error {
	a, err := openApp(cmd)
	if err != nil {
		return err
	}
	defer a.Close()

	data, err := a.sess.Config.Marshal()
	if err != nil {
		return err
	}
	fmt.Fprint(cmd.OutOrStdout(), string(data))
	if len(data) == 0 || data[len(data)-1] != '\n' {
		fmt.Fprintln(cmd.OutOrStdout())
	}
	return nil
}

func runConfigEdit(cmd *cobra.Command, _ []string) error {
	a, err := openApp(cmd)
	if err != nil {
		return err
	}
	defer a.Close()

	// A legacy Project.xml is converted so there is a YAML file to edit.
	exists, err := paths.FileExists(a.sess.Project.ConfigFile)
	if err != nil {
		return err
	}
	if !exists {
		pinned, err := a.pinRuntime(commandContext(cmd))
		if err != nil {
			return err
		}
		if !pinned {
			if err := a.sess.SaveConfig(); err != nil {
				return err
			}
		}
	}

	editor := strings.TrimSpace(os.Getenv("EDITOR"))
	if editor == "" {
		editor = "vi"
	}
	parts := strings.Fields(editor)
	parts = append(parts, a.sess.Project.ConfigFile)

	_, err = a.runner.Run(commandContext(cmd), parts[0], parts[1:], cache.RunOptions{
		Dir:    a.sess.Project.Root,
		Stdin:  cmd.InOrStdin(),
		Stdout: cmd.OutOrStdout(),
		Stderr: cmd.ErrOrStderr(),
	})
	if err != nil {
		return fmt.Errorf("editor exited with error: %w", err)
	}
	return nil
}

type configValidation struct {
	File     string                    `json:"file"`
	Found    bool                      `json:"found"`
	Findings []config.ValidationResult `json:"findings"`
}

func runConfigValidate(cmd *cobra.Command, _ []string) error {
	a, err := openApp(cmd)
	if err != nil {
		return err
	}
	defer a.Close()

	res := configValidation{File: a.sess.Project.ConfigFile, Found: a.sess.ConfigFound, Findings: a.sess.Config.Validate()}
	if res.Findings == nil {
		res.Findings = []config.ValidationResult{}
	}
	if outputJSON {
		if err := writeJSON(cmd, res); err != nil {
			return err
		}
	} else if len(res.Findings) == 0 {
		printSuccess(cmd, "%s is valid", res.File)
	} else {
		w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 2, 2, ' ', 0)
		fmt.Fprintln(w, "LEVEL\tMESSAGE")
		for _, f := range res.Findings {
			fmt.Fprintf(w, "%s\t%s\n", f.Level, f.Message)
		}
		if err := w.Flush(); err != nil {
			return err
		}
	}

	if config.HasErrors(res.Findings) {
		return failure.Newf(failure.CodeConfiguration, "%s has errors", res.File)
	}
	return nil
}
