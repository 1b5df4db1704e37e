package cli

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"darkrift/internal/config"
	"darkrift/internal/failure"
	"darkrift/internal/paths"
	"darkrift/internal/release"
)

var (
	newVersion  string
	newPro      bool
	newPlatform string
	newForce    bool
)

func newNewCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "new <template> [directory]",
		Short: "Create a new project from a template",
		Args:  cobra.RangeArgs(1, 2),
		RunE:  runNew,
	}

	cmd.Flags().StringVar(&newVersion, "version", "", "DarkRift version to build against (default latest)")
	cmd.Flags().BoolVar(&newPro, "pro", false, "Use the Pro tier")
	cmd.Flags().StringVar(&newPlatform, "platform", "", "Target platform: framework or core")
	cmd.Flags().BoolVarP(&newForce, "force", "f", false, "Create the project even if the directory is not empty")

	return cmd
}

// resolveNewDir picks the project directory: an explicit argument relative
// to the working directory, then --project, then the working directory.
func resolveNewDir(projectFlag string, args []string) (string, error) {
	if len(args) > 1 {
		return filepath.Abs(args[1])
	}
	if projectFlag != "" {
		return filepath.Abs(projectFlag)
	}
	cwd, err := os.Getwd()
	if err != nil {
		return "", fmt.Errorf("get working directory: %w", err)
	}
	return cwd, nil
}

type newResult struct {
	Template      string   `json:"template"`
	Dir           string   `json:"dir"`
	ResourceName  string   `json:"resource_name"`
	Version       string   `json:"version"`
	Tier          string   `json:"tier"`
	Platform      string   `json:"platform"`
	Files         []string `json:"files"`
	ConfigWritten bool     `json:"config_written"`
}

func runNew(cmd *cobra.Command, args []string) error {
	name := args[0]
	tier := tierFlag(newPro)
	platform, err := platformFlag(newPlatform)
	if err != nil {
		return err
	}
	dir, err := resolveNewDir(projectDir, args)
	if err != nil {
		return err
	}

	a, err := openApp(cmd)
	if err != nil {
		return err
	}
	defer a.Close()
	ctx := commandContext(cmd)

	// Fail on the directory or template before anything is downloaded.
	if _, err := a.templates.Check(name, dir, newForce); err != nil {
		return a.explainTemplateError(cmd, args, err)
	}

	version, err := a.resolveVersion(ctx, newVersion)
	if err != nil {
		return err
	}
	if _, err := a.provision(cmd, "Installing", []job{{Artifact: artifactRuntime, Version: version, Tier: tier, Platform: platform}}, false); err != nil {
		return err
	}

	res, err := a.templates.Template(name, dir, version, tier, platform, newForce)
	if err != nil {
		return a.explainTemplateError(cmd, args, err)
	}

	sel := release.Selector{Version: version, Tier: tier, Platform: platform}
	written, err := writeProjectConfig(paths.NewProjectPaths(res.Dir), sel)
	if err != nil {
		return err
	}

	if outputJSON {
		return writeJSON(cmd, newResult{
			Template:      name,
			Dir:           res.Dir,
			ResourceName:  res.ResourceName,
			Version:       version,
			Tier:          tier.String(),
			Platform:      platform.String(),
			Files:         res.Files,
			ConfigWritten: written,
		})
	}
	printSuccess(cmd, "Created %s from template %q in %s using %s", res.ResourceName, name, res.Dir, sel)
	return nil
}

// writeProjectConfig pins the project to sel unless the template already
// shipped its own configuration.
func writeProjectConfig(pp paths.ProjectPaths, sel release.Selector) (bool, error) {
	for _, existing := range []string{pp.ConfigFile, pp.LegacyConfigFile} {
		ok, err := paths.FileExists(existing)
		if err != nil {
			return false, err
		}
		if ok {
			return false, nil
		}
	}
	cfg := config.Default()
	cfg.Runtime = &config.RuntimeConfig{Version: sel.Version, Tier: sel.Tier, Platform: sel.Platform}
	if err := cfg.Save(pp.ConfigFile); err != nil {
		return false, err
	}
	return true, nil
}

func (a *app) explainTemplateError(cmd *cobra.Command, args []string, err error) error {
	switch {
	case failure.IsCode(err, failure.CodeDirectoryNotEmpty):
		retry := append([]string{"darkrift", "new"}, args...)
		printHint(cmd, "Use `%s -f` to create the project anyway.", strings.Join(retry, " "))
	case failure.IsCode(err, failure.CodeUnknownTemplate):
		available, listErr := a.templates.Available()
		if listErr == nil && len(available) > 0 {
			printHint(cmd, "Available templates: %s", strings.Join(available, ", "))
		} else {
			printHint(cmd, "No templates found in %s", a.templates.Root())
		}
	}
	return err
}
