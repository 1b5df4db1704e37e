package cli

import (
	"errors"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"darkrift/internal/serverconfig"
)

func newGetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "get <url>",
		Short: "Download a plugin package into the project",
		Long: "Download a zipped plugin package into the project's packages directory and\n" +
			"register that directory as a plugin search path in Server.config.",
		Args: cobra.ExactArgs(1),
		RunE: runGet,
	}
}

type getResult struct {
	URL                 string `json:"url"`
	PackagesDir         string `json:"packages_dir"`
	ServerConfig        string `json:"server_config"`
	ServerConfigUpdated bool   `json:"server_config_updated"`
	ServerConfigMissing bool   `json:"server_config_missing,omitempty"`
}

func runGet(cmd *cobra.Command, args []string) error {
	a, err := openApp(cmd)
	if err != nil {
		return err
	}
	defer a.Close()

	pp := a.sess.Project
	if err := pp.EnsureTempDir(); err != nil {
		return err
	}
	// Leave no empty staging directory behind.
	defer func() { _ = os.Remove(pp.TempDir) }()

	if err := a.repository(pp.TempDir).DownloadPackageTo(commandContext(cmd), args[0], pp.PackagesDir); err != nil {
		return err
	}

	src := searchPathFor(pp.Root, pp.PackagesDir)
	res := getResult{URL: args[0], PackagesDir: pp.PackagesDir, ServerConfig: pp.ServerConfig}
	res.ServerConfigUpdated, err = serverconfig.AddPluginSearchPath(pp.ServerConfig, pp.ServerConfigBackup(), src)
	switch {
	case errors.Is(err, serverconfig.ErrConfigMissing):
		res.ServerConfigMissing = true
		printWarning(cmd, "Could not find %s. Add the following to your server configuration's <pluginSearch> element:", pp.ServerConfig)
		printHint(cmd, "  %s", serverconfig.Snippet(src))
	case err != nil:
		return err
	}

	if outputJSON {
		return writeJSON(cmd, res)
	}
	printSuccess(cmd, "Package downloaded to %s", pp.PackagesDir)
	if res.ServerConfigUpdated {
		printHint(cmd, "Added %s to the plugin search paths in %s (backup at %s)", src, pp.ServerConfig, pp.ServerConfigBackup())
	}
	return nil
}

// searchPathFor expresses dir relative to the project root when it lives inside it.
func searchPathFor(root, dir string) string {
	rel, err := filepath.Rel(root, dir)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return dir
	}
	return filepath.ToSlash(rel)
}
