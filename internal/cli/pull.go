package cli

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"darkrift/internal/failure"
	"darkrift/internal/release"
	"darkrift/internal/tui"
)

var (
	pullPro      bool
	pullPlatform string
	pullDocs     bool
	pullList     bool
	pullForce    bool
)

func newPullCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "pull [version|latest]",
		Short: "Download a DarkRift version into the local cache",
		Long: "Download a DarkRift version into the local cache. Without a version the\n" +
			"runtime pinned in the project configuration is used.",
		Args: cobra.MaximumNArgs(1),
		RunE: runPull,
	}

	cmd.Flags().BoolVar(&pullPro, "pro", false, "Use the Pro tier")
	cmd.Flags().StringVar(&pullPlatform, "platform", "", "Target platform: framework or core")
	cmd.Flags().BoolVar(&pullDocs, "docs", false, "Download the documentation for the version instead of the server")
	cmd.Flags().BoolVar(&pullList, "list", false, "List installed versions instead of downloading")
	cmd.Flags().BoolVarP(&pullForce, "force", "f", false, "Download again even if already installed")

	return cmd
}

// listedCombinations are the builds published for download.
var listedCombinations = []struct {
	Tier     release.Tier
	Platform release.Platform
}{
	{release.TierFree, release.PlatformFramework},
	{release.TierPro, release.PlatformFramework},
	{release.TierPro, release.PlatformCore},
}

type listedInstall struct {
	Version  string `json:"version"`
	Tier     string `json:"tier"`
	Platform string `json:"platform"`
	Path     string `json:"path"`
	Docs     bool   `json:"docs"`
}

func runPull(cmd *cobra.Command, args []string) error {
	a, err := openApp(cmd)
	if err != nil {
		return err
	}
	defer a.Close()

	if pullList {
		return a.listInstalled(cmd)
	}

	requested, tier, platform, err := a.pullSelector(cmd, args)
	if err != nil {
		return err
	}
	version, err := a.resolveVersion(commandContext(cmd), requested)
	if err != nil {
		return err
	}

	// Documentation has no tier, so --docs pulls it instead of the runtime.
	jobs := []job{{Artifact: artifactRuntime, Version: version, Tier: tier, Platform: platform}}
	if pullDocs {
		jobs = []job{{Artifact: artifactDocs, Version: version}}
	}

	results, err := a.provision(cmd, "Pulling", jobs, pullForce)
	if err != nil {
		return err
	}

	if outputJSON {
		return writeJSON(cmd, results)
	}
	for i, res := range results {
		if res.Status == tui.StatusCached {
			retry := "darkrift pull " + version
			if jobs[i].Artifact == artifactDocs {
				retry += " --docs"
			}
			printHint(cmd, "%s already installed! To force a reinstall use \"%s -f\"", jobs[i].label(), retry)
		}
	}
	return nil
}

// pullSelector picks the runtime to pull: the argument and flags when a
// version is given, else the project's pinned runtime with flags overriding.
func (a *app) pullSelector(cmd *cobra.Command, args []string) (string, release.Tier, release.Platform, error) {
	tier := tierFlag(pullPro)
	platform, err := platformFlag(pullPlatform)
	if err != nil {
		return "", tier, platform, err
	}
	if len(args) > 0 {
		return args[0], tier, platform, nil
	}

	cfg := a.sess.Config
	if !cfg.Initialized() {
		return "", tier, platform, failure.New(failure.CodeInvalidInput,
			"couldn't find a version to install. To download the latest version use \"darkrift pull latest\"")
	}
	if !cmd.Flags().Changed("pro") {
		tier = cfg.Runtime.Tier
	}
	if !cmd.Flags().Changed("platform") {
		platform = cfg.Runtime.Platform
	}
	return cfg.Runtime.Version, tier, platform, nil
}

func (a *app) listInstalled(cmd *cobra.Command) error {
	var listed []listedInstall
	for _, combo := range listedCombinations {
		installs, err := a.installs.Versions(combo.Tier, combo.Platform)
		if err != nil {
			return err
		}
		for _, inst := range installs {
			_, docs := a.docs.Installation(inst.Version)
			listed = append(listed, listedInstall{
				Version:  inst.Version,
				Tier:     inst.Tier.String(),
				Platform: inst.Platform.String(),
				Path:     inst.Path,
				Docs:     docs,
			})
		}
	}

	if outputJSON {
		if listed == nil {
			listed = []listedInstall{}
		}
		return writeJSON(cmd, listed)
	}
	if len(listed) == 0 {
		fmt.Fprintln(cmd.OutOrStdout(), "No DarkRift versions installed.")
		return nil
	}

	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 2, 2, ' ', 0)
	fmt.Fprintln(w, "VERSION\tTIER\tPLATFORM\tDOCS")
	for _, l := range listed {
		docs := "-"
		if l.Docs {
			docs = "yes"
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", l.Version, l.Tier, l.Platform, docs)
	}
	return w.Flush()
}
