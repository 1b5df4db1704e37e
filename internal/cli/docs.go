package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"darkrift/internal/browser"
	"darkrift/internal/config"
	"darkrift/internal/failure"
	"darkrift/internal/remote"
)

var docsLocal bool

func newDocsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "docs [version|latest]",
		Short: "Open the DarkRift documentation",
		Long: "Open the documentation for a DarkRift version in the browser. Without a\n" +
			"version the project's runtime version is used, falling back to latest.\n" +
			"With --json the location is printed instead of opened.",
		Args: cobra.MaximumNArgs(1),
		RunE: runDocs,
	}

	cmd.Flags().BoolVar(&docsLocal, "local", false, "Open the locally installed documentation")

	return cmd
}

type docsResult struct {
	Version string `json:"version"`
	URL     string `json:"url"`
	Local   bool   `json:"local"`
}

func runDocs(cmd *cobra.Command, args []string) error {
	a, err := openApp(cmd)
	if err != nil {
		return err
	}
	defer a.Close()
	ctx := commandContext(cmd)

	requested := config.LatestVersion
	switch {
	case len(args) > 0:
		requested = args[0]
	case a.sess.Config.Initialized():
		requested = a.sess.Config.Runtime.Version
	}
	version, err := a.resolveVersion(ctx, requested)
	if err != nil {
		return err
	}

	target := remote.OnlineDocumentationURL(version)
	if docsLocal {
		doc, ok := a.docs.Installation(version)
		if !ok {
			printHint(cmd, "Use \"darkrift pull %s --docs\" to download it.", version)
			return failure.Newf(failure.CodeNotInstalled, "documentation for DarkRift %s is not installed", version)
		}
		target = doc.IndexURL()
	}

	if outputJSON {
		return writeJSON(cmd, docsResult{Version: version, URL: target, Local: docsLocal})
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Opening %s\n", target)
	return browser.New(a.runner).Open(ctx, target)
}
