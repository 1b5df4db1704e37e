package cli

import (
	"context"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"darkrift/internal/config"
	"darkrift/internal/release"
	"darkrift/internal/tui"
)

const (
	artifactRuntime = "runtime"
	artifactDocs    = "docs"
)

// job is one artifact to make available in the local cache.
type job struct {
	Artifact string
	Version  string
	Tier     release.Tier
	Platform release.Platform
}

func (j job) key() string {
	if j.Artifact == artifactDocs {
		return artifactDocs + ":" + j.Version
	}
	return j.Artifact + ":" + j.Tier.String() + ":" + j.Platform.String() + ":" + j.Version
}

func (j job) label() string {
	if j.Artifact == artifactDocs {
		return "DarkRift " + j.Version + " documentation"
	}
	return release.Selector{Version: j.Version, Tier: j.Tier, Platform: j.Platform}.String()
}

type jobResult struct {
	Artifact string `json:"artifact"`
	Version  string `json:"version"`
	Tier     string `json:"tier,omitempty"`
	Platform string `json:"platform,omitempty"`
	Path     string `json:"path,omitempty"`
	Status   string `json:"status"`
	Error    string `json:"error,omitempty"`
}

var provisionColumns = []tui.Column{
	{Header: tui.ColumnArtifact, Width: 8},
	{Header: tui.ColumnVersion, Width: 10},
	{Header: tui.ColumnTier, Width: 4},
	{Header: tui.ColumnPlatform, Width: 9},
	{Header: tui.ColumnStatus, Width: 11},
}

// resolveVersion turns "latest" or an empty request into a concrete version.
func (a *app) resolveVersion(ctx context.Context, requested string) (string, error) {
	v := strings.TrimSpace(requested)
	if v == "" || strings.EqualFold(v, config.LatestVersion) {
		return a.installs.LatestVersion(ctx)
	}
	return v, nil
}

// installed reports whether j is already in the cache.
func (a *app) installed(j job) bool {
	if j.Artifact == artifactDocs {
		_, ok := a.docs.Installation(j.Version)
		return ok
	}
	_, ok := a.installs.Installation(j.Version, j.Tier, j.Platform)
	return ok
}

// provision installs every job, reporting progress on the command's output.
// Versions must already be resolved. A Pro download asks for the invoice
// number before any progress display starts.
func (a *app) provision(cmd *cobra.Command, title string, jobs []job, force bool) ([]jobResult, error) {
	ctx := commandContext(cmd)

	for _, j := range jobs {
		if j.Artifact == artifactRuntime && j.Tier == release.TierPro && (force || !a.installed(j)) {
			if _, err := a.invoices.EntitlementToken(ctx); err != nil {
				return nil, err
			}
			break
		}
	}

	results := make([]jobResult, len(jobs))
	work := func(ctx context.Context, reporter tui.Reporter) error {
		for i, j := range jobs {
			res, err := a.provisionOne(ctx, j, force, reporter)
			results[i] = res
			if err != nil {
				return err
			}
		}
		return nil
	}

	out := cmd.OutOrStdout()
	switch tui.DetectMode(out, outputJSON) {
	case tui.ModeTUI:
		table := tui.NewInstallTable(title, provisionColumns)
		for _, j := range jobs {
			table.Track(j.key(), j.fields(tui.StatusPending))
		}
		err := tui.RunWithWork(ctx, out, table, func(ctx context.Context, send func(tea.Msg)) error {
			return work(ctx, tui.NewProgramReporter(send))
		})
		return results, err
	case tui.ModePlain:
		reporter := tui.NewLineReporter(out)
		for _, j := range jobs {
			reporter.Label(j.key(), j.label())
		}
		return results, work(ctx, reporter)
	default:
		return results, work(ctx, tui.NopReporter{})
	}
}

func (a *app) provisionOne(ctx context.Context, j job, force bool, reporter tui.Reporter) (jobResult, error) {
	res := jobResult{Artifact: j.Artifact, Version: j.Version}
	if j.Artifact == artifactRuntime {
		res.Tier = j.Tier.String()
		res.Platform = j.Platform.String()
	}

	status := tui.StatusDownloading
	if !force && a.installed(j) {
		status = tui.StatusCached
	}
	reporter.Update(j.key(), map[string]string{tui.ColumnStatus: status})

	var err error
	if j.Artifact == artifactDocs {
		var doc release.DocumentationInstallation
		doc, err = a.docs.Install(ctx, j.Version, force)
		res.Path = doc.Path
	} else {
		var inst release.Installation
		inst, err = a.installs.Install(ctx, j.Version, j.Tier, j.Platform, force)
		res.Path = inst.Path
	}
	if err != nil {
		res.Status = tui.StatusError
		res.Error = err.Error()
		reporter.Update(j.key(), map[string]string{tui.ColumnStatus: tui.StatusError})
		return res, err
	}

	if status == tui.StatusDownloading {
		status = tui.StatusInstalled
	}
	res.Status = status
	reporter.Update(j.key(), map[string]string{tui.ColumnStatus: status})
	return res, nil
}

func (j job) fields(status string) []string {
	if j.Artifact == artifactDocs {
		return []string{j.Artifact, j.Version, "-", "-", status}
	}
	return []string{j.Artifact, j.Version, j.Tier.Display(), j.Platform.Display(), status}
}
