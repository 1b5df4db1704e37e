package cli

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"darkrift/internal/cache"
	"darkrift/internal/config"
	"darkrift/internal/paths"
	"darkrift/internal/release"
)

func newDoctorCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "doctor",
		Short: "Check project and environment health",
		Args:  cobra.NoArgs,
		RunE:  runDoctor,
	}
}

type healthCheck struct {
	Name    string `json:"name"`
	Status  string `json:"status"` // "ok", "warning", "error"
	Summary string `json:"summary"`
}

func runDoctor(cmd *cobra.Command, _ []string) error {
	a, err := openApp(cmd)
	if err != nil {
		return err
	}
	defer a.Close()

	checks := []healthCheck{a.checkConfigHealth()}
	rt := a.sess.Config.Runtime
	if rt == nil {
		def := config.DefaultRuntime()
		rt = &def
	}
	checks = append(checks, a.checkRuntime(*rt))
	checks = append(checks, a.checkDotnet(cmd, rt.Platform))
	checks = append(checks, checkServerConfig(a.sess.Project))
	checks = append(checks, a.checkTemplates())
	checks = append(checks, a.checkInvoice(rt.Tier))

	return writeDoctorResult(cmd, a.sess.Project.Root, checks)
}

func (a *app) checkConfigHealth() healthCheck {
	if !a.sess.ConfigFound {
		return healthCheck{Name: "Config", Status: "warning", Summary: "no darkrift.yaml; \"darkrift run\" will create one"}
	}
	results := a.sess.Config.Validate()
	if config.HasErrors(results) {
		return healthCheck{Name: "Config", Status: "error", Summary: joinFindings(results)}
	}
	if len(results) > 0 {
		return healthCheck{Name: "Config", Status: "warning", Summary: joinFindings(results)}
	}
	return healthCheck{Name: "Config", Status: "ok", Summary: a.sess.Config.Runtime.Selector().String()}
}

func joinFindings(results []config.ValidationResult) string {
	msgs := make([]string, len(results))
	for i, r := range results {
		msgs[i] = r.Message
	}
	return strings.Join(msgs, "; ")
}

// checkRuntime looks for the pinned runtime in the cache without resolving
// "latest" over the network.
func (a *app) checkRuntime(rt config.RuntimeConfig) healthCheck {
	version := rt.Version
	if strings.EqualFold(version, config.LatestVersion) {
		known, ok := a.sess.Profile.LastKnownLatestVersion()
		if !ok {
			return healthCheck{Name: "Runtime", Status: "warning", Summary: "latest version not known yet"}
		}
		version = known
	}
	sel := release.Selector{Version: version, Tier: rt.Tier, Platform: rt.Platform}
	if inst, ok := a.installs.Installation(version, rt.Tier, rt.Platform); ok {
		return healthCheck{Name: "Runtime", Status: "ok", Summary: fmt.Sprintf("%s at %s", sel, inst.Path)}
	}
	return healthCheck{Name: "Runtime", Status: "warning", Summary: fmt.Sprintf("%s not installed; run \"darkrift pull\"", sel)}
}

func (a *app) checkDotnet(cmd *cobra.Command, platform release.Platform) healthCheck {
	if platform != release.PlatformCore {
		return healthCheck{Name: "dotnet", Status: "ok", Summary: "not required for .NET Framework builds"}
	}
	res, err := a.runner.Run(commandContext(cmd), "dotnet", []string{"--version"}, cache.RunOptions{})
	if err != nil {
		return healthCheck{Name: "dotnet", Status: "error", Summary: "dotnet host not found; install the .NET runtime"}
	}
	return healthCheck{Name: "dotnet", Status: "ok", Summary: strings.TrimSpace(string(res.Stdout))}
}

func checkServerConfig(pp paths.ProjectPaths) healthCheck {
	ok, err := paths.FileExists(pp.ServerConfig)
	switch {
	case err != nil:
		return healthCheck{Name: "Server", Status: "error", Summary: err.Error()}
	case !ok:
		return healthCheck{Name: "Server", Status: "warning", Summary: "no Server.config in project"}
	}
	return healthCheck{Name: "Server", Status: "ok", Summary: pp.ServerConfig}
}

func (a *app) checkTemplates() healthCheck {
	names, err := a.templates.Available()
	if err != nil {
		return healthCheck{Name: "Templates", Status: "error", Summary: err.Error()}
	}
	if len(names) == 0 {
		return healthCheck{Name: "Templates", Status: "warning", Summary: "none found in " + a.templates.Root()}
	}
	return healthCheck{Name: "Templates", Status: "ok", Summary: strings.Join(names, ", ")}
}

func (a *app) checkInvoice(tier release.Tier) healthCheck {
	_, stored := a.sess.Profile.EntitlementToken()
	switch {
	case stored:
		return healthCheck{Name: "Invoice", Status: "ok", Summary: "stored"}
	case tier == release.TierPro:
		return healthCheck{Name: "Invoice", Status: "warning", Summary: "Pro runtime pinned but no invoice number stored"}
	}
	return healthCheck{Name: "Invoice", Status: "ok", Summary: "not needed for Free builds"}
}

func writeDoctorResult(cmd *cobra.Command, projectRoot string, checks []healthCheck) error {
	if outputJSON {
		return writeJSON(cmd, checks)
	}

	bold := lipgloss.NewStyle().Bold(true).Inline(true)
	green := lipgloss.NewStyle().Foreground(lipgloss.Color("2")).Inline(true)
	yellow := lipgloss.NewStyle().Foreground(lipgloss.Color("3")).Inline(true)
	red := lipgloss.NewStyle().Foreground(lipgloss.Color("1")).Inline(true)

	out := cmd.OutOrStdout()
	fmt.Fprintln(out, bold.Render("PROJECT HEALTH:")+" "+projectRoot)
	for _, c := range checks {
		var status string
		switch c.Status {
		case "ok":
			status = green.Render("OK")
		case "warning":
			status = yellow.Render("WARN")
		case "error":
			status = red.Render("ERROR")
		}
		fmt.Fprintf(out, "  %-12s %s    %s\n", c.Name+":", status, c.Summary)
	}
	return nil
}
