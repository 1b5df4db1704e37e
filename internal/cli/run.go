package cli

import (
	"context"
	"errors"
	"fmt"
	"os/exec"

	"github.com/spf13/cobra"

	"darkrift/internal/cache"
	"darkrift/internal/config"
	"darkrift/internal/failure"
)

func newRunCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "run [-- server arguments...]",
		Short: "Run the project's DarkRift server, installing it if needed",
		Long: "Run the DarkRift server pinned in the project configuration. A project\n" +
			"without configuration is pinned to the latest Free .NET Framework build.\n" +
			"Arguments after -- are passed to the server.",
		RunE: runRun,
	}
}

func runRun(cmd *cobra.Command, args []string) error {
	a, err := openApp(cmd)
	if err != nil {
		return err
	}
	defer a.Close()
	ctx := commandContext(cmd)

	pinned, err := a.pinRuntime(ctx)
	if err != nil {
		return err
	}
	if pinned {
		printHint(cmd, "Project runtime set to %s in %s", a.sess.Config.Runtime.Selector(), a.sess.Project.ConfigFile)
	}
	if err := a.checkConfig(cmd); err != nil {
		return err
	}

	rt := a.sess.Config.Runtime
	version, err := a.resolveVersion(ctx, rt.Version)
	if err != nil {
		return err
	}
	j := job{Artifact: artifactRuntime, Version: version, Tier: rt.Tier, Platform: rt.Platform}
	if !a.installed(j) {
		if _, err := a.provision(cmd, "Installing", []job{j}, false); err != nil {
			return err
		}
	}
	inst, ok := a.installs.Installation(version, rt.Tier, rt.Platform)
	if !ok {
		return failure.Newf(failure.CodeNotInstalled, "%s is not installed", j.label())
	}

	exe, argv := inst.Command(args)
	a.logger().Info().Str("exe", exe).Strs("args", argv).Str("dir", a.sess.Project.Root).Msg("starting server")
	_, err = a.runner.Run(ctx, exe, argv, cache.RunOptions{
		Dir:    a.sess.Project.Root,
		Stdin:  cmd.InOrStdin(),
		Stdout: cmd.OutOrStdout(),
		Stderr: cmd.ErrOrStderr(),
	})
	if err == nil {
		return nil
	}
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		return &exitError{code: cache.ExitCode(err)}
	}
	return fmt.Errorf("start server: %w", err)
}

// pinRuntime records the latest release as the runtime of a project that has
// none and saves the configuration. The saved version is always concrete.
func (a *app) pinRuntime(ctx context.Context) (bool, error) {
	cfg := &a.sess.Config
	if cfg.Initialized() {
		return false, nil
	}
	version, err := a.installs.LatestVersion(ctx)
	if err != nil {
		return false, err
	}
	cfg.EnsureRuntime()
	cfg.Runtime.Version = version
	if err := a.sess.SaveConfig(); err != nil {
		return false, err
	}
	a.logger().Info().Str("runtime", cfg.Runtime.Selector().String()).Msg("pinned project runtime")
	return true, nil
}

// checkConfig logs configuration warnings and prints errors, failing on the latter.
func (a *app) checkConfig(cmd *cobra.Command) error {
	results := a.sess.Config.Validate()
	for _, r := range results {
		if r.Level == "error" {
			printWarning(cmd, "%s: %s", r.Level, r.Message)
			continue
		}
		a.logger().Info().Str("file", a.sess.Project.ConfigFile).Msg(r.Message)
	}
	if config.HasErrors(results) {
		return failure.Newf(failure.CodeConfiguration, "project configuration %s is invalid", a.sess.Project.ConfigFile)
	}
	return nil
}
