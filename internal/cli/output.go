package cli

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"darkrift/internal/failure"
	"darkrift/internal/release"
	"darkrift/internal/tui"
)

func writeJSON(cmd *cobra.Command, payload any) error {
	data, err := json.MarshalIndent(payload, "", "  ")
	if err != nil {
		return fmt.Errorf("encode json: %w", err)
	}
	fmt.Fprintln(cmd.OutOrStdout(), string(data))
	return nil
}

func printSuccess(cmd *cobra.Command, format string, args ...any) {
	fmt.Fprintln(cmd.OutOrStdout(), tui.SuccessStyle.Render(fmt.Sprintf(format, args...)))
}

func printWarning(cmd *cobra.Command, format string, args ...any) {
	fmt.Fprintln(cmd.ErrOrStderr(), tui.WarnStyle.Render(fmt.Sprintf(format, args...)))
}

func printHint(cmd *cobra.Command, format string, args ...any) {
	fmt.Fprintln(cmd.ErrOrStderr(), tui.HintStyle.Render(fmt.Sprintf(format, args...)))
}

func tierFlag(pro bool) release.Tier {
	if pro {
		return release.TierPro
	}
	return release.TierFree
}

func platformFlag(value string) (release.Platform, error) {
	if strings.TrimSpace(value) == "" {
		return release.DefaultPlatform, nil
	}
	p, err := release.ParsePlatform(value)
	if err != nil {
		return p, failure.Wrap(err, failure.CodeInvalidInput, "invalid --platform")
	}
	return p, nil
}
