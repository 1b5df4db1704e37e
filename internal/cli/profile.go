package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"darkrift/internal/failure"
)

var (
	profileInvoice      string
	profileClearInvoice bool
)

func newProfileCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "profile",
		Short: "Show or edit the user profile",
		Args:  cobra.NoArgs,
		RunE:  runProfile,
	}

	cmd.Flags().StringVar(&profileInvoice, "invoice", "", "Store the invoice number used for Pro downloads")
	cmd.Flags().BoolVar(&profileClearInvoice, "clear-invoice", false, "Forget the stored invoice number")

	return cmd
}

type profileResult struct {
	Path                   string `json:"path"`
	InvoiceStored          bool   `json:"invoice_stored"`
	LastKnownLatestVersion string `json:"last_known_latest_version,omitempty"`
}

func runProfile(cmd *cobra.Command, _ []string) error {
	if profileClearInvoice && cmd.Flags().Changed("invoice") {
		return failure.New(failure.CodeInvalidInput, "--invoice and --clear-invoice cannot be combined")
	}

	a, err := openApp(cmd)
	if err != nil {
		return err
	}
	defer a.Close()
	store := a.sess.Profile

	switch {
	case cmd.Flags().Changed("invoice"):
		token := strings.TrimSpace(profileInvoice)
		if token == "" {
			return failure.New(failure.CodeInvalidInput, "--invoice must not be empty")
		}
		store.SetEntitlementToken(token)
	case profileClearInvoice:
		store.SetEntitlementToken("")
	}
	if cmd.Flags().Changed("invoice") || profileClearInvoice {
		if err := store.Save(); err != nil {
			return err
		}
	}

	_, hasToken := store.EntitlementToken()
	latest, _ := store.LastKnownLatestVersion()
	res := profileResult{Path: store.Path(), InvoiceStored: hasToken, LastKnownLatestVersion: latest}
	if outputJSON {
		return writeJSON(cmd, res)
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Profile:        %s\n", res.Path)
	invoice := "not set"
	if res.InvoiceStored {
		invoice = "stored"
	}
	fmt.Fprintf(out, "Invoice number: %s\n", invoice)
	if latest == "" {
		latest = "unknown"
	}
	fmt.Fprintf(out, "Latest seen:    %s\n", latest)
	return nil
}
