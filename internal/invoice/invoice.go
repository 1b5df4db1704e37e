// Package invoice obtains the entitlement token required for Pro downloads,
// asking the user once and remembering the answer in their profile.
package invoice

import (
	"context"
	"strings"

	"github.com/rs/zerolog"

	"darkrift/internal/failure"
)

// PromptMessage explains why the token is needed.
const PromptMessage = "To download a Pro release you must provide an invoice number to verify your purchase. " +
	"This will usually be found in your receipt from the Unity Asset Store."

// Store is the subset of the profile the manager reads and writes.
type Store interface {
	EntitlementToken() (string, bool)
	SetEntitlementToken(token string)
	Save() error
}

// Prompter asks the user for a token. An empty answer means none was given.
type Prompter interface {
	PromptEntitlementToken(ctx context.Context) (string, error)
}

// Manager returns the stored token or prompts for one.
type Manager struct {
	store    Store
	prompter Prompter
	logger   zerolog.Logger
}

func NewManager(store Store, prompter Prompter, logger zerolog.Logger) *Manager {
	if prompter == nil {
		prompter = NonInteractive{}
	}
	return &Manager{store: store, prompter: prompter, logger: logger}
}

// EntitlementToken returns the stored token. When none is stored the user is
// prompted and a non-empty answer is saved before returning. No answer is a
// CodeMissingEntitlement failure and leaves the profile unchanged.
func (m *Manager) EntitlementToken(ctx context.Context) (string, error) {
	if token, ok := m.store.EntitlementToken(); ok {
		return token, nil
	}

	answer, err := m.prompter.PromptEntitlementToken(ctx)
	if err != nil {
		return "", failure.Wrap(err, failure.CodeMissingEntitlement, "read invoice number")
	}
	answer = strings.TrimSpace(answer)
	if answer == "" {
		return "", failure.New(failure.CodeMissingEntitlement, "no invoice number passed, no changes made")
	}

	m.store.SetEntitlementToken(answer)
	if err := m.store.Save(); err != nil {
		m.logger.Warn().Err(err).Msg("could not save invoice number to profile")
	}
	m.logger.Info().Msg("invoice number saved to profile")
	return answer, nil
}
