// Package profile persists user-scoped settings in an XML document under the
// user's config directory.
package profile

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/beevik/etree"

	"darkrift/internal/failure"
)

const (
	rootElement          = "Profile"
	tokenElement         = "EntitlementToken"
	latestVersionElement = "LastKnownLatestVersion"
	legacyTokenElement   = "InvoiceNumber"
	legacyVersionElement = "LatestKnownDarkRiftVersion"
)

// Profile is the user-scoped settings record. Empty strings mean unset.
type Profile struct {
	EntitlementToken       string `json:"entitlement_token,omitempty"`
	LastKnownLatestVersion string `json:"last_known_latest_version,omitempty"`
}

// Store holds the profile for one user and writes it back on Save.
type Store struct {
	path    string
	profile Profile
}

// Open reads the profile at path. A missing file yields an empty profile.
// An unreadable or corrupt file also yields a usable empty store, together
// with a CodeConfiguration error the caller should surface as a warning.
func Open(path string) (*Store, error) {
	store := &Store{path: path}

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return store, nil
		}
		return store, failure.Wrapf(err, failure.CodeConfiguration, "read profile %s", path)
	}

	profile, err := decode(data)
	if err != nil {
		return store, failure.Wrapf(err, failure.CodeConfiguration, "profile %s is corrupt, using defaults", path)
	}
	store.profile = profile
	return store, nil
}

func decode(data []byte) (Profile, error) {
	doc := etree.NewDocument()
	if err := doc.ReadFromBytes(data); err != nil {
		return Profile{}, fmt.Errorf("parse xml: %w", err)
	}
	root := doc.Root()
	if root == nil || root.Tag != rootElement {
		return Profile{}, fmt.Errorf("missing <%s> root element", rootElement)
	}
	return Profile{
		EntitlementToken:       firstText(root, tokenElement, legacyTokenElement),
		LastKnownLatestVersion: firstText(root, latestVersionElement, legacyVersionElement),
	}, nil
}

func firstText(root *etree.Element, tags ...string) string {
	for _, tag := range tags {
		if el := root.SelectElement(tag); el != nil {
			if text := strings.TrimSpace(el.Text()); text != "" {
				return text
			}
		}
	}
	return ""
}

// Path returns the file backing the store.
func (s *Store) Path() string { return s.path }

// Profile returns a copy of the current settings.
func (s *Store) Profile() Profile { return s.profile }

func (s *Store) EntitlementToken() (string, bool) {
	return s.profile.EntitlementToken, s.profile.EntitlementToken != ""
}

func (s *Store) SetEntitlementToken(token string) {
	s.profile.EntitlementToken = strings.TrimSpace(token)
}

func (s *Store) LastKnownLatestVersion() (string, bool) {
	return s.profile.LastKnownLatestVersion, s.profile.LastKnownLatestVersion != ""
}

func (s *Store) SetLastKnownLatestVersion(version string) {
	s.profile.LastKnownLatestVersion = strings.TrimSpace(version)
}

// Save writes the profile atomically, creating parent directories as needed.
func (s *Store) Save() error {
	data, err := encode(s.profile)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return fmt.Errorf("prepare profile dir: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(s.path), "profile-*.tmp")
	if err != nil {
		return fmt.Errorf("create temp profile: %w", err)
	}
	tmpName := tmp.Name()
	defer func() { _ = os.Remove(tmpName) }()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("write temp profile: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close temp profile: %w", err)
	}
	if err := os.Rename(tmpName, s.path); err != nil {
		return fmt.Errorf("commit profile: %w", err)
	}
	return nil
}

func encode(p Profile) ([]byte, error) {
	doc := etree.NewDocument()
	doc.CreateProcInst("xml", `version="1.0" encoding="utf-8"`)
	root := doc.CreateElement(rootElement)
	if p.EntitlementToken != "" {
		root.CreateElement(tokenElement).SetText(p.EntitlementToken)
	}
	if p.LastKnownLatestVersion != "" {
		root.CreateElement(latestVersionElement).SetText(p.LastKnownLatestVersion)
	}
	doc.Indent(2)

	data, err := doc.WriteToBytes()
	if err != nil {
		return nil, fmt.Errorf("encode profile: %w", err)
	}
	return data, nil
}
