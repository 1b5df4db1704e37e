// Package release describes the runtime artifacts the tool provisions: the
// tier and platform variants, the selector that keys the installation cache,
// and the installation records produced by a successful extraction.
package release

import (
	"fmt"
	"path/filepath"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// Tier is the edition of the runtime.
type Tier int

const (
	TierFree Tier = iota
	TierPro
)

// Platform is the binary layout of the runtime.
type Platform int

const (
	PlatformFramework Platform = iota
	PlatformCore
)

// DefaultPlatform is used when a project or command does not name one.
const DefaultPlatform = PlatformFramework

var (
	tierKeys     = map[Tier]string{TierFree: "free", TierPro: "pro"}
	platformKeys = map[Platform]string{PlatformFramework: "framework", PlatformCore: "core"}
)

// Tiers lists every tier in display order.
func Tiers() []Tier { return []Tier{TierFree, TierPro} }

// Platforms lists every platform in display order.
func Platforms() []Platform { return []Platform{PlatformFramework, PlatformCore} }

// String returns the stable lower-case key used in cache paths and URLs.
func (t Tier) String() string {
	if key, ok := tierKeys[t]; ok {
		return key
	}
	return fmt.Sprintf("tier(%d)", int(t))
}

// Display returns the human form used in messages and templates ("Pro").
func (t Tier) Display() string {
	return titleCase(t.String())
}

func (t Tier) MarshalText() ([]byte, error) {
	if _, ok := tierKeys[t]; !ok {
		return nil, fmt.Errorf("invalid tier %d", int(t))
	}
	return []byte(t.String()), nil
}

func (t *Tier) UnmarshalText(text []byte) error {
	parsed, err := ParseTier(string(text))
	if err != nil {
		return err
	}
	*t = parsed
	return nil
}

// ParseTier accepts the key or display form, case-insensitively.
func ParseTier(value string) (Tier, error) {
	key := strings.ToLower(strings.TrimSpace(value))
	for tier, k := range tierKeys {
		if k == key {
			return tier, nil
		}
	}
	return TierFree, fmt.Errorf("unknown tier %q (expected free or pro)", value)
}

func (p Platform) String() string {
	if key, ok := platformKeys[p]; ok {
		return key
	}
	return fmt.Sprintf("platform(%d)", int(p))
}

// Display returns the human form used in messages and templates ("Core").
func (p Platform) Display() string {
	return titleCase(p.String())
}

func (p Platform) MarshalText() ([]byte, error) {
	if _, ok := platformKeys[p]; !ok {
		return nil, fmt.Errorf("invalid platform %d", int(p))
	}
	return []byte(p.String()), nil
}

func (p *Platform) UnmarshalText(text []byte) error {
	parsed, err := ParsePlatform(string(text))
	if err != nil {
		return err
	}
	*p = parsed
	return nil
}

// ParsePlatform accepts the key or display form, case-insensitively.
func ParsePlatform(value string) (Platform, error) {
	key := strings.ToLower(strings.TrimSpace(value))
	for platform, k := range platformKeys {
		if k == key {
			return platform, nil
		}
	}
	return DefaultPlatform, fmt.Errorf("unknown platform %q (expected framework or core)", value)
}

func titleCase(key string) string {
	return cases.Title(language.English).String(key)
}

// Selector is the (version, tier, platform) triple that keys the installation cache.
type Selector struct {
	Version  string
	Tier     Tier
	Platform Platform
}

func (s Selector) String() string {
	return fmt.Sprintf("DarkRift %s - %s (.NET %s)", s.Version, s.Tier.Display(), s.Platform.Display())
}

// Installation is a directory known to hold a fully extracted runtime.
type Installation struct {
	Version  string   `json:"version"`
	Tier     Tier     `json:"tier"`
	Platform Platform `json:"platform"`
	Path     string   `json:"path"`
}

func (i Installation) Selector() Selector {
	return Selector{Version: i.Version, Tier: i.Tier, Platform: i.Platform}
}

const (
	serverConsoleExe = "DarkRift.Server.Console.exe"
	serverConsoleDll = "DarkRift.Server.Console.dll"
)

// Command returns the executable and arguments that start the server held by
// this installation. Framework builds ship a console executable; Core builds
// are launched through the dotnet host.
func (i Installation) Command(args []string) (string, []string) {
	if i.Platform == PlatformFramework {
		return filepath.Join(i.Path, serverConsoleExe), append([]string(nil), args...)
	}
	argv := make([]string, 0, len(args)+1)
	argv = append(argv, filepath.Join(i.Path, "Lib", serverConsoleDll))
	argv = append(argv, args...)
	return "dotnet", argv
}

// DocumentationInstallation is a directory holding extracted documentation.
type DocumentationInstallation struct {
	Version string `json:"version"`
	Path    string `json:"path"`
}

// IndexURL points at the documentation entry page.
func (d DocumentationInstallation) IndexURL() string {
	return "file://" + filepath.ToSlash(filepath.Join(d.Path, "index.html"))
}
