package tui

import "github.com/charmbracelet/lipgloss"

// Column headers shared by the install tables.
const (
	ColumnArtifact = "ARTIFACT"
	ColumnVersion  = "VERSION"
	ColumnTier     = "TIER"
	ColumnPlatform = "PLATFORM"
	ColumnStatus   = "STATUS"
)

// Row statuses.
const (
	StatusPending     = "pending"
	StatusResolving   = "resolving"
	StatusDownloading = "downloading"
	StatusInstalled   = "installed"
	StatusCached      = "cached"
	StatusTemplated   = "templated"
	StatusSkipped     = "skipped"
	StatusError       = "error"
)

var (
	TitleStyle   = lipgloss.NewStyle().Bold(true).Underline(true)
	HeaderStyle  = lipgloss.NewStyle().Bold(true)
	SuccessStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("2"))
	WarnStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("3"))
	ErrorStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("1"))
	HintStyle    = lipgloss.NewStyle().Faint(true)

	statusStyles = map[string]lipgloss.Style{
		StatusInstalled: SuccessStyle,
		StatusCached:    SuccessStyle,
		StatusTemplated: SuccessStyle,

		StatusResolving:   lipgloss.NewStyle().Foreground(lipgloss.Color("4")),
		StatusDownloading: lipgloss.NewStyle().Foreground(lipgloss.Color("4")),

		StatusSkipped: WarnStyle,
		StatusError:   ErrorStyle,
		StatusPending: HintStyle,
	}
)

// StatusStyle returns the lipgloss style for the given status string.
func StatusStyle(status string) lipgloss.Style {
	if s, ok := statusStyles[status]; ok {
		return s
	}
	return lipgloss.NewStyle()
}

// IsFinalStatus reports whether a row with this status needs no more work.
func IsFinalStatus(status string) bool {
	switch status {
	case StatusInstalled, StatusCached, StatusTemplated, StatusSkipped, StatusError:
		return true
	}
	return false
}
