// SPDX-License-Identifier: MPL-2.0

package cmd

import "github.com/charmbracelet/lipgloss"

// Palette for terminal output, readable on dark and light backgrounds.
const (
	ColorBrand   = lipgloss.Color("#E879A6")
	ColorMuted   = lipgloss.Color("#6B7280")
	ColorSuccess = lipgloss.Color("#10B981")
	ColorError   = lipgloss.Color("#EF4444")
	ColorWarning = lipgloss.Color("#F59E0B")
	ColorPath    = lipgloss.Color("#3B82F6")
	ColorDetail  = lipgloss.Color("#9CA3AF")
)

var (
	// TitleStyle renders the tool name in help output.
	TitleStyle = lipgloss.NewStyle().Bold(true).Foreground(ColorBrand)
	// SubtitleStyle renders secondary text and notices.
	SubtitleStyle = lipgloss.NewStyle().Foreground(ColorMuted)
	SuccessStyle  = lipgloss.NewStyle().Foreground(ColorSuccess)
	ErrorStyle    = lipgloss.NewStyle().Bold(true).Foreground(ColorError)
	WarningStyle  = lipgloss.NewStyle().Foreground(ColorWarning)
	// CmdStyle renders written paths and URLs.
	CmdStyle = lipgloss.NewStyle().Foreground(ColorPath)
	// VerboseStyle renders stage timings.
	VerboseStyle = lipgloss.NewStyle().Foreground(ColorDetail)
)
