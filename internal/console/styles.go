// Package console renders theme listings and asks the user questions.
package console

import (
	"strings"

	"github.com/charmbracelet/lipgloss"

	"wmtheme/internal/theme"
)

var (
	Blue    = lipgloss.Color("12")
	Magenta = lipgloss.Color("13")
	Green   = lipgloss.Color("10")
	Yellow  = lipgloss.Color("11")
	Red     = lipgloss.Color("9")
)

var (
	HeadingStyle   = lipgloss.NewStyle().Foreground(Blue).Bold(true)
	RegistryStyle  = lipgloss.NewStyle().Foreground(Magenta).Bold(true)
	ThemeStyle     = lipgloss.NewStyle().Foreground(Green).Bold(true)
	CurrentStyle   = lipgloss.NewStyle().Foreground(Yellow).Bold(true)
	InstalledStyle = lipgloss.NewStyle().Foreground(Red).Bold(true)
	ErrorStyle     = lipgloss.NewStyle().Foreground(Red).Bold(true)
)

// DefaultDescription is shown for themes without one.
const DefaultDescription = "A LeftWM theme"

// ThemeLine formats one record as "Current: registry/name: description-Installed".
func ThemeLine(rec theme.Record) string {
	var b strings.Builder
	b.WriteString("   ")
	if rec.Current {
		b.WriteString(CurrentStyle.Render("Current: "))
	}
	if rec.Source != "" {
		b.WriteString(RegistryStyle.Render(rec.Source))
		b.WriteString("/")
	}
	b.WriteString(ThemeStyle.Render(rec.Name))
	b.WriteString(": ")
	if rec.Description != "" {
		b.WriteString(rec.Description)
	} else {
		b.WriteString(DefaultDescription)
	}
	if rec.IsInstalled() {
		b.WriteString(InstalledStyle.Render("-Installed"))
	}
	return b.String()
}

func Heading(s string) string {
	return HeadingStyle.Render(s)
}

func Error(s string) string {
	return ErrorStyle.Render(s)
}
