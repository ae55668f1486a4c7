// Package cli provides styled terminal output using lipgloss.
package cli

import (
	"github.com/charmbracelet/lipgloss"
)

var (
	// PrimaryColor is the main theme color.
	PrimaryColor = lipgloss.Color("#2E8B57") // Rupee green
	// SuccessColor indicates successful operations.
	SuccessColor = lipgloss.Color("#4ECDC4")
	// WarningColor indicates warnings or caution messages.
	WarningColor = lipgloss.Color("#FFE66D")
	// ErrorColor indicates errors or failure messages.
	ErrorColor = lipgloss.Color("#FF6B6B")
	// InfoColor indicates informational messages.
	InfoColor = lipgloss.Color("#95E1D3")
	// SubtleColor indicates less prominent output.
	SubtleColor = lipgloss.Color("#666666")

	// TitleStyle is used for section titles.
	TitleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(PrimaryColor).
			MarginBottom(1)

	// SuccessStyle formats success messages.
	SuccessStyle = lipgloss.NewStyle().
			Foreground(SuccessColor)

	// WarningStyle formats warning messages.
	WarningStyle = lipgloss.NewStyle().
			Foreground(WarningColor)

	// ErrorStyle formats error messages.
	ErrorStyle = lipgloss.NewStyle().
			Foreground(ErrorColor)

	// InfoStyle formats informational messages.
	InfoStyle = lipgloss.NewStyle().
			Foreground(InfoColor)

	// SubtleStyle formats de-emphasized output.
	SubtleStyle = lipgloss.NewStyle().
			Foreground(SubtleColor)

	// NegativeStyle formats balances below zero.
	NegativeStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(ErrorColor)
)
