package styles

import (
	"github.com/charmbracelet/lipgloss/v2"
	"github.com/charmbracelet/x/exp/charmtone"
)

var (
	// Title styles list and panel titles.
	Title = lipgloss.NewStyle().
		Foreground(lipgloss.Color(charmtone.Charple.Hex())).
		MarginLeft(2)

	// Selected marks the cursor row.
	Selected = lipgloss.NewStyle().Foreground(lipgloss.Color(charmtone.Malibu.Hex()))

	// Muted is secondary text such as descriptors and counts.
	Muted = lipgloss.NewStyle().Foreground(lipgloss.Color(charmtone.Squid.Hex()))

	// Owner is a class name.
	Owner = lipgloss.NewStyle().Foreground(lipgloss.Color(charmtone.Zest.Hex()))

	// FlagOn and FlagOff render a pattern cell in the flag grid.
	FlagOn  = lipgloss.NewStyle().Foreground(lipgloss.Color(charmtone.Guac.Hex())).Bold(true)
	FlagOff = lipgloss.NewStyle().Foreground(lipgloss.Color(charmtone.Zinc.Hex()))

	// Spinner colors the scan spinner.
	Spinner = lipgloss.NewStyle().Foreground(lipgloss.Color(charmtone.Cheeky.Hex()))

	// Menu is the key help bar at the bottom of the browser.
	Menu = lipgloss.NewStyle().
		Background(lipgloss.Color(charmtone.Charcoal.Hex())).
		Foreground(lipgloss.Color(charmtone.Smoke.Hex())).
		Padding(0, 1)
)
