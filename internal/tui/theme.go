package tui

import (
	"github.com/charmbracelet/lipgloss"

	"partchat/internal/render"
)

type theme struct {
	Header       lipgloss.Style
	Panel        lipgloss.Style
	Launcher     lipgloss.Style
	Muted        lipgloss.Style
	Accent       lipgloss.Style
	Success      lipgloss.Style
	Alert        lipgloss.Style
	Danger       lipgloss.Style
	Input        lipgloss.Style
	Card         lipgloss.Style
	CardTitle    lipgloss.Style
	Chip         lipgloss.Style
	ChipSelected lipgloss.Style
	Badges       map[render.StatusClass]lipgloss.Style
}

func defaultTheme() theme {
	accent := lipgloss.Color("#00FFFF")
	secondary := lipgloss.Color("#7D7D7D")
	success := lipgloss.Color("#00FF00")
	alert := lipgloss.Color("#FFBF00")
	danger := lipgloss.Color("#FF0055")
	brand := lipgloss.Color("#337778")

	badge := func(c lipgloss.Color) lipgloss.Style {
		return lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#000000")).Background(c).Padding(0, 1)
	}

	return theme{
		Header: lipgloss.NewStyle().
			Bold(true).
			Foreground(accent),
		Panel: lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(brand).
			Padding(0, 1),
		Launcher: lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(accent).
			Foreground(accent).
			Padding(0, 2),
		Muted: lipgloss.NewStyle().
			Foreground(secondary),
		Accent: lipgloss.NewStyle().
			Foreground(accent),
		Success: lipgloss.NewStyle().
			Foreground(success),
		Alert: lipgloss.NewStyle().
			Foreground(alert),
		Danger: lipgloss.NewStyle().
			Foreground(danger),
		Input: lipgloss.NewStyle().
			Foreground(accent),
		Card: lipgloss.NewStyle().
			Border(lipgloss.NormalBorder()).
			BorderForeground(secondary).
			Padding(0, 1),
		CardTitle: lipgloss.NewStyle().
			Bold(true),
		Chip: lipgloss.NewStyle().
			Foreground(secondary),
		ChipSelected: lipgloss.NewStyle().
			Bold(true).
			Foreground(accent).
			Reverse(true),
		Badges: map[render.StatusClass]lipgloss.Style{
			render.StatusDelivered: badge(success),
			render.StatusShipped:   badge(accent),
			render.StatusCancelled: badge(danger),
			render.StatusPending:   badge(alert),
		},
	}
}

func (th theme) badge(c render.StatusClass) lipgloss.Style {
	if s, ok := th.Badges[c]; ok {
		return s
	}
	return th.Badges[render.StatusPending]
}
