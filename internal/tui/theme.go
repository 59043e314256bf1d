package tui

import "github.com/charmbracelet/lipgloss"

type uiTheme struct {
	root         lipgloss.Style
	header       lipgloss.Style
	tabActive    lipgloss.Style
	tabInactive  lipgloss.Style
	panel        lipgloss.Style
	panelTitle   lipgloss.Style
	footer       lipgloss.Style
	status       lipgloss.Style
	errorStatus  lipgloss.Style
	inputPanel   lipgloss.Style
	helpText     lipgloss.Style
	settingKey   lipgloss.Style
	settingValue lipgloss.Style
	settingPick  lipgloss.Style
	modalFrame   lipgloss.Style
	accent       lipgloss.Style
	online       lipgloss.Style
	pending      lipgloss.Style
	offline      lipgloss.Style
	banner       lipgloss.Style
	badge        lipgloss.Style
	chip         lipgloss.Style
	whisper      lipgloss.Style
	narration    lipgloss.Style
	dimmed       lipgloss.Style
	delta        map[bool]lipgloss.Style
}

func newTheme() uiTheme {
	amber := lipgloss.Color("#e0a458")
	crimson := lipgloss.Color("#c0392b")
	steel := lipgloss.Color("#7f8fa6")
	bg := lipgloss.Color("#0d0d0f")
	panelBg := lipgloss.Color("#16161a")
	text := lipgloss.Color("#e8e6e3")
	muted := lipgloss.Color("#8a8a8f")
	green := lipgloss.Color("#6ab04c")

	return uiTheme{
		root: lipgloss.NewStyle().
			Background(bg).
			Foreground(text).
			Padding(0, 1),
		header: lipgloss.NewStyle().
			Background(panelBg).
			Foreground(text).
			BorderStyle(lipgloss.RoundedBorder()).
			BorderForeground(steel).
			Padding(0, 1),
		tabActive: lipgloss.NewStyle().
			Background(amber).
			Foreground(lipgloss.Color("#1a1206")).
			Bold(true).
			Padding(0, 1),
		tabInactive: lipgloss.NewStyle().
			Background(lipgloss.Color("#24242a")).
			Foreground(muted).
			Padding(0, 1),
		panel: lipgloss.NewStyle().
			Background(panelBg).
			BorderStyle(lipgloss.RoundedBorder()).
			BorderForeground(steel).
			Padding(0, 1),
		panelTitle: lipgloss.NewStyle().
			Foreground(amber).
			Bold(true),
		footer: lipgloss.NewStyle().
			Background(panelBg).
			Foreground(muted).
			BorderStyle(lipgloss.RoundedBorder()).
			BorderForeground(crimson).
			Padding(0, 1),
		status:      lipgloss.NewStyle().Foreground(amber).Bold(true),
		errorStatus: lipgloss.NewStyle().Foreground(crimson).Bold(true),
		inputPanel: lipgloss.NewStyle().
			Background(panelBg).
			BorderStyle(lipgloss.RoundedBorder()).
			BorderForeground(amber).
			Padding(0, 1),
		helpText:     lipgloss.NewStyle().Foreground(muted),
		settingKey:   lipgloss.NewStyle().Foreground(steel),
		settingValue: lipgloss.NewStyle().Foreground(text),
		settingPick:  lipgloss.NewStyle().Foreground(amber).Bold(true),
		modalFrame: lipgloss.NewStyle().
			Background(panelBg).
			BorderStyle(lipgloss.ThickBorder()).
			BorderForeground(crimson).
			Padding(1, 2),
		accent:  lipgloss.NewStyle().Foreground(amber).Bold(true),
		online:  lipgloss.NewStyle().Foreground(green).Bold(true),
		pending: lipgloss.NewStyle().Foreground(amber).Bold(true),
		offline: lipgloss.NewStyle().Foreground(crimson).Bold(true),
		banner: lipgloss.NewStyle().
			Foreground(lipgloss.Color("#1a1206")).
			Background(amber).
			Padding(0, 1),
		badge: lipgloss.NewStyle().
			Foreground(text).
			Background(lipgloss.Color("#34343c")).
			Padding(0, 1),
		chip: lipgloss.NewStyle().
			Foreground(text).
			BorderStyle(lipgloss.NormalBorder()).
			BorderForeground(steel).
			Padding(0, 1),
		whisper:   lipgloss.NewStyle().Foreground(steel).Italic(true),
		narration: lipgloss.NewStyle().Foreground(text),
		dimmed:    lipgloss.NewStyle().Foreground(muted).Faint(true),
		delta: map[bool]lipgloss.Style{
			true:  lipgloss.NewStyle().Foreground(green),
			false: lipgloss.NewStyle().Foreground(crimson),
		},
	}
}
