package tui

import (
	"fmt"
	"path"
	"slices"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"casefile/internal/casegraph"
	"casefile/internal/lifecycle"
	"casefile/internal/protocol"
	"casefile/internal/session"
)

// Inventory items with a dedicated chip, in display order.
var pinnedItems = []string{"pistol_loaded", "ammo", "cigarettes"}

func (m model) View() string {
	header := m.renderHeader()
	content := m.renderContent()
	input := m.renderInput()
	footer := m.renderFooter()
	out := lipgloss.JoinVertical(lipgloss.Left, header, content, input, footer)
	if m.engine.Verdict() != nil {
		out = m.renderVerdictModal()
	}
	if m.quitConfirm {
		out = m.renderQuitModal()
	}
	return m.theme.root.Render(out)
}

func (m *model) renderHeader() string {
	tabs := []struct {
		id    tabID
		label string
	}{
		{tabCase, "Case"},
		{tabBoard, "Board"},
		{tabGallery, "Gallery"},
		{tabSettings, "Settings"},
		{tabHelp, "Help"},
	}
	segments := make([]string, 0, len(tabs)+2)
	for _, tab := range tabs {
		style := m.theme.tabInactive
		if tab.id == m.activeTab {
			style = m.theme.tabActive
		}
		segments = append(segments, style.Render(tab.label))
	}
	segments = append(segments, " "+m.connectionIndicator())
	meta := fmt.Sprintf("  Turn %d · %s · %s",
		m.engine.Store.Turn(),
		truncate(nullCoalesce(m.engine.Settings.SessionID, "no session"), 24),
		m.now.Format("15:04:05"),
	)
	segments = append(segments, m.theme.helpText.Render(meta))
	joined := lipgloss.JoinHorizontal(lipgloss.Left, segments...)
	return m.theme.header.Width(maxInt(20, m.width-4)).Render(joined)
}

func (m *model) connectionIndicator() string {
	switch m.engine.Conn.State() {
	case lifecycle.Connected:
		return m.theme.online.Render("● online")
	case lifecycle.Connecting:
		return m.theme.pending.Render(m.spinner.View() + " connecting")
	default:
		return m.theme.offline.Render("○ offline")
	}
}

func casePanelHeights(contentHeight int) (mainPanelHeight int, journalHeight int) {
	journalHeight = 7
	mainPanelHeight = maxInt(6, contentHeight-journalHeight)
	return mainPanelHeight, journalHeight
}

func (m *model) renderContent() string {
	contentHeight := maxInt(8, m.height-12)
	contentWidth := maxInt(40, m.width-4)

	switch m.activeTab {
	case tabCase:
		mainPanelHeight, journalHeight := casePanelHeights(contentHeight)
		leftWidth, rightWidth := splitWidths(contentWidth)
		left := m.theme.panel.Width(leftWidth).Height(mainPanelHeight).Render(
			m.theme.panelTitle.Render("Narration") + "\n" + m.story.View(),
		)
		right := m.theme.panel.Width(rightWidth).Height(mainPanelHeight).Render(
			m.theme.panelTitle.Render("Investigator") + "\n" + m.sidebar.View(),
		)
		top := lipgloss.JoinHorizontal(lipgloss.Top, left, right)
		journal := m.theme.panel.Width(contentWidth).Height(journalHeight).Render(
			m.theme.panelTitle.Render("Journal") + "\n" + m.renderJournal(journalHeight-2),
		)
		return lipgloss.JoinVertical(lipgloss.Left, top, journal)
	case tabBoard:
		panel := m.theme.panel.Width(contentWidth).Height(contentHeight)
		return panel.Render(m.theme.panelTitle.Render("Case Board") + "\n" + m.board.View())
	case tabGallery:
		panel := m.theme.panel.Width(contentWidth).Height(contentHeight)
		return panel.Render(m.theme.panelTitle.Render("Gallery") + "\n" + m.shelf.View())
	case tabSettings:
		panel := m.theme.panel.Width(contentWidth).Height(contentHeight)
		return panel.Render(m.theme.panelTitle.Render("Session Settings") + "\n" + m.renderSettings())
	case tabHelp:
		panel := m.theme.panel.Width(contentWidth).Height(contentHeight)
		return panel.Render(m.theme.panelTitle.Render("Help") + "\n" + m.renderHelp())
	default:
		return ""
	}
}

func splitWidths(contentWidth int) (left int, right int) {
	left = int(float64(contentWidth) * 0.64)
	right = contentWidth - left - 1
	if right < 30 {
		right = 30
		left = contentWidth - right - 1
	}
	return left, right
}

func (m *model) renderPanes() {
	prevStoryYOffset := m.story.YOffset
	prevStoryAtBottom := m.story.AtBottom()
	prevBoardYOffset := m.board.YOffset

	contentHeight := maxInt(8, m.height-12)
	contentWidth := maxInt(40, m.width-4)
	mainPanelHeight, _ := casePanelHeights(contentHeight)
	leftWidth, rightWidth := splitWidths(contentWidth)

	m.story.Width = maxInt(20, leftWidth-4)
	m.story.Height = maxInt(5, mainPanelHeight-3)
	m.sidebar.Width = maxInt(20, rightWidth-4)
	m.sidebar.Height = maxInt(5, mainPanelHeight-3)
	m.board.Width = maxInt(20, contentWidth-4)
	m.board.Height = maxInt(5, contentHeight-3)
	m.shelf.Width = m.board.Width
	m.shelf.Height = m.board.Height

	snap := m.engine.Store.Snapshot()
	m.story.SetContent(m.renderStory(snap))
	if prevStoryAtBottom {
		m.story.GotoBottom()
	} else {
		m.story.SetYOffset(prevStoryYOffset)
	}
	m.sidebar.SetContent(m.renderSidebar(snap))
	m.board.SetContent(m.renderBoard())
	m.board.SetYOffset(prevBoardYOffset)
	m.shelf.SetContent(m.renderGallery())
}

func (m *model) resize() {
	contentWidth := maxInt(40, m.width-4)
	m.input.Width = maxInt(20, contentWidth-6)
}

func (m *model) renderStory(snap session.State) string {
	width := maxInt(24, m.story.Width-2)
	var b strings.Builder

	if snap.Reframe != nil {
		banner := fmt.Sprintf("You tried: %s → The story made it: %s",
			nullCoalesce(snap.Reframe.From, "?"), nullCoalesce(snap.Reframe.To, "?"))
		b.WriteString(m.theme.banner.Render(truncate(banner, width)))
		b.WriteString("\n\n")
	}

	var tags []string
	if snap.Shot != nil && *snap.Shot != "" {
		tags = append(tags, m.theme.badge.Render("🎬 "+*snap.Shot))
	}
	img := m.engine.Media.Image.State()
	if img.Committed != "" {
		label := "▣ " + path.Base(img.Committed)
		if img.Fading() {
			label += " " + m.theme.dimmed.Render("("+img.Phase.String()+")")
		}
		tags = append(tags, m.theme.helpText.Render(label))
	}
	if len(tags) > 0 {
		b.WriteString(strings.Join(tags, " "))
		b.WriteString("\n\n")
	}

	if snap.Narration == "" {
		b.WriteString(m.theme.dimmed.Render("The city is quiet. Connect and make your first move."))
	} else {
		b.WriteString(m.theme.narration.Render(wrapText(snap.Narration, width)))
	}

	if len(snap.Whispers) > 0 {
		b.WriteString("\n\n")
		for _, w := range snap.Whispers {
			b.WriteString(m.theme.whisper.Render(wrapText("» "+w, width)))
			b.WriteString("\n")
		}
	}
	return strings.TrimRight(b.String(), "\n")
}

func (m *model) renderSidebar(snap session.State) string {
	var b strings.Builder

	b.WriteString(m.theme.accent.Render("HUD"))
	b.WriteString("\n")
	hud := []struct {
		key   string
		label string
		value protocol.Level
		// lowerIsBetter flips the delta colour.
		lowerIsBetter bool
	}{
		{"time", "Time", snap.Metrics.Time, false},
		{"suspicion", "Suspicion", snap.Metrics.Suspicion, true},
		{"reputation", "Reputation", snap.Metrics.Reputation, false},
	}
	for _, row := range hud {
		line := fmt.Sprintf("%-11s %3d", row.label, row.value)
		if d, ok := snap.MetricsDelta[row.key]; ok && d != 0 {
			good := ternary(row.lowerIsBetter, d < 0, d > 0)
			line += " " + m.theme.delta[good].Render(signed(int(d)))
		}
		b.WriteString(line + "\n")
	}
	b.WriteString(fmt.Sprintf("%-11s %s\n", "Location", snap.Location))

	b.WriteString("\n" + m.theme.accent.Render("Inventory") + "\n")
	chips := inventoryChips(snap.Inventory)
	if len(chips) == 0 {
		b.WriteString(m.theme.dimmed.Render("empty pockets") + "\n")
	}
	for _, chip := range chips {
		b.WriteString(m.theme.badge.Render(chip) + "\n")
	}

	b.WriteString("\n" + m.theme.accent.Render("People") + "\n")
	if len(snap.Relations) == 0 {
		b.WriteString(m.theme.dimmed.Render("nobody knows you yet") + "\n")
	}
	for _, name := range sortedKeys(snap.Relations) {
		rel := snap.Relations[name]
		b.WriteString(m.theme.settingValue.Render(name) + "\n")
		b.WriteString(fmt.Sprintf("  mood  %s %3d\n", meter(int(rel.Mood)), rel.Mood))
		b.WriteString(fmt.Sprintf("  trust %s %3d\n", meter(int(rel.Trust)), rel.Trust))
		b.WriteString(fmt.Sprintf("  fear  %s %3d\n", meter(int(rel.Fear)), rel.Fear))
	}

	b.WriteString("\n" + m.theme.accent.Render("Audio") + "\n")
	b.WriteString(m.renderAudio())
	return strings.TrimRight(b.String(), "\n")
}

// inventoryChips renders pinned items first, then everything else by key.
func inventoryChips(inv map[string]any) []string {
	chips := make([]string, 0, len(inv))
	for _, key := range pinnedItems {
		value, ok := inv[key]
		if !ok {
			continue
		}
		switch key {
		case "pistol_loaded":
			chips = append(chips, "pistol: "+ternary(value == true, "loaded", "empty"))
		case "ammo":
			chips = append(chips, fmt.Sprintf("ammo ×%v", value))
		case "cigarettes":
			chips = append(chips, fmt.Sprintf("cigarettes ×%v", value))
		}
	}
	for _, key := range sortedKeys(inv) {
		if slices.Contains(pinnedItems, key) {
			continue
		}
		switch value := inv[key].(type) {
		case bool:
			if value {
				chips = append(chips, key)
			}
		case nil:
		default:
			chips = append(chips, fmt.Sprintf("%s: %v", key, value))
		}
	}
	return chips
}

func (m *model) renderAudio() string {
	media := m.engine.Media
	channel := func(label string, enabled bool, current string, playing bool) string {
		state := onOff(enabled)
		if enabled && playing && current != "" {
			state = "▶ " + truncate(path.Base(current), 22)
		}
		return fmt.Sprintf("%-6s %s\n", label, state)
	}
	var b strings.Builder
	b.WriteString(channel("voice", media.Voice.Enabled(), media.Voice.Current(), media.Voice.Playing()))
	b.WriteString(channel("music", media.Music.Enabled(), media.Music.Current(), media.Music.Playing()))
	sfx := media.SFX.Active()
	b.WriteString(channel("sfx", media.SFX.Enabled(), sfx, sfx != ""))
	if pending := len(media.SFX.Pending()); pending > 0 {
		b.WriteString(m.theme.dimmed.Render(fmt.Sprintf("       +%d queued", pending)) + "\n")
	}
	b.WriteString(channel("bgm", media.Background.Enabled(), media.Background.Track(), media.Background.Enabled()))
	return b.String()
}

func (m *model) renderJournal(limit int) string {
	lines := m.engine.Journal.Lines()
	if len(lines) == 0 {
		return m.theme.dimmed.Render("nothing logged yet")
	}
	if limit > 0 && len(lines) > limit {
		lines = lines[len(lines)-limit:]
	}
	width := maxInt(24, m.width-10)
	out := make([]string, 0, len(lines))
	for _, line := range lines {
		out = append(out, m.theme.helpText.Render(truncate(line, width)))
	}
	return strings.Join(out, "\n")
}

func (m *model) renderBoard() string {
	buckets := m.engine.Graph.Buckets()
	nodes, edges := m.engine.Graph.Len()
	if nodes == 0 && edges == 0 {
		return m.theme.dimmed.Render("The board is empty. Leads appear here as the case unfolds.\n/link <from> -> <to> [relation] pins your own theory.")
	}
	var b strings.Builder
	section := func(title string, items []casegraph.Node) {
		b.WriteString(m.theme.accent.Render(fmt.Sprintf("%s (%d)", title, len(items))))
		b.WriteString("\n")
		if len(items) == 0 {
			b.WriteString(m.theme.dimmed.Render("  none") + "\n")
		}
		for _, n := range items {
			b.WriteString(fmt.Sprintf("  • %s %s\n", nullCoalesce(n.Label, n.ID), m.theme.dimmed.Render("["+n.ID+"]")))
		}
		b.WriteString("\n")
	}
	section("Clues", buckets.Clues)
	section("People", buckets.People)
	section("Places", buckets.Locations)

	b.WriteString(m.theme.accent.Render(fmt.Sprintf("Connections (%d)", edges)))
	b.WriteString("\n")
	for _, e := range m.engine.Graph.Edges() {
		b.WriteString(fmt.Sprintf("  %s -[%s]-> %s  %s\n", e.From, nullCoalesce(e.Label, "?"), e.To, m.theme.helpText.Render(e.Percent())))
	}
	return strings.TrimRight(b.String(), "\n")
}

func (m *model) renderGallery() string {
	if m.gallery == nil {
		return m.theme.dimmed.Render("No vision service configured.")
	}
	if m.galleryLoading {
		return m.spinner.View() + " loading..."
	}
	if m.galleryErr != nil {
		return m.theme.errorStatus.Render(compactSingleLine(m.galleryErr.Error(), 200)) + "\n\n" + m.theme.helpText.Render("Press r to retry.")
	}
	var b strings.Builder
	list := func(title string, images []string) {
		b.WriteString(m.theme.accent.Render(fmt.Sprintf("%s (%d)", title, len(images))))
		b.WriteString("\n")
		for _, img := range images {
			b.WriteString("  " + img + "\n")
		}
		b.WriteString("\n")
	}
	list("Generated", m.galleryData.Generated)
	list("Case zero", m.galleryData.CaseZero)
	b.WriteString(m.theme.helpText.Render("r refresh · ↑/↓ scroll"))
	return b.String()
}

func (m *model) renderSettings() string {
	var b strings.Builder
	b.WriteString(m.theme.helpText.Render("Use ↑/↓ to select and ←/→ (or -/+) to change values."))
	b.WriteString("\n\n")
	for i, row := range m.settingRows() {
		labelStyle := m.theme.settingKey
		valueStyle := m.theme.settingValue
		prefix := "  "
		if i == m.settingsIndex {
			labelStyle = m.theme.settingPick
			valueStyle = m.theme.settingPick
			prefix = "▶ "
		}
		b.WriteString(prefix + labelStyle.Render(fmt.Sprintf("%-18s", row.label)) + " " + valueStyle.Render(row.value) + "\n")
		b.WriteString("   " + m.theme.helpText.Render(row.help) + "\n")
	}
	b.WriteString("\nConnection settings apply on the next connect.")
	return strings.TrimSpace(b.String())
}

func (m *model) renderHelp() string {
	lines := []string{
		"Keys",
		"- Enter: send an action, or run a /command",
		"- Ctrl+O connect · Ctrl+D disconnect",
		"- Tab / Shift+Tab: switch views",
		"- PgUp/PgDn, or Up/Down with empty input: scroll",
		"- Esc: back to Case, then quit prompt · Ctrl+C quit",
		"",
		"Commands",
		"- /connect, /disconnect",
		"- /link <from> -> <to> [implies|found_at|seen_with|contradicts]",
		"- /accuse <suspect>",
		"- /server <url>, /player <name>, /session [id|new], /style <text>",
		"- /single, /voice, /music, /sfx, /bgm on|off",
		"- /board, /gallery, /help, /quit",
		"",
		"Actions are dropped while offline; nothing is queued for later.",
	}
	return strings.Join(lines, "\n")
}

func (m *model) renderInput() string {
	contentWidth := maxInt(40, m.width-4)
	if m.activeTab != tabCase && m.activeTab != tabBoard {
		return m.theme.inputPanel.Width(contentWidth).Render(m.theme.helpText.Render("Input is available on Case and Board. Press Tab to return."))
	}
	return m.theme.inputPanel.Width(contentWidth).Render(m.input.View())
}

func (m *model) renderFooter() string {
	contentWidth := maxInt(40, m.width-4)
	statusStyle := m.theme.status
	lower := strings.ToLower(m.statusLine)
	if strings.Contains(lower, "failed") || strings.Contains(lower, "error") {
		statusStyle = m.theme.errorStatus
	}
	line := statusStyle.Render(compactSingleLine(m.statusLine, 180))
	hints := m.theme.helpText.Render("Keys: Enter send · Ctrl+O connect · Ctrl+D disconnect · Tab switch view · PgUp/PgDn scroll · Esc quit prompt")
	return m.theme.footer.Width(contentWidth).Render(line + "\n" + hints)
}

func (m *model) renderVerdictModal() string {
	v := m.engine.Verdict()
	canvasWidth := maxInt(40, m.width-4)
	canvasHeight := maxInt(12, m.height-4)
	modalWidth := clampInt(int(float64(canvasWidth)*0.7), 40, 90)

	doc := fmt.Sprintf("# Verdict\n\n**%s**\n\n%s\n", nullCoalesce(v.Verdict, "undecided"), v.Epilogue)
	body := doc
	if m.markdown != nil {
		if rendered, err := m.markdown.Render(doc); err == nil {
			body = strings.TrimSpace(rendered)
		}
	}
	body += "\n\n" + m.theme.settingPick.Render("[Enter / Esc] Close the file")
	panel := m.theme.modalFrame.Width(modalWidth).Render(body)
	return lipgloss.Place(canvasWidth, canvasHeight, lipgloss.Center, lipgloss.Center, panel,
		lipgloss.WithWhitespaceBackground(lipgloss.Color("#0d0d0f")))
}

func (m *model) renderQuitModal() string {
	canvasWidth := maxInt(40, m.width-4)
	canvasHeight := maxInt(12, m.height-4)
	modalWidth := clampInt(int(float64(canvasWidth)*0.5), 36, 64)

	body := strings.Join([]string{
		m.theme.errorStatus.Render("CLOSE THE CASE FILE?"),
		m.theme.helpText.Render("The connection and all playback stop."),
		"",
		m.theme.settingPick.Render("[Y / Enter] Quit") + "    " + m.theme.helpText.Render("[N / Esc] Return"),
	}, "\n")
	panel := m.theme.modalFrame.Width(modalWidth).Render(body)
	return lipgloss.Place(canvasWidth, canvasHeight, lipgloss.Center, lipgloss.Center, panel,
		lipgloss.WithWhitespaceBackground(lipgloss.Color("#0d0d0f")))
}
