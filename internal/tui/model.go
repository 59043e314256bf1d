// Package tui is the terminal front end of a case session. It owns the
// Bubble Tea program and runs the engine's loop tasks inside Update, so
// terminal input and server events mutate the same state on one goroutine.
package tui

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/lipgloss"
	"go.uber.org/zap"

	"casefile/internal/assets"
	"casefile/internal/config"
	"casefile/internal/engine"
	"casefile/internal/lifecycle"
	"casefile/internal/loop"
)

type tabID int

const (
	tabCase tabID = iota
	tabBoard
	tabGallery
	tabSettings
	tabHelp
	tabCount
)

// Options tune the program, not the session.
type Options struct {
	AltScreen       bool
	AutoConnect     bool
	BackgroundMusic bool
	Log             *zap.Logger
}

type model struct {
	ctx      context.Context
	engine   *engine.Engine
	gallery  *assets.Client
	opts     Options
	log      *zap.Logger
	markdown *glamour.TermRenderer

	galleryData    assets.Gallery
	galleryErr     error
	galleryLoading bool

	statusLine    string
	activeTab     tabID
	settingsIndex int
	quitConfirm   bool
	now           time.Time

	width  int
	height int

	input   textinput.Model
	story   viewport.Model
	sidebar viewport.Model
	board   viewport.Model
	shelf   viewport.Model
	spinner spinner.Model

	theme uiTheme
}

type loopTaskMsg struct {
	task loop.Task
}

type startMsg struct{}

type galleryDoneMsg struct {
	gallery assets.Gallery
	err     error
}

type tickMsg time.Time

// Run blocks until the player quits or ctx ends, then closes the engine.
func Run(ctx context.Context, e *engine.Engine, gallery *assets.Client, opts Options) error {
	defer e.Close()
	progOpts := []tea.ProgramOption{tea.WithContext(ctx), tea.WithMouseCellMotion()}
	if opts.AltScreen {
		progOpts = append(progOpts, tea.WithAltScreen())
	}
	_, err := tea.NewProgram(newModel(ctx, e, gallery, opts), progOpts...).Run()
	if errors.Is(err, tea.ErrProgramKilled) && ctx.Err() != nil {
		return nil
	}
	return err
}

func newModel(ctx context.Context, e *engine.Engine, gallery *assets.Client, opts Options) model {
	input := textinput.New()
	input.Prompt = "❯ "
	input.CharLimit = 2000
	input.Placeholder = "Say what you do. /link a -> b, /accuse name, /help"
	input.Focus()

	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = lipgloss.NewStyle().Foreground(lipgloss.Color("#e0a458"))

	newPane := func() viewport.Model {
		vp := viewport.New(0, 0)
		vp.MouseWheelEnabled = true
		vp.MouseWheelDelta = 3
		return vp
	}

	log := opts.Log
	if log == nil {
		log = zap.NewNop()
	}
	renderer, err := glamour.NewTermRenderer(
		glamour.WithStylePath("dark"),
		glamour.WithWordWrap(64),
	)
	if err != nil {
		log.Debug("markdown renderer unavailable", zap.Error(err))
	}

	return model{
		ctx:        ctx,
		engine:     e,
		gallery:    gallery,
		opts:       opts,
		log:        log,
		markdown:   renderer,
		statusLine: "disconnected · Ctrl+O to connect",
		activeTab:  tabCase,
		now:        time.Now(),
		input:      input,
		story:      newPane(),
		sidebar:    newPane(),
		board:      newPane(),
		shelf:      newPane(),
		spinner:    sp,
		theme:      newTheme(),
	}
}

func (m model) Init() tea.Cmd {
	return tea.Batch(
		m.spinner.Tick,
		textinput.Blink,
		waitLoopTask(m.ctx, m.engine.Loop),
		tickEvery(time.Second),
		func() tea.Msg { return startMsg{} },
	)
}

// waitLoopTask delivers the next engine task to Update. Exactly one is
// outstanding at a time; the handler re-arms it.
func waitLoopTask(ctx context.Context, l *loop.Loop) tea.Cmd {
	return func() tea.Msg {
		task, ok := l.Next(ctx)
		if !ok {
			return nil
		}
		return loopTaskMsg{task: task}
	}
}

func tickEvery(interval time.Duration) tea.Cmd {
	return tea.Tick(interval, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd
	switch msg := msg.(type) {
	case loopTaskMsg:
		msg.task()
		m.syncStatus()
		m.renderPanes()
		cmds = append(cmds, waitLoopTask(m.ctx, m.engine.Loop))
	case startMsg:
		if m.opts.BackgroundMusic {
			m.engine.Media.Background.SetEnabled(true)
		}
		if m.opts.AutoConnect {
			m.connect()
		}
		m.renderPanes()
	case galleryDoneMsg:
		m.galleryLoading = false
		m.galleryErr = msg.err
		if msg.err != nil {
			m.logError(msg.err)
		} else {
			m.galleryData = msg.gallery
			m.statusLine = "gallery loaded"
		}
		m.renderPanes()
	case tickMsg:
		m.now = time.Time(msg)
		cmds = append(cmds, tickEvery(time.Second))
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.resize()
		m.renderPanes()
	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		cmds = append(cmds, cmd)
	case tea.MouseMsg:
		if m.quitConfirm || m.engine.Verdict() != nil {
			break
		}
		var cmd tea.Cmd
		switch m.activeTab {
		case tabCase:
			m.story, cmd = m.story.Update(msg)
		case tabBoard:
			m.board, cmd = m.board.Update(msg)
		case tabGallery:
			m.shelf, cmd = m.shelf.Update(msg)
		}
		cmds = append(cmds, cmd)
	case tea.KeyMsg:
		return m.handleKey(msg)
	}
	return m, tea.Batch(cmds...)
}

func (m model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	key := msg.String()
	if key == "ctrl+c" {
		return m, m.quit()
	}
	if m.quitConfirm {
		switch key {
		case "y", "Y", "enter":
			return m, m.quit()
		case "n", "N", "esc":
			m.quitConfirm = false
			m.statusLine = "quit canceled"
		}
		return m, nil
	}
	if m.engine.Verdict() != nil {
		switch key {
		case "enter", "esc", " ":
			m.engine.DismissVerdict()
			m.statusLine = "case closed"
			m.renderPanes()
		}
		return m, nil
	}

	switch key {
	case "ctrl+o":
		m.connect()
		m.renderPanes()
		return m, nil
	case "ctrl+d":
		m.disconnect()
		m.renderPanes()
		return m, nil
	case "esc":
		if m.activeTab == tabCase {
			m.beginQuitConfirm()
		} else {
			m.switchTab(tabCase)
		}
		return m, nil
	case "tab":
		m.switchTab((m.activeTab + 1) % tabCount)
		return m, m.onEnterTab()
	case "shift+tab":
		m.switchTab((m.activeTab + tabCount - 1) % tabCount)
		return m, m.onEnterTab()
	}

	var cmds []tea.Cmd
	switch m.activeTab {
	case tabCase, tabBoard:
		pane := &m.story
		if m.activeTab == tabBoard {
			pane = &m.board
		}
		switch key {
		case "enter":
			raw := strings.TrimSpace(m.input.Value())
			if raw == "" {
				return m, nil
			}
			if strings.HasPrefix(raw, "/") {
				m.input.SetValue("")
				return m, m.handleSlash(raw)
			}
			if err := m.engine.Send(raw); err != nil {
				m.report(err, "")
				return m, nil
			}
			m.input.SetValue("")
			m.statusLine = "sent · waiting for the narrator"
			return m, nil
		case "pgup", "ctrl+b":
			pane.LineUp(8)
			return m, nil
		case "pgdown", "ctrl+f":
			pane.LineDown(8)
			return m, nil
		case "up":
			if m.input.Value() == "" {
				pane.LineUp(2)
				return m, nil
			}
		case "down":
			if m.input.Value() == "" {
				pane.LineDown(2)
				return m, nil
			}
		}
		var cmd tea.Cmd
		m.input, cmd = m.input.Update(msg)
		cmds = append(cmds, cmd)
	case tabGallery:
		switch key {
		case "r":
			cmds = append(cmds, m.refreshGallery())
		case "up", "k":
			m.shelf.LineUp(2)
		case "down", "j":
			m.shelf.LineDown(2)
		case "pgup":
			m.shelf.LineUp(8)
		case "pgdown":
			m.shelf.LineDown(8)
		}
	case tabSettings:
		switch key {
		case "up", "k":
			m.settingsIndex = maxInt(0, m.settingsIndex-1)
		case "down", "j":
			m.settingsIndex = minInt(len(m.settingRows())-1, m.settingsIndex+1)
		case "left", "h", "-":
			m.adjustSetting(-1)
		case "right", "l", "+", " ":
			m.adjustSetting(1)
		}
		m.renderPanes()
	}
	return m, tea.Batch(cmds...)
}

func (m *model) connect() {
	settings := m.engine.Settings
	if err := config.ValidateServerURL(settings.ServerURL); err != nil {
		m.logError(err)
		return
	}
	if strings.TrimSpace(settings.Player) == "" {
		m.statusLine = "set a player name first: /player <name>"
		return
	}
	if !m.engine.Connect(m.ctx) {
		m.statusLine = "already " + m.engine.Conn.State().String()
		return
	}
	m.statusLine = "connecting to " + settings.ServerURL
}

func (m *model) disconnect() {
	m.engine.Disconnect()
	m.syncStatus()
}

// syncStatus keeps the footer in line with the connection after engine
// tasks ran.
func (m *model) syncStatus() {
	switch m.engine.Conn.State() {
	case lifecycle.Connected:
		if strings.HasPrefix(m.statusLine, "connecting") {
			m.statusLine = "connected as " + m.engine.Settings.Player
		}
	case lifecycle.Disconnected:
		if strings.HasPrefix(m.statusLine, "connect") {
			m.statusLine = "disconnected · Ctrl+O to reconnect"
		}
	}
}

func (m *model) switchTab(tab tabID) {
	m.activeTab = tab
	if tab == tabCase || tab == tabBoard {
		m.input.Focus()
	} else {
		m.input.Blur()
	}
	// Off-screen scene swaps commit without a fade.
	m.engine.Media.Image.SetSurface(tab == tabCase)
	m.renderPanes()
}

func (m *model) onEnterTab() tea.Cmd {
	if m.activeTab == tabGallery && !m.galleryLoading && m.galleryData.Generated == nil && m.galleryErr == nil {
		return m.refreshGallery()
	}
	return nil
}

func (m *model) refreshGallery() tea.Cmd {
	if m.gallery == nil {
		m.statusLine = "gallery unavailable"
		return nil
	}
	if m.galleryLoading {
		return nil
	}
	m.galleryLoading = true
	m.statusLine = "loading gallery..."
	client := m.gallery
	ctx := m.ctx
	return func() tea.Msg {
		g, err := client.Gallery(ctx)
		return galleryDoneMsg{gallery: g, err: err}
	}
}

func (m *model) beginQuitConfirm() {
	m.quitConfirm = true
	m.statusLine = "leave the case?"
}

func (m *model) quit() tea.Cmd {
	m.engine.Close()
	return tea.Quit
}

type settingRow struct {
	label string
	value string
	help  string
}

func (m *model) settingRows() []settingRow {
	s := m.engine.Settings
	media := m.engine.Media
	track := nullCoalesce(media.Background.Track(), "(no track configured)")
	return []settingRow{
		{"Server URL", s.ServerURL, "/server <ws://host:port/ws>"},
		{"Player", s.Player, "/player <name>"},
		{"Session ID", s.SessionID, "←/→ new random id · /session <id>"},
		{"Single Player", onOff(s.SinglePlayer), "play alone or join a shared session"},
		{"Voice", onOff(media.Voice.Enabled()), "narrator voice track"},
		{"Music", onOff(media.Music.Enabled()), "per-scene score"},
		{"SFX", onOff(media.SFX.Enabled()), "sound effects; muted effects are skipped, not saved"},
		{"Background Music", onOff(media.Background.Enabled()), track},
		{"Bot Style", s.BotStyle, "/style <text> · companion persona sent at login"},
	}
}

func (m *model) adjustSetting(delta int) {
	if delta == 0 {
		return
	}
	media := m.engine.Media
	switch m.settingsIndex {
	case 2:
		m.engine.Settings.SessionID = config.NewSessionID()
		m.settingChanged("session")
	case 3:
		m.setToggle("single", !m.engine.Settings.SinglePlayer)
	case 4:
		m.setToggle("voice", !media.Voice.Enabled())
	case 5:
		m.setToggle("music", !media.Music.Enabled())
	case 6:
		m.setToggle("sfx", !media.SFX.Enabled())
	case 7:
		m.setToggle("bgm", !media.Background.Enabled())
	default:
		m.statusLine = "edit with " + m.settingRows()[m.settingsIndex].help
	}
}

func (m *model) logError(err error) {
	if err == nil {
		return
	}
	m.log.Debug("ui error", zap.Error(err))
	m.statusLine = "error: " + compactSingleLine(err.Error(), 160)
}
