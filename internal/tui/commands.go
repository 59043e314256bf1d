package tui

import (
	"errors"
	"fmt"
	"slices"
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"casefile/internal/config"
	"casefile/internal/lifecycle"
	"casefile/internal/protocol"
)

var errLinkUsage = errors.New("usage: /link <from> -> <to> [" + strings.Join(protocol.LinkRelations, "|") + "]")

// parseLink reads "<from> -> <to> [relation]". Labels may contain spaces; a
// trailing word is taken as the relation only when it is a known one.
func parseLink(args string) (from, to, relation string, err error) {
	left, right, ok := strings.Cut(args, "->")
	if !ok {
		return "", "", "", errLinkUsage
	}
	from = strings.Join(strings.Fields(left), " ")
	words := strings.Fields(right)
	relation = protocol.LinkRelations[0]
	if n := len(words); n > 1 && slices.Contains(protocol.LinkRelations, words[n-1]) {
		relation = words[n-1]
		words = words[:n-1]
	}
	to = strings.Join(words, " ")
	if from == "" || to == "" {
		return "", "", "", errLinkUsage
	}
	return from, to, relation, nil
}

func (m *model) handleSlash(raw string) tea.Cmd {
	name, args, _ := strings.Cut(strings.TrimSpace(strings.TrimPrefix(raw, "/")), " ")
	args = strings.TrimSpace(args)
	settings := &m.engine.Settings

	switch strings.ToLower(name) {
	case "connect":
		m.connect()
	case "disconnect":
		m.disconnect()
	case "link":
		from, to, relation, err := parseLink(args)
		if err != nil {
			m.statusLine = err.Error()
			return nil
		}
		m.report(m.engine.Conn.SendLink(from, to, relation), fmt.Sprintf("link sent: %s -[%s]-> %s", from, relation, to))
	case "accuse":
		if args == "" {
			m.statusLine = "usage: /accuse <suspect>"
			return nil
		}
		m.report(m.engine.Conn.SendAccuse(args), "accusation sent: "+args)
	case "server":
		if err := config.ValidateServerURL(args); err != nil {
			m.statusLine = "error: " + err.Error()
			return nil
		}
		settings.ServerURL = args
		m.settingChanged("server")
	case "player":
		if args == "" {
			m.statusLine = "usage: /player <name>"
			return nil
		}
		settings.Player = args
		m.settingChanged("player")
	case "session":
		if args == "" || strings.EqualFold(args, "new") {
			args = config.NewSessionID()
		}
		settings.SessionID = args
		m.settingChanged("session")
	case "style":
		settings.BotStyle = nullCoalesce(args, protocol.DefaultBotStyle)
		m.settingChanged("bot style")
	case "single", "voice", "music", "sfx", "bgm":
		on, ok := parseOnOff(args)
		if !ok {
			m.statusLine = fmt.Sprintf("usage: /%s on|off", name)
			return nil
		}
		m.setToggle(name, on)
	case "gallery":
		m.switchTab(tabGallery)
		return m.refreshGallery()
	case "board":
		m.switchTab(tabBoard)
	case "help":
		m.switchTab(tabHelp)
	case "quit", "exit":
		m.beginQuitConfirm()
	default:
		m.statusLine = "unknown command: /" + name
	}
	m.renderPanes()
	return nil
}

func (m *model) setToggle(name string, on bool) {
	media := m.engine.Media
	switch name {
	case "single":
		m.engine.Settings.SinglePlayer = on
		m.settingChanged("single player")
		return
	case "voice":
		media.Voice.SetEnabled(on)
	case "music":
		media.Music.SetEnabled(on)
	case "sfx":
		media.SFX.SetEnabled(on)
	case "bgm":
		if on && media.Background.Track() == "" {
			m.statusLine = "no background track configured"
			return
		}
		media.Background.SetEnabled(on)
	}
	m.statusLine = name + " " + onOff(on)
}

func (m *model) settingChanged(what string) {
	if m.engine.Conn.State() != lifecycle.Disconnected {
		m.statusLine = what + " updated · applies on next connect"
		return
	}
	m.statusLine = what + " updated"
}

// report turns a send result into a status line. Dropped frames are not
// errors for the session, only a hint for the player.
func (m *model) report(err error, ok string) {
	switch {
	case err == nil:
		m.statusLine = ok
	case errors.Is(err, lifecycle.ErrNotConnected):
		m.statusLine = "not connected · press Ctrl+O"
	default:
		m.logError(err)
	}
}
