// Package playback runs audio through an external player command.
package playback

import (
	"context"
	"errors"
	"os/exec"
	"strings"
	"sync"
	"unicode"

	"go.uber.org/zap"
)

// Placeholder is replaced by the source in a player command. Without it the
// source is appended as the last argument.
const Placeholder = "{src}"

// DefaultCommand plays a file or URL once without a window.
const DefaultCommand = "ffplay -nodisp -autoexit -loglevel quiet"

var ErrNoCommand = errors.New("empty player command")

// Poster hands a callback to the goroutine that owns client state.
type Poster interface {
	Post(fn func())
}

// CommandPlayer is a single-slot player backed by one child process at a
// time. Starting a new source kills the previous process.
type CommandPlayer struct {
	argv   []string
	poster Poster
	log    *zap.Logger

	mu     sync.Mutex
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

func NewCommandPlayer(command string, poster Poster, log *zap.Logger) (*CommandPlayer, error) {
	argv := splitCommand(command)
	if len(argv) == 0 {
		return nil, ErrNoCommand
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &CommandPlayer{argv: argv, poster: poster, log: log}, nil
}

// Play starts src and reports its exit through done on the poster. An error
// is returned only when the process cannot be started.
func (p *CommandPlayer) Play(src string, done func(error)) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.stopLocked()

	ctx, cancel := context.WithCancel(context.Background())
	argv := expand(p.argv, src)
	cmd := exec.CommandContext(ctx, argv[0], argv[1:]...)
	if err := cmd.Start(); err != nil {
		cancel()
		return err
	}
	p.cancel = cancel
	p.log.Debug("player started", zap.String("src", src), zap.Int("pid", cmd.Process.Pid))

	p.wg.Add(1)
	go func() {
		defer p.wg.Done()
		err := cmd.Wait()
		if ctx.Err() != nil {
			err = nil
		}
		cancel()
		if done != nil && p.poster != nil {
			p.poster.Post(func() { done(err) })
		}
	}()
	return nil
}

// Stop kills the current process, if any.
func (p *CommandPlayer) Stop() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.stopLocked()
}

// Close stops playback and waits for the child to be reaped.
func (p *CommandPlayer) Close() {
	p.Stop()
	p.wg.Wait()
}

func (p *CommandPlayer) stopLocked() {
	if p.cancel != nil {
		p.cancel()
		p.cancel = nil
	}
}

func expand(argv []string, src string) []string {
	out := make([]string, 0, len(argv)+1)
	replaced := false
	for _, arg := range argv {
		if strings.Contains(arg, Placeholder) {
			arg = strings.ReplaceAll(arg, Placeholder, src)
			replaced = true
		}
		out = append(out, arg)
	}
	if !replaced {
		out = append(out, src)
	}
	return out
}

func splitCommand(raw string) []string {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return nil
	}
	args := make([]string, 0, 8)
	var current strings.Builder
	inSingle := false
	inDouble := false
	escaped := false
	flush := func() {
		if current.Len() == 0 {
			return
		}
		args = append(args, current.String())
		current.Reset()
	}
	for _, r := range trimmed {
		switch {
		case escaped:
			current.WriteRune(r)
			escaped = false
		case r == '\\' && !inSingle:
			escaped = true
		case r == '\'' && !inDouble:
			inSingle = !inSingle
		case r == '"' && !inSingle:
			inDouble = !inDouble
		case unicode.IsSpace(r) && !inSingle && !inDouble:
			flush()
		default:
			current.WriteRune(r)
		}
	}
	if escaped {
		current.WriteRune('\\')
	}
	flush()
	if inSingle || inDouble {
		// Unbalanced quotes: fall back to plain fields.
		return strings.Fields(trimmed)
	}
	return args
}
