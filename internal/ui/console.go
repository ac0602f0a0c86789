// Package ui is the single-screen terminal surface: one toggle key, a status
// line and the visualizer.
package ui

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/fx"
	"go.uber.org/zap"
	"golang.org/x/term"

	"github.com/Raikerian/go-voicechat/internal/visualizer"
	"github.com/Raikerian/go-voicechat/internal/voice"
	"github.com/Raikerian/go-voicechat/pkg/audio"
)

// Controller is the part of voice.Controller the console drives.
type Controller interface {
	Toggle(ctx context.Context) error
	Stop() error
	Status() voice.State
	Active() bool
	ByteFrequencyData(dst []uint8) int
}

type action int

const (
	actionNone action = iota
	actionToggle
	actionQuit
)

const (
	keyCtrlC = 0x03
	keyCtrlD = 0x04

	defaultWidth  = 64
	defaultHeight = 12
	minHeight     = 4
	maxHeight     = 20
	chromeLines   = 3 // status, hint, blank
)

const (
	ansiHome        = "\x1b[H"
	ansiClear       = "\x1b[2J"
	ansiClearLine   = "\x1b[K"
	ansiHideCursor  = "\x1b[?25l"
	ansiShowCursor  = "\x1b[?25h"
	ansiReset       = "\x1b[0m"
	ansiBold        = "\x1b[1m"
	ansiDim         = "\x1b[2m"
	ansiRed         = "\x1b[31m"
	ansiGreen       = "\x1b[32m"
	ansiYellow      = "\x1b[33m"
	ansiCyan        = "\x1b[36m"
	ansiBrightBlack = "\x1b[90m"
)

// Console owns the terminal while the app runs.
type Console struct {
	logger     *zap.Logger
	ctrl       Controller
	renderer   visualizer.Renderer
	shutdowner fx.Shutdowner
	fps        int

	in  io.Reader
	out io.Writer

	toggling atomic.Bool

	mu      sync.Mutex
	lastErr error
	tick    int
	bins    []uint8

	restore func()
	cancel  context.CancelFunc
	done    chan struct{}
}

// NewConsole creates a console over stdin and stdout.
func NewConsole(logger *zap.Logger, ctrl Controller, renderer visualizer.Renderer, shutdowner fx.Shutdowner, fps int) *Console {
	if fps <= 0 {
		fps = 30
	}
	return &Console{
		logger:     logger,
		ctrl:       ctrl,
		renderer:   renderer,
		shutdowner: shutdowner,
		fps:        fps,
		in:         os.Stdin,
		out:        os.Stdout,
		bins:       make([]uint8, audio.DefaultFFTSize/2),
	}
}

// Start takes over the terminal and begins drawing.
func (c *Console) Start(context.Context) error {
	if f, ok := c.in.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		fd := int(f.Fd())
		state, err := term.MakeRaw(fd)
		if err != nil {
			return fmt.Errorf("failed to enter raw mode: %w", err)
		}
		c.restore = func() { _ = term.Restore(fd, state) }
	}

	fmt.Fprint(c.out, ansiHideCursor+ansiClear)

	ctx, cancel := context.WithCancel(context.Background())
	c.cancel = cancel
	c.done = make(chan struct{})

	go c.readKeys()
	go c.renderLoop(ctx)

	return nil
}

// Stop ends drawing and gives the terminal back.
func (c *Console) Stop(context.Context) error {
	if c.cancel != nil {
		c.cancel()
		<-c.done
	}
	if c.restore != nil {
		c.restore()
	}
	fmt.Fprint(c.out, ansiReset+ansiShowCursor+"\r\n")
	return nil
}

func (c *Console) readKeys() {
	r := bufio.NewReader(c.in)
	for {
		b, err := r.ReadByte()
		if err != nil {
			if err != io.EOF {
				c.logger.Debug("Stopped reading keys", zap.Error(err))
			}
			return
		}
		switch handleKey(b) {
		case actionToggle:
			c.toggle()
		case actionQuit:
			c.logger.Info("Quit requested")
			if err := c.shutdowner.Shutdown(); err != nil {
				c.logger.Error("Failed to shut down", zap.Error(err))
			}
			return
		}
	}
}

func handleKey(b byte) action {
	switch b {
	case ' ', '\r', '\n':
		return actionToggle
	case 'q', 'Q', keyCtrlC, keyCtrlD:
		return actionQuit
	default:
		return actionNone
	}
}

// toggle runs off the key reader so drawing continues during a slow start.
// A press while a toggle is still in flight stops the session instead, which
// cancels a start that is waiting on the connection.
func (c *Console) toggle() {
	if !c.toggling.CompareAndSwap(false, true) {
		go func() {
			if err := c.ctrl.Stop(); err != nil {
				c.logger.Warn("Stop failed", zap.Error(err))
			}
		}()
		return
	}
	go func() {
		defer c.toggling.Store(false)

		err := c.ctrl.Toggle(context.Background())
		if errors.Is(err, context.Canceled) {
			c.logger.Info("Session start cancelled")
			err = nil
		}
		c.mu.Lock()
		c.lastErr = err
		c.mu.Unlock()
		if err != nil {
			c.logger.Warn("Toggle failed", zap.Error(err))
		}
	}()
}

func (c *Console) renderLoop(ctx context.Context) {
	defer close(c.done)

	ticker := time.NewTicker(time.Second / time.Duration(c.fps))
	defer ticker.Stop()

	for {
		c.draw()
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

func (c *Console) draw() {
	width, height := c.size()
	if _, err := c.out.Write(c.frame(width, height)); err != nil {
		c.logger.Debug("Failed to draw", zap.Error(err))
	}
}

func (c *Console) size() (int, int) {
	f, ok := c.out.(*os.File)
	if !ok {
		return defaultWidth, defaultHeight
	}
	w, h, err := term.GetSize(int(f.Fd()))
	if err != nil || w <= 0 {
		return defaultWidth, defaultHeight
	}
	return w, min(max(h-chromeLines, minHeight), maxHeight)
}

// frame renders one full screen. The spectrum is only read while the model is
// audible.
func (c *Console) frame(width, height int) []byte {
	status := c.ctrl.Status()

	c.mu.Lock()
	c.tick++
	f := visualizer.Frame{Tick: c.tick, Status: status}
	if status.Audible() {
		n := c.ctrl.ByteFrequencyData(c.bins)
		f.Spectrum = c.bins[:n]
	}
	lastErr := c.lastErr
	c.mu.Unlock()

	surface := visualizer.NewSurface(width, height)
	c.renderer.Render(surface, f)

	var buf bytes.Buffer
	buf.WriteString(ansiHome)
	buf.WriteString(statusLine(status, lastErr))
	buf.WriteString(ansiClearLine + "\r\n")
	buf.WriteString(ansiDim + hint(c.ctrl.Active()) + ansiReset)
	buf.WriteString(ansiClearLine + "\r\n" + ansiClearLine + "\r\n")
	color := statusColor(status)
	for _, line := range surface.Lines() {
		buf.WriteString(color + line + ansiReset + ansiClearLine + "\r\n")
	}
	return buf.Bytes()
}

func statusLine(s voice.State, err error) string {
	line := statusColor(s) + ansiBold + "● " + label(s) + ansiReset
	if s == voice.StateError && err != nil {
		line += "  " + ansiRed + err.Error() + ansiReset
	}
	return line
}

func label(s voice.State) string {
	switch s {
	case voice.StateIdle:
		return "Idle"
	case voice.StateListening:
		return "Listening"
	case voice.StateThinking:
		return "Thinking"
	case voice.StateSpeaking:
		return "Speaking"
	case voice.StateError:
		return "Error"
	default:
		return s.String()
	}
}

func hint(active bool) string {
	if active {
		return "space: stop   q: quit"
	}
	return "space: start talking   q: quit"
}

func statusColor(s voice.State) string {
	switch s {
	case voice.StateListening:
		return ansiGreen
	case voice.StateThinking:
		return ansiYellow
	case voice.StateSpeaking:
		return ansiCyan
	case voice.StateError:
		return ansiRed
	default:
		return ansiBrightBlack
	}
}
