// Package visualizer draws the turn-taking status and output spectrum onto a
// character grid. Renderers are pure: the same Frame on the same Surface size
// always yields the same picture.
package visualizer

import (
	"fmt"
	"strings"

	"github.com/Raikerian/go-voicechat/internal/config"
	"github.com/Raikerian/go-voicechat/internal/voice"
)

// Surface is a fixed-size grid of runes, row-major, origin top-left.
type Surface struct {
	width  int
	height int
	cells  []rune
}

// NewSurface creates a blank surface.
func NewSurface(width, height int) *Surface {
	s := &Surface{width: width, height: height, cells: make([]rune, width*height)}
	s.Clear()
	return s
}

func (s *Surface) Width() int  { return s.width }
func (s *Surface) Height() int { return s.height }

// Clear fills the surface with spaces.
func (s *Surface) Clear() {
	for i := range s.cells {
		s.cells[i] = ' '
	}
}

// Set writes r at (x, y). Out-of-bounds writes are ignored.
func (s *Surface) Set(x, y int, r rune) {
	if x < 0 || y < 0 || x >= s.width || y >= s.height {
		return
	}
	s.cells[y*s.width+x] = r
}

// At returns the rune at (x, y), or a space when out of bounds.
func (s *Surface) At(x, y int) rune {
	if x < 0 || y < 0 || x >= s.width || y >= s.height {
		return ' '
	}
	return s.cells[y*s.width+x]
}

// Lines returns one string per row.
func (s *Surface) Lines() []string {
	lines := make([]string, s.height)
	for y := range lines {
		lines[y] = string(s.cells[y*s.width : (y+1)*s.width])
	}
	return lines
}

func (s *Surface) String() string {
	return strings.Join(s.Lines(), "\n")
}

// Frame is everything a renderer may depend on.
type Frame struct {
	// Spectrum is byte frequency data, low to high. Empty when nothing is
	// audible.
	Spectrum []uint8
	// Tick is the animation frame counter.
	Tick   int
	Status voice.State
}

// quiet reports whether the frame should show only the idle baseline.
func (f Frame) quiet() bool {
	return !f.Status.Audible() || len(f.Spectrum) == 0
}

// Renderer draws one frame.
type Renderer interface {
	Render(s *Surface, f Frame)
}

// New returns the renderer for a configured style.
func New(style string) (Renderer, error) {
	switch style {
	case config.StyleBars:
		return Bars{}, nil
	case config.StyleBlob:
		return Blob{}, nil
	default:
		return nil, fmt.Errorf("unknown visualizer style %q", style)
	}
}
