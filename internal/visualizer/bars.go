package visualizer

// eighths are the partial block glyphs, from one eighth to full.
var eighths = []rune("▁▂▃▄▅▆▇█")

// Bars draws the spectrum as vertical bars, one per column.
type Bars struct{}

func (Bars) Render(s *Surface, f Frame) {
	s.Clear()
	w, h := s.Width(), s.Height()
	if w == 0 || h == 0 {
		return
	}

	if f.quiet() {
		for x := 0; x < w; x++ {
			s.Set(x, h-1, eighths[0])
		}
		return
	}

	for x := 0; x < w; x++ {
		level := columnLevel(f.Spectrum, x, w)
		// Height in eighths of a cell; at least the baseline.
		units := level * h * 8 / 255
		if units < 1 {
			units = 1
		}
		for y := h - 1; y >= 0 && units > 0; y-- {
			if units >= 8 {
				s.Set(x, y, eighths[7])
				units -= 8
				continue
			}
			s.Set(x, y, eighths[units-1])
			units = 0
		}
	}
}

// columnLevel averages the bins that fall into column x of width columns.
func columnLevel(spectrum []uint8, x, width int) int {
	n := len(spectrum)
	lo := x * n / width
	hi := (x + 1) * n / width
	if hi <= lo {
		hi = lo + 1
	}
	if hi > n {
		hi = n
	}
	if lo >= hi {
		return 0
	}
	sum := 0
	for _, v := range spectrum[lo:hi] {
		sum += int(v)
	}
	return sum / (hi - lo)
}
