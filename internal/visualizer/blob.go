package visualizer

import "math"

const (
	blobBaseRadius = 0.45
	blobSwell      = 0.5
	blobWobble     = 0.04
	blobLobes      = 3
	blobPhaseStep  = 0.15

	// Terminal cells are roughly twice as tall as they are wide.
	cellAspect = 2.0
)

// Blob draws a radial shape whose outline swells with band energy and
// drifts with the tick.
type Blob struct{}

func (Blob) Render(s *Surface, f Frame) {
	s.Clear()
	w, h := s.Width(), s.Height()
	if w == 0 || h == 0 {
		return
	}

	cx, cy := float64(w-1)/2, float64(h-1)/2
	// Unit radius in row units so the shape stays round on screen.
	unit := math.Min(cy, cx/cellAspect)
	if unit <= 0 {
		unit = 1
	}
	phase := float64(f.Tick) * blobPhaseStep
	quiet := f.quiet()

	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			dx := (float64(x) - cx) / cellAspect
			dy := float64(y) - cy
			dist := math.Hypot(dx, dy) / unit
			theta := math.Atan2(dy, dx)

			r := blobBaseRadius
			if !quiet {
				r += blobSwell * bandEnergy(f.Spectrum, theta)
				r += blobWobble * math.Sin(blobLobes*theta+phase)
			}

			switch {
			case dist <= r*0.6:
				s.Set(x, y, '█')
			case dist <= r*0.85:
				s.Set(x, y, '▓')
			case dist <= r:
				s.Set(x, y, '░')
			case quiet && dist <= r+0.08:
				s.Set(x, y, '·')
			}
		}
	}
}

// bandEnergy maps an angle onto the spectrum, mirrored left to right, and
// returns the normalized level there.
func bandEnergy(spectrum []uint8, theta float64) float64 {
	n := len(spectrum)
	if n == 0 {
		return 0
	}
	// 0 at the top, 1 at the bottom, symmetric about the vertical axis.
	pos := math.Abs(theta+math.Pi/2) / math.Pi
	if pos > 1 {
		pos = 2 - pos
	}
	// Speech energy lives in the lower half of the bins.
	idx := int(pos * float64(n/2))
	if idx >= n {
		idx = n - 1
	}
	return float64(spectrum[idx]) / 255
}
