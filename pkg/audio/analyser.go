package audio

import (
	"math"
	"math/cmplx"
	"sync"

	"github.com/mjibson/go-dsp/fft"
)

// Analyser defaults, matching a WebAudio AnalyserNode configured for a
// compact visualizer.
const (
	DefaultFFTSize       = 256
	DefaultSmoothing     = 0.8
	DefaultMinDecibels   = -100.0
	DefaultMaxDecibels   = -30.0
	analyserMinMagnitude = 1e-12
	blackmanAlpha        = 0.16
)

// Analyser is the spectral analysis node. Connected sources feed it through
// Process; ByteFrequencyData reports smoothed magnitudes of the most recent
// FFTSize samples scaled onto 0..255 across [MinDecibels, MaxDecibels].
type Analyser struct {
	mu sync.Mutex

	fftSize     int
	smoothing   float64
	minDecibels float64
	maxDecibels float64

	ring     []float32 // last fftSize samples, oldest at pos
	pos      int
	window   []float64
	smoothed []float64
}

// NewAnalyser builds an analyser with the default configuration.
func NewAnalyser() *Analyser {
	return NewAnalyserSize(DefaultFFTSize)
}

// NewAnalyserSize builds an analyser over fftSize samples (a power of two).
func NewAnalyserSize(fftSize int) *Analyser {
	a := &Analyser{
		fftSize:     fftSize,
		smoothing:   DefaultSmoothing,
		minDecibels: DefaultMinDecibels,
		maxDecibels: DefaultMaxDecibels,
		ring:        make([]float32, fftSize),
		window:      make([]float64, fftSize),
		smoothed:    make([]float64, fftSize/2),
	}
	a0 := 0.5 * (1 - blackmanAlpha)
	a2 := 0.5 * blackmanAlpha
	for i := range a.window {
		x := 2 * math.Pi * float64(i) / float64(fftSize)
		a.window[i] = a0 - 0.5*math.Cos(x) + a2*math.Cos(2*x)
	}
	return a
}

// FrequencyBinCount is half the FFT size.
func (a *Analyser) FrequencyBinCount() int { return a.fftSize / 2 }

// Process implements Tap.
func (a *Analyser) Process(samples []float32) {
	a.mu.Lock()
	defer a.mu.Unlock()

	for _, s := range samples {
		a.ring[a.pos] = s
		a.pos = (a.pos + 1) % a.fftSize
	}
}

// ByteFrequencyData fills dst (up to FrequencyBinCount entries) with the
// current spectrum and returns the number of bins written.
func (a *Analyser) ByteFrequencyData(dst []uint8) int {
	a.mu.Lock()
	defer a.mu.Unlock()

	frame := make([]float64, a.fftSize)
	for i := range frame {
		frame[i] = float64(a.ring[(a.pos+i)%a.fftSize]) * a.window[i]
	}
	spectrum := fft.FFTReal(frame)

	n := min(len(dst), len(a.smoothed))
	scale := 255 / (a.maxDecibels - a.minDecibels)
	for k := range a.smoothed {
		mag := cmplx.Abs(spectrum[k]) / float64(a.fftSize)
		a.smoothed[k] = a.smoothing*a.smoothed[k] + (1-a.smoothing)*mag
		if k >= n {
			continue
		}
		db := 20 * math.Log10(max(a.smoothed[k], analyserMinMagnitude))
		v := scale * (db - a.minDecibels)
		switch {
		case v < 0:
			dst[k] = 0
		case v > 255:
			dst[k] = 255
		default:
			dst[k] = uint8(v)
		}
	}
	return n
}

// Reset clears the sample window and smoothing history.
func (a *Analyser) Reset() {
	a.mu.Lock()
	defer a.mu.Unlock()

	clear(a.ring)
	clear(a.smoothed)
	a.pos = 0
}
