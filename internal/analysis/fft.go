// SPDX-License-Identifier: MIT
package analysis

import (
	"fmt"
	"math/cmplx"
	"strings"
	"sync"

	"rhythm/internal/log"
	"rhythm/pkg/bitint"

	dspfft "github.com/mjibson/go-dsp/fft"
	"gonum.org/v1/gonum/dsp/fourier"
	"gonum.org/v1/gonum/dsp/window"
)

// WindowFunc selects the analysis window applied before the transform.
type WindowFunc int

const (
	Rectangular WindowFunc = iota
	Triangular
	BartlettHann
	Blackman
	BlackmanHarris
	BlackmanNuttall
	Hann
	Hamming
	Lanczos
	Nuttall

	numWindows
)

// DefaultWindow is the window the detector was tuned with.
const DefaultWindow = BlackmanHarris

var windowNames = [numWindows]string{
	Rectangular:     "Rectangular",
	Triangular:      "Triangular",
	BartlettHann:    "BartlettHann",
	Blackman:        "Blackman",
	BlackmanHarris:  "BlackmanHarris",
	BlackmanNuttall: "BlackmanNuttall",
	Hann:            "Hann",
	Hamming:         "Hamming",
	Lanczos:         "Lanczos",
	Nuttall:         "Nuttall",
}

func (w WindowFunc) String() string {
	if w < 0 || w >= numWindows {
		return fmt.Sprintf("WindowFunc(%d)", int(w))
	}
	return windowNames[w]
}

// ParseWindowFunc converts a name (case-insensitive) to a WindowFunc. Unknown
// names return DefaultWindow and an error.
func ParseWindowFunc(name string) (WindowFunc, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "rectangular", "rect", "none":
		return Rectangular, nil
	case "triangular", "triangle":
		return Triangular, nil
	case "bartletthann":
		return BartlettHann, nil
	case "blackman":
		return Blackman, nil
	case "blackmanharris":
		return BlackmanHarris, nil
	case "blackmannuttall":
		return BlackmanNuttall, nil
	case "hann", "hanning":
		return Hann, nil
	case "hamming":
		return Hamming, nil
	case "lanczos":
		return Lanczos, nil
	case "nuttall":
		return Nuttall, nil
	default:
		return DefaultWindow, fmt.Errorf("unknown FFT window function name: '%s'", name)
	}
}

// windowCoefficients returns the coefficients of w for n points.
func windowCoefficients(n int, w WindowFunc) []float64 {
	coeffs := make([]float64, n)
	for i := range coeffs {
		coeffs[i] = 1.0
	}
	switch w {
	case Rectangular:
		window.Rectangular(coeffs)
	case Triangular:
		window.Triangular(coeffs)
	case BartlettHann:
		window.BartlettHann(coeffs)
	case Blackman:
		window.Blackman(coeffs)
	case BlackmanHarris:
		window.BlackmanHarris(coeffs)
	case BlackmanNuttall:
		window.BlackmanNuttall(coeffs)
	case Hann:
		window.Hann(coeffs)
	case Hamming:
		window.Hamming(coeffs)
	case Lanczos:
		window.Lanczos(coeffs)
	case Nuttall:
		window.Nuttall(coeffs)
	default:
		log.Warnf("analysis: unknown window function %d, using %s", int(w), DefaultWindow)
		window.BlackmanHarris(coeffs)
	}
	return coeffs
}

// windowState holds a window's coefficients and its amplitude normalization.
type windowState struct {
	coeffs []float64
	scale  float64 // 2 / sum(coeffs): a full-scale sine peaks near 1.
}

// FFTProcessor turns a block of mono samples into a magnitude spectrum of
// Bins() values. The transform size is twice the bin count, so the bins span
// 0 Hz to just below Nyquist.
//
// Power-of-two sizes use gonum's FFT and run without allocating. Other sizes
// fall back to go-dsp.
//
// Process and the readers may run on different goroutines.
type FFTProcessor struct {
	fft        *fourier.FFT // nil for non power-of-two sizes.
	fftSize    int
	bins       int
	sampleRate float64

	mu        sync.RWMutex
	current   WindowFunc
	windows   [numWindows]*windowState // Lazily built per window.
	input     []float64
	coeffs    []complex128
	magnitude []float64
}

var _ SampleProcessor = (*FFTProcessor)(nil)
var _ SpectrumProvider = (*FFTProcessor)(nil)

// NewFFTProcessor returns a processor producing bins magnitudes at sampleRate.
func NewFFTProcessor(bins int, sampleRate float64, w WindowFunc) (*FFTProcessor, error) {
	if bins < 1 {
		return nil, fmt.Errorf("spectrum size must be positive, got %d", bins)
	}
	if sampleRate <= 0 {
		return nil, fmt.Errorf("sample rate must be positive, got %f", sampleRate)
	}
	if w < 0 || w >= numWindows {
		return nil, fmt.Errorf("unknown window function %d", int(w))
	}

	fftSize := bins * 2
	p := &FFTProcessor{
		fftSize:    fftSize,
		bins:       bins,
		sampleRate: sampleRate,
		current:    w,
		input:      make([]float64, fftSize),
		coeffs:     make([]complex128, fftSize/2+1),
		magnitude:  make([]float64, bins),
	}
	if bitint.IsPowerOfTwo(fftSize) {
		p.fft = fourier.NewFFT(fftSize)
	} else {
		log.Infof("analysis: FFT size %d is not a power of two, using the mixed-radix fallback (%d would not)",
			fftSize, bitint.NextPowerOfTwo(fftSize))
	}
	p.window(w)

	log.Debugf("analysis: FFTProcessor ready (bins: %d, FFT size: %d, sample rate: %.1f Hz, resolution: %.2f Hz, window: %s)",
		bins, fftSize, sampleRate, p.FrequencyForBin(1), w)
	return p, nil
}

// window returns the cached state for w, building it on first use. Callers hold mu.
func (p *FFTProcessor) window(w WindowFunc) *windowState {
	if w < 0 || w >= numWindows {
		w = DefaultWindow
	}
	if ws := p.windows[w]; ws != nil {
		return ws
	}
	coeffs := windowCoefficients(p.fftSize, w)
	var sum float64
	for _, c := range coeffs {
		sum += c
	}
	scale := 0.0
	if sum > 0 {
		scale = 2 / sum
	}
	ws := &windowState{coeffs: coeffs, scale: scale}
	p.windows[w] = ws
	return ws
}

// Window returns the analysis window used by Process.
func (p *FFTProcessor) Window() WindowFunc {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.current
}

// Process windows samples, transforms them and stores the magnitudes. Input
// shorter than the FFT size is zero padded; longer input uses the most recent
// FFT-size samples.
func (p *FFTProcessor) Process(samples []float64) {
	p.ProcessWith(samples, p.Window())
}

// ProcessWith is Process with an explicit window.
func (p *FFTProcessor) ProcessWith(samples []float64, w WindowFunc) {
	if len(samples) > p.fftSize {
		samples = samples[len(samples)-p.fftSize:]
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	ws := p.window(w)
	for i := range p.fftSize {
		if i < len(samples) {
			p.input[i] = samples[i] * ws.coeffs[i]
		} else {
			p.input[i] = 0
		}
	}

	if p.fft != nil {
		p.fft.Coefficients(p.coeffs, p.input)
	} else {
		copy(p.coeffs, dspfft.FFTReal(p.input))
	}

	for i := range p.magnitude {
		p.magnitude[i] = cmplx.Abs(p.coeffs[i]) * ws.scale
	}
}

// MagnitudesInto copies the latest spectrum into dst, which must hold Bins() values.
func (p *FFTProcessor) MagnitudesInto(dst []float64) error {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if len(dst) != len(p.magnitude) {
		return fmt.Errorf("destination slice length %d does not match required length %d", len(dst), len(p.magnitude))
	}
	copy(dst, p.magnitude)
	return nil
}

// FrequencyForBin returns the frequency of bin binIndex, 0 when out of range.
func (p *FFTProcessor) FrequencyForBin(binIndex int) float64 {
	if binIndex < 0 || binIndex >= p.bins {
		return 0
	}
	return float64(binIndex) * p.sampleRate / float64(p.fftSize)
}

func (p *FFTProcessor) Bins() int           { return p.bins }
func (p *FFTProcessor) FFTSize() int        { return p.fftSize }
func (p *FFTProcessor) SampleRate() float64 { return p.sampleRate }
