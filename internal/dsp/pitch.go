// Package dsp implements the per-frame signal analysis for Voxscore: RMS
// energy measurement and fundamental-frequency estimation via normalized
// autocorrelation.
//
// The estimator is a pure function of the input window and sample rate; it
// holds tuning parameters but no per-frame state, so a single [Estimator] can
// be shared by any number of sessions.
package dsp

import (
	"math"

	"github.com/mjibson/go-dsp/fft"
)

// Default tuning. The voice band covers sung fundamentals from low bass to
// high soprano chest voice; anything outside it is treated as non-vocal.
const (
	// DefaultNoiseFloor is the RMS energy below which a window is silence.
	DefaultNoiseFloor = 0.015

	// DefaultMinHz is the lower edge of the accepted voice band.
	DefaultMinHz = 85

	// DefaultMaxHz is the upper edge of the accepted voice band.
	DefaultMaxHz = 500

	// DefaultVoicingThreshold is the minimum normalized autocorrelation peak
	// for a window to count as voiced.
	DefaultVoicingThreshold = 0.5
)

// Estimator converts one sample window into a single fundamental-frequency
// estimate. The zero value is not usable; create one with [NewEstimator].
//
// Estimator is stateless apart from its tuning and is safe for concurrent
// use.
type Estimator struct {
	noiseFloor float64
	minHz      float64
	maxHz      float64
	voicing    float64
}

// EstimatorOption configures an [Estimator].
type EstimatorOption func(*Estimator)

// WithNoiseFloor overrides the RMS silence gate. Values below the default
// are ignored: the gate only ever tightens (e.g. after noise calibration),
// never loosens.
func WithNoiseFloor(floor float64) EstimatorOption {
	return func(e *Estimator) {
		if floor > DefaultNoiseFloor {
			e.noiseFloor = floor
		}
	}
}

// WithVoiceBand overrides the accepted frequency band in Hz.
func WithVoiceBand(minHz, maxHz float64) EstimatorOption {
	return func(e *Estimator) {
		if minHz > 0 && maxHz > minHz {
			e.minHz = minHz
			e.maxHz = maxHz
		}
	}
}

// NewEstimator creates an estimator with the default tuning, modified by
// opts.
func NewEstimator(opts ...EstimatorOption) *Estimator {
	e := &Estimator{
		noiseFloor: DefaultNoiseFloor,
		minHz:      DefaultMinHz,
		maxHz:      DefaultMaxHz,
		voicing:    DefaultVoicingThreshold,
	}
	for _, o := range opts {
		o(e)
	}
	return e
}

// Estimate returns the fundamental frequency of the window in Hz, or 0 when
// no reliable voiced pitch is present. Malformed input (empty window,
// nonsensical rate) yields 0 rather than an error.
func (e *Estimator) Estimate(samples []float64, sampleRate int) float64 {
	if len(samples) == 0 || sampleRate <= 0 {
		return 0
	}

	// Below-noise-floor windows are silence regardless of spectral content.
	if RMS(samples) < e.noiseFloor {
		return 0
	}

	ac := Autocorrelate(samples)
	if ac == nil {
		return 0
	}

	minLag := int(float64(sampleRate) / e.maxHz)
	maxLag := int(float64(sampleRate) / e.minHz)
	if maxLag >= len(ac) {
		maxLag = len(ac) - 1
	}
	if minLag < 1 || minLag >= maxLag {
		return 0
	}

	// A clearly periodic signal decorrelates between lag 0 and the first
	// voice-band period. If the correlation never dips below the voicing
	// threshold before minLag, the window is not periodic at voice
	// frequencies (DC drift, rumble, broadband noise).
	dipped := false
	for lag := 1; lag <= minLag; lag++ {
		if ac[lag] < e.voicing {
			dipped = true
			break
		}
	}
	if !dipped {
		return 0
	}

	bestLag := -1
	bestCorr := e.voicing
	for lag := minLag; lag <= maxLag; lag++ {
		if ac[lag] > bestCorr {
			bestCorr = ac[lag]
			bestLag = lag
		}
	}
	if bestLag < 0 {
		return 0
	}

	lag := refineLag(ac, bestLag)
	freq := float64(sampleRate) / lag
	if freq < e.minHz || freq > e.maxHz {
		return 0
	}
	return freq
}

// RMS returns the root-mean-square energy of the window.
func RMS(samples []float64) float64 {
	if len(samples) == 0 {
		return 0
	}
	sum := 0.0
	for _, s := range samples {
		sum += s * s
	}
	return math.Sqrt(sum / float64(len(samples)))
}

// Autocorrelate computes the normalized autocorrelation of the window for
// lags 0..len/2. Every lag is divided by the lag-0 correlation, so a
// perfectly periodic signal peaks at 1 at its period. Returns nil when the
// window carries no energy.
//
// The computation runs in O(N log N) through the Wiener–Khinchin identity:
// the inverse FFT of the power spectrum is the autocorrelation sequence.
func Autocorrelate(samples []float64) []float64 {
	n := len(samples)
	if n == 0 {
		return nil
	}

	// Zero-pad to at least 2N so the circular correlation of the padded
	// signal equals the linear correlation of the original.
	size := 1
	for size < 2*n {
		size <<= 1
	}
	padded := make([]float64, size)
	copy(padded, samples)

	spectrum := fft.FFTReal(padded)
	for i, c := range spectrum {
		re := real(c)
		im := imag(c)
		spectrum[i] = complex(re*re+im*im, 0)
	}
	corr := fft.IFFT(spectrum)

	zero := real(corr[0])
	if zero == 0 {
		return nil
	}

	out := make([]float64, n/2+1)
	for lag := range out {
		out[lag] = real(corr[lag]) / zero
	}
	return out
}

// refineLag sharpens an integer lag peak by fitting a parabola through the
// correlation values at lag-1, lag, lag+1 and returning the vertex position.
func refineLag(ac []float64, lag int) float64 {
	if lag <= 0 || lag+1 >= len(ac) {
		return float64(lag)
	}
	left := ac[lag-1]
	mid := ac[lag]
	right := ac[lag+1]
	denom := 2 * (2*mid - left - right)
	if denom == 0 {
		return float64(lag)
	}
	shift := (right - left) / denom
	// A vertex more than half a sample away means the neighborhood is not
	// parabolic; trust the integer peak.
	if shift < -0.5 || shift > 0.5 {
		return float64(lag)
	}
	return float64(lag) + shift
}
