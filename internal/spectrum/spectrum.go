// Package spectrum adapts the teacher's recursive radix-2 FFT into a
// power-spectrum helper for an archived run's sampled state trajectory
// ("cgmres analyze" applies it to the x0 column), backing that command's
// frequency view (SPEC_FULL.md SUPPLEMENTED FEATURES #5).
package spectrum

import (
	"math"
	"math/cmplx"
)

// FFT computes the discrete Fourier transform of data via the standard
// recursive radix-2 Cooley-Tukey split. len(data) must be a power of two;
// callers pad with PadPowerOfTwo first.
func FFT(data []float64) []complex128 {
	n := len(data)
	if n <= 1 {
		result := make([]complex128, n)
		for i := range data {
			result[i] = complex(data[i], 0)
		}
		return result
	}
	if n%2 != 0 {
		panic("spectrum: FFT requires a power-of-2 length")
	}

	even := make([]float64, n/2)
	odd := make([]float64, n/2)
	for i := 0; i < n/2; i++ {
		even[i] = data[2*i]
		odd[i] = data[2*i+1]
	}

	feven := FFT(even)
	fodd := FFT(odd)

	result := make([]complex128, n)
	for k := 0; k < n/2; k++ {
		w := cmplx.Exp(complex(0, -2*math.Pi*float64(k)/float64(n)))
		result[k] = feven[k] + w*fodd[k]
		result[k+n/2] = feven[k] - w*fodd[k]
	}
	return result
}

// PowerSpectrum returns the magnitude of the first half of data's FFT
// (the Nyquist-limited, non-redundant half for a real-valued signal).
func PowerSpectrum(data []float64) []float64 {
	fft := FFT(data)
	ps := make([]float64, len(fft)/2)
	for i := range ps {
		ps[i] = cmplx.Abs(fft[i])
	}
	return ps
}

// PadPowerOfTwo zero-pads data up to the next power-of-two length (or
// returns it unchanged if already one), as FFT requires.
func PadPowerOfTwo(data []float64) []float64 {
	n := 1
	for n < len(data) {
		n *= 2
	}
	padded := make([]float64, n)
	copy(padded, data)
	return padded
}

// DominantFrequency returns the frequency (Hz) of the largest non-DC bin
// in a power spectrum computed over a signal spanning duration seconds,
// and the corresponding period. It ignores bin 0 (DC offset) and returns
// (0, 0) for a spectrum with no bins beyond DC.
func DominantFrequency(ps []float64, duration float64) (freqHz, periodS float64) {
	maxPower, maxIdx := 0.0, 0
	for i := 1; i < len(ps); i++ {
		if ps[i] > maxPower {
			maxPower = ps[i]
			maxIdx = i
		}
	}
	if maxIdx == 0 || duration <= 0 {
		return 0, 0
	}
	freqHz = float64(maxIdx) / duration
	if freqHz > 0 {
		periodS = 1.0 / freqHz
	}
	return freqHz, periodS
}
