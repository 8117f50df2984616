// Package quality measures how far a stego image drifted from its cover
package quality

import (
	"math"

	"png-steganography/models"
)

// CalculatePSNR returns the peak signal-to-noise ratio, in dB, between two
// pixel grids of the same shape, treating every byte as an 8-bit sample.
// Identical grids give +Inf; mismatched or empty grids give 0.
func CalculatePSNR(cover, stego *models.PixelGrid) float64 {
	if cover == nil || stego == nil {
		return 0.0
	}
	if cover.Rows != stego.Rows || cover.Cols != stego.Cols || len(cover.Pix) != len(stego.Pix) {
		return 0.0
	}
	if len(cover.Pix) == 0 {
		return 0.0
	}

	var mse float64
	for i := range cover.Pix {
		diff := float64(cover.Pix[i]) - float64(stego.Pix[i])
		mse += diff * diff
	}
	mse /= float64(len(cover.Pix))

	if mse == 0 {
		return math.Inf(1)
	}

	// PSNR = 20 * log10(MAX / sqrt(MSE))
	maxSignalValue := 255.0
	return 20 * math.Log10(maxSignalValue/math.Sqrt(mse))
}

// MinPSNR is the default floor, in dB, for an embedding to count as
// imperceptible.
const MinPSNR = 40.0

func ValidatePSNR(psnr float64, threshold float64) bool {
	if math.IsInf(psnr, 1) {
		return true
	}
	return psnr >= threshold
}
