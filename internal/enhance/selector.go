package enhance

import "fmt"

// Enhancement model identifiers understood by the remote service.
const (
	ModelDetail  = "prob-4" // Proteus: high-detail, clean sources
	ModelNoise   = "ahq-12" // Artemis: soft or noisy sources
	ModelTexture = "iris-3" // Iris: fine texture at FHD
)

const (
	sharpenAmountMin = 0.45
	sharpenAmountMax = 0.75
)

// Selection is the outcome of the model rule table.
type Selection struct {
	Model   string
	Sharpen string
	Amount  float64
}

// SelectModel maps source characteristics to an enhancement model and an
// unsharp filter expression. The rule table is ordered; the first match wins:
//
//  1. low resolution or low bitrate sources take the noise model with a
//     stronger sharpen
//  2. UHD high-bitrate sources take the detail model with a soft sharpen
//  3. FHD mid-bitrate sources take the texture model at low frame rates,
//     the detail model otherwise
//  4. everything else falls back to the detail model
//
// The sharpen amount is clamped to [0.45, 0.75]. Deterministic and free of
// side effects.
func SelectModel(width, height int, frameRate, bitrateMbps float64) Selection {
	if bitrateMbps <= 0 {
		bitrateMbps = 1.0
	}

	isUHD := width >= 3200 || height >= 1800
	isFHD := width >= 1920 && height >= 1080
	isLowRes := width < 1280 || height < 720
	lowBitrate := bitrateMbps < 6
	midBitrate := bitrateMbps >= 6 && bitrateMbps < 12
	highBitrate := bitrateMbps >= 12

	model := ModelDetail
	amount := 0.60

	switch {
	case isLowRes || lowBitrate:
		model = ModelNoise
		amount = 0.70
	case isUHD && highBitrate:
		model = ModelDetail
		amount = 0.55
	case isFHD && midBitrate:
		if frameRate <= 30 {
			model = ModelTexture
			amount = 0.55
		} else {
			model = ModelDetail
			amount = 0.60
		}
	default:
		model = ModelDetail
		if highBitrate {
			amount = 0.58
		} else {
			amount = 0.65
		}
	}

	amount = clamp(amount, sharpenAmountMin, sharpenAmountMax)
	return Selection{
		Model:   model,
		Sharpen: fmt.Sprintf("unsharp=luma_msize_x=5:luma_amount=%.2f", amount),
		Amount:  amount,
	}
}

func clamp(value, low, high float64) float64 {
	if value < low {
		return low
	}
	if value > high {
		return high
	}
	return value
}
