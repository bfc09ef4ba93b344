package transcode

import "fmt"

// TempoChain decomposes an audio speed factor into atempo filter stages.
// Each stage stays inside atempo's supported 0.5-2.0 range; the product of
// all stages equals the requested factor. A factor of 1.0 (or an empty
// chain) yields "anull" so the filter graph always has an audio leg.
func TempoChain(factor float64) string {
	if factor <= 0 {
		return "anull"
	}

	var stages []string
	for factor > 2.0 {
		stages = append(stages, "atempo=2.0")
		factor /= 2.0
	}
	for factor < 0.5 {
		stages = append(stages, "atempo=0.5")
		factor /= 0.5
	}
	if factor != 1.0 {
		stages = append(stages, fmt.Sprintf("atempo=%.4f", factor))
	}

	if len(stages) == 0 {
		return "anull"
	}
	chain := stages[0]
	for _, stage := range stages[1:] {
		chain += "," + stage
	}
	return chain
}
