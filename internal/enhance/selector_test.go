package enhance_test

import (
	"strings"
	"testing"

	"uplift/internal/enhance"
)

func TestSelectModel(t *testing.T) {
	cases := []struct {
		name    string
		width   int
		height  int
		fps     float64
		bitrate float64
		model   string
	}{
		{"low res low bitrate", 1280, 720, 29.97, 3.5, enhance.ModelNoise},
		{"uhd high bitrate", 3840, 2160, 23.976, 40, enhance.ModelDetail},
		{"fhd mid bitrate low fps", 1920, 1080, 25, 8, enhance.ModelTexture},
		{"fhd mid bitrate high fps", 1920, 1080, 50, 8, enhance.ModelDetail},
		{"unknown bitrate treated as low", 1920, 1080, 29.97, 0, enhance.ModelNoise},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			sel := enhance.SelectModel(tc.width, tc.height, tc.fps, tc.bitrate)
			if sel.Model != tc.model {
				t.Fatalf("SelectModel(%dx%d, %.2ffps, %.1fMbps) = %q, want %q",
					tc.width, tc.height, tc.fps, tc.bitrate, sel.Model, tc.model)
			}
			if sel.Amount < 0.45 || sel.Amount > 0.75 {
				t.Fatalf("sharpen amount %.2f outside expected range", sel.Amount)
			}
			if !strings.HasPrefix(sel.Sharpen, "unsharp=") {
				t.Fatalf("unexpected sharpen filter %q", sel.Sharpen)
			}
		})
	}
}

func TestSelectModelSharpenMatchesAmount(t *testing.T) {
	sel := enhance.SelectModel(3840, 2160, 23.976, 40)
	if !strings.Contains(sel.Sharpen, "luma_amount=0.55") {
		t.Fatalf("sharpen filter %q does not reflect amount %.2f", sel.Sharpen, sel.Amount)
	}
}
