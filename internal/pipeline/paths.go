package pipeline

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// finalOutputPath builds the delivery path for a source file: the configured
// prefix plus the source basename with an mp4 extension, made unique within
// the output directory.
func finalOutputPath(outputDir, prefix, sourcePath string) string {
	base := strings.TrimSuffix(filepath.Base(sourcePath), filepath.Ext(sourcePath))
	candidate := filepath.Join(outputDir, prefix+base+".mp4")
	return uniquePath(candidate)
}

// uniquePath appends _1, _2, ... before the extension until the path does
// not exist.
func uniquePath(path string) string {
	if _, err := os.Stat(path); err != nil {
		return path
	}
	ext := filepath.Ext(path)
	stem := strings.TrimSuffix(path, ext)
	for i := 1; ; i++ {
		candidate := fmt.Sprintf("%s_%d%s", stem, i, ext)
		if _, err := os.Stat(candidate); err != nil {
			return candidate
		}
	}
}
