package imageprocessor

import (
	"context"
	"fmt"

	"imagecurator/logging"
	"imagecurator/types"
)

// GocvAnalyzer decodes a file and computes its fingerprint and quality metrics
type GocvAnalyzer struct {
	registry *ImageLoaderRegistry
}

// NewGocvAnalyzer creates an analyzer over the default loader registry.
// Capture time is left to the ingestion pipeline's metadata reader.
func NewGocvAnalyzer() *GocvAnalyzer {
	return &GocvAnalyzer{registry: NewImageLoaderRegistry()}
}

// Analyze loads path and measures it. The context is checked between the
// expensive steps; a single OpenCV call cannot be interrupted.
func (a *GocvAnalyzer) Analyze(ctx context.Context, path string) (types.Analysis, error) {
	if err := ctx.Err(); err != nil {
		return types.Analysis{}, err
	}

	img, err := a.registry.LoadImage(path)
	if err != nil {
		return types.Analysis{}, err
	}
	defer img.Close()
	if img.Empty() {
		return types.Analysis{}, newImageLoadError("decoded image is empty", path)
	}

	if err := ctx.Err(); err != nil {
		return types.Analysis{}, err
	}

	fp, err := ComputePerceptualHash(img)
	if err != nil {
		return types.Analysis{}, fmt.Errorf("%w: %s: %v", ErrDecodeFailure, path, err)
	}

	if err := ctx.Err(); err != nil {
		return types.Analysis{}, err
	}

	sharpness, err := ComputeSharpness(img)
	if err != nil {
		return types.Analysis{}, fmt.Errorf("%w: %s: %v", ErrDecodeFailure, path, err)
	}
	saturation, err := ComputeSaturation(img)
	if err != nil {
		return types.Analysis{}, fmt.Errorf("%w: %s: %v", ErrDecodeFailure, path, err)
	}

	analysis := types.Analysis{
		Path:        path,
		Fingerprint: fp,
		Sharpness:   sharpness,
		Width:       img.Cols(),
		Height:      img.Rows(),
		Saturation:  saturation,
	}

	logging.DebugLog("Analyzed %s: fingerprint=%s sharpness=%d saturation=%d %dx%d",
		path, fp, sharpness, saturation, analysis.Width, analysis.Height)
	return analysis, nil
}
