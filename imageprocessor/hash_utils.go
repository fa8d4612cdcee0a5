package imageprocessor

import (
	"fmt"

	"github.com/corona10/goimagehash"
	"gocv.io/x/gocv"

	"imagecurator/types"
)

// ComputePerceptualHash computes the 64-bit DCT pHash of a BGR Mat
func ComputePerceptualHash(img gocv.Mat) (types.Fingerprint, error) {
	if img.Empty() {
		return nil, fmt.Errorf("cannot compute hash for empty image")
	}

	goImg, err := img.ToImage()
	if err != nil {
		return nil, fmt.Errorf("convert mat to image: %w", err)
	}

	hash, err := goimagehash.PerceptionHash(goImg)
	if err != nil {
		return nil, fmt.Errorf("perception hash: %w", err)
	}
	return types.FingerprintFromUint64(hash.GetHash()), nil
}

// ComputeSharpness returns the variance of the Laplacian of the grayscale image.
// Blurred frames have few edges and score low.
func ComputeSharpness(img gocv.Mat) (int, error) {
	if img.Empty() {
		return 0, fmt.Errorf("cannot compute sharpness for empty image")
	}

	gray := gocv.NewMat()
	defer gray.Close()
	if img.Channels() != 1 {
		gocv.CvtColor(img, &gray, gocv.ColorBGRToGray)
	} else {
		img.CopyTo(&gray)
	}

	lap := gocv.NewMat()
	defer lap.Close()
	gocv.Laplacian(gray, &lap, gocv.MatTypeCV64F, 1, 1, 0, gocv.BorderDefault)

	mean := gocv.NewMat()
	defer mean.Close()
	stdDev := gocv.NewMat()
	defer stdDev.Close()
	gocv.MeanStdDev(lap, &mean, &stdDev)
	if stdDev.Empty() {
		return 0, fmt.Errorf("laplacian statistics unavailable")
	}

	sd := stdDev.GetDoubleAt(0, 0)
	return int(sd * sd), nil
}

// ComputeSaturation returns the mean of the HSV saturation channel (0-255)
func ComputeSaturation(img gocv.Mat) (int, error) {
	if img.Empty() {
		return 0, fmt.Errorf("cannot compute saturation for empty image")
	}
	if img.Channels() != 3 {
		return 0, nil
	}

	hsv := gocv.NewMat()
	defer hsv.Close()
	gocv.CvtColor(img, &hsv, gocv.ColorBGRToHSV)

	return int(hsv.Mean().Val2), nil
}
