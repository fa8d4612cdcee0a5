package imageprocessor

import (
	"bufio"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"os"
	"os/exec"

	"gocv.io/x/gocv"
	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"
)

// hasExiftool checks if the exiftool binary is on PATH
func hasExiftool() bool {
	_, err := exec.LookPath("exiftool")
	return err == nil
}

// tryGoImagePackages decodes with the Go image decoders, which cover a few
// variants OpenCV refuses (some TIFF compressions, animated GIF, WebP builds
// without libwebp).
func tryGoImagePackages(path string) (image.Image, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	img, _, err := image.Decode(bufio.NewReader(f))
	return img, err
}

// gocvMatFromGoImage converts a decoded Go image into a BGR Mat
func gocvMatFromGoImage(img image.Image) (gocv.Mat, error) {
	rgb, err := gocv.ImageToMatRGB(img)
	if err != nil {
		return gocv.NewMat(), err
	}
	defer rgb.Close()

	bgr := gocv.NewMat()
	gocv.CvtColor(rgb, &bgr, gocv.ColorRGBToBGR)
	return bgr, nil
}
