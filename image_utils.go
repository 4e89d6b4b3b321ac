package poseinterface

import (
	"image"
	"image/jpeg"
	"image/png"
	"os"
	"path/filepath"
	"strings"

	"github.com/disintegration/imaging"
)

// decodeImageConfig opens the file at path and returns the results of
// image.DecodeConfig.
func decodeImageConfig(path string) (config image.Config, format string, err error) {
	file, err := os.Open(path)
	if err != nil {
		return image.Config{}, "", err
	}
	defer file.Close()

	return image.DecodeConfig(file)
}

// loadImage reads and decodes the image at path and returns the results of
// image.Decode.
func loadImage(path string) (img image.Image, format string, err error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, "", err
	}
	defer f.Close()

	return image.Decode(f)
}

// resizeLonger resamples the image so that its longer side matches
// longerSide, preserving the aspect ratio.
func resizeLonger(img image.Image, longerSide int, filter imaging.ResampleFilter) image.Image {
	bounds := img.Bounds()
	if bounds.Dx() >= bounds.Dy() {
		return imaging.Resize(img, longerSide, 0, filter)
	}
	return imaging.Resize(img, 0, longerSide, filter)
}

// Saves the image to path, encoding it as PNG or JPG, depending on the file
// extension of path.
func saveImage(path string, img image.Image, jpegQuality int) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	switch strings.ToLower(filepath.Ext(path)) {
	case ".png":
		err = png.Encode(f, img)
	default:
		err = jpeg.Encode(f, img, &jpeg.Options{Quality: jpegQuality})
	}
	return err
}
