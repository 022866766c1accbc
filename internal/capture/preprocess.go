// Package capture turns screen regions into the text and color samples Logic nodes compare.
//
// Backends supply the raw pixels (Grabber) and a text recognizer (Recognizer); this package owns
// the image pre-processing and the two-pass recognition strategy shared by all of them.
package capture

import (
	"image"
	"image/color"
	"image/draw"
)

// DefaultContrastThreshold is the histogram spread below which a region is binarized.
const DefaultContrastThreshold = 30

const binarizeLevel = 128

// Preprocess converts img to grayscale and, when its 256-bin histogram spread
// (max bin minus min bin) is below threshold, binarizes it at mid-gray.
func Preprocess(img image.Image, threshold int) *image.Gray {
	b := img.Bounds()
	gray := image.NewGray(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(gray, gray.Bounds(), img, b.Min, draw.Src)

	hist := Histogram(gray)
	lo, hi := hist[0], hist[0]
	for _, n := range hist[1:] {
		lo = min(lo, n)
		hi = max(hi, n)
	}
	if hi-lo >= threshold {
		return gray
	}
	for i, v := range gray.Pix {
		if v < binarizeLevel {
			gray.Pix[i] = 0
		} else {
			gray.Pix[i] = 0xff
		}
	}
	return gray
}

// Histogram counts the pixels of each gray level.
func Histogram(img *image.Gray) [256]int {
	var hist [256]int
	b := img.Bounds()
	for y := b.Min.Y; y < b.Max.Y; y++ {
		row := img.Pix[(y-b.Min.Y)*img.Stride:]
		for x := 0; x < b.Dx(); x++ {
			hist[row[x]]++
		}
	}
	return hist
}

// CenterPixel returns the color at the middle of img.
func CenterPixel(img image.Image) color.RGBA {
	b := img.Bounds()
	c := color.RGBAModel.Convert(img.At(b.Min.X+b.Dx()/2, b.Min.Y+b.Dy()/2)).(color.RGBA)
	return c
}
