package browser_test

import (
	"image"
	"image/color"
	"testing"

	"github.com/aretw0/autopilot/internal/adapters/browser"
	"github.com/aretw0/autopilot/internal/capture"
	"github.com/aretw0/autopilot/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCrop(t *testing.T) {
	img := image.NewNRGBA(image.Rect(0, 0, 100, 100))
	img.Set(51, 61, color.NRGBA{R: 9, A: 255})

	sub, err := browser.Crop(img, domain.Rect{X: 50, Y: 60, W: 3, H: 3})
	require.NoError(t, err)
	assert.Equal(t, image.Rect(50, 60, 53, 63), sub.Bounds())
	assert.Equal(t, color.RGBA{R: 9, A: 255}, capture.CenterPixel(sub))

	_, err = browser.Crop(img, domain.Rect{X: 200, Y: 200, W: 5, H: 5})
	assert.Error(t, err)
}
