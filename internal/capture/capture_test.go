package capture_test

import (
	"context"
	"errors"
	"image"
	"image/color"
	"testing"

	"github.com/aretw0/autopilot/internal/capture"
	"github.com/aretw0/autopilot/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func solid(w, h int, c color.Color) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, c)
		}
	}
	return img
}

func TestPreprocess_LowContrastBinarizes(t *testing.T) {
	// 4x4 image: 16 pixels spread over at most 2 levels, so every bin count is below 30.
	img := solid(4, 4, color.Gray{Y: 100})
	img.Set(0, 0, color.Gray{Y: 200})

	out := capture.Preprocess(img, capture.DefaultContrastThreshold)
	assert.Equal(t, uint8(0), out.GrayAt(1, 1).Y)
	assert.Equal(t, uint8(255), out.GrayAt(0, 0).Y)
}

func TestPreprocess_HighContrastKeepsGray(t *testing.T) {
	img := solid(10, 10, color.Gray{Y: 100})

	out := capture.Preprocess(img, capture.DefaultContrastThreshold)
	assert.Equal(t, uint8(100), out.GrayAt(3, 3).Y)
	assert.Equal(t, 100, capture.Histogram(out)[100])
}

func TestPreprocess_OffsetBounds(t *testing.T) {
	img := image.NewRGBA(image.Rect(5, 5, 15, 15))
	draw := func(x, y int, c color.Color) { img.Set(x, y, c) }
	draw(5, 5, color.White)

	out := capture.Preprocess(img, 0)
	assert.Equal(t, image.Rect(0, 0, 10, 10), out.Bounds())
	assert.Equal(t, uint8(255), out.GrayAt(0, 0).Y)
}

func TestCenterPixel(t *testing.T) {
	img := solid(5, 5, color.Black)
	img.Set(2, 2, color.RGBA{G: 255, A: 255})
	assert.Equal(t, color.RGBA{G: 255, A: 255}, capture.CenterPixel(img))
}

func TestAlphanumeric(t *testing.T) {
	assert.Equal(t, "Total12.50", capture.Alphanumeric(" Total: 12.50 €\n"))
	assert.Equal(t, "", capture.Alphanumeric("|_-"))
}

type recorder struct {
	results  map[capture.Profile]string
	profiles []capture.Profile
}

func (r *recorder) Recognize(_ context.Context, img image.Image, p capture.Profile) (string, error) {
	r.profiles = append(r.profiles, p)
	return r.results[p], nil
}

func grabber(img image.Image) capture.Grabber {
	return capture.GrabberFunc(func(context.Context, domain.Rect) (image.Image, error) { return img, nil })
}

func TestSampler_FirstPassWins(t *testing.T) {
	rec := &recorder{results: map[capture.Profile]string{capture.ProfileDefault: "  Ready \n"}}
	s := capture.NewSampler(grabber(solid(4, 4, color.White)), rec)

	text, err := s.SampleRegionText(context.Background(), domain.Rect{W: 4, H: 4})
	require.NoError(t, err)
	assert.Equal(t, "Ready", text)
	assert.Equal(t, []capture.Profile{capture.ProfileDefault}, rec.profiles)
}

func TestSampler_StrictFallback(t *testing.T) {
	rec := &recorder{results: map[capture.Profile]string{
		capture.ProfileDefault: " \n",
		capture.ProfileStrict:  "4,2!7",
	}}
	s := capture.NewSampler(grabber(solid(4, 4, color.White)), rec)

	text, err := s.SampleRegionText(context.Background(), domain.Rect{W: 4, H: 4})
	require.NoError(t, err)
	assert.Equal(t, "427", text)
	assert.Equal(t, []capture.Profile{capture.ProfileDefault, capture.ProfileStrict}, rec.profiles)
}

func TestSampler_Errors(t *testing.T) {
	boom := errors.New("display gone")
	failing := capture.GrabberFunc(func(context.Context, domain.Rect) (image.Image, error) { return nil, boom })

	s := capture.NewSampler(failing, &recorder{})
	_, err := s.SampleRegionText(context.Background(), domain.Rect{W: 1, H: 1})
	assert.ErrorIs(t, err, boom)
	_, err = s.SampleRegionColor(context.Background(), domain.Rect{W: 1, H: 1})
	assert.ErrorIs(t, err, boom)

	_, err = capture.NewSampler(grabber(solid(1, 1, color.White)), nil).
		SampleRegionText(context.Background(), domain.Rect{W: 1, H: 1})
	assert.Error(t, err)
}

func TestSampler_Color(t *testing.T) {
	s := capture.NewSampler(grabber(solid(3, 3, color.RGBA{R: 10, G: 20, B: 30, A: 255})), nil)
	c, err := s.SampleRegionColor(context.Background(), domain.Rect{W: 3, H: 3})
	require.NoError(t, err)
	assert.Equal(t, color.RGBA{R: 10, G: 20, B: 30, A: 255}, c)
}
