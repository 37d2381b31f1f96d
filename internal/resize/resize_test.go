package resize_test

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"firewatch/internal/models"
	"firewatch/internal/resize"
)

func makePNG(t *testing.T, width, height int) []byte {
	t.Helper()

	img := image.NewRGBA(image.Rect(0, 0, width, height))
	for x := 0; x < width; x++ {
		for y := 0; y < height; y++ {
			img.Set(x, y, color.RGBA{uint8(x % 256), uint8(y % 256), 128, 255})
		}
	}

	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func decodeDims(t *testing.T, payload []byte) (int, int, string) {
	t.Helper()

	img, format, err := image.Decode(bytes.NewReader(payload))
	require.NoError(t, err)
	return img.Bounds().Dx(), img.Bounds().Dy(), format
}

func TestFitScalesInsideBounds(t *testing.T) {
	svc := resize.New(models.ResizeConfig{Mode: models.ResizeModeFit})

	out := svc.Fit(makePNG(t, 400, 200), 100, 100)

	w, h, format := decodeDims(t, out)
	assert.Equal(t, 100, w)
	assert.Equal(t, 50, h, "aspect ratio must be preserved")
	assert.Equal(t, "png", format, "source format must be preserved")
}

func TestFitScalesTallImage(t *testing.T) {
	svc := resize.New(models.ResizeConfig{Mode: models.ResizeModeFit})

	out := svc.Fit(makePNG(t, 200, 400), 100, 100)

	w, h, _ := decodeDims(t, out)
	assert.Equal(t, 50, w)
	assert.Equal(t, 100, h)
}

func TestFitNeverUpscales(t *testing.T) {
	svc := resize.New(models.ResizeConfig{Mode: models.ResizeModeFit})

	out := svc.Fit(makePNG(t, 50, 20), 300, 300)

	w, h, _ := decodeDims(t, out)
	assert.Equal(t, 50, w)
	assert.Equal(t, 20, h)
}

func TestFitFallsBackOnCorruptPayload(t *testing.T) {
	svc := resize.New(models.ResizeConfig{Mode: models.ResizeModeFit})

	payload := []byte("definitely not an image")
	out := svc.Fit(payload, 100, 100)

	assert.Equal(t, payload, out, "corrupt payloads must come back unchanged")
}

func TestFitFallsBackOnBadTarget(t *testing.T) {
	svc := resize.New(models.ResizeConfig{Mode: models.ResizeModeFit})

	payload := makePNG(t, 40, 40)
	assert.Equal(t, payload, svc.Fit(payload, 0, 100))
	assert.Equal(t, payload, svc.Fit(payload, 100, -1))
}

func TestRecompressModeProducesJPEG(t *testing.T) {
	svc := resize.New(models.ResizeConfig{Mode: models.ResizeModeRecompress, Quality: 40})

	out := svc.Fit(makePNG(t, 400, 200), 100, 100)

	w, h, format := decodeDims(t, out)
	assert.Equal(t, "jpeg", format)
	assert.Equal(t, 100, w)
	assert.Equal(t, 50, h)
}
