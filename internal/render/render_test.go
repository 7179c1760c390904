package render

import (
	"bytes"
	"image"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yalue/native_endian"
)

func frameState(temp string, icon image.Image) State {
	return State{
		Now:         time.Date(2024, 3, 1, 15, 4, 5, 0, time.Local),
		Temperature: temp,
		Icon:        icon,
	}
}

func pixelAt(pix []byte, width, x, y int) (a, r, g, b uint8) {
	word := native_endian.NativeEndian().Uint32(pix[(y*width+x)*4:])
	return uint8(word >> 24), uint8(word >> 16), uint8(word >> 8), uint8(word)
}

func TestDrawGradientAlphaRamp(t *testing.T) {
	const w, h = 64, 100
	pix := make([]byte, w*h*4)

	NewPainter().Draw(pix, w, h, frameState("", nil))

	// Corners stay clear of the text and icon, so they are pure gradient.
	a, r, g, b := pixelAt(pix, w, 0, 0)
	assert.Zero(t, a, "top row is fully transparent")
	assert.Zero(t, r+g+b)

	a, _, _, _ = pixelAt(pix, w, 0, h-1)
	assert.InDelta(t, 191, int(a), 1, "bottom row reaches 0.75 alpha")
}

func TestDrawOutputIsPremultiplied(t *testing.T) {
	const w, h = 120, 60
	pix := make([]byte, w*h*4)

	NewPainter().Draw(pix, w, h, frameState("72°F", testIcon()))

	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			a, r, g, b := pixelAt(pix, w, x, y)
			require.LessOrEqual(t, r, a, "red exceeds alpha at %d,%d", x, y)
			require.LessOrEqual(t, g, a, "green exceeds alpha at %d,%d", x, y)
			require.LessOrEqual(t, b, a, "blue exceeds alpha at %d,%d", x, y)
		}
	}
}

func TestDrawRejectsWrongSizeBuffer(t *testing.T) {
	pix := bytes.Repeat([]byte{0xAA}, 16)

	NewPainter().Draw(pix, 64, 100, frameState("", nil))

	assert.Equal(t, bytes.Repeat([]byte{0xAA}, 16), pix, "mismatched buffer must be left untouched")
}

func TestDrawRendersTemperature(t *testing.T) {
	const w, h = 400, 120
	base := make([]byte, w*h*4)
	withTemp := make([]byte, w*h*4)

	p := NewPainter()
	p.Draw(base, w, h, frameState("", nil))
	p.Draw(withTemp, w, h, frameState("72°F", nil))

	assert.NotEqual(t, base, withTemp, "temperature text must change the frame")
}

func TestDrawRendersIcon(t *testing.T) {
	const w, h = 400, 120
	base := make([]byte, w*h*4)
	withIcon := make([]byte, w*h*4)

	p := NewPainter()
	p.Draw(base, w, h, frameState("", nil))
	p.Draw(withIcon, w, h, frameState("", testIcon()))

	assert.NotEqual(t, base, withIcon, "icon must change the frame")
}

func testIcon() image.Image {
	img := image.NewRGBA(image.Rect(0, 0, 8, 8))
	for i := 0; i < len(img.Pix); i += 4 {
		img.Pix[i+0] = 255
		img.Pix[i+3] = 255
	}
	return img
}
