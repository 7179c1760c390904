// Package render draws the overlay frame: a vertical gradient, the current
// time, the temperature readout and the weather icon.
package render

import (
	"image"
	"image/color"
	"time"

	"github.com/yalue/native_endian"
	xdraw "golang.org/x/image/draw"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
)

// State is everything a frame depends on. It is read-only to the painter.
type State struct {
	Now         time.Time
	Temperature string
	Icon        image.Image
}

// Painter renders frames into raw pre-multiplied argb8888 pixel buffers in
// host byte order.
type Painter struct {
	face font.Face
}

// NewPainter returns a painter using the built-in bitmap face.
func NewPainter() *Painter {
	return &Painter{face: basicfont.Face7x13}
}

// Draw renders the frame for st into pix, which must be exactly
// width*height*4 bytes with a row stride of width*4.
func (p *Painter) Draw(pix []byte, width, height int32, st State) {
	w, h := int(width), int(height)
	if len(pix) != w*h*4 {
		return
	}

	img := image.NewRGBA(image.Rect(0, 0, w, h))
	drawGradient(img)

	// Clock, 12-hour with seconds, roughly centered right of the icon.
	clock := st.Now.Format("3:04:05")
	clockScale := textScale(w / 7)
	p.drawText(img, clock, w*42/100, h*3/4, clockScale)

	// Temperature, right-aligned so it ends left of the icon.
	tempScale := textScale(w / 10)
	tempWidth := p.textWidth(st.Temperature) * tempScale
	p.drawText(img, st.Temperature, w*27/100-tempWidth, h*3/4, tempScale)

	if st.Icon != nil {
		ib := st.Icon.Bounds()
		x, y := w*28/100, h*34/100
		dst := image.Rect(x, y, x+2*ib.Dx(), y+2*ib.Dy())
		xdraw.NearestNeighbor.Scale(img, dst, st.Icon, ib, xdraw.Over, nil)
	}

	packARGB(pix, img)
}

// drawGradient fills img with a grey gradient fading from fully transparent
// at the top to 0.75 alpha at the bottom. Values are pre-multiplied.
func drawGradient(img *image.RGBA) {
	b := img.Bounds()
	h := b.Dy()
	for y := 0; y < h; y++ {
		af := 0.0
		if h > 1 {
			af = 0.75 * float64(y) / float64(h-1)
		}
		a := uint8(af*255 + 0.5)
		c := uint8(0.25*af*255 + 0.5)
		row := img.Pix[y*img.Stride : y*img.Stride+b.Dx()*4]
		for x := 0; x < len(row); x += 4 {
			row[x+0] = c
			row[x+1] = c
			row[x+2] = c
			row[x+3] = a
		}
	}
}

// textScale converts a desired glyph height in pixels to an integer scale of
// the 13px bitmap face.
func textScale(px int) int {
	s := px / 13
	if s < 1 {
		s = 1
	}
	return s
}

func (p *Painter) textWidth(s string) int {
	return font.MeasureString(p.face, s).Ceil()
}

// drawText renders s with its baseline at (x, y), scaled up from the bitmap
// face by the integer factor scale. White at 0.75 alpha, pre-multiplied.
func (p *Painter) drawText(img *image.RGBA, s string, x, y, scale int) {
	if s == "" {
		return
	}

	metrics := p.face.Metrics()
	ascent := metrics.Ascent.Ceil()
	lineHeight := metrics.Height.Ceil()
	w := p.textWidth(s)

	tmp := image.NewRGBA(image.Rect(0, 0, w, lineHeight))
	d := font.Drawer{
		Dst:  tmp,
		Src:  image.NewUniform(color.RGBA{R: 191, G: 191, B: 191, A: 191}),
		Face: p.face,
		Dot:  fixed.P(0, ascent),
	}
	d.DrawString(s)

	dst := image.Rect(x, y-ascent*scale, x+w*scale, y+(lineHeight-ascent)*scale)
	xdraw.NearestNeighbor.Scale(img, dst, tmp, tmp.Bounds(), xdraw.Over, nil)
}

// packARGB copies img into pix as 32-bit argb words in host byte order.
// image.RGBA is already alpha-premultiplied, so this is a pure repack.
func packARGB(pix []byte, img *image.RGBA) {
	endian := native_endian.NativeEndian()
	b := img.Bounds()
	w, h := b.Dx(), b.Dy()
	for y := 0; y < h; y++ {
		src := img.Pix[y*img.Stride:]
		dst := pix[y*w*4:]
		for x := 0; x < w; x++ {
			o := x * 4
			word := uint32(src[o+3])<<24 | uint32(src[o])<<16 | uint32(src[o+1])<<8 | uint32(src[o+2])
			endian.PutUint32(dst[o:o+4], word)
		}
	}
}
