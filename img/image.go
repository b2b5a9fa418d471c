// Package img contains routines for loading, generating and manipulating sets of images.
package img

import (
	"image"
	"image/color"
	"image/draw"
)

var (
	GrayModel = color.ModelFunc(grayModel)
	RGBModel  = color.ModelFunc(rgbModel)
)

// Gray color stores a float in range 0-1
type Gray struct {
	Y float32
}

func (c Gray) RGBA() (r, g, b, a uint32) {
	y := clampu(c.Y, 0, 1)
	return y, y, y, 0xffff
}

func grayModel(c color.Color) color.Color {
	if _, ok := c.(Gray); ok {
		return c
	}
	r, g, b, _ := c.RGBA()
	return Gray{Y: 0.299*float32(r)/0xffff + 0.587*float32(g)/0xffff + 0.114*float32(b)/0xffff}
}

// RGB color is stored as a float for each channel with values in range 0-1
type RGB struct {
	R, G, B float32
}

func (c RGB) RGBA() (r, g, b, a uint32) {
	return clampu(c.R, 0, 1), clampu(c.G, 0, 1), clampu(c.B, 0, 1), 0xffff
}

func rgbModel(c color.Color) color.Color {
	if _, ok := c.(RGB); ok {
		return c
	}
	r, g, b, _ := c.RGBA()
	return RGB{R: float32(r) / 0xffff, G: float32(g) / 0xffff, B: float32(b) / 0xffff}
}

// Image stores pixel data as float32 values in range 0-1 with each color plane
// held separately in column major order. Channels is 1 for grayscale or 3 for RGB.
type Image struct {
	Pix      []float32
	Height   int
	Width    int
	Channels int
}

// New creates a blank image with the given dimensions and number of channels.
func New(width, height, channels int) *Image {
	return &Image{Pix: make([]float32, width*height*channels), Height: height, Width: width, Channels: channels}
}

func NewGray(width, height int) *Image { return New(width, height, 1) }

func NewRGB(width, height int) *Image { return New(width, height, 3) }

// NewLike creates a blank image with the same shape as src.
func NewLike(src *Image) *Image {
	return New(src.Width, src.Height, src.Channels)
}

// FromImage converts a stdlib image to channels color planes, scaling each
// component to the range 0-1.
func FromImage(src image.Image, channels int) *Image {
	b := src.Bounds()
	dst := New(b.Dx(), b.Dy(), channels)
	draw.Draw(dst, dst.Bounds(), src, b.Min, draw.Src)
	return dst
}

// NFeat returns the total number of values per image.
func (m *Image) NFeat() int {
	return m.Width * m.Height * m.Channels
}

// Shape returns height, width, channels.
func (m *Image) Shape() []int {
	return []int{m.Height, m.Width, m.Channels}
}

func (m *Image) ColorModel() color.Model {
	if m.Channels == 1 {
		return GrayModel
	}
	return RGBModel
}

func (m *Image) Bounds() image.Rectangle {
	return image.Rect(0, 0, m.Width, m.Height)
}

func (m *Image) At(x, y int) color.Color {
	if x < 0 || x >= m.Width || y < 0 || y >= m.Height {
		if m.Channels == 1 {
			return Gray{}
		}
		return RGB{}
	}
	pos := y + x*m.Height
	if m.Channels == 1 {
		return Gray{Y: m.Pix[pos]}
	}
	n := m.Width * m.Height
	return RGB{R: m.Pix[pos], G: m.Pix[pos+n], B: m.Pix[pos+2*n]}
}

func (m *Image) Set(x, y int, c color.Color) {
	if x < 0 || x >= m.Width || y < 0 || y >= m.Height {
		return
	}
	pos := y + x*m.Height
	if m.Channels == 1 {
		m.Pix[pos] = grayModel(c).(Gray).Y
		return
	}
	rgb := rgbModel(c).(RGB)
	n := m.Width * m.Height
	m.Pix[pos] = rgb.R
	m.Pix[pos+n] = rgb.G
	m.Pix[pos+2*n] = rgb.B
}

// Pixels returns the pixel values for the given color plane, or all planes if ch < 0.
func (m *Image) Pixels(ch int) []float32 {
	if ch >= 0 && ch < m.Channels {
		n := m.Width * m.Height
		return m.Pix[ch*n : (ch+1)*n]
	}
	return m.Pix
}

func clampu(x, x0, x1 float32) uint32 {
	return uint32(clamp(x, x0, x1) * 0xffff)
}

func clamp(x, x0, x1 float32) float32 {
	if x < x0 {
		return x0
	}
	if x > x1 {
		return x1
	}
	return x
}
