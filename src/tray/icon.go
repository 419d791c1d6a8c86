// Package tray draws the notification-area icon and, on Windows, runs the
// Capture / Exit menu through systray.
package tray

import (
	"bytes"
	"encoding/binary"
	"image"
	"image/color"
	"image/png"
	"sync"

	"golang.org/x/image/draw"
)

const iconSize = 32

var (
	iconOnce sync.Once
	iconPNG  []byte
	iconICO  []byte
)

func renderIcon() {
	iconOnce.Do(func() {
		var buf bytes.Buffer
		if err := png.Encode(&buf, drawIcon()); err != nil {
			return
		}
		iconPNG = buf.Bytes()
		iconICO = wrapICO(iconPNG, iconSize)
	})
}

// Icon returns the tray icon as an .ico container holding one PNG image.
func Icon() []byte {
	renderIcon()
	return iconICO
}

// IconPNG returns the same icon as plain PNG bytes.
func IconPNG() []byte {
	renderIcon()
	return iconPNG
}

// drawIcon paints a dimmed square with a clear selection and white frame,
// the overlay in miniature.
func drawIcon() *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, iconSize, iconSize))
	draw.Draw(img, img.Bounds(), image.NewUniform(color.NRGBA{R: 0x20, G: 0x20, B: 0x20, A: 0xE0}), image.Point{}, draw.Src)

	sel := image.Rect(8, 9, 26, 23)
	draw.Draw(img, sel, image.NewUniform(color.NRGBA{R: 0x00, G: 0x78, B: 0xD4, A: 0xFF}), image.Point{}, draw.Src)
	white := image.NewUniform(color.NRGBA{R: 0xFF, G: 0xFF, B: 0xFF, A: 0xFF})
	for _, edge := range []image.Rectangle{
		image.Rect(sel.Min.X, sel.Min.Y, sel.Max.X, sel.Min.Y+2),
		image.Rect(sel.Min.X, sel.Max.Y-2, sel.Max.X, sel.Max.Y),
		image.Rect(sel.Min.X, sel.Min.Y, sel.Min.X+2, sel.Max.Y),
		image.Rect(sel.Max.X-2, sel.Min.Y, sel.Max.X, sel.Max.Y),
	} {
		draw.Draw(img, edge, white, image.Point{}, draw.Src)
	}
	return img
}

func wrapICO(pngData []byte, size int) []byte {
	var buf bytes.Buffer
	// ICONDIR: reserved, type 1 (icon), one image.
	_ = binary.Write(&buf, binary.LittleEndian, [3]uint16{0, 1, 1})
	// ICONDIRENTRY: a size of 0 means 256.
	dim := uint8(size)
	if size >= 256 {
		dim = 0
	}
	buf.Write([]byte{dim, dim, 0, 0})
	_ = binary.Write(&buf, binary.LittleEndian, uint16(1))  // planes
	_ = binary.Write(&buf, binary.LittleEndian, uint16(32)) // bits per pixel
	_ = binary.Write(&buf, binary.LittleEndian, uint32(len(pngData)))
	_ = binary.Write(&buf, binary.LittleEndian, uint32(6+16))
	buf.Write(pngData)
	return buf.Bytes()
}
