package tray

import (
	"bytes"
	"encoding/binary"
	"image"
	"image/color"
	"image/png"
	"runtime"
)

const iconSize = 32

var (
	iconFill = color.RGBA{R: 0xF4, G: 0x72, B: 0xB6, A: 0xFF}
	iconMark = color.RGBA{R: 0xFF, G: 0xFF, B: 0xFF, A: 0xFF}
)

// Icon returns the tray icon: ICO on Windows, PNG elsewhere.
func Icon() ([]byte, error) {
	img, err := PNG()
	if err != nil {
		return nil, err
	}
	if runtime.GOOS == "windows" {
		return wrapICO(img, iconSize), nil
	}
	return img, nil
}

// PNG draws the icon: a filled disc with a note head and stem.
func PNG() ([]byte, error) {
	img := image.NewRGBA(image.Rect(0, 0, iconSize, iconSize))
	c := float64(iconSize-1) / 2
	for y := 0; y < iconSize; y++ {
		for x := 0; x < iconSize; x++ {
			dx, dy := float64(x)-c, float64(y)-c
			if dx*dx+dy*dy > c*c {
				continue
			}
			img.Set(x, y, iconFill)

			// note head
			hx, hy := float64(x)-12, float64(y)-21
			if hx*hx/16+hy*hy/9 <= 1 {
				img.Set(x, y, iconMark)
			}
			// stem
			if x >= 15 && x <= 16 && y >= 8 && y <= 21 {
				img.Set(x, y, iconMark)
			}
			// flag
			if y >= 8 && y <= 10 && x >= 15 && x <= 21 {
				img.Set(x, y, iconMark)
			}
		}
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// wrapICO stores a PNG image as the single entry of an ICO container.
func wrapICO(pngData []byte, size int) []byte {
	var buf bytes.Buffer
	// ICONDIR: reserved, type 1 (icon), one image
	_ = binary.Write(&buf, binary.LittleEndian, [3]uint16{0, 1, 1})

	dim := byte(size)
	if size >= 256 {
		dim = 0
	}
	buf.Write([]byte{dim, dim, 0, 0})
	// planes, bits per pixel
	_ = binary.Write(&buf, binary.LittleEndian, [2]uint16{1, 32})
	// image size, offset
	_ = binary.Write(&buf, binary.LittleEndian, [2]uint32{uint32(len(pngData)), 6 + 16})
	buf.Write(pngData)
	return buf.Bytes()
}
