// Copyright 2025 Ayman Bagabas
// SPDX-License-Identifier: MIT

package nativeselection

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"math"

	"golang.org/x/image/bmp"
)

const (
	bmpFileHeaderLen = 14
	bmpInfoHeaderLen = 40

	biRGB       = 0
	biBitfields = 3

	// maxDIBLen caps the packed bitmaps accepted from the clipboard.
	maxDIBLen = 1 << 28
)

// dibInfo is the part of a BITMAPINFOHEADER needed to locate the pixels.
type dibInfo struct {
	headerLen   uint32
	width       int32
	height      int32 // negative for top-down rows
	bitCount    uint16
	compression uint32
	clrUsed     uint32
}

// parseDIB reads the header of a packed DIB, the CF_DIB and CF_DIBV5
// payload. block is the whole global memory block, so every offset derived
// from the header is checked against it.
func parseDIB(block []byte) (dibInfo, error) {
	if len(block) < bmpInfoHeaderLen || len(block) > maxDIBLen {
		return dibInfo{}, fmt.Errorf("%w: clipboard bitmap of %d bytes", ErrTransaction, len(block))
	}

	le := binary.LittleEndian
	info := dibInfo{
		headerLen:   le.Uint32(block[0:]),
		width:       int32(le.Uint32(block[4:])),
		height:      int32(le.Uint32(block[8:])),
		bitCount:    le.Uint16(block[14:]),
		compression: le.Uint32(block[16:]),
		clrUsed:     le.Uint32(block[32:]),
	}
	switch {
	case info.headerLen < bmpInfoHeaderLen || int64(info.headerLen) > int64(len(block)):
		return dibInfo{}, fmt.Errorf("%w: bitmap header of %d bytes in a %d byte block", ErrTransaction, info.headerLen, len(block))
	case info.width <= 0 || info.height == 0 || info.height == math.MinInt32:
		return dibInfo{}, fmt.Errorf("%w: bitmap of %dx%d", ErrTransaction, info.width, info.height)
	}
	return info, nil
}

func (d dibInfo) topDown() bool { return d.height < 0 }

func (d dibInfo) rows() int64 {
	if d.height < 0 {
		return -int64(d.height)
	}
	return int64(d.height)
}

// stride is the length of a row, padded to 32 bits.
func (d dibInfo) stride() int64 {
	return (int64(d.width)*int64(d.bitCount) + 31) / 32 * 4
}

// pixelOffset is where the pixels start, past the header and any color table.
func (d dibInfo) pixelOffset() int64 {
	off := int64(d.headerLen)
	if d.compression == biBitfields && d.headerLen == bmpInfoHeaderLen {
		off += 12
	}
	colors := int64(d.clrUsed)
	if colors == 0 && d.bitCount <= 8 {
		colors = 1 << d.bitCount
	}
	return off + 4*colors
}

// checkPixels makes sure uncompressed pixels fit in a block of n bytes.
func (d dibInfo) checkPixels(n int) error {
	end := d.pixelOffset()
	if d.compression == biRGB || d.compression == biBitfields {
		end += d.stride() * d.rows()
	}
	if end > int64(n) {
		return fmt.Errorf("%w: bitmap needs %d bytes, block has %d", ErrTransaction, end, n)
	}
	return nil
}

// dibToPNG converts a packed DIB to PNG. 32-bit bitmaps are read as BGRA,
// other depths go through the BMP decoder.
func dibToPNG(block []byte) ([]byte, error) {
	info, err := parseDIB(block)
	if err != nil {
		return nil, err
	}
	if err := info.checkPixels(len(block)); err != nil {
		return nil, err
	}

	var img image.Image
	if info.bitCount == 32 && (info.compression == biRGB || info.compression == biBitfields) {
		img = decodeBGRA(info, block)
	} else {
		img, err = bmp.Decode(bytes.NewReader(bmpFile(info, block)))
		if err != nil {
			return nil, fmt.Errorf("%w: decode clipboard bitmap: %w", ErrTransaction, err)
		}
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, fmt.Errorf("%w: encode clipboard bitmap: %w", ErrTransaction, err)
	}
	return buf.Bytes(), nil
}

// decodeBGRA reads 32-bit rows. A bitmap whose alpha channel is entirely
// zero has no alpha and is made opaque.
func decodeBGRA(info dibInfo, block []byte) *image.RGBA {
	width, height := int(info.width), int(info.rows())
	offset, stride := int(info.pixelOffset()), int(info.stride())

	img := image.NewRGBA(image.Rect(0, 0, width, height))
	hasAlpha := false
	for y := range height {
		row := block[offset+y*stride:]
		dstY := height - 1 - y
		if info.topDown() {
			dstY = y
		}
		for x := range width {
			px := row[4*x:]
			img.SetRGBA(x, dstY, color.RGBA{R: px[2], G: px[1], B: px[0], A: px[3]})
			hasAlpha = hasAlpha || px[3] != 0
		}
	}
	if !hasAlpha {
		for i := 3; i < len(img.Pix); i += 4 {
			img.Pix[i] = 0xff
		}
	}
	return img
}

// bmpFile prefixes a packed DIB with a BITMAPFILEHEADER.
func bmpFile(info dibInfo, block []byte) []byte {
	le := binary.LittleEndian
	file := make([]byte, 0, bmpFileHeaderLen+len(block))
	file = append(file, 'B', 'M')
	file = le.AppendUint32(file, uint32(bmpFileHeaderLen+len(block)))
	file = le.AppendUint32(file, 0)
	file = le.AppendUint32(file, uint32(bmpFileHeaderLen+info.pixelOffset()))
	return append(file, block...)
}
