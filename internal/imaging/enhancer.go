// Package imaging provides local contrast enhancement and coarse color
// tagging for uploaded photos. No external vision service is involved.
package imaging

import (
	"fmt"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"os"
	"path/filepath"
	"strings"
)

// Enhance decodes the image at path, equalizes its luminance histogram and
// writes the result next to the original as <name>_enh.<ext>. It returns the
// path of the enhanced file.
func Enhance(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("open image: %w", err)
	}
	defer f.Close()

	src, format, err := image.Decode(f)
	if err != nil {
		return "", fmt.Errorf("decode image: %w", err)
	}

	dst := equalize(src)

	ext := filepath.Ext(path)
	outPath := strings.TrimSuffix(path, ext) + "_enh" + ext

	out, err := os.Create(outPath)
	if err != nil {
		return "", fmt.Errorf("create enhanced image: %w", err)
	}
	defer out.Close()

	switch format {
	case "png":
		err = png.Encode(out, dst)
	default:
		err = jpeg.Encode(out, dst, &jpeg.Options{Quality: 90})
	}
	if err != nil {
		return "", fmt.Errorf("encode enhanced image: %w", err)
	}
	return outPath, nil
}

// ColorTags classifies the image at path by its average channel balance:
// "warm" when red dominates, "cool" when blue dominates, "neutral" otherwise.
func ColorTags(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open image: %w", err)
	}
	defer f.Close()

	src, _, err := image.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("decode image: %w", err)
	}

	var sumR, sumB, n uint64
	b := src.Bounds()
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			r, _, bb, _ := src.At(x, y).RGBA()
			sumR += uint64(r >> 8)
			sumB += uint64(bb >> 8)
			n++
		}
	}
	if n == 0 {
		return []string{"neutral"}, nil
	}

	avgR := float64(sumR) / float64(n)
	avgB := float64(sumB) / float64(n)
	switch {
	case avgR > avgB+10:
		return []string{"warm"}, nil
	case avgB > avgR+10:
		return []string{"cool"}, nil
	default:
		return []string{"neutral"}, nil
	}
}

// equalize spreads the luminance histogram across the full range, scaling
// each pixel's channels by the luminance gain.
func equalize(src image.Image) image.Image {
	b := src.Bounds()

	var hist [256]uint64
	var total uint64
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			hist[luma(src.At(x, y))]++
			total++
		}
	}
	if total == 0 {
		return src
	}

	// Cumulative distribution mapped back onto [0,255].
	var lut [256]float64
	var cum uint64
	for i := 0; i < 256; i++ {
		cum += hist[i]
		lut[i] = float64(cum) / float64(total) * 255.0
	}

	dst := image.NewRGBA(b)
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			c := src.At(x, y)
			l := luma(c)
			gain := 1.0
			if l > 0 {
				gain = lut[l] / float64(l)
			}
			r, g, bl, a := c.RGBA()
			dst.Set(x, y, color.RGBA{
				R: clamp(float64(r>>8) * gain),
				G: clamp(float64(g>>8) * gain),
				B: clamp(float64(bl>>8) * gain),
				A: uint8(a >> 8),
			})
		}
	}
	return dst
}

func luma(c color.Color) int {
	r, g, b, _ := c.RGBA()
	l := 0.299*float64(r>>8) + 0.587*float64(g>>8) + 0.114*float64(b>>8)
	if l > 255 {
		l = 255
	}
	return int(l)
}

func clamp(v float64) uint8 {
	if v < 0 {
		return 0
	}
	if v > 255 {
		return 255
	}
	return uint8(v)
}
