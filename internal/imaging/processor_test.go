// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package imaging

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"strings"
	"testing"
)

func encodePNG(t *testing.T, width, height int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			img.Set(x, y, color.RGBA{R: uint8(x % 256), G: uint8(y % 256), B: 128, A: 255})
		}
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("encoding test PNG: %v", err)
	}
	return buf.Bytes()
}

func TestProcess_SmallImagePassesThrough(t *testing.T) {
	p := NewProcessor(2048)

	result, err := p.Process(bytes.NewReader(encodePNG(t, 100, 80)))
	if err != nil {
		t.Fatalf("Process: %v", err)
	}
	if result.Width != 100 || result.Height != 80 {
		t.Errorf("dimensions = %dx%d, want 100x80", result.Width, result.Height)
	}
	if result.MimeType != MimeTypePNG {
		t.Errorf("mime = %q, want %q", result.MimeType, MimeTypePNG)
	}
	if len(result.Data) == 0 {
		t.Error("expected encoded data")
	}
}

func TestProcess_OversizedImageDownscaled(t *testing.T) {
	p := NewProcessor(64)

	result, err := p.Process(bytes.NewReader(encodePNG(t, 200, 100)))
	if err != nil {
		t.Fatalf("Process: %v", err)
	}
	if result.Width != 64 {
		t.Errorf("width = %d, want 64", result.Width)
	}
	if result.Height != 32 {
		t.Errorf("height = %d, want aspect-preserving 32", result.Height)
	}
}

func TestProcess_ZeroMaxEdgeDisablesDownscaling(t *testing.T) {
	p := NewProcessor(0)

	result, err := p.Process(bytes.NewReader(encodePNG(t, 200, 100)))
	if err != nil {
		t.Fatalf("Process: %v", err)
	}
	if result.Width != 200 || result.Height != 100 {
		t.Errorf("dimensions = %dx%d, want untouched 200x100", result.Width, result.Height)
	}
}

func TestProcess_RejectsNonImage(t *testing.T) {
	p := NewProcessor(2048)

	_, err := p.Process(strings.NewReader("<html>not an image</html>"))
	if err == nil {
		t.Fatal("expected error for non-image data")
	}
}

func TestIsSupportedType(t *testing.T) {
	p := NewProcessor(2048)

	for _, mime := range []string{MimeTypeJPEG, MimeTypePNG, MimeTypeGIF, MimeTypeWebP} {
		if !p.IsSupportedType(mime) {
			t.Errorf("%s must be supported", mime)
		}
	}
	for _, mime := range []string{"image/tiff", "image/svg+xml", "application/pdf", ""} {
		if p.IsSupportedType(mime) {
			t.Errorf("%s must not be supported", mime)
		}
	}
}

func TestDetectMimeType(t *testing.T) {
	p := NewProcessor(2048)

	if got := p.DetectMimeType(encodePNG(t, 4, 4)); got != MimeTypePNG {
		t.Errorf("DetectMimeType = %q, want %q", got, MimeTypePNG)
	}
}

func TestDetectFormat_RejectsTIFF(t *testing.T) {
	// Little-endian TIFF header
	tiff := []byte{0x49, 0x49, 0x2A, 0x00, 0x08, 0x00, 0x00, 0x00}
	if got := detectFormat(tiff); got != "" {
		t.Errorf("TIFF must be rejected, got format %q", got)
	}
}
