package sdruntime

import (
	"bytes"
	"encoding/base64"
	"errors"
	"fmt"
	"image"
	"image/png"

	"golang.org/x/image/draw"
)

// PNG magic bytes for file identification
var pngMagic = []byte{0x89, 0x50, 0x4E, 0x47, 0x0D, 0x0A, 0x1A, 0x0A}

// Image validation errors
var (
	ErrImageEmpty       = errors.New("sdruntime: image data is empty")
	ErrImageNotPNG      = errors.New("sdruntime: image data is not a valid PNG")
	ErrImageTooSmall    = errors.New("sdruntime: image data too small to be valid")
	ErrImageDecodeFail  = errors.New("sdruntime: failed to decode image")
	ErrImageInvalidSize = errors.New("sdruntime: invalid image dimensions")
)

// IsPNG checks if the given data starts with PNG magic bytes.
// This is a pure function with no side effects.
func IsPNG(data []byte) bool {
	if len(data) < len(pngMagic) {
		return false
	}
	return bytes.Equal(data[:len(pngMagic)], pngMagic)
}

// ValidateImageData validates that data is a valid PNG image.
// Returns nil if valid, error otherwise.
// This is a pure function with no side effects.
func ValidateImageData(data []byte) error {
	if len(data) == 0 {
		return ErrImageEmpty
	}

	// Minimum PNG file size (signature + IHDR + IEND chunks)
	if len(data) < 45 {
		return ErrImageTooSmall
	}

	if !IsPNG(data) {
		return ErrImageNotPNG
	}

	_, err := png.Decode(bytes.NewReader(data))
	if err != nil {
		return fmt.Errorf("%w: %v", ErrImageDecodeFail, err)
	}

	return nil
}

// EncodeToPNG encodes raw RGBA pixels to PNG format.
// pixels must be in RGBA format (4 bytes per pixel).
// This is a pure function with no side effects.
func EncodeToPNG(pixels []byte, width, height int) ([]byte, error) {
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("%w: width=%d height=%d", ErrImageInvalidSize, width, height)
	}

	expectedLen := width * height * 4
	if len(pixels) != expectedLen {
		return nil, fmt.Errorf("%w: expected %d bytes for %dx%d RGBA, got %d",
			ErrImageInvalidSize, expectedLen, width, height, len(pixels))
	}

	img := image.NewRGBA(image.Rect(0, 0, width, height))
	copy(img.Pix, pixels)

	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrImageDecodeFail, err)
	}

	return buf.Bytes(), nil
}

// ScalePNG rescales a PNG image to the given dimensions using Catmull-Rom
// interpolation. Used when the backend generates at its native resolution and
// the request asks for a different size. Returns the input unchanged when the
// dimensions already match.
func ScalePNG(data []byte, width, height int) ([]byte, error) {
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("%w: width=%d height=%d", ErrImageInvalidSize, width, height)
	}

	src, err := png.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrImageDecodeFail, err)
	}

	bounds := src.Bounds()
	if bounds.Dx() == width && bounds.Dy() == height {
		return data, nil
	}

	dst := image.NewRGBA(image.Rect(0, 0, width, height))
	draw.CatmullRom.Scale(dst, dst.Bounds(), src, bounds, draw.Over, nil)

	var buf bytes.Buffer
	if err := png.Encode(&buf, dst); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrImageDecodeFail, err)
	}
	return buf.Bytes(), nil
}

// EncodeBase64 encodes image bytes to the base64 transport representation.
// The encoding is lossless: DecodeBase64(EncodeBase64(data)) == data.
// This is a pure function with no side effects.
func EncodeBase64(data []byte) string {
	return base64.StdEncoding.EncodeToString(data)
}

// DecodeBase64 decodes the base64 transport representation back to image bytes.
// This is a pure function with no side effects.
func DecodeBase64(encoded string) ([]byte, error) {
	data, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return nil, fmt.Errorf("sdruntime: invalid base64 image data: %w", err)
	}
	return data, nil
}
