// Package photo normalises uploaded photos before they are stored.
package photo

import (
	"bytes"
	"errors"
	"fmt"

	"github.com/disintegration/imaging"
)

// ErrNotImage is returned when the upload cannot be decoded as an image.
var ErrNotImage = errors.New("not a decodable image")

const defaultQuality = 85

// Normalizer applies EXIF orientation, bounds the longest edge and re-encodes as JPEG.
type Normalizer struct {
	maxDimension int
	quality      int
}

// NewNormalizer returns a Normalizer that fits photos into a maxDimension square.
// A zero maxDimension disables normalisation.
func NewNormalizer(maxDimension int) *Normalizer {
	return &Normalizer{maxDimension: maxDimension, quality: defaultQuality}
}

// Enabled reports whether Normalize rewrites its input.
func (n *Normalizer) Enabled() bool {
	return n != nil && n.maxDimension > 0
}

// Normalize returns data unchanged when disabled.
func (n *Normalizer) Normalize(data []byte) ([]byte, error) {
	if !n.Enabled() {
		return data, nil
	}

	img, err := imaging.Decode(bytes.NewReader(data), imaging.AutoOrientation(true))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrNotImage, err)
	}

	b := img.Bounds()
	if b.Dx() > n.maxDimension || b.Dy() > n.maxDimension {
		img = imaging.Fit(img, n.maxDimension, n.maxDimension, imaging.Lanczos)
	}

	var buf bytes.Buffer
	if err := imaging.Encode(&buf, img, imaging.JPEG, imaging.JPEGQuality(n.quality)); err != nil {
		return nil, fmt.Errorf("encode jpeg: %w", err)
	}
	return buf.Bytes(), nil
}
