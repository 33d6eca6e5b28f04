package stream

import (
	"bytes"
	"image"
	"image/jpeg"
)

// encodeJPEG encodes img at the given quality. An encode failure is the one
// recoverable per-frame condition in the algorithm loop; callers skip the
// iteration rather than ending the session.
func encodeJPEG(img image.Image, quality int) ([]byte, error) {
	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: quality}); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
