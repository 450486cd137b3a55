package imagegen

import (
	"bytes"
	"fmt"

	"github.com/disintegration/imaging"
)

// ArtworkSize is the edge of the square PNGs stored for rounds and cards.
const ArtworkSize = 512

// Thumbnail decodes img, crops it to a centered square and scales it to
// size x size, returning PNG bytes.
func Thumbnail(img []byte, size int) ([]byte, error) {
	if size <= 0 {
		return nil, fmt.Errorf("invalid thumbnail size %d", size)
	}
	src, err := imaging.Decode(bytes.NewReader(img))
	if err != nil {
		return nil, fmt.Errorf("decode image: %w", err)
	}
	dst := imaging.Fill(src, size, size, imaging.Center, imaging.Lanczos)
	var buf bytes.Buffer
	if err := imaging.Encode(&buf, dst, imaging.PNG); err != nil {
		return nil, fmt.Errorf("encode png: %w", err)
	}
	return buf.Bytes(), nil
}
