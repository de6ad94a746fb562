package imaging

import (
	"bytes"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"io"

	"github.com/disintegration/imaging"
)

// DefaultAvatarSize is the edge length of stored avatars in pixels.
const DefaultAvatarSize = 256

// AvatarProcessor normalises uploaded profile pictures into square PNG thumbnails.
type AvatarProcessor struct {
	size int
}

// NewAvatarProcessor builds a processor producing size x size images.
func NewAvatarProcessor(size int) *AvatarProcessor {
	if size <= 0 {
		size = DefaultAvatarSize
	}
	return &AvatarProcessor{size: size}
}

// Process decodes r (png, jpeg or gif), crops to a centred square and encodes PNG.
func (p *AvatarProcessor) Process(r io.Reader) ([]byte, error) {
	src, _, err := image.Decode(r)
	if err != nil {
		return nil, fmt.Errorf("decode avatar: %w", err)
	}
	thumb := imaging.Fill(src, p.size, p.size, imaging.Center, imaging.Lanczos)

	buf := new(bytes.Buffer)
	if err := imaging.Encode(buf, thumb, imaging.PNG); err != nil {
		return nil, fmt.Errorf("encode avatar: %w", err)
	}
	return buf.Bytes(), nil
}

// Size returns the configured edge length.
func (p *AvatarProcessor) Size() int {
	return p.size
}
