// Package media normalizes client-supplied images into a single canonical
// format: every accepted image is decoded, fitted inside 1920x1080 and
// re-encoded as JPEG at quality 85.
package media

import (
	"bytes"
	"encoding/base64"
	"errors"
	"fmt"
	"regexp"

	"github.com/disintegration/imaging"

	// Register source decoders beyond what imaging pulls in itself.
	_ "golang.org/x/image/webp"
)

const (
	// MaxWidth and MaxHeight bound the output dimensions. Smaller images
	// are never upscaled.
	MaxWidth  = 1920
	MaxHeight = 1080

	// ContentType is the single output MIME type regardless of source.
	ContentType = "image/jpeg"

	jpegQuality = 85
)

var ErrInvalidEncoding = errors.New("media: not a base64 data URI")

// dataURIPattern is the only accepted string form for inline images:
// data:<mime>;base64,<payload>.
var dataURIPattern = regexp.MustCompile(`^data:([a-zA-Z0-9.+-]+/[a-zA-Z0-9.+-]+);base64,(.+)$`)

// TranscodeError reports a per-image failure. Callers are expected to treat
// it as non-fatal for the rest of a batch.
type TranscodeError struct {
	OriginalName string
	Err          error
}

func (e *TranscodeError) Error() string {
	return fmt.Sprintf("media: transcode %q: %v", e.OriginalName, e.Err)
}

func (e *TranscodeError) Unwrap() error { return e.Err }

// Result is the normalized output of a transcode. Size always equals
// len(Data).
type Result struct {
	Data        []byte
	ContentType string
	Size        int64
}

// DecodeDataURI extracts the raw bytes and declared MIME type from a
// data:<mime>;base64,<payload> string. Anything that does not match that
// exact structure is rejected with ErrInvalidEncoding.
func DecodeDataURI(s string) ([]byte, string, error) {
	m := dataURIPattern.FindStringSubmatch(s)
	if m == nil {
		return nil, "", ErrInvalidEncoding
	}
	raw, err := base64.StdEncoding.DecodeString(m[2])
	if err != nil {
		return nil, "", fmt.Errorf("%w: %v", ErrInvalidEncoding, err)
	}
	return raw, m[1], nil
}

// Transcode decodes raw image bytes of any supported source format, resizes
// to fit inside MaxWidth x MaxHeight preserving aspect ratio, and re-encodes
// as JPEG at quality 85. Re-encoding happens even when the source is already
// a JPEG within bounds, so the output is always freshly compressed.
func Transcode(raw []byte, originalName string) (*Result, error) {
	img, err := imaging.Decode(bytes.NewReader(raw), imaging.AutoOrientation(true))
	if err != nil {
		return nil, &TranscodeError{OriginalName: originalName, Err: err}
	}

	// Fit never enlarges: images already inside the bounds pass through
	// at their original dimensions.
	img = imaging.Fit(img, MaxWidth, MaxHeight, imaging.Lanczos)

	var buf bytes.Buffer
	if err := imaging.Encode(&buf, img, imaging.JPEG, imaging.JPEGQuality(jpegQuality)); err != nil {
		return nil, &TranscodeError{OriginalName: originalName, Err: err}
	}

	return &Result{
		Data:        buf.Bytes(),
		ContentType: ContentType,
		Size:        int64(buf.Len()),
	}, nil
}
