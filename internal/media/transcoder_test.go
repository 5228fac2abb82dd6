package media

import (
	"bytes"
	"encoding/base64"
	"errors"
	"image"
	"image/color"
	"image/png"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func pngBytes(t *testing.T, width, height int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	for x := 0; x < width; x++ {
		for y := 0; y < height; y++ {
			img.Set(x, y, color.RGBA{R: uint8(x % 256), G: uint8(y % 256), B: 128, A: 255})
		}
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func TestDecodeDataURI(t *testing.T) {
	payload := []byte("hello image bytes")
	uri := "data:image/png;base64," + base64.StdEncoding.EncodeToString(payload)

	raw, mimeType, err := DecodeDataURI(uri)
	require.NoError(t, err)
	assert.Equal(t, payload, raw)
	assert.Equal(t, "image/png", mimeType)
}

func TestDecodeDataURI_Rejects(t *testing.T) {
	cases := []string{
		"",
		"not a data uri",
		"data:image/png,plain-not-base64",
		"data:;base64,aGVsbG8=",
		"data:image/png;base64,", // empty payload
		"data:image/png;base64,!!!not-base64!!!",
	}
	for _, input := range cases {
		_, _, err := DecodeDataURI(input)
		assert.ErrorIs(t, err, ErrInvalidEncoding, "input %q", input)
	}
}

func TestTranscode_ProducesJPEG(t *testing.T) {
	res, err := Transcode(pngBytes(t, 400, 300), "photo.png")
	require.NoError(t, err)

	assert.Equal(t, ContentType, res.ContentType)
	assert.Equal(t, int64(len(res.Data)), res.Size)

	decoded, format, err := image.Decode(bytes.NewReader(res.Data))
	require.NoError(t, err)
	assert.Equal(t, "jpeg", format)
	assert.Equal(t, 400, decoded.Bounds().Dx())
	assert.Equal(t, 300, decoded.Bounds().Dy())
}

func TestTranscode_ResizesOversized(t *testing.T) {
	res, err := Transcode(pngBytes(t, 4000, 3000), "huge.png")
	require.NoError(t, err)

	decoded, _, err := image.Decode(bytes.NewReader(res.Data))
	require.NoError(t, err)
	assert.LessOrEqual(t, decoded.Bounds().Dx(), MaxWidth)
	assert.LessOrEqual(t, decoded.Bounds().Dy(), MaxHeight)
	// Aspect ratio 4:3 means height is the binding constraint.
	assert.Equal(t, 1080, decoded.Bounds().Dy())
	assert.Equal(t, 1440, decoded.Bounds().Dx())
}

func TestTranscode_NeverUpscales(t *testing.T) {
	res, err := Transcode(pngBytes(t, 64, 48), "tiny.png")
	require.NoError(t, err)

	decoded, _, err := image.Decode(bytes.NewReader(res.Data))
	require.NoError(t, err)
	assert.Equal(t, 64, decoded.Bounds().Dx())
	assert.Equal(t, 48, decoded.Bounds().Dy())
}

func TestTranscode_CorruptInput(t *testing.T) {
	_, err := Transcode([]byte("definitely not an image"), "broken.bin")
	require.Error(t, err)

	var terr *TranscodeError
	require.True(t, errors.As(err, &terr))
	assert.Equal(t, "broken.bin", terr.OriginalName)
}
