package exif

import (
	"context"
	"encoding/binary"
	"testing"

	goexif "github.com/dsoprea/go-exif/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"inimage_backend/internal/feature/scan/domain"
)

// tiffWithCamera はIFD0にMakeとModelだけを持つ最小のEXIFブロックを組み立てます。
func tiffWithCamera() []byte {
	le := binary.LittleEndian
	tiff := make([]byte, 44)
	copy(tiff[0:], "II")
	le.PutUint16(tiff[2:], 0x2A)
	le.PutUint32(tiff[4:], 8)

	le.PutUint16(tiff[8:], 2)

	// Make: ASCII, 6 bytes at offset 38
	le.PutUint16(tiff[10:], 0x010F)
	le.PutUint16(tiff[12:], 2)
	le.PutUint32(tiff[14:], 6)
	le.PutUint32(tiff[18:], 38)

	// Model: ASCII, 4 bytes inline
	le.PutUint16(tiff[22:], 0x0110)
	le.PutUint16(tiff[24:], 2)
	le.PutUint32(tiff[26:], 4)
	copy(tiff[30:], "D50\x00")

	le.PutUint32(tiff[34:], 0)
	copy(tiff[38:], "Nikon\x00")

	return append([]byte("Exif\x00\x00"), tiff...)
}

func TestExtractor_Extract(t *testing.T) {
	t.Parallel()

	set, err := NewExtractor().Extract(context.Background(), tiffWithCamera())
	require.NoError(t, err)
	assert.Equal(t, "Nikon", set["Make"])
	assert.Equal(t, "D50", set["Model"])
}

func TestExtractor_NoMetadata(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		image []byte
	}{
		{name: "empty input", image: nil},
		{name: "png without exif", image: []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR")},
		{name: "plain bytes", image: []byte("definitely not an image")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			set, err := NewExtractor().Extract(context.Background(), tt.image)
			require.NoError(t, err)
			assert.NotNil(t, set)
			assert.Empty(t, set)
		})
	}
}

func TestExtractor_CorruptBlockNeverPanics(t *testing.T) {
	t.Parallel()

	blob := tiffWithCamera()
	// IFD0のオフセットをデータの外に向ける
	binary.LittleEndian.PutUint32(blob[6+4:], 0xFFFFFF)

	assert.NotPanics(t, func() {
		set, err := NewExtractor().Extract(context.Background(), blob)
		assert.NotNil(t, set)
		if err != nil {
			assert.ErrorIs(t, err, domain.ErrMetadataUnreadable)
		}
	})
}

func TestFlatten(t *testing.T) {
	t.Parallel()

	tags := []goexif.ExifTag{
		{TagId: 0x010F, TagName: "Make", Value: "Canon\x00\x00\x00"},
		{TagId: 0x0110, TagName: "Model", Value: "EOS R5"},
		{TagId: 0x0110, TagName: "Model", Value: "Thumbnail camera"},
		{TagId: 0x9286, TagName: "UserComment", Value: []byte("caf\xe9 shot\x00")},
		{TagId: 0x8827, TagName: "ISOSpeedRatings", Value: []uint16{400}, Formatted: "[400]"},
		{TagId: 0xC4A5, TagName: "", Value: []byte{0x01}, Formatted: "0x01"},
		{TagId: 0x0132, TagName: "DateTime", Value: "2026:03:01 12:30:00\x00"},
	}

	set := flatten(tags)

	assert.Equal(t, "Canon", set["Make"])
	assert.Equal(t, "EOS R5", set["Model"], "first occurrence wins")
	assert.Equal(t, "caf� shot", set["UserComment"])
	assert.Equal(t, "[400]", set["ISOSpeedRatings"])
	assert.Contains(t, set, "Tag0xc4a5")
	assert.Equal(t, "2026:03:01 12:30:00", set.Get("DateTime", "N/A"))
	assert.Len(t, set, 6)
}

func TestCleanText(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in   string
		want string
	}{
		{in: "", want: ""},
		{in: "Nikon", want: "Nikon"},
		{in: "Nikon\x00\x00", want: "Nikon"},
		{in: "abc\x00garbage", want: "abc"},
		{in: "  padded  ", want: "padded"},
		{in: "\xff\xfe", want: "�"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, cleanText(tt.in), "input %q", tt.in)
	}
}
