// Package exif は画像に埋め込まれたEXIFタグを文字列のマップとして読み出します。
package exif

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	goexif "github.com/dsoprea/go-exif/v3"

	"inimage_backend/internal/feature/scan/domain"
	"inimage_backend/internal/feature/scan/domain/entity"
	"inimage_backend/internal/feature/scan/usecase"
)

// Extractor は go-exif を使ったMetadataExtractor実装です。状態を持たず、並行して利用できます。
type Extractor struct{}

// Extractorがusecase.MetadataExtractorを実装していることをコンパイル時に検証します。
var _ usecase.MetadataExtractor = (*Extractor)(nil)

// NewExtractor はExtractorを返します。
func NewExtractor() *Extractor {
	return &Extractor{}
}

// Extract はEXIFタグを読み出します。
// EXIFを持たない画像は空のセットとnilを返します。
// EXIFブロックが壊れている場合は、読めた分のセットと ErrMetadataUnreadable を返します。
func (e *Extractor) Extract(ctx context.Context, image []byte) (set entity.MetadataSet, err error) {
	set = entity.MetadataSet{}
	if len(image) == 0 {
		return set, nil
	}

	// go-exif は不正な入力に対してpanicすることがある
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%w: %v", domain.ErrMetadataUnreadable, r)
		}
	}()

	raw, err := goexif.SearchAndExtractExif(image)
	if err != nil {
		if errors.Is(err, goexif.ErrNoExif) {
			return set, nil
		}
		return set, fmt.Errorf("%w: %v", domain.ErrMetadataUnreadable, err)
	}

	tags, _, err := goexif.GetFlatExifData(raw, nil)
	set = flatten(tags)
	if err != nil {
		return set, fmt.Errorf("%w: %v", domain.ErrMetadataUnreadable, err)
	}
	return set, nil
}

// flatten はタグ名をキーにしたマップへ変換します。同じ名前のタグは最初に現れたものを採用します。
func flatten(tags []goexif.ExifTag) entity.MetadataSet {
	set := make(entity.MetadataSet, len(tags))
	for _, tag := range tags {
		name := tag.TagName
		if name == "" {
			name = fmt.Sprintf("Tag0x%04x", tag.TagId)
		}
		if _, exists := set[name]; exists {
			continue
		}
		set[name] = normalizeValue(tag)
	}
	return set
}

func normalizeValue(tag goexif.ExifTag) string {
	switch v := tag.Value.(type) {
	case string:
		return cleanText(v)
	case []byte:
		return cleanText(string(v))
	default:
		return cleanText(tag.Formatted)
	}
}

// cleanText はNULによる埋め草を取り除き、不正なUTF-8をU+FFFDに置き換えます。
func cleanText(s string) string {
	s = strings.TrimRight(s, "\x00")
	if i := strings.IndexByte(s, 0); i >= 0 {
		s = s[:i]
	}
	if !utf8.ValidString(s) {
		s = strings.ToValidUTF8(s, "�")
	}
	return strings.TrimSpace(s)
}
