package outline

import (
	"path/filepath"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"golang.org/x/text/encoding/charmap"

	"github.com/custodia-labs/auditkit/internal/core/domain"
)

// Decode returns b as UTF-8 text, falling back to Latin-1 for invalid UTF-8.
// A leading byte order mark is dropped.
func Decode(b []byte) string {
	b = trimBOM(b)
	if utf8.Valid(b) {
		return string(b)
	}
	decoded, err := charmap.ISO8859_1.NewDecoder().Bytes(b)
	if err != nil {
		return strings.ToValidUTF8(string(b), "")
	}
	return string(decoded)
}

func trimBOM(b []byte) []byte {
	if len(b) >= 3 && b[0] == 0xEF && b[1] == 0xBB && b[2] == 0xBF {
		return b[3:]
	}
	return b
}

// TitleFromName derives a readable title from a file name.
func TitleFromName(name string) string {
	filename := filepath.Base(name)
	if filename == "." || filename == string(filepath.Separator) {
		return ""
	}
	if ext := filepath.Ext(filename); ext != "" {
		filename = strings.TrimSuffix(filename, ext)
	}
	filename = strings.ReplaceAll(filename, "_", " ")
	filename = strings.ReplaceAll(filename, "-", " ")
	return strings.TrimSpace(filename)
}

// FirstTitle returns the title of the first section that has one.
func FirstTitle(sections []domain.DocumentSection) string {
	for _, s := range sections {
		if s.Title != "" && s.Title != DefaultRootTitle {
			return s.Title
		}
	}
	return ""
}

// NewContent assembles the immutable extraction result.
// units is the page, slide or sheet count.
func NewContent(format domain.Format, title, rawText string, sections []domain.DocumentSection, units int) *domain.ExtractedContent {
	if title == "" {
		title = DefaultRootTitle
	}
	return &domain.ExtractedContent{
		ID:       uuid.New().String(),
		Title:    title,
		RawText:  rawText,
		Sections: sections,
		Metadata: domain.ExtractionMetadata{
			Format:         format,
			UnitCount:      units,
			CharacterCount: utf8.RuneCountInString(rawText),
			SectionCount:   domain.CountSections(sections),
			ExtractedAt:    time.Now(),
		},
	}
}

// ChooseTitle picks the first non-empty candidate.
func ChooseTitle(candidates ...string) string {
	for _, c := range candidates {
		if c = strings.TrimSpace(c); c != "" {
			return c
		}
	}
	return ""
}
