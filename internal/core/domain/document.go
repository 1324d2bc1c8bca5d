package domain

import (
	"path/filepath"
	"strings"
	"time"
)

// Format is the declared format of an uploaded document.
type Format string

// Supported document formats.
const (
	FormatText     Format = "text"
	FormatMarkdown Format = "markdown"
	FormatJSON     Format = "json"
	FormatHTML     Format = "html"
	FormatDOCX     Format = "docx"
	FormatPDF      Format = "pdf"
	FormatCSV      Format = "csv"
	FormatXLSX     Format = "xlsx"
	FormatPPTX     Format = "pptx"
)

// Family groups formats by the heuristics used to recover structure.
type Family int

const (
	// FamilyUnknown is returned for unrecognised formats.
	FamilyUnknown Family = iota

	// FamilyFlowed covers page or paragraph based formats.
	FamilyFlowed

	// FamilyTabular covers sheet based formats.
	FamilyTabular

	// FamilySlides covers slide based formats.
	FamilySlides
)

// Family returns the structural family of the format.
func (f Format) Family() Family {
	switch f {
	case FormatText, FormatMarkdown, FormatJSON, FormatHTML, FormatDOCX, FormatPDF:
		return FamilyFlowed
	case FormatCSV, FormatXLSX:
		return FamilyTabular
	case FormatPPTX:
		return FamilySlides
	default:
		return FamilyUnknown
	}
}

// IsValid returns true if the format is recognised.
func (f Format) IsValid() bool {
	return f.Family() != FamilyUnknown
}

// String returns the string representation.
func (f Format) String() string {
	return string(f)
}

var extensionFormats = map[string]Format{
	"txt":      FormatText,
	"text":     FormatText,
	"md":       FormatMarkdown,
	"markdown": FormatMarkdown,
	"json":     FormatJSON,
	"html":     FormatHTML,
	"htm":      FormatHTML,
	"docx":     FormatDOCX,
	"pdf":      FormatPDF,
	"csv":      FormatCSV,
	"xlsx":     FormatXLSX,
	"xlsm":     FormatXLSX,
	"pptx":     FormatPPTX,
}

// FormatFromFilename maps a file extension to a declared format.
// Unknown extensions return the extension itself so the caller gets an
// UnsupportedFormatError naming it.
func FormatFromFilename(name string) Format {
	ext := strings.ToLower(strings.TrimPrefix(filepath.Ext(name), "."))
	if f, ok := extensionFormats[ext]; ok {
		return f
	}
	return Format(ext)
}

// DocumentSection is one node of the recovered section tree.
// Offsets are byte offsets into ExtractedContent.RawText; children are
// nested within the parent range and siblings never overlap.
type DocumentSection struct {
	ID          string            `json:"id"`
	Title       string            `json:"title"`
	Level       int               `json:"level"`
	StartOffset int               `json:"start_offset"`
	EndOffset   int               `json:"end_offset"`
	Children    []DocumentSection `json:"children,omitempty"`
}

// Text returns the slice of raw text covered by the section.
func (s DocumentSection) Text(rawText string) string {
	if s.StartOffset < 0 || s.EndOffset > len(rawText) || s.StartOffset > s.EndOffset {
		return ""
	}
	return rawText[s.StartOffset:s.EndOffset]
}

// Walk visits the section and all descendants depth first.
func (s DocumentSection) Walk(fn func(DocumentSection)) {
	fn(s)
	for _, child := range s.Children {
		child.Walk(fn)
	}
}

// ExtractionMetadata describes an extraction run.
type ExtractionMetadata struct {
	// Format is the declared format the extractor handled.
	Format Format `json:"format"`

	// UnitCount is the number of pages, slides or sheets.
	UnitCount int `json:"unit_count"`

	// CharacterCount is the number of runes in RawText.
	CharacterCount int `json:"character_count"`

	// SectionCount is the total number of section nodes.
	SectionCount int `json:"section_count"`

	// ExtractedAt is when extraction finished.
	ExtractedAt time.Time `json:"extracted_at"`
}

// ExtractedContent is the structured result of extracting one document.
// It is immutable once created.
type ExtractedContent struct {
	ID       string             `json:"id"`
	Title    string             `json:"title"`
	RawText  string             `json:"raw_text"`
	Sections []DocumentSection  `json:"sections"`
	Metadata ExtractionMetadata `json:"metadata"`
}

// LeafSections returns every section without children, in document order.
func (c *ExtractedContent) LeafSections() []DocumentSection {
	var leaves []DocumentSection
	for _, root := range c.Sections {
		root.Walk(func(s DocumentSection) {
			if len(s.Children) == 0 {
				leaves = append(leaves, s)
			}
		})
	}
	return leaves
}

// CountSections returns the number of nodes in a section forest.
func CountSections(sections []DocumentSection) int {
	n := 0
	for _, root := range sections {
		root.Walk(func(DocumentSection) { n++ })
	}
	return n
}
