package domain

// RawDocument represents the opaque bytes of an uploaded document.
// It is the input of extraction.
type RawDocument struct {
	// Name is the original file name, used for titles and format detection.
	Name string

	// Format is the declared format. Empty means detect from Name.
	Format Format

	// Content is the raw bytes.
	Content []byte

	// Metadata contains caller-supplied key-value pairs.
	Metadata map[string]any
}

// DeclaredFormat returns the declared format, falling back to the file extension.
func (r *RawDocument) DeclaredFormat() Format {
	if r.Format != "" {
		return r.Format
	}
	return FormatFromFilename(r.Name)
}
