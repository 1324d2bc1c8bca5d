// Package ooxml reads the zip packages shared by DOCX, XLSX and PPTX files.
package ooxml

import (
	"archive/zip"
	"bytes"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"path"
	"sort"
	"strconv"
	"strings"
)

// ErrMissingPart indicates a required part is absent from the package.
var ErrMissingPart = errors.New("missing package part")

// maxPartSize bounds the decompressed size of a single part.
const maxPartSize = 64 << 20

// Package is an opened Office Open XML zip package.
type Package struct {
	reader *zip.Reader
	files  map[string]*zip.File
}

// Open opens content as a zip package.
func Open(content []byte) (*Package, error) {
	reader, err := zip.NewReader(bytes.NewReader(content), int64(len(content)))
	if err != nil {
		return nil, fmt.Errorf("open package: %w", err)
	}
	files := make(map[string]*zip.File, len(reader.File))
	for _, f := range reader.File {
		files[f.Name] = f
	}
	return &Package{reader: reader, files: files}, nil
}

// Has reports whether the package contains a part.
func (p *Package) Has(name string) bool {
	_, ok := p.files[name]
	return ok
}

// Names returns every part name with the given prefix.
func (p *Package) Names(prefix string) []string {
	var names []string
	for _, f := range p.reader.File {
		if strings.HasPrefix(f.Name, prefix) {
			names = append(names, f.Name)
		}
	}
	return names
}

// NumberedParts returns the XML parts directly under prefix ordered by the
// number in their name, so slide10.xml sorts after slide9.xml.
func (p *Package) NumberedParts(prefix string) []string {
	var parts []string
	for _, name := range p.Names(prefix) {
		rest := strings.TrimPrefix(name, prefix)
		if strings.Contains(rest, "/") || !strings.HasSuffix(rest, ".xml") {
			continue
		}
		parts = append(parts, name)
	}
	sort.SliceStable(parts, func(i, j int) bool {
		return partNumber(parts[i]) < partNumber(parts[j])
	})
	return parts
}

func partNumber(name string) int {
	base := strings.TrimSuffix(path.Base(name), ".xml")
	digits := strings.TrimLeftFunc(base, func(r rune) bool { return r < '0' || r > '9' })
	n, err := strconv.Atoi(digits)
	if err != nil {
		return 0
	}
	return n
}

// Read returns the content of a part.
func (p *Package) Read(name string) ([]byte, error) {
	f, ok := p.files[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrMissingPart, name)
	}
	rc, err := f.Open()
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", name, err)
	}
	defer rc.Close()

	data, err := io.ReadAll(io.LimitReader(rc, maxPartSize+1))
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", name, err)
	}
	if len(data) > maxPartSize {
		return nil, fmt.Errorf("part %s exceeds %d bytes", name, maxPartSize)
	}
	return data, nil
}

// coreProperties represents docProps/core.xml.
type coreProperties struct {
	Title string `xml:"title"`
}

// appProperties represents docProps/app.xml.
type appProperties struct {
	Pages int `xml:"Pages"`
}

// Title returns the document title from docProps/core.xml, or "".
func (p *Package) Title() string {
	data, err := p.Read("docProps/core.xml")
	if err != nil {
		return ""
	}
	var core coreProperties
	if err := xml.Unmarshal(data, &core); err != nil {
		return ""
	}
	return strings.TrimSpace(core.Title)
}

// PageCount returns the page count recorded in docProps/app.xml, or 0.
func (p *Package) PageCount() int {
	data, err := p.Read("docProps/app.xml")
	if err != nil {
		return 0
	}
	var app appProperties
	if err := xml.Unmarshal(data, &app); err != nil {
		return 0
	}
	return app.Pages
}

// Attr returns the value of the attribute with the given local name.
func Attr(el xml.StartElement, local string) string {
	for _, a := range el.Attr {
		if a.Name.Local == local {
			return a.Value
		}
	}
	return ""
}
