package ooxml

import (
	"archive/zip"
	"bytes"
	"encoding/xml"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func buildPackage(t *testing.T, parts map[string]string) []byte {
	t.Helper()
	buf := new(bytes.Buffer)
	w := zip.NewWriter(buf)
	for name, content := range parts {
		f, err := w.Create(name)
		require.NoError(t, err)
		_, err = f.Write([]byte(content))
		require.NoError(t, err)
	}
	require.NoError(t, w.Close())
	return buf.Bytes()
}

func TestOpen_NotAZip(t *testing.T) {
	_, err := Open([]byte("plain text"))
	assert.Error(t, err)
}

func TestPackage_Read(t *testing.T) {
	pkg, err := Open(buildPackage(t, map[string]string{
		"word/document.xml":     "<document/>",
		"ppt/slides/slide1.xml": "<sld/>",
		"ppt/slides/slide2.xml": "<sld/>",
	}))
	require.NoError(t, err)

	data, err := pkg.Read("word/document.xml")
	require.NoError(t, err)
	assert.Equal(t, "<document/>", string(data))

	_, err = pkg.Read("word/missing.xml")
	assert.ErrorIs(t, err, ErrMissingPart)

	assert.True(t, pkg.Has("ppt/slides/slide1.xml"))
	assert.ElementsMatch(t, []string{"ppt/slides/slide1.xml", "ppt/slides/slide2.xml"}, pkg.Names("ppt/slides/"))
}

func TestPackage_Properties(t *testing.T) {
	pkg, err := Open(buildPackage(t, map[string]string{
		"docProps/core.xml": `<cp:coreProperties xmlns:cp="http://schemas.openxmlformats.org/package/2006/metadata/core-properties" xmlns:dc="http://purl.org/dc/elements/1.1/"><dc:title> Radio Policy </dc:title></cp:coreProperties>`,
		"docProps/app.xml":  `<Properties xmlns="http://schemas.openxmlformats.org/officeDocument/2006/extended-properties"><Pages>7</Pages></Properties>`,
	}))
	require.NoError(t, err)

	assert.Equal(t, "Radio Policy", pkg.Title())
	assert.Equal(t, 7, pkg.PageCount())
}

func TestPackage_PropertiesMissing(t *testing.T) {
	pkg, err := Open(buildPackage(t, map[string]string{"a.xml": "<a/>"}))
	require.NoError(t, err)

	assert.Empty(t, pkg.Title())
	assert.Zero(t, pkg.PageCount())
}

func TestAttr(t *testing.T) {
	el := xml.StartElement{Attr: []xml.Attr{{Name: xml.Name{Space: "w", Local: "val"}, Value: "Heading2"}}}

	assert.Equal(t, "Heading2", Attr(el, "val"))
	assert.Empty(t, Attr(el, "type"))
}

func TestPackage_NumberedParts(t *testing.T) {
	pkg, err := Open(buildPackage(t, map[string]string{
		"ppt/slides/slide10.xml":            "<sld/>",
		"ppt/slides/slide2.xml":             "<sld/>",
		"ppt/slides/slide1.xml":             "<sld/>",
		"ppt/slides/_rels/slide1.xml.rels":  "<rels/>",
		"ppt/slideLayouts/slideLayout1.xml": "<layout/>",
	}))
	require.NoError(t, err)

	assert.Equal(t, []string{
		"ppt/slides/slide1.xml",
		"ppt/slides/slide2.xml",
		"ppt/slides/slide10.xml",
	}, pkg.NumberedParts("ppt/slides/"))
}
