// Package outline recovers a hierarchical section tree from flowed text.
//
// Format readers turn their input into a sequence of Lines carrying byte
// offsets into the raw text and, where the source format has one, an
// explicit heading level. Build then applies the heading heuristics and
// nests sections by level.
package outline

import (
	"regexp"
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"
)

// MaxCapsHeadingLength is the longest all-caps line treated as a heading.
const MaxCapsHeadingLength = 80

// Line is one line of flowed text.
type Line struct {
	// Text is the line content without the trailing newline.
	Text string

	// Offset is the byte offset of the line start in the raw text.
	Offset int

	// StyleLevel is an explicit heading level from the source format, 0 if none.
	StyleLevel int

	// Title replaces Text as the heading title of a styled line.
	Title string

	// Literal lines are never headings (code blocks, table rows).
	Literal bool
}

// numberedHeading matches outline prefixes such as "3 ", "2.1 " and "4.2.7. ".
// Components are limited to three digits so years and quantities are not headings.
var numberedHeading = regexp.MustCompile(`^(\d{1,3}(?:\.\d{1,3})*)\.?\s+(\S.*)$`)

// Heading is a detected heading line.
type Heading struct {
	Level  int
	Title  string
	Offset int
}

// Detect classifies a line. Precedence is explicit style, then numbered
// prefix, then all-caps.
func Detect(l Line) (Heading, bool) {
	text := strings.TrimSpace(l.Text)
	if text == "" || l.Literal {
		return Heading{}, false
	}
	if l.StyleLevel > 0 {
		if title := strings.TrimSpace(l.Title); title != "" {
			text = title
		}
		return Heading{Level: l.StyleLevel, Title: text, Offset: l.Offset}, true
	}
	if m := numberedHeading.FindStringSubmatch(text); m != nil {
		level := strings.Count(m[1], ".") + 1
		return Heading{Level: level, Title: text, Offset: l.Offset}, true
	}
	if isCapsHeading(text) {
		return Heading{Level: 1, Title: text, Offset: l.Offset}, true
	}
	return Heading{}, false
}

func isCapsHeading(text string) bool {
	if utf8.RuneCountInString(text) > MaxCapsHeadingLength {
		return false
	}
	letters := 0
	for _, r := range text {
		if unicode.IsLower(r) {
			return false
		}
		if unicode.IsLetter(r) {
			letters++
		}
	}
	return letters >= 2
}

// SplitLines splits raw text on newlines, recording the byte offset of each line.
// A trailing carriage return is dropped from the line text.
func SplitLines(rawText string) []Line {
	var lines []Line
	offset := 0
	for {
		idx := strings.IndexByte(rawText[offset:], '\n')
		if idx < 0 {
			if offset < len(rawText) {
				lines = append(lines, Line{Text: strings.TrimSuffix(rawText[offset:], "\r"), Offset: offset})
			}
			return lines
		}
		lines = append(lines, Line{Text: strings.TrimSuffix(rawText[offset:offset+idx], "\r"), Offset: offset})
		offset += idx + 1
	}
}

// sectionID formats a hierarchical id from a parent id and a 1-based position.
func sectionID(parent string, pos int) string {
	if parent == "" {
		return "s" + strconv.Itoa(pos)
	}
	return parent + "." + strconv.Itoa(pos)
}
