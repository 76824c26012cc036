package reader

import (
	"archive/zip"
	"encoding/xml"
	"fmt"
	"strings"
)

// readDOCX parses word/document.xml from the ZIP archive. Heading-styled
// paragraphs are flattened into the text stream as ##-prefixed lines; the
// writer re-interprets those markers when rendering output.
func (r *Reader) readDOCX(path string) (Document, error) {
	zr, err := zip.OpenReader(path)
	if err != nil {
		return Document{}, fmt.Errorf("open zip: %w", err)
	}
	defer zr.Close()

	var docFile *zip.File
	for _, f := range zr.File {
		if f.Name == "word/document.xml" {
			docFile = f
			break
		}
	}
	if docFile == nil {
		return Document{}, fmt.Errorf("word/document.xml not found in archive")
	}

	rc, err := docFile.Open()
	if err != nil {
		return Document{}, fmt.Errorf("open document.xml: %w", err)
	}
	defer rc.Close()

	decoder := xml.NewDecoder(rc)
	var parts []string
	var current strings.Builder
	var inParagraph bool
	var paragraphStyle string
	paragraphs := 0

	for {
		tok, err := decoder.Token()
		if err != nil {
			break
		}

		switch t := tok.(type) {
		case xml.StartElement:
			switch {
			case t.Name.Local == "p":
				inParagraph = true
				current.Reset()
				paragraphStyle = ""
			case t.Name.Local == "pStyle" && inParagraph:
				for _, attr := range t.Attr {
					if attr.Name.Local == "val" {
						paragraphStyle = attr.Value
					}
				}
			}

		case xml.CharData:
			if inParagraph {
				current.Write(t)
			}

		case xml.EndElement:
			if t.Name.Local == "p" && inParagraph {
				inParagraph = false
				paragraphs++
				text := strings.TrimSpace(current.String())
				if text == "" {
					continue
				}
				if level := headingLevel(paragraphStyle); level > 0 {
					parts = append(parts, strings.Repeat("#", level)+" "+text)
				} else {
					parts = append(parts, text)
				}
			}
		}
	}

	return Document{
		Text: strings.Join(parts, "\n\n"),
		Metadata: map[string]any{
			"paragraphs": paragraphs,
		},
	}, nil
}

// headingLevel extracts the heading level from a paragraph style name,
// e.g. "Heading1" -> 1, "Title" -> 1. Returns 0 for body styles.
func headingLevel(style string) int {
	lower := strings.ToLower(style)
	if lower == "title" {
		return 1
	}
	if lower == "subtitle" {
		return 2
	}
	if rest, ok := strings.CutPrefix(lower, "heading"); ok {
		if len(rest) == 1 && rest[0] >= '1' && rest[0] <= '6' {
			return int(rest[0] - '0')
		}
	}
	return 0
}
