// Package chunker splits normalized document text into size-bounded sections
// while preserving paragraph boundaries.
package chunker

import (
	"errors"
	"fmt"
	"strings"
)

// DefaultMaxSectionChars is the soft per-section character budget used when
// the caller does not provide one.
const DefaultMaxSectionChars = 6000

// paragraphSeparator joins paragraphs inside a section and separates
// paragraphs in source text.
const paragraphSeparator = "\n\n"

// ErrEmptyDocument is returned when the input text is empty after trimming.
// Callers should treat it as "zero sections", not a hard failure.
var ErrEmptyDocument = errors.New("document text is empty")

// Section is a contiguous, order-preserved slice of a document's text,
// sized to fit within the processing budget. Immutable after creation.
type Section struct {
	Text    string
	Heading string
	Index   int
}

// Chunk splits text into an ordered sequence of sections, each within
// maxChars where possible. Paragraphs (blank-line separated) are never
// broken: a single paragraph longer than maxChars is emitted as its own
// oversized section, so maxChars is a soft target rather than a hard cap.
//
// A document that already fits in maxChars is returned as a single section
// with the heading "Full Document". Deterministic: identical input always
// yields identical boundaries.
func Chunk(text string, maxChars int) ([]Section, error) {
	if maxChars <= 0 {
		maxChars = DefaultMaxSectionChars
	}

	text = strings.TrimSpace(text)
	if text == "" {
		return nil, ErrEmptyDocument
	}

	if len(text) <= maxChars {
		return []Section{{
			Text:    text,
			Heading: "Full Document",
			Index:   0,
		}}, nil
	}

	var sections []Section
	var buf strings.Builder

	closeSection := func() {
		body := strings.TrimSpace(buf.String())
		if body == "" {
			return
		}
		sections = append(sections, Section{
			Text:    body,
			Heading: fmt.Sprintf("Document Section %d", len(sections)+1),
			Index:   len(sections),
		})
		buf.Reset()
	}

	for _, para := range strings.Split(text, paragraphSeparator) {
		para = strings.TrimSpace(para)
		if para == "" {
			continue
		}
		// Close the running section when appending would exceed the budget
		// and there is something to close.
		if buf.Len() > 0 && buf.Len()+len(paragraphSeparator)+len(para) > maxChars {
			closeSection()
		}
		if buf.Len() > 0 {
			buf.WriteString(paragraphSeparator)
		}
		buf.WriteString(para)
	}
	closeSection()

	return sections, nil
}
