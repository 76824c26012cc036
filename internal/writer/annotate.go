// Package writer renders joined pipeline output to TXT and DOCX files.
//
// Rendering is driven by an explicit tagged-line form: Annotate classifies
// every line exactly once as heading, bullet or paragraph, and renderers
// consume the tags instead of re-sniffing punctuation.
package writer

import "strings"

// LineKind tags one line of pipeline output.
type LineKind int

const (
	LineParagraph LineKind = iota
	LineHeading
	LineBullet
)

// Line is one classified line of output content.
type Line struct {
	Kind  LineKind
	Level int // heading level 1..3; zero otherwise
	Text  string
}

// maxHeadingLevel caps rendered heading depth.
const maxHeadingLevel = 3

// Annotate classifies each non-blank line of content. Leading '#' runs mark
// headings (level capped at 3); a leading "• " or "- " marks a bullet;
// everything else is a paragraph.
func Annotate(content string) []Line {
	var lines []Line
	for _, raw := range strings.Split(content, "\n") {
		line := strings.TrimSpace(raw)
		if line == "" {
			continue
		}
		switch {
		case strings.HasPrefix(line, "#"):
			level := 0
			for level < len(line) && line[level] == '#' {
				level++
			}
			text := strings.TrimSpace(line[level:])
			if level > maxHeadingLevel {
				level = maxHeadingLevel
			}
			if text == "" {
				continue
			}
			lines = append(lines, Line{Kind: LineHeading, Level: level, Text: text})
		case strings.HasPrefix(line, "• "), strings.HasPrefix(line, "- "):
			text := strings.TrimSpace(strings.TrimLeft(line, "•-"))
			if text == "" {
				continue
			}
			lines = append(lines, Line{Kind: LineBullet, Text: text})
		default:
			lines = append(lines, Line{Kind: LineParagraph, Text: line})
		}
	}
	return lines
}
