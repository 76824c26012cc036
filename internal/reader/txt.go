package reader

import (
	"os"
	"strings"
	"unicode/utf8"
)

// readTXT reads a plain text file. Files that are not valid UTF-8 are
// decoded as Latin-1, mirroring the common fallback for legacy exports.
func (r *Reader) readTXT(path string) (Document, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return Document{}, err
	}

	meta := map[string]any{}
	var text string
	if utf8.Valid(raw) {
		text = string(raw)
	} else {
		var b strings.Builder
		b.Grow(len(raw))
		for _, c := range raw {
			b.WriteRune(rune(c))
		}
		text = b.String()
		meta["encoding"] = "latin-1"
	}

	meta["characters"] = len(text)
	meta["lines"] = len(strings.Split(text, "\n"))

	return Document{Text: text, Metadata: meta}, nil
}
