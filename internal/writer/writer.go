package writer

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"regexp"
	"strings"
)

// Writer renders processed content into an output directory.
type Writer struct {
	outputDir string
	log       *slog.Logger
}

func New(outputDir string, logger *slog.Logger) (*Writer, error) {
	if outputDir == "" {
		outputDir = "outputs"
	}
	if logger == nil {
		logger = slog.Default()
	}
	if err := os.MkdirAll(outputDir, 0o755); err != nil {
		return nil, fmt.Errorf("create output dir: %w", err)
	}
	return &Writer{outputDir: outputDir, log: logger}, nil
}

// OutputDir returns the directory rendered files are written into.
func (w *Writer) OutputDir() string {
	return w.outputDir
}

// WriteTXT writes content verbatim and returns the full output path.
func (w *Writer) WriteTXT(content, filename string) (string, error) {
	path := filepath.Join(w.outputDir, filename)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		w.log.Error("writer.txt.failed", "path", path, "error", err)
		return "", fmt.Errorf("write txt %s: %w", filename, err)
	}
	w.log.Info("writer.txt.ok", "path", path, "bytes", len(content))
	return path, nil
}

var unsafeFilenameChars = regexp.MustCompile(`[^\w\-.]`)

// OutputFilename builds the standardized output name for a document:
// "<stem>_<kind>.<ext>", with the stem sanitized for the filesystem.
// kind is "plainEnglish" or "summary".
func OutputFilename(originalName, kind, ext string) string {
	stem := strings.TrimSuffix(filepath.Base(originalName), filepath.Ext(originalName))
	stem = unsafeFilenameChars.ReplaceAllString(stem, "_")
	return fmt.Sprintf("%s_%s.%s", stem, kind, ext)
}
