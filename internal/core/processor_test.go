package core

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/plainlegal/plainlegal/internal/llm"
	"github.com/plainlegal/plainlegal/internal/pipeline"
	"github.com/plainlegal/plainlegal/internal/reader"
	"github.com/plainlegal/plainlegal/internal/writer"
)

type echoGateway struct{}

func (echoGateway) Complete(_ context.Context, req llm.CompletionRequest) (llm.Completion, error) {
	if strings.Contains(req.Prompt, "Bullet-Point Summary:") {
		return llm.Completion{Text: "• A clear and sufficiently long bullet point for the section.", Model: "stub"}, nil
	}
	return llm.Completion{Text: "A plain English paragraph long enough to pass output validation checks.", Model: "stub"}, nil
}

func TestProcessDocument_TXTEndToEnd(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "lease.txt")
	require.NoError(t, os.WriteFile(src, []byte("Clause one.\n\nClause two."), 0o644))

	wr, err := writer.New(filepath.Join(dir, "out"), nil)
	require.NoError(t, err)

	p := NewProcessor(nil, reader.New(nil), pipeline.New(echoGateway{}, nil), wr)
	res, err := p.ProcessDocument(context.Background(), src, "lease.txt", pipeline.Options{MaxSectionChars: 15})
	require.NoError(t, err)

	assert.Equal(t, 2, res.Sections)
	assert.Empty(t, res.Failures)
	assert.FileExists(t, res.PlainPath)
	assert.FileExists(t, res.SummaryPath)
	assert.Equal(t, "lease_plainEnglish.docx", filepath.Base(res.PlainPath))
	assert.Equal(t, "lease_summary.docx", filepath.Base(res.SummaryPath))
}

func TestProcessDocument_EmptyInputCompletes(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "empty.txt")
	require.NoError(t, os.WriteFile(src, []byte("   \n"), 0o644))

	wr, err := writer.New(filepath.Join(dir, "out"), nil)
	require.NoError(t, err)

	p := NewProcessor(nil, reader.New(nil), pipeline.New(echoGateway{}, nil), wr)
	res, err := p.ProcessDocument(context.Background(), src, "empty.txt", pipeline.Options{})
	require.NoError(t, err)
	assert.Zero(t, res.Sections)
	assert.FileExists(t, res.PlainPath)
}

func TestProcessDocument_ReadFailure(t *testing.T) {
	dir := t.TempDir()
	wr, err := writer.New(filepath.Join(dir, "out"), nil)
	require.NoError(t, err)

	p := NewProcessor(nil, reader.New(nil), pipeline.New(echoGateway{}, nil), wr)
	_, err = p.ProcessDocument(context.Background(), filepath.Join(dir, "missing.txt"), "missing.txt", pipeline.Options{})
	require.Error(t, err)
}
