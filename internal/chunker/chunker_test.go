package chunker

import (
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestChunk_SingleSectionShortcut(t *testing.T) {
	text := "A short agreement between two parties."
	sections, err := Chunk(text, 6000)
	require.NoError(t, err)
	require.Len(t, sections, 1)
	assert.Equal(t, text, sections[0].Text)
	assert.Equal(t, "Full Document", sections[0].Heading)
	assert.Equal(t, 0, sections[0].Index)
}

func TestChunk_EmptyInput(t *testing.T) {
	sections, err := Chunk("", 6000)
	assert.ErrorIs(t, err, ErrEmptyDocument)
	assert.Nil(t, sections)

	sections, err = Chunk("   \n\n\t  ", 6000)
	assert.ErrorIs(t, err, ErrEmptyDocument)
	assert.Nil(t, sections)
}

func TestChunk_ParagraphBoundaries(t *testing.T) {
	sections, err := Chunk("Para one.\n\nPara two.\n\nPara three.", 15)
	require.NoError(t, err)
	require.Len(t, sections, 3)

	assert.Equal(t, "Para one.", sections[0].Text)
	assert.Equal(t, "Para two.", sections[1].Text)
	assert.Equal(t, "Para three.", sections[2].Text)

	for i, s := range sections {
		assert.Equal(t, i, s.Index)
		assert.Equal(t, fmt.Sprintf("Document Section %d", i+1), s.Heading)
	}
}

func TestChunk_AccumulatesUpToBudget(t *testing.T) {
	paras := []string{
		strings.Repeat("a", 30),
		strings.Repeat("b", 30),
		strings.Repeat("c", 30),
		strings.Repeat("d", 30),
	}
	text := strings.Join(paras, "\n\n")

	sections, err := Chunk(text, 70)
	require.NoError(t, err)
	require.Len(t, sections, 2)
	assert.Equal(t, paras[0]+"\n\n"+paras[1], sections[0].Text)
	assert.Equal(t, paras[2]+"\n\n"+paras[3], sections[1].Text)
}

func TestChunk_SizeInvariant(t *testing.T) {
	// Mixed paragraph lengths, including one far over budget.
	paras := []string{
		strings.Repeat("x", 40),
		strings.Repeat("y", 500), // oversized singleton
		strings.Repeat("z", 10),
		strings.Repeat("w", 90),
		strings.Repeat("v", 25),
	}
	const maxChars = 100
	text := strings.Join(paras, "\n\n")

	sections, err := Chunk(text, maxChars)
	require.NoError(t, err)

	for _, s := range sections {
		if len(s.Text) > maxChars {
			// Oversized sections must consist of exactly one paragraph.
			assert.NotContains(t, s.Text, "\n\n",
				"oversized section %d must be a single paragraph", s.Index)
		}
	}
}

func TestChunk_CoverageAndOrder(t *testing.T) {
	paras := []string{
		"First clause of the contract.",
		"Second clause with more words in it.",
		"Third clause.",
		"Fourth and final clause, which is the longest of them all.",
	}
	text := strings.Join(paras, "\n\n")

	sections, err := Chunk(text, 40)
	require.NoError(t, err)
	require.NotEmpty(t, sections)

	// Index values are 0..n-1 with no gaps.
	for i, s := range sections {
		assert.Equal(t, i, s.Index)
	}

	// Rejoining sections reconstructs the original trimmed text.
	parts := make([]string, len(sections))
	for i, s := range sections {
		parts[i] = s.Text
	}
	assert.Equal(t, text, strings.Join(parts, "\n\n"))
}

func TestChunk_OversizedSingleParagraph(t *testing.T) {
	big := strings.Repeat("long paragraph ", 50) // ~750 chars, no blank lines
	text := big + "\n\n" + "short tail."

	sections, err := Chunk(strings.TrimSpace(text), 100)
	require.NoError(t, err)
	require.Len(t, sections, 2)
	assert.Equal(t, strings.TrimSpace(big), sections[0].Text)
	assert.Greater(t, len(sections[0].Text), 100)
	assert.Equal(t, "short tail.", sections[1].Text)
}

func TestChunk_DefaultBudget(t *testing.T) {
	sections, err := Chunk("tiny", 0)
	require.NoError(t, err)
	require.Len(t, sections, 1)
	assert.Equal(t, "Full Document", sections[0].Heading)
}

func TestChunk_Deterministic(t *testing.T) {
	text := strings.Repeat("Clause alpha.\n\nClause beta.\n\n", 20)
	a, err := Chunk(text, 60)
	require.NoError(t, err)
	b, err := Chunk(text, 60)
	require.NoError(t, err)
	assert.Equal(t, a, b)
}
