package llm

import (
	"fmt"

	"github.com/plainlegal/plainlegal/internal/chunker"
)

// BuildPlainEnglishPrompt renders the plain-English rewrite prompt for a
// section. Deterministic: fully determined by the section's heading and text.
func BuildPlainEnglishPrompt(section chunker.Section) string {
	return fmt.Sprintf(`Convert the following legal text into plain English that anyone can understand.
Keep all important information and meaning, but use simple words and clear sentences.

Section: %s

Legal Text:
%s

Plain English Version:`, section.Heading, section.Text)
}

// BuildSummaryPrompt renders the bullet-point summary prompt for a section.
func BuildSummaryPrompt(section chunker.Section) string {
	return fmt.Sprintf(`Summarize the following legal text into clear, concise bullet points.
Preserve all legal meaning and important details.

Section: %s

Legal Text:
%s

Bullet-Point Summary:`, section.Heading, section.Text)
}

// BuildPrompt renders the prompt for the given mode.
func BuildPrompt(section chunker.Section, mode Mode) string {
	if mode == ModeSummary {
		return BuildSummaryPrompt(section)
	}
	return BuildPlainEnglishPrompt(section)
}
