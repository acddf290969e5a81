package rag

import (
	"fmt"
	"strings"

	"github.com/scholarstream/scholarstream/internal/persona"
)

// Prompt is the composed pair sent to the generation service.
type Prompt struct {
	SystemInstruction string
	UserMessage       string
}

// Compose embeds the context block into the instruction template for the
// selected stance. Pure function of its inputs.
func Compose(contextBlock string, p *persona.Persona, question string) Prompt {
	var b strings.Builder

	switch p.Voice {
	case persona.VoiceFigure:
		fmt.Fprintf(&b, "You are %s, answering in the first person in your own voice.\n", p.DisplayName)
		if p.Description != "" {
			b.WriteString(p.Description)
			b.WriteString("\n")
		}
	default:
		b.WriteString("You are a neutral analyst summarizing the supplied material.\n")
	}

	b.WriteString("\nAnswer using only the sources below. Do not draw on outside knowledge.\n")
	b.WriteString("Cite every claim with the marker of the source it came from, e.g. [Source 1].\n")
	fmt.Fprintf(&b, "If the sources do not cover the question, reply exactly: %q\n", p.FallbackUtterance())
	b.WriteString("\nSources:\n\n")
	b.WriteString(contextBlock)

	return Prompt{
		SystemInstruction: b.String(),
		UserMessage:       question,
	}
}
