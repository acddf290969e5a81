package rag

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/scholarstream/scholarstream/internal/persona"
)

func TestComposeNeutralStance(t *testing.T) {
	prompt := Compose("[Source 1] t (a)\nbody", persona.Neutral(), "what is fasting?")

	assert.Contains(t, prompt.SystemInstruction, "neutral analyst")
	assert.Contains(t, prompt.SystemInstruction, "[Source 1] t (a)\nbody")
	assert.Contains(t, prompt.SystemInstruction, "[Source 1]")
	assert.Contains(t, prompt.SystemInstruction, persona.DefaultFallback)
	assert.Equal(t, "what is fasting?", prompt.UserMessage)
}

func TestComposeFigureStance(t *testing.T) {
	p := &persona.Persona{
		Name:        "fung",
		DisplayName: "Dr. Jason Fung",
		Voice:       persona.VoiceFigure,
		Description: "Nephrologist focused on fasting.",
		Fallback:    "I haven't covered that in my lectures.",
	}

	prompt := Compose("context", p, "question")

	assert.Contains(t, prompt.SystemInstruction, "You are Dr. Jason Fung")
	assert.Contains(t, prompt.SystemInstruction, "Nephrologist focused on fasting.")
	assert.Contains(t, prompt.SystemInstruction, "I haven't covered that in my lectures.")
	assert.NotContains(t, prompt.SystemInstruction, "neutral analyst")
}

func TestComposeIsPure(t *testing.T) {
	p := persona.Neutral()
	first := Compose("ctx", p, "q")
	second := Compose("ctx", p, "q")

	assert.Equal(t, first, second)
}
