package rag

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// TruncationMarker joins the head and tail of an over-budget source.
const TruncationMarker = "[... content truncated ...]"

// DefaultWordBudget is the per-source truncation budget in words.
const DefaultWordBudget = 8000

// TruncateWords applies the head and tail truncation policy: content at
// or under budget words is returned unchanged; longer content keeps the
// first 80% and last 20% of the budget with the truncation marker in
// between, so the opening framing and the conclusion both survive.
func TruncateWords(content string, budget int) string {
	if budget <= 0 {
		budget = DefaultWordBudget
	}
	words := strings.Fields(content)
	if len(words) <= budget {
		return content
	}

	head := budget * 8 / 10
	tail := budget - head

	var b strings.Builder
	b.WriteString(strings.Join(words[:head], " "))
	b.WriteString("\n\n")
	b.WriteString(TruncationMarker)
	b.WriteString("\n\n")
	b.WriteString(strings.Join(words[len(words)-tail:], " "))
	return b.String()
}

// Assemble renders the sources into a single context block. Each source
// gets a provenance header carrying its 1-based ordinal index, title and
// author; the same index is used by the [Source N] citation convention.
// Contents must already be truncated by the caller.
func Assemble(sources []*Source) string {
	blocks := make([]string, 0, len(sources))
	for i, s := range sources {
		var b strings.Builder
		fmt.Fprintf(&b, "[Source %d] %s (%s)\n", i+1, s.Title, s.Author)
		b.WriteString(s.Content)
		blocks = append(blocks, b.String())
	}
	return strings.Join(blocks, "\n\n")
}

var headerPattern = regexp.MustCompile(`(?m)^\[Source (\d+)\] `)

// ParseHeaders extracts the ordinal indices of the provenance headers in
// a context block, in order of appearance.
func ParseHeaders(contextBlock string) []int {
	matches := headerPattern.FindAllStringSubmatch(contextBlock, -1)
	indices := make([]int, 0, len(matches))
	for _, m := range matches {
		n, err := strconv.Atoi(m[1])
		if err != nil {
			continue
		}
		indices = append(indices, n)
	}
	return indices
}
