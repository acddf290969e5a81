// Package markdown normalizes markdown documents to plain text before
// they are placed into the generation context.
package markdown

import (
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/text"
)

var parser = goldmark.New()

// ToPlainText strips markdown formatting from content, keeping the
// readable text. Block boundaries become blank lines so the word
// segmentation downstream stays stable.
func ToPlainText(content string) string {
	source := []byte(content)
	root := parser.Parser().Parse(text.NewReader(source))

	var blocks []string
	var current strings.Builder

	flush := func() {
		if block := strings.TrimSpace(current.String()); block != "" {
			blocks = append(blocks, block)
		}
		current.Reset()
	}

	_ = ast.Walk(root, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			if _, ok := n.(*ast.ListItem); ok {
				flush()
			}
			return ast.WalkContinue, nil
		}

		switch node := n.(type) {
		case *ast.Text:
			current.Write(node.Segment.Value(source))
			if node.SoftLineBreak() || node.HardLineBreak() {
				current.WriteByte(' ')
			}
		case *ast.String:
			current.Write(node.Value)
		case *ast.CodeBlock:
			flush()
			blocks = append(blocks, segmentText(node, source))
			return ast.WalkSkipChildren, nil
		case *ast.FencedCodeBlock:
			flush()
			blocks = append(blocks, segmentText(node, source))
			return ast.WalkSkipChildren, nil
		case *ast.Image:
			return ast.WalkSkipChildren, nil
		case *ast.Heading, *ast.Paragraph, *ast.Blockquote, *ast.List:
			flush()
		case *ast.ThematicBreak, *ast.HTMLBlock:
			flush()
			return ast.WalkSkipChildren, nil
		}
		return ast.WalkContinue, nil
	})
	flush()

	return strings.Join(blocks, "\n\n")
}

func segmentText(n ast.Node, source []byte) string {
	var b strings.Builder
	lines := n.Lines()
	for i := 0; i < lines.Len(); i++ {
		seg := lines.At(i)
		b.Write(seg.Value(source))
	}
	return strings.TrimRight(b.String(), "\n")
}
