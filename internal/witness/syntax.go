//go:build cgo

package witness

import (
	"context"
	"fmt"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/rust"
)

// SyntaxAvailable reports whether CheckSyntax can parse snippets.
func SyntaxAvailable() bool { return true }

// CheckSyntax parses a Rust snippet and reports the first syntax error.
func CheckSyntax(ctx context.Context, source string) error {
	parser := sitter.NewParser()
	parser.SetLanguage(rust.GetLanguage())

	content := []byte(source)
	tree, err := parser.ParseCtx(ctx, nil, content)
	if err != nil {
		return fmt.Errorf("parse error: %w", err)
	}
	defer tree.Close()

	root := tree.RootNode()
	if !root.HasError() {
		return nil
	}
	if n := firstError(root, 0); n != nil {
		p := n.StartPoint()
		if n.IsMissing() {
			return fmt.Errorf("invalid Rust at %d:%d: missing %s", p.Row+1, p.Column+1, n.Type())
		}
		return fmt.Errorf("invalid Rust at %d:%d: unexpected %q", p.Row+1, p.Column+1, truncate(n.Content(content), 40))
	}
	return fmt.Errorf("invalid Rust")
}

// firstError returns the first ERROR or MISSING node in document order.
func firstError(node *sitter.Node, depth int) *sitter.Node {
	if depth > 1000 {
		return nil
	}
	if node.IsError() || node.IsMissing() {
		return node
	}
	for i := 0; i < int(node.ChildCount()); i++ {
		if n := firstError(node.Child(i), depth+1); n != nil {
			return n
		}
	}
	return nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
