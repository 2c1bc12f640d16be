//go:build !cgo

package witness

import (
	"context"
	"errors"
)

// ErrNoCGO is returned when syntax checking is unavailable due to missing CGO.
var ErrNoCGO = errors.New("witness syntax checking requires CGO (tree-sitter)")

// SyntaxAvailable reports whether CheckSyntax can parse snippets.
func SyntaxAvailable() bool { return false }

// CheckSyntax is unavailable without CGO.
func CheckSyntax(ctx context.Context, source string) error {
	return ErrNoCGO
}
