// Package diff renders unified diffs between two pieces of snippet code.
package diff

import (
	"fmt"

	"github.com/pmezard/go-difflib/difflib"
)

// Unified returns a unified diff from old to new code with three lines of
// context. fromLabel and toLabel become the ---/+++ header names.
func Unified(oldCode, newCode, fromLabel, toLabel string) (string, error) {
	ud := difflib.UnifiedDiff{
		A:        difflib.SplitLines(oldCode),
		B:        difflib.SplitLines(newCode),
		FromFile: fromLabel,
		ToFile:   toLabel,
		Context:  3,
	}

	text, err := difflib.GetUnifiedDiffString(ud)
	if err != nil {
		return "", fmt.Errorf("diff: rendering unified diff: %w", err)
	}

	return text, nil
}
