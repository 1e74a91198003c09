package llm

import (
	"strings"

	"github.com/sevigo/pr-warden/internal/core"
)

// BuildUserPrompt renders the file diffs as labeled, fenced blocks separated by
// a blank line. The output depends only on files, in their given order; no
// block is dropped, merged or shortened.
func BuildUserPrompt(files []core.FileDiff) string {
	var b strings.Builder
	for i, f := range files {
		if i > 0 {
			b.WriteString("\n\n")
		}
		b.WriteString("File: ")
		b.WriteString(f.Filename)
		b.WriteString("\n```diff\n")
		b.WriteString(f.Patch)
		b.WriteString("\n```")
	}
	return b.String()
}
