package diff

import (
	"regexp"
	"strings"
)

var hunkHeaderRegex = regexp.MustCompile(`^@@ -\d+(?:,\d+)? \+\d+(?:,\d+)? @@`)

// CountChanges returns the number of added and removed lines in a single-file patch.
// Only lines inside a hunk are counted, so the "+++"/"---" file headers are ignored.
func CountChanges(patch string) (added, removed int) {
	inHunk := false

	for _, line := range strings.Split(patch, "\n") {
		if strings.HasPrefix(line, "@@") {
			inHunk = hunkHeaderRegex.MatchString(line)
			continue
		}
		if !inHunk {
			continue
		}

		// In a unified diff:
		// ' ' (space) is an unchanged line
		// '+' is an added line
		// '-' is a removed line
		switch {
		case strings.HasPrefix(line, "+"):
			added++
		case strings.HasPrefix(line, "-"):
			removed++
		case strings.HasPrefix(line, " "), strings.HasPrefix(line, `\`), line == "":
			continue
		default:
			// anything else ends the hunk (e.g. extended headers of a following section)
			inHunk = false
		}
	}

	return added, removed
}
