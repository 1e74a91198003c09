// Package diff splits the unified diff of a whole pull request into per-file records.
package diff

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/sevigo/pr-warden/internal/core"
)

// UnknownFilename is assigned when a section header carries no a/ or b/ path.
const UnknownFilename = "unknown"

const sectionMarker = "diff --git"

var (
	// A section starts only at the beginning of a line, so "+diff --git" inside
	// a hunk is treated as content.
	sectionRegex = regexp.MustCompile(`(?m)^diff --git\b`)

	// The destination path is everything after " b/" up to the end of the
	// header line; git leaves spaces unquoted there. Quoted paths use C escapes.
	newPathRegex = regexp.MustCompile(`(?:^|\s)(?:"b/((?:[^"\\]|\\.)*)"|b/(.+))$`)
	oldPathRegex = regexp.MustCompile(`(?:^|\s)(?:"a/((?:[^"\\]|\\.)*)"|a/(\S+))`)
)

// Parse splits raw into one FileDiff per "diff --git" section, in input order.
// Content before the first section is discarded. Parse never fails: a header
// that cannot be read yields UnknownFilename, and empty or header-less input
// yields nil.
func Parse(raw string) []core.FileDiff {
	starts := sectionRegex.FindAllStringIndex(raw, -1)
	if len(starts) == 0 {
		return nil
	}

	files := make([]core.FileDiff, 0, len(starts))
	for i, loc := range starts {
		end := len(raw)
		if i+1 < len(starts) {
			end = starts[i+1][0]
		}

		patch := strings.TrimSpace(raw[loc[0]:end])
		if patch == "" {
			continue
		}

		files = append(files, core.FileDiff{
			Filename: headerFilename(patch),
			Patch:    patch,
		})
	}
	return files
}

// headerFilename extracts the destination path from the section header line,
// falling back to the source path and then to UnknownFilename.
func headerFilename(patch string) string {
	header := patch
	if idx := strings.IndexByte(patch, '\n'); idx >= 0 {
		header = patch[:idx]
	}
	header = strings.TrimSpace(strings.TrimPrefix(header, sectionMarker))
	if header == "" {
		return UnknownFilename
	}

	if name, ok := symmetricPath(header); ok {
		return name
	}
	if name := matchPath(newPathRegex, header); name != "" {
		return name
	}
	if name := matchPath(oldPathRegex, header); name != "" {
		return name
	}
	return UnknownFilename
}

// symmetricPath handles the common unrenamed header "a/P b/P" the way git
// does: split at the midpoint, so that a path containing " b/" stays intact.
func symmetricPath(header string) (string, bool) {
	if len(header)%2 == 0 {
		return "", false
	}
	mid := len(header) / 2
	oldPath, newPath := header[:mid], header[mid+1:]
	if header[mid] != ' ' || !strings.HasPrefix(oldPath, "a/") || !strings.HasPrefix(newPath, "b/") {
		return "", false
	}
	if oldPath[2:] != newPath[2:] || newPath[2:] == "" {
		return "", false
	}
	return newPath[2:], true
}

func matchPath(re *regexp.Regexp, header string) string {
	m := re.FindStringSubmatch(header)
	if len(m) != 3 {
		return ""
	}
	if m[1] != "" {
		if unquoted, err := strconv.Unquote(`"` + m[1] + `"`); err == nil {
			return unquoted
		}
		return m[1]
	}
	return strings.TrimSpace(m[2])
}
