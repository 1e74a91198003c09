package core

import (
	"strings"
	"time"
)

// PullRequestInfo is the host-owned metadata of the pull request under review.
type PullRequestInfo struct {
	ID                int    `json:"id"`
	Title             string `json:"title"`
	AuthorDisplayName string `json:"author"`
	// Description is empty when the author did not provide one.
	Description  string `json:"description,omitempty"`
	SourceBranch string `json:"source_branch,omitempty"`
	TargetBranch string `json:"target_branch,omitempty"`
	URL          string `json:"url,omitempty"`
}

// HasDescription reports whether the pull request carries a non-blank description.
func (p PullRequestInfo) HasDescription() bool {
	return strings.TrimSpace(p.Description) != ""
}

// ReviewRequest is the ordered set of file diffs and the rules guide they are judged against.
type ReviewRequest struct {
	Files      []FileDiff
	RulesGuide string
}

// Filenames returns the file names in review order.
func (r ReviewRequest) Filenames() []string {
	names := make([]string, len(r.Files))
	for i, f := range r.Files {
		names[i] = f.Filename
	}
	return names
}

// ReviewReport is the final artifact of a run.
type ReviewReport struct {
	PullRequest PullRequestInfo `json:"pull_request"`
	Review      ReviewDecision  `json:"review"`
	Files       []string        `json:"files"`
	GeneratedAt time.Time       `json:"generated_at"`
}
