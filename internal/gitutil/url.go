package gitutil

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

const (
	HostGitHub    = "github"
	HostBitbucket = "bitbucket"
)

var (
	githubPRURLRegex    = regexp.MustCompile(`github\.com/([^/]+)/([^/]+)/pull/(\d+)$`)
	bitbucketPRURLRegex = regexp.MustCompile(`bitbucket\.org/([^/]+)/([^/]+)/pull-requests/(\d+)$`)
)

// PullRequestTarget identifies a pull request on a source-control host.
// For Bitbucket, Owner holds the workspace slug.
type PullRequestTarget struct {
	Host   string
	Owner  string
	Repo   string
	Number int
}

// ParsePullRequestURL parses a pull request URL from GitHub or Bitbucket Cloud.
// Supported formats:
//
//	https://github.com/{owner}/{repo}/pull/{number}
//	https://bitbucket.org/{workspace}/{repo}/pull-requests/{number}
//
// The scheme is optional and a trailing slash is ignored.
func ParsePullRequestURL(url string) (*PullRequestTarget, error) {
	url = strings.TrimSuffix(strings.TrimSpace(url), "/")
	// Bitbucket links often point at a PR tab such as /diff or /overview.
	for _, tab := range []string{"/diff", "/overview", "/commits", "/activity"} {
		url = strings.TrimSuffix(url, tab)
	}

	host := HostGitHub
	matches := githubPRURLRegex.FindStringSubmatch(url)
	if matches == nil {
		host = HostBitbucket
		matches = bitbucketPRURLRegex.FindStringSubmatch(url)
	}
	if len(matches) != 4 {
		return nil, fmt.Errorf("invalid pull request URL format: %s", url)
	}

	number, err := strconv.Atoi(matches[3])
	if err != nil {
		return nil, fmt.Errorf("invalid PR number '%s': %w", matches[3], err)
	}
	if number <= 0 {
		return nil, fmt.Errorf("invalid PR number '%s': must be positive", matches[3])
	}

	return &PullRequestTarget{
		Host:   host,
		Owner:  matches[1],
		Repo:   matches[2],
		Number: number,
	}, nil
}
