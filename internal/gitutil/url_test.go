package gitutil

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParsePullRequestURL(t *testing.T) {
	tests := []struct {
		name    string
		url     string
		want    PullRequestTarget
		wantErr bool
	}{
		{
			name: "Valid GitHub HTTPS URL",
			url:  "https://github.com/sevigo/pr-warden/pull/123",
			want: PullRequestTarget{Host: HostGitHub, Owner: "sevigo", Repo: "pr-warden", Number: 123},
		},
		{
			name: "Valid GitHub URL without scheme",
			url:  "github.com/sevigo/pr-warden/pull/456",
			want: PullRequestTarget{Host: HostGitHub, Owner: "sevigo", Repo: "pr-warden", Number: 456},
		},
		{
			name: "GitHub URL with trailing slash",
			url:  "https://github.com/sevigo/pr-warden/pull/789/",
			want: PullRequestTarget{Host: HostGitHub, Owner: "sevigo", Repo: "pr-warden", Number: 789},
		},
		{
			name: "Valid Bitbucket URL",
			url:  "https://bitbucket.org/acme/payments/pull-requests/42",
			want: PullRequestTarget{Host: HostBitbucket, Owner: "acme", Repo: "payments", Number: 42},
		},
		{
			name: "Bitbucket URL pointing at the diff tab",
			url:  "https://bitbucket.org/acme/payments/pull-requests/42/diff",
			want: PullRequestTarget{Host: HostBitbucket, Owner: "acme", Repo: "payments", Number: 42},
		},
		{
			name:    "Invalid PR ID",
			url:     "https://github.com/sevigo/pr-warden/pull/abc",
			wantErr: true,
		},
		{
			name:    "Zero PR ID",
			url:     "https://bitbucket.org/acme/payments/pull-requests/0",
			wantErr: true,
		},
		{
			name:    "Invalid format (missing pull)",
			url:     "https://github.com/sevigo/pr-warden/issues/123",
			wantErr: true,
		},
		{
			name:    "Invalid format (too many segments)",
			url:     "https://github.com/sevigo/pr-warden/pull/123/files",
			wantErr: true,
		},
		{
			name:    "Unsupported host",
			url:     "https://gitlab.com/acme/payments/-/merge_requests/3",
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParsePullRequestURL(tt.url)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, *got)
		})
	}
}
