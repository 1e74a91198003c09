// Package core defines the essential interfaces and data structures that form the
// backbone of the application. These components are designed to be abstract,
// allowing for flexible and decoupled implementations of the application's logic.
package core

import (
	"context"
)

// PullRequestSource retrieves pull request data from a source-control host.
// Implementations are bound to a single repository at construction.
//
//go:generate mockgen -destination=../../mocks/mock_pull_request_source.go -package=mocks . PullRequestSource
type PullRequestSource interface {
	// GetPullRequest returns the metadata of pull request id.
	GetPullRequest(ctx context.Context, id int) (*PullRequestInfo, error)
	// GetPullRequestDiff returns the raw unified diff of pull request id.
	// An empty string is a valid result for a pull request without changes.
	GetPullRequestDiff(ctx context.Context, id int) (string, error)
}

// Reviewer submits a rendered diff prompt to a language model and returns its
// structured verdict.
//
//go:generate mockgen -destination=../../mocks/mock_reviewer.go -package=mocks . Reviewer
type Reviewer interface {
	Review(ctx context.Context, prompt, rulesGuide string) (*ReviewDecision, error)
}
