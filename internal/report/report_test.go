package report

import (
	"bytes"
	"encoding/json"
	"testing"
	"time"

	"github.com/fatih/color"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sevigo/pr-warden/internal/core"
)

func sampleReport() *core.ReviewReport {
	return &core.ReviewReport{
		PullRequest: core.PullRequestInfo{
			ID:                42,
			Title:             "Use let",
			AuthorDisplayName: "Jane Doe",
			SourceBranch:      "feature/let",
			TargetBranch:      "main",
		},
		Review: core.ReviewDecision{
			ReviewText: core.FormatReviewText("Looks fine", core.DecisionApprove, "no issues"),
			Decision:   core.DecisionApprove,
			Reason:     "no issues",
		},
		Files:       []string{"foo.js"},
		GeneratedAt: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC),
	}
}

func disableColor(t *testing.T) {
	t.Helper()
	prev := color.NoColor
	color.NoColor = true
	t.Cleanup(func() { color.NoColor = prev })
}

func TestWrite_Text(t *testing.T) {
	disableColor(t)

	var buf bytes.Buffer
	require.NoError(t, Write(&buf, sampleReport(), Options{Format: FormatText}))
	out := buf.String()

	assert.Contains(t, out, "Pull Request #42: Use let")
	assert.Contains(t, out, "Author: Jane Doe")
	assert.Contains(t, out, "Branches: feature/let -> main")
	assert.Contains(t, out, "Description:\n"+noDescription)
	assert.Contains(t, out, "  - foo.js")
	assert.Contains(t, out, "Looks fine\n\nDECISION: APPROVE\nREASON: no issues")
	assert.NotContains(t, out, "\x1b[")
}

func TestWrite_TextWithDescription(t *testing.T) {
	disableColor(t)

	r := sampleReport()
	r.PullRequest.Description = "Replaces var with let."

	var buf bytes.Buffer
	require.NoError(t, Write(&buf, r, Options{}))
	assert.Contains(t, buf.String(), "Description:\nReplaces var with let.")
	assert.NotContains(t, buf.String(), noDescription)
}

func TestWrite_Pretty(t *testing.T) {
	disableColor(t)

	r := sampleReport()
	r.Review.ReviewText = core.FormatReviewText("## Summary\n\n- rename `x`", core.DecisionApproveWithComments, "naming")
	r.Review.Decision = core.DecisionApproveWithComments
	r.Review.Reason = "naming"

	var buf bytes.Buffer
	require.NoError(t, Write(&buf, r, Options{Pretty: true, GlamourStyle: "notty", Width: 80}))
	out := buf.String()

	assert.Contains(t, out, "Summary")
	assert.Contains(t, out, "rename")
	assert.Contains(t, out, "APPROVE_WITH_COMMENTS")
}

func TestWrite_JSON(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Write(&buf, sampleReport(), Options{Format: FormatJSON}))

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &decoded))

	pr, ok := decoded["pull_request"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, float64(42), pr["id"])
	assert.Equal(t, "Jane Doe", pr["author"])

	review, ok := decoded["review"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "APPROVE", review["decision"])
	assert.Equal(t, []any{"foo.js"}, decoded["files"])
	assert.Equal(t, "2026-03-01T12:00:00Z", decoded["generated_at"])
}

func TestParseFormat(t *testing.T) {
	f, err := ParseFormat("JSON")
	require.NoError(t, err)
	assert.Equal(t, FormatJSON, f)

	f, err = ParseFormat("")
	require.NoError(t, err)
	assert.Equal(t, FormatText, f)

	_, err = ParseFormat("xml")
	assert.Error(t, err)
}
