package core

import (
	"fmt"
	"strings"
)

// Decision is the merge verdict the model must pick for a pull request.
type Decision string

const (
	DecisionApprove             Decision = "APPROVE"
	DecisionApproveWithComments Decision = "APPROVE_WITH_COMMENTS"
	DecisionDecline             Decision = "DECLINE"
)

// Decisions lists every accepted decision in schema order.
var Decisions = []Decision{DecisionApprove, DecisionApproveWithComments, DecisionDecline}

// ParseDecision returns the Decision named by s. The match is exact; values
// outside the vocabulary are rejected rather than mapped to a default.
func ParseDecision(s string) (Decision, error) {
	for _, d := range Decisions {
		if string(d) == s {
			return d, nil
		}
	}
	return "", fmt.Errorf("unknown decision %q (want one of %s)", s, decisionList())
}

// UnmarshalText implements encoding.TextUnmarshaler with the same strictness as ParseDecision.
func (d *Decision) UnmarshalText(text []byte) error {
	parsed, err := ParseDecision(string(text))
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

// IsValid reports whether d is one of the enumerated decisions.
func (d Decision) IsValid() bool {
	_, err := ParseDecision(string(d))
	return err == nil
}

func decisionList() string {
	names := make([]string, len(Decisions))
	for i, d := range Decisions {
		names[i] = string(d)
	}
	return strings.Join(names, ", ")
}

// FileDiff is the slice of a unified diff that belongs to a single file.
type FileDiff struct {
	Filename string `json:"filename"`
	// Patch starts with the file's "diff --git" header line.
	Patch string `json:"patch"`
}

// ReviewDecision is the decoded result of the structured model call.
type ReviewDecision struct {
	// ReviewText is the review body followed by the DECISION/REASON trailer.
	ReviewText string   `json:"review_text"`
	Decision   Decision `json:"decision"`
	Reason     string   `json:"reason"`
}

// FormatReviewText joins the review body with the three-line decision trailer.
func FormatReviewText(body string, decision Decision, reason string) string {
	return fmt.Sprintf("%s\n\nDECISION: %s\nREASON: %s", body, decision, reason)
}
