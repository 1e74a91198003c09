package llm

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"slices"
	"strings"

	"github.com/sevigo/pr-warden/internal/core"
)

// reviewArgumentFields are the only keys the submit_review schema allows.
// Keys are matched exactly, without the case folding encoding/json applies.
var reviewArgumentFields = []string{"review", "decision", "reason"}

// decodeResponse extracts the submit_review call from the first choice.
func decodeResponse(resp chatResponse) (*core.ReviewDecision, error) {
	if len(resp.Choices) == 0 {
		return nil, &core.ProtocolError{Reason: "no choices in response"}
	}

	call, err := selectFunctionCall(resp.Choices[0].Message)
	if err != nil {
		return nil, err
	}
	return decodeReviewArguments(call.Arguments)
}

func selectFunctionCall(msg responseMessage) (functionCall, error) {
	var call functionCall
	switch {
	case len(msg.ToolCalls) > 0:
		call = msg.ToolCalls[0].Function
	case msg.FunctionCall != nil:
		// legacy "functions" API shape
		call = *msg.FunctionCall
	default:
		return functionCall{}, &core.ProtocolError{Reason: "response contains no function call"}
	}

	if call.Name != ReviewFunctionName {
		return functionCall{}, &core.ProtocolError{Reason: fmt.Sprintf("unexpected function %q, want %q", call.Name, ReviewFunctionName)}
	}
	return call, nil
}

// decodeReviewArguments decodes the JSON-encoded arguments strictly: unknown,
// case-variant, duplicate and missing keys, non-string values, trailing data
// and out-of-vocabulary decisions all fail.
func decodeReviewArguments(raw string) (*core.ReviewDecision, error) {
	fields, err := readArgumentObject(raw)
	if err != nil {
		return nil, err
	}

	values := make(map[string]string, len(reviewArgumentFields))
	for _, name := range reviewArgumentFields {
		value, ok := fields[name]
		if !ok {
			return nil, &core.ProtocolError{Reason: fmt.Sprintf("missing field %q", name)}
		}
		var s *string
		if err := json.Unmarshal(value, &s); err != nil {
			return nil, &core.ProtocolError{Reason: fmt.Sprintf("field %q is not a string", name), Err: err}
		}
		if s == nil {
			return nil, &core.ProtocolError{Reason: fmt.Sprintf("missing field %q", name)}
		}
		values[name] = *s
	}

	decision, err := core.ParseDecision(values["decision"])
	if err != nil {
		return nil, &core.ProtocolError{Reason: "decision outside vocabulary", Err: err}
	}

	return &core.ReviewDecision{
		ReviewText: core.FormatReviewText(values["review"], decision, values["reason"]),
		Decision:   decision,
		Reason:     values["reason"],
	}, nil
}

// readArgumentObject walks the top-level object key by key so that duplicate
// and non-schema keys are seen before encoding/json could merge them.
func readArgumentObject(raw string) (map[string]json.RawMessage, error) {
	dec := json.NewDecoder(strings.NewReader(raw))

	tok, err := dec.Token()
	if err != nil {
		return nil, &core.ProtocolError{Reason: "invalid function arguments", Err: err}
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return nil, &core.ProtocolError{Reason: "function arguments are not a JSON object"}
	}

	fields := make(map[string]json.RawMessage, len(reviewArgumentFields))
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return nil, &core.ProtocolError{Reason: "invalid function arguments", Err: err}
		}
		key, _ := tok.(string)
		if !slices.Contains(reviewArgumentFields, key) {
			return nil, &core.ProtocolError{Reason: fmt.Sprintf("unknown field %q", key)}
		}
		if _, dup := fields[key]; dup {
			return nil, &core.ProtocolError{Reason: fmt.Sprintf("duplicate field %q", key)}
		}

		var value json.RawMessage
		if err := dec.Decode(&value); err != nil {
			return nil, &core.ProtocolError{Reason: "invalid function arguments", Err: err}
		}
		fields[key] = value
	}

	if _, err := dec.Token(); err != nil {
		return nil, &core.ProtocolError{Reason: "invalid function arguments", Err: err}
	}
	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		return nil, &core.ProtocolError{Reason: "unexpected data after function arguments"}
	}
	return fields, nil
}
