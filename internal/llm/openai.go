package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/sevigo/pr-warden/internal/config"
	"github.com/sevigo/pr-warden/internal/core"
)

const (
	defaultOpenAIBaseURL = "https://api.openai.com/v1"
	defaultOpenAIModel   = "gpt-4o"

	// ReviewFunctionName is the only function the model is allowed to call.
	ReviewFunctionName = "submit_review"

	maxErrorBodyLen = 512
)

// OpenAIReviewer implements core.Reviewer against an OpenAI-compatible
// chat-completions endpoint, forcing the answer through a single function call.
type OpenAIReviewer struct {
	apiKey      config.Secret
	model       string
	endpoint    string
	temperature *float64
	prompts     *PromptManager
	client      *http.Client
}

// NewOpenAIReviewer creates a reviewer from the AI section of the configuration.
// The HTTP client's timeout bounds the single model call.
func NewOpenAIReviewer(cfg config.AIConfig, prompts *PromptManager, client *http.Client) *OpenAIReviewer {
	model := cfg.Model
	if model == "" {
		model = defaultOpenAIModel
	}
	baseURL := strings.TrimRight(cfg.BaseURL, "/")
	if baseURL == "" {
		baseURL = defaultOpenAIBaseURL
	}
	if client == nil {
		client = &http.Client{Timeout: cfg.Timeout}
	}

	r := &OpenAIReviewer{
		apiKey:   cfg.APIKey,
		model:    model,
		endpoint: baseURL + "/chat/completions",
		prompts:  prompts,
		client:   client,
	}
	if cfg.Temperature > 0 {
		t := cfg.Temperature
		r.temperature = &t
	}
	return r
}

// Review sends one chat-completions request and decodes the forced function call.
func (o *OpenAIReviewer) Review(ctx context.Context, prompt, rulesGuide string) (*core.ReviewDecision, error) {
	system, err := o.prompts.Render(ReviewSystemPrompt, SystemPromptData{
		RulesGuide:   rulesGuide,
		FunctionName: ReviewFunctionName,
	})
	if err != nil {
		return nil, fmt.Errorf("rendering system prompt: %w", err)
	}

	payload, err := json.Marshal(o.newRequest(system, prompt))
	if err != nil {
		return nil, fmt.Errorf("marshaling request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, o.endpoint, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+o.apiKey.Reveal())

	httpResp, err := o.client.Do(httpReq)
	if err != nil {
		return nil, &core.TransportError{Op: "openai: sending request", Err: err}
	}
	defer httpResp.Body.Close()

	respBody, err := io.ReadAll(httpResp.Body)
	if err != nil {
		return nil, &core.TransportError{Op: "openai: reading response", StatusCode: httpResp.StatusCode, Err: err}
	}

	if httpResp.StatusCode < 200 || httpResp.StatusCode >= 300 {
		return nil, &core.TransportError{
			Op:         "openai: chat completion",
			StatusCode: httpResp.StatusCode,
			Err:        errors.New(truncate(string(respBody), maxErrorBodyLen)),
		}
	}

	var result chatResponse
	if err := json.Unmarshal(respBody, &result); err != nil {
		return nil, &core.TransportError{Op: "openai: parsing response", StatusCode: httpResp.StatusCode, Err: err}
	}

	return decodeResponse(result)
}

func (o *OpenAIReviewer) newRequest(system, prompt string) chatRequest {
	return chatRequest{
		Model: o.model,
		Messages: []chatMessage{
			{Role: "system", Content: system},
			{Role: "user", Content: prompt},
		},
		Tools: []chatTool{{
			Type: "function",
			Function: functionDefinition{
				Name:        ReviewFunctionName,
				Description: "Submit the code review and the merge decision for the pull request.",
				Parameters:  reviewParametersSchema(),
				Strict:      true,
			},
		}},
		ToolChoice: toolChoice{
			Type:     "function",
			Function: toolChoiceFunction{Name: ReviewFunctionName},
		},
		Temperature: o.temperature,
	}
}

func reviewParametersSchema() map[string]any {
	enum := make([]string, len(core.Decisions))
	for i, d := range core.Decisions {
		enum[i] = string(d)
	}
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"review": map[string]any{
				"type":        "string",
				"description": "The full review of the changes in Markdown.",
			},
			"decision": map[string]any{
				"type":        "string",
				"enum":        enum,
				"description": "The merge decision.",
			},
			"reason": map[string]any{
				"type":        "string",
				"description": "A one-sentence justification of the decision.",
			},
		},
		"required":             []string{"review", "decision", "reason"},
		"additionalProperties": false,
	}
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	Tools       []chatTool    `json:"tools"`
	ToolChoice  toolChoice    `json:"tool_choice"`
	Temperature *float64      `json:"temperature,omitempty"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatTool struct {
	Type     string             `json:"type"`
	Function functionDefinition `json:"function"`
}

type functionDefinition struct {
	Name        string         `json:"name"`
	Description string         `json:"description"`
	Parameters  map[string]any `json:"parameters"`
	Strict      bool           `json:"strict"`
}

type toolChoice struct {
	Type     string             `json:"type"`
	Function toolChoiceFunction `json:"function"`
}

type toolChoiceFunction struct {
	Name string `json:"name"`
}

type chatResponse struct {
	Choices []chatChoice `json:"choices"`
}

type chatChoice struct {
	Message      responseMessage `json:"message"`
	FinishReason string          `json:"finish_reason"`
}

type responseMessage struct {
	Content      *string       `json:"content"`
	ToolCalls    []toolCall    `json:"tool_calls"`
	FunctionCall *functionCall `json:"function_call"`
}

type toolCall struct {
	ID       string       `json:"id"`
	Type     string       `json:"type"`
	Function functionCall `json:"function"`
}

type functionCall struct {
	Name      string `json:"name"`
	Arguments string `json:"arguments"`
}
