package llm

import (
	"bytes"
	"embed"
	"fmt"
	"io/fs"
	"path"
	"strings"
	"text/template"
)

//go:embed prompts/*.prompt
var promptFiles embed.FS

// PromptKey names a template under prompts/, without the .prompt extension.
type PromptKey string

const ReviewSystemPrompt PromptKey = "review_system"

// SystemPromptData is the input of the review system prompt.
type SystemPromptData struct {
	RulesGuide   string
	FunctionName string
}

// PromptManager holds the parsed prompt templates. Templates are immutable
// after construction, so a manager is safe for concurrent use.
type PromptManager struct {
	prompts map[PromptKey]*template.Template
}

func NewPromptManager() (*PromptManager, error) {
	sub, err := fs.Sub(promptFiles, "prompts")
	if err != nil {
		return nil, fmt.Errorf("failed to open embedded prompts: %w", err)
	}
	return loadPrompts(sub)
}

func loadPrompts(fsys fs.FS) (*PromptManager, error) {
	names, err := fs.Glob(fsys, "*.prompt")
	if err != nil {
		return nil, fmt.Errorf("failed to list prompts: %w", err)
	}

	pm := &PromptManager{prompts: make(map[PromptKey]*template.Template, len(names))}
	for _, name := range names {
		content, err := fs.ReadFile(fsys, name)
		if err != nil {
			return nil, fmt.Errorf("failed to read prompt %s: %w", name, err)
		}
		key := PromptKey(strings.TrimSuffix(name, path.Ext(name)))
		tmpl, err := template.New(string(key)).Option("missingkey=error").Parse(string(content))
		if err != nil {
			return nil, fmt.Errorf("failed to parse prompt %s: %w", name, err)
		}
		pm.prompts[key] = tmpl
	}

	if _, ok := pm.prompts[ReviewSystemPrompt]; !ok {
		return nil, fmt.Errorf("prompt %q not found", ReviewSystemPrompt)
	}
	return pm, nil
}

// Render executes the template for key. Both fields of data must be set; an
// empty rules guide or function name would leave the model without guidance.
func (pm *PromptManager) Render(key PromptKey, data SystemPromptData) (string, error) {
	tmpl, ok := pm.prompts[key]
	if !ok {
		return "", fmt.Errorf("no prompt registered for key %q", key)
	}
	if strings.TrimSpace(data.RulesGuide) == "" || data.FunctionName == "" {
		return "", fmt.Errorf("prompt %q needs a rules guide and a function name", key)
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("failed to render prompt %q: %w", key, err)
	}
	return buf.String(), nil
}
