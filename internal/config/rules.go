package config

import (
	"bytes"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/sevigo/pr-warden/internal/core"
)

var (
	ErrRulesEmpty   = errors.New("rules guide is empty")
	ErrRulesParsing = errors.New("rules file parsing failed")
)

// LoadRulesGuide reads the review rules guide at path. Plain files are used
// verbatim; .yml/.yaml files are decoded as core.RulesFile and rendered as the
// guide text followed by a bullet list of rules. Any failure is fatal: there is
// no built-in default guide.
func LoadRulesGuide(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", &core.ConfigurationError{Key: "rules.path", Reason: "failed to read review rules file " + path, Err: err}
	}

	guide := string(data)
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yml", ".yaml":
		guide, err = renderRulesFile(data)
		if err != nil {
			return "", &core.ConfigurationError{Key: "rules.path", Reason: "invalid rules file " + path, Err: err}
		}
	}

	guide = strings.TrimSpace(guide)
	if guide == "" {
		return "", &core.ConfigurationError{Key: "rules.path", Reason: path, Err: ErrRulesEmpty}
	}
	return guide, nil
}

func renderRulesFile(data []byte) (string, error) {
	var rf core.RulesFile
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&rf); err != nil && !errors.Is(err, io.EOF) {
		return "", errors.Join(ErrRulesParsing, err)
	}

	var rules []string
	for _, r := range rf.Rules {
		if r = strings.TrimSpace(r); r != "" {
			rules = append(rules, r)
		}
	}

	var b strings.Builder
	b.WriteString(strings.TrimSpace(rf.Guide))
	if len(rules) > 0 {
		if b.Len() > 0 {
			b.WriteString("\n\n")
		}
		b.WriteString("Rules:")
		for _, r := range rules {
			b.WriteString("\n- ")
			b.WriteString(r)
		}
	}
	return b.String(), nil
}
