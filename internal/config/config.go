package config

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/sevigo/pr-warden/internal/core"
	"github.com/sevigo/pr-warden/internal/logger"
)

const (
	HostBitbucket = "bitbucket"
	HostGitHub    = "github"

	envPrefix = "PRW"
)

// Config holds the application's configuration values. It is built once per
// run and passed explicitly to the components that need it.
type Config struct {
	Host      string          `mapstructure:"host"`
	PR        int             `mapstructure:"pr"`
	Bitbucket BitbucketConfig `mapstructure:"bitbucket"`
	GitHub    GitHubConfig    `mapstructure:"github"`
	AI        AIConfig        `mapstructure:"ai"`
	HTTP      HTTPConfig      `mapstructure:"http"`
	Rules     RulesConfig     `mapstructure:"rules"`
	Logging   logger.Config   `mapstructure:"logging"`
}

// BitbucketConfig identifies the Bitbucket Cloud repository and its credentials.
// Either Token or Username plus AppPassword must be set.
type BitbucketConfig struct {
	Workspace   string  `mapstructure:"workspace"`
	Repo        string  `mapstructure:"repo"`
	Token       Secret  `mapstructure:"token"`
	Username    string  `mapstructure:"username"`
	AppPassword Secret  `mapstructure:"app_password"`
	APIURL      string  `mapstructure:"api_url"`
	RateLimit   float64 `mapstructure:"rate_limit"`
}

// GitHubConfig identifies the GitHub repository and its token.
type GitHubConfig struct {
	Owner  string `mapstructure:"owner"`
	Repo   string `mapstructure:"repo"`
	Token  Secret `mapstructure:"token"`
	APIURL string `mapstructure:"api_url"`
}

// AIConfig configures the OpenAI-compatible model endpoint.
type AIConfig struct {
	APIKey      Secret        `mapstructure:"api_key"`
	Model       string        `mapstructure:"model"`
	BaseURL     string        `mapstructure:"base_url"`
	Temperature float64       `mapstructure:"temperature"`
	Timeout     time.Duration `mapstructure:"timeout"`
}

// HTTPConfig configures the source-control host HTTP client.
type HTTPConfig struct {
	Timeout time.Duration `mapstructure:"timeout"`
}

// RulesConfig points at the review rules guide.
type RulesConfig struct {
	Path string `mapstructure:"path"`
}

// SetDefaults registers every known key. Viper only maps environment variables
// onto keys it knows about when unmarshaling, so secrets default to "".
func SetDefaults(v *viper.Viper) {
	v.SetDefault("host", HostBitbucket)
	v.SetDefault("pr", 0)

	v.SetDefault("bitbucket.workspace", "")
	v.SetDefault("bitbucket.repo", "")
	v.SetDefault("bitbucket.token", "")
	v.SetDefault("bitbucket.username", "")
	v.SetDefault("bitbucket.app_password", "")
	v.SetDefault("bitbucket.api_url", "https://api.bitbucket.org/2.0")
	v.SetDefault("bitbucket.rate_limit", 5.0)

	v.SetDefault("github.owner", "")
	v.SetDefault("github.repo", "")
	v.SetDefault("github.token", "")
	v.SetDefault("github.api_url", "")

	v.SetDefault("ai.api_key", "")
	v.SetDefault("ai.model", "gpt-4o")
	v.SetDefault("ai.base_url", "https://api.openai.com/v1")
	v.SetDefault("ai.temperature", 0.0)
	v.SetDefault("ai.timeout", 2*time.Minute)

	v.SetDefault("http.timeout", 30*time.Second)
	v.SetDefault("rules.path", "REVIEW_RULES.md")

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "tint")
	v.SetDefault("logging.output", "stderr")
}

// LoadConfig reads configuration from environment variables and an optional
// YAML file into v, then decodes it into a Config. configFile may be empty, in
// which case ./.pr-warden.yaml is used when present. Flags bound to v before
// the call take precedence over both.
func LoadConfig(v *viper.Viper, configFile string) (*Config, error) {
	SetDefaults(v)

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()

	// Well-known variable names used by CI systems, in addition to the PRW_ ones.
	bindings := map[string][]string{
		"ai.api_key":             {"PRW_AI_API_KEY", "OPENAI_API_KEY"},
		"github.token":           {"PRW_GITHUB_TOKEN", "GITHUB_TOKEN"},
		"bitbucket.token":        {"PRW_BITBUCKET_TOKEN", "BITBUCKET_TOKEN"},
		"bitbucket.workspace":    {"PRW_BITBUCKET_WORKSPACE", "BITBUCKET_WORKSPACE"},
		"bitbucket.repo":         {"PRW_BITBUCKET_REPO", "BITBUCKET_REPO_SLUG"},
		"bitbucket.app_password": {"PRW_BITBUCKET_APP_PASSWORD", "BITBUCKET_APP_PASSWORD"},
		"pr":                     {"PRW_PR", "BITBUCKET_PR_ID"},
	}
	for key, envs := range bindings {
		if err := v.BindEnv(append([]string{key}, envs...)...); err != nil {
			return nil, fmt.Errorf("failed to bind env for %s: %w", key, err)
		}
	}

	if configFile != "" {
		v.SetConfigFile(configFile)
		if err := v.ReadInConfig(); err != nil {
			return nil, &core.ConfigurationError{Key: "config", Reason: "failed to read config file " + configFile, Err: err}
		}
	} else {
		v.SetConfigName(".pr-warden")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) {
				return nil, &core.ConfigurationError{Key: "config", Reason: "failed to read .pr-warden.yaml", Err: err}
			}
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, &core.ConfigurationError{Key: "config", Reason: "failed to decode configuration", Err: err}
	}
	cfg.Host = strings.ToLower(strings.TrimSpace(cfg.Host))
	return &cfg, nil
}

// Validate checks that everything needed to reach the host and the model is
// present. It reports the first problem as a *core.ConfigurationError.
func (c *Config) Validate() error {
	missing := func(key string) error {
		return &core.ConfigurationError{Key: key, Reason: "must be set"}
	}

	switch c.Host {
	case HostBitbucket:
		if c.Bitbucket.Workspace == "" {
			return missing("bitbucket.workspace")
		}
		if c.Bitbucket.Repo == "" {
			return missing("bitbucket.repo")
		}
		if c.Bitbucket.Token.IsZero() {
			if c.Bitbucket.Username == "" || c.Bitbucket.AppPassword.IsZero() {
				return &core.ConfigurationError{Key: "bitbucket.token", Reason: "must be set, or both bitbucket.username and bitbucket.app_password"}
			}
		}
		if c.Bitbucket.RateLimit < 0 {
			return &core.ConfigurationError{Key: "bitbucket.rate_limit", Reason: "must not be negative"}
		}
	case HostGitHub:
		if c.GitHub.Owner == "" {
			return missing("github.owner")
		}
		if c.GitHub.Repo == "" {
			return missing("github.repo")
		}
		if c.GitHub.Token.IsZero() {
			return missing("github.token")
		}
	default:
		return &core.ConfigurationError{Key: "host", Reason: fmt.Sprintf("unsupported host %q (want %s or %s)", c.Host, HostBitbucket, HostGitHub)}
	}

	if c.PR <= 0 {
		return &core.ConfigurationError{Key: "pr", Reason: "must be a positive pull request number"}
	}
	if c.AI.APIKey.IsZero() {
		return missing("ai.api_key")
	}
	if c.AI.Model == "" {
		return missing("ai.model")
	}
	if c.Rules.Path == "" {
		return missing("rules.path")
	}
	return nil
}

// Repository returns the "owner/repo" name of the configured host repository.
func (c *Config) Repository() string {
	if c.Host == HostGitHub {
		return c.GitHub.Owner + "/" + c.GitHub.Repo
	}
	return c.Bitbucket.Workspace + "/" + c.Bitbucket.Repo
}

// LogValue implements slog.LogValuer. Credentials are left out entirely.
func (c *Config) LogValue() slog.Value {
	return slog.GroupValue(
		slog.String("host", c.Host),
		slog.String("repository", c.Repository()),
		slog.Int("pr", c.PR),
		slog.String("model", c.AI.Model),
		slog.String("ai_base_url", c.AI.BaseURL),
		slog.String("rules", c.Rules.Path),
		slog.String("log_level", c.Logging.Level),
	)
}
