package config

import (
	"log"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"kbwatch/internal/domain"
)

type Config struct {
	SlackBotToken string `yaml:"slack_bot_token"`
	SlackAppToken string `yaml:"slack_app_token"`
	ChannelID     string `yaml:"channel_id"`

	SlackClientID     string `yaml:"slack_client_id"`
	SlackClientSecret string `yaml:"slack_client_secret"`
	OAuthListenAddr   string `yaml:"oauth_listen_addr"`
	OAuthRedirectURI  string `yaml:"oauth_redirect_uri"`
	OAuthTokenPath    string `yaml:"oauth_token_path"`

	ConfluenceBaseURL  string `yaml:"confluence_base_url"`
	ConfluenceEmail    string `yaml:"confluence_email"`
	ConfluenceAPIToken string `yaml:"confluence_api_token"`
	ConfluenceSpaceKey string `yaml:"confluence_space_key"`
	ResyncSchedule     string `yaml:"resync_schedule"`

	ClassifierProvider    string `yaml:"classifier_provider"`
	OpenAIAPIKey          string `yaml:"openai_api_key"`
	OpenAIAssistantID     string `yaml:"openai_assistant_id"`
	OpenAIBaseURL         string `yaml:"openai_base_url"`
	AnthropicAPIKey       string `yaml:"anthropic_api_key"`
	ClassifierModel       string `yaml:"classifier_model"`
	ClassifierPollSeconds int    `yaml:"classifier_poll_interval_seconds"`
	ClassifierTimeoutSecs int    `yaml:"classifier_timeout_seconds"`

	ExternalHTTPTimeoutSeconds int `yaml:"external_http_timeout_seconds"`

	DBPath             string   `yaml:"db_path"`
	MaxChunkLength     int      `yaml:"max_chunk_length"`
	RelevanceThreshold float64  `yaml:"relevance_threshold"`
	TriggerLabels      []string `yaml:"trigger_labels"`
	ExtraStopwords     []string `yaml:"extra_stopwords"`

	// FailOnUnclassified propagates an unmapped classifier response as an
	// error instead of falling back to simple_notification.
	FailOnUnclassified bool `yaml:"fail_on_unclassified"`
}

func LoadConfig() Config {
	var cfg Config

	configPath := "config.yaml"
	if envPath := os.Getenv("CONFIG_PATH"); envPath != "" {
		configPath = envPath
	}
	if data, err := os.ReadFile(configPath); err == nil {
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			log.Fatalf("Error parsing %s: %v", configPath, err)
		}
		log.Printf("Loaded config from %s", configPath)
	}

	// Env vars override YAML values
	envOverride(&cfg.SlackBotToken, "SLACK_BOT_TOKEN")
	envOverride(&cfg.SlackAppToken, "SLACK_APP_TOKEN")
	envOverride(&cfg.ChannelID, "CHANNEL_ID")
	envOverride(&cfg.SlackClientID, "SLACK_CLIENT_ID")
	envOverride(&cfg.SlackClientSecret, "SLACK_CLIENT_SECRET")
	envOverride(&cfg.OAuthListenAddr, "OAUTH_LISTEN_ADDR")
	envOverride(&cfg.OAuthRedirectURI, "OAUTH_REDIRECT_URI")
	envOverride(&cfg.OAuthTokenPath, "OAUTH_TOKEN_PATH")
	envOverride(&cfg.ConfluenceBaseURL, "CONFLUENCE_BASE_URL")
	envOverride(&cfg.ConfluenceEmail, "CONFLUENCE_EMAIL")
	envOverride(&cfg.ConfluenceAPIToken, "CONFLUENCE_API_TOKEN")
	envOverride(&cfg.ConfluenceSpaceKey, "CONFLUENCE_SPACE_KEY")
	envOverride(&cfg.ResyncSchedule, "RESYNC_SCHEDULE")
	envOverride(&cfg.ClassifierProvider, "CLASSIFIER_PROVIDER")
	envOverride(&cfg.OpenAIAPIKey, "OPENAI_API_KEY")
	envOverride(&cfg.OpenAIAssistantID, "OPENAI_ASSISTANT_ID")
	envOverride(&cfg.OpenAIBaseURL, "OPENAI_BASE_URL")
	envOverride(&cfg.AnthropicAPIKey, "ANTHROPIC_API_KEY")
	envOverride(&cfg.ClassifierModel, "CLASSIFIER_MODEL")
	envOverrideInt(&cfg.ClassifierPollSeconds, "CLASSIFIER_POLL_INTERVAL_SECONDS")
	envOverrideInt(&cfg.ClassifierTimeoutSecs, "CLASSIFIER_TIMEOUT_SECONDS")
	envOverrideInt(&cfg.ExternalHTTPTimeoutSeconds, "EXTERNAL_HTTP_TIMEOUT_SECONDS")
	envOverride(&cfg.DBPath, "DB_PATH")
	envOverrideInt(&cfg.MaxChunkLength, "MAX_CHUNK_LENGTH")
	envOverrideFloat(&cfg.RelevanceThreshold, "RELEVANCE_THRESHOLD")

	if labels := os.Getenv("TRIGGER_LABELS"); labels != "" {
		cfg.TriggerLabels = nil
		for _, l := range strings.Split(labels, ",") {
			l = strings.TrimSpace(l)
			if l != "" {
				cfg.TriggerLabels = append(cfg.TriggerLabels, l)
			}
		}
	}

	// Defaults
	if cfg.ClassifierProvider == "" {
		cfg.ClassifierProvider = "openai_assistant"
	}
	if cfg.ClassifierPollSeconds == 0 {
		cfg.ClassifierPollSeconds = 1
	}
	if cfg.ClassifierTimeoutSecs == 0 {
		cfg.ClassifierTimeoutSecs = 60
	}
	if cfg.DBPath == "" {
		cfg.DBPath = "./kbwatch.db"
	}
	if cfg.MaxChunkLength == 0 {
		cfg.MaxChunkLength = 500
	}
	if cfg.RelevanceThreshold == 0 {
		cfg.RelevanceThreshold = 0.2
	}
	if len(cfg.TriggerLabels) == 0 {
		cfg.TriggerLabels = []string{
			string(domain.CategoryProcessUpdate),
			string(domain.CategoryProductRelease),
		}
	}
	if cfg.OAuthListenAddr == "" {
		cfg.OAuthListenAddr = ":5000"
	}
	if cfg.OAuthTokenPath == "" {
		cfg.OAuthTokenPath = ".slack_token"
	}

	// Validate required fields
	required := map[string]string{
		"slack_bot_token": cfg.SlackBotToken,
		"slack_app_token": cfg.SlackAppToken,
		"channel_id":      cfg.ChannelID,
	}
	for name, val := range required {
		if val == "" {
			log.Fatalf("Required config '%s' is not set (via config.yaml or env var)", name)
		}
	}

	switch cfg.ClassifierProvider {
	case "openai_assistant":
		if cfg.OpenAIAPIKey == "" {
			log.Fatalf("openai_api_key is required when classifier_provider=openai_assistant")
		}
		if cfg.OpenAIAssistantID == "" {
			log.Fatalf("openai_assistant_id is required when classifier_provider=openai_assistant")
		}
	case "anthropic":
		if cfg.AnthropicAPIKey == "" {
			log.Fatalf("anthropic_api_key is required when classifier_provider=anthropic")
		}
	default:
		log.Fatalf("classifier_provider must be 'openai_assistant' or 'anthropic', got '%s'", cfg.ClassifierProvider)
	}

	if cfg.ConfluenceConfigured() {
		if cfg.ConfluenceEmail == "" || cfg.ConfluenceAPIToken == "" || cfg.ConfluenceSpaceKey == "" {
			log.Fatalf("confluence_base_url is set but email, api token or space key is missing")
		}
	}

	if cfg.RelevanceThreshold < 0 || cfg.RelevanceThreshold > 1 {
		log.Fatalf("invalid relevance_threshold '%f': must be between 0 and 1", cfg.RelevanceThreshold)
	}
	if cfg.MaxChunkLength < 50 {
		log.Fatalf("invalid max_chunk_length '%d': must be >= 50", cfg.MaxChunkLength)
	}
	if cfg.ClassifierTimeoutSecs < 1 {
		log.Fatalf("invalid classifier_timeout_seconds '%d': must be >= 1", cfg.ClassifierTimeoutSecs)
	}
	if _, err := cfg.TriggerLabelSet(); err != nil {
		log.Fatalf("invalid trigger_labels: %v", err)
	}

	return cfg
}

// ConfluenceConfigured reports whether corpus ingestion can run. Without it
// the bot serves from the last persisted snapshot.
func (c Config) ConfluenceConfigured() bool {
	return c.ConfluenceBaseURL != ""
}

// OAuthConfigured reports whether the install-flow server should start.
func (c Config) OAuthConfigured() bool {
	return c.SlackClientID != "" && c.SlackClientSecret != ""
}

// TriggerLabelSet parses the configured trigger labels onto the closed
// Category set.
func (c Config) TriggerLabelSet() (map[domain.Category]bool, error) {
	set := make(map[domain.Category]bool, len(c.TriggerLabels))
	for _, l := range c.TriggerLabels {
		cat := domain.Category(strings.ToLower(strings.TrimSpace(l)))
		if !cat.Valid() {
			return nil, &invalidLabelError{label: l}
		}
		set[cat] = true
	}
	return set, nil
}

type invalidLabelError struct{ label string }

func (e *invalidLabelError) Error() string {
	return "unknown category label '" + e.label + "'"
}

func envOverride(field *string, envKey string) {
	if val := os.Getenv(envKey); val != "" {
		*field = val
	}
}

func envOverrideInt(field *int, envKey string) {
	if val := os.Getenv(envKey); val != "" {
		parsed, err := strconv.Atoi(val)
		if err != nil {
			log.Fatalf("invalid %s '%s': %v", envKey, val, err)
		}
		*field = parsed
	}
}

func envOverrideFloat(field *float64, envKey string) {
	if val := os.Getenv(envKey); val != "" {
		parsed, err := strconv.ParseFloat(val, 64)
		if err != nil {
			log.Fatalf("invalid %s '%s': %v", envKey, val, err)
		}
		*field = parsed
	}
}
