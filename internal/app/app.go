package app

import (
	"context"
	"log"
	"time"

	"github.com/joho/godotenv"
	"github.com/slack-go/slack"

	"kbwatch/internal/classifier"
	"kbwatch/internal/config"
	"kbwatch/internal/httpx"
	"kbwatch/internal/index"
	"kbwatch/internal/ingest"
	slackbot "kbwatch/internal/integrations/slack"
	"kbwatch/internal/oauth"
	"kbwatch/internal/pipeline"
	"kbwatch/internal/storage/sqlite"
	"kbwatch/internal/textproc"
)

func Main() {
	// Optional .env for local runs; config.yaml and real env still win.
	_ = godotenv.Load()

	cfg := config.LoadConfig()
	appliedHTTPTimeout := httpx.Configure(cfg.ExternalHTTPTimeoutSeconds)
	log.Printf(
		"Config loaded. Channel=%s Provider=%s MaxChunkLength=%d RelevanceThreshold=%.2f TriggerLabels=%v ResyncSchedule=%q ExternalHTTPTimeout=%s",
		cfg.ChannelID,
		cfg.ClassifierProvider,
		cfg.MaxChunkLength,
		cfg.RelevanceThreshold,
		cfg.TriggerLabels,
		cfg.ResyncSchedule,
		appliedHTTPTimeout,
	)

	db, err := sqlite.InitDB(cfg.DBPath)
	if err != nil {
		log.Fatalf("Failed to init database: %v", err)
	}
	log.Printf("Database initialized at %s", cfg.DBPath)
	defer db.Close()

	stop := textproc.NewStopwordSet(cfg.ExtraStopwords...)
	holder := index.NewHolder(nil)

	var rebuilder *ingest.Rebuilder
	if cfg.ConfluenceConfigured() {
		confluence := ingest.NewConfluenceClient(
			cfg.ConfluenceBaseURL,
			cfg.ConfluenceEmail,
			cfg.ConfluenceAPIToken,
			cfg.ConfluenceSpaceKey,
			httpx.ExternalClient(),
		)
		rebuilder = ingest.NewRebuilder(confluence, db, holder, stop, cfg.MaxChunkLength)
		if err := rebuilder.Sync(context.Background()); err != nil {
			log.Printf("Initial corpus sync failed, falling back to stored snapshot: %v", err)
			if err := rebuilder.RebuildFromSnapshot(); err != nil {
				log.Fatalf("Failed to load corpus snapshot: %v", err)
			}
		}
		ingest.StartResyncScheduler(cfg.ResyncSchedule, rebuilder)
	} else {
		log.Println("Confluence not configured, serving from stored snapshot")
		rebuilder = ingest.NewRebuilder(nil, db, holder, stop, cfg.MaxChunkLength)
		if err := rebuilder.RebuildFromSnapshot(); err != nil {
			log.Fatalf("Failed to load corpus snapshot: %v", err)
		}
	}

	var cls classifier.Classifier
	switch cfg.ClassifierProvider {
	case "anthropic":
		cls = classifier.NewAnthropicClient(cfg.AnthropicAPIKey, cfg.ClassifierModel)
	default:
		cls = classifier.NewAssistantClient(classifier.AssistantConfig{
			APIKey:       cfg.OpenAIAPIKey,
			AssistantID:  cfg.OpenAIAssistantID,
			BaseURL:      cfg.OpenAIBaseURL,
			HTTPClient:   httpx.ExternalClient(),
			PollInterval: time.Duration(cfg.ClassifierPollSeconds) * time.Second,
			Timeout:      time.Duration(cfg.ClassifierTimeoutSecs) * time.Second,
		})
	}

	triggers, err := cfg.TriggerLabelSet()
	if err != nil {
		log.Fatalf("Invalid trigger labels: %v", err)
	}
	policy := pipeline.NewPolicy(pipeline.PolicyConfig{
		RelevanceThreshold: cfg.RelevanceThreshold,
		TriggerLabels:      triggers,
	}, holder)
	pipe := pipeline.New(cls, policy, !cfg.FailOnUnclassified)

	if cfg.OAuthConfigured() {
		oauth.Start(cfg.OAuthListenAddr, oauth.NewServer(
			cfg.SlackClientID,
			cfg.SlackClientSecret,
			cfg.OAuthRedirectURI,
			cfg.OAuthTokenPath,
		))
	}

	api := slack.New(
		cfg.SlackBotToken,
		slack.OptionAppLevelToken(cfg.SlackAppToken),
	)

	log.Println("Starting knowledge-base watcher...")
	bot := slackbot.New(api, pipe, cfg.ChannelID, triggers, 0)
	if err := bot.Run(); err != nil {
		log.Fatalf("Slack bot error: %v", err)
	}
}
