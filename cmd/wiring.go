package cmd

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/spigell/recruit-bot/internal/ai"
	"github.com/spigell/recruit-bot/internal/ai/gemini"
	"github.com/spigell/recruit-bot/internal/ai/keyword"
	"github.com/spigell/recruit-bot/internal/documents"
	"github.com/spigell/recruit-bot/internal/logger"
	"github.com/spigell/recruit-bot/internal/messaging"
	"github.com/spigell/recruit-bot/internal/secrets"
	"github.com/spigell/recruit-bot/internal/storage"
	"github.com/spigell/recruit-bot/internal/worker"
)

const redisPingTimeout = 5 * time.Second

// components holds everything the commands share.
type components struct {
	config    *Config
	logger    *zap.Logger
	store     *storage.Store
	assistant *ai.Assistant
	online    bool
	pipeline  *worker.Pipeline
	locker    worker.Locker
	redis     *redis.Client
}

func (c *components) Close() {
	if c.redis != nil {
		if err := c.redis.Close(); err != nil {
			c.logger.Warn("closing redis client", zap.Error(err))
		}
	}
	if c.store != nil {
		if err := c.store.Close(); err != nil {
			c.logger.Warn("closing database", zap.Error(err))
		}
	}
	_ = c.logger.Sync()
}

func newLogger() *zap.Logger {
	l, err := logger.New(viper.GetBool("json"), viper.GetBool("debug"))
	if err != nil {
		log.Fatalf("creating a logger: %s", err)
	}
	return l
}

// setup loads the config and wires storage, AI, the document pipeline and
// the optional redis backed lock and event bus. allowLocal lets the pipeline
// read documents from disk and must stay off for network facing commands.
func setup(ctx context.Context, log *zap.Logger, allowLocal bool) (*components, error) {
	config, err := getConfig()
	if err != nil {
		return nil, fmt.Errorf("getting a config: %w", err)
	}

	c := &components{config: config, logger: log}

	c.store, err = storage.Open(ctx, config.Database.Driver, config.Database.DSN, log)
	if err != nil {
		return nil, err
	}
	log.Info("database ready", zap.String("driver", config.Database.Driver))

	c.assistant, err = newAssistant(ctx, config.AI, log)
	switch {
	case err != nil:
		log.Warn("ai is not available, falling back to keyword classification", zap.Error(err))
		c.assistant = offlineAssistant(log)
	case config.AI.Enabled:
		c.online = true
	}

	var publisher worker.Publisher = worker.NewLogPublisher(log)
	c.locker = worker.NewMemoryLocker()
	if url := strings.TrimSpace(config.Redis.URL); url != "" {
		c.redis, err = connectRedis(ctx, url)
		if err != nil {
			c.Close()
			return nil, err
		}
		c.locker = worker.NewRedisLocker(c.redis)
		publisher = worker.NewRedisPublisher(c.redis, worker.ScoredChannel)
		log.Info("redis connected", zap.String("channel", worker.ScoredChannel))
	}

	token, err := twilioToken(config.Twilio)
	if err != nil {
		c.Close()
		return nil, err
	}

	fetcher := documents.NewFetcher(documents.FetcherConfig{
		Timeout:     config.Worker.FetchTimeout,
		MediaDomain: config.Twilio.MediaDomain,
		Credentials: documents.Credentials{Username: config.Twilio.AccountSID, Password: token},
		AllowLocal:  allowLocal,
	}, log)

	// Without a backend the analysis would only ever degrade.
	var analyzer worker.Analyzer
	if c.online {
		analyzer = c.assistant
	}

	c.pipeline = worker.NewPipeline(worker.PipelineDeps{
		Store:     c.store,
		Fetcher:   fetcher,
		Extractor: documents.NewExtractor(log),
		Grader:    c.assistant,
		Analyzer:  analyzer,
		Publisher: publisher,
		Logger:    log,
	})

	return c, nil
}

func newAssistant(ctx context.Context, cfg *AIConfig, log *zap.Logger) (*ai.Assistant, error) {
	if cfg == nil || !cfg.Enabled {
		log.Info("ai disabled, using keyword classification")
		return offlineAssistant(log), nil
	}

	provider := strings.TrimSpace(strings.ToLower(cfg.Provider))
	if provider != "" && provider != gemini.Provider {
		return nil, fmt.Errorf("unsupported ai provider: %s", cfg.Provider)
	}

	apiKey, err := secrets.Load(secrets.Source{
		Name:  "gemini api key",
		Value: cfg.Gemini.APIKey,
		File:  cfg.Gemini.APIKeyFile,
		Env:   "GEMINI_API_KEY",
	})
	if err != nil {
		return nil, fmt.Errorf("%w (set ai.gemini.api-key-file or GEMINI_API_KEY)", err)
	}

	generator, err := gemini.NewGenerator(ctx, apiKey, cfg.Gemini.Model, cfg.Gemini.MaxRetries, log)
	if err != nil {
		return nil, err
	}

	maxLog := cfg.Gemini.MaxLogLength
	return ai.NewAssistant(ai.AssistantDeps{
		Classifier: gemini.NewClassifier(generator, maxLog, log),
		Replier:    gemini.NewReplier(generator, maxLog, log),
		Grader:     gemini.NewGrader(generator, maxLog, log),
		Analyzer:   gemini.NewAnalyzer(generator, maxLog, log),
		Logger:     log,
	}), nil
}

// offlineAssistant classifies with keywords and replies with the fixed
// instructions. Grading degrades to a zero score.
func offlineAssistant(log *zap.Logger) *ai.Assistant {
	return ai.NewAssistant(ai.AssistantDeps{
		Classifier: keyword.New(),
		Logger:     log,
	})
}

func connectRedis(ctx context.Context, url string) (*redis.Client, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}

	client := redis.NewClient(opts)
	pingCtx, cancel := context.WithTimeout(ctx, redisPingTimeout)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
	}
	return client, nil
}

func twilioToken(cfg *TwilioConfig) (string, error) {
	return secrets.Optional(secrets.Source{
		Name:  "twilio auth token",
		Value: cfg.AuthToken,
		File:  cfg.AuthTokenFile,
		Env:   "TWILIO_AUTH_TOKEN",
	})
}

// newSender returns the Twilio sender, or a logging sender when the account
// is not configured.
func newSender(cfg *TwilioConfig, log *zap.Logger) (messaging.Sender, error) {
	token, err := twilioToken(cfg)
	if err != nil {
		return nil, err
	}
	if cfg.AccountSID == "" || token == "" || cfg.From == "" {
		log.Warn("twilio is not configured, replies are only logged")
		return messaging.NewLogSender(log), nil
	}

	sender, err := messaging.NewTwilio(messaging.TwilioConfig{
		AccountSID: cfg.AccountSID,
		AuthToken:  token,
		From:       cfg.From,
		BaseURL:    cfg.BaseURL,
	}, log)
	if err != nil {
		return nil, fmt.Errorf("create twilio sender: %w", err)
	}
	return sender, nil
}
