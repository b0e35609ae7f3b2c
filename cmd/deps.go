package cmd

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/viper"
	"github.com/spigell/hh-interviewer/internal/ai"
	"github.com/spigell/hh-interviewer/internal/ai/gemini"
	"github.com/spigell/hh-interviewer/internal/ai/heuristic"
	"github.com/spigell/hh-interviewer/internal/engine"
	"github.com/spigell/hh-interviewer/internal/logger"
	"github.com/spigell/hh-interviewer/internal/phases"
	"github.com/spigell/hh-interviewer/internal/questions"
	"github.com/spigell/hh-interviewer/internal/secrets"
	"github.com/spigell/hh-interviewer/internal/store"
	"go.uber.org/zap"
)

const (
	driverMemory   = "memory"
	driverFile     = "file"
	driverPostgres = "postgres"
)

// newLogger builds the process logger. Commands printing results to stdout
// pass "stderr" as output.
func newLogger(output string) (*zap.Logger, error) {
	return logger.Build(logger.Options{
		JSON:   viper.GetBool("json"),
		Debug:  viper.GetBool("debug"),
		Output: output,
	})
}

// newStore opens the configured session store. The returned func releases it.
func newStore(ctx context.Context, cfg *StoreConfig, log *zap.Logger) (store.Store, func(), error) {
	noop := func() {}
	if cfg == nil {
		return store.NewMemory(), noop, nil
	}

	switch strings.ToLower(strings.TrimSpace(cfg.Driver)) {
	case "", driverMemory:
		log.Debug("using in-memory session store")
		return store.NewMemory(), noop, nil
	case driverFile:
		st, err := store.NewFile(cfg.Dir)
		if err != nil {
			return nil, noop, err
		}
		log.Debug("using file session store", zap.String("dir", cfg.Dir))
		return st, noop, nil
	case driverPostgres:
		url, err := secrets.Load(secrets.Source{
			Name:  "database url",
			Value: cfg.DatabaseURL,
			Env:   "DATABASE_URL",
			File:  cfg.DatabaseURLFile,
		})
		if err != nil {
			return nil, noop, fmt.Errorf("%w (set store.database-url-file or DATABASE_URL)", err)
		}
		pg, err := store.ConnectPostgres(ctx, url)
		if err != nil {
			return nil, noop, err
		}
		if err := pg.EnsureSchema(ctx); err != nil {
			pg.Close()
			return nil, noop, err
		}
		purged, err := pg.PurgeExpired(ctx)
		if err != nil {
			pg.Close()
			return nil, noop, err
		}
		log.Debug("using postgres session store", zap.Int64("purged_sessions", purged))
		return pg, pg.Close, nil
	default:
		return nil, noop, fmt.Errorf("unsupported store driver: %s", cfg.Driver)
	}
}

// newBank loads the configured question bank or the built-in one.
func newBank(cfg *QuestionsConfig) (*questions.Bank, error) {
	if cfg == nil || strings.TrimSpace(cfg.Bank) == "" {
		return questions.Default()
	}
	return questions.Load(cfg.Bank)
}

// newAI returns the oracle and question supply. Without AI the heuristic
// oracle and the bank are used. With AI the bank stays as fallback supply.
func newAI(ctx context.Context, cfg *Config, log *zap.Logger) (ai.Oracle, ai.QuestionSupply, error) {
	bank, err := newBank(cfg.Questions)
	if err != nil {
		return nil, nil, fmt.Errorf("loading question bank: %w", err)
	}

	if cfg.AI == nil || !cfg.AI.Enabled {
		log.Info("ai is disabled, using heuristic oracle and question bank")
		return heuristic.New(), bank, nil
	}

	provider := strings.TrimSpace(strings.ToLower(cfg.AI.Provider))
	if provider != "" && provider != "gemini" {
		return nil, nil, fmt.Errorf("unsupported ai provider: %s", cfg.AI.Provider)
	}
	if cfg.AI.Gemini == nil {
		return nil, nil, errors.New("gemini configuration is required when ai is enabled")
	}

	apiKey, err := secrets.Load(secrets.Source{
		Name:  "gemini api key",
		Value: cfg.AI.Gemini.APIKey,
		Env:   "GEMINI_API_KEY",
		File:  cfg.AI.Gemini.APIKeyFile,
	})
	if err != nil {
		return nil, nil, fmt.Errorf("%w (set ai.gemini.api-key-file or GEMINI_API_KEY)", err)
	}

	generator, err := gemini.NewGenerator(ctx, apiKey, cfg.AI.Gemini.Model, cfg.AI.Gemini.MaxRetries, log)
	if err != nil {
		return nil, nil, err
	}

	log.Info("ai is enabled", zap.String(logger.FieldProvider, "gemini"), zap.String(logger.FieldModel, generator.Model()))

	genLog := log.With(zap.Int("ai_retry_attempts", cfg.AI.Gemini.MaxRetries))
	oracle := gemini.NewOracle(generator, genLog, cfg.AI.Gemini.MaxLogLength)
	supply := questions.NewChain(log).
		Add("gemini", gemini.NewQuestionGenerator(generator, genLog, cfg.AI.Gemini.MaxLogLength)).
		Add("bank", bank)

	return oracle, supply, nil
}

func newSequencer(cfg *Config, log *zap.Logger) (*phases.Sequencer, error) {
	return phases.New(cfg.Phases, log)
}

func engineConfig(cfg *Config) engine.Config {
	var out engine.Config
	if cfg.Interview != nil {
		out.DefaultBudget = cfg.Interview.DefaultBudget
		out.Retention = cfg.Interview.Retention
	}
	if cfg.Oracle != nil {
		out.OracleTimeout = cfg.Oracle.Timeout
		out.OracleAttempts = cfg.Oracle.MaxAttempts
		out.OracleBackoff = cfg.Oracle.Backoff
	}
	if cfg.Store != nil {
		out.ConflictRetries = cfg.Store.MaxConflictRetries
	}
	return out
}

// newEngine wires the engine from the configuration. The returned func
// releases the store.
func newEngine(ctx context.Context, cfg *Config, log *zap.Logger) (*engine.Engine, func(), error) {
	seq, err := newSequencer(cfg, log)
	if err != nil {
		return nil, nil, fmt.Errorf("building phase sequencer: %w", err)
	}

	oracle, supply, err := newAI(ctx, cfg, log)
	if err != nil {
		return nil, nil, err
	}

	st, closeStore, err := newStore(ctx, cfg.Store, log)
	if err != nil {
		return nil, nil, fmt.Errorf("opening session store: %w", err)
	}

	eng, err := engine.New(engineConfig(cfg), &engine.Deps{
		Store:     st,
		Sequencer: seq,
		Oracle:    oracle,
		Supply:    supply,
		Logger:    log,
	})
	if err != nil {
		closeStore()
		return nil, nil, err
	}

	return eng, closeStore, nil
}

// loadConfig reads the configuration and fails the process on error.
func loadConfig(log *zap.Logger) *Config {
	config, err := getConfig()
	if err != nil {
		log.Fatal("getting a config", zap.Error(err))
	}
	if config == nil {
		log.Fatal("config is required")
	}
	return config
}
