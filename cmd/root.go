package cmd

import (
	"errors"
	"io/fs"
	"log"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"github.com/spigell/hh-interviewer/internal/phases"
)

const (
	app       = "hh-interviewer"
	envPrefix = "HH_INTERVIEWER"
)

type Config struct {
	Interview *InterviewConfig           `mapstructure:"interview"`
	Oracle    *OracleConfig              `mapstructure:"oracle"`
	Store     *StoreConfig               `mapstructure:"store"`
	AI        *AIConfig                  `mapstructure:"ai"`
	Questions *QuestionsConfig           `mapstructure:"questions"`
	Phases    map[string]phases.Override `mapstructure:"phases"`
	Server    *ServerConfig              `mapstructure:"server"`
}

type InterviewConfig struct {
	DefaultBudget time.Duration `mapstructure:"default-budget"`
	Retention     time.Duration `mapstructure:"retention"`
}

type OracleConfig struct {
	Timeout     time.Duration `mapstructure:"timeout"`
	MaxAttempts int           `mapstructure:"max-attempts"`
	Backoff     time.Duration `mapstructure:"backoff"`
}

type StoreConfig struct {
	Driver             string `mapstructure:"driver"`
	Dir                string `mapstructure:"dir"`
	DatabaseURL        string `mapstructure:"database-url"`
	DatabaseURLFile    string `mapstructure:"database-url-file"`
	MaxConflictRetries int    `mapstructure:"max-conflict-retries"`
}

type AIConfig struct {
	Enabled  bool          `mapstructure:"enabled"`
	Provider string        `mapstructure:"provider"`
	Gemini   *GeminiConfig `mapstructure:"gemini"`
}

type GeminiConfig struct {
	APIKey       string `mapstructure:"api-key"`
	APIKeyFile   string `mapstructure:"api-key-file"`
	Model        string `mapstructure:"model"`
	MaxRetries   int    `mapstructure:"max-retries"`
	MaxLogLength int    `mapstructure:"max-log-length"`
}

type QuestionsConfig struct {
	Bank string `mapstructure:"bank"`
}

type ServerConfig struct {
	Addr string `mapstructure:"addr"`
}

var (
	// Used for flags.
	cfgFile string

	rootCmd = &cobra.Command{
		Use:   app,
		Short: "hh-interviewer runs adaptive multi-phase interviews scored by an LLM",
	}
)

// Execute executes the root command.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "a config file (default is hh-interviewer.yaml in current directory)")
	rootCmd.PersistentFlags().BoolP("debug", "d", false, "verbose/debug output")
	rootCmd.PersistentFlags().BoolP("json", "j", false, "json format for logging")

	viper.BindPFlag("debug", rootCmd.PersistentFlags().Lookup("debug"))
	viper.BindPFlag("json", rootCmd.PersistentFlags().Lookup("json"))

	viper.SetEnvPrefix(envPrefix)
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_", ".", "_"))
	viper.AutomaticEnv()

	setDefaults()
}

func setDefaults() {
	viper.SetDefault("interview.default-budget", 60*time.Minute)
	viper.SetDefault("interview.retention", 24*time.Hour)

	viper.SetDefault("oracle.timeout", 30*time.Second)
	viper.SetDefault("oracle.max-attempts", 3)
	viper.SetDefault("oracle.backoff", 500*time.Millisecond)

	viper.SetDefault("store.driver", "memory")
	viper.SetDefault("store.dir", "sessions")
	viper.SetDefault("store.database-url", "")
	viper.SetDefault("store.database-url-file", "")
	viper.SetDefault("store.max-conflict-retries", 5)

	viper.SetDefault("ai.enabled", false)
	viper.SetDefault("ai.provider", "gemini")
	viper.SetDefault("ai.gemini.api-key", "")
	viper.SetDefault("ai.gemini.api-key-file", "")
	viper.SetDefault("ai.gemini.model", "")
	viper.SetDefault("ai.gemini.max-retries", 3)
	viper.SetDefault("ai.gemini.max-log-length", 200)

	viper.SetDefault("questions.bank", "")
	viper.SetDefault("server.addr", ":8080")
}

func initConfig() {
	// A missing .env is fine, a broken one is not.
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		log.Fatalf("loading .env: %v", err)
	}

	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.AddConfigPath(".")
		viper.SetConfigName(app)
		viper.SetConfigType("yaml")
	}

	// Every setting has a default, so the config file is optional unless given explicitly.
	if err := viper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if cfgFile != "" || !errors.As(err, &notFound) {
			log.Fatal(err)
		}
	}
}

func getConfig() (*Config, error) {
	var config *Config
	err := viper.Unmarshal(&config)
	if err != nil {
		return config, err
	}

	return config, nil
}
