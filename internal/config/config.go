package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

// Conf holds the application configuration, making it accessible globally.
var Conf *Config

var (
	hooksMu sync.Mutex
	hooks   []func(*Config)
)

// Config struct is the top-level configuration structure.
type Config struct {
	Server       ServerConfig       `mapstructure:"server"`
	Database     DatabaseConfig     `mapstructure:"database"`
	Logging      LoggingConfig      `mapstructure:"logging"`
	Experimenter ExperimenterConfig `mapstructure:"experimenter"`
	Markers      MarkersConfig      `mapstructure:"markers"`
	Catalog      CatalogConfig      `mapstructure:"catalog"`
	Experiment   ExperimentConfig   `mapstructure:"experiment"`
}

// ServerConfig holds server-related settings.
type ServerConfig struct {
	Port          string `mapstructure:"port"`
	SessionSecret string `mapstructure:"session_secret"`
	// Login attempts allowed per client per minute.
	LoginRateLimit uint `mapstructure:"login_rate_limit"`
}

// DatabaseConfig holds database connection settings. Driver is "postgres",
// "sqlite" or "none".
type DatabaseConfig struct {
	Driver     string `mapstructure:"driver"`
	Host       string `mapstructure:"host"`
	Port       string `mapstructure:"port"`
	User       string `mapstructure:"user"`
	Password   string `mapstructure:"password"`
	DBName     string `mapstructure:"dbname"`
	SSLMode    string `mapstructure:"sslmode"`
	SQLitePath string `mapstructure:"sqlite_path"`
}

// LoggingConfig holds settings for the logger.
type LoggingConfig struct {
	Directory  string `mapstructure:"directory"`
	MaxSize    int    `mapstructure:"max_size"`
	MaxBackups int    `mapstructure:"max_backups"`
	MaxAge     int    `mapstructure:"max_age"`
	Compress   bool   `mapstructure:"compress"`
	Level      string `mapstructure:"level"`
}

// ExperimenterConfig guards the experimenter-only pages.
type ExperimenterConfig struct {
	PasswordHash string `mapstructure:"password_hash"`
}

// MarkersConfig selects where markers are streamed. Backends is any of
// "log", "redis" and "sse"; an empty list streams nowhere.
type MarkersConfig struct {
	Backends     []string `mapstructure:"backends"`
	RedisAddr    string   `mapstructure:"redis_addr"`
	RedisChannel string   `mapstructure:"redis_channel"`
	Buffer       int      `mapstructure:"buffer"`
}

// Enabled reports whether a backend is listed.
func (m MarkersConfig) Enabled(backend string) bool {
	for _, b := range m.Backends {
		if strings.EqualFold(strings.TrimSpace(b), backend) {
			return true
		}
	}
	return false
}

// TopicConfig maps a topic name to its catalog file.
type TopicConfig struct {
	Name string `mapstructure:"name"`
	Code string `mapstructure:"code"`
	File string `mapstructure:"file"`
}

// CatalogConfig locates the statement and article data files.
type CatalogConfig struct {
	Directory      string        `mapstructure:"directory"`
	StatementsFile string        `mapstructure:"statements_file"`
	Topics         []TopicConfig `mapstructure:"topics"`
}

// ExperimentConfig parameterizes the screens.
type ExperimentConfig struct {
	RequiredTopics       []string      `mapstructure:"required_topics"`
	MinPerTopic          int           `mapstructure:"min_per_topic"`
	MinTopics            int           `mapstructure:"min_topics"`
	MinTotalArticles     int           `mapstructure:"min_total_articles"`
	RestBreakEvery       int           `mapstructure:"rest_break_every"`
	TransitionDelay      time.Duration `mapstructure:"transition_delay"`
	StatementTimeout     time.Duration `mapstructure:"statement_timeout"`
	AttentionTimeout     time.Duration `mapstructure:"attention_timeout"`
	AgreementPromptDelay time.Duration `mapstructure:"agreement_prompt_delay"`
	MaxReadTime          time.Duration `mapstructure:"max_read_time"`
	ScrollThreshold      float64       `mapstructure:"scroll_threshold"`
	ScrollStreamEvery    int           `mapstructure:"scroll_stream_every"`
	ShuffleStatements    bool          `mapstructure:"shuffle_statements"`
	OutputDir            string        `mapstructure:"output_dir"`
	CheckpointInterval   time.Duration `mapstructure:"checkpoint_interval"`
}

// DefaultExperiment returns the experiment defaults without reading any file.
func DefaultExperiment() ExperimentConfig {
	return ExperimentConfig{
		MinPerTopic:          2,
		MinTopics:            5,
		MinTotalArticles:     10,
		RestBreakEvery:       10,
		TransitionDelay:      time.Second,
		AttentionTimeout:     10 * time.Second,
		AgreementPromptDelay: 10 * time.Second,
		MaxReadTime:          300 * time.Second,
		ScrollThreshold:      0.1,
		ScrollStreamEvery:    5,
		ShuffleStatements:    true,
		OutputDir:            "~/ConfirmationBiasData",
		CheckpointInterval:   30 * time.Second,
	}
}

// setDefaults sets the default values for the configuration.
func setDefaults(v *viper.Viper) {
	// Server defaults
	v.SetDefault("server.port", "5050")
	v.SetDefault("server.session_secret", "change-me-in-production")
	v.SetDefault("server.login_rate_limit", 5)

	// Database defaults
	v.SetDefault("database.driver", "sqlite")
	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", "5432")
	v.SetDefault("database.user", "user")
	v.SetDefault("database.password", "password")
	v.SetDefault("database.dbname", "cbx")
	v.SetDefault("database.sslmode", "disable")
	v.SetDefault("database.sqlite_path", "data/sessions.db")

	// Logging defaults
	v.SetDefault("logging.directory", "logs")
	v.SetDefault("logging.max_size", 10)   // 10 MB
	v.SetDefault("logging.max_backups", 3) // Keep 3 backups
	v.SetDefault("logging.max_age", 7)     // 7 days
	v.SetDefault("logging.compress", true) // Compress old logs
	v.SetDefault("logging.level", "info")

	v.SetDefault("experimenter.password_hash", "")

	// Markers defaults
	v.SetDefault("markers.backends", []string{"log", "sse"})
	v.SetDefault("markers.redis_addr", "localhost:6379")
	v.SetDefault("markers.redis_channel", "cbx:markers")
	v.SetDefault("markers.buffer", 256)

	// Catalog defaults
	v.SetDefault("catalog.directory", "config/articles")
	v.SetDefault("catalog.statements_file", "config/statements.yaml")

	// Experiment defaults
	d := DefaultExperiment()
	v.SetDefault("experiment.min_per_topic", d.MinPerTopic)
	v.SetDefault("experiment.min_topics", d.MinTopics)
	v.SetDefault("experiment.min_total_articles", d.MinTotalArticles)
	v.SetDefault("experiment.rest_break_every", d.RestBreakEvery)
	v.SetDefault("experiment.transition_delay", d.TransitionDelay)
	v.SetDefault("experiment.statement_timeout", d.StatementTimeout)
	v.SetDefault("experiment.attention_timeout", d.AttentionTimeout)
	v.SetDefault("experiment.agreement_prompt_delay", d.AgreementPromptDelay)
	v.SetDefault("experiment.max_read_time", d.MaxReadTime)
	v.SetDefault("experiment.scroll_threshold", d.ScrollThreshold)
	v.SetDefault("experiment.scroll_stream_every", d.ScrollStreamEvery)
	v.SetDefault("experiment.shuffle_statements", d.ShuffleStatements)
	v.SetDefault("experiment.output_dir", d.OutputDir)
	v.SetDefault("experiment.checkpoint_interval", d.CheckpointInterval)
}

// OnReload registers a callback run after every successful hot reload.
func OnReload(fn func(*Config)) {
	hooksMu.Lock()
	hooks = append(hooks, fn)
	hooksMu.Unlock()
}

func runHooks(c *Config) {
	hooksMu.Lock()
	fns := append([]func(*Config){}, hooks...)
	hooksMu.Unlock()
	for _, fn := range fns {
		fn(c)
	}
}

// Init initializes the configuration with Viper.
func Init(projectRoot string, log *zap.Logger) error {
	v := viper.New()

	// Set default values
	setDefaults(v)

	// --- File Configuration ---
	v.AddConfigPath(filepath.Join(projectRoot, "config"))
	v.SetConfigName("config")
	v.SetConfigType("yaml")

	// --- Environment Variable Binding ---
	v.SetEnvPrefix("CBX") // e.g., CBX_SERVER_PORT
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Read the initial configuration from the file.
	// It's okay if the file doesn't exist; defaults and env vars will be used.
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return fmt.Errorf("error reading config file: %w", err)
		}
	}

	var c Config
	if err := v.Unmarshal(&c); err != nil {
		return fmt.Errorf("unable to decode config into struct: %w", err)
	}
	c.resolve(projectRoot)
	Conf = &c

	// Set up a watch for configuration changes for hot-reloading
	if v.ConfigFileUsed() != "" {
		v.WatchConfig()
		v.OnConfigChange(func(e fsnotify.Event) {
			log.Info("Configuration file changed, reloading.", zap.String("file", e.Name))
			var next Config
			if err := v.Unmarshal(&next); err != nil {
				log.Error("Error reloading configuration", zap.Error(err))
				return
			}
			next.resolve(projectRoot)
			Conf = &next
			runHooks(&next)
		})
	}

	log.Info("Configuration loaded successfully", zap.String("file", v.ConfigFileUsed()))
	return nil
}

// resolve turns relative data paths into paths under projectRoot and
// expands "~" in the output directory.
func (c *Config) resolve(projectRoot string) {
	if c.Catalog.Directory != "" && !filepath.IsAbs(c.Catalog.Directory) {
		c.Catalog.Directory = filepath.Join(projectRoot, c.Catalog.Directory)
	}
	if c.Catalog.StatementsFile != "" && !filepath.IsAbs(c.Catalog.StatementsFile) {
		c.Catalog.StatementsFile = filepath.Join(projectRoot, c.Catalog.StatementsFile)
	}
	if c.Database.SQLitePath != "" && c.Database.SQLitePath != ":memory:" && !filepath.IsAbs(c.Database.SQLitePath) {
		c.Database.SQLitePath = filepath.Join(projectRoot, c.Database.SQLitePath)
	}
	c.Experiment.OutputDir = ExpandHome(c.Experiment.OutputDir)
}

// ExpandHome replaces a leading "~" with the user's home directory.
func ExpandHome(path string) string {
	if path != "~" && !strings.HasPrefix(path, "~/") {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	return filepath.Join(home, strings.TrimPrefix(path, "~"))
}
