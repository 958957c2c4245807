package config

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

type Config struct {
	Server    ServerConfig
	Corpus    CorpusConfig
	History   HistoryConfig
	Retrieval RetrievalConfig
	Assembly  AssemblyConfig
	LLM       LLMConfig
	Redis     RedisConfig
	SQLite    SQLiteConfig
	Status    StatusConfig
	RateLimit RateLimitConfig
	Logging   LoggingConfig
}

type ServerConfig struct {
	Host         string
	Port         int
	ReadTimeout  int
	WriteTimeout int
	BodyLimit    int
}

type CorpusConfig struct {
	// Root holds one subdirectory per document category.
	Root       string
	Categories []string
}

type HistoryConfig struct {
	CSVPath      string
	KeywordsPath string
}

type RetrievalConfig struct {
	TopK int
}

type AssemblyConfig struct {
	MaxContextChars int
}

type LLMConfig struct {
	APIKey      string
	BaseURL     string
	Model       string
	Temperature float32
	MaxTokens   int
	TimeoutSec  int
}

type RedisConfig struct {
	Enabled  bool
	Host     string
	Port     int
	Password string
	DB       int
	TTLSec   int
}

type SQLiteConfig struct {
	Path string
}

type StatusConfig struct {
	BaseURL    string
	CacheTTL   int
	TimeoutSec int
}

type RateLimitConfig struct {
	MaxRequestsPerMinute int
}

type LoggingConfig struct {
	Level      string
	Format     string
	OutputPath string
}

func Load() (*Config, error) {
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(".")
	viper.AddConfigPath("./config")
	viper.AddConfigPath("/etc/caira")

	viper.SetEnvPrefix("CAIRA")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	setDefaults()

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var config Config
	if err := viper.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	return &config, nil
}

func setDefaults() {
	viper.SetDefault("server.host", "0.0.0.0")
	viper.SetDefault("server.port", 8080)
	viper.SetDefault("server.readTimeout", 30)
	viper.SetDefault("server.writeTimeout", 30)
	viper.SetDefault("server.bodyLimit", 1048576)

	viper.SetDefault("corpus.root", "./data")
	viper.SetDefault("corpus.categories", []string{"incidents", "runbooks", "logs"})

	viper.SetDefault("history.csvPath", "./data/incident_stats.csv")
	viper.SetDefault("history.keywordsPath", "./config/keywords.yaml")

	viper.SetDefault("retrieval.topK", 3)

	viper.SetDefault("assembly.maxContextChars", 4000)

	// Env-only keys need a default registered or viper.Unmarshal never sees
	// them: AutomaticEnv resolves known keys, it does not discover new ones.
	viper.SetDefault("llm.apiKey", "")
	viper.SetDefault("llm.baseURL", "")
	viper.SetDefault("llm.model", "gpt-4")
	viper.SetDefault("llm.temperature", 0.1)
	viper.SetDefault("llm.maxTokens", 1000)
	viper.SetDefault("llm.timeoutSec", 60)

	viper.SetDefault("redis.enabled", false)
	viper.SetDefault("redis.host", "localhost")
	viper.SetDefault("redis.port", 6379)
	viper.SetDefault("redis.password", "")
	viper.SetDefault("redis.db", 0)
	viper.SetDefault("redis.ttlSec", 300)

	viper.SetDefault("sqlite.path", "./data/caira.db")

	viper.SetDefault("status.baseURL", "https://www.githubstatus.com/api/v2")
	viper.SetDefault("status.cacheTTL", 300)
	viper.SetDefault("status.timeoutSec", 5)

	viper.SetDefault("ratelimit.maxRequestsPerMinute", 60)

	viper.SetDefault("logging.level", "info")
	viper.SetDefault("logging.format", "json")
	viper.SetDefault("logging.outputPath", "stdout")
}
