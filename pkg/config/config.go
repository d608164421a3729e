package config

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

type Config struct {
	Server       ServerConfig
	Milvus       MilvusConfig
	SQLite       SQLiteConfig
	Redis        RedisConfig
	LLM          LLMConfig
	RAG          RAGConfig
	Location     LocationConfig
	CustomerCare CustomerCareConfig
	Logging      LoggingConfig
}

type ServerConfig struct {
	Host         string
	Port         int
	ReadTimeout  int
	WriteTimeout int
	BodyLimit    int
}

type MilvusConfig struct {
	Endpoint       string
	APIKey         string
	CollectionName string
	VectorDim      int
}

type SQLiteConfig struct {
	Path string
}

type RedisConfig struct {
	Enabled  bool
	Host     string
	Port     int
	Password string
	DB       int
}

type LLMConfig struct {
	Provider       string
	BaseURL        string
	APIKey         string
	Model          string
	EmbeddingModel string
	Temperature    float32
	MaxTokens      int
	TimeoutSec     int
}

type RAGConfig struct {
	TopK                int
	SimilarityThreshold float64
	CacheTTLMinutes     int
}

type LocationConfig struct {
	City  string
	State string
}

type CustomerCareConfig struct {
	Phone  string
	Email  string
	Hours  string
	Portal string
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
	viper.AddConfigPath("/etc/helpdesk")

	viper.SetEnvPrefix("HELPDESK")
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
	viper.SetDefault("server.port", 8000)
	viper.SetDefault("server.readTimeout", 30)
	viper.SetDefault("server.writeTimeout", 30)
	viper.SetDefault("server.bodyLimit", 10485760)

	viper.SetDefault("milvus.endpoint", "localhost:19530")
	viper.SetDefault("milvus.collectionName", "community_services")
	viper.SetDefault("milvus.vectorDim", 384)

	viper.SetDefault("sqlite.path", "./data/helpdesk.db")

	viper.SetDefault("redis.enabled", true)
	viper.SetDefault("redis.host", "localhost")
	viper.SetDefault("redis.port", 6379)
	viper.SetDefault("redis.db", 0)

	viper.SetDefault("llm.provider", "ollama")
	viper.SetDefault("llm.baseURL", "http://localhost:11434/v1")
	viper.SetDefault("llm.apiKey", "ollama")
	viper.SetDefault("llm.model", "llama3.2:3b")
	viper.SetDefault("llm.embeddingModel", "all-minilm")
	viper.SetDefault("llm.temperature", 0.6)
	viper.SetDefault("llm.maxTokens", 500)
	viper.SetDefault("llm.timeoutSec", 120)

	viper.SetDefault("rag.topK", 5)
	viper.SetDefault("rag.similarityThreshold", 0.0)
	viper.SetDefault("rag.cacheTTLMinutes", 10)

	viper.SetDefault("location.city", "Chennai")
	viper.SetDefault("location.state", "Tamil Nadu")

	viper.SetDefault("customercare.phone", "1913")
	viper.SetDefault("customercare.email", "support@chennaicorporation.gov.in")
	viper.SetDefault("customercare.hours", "24/7")
	viper.SetDefault("customercare.portal", "www.chennaicorporation.gov.in")

	viper.SetDefault("logging.level", "info")
	viper.SetDefault("logging.format", "json")
	viper.SetDefault("logging.outputPath", "stdout")
}
