package config

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/viper"
)

// Config holds every runtime setting of the application.
type Config struct {
	Server    ServerConfig
	Logger    LoggerConfig
	Redis     RedisConfig
	Store     StoreConfig
	LLM       LLMConfig
	Embedding EmbeddingConfig
	Ingest    IngestConfig
	Retrieval RetrievalConfig
}

type ServerConfig struct {
	Port         int
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

type LoggerConfig struct {
	Level string
	Env   string
}

type RedisConfig struct {
	Address  string `yaml:"address"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
}

// StoreConfig configures the SQLite-backed vector store.
type StoreConfig struct {
	Path string
}

type LLMConfig struct {
	ServerURL string
	Model     string
	Timeout   time.Duration
}

type EmbeddingConfig struct {
	Source string // "ollama" or "openai"
	Ollama struct {
		ServerURL string
		Model     string
	}
	OpenAI struct {
		APIKey string
		Model  string
	}
}

// IngestConfig configures the document ingestion pipeline.
type IngestConfig struct {
	DataDir      string
	CodeDir      string
	ChunkSize    int
	ChunkOverlap int
	BatchSize    int
	MaxRetries   int
	RetryDelay   time.Duration
}

// RetrievalConfig bounds context construction for prompts.
type RetrievalConfig struct {
	TopK            int
	PerDocCharLimit int
	CodeTopK        int
}

func LoadConfig() (*Config, error) {
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")

	if os.Getenv("ENV") == "test" {
		viper.AddConfigPath("../../config")
		viper.AddConfigPath("../../")
	} else {
		viper.AddConfigPath(".")
		viper.AddConfigPath("./config")
	}

	viper.AutomaticEnv()

	setDefaults()

	if err := viper.ReadInConfig(); err != nil {
		// A missing config file is fine; defaults and env vars still apply.
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	cfg := &Config{
		Server: ServerConfig{
			Port:         viper.GetInt("server.port"),
			ReadTimeout:  viper.GetDuration("server.read_timeout") * time.Second,
			WriteTimeout: viper.GetDuration("server.write_timeout") * time.Second,
		},
		Logger: LoggerConfig{
			Level: viper.GetString("logger.level"),
			Env:   viper.GetString("logger.env"),
		},
		Redis: RedisConfig{
			Address:  viper.GetString("redis.address"),
			Password: viper.GetString("redis.password"),
			DB:       viper.GetInt("redis.db"),
		},
		Store: StoreConfig{
			Path: viper.GetString("store.path"),
		},
		LLM: LLMConfig{
			ServerURL: viper.GetString("llm.server"),
			Model:     viper.GetString("llm.model"),
			Timeout:   viper.GetDuration("llm.timeout") * time.Second,
		},
		Ingest: IngestConfig{
			DataDir:      viper.GetString("ingest.data_dir"),
			CodeDir:      viper.GetString("ingest.code_dir"),
			ChunkSize:    viper.GetInt("ingest.chunk_size"),
			ChunkOverlap: viper.GetInt("ingest.chunk_overlap"),
			BatchSize:    viper.GetInt("ingest.batch_size"),
			MaxRetries:   viper.GetInt("ingest.max_retries"),
			RetryDelay:   viper.GetDuration("ingest.retry_delay") * time.Second,
		},
		Retrieval: RetrievalConfig{
			TopK:            viper.GetInt("retrieval.top_k"),
			PerDocCharLimit: viper.GetInt("retrieval.per_doc_char_limit"),
			CodeTopK:        viper.GetInt("retrieval.code_top_k"),
		},
	}

	cfg.Embedding.Source = viper.GetString("embedding.source")
	cfg.Embedding.Ollama.ServerURL = viper.GetString("embedding.ollama.server_url")
	cfg.Embedding.Ollama.Model = viper.GetString("embedding.ollama.model")
	cfg.Embedding.OpenAI.APIKey = viper.GetString("embedding.openai.api_key")
	cfg.Embedding.OpenAI.Model = viper.GetString("embedding.openai.model")

	// Environment overrides for deployment without a config file.
	if addr := os.Getenv("REDIS_ADDRESS"); addr != "" {
		cfg.Redis.Address = addr
	}
	if pw := os.Getenv("REDIS_PASSWORD"); pw != "" {
		cfg.Redis.Password = pw
	}
	if llmServer := os.Getenv("LLM_SERVER"); llmServer != "" {
		cfg.LLM.ServerURL = llmServer
	}
	if key := os.Getenv("OPENAI_API_KEY"); key != "" {
		cfg.Embedding.OpenAI.APIKey = key
	}
	if path := os.Getenv("STORE_PATH"); path != "" {
		cfg.Store.Path = path
	}

	return cfg, nil
}

func setDefaults() {
	viper.SetDefault("server.port", 8090)
	viper.SetDefault("server.read_timeout", 20)
	viper.SetDefault("server.write_timeout", 20)
	viper.SetDefault("logger.level", "info")
	viper.SetDefault("logger.env", "development")
	viper.SetDefault("redis.address", "localhost:6379")
	viper.SetDefault("store.path", "quizbot.db")
	viper.SetDefault("llm.server", "http://localhost:11434")
	viper.SetDefault("llm.model", "llama3.2:latest")
	viper.SetDefault("llm.timeout", 60)
	viper.SetDefault("embedding.source", "ollama")
	viper.SetDefault("embedding.ollama.server_url", "http://localhost:11434")
	viper.SetDefault("embedding.ollama.model", "nomic-embed-text")
	viper.SetDefault("embedding.openai.model", "text-embedding-3-small")
	viper.SetDefault("ingest.data_dir", "data")
	viper.SetDefault("ingest.code_dir", ".")
	viper.SetDefault("ingest.chunk_size", 1000)
	viper.SetDefault("ingest.chunk_overlap", 100)
	viper.SetDefault("ingest.batch_size", 10)
	viper.SetDefault("ingest.max_retries", 3)
	viper.SetDefault("ingest.retry_delay", 2)
	viper.SetDefault("retrieval.top_k", 7)
	viper.SetDefault("retrieval.per_doc_char_limit", 2000)
	viper.SetDefault("retrieval.code_top_k", 3)
}
