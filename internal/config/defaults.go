package config

import (
	"os"
	"path/filepath"
	"runtime"
	"time"

	"github.com/ekisa-team/campus-assistant/internal/envvar"
)

const appDir = "campus-assistant"

// DefaultSubjects are the subjects that receive placeholder attendance during ingestion.
var DefaultSubjects = []string{"Physics", "Chemistry", "Mathematics", "Data Structures", "Algorithms"}

// DefaultHTTPPort returns the default port of the query API.
func DefaultHTTPPort() int { return 8000 }

// DefaultGRPCPort returns the default port of the gRPC surface.
func DefaultGRPCPort() int { return 9000 }

// DefaultSpeechPort returns the default port of the speech server.
func DefaultSpeechPort() int { return 5001 }

// DefaultConfigPath returns the default path for the config directory.
func DefaultConfigPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".", appDir, "config")
	}

	switch runtime.GOOS {
	case "windows":
		return filepath.Join(home, "AppData", "Roaming", appDir)
	case "darwin":
		return filepath.Join(home, "Library", "Application Support", appDir)
	default: // Linux, BSD, etc.
		if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
			return filepath.Join(xdg, appDir)
		}
		return filepath.Join(home, ".config", appDir)
	}
}

// DefaultModelsPath returns the default path for the models directory.
func DefaultModelsPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".", appDir, "models")
	}

	switch runtime.GOOS {
	case "windows":
		return filepath.Join(home, "AppData", "Local", appDir, "models")
	case "darwin":
		return filepath.Join(home, "Library", "Caches", appDir, "models")
	default: // Linux, BSD, etc.
		if xdg := os.Getenv("XDG_CACHE_HOME"); xdg != "" {
			return filepath.Join(xdg, appDir, "models")
		}
		return filepath.Join(home, ".cache", appDir, "models")
	}
}

// ApplyDefaults fills unset fields with their defaults.
func ApplyDefaults(cfg *Config) {
	if cfg.Server.HTTPPort == 0 {
		cfg.Server.HTTPPort = DefaultHTTPPort()
	}
	if cfg.Server.GRPCPort == 0 {
		cfg.Server.GRPCPort = DefaultGRPCPort()
	}
	if cfg.Server.SpeechPort == 0 {
		cfg.Server.SpeechPort = DefaultSpeechPort()
	}
	if len(cfg.Server.CORSOrigins) == 0 {
		cfg.Server.CORSOrigins = []string{"*"}
	}
	if cfg.Database.URL == "" {
		cfg.Database.URL = "sqlite://./college.db"
	}
	if cfg.Storage.DataDir == "" {
		cfg.Storage.DataDir = "data"
	}
	if cfg.Storage.VectorStoreDir == "" {
		cfg.Storage.VectorStoreDir = "vectorstore"
	}
	if cfg.RAG.TopK == 0 {
		cfg.RAG.TopK = 3
	}
	if cfg.RAG.ChunkSize == 0 {
		cfg.RAG.ChunkSize = 1000
	}
	if cfg.RAG.ChunkOverlap == nil {
		overlap := 150
		cfg.RAG.ChunkOverlap = &overlap
	}
	if cfg.RAG.Embedding.Provider == "" {
		cfg.RAG.Embedding.Provider = "ollama"
	}
	if cfg.RAG.Embedding.Model == "" {
		cfg.RAG.Embedding.Model = "all-minilm"
	}
	if cfg.Cache.TTL == 0 {
		cfg.Cache.TTL = 10 * time.Minute
	}
	if cfg.Speech.SampleRate == 0 {
		cfg.Speech.SampleRate = 16000
	}
	if cfg.Speech.MaxSeconds == 0 {
		cfg.Speech.MaxSeconds = 300
	}
	if cfg.Speech.SourceLanguage == "" {
		cfg.Speech.SourceLanguage = "gu"
	}
	if cfg.Speech.TargetLanguage == "" {
		cfg.Speech.TargetLanguage = "en"
	}
	if cfg.Speech.AssistantURL == "" {
		cfg.Speech.AssistantURL = "http://127.0.0.1:8000/api/query"
	}
	if cfg.Speech.AssistantTimeout == 0 {
		cfg.Speech.AssistantTimeout = 60 * time.Second
	}
	if cfg.Ingest.RosterFile == "" {
		cfg.Ingest.RosterFile = filepath.Join(cfg.Storage.DataDir, "6_Roll Numbers.pdf")
	}
	if len(cfg.Ingest.Subjects) == 0 {
		cfg.Ingest.Subjects = append([]string(nil), DefaultSubjects...)
	}
	if cfg.Ingest.MinPercentage == 0 && cfg.Ingest.MaxPercentage == 0 {
		cfg.Ingest.MinPercentage = 65.0
		cfg.Ingest.MaxPercentage = 99.5
	}
	if cfg.Backends.OllamaURL == "" {
		cfg.Backends.OllamaURL = "http://localhost:11434"
	}
	if cfg.RAG.Embedding.URL == "" {
		cfg.RAG.Embedding.URL = cfg.Backends.OllamaURL
	}
}

// ApplyEnv overrides fields from the environment.
func ApplyEnv(cfg *Config) {
	if v := os.Getenv(envvar.DatabaseURL); v != "" {
		cfg.Database.URL = v
	}
	if v := os.Getenv(envvar.GoogleAPIKey); v != "" {
		cfg.GoogleAPIKey = v
	}
	if v := os.Getenv(envvar.CampusRedisAddr); v != "" {
		cfg.Cache.RedisAddr = v
	}
	if v := os.Getenv(envvar.CampusModelsPath); v != "" {
		cfg.Storage.ModelsDir = v
	}
}
