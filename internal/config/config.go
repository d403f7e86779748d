package config

import (
	"errors"
	"time"
)

// SourceType represents the type of model source.
type SourceType string

const (
	// SourceTypeHuggingFace represents a Hugging Face model repository source.
	SourceTypeHuggingFace SourceType = "huggingface"

	// SourceTypeRemote represents a model served by a remote API (Ollama, Gemini, ...).
	SourceTypeRemote SourceType = "remote"
)

// Config holds the main configuration for the application.
type Config struct {
	Version      string                 `json:"version"                yaml:"version"`
	Server       ServerConfig           `json:"server"                 yaml:"server"`
	Database     DatabaseConfig         `json:"database"               yaml:"database"`
	Storage      StorageConfig          `json:"storage,omitempty"      yaml:"storage,omitempty"`
	RAG          RAGConfig              `json:"rag"                    yaml:"rag"`
	Cache        CacheConfig            `json:"cache,omitempty"        yaml:"cache,omitempty"`
	Speech       SpeechConfig           `json:"speech"                 yaml:"speech"`
	Translation  TranslationConfig      `json:"translation,omitempty"  yaml:"translation,omitempty"`
	Ingest       IngestConfig           `json:"ingest,omitempty"       yaml:"ingest,omitempty"`
	Backends     BackendsConfig         `json:"backends,omitempty"     yaml:"backends,omitempty"`
	Models       map[string]ModelConfig `json:"models"                 yaml:"models"`
	Services     ServicesConfig         `json:"services"               yaml:"services"`
	GoogleAPIKey string                 `json:"google_api_key,omitempty" yaml:"google_api_key,omitempty"`
}

// ServerConfig holds the listen ports of the binaries.
type ServerConfig struct {
	HTTPPort    int      `json:"http_port"              yaml:"http_port"`
	GRPCPort    int      `json:"grpc_port"              yaml:"grpc_port"`
	SpeechPort  int      `json:"speech_port"            yaml:"speech_port"`
	CORSOrigins []string `json:"cors_origins,omitempty" yaml:"cors_origins,omitempty"`
}

// DatabaseConfig holds the relational store connection string.
// Supported forms: sqlite://<path>, sqlite:///<path>, a bare file path, postgres://...
type DatabaseConfig struct {
	URL string `json:"url" yaml:"url"`
}

// StorageConfig holds on-disk locations.
type StorageConfig struct {
	ModelsDir      string `json:"models_dir,omitempty"      yaml:"models_dir,omitempty"`
	DataDir        string `json:"data_dir,omitempty"        yaml:"data_dir,omitempty"`
	VectorStoreDir string `json:"vectorstore_dir,omitempty" yaml:"vectorstore_dir,omitempty"`
}

// RAGConfig configures retrieval and chunking.
type RAGConfig struct {
	TopK         int             `json:"top_k"         yaml:"top_k"`
	ChunkSize    int             `json:"chunk_size"    yaml:"chunk_size"`
	ChunkOverlap *int            `json:"chunk_overlap" yaml:"chunk_overlap"` // nil means the default; 0 disables overlap
	Embedding    EmbeddingConfig `json:"embedding"     yaml:"embedding"`
}

// EmbeddingConfig selects the embedding provider.
type EmbeddingConfig struct {
	Provider string `json:"provider"      yaml:"provider"`
	Model    string `json:"model"         yaml:"model"`
	URL      string `json:"url,omitempty" yaml:"url,omitempty"`
}

// CacheConfig configures the optional Redis answer cache.
type CacheConfig struct {
	RedisAddr     string        `json:"redis_addr,omitempty"     yaml:"redis_addr,omitempty"`
	RedisPassword string        `json:"redis_password,omitempty" yaml:"redis_password,omitempty"`
	RedisDB       int           `json:"redis_db,omitempty"       yaml:"redis_db,omitempty"`
	TTL           time.Duration `json:"ttl,omitempty"            yaml:"ttl,omitempty"`
}

// SpeechConfig configures the speech-to-speech demo.
type SpeechConfig struct {
	SampleRate       int           `json:"sample_rate"       yaml:"sample_rate"`
	MaxSeconds       int           `json:"max_seconds"       yaml:"max_seconds"`
	SourceLanguage   string        `json:"source_language"   yaml:"source_language"`
	TargetLanguage   string        `json:"target_language"   yaml:"target_language"`
	AssistantURL     string        `json:"assistant_url"     yaml:"assistant_url"`
	AssistantTimeout time.Duration `json:"assistant_timeout" yaml:"assistant_timeout"`
}

// TranslationConfig selects the translation provider.
type TranslationConfig struct {
	Provider string `json:"provider,omitempty" yaml:"provider,omitempty"`
}

// IngestConfig configures the batch ingestion jobs.
type IngestConfig struct {
	RosterFile    string   `json:"roster_file,omitempty"    yaml:"roster_file,omitempty"`
	Subjects      []string `json:"subjects,omitempty"       yaml:"subjects,omitempty"`
	MinPercentage float64  `json:"min_percentage,omitempty" yaml:"min_percentage,omitempty"`
	MaxPercentage float64  `json:"max_percentage,omitempty" yaml:"max_percentage,omitempty"`
}

// BackendsConfig holds binary paths and endpoints of the inference backends.
type BackendsConfig struct {
	LlamaCPPBin      string `json:"llama_cpp_bin,omitempty"      yaml:"llama_cpp_bin,omitempty"`
	WhisperServerBin string `json:"whisper_server_bin,omitempty" yaml:"whisper_server_bin,omitempty"`
	PiperBin         string `json:"piper_bin,omitempty"          yaml:"piper_bin,omitempty"`
	OllamaURL        string `json:"ollama_url,omitempty"         yaml:"ollama_url,omitempty"`
	GoogleSpeech     bool   `json:"google_speech,omitempty"      yaml:"google_speech,omitempty"`
}

// ModelConfig holds configuration for a specific model.
type ModelConfig struct {
	Source     SourceConfig   `json:"source,omitempty"     yaml:"source,omitempty"`
	Type       string         `json:"type"                 yaml:"type"`
	Backend    string         `json:"backend"              yaml:"backend"`
	Name       string         `json:"name,omitempty"       yaml:"name,omitempty"`
	File       string         `json:"file,omitempty"       yaml:"file,omitempty"`
	Parameters map[string]any `json:"parameters,omitempty" yaml:"parameters,omitempty"`
	Tags       []string       `json:"tags,omitempty"       yaml:"tags,omitempty"`
}

// SourceConfig wraps optional sources (only one should be set).
type SourceConfig struct {
	HuggingFace *HuggingFaceSource `json:"huggingface,omitempty" yaml:"huggingface,omitempty"`
}

// ServicesConfig holds model assignments for every service.
type ServicesConfig struct {
	LLM ServicesConfigAssignment `json:"llm" yaml:"llm"`
	STT ServicesConfigAssignment `json:"stt" yaml:"stt"`
	TTS ServicesConfigAssignment `json:"tts" yaml:"tts"`
}

// ServicesConfigAssignment holds model assignments for a service, in preference order.
type ServicesConfigAssignment struct {
	Models []string `json:"models" yaml:"models"`
}

// -------------------------
// Source definitions
// -------------------------

// ModelSource represents a source for a model.
type ModelSource interface {
	Type() SourceType
}

// HuggingFaceSource represents a Hugging Face model repository source.
type HuggingFaceSource struct {
	Repo          string   `json:"repo"                     yaml:"repo"`
	Revision      string   `json:"revision,omitempty"       yaml:"revision,omitempty"`
	RepoType      string   `json:"repo_type,omitempty"      yaml:"repo_type,omitempty"`
	Token         string   `json:"token,omitempty"          yaml:"token,omitempty"`
	Include       []string `json:"include,omitempty"        yaml:"include,omitempty"`
	Exclude       []string `json:"exclude,omitempty"        yaml:"exclude,omitempty"`
	MaxWorkers    int      `json:"max_workers,omitempty"    yaml:"max_workers,omitempty"`
	ForceDownload bool     `json:"force_download,omitempty" yaml:"force_download,omitempty"`
}

// Type returns the Hugging Face source type.
func (h HuggingFaceSource) Type() SourceType {
	return SourceTypeHuggingFace
}

// RemoteSource is a model addressed by name on a remote API.
type RemoteSource struct {
	Name string
}

// Type returns the remote source type.
func (r RemoteSource) Type() SourceType {
	return SourceTypeRemote
}

// GetSource returns the active source for the model.
func (m *ModelConfig) GetSource() (ModelSource, error) {
	if m.Source.HuggingFace != nil {
		return *m.Source.HuggingFace, nil
	}
	if m.Name != "" {
		return RemoteSource{Name: m.Name}, nil
	}

	return nil, errors.New("no source configured for model")
}

// SetHuggingFaceSource sets the Hugging Face source.
func (m *ModelConfig) SetHuggingFaceSource(source HuggingFaceSource) {
	m.Source.HuggingFace = &source
}
