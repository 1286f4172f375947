package common

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/pelletier/go-toml/v2"
)

// Config represents the application configuration
type Config struct {
	Environment string         `toml:"environment"` // "development" or "production"
	Server      ServerConfig   `toml:"server"`
	Storage     StorageConfig  `toml:"storage"`
	Logging     LoggingConfig  `toml:"logging"`
	Pipeline    PipelineConfig `toml:"pipeline"`
	LLM         LLMConfig      `toml:"llm"`
	Workers     WorkersConfig  `toml:"workers"`
}

type ServerConfig struct {
	Port        int      `toml:"port" validate:"gte=0,lte=65535"`
	Host        string   `toml:"host"`
	CORSOrigins []string `toml:"cors_origins"` // Allowed CORS origins ("*" allows all)
}

type StorageConfig struct {
	Badger BadgerConfig `toml:"badger"`
}

// BadgerConfig represents BadgerDB-specific configuration
type BadgerConfig struct {
	Path           string `toml:"path"`             // Database directory path
	ResetOnStartup bool   `toml:"reset_on_startup"` // Delete database on startup for clean test runs
}

type LoggingConfig struct {
	Level      string   `toml:"level" validate:"omitempty,oneof=debug info warn error"`
	Format     string   `toml:"format"`      // "json" or "text"
	Output     []string `toml:"output"`      // "stdout", "file"
	TimeFormat string   `toml:"time_format"` // Time format for logs (default: "15:04:05")
}

// PipelineConfig contains limits and working storage settings for source processing
type PipelineConfig struct {
	TmpDir           string `toml:"tmp_dir"`                                // Root for per-source working directories
	MaxVideoDuration int    `toml:"max_video_duration" validate:"gt=0"`     // Seconds; longer videos are rejected
	MaxChunks        int    `toml:"max_chunks" validate:"gt=0"`             // Transcript chunk cap, also caps audio segments
	MaxUploadBytes   int64  `toml:"max_upload_bytes" validate:"gt=0"`       // Upload size cap in bytes
	CleanupSchedule  string `toml:"cleanup_schedule"`   // Cron schedule for the workdir janitor
	CleanupMaxAge    string `toml:"cleanup_max_age"`    // Workdirs older than this are removed, e.g. "24h"
}

// LLMProvider selects between a remote API and a local OpenAI-compatible endpoint
type LLMProvider string

const (
	// LLMProviderRemote uses a hosted API (OpenAI, Claude or Gemini per remote_backend)
	LLMProviderRemote LLMProvider = "remote"
	// LLMProviderLocal uses a local OpenAI-compatible endpoint such as Ollama
	LLMProviderLocal LLMProvider = "local"
)

// LLMConfig contains provider selection and per-tier model bindings
type LLMConfig struct {
	Provider        LLMProvider `toml:"provider" validate:"oneof=remote local"`
	RemoteBackend   string      `toml:"remote_backend"`    // "openai", "claude" or "gemini"
	APIKey          string      `toml:"api_key"`           // OpenAI API key
	AnthropicAPIKey string      `toml:"anthropic_api_key"` // Anthropic API key
	GeminiAPIKey    string      `toml:"gemini_api_key"`    // Google Gemini API key
	MapModel        string      `toml:"map_model"`         // Model for map-phase summaries
	ReduceModel     string      `toml:"reduce_model"`      // Model for channel generation
	ValidationModel string      `toml:"validation_model"`  // Model for editorial review
	WhisperModel    string      `toml:"whisper_model"`     // Audio transcription model
	LocalBaseURL    string      `toml:"local_base_url"`    // OpenAI-compatible base URL for local provider
	LocalMapModel   string      `toml:"local_map_model"`   // Local model for map phase
	LocalTextModel  string      `toml:"local_text_model"`  // Local model for reduce and validation
	Timeout         string      `toml:"timeout"`           // Per-request timeout as duration string
}

// WorkersConfig contains configuration for the job queue
type WorkersConfig struct {
	Count     int `toml:"count" validate:"gt=0"`      // Number of concurrent pipeline workers
	QueueSize int `toml:"queue_size" validate:"gt=0"` // Dispatch channel capacity
}

// NewDefaultConfig creates a configuration with default values.
// Technical parameters are hardcoded here for production stability.
// Only user-facing settings should be exposed in remix.toml.
func NewDefaultConfig() *Config {
	return &Config{
		Environment: "development",
		Server: ServerConfig{
			Port:        8080,
			Host:        "localhost",
			CORSOrigins: []string{"*"},
		},
		Storage: StorageConfig{
			Badger: BadgerConfig{
				Path: "./data",
			},
		},
		Logging: LoggingConfig{
			Level:      "info",
			Format:     "text",
			Output:     []string{"stdout", "file"},
			TimeFormat: "15:04:05",
		},
		Pipeline: PipelineConfig{
			TmpDir:           "./data/tmp",
			MaxVideoDuration: 7200,             // 2 hours
			MaxChunks:        120,              // Transcript chunk and audio segment cap
			MaxUploadBytes:   10 * 1024 * 1024, // 10 MiB
			CleanupSchedule:  "0 0 * * * *",    // Hourly (cron format with seconds)
			CleanupMaxAge:    "24h",
		},
		LLM: LLMConfig{
			Provider:        LLMProviderRemote,
			RemoteBackend:   "openai",
			MapModel:        "gpt-4o-mini",
			ReduceModel:     "gpt-4o-mini",
			ValidationModel: "gpt-4o-mini",
			WhisperModel:    "whisper-1",
			LocalBaseURL:    "http://localhost:11434/v1",
			LocalMapModel:   "qwen2.5:7b-instruct",
			LocalTextModel:  "qwen2.5:7b-instruct",
			Timeout:         "5m",
		},
		Workers: WorkersConfig{
			Count:     2,
			QueueSize: 64,
		},
	}
}

// LoadFromFile loads configuration with priority: default -> file -> env -> CLI
func LoadFromFile(path string) (*Config, error) {
	if path == "" {
		return LoadFromFiles()
	}
	return LoadFromFiles(path)
}

// LoadFromFiles loads configuration from multiple files.
// Later files override earlier files; environment variables override all files.
func LoadFromFiles(paths ...string) (*Config, error) {
	config := NewDefaultConfig()

	for i, path := range paths {
		if path == "" {
			continue
		}

		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
		}

		err = toml.Unmarshal(data, config)
		if err != nil {
			return nil, fmt.Errorf("failed to parse config file %s (file %d of %d): %w", path, i+1, len(paths), err)
		}
	}

	applyEnvOverrides(config)

	if err := config.Validate(); err != nil {
		return nil, err
	}

	return config, nil
}

// Validate checks configuration invariants before services start
func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	return nil
}

// applyEnvOverrides applies environment variable overrides to config
func applyEnvOverrides(config *Config) {
	if env := os.Getenv("REMIX_ENV"); env != "" {
		config.Environment = env
	} else if env := os.Getenv("GO_ENV"); env != "" {
		config.Environment = env
	}

	// Server configuration
	if port := os.Getenv("REMIX_SERVER_PORT"); port != "" {
		if p, err := strconv.Atoi(port); err == nil {
			config.Server.Port = p
		}
	}
	if host := os.Getenv("REMIX_SERVER_HOST"); host != "" {
		config.Server.Host = host
	}
	if origins := os.Getenv("REMIX_SERVER_CORS_ORIGINS"); origins != "" {
		parsed := []string{}
		for _, o := range strings.Split(origins, ",") {
			if trimmed := strings.TrimSpace(o); trimmed != "" {
				parsed = append(parsed, trimmed)
			}
		}
		if len(parsed) > 0 {
			config.Server.CORSOrigins = parsed
		}
	}

	// Storage configuration
	if badgerPath := os.Getenv("REMIX_BADGER_PATH"); badgerPath != "" {
		config.Storage.Badger.Path = badgerPath
	}

	// Logging configuration
	if level := os.Getenv("REMIX_LOG_LEVEL"); level != "" {
		config.Logging.Level = level
	}
	if format := os.Getenv("REMIX_LOG_FORMAT"); format != "" {
		config.Logging.Format = format
	}
	if output := os.Getenv("REMIX_LOG_OUTPUT"); output != "" {
		outputs := []string{}
		for _, o := range strings.Split(output, ",") {
			if trimmed := strings.TrimSpace(o); trimmed != "" {
				outputs = append(outputs, trimmed)
			}
		}
		if len(outputs) > 0 {
			config.Logging.Output = outputs
		}
	}

	// Pipeline configuration
	if tmpDir := os.Getenv("REMIX_PIPELINE_TMP_DIR"); tmpDir != "" {
		config.Pipeline.TmpDir = tmpDir
	}
	if maxDuration := os.Getenv("REMIX_PIPELINE_MAX_VIDEO_DURATION"); maxDuration != "" {
		if d, err := strconv.Atoi(maxDuration); err == nil {
			config.Pipeline.MaxVideoDuration = d
		}
	}
	if maxChunks := os.Getenv("REMIX_PIPELINE_MAX_CHUNKS"); maxChunks != "" {
		if c, err := strconv.Atoi(maxChunks); err == nil {
			config.Pipeline.MaxChunks = c
		}
	}
	if maxUpload := os.Getenv("REMIX_PIPELINE_MAX_UPLOAD_BYTES"); maxUpload != "" {
		if b, err := strconv.ParseInt(maxUpload, 10, 64); err == nil {
			config.Pipeline.MaxUploadBytes = b
		}
	}
	if schedule := os.Getenv("REMIX_PIPELINE_CLEANUP_SCHEDULE"); schedule != "" {
		config.Pipeline.CleanupSchedule = schedule
	}
	if maxAge := os.Getenv("REMIX_PIPELINE_CLEANUP_MAX_AGE"); maxAge != "" {
		config.Pipeline.CleanupMaxAge = maxAge
	}

	// LLM configuration
	if provider := os.Getenv("REMIX_LLM_PROVIDER"); provider != "" {
		config.LLM.Provider = LLMProvider(provider)
	}
	if backend := os.Getenv("REMIX_LLM_REMOTE_BACKEND"); backend != "" {
		config.LLM.RemoteBackend = backend
	}
	if apiKey := os.Getenv("OPENAI_API_KEY"); apiKey != "" {
		config.LLM.APIKey = apiKey
	}
	if apiKey := os.Getenv("REMIX_LLM_API_KEY"); apiKey != "" {
		config.LLM.APIKey = apiKey // REMIX_ prefix takes priority
	}
	if apiKey := os.Getenv("ANTHROPIC_API_KEY"); apiKey != "" {
		config.LLM.AnthropicAPIKey = apiKey
	}
	if apiKey := os.Getenv("REMIX_LLM_ANTHROPIC_API_KEY"); apiKey != "" {
		config.LLM.AnthropicAPIKey = apiKey
	}
	if apiKey := os.Getenv("GEMINI_API_KEY"); apiKey != "" {
		config.LLM.GeminiAPIKey = apiKey
	}
	if apiKey := os.Getenv("REMIX_LLM_GEMINI_API_KEY"); apiKey != "" {
		config.LLM.GeminiAPIKey = apiKey
	}
	if model := os.Getenv("REMIX_LLM_MAP_MODEL"); model != "" {
		config.LLM.MapModel = model
	}
	if model := os.Getenv("REMIX_LLM_REDUCE_MODEL"); model != "" {
		config.LLM.ReduceModel = model
	}
	if model := os.Getenv("REMIX_LLM_VALIDATION_MODEL"); model != "" {
		config.LLM.ValidationModel = model
	}
	if model := os.Getenv("REMIX_LLM_WHISPER_MODEL"); model != "" {
		config.LLM.WhisperModel = model
	}
	if baseURL := os.Getenv("REMIX_LLM_LOCAL_BASE_URL"); baseURL != "" {
		config.LLM.LocalBaseURL = baseURL
	}
	if model := os.Getenv("REMIX_LLM_LOCAL_MAP_MODEL"); model != "" {
		config.LLM.LocalMapModel = model
	}
	if model := os.Getenv("REMIX_LLM_LOCAL_TEXT_MODEL"); model != "" {
		config.LLM.LocalTextModel = model
	}
	if timeout := os.Getenv("REMIX_LLM_TIMEOUT"); timeout != "" {
		config.LLM.Timeout = timeout
	}

	// Workers configuration
	if count := os.Getenv("REMIX_WORKERS_COUNT"); count != "" {
		if c, err := strconv.Atoi(count); err == nil && c > 0 {
			config.Workers.Count = c
		}
	}
	if size := os.Getenv("REMIX_WORKERS_QUEUE_SIZE"); size != "" {
		if s, err := strconv.Atoi(size); err == nil && s > 0 {
			config.Workers.QueueSize = s
		}
	}
}

// ApplyFlagOverrides applies command-line flag overrides to config
func ApplyFlagOverrides(config *Config, port int, host string) {
	if port > 0 {
		config.Server.Port = port
	}
	if host != "" {
		config.Server.Host = host
	}
}

// IsProduction returns true if the environment is set to production
func (c *Config) IsProduction() bool {
	env := strings.ToLower(strings.TrimSpace(c.Environment))
	return env == "production" || env == "prod"
}
