package config

import (
	"os"
	"regexp"
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"cvlens/internal/logging/types"
)

// Config represents the application configuration
type Config struct {
	Server struct {
		Port         int           `yaml:"port"`
		Host         string        `yaml:"host"`
		ReadTimeout  time.Duration `yaml:"read_timeout"`
		WriteTimeout time.Duration `yaml:"write_timeout"`
		IdleTimeout  time.Duration `yaml:"idle_timeout"`
	} `yaml:"server"`

	LLM struct {
		Provider     string        `yaml:"provider" validate:"oneof=gemini claude"`
		APIKey       string        `yaml:"api_key"`
		Model        string        `yaml:"model"`
		MaxTokens    int           `yaml:"max_tokens" validate:"gt=0"`
		Temperature  float32       `yaml:"temperature"`
		Timeout      time.Duration `yaml:"timeout"`
		MaxRetries   int           `yaml:"max_retries" validate:"gte=1"`
		RetryBackoff time.Duration `yaml:"retry_backoff"`
	} `yaml:"llm"`

	Extractor struct {
		MaxUploadSize int64    `yaml:"max_upload_size"` // bytes
		OCRLanguages  []string `yaml:"ocr_languages"`
	} `yaml:"extractor"`

	Storage struct {
		Backend string `yaml:"backend" validate:"oneof=file redis"`
		DataDir string `yaml:"data_dir"`
		Redis   struct {
			URL      string        `yaml:"url"`
			Password string        `yaml:"password"`
			DB       int           `yaml:"db"`
			Timeout  time.Duration `yaml:"timeout"`
		} `yaml:"redis"`
	} `yaml:"storage"`

	Bot struct {
		Token       string `yaml:"token"`
		PollTimeout int    `yaml:"poll_timeout"` // seconds
	} `yaml:"bot"`

	Logging struct {
		Level    string                `yaml:"level"`
		Format   string                `yaml:"format"`
		Adapters []types.AdapterConfig `yaml:"adapters"`
	} `yaml:"logging"`
}

// expandEnvVars expands environment variables in a string using ${VAR} syntax
func expandEnvVars(s string) string {
	re := regexp.MustCompile(`\$\{([^}]+)\}`)
	return re.ReplaceAllStringFunc(s, func(match string) string {
		varName := match[2 : len(match)-1]
		if val := os.Getenv(varName); val != "" {
			return val
		}
		return match
	})
}

// LoadConfig loads configuration from file and environment variables
func LoadConfig(configPath string) (*Config, error) {
	// Load .env file if it exists (ignore errors if file doesn't exist)
	_ = godotenv.Load()

	config := &Config{}

	// Set defaults
	config.Server.Port = 5000
	config.Server.Host = "0.0.0.0"
	config.Server.ReadTimeout = 30 * time.Second
	config.Server.WriteTimeout = 30 * time.Second
	config.Server.IdleTimeout = 60 * time.Second

	config.LLM.Provider = "gemini"
	config.LLM.Model = "gemini-2.5-flash"
	config.LLM.MaxTokens = 8192
	config.LLM.Temperature = 0.1
	config.LLM.Timeout = 120 * time.Second
	config.LLM.MaxRetries = 3
	config.LLM.RetryBackoff = 2 * time.Second

	config.Extractor.MaxUploadSize = 10 * 1024 * 1024 // 10 MiB
	config.Extractor.OCRLanguages = []string{"eng"}

	config.Storage.Backend = "file"
	config.Storage.DataDir = "data"
	config.Storage.Redis.URL = "redis://localhost:6379"
	config.Storage.Redis.Timeout = 5 * time.Second

	config.Bot.PollTimeout = 60

	config.Logging.Level = "info"
	config.Logging.Format = "json"

	// Load from YAML file if it exists
	if configPath != "" {
		if data, err := os.ReadFile(configPath); err == nil {
			yamlContent := expandEnvVars(string(data))

			if err := yaml.Unmarshal([]byte(yamlContent), config); err != nil {
				return nil, err
			}
		}
	}

	// Override with environment variables
	config.loadFromEnv()

	if err := validator.New().Struct(config); err != nil {
		return nil, err
	}

	return config, nil
}

// loadFromEnv loads configuration from environment variables
func (c *Config) loadFromEnv() {
	if port := os.Getenv("PORT"); port != "" {
		if p, err := strconv.Atoi(port); err == nil {
			c.Server.Port = p
		}
	}

	if host := os.Getenv("HOST"); host != "" {
		c.Server.Host = host
	}

	if provider := os.Getenv("LLM_PROVIDER"); provider != "" {
		c.LLM.Provider = provider
	}

	if apiKey := os.Getenv("LLM_API_KEY"); apiKey != "" {
		c.LLM.APIKey = apiKey
	}

	// Provider-specific key names, matching what the hosted services document
	if c.LLM.APIKey == "" {
		switch c.LLM.Provider {
		case "gemini":
			c.LLM.APIKey = os.Getenv("GEMINI_API_KEY")
		case "claude":
			c.LLM.APIKey = os.Getenv("ANTHROPIC_API_KEY")
		}
	}

	if model := os.Getenv("LLM_MODEL"); model != "" {
		c.LLM.Model = model
	}

	if timeout := os.Getenv("LLM_TIMEOUT"); timeout != "" {
		if d, err := time.ParseDuration(timeout); err == nil {
			c.LLM.Timeout = d
		}
	}

	if retries := os.Getenv("LLM_MAX_RETRIES"); retries != "" {
		if n, err := strconv.Atoi(retries); err == nil {
			c.LLM.MaxRetries = n
		}
	}

	if token := os.Getenv("TELEGRAM_BOT_TOKEN"); token != "" {
		c.Bot.Token = token
	}

	if backend := os.Getenv("STORAGE_BACKEND"); backend != "" {
		c.Storage.Backend = backend
	}

	if dataDir := os.Getenv("DATA_DIR"); dataDir != "" {
		c.Storage.DataDir = dataDir
	}

	if redisURL := os.Getenv("REDIS_URL"); redisURL != "" {
		c.Storage.Redis.URL = redisURL
	}

	if redisPassword := os.Getenv("REDIS_PASSWORD"); redisPassword != "" {
		c.Storage.Redis.Password = redisPassword
	}

	if redisDB := os.Getenv("REDIS_DB"); redisDB != "" {
		if db, err := strconv.Atoi(redisDB); err == nil {
			c.Storage.Redis.DB = db
		}
	}

	if logLevel := os.Getenv("LOG_LEVEL"); logLevel != "" {
		c.Logging.Level = logLevel
	}

	if logFormat := os.Getenv("LOG_FORMAT"); logFormat != "" {
		c.Logging.Format = logFormat
	}
}
