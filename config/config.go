package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"github.com/dyike/CortexReview/consts"
)

type Config struct {
	DataDir    string `json:"data_dir"`
	ResultsDir string `json:"results_dir"`

	// Analysis provider
	Provider     string  `json:"provider"`
	Model        string  `json:"model"`
	BackendURL   string  `json:"backend_url"`
	Temperature  float32 `json:"temperature"`
	GeminiAPIKey string  `json:"gemini_api_key,omitempty"`
	OpenAIAPIKey string  `json:"openai_api_key,omitempty"`

	// Evaluation
	PlaybookPath    string `json:"playbook_path"`
	AnalysisTimeout int    `json:"analysis_timeout_sec"`
	MaxImageMB      int    `json:"max_image_mb"`
	JournalEnabled  bool   `json:"journal_enabled"`

	// Web desk
	ServeAddr string `json:"serve_addr"`

	LogLevel string `json:"log_level"`
	LogFile  string `json:"log_file"`
	Debug    bool   `json:"debug"`

	// Eino Debug configuration
	EinoDebugEnabled bool `json:"eino_debug_enabled"`
	EinoDebugPort    int  `json:"eino_debug_port"`
}

var (
	ErrUnknownProvider = errors.New("unknown analysis provider")
	ErrMissingAPIKey   = errors.New("api key not configured")
	ErrUnknownSetting  = errors.New("unknown config setting")
)

// DefaultConfig returns defaults rooted at the working directory with .env
// and environment overrides applied.
func DefaultConfig() *Config {
	currentDir, _ := os.Getwd()
	cfg := DefaultConfigWithRoot(currentDir)
	cfg.LoadFromEnv()
	return cfg
}

// DefaultConfigWithRoot returns the built-in defaults with data kept under root.
func DefaultConfigWithRoot(root string) *Config {
	return &Config{
		DataDir:    filepath.Join(root, "data"),
		ResultsDir: filepath.Join(root, "results"),

		Provider:    consts.Provider_Gemini,
		Model:       "",
		BackendURL:  "",
		Temperature: 0.2,

		PlaybookPath:    "",
		AnalysisTimeout: 120,
		MaxImageMB:      20,
		JournalEnabled:  false,

		ServeAddr: "127.0.0.1:8080",

		LogLevel: "info",
		LogFile:  "",
		Debug:    false,

		EinoDebugEnabled: false,
		EinoDebugPort:    52538,
	}
}

// LoadFromEnv loads .env (if present) and lets environment variables win
// over whatever the config currently holds.
func (c *Config) LoadFromEnv() {
	_ = godotenv.Load()

	if val := os.Getenv("CORTEXREVIEW_DATA_DIR"); val != "" {
		c.DataDir = val
	}
	if val := os.Getenv("CORTEXREVIEW_RESULTS_DIR"); val != "" {
		c.ResultsDir = val
	}

	if val := os.Getenv("CORTEXREVIEW_PROVIDER"); val != "" {
		c.Provider = strings.ToLower(strings.TrimSpace(val))
	}
	if val := os.Getenv("CORTEXREVIEW_MODEL"); val != "" {
		c.Model = val
	}
	if val := os.Getenv("OPENAI_BASE_URL"); val != "" && c.Provider == consts.Provider_OpenAI {
		c.BackendURL = val
	}
	if val := os.Getenv("CORTEXREVIEW_BACKEND_URL"); val != "" {
		c.BackendURL = val
	}
	if val := os.Getenv("CORTEXREVIEW_TEMPERATURE"); val != "" {
		if v, err := strconv.ParseFloat(val, 32); err == nil {
			c.Temperature = float32(v)
		}
	}

	// GOOGLE_API_KEY takes precedence, same as the genai SDK.
	if val := os.Getenv("GEMINI_API_KEY"); val != "" {
		c.GeminiAPIKey = val
	}
	if val := os.Getenv("GOOGLE_API_KEY"); val != "" {
		c.GeminiAPIKey = val
	}
	if val := os.Getenv("OPENAI_API_KEY"); val != "" {
		c.OpenAIAPIKey = val
	}

	if val := os.Getenv("CORTEXREVIEW_PLAYBOOK"); val != "" {
		c.PlaybookPath = val
	}
	if val := os.Getenv("CORTEXREVIEW_TIMEOUT"); val != "" {
		if v, err := strconv.Atoi(val); err == nil {
			c.AnalysisTimeout = v
		}
	}
	if val := os.Getenv("CORTEXREVIEW_MAX_IMAGE_MB"); val != "" {
		if v, err := strconv.Atoi(val); err == nil {
			c.MaxImageMB = v
		}
	}
	if val := os.Getenv("CORTEXREVIEW_JOURNAL"); val != "" {
		if enabled, err := strconv.ParseBool(val); err == nil {
			c.JournalEnabled = enabled
		}
	}

	if val := os.Getenv("CORTEXREVIEW_ADDR"); val != "" {
		c.ServeAddr = val
	}

	if val := os.Getenv("LOG_LEVEL"); val != "" {
		c.LogLevel = val
	}
	if val := os.Getenv("LOG_FILE"); val != "" {
		c.LogFile = val
	}
	if val := os.Getenv("CORTEXREVIEW_DEBUG"); val != "" {
		if enabled, err := strconv.ParseBool(val); err == nil {
			c.Debug = enabled
		}
	}

	if val := os.Getenv("EINO_DEBUG_ENABLED"); val != "" {
		if enabled, err := strconv.ParseBool(val); err == nil {
			c.EinoDebugEnabled = enabled
		}
	}
	if val := os.Getenv("EINO_DEBUG_PORT"); val != "" {
		if port, err := strconv.Atoi(val); err == nil {
			c.EinoDebugPort = port
		}
	}
}

// Validate checks structural settings. Credentials are checked separately by
// CheckCredentials so a fresh config file can be written before keys exist.
func (c *Config) Validate() error {
	switch c.Provider {
	case consts.Provider_Gemini, consts.Provider_OpenAI:
	default:
		return fmt.Errorf("%w: %q", ErrUnknownProvider, c.Provider)
	}
	if c.AnalysisTimeout < 0 {
		return fmt.Errorf("analysis timeout must not be negative")
	}
	if c.MaxImageMB < 1 || c.MaxImageMB > 100 {
		return fmt.Errorf("max image size must be between 1 and 100 MB")
	}
	if c.Temperature < 0 || c.Temperature > 2 {
		return fmt.Errorf("temperature must be between 0 and 2")
	}
	if c.EinoDebugEnabled && (c.EinoDebugPort <= 0 || c.EinoDebugPort > 65535) {
		return fmt.Errorf("invalid eino debug port %d", c.EinoDebugPort)
	}
	return nil
}

// CheckCredentials reports whether the selected provider has an API key.
func (c *Config) CheckCredentials() error {
	if c.APIKey() == "" {
		return fmt.Errorf("%w for provider %s", ErrMissingAPIKey, c.Provider)
	}
	return nil
}

// APIKey returns the key for the selected provider.
func (c *Config) APIKey() string {
	switch c.Provider {
	case consts.Provider_OpenAI:
		return c.OpenAIAPIKey
	default:
		return c.GeminiAPIKey
	}
}

// ModelName returns the configured model or the provider default.
func (c *Config) ModelName() string {
	if strings.TrimSpace(c.Model) != "" {
		return c.Model
	}
	switch c.Provider {
	case consts.Provider_OpenAI:
		return "gpt-4o-mini"
	default:
		return "gemini-2.5-flash"
	}
}

func (c *Config) Timeout() time.Duration {
	return time.Duration(c.AnalysisTimeout) * time.Second
}

func (c *Config) MaxImageBytes() int64 {
	return int64(c.MaxImageMB) << 20
}

func (c *Config) JournalPath() string {
	return filepath.Join(c.DataDir, "journal.db")
}

func (c *Config) EnsureDirectories() error {
	dirs := []string{c.DataDir, c.ResultsDir}
	for _, dir := range dirs {
		path := strings.TrimSpace(dir)
		if path == "" {
			continue
		}
		if err := os.MkdirAll(path, 0o755); err != nil {
			return fmt.Errorf("create directory %s: %w", path, err)
		}
	}
	return nil
}
