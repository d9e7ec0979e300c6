package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dyike/CortexReview/consts"
)

func TestDefaultsAreValid(t *testing.T) {
	cfg := DefaultConfigWithRoot(t.TempDir())
	require.NoError(t, cfg.Validate())
	assert.Equal(t, "gemini-2.5-flash", cfg.ModelName())
	assert.Equal(t, 120*time.Second, cfg.Timeout())
	assert.Equal(t, int64(20<<20), cfg.MaxImageBytes())
}

func TestLoadFromEnvOverrides(t *testing.T) {
	t.Setenv("CORTEXREVIEW_PROVIDER", "OpenAI")
	t.Setenv("CORTEXREVIEW_MODEL", "gpt-4o")
	t.Setenv("OPENAI_API_KEY", "sk-test")
	t.Setenv("GEMINI_API_KEY", "")
	t.Setenv("GOOGLE_API_KEY", "")
	t.Setenv("CORTEXREVIEW_TIMEOUT", "45")
	t.Setenv("CORTEXREVIEW_JOURNAL", "true")
	t.Setenv("CORTEXREVIEW_MAX_IMAGE_MB", "not-a-number")

	cfg := DefaultConfigWithRoot(t.TempDir())
	cfg.LoadFromEnv()

	assert.Equal(t, consts.Provider_OpenAI, cfg.Provider)
	assert.Equal(t, "gpt-4o", cfg.ModelName())
	assert.Equal(t, "sk-test", cfg.APIKey())
	assert.Equal(t, 45, cfg.AnalysisTimeout)
	assert.True(t, cfg.JournalEnabled)
	assert.Equal(t, 20, cfg.MaxImageMB, "unparseable value keeps the default")
	require.NoError(t, cfg.CheckCredentials())
}

func TestGoogleKeyWinsOverGeminiKey(t *testing.T) {
	t.Setenv("CORTEXREVIEW_PROVIDER", "")
	t.Setenv("GEMINI_API_KEY", "gemini-key")
	t.Setenv("GOOGLE_API_KEY", "google-key")

	cfg := DefaultConfigWithRoot(t.TempDir())
	cfg.LoadFromEnv()
	assert.Equal(t, "google-key", cfg.APIKey())
}

func TestValidate(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*Config)
	}{
		{"unknown provider", func(c *Config) { c.Provider = "bard" }},
		{"negative timeout", func(c *Config) { c.AnalysisTimeout = -1 }},
		{"image cap too small", func(c *Config) { c.MaxImageMB = 0 }},
		{"temperature", func(c *Config) { c.Temperature = 3 }},
		{"debug port", func(c *Config) { c.EinoDebugEnabled = true; c.EinoDebugPort = 0 }},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := DefaultConfigWithRoot(t.TempDir())
			tc.mutate(cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}

func TestCheckCredentials(t *testing.T) {
	cfg := DefaultConfigWithRoot(t.TempDir())
	cfg.GeminiAPIKey = ""
	require.ErrorIs(t, cfg.CheckCredentials(), ErrMissingAPIKey)
	cfg.GeminiAPIKey = "k"
	require.NoError(t, cfg.CheckCredentials())
}
