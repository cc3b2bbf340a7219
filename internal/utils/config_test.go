package utils

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfigIsValid(t *testing.T) {
	config := DefaultConfig()
	require.NoError(t, config.Validate())
	assert.Equal(t, DefaultDashScopeURL, config.OCR.BaseURL)
	assert.Equal(t, 5, config.OCR.CheckpointInterval)
	assert.Equal(t, []string{"static_data", "miniprogram"}, config.Export.OutputDirs)
}

func TestLoadConfigOverlaysDefaults(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	content := "ocr:\n  provider: gemini\n  retries: 5\nmarket:\n  aLimit: 10\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))

	t.Setenv("GEMINI_API_KEY", "g-key")
	t.Setenv("INVESTNOTES_OUTPUT_DIR", "a,b")

	config, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, "gemini", config.OCR.Provider)
	assert.Equal(t, 5, config.OCR.Retries)
	assert.Equal(t, 10, config.Market.ALimit)
	assert.Equal(t, 2000, config.Market.HKLimit)
	assert.Equal(t, "g-key", config.OCR.GeminiAPIKey)
	assert.Equal(t, []string{"a", "b"}, config.Export.OutputDirs)
	assert.NoError(t, config.ValidateOCR())
}

func TestLoadConfigRejectsBadYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("ocr: [unclosed"), 0644))

	_, err := LoadConfig(path)
	assert.Error(t, err)
}

func TestLoadConfigOrDefaultMissingFile(t *testing.T) {
	t.Setenv("DASHSCOPE_API_KEY", "d-key")
	config, err := LoadConfigOrDefault(filepath.Join(t.TempDir(), "missing.yaml"))
	require.NoError(t, err)
	assert.Equal(t, "d-key", config.OCR.APIKey)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"zero ocr timeout", func(c *Config) { c.OCR.Timeout = 0 }},
		{"zero retries", func(c *Config) { c.OCR.Retries = 0 }},
		{"negative limit", func(c *Config) { c.Market.HKLimit = -1 }},
		{"negative top analysis", func(c *Config) { c.Export.TopAnalysis = -1 }},
		{"negative top picks", func(c *Config) { c.Export.TopPicks = -3 }},
		{"no output dirs", func(c *Config) { c.Export.OutputDirs = nil }},
		{"zero scraper timeout", func(c *Config) { c.Scraper.Timeout = 0 }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			config := DefaultConfig()
			tt.mutate(config)
			assert.Error(t, config.Validate())
		})
	}
}

func TestValidateOCR(t *testing.T) {
	config := DefaultConfig()
	assert.Error(t, config.ValidateOCR())

	config.OCR.APIKey = "k"
	assert.NoError(t, config.ValidateOCR())

	config.OCR.Provider = "tesseract"
	assert.Error(t, config.ValidateOCR())

	config.OCR.Provider = "all"
	assert.NoError(t, config.ValidateOCR())
}

func TestSaveRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.yaml")
	config := DefaultConfig()
	config.Server.Addr = ":9999"
	require.NoError(t, config.Save(path))

	loaded, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, ":9999", loaded.Server.Addr)
}
