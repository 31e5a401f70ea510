package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfigDefaults(t *testing.T) {
	for _, key := range []string{"INPUT_DIR", "OUTPUT_PATH", "OCR_BACKEND", "OCR_COMMAND", "OCR_LANGUAGES", "OCR_TIMEOUT_MS", "LEVEL_MARKER"} {
		t.Setenv(key, "")
	}

	cfg, err := LoadConfig()
	require.NoError(t, err)
	assert.Equal(t, "images/v2", cfg.InputDir)
	assert.Equal(t, "output.csv", cfg.OutputPath)
	assert.Equal(t, BackendTesseract, cfg.OCRBackend)
	assert.Equal(t, []string{"jpn", "eng"}, cfg.OCRLanguages)
	assert.Equal(t, time.Minute, cfg.OCRTimeout)
	assert.Equal(t, "楽曲LV.", cfg.LevelMarker)
}

func TestLoadConfigOverrides(t *testing.T) {
	t.Setenv("INPUT_DIR", "shots")
	t.Setenv("OCR_BACKEND", BackendCommand)
	t.Setenv("OCR_COMMAND", "/usr/local/bin/ocr-helper")
	t.Setenv("OCR_LANGUAGES", " jpn , ,eng_vert")
	t.Setenv("OCR_TIMEOUT_MS", "250")

	cfg, err := LoadConfig()
	require.NoError(t, err)
	assert.Equal(t, "shots", cfg.InputDir)
	assert.Equal(t, []string{"jpn", "eng_vert"}, cfg.OCRLanguages)
	assert.Equal(t, 250*time.Millisecond, cfg.OCRTimeout)
}

func TestLoadConfigAppliesOverridesBeforeValidating(t *testing.T) {
	t.Setenv("OCR_BACKEND", BackendCommand)
	t.Setenv("OCR_COMMAND", "")

	_, err := LoadConfig()
	require.Error(t, err)

	cfg, err := LoadConfig(func(c *Config) { c.OCRCommand = "/opt/ocr" }, func(c *Config) { c.InputDir = "later" })
	require.NoError(t, err)
	assert.Equal(t, "/opt/ocr", cfg.OCRCommand)
	assert.Equal(t, "later", cfg.InputDir)
}

func TestValidate(t *testing.T) {
	base := func() *Config {
		return &Config{InputDir: "in", OutputPath: "out.csv", OCRBackend: BackendTesseract, LevelMarker: "LV."}
	}

	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr string
	}{
		{"valid", func(c *Config) {}, ""},
		{"unknown backend", func(c *Config) { c.OCRBackend = "vision" }, "OCR_BACKEND"},
		{"command without executable", func(c *Config) { c.OCRBackend = BackendCommand }, "OCR_COMMAND"},
		{"negative timeout", func(c *Config) { c.OCRTimeout = -time.Second }, "OCR_TIMEOUT_MS"},
		{"empty marker", func(c *Config) { c.LevelMarker = "" }, "LEVEL_MARKER"},
		{"empty input", func(c *Config) { c.InputDir = "" }, "INPUT_DIR"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := base()
			tt.mutate(c)
			err := c.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}
