package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range []string{
		"OPENROUTER_API_KEY", APIKeyPathEnvVar, EnvFileEnvVar, "MODEL", "PROVIDERS", "OCR_ENGINE",
		"TESSERACT_LANGUAGE", "TESSDATA_PREFIX", "HOTKEY", "BORDER_WIDTH", "MASK_OPACITY",
		"OCR_DEADLINE_SEC", "COPY_IMAGE", "SHOW_HINTS", "ENABLE_FILE_LOGGING", "DEBUG_SAVE_IMAGES",
	} {
		t.Setenv(k, "")
	}
}

func TestLoadDefaults(t *testing.T) {
	clearEnv(t)
	cfg, err := LoadWithOptions(LoadOptions{APIKeyPathOverride: filepath.Join(t.TempDir(), "missing")})
	if err != nil {
		t.Fatalf("LoadWithOptions: %v", err)
	}
	if cfg.Hotkey != DefaultHotkey {
		t.Errorf("Hotkey = %q, expected %q", cfg.Hotkey, DefaultHotkey)
	}
	if cfg.BorderWidth != 1 || cfg.MaskOpacity != 156 {
		t.Errorf("BorderWidth/MaskOpacity = %d/%d, expected 1/156", cfg.BorderWidth, cfg.MaskOpacity)
	}
	if cfg.Engine != "llm" || cfg.TesseractLanguage != "eng" {
		t.Errorf("Engine/Language = %q/%q", cfg.Engine, cfg.TesseractLanguage)
	}
	if cfg.OCRDeadlineSec != 20 || !cfg.ShowHints || cfg.CopyImage {
		t.Errorf("unexpected defaults: %+v", cfg)
	}
}

func TestLoadFromEnvironment(t *testing.T) {
	clearEnv(t)
	t.Setenv("OPENROUTER_API_KEY", "test_api_key")
	t.Setenv("MODEL", "test_model")
	t.Setenv("ENABLE_FILE_LOGGING", "true")
	t.Setenv("HOTKEY", "Ctrl+Shift+T")
	t.Setenv("PROVIDERS", " a , ,b ")
	t.Setenv("BORDER_WIDTH", "3")
	t.Setenv("OCR_DEADLINE_SEC", "-4")

	cfg, err := LoadWithOptions(LoadOptions{APIKeyPathOverride: filepath.Join(t.TempDir(), "missing")})
	if err != nil {
		t.Fatalf("LoadWithOptions: %v", err)
	}
	if cfg.APIKey != "test_api_key" || cfg.Model != "test_model" {
		t.Errorf("APIKey/Model = %q/%q", cfg.APIKey, cfg.Model)
	}
	if !cfg.EnableFileLogging {
		t.Errorf("EnableFileLogging = false")
	}
	if cfg.Hotkey != "Ctrl+Shift+T" {
		t.Errorf("Hotkey = %q", cfg.Hotkey)
	}
	if len(cfg.Providers) != 2 || cfg.Providers[0] != "a" || cfg.Providers[1] != "b" {
		t.Errorf("Providers = %v", cfg.Providers)
	}
	if cfg.BorderWidth != 3 {
		t.Errorf("BorderWidth = %d", cfg.BorderWidth)
	}
	if cfg.OCRDeadlineSec != DefaultDeadlineSec {
		t.Errorf("OCRDeadlineSec = %d, expected default for non-positive value", cfg.OCRDeadlineSec)
	}
}

func TestAPIKeyFileWinsOverEnv(t *testing.T) {
	clearEnv(t)
	t.Setenv("OPENROUTER_API_KEY", "from_env")
	keyFile := filepath.Join(t.TempDir(), "key")
	if err := os.WriteFile(keyFile, []byte("  from_file\n"), 0600); err != nil {
		t.Fatal(err)
	}
	cfg, err := LoadWithOptions(LoadOptions{APIKeyPathOverride: keyFile})
	if err != nil {
		t.Fatalf("LoadWithOptions: %v", err)
	}
	if cfg.APIKey != "from_file" || cfg.APIKeyPath != keyFile {
		t.Errorf("APIKey = %q from %q", cfg.APIKey, cfg.APIKeyPath)
	}
}

func TestEnvFileAndOverrides(t *testing.T) {
	clearEnv(t)
	dir := t.TempDir()
	envFile := filepath.Join(dir, "custom.env")
	content := "MODEL=file_model\nMASK_OPACITY=200\nOCR_ENGINE=tesseract\n" + APIKeyPathEnvVar + "=" + filepath.Join(dir, "nokey") + "\n"
	if err := os.WriteFile(envFile, []byte(content), 0600); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() {
		os.Unsetenv("MODEL")
		os.Unsetenv("MASK_OPACITY")
		os.Unsetenv("OCR_ENGINE")
		os.Unsetenv(APIKeyPathEnvVar)
	})

	cfg, err := LoadWithOptions(LoadOptions{EnvFile: envFile, HotkeyOverride: "Alt+F9", EngineOverride: "LLM"})
	if err != nil {
		t.Fatalf("LoadWithOptions: %v", err)
	}
	if cfg.Model != "file_model" || cfg.MaskOpacity != 200 {
		t.Errorf("Model/MaskOpacity = %q/%d", cfg.Model, cfg.MaskOpacity)
	}
	if cfg.Hotkey != "Alt+F9" || cfg.Engine != "llm" {
		t.Errorf("overrides not applied: hotkey=%q engine=%q", cfg.Hotkey, cfg.Engine)
	}
	if cfg.APIKeyPath != filepath.Join(dir, "nokey") {
		t.Errorf("APIKeyPath = %q", cfg.APIKeyPath)
	}
}

func TestLoadRejectsMalformedNumbers(t *testing.T) {
	clearEnv(t)
	t.Setenv("BORDER_WIDTH", "wide")
	t.Setenv("COPY_IMAGE", "sometimes")
	_, err := LoadWithOptions(LoadOptions{APIKeyPathOverride: filepath.Join(t.TempDir(), "missing")})
	if err == nil {
		t.Fatal("expected error")
	}
	for _, want := range []string{"BORDER_WIDTH", "COPY_IMAGE"} {
		if !strings.Contains(err.Error(), want) {
			t.Errorf("error %q does not mention %s", err, want)
		}
	}
}

func TestValidate(t *testing.T) {
	valid := Config{Engine: "llm", APIKey: "k", Model: "m", BorderWidth: 1, MaskOpacity: 156}
	if err := valid.Validate(); err != nil {
		t.Errorf("valid config rejected: %v", err)
	}

	tests := []struct {
		name   string
		mutate func(*Config)
		want   string
	}{
		{"border", func(c *Config) { c.BorderWidth = 0 }, "BORDER_WIDTH"},
		{"opacity", func(c *Config) { c.MaskOpacity = 300 }, "MASK_OPACITY"},
		{"engine", func(c *Config) { c.Engine = "abacus" }, "OCR_ENGINE"},
		{"key", func(c *Config) { c.APIKey = "" }, "OPENROUTER_API_KEY"},
		{"model", func(c *Config) { c.Model = "" }, "MODEL"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := valid
			tt.mutate(&c)
			err := c.Validate()
			if err == nil || !strings.Contains(err.Error(), tt.want) {
				t.Errorf("Validate() = %v, expected mention of %s", err, tt.want)
			}
		})
	}

	tess := Config{Engine: "tesseract", BorderWidth: 2, MaskOpacity: 0}
	if err := tess.Validate(); err != nil {
		t.Errorf("tesseract config without key rejected: %v", err)
	}
	copyOnly := Config{Engine: "llm", CopyImage: true, BorderWidth: 1, MaskOpacity: 1}
	if err := copyOnly.Validate(); err != nil {
		t.Errorf("copy-image config without key rejected: %v", err)
	}
}
