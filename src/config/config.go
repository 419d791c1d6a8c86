package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

const (
	DefaultAPIKeyPath = "/run/secrets/api_keys/openrouter"
	APIKeyPathEnvVar  = "OPENROUTER_API_KEY_FILE"
	EnvFileEnvVar     = "SCREEN_CAPTURE_OCR"

	DefaultHotkey      = "Ctrl+Win+S"
	DefaultBorderWidth = 1
	DefaultMaskOpacity = 156
	DefaultEngine      = "llm"
	DefaultLanguage    = "eng"
	DefaultDeadlineSec = 20
)

var knownEngines = []string{"llm", "tesseract"}

type LoadOptions struct {
	// EnvFile replaces the .env lookup when set.
	EnvFile            string
	APIKeyPathOverride string
	HotkeyOverride     string
	EngineOverride     string
}

type Config struct {
	APIKey            string
	APIKeyPath        string
	Model             string
	Providers         []string
	Engine            string
	TesseractLanguage string
	TessdataPrefix    string
	Hotkey            string
	BorderWidth       int
	MaskOpacity       int
	OCRDeadlineSec    int
	CopyImage         bool
	ShowHints         bool
	EnableFileLogging bool
	DebugSaveImages   bool
}

func Load() (*Config, error) {
	return LoadWithOptions(LoadOptions{})
}

// LoadWithOptions reads configuration in priority order: CLI overrides, then
// environment variables, then the env file (.env beside the executable or
// the file named by SCREEN_CAPTURE_OCR), then defaults.
func LoadWithOptions(opts LoadOptions) (*Config, error) {
	envPath := strings.TrimSpace(opts.EnvFile)
	if envPath == "" {
		envPath = resolveEnvPath()
	}
	dotenvValues := map[string]string{}
	if envPath != "" {
		values, err := godotenv.Read(envPath)
		if err != nil {
			return nil, fmt.Errorf("read env file %s: %w", envPath, err)
		}
		dotenvValues = values
		_ = godotenv.Load(envPath)
	}

	// Empty environment values fall through to the env file.
	get := func(key string) string {
		if v := os.Getenv(key); v != "" {
			return v
		}
		return dotenvValues[key]
	}
	getDefault := func(key, def string) string {
		if v := get(key); v != "" {
			return v
		}
		return def
	}

	var errs []error
	intValue := func(key string, def int) int {
		v := strings.TrimSpace(get(key))
		if v == "" {
			return def
		}
		n, err := strconv.Atoi(v)
		if err != nil {
			errs = append(errs, fmt.Errorf("%s: %q is not a number", key, v))
			return def
		}
		return n
	}
	boolValue := func(key string, def bool) bool {
		v := strings.TrimSpace(get(key))
		if v == "" {
			return def
		}
		b, err := strconv.ParseBool(v)
		if err != nil {
			errs = append(errs, fmt.Errorf("%s: %q is not a boolean", key, v))
			return def
		}
		return b
	}

	apiKeyPath := resolveAPIKeyPath(opts, dotenvValues)
	cfg := &Config{
		APIKey:            resolveAPIKey(apiKeyPath, get("OPENROUTER_API_KEY")),
		APIKeyPath:        apiKeyPath,
		Model:             get("MODEL"),
		Providers:         splitList(get("PROVIDERS")),
		Engine:            strings.ToLower(getDefault("OCR_ENGINE", DefaultEngine)),
		TesseractLanguage: getDefault("TESSERACT_LANGUAGE", DefaultLanguage),
		TessdataPrefix:    get("TESSDATA_PREFIX"),
		Hotkey:            getDefault("HOTKEY", DefaultHotkey),
		BorderWidth:       intValue("BORDER_WIDTH", DefaultBorderWidth),
		MaskOpacity:       intValue("MASK_OPACITY", DefaultMaskOpacity),
		OCRDeadlineSec:    intValue("OCR_DEADLINE_SEC", DefaultDeadlineSec),
		CopyImage:         boolValue("COPY_IMAGE", false),
		ShowHints:         boolValue("SHOW_HINTS", true),
		EnableFileLogging: boolValue("ENABLE_FILE_LOGGING", false),
		DebugSaveImages:   boolValue("DEBUG_SAVE_IMAGES", false),
	}
	if v := strings.TrimSpace(opts.HotkeyOverride); v != "" {
		cfg.Hotkey = v
	}
	if v := strings.TrimSpace(opts.EngineOverride); v != "" {
		cfg.Engine = strings.ToLower(v)
	}
	if cfg.OCRDeadlineSec <= 0 {
		cfg.OCRDeadlineSec = DefaultDeadlineSec
	}
	if len(errs) > 0 {
		return nil, errors.Join(errs...)
	}
	return cfg, nil
}

// Validate rejects values the overlay and recognizer cannot work with.
func (c *Config) Validate() error {
	var errs []error
	if c.BorderWidth < 1 {
		errs = append(errs, fmt.Errorf("BORDER_WIDTH must be at least 1, got %d", c.BorderWidth))
	}
	if c.MaskOpacity < 0 || c.MaskOpacity > 255 {
		errs = append(errs, fmt.Errorf("MASK_OPACITY must be within 0..255, got %d", c.MaskOpacity))
	}
	known := false
	for _, e := range knownEngines {
		if c.Engine == e {
			known = true
		}
	}
	if !known {
		errs = append(errs, fmt.Errorf("OCR_ENGINE must be one of %s, got %q", strings.Join(knownEngines, ", "), c.Engine))
	}
	if c.Engine == "llm" && !c.CopyImage {
		if c.APIKey == "" {
			errs = append(errs, fmt.Errorf("OPENROUTER_API_KEY is required. Checked key file %s and OPENROUTER_API_KEY env var", c.APIKeyPath))
		}
		if c.Model == "" {
			errs = append(errs, errors.New("MODEL is required. Please set it in your .env file"))
		}
	}
	return errors.Join(errs...)
}

func resolveEnvPath() string {
	if execPath, err := os.Executable(); err == nil {
		exeEnv := filepath.Join(filepath.Dir(execPath), ".env")
		if _, err := os.Stat(exeEnv); err == nil {
			return exeEnv
		}
	}
	if alt := os.Getenv(EnvFileEnvVar); alt != "" {
		if _, err := os.Stat(alt); err == nil {
			return alt
		}
	}
	return ""
}

func resolveAPIKeyPath(opts LoadOptions, dotenvValues map[string]string) string {
	keyPath := DefaultAPIKeyPath
	if envPath := strings.TrimSpace(os.Getenv(APIKeyPathEnvVar)); envPath != "" {
		keyPath = envPath
	}
	if dotenvPath := strings.TrimSpace(dotenvValues[APIKeyPathEnvVar]); dotenvPath != "" {
		keyPath = dotenvPath
	}
	if overridePath := strings.TrimSpace(opts.APIKeyPathOverride); overridePath != "" {
		keyPath = overridePath
	}
	return keyPath
}

func resolveAPIKey(keyPath, envKey string) string {
	if data, err := os.ReadFile(keyPath); err == nil {
		if fileKey := strings.TrimSpace(string(data)); fileKey != "" {
			return fileKey
		}
	}
	return envKey
}

func splitList(s string) []string {
	var out []string
	for _, item := range strings.Split(s, ",") {
		if trimmed := strings.TrimSpace(item); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
