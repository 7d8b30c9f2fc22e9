package common

import (
	"os"
	"regexp"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all application configuration
type Config struct {
	Server   ServerConfig
	Capture  CaptureConfig
	OCR      OCRConfig
	LLM      LLMConfig
	Pipeline PipelineConfig
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Addr            string
	RateLimitPerSec float64
	Workers         int
	QueueDepth      int
	RequestTimeout  time.Duration
}

// CaptureConfig holds browser capture configuration
type CaptureConfig struct {
	ChromiumBin    string
	FirefoxBin     string
	NavTimeout     time.Duration
	SettleDelay    time.Duration
	ScreenshotDir  string
	ViewportWidth  int
	ViewportHeight int
}

// OCRConfig holds OCR-related configuration
type OCRConfig struct {
	Tesseract     string
	TesseractLang string
	PSM           int
	EasyOCRURL    string
	MaxEngineUses int
	MinConfidence float64
}

// LLMConfig holds model client configuration
type LLMConfig struct {
	MistralModel string
	HFModel      string
	GeminiModel  string
	APIKey       string
	Temperature  float32
	MaxTokens    int
	Timeout      time.Duration
	MaxRetries   int
}

// PipelineConfig holds extraction pipeline thresholds
type PipelineConfig struct {
	MinDOMTextLen   int
	MinFinalTextLen int
	UseDOMFirst     bool
	UseOCRFallback  bool
}

// LoadConfig loads configuration from the environment. A .env file in the
// working directory is applied first without overriding existing variables,
// and a token.md file is scanned as a last resort for an API key.
func LoadConfig() *Config {
	_ = godotenv.Load()

	return &Config{
		Server: ServerConfig{
			Addr:            getEnv("HTTP_ADDR", ":5010"),
			RateLimitPerSec: getEnvAsFloat64("RATE_LIMIT_PER_SEC", 5),
			Workers:         getEnvAsInt("PIPELINE_WORKERS", 4),
			QueueDepth:      getEnvAsInt("PIPELINE_QUEUE_DEPTH", 64),
			RequestTimeout:  getEnvAsDuration("REQUEST_TIMEOUT", 5*time.Minute),
		},
		Capture: CaptureConfig{
			ChromiumBin:    getEnv("CHROMIUM_BIN", ""),
			FirefoxBin:     getEnv("FIREFOX_BIN", ""),
			NavTimeout:     getEnvAsDuration("CAPTURE_NAV_TIMEOUT", 30*time.Second),
			SettleDelay:    getEnvAsDuration("CAPTURE_SETTLE_DELAY", 2*time.Second),
			ScreenshotDir:  getEnv("SCREENSHOT_DIR", os.TempDir()),
			ViewportWidth:  getEnvAsInt("CAPTURE_VIEWPORT_WIDTH", 1280),
			ViewportHeight: getEnvAsInt("CAPTURE_VIEWPORT_HEIGHT", 2000),
		},
		OCR: OCRConfig{
			Tesseract:     getEnv("TESSERACT_BIN", "tesseract"),
			TesseractLang: getEnv("TESSERACT_LANG", "eng"),
			PSM:           getEnvAsInt("TESSERACT_PSM", 6),
			EasyOCRURL:    getEnv("EASYOCR_URL", "http://localhost:8501"),
			MaxEngineUses: getEnvAsInt("OCR_MAX_ENGINE_USES", 50),
			MinConfidence: getEnvAsFloat64("OCR_MIN_CONFIDENCE", 0),
		},
		LLM: LLMConfig{
			MistralModel: getEnv("MISTRAL_MODEL", "mistral-medium"),
			HFModel:      getEnv("HF_MODEL", "mistralai/Mistral-7B-Instruct-v0.2"),
			GeminiModel:  getEnv("GEMINI_MODEL", "gemini-1.5-flash"),
			APIKey:       resolveAPIKey(),
			Temperature:  getEnvAsFloat32("LLM_TEMPERATURE", 0.0),
			MaxTokens:    getEnvAsInt("LLM_MAX_TOKENS", 4096),
			Timeout:      getEnvAsDuration("LLM_TIMEOUT", 3*time.Minute),
			MaxRetries:   getEnvAsInt("LLM_MAX_RETRIES", 3),
		},
		Pipeline: PipelineConfig{
			MinDOMTextLen:   getEnvAsInt("MIN_DOM_TEXT_LEN", 50),
			MinFinalTextLen: getEnvAsInt("MIN_FINAL_TEXT_LEN", 10),
			UseDOMFirst:     getEnvAsBool("USE_DOM_FIRST", true),
			UseOCRFallback:  getEnvAsBool("USE_OCR_FALLBACK", true),
		},
	}
}

var tokenFilePatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)\$env:HF_TOKEN\s*=\s*["']([^"']+)["']`),
	regexp.MustCompile(`(?i)HF_TOKEN\s*[=:]\s*["']?([^"'\s]+)["']?`),
	regexp.MustCompile(`(?i)MISTRAL_API_KEY\s*[=:]\s*["']?([^"'\s]+)["']?`),
	regexp.MustCompile(`(?i)GEMINI_API_KEY\s*[=:]\s*["']?([^"'\s]+)["']?`),
}

// resolveAPIKey prefers environment variables, then scans token.md.
func resolveAPIKey() string {
	for _, key := range []string{"MISTRAL_API_KEY", "HF_TOKEN", "GEMINI_API_KEY"} {
		if v := os.Getenv(key); v != "" {
			return v
		}
	}
	return TokenFromFile("token.md")
}

// TokenFromFile extracts an API token from a notes file such as token.md.
// Supported formats include PowerShell assignments and plain KEY=value lines.
func TokenFromFile(path string) string {
	content, err := os.ReadFile(path)
	if err != nil {
		return ""
	}
	for _, re := range tokenFilePatterns {
		if m := re.FindSubmatch(content); m != nil {
			return string(m[1])
		}
	}
	return ""
}

// Helper functions for environment variable parsing
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvAsFloat32(key string, defaultValue float32) float32 {
	if value := os.Getenv(key); value != "" {
		if floatVal, err := strconv.ParseFloat(value, 32); err == nil {
			return float32(floatVal)
		}
	}
	return defaultValue
}

func getEnvAsFloat64(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if floatVal, err := strconv.ParseFloat(value, 64); err == nil {
			return floatVal
		}
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolVal, err := strconv.ParseBool(value); err == nil {
			return boolVal
		}
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}

// Validate checks settings that have no workable default.
func (c *Config) Validate() error {
	if c.Server.Addr == "" {
		return NewAppError("CONFIG_ERROR", "HTTP_ADDR is required", ErrInvalidInput)
	}
	if c.Server.Workers <= 0 {
		return NewAppError("CONFIG_ERROR", "PIPELINE_WORKERS must be positive", ErrInvalidInput)
	}
	if c.Pipeline.MinDOMTextLen < c.Pipeline.MinFinalTextLen {
		return NewAppError("CONFIG_ERROR", "MIN_DOM_TEXT_LEN must be >= MIN_FINAL_TEXT_LEN", ErrInvalidInput)
	}
	return nil
}
