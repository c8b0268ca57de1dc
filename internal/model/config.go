package model

import "time"

// Config holds the complete application configuration
type Config struct {
	Watch     WatchConfig     `yaml:"watch"`
	RateLimit RateLimitConfig `yaml:"rateLimit"`
	HTTP      HTTPConfig      `yaml:"http"`
	Service   ServiceConfig   `yaml:"service"`
	LLM       LLMConfig       `yaml:"llm"`
}

// WatchConfig controls response tracking and finalization
type WatchConfig struct {
	DebounceMs int `yaml:"debounceMs"` // quiescence period before a response is considered settled
}

// Debounce returns the configured quiescence period as a duration
func (w WatchConfig) Debounce() time.Duration {
	return time.Duration(w.DebounceMs) * time.Millisecond
}

// QuotaConfig is a fixed-window quota for one request kind
type QuotaConfig struct {
	Max      int `yaml:"max"`
	WindowMs int `yaml:"windowMs"`
}

// Window returns the quota window as a duration
func (q QuotaConfig) Window() time.Duration {
	return time.Duration(q.WindowMs) * time.Millisecond
}

// RateLimitConfig holds per-kind quotas; extraction and verification
// never share a counter
type RateLimitConfig struct {
	Extract QuotaConfig `yaml:"extract"`
	Verify  QuotaConfig `yaml:"verify"`
}

// HTTPConfig controls outbound HTTP behavior
type HTTPConfig struct {
	Timeout    time.Duration `yaml:"timeout"`
	UserAgent  string        `yaml:"userAgent"`
	HTTPProxy  string        `yaml:"httpProxy"`
	HTTPSProxy string        `yaml:"httpsProxy"`
	NoProxy    string        `yaml:"noProxy"`
}

// ServiceConfig configures the fact-check service
type ServiceConfig struct {
	Addr            string `yaml:"addr"`            // listen address for serve
	BaseURL         string `yaml:"baseUrl"`         // endpoint base URL for clients
	GoogleAPIKey    string `yaml:"googleApiKey"`    // Google Fact Check Tools API key
	CacheTTLSeconds int    `yaml:"cacheTtlSeconds"` // verification result cache TTL
}

// LLMConfig configures the optional LLM-backed claim extractor
type LLMConfig struct {
	Provider  string `yaml:"provider"` // "openai" or "" (disabled)
	Model     string `yaml:"model"`
	APIKey    string `yaml:"apiKey"`
	BaseURL   string `yaml:"baseUrl"`
	Timeout   int    `yaml:"timeout"` // seconds
	MaxTokens int    `yaml:"maxTokens"`
}

// DefaultConfig returns the built-in defaults
func DefaultConfig() *Config {
	return &Config{
		Watch: WatchConfig{
			DebounceMs: 500,
		},
		RateLimit: RateLimitConfig{
			Extract: QuotaConfig{Max: 10, WindowMs: 60000},
			Verify:  QuotaConfig{Max: 5, WindowMs: 60000},
		},
		HTTP: HTTPConfig{
			Timeout:   10 * time.Second,
			UserAgent: "GroundCheck/0.1 (+https://github.com/groundcheck/groundcheck)",
		},
		Service: ServiceConfig{
			Addr:            "127.0.0.1:8090",
			BaseURL:         "http://127.0.0.1:8090",
			CacheTTLSeconds: 3600,
		},
		LLM: LLMConfig{
			Provider:  "",
			Timeout:   30,
			MaxTokens: 1000,
		},
	}
}
