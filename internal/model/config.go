package model

import "time"

// Config is the complete glosshover configuration
type Config struct {
	Render       RenderConfig       `yaml:"render" mapstructure:"render"`
	Glossary     GlossaryConfig     `yaml:"glossary" mapstructure:"glossary"`
	Content      ContentConfig      `yaml:"content" mapstructure:"content"`
	HTTP         HTTPConfig         `yaml:"http" mapstructure:"http"`
	Cache        CacheConfig        `yaml:"cache" mapstructure:"cache"`
	Concurrency  ConcurrencyConfig  `yaml:"concurrency" mapstructure:"concurrency"`
	RateLimiting RateLimitingConfig `yaml:"rate_limiting" mapstructure:"rate_limiting"`
	Server       ServerConfig       `yaml:"server" mapstructure:"server"`
	Log          LogConfig          `yaml:"log" mapstructure:"log"`
	LLM          LLMConfig          `yaml:"llm" mapstructure:"llm"`
}

// GlossaryConfig points at the term source
type GlossaryConfig struct {
	File string `yaml:"file" mapstructure:"file"` // YAML/JSON glossary file
	DB   string `yaml:"db" mapstructure:"db"`     // SQLite term store (takes precedence over File)

	// LongestFirst orders terms longest first before each pass, so phrases
	// win over the words they contain regardless of glossary order
	LongestFirst bool `yaml:"longest_first" mapstructure:"longest_first"`
}

// ContentConfig gates which kinds of content are annotated. Requests that
// carry no kind (local files, URLs) are always annotated.
type ContentConfig struct {
	EnabledKinds []string `yaml:"enabled_kinds" mapstructure:"enabled_kinds"` // e.g. post, page
}

// HTTPConfig controls remote content fetching
type HTTPConfig struct {
	Timeout       time.Duration `yaml:"timeout" mapstructure:"timeout"`
	UserAgent     string        `yaml:"user_agent" mapstructure:"user_agent"`
	MaxBodyBytes  int64         `yaml:"max_body_bytes" mapstructure:"max_body_bytes"`
	RespectRobots bool          `yaml:"respect_robots" mapstructure:"respect_robots"`
	HTTPProxy     string        `yaml:"http_proxy,omitempty" mapstructure:"http_proxy"`
	HTTPSProxy    string        `yaml:"https_proxy,omitempty" mapstructure:"https_proxy"`
}

// CacheConfig selects the annotated-output cache backend
type CacheConfig struct {
	Enabled   bool          `yaml:"enabled" mapstructure:"enabled"`
	Backend   string        `yaml:"backend" mapstructure:"backend"` // memory, disk, layered, redis
	Dir       string        `yaml:"dir" mapstructure:"dir"`
	TTL       time.Duration `yaml:"ttl" mapstructure:"ttl"`
	RedisAddr string        `yaml:"redis_addr,omitempty" mapstructure:"redis_addr"`
	RedisDB   int           `yaml:"redis_db,omitempty" mapstructure:"redis_db"`
}

// ConcurrencyConfig controls batch parallelism
type ConcurrencyConfig struct {
	Workers int `yaml:"workers" mapstructure:"workers"`
}

// RateLimitingConfig applies per-host limits to URL targets
type RateLimitingConfig struct {
	RequestsPerSecond float64 `yaml:"requests_per_second" mapstructure:"requests_per_second"`
	BurstSize         int     `yaml:"burst_size" mapstructure:"burst_size"`

	// Hosts overrides the limit for individual hosts
	Hosts map[string]HostRateLimit `yaml:"hosts,omitempty" mapstructure:"hosts"`
}

// HostRateLimit is the limit applied to one host
type HostRateLimit struct {
	RequestsPerSecond float64 `yaml:"requests_per_second" mapstructure:"requests_per_second"`
	BurstSize         int     `yaml:"burst_size" mapstructure:"burst_size"`
}

// ServerConfig configures the HTTP service
type ServerConfig struct {
	Addr string `yaml:"addr" mapstructure:"addr"`
}

// LogConfig configures the logger
type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`   // debug, info, warn, error
	Format string `yaml:"format" mapstructure:"format"` // text, json
	File   string `yaml:"file,omitempty" mapstructure:"file"`
}

// LLMConfig configures the optional definition drafter
type LLMConfig struct {
	Provider string `yaml:"provider" mapstructure:"provider"` // "" disables, "openai"
	Model    string `yaml:"model" mapstructure:"model"`
	BaseURL  string `yaml:"base_url,omitempty" mapstructure:"base_url"`
	APIKey   string `yaml:"-" mapstructure:"api_key"`
	MaxChars int    `yaml:"max_chars" mapstructure:"max_chars"`
	Timeout  int    `yaml:"timeout" mapstructure:"timeout"` // seconds
}

// DefaultConfig returns the built-in configuration
func DefaultConfig() *Config {
	return &Config{
		Render: DefaultRenderConfig(),
		Content: ContentConfig{
			EnabledKinds: []string{"post"},
		},
		HTTP: HTTPConfig{
			Timeout:       30 * time.Second,
			UserAgent:     "glosshover/0.1 (+https://github.com/ppiankov/glosshover)",
			MaxBodyBytes:  2_000_000,
			RespectRobots: true,
		},
		Cache: CacheConfig{
			Enabled: true,
			Backend: "memory",
			Dir:     ".glosshover-cache",
			TTL:     time.Hour,
		},
		Concurrency: ConcurrencyConfig{
			Workers: 4,
		},
		RateLimiting: RateLimitingConfig{
			RequestsPerSecond: 2,
			BurstSize:         5,
		},
		Server: ServerConfig{
			Addr: ":8080",
		},
		Log: LogConfig{
			Level:  "info",
			Format: "text",
		},
		LLM: LLMConfig{
			Model:    "gpt-4o-mini",
			MaxChars: 280,
			Timeout:  30,
		},
	}
}
