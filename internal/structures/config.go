package structures

import (
	"net/http"
	"time"
)

type CliFlags struct {
	ConfigPath string
	ChannelID  string
	DebugMode  bool
}

type Route struct {
	Url     string
	Handler http.Handler
}

type Server struct {
	Host string `yaml:"host" validate:"required"`
	Port int    `yaml:"port" validate:"required|uint|min:1"`
}

type FetcherConfig struct {
	ChannelID        string        `yaml:"channelId" validate:"required"`
	PageSize         int           `yaml:"pageSize" validate:"required|min:1|max:100"`
	MaxRetries       int           `yaml:"maxRetries" validate:"required|min:1"`
	RateLimitDelay   time.Duration `yaml:"rateLimitDelay" validate:"required|min:1"`
	BackoffBase      time.Duration `yaml:"backoffBase" validate:"required|min:1"`
	BackoffMax       time.Duration `yaml:"backoffMax" validate:"required|min:1"`
	StartDate        string        `yaml:"startDate"`
	EndDate          string        `yaml:"endDate"`
	StallTimeout     time.Duration `yaml:"stallTimeout"`
	ProgressInterval time.Duration `yaml:"progressInterval"`

	// Parsed from StartDate/EndDate by the config provider.
	StartTime time.Time `yaml:"-"`
	EndTime   time.Time `yaml:"-"`
}

type BreakerConfig struct {
	FailureThreshold int           `yaml:"failureThreshold" validate:"required|min:1"`
	Cooldown         time.Duration `yaml:"cooldown" validate:"required|min:1"`
	MaxCooldown      time.Duration `yaml:"maxCooldown" validate:"required|min:1"`
}

type DiscordConfig struct {
	BaseURL string        `yaml:"baseUrl" validate:"required|fullUrl"`
	Token   string        `yaml:"token"`
	Timeout time.Duration `yaml:"timeout" validate:"required|min:1"`
}

type CheckpointConfig struct {
	FilePath       string `yaml:"filePath" validate:"required|unixPath"`
	DiscardCorrupt bool   `yaml:"discardCorrupt"`
}

type PatternConfig struct {
	Name        string `yaml:"name" validate:"required"`
	Regex       string `yaml:"regex" validate:"required"`
	Placeholder string `yaml:"placeholder" validate:"required"`
}

type PrivacyConfig struct {
	RedactPII    bool            `yaml:"redactPii"`
	OptOutFile   string          `yaml:"optOutFile"`
	OptOutPolicy string          `yaml:"optOutPolicy" validate:"required|in:placeholder,drop"`
	Patterns     []PatternConfig `yaml:"patterns"`
}

type StorageConfig struct {
	Directory  string `yaml:"directory" validate:"required|unixPath"`
	Compress   bool   `yaml:"compress"`
	Encrypt    bool   `yaml:"encrypt"`
	KeyFile    string `yaml:"keyFile"`
	SecureWipe bool   `yaml:"secureWipe"`
}

type LoggerConfig struct {
	Level string `yaml:"level" validate:"required|in:trace,debug,info,warn,error,fatal,panic"`
	Mode  uint32 `yaml:"mode" validate:"required|uint"`
	Dir   string `yaml:"dir" validate:"required|unixPath"`
}

type CacheConfig struct {
	Enabled bool `yaml:"enabled"`
	Size    int  `yaml:"size"`
}

type MetricsConfig struct {
	Enabled bool `yaml:"enabled"`
}

type Config struct {
	AppName    string
	Debug      bool
	Path       string
	Fetcher    FetcherConfig    `yaml:"fetcher"`
	Breaker    BreakerConfig    `yaml:"breaker"`
	Discord    DiscordConfig    `yaml:"discord"`
	Checkpoint CheckpointConfig `yaml:"checkpoint"`
	Privacy    PrivacyConfig    `yaml:"privacy"`
	Storage    StorageConfig    `yaml:"storage"`
	OpsServer  Server           `yaml:"opsServer"`
	Logger     LoggerConfig     `yaml:"logger"`
	Cache      CacheConfig      `yaml:"cache"`
	Metrics    MetricsConfig    `yaml:"metrics"`
}
