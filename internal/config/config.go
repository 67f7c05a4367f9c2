package config

// Config holds all application configuration.
// It organizes settings into logical groups for better maintainability.
type Config struct {
	Server   ServerConfig   `mapstructure:"server"   validate:"required"`
	Database DatabaseConfig `mapstructure:"database" validate:"required"`
	Cache    CacheConfig    `mapstructure:"cache"`
	Auth     AuthConfig     `mapstructure:"auth"     validate:"required"`
	LLM      LLMConfig      `mapstructure:"llm"`
	Game     GameConfig     `mapstructure:"game"     validate:"required"`
}

// ServerConfig contains all server-related configuration settings.
type ServerConfig struct {
	Port     int    `mapstructure:"port"      validate:"required,gt=0,lt=65536"`
	LogLevel string `mapstructure:"log_level" validate:"required,oneof=debug info warn error"`

	// ContentDir points at the static book content (JSON files).
	ContentDir string `mapstructure:"content_dir" validate:"required"`
}

// DatabaseConfig contains all database-related configuration settings.
type DatabaseConfig struct {
	URL string `mapstructure:"url" validate:"required"`
}

// CacheConfig contains Redis settings for the local profile cache.
// The cache is optional: with an empty address the engine runs store-only.
type CacheConfig struct {
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db" validate:"gte=0,lte=15"`
}

// AuthConfig contains all authentication and authorization settings.
type AuthConfig struct {
	JWTSecret                   string `mapstructure:"jwt_secret"                     validate:"required,min=32"`
	TokenLifetimeMinutes        int    `mapstructure:"token_lifetime_minutes"         validate:"required,gt=0"`
	RefreshTokenLifetimeMinutes int    `mapstructure:"refresh_token_lifetime_minutes" validate:"required,gt=0"`
	BcryptCost                  int    `mapstructure:"bcrypt_cost"                    validate:"gte=0,lte=31"`
}

// LLMConfig contains the AI-coach integration settings.
// The coach is optional: with an empty API key the chat endpoint is disabled.
type LLMConfig struct {
	GeminiAPIKey      string `mapstructure:"gemini_api_key"`
	ModelName         string `mapstructure:"model_name"`
	SystemPrompt      string `mapstructure:"system_prompt"`
	MaxTokens         int    `mapstructure:"max_tokens"          validate:"gte=0"`
	MaxRetries        int    `mapstructure:"max_retries"         validate:"gte=0"`
	RetryDelaySeconds int    `mapstructure:"retry_delay_seconds" validate:"gte=0"`
}

// GameConfig contains the tunable progression parameters.
// Defaults match the shipped product values; see progression.DefaultParams.
type GameConfig struct {
	MaxHearts              int `mapstructure:"max_hearts"               validate:"required,gt=0"`
	HeartRecoveryMinutes   int `mapstructure:"heart_recovery_minutes"   validate:"required,gt=0"`
	FreeDailyTokens        int `mapstructure:"free_daily_tokens"        validate:"required,gt=0"`
	XPCorrectAnswer        int `mapstructure:"xp_correct_answer"        validate:"required,gt=0"`
	XPLessonComplete       int `mapstructure:"xp_lesson_complete"       validate:"required,gt=0"`
	XPPerfectLesson        int `mapstructure:"xp_perfect_lesson"        validate:"required,gte=0"`
	SaveDebounceMillis     int `mapstructure:"save_debounce_millis"     validate:"required,gt=0"`
	SessionIdleTimeoutMins int `mapstructure:"session_idle_timeout_mins" validate:"gte=0"`
}
