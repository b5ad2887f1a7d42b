package config

// Config holds all application configuration.
// It organizes settings into logical groups for better maintainability.
type Config struct {
	Server     ServerConfig     `mapstructure:"server"     validate:"required"`
	Database   DatabaseConfig   `mapstructure:"database"   validate:"required"`
	Auth       AuthConfig       `mapstructure:"auth"       validate:"required"`
	Generation GenerationConfig `mapstructure:"generation" validate:"required"`
	Media      MediaConfig      `mapstructure:"media"      validate:"required"`
	Quota      QuotaConfig      `mapstructure:"quota"      validate:"required"`
}

// ServerConfig contains all server-related configuration settings.
type ServerConfig struct {
	Port     int    `mapstructure:"port"      validate:"required,gt=0,lt=65536"`
	LogLevel string `mapstructure:"log_level" validate:"required,oneof=debug info warn error"`
}

// DatabaseConfig contains all database-related configuration settings.
type DatabaseConfig struct {
	URL string `mapstructure:"url" validate:"required,url"`
}

// AuthConfig contains all authentication and authorization settings.
type AuthConfig struct {
	JWTSecret                   string `mapstructure:"jwt_secret"                     validate:"required,min=32"`
	TokenLifetimeMinutes        int    `mapstructure:"token_lifetime_minutes"         validate:"required,gt=0"`
	RefreshTokenLifetimeMinutes int    `mapstructure:"refresh_token_lifetime_minutes" validate:"required,gt=0"`
}

// GenerationConfig contains settings for the external generation webhook.
type GenerationConfig struct {
	// WebhookURL is the n8n webhook endpoint that performs the actual
	// content generation from a prompt and optional image.
	WebhookURL string `mapstructure:"webhook_url" validate:"required,url"`

	// TimeoutSeconds bounds a single generation call. Generation is slow;
	// the reference deployment allows up to five minutes.
	TimeoutSeconds int `mapstructure:"timeout_seconds" validate:"required,gt=0"`

	// ResponseShape selects which of the two webhook response formats the
	// extractor expects: "candidates" (Gemini candidate/parts form) or
	// "flat" (top-level inlineData form). Fixed per deployment, never
	// sniffed per request.
	ResponseShape string `mapstructure:"response_shape" validate:"required,oneof=candidates flat"`
}

// MediaConfig contains settings for generated-media storage.
type MediaConfig struct {
	// UploadDir is the directory generated media files are written to.
	UploadDir string `mapstructure:"upload_dir" validate:"required"`

	// PublicPrefix is the URL path prefix under which UploadDir is served.
	PublicPrefix string `mapstructure:"public_prefix" validate:"required,startswith=/"`
}

// QuotaConfig contains per-user generation quota settings.
type QuotaConfig struct {
	// DailyLimit is the maximum number of generations a user may start
	// per UTC day.
	DailyLimit int `mapstructure:"daily_limit" validate:"required,gt=0"`
}
