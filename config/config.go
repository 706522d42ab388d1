package config

import (
	"log"
	"time"

	"github.com/caarlos0/env/v10"
	"github.com/joho/godotenv"
)

type Config struct {
	App            AppConfig            `envPrefix:"SHOPCMS_APP_"`
	Server         ServerConfig         `envPrefix:"SHOPCMS_SERVER_"`
	Log            LogConfig            `envPrefix:"SHOPCMS_LOG_"`
	Database       DatabaseConfig       `envPrefix:"SHOPCMS_DB_"`
	Auth           AuthConfig           `envPrefix:"SHOPCMS_AUTH_"`
	JWT            JWTConfig            `envPrefix:"SHOPCMS_JWT_"`
	RefreshSession RefreshSessionConfig `envPrefix:"SHOPCMS_REFRESH_"`
	Mail           MailConfig           `envPrefix:"SHOPCMS_MAIL_"`
	RateLimit      RateLimitConfig      `envPrefix:"SHOPCMS_RATELIMIT_"`
}

type AppConfig struct {
	Name string `env:"NAME" envDefault:"shopcms"`
	URL  string `env:"URL" envDefault:"http://localhost:8080"`
	Env  string `env:"ENV" envDefault:"development"`
}

type ServerConfig struct {
	Host string `env:"HOST" envDefault:"localhost"`
	Port string `env:"PORT" envDefault:"8080"`
}

type LogConfig struct {
	Level  string `env:"LEVEL" envDefault:"info"`
	Format string `env:"FORMAT" envDefault:"json"`
	Output string `env:"OUTPUT" envDefault:"stdout"`
}

type DatabaseConfig struct {
	Driver      string `env:"DRIVER" envDefault:"sqlite"`
	DSN         string `env:"DSN" envDefault:"shopcms.db"`
	AutoMigrate bool   `env:"AUTO_MIGRATE" envDefault:"true"`
}

type AuthConfig struct {
	PBKDF2Iterations   int           `env:"PBKDF2_ITERATIONS" envDefault:"120000"`
	SaltLength         int           `env:"SALT_LENGTH" envDefault:"16"`
	MinPasswordLength  int           `env:"MIN_PASSWORD_LENGTH" envDefault:"6"`
	VerificationExpiry time.Duration `env:"VERIFICATION_EXPIRY" envDefault:"10m"`
}

type JWTConfig struct {
	AccessSecret     string        `env:"ACCESS_SECRET" envDefault:"dev_access_secret"`
	RefreshSecret    string        `env:"REFRESH_SECRET" envDefault:"dev_refresh_secret"`
	Issuer           string        `env:"ISSUER" envDefault:"shopcms"`
	Audience         string        `env:"AUDIENCE" envDefault:"shopcms_web"`
	AccessExpiry     time.Duration `env:"ACCESS_EXPIRY" envDefault:"15m"`
	RefreshExpiry    time.Duration `env:"REFRESH_EXPIRY" envDefault:"720h"`
	RememberMeExpiry time.Duration `env:"REMEMBER_ME_EXPIRY" envDefault:"2160h"`
}

type RefreshSessionConfig struct {
	CleanupInterval time.Duration `env:"CLEANUP_INTERVAL" envDefault:"1h"`
	RetainExpired   time.Duration `env:"RETAIN_EXPIRED" envDefault:"720h"`
	CookieSecure    bool          `env:"COOKIE_SECURE" envDefault:"false"`
}

type MailConfig struct {
	Enabled     bool   `env:"ENABLED" envDefault:"false"`
	Host        string `env:"HOST" envDefault:"localhost"`
	Port        int    `env:"PORT" envDefault:"587"`
	Username    string `env:"USERNAME"`
	Password    string `env:"PASSWORD"`
	Encryption  string `env:"ENCRYPTION" envDefault:"starttls"`
	FromAddress string `env:"FROM_ADDRESS"`
	FromName    string `env:"FROM_NAME" envDefault:"shopcms"`
}

type RateLimitConfig struct {
	Enabled bool          `env:"ENABLED" envDefault:"true"`
	Rate    int           `env:"RATE" envDefault:"10"`
	Period  time.Duration `env:"PERIOD" envDefault:"1m"`
}

func LoadConfig(cfg any) error {
	if err := godotenv.Load(); err != nil {
		log.Printf("No .env file found: %v", err)
	}

	return env.Parse(cfg)
}

func (c *Config) IsProduction() bool {
	return c.App.Env == "production"
}
