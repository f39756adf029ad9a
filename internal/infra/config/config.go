package config

import (
	"fmt"
	"time"

	"github.com/spf13/viper"
)

// Config is built once at startup and never mutated afterwards.
type Config struct {
	DatabaseURL string

	RedisAddress  string
	RedisPassword string
	RedisDB       int

	JWTSecret       string
	Issuer          string
	Audience        string
	AccessTokenTTL  time.Duration
	RefreshTokenTTL time.Duration
	VerifyTokenTTL  time.Duration

	PasswordPepper string

	HTTPAddress      string
	APIURL           string
	AllowedOrigins   []string
	AllowCredentials bool
	CookieDomain     string

	// RevocationFailOpen switches the Access Guard to skip the
	// revocation check (with a logged warning) when Redis is down.
	// Default is fail-closed.
	RevocationFailOpen bool

	SendgridAPIKey string
	MailFrom       string

	LogLevel string
}

var requiredKeys = []string{
	"DATABASE_URL",
	"REDIS_ADDRESS",
	"JWT_SECRET",
	"JWT_ISSUER",
	"JWT_AUDIENCE",
	"ACCESS_TOKEN_TTL",
	"REFRESH_TOKEN_TTL",
	"PASSWORD_PEPPER",
}

func Load() (*Config, error) {
	viper.SetConfigName("config")
	viper.SetConfigType("json")
	viper.AddConfigPath(".")

	viper.AutomaticEnv()
	for _, key := range append(requiredKeys,
		"REDIS_PASSWORD", "REDIS_DB",
		"VERIFY_TOKEN_TTL", "HTTP_ADDRESS", "API_URL",
		"ALLOWED_ORIGINS", "ALLOW_CREDENTIALS", "COOKIE_DOMAIN",
		"REVOCATION_FAIL_OPEN", "SENDGRID_API_KEY", "MAIL_FROM",
		"LOG_LEVEL",
	) {
		if err := viper.BindEnv(key); err != nil {
			return nil, err
		}
	}

	viper.SetDefault("HTTP_ADDRESS", ":8080")
	viper.SetDefault("API_URL", "http://localhost:8080")
	viper.SetDefault("VERIFY_TOKEN_TTL", "1h")

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	for _, key := range requiredKeys {
		if !viper.IsSet(key) || viper.GetString(key) == "" {
			return nil, fmt.Errorf("missing required config key %s", key)
		}
	}

	cfg := &Config{
		DatabaseURL:        viper.GetString("DATABASE_URL"),
		RedisAddress:       viper.GetString("REDIS_ADDRESS"),
		RedisPassword:      viper.GetString("REDIS_PASSWORD"),
		RedisDB:            viper.GetInt("REDIS_DB"),
		JWTSecret:          viper.GetString("JWT_SECRET"),
		Issuer:             viper.GetString("JWT_ISSUER"),
		Audience:           viper.GetString("JWT_AUDIENCE"),
		AccessTokenTTL:     viper.GetDuration("ACCESS_TOKEN_TTL"),
		RefreshTokenTTL:    viper.GetDuration("REFRESH_TOKEN_TTL"),
		VerifyTokenTTL:     viper.GetDuration("VERIFY_TOKEN_TTL"),
		PasswordPepper:     viper.GetString("PASSWORD_PEPPER"),
		HTTPAddress:        viper.GetString("HTTP_ADDRESS"),
		APIURL:             viper.GetString("API_URL"),
		AllowedOrigins:     viper.GetStringSlice("ALLOWED_ORIGINS"),
		AllowCredentials:   viper.GetBool("ALLOW_CREDENTIALS"),
		CookieDomain:       viper.GetString("COOKIE_DOMAIN"),
		RevocationFailOpen: viper.GetBool("REVOCATION_FAIL_OPEN"),
		SendgridAPIKey:     viper.GetString("SENDGRID_API_KEY"),
		MailFrom:           viper.GetString("MAIL_FROM"),
		LogLevel:           viper.GetString("LOG_LEVEL"),
	}

	if cfg.AccessTokenTTL <= 0 || cfg.RefreshTokenTTL <= 0 {
		return nil, fmt.Errorf("token TTLs must be positive")
	}
	if cfg.AccessTokenTTL >= cfg.RefreshTokenTTL {
		return nil, fmt.Errorf("ACCESS_TOKEN_TTL must be shorter than REFRESH_TOKEN_TTL")
	}

	return cfg, nil
}
