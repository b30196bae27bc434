package config

import (
	"log"
	"strings"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Env     string `yaml:"env"`
	APIPort int    `yaml:"apiPort"`

	Database struct {
		Type     string `yaml:"type"` // "sqlite" or "postgres"
		Path     string `yaml:"path"` // sqlite only
		Host     string `yaml:"host"`
		Port     string `yaml:"port"`
		Name     string `yaml:"name"`
		User     string `yaml:"user"`
		Password string `yaml:"password"`
		SSLMode  string `yaml:"sslMode"`
	} `yaml:"database"`

	JWT struct {
		Secret          string `yaml:"secret"`
		ExpirationHours int    `yaml:"expirationHours"`
	} `yaml:"jwt"`

	Login struct {
		MaxAttempts int `yaml:"maxAttempts"`
		LockoutSecs int `yaml:"lockoutSecs"`
	} `yaml:"login"`

	OTP struct {
		LimitPerHour    int `yaml:"limitPerHour"`
		MinIntervalSecs int `yaml:"minIntervalSecs"`
		ExpiryMinutes   int `yaml:"expiryMinutes"`
	} `yaml:"otp"`

	RateLimit struct {
		Enabled              bool `yaml:"enabled"`
		AuthRequests         int  `yaml:"authRequests"`
		AuthWindowMinutes    int  `yaml:"authWindowMinutes"`
		GeneralRequests      int  `yaml:"generalRequests"`
		GeneralWindowMinutes int  `yaml:"generalWindowMinutes"`
	} `yaml:"rateLimit"`

	SecurityHeaders bool `yaml:"securityHeaders"`

	Mail struct {
		Provider  string `yaml:"provider"` // "ses" or "log"
		Region    string `yaml:"region"`
		Endpoint  string `yaml:"endpoint"`
		AccessKey string `yaml:"accessKey"`
		SecretKey string `yaml:"secretKey"`
		From      string `yaml:"from"`
	} `yaml:"mail"`

	AllowedOrigins []string `yaml:"allowedOrigins"`
}

// LoadConfig loads the configuration from file and environment variables.
// Every value can be overridden through the environment, e.g.
// AUTHCORE_JWT_SECRET or AUTHCORE_LOGIN_MAXATTEMPTS.
func LoadConfig(path string) (*Config, error) {
	v := viper.New()

	v.SetConfigFile(path)
	v.SetConfigType("yaml")
	v.SetEnvPrefix("AUTHCORE")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			log.Printf("Warning: could not read config file %s: %v. Using defaults and environment variables.", path, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, err
	}

	if cfg.JWT.Secret == "default-secret-change-in-production" && cfg.IsProduction() {
		log.Println("WARNING: running in production with the default JWT secret")
	}

	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("env", "development")
	v.SetDefault("apiPort", 8081)

	v.SetDefault("database.type", "sqlite")
	v.SetDefault("database.path", "/data/authcore.db")
	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", "5432")
	v.SetDefault("database.name", "authcore")
	v.SetDefault("database.user", "authcore")
	v.SetDefault("database.sslMode", "disable")

	v.SetDefault("jwt.secret", "default-secret-change-in-production")
	v.SetDefault("jwt.expirationHours", 24)

	v.SetDefault("login.maxAttempts", 5)
	v.SetDefault("login.lockoutSecs", 300)

	v.SetDefault("otp.limitPerHour", 5)
	v.SetDefault("otp.minIntervalSecs", 60)
	v.SetDefault("otp.expiryMinutes", 10)

	v.SetDefault("rateLimit.enabled", true)
	v.SetDefault("rateLimit.authRequests", 5)
	v.SetDefault("rateLimit.authWindowMinutes", 5)
	v.SetDefault("rateLimit.generalRequests", 100)
	v.SetDefault("rateLimit.generalWindowMinutes", 1)

	v.SetDefault("securityHeaders", true)

	v.SetDefault("mail.provider", "log")
	v.SetDefault("mail.region", "us-east-1")
	v.SetDefault("mail.from", "no-reply@authcore.io")

	v.SetDefault("allowedOrigins", []string{"http://localhost:*", "http://127.0.0.1:*"})
}

// IsProduction reports whether the server runs with production hardening
// (Secure cookies, strict CORS) enabled.
func (c *Config) IsProduction() bool {
	return c.Env == "production" || c.Env == "prod"
}

// TokenTTL returns the configured session token lifetime.
func (c *Config) TokenTTL() time.Duration {
	return time.Duration(c.JWT.ExpirationHours) * time.Hour
}

// LockoutWindow returns the trailing window over which failed logins count.
func (c *Config) LockoutWindow() time.Duration {
	return time.Duration(c.Login.LockoutSecs) * time.Second
}

// OTPMinInterval returns the minimum spacing between two reset requests.
func (c *Config) OTPMinInterval() time.Duration {
	return time.Duration(c.OTP.MinIntervalSecs) * time.Second
}

// OTPExpiry returns how long a reset ticket stays valid.
func (c *Config) OTPExpiry() time.Duration {
	return time.Duration(c.OTP.ExpiryMinutes) * time.Minute
}

// AuthRateWindow returns the window for the stricter auth-endpoint limiter.
func (c *Config) AuthRateWindow() time.Duration {
	return time.Duration(c.RateLimit.AuthWindowMinutes) * time.Minute
}

// GeneralRateWindow returns the window for the general traffic limiter.
func (c *Config) GeneralRateWindow() time.Duration {
	return time.Duration(c.RateLimit.GeneralWindowMinutes) * time.Minute
}
