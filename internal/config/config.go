package config

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

type Config struct {
	Port              string   `mapstructure:"PORT"`
	Env               string   `mapstructure:"ENV"`
	DataDir           string   `mapstructure:"DATA_DIR"`
	MinAdvanceHours   int      `mapstructure:"MIN_ADVANCE_HOURS"`
	MaxAdvanceDays    int      `mapstructure:"MAX_ADVANCE_DAYS"`
	CancelNoticeHours int      `mapstructure:"CANCEL_NOTICE_HOURS"`
	RecentVisitDays   int      `mapstructure:"RECENT_VISIT_DAYS"`
	CORSOrigins       []string `mapstructure:"CORS_ORIGINS"`
	EmailEnabled      bool     `mapstructure:"EMAIL_ENABLED"`
	SMSEnabled        bool     `mapstructure:"SMS_ENABLED"`
	SenderEmail       string   `mapstructure:"SENDER_EMAIL"`
	SMSSenderID       string   `mapstructure:"SMS_SENDER_ID"`
}

func Load() (*Config, error) {
	v := viper.New()
	v.SetConfigFile(".env")
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("PORT", "8000")
	v.SetDefault("ENV", "development")
	v.SetDefault("DATA_DIR", "data")
	v.SetDefault("MIN_ADVANCE_HOURS", 2)
	v.SetDefault("MAX_ADVANCE_DAYS", 60)
	v.SetDefault("CANCEL_NOTICE_HOURS", 24)
	v.SetDefault("RECENT_VISIT_DAYS", 7)
	v.SetDefault("CORS_ORIGINS", "http://localhost:3000")
	v.SetDefault("EMAIL_ENABLED", true)
	v.SetDefault("SMS_ENABLED", true)
	v.SetDefault("SENDER_EMAIL", "noreply@clinicdesk.local")
	v.SetDefault("SMS_SENDER_ID", "ClinicDesk")

	// Bind env vars explicitly so Unmarshal picks them up
	v.BindEnv("PORT")
	v.BindEnv("ENV")
	v.BindEnv("DATA_DIR")
	v.BindEnv("MIN_ADVANCE_HOURS")
	v.BindEnv("MAX_ADVANCE_DAYS")
	v.BindEnv("CANCEL_NOTICE_HOURS")
	v.BindEnv("RECENT_VISIT_DAYS")
	v.BindEnv("CORS_ORIGINS")
	v.BindEnv("EMAIL_ENABLED")
	v.BindEnv("SMS_ENABLED")
	v.BindEnv("SENDER_EMAIL")
	v.BindEnv("SMS_SENDER_ID")

	// Try reading .env file, but don't fail if missing
	_ = v.ReadInConfig()

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if cfg.CORSOrigins == nil {
		origins := v.GetString("CORS_ORIGINS")
		if origins != "" {
			cfg.CORSOrigins = strings.Split(origins, ",")
		}
	}

	return cfg, nil
}

func (c *Config) IsDev() bool {
	return c.Env == "development"
}

// IsProduction returns true when the server is configured for production mode.
func (c *Config) IsProduction() bool {
	return c.Env == "production"
}

// Validate checks that the configuration is safe to run.
func (c *Config) Validate() error {
	if c.DataDir == "" {
		return fmt.Errorf("DATA_DIR must not be empty")
	}
	if c.MinAdvanceHours < 0 {
		return fmt.Errorf("MIN_ADVANCE_HOURS must not be negative, got %d", c.MinAdvanceHours)
	}
	if c.MaxAdvanceDays <= 0 {
		return fmt.Errorf("MAX_ADVANCE_DAYS must be positive, got %d", c.MaxAdvanceDays)
	}
	if c.MinAdvanceHours >= c.MaxAdvanceDays*24 {
		return fmt.Errorf("MIN_ADVANCE_HOURS (%d) must be below the booking horizon of %d days",
			c.MinAdvanceHours, c.MaxAdvanceDays)
	}
	if c.CancelNoticeHours < 0 {
		return fmt.Errorf("CANCEL_NOTICE_HOURS must not be negative, got %d", c.CancelNoticeHours)
	}
	if c.RecentVisitDays < 0 {
		return fmt.Errorf("RECENT_VISIT_DAYS must not be negative, got %d", c.RecentVisitDays)
	}
	return nil
}
