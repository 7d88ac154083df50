package config

import (
	"fmt"
	"os"
	"strconv"
)

type Config struct {
	Port            string
	SupabaseURL     string
	SupabaseAnonKey string
	MongoDBURI      string
	MongoDBPassword string
	Environment     string
	LogLevel        string

	// Fixed reference timezone offset (hours east of UTC) used to compute
	// "start of today" for the public upcoming-markets view.
	MarketUTCOffsetHours int

	// Wholesale enquiry relay
	SMTPHost       string
	SMTPPort       int
	SMTPUser       string
	SMTPKey        string
	SenderEmail    string
	RecipientEmail string
}

func LoadConfig() (*Config, error) {
	cfg := &Config{
		Port:            getEnvWithDefault("PORT", "8080"),
		SupabaseURL:     os.Getenv("SUPABASE_URL"),
		SupabaseAnonKey: os.Getenv("SUPABASE_URL_ANON_KEY"),
		MongoDBURI:      os.Getenv("MONGODB_URI"),
		MongoDBPassword: os.Getenv("MONGODB_PASSWORD"),
		Environment:     getEnvWithDefault("ENVIRONMENT", "development"),
		LogLevel:        getEnvWithDefault("LOG_LEVEL", "info"),
		SMTPHost:        os.Getenv("BREVO_SMTP_HOST"),
		SMTPUser:        os.Getenv("BREVO_SMTP_USER"),
		SMTPKey:         os.Getenv("BREVO_SMTP_KEY"),
		SenderEmail:     os.Getenv("SENDER_EMAIL"),
		RecipientEmail:  os.Getenv("RECIPIENT_EMAIL"),
	}

	offset, err := getEnvIntWithDefault("MARKET_UTC_OFFSET_HOURS", 10)
	if err != nil {
		return nil, fmt.Errorf("invalid MARKET_UTC_OFFSET_HOURS: %v", err)
	}
	cfg.MarketUTCOffsetHours = offset

	port, err := getEnvIntWithDefault("BREVO_SMTP_PORT", 587)
	if err != nil {
		return nil, fmt.Errorf("invalid BREVO_SMTP_PORT: %v", err)
	}
	cfg.SMTPPort = port

	// Validate required fields
	if cfg.SupabaseURL == "" {
		return nil, fmt.Errorf("SUPABASE_URL is required")
	}
	if cfg.SupabaseAnonKey == "" {
		return nil, fmt.Errorf("SUPABASE_URL_ANON_KEY is required")
	}
	if cfg.MongoDBURI == "" {
		return nil, fmt.Errorf("MONGODB_URI is required")
	}
	if cfg.MongoDBPassword == "" {
		return nil, fmt.Errorf("MONGODB_PASSWORD is required")
	}

	return cfg, nil
}

func getEnvWithDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvIntWithDefault(key string, defaultValue int) (int, error) {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue, nil
	}
	return strconv.Atoi(value)
}

func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}

func (c *Config) IsDevelopment() bool {
	return c.Environment == "development"
}
