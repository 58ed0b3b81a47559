package config

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config holds all configuration for the application
type Config struct {
	// HTTP server configuration
	Server ServerConfig

	// External identity provider configuration
	Provider ProviderConfig

	// Logging configuration
	Logging LoggingConfig

	// Site configuration
	Site SiteConfig
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	ListenAddr string
	BaseURL    string // Absolute URL prefix used in sitemap entries
}

// ProviderConfig holds the identity provider connection settings
type ProviderConfig struct {
	URL    string
	APIKey string
}

// LoggingConfig holds logging-related configuration
type LoggingConfig struct {
	Level  string
	Format string // json, console
}

// SiteConfig holds site-level settings sourced at startup
type SiteConfig struct {
	AdminEmail   string
	SettingsFile string // Optional YAML file seeding initial site settings
}

// SettingsSeed is the YAML shape of an optional site settings seed file.
// Fields left empty keep their built-in defaults. The seed is read once at
// startup; settings changed at runtime are never written back.
type SettingsSeed struct {
	SiteName        string `yaml:"site_name"`
	SiteDescription string `yaml:"site_description"`
	ContactEmail    string `yaml:"contact_email"`
	SupportPhone    string `yaml:"support_phone"`
	Address         string `yaml:"address"`
}

// Load loads configuration from environment variables
func Load() (*Config, error) {
	// Load .env files (fails silently if files don't exist)
	_ = godotenv.Load(".env")
	_ = godotenv.Load(".env.local")

	providerURL := os.Getenv("PROVIDER_URL")
	if providerURL == "" {
		return nil, fmt.Errorf("PROVIDER_URL is required")
	}

	providerKey := os.Getenv("PROVIDER_KEY")
	if providerKey == "" {
		return nil, fmt.Errorf("PROVIDER_KEY is required")
	}

	return &Config{
		Server: ServerConfig{
			ListenAddr: getenv("LISTEN_ADDR", ":8080"),
			BaseURL:    getenv("BASE_URL", "http://example.com"),
		},
		Provider: ProviderConfig{
			URL:    providerURL,
			APIKey: providerKey,
		},
		Logging: LoggingConfig{
			Level:  getenv("LOG_LEVEL", "info"),
			Format: getenv("LOG_FORMAT", "json"),
		},
		Site: SiteConfig{
			AdminEmail:   getenv("ADMIN_EMAIL", "admin@myawesomesite.com"),
			SettingsFile: os.Getenv("SITE_SETTINGS_FILE"),
		},
	}, nil
}

// LoadSettingsSeed reads the optional YAML settings seed file. A missing
// path returns an empty seed rather than an error.
func LoadSettingsSeed(path string) (*SettingsSeed, error) {
	if path == "" {
		return &SettingsSeed{}, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read settings seed: %w", err)
	}

	var seed SettingsSeed
	if err := yaml.Unmarshal(data, &seed); err != nil {
		return nil, fmt.Errorf("failed to parse settings seed: %w", err)
	}

	return &seed, nil
}

func getenv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
