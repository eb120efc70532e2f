// Package config provides YAML-based configuration loading for incidentdesk.
package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap/zapcore"
	"gopkg.in/yaml.v3"
)

// DefaultPath is the config file commands read when -c is not given.
const DefaultPath = "incidentdesk.yaml"

// Captain policies.
const (
	PolicyRequire      = "require"
	PolicyAllowMissing = "allow_missing"
)

// Config is the top-level configuration, loaded from incidentdesk.yaml.
type Config struct {
	Database     DatabaseConfig     `yaml:"database"`
	Server       ServerConfig       `yaml:"server"`
	Log          LogConfig          `yaml:"log"`
	Verification VerificationConfig `yaml:"verification"`
	Barangays    []string           `yaml:"barangays"`
	Contacts     []ContactConfig    `yaml:"contacts"`
}

// DatabaseConfig selects and addresses the record store.
type DatabaseConfig struct {
	Driver   string `yaml:"driver"` // sqlite or mysql
	Path     string `yaml:"path"`
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	Name     string `yaml:"name"`
}

// ServerConfig holds HTTP settings for `idesk serve`.
type ServerConfig struct {
	Port          int      `yaml:"port"`
	AllowOrigins  []string `yaml:"allow_origins"`
	AuditSchedule string   `yaml:"audit_schedule"`
}

// LogConfig controls the zap logger.
type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"` // json or console
}

// VerificationConfig holds workflow policy.
type VerificationConfig struct {
	CaptainPolicy string `yaml:"captain_policy"`
}

// ContactConfig is a directory entry seeded by `idesk db init`.
type ContactConfig struct {
	Name     string `yaml:"name"`
	Phone    string `yaml:"phone"`
	Barangay string `yaml:"barangay"`
	Agency   string `yaml:"agency"`
}

// Load reads a YAML config file from path and returns a validated Config.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: read %s: %w", path, err)
	}
	return Parse(data)
}

// Parse unmarshals YAML bytes into a validated Config.
func Parse(data []byte) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("config: parse: %w", err)
	}
	cfg.applyDefaults()
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// applyDefaults fills in derived and default values.
func (c *Config) applyDefaults() {
	if c.Database.Driver == "" {
		c.Database.Driver = "sqlite"
	}
	switch c.Database.Driver {
	case "sqlite":
		if c.Database.Path == "" {
			c.Database.Path = "incidentdesk.db"
		}
	case "mysql":
		if c.Database.Host == "" {
			c.Database.Host = "127.0.0.1"
		}
		if c.Database.Port == 0 {
			c.Database.Port = 3306
		}
		if c.Database.User == "" {
			c.Database.User = "root"
		}
		if c.Database.Name == "" {
			c.Database.Name = "incidentdesk"
		}
	}
	if c.Server.Port == 0 {
		c.Server.Port = 8080
	}
	if len(c.Server.AllowOrigins) == 0 {
		c.Server.AllowOrigins = []string{"*"}
	}
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
	if c.Log.Format == "" {
		c.Log.Format = "json"
	}
	if c.Verification.CaptainPolicy == "" {
		c.Verification.CaptainPolicy = PolicyRequire
	}
}

// validate checks that all required fields are present and consistent.
func (c *Config) validate() error {
	var errs []string

	switch c.Database.Driver {
	case "sqlite", "mysql":
	default:
		errs = append(errs, fmt.Sprintf("database.driver %q must be sqlite or mysql", c.Database.Driver))
	}
	if c.Database.Port < 0 || c.Database.Port > 65535 {
		errs = append(errs, fmt.Sprintf("database.port %d out of range", c.Database.Port))
	}
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		errs = append(errs, fmt.Sprintf("server.port %d out of range", c.Server.Port))
	}
	if c.Server.AuditSchedule != "" {
		if _, err := cron.ParseStandard(c.Server.AuditSchedule); err != nil {
			errs = append(errs, fmt.Sprintf("server.audit_schedule: %v", err))
		}
	}
	if _, err := zapcore.ParseLevel(c.Log.Level); err != nil {
		errs = append(errs, fmt.Sprintf("log.level %q is not a valid level", c.Log.Level))
	}
	if c.Log.Format != "json" && c.Log.Format != "console" {
		errs = append(errs, fmt.Sprintf("log.format %q must be json or console", c.Log.Format))
	}
	switch c.Verification.CaptainPolicy {
	case PolicyRequire, PolicyAllowMissing:
	default:
		errs = append(errs, fmt.Sprintf("verification.captain_policy %q must be %s or %s",
			c.Verification.CaptainPolicy, PolicyRequire, PolicyAllowMissing))
	}

	captains := make(map[string]int)
	for i, ct := range c.Contacts {
		if ct.Name == "" {
			errs = append(errs, fmt.Sprintf("contacts[%d].name is required", i))
		}
		if ct.Agency == "" {
			errs = append(errs, fmt.Sprintf("contacts[%d].agency is required", i))
		}
		if ct.Agency == "Barangay Captain" {
			if ct.Barangay == "" {
				errs = append(errs, fmt.Sprintf("contacts[%d].barangay is required for a captain", i))
			} else if prev, dup := captains[ct.Barangay]; dup {
				errs = append(errs, fmt.Sprintf("contacts[%d] duplicates the captain of %s (contacts[%d])", i, ct.Barangay, prev))
			} else {
				captains[ct.Barangay] = i
			}
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("config: validation failed: %s", strings.Join(errs, "; "))
	}
	return nil
}
