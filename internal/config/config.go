// Package config provides configuration management for the keycloak-fixture CLI.
//
// Viper stays contained in this package and the commands; the rest of the
// codebase receives an explicit Config struct. Sources are resolved in this
// order: flags > env > config file > defaults.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

const (
	// EnvPrefix prefixes every environment variable, e.g. KEYCLOAK_FIXTURE_IMAGE
	EnvPrefix = "KEYCLOAK_FIXTURE"

	// DefaultImage is the Keycloak image started when none is configured
	DefaultImage = "quay.io/keycloak/keycloak:21.1.1"

	// DefaultAdmin is used as both admin username and password
	DefaultAdmin = "admin"
)

var envKeyReplacer = strings.NewReplacer("-", "_")

// Config is the explicit configuration struct
type Config struct {
	Image               string
	AdminUsername       string
	AdminPassword       string
	RandomAdminPassword bool
	RealmFile           string
	Output              string
	OutputDir           string
	MetricsBindAddress  string
	KeepRunning         bool
	Verify              bool
	IgnoreExistingRealm bool
	StartupTimeout      time.Duration
}

// New returns a viper instance with defaults, env binding and the optional config file.
func New(configFile string) (*viper.Viper, error) {
	v := viper.New()

	v.SetDefault("image", DefaultImage)
	v.SetDefault("admin-username", DefaultAdmin)
	v.SetDefault("admin-password", DefaultAdmin)
	v.SetDefault("random-admin-password", false)
	v.SetDefault("realm-file", "")
	v.SetDefault("output", "")
	v.SetDefault("output-dir", "")
	v.SetDefault("metrics-bind-address", "0")
	v.SetDefault("keep-running", false)
	v.SetDefault("verify", false)
	v.SetDefault("ignore-existing-realm", true)
	v.SetDefault("startup-timeout", 2*time.Minute)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(envKeyReplacer)
	v.AutomaticEnv()

	if configFile != "" {
		v.SetConfigFile(configFile)
	} else {
		v.SetConfigName("keycloak-fixture")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("$HOME/.keycloak-fixture")
	}

	// Read config file (ignore if not found)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	return v, nil
}

// BindFlags binds every flag of fs that names a config key.
func BindFlags(v *viper.Viper, fs *pflag.FlagSet) error {
	var err error
	fs.VisitAll(func(f *pflag.Flag) {
		if err != nil {
			return
		}
		err = v.BindPFlag(f.Name, f)
	})
	return err
}

// Load reads from all sources and returns explicit Config
func Load(v *viper.Viper) (*Config, error) {
	cfg := &Config{
		Image:               v.GetString("image"),
		AdminUsername:       v.GetString("admin-username"),
		AdminPassword:       v.GetString("admin-password"),
		RandomAdminPassword: v.GetBool("random-admin-password"),
		RealmFile:           v.GetString("realm-file"),
		Output:              v.GetString("output"),
		OutputDir:           v.GetString("output-dir"),
		MetricsBindAddress:  v.GetString("metrics-bind-address"),
		KeepRunning:         v.GetBool("keep-running"),
		Verify:              v.GetBool("verify"),
		IgnoreExistingRealm: v.GetBool("ignore-existing-realm"),
		StartupTimeout:      v.GetDuration("startup-timeout"),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate ensures config is sane
func (c *Config) Validate() error {
	if c.Image == "" {
		return fmt.Errorf("image must not be empty")
	}
	if c.AdminUsername == "" {
		return fmt.Errorf("admin-username must not be empty")
	}
	if c.AdminPassword == "" && !c.RandomAdminPassword {
		return fmt.Errorf("admin-password must not be empty unless random-admin-password is set")
	}
	if c.Output != "" && c.OutputDir != "" {
		return fmt.Errorf("cannot use both output and output-dir")
	}
	if c.StartupTimeout <= 0 {
		return fmt.Errorf("invalid startup-timeout: %s", c.StartupTimeout)
	}
	return nil
}
