// Package config loads cadence settings from defaults, an optional YAML file,
// a .env file and CADENCE_* environment variables, in increasing priority.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/alexanderramin/cadence/internal/domain"
	"github.com/alexanderramin/cadence/internal/recurrence"
	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	configName = "config"
	envPrefix  = "CADENCE"
	appDirName = ".cadence"
)

// Config is the resolved application configuration.
type Config struct {
	Store      StoreConfig      `mapstructure:"store"`
	Recurrence RecurrenceConfig `mapstructure:"recurrence"`
	Log        LogConfig        `mapstructure:"log"`
}

type StoreConfig struct {
	// Backend is "sqlite" or "file".
	Backend string `mapstructure:"backend" validate:"oneof=sqlite file"`
	// Path is the database or document location.
	Path string `mapstructure:"path" validate:"required"`
	// Format applies to the file backend; empty infers it from Path.
	Format string `mapstructure:"format" validate:"omitempty,oneof=json yaml yml"`
}

type RecurrenceConfig struct {
	HorizonYears  int    `mapstructure:"horizon_years" validate:"min=1,max=50"`
	InitialStatus string `mapstructure:"initial_status" validate:"oneof=planned in_progress"`
	// Timezone is the IANA zone occurrences keep their wall clock in.
	// Empty means the system zone.
	Timezone string `mapstructure:"timezone" validate:"omitempty,timezone"`
}

type LogConfig struct {
	// UseCases enables the per-use-case log line on stderr.
	UseCases bool   `mapstructure:"use_cases"`
	Format   string `mapstructure:"format" validate:"oneof=text json"`
}

// LoadOptions locate the optional inputs. Zero values use the defaults.
type LoadOptions struct {
	// ConfigFile is an explicit config path; it must exist when set.
	ConfigFile string
	// EnvFile is loaded with godotenv before reading the environment.
	// Defaults to ".env" in the working directory; a missing file is ignored.
	EnvFile string
	// HomeDir replaces os.UserHomeDir.
	HomeDir string
}

var validate = validator.New()

// AppDir returns the directory holding the config file and default stores.
func AppDir(home string) string {
	return filepath.Join(home, appDirName)
}

// Load resolves the configuration.
func Load(opts LoadOptions) (*Config, error) {
	envFile := opts.EnvFile
	if envFile == "" {
		envFile = ".env"
	}
	// godotenv never overrides variables already set in the environment.
	if err := godotenv.Load(envFile); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("loading %s: %w", envFile, err)
	}

	home := opts.HomeDir
	if home == "" {
		h, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("resolving home directory: %w", err)
		}
		home = h
	}

	v := viper.New()
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	setDefaults(v)

	if opts.ConfigFile != "" {
		v.SetConfigFile(opts.ConfigFile)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("reading config %s: %w", opts.ConfigFile, err)
		}
	} else {
		v.SetConfigName(configName)
		v.SetConfigType("yaml")
		v.AddConfigPath(AppDir(home))
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) {
				return nil, fmt.Errorf("reading config: %w", err)
			}
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decoding config: %w", err)
	}
	cfg.Store.Backend = strings.ToLower(cfg.Store.Backend)
	if cfg.Store.Path == "" {
		cfg.Store.Path = defaultStorePath(home, cfg.Store.Backend, cfg.Store.Format)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("store.backend", "sqlite")
	v.SetDefault("store.path", "")
	v.SetDefault("store.format", "")
	v.SetDefault("recurrence.horizon_years", 3)
	v.SetDefault("recurrence.initial_status", "planned")
	v.SetDefault("recurrence.timezone", "")
	v.SetDefault("log.use_cases", false)
	v.SetDefault("log.format", "text")
}

func defaultStorePath(home, backend, format string) string {
	if backend == "file" {
		ext := "json"
		if format == "yaml" || format == "yml" {
			ext = "yaml"
		}
		return filepath.Join(AppDir(home), "tasks."+ext)
	}
	return filepath.Join(AppDir(home), "cadence.db")
}

// Location returns the zone named by recurrence.timezone, or time.Local.
func (c *Config) Location() *time.Location {
	if c.Recurrence.Timezone == "" {
		return time.Local
	}
	loc, err := time.LoadLocation(c.Recurrence.Timezone)
	if err != nil {
		// Validate rejects unknown zones before a Config is handed out.
		return time.Local
	}
	return loc
}

// Policy returns the generation policy described by the recurrence section.
func (c *Config) Policy() recurrence.Policy {
	return recurrence.Policy{
		HorizonYears:  c.Recurrence.HorizonYears,
		InitialStatus: domain.TaskStatus(c.Recurrence.InitialStatus),
		Location:      c.Location(),
	}
}

// Validate checks every field and reports all problems at once.
func (c *Config) Validate() error {
	err := validate.Struct(c)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return fmt.Errorf("validating config: %w", err)
	}
	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		msgs = append(msgs, fmt.Sprintf("%s: invalid value %v (%s %s)", configKey(fe), fe.Value(), fe.Tag(), fe.Param()))
	}
	return fmt.Errorf("invalid config: %s", strings.Join(msgs, "; "))
}

// configKey maps a validator namespace like Config.Store.Backend to the
// dotted key users write, store.backend.
func configKey(fe validator.FieldError) string {
	parts := strings.Split(fe.Namespace(), ".")
	if len(parts) > 1 {
		parts = parts[1:]
	}
	for i, p := range parts {
		parts[i] = toSnake(p)
	}
	return strings.Join(parts, ".")
}

func toSnake(s string) string {
	var b strings.Builder
	for i, r := range s {
		if r >= 'A' && r <= 'Z' {
			if i > 0 {
				b.WriteByte('_')
			}
			r += 'a' - 'A'
		}
		b.WriteRune(r)
	}
	return b.String()
}
