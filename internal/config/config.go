// Package config loads imgto3d settings.
//
// Precedence: defaults, then the YAML file, then IMGTO3D_* environment
// variables. Command-line flags are applied on top by the CLI.
//
// The API key is deliberately not a field here: it is taken from a flag or
// IMGTO3D_API_KEY only, so it never ends up in a file written by hand.
package config

import (
	"errors"
	"fmt"
	"os"
	"reflect"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/metalagman/imgto3d"
	"gopkg.in/yaml.v3"
)

// EnvPrefix prefixes every environment override.
const EnvPrefix = "IMGTO3D"

// APIKeyEnv holds the credential when no flag is given.
const APIKeyEnv = EnvPrefix + "_API_KEY"

// Config is the complete imgto3d configuration.
type Config struct {
	// Python is the interpreter that runs Script.
	Python string `yaml:"python" env:"PYTHON" validate:"required"`
	// Script is the connector script path.
	Script string `yaml:"script" env:"SCRIPT"`
	// Output is the default output directory.
	Output string `yaml:"output" env:"OUTPUT"`
	// AssetRoot triggers a rescan when the model lands under it.
	AssetRoot string `yaml:"asset_root" env:"ASSET_ROOT"`
	// RescanCmd is run with the model path appended.
	RescanCmd []string `yaml:"rescan_cmd" env:"RESCAN_CMD"`
	// Timeout of zero waits forever.
	Timeout time.Duration `yaml:"timeout" env:"TIMEOUT" validate:"gte=0"`
	// TTY runs the connector under a pseudo-terminal.
	TTY bool `yaml:"tty" env:"TTY"`
	// MetricsFile receives a Prometheus textfile after each run.
	MetricsFile string `yaml:"metrics_file" env:"METRICS_FILE"`

	Log LogConfig `yaml:"log" env:"LOG"`
}

// LogConfig configures zerolog output.
type LogConfig struct {
	Level  string `yaml:"level"  env:"LEVEL"  validate:"oneof=trace debug info warn error disabled"`
	Format string `yaml:"format" env:"FORMAT" validate:"oneof=console json"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Python:  "python3",
		Script:  imgto3d.ScriptFileName,
		Output:  ".",
		Timeout: 0,
		Log: LogConfig{
			Level:  "info",
			Format: "console",
		},
	}
}

// Loader builds a Config.
type Loader struct {
	configPath string
	envPrefix  string
}

// NewLoader creates a loader with the default env prefix.
func NewLoader() *Loader {
	return &Loader{envPrefix: EnvPrefix}
}

// WithConfigPath sets the YAML file to read. A missing file is not an error.
func (l *Loader) WithConfigPath(path string) *Loader {
	l.configPath = path

	return l
}

// WithEnvPrefix overrides the environment prefix.
func (l *Loader) WithEnvPrefix(prefix string) *Loader {
	l.envPrefix = prefix

	return l
}

// Load applies defaults, file and environment, then validates.
func (l *Loader) Load() (*Config, error) {
	cfg := Default()

	if l.configPath != "" {
		if err := l.loadFromFile(cfg); err != nil {
			return nil, fmt.Errorf("load config file: %w", err)
		}
	}

	if err := setFieldsFromEnv(reflect.ValueOf(cfg).Elem(), l.envPrefix); err != nil {
		return nil, fmt.Errorf("load config env: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

var validate = validator.New()

// Validate checks field constraints.
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			msgs := make([]string, 0, len(verrs))
			for _, fe := range verrs {
				msgs = append(msgs, fmt.Sprintf("%s: failed %q", fe.Namespace(), fe.Tag()))
			}

			return fmt.Errorf("invalid config: %s", strings.Join(msgs, "; "))
		}

		return fmt.Errorf("invalid config: %w", err)
	}

	return nil
}

func (l *Loader) loadFromFile(cfg *Config) error {
	data, err := os.ReadFile(l.configPath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}

		return fmt.Errorf("read %s: %w", l.configPath, err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("parse %s: %w", l.configPath, err)
	}

	return nil
}

func setFieldsFromEnv(v reflect.Value, prefix string) error {
	t := v.Type()

	for i := 0; i < v.NumField(); i++ {
		field := v.Field(i)

		tag := t.Field(i).Tag.Get("env")
		if tag == "" || tag == "-" {
			continue
		}

		key := prefix + "_" + tag

		if field.Kind() == reflect.Struct {
			if err := setFieldsFromEnv(field, key); err != nil {
				return err
			}

			continue
		}

		value, ok := os.LookupEnv(key)
		if !ok || value == "" {
			continue
		}

		if err := setFieldValue(field, value); err != nil {
			return fmt.Errorf("set %s: %w", key, err)
		}
	}

	return nil
}

func setFieldValue(field reflect.Value, value string) error {
	switch field.Kind() {
	case reflect.String:
		field.SetString(value)
	case reflect.Int64:
		if field.Type() != reflect.TypeOf(time.Duration(0)) {
			return fmt.Errorf("unsupported type %s", field.Type())
		}

		d, err := time.ParseDuration(value)
		if err != nil {
			return err
		}

		field.SetInt(int64(d))
	case reflect.Bool:
		b, err := strconv.ParseBool(value)
		if err != nil {
			return err
		}

		field.SetBool(b)
	case reflect.Slice:
		field.Set(reflect.ValueOf(strings.Fields(value)))
	default:
		return fmt.Errorf("unsupported type %s", field.Type())
	}

	return nil
}
