package config

import (
	"errors"
	"fmt"
	"maps"
	"os"
	"path/filepath"
	"reflect"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/adrg/xdg"
	"github.com/spf13/viper"
)

type Config struct {
	RefreshInterval time.Duration     `mapstructure:"refresh_interval"`
	GracefulTimeout time.Duration     `mapstructure:"graceful_timeout"`
	KillGrace       time.Duration     `mapstructure:"kill_grace"`
	PollInterval    time.Duration     `mapstructure:"poll_interval"`
	RetryDelay      time.Duration     `mapstructure:"retry_delay"`
	ListenAddr      string            `mapstructure:"listen_addr"`
	CORSOrigin      string            `mapstructure:"cors_origin"`
	RedisEnabled    bool              `mapstructure:"redis_enabled"`
	RedisMode       string            `mapstructure:"redis_mode"`
	RedisAddrs      []string          `mapstructure:"redis_addrs"`
	RedisMaster     string            `mapstructure:"redis_master"`
	RedisPassword   string            `mapstructure:"redis_password"`
	RedisTTL        time.Duration     `mapstructure:"redis_ttl"`
	LogLevel        string            `mapstructure:"log_level"`
	LogFile         string            `mapstructure:"log_file"`
	DefaultVerbose  bool              `mapstructure:"default_verbose"`
	DefaultEditor   string            `mapstructure:"default_editor"`
	Protected       []string          `mapstructure:"protected"`
	Aliases         map[string]string `mapstructure:"aliases"`
}

const envPrefix = "PORTWATCH"

// MaxWait bounds graceful_timeout and kill_grace. A kill request holds its
// caller for at most the sum of both.
const MaxWait = 30 * time.Second

func Path() string {
	return filepath.Join(xdg.ConfigHome, "portwatch", "config.toml")
}

// fieldIndex maps a mapstructure key to its Config struct field index.
var fieldIndex = sync.OnceValue(func() map[string]int {
	t := reflect.TypeFor[Config]()
	index := make(map[string]int, t.NumField())
	for i := range t.NumField() {
		index[t.Field(i).Tag.Get("mapstructure")] = i
	}
	return index
})

func field(cfg *Config, key string) (reflect.Value, error) {
	i, ok := fieldIndex()[key]
	if !ok {
		return reflect.Value{}, fmt.Errorf("unknown config key: %s", key)
	}
	return reflect.ValueOf(cfg).Elem().Field(i), nil
}

func GetValue(cfg *Config, key string) (any, error) {
	fv, err := field(cfg, key)
	if err != nil {
		return nil, err
	}
	return fv.Interface(), nil
}

func SetValue(cfg *Config, key string, val any) error {
	fv, err := field(cfg, key)
	if err != nil {
		return err
	}
	rv := reflect.ValueOf(val)
	if !rv.IsValid() || !rv.Type().AssignableTo(fv.Type()) {
		return fmt.Errorf("type mismatch for %s: got %T, want %s", key, val, fv.Type())
	}
	fv.Set(rv)
	return nil
}

func newViper() *viper.Viper {
	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("toml")
	v.AddConfigPath(filepath.Dir(Path()))
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	for _, f := range Schema {
		v.SetDefault(f.Key, storedValue(&f, f.Default))
	}
	return v
}

// storedValue converts a field value to its TOML representation.
func storedValue(f *Field, val any) any {
	if d, ok := val.(time.Duration); ok && f.Kind == Duration {
		return d.String()
	}
	return val
}

// Load reads the config file, writing one with defaults if none exists.
// Environment variables prefixed with PORTWATCH_ override file values. On
// error it still returns a usable config built from defaults.
func Load() (*Config, error) {
	v := newViper()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return Defaults(), fmt.Errorf("read %s: %w", Path(), err)
		}
		_ = Reset()
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return Defaults(), fmt.Errorf("decode %s: %w", Path(), err)
	}
	if cfg.Aliases == nil {
		cfg.Aliases = map[string]string{}
	}
	if err := cfg.Validate(); err != nil {
		return Defaults(), err
	}
	return cfg, nil
}

// Validate reports every setting that the rest of portwatch cannot run with.
func (c *Config) Validate() error {
	var errs []error
	for key, d := range map[string]time.Duration{
		"refresh_interval": c.RefreshInterval,
		"graceful_timeout": c.GracefulTimeout,
		"poll_interval":    c.PollInterval,
	} {
		if d <= 0 {
			errs = append(errs, fmt.Errorf("%s must be positive, got %s", key, d))
		}
	}
	for key, d := range map[string]time.Duration{
		"kill_grace":  c.KillGrace,
		"retry_delay": c.RetryDelay,
		"redis_ttl":   c.RedisTTL,
	} {
		if d < 0 {
			errs = append(errs, fmt.Errorf("%s must not be negative, got %s", key, d))
		}
	}
	for key, d := range map[string]time.Duration{
		"graceful_timeout": c.GracefulTimeout,
		"kill_grace":       c.KillGrace,
	} {
		if d > MaxWait {
			errs = append(errs, fmt.Errorf("%s must not exceed %s, got %s", key, MaxWait, d))
		}
	}
	for _, key := range []string{"log_level", "redis_mode"} {
		f := LookupField(key)
		val, _ := GetValue(c, key)
		if !slices.Contains(f.Options, val.(string)) {
			errs = append(errs, fmt.Errorf("%s must be one of: %s", key, strings.Join(f.Options, ", ")))
		}
	}
	if c.RedisEnabled && len(c.RedisAddrs) == 0 {
		errs = append(errs, errors.New("redis_addrs must not be empty when redis_enabled is set"))
	}
	slices.SortFunc(errs, func(a, b error) int { return strings.Compare(a.Error(), b.Error()) })
	return errors.Join(errs...)
}

func Save(cfg *Config) error {
	if err := os.MkdirAll(filepath.Dir(Path()), 0o755); err != nil {
		return err
	}

	v := viper.New()
	v.SetConfigType("toml")
	for _, f := range Schema {
		val, err := GetValue(cfg, f.Key)
		if err != nil {
			return err
		}
		v.Set(f.Key, storedValue(&f, val))
	}
	return v.WriteConfigAs(Path())
}

func Reset() error {
	return Save(Defaults())
}

// Defaults builds a config from the schema. Collection defaults are copied so
// callers may modify the result freely.
func Defaults() *Config {
	cfg := &Config{}
	for _, f := range Schema {
		val := f.Default
		switch d := val.(type) {
		case []string:
			val = slices.Clone(d)
		case map[string]string:
			val = maps.Clone(d)
		}
		if err := SetValue(cfg, f.Key, val); err != nil {
			panic(err)
		}
	}
	return cfg
}
