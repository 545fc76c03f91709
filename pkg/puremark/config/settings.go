package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/cognicore/puremark/pkg/puremark/internalerr"
)

const envPrefix = "PUREMARK"

// Settings are the application settings read from a YAML file and
// PUREMARK_* environment variables (PUREMARK_HALAL_STRICT, PUREMARK_KB_DIR).
type Settings struct {
	Log    LogSettings    `mapstructure:"log"`
	KB     KBSettings     `mapstructure:"kb"`
	Halal  HalalSettings  `mapstructure:"halal"`
	Scan   ScanSettings   `mapstructure:"scan"`
	Store  StoreSettings  `mapstructure:"store"`
	Parser ParserSettings `mapstructure:"parser"`
}

type LogSettings struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

type KBSettings struct {
	Name  string `mapstructure:"name"`
	Dir   string `mapstructure:"dir"`
	Watch bool   `mapstructure:"watch"`
}

type HalalSettings struct {
	Strict bool `mapstructure:"strict"`
	// UnknownDefault is "halal" or "mushbooh".
	UnknownDefault string `mapstructure:"unknown_default"`
}

type ScanSettings struct {
	MinIngredients int `mapstructure:"min_ingredients"`
	Workers        int `mapstructure:"workers"`
}

type StoreSettings struct {
	Path string `mapstructure:"path"`
}

type ParserSettings struct {
	BaseURL string        `mapstructure:"base_url"`
	Model   string        `mapstructure:"model"`
	APIKey  string        `mapstructure:"api_key"`
	Timeout time.Duration `mapstructure:"timeout"`
}

func newViper() *viper.Viper {
	v := viper.New()
	v.SetConfigType("yaml")
	v.SetEnvPrefix(envPrefix)
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	// Every key needs a default so AutomaticEnv can see it during Unmarshal.
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")
	v.SetDefault("kb.name", "default")
	v.SetDefault("kb.dir", "")
	v.SetDefault("kb.watch", false)
	v.SetDefault("halal.strict", true)
	v.SetDefault("halal.unknown_default", "halal")
	v.SetDefault("scan.min_ingredients", 2)
	v.SetDefault("scan.workers", 4)
	v.SetDefault("store.path", "")
	v.SetDefault("parser.base_url", "")
	v.SetDefault("parser.model", "")
	v.SetDefault("parser.api_key", "")
	v.SetDefault("parser.timeout", 15*time.Second)
	return v
}

// LoadSettings reads path (optional) and environment overrides.
func LoadSettings(path string) (*Settings, error) {
	v := newViper()
	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read settings %q: %w", path, err)
		}
	}
	s := &Settings{}
	if err := v.Unmarshal(s); err != nil {
		return nil, fmt.Errorf("unmarshal settings: %w", err)
	}
	if err := s.Validate(); err != nil {
		return nil, err
	}
	return s, nil
}

// Validate checks enumerated settings.
func (s *Settings) Validate() error {
	switch strings.ToLower(s.Halal.UnknownDefault) {
	case "halal", "mushbooh":
	default:
		return fmt.Errorf("%w: halal.unknown_default must be halal or mushbooh, got %q", internalerr.ErrInvalidConfig, s.Halal.UnknownDefault)
	}
	switch strings.ToLower(s.Log.Format) {
	case "json", "console":
	default:
		return fmt.Errorf("%w: log.format must be json or console, got %q", internalerr.ErrInvalidConfig, s.Log.Format)
	}
	if s.Scan.MinIngredients < 0 {
		return fmt.Errorf("%w: scan.min_ingredients must not be negative", internalerr.ErrInvalidConfig)
	}
	if s.Scan.Workers <= 0 {
		return fmt.Errorf("%w: scan.workers must be positive", internalerr.ErrInvalidConfig)
	}
	if s.Parser.BaseURL != "" && s.Parser.Model == "" {
		return fmt.Errorf("%w: parser.model required when parser.base_url is set", internalerr.ErrInvalidConfig)
	}
	return nil
}

// Loader returns the registry loader described by the settings.
func (s *Settings) Loader() *Loader {
	return &Loader{Name: s.KB.Name, Dir: s.KB.Dir}
}
