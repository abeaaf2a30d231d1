package pos

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"
	"github.com/spf13/viper"
)

// Config holds the CLI configuration
type Config struct {
	APIURL   string        `mapstructure:"pos_api_url"`
	Brand    string        `mapstructure:"pos_brand"`    // shown in the TUI (default: "POS CLI")
	Timeout  time.Duration `mapstructure:"pos_timeout"`  // per request
	Currency string        `mapstructure:"pos_currency"` // prefix for money columns
	StateDir string        `mapstructure:"pos_state_dir"`
	DebugLog string        `mapstructure:"pos_debug_log"` // TUI log file, empty discards
	Path     string        `mapstructure:"-"`             // config file actually read
}

var configKeys = []string{
	"pos_api_url",
	"pos_brand",
	"pos_timeout",
	"pos_currency",
	"pos_state_dir",
	"pos_debug_log",
}

// configPaths lists the places a .pos-config file is looked for
func configPaths() []string {
	return []string{
		".pos-config",
		"../.pos-config",
		filepath.Join(filepath.Dir(os.Args[0]), ".pos-config"),
		filepath.Join(filepath.Dir(os.Args[0]), "..", ".pos-config"),
	}
}

// LoadConfig reads the .pos-config file, with POS_* environment overrides
func LoadConfig() (*Config, error) {
	// Optional .env, ignored when missing
	_ = godotenv.Load()
	return LoadConfigFrom(configPaths())
}

// LoadConfigFrom reads the first existing file among paths. A missing file is
// fine as long as the environment provides POS_API_URL.
func LoadConfigFrom(paths []string) (*Config, error) {
	v := viper.New()
	v.SetConfigType("env")

	v.SetDefault("pos_brand", "POS CLI")
	v.SetDefault("pos_timeout", "30s")
	v.SetDefault("pos_currency", "Rs.")

	v.AutomaticEnv()
	for _, key := range configKeys {
		if err := v.BindEnv(key, strings.ToUpper(key)); err != nil {
			return nil, fmt.Errorf("cannot bind %s: %w", key, err)
		}
	}

	var configPath string
	for _, p := range paths {
		if _, err := os.Stat(p); err == nil {
			configPath = p
			break
		}
	}

	if configPath != "" {
		v.SetConfigFile(configPath)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("cannot read config %s: %w", configPath, err)
		}
	}

	config := &Config{}
	if err := v.Unmarshal(config); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	config.Path = configPath
	config.APIURL = strings.TrimRight(strings.Trim(config.APIURL, "\"'"), "/")

	if config.APIURL == "" {
		if configPath == "" {
			return nil, fmt.Errorf("config file not found and POS_API_URL not set. Copy .pos-config.example to .pos-config")
		}
		return nil, fmt.Errorf("missing required config: POS_API_URL")
	}
	if config.Timeout <= 0 {
		config.Timeout = 30 * time.Second
	}
	if config.Brand == "" {
		config.Brand = "POS CLI"
	}

	return config, nil
}

// FormatMoney renders an amount with the configured currency prefix
func (c *Config) FormatMoney(amount decimal.Decimal) string {
	currency := "Rs."
	if c != nil && c.Currency != "" {
		currency = c.Currency
	}
	return currency + amount.StringFixed(2)
}
