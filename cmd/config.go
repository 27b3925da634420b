package cmd

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
)

// Config holds the defaults of the global flags.
type Config struct {
	Data   string // path of the JSON document holding the state
	Mirror string // path of the SQLite snapshot database, empty to disable
	Keep   int    // number of snapshots kept in the mirror
	Style  string // glamour style, or "raw" to print markdown as is
	Today  string // overrides today's date, mostly for tests and docs
}

// LoadConfig reads configuration from ~/.config/tally/config.toml and the
// environment. Env var overrides use prefix TALLY_.
func LoadConfig() (Config, error) {
	v := viper.New()

	home, _ := os.UserHomeDir()
	v.SetDefault("data", filepath.Join(home, ".local", "share", "tally", "tally.json"))
	v.SetDefault("mirror", "")
	v.SetDefault("keep", 20)
	v.SetDefault("style", "auto")
	v.SetDefault("today", "")

	v.SetConfigType("toml")
	if path := os.Getenv("TALLY_CONFIG"); path != "" {
		v.SetConfigFile(path)
	} else {
		v.AddConfigPath(filepath.Join(home, ".config", "tally"))
		v.SetConfigName("config")
	}

	v.SetEnvPrefix("TALLY")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	if err := v.ReadInConfig(); err != nil {
		// A missing config.toml is fine, a broken one or a missing
		// TALLY_CONFIG file is not.
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
	}

	var c Config
	if err := v.Unmarshal(&c); err != nil {
		return Config{}, fmt.Errorf("unmarshal config: %w", err)
	}
	return c, nil
}
