package server

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"

	"StreetEncounters/internal/store"
)

// Config is the resolved authority configuration.
type Config struct {
	Addr            string   `mapstructure:"addr"`
	CatalogPath     string   `mapstructure:"catalogPath"`
	LogLevel        string   `mapstructure:"logLevel"`
	StoreDialect    string   `mapstructure:"store.dialect"`
	StoreDSN        string   `mapstructure:"store.dsn"`
	AdminIdentities []string `mapstructure:"admin.identities"`
}

// LoadConfig resolves configuration from defaults, an optional JSON config
// file, and STREETENC_* environment variables, in rising precedence.
func LoadConfig(configDir string) (Config, error) {
	v := viper.New()
	v.SetDefault("addr", ":8090")
	v.SetDefault("catalogPath", "configs/encounters.yml")
	v.SetDefault("logLevel", "info")
	v.SetDefault("store.dialect", string(store.DialectSQLite))
	v.SetDefault("store.dsn", "data/encounters.db")
	v.SetDefault("admin.identities", []string{})

	v.SetConfigName("encounters.cfg")
	v.SetConfigType("json")
	v.AddConfigPath(configDir)
	v.SetEnvPrefix("STREETENC")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		// A missing config file is fine; defaults and env cover it.
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
	}

	cfg := Config{
		Addr:            v.GetString("addr"),
		CatalogPath:     v.GetString("catalogPath"),
		LogLevel:        v.GetString("logLevel"),
		StoreDialect:    v.GetString("store.dialect"),
		StoreDSN:        v.GetString("store.dsn"),
		AdminIdentities: v.GetStringSlice("admin.identities"),
	}
	switch store.Dialect(cfg.StoreDialect) {
	case store.DialectSQLite, store.DialectPostgres:
	default:
		return Config{}, fmt.Errorf("unknown store dialect %q", cfg.StoreDialect)
	}
	return cfg, nil
}

// IsAdmin reports whether an identity may run operator commands.
func (c Config) IsAdmin(identity string) bool {
	for _, id := range c.AdminIdentities {
		if id == identity {
			return true
		}
	}
	return false
}
