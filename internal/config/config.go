package config

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// Config holds configuration values loaded from flags, env, or config file.
type Config struct {
	StorePath   string
	LedgerPath  string
	PgDSN       string
	JournalPath string
	FeeBPS      int64
	LogLevel    string
	AuthSecrets string
}

// Load merges config file, environment variables, and flags into Config.
func Load(cfgFile string, flags *pflag.FlagSet) (Config, error) {
	v := viper.New()
	v.SetEnvPrefix("MARKET")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	v.SetDefault("store", "./data/markets.json")
	v.SetDefault("ledger", "./data/ledger.json")
	v.SetDefault("journal", "./data/trades.jsonl")
	v.SetDefault("fee-bps", int64(200))
	v.SetDefault("log-level", "info")

	if flags != nil {
		if err := v.BindPFlags(flags); err != nil {
			return Config{}, fmt.Errorf("bind flags: %w", err)
		}
	}

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
	} else {
		v.SetConfigName("config")
		v.AddConfigPath(".")
		if err := v.ReadInConfig(); err != nil {
			if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
				return Config{}, fmt.Errorf("read config: %w", err)
			}
		}
	}

	cfg := Config{
		StorePath:   v.GetString("store"),
		LedgerPath:  v.GetString("ledger"),
		PgDSN:       v.GetString("pg-dsn"),
		JournalPath: v.GetString("journal"),
		FeeBPS:      v.GetInt64("fee-bps"),
		LogLevel:    v.GetString("log-level"),
		AuthSecrets: v.GetString("auth-secrets"),
	}

	return cfg, nil
}

// LoadSecrets reads a principal->secret JSON map for the HMAC authorizer.
func LoadSecrets(path string) (map[string]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read auth secrets: %w", err)
	}
	var secrets map[string]string
	if err := json.Unmarshal(data, &secrets); err != nil {
		return nil, fmt.Errorf("parse auth secrets: %w", err)
	}
	return secrets, nil
}
