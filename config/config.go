package config

import (
	"errors"
	"log/slog"
	"strings"

	"github.com/spf13/viper"
)

type Config struct {
	Server     Server
	Bun        BunConfig
	Prekeys    PrekeyPolicy
	LoggerMode LoggerMode
}

type Server struct {
	Port           string
	Environment    string
	AllowedOrigins []string
}

type BunConfig struct {
	DSN string
}

// PrekeyPolicy holds replenishment tuning. The low-water mark is advisory:
// clients compare it against the count endpoint to decide when to upload.
type PrekeyPolicy struct {
	LowWaterMark int
	MaxBatchSize int
}

type LoggerMode struct {
	Development bool
	Prod        bool
	Level       string
}

func LoadConfig(filename string) (*viper.Viper, error) {
	v := viper.New()

	v.SetConfigName(filename)
	v.SetConfigType("yaml")
	v.AddConfigPath("config")

	v.SetEnvPrefix("keydepot")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			return nil, errors.New("config file not found")
		}
		return nil, err
	}
	return v, nil
}

func ParseConfig(v *viper.Viper) (*Config, error) {
	var c Config
	err := v.Unmarshal(&c)
	if err != nil {
		slog.Error("Unable to unmarshal config", "err", err)
		return nil, err
	}
	return &c, nil
}
