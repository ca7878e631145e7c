package config

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

type AppConfig struct {
	API       *APIConfig       `mapstructure:"api"`
	Gin       *GinConfig       `mapstructure:"gin"`
	Postgres  *PostgresConfig  `mapstructure:"postgres"`
	Wallet    *WalletConfig    `mapstructure:"wallet"`
	AMQP      *AMQPConfig      `mapstructure:"amqp"`
	Scheduler *SchedulerConfig `mapstructure:"scheduler"`
	Fees      map[string]float64
}

type APIConfig struct {
	Environment        string   `mapstructure:"environment"`
	BaseURL            string   `mapstructure:"base_url"`
	Port               string   `mapstructure:"port"`
	AllowedCORSDomains []string `mapstructure:"allowed_cors_domains"`
}

type GinConfig struct {
	Mode string `mapstructure:"mode"`
}

type PostgresConfig struct {
	Host     string `mapstructure:"host"`
	Port     string `mapstructure:"port"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	DB       string `mapstructure:"db"`
}

type WalletConfig struct {
	BaseURL        string `mapstructure:"base_url"`
	TimeoutSeconds int    `mapstructure:"timeout_seconds"`
}

type AMQPConfig struct {
	URL string `mapstructure:"url"`
}

type SchedulerConfig struct {
	PenaltySweep         string `mapstructure:"penalty_sweep"`
	ContributionReminder string `mapstructure:"contribution_reminder"`
}

func Load(configPath string) (*AppConfig, error) {
	viper.SetConfigFile(configPath)
	viper.AutomaticEnv()
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	if err := viper.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read config file %v -> %w", configPath, err)
	}

	conf := &AppConfig{}
	if err := viper.Unmarshal(conf); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config -> %w", err)
	}

	conf.Fees = map[string]float64{}
	for key := range viper.GetStringMap("fees") {
		conf.Fees[strings.ToUpper(key)] = viper.GetFloat64("fees." + key)
	}

	return conf, nil
}
