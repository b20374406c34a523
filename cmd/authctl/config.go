package main

import (
	"errors"
	"fmt"
	"strings"
	"time"

	goAuthClient "github.com/MrEthical07/goAuthClient"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const envPrefix = "AUTHCTL"

// cliConfig is the resolved flag, env and file configuration.
type cliConfig struct {
	BaseURL   string        `mapstructure:"base_url"`
	Timeout   time.Duration `mapstructure:"timeout"`
	RedisAddr string        `mapstructure:"redis_addr"`
	RedisDB   int           `mapstructure:"redis_db"`
	Memory    bool          `mapstructure:"memory"`
	Prefix    string        `mapstructure:"prefix"`
	LogLevel  string        `mapstructure:"log_level"`
	Env       string        `mapstructure:"env"`
	JSON      bool          `mapstructure:"json"`
	Audit     bool          `mapstructure:"audit"`
	Metrics   bool          `mapstructure:"metrics"`

	OTPMaxRequests       int           `mapstructure:"otp_max_requests"`
	OTPWindow            time.Duration `mapstructure:"otp_window"`
	OTPMaxVerifyAttempts int           `mapstructure:"otp_max_verify_attempts"`
}

func newViper() *viper.Viper {
	v := viper.New()
	v.SetConfigName("authctl")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("$HOME/.config/authctl")

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_", ".", "_"))
	v.AutomaticEnv()

	setDefaults(v)
	return v
}

func setDefaults(v *viper.Viper) {
	def := goAuthClient.DefaultConfig()

	v.SetDefault("timeout", def.API.Timeout)
	v.SetDefault("redis_db", 0)
	v.SetDefault("prefix", "authctl")
	v.SetDefault("log_level", "warn")
	v.SetDefault("env", "development")
	v.SetDefault("otp_max_requests", def.OTP.MaxRequests)
	v.SetDefault("otp_window", def.OTP.Window)
	v.SetDefault("otp_max_verify_attempts", def.OTP.MaxVerifyAttempts)
}

// loadConfig reads .env, then the optional config file, then resolves
// flags and AUTHCTL_* variables.
func loadConfig(v *viper.Viper, configFile string) (cliConfig, error) {
	_ = godotenv.Load()

	if configFile != "" {
		v.SetConfigFile(configFile)
	}
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if configFile != "" || !errors.As(err, &notFound) {
			return cliConfig{}, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var cfg cliConfig
	if err := v.Unmarshal(&cfg); err != nil {
		return cliConfig{}, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	if !cfg.Memory && cfg.RedisAddr == "" {
		return cliConfig{}, errors.New("redis address required (set --redis-addr, AUTHCTL_REDIS_ADDR, or use --memory)")
	}
	return cfg, nil
}

// engineConfig maps the CLI configuration onto the engine's.
func (c cliConfig) engineConfig() goAuthClient.Config {
	cfg := goAuthClient.DefaultConfig()
	cfg.API.BaseURL = c.BaseURL
	cfg.API.Timeout = c.Timeout
	cfg.API.UserAgent = "authctl/1"

	cfg.Session.RedisPrefix = c.Prefix + ":s"
	cfg.Cache.RedisPrefix = c.Prefix + ":c"
	cfg.OTP.ThrottlePrefix = c.Prefix + ":otp"
	cfg.OTP.ChallengePrefix = c.Prefix + ":ch"
	cfg.OTP.MaxRequests = c.OTPMaxRequests
	cfg.OTP.Window = c.OTPWindow
	cfg.OTP.MaxVerifyAttempts = c.OTPMaxVerifyAttempts

	cfg.Audit.Enabled = c.Audit
	cfg.Metrics.Enabled = c.Metrics
	cfg.Metrics.EnableLatencyHistograms = c.Metrics
	return cfg
}
