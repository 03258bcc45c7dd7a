package config

import (
	"fmt"
	"os"
	"time"

	"taskmaster/pkg/config"
)

// 存储驱动
const (
	DriverPostgres = "postgres"
	DriverMemory   = "memory"
)

type StorageConfig struct {
	// Driver 取值 postgres 或 memory；memory 仅用于本地调试，重启即丢数据
	Driver string `yaml:"driver"`
}

type Config struct {
	Env      string              `yaml:"env"`
	LogLevel string              `yaml:"log_level"`
	Storage  StorageConfig       `yaml:"storage"`
	DB       config.DBConfig     `yaml:"db"`
	MQ       config.MQConfig     `yaml:"mq"`
	Redis    config.RedisConfig  `yaml:"redis"`
	JWT      config.JWTConfig    `yaml:"jwt"`
	Server   config.ServerConfig `yaml:"server"`
}

// Load 读取 configDir 下的分层配置，随后用环境变量覆盖并补齐默认值
func Load(env, configDir string) (*Config, error) {
	if env == "" {
		env = config.GetConfigEnv()
	}

	var cfg Config
	if err := config.Decode(env, configDir, &cfg); err != nil {
		return nil, err
	}
	cfg.Env = env

	// 环境变量覆盖
	config.OverrideDBFromEnv(&cfg.DB)
	config.OverrideMQFromEnv(&cfg.MQ)
	config.OverrideRedisFromEnv(&cfg.Redis)
	config.OverrideJWTFromEnv(&cfg.JWT)
	config.OverrideServerFromEnv(&cfg.Server)
	if driver := os.Getenv("STORAGE_DRIVER"); driver != "" {
		cfg.Storage.Driver = driver
	}
	if level := os.Getenv("LOG_LEVEL"); level != "" {
		cfg.LogLevel = level
	}

	cfg.applyDefaults()
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) applyDefaults() {
	if c.LogLevel == "" {
		c.LogLevel = "info"
	}
	if c.Storage.Driver == "" {
		c.Storage.Driver = DriverPostgres
	}
	if c.DB.Port == 0 {
		c.DB.Port = 5432
	}
	if c.DB.SSLMode == "" {
		c.DB.SSLMode = "disable"
	}
	if c.DB.MaxConns == 0 {
		c.DB.MaxConns = 10
	}
	if c.DB.SlowQuery == 0 {
		c.DB.SlowQuery = 200 * time.Millisecond
	}
	if c.Redis.IdempotencyTTL == 0 {
		c.Redis.IdempotencyTTL = 24 * time.Hour
	}
	if c.JWT.TTL == 0 {
		c.JWT.TTL = 24 * time.Hour
	}
	if c.Server.Port == "" {
		c.Server.Port = ":8080"
	}
	if c.Server.ShutdownTimeout == 0 {
		c.Server.ShutdownTimeout = 10 * time.Second
	}
}

func (c *Config) validate() error {
	switch c.Storage.Driver {
	case DriverPostgres, DriverMemory:
	default:
		return fmt.Errorf("unknown storage driver %q", c.Storage.Driver)
	}
	if c.JWT.Secret == "" {
		return fmt.Errorf("jwt.secret is required")
	}
	return nil
}
