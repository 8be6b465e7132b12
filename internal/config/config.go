package config

import (
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
	"go.uber.org/fx"
)

type ServerConfig struct {
	Addr string `mapstructure:"addr"`
}

type DatabaseConfig struct {
	DSN string `mapstructure:"dsn"`
}

type RedisConfig struct {
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

type ArtifactConfig struct {
	// Dir is the root directory of the local artifact store.
	Dir string `mapstructure:"dir"`
	// RetentionDays bounds how long a completed artifact stays downloadable.
	RetentionDays int `mapstructure:"retention_days"`
	// BaseURL prefixes resolved download URLs.
	BaseURL string `mapstructure:"base_url"`
}

type SchedulerConfig struct {
	TickInterval time.Duration `mapstructure:"tick_interval"`
	Workers      int           `mapstructure:"workers"`
	// Timezone is the IANA zone schedules' time-of-day is interpreted in.
	Timezone string `mapstructure:"timezone"`
}

type ExportConfig struct {
	QueryBatchSize int `mapstructure:"query_batch_size"`
}

type SMTPConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	Username string `mapstructure:"username"`
	Password string `mapstructure:"password"`
	From     string `mapstructure:"from"`
}

type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	Database  DatabaseConfig  `mapstructure:"database"`
	Redis     RedisConfig     `mapstructure:"redis"`
	Artifact  ArtifactConfig  `mapstructure:"artifact"`
	Scheduler SchedulerConfig `mapstructure:"scheduler"`
	Export    ExportConfig    `mapstructure:"export"`
	SMTP      SMTPConfig      `mapstructure:"smtp"`
}

func Load() (Config, error) {
	// .env is optional; real deployments inject environment directly.
	_ = godotenv.Load()

	v := viper.New()
	v.SetEnvPrefix("AUDITTRAIL")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.SetDefault("server.addr", ":8080")
	v.SetDefault("database.dsn", "postgres://localhost:5432/audittrail?sslmode=disable")
	v.SetDefault("redis.addr", "localhost:6379")
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)
	v.SetDefault("artifact.dir", "/var/lib/audittrail/artifacts")
	v.SetDefault("artifact.retention_days", 7)
	v.SetDefault("artifact.base_url", "http://localhost:8080/api/v1/exports")
	v.SetDefault("scheduler.tick_interval", 30*time.Second)
	v.SetDefault("scheduler.workers", 4)
	v.SetDefault("scheduler.timezone", "UTC")
	v.SetDefault("export.query_batch_size", 1000)
	v.SetDefault("smtp.enabled", false)
	v.SetDefault("smtp.port", 587)

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

var Module = fx.Module("config",
	fx.Provide(Load),
)
