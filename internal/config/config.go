package config

import (
	"fmt"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Source     SourceConfig     `mapstructure:"source"`
	Target     TargetConfig     `mapstructure:"target"`
	Load       LoadConfig       `mapstructure:"load"`
	Validation ValidationConfig `mapstructure:"validation"`
	Scheduler  SchedulerConfig  `mapstructure:"scheduler"`
	Server     ServerConfig     `mapstructure:"server"`
	Logging    LoggingConfig    `mapstructure:"logging"`
}

// SourceConfig is the connection to the operational MySQL database.
type SourceConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	Database string `mapstructure:"database"`
}

// TargetConfig is the SQLite analytics database.
type TargetConfig struct {
	Path string `mapstructure:"path"`
}

// LoadConfig controls bootstrap behavior: the pre-populated calendar
// dimension range, as YYYY-MM-DD dates.
type LoadConfig struct {
	DateDimStart string `mapstructure:"date_dim_start"`
	DateDimEnd   string `mapstructure:"date_dim_end"`
}

type ValidationConfig struct {
	Days      int      `mapstructure:"days"`
	Tolerance float64  `mapstructure:"tolerance"`
	Critical  []string `mapstructure:"critical"`
}

type SchedulerConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	Interval string `mapstructure:"interval"`
}

type ServerConfig struct {
	Host         string `mapstructure:"host"`
	Port         int    `mapstructure:"port"`
	ReadTimeout  string `mapstructure:"read_timeout"`
	WriteTimeout string `mapstructure:"write_timeout"`
}

func (s ServerConfig) GetReadTimeout() time.Duration {
	d, _ := time.ParseDuration(s.ReadTimeout)
	return d
}

func (s ServerConfig) GetWriteTimeout() time.Duration {
	d, _ := time.ParseDuration(s.WriteTimeout)
	return d
}

type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// DateDimRange parses the configured calendar dimension bounds.
func (l LoadConfig) DateDimRange() (time.Time, time.Time, error) {
	start, err := time.Parse("2006-01-02", l.DateDimStart)
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("invalid load.date_dim_start: %w", err)
	}
	end, err := time.Parse("2006-01-02", l.DateDimEnd)
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("invalid load.date_dim_end: %w", err)
	}
	if end.Before(start) {
		return time.Time{}, time.Time{}, fmt.Errorf("load.date_dim_end %s before start %s", l.DateDimEnd, l.DateDimStart)
	}
	return start, end, nil
}

func LoadConfigFile(path string) (*Config, error) {
	v := viper.New()
	v.SetConfigFile(path)

	v.SetDefault("source.host", "localhost")
	v.SetDefault("source.port", 3306)
	v.SetDefault("source.database", "sakila")
	v.SetDefault("target.path", "analytics.db")
	v.SetDefault("load.date_dim_start", "2005-01-01")
	v.SetDefault("load.date_dim_end", "2006-12-31")
	v.SetDefault("validation.days", 30)
	v.SetDefault("validation.tolerance", 0.01)
	v.SetDefault("validation.critical", []string{"customer_count", "film_count"})
	v.SetDefault("scheduler.enabled", false)
	v.SetDefault("scheduler.interval", "@every 15m")
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.read_timeout", "15s")
	v.SetDefault("server.write_timeout", "30s")
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	return &cfg, nil
}
