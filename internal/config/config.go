package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Server  ServerConfig
	DB      DBConfig
	Redis   RedisConfig
	Auth    AuthConfig
	Logger  LoggerConfig
	Engine  EngineConfig
	Metrics MetricsConfig
}

type ServerConfig struct {
	Port         int
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

type DBConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	DBName   string
}

type RedisConfig struct {
	Address  string `yaml:"address"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
}

type AuthConfig struct {
	JWTSecret string
}

// LoggerConfig controls the zap logger. When File.Path is set the
// logger tees into a size rotated file in addition to stdout.
type LoggerConfig struct {
	Level string
	Env   string
	File  FileLogConfig
}

type FileLogConfig struct {
	Path       string
	MaxSizeMB  int
	MaxBackups int
	MaxAgeDays int
	Compress   bool
}

// EngineConfig holds the attempt lifecycle windows. All values are
// durations; the yaml form is a duration string such as "90m".
type EngineConfig struct {
	// StaleWindow is the inactivity span after which an active attempt
	// counts as abandoned. Must lie between 1h and 2h.
	StaleWindow time.Duration
	// AdmissionReclaimWindow is the tighter inactivity span used to
	// reclaim attempts when a learner hits the concurrency cap.
	AdmissionReclaimWindow time.Duration
	// ActiveCountWindow bounds how far back the concurrency cap looks
	// for active attempts.
	ActiveCountWindow time.Duration
	SweepInterval     time.Duration
	SweepLeaseTTL     time.Duration
	SnapshotTTL       time.Duration
}

func (e EngineConfig) Validate() error {
	if e.StaleWindow < time.Hour || e.StaleWindow > 2*time.Hour {
		return fmt.Errorf("engine.stale_window must be between 1h and 2h, got %s", e.StaleWindow)
	}
	if e.AdmissionReclaimWindow <= 0 {
		return fmt.Errorf("engine.admission_reclaim_window must be positive")
	}
	if e.ActiveCountWindow <= 0 {
		return fmt.Errorf("engine.active_count_window must be positive")
	}
	if e.SweepInterval <= 0 {
		return fmt.Errorf("engine.sweep_interval must be positive")
	}
	if e.SweepLeaseTTL <= 0 {
		return fmt.Errorf("engine.sweep_lease_ttl must be positive")
	}
	if e.SnapshotTTL <= 0 {
		return fmt.Errorf("engine.snapshot_ttl must be positive")
	}
	return nil
}

type MetricsConfig struct {
	Port int
}

func LoadConfig() (*Config, error) {
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")

	// Add config paths based on environment
	if os.Getenv("ENV") == "test" {
		viper.AddConfigPath("../../config")
		viper.AddConfigPath("../../")
	} else {
		viper.AddConfigPath(".")
		viper.AddConfigPath("./config")
	}

	viper.AutomaticEnv()

	viper.SetDefault("logger.level", "info")
	viper.SetDefault("logger.env", "development")
	viper.SetDefault("logger.file.max_size_mb", 100)
	viper.SetDefault("logger.file.max_backups", 3)
	viper.SetDefault("logger.file.max_age_days", 28)
	viper.SetDefault("engine.stale_window", "2h")
	viper.SetDefault("engine.admission_reclaim_window", "30m")
	viper.SetDefault("engine.active_count_window", "1h")
	viper.SetDefault("engine.sweep_interval", "30m")
	viper.SetDefault("engine.sweep_lease_ttl", "10m")
	viper.SetDefault("engine.snapshot_ttl", "5m")
	viper.SetDefault("metrics.port", 9090)

	if err := viper.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	// Log the config file being used
	configFile := viper.ConfigFileUsed()
	if configFile != "" {
		absPath, _ := filepath.Abs(configFile)
		fmt.Printf("Using config file: %s\n", absPath)
	}

	config := &Config{
		Server: ServerConfig{
			Port:         viper.GetInt("server.port"),
			ReadTimeout:  viper.GetDuration("server.read_timeout") * time.Second,
			WriteTimeout: viper.GetDuration("server.write_timeout") * time.Second,
		},
		DB: DBConfig{
			Host:     viper.GetString("db.host"),
			Port:     viper.GetInt("db.port"),
			User:     viper.GetString("db.user"),
			Password: viper.GetString("db.password"),
			DBName:   viper.GetString("db.name"),
		},
		Redis: RedisConfig{
			Address:  viper.GetString("redis.address"),
			Password: viper.GetString("redis.password"),
			DB:       viper.GetInt("redis.db"),
		},
		Auth: AuthConfig{
			JWTSecret: viper.GetString("auth.jwt_secret"),
		},
		Logger: LoggerConfig{
			Level: viper.GetString("logger.level"),
			Env:   viper.GetString("logger.env"),
			File: FileLogConfig{
				Path:       viper.GetString("logger.file.path"),
				MaxSizeMB:  viper.GetInt("logger.file.max_size_mb"),
				MaxBackups: viper.GetInt("logger.file.max_backups"),
				MaxAgeDays: viper.GetInt("logger.file.max_age_days"),
				Compress:   viper.GetBool("logger.file.compress"),
			},
		},
		Engine: EngineConfig{
			StaleWindow:            viper.GetDuration("engine.stale_window"),
			AdmissionReclaimWindow: viper.GetDuration("engine.admission_reclaim_window"),
			ActiveCountWindow:      viper.GetDuration("engine.active_count_window"),
			SweepInterval:          viper.GetDuration("engine.sweep_interval"),
			SweepLeaseTTL:          viper.GetDuration("engine.sweep_lease_ttl"),
			SnapshotTTL:            viper.GetDuration("engine.snapshot_ttl"),
		},
		Metrics: MetricsConfig{
			Port: viper.GetInt("metrics.port"),
		},
	}

	// Override with environment variables if set
	if host := os.Getenv("DB_HOST"); host != "" {
		config.DB.Host = host
	}
	if port := os.Getenv("DB_PORT"); port != "" {
		if p, err := strconv.Atoi(port); err == nil {
			config.DB.Port = p
		}
	}
	if user := os.Getenv("DB_USER"); user != "" {
		config.DB.User = user
	}
	if password := os.Getenv("DB_PASSWORD"); password != "" {
		config.DB.Password = password
	}
	if dbname := os.Getenv("DB_NAME"); dbname != "" {
		config.DB.DBName = dbname
	}
	if port := os.Getenv("SERVER_PORT"); port != "" {
		if p, err := strconv.Atoi(port); err == nil {
			config.Server.Port = p
		}
	}
	if redisAddress := os.Getenv("REDIS_ADDRESS"); redisAddress != "" {
		config.Redis.Address = redisAddress
	}
	if redisPassword := os.Getenv("REDIS_PASSWORD"); redisPassword != "" {
		config.Redis.Password = redisPassword
	}
	if secret := os.Getenv("JWT_SECRET"); secret != "" {
		config.Auth.JWTSecret = secret
	}

	if err := config.Engine.Validate(); err != nil {
		return nil, fmt.Errorf("invalid engine config: %w", err)
	}

	return config, nil
}

func (c *Config) GetDSN() string {
	// Oracle DSN format: user/password@host:port/service
	return fmt.Sprintf("oracle://%s:%s@%s:%d/%s",
		c.DB.User,
		c.DB.Password,
		c.DB.Host,
		c.DB.Port,
		c.DB.DBName,
	)
}
