package config

import (
	"errors"
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"
)

type HTTP struct {
	Host            string
	Port            int
	ReadTimeoutSec  int
	WriteTimeoutSec int
	IdleTimeoutSec  int
	CORSOrigins     []string
}
type AdminHTTP struct {
	Host string
	Port int
}

type App struct {
	Name  string
	Env   string
	HTTP  HTTP
	Admin AdminHTTP
}

type LogFile struct {
	Enable     bool
	Filename   string
	MaxSizeMB  int
	MaxBackups int
	MaxAgeDays int
	Compress   bool
}

type Log struct {
	Level string
	JSON  bool
	File  LogFile
}

type JWT struct {
	Secret            string
	Issuer            string
	AccessTokenTTLMin int
}

func (j JWT) TTL() time.Duration { return time.Duration(j.AccessTokenTTLMin) * time.Minute }

// Auth 上游认证服务调用 OAuth 桥接口时携带的共享密钥；为空时该接口关闭
type Auth struct {
	BridgeSecret string
}

type Redis struct {
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

type DB struct {
	Driver             string
	DSN                string
	Username           string
	Password           string
	MaxOpenConns       int
	MaxIdleConns       int
	ConnMaxLifetimeMin int
	AutoMigrate        bool
	LogLevel           string
}

// Cache 仪表盘统计缓存：redis / memory / none
type Cache struct {
	Driver          string
	DashboardTTLSec int
}

func (c Cache) DashboardTTL() time.Duration { return time.Duration(c.DashboardTTLSec) * time.Second }

// Limits 入口限流/限并发/请求体/超时
type Limits struct {
	RPS         float64
	Burst       int
	Concurrency int64
	MaxBodyMB   int64
	TimeoutSec  int
}

type Config struct {
	App    App
	Log    Log
	JWT    JWT
	Auth   Auth
	DB     DB
	Redis  Redis `mapstructure:"redis"`
	Cache  Cache
	Limits Limits
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("app.name", "lawdesk")
	v.SetDefault("app.env", "local")
	v.SetDefault("app.http.host", "0.0.0.0")
	v.SetDefault("app.http.port", 8080)
	v.SetDefault("app.http.readTimeoutSec", 10)
	v.SetDefault("app.http.writeTimeoutSec", 15)
	v.SetDefault("app.http.idleTimeoutSec", 60)
	v.SetDefault("app.admin.host", "127.0.0.1")
	v.SetDefault("app.admin.port", 8081)

	v.SetDefault("log.level", "info")
	v.SetDefault("log.json", false)
	v.SetDefault("log.file.filename", "logs/lawdesk.log")
	v.SetDefault("log.file.maxSizeMB", 100)
	v.SetDefault("log.file.maxBackups", 7)
	v.SetDefault("log.file.maxAgeDays", 30)

	v.SetDefault("jwt.secret", "")
	v.SetDefault("jwt.issuer", "lawdesk")
	v.SetDefault("jwt.accessTokenTTLMin", 60*24)
	v.SetDefault("auth.bridgeSecret", "")

	v.SetDefault("db.driver", "sqlite")
	v.SetDefault("db.dsn", "file:lawdesk.db?_busy_timeout=5000")
	v.SetDefault("db.maxOpenConns", 20)
	v.SetDefault("db.maxIdleConns", 10)
	v.SetDefault("db.connMaxLifetimeMin", 30)
	v.SetDefault("db.autoMigrate", true)
	v.SetDefault("db.logLevel", "warn")

	v.SetDefault("redis.addr", "127.0.0.1:6379")
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)
	v.SetDefault("cache.driver", "memory")
	v.SetDefault("cache.dashboardTTLSec", 30)

	v.SetDefault("limits.rps", 50)
	v.SetDefault("limits.burst", 100)
	v.SetDefault("limits.concurrency", 256)
	v.SetDefault("limits.maxBodyMB", 2)
	v.SetDefault("limits.timeoutSec", 15)
}

// Read 读取配置；文件不存在时只用默认值 + 环境变量
func Read(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)
	if path == "" {
		path = os.Getenv("CONFIG_PATH")
		if path == "" {
			path = "./configs/config.local.yaml"
		}
	}
	v.SetConfigFile(path)
	v.SetConfigType("yaml")
	v.SetEnvPrefix("APP")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	if err := v.ReadInConfig(); err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			var nf viper.ConfigFileNotFoundError
			if !errors.As(err, &nf) {
				return nil, fmt.Errorf("read config: %w", err)
			}
		}
	}
	var c Config
	if err := v.Unmarshal(&c); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	if c.JWT.Secret == "" && c.App.Env != "local" && c.App.Env != "test" {
		return nil, errors.New("jwt.secret is required outside local/test")
	}
	return &c, nil
}

func Load(path string) *Config {
	c, err := Read(path)
	if err != nil {
		log.Fatalf("%v", err)
	}
	return c
}
