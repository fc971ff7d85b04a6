package config

import (
	"fmt"
	"log"
	"os"
	"strings"

	"github.com/spf13/viper"
)

type HTTP struct {
	Host            string
	Port            int
	ReadTimeoutSec  int
	WriteTimeoutSec int
	IdleTimeoutSec  int
}
type AdminHTTP struct {
	Host string
	Port int
	// 启动时把该邮箱对应的用户提升为管理员（首个 admin 的来源）
	BootstrapEmail string `mapstructure:"bootstrapEmail"`
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
	MaxSizeMB  int `mapstructure:"maxSizeMB"`
	MaxBackups int `mapstructure:"maxBackups"`
	MaxAgeDays int `mapstructure:"maxAgeDays"`
	Compress   bool
}

type Log struct {
	Level string
	JSON  bool
	File  LogFile
}

type JWT struct {
	Secret string
	KeyID  string `mapstructure:"keyId"`
	// 轮换下来的旧密钥（kid -> secret），只用于校验
	RetiredKeys       map[string]string `mapstructure:"retiredKeys"`
	Issuer            string
	AccessTokenTTLMin int `mapstructure:"accessTokenTTLMin"`
}

type Redis struct {
	Addr          string `mapstructure:"addr"`
	Password      string `mapstructure:"password"`
	DB            int    `mapstructure:"db"`
	ProductTTLSec int    `mapstructure:"productTTLSec"`
}

type DB struct {
	Driver             string
	DSN                string
	Username           string
	Password           string
	MaxOpenConns       int    `mapstructure:"maxOpenConns"`
	MaxIdleConns       int    `mapstructure:"maxIdleConns"`
	ConnMaxLifetimeMin int    `mapstructure:"connMaxLifetimeMin"`
	AutoMigrate        bool   `mapstructure:"autoMigrate"`
	LogLevel           string `mapstructure:"logLevel"`
}

type Limits struct {
	RPS               float64
	Burst             int
	MaxConcurrent     int64   `mapstructure:"maxConcurrent"`
	MaxBodyBytes      int64   `mapstructure:"maxBodyBytes"`
	RequestTimeoutSec int     `mapstructure:"requestTimeoutSec"`
	LoginRPS          float64 `mapstructure:"loginRPS"`
	LoginBurst        int     `mapstructure:"loginBurst"`
}

type CORS struct {
	AllowOrigins []string `mapstructure:"allowOrigins"`
}

type Config struct {
	App    App
	Log    Log
	JWT    JWT
	DB     DB
	Redis  Redis `mapstructure:"redis"`
	Limits Limits
	CORS   CORS `mapstructure:"cors"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("app.name", "gadget-store")
	v.SetDefault("app.env", "local")
	v.SetDefault("app.http.host", "0.0.0.0")
	v.SetDefault("app.http.port", 4001)
	v.SetDefault("app.http.readTimeoutSec", 5)
	v.SetDefault("app.http.writeTimeoutSec", 10)
	v.SetDefault("app.http.idleTimeoutSec", 60)
	v.SetDefault("app.admin.host", "127.0.0.1")
	v.SetDefault("app.admin.port", 4002)

	v.SetDefault("log.level", "info")
	v.SetDefault("log.file.maxSizeMB", 100)
	v.SetDefault("log.file.maxBackups", 7)
	v.SetDefault("log.file.maxAgeDays", 30)

	v.SetDefault("jwt.secret", "")
	v.SetDefault("jwt.keyId", "k1")
	v.SetDefault("jwt.issuer", "gadget-store")
	v.SetDefault("jwt.accessTokenTTLMin", 120)

	v.SetDefault("db.driver", "sqlite")
	v.SetDefault("db.dsn", "file:gadget-store.db?_pragma=foreign_keys(1)")
	v.SetDefault("db.maxOpenConns", 20)
	v.SetDefault("db.maxIdleConns", 10)
	v.SetDefault("db.connMaxLifetimeMin", 30)
	v.SetDefault("db.autoMigrate", true)
	v.SetDefault("db.logLevel", "warn")

	v.SetDefault("redis.productTTLSec", 60)

	v.SetDefault("limits.rps", 200)
	v.SetDefault("limits.burst", 400)
	v.SetDefault("limits.maxConcurrent", 300)
	v.SetDefault("limits.maxBodyBytes", 1<<20)
	v.SetDefault("limits.requestTimeoutSec", 10)
	v.SetDefault("limits.loginRPS", 1)
	v.SetDefault("limits.loginBurst", 5)

	v.SetDefault("cors.allowOrigins", []string{"*"})
}

// Load 读取 yaml 配置；APP_ 前缀环境变量覆盖（app.http.port -> APP_APP_HTTP_PORT）
func Load(path string) (*Config, error) {
	v := viper.New()
	if path == "" {
		path = os.Getenv("CONFIG_PATH")
		if path == "" {
			path = "./configs/config.local.yaml"
		}
	}
	setDefaults(v)
	v.SetConfigFile(path)
	v.SetConfigType("yaml")
	v.SetEnvPrefix("APP")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	var c Config
	if err := v.Unmarshal(&c); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	if err := c.validate(); err != nil {
		return nil, err
	}
	return &c, nil
}

func MustLoad(path string) *Config {
	c, err := Load(path)
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	return c
}

func (c *Config) validate() error {
	if strings.TrimSpace(c.JWT.Secret) == "" {
		return fmt.Errorf("jwt.secret is required")
	}
	if c.JWT.AccessTokenTTLMin <= 0 {
		return fmt.Errorf("jwt.accessTokenTTLMin must be positive")
	}
	if _, dup := c.JWT.RetiredKeys[c.JWT.KeyID]; dup {
		return fmt.Errorf("jwt.keyId %q is also listed in retiredKeys", c.JWT.KeyID)
	}
	return nil
}
