package config

import (
	"encoding/json"
	"fmt"
	"os"
	"sync"

	"github.com/sirupsen/logrus"
)

// Config 应用配置
type Config struct {
	Server   ServerConfig   `json:"server"`
	Database DatabaseConfig `json:"database"`
	Redis    RedisConfig    `json:"redis"`
	Consul   ConsulConfig   `json:"consul"`
	Jaeger   JaegerConfig   `json:"jaeger"`
	Kafka    KafkaConfig    `json:"kafka"`
	Log      LogConfig      `json:"log"`
	Auth     AuthConfig     `json:"auth"`
}

// ServerConfig 服务配置
type ServerConfig struct {
	Name     string `json:"name"`      // 服务名称
	Host     string `json:"host"`      // 服务地址
	HTTPPort int    `json:"http_port"` // HTTP 端口（门户 API）
	GRPCPort int    `json:"grpc_port"` // gRPC 端口（仅 health，供 Consul GRPC check）
}

// DatabaseConfig 数据库配置
type DatabaseConfig struct {
	Driver   string `json:"driver"`   // mysql / sqlite
	Host     string `json:"host"`     // 数据库地址（mysql）
	Port     int    `json:"port"`     // 数据库端口（mysql）
	User     string `json:"user"`     // 用户名
	Password string `json:"password"` // 密码
	Database string `json:"database"` // 数据库名（mysql）或文件路径（sqlite）
	MaxIdle  int    `json:"max_idle"` // 最大空闲连接
	MaxOpen  int    `json:"max_open"` // 最大打开连接
}

// RedisConfig Redis配置（可选：用于服务端 session token 存储）
type RedisConfig struct {
	Enabled  bool   `json:"enabled"`
	Host     string `json:"host"`
	Port     int    `json:"port"`
	Password string `json:"password"`
	DB       int    `json:"db"`
	PoolSize int    `json:"pool_size"`
}

// ConsulConfig Consul配置
type ConsulConfig struct {
	Host string `json:"host"`
	Port int    `json:"port"`
}

// JaegerConfig Jaeger配置
type JaegerConfig struct {
	Endpoint string  `json:"endpoint"`
	Sampler  float64 `json:"sampler"` // 采样率 0.0-1.0
}

// KafkaConfig Kafka配置（brokers 为空则不发布提交事件）
type KafkaConfig struct {
	Brokers []string `json:"brokers"`
	Topic   string   `json:"topic"`
}

// LogConfig 日志配置
type LogConfig struct {
	Level  string `json:"level"`  // debug, info, warn, error
	Format string `json:"format"` // json, text
	Output string `json:"output"` // stdout, file
	Path   string `json:"path"`   // 日志文件路径
}

// AuthConfig 会话鉴权配置（HS256 JWT session token）
type AuthConfig struct {
	Enabled         bool   `json:"enabled"`
	JWTSecret       string `json:"jwt_secret"`
	Issuer          string `json:"issuer"`
	Audience        string `json:"audience"`
	TokenTTLMinutes int    `json:"token_ttl_minutes"` // <=0 时取默认 24h
}

// TokenTTL 返回配置的 session 有效期。
func (a AuthConfig) TokenTTL() (minutes int) {
	if a.TokenTTLMinutes <= 0 {
		return 24 * 60
	}
	return a.TokenTTLMinutes
}

var (
	globalConfig *Config
	configOnce   sync.Once
)

// LoadConfig 加载配置；配置文件不存在时回落到默认配置。
func LoadConfig(configPath string) (*Config, error) {
	var err error
	configOnce.Do(func() {
		if _, statErr := os.Stat(configPath); os.IsNotExist(statErr) {
			logrus.Warnf("Config file not found: %s, using default config", configPath)
			globalConfig = defaultConfig()
			return
		}

		data, readErr := os.ReadFile(configPath)
		if readErr != nil {
			err = fmt.Errorf("failed to read config file: %w", readErr)
			return
		}

		cfg, parseErr := ParseConfig(data)
		if parseErr != nil {
			err = parseErr
			return
		}
		globalConfig = cfg
	})

	if err != nil {
		return nil, err
	}

	return globalConfig, nil
}

// ParseConfig 在默认配置之上解析 JSON 配置字节（不经过全局单例，便于测试与 Consul KV 复用）。
func ParseConfig(data []byte) (*Config, error) {
	cfg := defaultConfig()
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	return cfg, nil
}

// GetConfig 获取全局配置
func GetConfig() *Config {
	if globalConfig == nil {
		return defaultConfig()
	}
	return globalConfig
}

// defaultConfig 默认配置（开发环境）
func defaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Name:     "portal-service",
			Host:     "0.0.0.0",
			HTTPPort: 8080,
			GRPCPort: 50051,
		},
		Database: DatabaseConfig{
			Driver:   "sqlite",
			Database: "cab_booking.db",
			MaxIdle:  10,
			MaxOpen:  100,
		},
		Redis: RedisConfig{
			Enabled:  false,
			Host:     "localhost",
			Port:     6379,
			Password: "",
			DB:       0,
			PoolSize: 10,
		},
		Consul: ConsulConfig{
			Host: "localhost",
			Port: 8500,
		},
		Jaeger: JaegerConfig{
			Endpoint: "localhost:6831",
			Sampler:  1.0,
		},
		Kafka: KafkaConfig{
			Brokers: nil,
			Topic:   "portal-submissions",
		},
		Log: LogConfig{
			Level:  "debug",
			Format: "text",
			Output: "stdout",
			Path:   "logs/portal.log",
		},
		Auth: AuthConfig{
			Enabled:         true,
			JWTSecret:       "dev-secret-change-me",
			Issuer:          "cabportal",
			Audience:        "cabportal",
			TokenTTLMinutes: 24 * 60,
		},
	}
}
