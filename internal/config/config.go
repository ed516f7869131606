package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config 全局配置结构体
type Config struct {
	App          AppConfig          `mapstructure:"app"`
	MySQL        DatabaseConfig     `mapstructure:"mysql"`
	Redis        RedisConfig        `mapstructure:"redis"`
	Log          LogConfig          `mapstructure:"log"`
	JWT          JWTConfig          `mapstructure:"jwt"`
	Notification NotificationConfig `mapstructure:"notification"`
	Kafka        KafkaConfig        `mapstructure:"kafka"`
	Snowflake    SnowflakeConfig    `mapstructure:"snowflake"`
}

// AppConfig 应用配置
type AppConfig struct {
	Name           string   `mapstructure:"name"`
	Mode           string   `mapstructure:"mode"`
	Port           int      `mapstructure:"port"`
	AllowedOrigins []string `mapstructure:"allowed_origins"`
}

// JWTConfig JWT配置
type JWTConfig struct {
	SecretKey           string `mapstructure:"secret_key"`
	AccessExpireSeconds int    `mapstructure:"access_expire_seconds"`
	Issuer              string `mapstructure:"issuer"`
}

// DatabaseConfig 数据库配置
type DatabaseConfig struct {
	Host         string `mapstructure:"host"`
	Port         int    `mapstructure:"port"`
	Username     string `mapstructure:"username"`
	Password     string `mapstructure:"password"`
	Database     string `mapstructure:"database"`
	Charset      string `mapstructure:"charset"`
	MaxIdleConns int    `mapstructure:"max_idle_conns"`
	MaxOpenConns int    `mapstructure:"max_open_conns"`
	ConnectRetry uint   `mapstructure:"connect_retry"`
}

// DSN 获取数据库连接字符串
func (c *DatabaseConfig) DSN() string {
	return fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?charset=%s&parseTime=True&loc=Local",
		c.Username, c.Password, c.Host, c.Port, c.Database, c.Charset)
}

// RedisConfig Redis配置
type RedisConfig struct {
	Host         string `mapstructure:"host"`
	Port         int    `mapstructure:"port"`
	Password     string `mapstructure:"password"`
	DB           int    `mapstructure:"db"`
	PoolSize     int    `mapstructure:"pool_size"`
	MinIdleConns int    `mapstructure:"min_idle_conns"`
	ConnectRetry uint   `mapstructure:"connect_retry"`
}

// Addr 获取Redis地址
func (c *RedisConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// LogConfig 日志配置
type LogConfig struct {
	Level      string `mapstructure:"level"`
	Filename   string `mapstructure:"filename"`
	MaxSize    int    `mapstructure:"max_size"`
	MaxAge     int    `mapstructure:"max_age"`
	MaxBackups int    `mapstructure:"max_backups"`
	Compress   bool   `mapstructure:"compress"`
	Stdout     bool   `mapstructure:"stdout"`
}

// NotificationConfig 通知配置
type NotificationConfig struct {
	DedupWindowMinutes int    `mapstructure:"dedup_window_minutes"`
	ListLimit          int    `mapstructure:"list_limit"`
	RetentionDays      int    `mapstructure:"retention_days"`
	CleanupCron        string `mapstructure:"cleanup_cron"`
	InternalToken      string `mapstructure:"internal_token"`
	ClientBufferSize   int    `mapstructure:"client_buffer_size"`
	ProjectionCacheTTL int    `mapstructure:"projection_cache_ttl_seconds"`
}

// DedupWindow 去重窗口
func (c *NotificationConfig) DedupWindow() time.Duration {
	if c.DedupWindowMinutes <= 0 {
		return 60 * time.Minute
	}
	return time.Duration(c.DedupWindowMinutes) * time.Minute
}

// CacheTTL 展示数据缓存时间
func (c *NotificationConfig) CacheTTL() time.Duration {
	if c.ProjectionCacheTTL <= 0 {
		return 10 * time.Minute
	}
	return time.Duration(c.ProjectionCacheTTL) * time.Second
}

// KafkaConfig 通知触发事件的Kafka配置
type KafkaConfig struct {
	Enabled bool     `mapstructure:"enabled"`
	Brokers []string `mapstructure:"brokers"`
	GroupID string   `mapstructure:"group_id"`
	Topic   string   `mapstructure:"topic"`
}

// SnowflakeConfig 雪花ID配置
type SnowflakeConfig struct {
	StartTime string `mapstructure:"start_time"`
	MachineID int64  `mapstructure:"machine_id"`
}

var (
	// GlobalConfig 全局配置实例
	GlobalConfig *Config
)

// Init 初始化配置
func Init(configPath string) error {
	cfg, err := Load(configPath)
	if err != nil {
		return err
	}
	GlobalConfig = cfg
	return nil
}

// Load 从目录中读取config.yaml
func Load(configPath string) (*Config, error) {
	v := viper.New()
	v.AddConfigPath(configPath)
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("读取配置文件失败: %w", err)
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("解析配置文件失败: %w", err)
	}
	return &config, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("app.mode", "release")
	v.SetDefault("app.port", 8080)
	v.SetDefault("mysql.charset", "utf8mb4")
	v.SetDefault("mysql.connect_retry", 5)
	v.SetDefault("redis.connect_retry", 5)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.stdout", true)
	v.SetDefault("jwt.access_expire_seconds", 7200)
	v.SetDefault("notification.dedup_window_minutes", 60)
	v.SetDefault("notification.list_limit", 20)
	v.SetDefault("notification.retention_days", 30)
	v.SetDefault("notification.cleanup_cron", "0 0 3 * * *")
	v.SetDefault("notification.client_buffer_size", 256)
	v.SetDefault("notification.projection_cache_ttl_seconds", 600)
	v.SetDefault("kafka.group_id", "notification-service")
	v.SetDefault("kafka.topic", "notification.triggers")
	v.SetDefault("snowflake.start_time", "2024-01-01")
	v.SetDefault("snowflake.machine_id", 1)
}

// GetConfig 获取全局配置
func GetConfig() *Config {
	return GlobalConfig
}
