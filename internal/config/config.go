// Package config 讀取 config.yaml，並以環境變數 (可放在 .env) 覆蓋
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/JoeShih716/go-finance-tracker/pkg/mysql"
)

// 資料來源種類
const (
	SourceHTTP  = "http"
	SourceMySQL = "mysql"
)

// DefaultPath 預設設定檔位置
const DefaultPath = "config/config.yaml"

type Config struct {
	Server   ServerConfig  `yaml:"server"`
	Source   SourceConfig  `yaml:"source"`
	MySQL    mysql.Config  `yaml:"mysql"`
	User     UserConfig    `yaml:"user"`
	Currency string        `yaml:"currency"`
	Journal  JournalConfig `yaml:"journal"`
	Kafka    KafkaConfig   `yaml:"kafka"`
	Log      LogConfig     `yaml:"log"`
}

type ServerConfig struct {
	GRPCAddr string `yaml:"grpc_addr"`
	HTTPAddr string `yaml:"http_addr"`
}

// SourceConfig 初次同步的資料來源
type SourceConfig struct {
	Kind          string        `yaml:"kind"` // "http" 或 "mysql"
	CreditsURL    string        `yaml:"credits_url"`
	DebitsURL     string        `yaml:"debits_url"`
	Timeout       time.Duration `yaml:"timeout"`
	RetryAttempts int           `yaml:"retry_attempts"`
	RetryInterval time.Duration `yaml:"retry_interval"`
}

// UserConfig 未登入時的預設使用者
type UserConfig struct {
	UserName    string `yaml:"user_name"`
	MemberSince string `yaml:"member_since"`
}

// JournalConfig 狀態變更紀錄檔，Path 空白代表不啟用
type JournalConfig struct {
	Path string `yaml:"path"`
}

// KafkaConfig Brokers 空白代表不啟用
type KafkaConfig struct {
	Brokers []string `yaml:"brokers"`
	Topic   string   `yaml:"topic"`
}

type LogConfig struct {
	Level string `yaml:"level"` // "debug", "info", "warn", "error"
}

// Load 讀取設定
//
// 參數:
//
//	path: 設定檔路徑；檔案不存在時只使用預設值與環境變數
//	envPath: 可選的 .env 路徑，未指定時嘗試讀取目前目錄的 .env
//
// 回傳:
//
//	*Config: 設定
//	error: 讀檔或解析錯誤
func Load(path string, envPath ...string) (*Config, error) {
	if len(envPath) > 0 && envPath[0] != "" {
		if err := godotenv.Load(envPath[0]); err != nil {
			return nil, fmt.Errorf("failed to load .env file: %w", err)
		}
	} else {
		// 沒有 .env 也沒關係
		_ = godotenv.Load()
	}

	var cfg Config
	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config %s: %w", path, err)
		}
	case os.IsNotExist(err):
	default:
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}
	cfg.applyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// applyDefaults 補全預設配置 (如果 yaml 沒寫)
func (c *Config) applyDefaults() {
	if c.Server.GRPCAddr == "" {
		c.Server.GRPCAddr = ":50051"
	}
	if c.Server.HTTPAddr == "" {
		c.Server.HTTPAddr = ":8080"
	}
	if c.Source.Kind == "" {
		c.Source.Kind = SourceHTTP
	}
	if c.Source.Timeout == 0 {
		c.Source.Timeout = 30 * time.Second
	}
	if c.Source.RetryAttempts == 0 {
		c.Source.RetryAttempts = 1
	}
	if c.Source.RetryInterval == 0 {
		c.Source.RetryInterval = 2 * time.Second
	}
	if c.User.UserName == "" {
		c.User.UserName = "Joe Smith"
	}
	if c.User.MemberSince == "" {
		c.User.MemberSince = "11/22/99"
	}
	if c.Currency == "" {
		c.Currency = "USD"
	}
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
	c.MySQL = c.MySQL.WithDefaults()
}

// applyEnv 環境變數優先於設定檔
func (c *Config) applyEnv() error {
	setString(&c.Server.GRPCAddr, "TRACKER_GRPC_ADDR")
	setString(&c.Server.HTTPAddr, "TRACKER_HTTP_ADDR")
	setString(&c.Source.Kind, "TRACKER_SOURCE_KIND")
	setString(&c.Source.CreditsURL, "TRACKER_CREDITS_URL")
	setString(&c.Source.DebitsURL, "TRACKER_DEBITS_URL")
	setString(&c.MySQL.Host, "TRACKER_MYSQL_HOST")
	setString(&c.MySQL.User, "TRACKER_MYSQL_USER")
	setString(&c.MySQL.Password, "TRACKER_MYSQL_PASSWORD")
	setString(&c.MySQL.DBName, "TRACKER_MYSQL_DB")
	setString(&c.Currency, "TRACKER_CURRENCY")
	setString(&c.Journal.Path, "TRACKER_JOURNAL_PATH")
	setString(&c.Kafka.Topic, "TRACKER_KAFKA_TOPIC")
	setString(&c.Log.Level, "TRACKER_LOG_LEVEL")

	if v := os.Getenv("TRACKER_KAFKA_BROKERS"); v != "" {
		c.Kafka.Brokers = strings.Split(v, ",")
	}
	if v := os.Getenv("TRACKER_MYSQL_PORT"); v != "" {
		port, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("invalid integer value for TRACKER_MYSQL_PORT: %s", v)
		}
		c.MySQL.Port = port
	}
	if v := os.Getenv("TRACKER_SOURCE_TIMEOUT"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("invalid duration for TRACKER_SOURCE_TIMEOUT: %s", v)
		}
		c.Source.Timeout = d
	}
	if v := os.Getenv("TRACKER_SOURCE_RETRY_ATTEMPTS"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("invalid integer value for TRACKER_SOURCE_RETRY_ATTEMPTS: %s", v)
		}
		c.Source.RetryAttempts = n
	}
	return nil
}

// Validate 檢查必要欄位
func (c *Config) Validate() error {
	switch c.Source.Kind {
	case SourceHTTP:
	case SourceMySQL:
		var missing []string
		if c.MySQL.Host == "" {
			missing = append(missing, "mysql.host")
		}
		if c.MySQL.DBName == "" {
			missing = append(missing, "mysql.db_name")
		}
		if len(missing) > 0 {
			return fmt.Errorf("missing required configuration for mysql source: %v", missing)
		}
	default:
		return fmt.Errorf("unknown source kind: %q", c.Source.Kind)
	}
	if c.Source.RetryAttempts < 1 {
		return fmt.Errorf("source.retry_attempts must be at least 1, got %d", c.Source.RetryAttempts)
	}
	return nil
}

func setString(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}
