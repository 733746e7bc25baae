package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestLoad(t *testing.T) {
	path := writeConfig(t, `
server:
  grpc_addr: ":9000"
source:
  kind: http
  credits_url: http://example.com/credits.json
  timeout: 5s
  retry_attempts: 3
  retry_interval: 100ms
user:
  user_name: alice
  member_since: "01/01/24"
kafka:
  brokers: ["localhost:9092"]
`)
	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, ":9000", cfg.Server.GRPCAddr)
	assert.Equal(t, ":8080", cfg.Server.HTTPAddr)
	assert.Equal(t, SourceHTTP, cfg.Source.Kind)
	assert.Equal(t, "http://example.com/credits.json", cfg.Source.CreditsURL)
	assert.Equal(t, 5*time.Second, cfg.Source.Timeout)
	assert.Equal(t, 3, cfg.Source.RetryAttempts)
	assert.Equal(t, 100*time.Millisecond, cfg.Source.RetryInterval)
	assert.Equal(t, "alice", cfg.User.UserName)
	assert.Equal(t, "01/01/24", cfg.User.MemberSince)
	assert.Equal(t, []string{"localhost:9092"}, cfg.Kafka.Brokers)
	assert.Equal(t, "USD", cfg.Currency)
}

func TestLoad_MissingFileUsesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.NoError(t, err)

	assert.Equal(t, ":50051", cfg.Server.GRPCAddr)
	assert.Equal(t, SourceHTTP, cfg.Source.Kind)
	assert.Equal(t, 30*time.Second, cfg.Source.Timeout)
	assert.Equal(t, 1, cfg.Source.RetryAttempts)
	assert.Equal(t, "Joe Smith", cfg.User.UserName)
	assert.Equal(t, "11/22/99", cfg.User.MemberSince)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, 3306, cfg.MySQL.Port)
	assert.Empty(t, cfg.Journal.Path)
	assert.Empty(t, cfg.Kafka.Brokers)
}

func TestLoad_EnvOverrides(t *testing.T) {
	path := writeConfig(t, `
server:
  http_addr: ":8080"
currency: USD
`)
	t.Setenv("TRACKER_HTTP_ADDR", ":9090")
	t.Setenv("TRACKER_CURRENCY", "EUR")
	t.Setenv("TRACKER_KAFKA_BROKERS", "a:9092,b:9092")
	t.Setenv("TRACKER_SOURCE_TIMEOUT", "3s")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, ":9090", cfg.Server.HTTPAddr)
	assert.Equal(t, "EUR", cfg.Currency)
	assert.Equal(t, []string{"a:9092", "b:9092"}, cfg.Kafka.Brokers)
	assert.Equal(t, 3*time.Second, cfg.Source.Timeout)
}

func TestLoad_EnvFile(t *testing.T) {
	envPath := filepath.Join(t.TempDir(), ".env")
	require.NoError(t, os.WriteFile(envPath, []byte("TRACKER_LOG_LEVEL=debug\n"), 0644))
	// godotenv 不會覆蓋已存在的變數，先清掉並在結束後還原
	t.Setenv("TRACKER_LOG_LEVEL", "")
	require.NoError(t, os.Unsetenv("TRACKER_LOG_LEVEL"))

	cfg, err := Load(filepath.Join(t.TempDir(), "missing.yaml"), envPath)
	require.NoError(t, err)
	assert.Equal(t, "debug", cfg.Log.Level)
}

func TestLoad_InvalidEnv(t *testing.T) {
	t.Setenv("TRACKER_MYSQL_PORT", "abc")
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	_, err := Load(writeConfig(t, "source:\n  kind: ftp\n"))
	assert.ErrorContains(t, err, "unknown source kind")

	_, err = Load(writeConfig(t, "source:\n  kind: mysql\n"))
	assert.ErrorContains(t, err, "mysql.host")

	_, err = Load(writeConfig(t, "source:\n  retry_attempts: -1\n"))
	assert.ErrorContains(t, err, "retry_attempts")

	cfg, err := Load(writeConfig(t, "source:\n  kind: mysql\nmysql:\n  host: db\n  db_name: tracker\n"))
	require.NoError(t, err)
	assert.Equal(t, "db", cfg.MySQL.Host)
}

func TestLoad_InvalidYAML(t *testing.T) {
	_, err := Load(writeConfig(t, "server: [unclosed"))
	assert.Error(t, err)
}
