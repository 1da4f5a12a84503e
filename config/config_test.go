package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestLoadConfig(t *testing.T) {
	dir := t.TempDir()
	p := filepath.Join(dir, "cfg.yaml")
	require.NoError(t, os.WriteFile(p, []byte(`
database:
  host: "localhost"
  port: 5432
  username: "u"
  password: "p"
  name: "db"
kafka:
  host: "localhost"
  port: 9092
  ingest_completed_topic_name: "shipments.ingested"
redis:
  host: "localhost"
  port: 6379
shipboard:
  http_addr: ":8080"
  kafka_consumer_group: "ship-api"
  upload_dir: "/tmp/shipboard/csv"
  upload_max_bytes: 20971520
  upload_rate_limit_per_minute: 10
  insights_ttl_seconds: 300
`), 0o600))

	cfg, err := LoadConfig(p)
	require.NoError(t, err)
	require.Equal(t, "u", cfg.Database.Username)
	require.Equal(t, "shipments.ingested", cfg.Kafka.IngestCompletedTopicName)
	require.Equal(t, 6379, cfg.Redis.Port)
	require.Equal(t, ":8080", cfg.ShipBoard.HTTPAddr)
	require.Equal(t, int64(20971520), cfg.ShipBoard.UploadMaxBytes)
	require.Equal(t, int64(10), cfg.ShipBoard.UploadRateLimitPerMinute)
	require.Equal(t, 300, cfg.ShipBoard.InsightsTTLSeconds)
}

func TestLoadConfig_MissingFile(t *testing.T) {
	_, err := LoadConfig(filepath.Join(t.TempDir(), "nope.yaml"))
	require.Error(t, err)
}
