package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFromEnv_Defaults(t *testing.T) {
	cfg := FromEnv()

	assert.Equal(t, ":8080", cfg.Addr)
	assert.Equal(t, 30*time.Minute, cfg.Throttle.Window)
	assert.Equal(t, 3, cfg.Throttle.MaxFailures)
	assert.Equal(t, ThrottleBackendStore, cfg.Throttle.Backend)
	assert.Equal(t, ComparatorEmbedded, cfg.Verify.ComparatorMode)
	assert.InDelta(t, 0.6, cfg.Verify.FaceTolerance, 1e-9)
	assert.InDelta(t, 0.8, cfg.Verify.MinFaceConfidence, 1e-9)
	assert.Equal(t, "rollcall.anomalies", cfg.Kafka.AnomalyTopic)
}

func TestFromEnv_Overrides(t *testing.T) {
	t.Setenv("ROLLCALL_ADDR", ":9090")
	t.Setenv("ROLLCALL_THROTTLE_WINDOW", "10m")
	t.Setenv("ROLLCALL_THROTTLE_MAX_FAILURES", "5")
	t.Setenv("ROLLCALL_KAFKA_BROKERS", "broker-1:9092, broker-2:9092")
	t.Setenv("ROLLCALL_MIN_FACE_CONFIDENCE", "0.9")

	cfg := FromEnv()

	assert.Equal(t, ":9090", cfg.Addr)
	assert.Equal(t, 10*time.Minute, cfg.Throttle.Window)
	assert.Equal(t, 5, cfg.Throttle.MaxFailures)
	assert.Equal(t, []string{"broker-1:9092", "broker-2:9092"}, cfg.Kafka.Brokers)
	assert.InDelta(t, 0.9, cfg.Verify.MinFaceConfidence, 1e-9)
}

func TestFromEnv_MalformedValuesFallBack(t *testing.T) {
	t.Setenv("ROLLCALL_THROTTLE_MAX_FAILURES", "many")
	t.Setenv("ROLLCALL_FACE_TOLERANCE", "loose")

	cfg := FromEnv()

	assert.Equal(t, 3, cfg.Throttle.MaxFailures)
	assert.InDelta(t, 0.6, cfg.Verify.FaceTolerance, 1e-9)
}

func TestValidate(t *testing.T) {
	t.Run("defaults pass", func(t *testing.T) {
		require.NoError(t, FromEnv().Validate())
	})

	t.Run("remote mode requires URL", func(t *testing.T) {
		cfg := FromEnv()
		cfg.Verify.ComparatorMode = ComparatorRemote
		cfg.Verify.ComparatorURL = ""
		assert.Error(t, cfg.Validate())
	})

	t.Run("redis throttle requires redis URL", func(t *testing.T) {
		cfg := FromEnv()
		cfg.Throttle.Backend = ThrottleBackendRedis
		cfg.Redis.URL = ""
		assert.Error(t, cfg.Validate())
	})

	t.Run("rejects zero window", func(t *testing.T) {
		cfg := FromEnv()
		cfg.Throttle.Window = 0
		assert.Error(t, cfg.Validate())
	})

	t.Run("rejects unknown comparator mode", func(t *testing.T) {
		cfg := FromEnv()
		cfg.Verify.ComparatorMode = "psychic"
		assert.Error(t, cfg.Validate())
	})
}
