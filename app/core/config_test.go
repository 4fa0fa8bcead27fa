package core

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSetupConfigFromEnv(t *testing.T) {
	t.Setenv("STUDY_CHAT_API_ENDPOINT", "http://chat.local:8000")
	t.Setenv("STUDY_CHAT_SESSION_CAP", "3")
	t.Setenv("STUDY_CHAT_LANGUAGE", "fr")

	cfg := LoadBaseConfigFromENV()

	assert.Equal(t, "http://chat.local:8000", cfg.ChatAPI.Endpoint)
	assert.Equal(t, 3, cfg.Chat.SessionCap)
	assert.Equal(t, "vi", cfg.Chat.Language)
	assert.Equal(t, " /no_thinking", cfg.Chat.ThinkingSuffix)
	assert.Equal(t, 2*time.Second, cfg.Chat.ReconcileDelay.Duration)
	assert.Equal(t, int64(10*1024*1024), cfg.Chat.MaxUploadBytes)
}

func TestLoadTomlConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, os.WriteFile(path, []byte(`
[log]
level = "warn"

[chat_api]
endpoint = "http://127.0.0.1:8000"
agent_cache_ttl = "1m"

[chat]
language = "en"
reconcile_delay = "500ms"
thinking_agent_prefix = "qwen3"

[object_storage.s3]
bucket = "transcripts"
region = "ap-southeast-1"
`), 0o600))

	cfg := MustLoadBaseConfig(path)
	assert.Equal(t, "en", cfg.Chat.Language)
	assert.Equal(t, 500*time.Millisecond, cfg.Chat.ReconcileDelay.Duration)
	assert.Equal(t, 2500*time.Millisecond, cfg.Chat.ReconcileTimeout.Duration)
	assert.Equal(t, time.Minute, cfg.ChatAPI.AgentCacheTTL.Duration)
	assert.Equal(t, "qwen3", cfg.Chat.ThinkingAgentPrefix)
	assert.Equal(t, 10, cfg.Chat.SessionCap)
	require.NotNil(t, cfg.ObjectStorage.S3)
	assert.Equal(t, "transcripts", cfg.ObjectStorage.S3.Bucket)
	assert.Equal(t, "WARN", cfg.Log.SlogLevel().String())
	assert.False(t, cfg.Drive.Enabled())
}
