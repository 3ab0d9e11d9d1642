package bootstrap

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gopherai-training/internal/config"
)

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	cfg, err := config.LoadFile("")
	require.NoError(t, err)
	cfg.LLM.Provider = "mock"
	cfg.Knowledge.SeedFile = ""
	cfg.Knowledge.WatchDir = ""
	cfg.MySQL.Enabled = false
	cfg.Redis.Enabled = false
	cfg.RabbitMQ.Enabled = false
	cfg.Archive.Type = "none"
	return cfg
}

func TestNew_SeedsCorpusOnce(t *testing.T) {
	cfg := testConfig(t)
	cfg.Knowledge.SeedFile = filepath.Join("..", "..", "configs", "seed.yaml")

	a, err := New(context.Background(), cfg)
	require.NoError(t, err)
	defer a.Close()

	require.NotEmpty(t, a.Store.DocumentsByName("FT-155-SOP"))
	assert.NotEmpty(t, a.Store.SearchChunks("misfire", 5))
	assert.Equal(t, "mock", a.Gateway.ProviderName())
}

func TestNew_UnreachableInfrastructureIsOptional(t *testing.T) {
	cfg := testConfig(t)
	cfg.Redis.Enabled = true
	cfg.Redis.Addr = "127.0.0.1:1"

	a, err := New(context.Background(), cfg)
	require.NoError(t, err)
	defer a.Close()

	assert.Nil(t, a.Redis)
	assert.NotNil(t, a.Knowledge)
}

func TestNew_WatchesDropFolder(t *testing.T) {
	dir := t.TempDir()
	content := "LOADING DRILL\nThe loader rams the projectile until it seats against the forcing cone."
	require.NoError(t, os.WriteFile(filepath.Join(dir, "loading.md"), []byte(content), 0o644))

	cfg := testConfig(t)
	cfg.Knowledge.WatchDir = dir

	a, err := New(context.Background(), cfg)
	require.NoError(t, err)
	defer a.Close()

	require.Eventually(t, func() bool {
		return len(a.Store.DocumentsByName("loading.md")) == 1
	}, 5*time.Second, 20*time.Millisecond)
}

func TestNew_GeminiRequiresAPIKey(t *testing.T) {
	cfg := testConfig(t)
	cfg.LLM.Provider = "gemini"
	cfg.LLM.APIKey = ""

	_, err := New(context.Background(), cfg)
	assert.Error(t, err)
}
