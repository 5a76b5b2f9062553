package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// chdir moves into an empty directory so no stray .env is picked up.
func chdir(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	prev, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { os.Chdir(prev) })
	return dir
}

func TestDefaults(t *testing.T) {
	chdir(t)
	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
	assert.NoError(t, cfg.Validate())
	assert.Zero(t, cfg.RequestTimeout)
}

func TestLayering(t *testing.T) {
	dir := chdir(t)
	yml := filepath.Join(dir, "icp.yaml")
	require.NoError(t, os.WriteFile(yml, []byte(`
addr: ":9000"
store_uri: "memory://"
pool_size: 5
request_timeout: 30s
strict_intake: true
`), 0o600))
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".env"), []byte("ICP_COLLECTION=fromdotenv\nICP_POOL_SIZE=7\n"), 0o600))
	t.Setenv("ICP_POOL_SIZE", "9")
	t.Setenv("ICP_STRICT_CONDITIONALS", "true")
	// godotenv writes straight into the process environment.
	t.Cleanup(func() { os.Unsetenv("ICP_COLLECTION") })

	cfg, err := Load(yml)
	require.NoError(t, err)
	assert.Equal(t, ":9000", cfg.HTTPAddr)
	assert.Equal(t, "memory://", cfg.StoreURI)
	assert.Equal(t, "fromdotenv", cfg.Collection)
	// Real environment beats .env.
	assert.Equal(t, 9, cfg.PoolSize)
	assert.Equal(t, 30*time.Second, cfg.RequestTimeout)
	assert.True(t, cfg.StrictIntake)
	assert.True(t, cfg.StrictConditionals)
}

func TestBadEnvKeepsFallback(t *testing.T) {
	chdir(t)
	t.Setenv("ICP_POOL_SIZE", "many")
	t.Setenv("ICP_REQUEST_TIMEOUT", "soon")
	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, 3, cfg.PoolSize)
	assert.Zero(t, cfg.RequestTimeout)
}

func TestMissingFile(t *testing.T) {
	chdir(t)
	_, err := Load("nope.yaml")
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	cfg := Default()
	cfg.HTTPAddr = ""
	cfg.PoolSize = 0
	cfg.RequestTimeout = -time.Second
	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "addr")
	assert.Contains(t, err.Error(), "pool_size")
	assert.Contains(t, err.Error(), "request_timeout")
	assert.NotContains(t, err.Error(), "store_uri")
}
