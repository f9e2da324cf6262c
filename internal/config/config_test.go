package config

import (
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func clearEngineEnv(t *testing.T) {
	t.Helper()
	keys := []string{
		"LISTEN_PORT", "DATABASE_URL", "VECTOR_STORE_URL", "EMBEDDING_DIM",
		"EMBEDDING_ONNX_LIB_PATH", "ADMIN_KEY", "SEARCH_MAX_FILE_BYTES",
		"EXACT_TRUST_THRESHOLD", "OTEL_ENABLED",
	}
	for _, k := range keys {
		orig, had := os.LookupEnv(k)
		os.Unsetenv(k)
		t.Cleanup(func() {
			if had {
				os.Setenv(k, orig)
			}
		})
	}
}

func TestLoad_Defaults(t *testing.T) {
	clearEngineEnv(t)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 17010, cfg.ListenPort)
	assert.Equal(t, 512, cfg.EmbeddingDim)
	assert.Equal(t, "", cfg.EmbeddingONNXLibPath)
	assert.Equal(t, "audio_embeddings", cfg.VectorStoreCollection)
	assert.Equal(t, 0.85, cfg.ExactTrustThreshold)
	assert.Equal(t, 3*time.Second, cfg.ExactLaneTimeout)
	assert.False(t, cfg.OTelEnabled)
}

func TestLoad_EnvOverrides(t *testing.T) {
	clearEngineEnv(t)

	os.Setenv("LISTEN_PORT", "9090")
	os.Setenv("EMBEDDING_ONNX_LIB_PATH", "/opt/lib/libonnxruntime.so")
	os.Setenv("ADMIN_KEY", "super-secret")
	defer os.Unsetenv("LISTEN_PORT")
	defer os.Unsetenv("EMBEDDING_ONNX_LIB_PATH")
	defer os.Unsetenv("ADMIN_KEY")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 9090, cfg.ListenPort)
	assert.Equal(t, "/opt/lib/libonnxruntime.so", cfg.EmbeddingONNXLibPath)
	assert.Equal(t, "super-secret", cfg.AdminKey)
}
