package cache

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestExtractKeyPattern_KnownPrefixes(t *testing.T) {
	assert.Equal(t, "track:*", extractKeyPattern("track:6215c2dc-9f88"))
	assert.Equal(t, "listing:*", extractKeyPattern("listing:recent"))
	assert.Equal(t, "cache:*", extractKeyPattern("cache:search:abcd"))
}

func TestExtractKeyPattern_UnknownPrefixOrEmpty(t *testing.T) {
	assert.Equal(t, "other", extractKeyPattern("session:xyz"))
	assert.Equal(t, "other", extractKeyPattern(""))
}

func TestMaskSensitiveKey_KnownPatternReturnsPatternOnly(t *testing.T) {
	assert.Equal(t, "track:*", maskSensitiveKey("track:6215c2dc-9f88"))
}

func TestMaskSensitiveKey_UnknownPatternTruncates(t *testing.T) {
	assert.Equal(t, "session:xy...", maskSensitiveKey("session:xy"))
	assert.Equal(t, "short...", maskSensitiveKey("short"))
}

func TestMinInt(t *testing.T) {
	assert.Equal(t, 3, minInt(3, 10))
	assert.Equal(t, 3, minInt(10, 3))
	assert.Equal(t, 5, minInt(5, 5))
}

func TestClose_NilClientIsNoop(t *testing.T) {
	var rc *RedisClient
	assert.NoError(t, rc.Close())
}
