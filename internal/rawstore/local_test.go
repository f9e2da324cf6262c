package rawstore

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPut_WritesUnderContentHash(t *testing.T) {
	s, err := New(t.TempDir())
	require.NoError(t, err)

	data := []byte("some raw audio bytes")
	sha, path, err := s.Put(data, "wav")
	require.NoError(t, err)
	assert.Len(t, sha, 64)
	assert.True(t, s.Exists(sha, "wav"))

	assert.False(t, filepath.IsAbs(path), "Put must return a storage-root-relative path")

	got, err := os.ReadFile(s.AbsPath(path))
	require.NoError(t, err)
	assert.Equal(t, data, got)
}

func TestPut_SameBytesIsIdempotent(t *testing.T) {
	s, err := New(t.TempDir())
	require.NoError(t, err)

	data := []byte("identical content")
	sha1, path1, err := s.Put(data, "mp3")
	require.NoError(t, err)
	sha2, path2, err := s.Put(data, "mp3")
	require.NoError(t, err)

	assert.Equal(t, sha1, sha2)
	assert.Equal(t, path1, path2)
}

func TestPath_FansOutByHashPrefix(t *testing.T) {
	s, err := New(t.TempDir())
	require.NoError(t, err)

	sha := "abcdef0123456789"
	path := s.Path(sha, "wav")
	assert.Equal(t, filepath.Join("raw", "ab", sha+".wav"), path)
}

func TestPath_IsRootIndependent(t *testing.T) {
	s, err := New(t.TempDir())
	require.NoError(t, err)

	sha := "abcdef0123456789"
	relPath := s.Path(sha, "wav")
	assert.False(t, filepath.IsAbs(relPath), "stored path must be relative so moving the store root doesn't break existing rows")
	assert.Equal(t, s.AbsPath(relPath), filepath.Join(s.root, relPath))
}

func TestExists_FalseForUnknownHash(t *testing.T) {
	s, err := New(t.TempDir())
	require.NoError(t, err)
	assert.False(t, s.Exists("0000000000000000", "wav"))
}

func TestDelete_RemovesStoredFile(t *testing.T) {
	s, err := New(t.TempDir())
	require.NoError(t, err)

	sha, _, err := s.Put([]byte("bytes"), "wav")
	require.NoError(t, err)
	require.True(t, s.Exists(sha, "wav"))

	require.NoError(t, s.Delete(sha, "wav"))
	assert.False(t, s.Exists(sha, "wav"))
}

func TestDelete_MissingFileIsNotAnError(t *testing.T) {
	s, err := New(t.TempDir())
	require.NoError(t, err)
	assert.NoError(t, s.Delete("nonexistent0000", "wav"))
}

func TestOpen_ReadsBackWrittenBytes(t *testing.T) {
	s, err := New(t.TempDir())
	require.NoError(t, err)

	data := []byte("round trip me")
	sha, _, err := s.Put(data, "flac")
	require.NoError(t, err)

	f, err := s.Open(sha, "flac")
	require.NoError(t, err)
	defer f.Close()

	buf := make([]byte, len(data))
	_, err = f.Read(buf)
	require.NoError(t, err)
	assert.Equal(t, data, buf)
}

func TestNormalizeExt(t *testing.T) {
	assert.Equal(t, "", normalizeExt(""))
	assert.Equal(t, ".wav", normalizeExt("wav"))
	assert.Equal(t, ".wav", normalizeExt(".wav"))
}

func TestNewMirror_EmptyBucketReturnsNil(t *testing.T) {
	m, err := NewMirror(context.Background(), "us-east-1", "")
	require.NoError(t, err)
	assert.Nil(t, m)
}

func TestMirror_NilReceiverMethodsAreNoop(t *testing.T) {
	var m *Mirror
	assert.NotPanics(t, func() { m.PutAsync("sha", "wav", []byte("x")) })
	assert.NoError(t, m.CheckBucketAccess(context.Background()))
}
