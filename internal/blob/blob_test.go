package blob

import (
	"bytes"
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ginjaninja78/avisos/internal/config"
)

// exerciseStore runs the behaviour every driver shares.
func exerciseStore(t *testing.T, store Store) {
	t.Helper()
	ctx := context.Background()

	info, err := store.Put(ctx, "202403/AAA010101AAA_JYS_DEPOSITOS_202403.xml",
		strings.NewReader("<archivo/>"), PutOptions{ContentType: "application/xml", Metadata: map[string]string{"activity": "juegos_apuestas"}})
	require.NoError(t, err)
	assert.Equal(t, "202403/AAA010101AAA_JYS_DEPOSITOS_202403.xml", info.Key)
	assert.Equal(t, int64(len("<archivo/>")), info.Size)
	assert.Equal(t, "application/xml", info.ContentType)

	_, err = store.Put(ctx, "202403/AAA010101AAA_JYS_RETIROS_202403.xml", strings.NewReader("<a/>"), PutOptions{})
	require.NoError(t, err)
	_, err = store.Put(ctx, "202404/other.xml", strings.NewReader("x"), PutOptions{})
	require.NoError(t, err)

	got, rc, err := store.Get(ctx, "202403/AAA010101AAA_JYS_DEPOSITOS_202403.xml")
	require.NoError(t, err)
	body, err := io.ReadAll(rc)
	require.NoError(t, err)
	require.NoError(t, rc.Close())
	assert.Equal(t, "<archivo/>", string(body))
	assert.Equal(t, "application/xml", got.ContentType)

	// Republishing replaces the previous content.
	_, err = store.Put(ctx, "202404/other.xml", strings.NewReader("corrected"), PutOptions{})
	require.NoError(t, err)
	head, err := store.Head(ctx, "202404/other.xml")
	require.NoError(t, err)
	assert.Equal(t, int64(len("corrected")), head.Size)

	list, err := store.List(ctx, "202403/")
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "202403/AAA010101AAA_JYS_DEPOSITOS_202403.xml", list[0].Key)
	assert.Equal(t, "202403/AAA010101AAA_JYS_RETIROS_202403.xml", list[1].Key)

	url, err := store.PresignURL(ctx, "202404/other.xml", SignedURLOptions{})
	require.NoError(t, err)
	assert.NotEmpty(t, url)

	_, err = store.PresignURL(ctx, "202404/other.xml", SignedURLOptions{Method: "PUT"})
	assert.ErrorIs(t, err, ErrUnsupported)

	deleted, err := store.Delete(ctx, "202404/other.xml")
	require.NoError(t, err)
	assert.True(t, deleted)
}

func TestMemoryStore(t *testing.T) {
	store := NewMemory("https://files.example.com/")
	exerciseStore(t, store)
	assert.Equal(t, DriverMemory, store.Driver())

	ctx := context.Background()
	_, _, err := store.Get(ctx, "202404/other.xml")
	assert.ErrorIs(t, err, ErrNotFound)
	deleted, err := store.Delete(ctx, "202404/other.xml")
	require.NoError(t, err)
	assert.False(t, deleted)

	url, err := store.PresignURL(ctx, "202403/AAA010101AAA_JYS_RETIROS_202403.xml", SignedURLOptions{})
	require.NoError(t, err)
	assert.Equal(t, "https://files.example.com/202403/AAA010101AAA_JYS_RETIROS_202403.xml", url)

	_, err = store.Put(ctx, " ", bytes.NewReader(nil), PutOptions{})
	assert.Error(t, err)
}

func TestFilesystemStore(t *testing.T) {
	root := filepath.Join(t.TempDir(), "published")
	store, err := NewFilesystem(root, "")
	require.NoError(t, err)
	exerciseStore(t, store)
	assert.Equal(t, DriverFilesystem, store.Driver())

	ctx := context.Background()
	_, err = store.Head(ctx, "202404/other.xml")
	assert.ErrorIs(t, err, ErrNotFound)
	_, _, err = store.Get(ctx, "202404/other.xml")
	assert.ErrorIs(t, err, ErrNotFound)

	info, err := store.Head(ctx, "202403/AAA010101AAA_JYS_RETIROS_202403.xml")
	require.NoError(t, err)
	assert.Len(t, info.ETag, 64)
	assert.True(t, strings.HasPrefix(info.URL, "file://"))

	data, err := os.ReadFile(filepath.Join(root, "202403", "AAA010101AAA_JYS_RETIROS_202403.xml"))
	require.NoError(t, err)
	assert.Equal(t, "<a/>", string(data))

	for _, key := range []string{"", "../escape.xml", "/abs.xml"} {
		_, err := store.Put(ctx, key, strings.NewReader("x"), PutOptions{})
		assert.Error(t, err, key)
	}
}

func TestFilesystemStore_BaseURL(t *testing.T) {
	store, err := NewFilesystem(t.TempDir(), "https://reports.internal/avisos/")
	require.NoError(t, err)

	info, err := store.Put(context.Background(), "a.xml", strings.NewReader("x"), PutOptions{})
	require.NoError(t, err)
	assert.Equal(t, "https://reports.internal/avisos/a.xml", info.URL)
}

func TestOpen(t *testing.T) {
	ctx := context.Background()

	store, err := Open(ctx, config.BlobConfig{Driver: "memory"})
	require.NoError(t, err)
	assert.Equal(t, DriverMemory, store.Driver())

	store, err = Open(ctx, config.BlobConfig{Driver: "fs", FSRoot: t.TempDir()})
	require.NoError(t, err)
	assert.Equal(t, DriverFilesystem, store.Driver())

	t.Setenv("AWS_ACCESS_KEY_ID", "AKIA")
	t.Setenv("AWS_SECRET_ACCESS_KEY", "SECRET")
	store, err = Open(ctx, config.BlobConfig{Driver: "s3", S3Bucket: "avisos", S3Endpoint: "https://minio.local", S3PathStyle: true})
	require.NoError(t, err)
	assert.Equal(t, DriverS3, store.Driver())

	_, err = Open(ctx, config.BlobConfig{Driver: "s3"})
	assert.Error(t, err)

	_, err = Open(ctx, config.BlobConfig{Driver: "ftp"})
	assert.Error(t, err)
}

func TestErrNotFoundIsWrapped(t *testing.T) {
	_, err := NewMemory("").Head(context.Background(), "missing")
	assert.True(t, errors.Is(err, ErrNotFound))
	assert.Contains(t, err.Error(), "missing")
}
