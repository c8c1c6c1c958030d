package cache

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"telegram-text-export/internal/domain"
)

func sampleFiles(name string) []domain.ArchiveFile {
	return []domain.ArchiveFile{{Path: name, Size: 10, SHA256: "abc"}}
}

func TestCacheStore(t *testing.T) {
	t.Run("Создание нового хранилища кэша", func(t *testing.T) {
		cs := NewCacheStore()
		assert.NotNil(t, cs)
		assert.NotNil(t, cs.cache)
		assert.Zero(t, cs.Len())
	})

	t.Run("Запись и чтение из кэша", func(t *testing.T) {
		cs := NewCacheStore()
		files := sampleFiles("overview.txt")
		ttl := 1 * time.Minute

		cs.Put("test_key", "/tmp/out/test_key", files, ttl)

		item, found := cs.Get("test_key")
		require.True(t, found)
		require.NotNil(t, item)
		assert.Equal(t, "/tmp/out/test_key", item.Dir)
		assert.Equal(t, files, item.Files)
		assert.WithinDuration(t, time.Now().Add(ttl), item.ExpiresAt, 1*time.Second)
	})

	t.Run("Чтение несуществующего ключа", func(t *testing.T) {
		cs := NewCacheStore()
		_, found := cs.Get("non_existent_key")
		assert.False(t, found)
	})

	t.Run("Чтение просроченного ключа", func(t *testing.T) {
		cs := NewCacheStore()
		cs.Put("expired_key", "", sampleFiles("a.txt"), -1*time.Second)

		_, found := cs.Get("expired_key")
		assert.False(t, found)
	})

	t.Run("Очистка просроченных ключей", func(t *testing.T) {
		cs := NewCacheStore()
		cs.Put("expired", "", sampleFiles("a.txt"), -1*time.Minute)
		cs.Put("valid", "", sampleFiles("b.txt"), 1*time.Minute)
		require.Equal(t, 2, cs.Len())

		cs.CleanupExpired()

		assert.Equal(t, 1, cs.Len())
		_, foundExpired := cs.Get("expired")
		assert.False(t, foundExpired, "Просроченный элемент должен быть удален")
		_, foundValid := cs.Get("valid")
		assert.True(t, foundValid, "Действительный элемент не должен быть удален")
	})
}

func TestStartCleanupTicker(t *testing.T) {
	cs := NewCacheStore()
	cs.Put("expired", "", sampleFiles("a.txt"), 50*time.Millisecond)
	cs.Put("valid", "", sampleFiles("b.txt"), 1*time.Minute)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	cs.StartCleanupTicker(ctx, 100*time.Millisecond)

	assert.Eventually(t, func() bool { return cs.Len() == 1 }, 2*time.Second, 20*time.Millisecond,
		"Просроченный элемент должен быть удален таймером")

	_, foundValid := cs.Get("valid")
	assert.True(t, foundValid, "Действительный элемент должен остаться")
}

func TestCalculateFileHash(t *testing.T) {
	t.Run("Успешное вычисление хеша", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "model.json")
		require.NoError(t, os.WriteFile(path, []byte("hello world"), 0o644))

		hash, err := CalculateFileHash(path)
		require.NoError(t, err)
		// SHA256 для "hello world"
		assert.Equal(t, "b94d27b9934d3e08a52e52d7da7dabfac484efe37a5380ee9088f7ace2efcde9", hash)
	})

	t.Run("Файл не найден", func(t *testing.T) {
		_, err := CalculateFileHash("non_existent_file.txt")
		assert.Error(t, err)
	})

	t.Run("Невозможно прочитать директорию", func(t *testing.T) {
		_, err := CalculateFileHash(t.TempDir())
		assert.Error(t, err, "Должна быть ошибка при попытке хешировать директорию")
	})
}

func TestCalculateHash(t *testing.T) {
	assert.Equal(t, CalculateHashFromString("hello world"), CalculateHash([]byte("hello world")))
	assert.Len(t, CalculateHash(nil), 64)
}

func TestCalculateHashFromString(t *testing.T) {
	assert.Equal(t, "b94d27b9934d3e08a52e52d7da7dabfac484efe37a5380ee9088f7ace2efcde9", CalculateHashFromString("hello world"))
	assert.NotEqual(t, CalculateHashFromString("a"), CalculateHashFromString("b"))
}
