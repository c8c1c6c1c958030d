package source

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCliSource(t *testing.T) {
	t.Run("NewCliSource создает корректный экземпляр", func(t *testing.T) {
		assert.NotNil(t, NewCliSource("export.json"))
	})

	t.Run("Fetch возвращает ошибку для пустого пути к файлу", func(t *testing.T) {
		source := &CliSource{}

		data, err := source.Fetch()
		assert.ErrorIs(t, err, ErrEmptyPath)
		assert.Nil(t, data)
	})

	t.Run("Fetch возвращает ошибку для несуществующего файла", func(t *testing.T) {
		source := &CliSource{filePath: filepath.Join(t.TempDir(), "missing.json")}

		data, err := source.Fetch()
		assert.ErrorIs(t, err, os.ErrNotExist)
		assert.Nil(t, data)
	})

	t.Run("Fetch возвращает данные для существующего файла", func(t *testing.T) {
		testData := []byte(`{"dialogs": []}`)
		path := filepath.Join(t.TempDir(), "export.json")
		require.NoError(t, os.WriteFile(path, testData, 0o644))

		data, err := NewCliSource(path).Fetch()
		require.NoError(t, err)
		assert.Equal(t, testData, data)
	})

	t.Run("Fetch читает стандартный ввод для пути '-'", func(t *testing.T) {
		source := &CliSource{filePath: StdinPath, stdin: strings.NewReader(`{"personal": null}`)}

		data, err := source.Fetch()
		require.NoError(t, err)
		assert.Equal(t, `{"personal": null}`, string(data))
	})
}
