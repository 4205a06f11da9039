package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "itemstack.toml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestDefaultsAreValid(t *testing.T) {
	require.NoError(t, Defaults().Validate())
}

func TestLoadOverlaysDefaults(t *testing.T) {
	path := writeConfig(t, `
[logging]
level = "debug"

[item]
form = "structured"
enforce_quantity = true
max_quantity = 64

[locale]
default = "zh-TW"
charset = "big5"
`)
	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "debug", cfg.Logging.Level)
	assert.Equal(t, "console", cfg.Logging.Format)
	assert.Equal(t, "structured", cfg.Item.Form)
	assert.True(t, cfg.Item.EnforceQuantity)
	assert.Equal(t, 64, cfg.Item.MaxQuantity)
	assert.Equal(t, 1024, cfg.Item.DecodeCacheSize)
	assert.Equal(t, "zh-TW", cfg.Locale.Default)
	assert.Equal(t, "big5", cfg.Locale.Charset)
	assert.Equal(t, "minecraft", cfg.Data.DefaultNamespace)
}

func TestLoadRejectsInvalid(t *testing.T) {
	tests := map[string]string{
		"format":   "[logging]\nformat = \"xml\"\n",
		"form":     "[item]\nform = \"binary\"\n",
		"quantity": "[item]\nmin_quantity = 10\nmax_quantity = 5\n",
		"locale":   "[locale]\ndefault = \"\"\n",
	}
	for name, body := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := Load(writeConfig(t, body))
			assert.Error(t, err)
		})
	}
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.toml"))
	assert.Error(t, err)
}
