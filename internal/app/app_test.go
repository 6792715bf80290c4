package app

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfig(t *testing.T) {
	t.Run("missing default env file is ignored", func(t *testing.T) {
		t.Chdir(t.TempDir())
		cfg, err := LoadConfig()
		require.NoError(t, err)
		assert.NotEmpty(t, cfg.App.Port)
	})

	t.Run("env file values reach the config", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "ledger.env")
		require.NoError(t, os.WriteFile(path, []byte("LEDGER_APP_PORT=9191\n"), 0o600))
		t.Setenv("LEDGER_APP_PORT", "")
		require.NoError(t, os.Unsetenv("LEDGER_APP_PORT"))

		cfg, err := LoadConfig(path)
		require.NoError(t, err)
		assert.Equal(t, "9191", cfg.App.Port)
	})

	t.Run("explicit missing file fails", func(t *testing.T) {
		_, err := LoadConfig(filepath.Join(t.TempDir(), "absent.env"))
		assert.Error(t, err)
	})
}

func TestRuntimeClose(t *testing.T) {
	var order []int
	rt := &Runtime{}
	rt.onClose(func(context.Context) error { order = append(order, 1); return nil })
	rt.onClose(func(context.Context) error { order = append(order, 2); return errors.New("flush failed") })
	rt.onClose(func(context.Context) error { order = append(order, 3); return nil })

	err := rt.Close(context.Background())
	assert.EqualError(t, err, "flush failed")
	assert.Equal(t, []int{3, 2, 1}, order)
	assert.NoError(t, rt.Close(context.Background()))
}
