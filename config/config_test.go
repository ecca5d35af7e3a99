package config

import (
	"context"
	"database/sql"
	"os"
	"path/filepath"
	"testing"

	"github.com/govalues/monetary"
	"github.com/govalues/monetary/sqlstore"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

const testRegistry = `
version: test
currencies:
  - {id: USD, numeric: 840, scale: 2, kind: FIAT}
  - {id: game/GOLD, scale: 0, kind: VIRTUAL}
countries:
  US: USD
`

func TestLoad_Defaults(t *testing.T) {
	s, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "", s.Rounding)
	assert.False(t, s.RescaleEachStep)
	assert.Equal(t, "sqlite", s.RegistryDriver)
	assert.Equal(t, "info", s.LogLevel)
}

func TestLoad_File(t *testing.T) {
	path := writeFile(t, "monetary.yaml", `
rounding: HALF_UP
rescale_each_step: true
log_level: debug
registry_file: /etc/monetary/registry.yaml
`)
	s, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "HALF_UP", s.Rounding)
	assert.True(t, s.RescaleEachStep)
	assert.Equal(t, "debug", s.LogLevel)
	assert.Equal(t, "/etc/monetary/registry.yaml", s.RegistryFile)
}

func TestLoad_Env(t *testing.T) {
	path := writeFile(t, "monetary.yaml", "rounding: HALF_UP\n")
	t.Setenv("MONETARY_ROUNDING", "half-even")
	t.Setenv("MONETARY_REGISTRY_DRIVER", "postgres")

	s, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "half-even", s.Rounding, "environment overrides the file")
	assert.Equal(t, "postgres", s.RegistryDriver)
}

func TestLoad_Error(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)

	tests := map[string]string{
		"rounding":  "rounding: BANKERS\n",
		"log level": "log_level: loud\n",
		"driver":    "registry_driver: mysql\n",
	}
	for name, content := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := Load(writeFile(t, "monetary.yaml", content))
			assert.ErrorIs(t, err, monetary.ErrInvalidConfig)
		})
	}
}

func TestSettings_Context(t *testing.T) {
	s := &Settings{Rounding: "half_down", RescaleEachStep: true}
	r := monetary.NewRegistry()
	c, err := s.Context(r)
	require.NoError(t, err)
	assert.Equal(t, monetary.RoundHalfDown, c.Rounding)
	assert.True(t, c.RescaleEachStep)
	assert.Same(t, r, c.Registry)
}

func TestSettings_Registry(t *testing.T) {
	ctx := context.Background()

	t.Run("builtin", func(t *testing.T) {
		r, err := (&Settings{RegistryDriver: "sqlite"}).Registry(ctx)
		require.NoError(t, err)
		assert.Nil(t, r)
	})

	t.Run("file", func(t *testing.T) {
		s := &Settings{RegistryFile: writeFile(t, "registry.yaml", testRegistry)}
		r, err := s.Registry(ctx)
		require.NoError(t, err)
		assert.Equal(t, 2, r.Len())
		assert.Equal(t, "test", r.Version())
	})

	t.Run("file error", func(t *testing.T) {
		s := &Settings{RegistryFile: writeFile(t, "registry.yaml", "currencies: [{id: USD}]\ncountries: {US: EUR}\n")}
		_, err := s.Registry(ctx)
		assert.ErrorIs(t, err, monetary.ErrInvalidConfig)

		s = &Settings{RegistryFile: filepath.Join(t.TempDir(), "missing.yaml")}
		_, err = s.Registry(ctx)
		assert.Error(t, err)
	})

	t.Run("database", func(t *testing.T) {
		dsn := filepath.Join(t.TempDir(), "registry.db")
		db, err := sql.Open("sqlite", dsn)
		require.NoError(t, err)
		defer db.Close()
		store := sqlstore.New(db)
		require.NoError(t, store.Migrate(ctx))
		cfg, err := monetary.ParseRegistryConfig([]byte(testRegistry))
		require.NoError(t, err)
		require.NoError(t, store.Save(ctx, cfg))

		s := &Settings{RegistryDSN: dsn, RegistryDriver: "sqlite"}
		r, err := s.Registry(ctx)
		require.NoError(t, err)
		assert.Equal(t, 2, r.Len())
		gold, ok := r.ByCode("GOLD")
		require.True(t, ok)
		assert.Equal(t, monetary.ID("game/GOLD"), gold.ID())
	})
}

func TestSettings_Apply(t *testing.T) {
	oldRegistry := monetary.Default()
	oldContext := monetary.DefaultContext()
	t.Cleanup(func() {
		monetary.SetDefault(oldRegistry)
		monetary.SetDefaultContext(oldContext)
		monetary.SetLogger(nil)
	})

	s := &Settings{
		Rounding:       "HALF_UP",
		RegistryFile:   writeFile(t, "registry.yaml", testRegistry),
		RegistryDriver: "sqlite",
		LogLevel:       "warn",
	}
	require.NoError(t, s.Apply(context.Background()))

	assert.Equal(t, 2, monetary.Default().Len())
	assert.Equal(t, monetary.RoundHalfUp, monetary.DefaultContext().Rounding)
	assert.Nil(t, monetary.DefaultContext().Registry)

	m, err := monetary.NewMoney(monetary.ID("USD"), "1.005")
	require.NoError(t, err)
	assert.Equal(t, "USD 1.01", m.String())
	assert.False(t, monetary.Defined(monetary.ID("EUR")))

	bad := &Settings{Rounding: "HALF", RegistryDriver: "sqlite", LogLevel: "info"}
	assert.ErrorIs(t, bad.Apply(context.Background()), monetary.ErrInvalidConfig)
}
