package cli

import (
	"io/ioutil"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestLoadConfig_Defaults(t *testing.T) {
	cfg, err := LoadConfig("")
	require.NoError(t, err)

	require.Equal(t, "harvest.db", cfg.DBPath)
}

func TestLoadConfig_File(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yml")

	content := "secret: file-secret\ndb: file.db\nconfirmations: 5\nmaxRetries: 7\n"
	require.NoError(t, ioutil.WriteFile(path, []byte(content), 0644))

	cfg, err := LoadConfig(path)
	require.NoError(t, err)

	require.Equal(t, "file-secret", cfg.Secret)
	require.Equal(t, "file.db", cfg.DBPath)
	require.Equal(t, 5, cfg.Confirmations)
	require.Equal(t, 7, cfg.MaxRetries)
}

func TestLoadConfig_Environment(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yml")

	require.NoError(t, ioutil.WriteFile(path, []byte("secret: file-secret\n"), 0644))

	t.Setenv("HARVEST_SECRET", "env-secret")
	t.Setenv("HARVEST_CONFIRMATIONS", "2")

	// The environment overrides the file.
	cfg, err := LoadConfig(path)
	require.NoError(t, err)

	require.Equal(t, "env-secret", cfg.Secret)
	require.Equal(t, 2, cfg.Confirmations)
}

func TestLoadConfig_Errors(t *testing.T) {
	_, err := LoadConfig(filepath.Join(t.TempDir(), "missing.yml"))
	require.Error(t, err)
	require.Contains(t, err.Error(), "failed to read config")

	path := filepath.Join(t.TempDir(), "config.yml")
	require.NoError(t, ioutil.WriteFile(path, []byte("\tmalformed"), 0644))

	_, err = LoadConfig(path)
	require.Error(t, err)
	require.Contains(t, err.Error(), "failed to parse config")
}
