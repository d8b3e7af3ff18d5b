package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newFlagSet(t *testing.T, args ...string) *pflag.FlagSet {
	t.Helper()
	fs := pflag.NewFlagSet("test", pflag.ContinueOnError)
	RegisterFlags(fs)
	require.NoError(t, fs.Parse(args))
	return fs
}

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load(viper.New(), newFlagSet(t))
	require.NoError(t, err)
	assert.Equal(t, "./data", cfg.DataDir)
	assert.Equal(t, ":8080", cfg.ListenAddr)
	assert.Equal(t, uint64(4096), cfg.ChunkSize)
	assert.GreaterOrEqual(t, cfg.Parallelism, 1)
	assert.Equal(t, "info", cfg.Logging.Level)
	assert.Equal(t, "json", cfg.Logging.Format)
}

func TestLoad_Precedence(t *testing.T) {
	t.Setenv("VEXEC_CHUNK_SIZE", "128")
	t.Setenv("VEXEC_PARALLELISM", "3")

	path := filepath.Join(t.TempDir(), "vexec.yaml")
	require.NoError(t, os.WriteFile(path, []byte("data-dir: /srv/vexec\nparallelism: 7\nlog-format: text\n"), 0o644))

	cfg, err := Load(viper.New(), newFlagSet(t, "--config", path, "--parallelism", "5"))
	require.NoError(t, err)
	assert.Equal(t, "/srv/vexec", cfg.DataDir)
	assert.Equal(t, uint64(128), cfg.ChunkSize)
	assert.Equal(t, 5, cfg.Parallelism)
	assert.Equal(t, "text", cfg.Logging.Format)

	exec := cfg.Executor()
	assert.Equal(t, "/srv/vexec", exec.BaseDir)
	assert.Equal(t, 5, exec.Parallelism)
}

func TestLoad_Invalid(t *testing.T) {
	tests := []struct {
		name string
		args []string
	}{
		{name: "zero parallelism", args: []string{"--parallelism", "0"}},
		{name: "zero chunk size", args: []string{"--chunk-size", "0"}},
		{name: "bad log level", args: []string{"--log-level", "loud"}},
		{name: "missing config file", args: []string{"--config", "/does/not/exist.yaml"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(viper.New(), newFlagSet(t, tt.args...))
			assert.Error(t, err)
		})
	}
}
