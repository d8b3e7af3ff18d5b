// Package config binds the server flags into viper so every setting can also
// come from a VEXEC_ environment variable or a config file.
package config

import (
	"runtime"
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"vexec/pkg/engine/executor"
	"vexec/pkg/logging"
)

const EnvPrefix = "VEXEC"

const (
	KeyConfigFile    = "config"
	KeyDataDir       = "data-dir"
	KeyListenAddr    = "listen-addr"
	KeyChunkSize     = "chunk-size"
	KeyParallelism   = "parallelism"
	KeyMaxRowsInFile = "max-rows-in-file"
	KeyLogLevel      = "log-level"
	KeyLogFormat     = "log-format"
	KeyLogOutput     = "log-output"
)

type Config struct {
	DataDir       string
	ListenAddr    string
	ChunkSize     uint64
	Parallelism   int
	MaxRowsInFile uint64
	Logging       logging.Options
}

func (c Config) Executor() executor.Config {
	return executor.Config{
		BaseDir:       c.DataDir,
		ChunkSize:     c.ChunkSize,
		MaxRowsInFile: c.MaxRowsInFile,
		Parallelism:   c.Parallelism,
	}
}

func RegisterFlags(fs *pflag.FlagSet) {
	fs.String(KeyConfigFile, "", "Path to a config file (yaml, json or toml)")
	fs.String(KeyDataDir, "./data", "Directory holding the metastore and table files")
	fs.String(KeyListenAddr, ":8080", "HTTP listen address")
	fs.Uint64(KeyChunkSize, 4096, "Rows per block read from data files")
	fs.Int(KeyParallelism, runtime.NumCPU(), "Maximum number of fragments per query")
	fs.Uint64(KeyMaxRowsInFile, 1_000_000, "Maximum number of rows written to one data file")
	fs.String(KeyLogLevel, "info", "Log level (debug, info, warn, error)")
	fs.String(KeyLogFormat, "json", "Log format (json, text)")
	fs.String(KeyLogOutput, "stdout", "Log output (stdout, stderr, or file path)")
}

// Load resolves the configuration with precedence flag > env > file > default.
func Load(v *viper.Viper, fs *pflag.FlagSet) (Config, error) {
	if err := v.BindPFlags(fs); err != nil {
		return Config{}, errors.Wrap(err, "binding flags")
	}
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	if file := v.GetString(KeyConfigFile); file != "" {
		v.SetConfigFile(file)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, errors.Wrapf(err, "reading config file %s", file)
		}
	}

	cfg := Config{
		DataDir:       v.GetString(KeyDataDir),
		ListenAddr:    v.GetString(KeyListenAddr),
		ChunkSize:     v.GetUint64(KeyChunkSize),
		Parallelism:   v.GetInt(KeyParallelism),
		MaxRowsInFile: v.GetUint64(KeyMaxRowsInFile),
		Logging: logging.Options{
			Level:  v.GetString(KeyLogLevel),
			Format: v.GetString(KeyLogFormat),
			Output: v.GetString(KeyLogOutput),
		},
	}
	return cfg, cfg.Validate()
}

func (c Config) Validate() error {
	switch {
	case c.DataDir == "":
		return errors.Newf("%s must not be empty", KeyDataDir)
	case c.ChunkSize == 0:
		return errors.Newf("%s must be positive", KeyChunkSize)
	case c.Parallelism < 1:
		return errors.Newf("%s must be at least 1, got %d", KeyParallelism, c.Parallelism)
	case c.MaxRowsInFile == 0:
		return errors.Newf("%s must be positive", KeyMaxRowsInFile)
	}
	if _, err := logging.ParseLevel(c.Logging.Level); err != nil {
		return err
	}
	return nil
}
