package config

import (
	"fmt"
	"strings"

	"github.com/BurntSushi/toml"
)

type overrideFile struct {
	DataDir     string `toml:"data_dir"`
	Compression string `toml:"compression"`
	Codec       struct {
		BufferSize int  `toml:"buffer_size"`
		Strict     bool `toml:"strict"`
	} `toml:"codec"`
	Server struct {
		Bind        string   `toml:"bind"`
		Port        int      `toml:"port"`
		CorsOrigins []string `toml:"cors_origins"`
	} `toml:"server"`
	Security struct {
		APIKey     string `toml:"api_key"`
		MaxRowSize int    `toml:"max_row_size"`
	} `toml:"security"`
	Logging struct {
		Level  string `toml:"level"`
		Format string `toml:"format"`
	} `toml:"logging"`
}

// MergeOverrides applies the keys present in a sparse TOML file on top of
// cfg. Keys the file does not mention are left alone, so an override can set
// a value back to false or zero. Unknown keys are an error.
func MergeOverrides(cfg *Config, path string) error {
	var raw overrideFile
	meta, err := toml.DecodeFile(path, &raw)
	if err != nil {
		return fmt.Errorf("load overrides: %w", err)
	}

	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, len(undecoded))
		for i, k := range undecoded {
			keys[i] = k.String()
		}
		return fmt.Errorf("unknown override keys: %s", strings.Join(keys, ", "))
	}

	if meta.IsDefined("data_dir") {
		cfg.DataDir = strings.TrimSpace(raw.DataDir)
	}
	if meta.IsDefined("compression") {
		cfg.Compression = strings.TrimSpace(raw.Compression)
	}

	if meta.IsDefined("codec", "buffer_size") {
		cfg.Codec.BufferSize = raw.Codec.BufferSize
	}
	if meta.IsDefined("codec", "strict") {
		cfg.Codec.Strict = raw.Codec.Strict
	}

	if meta.IsDefined("server", "bind") {
		cfg.Server.Bind = strings.TrimSpace(raw.Server.Bind)
	}
	if meta.IsDefined("server", "port") {
		cfg.Server.Port = raw.Server.Port
	}
	if meta.IsDefined("server", "cors_origins") {
		cfg.Server.CorsOrigins = raw.Server.CorsOrigins
	}

	if meta.IsDefined("security", "api_key") {
		cfg.Security.APIKey = raw.Security.APIKey
	}
	if meta.IsDefined("security", "max_row_size") {
		cfg.Security.MaxRowSize = raw.Security.MaxRowSize
	}

	if meta.IsDefined("logging", "level") {
		cfg.Logging.Level = strings.TrimSpace(raw.Logging.Level)
	}
	if meta.IsDefined("logging", "format") {
		cfg.Logging.Format = strings.TrimSpace(raw.Logging.Format)
	}

	return nil
}
