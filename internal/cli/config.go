package cli

import (
	"bytes"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// DefaultConfigFile is looked up in the working directory when
// --config is not given. Its absence is not an error.
const DefaultConfigFile = "sentdict.yaml"

// Config supplies per-project defaults for flags. Explicit flags
// always win over config values.
type Config struct {
	// Database is the dictionary path (flag: --db).
	Database string `yaml:"db"`
	// Mode is the encode mode, grow or strict (flag: --mode).
	Mode string `yaml:"mode"`
	// NormalizeEOL rewrites CRLF terminators to LF (flag: --normalize).
	NormalizeEOL bool `yaml:"normalize_eol"`
}

// LoadConfig reads a yaml config file. A missing file at the default
// path yields an empty config; a missing file at an explicit path is
// an error, as is any malformed content (yaml.v3 strict decoding).
func LoadConfig(path string, explicit bool) (Config, error) {
	var cfg Config

	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		if explicit {
			return cfg, fmt.Errorf("config file not found: %s", path)
		}
		return cfg, nil
	}
	if err != nil {
		return cfg, fmt.Errorf("read config %s: %w", path, err)
	}

	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil {
		return cfg, fmt.Errorf("parse config %s: %w", path, err)
	}
	return cfg, nil
}
