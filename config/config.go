// Package config loads daemon settings. Values come from built-in defaults,
// then an optional TOML, YAML or JSON file, then the JSON document in the
// LINEKING_CONFIG environment variable, each layer overriding the last.
package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"lineking/collation"
	"lineking/logger"
	"lineking/stream"
	"lineking/types"

	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"
)

// EnvVar holds a JSON config document passed by the editor plugin
const EnvVar = "LINEKING_CONFIG"

// ErrInvalid marks a config that parsed but holds unusable values
var ErrInvalid = errors.New("invalid config")

type Config struct {
	LogLevel               string `json:"log_level" toml:"log_level" yaml:"log_level"`
	CSSSortStrategy        string `json:"css_sort_strategy" toml:"css_sort_strategy" yaml:"css_sort_strategy"`
	JoinSeparator          string `json:"join_separator" toml:"join_separator" yaml:"join_separator"`
	Locale                 string `json:"locale" toml:"locale" yaml:"locale"`
	StreamMaxLines         int    `json:"stream_max_lines" toml:"stream_max_lines" yaml:"stream_max_lines"`
	StreamMaxBytes         int    `json:"stream_max_bytes" toml:"stream_max_bytes" yaml:"stream_max_bytes"`
	StreamChunkLines       int    `json:"stream_chunk_lines" toml:"stream_chunk_lines" yaml:"stream_chunk_lines"`
	DebugImmediateShutdown bool   `json:"debug_immediate_shutdown" toml:"debug_immediate_shutdown" yaml:"debug_immediate_shutdown"`
	ShowWhitespace         bool   `json:"show_whitespace" toml:"show_whitespace" yaml:"show_whitespace"`
}

// Default returns the built-in settings
func Default() Config {
	return Config{
		LogLevel:         "info",
		CSSSortStrategy:  string(types.CSSSortAlphabetical),
		JoinSeparator:    ", ",
		StreamMaxLines:   stream.DefaultMaxLines,
		StreamMaxBytes:   stream.DefaultMaxBytes,
		StreamChunkLines: stream.DefaultChunkLines,
	}
}

// Validate reports the first unusable value
func (c Config) Validate() error {
	if _, err := types.ParseCSSSortStrategy(c.CSSSortStrategy); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalid, err)
	}
	if c.StreamMaxLines < 0 || c.StreamMaxBytes < 0 || c.StreamChunkLines < 0 {
		return fmt.Errorf("%w: stream thresholds must not be negative", ErrInvalid)
	}
	return nil
}

// SortStrategy returns the configured CSS strategy
func (c Config) SortStrategy() types.CSSSortStrategy {
	s, _ := types.ParseCSSSortStrategy(c.CSSSortStrategy)
	return s
}

// Thresholds returns the large-input limits
func (c Config) Thresholds() stream.Thresholds {
	return stream.Thresholds{
		MaxLines:   c.StreamMaxLines,
		MaxBytes:   c.StreamMaxBytes,
		ChunkLines: c.StreamChunkLines,
	}
}

// Collation returns the comparators for the configured locale
func (c Config) Collation() *collation.Set {
	return collation.ForTag(collation.ParseTag(c.Locale))
}

// Load builds a config from the defaults, the file at path (if any) and
// the environment document env (if non-empty)
func Load(path, env string) (Config, error) {
	cfg := Default()
	if path != "" {
		if err := LoadFile(path, &cfg); err != nil {
			return cfg, err
		}
	}
	if strings.TrimSpace(env) != "" {
		if err := json.Unmarshal([]byte(env), &cfg); err != nil {
			return cfg, &ParseError{Path: "$" + EnvVar, Message: err.Error(), Err: err}
		}
	}
	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// LoadEnv is Load with the document from LINEKING_CONFIG
func LoadEnv(path string) (Config, error) {
	return Load(path, os.Getenv(EnvVar))
}

// LoadFile decodes the file at path over cfg. The format follows the
// extension. A missing file is not an error and leaves cfg untouched.
func LoadFile(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			logger.Debug("config: %s does not exist, using defaults", path)
			return nil
		}
		return fmt.Errorf("reading config file %s: %w", path, err)
	}

	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".toml":
		err = toml.Unmarshal(data, cfg)
	case ".yaml", ".yml":
		err = yaml.Unmarshal(data, cfg)
	case ".json":
		err = json.Unmarshal(data, cfg)
	default:
		return fmt.Errorf("%w: unsupported config format %q", ErrInvalid, ext)
	}
	if err != nil {
		return newParseError(path, err)
	}
	return nil
}

// ParseError is a config document that could not be decoded
type ParseError struct {
	Path    string
	Line    int
	Column  int
	Message string
	Err     error
}

func newParseError(path string, err error) *ParseError {
	pe := &ParseError{Path: path, Message: err.Error(), Err: err}
	var decodeErr *toml.DecodeError
	if errors.As(err, &decodeErr) {
		pe.Line, pe.Column = decodeErr.Position()
	}
	return pe
}

func (e *ParseError) Error() string {
	if e.Line > 0 && e.Column > 0 {
		return fmt.Sprintf("parse error in %s at line %d, column %d: %s", e.Path, e.Line, e.Column, e.Message)
	}
	return fmt.Sprintf("parse error in %s: %s", e.Path, e.Message)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}
