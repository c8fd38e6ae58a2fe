// Package objstore persists single values to files, choosing the encoding
// from the file extension: .yaml/.yml for YAML, .toml for TOML, JSON otherwise.
//
// Save and Load run under the treeops engine lock, so they never interleave
// with each other or with the engine's serialized operations.
package objstore

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"reflect"
	"strings"

	"github.com/bytedance/sonic"
	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"

	"fileutils/internal/pathparse"
	"fileutils/internal/treeops"
)

var (
	ErrEmptyPath = errors.New("empty path")
	ErrNilValue  = errors.New("nil value")
)

// Format names the encoding used for a path
type Format string

const (
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
	FormatTOML Format = "toml"
)

// FormatFor returns the encoding Save and Load use for path
func FormatFor(path string) Format {
	switch strings.ToLower(pathparse.Extension(path)) {
	case "yaml", "yml":
		return FormatYAML
	case "toml":
		return FormatTOML
	default:
		return FormatJSON
	}
}

func marshal(f Format, v interface{}) ([]byte, error) {
	switch f {
	case FormatYAML:
		return yaml.Marshal(v)
	case FormatTOML:
		return toml.Marshal(v)
	default:
		return sonic.ConfigStd.MarshalIndent(v, "", "  ")
	}
}

func unmarshal(f Format, data []byte, v interface{}) error {
	switch f {
	case FormatYAML:
		return yaml.Unmarshal(data, v)
	case FormatTOML:
		return toml.Unmarshal(data, v)
	default:
		return sonic.ConfigStd.Unmarshal(data, v)
	}
}

// Store saves and loads values through a treeops engine
type Store struct {
	engine *treeops.Engine
}

// New returns a Store on e, or on treeops.Default() when e is nil
func New(e *treeops.Engine) *Store {
	if e == nil {
		e = treeops.Default()
	}
	return &Store{engine: e}
}

// Save encodes v and replaces the content of path with it.
// Parent directories are created as needed.
func (s *Store) Save(v interface{}, path string) error {
	err := s.engine.Do(func() error {
		if strings.TrimSpace(path) == "" {
			return ErrEmptyPath
		}
		if isNil(v) {
			return ErrNilValue
		}
		data, err := marshal(FormatFor(path), v)
		if err != nil {
			return fmt.Errorf("encode %s: %w", FormatFor(path), err)
		}
		return s.engine.Copy(bytes.NewReader(data), path, false)
	})
	if err != nil {
		s.engine.Logger().Error("Failed to save object", "path", path, "error", err)
	}
	return err
}

// Load decodes the content of path into v, which must be a non-nil pointer
func (s *Store) Load(path string, v interface{}) error {
	err := s.engine.Do(func() error {
		if strings.TrimSpace(path) == "" {
			return ErrEmptyPath
		}
		if rv := reflect.ValueOf(v); rv.Kind() != reflect.Pointer || rv.IsNil() {
			return fmt.Errorf("%w: Load needs a non-nil pointer, got %T", ErrNilValue, v)
		}
		data, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("read %s: %w", path, err)
		}
		if err := unmarshal(FormatFor(path), data, v); err != nil {
			return fmt.Errorf("decode %s as %s: %w", path, FormatFor(path), err)
		}
		return nil
	})
	if err != nil {
		s.engine.Logger().Error("Failed to load object", "path", path, "error", err)
	}
	return err
}

func isNil(v interface{}) bool {
	if v == nil {
		return true
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Pointer, reflect.Map, reflect.Slice, reflect.Interface:
		return rv.IsNil()
	}
	return false
}

// Save stores v at path through the default engine
func Save(v interface{}, path string) error { return New(nil).Save(v, path) }

// Load reads path into v through the default engine
func Load(path string, v interface{}) error { return New(nil).Load(path, v) }
