package objstore

import (
	"bytes"
	"log"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fileutils/internal/logging"
	"fileutils/internal/treeops"
)

type settings struct {
	Name    string   `json:"name" yaml:"name" toml:"name"`
	Retries int      `json:"retries" yaml:"retries" toml:"retries"`
	Tags    []string `json:"tags" yaml:"tags" toml:"tags"`
}

func newTestStore(buf *bytes.Buffer) (*Store, *treeops.Engine) {
	var logger logging.Leveled = logging.Nop{}
	if buf != nil {
		logger = logging.NewStd(log.New(buf, "", 0), "info")
	}
	e := treeops.New(treeops.WithLogger(logger), treeops.WithGuard(nil))
	return New(e), e
}

func TestFormatFor(t *testing.T) {
	tests := []struct {
		path string
		want Format
	}{
		{"state.json", FormatJSON},
		{"state", FormatJSON},
		{"state.bin", FormatJSON},
		{"/etc/app/config.yaml", FormatYAML},
		{"config.YML", FormatYAML},
		{"dir.toml/settings.toml", FormatTOML},
		{"dir.toml/settings", FormatJSON},
	}
	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			assert.Equal(t, tt.want, FormatFor(tt.path))
		})
	}
}

func TestSaveLoadRoundTrip(t *testing.T) {
	s, _ := newTestStore(nil)
	dir := t.TempDir()
	want := settings{Name: "cache", Retries: 3, Tags: []string{"a", "b"}}

	for _, name := range []string{"obj.json", "obj.yaml", "obj.yml", "obj.toml", "obj"} {
		t.Run(name, func(t *testing.T) {
			path := filepath.Join(dir, "nested", name)
			require.NoError(t, s.Save(want, path))

			var got settings
			require.NoError(t, s.Load(path, &got))
			assert.Equal(t, want, got)
		})
	}
}

func TestSaveUsesFormatOnDisk(t *testing.T) {
	s, _ := newTestStore(nil)
	dir := t.TempDir()
	v := settings{Name: "x", Retries: 1}

	jsonPath := filepath.Join(dir, "v.json")
	yamlPath := filepath.Join(dir, "v.yaml")
	tomlPath := filepath.Join(dir, "v.toml")
	require.NoError(t, s.Save(v, jsonPath))
	require.NoError(t, s.Save(v, yamlPath))
	require.NoError(t, s.Save(v, tomlPath))

	data, err := os.ReadFile(jsonPath)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"name": "x"`)

	data, err = os.ReadFile(yamlPath)
	require.NoError(t, err)
	assert.Contains(t, string(data), "name: x")

	data, err = os.ReadFile(tomlPath)
	require.NoError(t, err)
	assert.Contains(t, string(data), "name = 'x'")
}

func TestSaveReplacesContent(t *testing.T) {
	s, _ := newTestStore(nil)
	path := filepath.Join(t.TempDir(), "list.json")

	require.NoError(t, s.Save([]string{"one", "two", "three"}, path))
	require.NoError(t, s.Save([]string{"four"}, path))

	var got []string
	require.NoError(t, s.Load(path, &got))
	assert.Equal(t, []string{"four"}, got)
}

func TestSaveErrors(t *testing.T) {
	var buf bytes.Buffer
	s, _ := newTestStore(&buf)
	dir := t.TempDir()

	assert.ErrorIs(t, s.Save(settings{}, " "), ErrEmptyPath)
	assert.ErrorIs(t, s.Save(nil, filepath.Join(dir, "a.json")), ErrNilValue)

	var nilMap map[string]int
	assert.ErrorIs(t, s.Save(nilMap, filepath.Join(dir, "b.json")), ErrNilValue)

	assert.Error(t, s.Save(make(chan int), filepath.Join(dir, "c.json")))

	_, err := os.Stat(filepath.Join(dir, "a.json"))
	assert.True(t, os.IsNotExist(err))
	assert.Equal(t, 4, strings.Count(buf.String(), "[ERROR] Failed to save object"))
}

func TestLoadErrors(t *testing.T) {
	var buf bytes.Buffer
	s, _ := newTestStore(&buf)
	dir := t.TempDir()

	var v settings
	assert.Error(t, s.Load(filepath.Join(dir, "missing.json"), &v))
	assert.ErrorIs(t, s.Load(filepath.Join(dir, "x.json"), v), ErrNilValue)

	corrupt := filepath.Join(dir, "corrupt.yaml")
	require.NoError(t, os.WriteFile(corrupt, []byte("name: [unclosed"), 0o644))
	err := s.Load(corrupt, &v)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "decode")

	assert.Equal(t, 3, strings.Count(buf.String(), "[ERROR] Failed to load object"))
}

func TestSaveWaitsForEngineLock(t *testing.T) {
	s, e := newTestStore(nil)
	path := filepath.Join(t.TempDir(), "locked.json")

	held := make(chan struct{})
	release := make(chan struct{})
	go func() {
		_ = e.Do(func() error {
			close(held)
			<-release
			return nil
		})
	}()
	<-held

	done := make(chan error, 1)
	go func() { done <- s.Save(settings{Name: "late"}, path) }()

	select {
	case <-done:
		t.Fatal("Save ran while the engine lock was held")
	case <-time.After(100 * time.Millisecond):
	}
	close(release)

	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("Save never ran after the lock was released")
	}
}
