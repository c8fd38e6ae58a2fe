// Package textio reads and writes line-oriented text files in a named
// character set.
//
// Reads decode the whole file into UTF-8 and split it into lines on "\n",
// dropping a trailing "\r" from each line. ReadFile joins the lines back with
// "\r\n". Writes go through treeops so the parent directories of the target
// are created first.
package textio

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/gabriel-vasile/mimetype"
	"github.com/saintfish/chardet"
	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/htmlindex"

	"fileutils/internal/treeops"
)

// CharsetAuto asks ReadFile and ReadLines to guess the encoding
const CharsetAuto = "auto"

const lineSeparator = "\r\n"

var (
	ErrEmptyPath      = errors.New("empty path")
	ErrNotFile        = errors.New("not a regular file")
	ErrEmptyContent   = errors.New("nothing to write")
	ErrUnknownCharset = errors.New("unknown charset")
)

// ReadFile returns the text of path decoded from charset, lines joined with "\r\n".
// An empty charset means UTF-8.
func ReadFile(path, charset string) (string, error) {
	lines, err := ReadLines(path, charset)
	if err != nil {
		return "", err
	}
	return strings.Join(lines, lineSeparator), nil
}

// ReadLines returns the lines of path decoded from charset
func ReadLines(path, charset string) ([]string, error) {
	data, err := readRegular(path)
	if err != nil {
		return nil, err
	}

	if charset == CharsetAuto {
		charset = DetectCharset(data)
	}
	enc, err := lookup(charset)
	if err != nil {
		return nil, err
	}
	decoded, err := enc.NewDecoder().Bytes(data)
	if err != nil {
		return nil, fmt.Errorf("decode %s as %s: %w", path, charset, err)
	}
	return splitLines(string(decoded)), nil
}

func readRegular(path string) ([]byte, error) {
	if strings.TrimSpace(path) == "" {
		return nil, ErrEmptyPath
	}
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrNotFile, path, err)
	}
	if !info.Mode().IsRegular() {
		return nil, fmt.Errorf("%w: %s", ErrNotFile, path)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	return data, nil
}

func splitLines(s string) []string {
	if s == "" {
		return []string{}
	}
	lines := strings.Split(s, "\n")
	if lines[len(lines)-1] == "" {
		lines = lines[:len(lines)-1]
	}
	for i, line := range lines {
		lines[i] = strings.TrimSuffix(line, "\r")
	}
	return lines
}

// WriteOption configures WriteFile and WriteLines
type WriteOption func(*writeOptions)

type writeOptions struct {
	charset string
	engine  *treeops.Engine
}

// WithCharset encodes the written text in the named charset instead of UTF-8
func WithCharset(name string) WriteOption {
	return func(o *writeOptions) { o.charset = name }
}

// WithEngine writes through e instead of treeops.Default()
func WithEngine(e *treeops.Engine) WriteOption {
	return func(o *writeOptions) { o.engine = e }
}

// WriteFile writes content to path, appending when appendMode is set.
// Empty content is refused with ErrEmptyContent and leaves path untouched.
func WriteFile(path, content string, appendMode bool, opts ...WriteOption) error {
	if content == "" {
		return ErrEmptyContent
	}
	o := writeOptions{}
	for _, opt := range opts {
		opt(&o)
	}
	if o.engine == nil {
		o.engine = treeops.Default()
	}

	enc, err := lookup(o.charset)
	if err != nil {
		return err
	}
	encoded, err := enc.NewEncoder().String(content)
	if err != nil {
		return fmt.Errorf("encode for %s as %s: %w", path, o.charset, err)
	}
	return o.engine.Copy(bytes.NewReader([]byte(encoded)), path, appendMode)
}

// WriteLines writes lines separated by "\r\n", with no trailing separator
func WriteLines(path string, lines []string, appendMode bool, opts ...WriteOption) error {
	if len(lines) == 0 {
		return ErrEmptyContent
	}
	return WriteFile(path, strings.Join(lines, lineSeparator), appendMode, opts...)
}

// DetectCharset guesses the charset of data, falling back to utf-8
func DetectCharset(data []byte) string {
	detector := chardet.NewTextDetector()
	result, err := detector.DetectBest(data)
	if err != nil || result == nil {
		return "utf-8"
	}
	return strings.ToLower(result.Charset)
}

// Detect returns the MIME type of the file at path
func Detect(path string) (string, error) {
	mt, err := mimetype.DetectFile(path)
	if err != nil {
		return "", fmt.Errorf("detect %s: %w", path, err)
	}
	return mt.String(), nil
}

// IsText reports whether the content of path is some form of text
func IsText(path string) (bool, error) {
	mt, err := mimetype.DetectFile(path)
	if err != nil {
		return false, fmt.Errorf("detect %s: %w", path, err)
	}
	for m := mt; m != nil; m = m.Parent() {
		if m.Is("text/plain") {
			return true, nil
		}
	}
	return false, nil
}

// lookup resolves a charset label. Detector names such as GB-18030 are
// retried without dashes.
func lookup(name string) (encoding.Encoding, error) {
	label := strings.ToLower(strings.TrimSpace(name))
	if label == "" {
		label = "utf-8"
	}
	enc, err := htmlindex.Get(label)
	if err != nil {
		enc, err = htmlindex.Get(strings.ReplaceAll(label, "-", ""))
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %q", ErrUnknownCharset, name)
	}
	return enc, nil
}
