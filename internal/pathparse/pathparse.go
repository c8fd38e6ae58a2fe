// Package pathparse splits path strings into parent, name, stem and extension.
//
// All functions are pure string operations on the host separator. They never
// touch the filesystem and never clean or resolve the input: "a/../b" is split
// as written.
package pathparse

import (
	"path/filepath"
	"strings"
)

// ExtensionSeparator separates the stem of a name from its extension.
const ExtensionSeparator = '.'

// Components is the decomposed view of a path.
type Components struct {
	Parent    string
	Name      string
	Stem      string
	Extension string
}

// Parse returns every component of path.
func Parse(path string) Components {
	return parse(path, filepath.Separator)
}

// Name returns everything after the last separator, or path itself when it
// has no separator.
//
//	Name("/home/admin/a.txt/b.mp3") = "b.mp3"
//	Name("abc")                     = "abc"
//	Name("   ")                     = "   "
func Name(path string) string {
	return name(path, filepath.Separator)
}

// NameWithoutExtension returns Name with its last extension removed. A dot
// inside a parent segment is never treated as an extension.
//
//	NameWithoutExtension("a.b.rmvb")                = "a.b"
//	NameWithoutExtension("/home/admin/a.txt/b.mp3") = "b"
//	NameWithoutExtension("/home/admin/a.txt/b")     = "b"
func NameWithoutExtension(path string) string {
	return stem(path, filepath.Separator)
}

// Extension returns the text after the last dot when that dot follows the
// last separator, and "" otherwise. Blank input is returned unchanged.
//
//	Extension("a.b.rmvb")            = "rmvb"
//	Extension("/home/admin/a.txt/b") = ""
func Extension(path string) string {
	return extension(path, filepath.Separator)
}

// Parent returns everything before the last separator, or "" when there is
// none.
//
//	Parent("/home/admin") = "/home"
//	Parent("a.mp3")       = ""
func Parent(path string) string {
	return parent(path, filepath.Separator)
}

func parse(path string, sep byte) Components {
	return Components{
		Parent:    parent(path, sep),
		Name:      name(path, sep),
		Stem:      stem(path, sep),
		Extension: extension(path, sep),
	}
}

func isBlank(path string) bool {
	return strings.TrimSpace(path) == ""
}

func name(path string, sep byte) string {
	if isBlank(path) {
		return path
	}
	sepPos := strings.LastIndexByte(path, sep)
	if sepPos == -1 {
		return path
	}
	return path[sepPos+1:]
}

func stem(path string, sep byte) string {
	if isBlank(path) {
		return path
	}
	dotPos := strings.LastIndexByte(path, ExtensionSeparator)
	sepPos := strings.LastIndexByte(path, sep)
	if sepPos == -1 {
		if dotPos == -1 {
			return path
		}
		return path[:dotPos]
	}
	if dotPos == -1 || dotPos < sepPos {
		return path[sepPos+1:]
	}
	return path[sepPos+1 : dotPos]
}

func extension(path string, sep byte) string {
	if isBlank(path) {
		return path
	}
	dotPos := strings.LastIndexByte(path, ExtensionSeparator)
	if dotPos == -1 {
		return ""
	}
	if strings.LastIndexByte(path, sep) >= dotPos {
		return ""
	}
	return path[dotPos+1:]
}

func parent(path string, sep byte) string {
	if isBlank(path) {
		return ""
	}
	sepPos := strings.LastIndexByte(path, sep)
	if sepPos == -1 {
		return ""
	}
	return path[:sepPos]
}
