package parser

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// Reader defines a tabular source implementation.
type Reader interface {
	CanRead(filename string) bool
	Read(path string) (*Table, error)
}

var registry []Reader

// Register adds a reader implementation to the registry.
func Register(r Reader) {
	registry = append(registry, r)
}

// ReadFile selects a reader based on filename and returns the parsed table.
func ReadFile(path string) (*Table, error) {
	for _, r := range registry {
		if r.CanRead(path) {
			t, err := r.Read(path)
			if err != nil {
				return nil, err
			}
			if t.Name == "" {
				t.Name = filepath.Base(path)
			}
			return t, nil
		}
	}
	return nil, fmt.Errorf("%w: %s", ErrUnsupported, filepath.Ext(path))
}

// Preference lists source extensions from most to least preferred. Binary
// columnar storage wins over spreadsheets, which win over delimited text.
var Preference = []string{".parquet", ".xlsx", ".csv", ".tsv"}

// ResolveSource returns the first existing file named base+ext inside dir,
// walking Preference in order. ok is false when no candidate exists.
func ResolveSource(dir, base string) (path string, ok bool) {
	for _, ext := range Preference {
		p := filepath.Join(dir, base+ext)
		if info, err := os.Stat(p); err == nil && !info.IsDir() {
			return p, true
		}
	}
	return "", false
}

func hasExt(filename string, exts ...string) bool {
	name := strings.ToLower(filename)
	for _, e := range exts {
		if strings.HasSuffix(name, e) {
			return true
		}
	}
	return false
}

func init() {
	// Register default readers
	Register(parquetReader{})
	Register(xlsxReader{})
	Register(csvReader{})
}

// ErrUnsupported indicates a format is not supported yet.
var ErrUnsupported = errors.New("unsupported table format")
