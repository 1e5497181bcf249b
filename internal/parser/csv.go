package parser

import (
	"bufio"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

type csvReader struct{}

func (csvReader) CanRead(filename string) bool { return hasExt(filename, ".csv", ".tsv") }

func (csvReader) Read(path string) (*Table, error) { return ReadCSVFile(path, 0) }

// ReadCSVFile reads a delimited text file into a Table. If delim is 0 the
// delimiter is sniffed from the extension and the header line.
func ReadCSVFile(path string, delim rune) (*Table, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open csv: %w", err)
	}
	defer f.Close()

	br := bufio.NewReader(f)
	if delim == 0 {
		delim = sniffDelimiter(path, br)
	}
	r := csv.NewReader(br)
	r.FieldsPerRecord = -1
	r.TrimLeadingSpace = true
	r.Comma = delim

	t := &Table{Name: filepath.Base(path)}
	header, err := r.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return t, nil
		}
		return nil, fmt.Errorf("read header: %w", err)
	}
	ncol := len(header)
	t.Header = make([]string, ncol)
	for i, h := range header {
		// pandas writes a BOM-prefixed first column from some locales
		t.Header[i] = strings.TrimSpace(strings.TrimPrefix(h, "\uFEFF"))
	}
	for {
		rec, err := r.Read()
		if err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			return nil, fmt.Errorf("read row %d: %w", len(t.Rows)+1, err)
		}
		row := make([]string, ncol)
		copy(row, rec)
		t.Rows = append(t.Rows, row)
	}
	return t, nil
}

// sniffDelimiter picks the delimiter from the extension, falling back to the
// most frequent of ',', ';', '\t' on the first line.
func sniffDelimiter(path string, br *bufio.Reader) rune {
	if strings.HasSuffix(strings.ToLower(path), ".tsv") {
		return '\t'
	}
	line, err := br.Peek(4096)
	if err != nil && len(line) == 0 {
		return ','
	}
	first := string(line)
	if i := strings.IndexByte(first, '\n'); i >= 0 {
		first = first[:i]
	}
	best, bestN := ',', strings.Count(first, ",")
	for _, c := range []rune{';', '\t'} {
		if n := strings.Count(first, string(c)); n > bestN {
			best, bestN = c, n
		}
	}
	return best
}
