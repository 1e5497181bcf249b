package parser

import (
	"context"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"strconv"

	"github.com/apache/arrow/go/v18/arrow"
	"github.com/apache/arrow/go/v18/arrow/array"
	"github.com/apache/arrow/go/v18/arrow/memory"
	"github.com/apache/arrow/go/v18/parquet"
	"github.com/apache/arrow/go/v18/parquet/compress"
	"github.com/apache/arrow/go/v18/parquet/pqarrow"

	"github.com/KaramelBytes/talentflow-cli/internal/utils"
)

type parquetReader struct{}

func (parquetReader) CanRead(filename string) bool { return hasExt(filename, ".parquet") }

func (parquetReader) Read(path string) (*Table, error) { return ReadParquetFile(path) }

// ReadParquetFile materializes a parquet file into a Table. Every arrow type
// is rendered through its canonical string form; nulls become "".
func ReadParquetFile(path string) (*Table, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open parquet: %w", err)
	}
	defer f.Close()

	mem := memory.DefaultAllocator
	tbl, err := pqarrow.ReadTable(context.Background(), f, parquet.NewReaderProperties(mem), pqarrow.ArrowReadProperties{}, mem)
	if err != nil {
		return nil, fmt.Errorf("read parquet: %w", err)
	}
	defer tbl.Release()

	fields := tbl.Schema().Fields()
	t := &Table{Name: filepath.Base(path), Header: make([]string, len(fields))}
	for i, fld := range fields {
		t.Header[i] = fld.Name
	}

	tr := array.NewTableReader(tbl, 4096)
	defer tr.Release()
	for tr.Next() {
		rec := tr.Record()
		ncol := int(rec.NumCols())
		for i := 0; i < int(rec.NumRows()); i++ {
			row := make([]string, ncol)
			for j := 0; j < ncol; j++ {
				row[j] = cellString(rec.Column(j), i)
			}
			t.Rows = append(t.Rows, row)
		}
	}
	if err := tr.Err(); err != nil {
		return nil, fmt.Errorf("scan parquet: %w", err)
	}
	return t, nil
}

func cellString(col arrow.Array, i int) string {
	if col.IsNull(i) {
		return ""
	}
	switch a := col.(type) {
	case *array.Float64:
		v := a.Value(i)
		if math.IsNaN(v) {
			return ""
		}
		return strconv.FormatFloat(v, 'g', -1, 64)
	case *array.Float32:
		v := float64(a.Value(i))
		if math.IsNaN(v) {
			return ""
		}
		return strconv.FormatFloat(v, 'g', -1, 32)
	case *array.String:
		return a.Value(i)
	case *array.LargeString:
		return a.Value(i)
	}
	return col.ValueStr(i)
}

type columnKind int

const (
	kindString columnKind = iota
	kindInt
	kindFloat
)

// inferKind treats a column as numeric when every non-empty cell parses.
func inferKind(t *Table, col int) columnKind {
	kind := kindInt
	seen := false
	for r := range t.Rows {
		v := t.Value(r, col)
		if v == "" {
			continue
		}
		seen = true
		f, ok := ParseNumber(v)
		if !ok {
			return kindString
		}
		if f != math.Trunc(f) || math.Abs(f) > 1<<53 {
			kind = kindFloat
		}
	}
	if !seen {
		return kindString
	}
	return kind
}

// WriteParquet writes t as a snappy-compressed parquet file, replacing path
// atomically. Numeric columns become int64 or float64, everything else string.
func WriteParquet(t *Table, path string) error {
	if t == nil || len(t.Header) == 0 {
		return fmt.Errorf("write parquet: empty table")
	}
	fields := make([]arrow.Field, len(t.Header))
	kinds := make([]columnKind, len(t.Header))
	for i, h := range t.Header {
		kinds[i] = inferKind(t, i)
		var typ arrow.DataType = arrow.BinaryTypes.String
		switch kinds[i] {
		case kindInt:
			typ = arrow.PrimitiveTypes.Int64
		case kindFloat:
			typ = arrow.PrimitiveTypes.Float64
		}
		fields[i] = arrow.Field{Name: h, Type: typ, Nullable: true}
	}
	schema := arrow.NewSchema(fields, nil)

	mem := memory.DefaultAllocator
	b := array.NewRecordBuilder(mem, schema)
	defer b.Release()
	for r := range t.Rows {
		for c := range t.Header {
			v := t.Value(r, c)
			switch fb := b.Field(c).(type) {
			case *array.Int64Builder:
				if f, ok := ParseNumber(v); ok {
					fb.Append(int64(f))
				} else {
					fb.AppendNull()
				}
			case *array.Float64Builder:
				if f, ok := ParseNumber(v); ok {
					fb.Append(f)
				} else {
					fb.AppendNull()
				}
			case *array.StringBuilder:
				if v == "" {
					fb.AppendNull()
				} else {
					fb.Append(v)
				}
			}
		}
	}
	rec := b.NewRecord()
	defer rec.Release()
	tbl := array.NewTableFromRecords(schema, []arrow.Record{rec})
	defer tbl.Release()

	props := parquet.NewWriterProperties(parquet.WithCompression(compress.Codecs.Snappy))
	return utils.SafeWrite(path, func(w io.Writer) error {
		if err := pqarrow.WriteTable(tbl, w, 64*1024, props, pqarrow.DefaultWriterProps()); err != nil {
			return fmt.Errorf("write parquet: %w", err)
		}
		return nil
	})
}
