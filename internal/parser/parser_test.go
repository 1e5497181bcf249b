package parser_test

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/KaramelBytes/talentflow-cli/internal/parser"
)

const flowsCSV = "origin,destination,origin_iso3,destination_iso3,n_researchers,phd_year_mean\n" +
	"China,USA,CHN,USA,1000,2008.5\n" +
	"India,USA,IND,USA,800,\n" +
	"USA,China,USA,CHN,50,2011.25\n"

func writeFile(t *testing.T, path, body string) {
	t.Helper()
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
}

func TestReadFileCSV(t *testing.T) {
	dir := t.TempDir()
	p := filepath.Join(dir, "migration_flows.csv")
	writeFile(t, p, flowsCSV)

	tbl, err := parser.ReadFile(p)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if tbl.Name != "migration_flows.csv" {
		t.Fatalf("name = %q", tbl.Name)
	}
	if tbl.Len() != 3 {
		t.Fatalf("rows = %d, want 3", tbl.Len())
	}
	if idx := tbl.Index("N_Researchers"); idx != 4 {
		t.Fatalf("index of n_researchers = %d", idx)
	}
	if got := tbl.Value(1, tbl.Index("phd_year_mean")); got != "" {
		t.Fatalf("missing cell = %q, want empty", got)
	}
}

func TestReadFileSniffsSemicolon(t *testing.T) {
	dir := t.TempDir()
	p := filepath.Join(dir, "wdi_indicators.csv")
	writeFile(t, p, "Year;IndicatorCode;Value;iso3\n2015;NY.GDP.PCAP.CD;56.863,4;USA\n")

	tbl, err := parser.ReadFile(p)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if len(tbl.Header) != 4 {
		t.Fatalf("header = %#v", tbl.Header)
	}
	v, ok := parser.ParseNumber(tbl.Value(0, 2))
	if !ok || v != 56863.4 {
		t.Fatalf("value = %v (%v), want 56863.4", v, ok)
	}
}

func TestReadFileTSV(t *testing.T) {
	dir := t.TempDir()
	p := filepath.Join(dir, "country_mapping.tsv")
	writeFile(t, p, "iso2\tiso3\nUS\tUSA\nCN\tCHN\n")
	tbl, err := parser.ReadFile(p)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if tbl.Value(1, tbl.Index("iso3")) != "CHN" {
		t.Fatalf("rows = %#v", tbl.Rows)
	}
}

func TestReadFileUnsupported(t *testing.T) {
	_, err := parser.ReadFile("notes.docx")
	if !errors.Is(err, parser.ErrUnsupported) {
		t.Fatalf("err = %v, want ErrUnsupported", err)
	}
}

func TestResolveSourcePreference(t *testing.T) {
	dir := t.TempDir()
	if _, ok := parser.ResolveSource(dir, "migration_flows"); ok {
		t.Fatalf("expected no source in empty dir")
	}
	writeFile(t, filepath.Join(dir, "migration_flows.csv"), flowsCSV)
	p, ok := parser.ResolveSource(dir, "migration_flows")
	if !ok || filepath.Ext(p) != ".csv" {
		t.Fatalf("resolve = %q (%v), want csv", p, ok)
	}

	tbl, err := parser.ReadFile(p)
	if err != nil {
		t.Fatalf("read csv: %v", err)
	}
	if err := parser.WriteParquet(tbl, filepath.Join(dir, "migration_flows.parquet")); err != nil {
		t.Fatalf("write parquet: %v", err)
	}
	p, ok = parser.ResolveSource(dir, "migration_flows")
	if !ok || filepath.Ext(p) != ".parquet" {
		t.Fatalf("resolve = %q (%v), want parquet", p, ok)
	}
}

func TestParquetRoundTrip(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "flows.csv")
	writeFile(t, src, flowsCSV)
	in, err := parser.ReadFile(src)
	if err != nil {
		t.Fatalf("read csv: %v", err)
	}
	out := filepath.Join(dir, "flows.parquet")
	if err := parser.WriteParquet(in, out); err != nil {
		t.Fatalf("write parquet: %v", err)
	}
	if _, err := os.Stat(out + ".tmp"); !os.IsNotExist(err) {
		t.Fatalf("temp file left behind: %v", err)
	}

	got, err := parser.ReadFile(out)
	if err != nil {
		t.Fatalf("read parquet: %v", err)
	}
	if len(got.Header) != len(in.Header) || got.Len() != in.Len() {
		t.Fatalf("shape = %dx%d, want %dx%d", got.Len(), len(got.Header), in.Len(), len(in.Header))
	}
	for r := range in.Rows {
		for c := range in.Header {
			want, got := in.Value(r, c), got.Value(r, c)
			if wf, ok := parser.ParseNumber(want); ok {
				gf, ok := parser.ParseNumber(got)
				if !ok || gf != wf {
					t.Fatalf("cell (%d,%d) = %q, want %q", r, c, got, want)
				}
				continue
			}
			if got != want {
				t.Fatalf("cell (%d,%d) = %q, want %q", r, c, got, want)
			}
		}
	}
}

func TestParseNumber(t *testing.T) {
	cases := []struct {
		in   string
		want float64
		ok   bool
	}{
		{"1000", 1000, true},
		{"2008.5", 2008.5, true},
		{"12.5%", 12.5, true},
		{"1.000,5", 1000.5, true},
		{"1,000.5", 1000.5, true},
		{"0,75", 0.75, true},
		{"1,234,567", 1234567, true},
		{"3.5e2", 350, true},
		{"", 0, false},
		{"NaN", 0, false},
		{" NA ", 0, false},
		{"null", 0, false},
		{"USA", 0, false},
	}
	for _, c := range cases {
		got, ok := parser.ParseNumber(c.in)
		if ok != c.ok || (ok && got != c.want) {
			t.Errorf("ParseNumber(%q) = %v,%v want %v,%v", c.in, got, ok, c.want, c.ok)
		}
	}
}
