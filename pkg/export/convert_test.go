package export

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func TestConvertFile_JSON(t *testing.T) {
	dir := t.TempDir()
	input := filepath.Join(dir, "stars.json")
	inputJSON := `[{"name":"A","description":null,"html_url":"https://github.com/x/A","language":null,"stargazers_count":500,"created_at":"2020-01-01T00:00:00Z"}]`
	if err := os.WriteFile(input, []byte(inputJSON), 0o644); err != nil {
		t.Fatal(err)
	}

	paths, err := ConvertFile(input, "")
	if err != nil {
		t.Fatalf("ConvertFile() error = %v", err)
	}
	if len(paths) != 2 {
		t.Fatalf("paths = %v, want csv and xlsx", paths)
	}

	data, err := os.ReadFile(filepath.Join(dir, "stars.csv"))
	if err != nil {
		t.Fatal(err)
	}
	want := "Name,Description,URL,Language,Stars,Created At\r\n" +
		"A,No description provided.,https://github.com/x/A,Unknown,500+,2020-01-01T00:00:00Z\r\n"
	if string(data) != want {
		t.Errorf("csv = %q, want %q", data, want)
	}

	if _, err := os.Stat(filepath.Join(dir, "stars.xlsx")); err != nil {
		t.Errorf("xlsx not written: %v", err)
	}
}

func TestConvertFile_CSVToXLSXAndBack(t *testing.T) {
	src := t.TempDir()
	out := t.TempDir()

	e, err := New(Config{OutputDir: src, BaseName: "stars"})
	if err != nil {
		t.Fatal(err)
	}
	if _, err := e.Export(sampleRecords(), []Format{FormatCSV}); err != nil {
		t.Fatal(err)
	}
	original, err := os.ReadFile(e.Path(FormatCSV))
	if err != nil {
		t.Fatal(err)
	}

	paths, err := ConvertFile(e.Path(FormatCSV), out)
	if err != nil {
		t.Fatalf("csv -> xlsx error = %v", err)
	}
	if len(paths) != 1 || paths[0] != filepath.Join(out, "stars.xlsx") {
		t.Fatalf("paths = %v, want %s", paths, filepath.Join(out, "stars.xlsx"))
	}

	back := t.TempDir()
	paths, err = ConvertFile(paths[0], back)
	if err != nil {
		t.Fatalf("xlsx -> csv error = %v", err)
	}

	roundTripped, err := os.ReadFile(paths[0])
	if err != nil {
		t.Fatal(err)
	}
	if string(roundTripped) != string(original) {
		t.Errorf("round trip changed the csv:\n%q\nwant\n%q", roundTripped, original)
	}
}

func TestConvertFile_Unsupported(t *testing.T) {
	input := filepath.Join(t.TempDir(), "notes.txt")
	if err := os.WriteFile(input, []byte("hello"), 0o644); err != nil {
		t.Fatal(err)
	}

	_, err := ConvertFile(input, "")
	if !errors.Is(err, ErrUnsupportedFormat) {
		t.Errorf("ConvertFile() error = %v, want ErrUnsupportedFormat", err)
	}
}

func TestConvertFile_Missing(t *testing.T) {
	if _, err := ConvertFile(filepath.Join(t.TempDir(), "missing.csv"), ""); err == nil {
		t.Error("ConvertFile() on a missing file should fail")
	}
}
