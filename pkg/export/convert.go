package export

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/Sternrassler/stars-export/pkg/logging"
)

// ConvertFile converts an existing export next to itself, or into outDir
// when given: .json becomes .csv and .xlsx, .csv becomes .xlsx and .xlsx
// becomes .csv. Other extensions return ErrUnsupportedFormat.
func ConvertFile(input, outDir string) ([]string, error) {
	ext := strings.ToLower(filepath.Ext(input))
	base := strings.TrimSuffix(filepath.Base(input), filepath.Ext(input))
	if outDir == "" {
		outDir = filepath.Dir(input)
	}

	logger := logging.NewLogger("convert")

	from, err := ParseFormat(ext)
	if err != nil {
		return nil, fmt.Errorf("convert %s: %w", input, err)
	}

	f, err := os.Open(input)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", input, err)
	}
	defer f.Close()

	var paths []string
	switch from {
	case FormatJSON:
		records, err := ReadJSON(f)
		if err != nil {
			return nil, fmt.Errorf("convert %s: %w", input, err)
		}
		exporter, err := New(Config{OutputDir: outDir, BaseName: base})
		if err != nil {
			return nil, err
		}
		paths, err = exporter.Export(records, []Format{FormatCSV, FormatXLSX})
		if err != nil {
			return paths, err
		}

	case FormatCSV:
		rows, err := ReadCSV(f)
		if err != nil {
			return nil, fmt.Errorf("convert %s: %w", input, err)
		}
		path, err := writeRows(outDir, base, FormatXLSX, rows)
		if err != nil {
			return nil, err
		}
		paths = append(paths, path)

	case FormatXLSX:
		rows, err := ReadXLSX(f)
		if err != nil {
			return nil, fmt.Errorf("convert %s: %w", input, err)
		}
		path, err := writeRows(outDir, base, FormatCSV, rows)
		if err != nil {
			return nil, err
		}
		paths = append(paths, path)
	}

	for _, p := range paths {
		logger.Info().Str("input", input).Str("output", p).Msg("Converted file")
	}
	return paths, nil
}

func writeRows(dir, base string, to Format, rows [][]string) (string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create output directory: %w", err)
	}

	path := filepath.Join(dir, base+to.Extension())
	err := replaceFile(path, func(w io.Writer) error {
		if to == FormatXLSX {
			return writeXLSXRows(w, rows)
		}
		return writeCSVRows(w, rows)
	})
	if err != nil {
		return "", fmt.Errorf("write %s: %w", path, err)
	}
	return path, nil
}
