package export

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/Sternrassler/stars-export/pkg/logging"
	"github.com/Sternrassler/stars-export/pkg/record"
	"github.com/rs/zerolog"
)

// DefaultBaseName is the file name, without extension, of an export.
const DefaultBaseName = "starred_repositories"

// Config holds exporter configuration.
type Config struct {
	// OutputDir receives the exported files. It is created if missing.
	OutputDir string

	// BaseName is the file name without extension.
	BaseName string
}

// Exporter writes record lists to files.
type Exporter struct {
	config Config
	logger zerolog.Logger
}

// New creates an Exporter.
func New(cfg Config) (*Exporter, error) {
	if cfg.OutputDir == "" {
		return nil, errors.New("output directory is required")
	}
	if cfg.BaseName == "" {
		cfg.BaseName = DefaultBaseName
	}

	return &Exporter{
		config: cfg,
		logger: logging.NewLogger("export"),
	}, nil
}

// Path returns the file an export in format f is written to.
func (e *Exporter) Path(f Format) string {
	return filepath.Join(e.config.OutputDir, e.config.BaseName+f.Extension())
}

// Export writes records in each format and returns the written paths.
// Each file is replaced as a whole; a failed write leaves the previous
// file untouched.
func (e *Exporter) Export(records []record.Record, formats []Format) ([]string, error) {
	if err := os.MkdirAll(e.config.OutputDir, 0o755); err != nil {
		return nil, fmt.Errorf("create output directory: %w", err)
	}

	paths := make([]string, 0, len(formats))
	for _, f := range formats {
		write, err := writerFor(f)
		if err != nil {
			return paths, err
		}

		path := e.Path(f)
		if err := replaceFile(path, func(w io.Writer) error { return write(w, records) }); err != nil {
			return paths, fmt.Errorf("export %s: %w", f, err)
		}

		e.logger.Info().Str("path", path).Int("records", len(records)).Msg("Exported repositories")
		paths = append(paths, path)
	}

	return paths, nil
}

func writerFor(f Format) (func(io.Writer, []record.Record) error, error) {
	switch f {
	case FormatJSON:
		return WriteJSON, nil
	case FormatCSV:
		return WriteCSV, nil
	case FormatXLSX:
		return WriteXLSX, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedFormat, f)
	}
}

// replaceFile writes to a temporary file in the target directory and
// renames it over path.
func replaceFile(path string, write func(io.Writer) error) (err error) {
	tmp, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	defer func() {
		if err != nil {
			os.Remove(tmp.Name())
		}
	}()

	if err := write(tmp); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close temp file: %w", err)
	}
	if err := os.Chmod(tmp.Name(), 0o644); err != nil {
		return fmt.Errorf("chmod temp file: %w", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("rename temp file: %w", err)
	}
	return nil
}
