package preset

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"pimformat/internal/datasource/file"
	"pimformat/internal/sheet"
)

// ErrUnsupportedSource is returned for preset files that are neither a
// workbook nor a CSV export.
var ErrUnsupportedSource = errors.New("preset: unsupported source file")

// ReadSource parses a preset source file into a table. Workbooks are read
// from their first sheet; .csv files use comma as the delimiter.
func ReadSource(ctx context.Context, path string, comma rune) (*sheet.Table, error) {
	ext := strings.ToLower(filepath.Ext(path))
	switch ext {
	case ".xlsx", ".xlsm", ".xltx", ".xltm", ".csv":
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedSource, path)
	}

	rc, err := file.NewLocal(path).Open(ctx)
	if err != nil {
		return nil, fmt.Errorf("preset: %w", err)
	}
	defer rc.Close()

	if ext == ".csv" {
		t, err := sheet.ReadCSV(rc, comma)
		if err != nil {
			return nil, fmt.Errorf("preset: read %s: %w", path, err)
		}
		return t, nil
	}

	wb, err := sheet.OpenReader(rc)
	if err != nil {
		return nil, fmt.Errorf("preset: open %s: %w", path, err)
	}
	defer wb.Close()
	name, err := wb.FirstSheet()
	if err != nil {
		return nil, fmt.Errorf("preset: %s: %w", path, err)
	}
	t, err := wb.ReadTable(name)
	if err != nil {
		return nil, fmt.Errorf("preset: read %s: %w", path, err)
	}
	return t, nil
}
