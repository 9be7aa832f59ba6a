package exporter

import (
	"encoding/csv"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
)

// CSVWriter writes derived tables as CSV files under a base directory. Each
// run exports into its own directory, staged in a temp dir and renamed into
// place so consumers never see a partially written export.
type CSVWriter struct {
	baseDir string
	logger  *slog.Logger
}

// NewCSVWriter creates a writer rooted at baseDir.
func NewCSVWriter(baseDir string, logger *slog.Logger) *CSVWriter {
	return &CSVWriter{
		baseDir: baseDir,
		logger:  logger.With(slog.String("component", "csv_exporter")),
	}
}

// table is one named CSV file within a run export.
type table struct {
	name    string
	headers []string
	records [][]string
}

// writeRun stages every table in a temp directory and atomically renames it
// to <baseDir>/<runDir>. An existing export for the same run is replaced.
func (w *CSVWriter) writeRun(runDir string, tables []table) (string, error) {
	if err := os.MkdirAll(w.baseDir, 0o755); err != nil {
		return "", fmt.Errorf("create export base dir: %w", err)
	}

	staging, err := os.MkdirTemp(w.baseDir, runDir+".tmp-")
	if err != nil {
		return "", fmt.Errorf("create staging dir: %w", err)
	}
	defer os.RemoveAll(staging)

	for _, tbl := range tables {
		if err := writeTable(filepath.Join(staging, tbl.name+".csv"), tbl); err != nil {
			return "", fmt.Errorf("write table %s: %w", tbl.name, err)
		}
	}

	final := filepath.Join(w.baseDir, runDir)
	if err := os.RemoveAll(final); err != nil {
		return "", fmt.Errorf("remove prior export: %w", err)
	}
	if err := os.Rename(staging, final); err != nil {
		return "", fmt.Errorf("publish export: %w", err)
	}

	w.logger.Info("run export written",
		slog.String("dir", final),
		slog.Int("tables", len(tables)))
	return final, nil
}

func writeTable(path string, tbl table) error {
	file, err := os.Create(path)
	if err != nil {
		return err
	}
	defer file.Close()

	// UTF-8 BOM so Excel opens the files correctly.
	if _, err := file.Write([]byte{0xEF, 0xBB, 0xBF}); err != nil {
		return err
	}

	writer := csv.NewWriter(file)
	if err := writer.Write(tbl.headers); err != nil {
		return err
	}
	for i, record := range tbl.records {
		if err := writer.Write(record); err != nil {
			return fmt.Errorf("record %d: %w", i, err)
		}
	}
	writer.Flush()
	return writer.Error()
}
