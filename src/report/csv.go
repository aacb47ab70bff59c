package report

import (
	"encoding/csv"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"gonum.org/v1/gonum/floats"
)

// WriteCSV saves equal-length columns under a header row.
func WriteCSV(filename string, header []string, cols [][]float64) error {
	if len(cols) == 0 {
		return errors.New("CSV: no columns")
	}
	if len(header) != len(cols) {
		return fmt.Errorf("CSV: %d header names for %d columns", len(header), len(cols))
	}
	n := len(cols[0])
	for _, c := range cols {
		if len(c) != n {
			return errors.New("CSV: column size mismatch")
		}
	}

	if err := os.MkdirAll(filepath.Dir(filename), 0o755); err != nil {
		return fmt.Errorf("CSV: cannot create directory: %w", err)
	}

	f, err := os.Create(filename)
	if err != nil {
		return fmt.Errorf("CSV: cannot open %s: %w", filename, err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write(header); err != nil {
		return fmt.Errorf("CSV: cannot write header: %w", err)
	}

	row := make([]string, len(cols))
	for r := 0; r < n; r++ {
		for c := range cols {
			row[c] = fmt.Sprintf("%.15g", cols[c][r])
		}
		if err := w.Write(row); err != nil {
			return fmt.Errorf("CSV: cannot write row: %w", err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return fmt.Errorf("CSV: %w", err)
	}
	return nil
}

// Extent returns the smallest and largest value of xs, and false for an
// empty slice.
func Extent(xs []float64) (lo, hi float64, ok bool) {
	if len(xs) == 0 {
		return 0, 0, false
	}
	return floats.Min(xs), floats.Max(xs), true
}
