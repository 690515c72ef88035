package report

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"

	"github.com/samber/oops"
)

func WriteJSON(w io.Writer, rep *Report) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(rep)
}

// WriteCSV writes one row per reading. Readings without a calculated R
// leave the column empty.
func WriteCSV(w io.Writer, rep *Report) error {
	cw := csv.NewWriter(w)

	if err := cw.Write([]string{"id", "time_s", "theta0", "theta_t", "r_mohm"}); err != nil {
		return err
	}

	for _, r := range rep.Readings {
		rv := ""
		if r.CalculatedR != nil {
			rv = strconv.FormatFloat(*r.CalculatedR, 'f', 6, 64)
		}
		row := []string{
			r.ID.String(),
			strconv.FormatFloat(r.TimeSeconds, 'f', 2, 64),
			strconv.FormatFloat(r.InitialDeflection, 'f', 1, 64),
			strconv.FormatFloat(r.FinalDeflection, 'f', 1, 64),
			rv,
		}
		if err := cw.Write(row); err != nil {
			return err
		}
	}

	cw.Flush()
	return cw.Error()
}

// Exporter writes reports into timestamped directories under baseDir.
type Exporter struct {
	baseDir string
}

func NewExporter(baseDir string) *Exporter {
	return &Exporter{baseDir: baseDir}
}

// Save writes report.json, readings.csv and decay.png and returns the
// directory it created.
func (e *Exporter) Save(rep *Report) (string, error) {
	dir := filepath.Join(e.baseDir, fmt.Sprintf("leaklab_%s", rep.CreatedAt.Format("20060102_150405")))
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", oops.In("report").With("dir", dir).Wrapf(err, "failed to create report directory")
	}

	if err := writeFile(filepath.Join(dir, "report.json"), rep, WriteJSON); err != nil {
		return "", err
	}
	if err := writeFile(filepath.Join(dir, "readings.csv"), rep, WriteCSV); err != nil {
		return "", err
	}
	if err := SavePlot(filepath.Join(dir, "decay.png"), rep); err != nil {
		return "", err
	}

	return dir, nil
}

func writeFile(path string, rep *Report, write func(io.Writer, *Report) error) error {
	f, err := os.Create(path)
	if err != nil {
		return oops.In("report").With("path", path).Wrapf(err, "failed to create file")
	}
	defer f.Close()

	if err := write(f, rep); err != nil {
		return oops.In("report").With("path", path).Wrapf(err, "failed to write report")
	}
	return nil
}
