// Package scanfile reads scan batches from JSON Lines files and writes
// report batches back out.
package scanfile

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"go.uber.org/zap"

	"github.com/cognicore/puremark/pkg/puremark"
	"github.com/cognicore/puremark/pkg/puremark/report"
)

// maxLine bounds one JSONL record. OCR dumps with HTML run long.
const maxLine = 4 << 20

// LoadFromJSONL loads scans from a JSONL file. Malformed lines are skipped
// with a warning; a file without a single valid scan is an error.
func LoadFromJSONL(path string, logger *zap.Logger) ([]puremark.Scan, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()
	return Read(f, path, logger)
}

// Read loads scans from r. name labels warnings.
func Read(r io.Reader, name string, logger *zap.Logger) ([]puremark.Scan, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 64*1024), maxLine)

	var scans []puremark.Scan
	line := 0
	for sc.Scan() {
		line++
		text := strings.TrimSpace(sc.Text())
		if text == "" {
			continue
		}

		var s puremark.Scan
		if err := json.Unmarshal([]byte(text), &s); err != nil {
			logger.Warn("skipping malformed scan",
				zap.String("file", name),
				zap.Int("line", line),
				zap.Error(err))
			continue
		}
		if s.ID == "" {
			s.ID = fmt.Sprintf("%s:%d", name, line)
		}
		scans = append(scans, s)
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("read %s: %w", name, err)
	}

	if len(scans) == 0 {
		return nil, fmt.Errorf("no valid scans found in %s", name)
	}
	return scans, nil
}

// WriteJSONL writes one report per line.
func WriteJSONL(w io.Writer, reports []report.Report) error {
	enc := json.NewEncoder(w)
	for _, rep := range reports {
		if err := enc.Encode(rep); err != nil {
			return fmt.Errorf("write report %s: %w", rep.ID, err)
		}
	}
	return nil
}
