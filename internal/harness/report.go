package harness

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// DefaultReportPath is where the stress command writes its report.
const DefaultReportPath = "data/logs/stress_test_results.json"

// WriteReport writes r to path as indented JSON, creating the directory.
func WriteReport(path string, r *Report) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create report dir: %w", err)
	}
	data, err := json.MarshalIndent(r, "", "  ")
	if err != nil {
		return fmt.Errorf("encode report: %w", err)
	}
	return os.WriteFile(path, append(data, '\n'), 0o644)
}
