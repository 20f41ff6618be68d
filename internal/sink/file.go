package sink

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/abhisek/mcqflow/internal/pipeline"
)

// DefaultFileName is the result file written under the output directory.
const DefaultFileName = "final_output.json"

// FileSink writes each result as indented JSON to one file, overwriting the
// previous result.
type FileSink struct {
	Dir      string
	FileName string
}

// NewFileSink creates a FileSink writing dir/name. An empty name selects
// DefaultFileName.
func NewFileSink(dir, name string) *FileSink {
	if name == "" {
		name = DefaultFileName
	}
	return &FileSink{Dir: dir, FileName: name}
}

// Path returns the file the sink writes to.
func (f *FileSink) Path() string {
	return filepath.Join(f.Dir, f.FileName)
}

func (f *FileSink) Save(_ context.Context, result *pipeline.RunResult) error {
	return WriteJSON(f.Path(), result)
}

// WriteJSON writes v to path with 4-space indentation, creating the parent
// directory if needed.
func WriteJSON(path string, v any) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create output dir: %w", err)
	}
	data, err := json.MarshalIndent(v, "", "    ")
	if err != nil {
		return fmt.Errorf("encode %s: %w", path, err)
	}
	data = append(data, '\n')
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}
