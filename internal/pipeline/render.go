package pipeline

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
)

// WriteJSON renders v as indented JSON to path. An empty path or "-" writes
// to stdout.
func WriteJSON(v any, path string) (err error) {
	if path == "" || path == "-" {
		return renderJSON(v, os.Stdout)
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create output: %w", err)
	}
	defer func() {
		if closeErr := f.Close(); closeErr != nil && err == nil {
			err = fmt.Errorf("close output: %w", closeErr)
		}
	}()

	return renderJSON(v, f)
}

func renderJSON(v any, w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("encode result: %w", err)
	}
	return nil
}
