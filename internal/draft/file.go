package draft

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"invoicer/pkg/models"
)

// ErrNoDraft is returned by ReadFile when no draft file exists yet.
var ErrNoDraft = errors.New("no draft file")

// ReadFile loads a draft saved by WriteFile.
func ReadFile(path string) (models.Draft, error) {
	const op = "ReadFile"

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return models.Draft{}, fmt.Errorf("%s: %s: %w", op, path, ErrNoDraft)
		}
		return models.Draft{}, fmt.Errorf("%s: failed to read draft: %w", op, err)
	}

	var d models.Draft
	if err := json.Unmarshal(data, &d); err != nil {
		return models.Draft{}, fmt.Errorf("%s: failed to decode draft %s: %w", op, path, err)
	}
	return d, nil
}

// WriteFile saves d as indented JSON, creating parent directories.
func WriteFile(path string, d models.Draft) error {
	const op = "WriteFile"

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("%s: failed to create draft directory: %w", op, err)
	}

	data, err := json.MarshalIndent(d, "", "  ")
	if err != nil {
		return fmt.Errorf("%s: failed to encode draft: %w", op, err)
	}

	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("%s: failed to write draft: %w", op, err)
	}
	return nil
}
