package store

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/ppiankov/claimgraph/internal/model"
)

// LoadClaims reads a claims file: either a JSON array of claims or an
// object with a "claims" array
func LoadClaims(path string) ([]model.Claim, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: read claims: %w", model.ErrInvalidInput, err)
	}
	claims, err := DecodeClaims(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return claims, nil
}

// DecodeClaims parses the claims file format from memory
func DecodeClaims(data []byte) ([]model.Claim, error) {
	var claims []model.Claim
	if err := decodeList(data, "claims", &claims); err != nil {
		return nil, err
	}
	return claims, nil
}

// LoadEdges reads an edges file: either a JSON array of dependencies or an
// object with an "edges" (or "dependencies") array
func LoadEdges(path string) ([]model.Dependency, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: read edges: %w", model.ErrInvalidInput, err)
	}

	var edges []model.Dependency
	if err := decodeList(data, "edges", &edges); err == nil {
		return edges, nil
	}
	if err := decodeList(data, "dependencies", &edges); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return edges, nil
}

func decodeList(data []byte, field string, out interface{}) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 {
		return fmt.Errorf("%w: empty input", model.ErrInvalidInput)
	}

	if data[0] == '[' {
		if err := json.Unmarshal(data, out); err != nil {
			return fmt.Errorf("%w: %w", model.ErrInvalidInput, err)
		}
		return nil
	}

	var wrapper map[string]json.RawMessage
	if err := json.Unmarshal(data, &wrapper); err != nil {
		return fmt.Errorf("%w: %w", model.ErrInvalidInput, err)
	}
	raw, ok := wrapper[field]
	if !ok {
		return fmt.Errorf("%w: missing %q array", model.ErrInvalidInput, field)
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("%w: %s: %w", model.ErrInvalidInput, field, err)
	}
	return nil
}

// WriteJSON writes v as indented JSON, creating parent directories.
// The file is replaced atomically.
func WriteJSON(path string, v interface{}) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal: %w", err)
	}
	data = append(data, '\n')

	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create dir: %w", err)
		}
	}

	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("write: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("rename: %w", err)
	}
	return nil
}
