package store

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	"github.com/tabula-org/tabula/dataset"
	"github.com/tabula-org/tabula/helpers"
)

// FileProvider persists datasets as CSV files under a root directory.
// Handles are uuid strings; the file for handle h lives at <root>/<h>.csv.
type FileProvider struct {
	root string
}

// NewFileProvider creates the root directory when missing.
func NewFileProvider(root string) (*FileProvider, error) {
	if root == "" {
		return nil, fmt.Errorf("store root directory is required")
	}
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create store directory: %w", err)
	}
	return &FileProvider{root: root}, nil
}

// Load reads a previously saved dataset by handle.
func (p *FileProvider) Load(_ context.Context, id string) (*dataset.Dataset, error) {
	id = strings.TrimSpace(id)
	if id == "" || strings.ContainsAny(id, `/\`) {
		return nil, fmt.Errorf("invalid dataset handle %q", id)
	}
	data, err := os.ReadFile(filepath.Join(p.root, id+".csv"))
	if err != nil {
		return nil, fmt.Errorf("failed to load dataset %s: %w", id, err)
	}
	return helpers.ParseCSV(data)
}

// Save writes the dataset and returns its handle. Only CSV is supported;
// an empty format defaults to it.
func (p *FileProvider) Save(_ context.Context, ds *dataset.Dataset, format string) (string, error) {
	if format != "" && format != "csv" {
		return "", fmt.Errorf("unsupported storage format %q", format)
	}

	var buf bytes.Buffer
	if err := helpers.WriteCSV(&buf, ds); err != nil {
		return "", err
	}

	id := uuid.NewString()
	path := filepath.Join(p.root, id+".csv")
	if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		return "", fmt.Errorf("failed to save dataset: %w", err)
	}
	return id, nil
}
