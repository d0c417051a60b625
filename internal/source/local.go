// Package source provides the local directory report source.
package source

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	ports "ytearnings/internal/sheets"
)

var _ ports.ReportSource = (*Dir)(nil)

// Dir lists the .csv files directly inside a directory.
type Dir struct {
	root string
}

func NewDir(root string) *Dir {
	if strings.TrimSpace(root) == "" {
		root = "."
	}
	return &Dir{root: root}
}

func (d *Dir) List(ctx context.Context) ([]ports.SourceFile, error) {
	entries, err := os.ReadDir(d.root)
	if err != nil {
		return nil, fmt.Errorf("read dir %s: %w", d.root, err)
	}
	var out []ports.SourceFile
	for _, e := range entries {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if e.IsDir() || !strings.EqualFold(filepath.Ext(e.Name()), ".csv") {
			continue
		}
		info, err := e.Info()
		if err != nil {
			return nil, fmt.Errorf("stat %s: %w", e.Name(), err)
		}
		out = append(out, ports.SourceFile{
			ID:       filepath.Join(d.root, e.Name()),
			Name:     e.Name(),
			Size:     info.Size(),
			Modified: info.ModTime(),
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (d *Dir) Open(_ context.Context, f ports.SourceFile) (io.ReadCloser, error) {
	return os.Open(f.ID)
}

// Memory is a map-backed source keyed by file name.
type Memory struct {
	files map[string]string
}

var _ ports.ReportSource = (*Memory)(nil)

func NewMemory(files map[string]string) *Memory {
	m := &Memory{files: make(map[string]string, len(files))}
	for k, v := range files {
		m.files[k] = v
	}
	return m
}

func (m *Memory) List(context.Context) ([]ports.SourceFile, error) {
	out := make([]ports.SourceFile, 0, len(m.files))
	for name, body := range m.files {
		out = append(out, ports.SourceFile{ID: name, Name: name, Size: int64(len(body))})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (m *Memory) Open(_ context.Context, f ports.SourceFile) (io.ReadCloser, error) {
	body, ok := m.files[f.ID]
	if !ok {
		return nil, fmt.Errorf("%s: %w", f.ID, os.ErrNotExist)
	}
	return io.NopCloser(strings.NewReader(body)), nil
}
