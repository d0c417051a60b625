package memory

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"

	"ytearnings/internal/core"
	ports "ytearnings/internal/sheets"
)

var _ ports.TabWriter = (*Store)(nil)

// Store is an in-memory workbook. Cells are kept as the text a spreadsheet
// would receive.
type Store struct {
	mu     sync.Mutex
	nextID int64
	tabs   map[string]*tab
	// FailOn makes the named operation ("ensure", "clear", "write") fail for
	// the given tab label.
	FailOn map[string]core.SinkOp
}

type tab struct {
	id     int64
	values [][]string
}

func New() *Store {
	return &Store{tabs: make(map[string]*tab)}
}

// EnsureTab creates the tab when missing and is idempotent otherwise.
func (s *Store) EnsureTab(_ context.Context, label string) (ports.TabHandle, error) {
	label = strings.TrimSpace(label)
	if label == "" {
		return ports.TabHandle{}, fmt.Errorf("empty tab label")
	}
	if err := s.failure(label, core.SinkEnsure); err != nil {
		return ports.TabHandle{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.tabs[label]
	if !ok {
		s.nextID++
		t = &tab{id: s.nextID}
		s.tabs[label] = t
	}
	return ports.TabHandle{ID: t.id, Label: label}, nil
}

func (s *Store) ClearTab(_ context.Context, h ports.TabHandle) error {
	if err := s.failure(h.Label, core.SinkClear); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.tabs[h.Label]
	if !ok {
		return fmt.Errorf("tab %q not found", h.Label)
	}
	t.values = nil
	return nil
}

func (s *Store) WriteRows(_ context.Context, h ports.TabHandle, header []string, rows []core.OutputRow) error {
	if err := s.failure(h.Label, core.SinkWrite); err != nil {
		return err
	}
	values := make([][]string, 0, len(rows)+1)
	values = append(values, append([]string(nil), header...))
	for _, r := range rows {
		values = append(values, r.Strings())
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.tabs[h.Label]
	if !ok {
		return fmt.Errorf("tab %q not found", h.Label)
	}
	t.values = values
	return nil
}

// Values returns a copy of the tab content, header included.
func (s *Store) Values(label string) ([][]string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.tabs[label]
	if !ok {
		return nil, false
	}
	out := make([][]string, len(t.values))
	for i, row := range t.values {
		out[i] = append([]string(nil), row...)
	}
	return out, true
}

// Tabs returns the tab labels in creation order.
func (s *Store) Tabs() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	labels := make([]string, 0, len(s.tabs))
	for l := range s.tabs {
		labels = append(labels, l)
	}
	sort.Slice(labels, func(i, j int) bool { return s.tabs[labels[i]].id < s.tabs[labels[j]].id })
	return labels
}

func (s *Store) failure(label string, op core.SinkOp) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.FailOn != nil && s.FailOn[label] == op {
		return fmt.Errorf("simulated %s failure on %q", op, label)
	}
	return nil
}
