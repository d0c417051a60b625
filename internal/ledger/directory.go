package ledger

import (
	"sort"
	"strings"
)

// Directory maps channel ids to the most recently observed non-empty display
// name. Entries are never removed and never blanked.
type Directory struct {
	names map[string]string
}

func NewDirectory() *Directory {
	return &Directory{names: make(map[string]string)}
}

// Observe records name for id. Blank names are ignored.
func (d *Directory) Observe(id, name string) {
	id, name = strings.TrimSpace(id), strings.TrimSpace(name)
	if id == "" || name == "" {
		return
	}
	d.names[id] = name
}

// Seed records name for id only when no name is known yet.
func (d *Directory) Seed(id, name string) {
	id, name = strings.TrimSpace(id), strings.TrimSpace(name)
	if id == "" || name == "" {
		return
	}
	if _, ok := d.names[id]; !ok {
		d.names[id] = name
	}
}

func (d *Directory) Name(id string) (string, bool) {
	n, ok := d.names[id]
	return n, ok
}

// Label is the "Channel ID & Name" value: "<id> - <name>", or the bare id
// when no name has been seen.
func (d *Directory) Label(id string) string {
	if n, ok := d.names[id]; ok {
		return id + " - " + n
	}
	return id
}

func (d *Directory) Len() int { return len(d.names) }

// IDs returns the known channel ids in ascending order.
func (d *Directory) IDs() []string {
	ids := make([]string, 0, len(d.names))
	for id := range d.names {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}
