// Package selection tracks which playlist items the user marked for download.
package selection

import (
	"sync"

	"github.com/veranemoloko/media-downloader/internal/domain"
)

// State is the "select all" checkbox state derived from the selection.
type State int

const (
	StateNone State = iota
	StatePartial
	StateAll
)

func (s State) String() string {
	switch s {
	case StateAll:
		return "all"
	case StatePartial:
		return "partial"
	default:
		return "none"
	}
}

// Model holds the known item ids and the selected subset of them.
// The selected set is always a subset of the known set.
type Model struct {
	mu       sync.RWMutex
	order    []string
	known    map[string]struct{}
	selected map[string]struct{}
}

// NewModel creates a model with no known items.
func NewModel() *Model {
	return &Model{
		known:    make(map[string]struct{}),
		selected: make(map[string]struct{}),
	}
}

// Initialize replaces the known ids with those of items and clears the selection.
func (m *Model) Initialize(items []domain.PlaylistItem) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.order = make([]string, 0, len(items))
	m.known = make(map[string]struct{}, len(items))
	m.selected = make(map[string]struct{})
	for _, id := range domain.ItemIDs(items) {
		if _, dup := m.known[id]; dup {
			continue
		}
		m.known[id] = struct{}{}
		m.order = append(m.order, id)
	}
}

// Toggle flips the selection of id. Unknown ids are ignored and false is returned.
func (m *Model) Toggle(id string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.known[id]; !ok {
		return false
	}
	if _, ok := m.selected[id]; ok {
		delete(m.selected, id)
	} else {
		m.selected[id] = struct{}{}
	}
	return true
}

// ToggleAll clears a full selection and otherwise selects every known item,
// so a partial selection always advances to all.
func (m *Model) ToggleAll() {
	m.mu.Lock()
	defer m.mu.Unlock()

	if len(m.known) > 0 && len(m.selected) == len(m.known) {
		m.selected = make(map[string]struct{})
		return
	}
	m.selected = make(map[string]struct{}, len(m.known))
	for id := range m.known {
		m.selected[id] = struct{}{}
	}
}

// State derives the tri-state value from the selection.
func (m *Model) State() State {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.stateLocked()
}

func (m *Model) stateLocked() State {
	switch {
	case len(m.selected) == 0:
		return StateNone
	case len(m.selected) == len(m.known):
		return StateAll
	default:
		return StatePartial
	}
}

// IsFullySelected reports whether every known item is selected.
// A model without items is never fully selected.
func (m *Model) IsFullySelected() bool {
	return m.State() == StateAll
}

// SelectionCount returns the number of selected items.
func (m *Model) SelectionCount() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.selected)
}

// KnownCount returns the number of known items.
func (m *Model) KnownCount() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.order)
}

// IsSelected reports whether id is selected.
func (m *Model) IsSelected(id string) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	_, ok := m.selected[id]
	return ok
}

// Selected returns the selected ids in playlist order.
func (m *Model) Selected() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()

	ids := make([]string, 0, len(m.selected))
	for _, id := range m.order {
		if _, ok := m.selected[id]; ok {
			ids = append(ids, id)
		}
	}
	return ids
}
