// Package nodemap keeps named aliases for mesh node IDs.
package nodemap

import (
	"sort"
	"strings"
	"sync"

	"meshsend/node"
)

// Entry is a named node.
type Entry struct {
	// ID is the configured node-ID string, e.g. "!deadbeef".
	ID string
	// Addr is ID parsed; zero when ID does not parse.
	Addr node.Address
	// Err is the parse error for ID, if any.
	Err error
}

type Map struct {
	mu    sync.RWMutex
	nodes map[string]Entry
}

// Node is an entry along with its alias.
type Node struct {
	Name string
	Entry
}

func New() *Map {
	return &Map{nodes: make(map[string]Entry)}
}

// FromConfig builds a Map from the config file's nodes section.
func FromConfig(aliases map[string]string) *Map {
	m := New()
	for name, id := range aliases {
		m.Update(name, id)
	}
	return m
}

// Update sets the node ID for name. Names are case-insensitive.
func (m *Map) Update(name, id string) {
	key := normalize(name)
	if key == "" {
		return
	}
	id = strings.TrimSpace(id)
	e := Entry{ID: id}
	e.Addr, e.Err = node.ParseAddress(id)
	m.mu.Lock()
	m.nodes[key] = e
	m.mu.Unlock()
}

// Resolve returns the node-ID string for a known alias, or s unchanged.
func (m *Map) Resolve(s string) string {
	m.mu.RLock()
	e, ok := m.nodes[normalize(s)]
	m.mu.RUnlock()
	if !ok {
		return s
	}
	return e.ID
}

// Lookup returns the entry for name.
func (m *Map) Lookup(name string) (Entry, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	e, ok := m.nodes[normalize(name)]
	return e, ok
}

// Len returns the number of aliases.
func (m *Map) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.nodes)
}

// List returns a snapshot of all aliases sorted by name.
func (m *Map) List() []Node {
	m.mu.RLock()
	nodes := make([]Node, 0, len(m.nodes))
	for name, e := range m.nodes {
		nodes = append(nodes, Node{Name: name, Entry: e})
	}
	m.mu.RUnlock()
	sort.Slice(nodes, func(i, j int) bool { return nodes[i].Name < nodes[j].Name })
	return nodes
}

func normalize(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}
