package dashboard

import (
	"sort"

	"github.com/rileyhilliard/statemon/internal/nodes"
)

// Handle indexes a node in the registry arena.
type Handle int

// Registry owns every monitored node. Nodes live in an arena addressed by
// Handle; names map to handles and are kept in lexicographic order for
// focus cycling. Nodes are never removed.
type Registry struct {
	nodes []*nodes.Node
	index map[string]Handle
	names []string
}

func NewRegistry() *Registry {
	return &Registry{index: make(map[string]Handle)}
}

// Register adds n under its name. Registering a name twice keeps the first
// node and reports false.
func (r *Registry) Register(n *nodes.Node) (Handle, bool) {
	if h, ok := r.index[n.Name()]; ok {
		return h, false
	}
	h := Handle(len(r.nodes))
	r.nodes = append(r.nodes, n)
	r.index[n.Name()] = h

	i := sort.SearchStrings(r.names, n.Name())
	r.names = append(r.names, "")
	copy(r.names[i+1:], r.names[i:])
	r.names[i] = n.Name()
	return h, true
}

// Node returns the node at h.
func (r *Registry) Node(h Handle) *nodes.Node {
	if h < 0 || int(h) >= len(r.nodes) {
		return nil
	}
	return r.nodes[h]
}

// Get looks a node up by name.
func (r *Registry) Get(name string) (*nodes.Node, bool) {
	h, ok := r.index[name]
	if !ok {
		return nil, false
	}
	return r.nodes[h], true
}

func (r *Registry) Has(name string) bool {
	_, ok := r.index[name]
	return ok
}

func (r *Registry) Len() int { return len(r.nodes) }

// Names returns every node name in lexicographic order.
func (r *Registry) Names() []string {
	out := make([]string, len(r.names))
	copy(out, r.names)
	return out
}

// First returns the lexicographically smallest name.
func (r *Registry) First() (string, bool) {
	if len(r.names) == 0 {
		return "", false
	}
	return r.names[0], true
}

// Next returns the name after name, wrapping to the first. An unknown name
// yields the first name.
func (r *Registry) Next(name string) string {
	if len(r.names) == 0 {
		return ""
	}
	i, ok := r.position(name)
	if !ok {
		return r.names[0]
	}
	return r.names[(i+1)%len(r.names)]
}

// Prev returns the name before name, wrapping to the last. An unknown name
// yields the last name.
func (r *Registry) Prev(name string) string {
	if len(r.names) == 0 {
		return ""
	}
	i, ok := r.position(name)
	if !ok {
		return r.names[len(r.names)-1]
	}
	return r.names[(i-1+len(r.names))%len(r.names)]
}

func (r *Registry) position(name string) (int, bool) {
	i := sort.SearchStrings(r.names, name)
	if i < len(r.names) && r.names[i] == name {
		return i, true
	}
	return 0, false
}
