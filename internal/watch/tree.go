package watch

import "sync"

// Node is one element of an observed content tree
type Node struct {
	Kind     string // element name, or "#text" for text nodes
	Text     string
	Attrs    map[string]string
	Parent   *Node
	Children []*Node
}

// Attr returns the named attribute, or "" when absent
func (n *Node) Attr(name string) string {
	if n.Attrs == nil {
		return ""
	}
	return n.Attrs[name]
}

// Mutation describes one observed change to a tree
type Mutation struct {
	Target *Node // the added node or the node whose text changed
}

// Tree is the injected observation capability. The watcher only needs an
// initial scan plus a mutation stream; the concrete tree stays host-owned.
type Tree interface {
	// Roots returns the current top-level nodes for the initial scan
	Roots() []*Node

	// Subscribe registers fn for future mutations and returns a cancel
	// function. A delivery already in flight when cancel returns may
	// still arrive; the watcher filters those itself.
	Subscribe(fn func(Mutation)) (cancel func())
}

// MemTree is an in-memory mutable Tree. Hosts feed observed changes into
// it; tests drive the watcher with it directly.
type MemTree struct {
	mu    sync.Mutex
	roots []*Node
	subs  map[int]func(Mutation)
	next  int
}

// NewMemTree creates an empty tree
func NewMemTree() *MemTree {
	return &MemTree{subs: make(map[int]func(Mutation))}
}

// Roots returns the current top-level nodes
func (t *MemTree) Roots() []*Node {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make([]*Node, len(t.roots))
	copy(out, t.roots)
	return out
}

// Subscribe registers a mutation callback
func (t *MemTree) Subscribe(fn func(Mutation)) (cancel func()) {
	t.mu.Lock()
	id := t.next
	t.next++
	t.subs[id] = fn
	t.mu.Unlock()

	return func() {
		t.mu.Lock()
		delete(t.subs, id)
		t.mu.Unlock()
	}
}

// AddRoot attaches a top-level node and notifies subscribers
func (t *MemTree) AddRoot(n *Node) {
	t.mu.Lock()
	t.roots = append(t.roots, n)
	t.mu.Unlock()
	t.notify(Mutation{Target: n})
}

// Append attaches child under parent and notifies subscribers
func (t *MemTree) Append(parent, child *Node) {
	t.mu.Lock()
	child.Parent = parent
	parent.Children = append(parent.Children, child)
	t.mu.Unlock()
	t.notify(Mutation{Target: child})
}

// SetText replaces a node's text and notifies subscribers
func (t *MemTree) SetText(n *Node, text string) {
	t.mu.Lock()
	n.Text = text
	t.mu.Unlock()
	t.notify(Mutation{Target: n})
}

func (t *MemTree) notify(m Mutation) {
	t.mu.Lock()
	fns := make([]func(Mutation), 0, len(t.subs))
	for _, fn := range t.subs {
		fns = append(fns, fn)
	}
	t.mu.Unlock()

	for _, fn := range fns {
		fn(m)
	}
}
