package watch

import (
	"fmt"
	"strings"
	"sync"
	"time"
)

// DefaultKeyAttr is the attribute consulted first for stable block ids
const DefaultKeyAttr = "data-message-id"

// Callbacks receive block lifecycle events. OnStart fires when a block is
// first tracked, OnComplete when it settles with non-empty text, OnError
// when a host-provided hook fails for a tracked block. Callbacks run
// synchronously while the watcher holds its internal lock and must not
// call back into the watcher.
type Callbacks struct {
	OnStart    func(id string)
	OnComplete func(id, text string)
	OnError    func(id string, err error)
}

// tracked is the per-block record: last extracted text plus the pending
// debounce timer for the current finalize episode
type tracked struct {
	id         string
	lastText   string
	lastUpdate time.Time
	finalized  bool
	timer      *time.Timer
	gen        int // bumped on every re-arm; stale timer callbacks no-op
}

// Watcher observes a content tree, debounces streaming updates and emits
// exactly one completion per block per finalize episode
type Watcher struct {
	mu          sync.Mutex
	debounce    time.Duration
	keyAttr     string
	classifier  Classifier
	extractor   Extractor
	cb          Callbacks
	tracked     map[string]*tracked
	unsubscribe func()
	started     bool
	stopped     bool
	now         func() time.Time
}

// NewWatcher creates a watcher. A non-positive debounce falls back to the
// 500ms default; an empty keyAttr falls back to DefaultKeyAttr.
func NewWatcher(debounce time.Duration, keyAttr string, cb Callbacks) *Watcher {
	if debounce <= 0 {
		debounce = 500 * time.Millisecond
	}
	if keyAttr == "" {
		keyAttr = DefaultKeyAttr
	}

	return &Watcher{
		debounce: debounce,
		keyAttr:  keyAttr,
		cb:       cb,
		tracked:  make(map[string]*tracked),
		now:      time.Now,
	}
}

// Start scans the tree for blocks already matching the classifier, then
// subscribes to future mutations. A nil extractor defaults to TextContent.
func (w *Watcher) Start(tree Tree, classifier Classifier, extractor Extractor) error {
	if classifier == nil {
		return fmt.Errorf("classifier is required")
	}
	if extractor == nil {
		extractor = TextContent
	}

	w.mu.Lock()
	if w.started {
		w.mu.Unlock()
		return fmt.Errorf("watcher already started")
	}
	w.started = true
	w.classifier = classifier
	w.extractor = extractor

	// Initial synchronous scan: existing blocks are processed as if
	// newly observed
	for _, root := range tree.Roots() {
		w.scanLocked(root)
	}
	w.mu.Unlock()

	cancel := tree.Subscribe(w.handleMutation)

	w.mu.Lock()
	if w.stopped {
		w.mu.Unlock()
		cancel()
		return nil
	}
	w.unsubscribe = cancel
	w.mu.Unlock()

	return nil
}

// Stop unsubscribes and cancels every pending timer. Once Stop returns no
// further callback fires, even for timers that were about to elapse.
// Stop is idempotent.
func (w *Watcher) Stop() {
	w.mu.Lock()
	if w.stopped {
		w.mu.Unlock()
		return
	}
	w.stopped = true
	unsubscribe := w.unsubscribe
	w.unsubscribe = nil
	for _, t := range w.tracked {
		if t.timer != nil {
			t.timer.Stop()
			t.timer = nil
		}
	}
	w.mu.Unlock()

	if unsubscribe != nil {
		unsubscribe()
	}
}

// Reprocess forgets the block so its next matching mutation restarts the
// lifecycle with a fresh OnStart. Unknown ids are a no-op.
func (w *Watcher) Reprocess(id string) {
	w.mu.Lock()
	defer w.mu.Unlock()

	t, ok := w.tracked[id]
	if !ok {
		return
	}
	if t.timer != nil {
		t.timer.Stop()
	}
	delete(w.tracked, id)
}

// scanLocked walks a subtree and observes every matching block
func (w *Watcher) scanLocked(n *Node) {
	if w.classifier(n) {
		w.observeLocked(n)
		return
	}
	for _, c := range n.Children {
		w.scanLocked(c)
	}
}

// handleMutation resolves a mutation to its answer block and records it
func (w *Watcher) handleMutation(m Mutation) {
	if m.Target == nil {
		return
	}

	// Nearest ancestor (or self) satisfying the classifier; mutations
	// outside any block are ignored
	block := m.Target
	for block != nil && !w.classifier(block) {
		block = block.Parent
	}
	if block == nil {
		return
	}

	w.mu.Lock()
	defer w.mu.Unlock()
	if w.stopped {
		return
	}
	w.observeLocked(block)
}

// observeLocked updates tracking state for a block and re-arms its
// debounce timer
func (w *Watcher) observeLocked(block *Node) {
	id := w.blockID(block)

	t, ok := w.tracked[id]
	if ok && t.finalized {
		// Finalized blocks stay silent until Reprocess
		return
	}
	if !ok {
		t = &tracked{id: id}
		w.tracked[id] = t
		if w.cb.OnStart != nil {
			w.cb.OnStart(id)
		}
	}

	text, err := w.extract(block)
	if err != nil {
		if w.cb.OnError != nil {
			w.cb.OnError(id, err)
		}
		return
	}

	t.lastText = text
	t.lastUpdate = w.now()
	t.gen++
	gen := t.gen
	if t.timer != nil {
		t.timer.Stop()
	}
	t.timer = time.AfterFunc(w.debounce, func() {
		w.finalize(t, gen)
	})
}

// extract runs the host-provided extractor, converting a panic into an
// error instead of taking the watcher down
func (w *Watcher) extract(block *Node) (text string, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("extractor panic: %v", r)
		}
	}()
	return w.extractor(block), nil
}

// finalize marks a block settled once its debounce window elapsed without
// a re-arm
func (w *Watcher) finalize(t *tracked, gen int) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.stopped {
		return
	}
	cur, ok := w.tracked[t.id]
	if !ok || cur != t || cur.gen != gen || cur.finalized {
		// Reprocessed, superseded by a newer timer, or already done
		return
	}

	cur.timer = nil
	cur.finalized = true

	text := strings.TrimSpace(cur.lastText)
	if text == "" {
		// Empty results are dropped silently
		return
	}
	if w.cb.OnComplete != nil {
		w.cb.OnComplete(cur.id, text)
	}
}

// blockID derives a stable identifier: host key attribute first, then a
// deterministic positional path, then a synthetic timestamp id
func (w *Watcher) blockID(block *Node) string {
	if key := block.Attr(w.keyAttr); key != "" {
		return key
	}
	if path := positionalID(block); path != "" {
		return path
	}
	return fmt.Sprintf("resp-%d", w.now().UnixNano())
}

// positionalID builds a path of kind[index] segments from the topmost
// ancestor down to the block
func positionalID(block *Node) string {
	var segs []string
	for n := block; n != nil; n = n.Parent {
		idx := 0
		if n.Parent != nil {
			for i, c := range n.Parent.Children {
				if c == n {
					idx = i
					break
				}
			}
		}
		if n.Kind == "" {
			return ""
		}
		segs = append(segs, fmt.Sprintf("%s[%d]", n.Kind, idx))
	}

	// Reverse into root-first order
	for i, j := 0, len(segs)-1; i < j; i, j = i+1, j-1 {
		segs[i], segs[j] = segs[j], segs[i]
	}
	return strings.Join(segs, "/")
}
