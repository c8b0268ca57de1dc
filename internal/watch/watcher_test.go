package watch

import (
	"strings"
	"sync"
	"testing"
	"time"
)

// recorder collects callback invocations so tests can assert on ordering
// and counts without racing the watcher
type recorder struct {
	mu        sync.Mutex
	starts    []string
	completes []completion
	errs      []string
}

type completion struct {
	id   string
	text string
}

func (r *recorder) callbacks() Callbacks {
	return Callbacks{
		OnStart: func(id string) {
			r.mu.Lock()
			r.starts = append(r.starts, id)
			r.mu.Unlock()
		},
		OnComplete: func(id, text string) {
			r.mu.Lock()
			r.completes = append(r.completes, completion{id: id, text: text})
			r.mu.Unlock()
		},
		OnError: func(id string, err error) {
			r.mu.Lock()
			r.errs = append(r.errs, id+": "+err.Error())
			r.mu.Unlock()
		},
	}
}

func (r *recorder) snapshot() (starts []string, completes []completion, errs []string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.starts...),
		append([]completion(nil), r.completes...),
		append([]string(nil), r.errs...)
}

func answerClassifier(n *Node) bool {
	return n.Attr("data-message-id") != ""
}

func answerBlock(id string) *Node {
	return &Node{
		Kind:  "div",
		Attrs: map[string]string{"data-message-id": id},
	}
}

func TestWatcher_SingleCompletionAfterDebounce(t *testing.T) {
	rec := &recorder{}
	w := NewWatcher(40*time.Millisecond, "", rec.callbacks())
	tree := NewMemTree()

	if err := w.Start(tree, answerClassifier, nil); err != nil {
		t.Fatalf("start failed: %v", err)
	}
	defer w.Stop()

	block := answerBlock("msg-1")
	tree.AddRoot(block)

	text := &Node{Kind: "#text", Text: "Par"}
	tree.Append(block, text)
	tree.SetText(text, "Paragraph")

	time.Sleep(120 * time.Millisecond)

	starts, completes, _ := rec.snapshot()
	if len(starts) != 1 || starts[0] != "msg-1" {
		t.Errorf("expected one start for msg-1, got %v", starts)
	}
	if len(completes) != 1 {
		t.Fatalf("expected exactly one completion, got %d", len(completes))
	}
	if completes[0].text != "Paragraph" {
		t.Errorf("expected final text %q, got %q", "Paragraph", completes[0].text)
	}
}

func TestWatcher_ContinuousMutationDefersCompletion(t *testing.T) {
	rec := &recorder{}
	w := NewWatcher(60*time.Millisecond, "", rec.callbacks())
	tree := NewMemTree()

	if err := w.Start(tree, answerClassifier, nil); err != nil {
		t.Fatalf("start failed: %v", err)
	}
	defer w.Stop()

	block := answerBlock("msg-stream")
	tree.AddRoot(block)
	text := &Node{Kind: "#text"}
	tree.Append(block, text)

	// Mutate well under the debounce interval for a while
	for i := 0; i < 15; i++ {
		tree.SetText(text, strings.Repeat("word ", i+1))
		time.Sleep(15 * time.Millisecond)
	}

	_, completes, _ := rec.snapshot()
	if len(completes) != 0 {
		t.Fatalf("expected no completion while streaming, got %d", len(completes))
	}

	// Quiescence lets the block settle once
	time.Sleep(150 * time.Millisecond)
	_, completes, _ = rec.snapshot()
	if len(completes) != 1 {
		t.Fatalf("expected one completion after quiescence, got %d", len(completes))
	}
	if completes[0].text != strings.TrimSpace(strings.Repeat("word ", 15)) {
		t.Errorf("completion carried stale text: %q", completes[0].text)
	}
}

func TestWatcher_FinalizedBlockStaysSilent(t *testing.T) {
	rec := &recorder{}
	w := NewWatcher(30*time.Millisecond, "", rec.callbacks())
	tree := NewMemTree()

	if err := w.Start(tree, answerClassifier, nil); err != nil {
		t.Fatalf("start failed: %v", err)
	}
	defer w.Stop()

	block := answerBlock("msg-done")
	tree.AddRoot(block)
	text := &Node{Kind: "#text", Text: "settled answer"}
	tree.Append(block, text)

	time.Sleep(100 * time.Millisecond)

	// Further edits to a finalized block must not trigger anything
	tree.SetText(text, "edited afterwards")
	time.Sleep(100 * time.Millisecond)

	starts, completes, _ := rec.snapshot()
	if len(starts) != 1 {
		t.Errorf("expected one start, got %d", len(starts))
	}
	if len(completes) != 1 {
		t.Fatalf("expected one completion, got %d", len(completes))
	}
	if completes[0].text != "settled answer" {
		t.Errorf("unexpected completion text %q", completes[0].text)
	}
}

func TestWatcher_ReprocessRestartsLifecycle(t *testing.T) {
	rec := &recorder{}
	w := NewWatcher(30*time.Millisecond, "", rec.callbacks())
	tree := NewMemTree()

	if err := w.Start(tree, answerClassifier, nil); err != nil {
		t.Fatalf("start failed: %v", err)
	}
	defer w.Stop()

	block := answerBlock("msg-retry")
	tree.AddRoot(block)
	text := &Node{Kind: "#text", Text: "first pass"}
	tree.Append(block, text)
	time.Sleep(100 * time.Millisecond)

	w.Reprocess("msg-retry")
	tree.SetText(text, "second pass")
	time.Sleep(100 * time.Millisecond)

	starts, completes, _ := rec.snapshot()
	if len(starts) != 2 {
		t.Errorf("expected a fresh start after reprocess, got %d starts", len(starts))
	}
	if len(completes) != 2 {
		t.Fatalf("expected two completions, got %d", len(completes))
	}
	if completes[1].text != "second pass" {
		t.Errorf("second completion carried %q", completes[1].text)
	}
}

func TestWatcher_ReprocessUnknownIDIsNoop(t *testing.T) {
	w := NewWatcher(30*time.Millisecond, "", Callbacks{})
	tree := NewMemTree()
	if err := w.Start(tree, answerClassifier, nil); err != nil {
		t.Fatalf("start failed: %v", err)
	}
	defer w.Stop()

	w.Reprocess("never-seen")
}

func TestWatcher_StopCancelsPendingTimers(t *testing.T) {
	rec := &recorder{}
	w := NewWatcher(40*time.Millisecond, "", rec.callbacks())
	tree := NewMemTree()

	if err := w.Start(tree, answerClassifier, nil); err != nil {
		t.Fatalf("start failed: %v", err)
	}

	block := answerBlock("msg-stop")
	tree.AddRoot(block)
	tree.Append(block, &Node{Kind: "#text", Text: "about to settle"})

	w.Stop()
	w.Stop() // idempotent

	time.Sleep(120 * time.Millisecond)

	_, completes, _ := rec.snapshot()
	if len(completes) != 0 {
		t.Errorf("expected no completion after stop, got %d", len(completes))
	}
}

func TestWatcher_EmptyTextDroppedSilently(t *testing.T) {
	rec := &recorder{}
	w := NewWatcher(30*time.Millisecond, "", rec.callbacks())
	tree := NewMemTree()

	if err := w.Start(tree, answerClassifier, nil); err != nil {
		t.Fatalf("start failed: %v", err)
	}
	defer w.Stop()

	block := answerBlock("msg-empty")
	tree.AddRoot(block)
	tree.Append(block, &Node{Kind: "#text", Text: "   \n\t  "})

	time.Sleep(100 * time.Millisecond)

	starts, completes, errs := rec.snapshot()
	if len(starts) != 1 {
		t.Errorf("expected tracking to start, got %d starts", len(starts))
	}
	if len(completes) != 0 {
		t.Errorf("expected whitespace-only block to be dropped, got %d completions", len(completes))
	}
	if len(errs) != 0 {
		t.Errorf("expected no errors, got %v", errs)
	}
}

func TestWatcher_InitialScanPicksUpExistingBlocks(t *testing.T) {
	rec := &recorder{}
	w := NewWatcher(30*time.Millisecond, "", rec.callbacks())

	tree := NewMemTree()
	block := answerBlock("msg-preexisting")
	block.Children = []*Node{{Kind: "#text", Text: "already rendered", Parent: block}}
	tree.AddRoot(block)

	if err := w.Start(tree, answerClassifier, nil); err != nil {
		t.Fatalf("start failed: %v", err)
	}
	defer w.Stop()

	time.Sleep(100 * time.Millisecond)

	starts, completes, _ := rec.snapshot()
	if len(starts) != 1 || starts[0] != "msg-preexisting" {
		t.Errorf("expected initial scan to start tracking, got %v", starts)
	}
	if len(completes) != 1 || completes[0].text != "already rendered" {
		t.Errorf("expected completion for pre-existing block, got %v", completes)
	}
}

func TestWatcher_MutationOutsideBlockIgnored(t *testing.T) {
	rec := &recorder{}
	w := NewWatcher(30*time.Millisecond, "", rec.callbacks())
	tree := NewMemTree()

	if err := w.Start(tree, answerClassifier, nil); err != nil {
		t.Fatalf("start failed: %v", err)
	}
	defer w.Stop()

	sidebar := &Node{Kind: "nav"}
	tree.AddRoot(sidebar)
	tree.Append(sidebar, &Node{Kind: "#text", Text: "navigation chrome"})

	time.Sleep(100 * time.Millisecond)

	starts, completes, _ := rec.snapshot()
	if len(starts) != 0 || len(completes) != 0 {
		t.Errorf("expected chrome mutations to be ignored, got starts=%v completes=%v", starts, completes)
	}
}

func TestWatcher_NestedMutationResolvesToBlock(t *testing.T) {
	rec := &recorder{}
	w := NewWatcher(30*time.Millisecond, "", rec.callbacks())
	tree := NewMemTree()

	if err := w.Start(tree, answerClassifier, nil); err != nil {
		t.Fatalf("start failed: %v", err)
	}
	defer w.Stop()

	block := answerBlock("msg-nested")
	tree.AddRoot(block)
	para := &Node{Kind: "p"}
	tree.Append(block, para)
	tree.Append(para, &Node{Kind: "#text", Text: "deeply nested text"})

	time.Sleep(100 * time.Millisecond)

	_, completes, _ := rec.snapshot()
	if len(completes) != 1 {
		t.Fatalf("expected one completion, got %d", len(completes))
	}
	if completes[0].id != "msg-nested" {
		t.Errorf("expected mutation to resolve to ancestor block, got id %q", completes[0].id)
	}
}

func TestWatcher_ExtractorPanicReportsError(t *testing.T) {
	rec := &recorder{}
	w := NewWatcher(30*time.Millisecond, "", rec.callbacks())
	tree := NewMemTree()

	panicky := func(*Node) string { panic("hook exploded") }
	if err := w.Start(tree, answerClassifier, panicky); err != nil {
		t.Fatalf("start failed: %v", err)
	}
	defer w.Stop()

	tree.AddRoot(answerBlock("msg-panic"))
	time.Sleep(100 * time.Millisecond)

	_, completes, errs := rec.snapshot()
	if len(errs) != 1 {
		t.Fatalf("expected one error, got %v", errs)
	}
	if !strings.Contains(errs[0], "hook exploded") {
		t.Errorf("error should carry the panic value, got %q", errs[0])
	}
	if len(completes) != 0 {
		t.Errorf("expected no completion after extractor failure, got %d", len(completes))
	}
}

func TestWatcher_StartRequiresClassifier(t *testing.T) {
	w := NewWatcher(0, "", Callbacks{})
	if err := w.Start(NewMemTree(), nil, nil); err == nil {
		t.Error("expected error for nil classifier")
	}
}

func TestWatcher_StartTwiceFails(t *testing.T) {
	w := NewWatcher(30*time.Millisecond, "", Callbacks{})
	tree := NewMemTree()
	if err := w.Start(tree, answerClassifier, nil); err != nil {
		t.Fatalf("start failed: %v", err)
	}
	defer w.Stop()

	if err := w.Start(tree, answerClassifier, nil); err == nil {
		t.Error("expected error for second start")
	}
}

func TestWatcher_BlockIDPrefersKeyAttr(t *testing.T) {
	w := NewWatcher(0, "", Callbacks{})
	block := answerBlock("explicit-id")
	if got := w.blockID(block); got != "explicit-id" {
		t.Errorf("expected key attribute id, got %q", got)
	}
}

func TestWatcher_BlockIDFallsBackToPosition(t *testing.T) {
	w := NewWatcher(0, "", Callbacks{})

	root := &Node{Kind: "main"}
	first := &Node{Kind: "div", Parent: root}
	second := &Node{Kind: "div", Parent: root}
	root.Children = []*Node{first, second}

	id1 := w.blockID(first)
	id2 := w.blockID(second)
	if id1 == "" || id2 == "" {
		t.Fatalf("expected positional ids, got %q and %q", id1, id2)
	}
	if id1 == id2 {
		t.Errorf("siblings must get distinct positional ids, both %q", id1)
	}
	if id1 != "main[0]/div[0]" {
		t.Errorf("expected root-first path, got %q", id1)
	}
}

func TestWatcher_BlockIDLastResortIsSynthetic(t *testing.T) {
	w := NewWatcher(0, "", Callbacks{})
	block := &Node{} // no key attribute, no kind for a positional path
	id := w.blockID(block)
	if !strings.HasPrefix(id, "resp-") {
		t.Errorf("expected synthetic id, got %q", id)
	}
}

func TestWatcher_LastWriterWinsForSharedID(t *testing.T) {
	rec := &recorder{}
	w := NewWatcher(30*time.Millisecond, "", rec.callbacks())
	tree := NewMemTree()

	if err := w.Start(tree, answerClassifier, nil); err != nil {
		t.Fatalf("start failed: %v", err)
	}
	defer w.Stop()

	a := answerBlock("shared")
	b := answerBlock("shared")
	aText := &Node{Kind: "#text", Text: "from block a"}
	bText := &Node{Kind: "#text", Text: "from block b"}
	a.Children = []*Node{aText}
	aText.Parent = a
	b.Children = []*Node{bText}
	bText.Parent = b

	tree.AddRoot(a)
	tree.AddRoot(b)

	time.Sleep(100 * time.Millisecond)

	starts, completes, _ := rec.snapshot()
	if len(starts) != 1 {
		t.Errorf("shared id should start once, got %d", len(starts))
	}
	if len(completes) != 1 {
		t.Fatalf("shared id should complete once, got %d", len(completes))
	}
	if completes[0].text != "from block b" {
		t.Errorf("expected last writer to win, got %q", completes[0].text)
	}
}
