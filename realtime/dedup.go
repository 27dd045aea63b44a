package realtime

// dedupWindow remembers the last size notification ids in FIFO order.
type dedupWindow struct {
	size  int
	order []string
	next  int
	seen  map[string]struct{}
}

// newDedupWindow returns nil when size is not positive, which disables dedup.
func newDedupWindow(size int) *dedupWindow {
	if size <= 0 {
		return nil
	}
	return &dedupWindow{
		size:  size,
		order: make([]string, 0, size),
		seen:  make(map[string]struct{}, size),
	}
}

// admit records id and reports whether it was not already in the window.
// Empty ids are always admitted.
func (w *dedupWindow) admit(id string) bool {
	if w == nil || id == "" {
		return true
	}
	if _, dup := w.seen[id]; dup {
		return false
	}

	if len(w.order) < w.size {
		w.order = append(w.order, id)
	} else {
		delete(w.seen, w.order[w.next])
		w.order[w.next] = id
		w.next = (w.next + 1) % w.size
	}
	w.seen[id] = struct{}{}
	return true
}
