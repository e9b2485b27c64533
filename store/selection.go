// ABOUTME: Insertion-ordered principal selection with an optional batch limit
// ABOUTME: The limit applies only while batch mode is on
package store

type selection struct {
	order     []string
	set       map[string]struct{}
	batchMode bool
	max       int
}

func newSelection(max int) *selection {
	return &selection{set: make(map[string]struct{}), max: max}
}

func (sel *selection) has(id string) bool {
	_, ok := sel.set[id]
	return ok
}

func (sel *selection) full() bool {
	return sel.batchMode && sel.max > 0 && len(sel.order) >= sel.max
}

// add selects id unless it is already selected or the limit is reached.
func (sel *selection) add(id string) bool {
	if id == "" || sel.has(id) || sel.full() {
		return false
	}
	sel.set[id] = struct{}{}
	sel.order = append(sel.order, id)
	return true
}

func (sel *selection) remove(id string) {
	if !sel.has(id) {
		return
	}
	delete(sel.set, id)
	for i, v := range sel.order {
		if v == id {
			sel.order = append(sel.order[:i], sel.order[i+1:]...)
			break
		}
	}
}

func (sel *selection) clear() {
	sel.order = nil
	sel.set = make(map[string]struct{})
}

func (sel *selection) ids() []string {
	return append([]string(nil), sel.order...)
}

// enforce trims the selection to the limit, keeping the earliest picks.
func (sel *selection) enforce() {
	if !sel.batchMode || sel.max <= 0 || len(sel.order) <= sel.max {
		return
	}
	for _, id := range sel.order[sel.max:] {
		delete(sel.set, id)
	}
	sel.order = sel.order[:sel.max]
}

// ToggleSelection selects or deselects id. Selecting a new id at the batch
// limit does nothing. It reports whether id is selected afterwards.
func (s *Store) ToggleSelection(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.selection.has(id) {
		s.selection.remove(id)
		return false
	}
	return s.selection.add(id)
}

// SelectPrincipals adds ids to the selection until the limit is reached.
func (s *Store) SelectPrincipals(ids []string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, id := range ids {
		s.selection.add(id)
	}
}

// SelectAll selects the principals on the loaded page only.
func (s *Store) SelectAll() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, r := range s.principals {
		s.selection.add(r.PrincipalID)
	}
}

func (s *Store) ClearSelections() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.selection.clear()
}

// SelectedIDs returns the selection in the order it was made.
func (s *Store) SelectedIDs() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.selection.ids()
}

func (s *Store) IsSelected(id string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.selection.has(id)
}

// SetBatchMode turns batch selection on or off. A positive maxSelections
// replaces the limit; an existing selection over the limit is trimmed.
func (s *Store) SetBatchMode(enabled bool, maxSelections int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.selection.batchMode = enabled
	if maxSelections > 0 {
		s.selection.max = maxSelections
	}
	s.selection.enforce()
}

func (s *Store) IsBatchMode() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.selection.batchMode
}

// IsMaxSelectionsReached reports whether batch mode is at its limit.
func (s *Store) IsMaxSelectionsReached() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.selection.full()
}
