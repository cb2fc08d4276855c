package prospection

import "sync"

// Session is the UI state a field worker carries across actions: the category
// new visits are filed under and the category the map is filtered on. It is
// created at startup and handed explicitly to whoever needs it.
type Session struct {
	mu       sync.RWMutex
	selected *int
	filter   *int
}

// SessionState is a snapshot of a Session.
type SessionState struct {
	SelectedCategoryID *int `json:"selected_category_id"`
	FilterCategoryID   *int `json:"filter_category_id"`
}

func NewSession() *Session {
	return &Session{}
}

func (s *Session) State() SessionState {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return SessionState{
		SelectedCategoryID: copyInt(s.selected),
		FilterCategoryID:   copyInt(s.filter),
	}
}

// SelectCategory sets the category for subsequent visits; nil clears it.
func (s *Session) SelectCategory(id *int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.selected = copyInt(id)
}

// SetFilter reports whether the filter actually changed, in which case every
// building on the map has to be recolored.
func (s *Session) SetFilter(id *int) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	changed := !sameCategory(s.filter, id)
	s.filter = copyInt(id)
	return changed
}

func copyInt(p *int) *int {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}
