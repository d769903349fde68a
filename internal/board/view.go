package board

import (
	"sync"
)

// View is the landing page state of one browsing session: the active
// criteria and the page being looked at. Any change of criteria moves the
// view back to page 1.
type View struct {
	mu       sync.Mutex
	criteria Criteria
	page     int
}

func NewView() *View {
	return &View{criteria: DefaultCriteria(), page: 1}
}

// SetCriteria replaces the criteria and reports whether they changed. A
// change resets the page to 1.
func (v *View) SetCriteria(c Criteria) bool {
	v.mu.Lock()
	defer v.mu.Unlock()

	if c == v.criteria {
		return false
	}
	v.criteria = c
	v.page = 1
	return true
}

// SetPage moves to page n. Values below 1 are clamped to 1.
func (v *View) SetPage(n int) {
	v.mu.Lock()
	defer v.mu.Unlock()

	if n < 1 {
		n = 1
	}
	v.page = n
}

func (v *View) Criteria() Criteria {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.criteria
}

func (v *View) Page() int {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.page
}

// Apply records a list request: new criteria always win over the requested
// page, otherwise requestedPage (when > 0) becomes the current page.
func (v *View) Apply(c Criteria, requestedPage int) (Criteria, int) {
	v.mu.Lock()
	defer v.mu.Unlock()

	if c != v.criteria {
		v.criteria = c
		v.page = 1
	} else if requestedPage > 0 {
		v.page = requestedPage
	}
	return v.criteria, v.page
}

// Turn keeps the criteria and moves to requestedPage when it is > 0. It
// returns the pair a caller should render.
func (v *View) Turn(requestedPage int) (Criteria, int) {
	v.mu.Lock()
	defer v.mu.Unlock()

	if requestedPage > 0 {
		v.page = requestedPage
	}
	return v.criteria, v.page
}
