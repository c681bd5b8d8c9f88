package section

import "shuassist-backend/internal/extract/classify"

// Tracker holds the section key that applies to every row until the next marker. It starts
// in NoSection unless an initial key is given.
type Tracker struct {
	key         string
	active      bool
	transitions int
}

func NewTracker() *Tracker {
	return &Tracker{}
}

// NewTrackerIn creates a tracker that is already in the given section, an empty key is
// the same as NewTracker.
func NewTrackerIn(key string) *Tracker {
	return &Tracker{key: key, active: key != ""}
}

// Enter transitions to InSection(key).
func (t *Tracker) Enter(key string) {
	t.key = key
	t.active = true
	t.transitions++
}

// Observe enters the section carried by a SectionMarker result and reports whether the
// result was a marker, every other category leaves the state untouched.
func (t *Tracker) Observe(res classify.Result) bool {
	if res.Category != classify.SECTION_MARKER {
		return false
	}
	t.Enter(res.Key())
	return true
}

// Current returns the active section key, ok is false while in NoSection.
func (t *Tracker) Current() (key string, ok bool) {
	return t.key, t.active
}

// Transitions counts how many markers were observed.
func (t *Tracker) Transitions() int {
	return t.transitions
}
