package dedupe

import "github.com/DeafMist/tripboard/backend/internal/processing"

// Labels remembers display labels already placed in a list.
// Comparison is case-insensitive and ignores surrounding and repeated whitespace.
// The zero value is not usable; call NewLabels.
type Labels struct {
	seen map[string]struct{}
}

// NewLabels creates an empty label set sized for n entries.
func NewLabels(n int) *Labels {
	if n < 0 {
		n = 0
	}
	return &Labels{seen: make(map[string]struct{}, n)}
}

// Add records label and reports whether it was new. Blank labels are never new.
func (l *Labels) Add(label string) bool {
	key := processing.LabelKey(label)
	if key == "" {
		return false
	}
	if _, ok := l.seen[key]; ok {
		return false
	}
	l.seen[key] = struct{}{}
	return true
}

// Len returns the number of distinct labels recorded.
func (l *Labels) Len() int {
	return len(l.seen)
}
