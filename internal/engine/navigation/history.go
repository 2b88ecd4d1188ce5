package navigation

// History is a linear back/forward stack of visited files. It is a value:
// every transition returns a new History and leaves the receiver untouched,
// so independent panels can each hold their own copy. The zero value is an
// empty history.
type History struct {
	items  []string
	cursor int
}

// Push makes path the current entry, dropping anything after the cursor.
func (h History) Push(path string) History {
	keep := 0
	if len(h.items) > 0 {
		keep = h.cursor + 1
	}
	items := make([]string, keep, keep+1)
	copy(items, h.items[:keep])
	items = append(items, path)
	return History{items: items, cursor: len(items) - 1}
}

func (h History) Current() (string, bool) {
	if len(h.items) == 0 {
		return "", false
	}
	return h.items[h.cursor], true
}

// Back moves one entry back. At the first entry it returns the history
// unchanged and false.
func (h History) Back() (History, string, bool) {
	if !h.HasPrevious() {
		return h, "", false
	}
	h.cursor--
	return h, h.items[h.cursor], true
}

// Forward moves one entry forward. At the last entry it returns the history
// unchanged and false.
func (h History) Forward() (History, string, bool) {
	if !h.HasNext() {
		return h, "", false
	}
	h.cursor++
	return h, h.items[h.cursor], true
}

func (h History) HasPrevious() bool {
	return len(h.items) > 0 && h.cursor > 0
}

func (h History) HasNext() bool {
	return len(h.items) > 0 && h.cursor < len(h.items)-1
}

func (h History) Clear() History {
	return History{}
}

func (h History) Len() int {
	return len(h.items)
}

// Cursor returns the index of the current entry, or -1 when empty.
func (h History) Cursor() int {
	if len(h.items) == 0 {
		return -1
	}
	return h.cursor
}

func (h History) Items() []string {
	return append([]string(nil), h.items...)
}
