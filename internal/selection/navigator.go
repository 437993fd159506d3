package selection

import (
	"net/url"
	"slices"
	"strings"
)

// QueryParam is the location query parameter carrying the selected id.
const QueryParam = "id"

// Navigator is the navigation-history capability the controller drives.
// Push adds an entry, Replace rewrites the current one, and subscribers are
// called when the current entry changes underneath the controller (back and
// forward).
type Navigator interface {
	Read() (string, bool)
	Push(id string)
	Replace(id string)
	Subscribe(fn func()) (cancel func())
}

// History is an in-memory Navigator holding one query string per entry.
type History struct {
	entries     []url.Values
	index       int
	subscribers []subscriber
	nextSub     int
}

type subscriber struct {
	id int
	fn func()
}

// NewHistory starts a history at location. Only the query part of location
// is kept, so "documents.html?id=x", "?id=x" and "id=x" are equivalent.
func NewHistory(location string) *History {
	if i := strings.IndexByte(location, '?'); i >= 0 {
		location = location[i+1:]
	}
	values, err := url.ParseQuery(location)
	if err != nil {
		values = url.Values{}
	}
	return &History{
		entries: []url.Values{values},
	}
}

func (h *History) current() url.Values {
	return h.entries[h.index]
}

// Read returns the id in the current entry
func (h *History) Read() (string, bool) {
	id := h.current().Get(QueryParam)
	return id, id != ""
}

func (h *History) withID(id string) url.Values {
	next := url.Values{}
	for k, v := range h.current() {
		next[k] = append([]string(nil), v...)
	}
	if id == "" {
		next.Del(QueryParam)
	} else {
		next.Set(QueryParam, id)
	}
	return next
}

// Push appends an entry for id and drops any forward entries
func (h *History) Push(id string) {
	next := h.withID(id)
	h.entries = append(h.entries[:h.index+1], next)
	h.index++
}

// Replace rewrites the current entry
func (h *History) Replace(id string) {
	h.entries[h.index] = h.withID(id)
}

// Back moves to the previous entry and notifies subscribers
func (h *History) Back() bool {
	if h.index == 0 {
		return false
	}
	h.index--
	h.notify()
	return true
}

// Forward moves to the next entry and notifies subscribers
func (h *History) Forward() bool {
	if h.index >= len(h.entries)-1 {
		return false
	}
	h.index++
	h.notify()
	return true
}

// Len reports the number of entries
func (h *History) Len() int {
	return len(h.entries)
}

// Location renders the current entry as a query string, e.g. "?id=abc"
func (h *History) Location() string {
	encoded := h.current().Encode()
	if encoded == "" {
		return ""
	}
	return "?" + encoded
}

// Subscribe registers fn for back/forward events. Subscribers are called in
// registration order.
func (h *History) Subscribe(fn func()) func() {
	id := h.nextSub
	h.nextSub++
	h.subscribers = append(h.subscribers, subscriber{id: id, fn: fn})
	return func() {
		h.subscribers = slices.DeleteFunc(h.subscribers, func(s subscriber) bool {
			return s.id == id
		})
	}
}

func (h *History) notify() {
	for _, s := range slices.Clone(h.subscribers) {
		s.fn()
	}
}
