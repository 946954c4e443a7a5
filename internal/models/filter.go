package models

import "time"

// Filter narrows every sub-fetch to submissions inside [From, To).
type Filter struct {
	From *time.Time `json:"from,omitempty"`
	To   *time.Time `json:"to,omitempty"`
}

// Key identifies the filter in the bundle cache.
func (f Filter) Key() string {
	return boundKey(f.From) + ".." + boundKey(f.To)
}

func boundKey(t *time.Time) string {
	if t == nil {
		return "*"
	}
	return t.UTC().Format(time.RFC3339Nano)
}
