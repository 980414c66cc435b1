package core

import "strings"

// Changes is a set of document lifecycle events.
type Changes uint8

const (
	Created Changes = 1 << iota
	Updated
	Removed

	// All matches every change.
	All = Created | Updated | Removed
)

// Has returns true if c contains every change in other.
func (c Changes) Has(other Changes) bool {
	return c&other == other
}

func (c Changes) String() string {
	var parts []string
	if c&Created != 0 {
		parts = append(parts, "created")
	}
	if c&Updated != 0 {
		parts = append(parts, "updated")
	}
	if c&Removed != 0 {
		parts = append(parts, "removed")
	}
	if len(parts) == 0 {
		return "none"
	}
	return strings.Join(parts, "|")
}

// ParseChanges parses a list of change names such as "created" or "removed".
func ParseChanges(names []string) (Changes, bool) {
	var c Changes
	for _, n := range names {
		switch strings.TrimSpace(strings.ToLower(n)) {
		case "created":
			c |= Created
		case "updated":
			c |= Updated
		case "removed":
			c |= Removed
		case "all":
			c |= All
		default:
			return 0, false
		}
	}
	return c, true
}
