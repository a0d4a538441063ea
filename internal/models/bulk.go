package models

import "strings"

// AllSelectedKey is the bulk target sentinel meaning "every asset matching the current filters"
const AllSelectedKey = "all-selected"

// Mode is the asset index mode persisted in the user's settings
type Mode string

const (
	ModeSimple   Mode = "SIMPLE"
	ModeAdvanced Mode = "ADVANCED"
)

// ParseMode converts a string to a Mode. Anything but ADVANCED is SIMPLE.
func ParseMode(s string) Mode {
	if strings.EqualFold(strings.TrimSpace(s), string(ModeAdvanced)) {
		return ModeAdvanced
	}
	return ModeSimple
}

// BulkTarget is the set of assets a bulk action applies to
type BulkTarget struct {
	IDs []string
}

// SelectAll reports whether the target carries the select-all sentinel
func (t BulkTarget) SelectAll() bool {
	for _, id := range t.IDs {
		if id == AllSelectedKey {
			return true
		}
	}
	return false
}

// Explicit reports whether the target is a plain, non-empty ID list
func (t BulkTarget) Explicit() bool {
	return len(t.IDs) > 0 && !t.SelectAll()
}
