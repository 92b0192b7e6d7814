package entities

import "strings"

// HighlightSet holds the facts extracted from a sales conversation.
// An empty field means the fact has not been captured.
type HighlightSet struct {
	Budget        string `json:"budget,omitempty"`
	Timeline      string `json:"timeline,omitempty"`
	Objections    string `json:"objections,omitempty"`
	ImportantInfo string `json:"importantInfo,omitempty"`
}

// IsEmpty reports whether no fact has been captured
func (h HighlightSet) IsEmpty() bool {
	return blank(h.Budget) && blank(h.Timeline) && blank(h.Objections) && blank(h.ImportantInfo)
}

// Equal compares two sets field by field
func (h HighlightSet) Equal(other HighlightSet) bool {
	return h == other
}

// Merge overlays current onto the stored set: a captured field in current
// wins, an empty one falls back to the stored value.
func (h HighlightSet) Merge(current HighlightSet) HighlightSet {
	return HighlightSet{
		Budget:        pick(current.Budget, h.Budget),
		Timeline:      pick(current.Timeline, h.Timeline),
		Objections:    pick(current.Objections, h.Objections),
		ImportantInfo: pick(current.ImportantInfo, h.ImportantInfo),
	}
}

func pick(current, stored string) string {
	if !blank(current) {
		return current
	}
	return stored
}

func blank(s string) bool {
	return strings.TrimSpace(s) == ""
}
