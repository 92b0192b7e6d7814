package entities

import "strings"

// CustomerRecord is the CRM contact the current conversation is with
type CustomerRecord struct {
	Name    string `json:"name,omitempty"`
	Email   string `json:"email,omitempty"`
	Phone   string `json:"phone,omitempty"`
	Company string `json:"company,omitempty"`
}

// NormalizedEmail returns the trimmed, lower-cased email or "" for nil records
func (c *CustomerRecord) NormalizedEmail() string {
	if c == nil {
		return ""
	}
	return strings.ToLower(strings.TrimSpace(c.Email))
}
