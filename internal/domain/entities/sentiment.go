package entities

import "strings"

// SentimentColor is the traffic-light classification of the customer's mood
type SentimentColor string

const (
	SentimentGreen  SentimentColor = "green"
	SentimentYellow SentimentColor = "yellow"
	SentimentRed    SentimentColor = "red"
)

// IsValid checks if the color is one of the traffic-light values
func (c SentimentColor) IsValid() bool {
	switch c {
	case SentimentGreen, SentimentYellow, SentimentRed:
		return true
	}
	return false
}

// SentimentRecord is the mood classification for a conversation turn
type SentimentRecord struct {
	Color     SentimentColor `json:"color"`
	Sentiment string         `json:"sentiment"`
	Score     float64        `json:"score"`
}

// HasColor reports whether the record carries a classification worth persisting
func (s *SentimentRecord) HasColor() bool {
	return s != nil && strings.TrimSpace(string(s.Color)) != ""
}

// Equal compares two records by value; two nil records are equal
func (s *SentimentRecord) Equal(other *SentimentRecord) bool {
	if s == nil || other == nil {
		return s == nil && other == nil
	}
	return *s == *other
}

// Clone returns an independent copy
func (s *SentimentRecord) Clone() *SentimentRecord {
	if s == nil {
		return nil
	}
	c := *s
	return &c
}
