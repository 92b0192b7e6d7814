package entities

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestHighlightSet_Merge_CurrentOverridesStored(t *testing.T) {
	stored := HighlightSet{Budget: "A", Timeline: "B"}
	current := HighlightSet{Budget: "C"}

	assert.Equal(t, HighlightSet{Budget: "C", Timeline: "B"}, stored.Merge(current))
}

func TestHighlightSet_Merge_BlankCurrentFallsBack(t *testing.T) {
	stored := HighlightSet{Objections: "price"}
	current := HighlightSet{Objections: "   ", ImportantInfo: "decision maker is CFO"}

	merged := stored.Merge(current)
	assert.Equal(t, "price", merged.Objections)
	assert.Equal(t, "decision maker is CFO", merged.ImportantInfo)
}

func TestHighlightSet_IsEmpty(t *testing.T) {
	assert.True(t, HighlightSet{}.IsEmpty())
	assert.True(t, HighlightSet{Budget: " "}.IsEmpty())
	assert.False(t, HighlightSet{Timeline: "Q3"}.IsEmpty())
}

func TestHighlightSet_Equal_IsStructural(t *testing.T) {
	a := &HighlightSet{Budget: "$10k"}
	b := &HighlightSet{Budget: "$10k"}

	assert.NotSame(t, a, b)
	assert.True(t, a.Equal(*b))
	b.Timeline = "Q4"
	assert.False(t, a.Equal(*b))
}

func TestSentimentRecord_Equal(t *testing.T) {
	var nilRecord *SentimentRecord
	a := &SentimentRecord{Color: SentimentGreen, Sentiment: "positive", Score: 0.8}

	assert.True(t, nilRecord.Equal(nil))
	assert.False(t, a.Equal(nil))
	assert.True(t, a.Equal(a.Clone()))
	assert.False(t, a.Equal(&SentimentRecord{Color: SentimentGreen, Sentiment: "positive", Score: 0.7}))
}

func TestSentimentRecord_HasColor(t *testing.T) {
	var nilRecord *SentimentRecord
	assert.False(t, nilRecord.HasColor())
	assert.False(t, (&SentimentRecord{Sentiment: "neutral"}).HasColor())
	assert.True(t, (&SentimentRecord{Color: SentimentRed}).HasColor())
}

func TestSession_AccountAge(t *testing.T) {
	now := time.Now()
	s := &Session{AccountCreatedAt: now.Add(-10 * time.Second)}
	assert.Equal(t, 10*time.Second, s.AccountAge(now))

	unknown := &Session{}
	assert.Greater(t, unknown.AccountAge(now), 24*time.Hour)
}

func TestSession_TokenExpired(t *testing.T) {
	now := time.Now()
	s := &Session{IDToken: "tok", IDTokenExpiresAt: now.Add(time.Hour)}
	assert.False(t, s.TokenExpired(now))

	s.IDTokenExpiresAt = now.Add(30 * time.Second)
	assert.True(t, s.TokenExpired(now))

	assert.True(t, (&Session{}).TokenExpired(now))
}
