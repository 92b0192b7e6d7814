package crm

import "github.com/johnquangdev/sales-assistant/internal/domain/entities"

// PanelResponse is what the CRM panel renders
type PanelResponse struct {
	ConversationID  string                    `json:"conversation_id"`
	Email           string                    `json:"email,omitempty"`
	Highlights      entities.HighlightSet     `json:"highlights"`
	Sentiment       *entities.SentimentRecord `json:"sentiment,omitempty"`
	HighlightsSaved bool                      `json:"highlights_saved"`
	SentimentSaved  bool                      `json:"sentiment_saved"`
	FetchFailed     bool                      `json:"fetch_failed"`
	PersistFailed   bool                      `json:"persist_failed"`
	Closed          bool                      `json:"closed,omitempty"`
}
