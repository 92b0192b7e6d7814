package presenter

import (
	crmDTO "github.com/johnquangdev/sales-assistant/internal/adapter/dto/crm"
	"github.com/johnquangdev/sales-assistant/internal/usecase/crm"
)

// ToPanelResponse converts a reconciler view to PanelResponse DTO
func ToPanelResponse(conversationID string, v crm.View) *crmDTO.PanelResponse {
	return &crmDTO.PanelResponse{
		ConversationID:  conversationID,
		Email:           v.Email,
		Highlights:      v.Highlights,
		Sentiment:       v.Sentiment,
		HighlightsSaved: v.HighlightsSaved,
		SentimentSaved:  v.SentimentSaved,
		FetchFailed:     v.FetchFailed,
		PersistFailed:   v.PersistFailed,
		Closed:          v.Closed,
	}
}

// ToObserveInput converts an observe request to reconciler input
func ToObserveInput(req *crmDTO.ObserveRequest) crm.Input {
	return crm.Input{
		Customer:   req.Customer,
		Highlights: req.Highlights,
		Sentiment:  req.Sentiment,
		Loading:    req.Loading,
	}
}
