package crm

import "github.com/johnquangdev/sales-assistant/internal/domain/entities"

// ObserveRequest is one render of the CRM panel
type ObserveRequest struct {
	Customer   *entities.CustomerRecord  `json:"customer,omitempty"`
	Highlights entities.HighlightSet     `json:"highlights"`
	Sentiment  *entities.SentimentRecord `json:"sentiment,omitempty" validate:"omitempty"`
	Loading    bool                      `json:"loading"`
}
