package models

import "time"

// Conversation is the API shape for a single replayable conversation entry.
type Conversation struct {
	ID       string    `json:"id"`
	Title    string    `json:"title"`
	Date     time.Time `json:"date"`
	Category string    `json:"category"`
	Count    int       `json:"count"`
	DataType string    `json:"data_type"`
}

// ConversationsResponse wraps a page of conversation entries.
type ConversationsResponse struct {
	Data []Conversation `json:"data"`
}

// ConversationsRequest carries list-query parameters for replay summaries.
type ConversationsRequest struct {
	Limit  int    `json:"limit" query:"limit"`
	Offset int    `json:"offset" query:"offset"`
	Sort   string `json:"sort" query:"sort"`
}
