// Package history contiene DTOs para /history.
package history

type RecordResponse struct {
	ID         string `json:"id"`
	To         string `json:"to"`
	Cc         string `json:"cc,omitempty"`
	Subject    string `json:"subject"`
	TemplateID string `json:"templateId,omitempty"`
	SentAt     int64  `json:"sentAt"`
	MessageID  string `json:"messageId"`
}

type ListResponse struct {
	History []RecordResponse `json:"history"`
	Limit   int              `json:"limit"`
}
