// Package gmail contiene DTOs para /gmail/*.
package gmail

type AuthURLResponse struct {
	URL string `json:"url"`
}

type StatusResponse struct {
	Connected   bool   `json:"connected"`
	Email       string `json:"email,omitempty"`
	ConnectedAt int64  `json:"connectedAt,omitempty"`
}

type DisconnectRequest struct {
	UserID string `json:"userId" validate:"required"`
}

type SendRequest struct {
	UserID  string `json:"userId" validate:"required"`
	To      string `json:"to" validate:"required"`
	Cc      string `json:"cc,omitempty"`
	Bcc     string `json:"bcc,omitempty"`
	Subject string `json:"subject" validate:"required"`
	Body    string `json:"body" validate:"required"`
}

type SendTemplateRequest struct {
	UserID     string         `json:"userId" validate:"required"`
	To         string         `json:"to" validate:"required"`
	Cc         string         `json:"cc,omitempty"`
	Bcc        string         `json:"bcc,omitempty"`
	TemplateID string         `json:"templateId" validate:"required"`
	Variables  map[string]any `json:"variables,omitempty"`
}

type SendResponse struct {
	Success   bool   `json:"success"`
	MessageID string `json:"messageId"`
}

type SuccessResponse struct {
	Success bool `json:"success"`
}
