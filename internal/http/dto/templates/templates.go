// Package templates contiene DTOs para /templates.
package templates

type TemplateRequest struct {
	Name    string `json:"name" validate:"required"`
	Subject string `json:"subject" validate:"required"`
	Body    string `json:"body" validate:"required"`
}

type TemplateResponse struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Subject   string `json:"subject"`
	Body      string `json:"body"`
	CreatedAt int64  `json:"createdAt"`
	UpdatedAt int64  `json:"updatedAt"`
}

type ListResponse struct {
	Templates []TemplateResponse `json:"templates"`
}

type ItemResponse struct {
	Template TemplateResponse `json:"template"`
}
