// Package templates contiene el controller CRUD de /templates.
package templates

import (
	"context"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	dto "github.com/dropDatabas3/hellomail/internal/http/dto/templates"
	httperrors "github.com/dropDatabas3/hellomail/internal/http/errors"
	"github.com/dropDatabas3/hellomail/internal/http/helpers"
	"github.com/dropDatabas3/hellomail/internal/observability/logger"
	"github.com/dropDatabas3/hellomail/internal/templates"
)

type Repository interface {
	List(ctx context.Context, userID string) ([]templates.Template, error)
	Create(ctx context.Context, userID string, in templates.Input) (*templates.Template, error)
	Update(ctx context.Context, userID, id string, in templates.Input) (*templates.Template, error)
	Delete(ctx context.Context, userID, id string) error
}

var _ Repository = (*templates.Repository)(nil)

type TemplatesController struct {
	repo Repository
}

func NewTemplatesController(repo Repository) *TemplatesController {
	return &TemplatesController{repo: repo}
}

var errUserIDRequired = httperrors.ErrValidation.WithMessage("userId is required")

// List maneja GET /templates?userId=
func (c *TemplatesController) List(w http.ResponseWriter, r *http.Request) {
	userID := helpers.QueryString(r, "userId")
	if userID == "" {
		httperrors.WriteError(w, errUserIDRequired)
		return
	}
	list, err := c.repo.List(r.Context(), userID)
	if err != nil {
		httperrors.WriteError(w, mapError(err))
		return
	}
	resp := dto.ListResponse{Templates: make([]dto.TemplateResponse, 0, len(list))}
	for _, t := range list {
		resp.Templates = append(resp.Templates, toResponse(t))
	}
	helpers.WriteJSON(w, http.StatusOK, resp)
}

// Create maneja POST /templates?userId=
func (c *TemplatesController) Create(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID := helpers.QueryString(r, "userId")
	if userID == "" {
		httperrors.WriteError(w, errUserIDRequired)
		return
	}
	in, ok := readInput(w, r)
	if !ok {
		return
	}
	t, err := c.repo.Create(ctx, userID, in)
	if err != nil {
		httperrors.WriteError(w, mapError(err))
		return
	}
	logger.From(ctx).Info("template created",
		logger.Layer("controller"), logger.UserID(userID), logger.TemplateID(t.ID))
	helpers.WriteJSON(w, http.StatusCreated, dto.ItemResponse{Template: toResponse(*t)})
}

// Update maneja PUT /templates/{templateId}?userId=
func (c *TemplatesController) Update(w http.ResponseWriter, r *http.Request) {
	userID := helpers.QueryString(r, "userId")
	if userID == "" {
		httperrors.WriteError(w, errUserIDRequired)
		return
	}
	in, ok := readInput(w, r)
	if !ok {
		return
	}
	t, err := c.repo.Update(r.Context(), userID, chi.URLParam(r, "templateId"), in)
	if err != nil {
		httperrors.WriteError(w, mapError(err))
		return
	}
	helpers.WriteJSON(w, http.StatusOK, dto.ItemResponse{Template: toResponse(*t)})
}

// Delete maneja DELETE /templates/{templateId}?userId=
func (c *TemplatesController) Delete(w http.ResponseWriter, r *http.Request) {
	userID := helpers.QueryString(r, "userId")
	if userID == "" {
		httperrors.WriteError(w, errUserIDRequired)
		return
	}
	if err := c.repo.Delete(r.Context(), userID, chi.URLParam(r, "templateId")); err != nil {
		httperrors.WriteError(w, mapError(err))
		return
	}
	helpers.WriteJSON(w, http.StatusOK, map[string]bool{"success": true})
}

func readInput(w http.ResponseWriter, r *http.Request) (templates.Input, bool) {
	var req dto.TemplateRequest
	if !helpers.ReadJSON(w, r, &req) {
		return templates.Input{}, false
	}
	if detail, ok := helpers.Validate(req); !ok {
		httperrors.WriteError(w, httperrors.ErrValidation.WithDetail(detail))
		return templates.Input{}, false
	}
	return templates.Input{Name: req.Name, Subject: req.Subject, Body: req.Body}, true
}

func toResponse(t templates.Template) dto.TemplateResponse {
	return dto.TemplateResponse{
		ID:        t.ID,
		Name:      t.Name,
		Subject:   t.Subject,
		Body:      t.Body,
		CreatedAt: t.CreatedAt,
		UpdatedAt: t.UpdatedAt,
	}
}

func mapError(err error) *httperrors.AppError {
	switch {
	case errors.Is(err, templates.ErrNotFound):
		return httperrors.ErrNotFound.WithMessage("Template not found")
	case errors.Is(err, templates.ErrInvalidInput):
		return httperrors.ErrValidation.WithDetail(err.Error())
	default:
		return httperrors.ErrInternalServerError.WithCause(err)
	}
}
