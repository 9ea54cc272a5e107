// Package history contiene el controller de /history.
package history

import (
	"context"
	"errors"
	"net/http"

	"github.com/dropDatabas3/hellomail/internal/history"
	dto "github.com/dropDatabas3/hellomail/internal/http/dto/history"
	httperrors "github.com/dropDatabas3/hellomail/internal/http/errors"
	"github.com/dropDatabas3/hellomail/internal/http/helpers"
)

type Lister interface {
	List(ctx context.Context, userID string, limit int) ([]history.Record, error)
	Clamp(limit int) int
}

var _ Lister = (*history.Log)(nil)

type HistoryController struct {
	log Lister
}

func NewHistoryController(log Lister) *HistoryController {
	return &HistoryController{log: log}
}

// List maneja GET /history?userId=&limit=
func (c *HistoryController) List(w http.ResponseWriter, r *http.Request) {
	userID := helpers.QueryString(r, "userId")
	if userID == "" {
		httperrors.WriteError(w, httperrors.ErrValidation.WithMessage("userId is required"))
		return
	}
	limit := c.log.Clamp(helpers.QueryInt(r, "limit", 0))

	recs, err := c.log.List(r.Context(), userID, limit)
	if err != nil {
		if errors.Is(err, history.ErrInvalidInput) {
			httperrors.WriteError(w, httperrors.ErrValidation.WithDetail(err.Error()))
			return
		}
		httperrors.WriteError(w, httperrors.ErrInternalServerError.WithCause(err))
		return
	}

	resp := dto.ListResponse{History: make([]dto.RecordResponse, 0, len(recs)), Limit: limit}
	for _, rec := range recs {
		resp.History = append(resp.History, dto.RecordResponse{
			ID:         rec.ID,
			To:         rec.To,
			Cc:         rec.Cc,
			Subject:    rec.Subject,
			TemplateID: rec.TemplateID,
			SentAt:     rec.SentAt,
			MessageID:  rec.MessageID,
		})
	}
	helpers.WriteJSON(w, http.StatusOK, resp)
}
