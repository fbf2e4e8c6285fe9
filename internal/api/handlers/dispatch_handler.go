package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/andresuchdata/sentinela-corte/internal/domain"
)

type DispatchProvider interface {
	Build(ctx context.Context, now time.Time) (*domain.Dispatch, error)
	Send(ctx context.Context, now time.Time) (*domain.Dispatch, error)
}

type DispatchHandler struct {
	dispatch DispatchProvider
	loc      *time.Location
	now      func() time.Time
}

func NewDispatchHandler(dispatch DispatchProvider, loc *time.Location) *DispatchHandler {
	if loc == nil {
		loc = time.Local
	}
	return &DispatchHandler{dispatch: dispatch, loc: loc, now: time.Now}
}

// Preview returns the e-mail body that would be sent right now.
func (h *DispatchHandler) Preview(c *gin.Context) {
	d, err := h.dispatch.Build(c.Request.Context(), h.now().In(h.loc))
	if err != nil {
		respondError(c, "failed to build dispatch", err)
		return
	}
	c.Header("X-Dispatch-Subject", d.Subject)
	c.Data(http.StatusOK, "text/html; charset=utf-8", []byte(d.HTML))
}

// Send mails the dispatch immediately.
func (h *DispatchHandler) Send(c *gin.Context) {
	d, err := h.dispatch.Send(c.Request.Context(), h.now().In(h.loc))
	if err != nil {
		respondError(c, "failed to send dispatch", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"subject":         d.Subject,
		"attachment_name": d.AttachmentName,
		"closing":         d.Closing,
		"generated_at":    d.GeneratedAt,
	})
}
