package handler

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/oakline/storefront/internal/repository"
)

// SessionEventLister reads the stored session history of a user.
type SessionEventLister interface {
	ListByUser(ctx context.Context, userID string, limit int) ([]repository.SessionEvent, error)
}

// AuditHandler serves the admin view of a user's session history.
type AuditHandler struct {
	Events SessionEventLister
}

func NewAuditHandler(events SessionEventLister) *AuditHandler {
	return &AuditHandler{Events: events}
}

type sessionEventResp struct {
	ID         uint64 `json:"id"`
	Type       string `json:"type"`
	Email      string `json:"email,omitempty"`
	Role       string `json:"role"`
	RequestID  string `json:"request_id,omitempty"`
	OccurredAt string `json:"occurred_at"`
}

// UserSessions lists the newest session events of the user in the path.
// ?limit= caps the count; the repository clamps it.
func (h *AuditHandler) UserSessions(c echo.Context) error {
	limit, _ := strconv.Atoi(c.QueryParam("limit"))
	events, err := h.Events.ListByUser(c.Request().Context(), c.Param("id"), limit)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to load session history"})
	}

	resp := newViewResp(c, "admin_user_sessions")
	out := make([]sessionEventResp, 0, len(events))
	for _, e := range events {
		out = append(out, sessionEventResp{
			ID:         e.ID,
			Type:       e.Type,
			Email:      e.Email,
			Role:       e.Role,
			RequestID:  e.RequestID,
			OccurredAt: e.OccurredAt.UTC().Format(time.RFC3339),
		})
	}
	return c.JSON(http.StatusOK, echo.Map{
		"view":   resp.View,
		"params": resp.Params,
		"user":   resp.User,
		"events": out,
	})
}
