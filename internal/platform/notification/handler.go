package notification

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
)

// Handler exposes the delivery log and manual sending over HTTP.
type Handler struct {
	mgr *Manager
}

func NewHandler(mgr *Manager) *Handler {
	return &Handler{mgr: mgr}
}

func (h *Handler) RegisterRoutes(api *echo.Group) {
	api.POST("/notifications", h.Send)
	api.GET("/notifications", h.ListByRecipient)
	api.GET("/notifications/stats", h.Stats)
	api.GET("/notifications/templates", h.ListTemplates)
	api.GET("/notifications/:id", h.Get)
	api.POST("/notifications/:id/retry", h.Retry)
}

type sendRequest struct {
	TemplateID string            `json:"template_id"`
	Recipient  string            `json:"recipient"`
	Data       map[string]string `json:"data"`
}

func (h *Handler) Send(c echo.Context) error {
	var req sendRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if req.TemplateID == "" || req.Recipient == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "template_id and recipient are required")
	}
	n, err := h.mgr.SendFromTemplate(c.Request().Context(), req.TemplateID, req.Data, req.Recipient)
	if err != nil && n == nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	// Delivery failure is recorded on the notification itself, not surfaced
	// as an HTTP error.
	return c.JSON(http.StatusCreated, n)
}

func (h *Handler) Get(c echo.Context) error {
	n, err := h.mgr.Get(c.Request().Context(), c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusNotFound, err.Error())
	}
	return c.JSON(http.StatusOK, n)
}

func (h *Handler) ListByRecipient(c echo.Context) error {
	recipient := c.QueryParam("recipient")
	if recipient == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "recipient is required")
	}
	limit, _ := strconv.Atoi(c.QueryParam("limit"))
	if limit <= 0 {
		limit = 50
	}
	return c.JSON(http.StatusOK, h.mgr.ListByRecipient(c.Request().Context(), recipient, limit))
}

func (h *Handler) Retry(c echo.Context) error {
	if err := h.mgr.Retry(c.Request().Context(), c.Param("id")); err != nil {
		return echo.NewHTTPError(http.StatusConflict, err.Error())
	}
	n, err := h.mgr.Get(c.Request().Context(), c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusNotFound, err.Error())
	}
	return c.JSON(http.StatusOK, n)
}

func (h *Handler) Stats(c echo.Context) error {
	return c.JSON(http.StatusOK, h.mgr.Stats(c.Request().Context()))
}

func (h *Handler) ListTemplates(c echo.Context) error {
	return c.JSON(http.StatusOK, h.mgr.Templates().List())
}
