package directory

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/clinicdesk/clinicdesk/pkg/pagination"
)

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) RegisterRoutes(api *echo.Group) {
	api.GET("/doctors", h.ListDoctors)
	api.GET("/doctors/:id", h.GetDoctor)
	api.POST("/doctors", h.AddDoctor)
	api.PUT("/doctors/:id", h.UpdateDoctor)
	api.DELETE("/doctors/:id", h.DeleteDoctor)
	api.GET("/specializations", h.ListSpecializations)
	api.POST("/specialists/match", h.MatchSpecialists)
}

// ListDoctors supports optional filters: specialization, q (free-text
// search) and min_rating. Filters are mutually exclusive; the first one
// present wins.
func (h *Handler) ListDoctors(c echo.Context) error {
	ctx := c.Request().Context()
	pg := pagination.FromContext(c)

	var (
		doctors []*Doctor
		err     error
	)
	switch {
	case c.QueryParam("specialization") != "":
		doctors, err = h.svc.DoctorsBySpecialization(ctx, c.QueryParam("specialization"))
	case c.QueryParam("q") != "":
		doctors = h.svc.SearchDoctors(ctx, c.QueryParam("q"))
	case c.QueryParam("min_rating") != "":
		doctors, err = h.svc.DoctorsByMinRating(ctx, c.QueryParam("min_rating"))
	default:
		doctors = h.svc.ListDoctors(ctx)
	}
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	total := len(doctors)
	page := pagination.Apply(doctors, pg)
	return c.JSON(http.StatusOK, pagination.NewResponse(page, total, pg.Limit, pg.Offset))
}

func (h *Handler) GetDoctor(c echo.Context) error {
	d, err := h.svc.GetDoctor(c.Request().Context(), c.Param("id"))
	if err != nil {
		if errors.Is(err, ErrDoctorNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, "doctor not found")
		}
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	return c.JSON(http.StatusOK, d)
}

func (h *Handler) AddDoctor(c echo.Context) error {
	var d Doctor
	if err := c.Bind(&d); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if err := h.svc.AddDoctor(c.Request().Context(), &d); err != nil {
		if errors.Is(err, ErrDoctorExists) {
			return echo.NewHTTPError(http.StatusConflict, "doctor already exists")
		}
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	return c.JSON(http.StatusCreated, d)
}

func (h *Handler) UpdateDoctor(c echo.Context) error {
	var d Doctor
	if err := c.Bind(&d); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	d.ID = c.Param("id")
	if err := h.svc.UpdateDoctor(c.Request().Context(), &d); err != nil {
		if errors.Is(err, ErrDoctorNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, "doctor not found")
		}
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	return c.JSON(http.StatusOK, d)
}

func (h *Handler) DeleteDoctor(c echo.Context) error {
	if err := h.svc.DeleteDoctor(c.Request().Context(), c.Param("id")); err != nil {
		if errors.Is(err, ErrDoctorNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, "doctor not found")
		}
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.NoContent(http.StatusNoContent)
}

func (h *Handler) ListSpecializations(c echo.Context) error {
	return c.JSON(http.StatusOK, h.svc.Specializations())
}

type matchRequest struct {
	Advice    string   `json:"advice"`
	Diagnosis string   `json:"diagnosis"`
	Symptoms  []string `json:"symptoms"`
}

func (h *Handler) MatchSpecialists(c echo.Context) error {
	var req matchRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	matches := h.svc.MatchSpecialists(c.Request().Context(), req.Advice, req.Diagnosis, req.Symptoms)
	return c.JSON(http.StatusOK, matches)
}
