package booking

import (
	"errors"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/clinicdesk/clinicdesk/internal/domain/directory"
	"github.com/clinicdesk/clinicdesk/pkg/pagination"
)

type Handler struct {
	mgr *Manager
}

func NewHandler(mgr *Manager) *Handler {
	return &Handler{mgr: mgr}
}

func (h *Handler) RegisterRoutes(api *echo.Group) {
	api.POST("/appointments", h.Book)
	api.GET("/appointments", h.ListAppointments)
	api.GET("/appointments/:id", h.GetAppointment)
	api.POST("/appointments/:id/cancel", h.Cancel)
	api.POST("/appointments/:id/complete", h.Complete)
	api.POST("/appointments/:id/no-show", h.MarkNoShow)
	api.GET("/doctors/:id/slots", h.FreeSlots)
	api.GET("/doctors/:id/schedule", h.Schedule)
	api.GET("/statistics", h.Statistics)
	api.POST("/backup", h.Backup)
	api.POST("/export", h.Export)
}

func httpError(err error) error {
	switch {
	case errors.Is(err, ErrNotFound), errors.Is(err, directory.ErrDoctorNotFound):
		return echo.NewHTTPError(http.StatusNotFound, err.Error())
	case errors.Is(err, ErrConflict), errors.Is(err, ErrAlreadyCancelled),
		errors.Is(err, ErrInvalidTransition), errors.Is(err, ErrDuplicateID):
		return echo.NewHTTPError(http.StatusConflict, err.Error())
	case errors.Is(err, ErrPersistence):
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	default:
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
}

func (h *Handler) Book(c echo.Context) error {
	var req BookRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	result, err := h.mgr.Book(c.Request().Context(), req)
	if err != nil {
		return httpError(err)
	}
	if len(result.Errors) > 0 {
		return c.JSON(http.StatusUnprocessableEntity, result)
	}
	return c.JSON(http.StatusCreated, result)
}

// ListAppointments serves three lookups: by reference number, by patient
// email, or by doctor id with an optional from/to window.
func (h *Handler) ListAppointments(c echo.Context) error {
	ctx := c.Request().Context()

	if ref := c.QueryParam("reference"); ref != "" {
		appt, err := h.mgr.GetByReference(ctx, ref)
		if err != nil {
			return httpError(err)
		}
		return c.JSON(http.StatusOK, []*Appointment{appt})
	}

	var appts []*Appointment
	switch {
	case c.QueryParam("patient_email") != "":
		appts = h.mgr.PatientAppointments(ctx, c.QueryParam("patient_email"))
	case c.QueryParam("doctor_id") != "":
		from, err := optionalTime(c.QueryParam("from"))
		if err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, "invalid from timestamp")
		}
		to, err := optionalTime(c.QueryParam("to"))
		if err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, "invalid to timestamp")
		}
		appts = h.mgr.DoctorAppointments(ctx, c.QueryParam("doctor_id"), from, to)
	default:
		return echo.NewHTTPError(http.StatusBadRequest, "reference, patient_email or doctor_id is required")
	}

	pg := pagination.FromContext(c)
	total := len(appts)
	return c.JSON(http.StatusOK, pagination.NewResponse(pagination.Apply(appts, pg), total, pg.Limit, pg.Offset))
}

func optionalTime(raw string) (*time.Time, error) {
	if raw == "" {
		return nil, nil
	}
	t, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

func (h *Handler) GetAppointment(c echo.Context) error {
	appt, err := h.mgr.Get(c.Request().Context(), c.Param("id"))
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, appt)
}

type cancelRequest struct {
	Reason string `json:"reason"`
}

func (h *Handler) Cancel(c echo.Context) error {
	var req cancelRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	result, err := h.mgr.Cancel(c.Request().Context(), c.Param("id"), req.Reason)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, result)
}

func (h *Handler) Complete(c echo.Context) error {
	appt, err := h.mgr.Complete(c.Request().Context(), c.Param("id"))
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, appt)
}

func (h *Handler) MarkNoShow(c echo.Context) error {
	appt, err := h.mgr.MarkNoShow(c.Request().Context(), c.Param("id"))
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, appt)
}

// FreeSlots returns the bookable start times for a doctor on a date given as
// YYYY-MM-DD.
func (h *Handler) FreeSlots(c echo.Context) error {
	date, err := time.ParseInLocation("2006-01-02", c.QueryParam("date"), time.Local)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "date must be formatted YYYY-MM-DD")
	}
	slots, err := h.mgr.FreeSlots(c.Request().Context(), c.Param("id"), date)
	if err != nil {
		return httpError(err)
	}
	if slots == nil {
		slots = []time.Time{}
	}
	return c.JSON(http.StatusOK, map[string]any{
		"doctorID": c.Param("id"),
		"date":     c.QueryParam("date"),
		"slots":    slots,
	})
}

func (h *Handler) Schedule(c echo.Context) error {
	from, err := time.Parse(time.RFC3339, c.QueryParam("from"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid from timestamp")
	}
	to, err := time.Parse(time.RFC3339, c.QueryParam("to"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid to timestamp")
	}
	schedule := h.mgr.DoctorSchedule(c.Request().Context(), c.Param("id"), from, to)
	return c.JSON(http.StatusOK, schedule)
}

func (h *Handler) Statistics(c echo.Context) error {
	return c.JSON(http.StatusOK, h.mgr.Stats(c.Request().Context()))
}

type backupRequest struct {
	Name string `json:"name"`
}

func (h *Handler) Backup(c echo.Context) error {
	var req backupRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	path, err := h.mgr.Backup(c.Request().Context(), req.Name)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, map[string]string{"path": path})
}

func (h *Handler) Export(c echo.Context) error {
	path, err := h.mgr.ExportCSV(c.Request().Context())
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, map[string]string{"path": path})
}
