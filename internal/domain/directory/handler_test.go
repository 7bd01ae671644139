package directory

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"
)

func newTestHandler(t *testing.T) *Handler {
	t.Helper()
	return NewHandler(seededService(t))
}

func TestHandlerListDoctors(t *testing.T) {
	h := newTestHandler(t)
	e := echo.New()

	req := httptest.NewRequest(http.MethodGet, "/doctors", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	if err := h.ListDoctors(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Errorf("expected 200, got %d", rec.Code)
	}

	var resp struct {
		Data  []*Doctor `json:"data"`
		Total int       `json:"total"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp.Total != 6 || len(resp.Data) != 6 {
		t.Errorf("expected 6 doctors, got total=%d len=%d", resp.Total, len(resp.Data))
	}
}

func TestHandlerListDoctorsFiltered(t *testing.T) {
	h := newTestHandler(t)
	e := echo.New()

	req := httptest.NewRequest(http.MethodGet, "/doctors?specialization=neurology", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	if err := h.ListDoctors(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	var resp struct {
		Data []*Doctor `json:"data"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(resp.Data) != 1 || resp.Data[0].ID != "doc_002" {
		t.Errorf("unexpected filtered result: %+v", resp.Data)
	}
}

func TestHandlerListDoctorsBadFilter(t *testing.T) {
	h := newTestHandler(t)
	e := echo.New()

	req := httptest.NewRequest(http.MethodGet, "/doctors?specialization=astrology", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	err := h.ListDoctors(c)
	httpErr, ok := err.(*echo.HTTPError)
	if !ok {
		t.Fatalf("expected HTTPError, got %v", err)
	}
	if httpErr.Code != http.StatusBadRequest {
		t.Errorf("expected 400, got %d", httpErr.Code)
	}
}

func TestHandlerGetDoctor(t *testing.T) {
	h := newTestHandler(t)
	e := echo.New()

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.SetParamNames("id")
	c.SetParamValues("doc_003")

	if err := h.GetDoctor(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	var d Doctor
	if err := json.Unmarshal(rec.Body.Bytes(), &d); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if d.Name != "Szabó Péter" {
		t.Errorf("unexpected doctor: %s", d.Name)
	}
}

func TestHandlerGetDoctorNotFound(t *testing.T) {
	h := newTestHandler(t)
	e := echo.New()

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.SetParamNames("id")
	c.SetParamValues("doc_999")

	err := h.GetDoctor(c)
	httpErr, ok := err.(*echo.HTTPError)
	if !ok {
		t.Fatalf("expected HTTPError, got %v", err)
	}
	if httpErr.Code != http.StatusNotFound {
		t.Errorf("expected 404, got %d", httpErr.Code)
	}
}

func TestHandlerAddDoctor(t *testing.T) {
	h := newTestHandler(t)
	e := echo.New()

	body := `{
		"id": "doc_100",
		"name": "New Doctor",
		"specialization": "urology",
		"location": "Budapest",
		"rating": 4.2,
		"working_hours": [{"day": 1, "start": 480, "end": 960}]
	}`
	req := httptest.NewRequest(http.MethodPost, "/doctors", strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	if err := h.AddDoctor(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rec.Code != http.StatusCreated {
		t.Errorf("expected 201, got %d", rec.Code)
	}

	// Adding the same id again conflicts.
	req = httptest.NewRequest(http.MethodPost, "/doctors", strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec = httptest.NewRecorder()
	c = e.NewContext(req, rec)

	err := h.AddDoctor(c)
	httpErr, ok := err.(*echo.HTTPError)
	if !ok {
		t.Fatalf("expected HTTPError, got %v", err)
	}
	if httpErr.Code != http.StatusConflict {
		t.Errorf("expected 409, got %d", httpErr.Code)
	}
}

func TestHandlerDeleteDoctor(t *testing.T) {
	h := newTestHandler(t)
	e := echo.New()

	req := httptest.NewRequest(http.MethodDelete, "/", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.SetParamNames("id")
	c.SetParamValues("doc_001")

	if err := h.DeleteDoctor(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rec.Code != http.StatusNoContent {
		t.Errorf("expected 204, got %d", rec.Code)
	}
}

func TestHandlerMatchSpecialists(t *testing.T) {
	h := newTestHandler(t)
	e := echo.New()

	body := `{"advice": "see a cardiologist", "diagnosis": "arrhythmia", "symptoms": ["chest pain"]}`
	req := httptest.NewRequest(http.MethodPost, "/specialists/match", strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	if err := h.MatchSpecialists(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	var matches []Match
	if err := json.Unmarshal(rec.Body.Bytes(), &matches); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(matches) == 0 {
		t.Fatal("expected matches")
	}
	if matches[0].Doctor.Specialization != Cardiology {
		t.Errorf("expected a cardiologist first, got %s", matches[0].Doctor.Specialization)
	}
}
