package booking

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/clinicdesk/clinicdesk/internal/domain/directory"
)

// The fixtures pin the clock to a Wednesday morning; 2026-09-07 is the next
// Monday, comfortably inside the booking horizon.
var (
	fixedNow   = time.Date(2026, 9, 2, 10, 0, 0, 0, time.UTC)
	nextMonday = time.Date(2026, 9, 7, 0, 0, 0, 0, time.UTC)
)

func mondayAt(hour, minute int) time.Time {
	return time.Date(2026, 9, 7, hour, minute, 0, 0, time.UTC)
}

type recordingNotifier struct {
	calls []NotificationKind
	fail  bool
}

func (n *recordingNotifier) Notify(_ context.Context, _ *Appointment, _ *directory.Doctor, kind NotificationKind) error {
	n.calls = append(n.calls, kind)
	if n.fail {
		return errors.New("smtp unreachable")
	}
	return nil
}

type testEnv struct {
	doctors   *directory.MemRepo
	store     *Store
	engine    *AvailabilityEngine
	validator *Validator
	notifier  *recordingNotifier
	mgr       *Manager
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	repo, err := directory.NewSeededRepo(directory.SeedDoctors())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	store, err := NewStore(t.TempDir(), zerolog.Nop())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	store.now = func() time.Time { return fixedNow }

	engine := NewAvailabilityEngine(repo, store)
	engine.now = func() time.Time { return fixedNow }

	validator := NewValidator(repo, store, engine)
	validator.now = func() time.Time { return fixedNow }

	notifier := &recordingNotifier{}
	mgr := NewManager(repo, store, validator, engine, notifier, zerolog.Nop())
	mgr.now = func() time.Time { return fixedNow }

	return &testEnv{
		doctors:   repo,
		store:     store,
		engine:    engine,
		validator: validator,
		notifier:  notifier,
		mgr:       mgr,
	}
}

func validPatient() PatientInfo {
	return PatientInfo{
		Name:     "Minta Anna",
		Age:      34,
		Gender:   "female",
		Phone:    "+36 30 123 4567",
		Email:    "minta.anna@example.com",
		Symptoms: []string{"headache"},
	}
}

func testAppointment(id, doctorID string, start time.Time, duration int, status Status) *Appointment {
	return &Appointment{
		ID:              id,
		DoctorID:        doctorID,
		Patient:         validPatient(),
		StartTime:       start,
		DurationMinutes: duration,
		Status:          status,
		CreatedAt:       fixedNow,
		UpdatedAt:       fixedNow,
		ReferenceNumber: NewReferenceNumber(doctorID, start),
	}
}
