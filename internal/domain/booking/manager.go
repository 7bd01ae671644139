package booking

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/clinicdesk/clinicdesk/internal/domain/directory"
)

// NotificationKind selects the message template for a booking event.
type NotificationKind string

const (
	NotifyConfirmation NotificationKind = "confirmation"
	NotifyReminder     NotificationKind = "reminder"
	NotifyCancellation NotificationKind = "cancellation"
)

// Notifier is the fire-and-forget notification sink. Delivery failure is
// surfaced to the caller as a warning and never rolls a booking back.
type Notifier interface {
	Notify(ctx context.Context, appt *Appointment, doctor *directory.Doctor, kind NotificationKind) error
}

// NopNotifier discards notifications.
type NopNotifier struct{}

func (NopNotifier) Notify(context.Context, *Appointment, *directory.Doctor, NotificationKind) error {
	return nil
}

// DefaultCancelNotice is the span below which a cancellation is flagged as
// late.
const DefaultCancelNotice = 24 * time.Hour

// BookRequest carries the inputs for a new booking.
type BookRequest struct {
	DoctorID  string      `json:"doctorID"`
	StartTime time.Time   `json:"startTime"`
	Patient   PatientInfo `json:"patient"`
	Notes     string      `json:"notes"`
}

// BookResult reports the outcome of a booking attempt. When Errors is
// non-empty the booking was rejected and Appointment is nil.
type BookResult struct {
	Appointment *Appointment `json:"appointment,omitempty"`
	Errors      []string     `json:"errors,omitempty"`
	Warnings    []string     `json:"warnings,omitempty"`
}

// CancelResult reports the outcome of a cancellation.
type CancelResult struct {
	Appointment *Appointment `json:"appointment"`
	Warnings    []string     `json:"warnings,omitempty"`
}

// Manager orchestrates validate, persist and notify for the appointment
// lifecycle. It holds no lock of its own; the store serialises mutations.
type Manager struct {
	doctors      directory.Repository
	store        *Store
	validator    *Validator
	availability *AvailabilityEngine
	notifier     Notifier

	cancelNotice time.Duration
	log          zerolog.Logger
	now          func() time.Time
}

// NewManager wires the booking manager. Pass NopNotifier{} when no
// notification sink is configured.
func NewManager(doctors directory.Repository, store *Store, validator *Validator, availability *AvailabilityEngine, notifier Notifier, log zerolog.Logger) *Manager {
	return &Manager{
		doctors:      doctors,
		store:        store,
		validator:    validator,
		availability: availability,
		notifier:     notifier,
		cancelNotice: DefaultCancelNotice,
		log:          log.With().Str("component", "booking_manager").Logger(),
		now:          time.Now,
	}
}

// SetCancelNotice overrides the notice period below which a cancellation is
// flagged as late.
func (m *Manager) SetCancelNotice(notice time.Duration) {
	m.cancelNotice = notice
}

// Book validates the request, inserts the appointment, auto-confirms it and
// fires the confirmation notification. A validation failure returns the
// collected errors without touching the store. A conflict reported by the
// insert itself (a race lost to a concurrent booking) is returned as
// ErrConflict without retrying.
func (m *Manager) Book(ctx context.Context, req BookRequest) (*BookResult, error) {
	validation := m.validator.Validate(ctx, req.DoctorID, req.StartTime, req.Patient)
	if !validation.Valid {
		return &BookResult{Errors: validation.Errors, Warnings: validation.Warnings}, nil
	}

	doctor, err := m.doctors.GetByID(ctx, req.DoctorID)
	if err != nil {
		return nil, err
	}

	now := m.now()
	appt := &Appointment{
		ID:              NewAppointmentID(req.DoctorID, now),
		DoctorID:        req.DoctorID,
		Patient:         req.Patient,
		StartTime:       req.StartTime,
		DurationMinutes: doctor.AppointmentDuration,
		Status:          StatusPending,
		Notes:           req.Notes,
		CreatedAt:       now,
		UpdatedAt:       now,
		ReferenceNumber: NewReferenceNumber(req.DoctorID, req.StartTime),
	}

	if err := m.store.Insert(appt); err != nil {
		return nil, err
	}
	if err := m.store.Transition(appt.ID, StatusConfirmed); err != nil {
		return nil, err
	}
	confirmed, err := m.store.GetByID(appt.ID)
	if err != nil {
		return nil, err
	}

	warnings := validation.Warnings
	if err := m.notifier.Notify(ctx, confirmed, doctor, NotifyConfirmation); err != nil {
		m.log.Warn().Err(err).Str("appointment_id", confirmed.ID).Msg("confirmation notification failed")
		warnings = append(warnings, "confirmation notification could not be delivered")
	}

	m.log.Info().Str("appointment_id", confirmed.ID).Str("reference", confirmed.ReferenceNumber).
		Str("doctor_id", confirmed.DoctorID).Time("start", confirmed.StartTime).Msg("appointment booked")
	return &BookResult{Appointment: confirmed, Warnings: warnings}, nil
}

// Cancel cancels an appointment. Cancelling inside the notice window is
// allowed but flagged with a late-cancellation warning.
func (m *Manager) Cancel(ctx context.Context, id, reason string) (*CancelResult, error) {
	appt, err := m.store.GetByID(id)
	if err != nil {
		return nil, err
	}

	var warnings []string
	if appt.StartTime.Before(m.now().Add(m.cancelNotice)) {
		warnings = append(warnings, "late cancellation: less than 24 hours before the appointment")
	}

	if err := m.store.Cancel(id, reason); err != nil {
		return nil, err
	}
	cancelled, err := m.store.GetByID(id)
	if err != nil {
		return nil, err
	}

	if doctor, derr := m.doctors.GetByID(ctx, cancelled.DoctorID); derr == nil {
		if nerr := m.notifier.Notify(ctx, cancelled, doctor, NotifyCancellation); nerr != nil {
			m.log.Warn().Err(nerr).Str("appointment_id", id).Msg("cancellation notification failed")
			warnings = append(warnings, "cancellation notification could not be delivered")
		}
	}

	m.log.Info().Str("appointment_id", id).Str("reason", reason).Msg("appointment cancelled")
	return &CancelResult{Appointment: cancelled, Warnings: warnings}, nil
}

// Complete marks a confirmed appointment as completed. Administrative
// operation; no automatic logic drives it.
func (m *Manager) Complete(ctx context.Context, id string) (*Appointment, error) {
	if err := m.store.Transition(id, StatusCompleted); err != nil {
		return nil, err
	}
	return m.store.GetByID(id)
}

// MarkNoShow marks a confirmed appointment as a no-show.
func (m *Manager) MarkNoShow(ctx context.Context, id string) (*Appointment, error) {
	if err := m.store.Transition(id, StatusNoShow); err != nil {
		return nil, err
	}
	return m.store.GetByID(id)
}

// Get returns an appointment by id.
func (m *Manager) Get(ctx context.Context, id string) (*Appointment, error) {
	return m.store.GetByID(id)
}

// GetByReference returns an appointment by its reference number.
func (m *Manager) GetByReference(ctx context.Context, ref string) (*Appointment, error) {
	return m.store.ByReference(ref)
}

// PatientAppointments lists the appointments booked under an email address.
func (m *Manager) PatientAppointments(ctx context.Context, email string) []*Appointment {
	return m.store.ByPatient(email)
}

// DoctorAppointments lists a doctor's appointments, optionally restricted to
// [from, to).
func (m *Manager) DoctorAppointments(ctx context.Context, doctorID string, from, to *time.Time) []*Appointment {
	appts := m.store.ByDoctor(doctorID)
	if from == nil && to == nil {
		return appts
	}
	var filtered []*Appointment
	for _, a := range appts {
		if from != nil && a.StartTime.Before(*from) {
			continue
		}
		if to != nil && !a.StartTime.Before(*to) {
			continue
		}
		filtered = append(filtered, a)
	}
	return filtered
}

// DoctorSchedule groups a doctor's appointments by calendar date.
func (m *Manager) DoctorSchedule(ctx context.Context, doctorID string, from, to time.Time) map[string][]*Appointment {
	return m.store.Schedule(doctorID, from, to)
}

// FreeSlots returns the bookable start times for a doctor and date.
func (m *Manager) FreeSlots(ctx context.Context, doctorID string, date time.Time) ([]time.Time, error) {
	return m.availability.FreeSlots(ctx, doctorID, date)
}

// Stats returns the store's point-in-time summary.
func (m *Manager) Stats(ctx context.Context) Statistics {
	return m.store.Stats()
}

// Backup writes a point-in-time copy of the backing store.
func (m *Manager) Backup(ctx context.Context, name string) (string, error) {
	return m.store.Backup(name)
}

// ExportCSV writes the flattened reporting export.
func (m *Manager) ExportCSV(ctx context.Context) (string, error) {
	return m.store.ExportCSV()
}
