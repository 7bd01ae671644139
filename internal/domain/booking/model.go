// Package booking owns the appointment lifecycle: slot computation,
// validation, conflict-checked persistence and cancellation.
package booking

import (
	"crypto/md5"
	"fmt"
	"math/rand"
	"time"

	"github.com/google/uuid"
)

// Status is the appointment lifecycle state.
type Status string

const (
	StatusPending   Status = "pending"
	StatusConfirmed Status = "confirmed"
	StatusCancelled Status = "cancelled"
	StatusCompleted Status = "completed"
	StatusNoShow    Status = "no_show"
)

// AllStatuses lists every lifecycle state, in declaration order.
var AllStatuses = []Status{StatusPending, StatusConfirmed, StatusCancelled, StatusCompleted, StatusNoShow}

// IsValid reports whether s is a known status.
func (s Status) IsValid() bool {
	for _, v := range AllStatuses {
		if s == v {
			return true
		}
	}
	return false
}

// IsTerminal reports whether the status has no outgoing transitions.
func (s Status) IsTerminal() bool {
	return s == StatusCancelled || s == StatusCompleted || s == StatusNoShow
}

// CanTransitionTo encodes the lifecycle state machine: a pending appointment
// can be confirmed or cancelled; a confirmed one can be cancelled, completed
// or marked no-show. Terminal states allow nothing.
func (s Status) CanTransitionTo(next Status) bool {
	switch s {
	case StatusPending:
		return next == StatusConfirmed || next == StatusCancelled
	case StatusConfirmed:
		return next == StatusCancelled || next == StatusCompleted || next == StatusNoShow
	default:
		return false
	}
}

// Genders accepted on patient records.
var validGenders = map[string]bool{
	"male": true, "female": true, "other": true, "unspecified": true,
}

// PatientInfo carries the contact and clinical details attached to a booking.
// Symptoms, diagnosis, medical history and medications come from the intake
// conversation and are stored verbatim.
type PatientInfo struct {
	Name           string   `json:"name"`
	Age            int      `json:"age"`
	Gender         string   `json:"gender"`
	Phone          string   `json:"phone"`
	Email          string   `json:"email"`
	Symptoms       []string `json:"symptoms"`
	Diagnosis      string   `json:"diagnosis"`
	MedicalHistory []string `json:"medicalHistory"`
	Medications    []string `json:"medications"`
}

// Appointment is a persisted booking.
type Appointment struct {
	ID              string      `json:"id"`
	DoctorID        string      `json:"doctorID"`
	Patient         PatientInfo `json:"patient"`
	StartTime       time.Time   `json:"startTime"`
	DurationMinutes int         `json:"durationMinutes"`
	Status          Status      `json:"status"`
	Notes           string      `json:"notes"`
	CreatedAt       time.Time   `json:"createdAt"`
	UpdatedAt       time.Time   `json:"updatedAt"`
	ReferenceNumber string      `json:"referenceNumber"`
}

// EndTime returns the exclusive end of the appointment interval.
func (a *Appointment) EndTime() time.Time {
	return a.StartTime.Add(time.Duration(a.DurationMinutes) * time.Minute)
}

// Overlaps reports whether two appointments occupy intersecting intervals.
// Interval comparison is half-open, so back-to-back slots do not overlap.
func (a *Appointment) Overlaps(other *Appointment) bool {
	return a.StartTime.Before(other.EndTime()) && other.StartTime.Before(a.EndTime())
}

// NewAppointmentID builds an appointment id from the booking moment, the
// doctor and a random suffix so concurrent bookings never collide.
func NewAppointmentID(doctorID string, at time.Time) string {
	return fmt.Sprintf("apt_%d_%s_%s", at.Unix(), doctorID, uuid.NewString()[:8])
}

// NewReferenceNumber derives the human-shareable booking reference from the
// doctor, the start time and a random salt. Assigned once at creation.
func NewReferenceNumber(doctorID string, start time.Time) string {
	salt := 1000 + rand.Intn(9000)
	sum := md5.Sum([]byte(fmt.Sprintf("%s%s%d", doctorID, start.Format(time.RFC3339), salt)))
	return fmt.Sprintf("APT-%X", sum[:4])
}
