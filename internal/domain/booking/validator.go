package booking

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/clinicdesk/clinicdesk/internal/domain/directory"
)

// ValidationResult collects every problem found in one pass, so the caller
// sees the full picture instead of fixing issues one at a time. Warnings are
// informational and never block the booking.
type ValidationResult struct {
	Valid    bool     `json:"valid"`
	Errors   []string `json:"errors,omitempty"`
	Warnings []string `json:"warnings,omitempty"`
}

func (r *ValidationResult) addError(format string, args ...any) {
	r.Errors = append(r.Errors, fmt.Sprintf(format, args...))
}

func (r *ValidationResult) addWarning(format string, args ...any) {
	r.Warnings = append(r.Warnings, fmt.Sprintf(format, args...))
}

// Validator checks a prospective booking against the business rules. It
// re-applies the advance-window bounds even though the availability engine
// already filters on them, because slot lists may be stale by booking time.
type Validator struct {
	doctors      directory.Repository
	store        *Store
	availability *AvailabilityEngine

	minAdvance      time.Duration
	maxAdvance      time.Duration
	recentVisitSpan time.Duration
	now             func() time.Time
}

// NewValidator wires the validator with default rule parameters.
func NewValidator(doctors directory.Repository, store *Store, availability *AvailabilityEngine) *Validator {
	return &Validator{
		doctors:         doctors,
		store:           store,
		availability:    availability,
		minAdvance:      DefaultMinAdvance,
		maxAdvance:      DefaultMaxAdvance,
		recentVisitSpan: 7 * 24 * time.Hour,
		now:             time.Now,
	}
}

// SetAdvanceWindow overrides the minimum notice and maximum booking horizon.
func (v *Validator) SetAdvanceWindow(min, max time.Duration) {
	v.minAdvance = min
	v.maxAdvance = max
}

// SetRecentVisitSpan overrides the lookback window for the duplicate-booking
// warning. A zero span disables the warning.
func (v *Validator) SetRecentVisitSpan(span time.Duration) {
	v.recentVisitSpan = span
}

// Validate evaluates every rule independently and returns the collected
// outcome. The booking may proceed only when Valid is true.
func (v *Validator) Validate(ctx context.Context, doctorID string, start time.Time, patient PatientInfo) ValidationResult {
	result := ValidationResult{}
	now := v.now()

	doctor, err := v.doctors.GetByID(ctx, doctorID)
	if err != nil {
		if errors.Is(err, directory.ErrDoctorNotFound) {
			result.addError("doctor %s not found", doctorID)
		} else {
			result.addError("doctor lookup failed: %v", err)
		}
	}

	if start.Before(now) {
		result.addError("start time %s is in the past", start.Format("2006-01-02 15:04"))
	} else if start.Before(now.Add(v.minAdvance)) {
		result.addError("start time must be at least %s from now", v.minAdvance)
	}
	if start.After(now.Add(v.maxAdvance)) {
		result.addError("start time is beyond the %d-day booking horizon", int(v.maxAdvance.Hours()/24))
	}

	if doctor != nil {
		v.checkWorkingHours(ctx, doctor, start, &result)
	}

	v.checkPatient(patient, &result)

	if doctor != nil && patient.Email != "" {
		v.checkRecentVisit(doctor.ID, patient.Email, start, &result)
	}

	result.Valid = len(result.Errors) == 0
	return result
}

func (v *Validator) checkWorkingHours(ctx context.Context, doctor *directory.Doctor, start time.Time, result *ValidationResult) {
	wh, ok := doctor.HoursFor(start.Weekday())
	if !ok {
		result.addError("%s does not work on %s", doctor.DisplayName(), start.Weekday())
		return
	}
	ct := directory.ClockTimeOf(start)
	endCT := ct + directory.ClockTime(doctor.AppointmentDuration)
	if ct < wh.Start || endCT > wh.End {
		result.addError("start time %s is outside working hours %s-%s", ct, wh.Start, wh.End)
		return
	}
	if wh.HasBreak && ct < wh.BreakEnd && wh.BreakStart < endCT {
		result.addError("start time %s falls into the break %s-%s", ct, wh.BreakStart, wh.BreakEnd)
		return
	}
	free, err := v.availability.IsSlotFree(ctx, doctor.ID, start)
	if err != nil {
		result.addError("availability check failed: %v", err)
		return
	}
	if !free {
		result.addError("slot %s is not available", start.Format("2006-01-02 15:04"))
	}
}

func (v *Validator) checkPatient(p PatientInfo, result *ValidationResult) {
	if len(strings.TrimSpace(p.Name)) < 2 {
		result.addError("patient name must be at least 2 characters")
	}
	if p.Age < 1 || p.Age > 119 {
		result.addError("patient age must be between 1 and 119, got %d", p.Age)
	}
	if !validGenders[strings.ToLower(p.Gender)] {
		result.addError("patient gender %q is not recognised", p.Gender)
	}
	if len(strings.TrimSpace(p.Phone)) < 10 {
		result.addError("patient phone number is too short")
	}
	if !strings.Contains(p.Email, "@") {
		result.addError("patient email %q is not valid", p.Email)
	}
}

// checkRecentVisit flags a possible duplicate: the same patient email with a
// non-cancelled appointment at the same doctor within the trailing window.
func (v *Validator) checkRecentVisit(doctorID, email string, start time.Time, result *ValidationResult) {
	cutoff := start.Add(-v.recentVisitSpan)
	for _, a := range v.store.ByPatient(email) {
		if a.DoctorID != doctorID || a.Status == StatusCancelled {
			continue
		}
		if a.StartTime.After(cutoff) && a.StartTime.Before(start) {
			result.addWarning("patient already has an appointment with this doctor on %s",
				a.StartTime.Format("2006-01-02 15:04"))
			return
		}
	}
}
