// Package directory holds the doctor registry: who the doctors are, what
// they specialise in, and when they work. The registry is loaded once at
// startup and mutated only through explicit add/update/delete operations.
package directory

import (
	"fmt"
	"strings"
	"time"
)

// Specialization is the closed set of medical specialities a doctor can hold.
type Specialization string

const (
	GeneralPractitioner Specialization = "general_practitioner"
	InternalMedicine    Specialization = "internal_medicine"
	Neurology           Specialization = "neurology"
	Cardiology          Specialization = "cardiology"
	Dermatology         Specialization = "dermatology"
	Gastroenterology    Specialization = "gastroenterology"
	Orthopedics         Specialization = "orthopedics"
	Pediatrics          Specialization = "pediatrics"
	Psychiatry          Specialization = "psychiatry"
	Surgery             Specialization = "surgery"
	Gynecology          Specialization = "gynecology"
	Urology             Specialization = "urology"
	Ophthalmology       Specialization = "ophthalmology"
	ENT                 Specialization = "ent"
	Emergency           Specialization = "emergency"
)

var allSpecializations = []Specialization{
	GeneralPractitioner, InternalMedicine, Neurology, Cardiology, Dermatology,
	Gastroenterology, Orthopedics, Pediatrics, Psychiatry, Surgery,
	Gynecology, Urology, Ophthalmology, ENT, Emergency,
}

// IsValid reports whether s is one of the known specializations.
func (s Specialization) IsValid() bool {
	for _, v := range allSpecializations {
		if s == v {
			return true
		}
	}
	return false
}

// Label returns the human-readable form, e.g. "general practitioner".
func (s Specialization) Label() string {
	return strings.ReplaceAll(string(s), "_", " ")
}

// ClockTime is a wall-clock time of day, stored as minutes from midnight.
// Working hours are per-weekday local times; the system is single-zone by
// design, so no location is attached.
type ClockTime int

// NewClockTime builds a ClockTime from an hour and minute.
func NewClockTime(hour, minute int) ClockTime {
	return ClockTime(hour*60 + minute)
}

// Hour returns the hour component.
func (t ClockTime) Hour() int { return int(t) / 60 }

// Minute returns the minute component.
func (t ClockTime) Minute() int { return int(t) % 60 }

func (t ClockTime) String() string {
	return fmt.Sprintf("%02d:%02d", t.Hour(), t.Minute())
}

// At anchors the clock time onto a calendar date.
func (t ClockTime) At(date time.Time) time.Time {
	return time.Date(date.Year(), date.Month(), date.Day(), t.Hour(), t.Minute(), 0, 0, date.Location())
}

// ClockTimeOf extracts the ClockTime from a timestamp.
func ClockTimeOf(ts time.Time) ClockTime {
	return NewClockTime(ts.Hour(), ts.Minute())
}

// WorkingHours describes one weekday's consulting window with an optional
// mid-day break. BreakStart/BreakEnd are zero-value when no break exists;
// HasBreak distinguishes "no break" from a break starting at midnight.
type WorkingHours struct {
	Day        time.Weekday `json:"day"`
	Start      ClockTime    `json:"start"`
	End        ClockTime    `json:"end"`
	HasBreak   bool         `json:"has_break"`
	BreakStart ClockTime    `json:"break_start,omitempty"`
	BreakEnd   ClockTime    `json:"break_end,omitempty"`
}

// WithBreak is a constructor for a working day that includes a break.
func WithBreak(day time.Weekday, start, end, breakStart, breakEnd ClockTime) WorkingHours {
	return WorkingHours{Day: day, Start: start, End: end, HasBreak: true, BreakStart: breakStart, BreakEnd: breakEnd}
}

// WithoutBreak is a constructor for a working day without a break.
func WithoutBreak(day time.Weekday, start, end ClockTime) WorkingHours {
	return WorkingHours{Day: day, Start: start, End: end}
}

// Validate checks the internal ordering constraints of a working day.
func (wh WorkingHours) Validate() error {
	if wh.Start >= wh.End {
		return fmt.Errorf("working hours on %s: start %s must be before end %s", wh.Day, wh.Start, wh.End)
	}
	if wh.HasBreak {
		if wh.BreakStart >= wh.BreakEnd {
			return fmt.Errorf("working hours on %s: break start %s must be before break end %s", wh.Day, wh.BreakStart, wh.BreakEnd)
		}
		if wh.BreakStart < wh.Start || wh.BreakEnd > wh.End {
			return fmt.Errorf("working hours on %s: break %s-%s falls outside %s-%s", wh.Day, wh.BreakStart, wh.BreakEnd, wh.Start, wh.End)
		}
	}
	return nil
}

// InBreak reports whether t falls inside the break window [BreakStart, BreakEnd).
func (wh WorkingHours) InBreak(t ClockTime) bool {
	return wh.HasBreak && t >= wh.BreakStart && t < wh.BreakEnd
}

// Doctor is a registry entry. Instances are treated as immutable during a
// booking transaction; mutation goes through the repository.
type Doctor struct {
	ID                  string         `json:"id"`
	Name                string         `json:"name"`
	Specialization      Specialization `json:"specialization"`
	Location            string         `json:"location"`
	Address             string         `json:"address"`
	Phone               string         `json:"phone"`
	Email               string         `json:"email"`
	WorkingHours        []WorkingHours `json:"working_hours"`
	Rating              float64        `json:"rating"`
	Description         string         `json:"description,omitempty"`
	AppointmentDuration int            `json:"appointment_duration_minutes"`
	Languages           []string       `json:"languages,omitempty"`
}

// DefaultAppointmentDuration is applied when a doctor record omits one.
const DefaultAppointmentDuration = 30

// Validate checks the record-level invariants: rating range, positive slot
// duration, valid specialization, at most one working-hours entry per weekday.
func (d *Doctor) Validate() error {
	if d.ID == "" {
		return fmt.Errorf("doctor id is required")
	}
	if d.Name == "" {
		return fmt.Errorf("doctor name is required")
	}
	if !d.Specialization.IsValid() {
		return fmt.Errorf("unknown specialization %q", d.Specialization)
	}
	if d.Rating < 0 || d.Rating > 5 {
		return fmt.Errorf("rating must be between 0 and 5, got %.2f", d.Rating)
	}
	if d.AppointmentDuration <= 0 {
		return fmt.Errorf("appointment duration must be positive, got %d", d.AppointmentDuration)
	}
	seen := map[time.Weekday]bool{}
	for _, wh := range d.WorkingHours {
		if seen[wh.Day] {
			return fmt.Errorf("duplicate working hours for %s", wh.Day)
		}
		seen[wh.Day] = true
		if err := wh.Validate(); err != nil {
			return err
		}
	}
	return nil
}

// DisplayName returns the name with the customary title.
func (d *Doctor) DisplayName() string {
	return "Dr. " + d.Name
}

// WorksOn reports whether the doctor has consulting hours on the given weekday.
func (d *Doctor) WorksOn(day time.Weekday) bool {
	_, ok := d.HoursFor(day)
	return ok
}

// HoursFor returns the working-hours entry for a weekday, if any.
func (d *Doctor) HoursFor(day time.Weekday) (WorkingHours, bool) {
	for _, wh := range d.WorkingHours {
		if wh.Day == day {
			return wh, true
		}
	}
	return WorkingHours{}, false
}
