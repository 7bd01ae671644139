package booking

import (
	"context"
	"time"

	"github.com/clinicdesk/clinicdesk/internal/domain/directory"
)

// Advance-notice bounds applied to slot computation and re-checked by the
// validator, since slot lists may be computed ahead of the booking moment.
const (
	DefaultMinAdvance = 2 * time.Hour
	DefaultMaxAdvance = 60 * 24 * time.Hour
)

// AvailabilityEngine computes bookable slots for a doctor and date from the
// working-hours template minus breaks, existing appointments and the advance
// window.
type AvailabilityEngine struct {
	doctors    directory.Repository
	store      *Store
	minAdvance time.Duration
	maxAdvance time.Duration
	now        func() time.Time
}

// NewAvailabilityEngine wires the engine with default advance bounds.
func NewAvailabilityEngine(doctors directory.Repository, store *Store) *AvailabilityEngine {
	return &AvailabilityEngine{
		doctors:    doctors,
		store:      store,
		minAdvance: DefaultMinAdvance,
		maxAdvance: DefaultMaxAdvance,
		now:        time.Now,
	}
}

// SetAdvanceWindow overrides the minimum notice and maximum booking horizon.
func (e *AvailabilityEngine) SetAdvanceWindow(min, max time.Duration) {
	e.minAdvance = min
	e.maxAdvance = max
}

// FreeSlots returns the bookable start times for the doctor on the given
// date, ascending. An empty result means the doctor does not work that day
// or every slot is taken or out of reach.
func (e *AvailabilityEngine) FreeSlots(ctx context.Context, doctorID string, date time.Time) ([]time.Time, error) {
	doctor, err := e.doctors.GetByID(ctx, doctorID)
	if err != nil {
		return nil, err
	}
	wh, ok := doctor.HoursFor(date.Weekday())
	if !ok {
		return nil, nil
	}

	now := e.now()
	earliest := now.Add(e.minAdvance)
	horizon := now.Add(e.maxAdvance)

	duration := time.Duration(doctor.AppointmentDuration) * time.Minute
	dayStart := wh.Start.At(date)
	dayEnd := wh.End.At(date)

	booked := e.bookedIntervals(doctorID, dayStart, dayEnd)

	var slots []time.Time
	for cursor := dayStart; !cursor.Add(duration).After(dayEnd); cursor = cursor.Add(duration) {
		end := cursor.Add(duration)
		if wh.HasBreak {
			breakStart := wh.BreakStart.At(date)
			breakEnd := wh.BreakEnd.At(date)
			if cursor.Before(breakEnd) && breakStart.Before(end) {
				continue
			}
		}
		if cursor.Before(earliest) || cursor.After(horizon) {
			continue
		}
		if overlapsAny(cursor, end, booked) {
			continue
		}
		slots = append(slots, cursor)
	}
	return slots, nil
}

// IsSlotFree reports whether start is one of the doctor's free slots for
// that date.
func (e *AvailabilityEngine) IsSlotFree(ctx context.Context, doctorID string, start time.Time) (bool, error) {
	slots, err := e.FreeSlots(ctx, doctorID, start)
	if err != nil {
		return false, err
	}
	for _, slot := range slots {
		if slot.Equal(start) {
			return true, nil
		}
	}
	return false, nil
}

type interval struct {
	start, end time.Time
}

// bookedIntervals collects the non-cancelled appointment intervals for the
// doctor that touch [dayStart, dayEnd).
func (e *AvailabilityEngine) bookedIntervals(doctorID string, dayStart, dayEnd time.Time) []interval {
	var booked []interval
	for _, a := range e.store.ByDoctor(doctorID) {
		if a.Status == StatusCancelled {
			continue
		}
		if a.EndTime().After(dayStart) && a.StartTime.Before(dayEnd) {
			booked = append(booked, interval{start: a.StartTime, end: a.EndTime()})
		}
	}
	return booked
}

func overlapsAny(start, end time.Time, booked []interval) bool {
	for _, iv := range booked {
		if start.Before(iv.end) && iv.start.Before(end) {
			return true
		}
	}
	return false
}
