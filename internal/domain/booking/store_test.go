package booking

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
)

func TestStoreInsertAndGet(t *testing.T) {
	env := newTestEnv(t)

	a := testAppointment("apt_1", "doc_001", mondayAt(9, 0), 30, StatusConfirmed)
	if err := env.store.Insert(a); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	got, err := env.store.GetByID("apt_1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.DoctorID != "doc_001" || !got.StartTime.Equal(mondayAt(9, 0)) {
		t.Errorf("unexpected appointment: %+v", got)
	}

	if _, err := env.store.GetByID("missing"); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
	if err := env.store.Insert(a); !errors.Is(err, ErrDuplicateID) {
		t.Errorf("expected ErrDuplicateID, got %v", err)
	}
}

func TestStoreInsertConflictOverlap(t *testing.T) {
	env := newTestEnv(t)

	if err := env.store.Insert(testAppointment("apt_1", "doc_001", mondayAt(9, 0), 60, StatusConfirmed)); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// Overlapping interval, not an identical start time.
	err := env.store.Insert(testAppointment("apt_2", "doc_001", mondayAt(9, 30), 30, StatusConfirmed))
	if !errors.Is(err, ErrConflict) {
		t.Fatalf("expected ErrConflict, got %v", err)
	}
	if env.store.Len() != 1 {
		t.Errorf("conflicting insert must not mutate the store")
	}

	// Same interval for a different doctor is fine.
	if err := env.store.Insert(testAppointment("apt_3", "doc_002", mondayAt(9, 30), 30, StatusConfirmed)); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// A cancelled appointment does not block the slot.
	if err := env.store.Insert(testAppointment("apt_4", "doc_003", mondayAt(9, 0), 30, StatusCancelled)); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := env.store.Insert(testAppointment("apt_5", "doc_003", mondayAt(9, 0), 30, StatusConfirmed)); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestStorePersistReloadRoundTrip(t *testing.T) {
	dir := t.TempDir()
	store, err := NewStore(dir, zerolog.Nop())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	appts := []*Appointment{
		testAppointment("apt_1", "doc_001", mondayAt(8, 0), 30, StatusConfirmed),
		testAppointment("apt_2", "doc_001", mondayAt(9, 0), 30, StatusConfirmed),
		testAppointment("apt_3", "doc_002", mondayAt(9, 0), 30, StatusCancelled),
	}
	for _, a := range appts {
		if err := store.Insert(a); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	}

	reloaded, err := NewStore(dir, zerolog.Nop())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if reloaded.Len() != len(appts) {
		t.Fatalf("expected %d appointments after reload, got %d", len(appts), reloaded.Len())
	}
	for _, want := range appts {
		got, err := reloaded.GetByID(want.ID)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if got.Status != want.Status || !got.StartTime.Equal(want.StartTime) ||
			got.ReferenceNumber != want.ReferenceNumber || got.Patient.Email != want.Patient.Email {
			t.Errorf("reloaded %s differs: %+v", want.ID, got)
		}
	}

	// Indexes are rebuilt on load.
	if got := reloaded.ByDoctor("doc_001"); len(got) != 2 {
		t.Errorf("expected 2 appointments for doc_001, got %d", len(got))
	}
	if got := reloaded.ByPatient("minta.anna@example.com"); len(got) != 3 {
		t.Errorf("expected 3 appointments for patient, got %d", len(got))
	}
}

func TestStoreCancel(t *testing.T) {
	env := newTestEnv(t)
	if err := env.store.Insert(testAppointment("apt_1", "doc_001", mondayAt(9, 0), 30, StatusConfirmed)); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if err := env.store.Cancel("apt_1", "patient request"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	got, _ := env.store.GetByID("apt_1")
	if got.Status != StatusCancelled {
		t.Errorf("expected cancelled, got %s", got.Status)
	}
	if !strings.Contains(got.Notes, "patient request") {
		t.Errorf("expected reason in notes, got %q", got.Notes)
	}

	// Cancelling again is a domain error and changes nothing.
	before, _ := env.store.GetByID("apt_1")
	if err := env.store.Cancel("apt_1", "again"); !errors.Is(err, ErrAlreadyCancelled) {
		t.Fatalf("expected ErrAlreadyCancelled, got %v", err)
	}
	after, _ := env.store.GetByID("apt_1")
	if after.Notes != before.Notes || !after.UpdatedAt.Equal(before.UpdatedAt) {
		t.Error("second cancel must not change state")
	}

	if err := env.store.Cancel("missing", ""); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestStoreCancelCompletedRejected(t *testing.T) {
	env := newTestEnv(t)
	if err := env.store.Insert(testAppointment("apt_1", "doc_001", mondayAt(9, 0), 30, StatusConfirmed)); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := env.store.Transition("apt_1", StatusCompleted); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := env.store.Cancel("apt_1", ""); !errors.Is(err, ErrInvalidTransition) {
		t.Errorf("expected ErrInvalidTransition, got %v", err)
	}
}

func TestStoreTransition(t *testing.T) {
	env := newTestEnv(t)
	if err := env.store.Insert(testAppointment("apt_1", "doc_001", mondayAt(9, 0), 30, StatusPending)); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if err := env.store.Transition("apt_1", StatusConfirmed); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := env.store.Transition("apt_1", StatusNoShow); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := env.store.Transition("apt_1", StatusConfirmed); !errors.Is(err, ErrInvalidTransition) {
		t.Errorf("expected ErrInvalidTransition, got %v", err)
	}
	if err := env.store.Transition("missing", StatusConfirmed); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestStoreUpdateConflictCheck(t *testing.T) {
	env := newTestEnv(t)
	if err := env.store.Insert(testAppointment("apt_1", "doc_001", mondayAt(9, 0), 30, StatusConfirmed)); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := env.store.Insert(testAppointment("apt_2", "doc_001", mondayAt(10, 0), 30, StatusConfirmed)); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// Moving apt_2 onto apt_1's interval conflicts.
	moved := testAppointment("apt_2", "doc_001", mondayAt(9, 0), 30, StatusConfirmed)
	if err := env.store.Update(moved); !errors.Is(err, ErrConflict) {
		t.Fatalf("expected ErrConflict, got %v", err)
	}

	// Updating without moving the window does not trip the conflict check.
	same := testAppointment("apt_2", "doc_001", mondayAt(10, 0), 30, StatusConfirmed)
	same.Notes = "updated"
	if err := env.store.Update(same); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	got, _ := env.store.GetByID("apt_2")
	if got.Notes != "updated" {
		t.Errorf("update not applied: %+v", got)
	}

	if err := env.store.Update(testAppointment("missing", "doc_001", mondayAt(11, 0), 30, StatusConfirmed)); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestStoreDeleteMaintainsIndexes(t *testing.T) {
	env := newTestEnv(t)
	if err := env.store.Insert(testAppointment("apt_1", "doc_001", mondayAt(9, 0), 30, StatusConfirmed)); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if err := env.store.Delete("apt_1"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if env.store.Len() != 0 {
		t.Error("expected empty store")
	}
	if got := env.store.ByDoctor("doc_001"); len(got) != 0 {
		t.Errorf("doctor index not cleaned: %d entries", len(got))
	}
	if got := env.store.ByPatient("minta.anna@example.com"); len(got) != 0 {
		t.Errorf("patient index not cleaned: %d entries", len(got))
	}
	if err := env.store.Delete("apt_1"); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestStoreFlushFailureRollsBack(t *testing.T) {
	env := newTestEnv(t)
	if err := env.store.Insert(testAppointment("apt_1", "doc_001", mondayAt(9, 0), 30, StatusConfirmed)); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// Point the store at a directory that cannot exist so the next flush fails.
	env.store.dataDir = filepath.Join(string(os.PathSeparator), "nonexistent", "clinicdesk")

	err := env.store.Insert(testAppointment("apt_2", "doc_001", mondayAt(10, 0), 30, StatusConfirmed))
	if !errors.Is(err, ErrPersistence) {
		t.Fatalf("expected ErrPersistence, got %v", err)
	}
	if env.store.Len() != 1 {
		t.Error("failed insert must be rolled back")
	}
	if _, err := env.store.GetByID("apt_2"); !errors.Is(err, ErrNotFound) {
		t.Error("rolled-back appointment must not be readable")
	}
	if got := env.store.ByDoctor("doc_001"); len(got) != 1 {
		t.Errorf("doctor index must be rolled back, got %d entries", len(got))
	}

	if err := env.store.Cancel("apt_1", ""); !errors.Is(err, ErrPersistence) {
		t.Fatalf("expected ErrPersistence, got %v", err)
	}
	got, _ := env.store.GetByID("apt_1")
	if got.Status != StatusConfirmed {
		t.Error("failed cancel must be rolled back")
	}
}

func TestStoreByDateRangeAndSchedule(t *testing.T) {
	env := newTestEnv(t)
	tuesday := mondayAt(9, 0).AddDate(0, 0, 1)
	for _, a := range []*Appointment{
		testAppointment("apt_1", "doc_001", mondayAt(9, 0), 30, StatusConfirmed),
		testAppointment("apt_2", "doc_001", mondayAt(8, 0), 30, StatusConfirmed),
		testAppointment("apt_3", "doc_001", tuesday, 30, StatusConfirmed),
	} {
		if err := env.store.Insert(a); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	}

	day := env.store.ByDateRange(nextMonday, nextMonday.AddDate(0, 0, 1))
	if len(day) != 2 {
		t.Fatalf("expected 2 appointments on Monday, got %d", len(day))
	}
	if day[0].ID != "apt_2" || day[1].ID != "apt_1" {
		t.Errorf("expected chronological order, got %s, %s", day[0].ID, day[1].ID)
	}

	schedule := env.store.Schedule("doc_001", nextMonday, nextMonday.AddDate(0, 0, 7))
	if len(schedule) != 2 {
		t.Fatalf("expected 2 days in schedule, got %d", len(schedule))
	}
	if got := schedule["2026-09-07"]; len(got) != 2 {
		t.Errorf("expected 2 appointments on 2026-09-07, got %d", len(got))
	}
	if got := schedule["2026-09-08"]; len(got) != 1 {
		t.Errorf("expected 1 appointment on 2026-09-08, got %d", len(got))
	}
}

func TestStoreStats(t *testing.T) {
	env := newTestEnv(t)
	today := time.Date(2026, 9, 2, 14, 0, 0, 0, time.UTC)
	for _, a := range []*Appointment{
		testAppointment("apt_1", "doc_001", today, 30, StatusConfirmed),
		testAppointment("apt_2", "doc_001", mondayAt(9, 0), 30, StatusConfirmed),
		testAppointment("apt_3", "doc_002", mondayAt(9, 0), 30, StatusCancelled),
	} {
		if err := env.store.Insert(a); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	}

	stats := env.store.Stats()
	if stats.TotalAppointments != 3 {
		t.Errorf("expected 3 total, got %d", stats.TotalAppointments)
	}
	if stats.StatusBreakdown[StatusConfirmed] != 2 || stats.StatusBreakdown[StatusCancelled] != 1 {
		t.Errorf("unexpected breakdown: %+v", stats.StatusBreakdown)
	}
	if stats.StatusBreakdown[StatusPending] != 0 {
		t.Errorf("expected zero-valued entries for unused statuses")
	}
	if stats.TodayAppointments != 1 {
		t.Errorf("expected 1 today, got %d", stats.TodayAppointments)
	}
	if stats.NextWeekAppointments != 3 {
		t.Errorf("expected 3 within the next week, got %d", stats.NextWeekAppointments)
	}
	if stats.UniqueDoctors != 2 || stats.UniquePatients != 1 {
		t.Errorf("unexpected uniques: %d doctors, %d patients", stats.UniqueDoctors, stats.UniquePatients)
	}
}

func TestStoreBackup(t *testing.T) {
	env := newTestEnv(t)
	if err := env.store.Insert(testAppointment("apt_1", "doc_001", mondayAt(9, 0), 30, StatusConfirmed)); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	path, err := env.store.Backup("")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(filepath.Base(path), "appointments_backup_") {
		t.Errorf("unexpected backup name: %s", path)
	}
	original, err := os.ReadFile(env.store.path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	copied, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if string(original) != string(copied) {
		t.Error("backup content differs from the live store file")
	}

	named, err := env.store.Backup("snapshot.json")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if filepath.Base(named) != "snapshot.json" {
		t.Errorf("unexpected named backup: %s", named)
	}
}

func TestStoreExportCSV(t *testing.T) {
	env := newTestEnv(t)
	a := testAppointment("apt_1", "doc_001", mondayAt(9, 0), 30, StatusConfirmed)
	a.Patient.Diagnosis = "tension headache"
	if err := env.store.Insert(a); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	path, err := env.store.ExportCSV()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	lines := strings.Split(strings.TrimSpace(string(raw)), "\n")
	if len(lines) != 2 {
		t.Fatalf("expected header plus one row, got %d lines", len(lines))
	}
	if !strings.HasPrefix(lines[0], "Reference,Doctor_ID,Patient_Name") {
		t.Errorf("unexpected header: %s", lines[0])
	}
	if !strings.Contains(lines[1], "doc_001") || !strings.Contains(lines[1], "2026-09-07 09:00") ||
		!strings.Contains(lines[1], "tension headache") {
		t.Errorf("unexpected row: %s", lines[1])
	}
}
