package booking

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

const storeFileName = "appointments.json"

// Store is the sole owner of persisted appointment state. Every mutation is
// flushed to disk before the call returns; a failed flush rolls the in-memory
// change back so memory and disk never diverge.
//
// The two secondary indexes are updated in the same critical section as the
// primary map.
type Store struct {
	mu             sync.RWMutex
	dataDir        string
	path           string
	appointments   map[string]*Appointment
	byDoctor       map[string][]string
	byPatientEmail map[string][]string

	log zerolog.Logger
	now func() time.Time
}

// NewStore opens (or creates) the appointment store rooted at dataDir.
func NewStore(dataDir string, log zerolog.Logger) (*Store, error) {
	if err := os.MkdirAll(dataDir, 0o755); err != nil {
		return nil, fmt.Errorf("create data dir: %w", err)
	}
	s := &Store{
		dataDir:        dataDir,
		path:           filepath.Join(dataDir, storeFileName),
		appointments:   make(map[string]*Appointment),
		byDoctor:       make(map[string][]string),
		byPatientEmail: make(map[string][]string),
		log:            log.With().Str("component", "appointment_store").Logger(),
		now:            time.Now,
	}
	if err := s.load(); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *Store) load() error {
	raw, err := os.ReadFile(s.path)
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("read store file: %w", err)
	}
	var records map[string]*Appointment
	if err := json.Unmarshal(raw, &records); err != nil {
		return fmt.Errorf("parse store file %s: %w", s.path, err)
	}
	for id, appt := range records {
		if appt.ID == "" {
			appt.ID = id
		}
		if !appt.Status.IsValid() {
			s.log.Warn().Str("appointment_id", id).Str("status", string(appt.Status)).
				Msg("skipping record with unknown status")
			continue
		}
		s.appointments[id] = appt
		s.indexAdd(appt)
	}
	s.log.Info().Int("count", len(s.appointments)).Msg("appointment store loaded")
	return nil
}

// indexAdd and indexRemove keep the secondary indexes in step with the
// primary map. Callers must hold the write lock.
func (s *Store) indexAdd(a *Appointment) {
	s.byDoctor[a.DoctorID] = append(s.byDoctor[a.DoctorID], a.ID)
	email := strings.ToLower(a.Patient.Email)
	s.byPatientEmail[email] = append(s.byPatientEmail[email], a.ID)
}

func (s *Store) indexRemove(a *Appointment) {
	s.byDoctor[a.DoctorID] = removeID(s.byDoctor[a.DoctorID], a.ID)
	if len(s.byDoctor[a.DoctorID]) == 0 {
		delete(s.byDoctor, a.DoctorID)
	}
	email := strings.ToLower(a.Patient.Email)
	s.byPatientEmail[email] = removeID(s.byPatientEmail[email], a.ID)
	if len(s.byPatientEmail[email]) == 0 {
		delete(s.byPatientEmail, email)
	}
}

func removeID(ids []string, id string) []string {
	for i, v := range ids {
		if v == id {
			return append(ids[:i], ids[i+1:]...)
		}
	}
	return ids
}

// persist flushes the whole collection to disk atomically: serialize, write
// to a temp file in the same directory, then rename over the live file.
// Callers must hold the write lock.
func (s *Store) persist() error {
	records := make(map[string]*Appointment, len(s.appointments))
	for id, a := range s.appointments {
		records[id] = a
	}
	raw, err := json.MarshalIndent(records, "", "  ")
	if err != nil {
		return fmt.Errorf("%w: encode: %v", ErrPersistence, err)
	}
	tmp, err := os.CreateTemp(s.dataDir, storeFileName+".tmp-*")
	if err != nil {
		return fmt.Errorf("%w: create temp file: %v", ErrPersistence, err)
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(raw); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("%w: write temp file: %v", ErrPersistence, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("%w: close temp file: %v", ErrPersistence, err)
	}
	if err := os.Rename(tmpName, s.path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("%w: rename temp file: %v", ErrPersistence, err)
	}
	return nil
}

// conflicts reports whether a non-cancelled appointment for the same doctor
// overlaps the candidate's interval. excludeID skips the appointment being
// updated. Callers must hold at least the read lock.
func (s *Store) conflicts(candidate *Appointment, excludeID string) bool {
	for _, id := range s.byDoctor[candidate.DoctorID] {
		if id == excludeID {
			continue
		}
		existing := s.appointments[id]
		if existing.Status == StatusCancelled {
			continue
		}
		if candidate.Overlaps(existing) {
			return true
		}
	}
	return false
}

// Insert adds a new appointment. The conflict re-check, the map and index
// mutations and the disk flush all happen under one exclusive lock, closing
// the window between validation and commit.
func (s *Store) Insert(a *Appointment) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.appointments[a.ID]; ok {
		return ErrDuplicateID
	}
	if s.conflicts(a, "") {
		return ErrConflict
	}

	s.appointments[a.ID] = a
	s.indexAdd(a)
	if err := s.persist(); err != nil {
		delete(s.appointments, a.ID)
		s.indexRemove(a)
		s.log.Error().Err(err).Str("appointment_id", a.ID).Msg("insert flush failed, rolled back")
		return err
	}
	s.log.Info().Str("appointment_id", a.ID).Str("doctor_id", a.DoctorID).
		Str("reference", a.ReferenceNumber).Msg("appointment inserted")
	return nil
}

// Update replaces an existing appointment. When the update moves the time
// window it re-checks conflicts against everything except the appointment
// itself.
func (s *Store) Update(a *Appointment) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	prev, ok := s.appointments[a.ID]
	if !ok {
		return ErrNotFound
	}
	timeChanged := !prev.StartTime.Equal(a.StartTime) || prev.DurationMinutes != a.DurationMinutes
	if timeChanged && a.Status != StatusCancelled && s.conflicts(a, a.ID) {
		return ErrConflict
	}

	a.UpdatedAt = s.now()
	s.indexRemove(prev)
	s.appointments[a.ID] = a
	s.indexAdd(a)
	if err := s.persist(); err != nil {
		s.indexRemove(a)
		s.appointments[a.ID] = prev
		s.indexAdd(prev)
		s.log.Error().Err(err).Str("appointment_id", a.ID).Msg("update flush failed, rolled back")
		return err
	}
	return nil
}

// Cancel transitions an appointment to cancelled, appending the reason to
// its notes. Cancelling twice is a domain error, not a state change.
func (s *Store) Cancel(id, reason string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	prev, ok := s.appointments[id]
	if !ok {
		return ErrNotFound
	}
	if prev.Status == StatusCancelled {
		return ErrAlreadyCancelled
	}
	if !prev.Status.CanTransitionTo(StatusCancelled) {
		return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, prev.Status, StatusCancelled)
	}

	next := *prev
	next.Status = StatusCancelled
	next.UpdatedAt = s.now()
	if reason != "" {
		if next.Notes != "" {
			next.Notes += "\n"
		}
		next.Notes += "Cancellation reason: " + reason
	}

	s.appointments[id] = &next
	if err := s.persist(); err != nil {
		s.appointments[id] = prev
		s.log.Error().Err(err).Str("appointment_id", id).Msg("cancel flush failed, rolled back")
		return err
	}
	s.log.Info().Str("appointment_id", id).Str("reference", next.ReferenceNumber).Msg("appointment cancelled")
	return nil
}

// Transition applies a lifecycle change (confirm, complete, no-show). It is
// the administrative sibling of Cancel.
func (s *Store) Transition(id string, next Status) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	prev, ok := s.appointments[id]
	if !ok {
		return ErrNotFound
	}
	if !prev.Status.CanTransitionTo(next) {
		return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, prev.Status, next)
	}

	updated := *prev
	updated.Status = next
	updated.UpdatedAt = s.now()
	s.appointments[id] = &updated
	if err := s.persist(); err != nil {
		s.appointments[id] = prev
		s.log.Error().Err(err).Str("appointment_id", id).Msg("transition flush failed, rolled back")
		return err
	}
	return nil
}

// Delete removes an appointment entirely. Administrative use only; normal
// flows cancel instead.
func (s *Store) Delete(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	prev, ok := s.appointments[id]
	if !ok {
		return ErrNotFound
	}
	delete(s.appointments, id)
	s.indexRemove(prev)
	if err := s.persist(); err != nil {
		s.appointments[id] = prev
		s.indexAdd(prev)
		s.log.Error().Err(err).Str("appointment_id", id).Msg("delete flush failed, rolled back")
		return err
	}
	return nil
}

// GetByID returns a copy of the appointment.
func (s *Store) GetByID(id string) (*Appointment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	a, ok := s.appointments[id]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *a
	return &cp, nil
}

// ByReference looks an appointment up by its human-shareable reference.
func (s *Store) ByReference(ref string) (*Appointment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, a := range s.appointments {
		if a.ReferenceNumber == ref {
			cp := *a
			return &cp, nil
		}
	}
	return nil, ErrNotFound
}

// ByDoctor returns the doctor's appointments in chronological order.
func (s *Store) ByDoctor(doctorID string) []*Appointment {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.collect(s.byDoctor[doctorID])
}

// ByPatient returns the appointments booked under the given email.
func (s *Store) ByPatient(email string) []*Appointment {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.collect(s.byPatientEmail[strings.ToLower(email)])
}

func (s *Store) collect(ids []string) []*Appointment {
	result := make([]*Appointment, 0, len(ids))
	for _, id := range ids {
		if a, ok := s.appointments[id]; ok {
			cp := *a
			result = append(result, &cp)
		}
	}
	sortChronological(result)
	return result
}

// ByDateRange returns every appointment starting within [start, end).
func (s *Store) ByDateRange(start, end time.Time) []*Appointment {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var result []*Appointment
	for _, a := range s.appointments {
		if !a.StartTime.Before(start) && a.StartTime.Before(end) {
			cp := *a
			result = append(result, &cp)
		}
	}
	sortChronological(result)
	return result
}

// Schedule groups a doctor's appointments within [start, end) by calendar
// date (formatted 2006-01-02), each day in chronological order.
func (s *Store) Schedule(doctorID string, start, end time.Time) map[string][]*Appointment {
	s.mu.RLock()
	defer s.mu.RUnlock()
	result := make(map[string][]*Appointment)
	for _, id := range s.byDoctor[doctorID] {
		a := s.appointments[id]
		if a.StartTime.Before(start) || !a.StartTime.Before(end) {
			continue
		}
		day := a.StartTime.Format("2006-01-02")
		cp := *a
		result[day] = append(result[day], &cp)
	}
	for _, day := range result {
		sortChronological(day)
	}
	return result
}

func sortChronological(as []*Appointment) {
	sort.Slice(as, func(i, j int) bool {
		if !as[i].StartTime.Equal(as[j].StartTime) {
			return as[i].StartTime.Before(as[j].StartTime)
		}
		return as[i].ID < as[j].ID
	})
}

// Statistics is a point-in-time summary of the collection.
type Statistics struct {
	TotalAppointments    int            `json:"totalAppointments"`
	StatusBreakdown      map[Status]int `json:"statusBreakdown"`
	TodayAppointments    int            `json:"todayAppointments"`
	NextWeekAppointments int            `json:"nextWeekAppointments"`
	UniqueDoctors        int            `json:"uniqueDoctors"`
	UniquePatients       int            `json:"uniquePatients"`
	DataFile             string         `json:"dataFile"`
}

// Stats computes counts by status plus today/next-7-days activity.
func (s *Store) Stats() Statistics {
	s.mu.RLock()
	defer s.mu.RUnlock()

	stats := Statistics{
		TotalAppointments: len(s.appointments),
		StatusBreakdown:   make(map[Status]int, len(AllStatuses)),
		UniqueDoctors:     len(s.byDoctor),
		UniquePatients:    len(s.byPatientEmail),
		DataFile:          s.path,
	}
	for _, status := range AllStatuses {
		stats.StatusBreakdown[status] = 0
	}

	now := s.now()
	todayStart := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	todayEnd := todayStart.AddDate(0, 0, 1)
	weekEnd := todayStart.AddDate(0, 0, 7)

	for _, a := range s.appointments {
		stats.StatusBreakdown[a.Status]++
		if !a.StartTime.Before(todayStart) && a.StartTime.Before(todayEnd) {
			stats.TodayAppointments++
		}
		if !a.StartTime.Before(todayStart) && a.StartTime.Before(weekEnd) {
			stats.NextWeekAppointments++
		}
	}
	return stats
}

// Backup copies the live store file to a timestamped sibling and returns its
// path. An empty name picks a default of the form appointments_backup_<ts>.json.
func (s *Store) Backup(name string) (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if name == "" {
		name = fmt.Sprintf("appointments_backup_%s.json", s.now().Format("20060102_150405"))
	}
	dst := filepath.Join(s.dataDir, name)

	src, err := os.Open(s.path)
	if err != nil {
		return "", fmt.Errorf("%w: open store file: %v", ErrPersistence, err)
	}
	defer src.Close()

	out, err := os.Create(dst)
	if err != nil {
		return "", fmt.Errorf("%w: create backup: %v", ErrPersistence, err)
	}
	if _, err := io.Copy(out, src); err != nil {
		out.Close()
		os.Remove(dst)
		return "", fmt.Errorf("%w: copy backup: %v", ErrPersistence, err)
	}
	if err := out.Close(); err != nil {
		os.Remove(dst)
		return "", fmt.Errorf("%w: close backup: %v", ErrPersistence, err)
	}
	s.log.Info().Str("path", dst).Msg("backup written")
	return dst, nil
}

// csvHeader defines the flattened export layout, one row per appointment.
var csvHeader = []string{
	"Reference", "Doctor_ID", "Patient_Name", "Patient_Email", "Patient_Phone",
	"DateTime", "Duration", "Status", "Symptoms", "Diagnosis", "Notes", "Created",
}

// ExportCSV writes the collection as a timestamped CSV file for reporting
// and returns its path.
func (s *Store) ExportCSV() (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows := make([]*Appointment, 0, len(s.appointments))
	for _, a := range s.appointments {
		rows = append(rows, a)
	}
	sortChronological(rows)

	path := filepath.Join(s.dataDir, fmt.Sprintf("appointments_export_%s.csv", s.now().Format("20060102_150405")))
	f, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("%w: create export: %v", ErrPersistence, err)
	}

	w := csv.NewWriter(f)
	if err := w.Write(csvHeader); err != nil {
		f.Close()
		os.Remove(path)
		return "", fmt.Errorf("%w: write export: %v", ErrPersistence, err)
	}
	for _, a := range rows {
		record := []string{
			a.ReferenceNumber,
			a.DoctorID,
			a.Patient.Name,
			a.Patient.Email,
			a.Patient.Phone,
			a.StartTime.Format("2006-01-02 15:04"),
			strconv.Itoa(a.DurationMinutes),
			string(a.Status),
			strings.Join(a.Patient.Symptoms, ", "),
			a.Patient.Diagnosis,
			a.Notes,
			a.CreatedAt.Format("2006-01-02 15:04"),
		}
		if err := w.Write(record); err != nil {
			f.Close()
			os.Remove(path)
			return "", fmt.Errorf("%w: write export: %v", ErrPersistence, err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		f.Close()
		os.Remove(path)
		return "", fmt.Errorf("%w: flush export: %v", ErrPersistence, err)
	}
	if err := f.Close(); err != nil {
		os.Remove(path)
		return "", fmt.Errorf("%w: close export: %v", ErrPersistence, err)
	}
	s.log.Info().Str("path", path).Int("rows", len(rows)).Msg("csv export written")
	return path, nil
}

// Len reports the number of stored appointments.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.appointments)
}
