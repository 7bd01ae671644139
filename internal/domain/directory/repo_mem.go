package directory

import (
	"context"
	"sort"
	"strings"
	"sync"
)

// MemRepo is the in-memory Repository implementation. The registry is small
// and read-mostly, so a map under an RWMutex is sufficient.
type MemRepo struct {
	mu      sync.RWMutex
	doctors map[string]*Doctor
}

// NewMemRepo creates an empty registry.
func NewMemRepo() *MemRepo {
	return &MemRepo{doctors: make(map[string]*Doctor)}
}

// NewSeededRepo creates a registry pre-loaded with the given doctors.
// Invalid seed records are rejected.
func NewSeededRepo(doctors []*Doctor) (*MemRepo, error) {
	r := NewMemRepo()
	for _, d := range doctors {
		if err := r.Add(context.Background(), d); err != nil {
			return nil, err
		}
	}
	return r, nil
}

func (r *MemRepo) GetByID(_ context.Context, id string) (*Doctor, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	d, ok := r.doctors[id]
	if !ok {
		return nil, ErrDoctorNotFound
	}
	return d, nil
}

func (r *MemRepo) List(_ context.Context) []*Doctor {
	r.mu.RLock()
	defer r.mu.RUnlock()
	result := make([]*Doctor, 0, len(r.doctors))
	for _, d := range r.doctors {
		result = append(result, d)
	}
	sortByID(result)
	return result
}

func (r *MemRepo) BySpecialization(_ context.Context, spec Specialization) []*Doctor {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var result []*Doctor
	for _, d := range r.doctors {
		if d.Specialization == spec {
			result = append(result, d)
		}
	}
	sortByID(result)
	return result
}

// Search matches a case-insensitive substring against the doctor's name,
// specialization label and location.
func (r *MemRepo) Search(_ context.Context, query string) []*Doctor {
	query = strings.ToLower(strings.TrimSpace(query))
	r.mu.RLock()
	defer r.mu.RUnlock()
	var result []*Doctor
	for _, d := range r.doctors {
		if strings.Contains(strings.ToLower(d.Name), query) ||
			strings.Contains(d.Specialization.Label(), query) ||
			strings.Contains(strings.ToLower(d.Location), query) {
			result = append(result, d)
		}
	}
	sortByID(result)
	return result
}

func (r *MemRepo) ByMinRating(_ context.Context, min float64) []*Doctor {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var result []*Doctor
	for _, d := range r.doctors {
		if d.Rating >= min {
			result = append(result, d)
		}
	}
	sort.Slice(result, func(i, j int) bool {
		if result[i].Rating != result[j].Rating {
			return result[i].Rating > result[j].Rating
		}
		return result[i].ID < result[j].ID
	})
	return result
}

func (r *MemRepo) Add(_ context.Context, d *Doctor) error {
	if d.AppointmentDuration == 0 {
		d.AppointmentDuration = DefaultAppointmentDuration
	}
	if err := d.Validate(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.doctors[d.ID]; ok {
		return ErrDoctorExists
	}
	r.doctors[d.ID] = d
	return nil
}

func (r *MemRepo) Update(_ context.Context, d *Doctor) error {
	if err := d.Validate(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.doctors[d.ID]; !ok {
		return ErrDoctorNotFound
	}
	r.doctors[d.ID] = d
	return nil
}

func (r *MemRepo) Delete(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.doctors[id]; !ok {
		return ErrDoctorNotFound
	}
	delete(r.doctors, id)
	return nil
}

func sortByID(ds []*Doctor) {
	sort.Slice(ds, func(i, j int) bool { return ds[i].ID < ds[j].ID })
}
