package directory

import (
	"context"
	"fmt"
	"strconv"
)

// Service wraps the registry with input checking and the specialist matcher.
type Service struct {
	repo    Repository
	matcher *Matcher
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo, matcher: NewMatcher(repo)}
}

func (s *Service) GetDoctor(ctx context.Context, id string) (*Doctor, error) {
	if id == "" {
		return nil, fmt.Errorf("doctor id is required")
	}
	return s.repo.GetByID(ctx, id)
}

func (s *Service) ListDoctors(ctx context.Context) []*Doctor {
	return s.repo.List(ctx)
}

func (s *Service) DoctorsBySpecialization(ctx context.Context, spec string) ([]*Doctor, error) {
	sp := Specialization(spec)
	if !sp.IsValid() {
		return nil, fmt.Errorf("unknown specialization %q", spec)
	}
	return s.repo.BySpecialization(ctx, sp), nil
}

func (s *Service) SearchDoctors(ctx context.Context, query string) []*Doctor {
	return s.repo.Search(ctx, query)
}

func (s *Service) DoctorsByMinRating(ctx context.Context, min string) ([]*Doctor, error) {
	rating, err := strconv.ParseFloat(min, 64)
	if err != nil {
		return nil, fmt.Errorf("invalid rating %q", min)
	}
	if rating < 0 || rating > 5 {
		return nil, fmt.Errorf("rating must be between 0 and 5")
	}
	return s.repo.ByMinRating(ctx, rating), nil
}

func (s *Service) AddDoctor(ctx context.Context, d *Doctor) error {
	return s.repo.Add(ctx, d)
}

func (s *Service) UpdateDoctor(ctx context.Context, d *Doctor) error {
	return s.repo.Update(ctx, d)
}

func (s *Service) DeleteDoctor(ctx context.Context, id string) error {
	return s.repo.Delete(ctx, id)
}

func (s *Service) MatchSpecialists(ctx context.Context, advice, diagnosis string, symptoms []string) []Match {
	return s.matcher.MatchSpecialists(ctx, advice, diagnosis, symptoms)
}

func (s *Service) Specializations() []Specialization {
	out := make([]Specialization, len(allSpecializations))
	copy(out, allSpecializations)
	return out
}
