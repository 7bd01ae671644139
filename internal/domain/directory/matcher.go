package directory

import (
	"context"
	"sort"
	"strings"
)

// specializationKeywords maps each specialization to the symptom and
// complaint vocabulary that suggests it.
var specializationKeywords = map[Specialization][]string{
	InternalMedicine: {
		"internist", "internal medicine", "general illness", "fever", "fatigue",
		"chronic illness", "diabetes", "blood pressure",
	},
	Neurology: {
		"neurologist", "neurology", "headache", "migraine", "dizziness",
		"nervous system", "stroke", "numbness",
	},
	Cardiology: {
		"cardiologist", "cardiology", "heart", "chest pain", "palpitation",
		"arrhythmia", "blood pressure", "cardiovascular",
	},
	Dermatology: {
		"dermatologist", "dermatology", "skin", "allergy", "rash",
		"eczema", "itching", "mole",
	},
	Gastroenterology: {
		"gastroenterologist", "gastroenterology", "stomach", "digestion",
		"abdominal pain", "nausea", "vomiting", "diarrhea",
	},
	Orthopedics: {
		"orthopedist", "orthopedics", "bone", "joint", "back pain",
		"spine", "fracture", "sprain",
	},
	Psychiatry: {
		"psychiatrist", "psychiatry", "depression", "anxiety",
		"insomnia", "mental health", "panic",
	},
	Gynecology: {
		"gynecologist", "gynecology", "pregnancy", "menstrual",
		"obstetric", "hormonal",
	},
	Emergency: {
		"emergency", "urgent", "immediately", "acute", "trauma", "accident",
	},
}

// Match pairs a doctor with the relevance score the matcher assigned.
type Match struct {
	Doctor *Doctor `json:"doctor"`
	Score  float64 `json:"score"`
}

// Matcher ranks doctors against free-text complaints. It is stateless apart
// from the registry it reads.
type Matcher struct {
	repo Repository
}

// NewMatcher creates a Matcher over the given registry.
func NewMatcher(repo Repository) *Matcher {
	return &Matcher{repo: repo}
}

const (
	keywordScore       = 10.0
	nameMentionScore   = 20.0
	directMentionScore = 15.0
	gpBaseScore        = 5.0
	maxScore           = 100.0
)

// MatchSpecialists scores every doctor against the combined advice, diagnosis
// and symptom text and returns the five best matches, highest score first.
// Doctors that score zero are excluded.
func (m *Matcher) MatchSpecialists(ctx context.Context, advice, diagnosis string, symptoms []string) []Match {
	text := strings.ToLower(advice + " " + diagnosis + " " + strings.Join(symptoms, " "))

	var matches []Match
	for _, d := range m.repo.List(ctx) {
		if score := relevanceScore(d, text); score > 0 {
			matches = append(matches, Match{Doctor: d, Score: score})
		}
	}
	sort.Slice(matches, func(i, j int) bool {
		if matches[i].Score != matches[j].Score {
			return matches[i].Score > matches[j].Score
		}
		return matches[i].Doctor.ID < matches[j].Doctor.ID
	})
	if len(matches) > 5 {
		matches = matches[:5]
	}
	return matches
}

func relevanceScore(d *Doctor, text string) float64 {
	score := 0.0
	for _, kw := range specializationKeywords[d.Specialization] {
		if strings.Contains(text, kw) {
			score += keywordScore
		}
	}
	if strings.Contains(text, strings.ToLower(d.Name)) ||
		strings.Contains(text, strings.ToLower(d.DisplayName())) {
		score += nameMentionScore
	}
	if strings.Contains(text, d.Specialization.Label()) {
		score += directMentionScore
	}
	if bonus := (d.Rating - 4.0) * 5.0; bonus > 0 {
		score += bonus
	}
	if d.Specialization == GeneralPractitioner {
		score += gpBaseScore
	}
	if score > maxScore {
		score = maxScore
	}
	return score
}

// EmergencyRecommendations returns the doctors to suggest for urgent cases.
func (m *Matcher) EmergencyRecommendations(ctx context.Context) []*Doctor {
	return m.repo.BySpecialization(ctx, Emergency)
}

// GeneralPractitioners returns the registered GPs.
func (m *Matcher) GeneralPractitioners(ctx context.Context) []*Doctor {
	return m.repo.BySpecialization(ctx, GeneralPractitioner)
}
