package directory

import "time"

// SeedDoctors returns the built-in doctor registry used when no external
// source is configured.
func SeedDoctors() []*Doctor {
	weekdayBlock := func(days []time.Weekday, start, end ClockTime, brk ...ClockTime) []WorkingHours {
		var hours []WorkingHours
		for _, day := range days {
			if len(brk) == 2 {
				hours = append(hours, WithBreak(day, start, end, brk[0], brk[1]))
			} else {
				hours = append(hours, WithoutBreak(day, start, end))
			}
		}
		return hours
	}
	monToThu := []time.Weekday{time.Monday, time.Tuesday, time.Wednesday, time.Thursday}
	tueToThu := []time.Weekday{time.Tuesday, time.Wednesday, time.Thursday}

	return []*Doctor{
		{
			ID:             "doc_001",
			Name:           "Kovács János",
			Specialization: InternalMedicine,
			Location:       "Budapest",
			Address:        "1052 Budapest, Petőfi Sándor u. 12.",
			Phone:          "+36 1 234 5678",
			Email:          "kovacs.janos@medcenter.hu",
			WorkingHours: append(
				weekdayBlock(monToThu, NewClockTime(8, 0), NewClockTime(16, 0), NewClockTime(12, 0), NewClockTime(13, 0)),
				WithoutBreak(time.Friday, NewClockTime(8, 0), NewClockTime(14, 0)),
			),
			Rating:              4.8,
			Description:         "Internist with 15 years of practice; heart disease and diabetes specialist.",
			AppointmentDuration: 30,
			Languages:           []string{"hungarian", "english"},
		},
		{
			ID:             "doc_002",
			Name:           "Nagy Éva",
			Specialization: Neurology,
			Location:       "Budapest",
			Address:        "1051 Budapest, Arany János u. 8.",
			Phone:          "+36 1 345 6789",
			Email:          "nagy.eva@neurocenter.hu",
			WorkingHours: weekdayBlock(monToThu,
				NewClockTime(9, 0), NewClockTime(17, 0), NewClockTime(13, 0), NewClockTime(14, 0)),
			Rating:              4.9,
			Description:         "Neurologist focused on headache and migraine care, with stroke rehabilitation experience.",
			AppointmentDuration: 30,
			Languages:           []string{"hungarian", "german"},
		},
		{
			ID:             "doc_003",
			Name:           "Szabó Péter",
			Specialization: Cardiology,
			Location:       "Budapest",
			Address:        "1065 Budapest, Bajcsy-Zsilinszky út 25.",
			Phone:          "+36 1 456 7890",
			Email:          "szabo.peter@cardio.hu",
			WorkingHours: append(
				weekdayBlock(monToThu, NewClockTime(8, 0), NewClockTime(16, 0)),
				WithoutBreak(time.Friday, NewClockTime(8, 0), NewClockTime(12, 0)),
			),
			Rating:              4.7,
			Description:         "Cardiologist specialising in arrhythmia and hypertension; performs pacemaker implantation.",
			AppointmentDuration: 30,
			Languages:           []string{"hungarian", "english"},
		},
		{
			ID:             "doc_004",
			Name:           "Takács Anna",
			Specialization: Dermatology,
			Location:       "Budapest",
			Address:        "1064 Budapest, Váci út 45.",
			Phone:          "+36 1 567 8901",
			Email:          "takacs.anna@derma.hu",
			WorkingHours: append(
				weekdayBlock(tueToThu, NewClockTime(10, 0), NewClockTime(18, 0), NewClockTime(14, 0), NewClockTime(15, 0)),
				WithoutBreak(time.Friday, NewClockTime(10, 0), NewClockTime(16, 0)),
			),
			Rating:              4.6,
			Description:         "Dermatologist experienced with allergies and skin conditions; cosmetic dermatology specialist.",
			AppointmentDuration: 30,
			Languages:           []string{"hungarian", "french"},
		},
		{
			ID:             "doc_005",
			Name:           "Horváth Zoltán",
			Specialization: GeneralPractitioner,
			Location:       "Budapest",
			Address:        "1053 Budapest, Kecskeméti u. 14.",
			Phone:          "+36 1 678 9012",
			Email:          "horvath.zoltan@haziorvos.hu",
			WorkingHours: append(
				weekdayBlock(monToThu, NewClockTime(7, 0), NewClockTime(15, 0), NewClockTime(11, 0), NewClockTime(12, 0)),
				WithoutBreak(time.Friday, NewClockTime(7, 0), NewClockTime(13, 0)),
			),
			Rating:              4.5,
			Description:         "General practitioner experienced with everyday medical problems; family medicine specialist.",
			AppointmentDuration: 30,
			Languages:           []string{"hungarian"},
		},
		{
			ID:             "doc_006",
			Name:           "Varga Klára",
			Specialization: Gynecology,
			Location:       "Budapest",
			Address:        "1054 Budapest, Széchenyi rkp. 19.",
			Phone:          "+36 1 789 0123",
			Email:          "varga.klara@noi.hu",
			WorkingHours: weekdayBlock(monToThu,
				NewClockTime(8, 0), NewClockTime(16, 0), NewClockTime(12, 0), NewClockTime(13, 0)),
			Rating:              4.8,
			Description:         "Gynecologist with obstetric and endocrinology background.",
			AppointmentDuration: 30,
			Languages:           []string{"hungarian", "english"},
		},
	}
}
