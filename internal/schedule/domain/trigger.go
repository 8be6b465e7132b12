package domain

import "time"

// NextRun computes the first occurrence of the schedule at or after the
// reference instant. It is a pure function of the recurrence fields and the
// reference instant; it never reads a clock and never depends on previously
// computed state, so recomputing from an already-future next_run_at yields
// the same answer as computing fresh.
//
// Day-of-month clamping: a monthly schedule whose day_of_month exceeds the
// length of the target month fires on the last day of that month. A
// day_of_month=31 schedule fires on Feb 28 (29 in leap years), not in March.
func NextRun(s *Schedule, ref time.Time, loc *time.Location) time.Time {
	local := ref.In(loc)

	switch s.Frequency {
	case FrequencyDaily:
		t := atTimeOfDay(s, local)
		if t.Before(ref) {
			t = atTimeOfDay(s, local.AddDate(0, 0, 1))
		}
		return t.UTC()

	case FrequencyWeekly:
		ahead := (*s.DayOfWeek - int(local.Weekday()) + 7) % 7
		t := atTimeOfDay(s, local.AddDate(0, 0, ahead))
		if t.Before(ref) {
			t = atTimeOfDay(s, local.AddDate(0, 0, ahead+7))
		}
		return t.UTC()

	case FrequencyMonthly:
		year, month := local.Year(), local.Month()
		for {
			day := *s.DayOfMonth
			if last := daysInMonth(year, month, loc); day > last {
				day = last
			}
			t := time.Date(year, month, day, s.HourOfDay, s.Minute, 0, 0, loc)
			if !t.Before(ref) {
				return t.UTC()
			}
			month++
			if month > time.December {
				month = time.January
				year++
			}
		}
	}

	// Unreachable for validated schedules.
	return time.Time{}
}

// NextRunAfter is NextRun excluding the reference instant itself. The engine
// uses it when advancing a claimed schedule: a tick landing exactly on the
// trigger must yield the following occurrence, not the one just fired.
func NextRunAfter(s *Schedule, ref time.Time, loc *time.Location) time.Time {
	next := NextRun(s, ref, loc)
	if next.After(ref) {
		return next
	}
	// Time-of-day has minute resolution, so one minute past the fired
	// occurrence is strictly inside the gap before the next one.
	return NextRun(s, ref.Add(time.Minute), loc)
}

func atTimeOfDay(s *Schedule, day time.Time) time.Time {
	return time.Date(day.Year(), day.Month(), day.Day(), s.HourOfDay, s.Minute, 0, 0, day.Location())
}

func daysInMonth(year int, month time.Month, loc *time.Location) int {
	return time.Date(year, month+1, 0, 0, 0, 0, 0, loc).Day()
}
