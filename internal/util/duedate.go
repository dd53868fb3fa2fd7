package util

import "time"

// ResolveDueDate maps a day-of-month onto a concrete month, clamping to
// that month's last valid day (e.g., day 31 in February resolves to Feb 28
// or 29)
func ResolveDueDate(dueDay int, year int, month time.Month) time.Time {
	day := dueDay
	if day < 1 {
		day = 1
	}

	// Last day of month via day 0 of the next month
	lastDay := time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC).Day()
	if day > lastDay {
		day = lastDay
	}

	return time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
}

// DueDateIn resolves a due day within the month that the reference time
// falls in
func DueDateIn(dueDay int, ref time.Time) time.Time {
	return ResolveDueDate(dueDay, ref.Year(), ref.Month())
}
