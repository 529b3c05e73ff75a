package domain

import "time"

// CalendarCells is the size of the month grid: six full weeks.
const CalendarCells = 42

// CalendarDay is one cell of the month grid.
type CalendarDay struct {
	Date         Date `json:"date"`
	InMonth      bool `json:"in_month"`
	HasWorkout   bool `json:"has_workout"`
	WorkoutCount int  `json:"workout_count"`
}

// Calendar is the month view shown on the mini-app's calendar screen.
type Calendar struct {
	Year  int                        `json:"year"`
	Month time.Month                 `json:"month"`
	Days  [CalendarCells]CalendarDay `json:"days"`
}

// GroupByDate indexes workouts by their stored calendar date.
func GroupByDate(workouts []EnrichedWorkout) map[Date][]EnrichedWorkout {
	byDate := make(map[Date][]EnrichedWorkout)
	for _, w := range workouts {
		byDate[w.Date] = append(byDate[w.Date], w)
	}
	return byDate
}

// GridStart is the Sunday on or before the first day of the month.
func GridStart(year int, month time.Month) Date {
	first := NewDate(year, month, 1)
	return first.AddDays(-int(first.Weekday()))
}

// BuildCalendar lays out the 42-cell grid for the month and marks the days
// that have at least one workout.
func BuildCalendar(year int, month time.Month, workouts []EnrichedWorkout) Calendar {
	first := NewDate(year, month, 1)
	byDate := GroupByDate(workouts)

	cal := Calendar{Year: first.Year, Month: first.Month}
	day := GridStart(first.Year, first.Month)
	for i := range cal.Days {
		n := len(byDate[day])
		cal.Days[i] = CalendarDay{
			Date:         day,
			InMonth:      day.Month == first.Month && day.Year == first.Year,
			HasWorkout:   n > 0,
			WorkoutCount: n,
		}
		day = day.AddDays(1)
	}
	return cal
}
