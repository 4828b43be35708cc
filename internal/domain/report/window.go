package report

import "time"

// Window is a half-open time range [Start, End). A zero Start or End leaves
// that side unbounded.
type Window struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

// CalendarWeek returns the week containing t, starting at midnight on
// weekStart in t's location
func CalendarWeek(t time.Time, weekStart time.Weekday) Window {
	offset := (int(t.Weekday()) - int(weekStart) + 7) % 7
	day := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
	start := day.AddDate(0, 0, -offset)
	return Window{Start: start, End: start.AddDate(0, 0, 7)}
}

// Unbounded covers all time
func Unbounded() Window {
	return Window{}
}

// Previous returns the window of the same length ending where w starts
func (w Window) Previous() Window {
	days := int(w.End.Sub(w.Start).Hours()/24 + 0.5)
	return Window{Start: w.Start.AddDate(0, 0, -days), End: w.Start}
}

// Contains reports whether t falls inside the window
func (w Window) Contains(t time.Time) bool {
	if !w.Start.IsZero() && t.Before(w.Start) {
		return false
	}
	if !w.End.IsZero() && !t.Before(w.End) {
		return false
	}
	return true
}
