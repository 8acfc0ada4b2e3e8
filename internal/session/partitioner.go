// Package session splits multi-day bar sequences into single-session
// subsequences bounded by the exchange trading window.
package session

import (
	"math"
	"sort"

	"forecaster/internal/domain"
)

// Window defines the exchange trading hours. Both bounds are inclusive.
type Window struct {
	Open  domain.TimeOfDay
	Close domain.TimeOfDay
}

// DefaultWindow is the Tokyo Stock Exchange cash session.
func DefaultWindow() Window {
	return Window{
		Open:  domain.TimeOfDay{Hour: 9, Minute: 0},
		Close: domain.TimeOfDay{Hour: 15, Minute: 0},
	}
}

// Contains reports whether a timestamp's wall-clock time lies within the
// window.
func (w Window) Contains(minutes int) bool {
	return minutes >= w.Open.Minutes() && minutes <= w.Close.Minutes()
}

// Partition splits a time-ordered multi-day bar sequence into one Session
// per calendar date, restricted to the trading window. Dates with zero
// in-window bars produce no Session. Previous-close and session-open are
// attached from the daily-bar index; a session whose lookup misses either
// value still appears but reports an undefined gap fraction.
//
// The result is finite and ordered by ascending date.
func Partition(ticker string, bars []domain.Bar, win Window, daily []domain.DailyBar) []domain.Session {
	byDate := make(map[string][]domain.Bar)
	var dates []string
	for _, b := range bars {
		if !win.Contains(domain.MinutesOfDay(b.Time)) {
			continue
		}
		key := b.Time.Format("2006-01-02")
		if _, seen := byDate[key]; !seen {
			dates = append(dates, key)
		}
		byDate[key] = append(byDate[key], b)
	}
	sort.Strings(dates)

	sorted := make([]domain.DailyBar, len(daily))
	copy(sorted, daily)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Date < sorted[j].Date })
	index := buildDailyIndex(sorted)

	sessions := make([]domain.Session, 0, len(dates))
	for _, date := range dates {
		s := domain.Session{
			Ticker:      ticker,
			Date:        date,
			Bars:        byDate[date],
			PrevClose:   math.NaN(),
			SessionOpen: math.NaN(),
		}
		if i, ok := index[date]; ok {
			s.SessionOpen = sorted[i].Open
			if i > 0 {
				s.PrevClose = sorted[i-1].Close
			}
		}
		sessions = append(sessions, s)
	}
	return sessions
}

func buildDailyIndex(daily []domain.DailyBar) map[string]int {
	index := make(map[string]int, len(daily))
	for i, d := range daily {
		index[d.Date] = i
	}
	return index
}
