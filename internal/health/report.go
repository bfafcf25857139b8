// Package health derives read-only training analytics from recorded set
// history. It never mutates the store.
package health

import (
	"sort"
	"time"

	"github.com/nmolargik/setdeck/internal/core"
	"github.com/nmolargik/setdeck/internal/store"
)

// WeeklySummary aggregates one calendar week of performed sets. Weeks start
// on Sunday, matching weekday slot 0.
type WeeklySummary struct {
	WeekStart     time.Time     `json:"week_start"`
	Sessions      int           `json:"sessions"` // distinct days trained
	TotalSets     int           `json:"total_sets"`
	TotalReps     int           `json:"total_reps"`
	Volume        float64       `json:"volume"` // sum of reps x weight
	TotalDuration time.Duration `json:"total_duration"`
}

// Sample is one day of a volume time series.
type Sample struct {
	Date   time.Time `json:"date"`
	Sets   int       `json:"sets"`
	Volume float64   `json:"volume"`
}

// Reporter computes analytics over the store's history.
type Reporter struct {
	store *store.Store
}

// NewReporter creates a reporter backed by the store.
func NewReporter(s *store.Store) *Reporter {
	return &Reporter{store: s}
}

// WeeklySummaries returns one summary per week that has at least one history
// entry, ordered oldest first.
func (r *Reporter) WeeklySummaries() []WeeklySummary {
	byWeek := make(map[time.Time]*WeeklySummary)
	daysTrained := make(map[time.Time]map[time.Time]bool)

	for _, h := range r.store.AllHistory() {
		week := weekStart(h.CompletedDate)
		sum, ok := byWeek[week]
		if !ok {
			sum = &WeeklySummary{WeekStart: week}
			byWeek[week] = sum
			daysTrained[week] = make(map[time.Time]bool)
		}
		accumulate(sum, h)
		daysTrained[week][dayStart(h.CompletedDate)] = true
	}

	out := make([]WeeklySummary, 0, len(byWeek))
	for week, sum := range byWeek {
		sum.Sessions = len(daysTrained[week])
		out = append(out, *sum)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].WeekStart.Before(out[j].WeekStart) })
	return out
}

// TimeSeries returns one sample per day over the trailing window ending at
// now, including zero days, oldest first.
func (r *Reporter) TimeSeries(now time.Time, days int) []Sample {
	if days <= 0 {
		return nil
	}

	end := dayStart(now)
	start := end.AddDate(0, 0, -(days - 1))

	byDay := make(map[time.Time]*Sample)
	for _, h := range r.store.AllHistory() {
		day := dayStart(h.CompletedDate)
		if day.Before(start) || day.After(end) {
			continue
		}
		sample, ok := byDay[day]
		if !ok {
			sample = &Sample{Date: day}
			byDay[day] = sample
		}
		sample.Sets++
		sample.Volume += volume(h)
	}

	out := make([]Sample, 0, days)
	for day := start; !day.After(end); day = day.AddDate(0, 0, 1) {
		if sample, ok := byDay[day]; ok {
			out = append(out, *sample)
		} else {
			out = append(out, Sample{Date: day})
		}
	}
	return out
}

func accumulate(sum *WeeklySummary, h *core.SetHistory) {
	sum.TotalSets++
	if h.ActualReps != nil {
		sum.TotalReps += *h.ActualReps
	}
	sum.Volume += volume(h)
	if h.ActualDuration != nil {
		sum.TotalDuration += *h.ActualDuration
	}
}

// volume is reps x weight; entries missing either contribute nothing.
func volume(h *core.SetHistory) float64 {
	if h.ActualReps == nil || h.ActualWeight == nil {
		return 0
	}
	return float64(*h.ActualReps) * *h.ActualWeight
}

func dayStart(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func weekStart(t time.Time) time.Time {
	day := dayStart(t)
	return day.AddDate(0, 0, -int(day.Weekday()))
}
