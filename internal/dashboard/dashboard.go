// Package dashboard derives view-ready aggregates from a fetched user
// profile. Everything here is a pure function of its inputs; nothing is
// written back to the profile.
package dashboard

import (
	"sort"
	"time"

	"github.com/claude/ascend/internal/models"
)

const (
	// RecentOnDashboard is how many recent workouts the dashboard lists.
	RecentOnDashboard = 3
	// RecentOnProfile is how many recent workouts the profile view lists.
	RecentOnProfile = 4
	// WeightWindowDays restricts the dashboard weight trend.
	WeightWindowDays = 30
	// WeekDays is the span of the workouts-this-week count.
	WeekDays = 7
)

// VolumePoint is the training volume of one calendar week.
type VolumePoint struct {
	WeekStart   models.Date `json:"week_start"`
	TotalVolume float64     `json:"total_volume"`
}

// WeightPoint is one entry of the weight trend.
type WeightPoint struct {
	Date   models.Date `json:"date"`
	Weight float64     `json:"weight"`
}

// Dashboard is the aggregate shown on the dashboard page.
type Dashboard struct {
	Username         string              `json:"username"`
	FirstName        string              `json:"first_name"`
	TotalWorkouts    int                 `json:"total_workouts"`
	WorkoutsThisWeek int                 `json:"workouts_this_week"`
	LifetimeVolume   float64             `json:"lifetime_volume"`
	RecentWorkouts   []models.Workout    `json:"recent_workouts"`
	LatestWeight     *models.WeightEntry `json:"latest_weight"`
	WeeklyVolume     []VolumePoint       `json:"weekly_volume"`
	WeightTrend      []WeightPoint       `json:"weight_trend"`
}

// Build assembles the dashboard for profile as seen on today.
func Build(profile *models.UserProfile, today models.Date) Dashboard {
	d := Dashboard{
		Username:         profile.Username,
		FirstName:        profile.FirstName,
		TotalWorkouts:    len(profile.Workouts),
		WorkoutsThisWeek: WorkoutsThisWeek(profile.Workouts, today),
		LifetimeVolume:   LifetimeVolume(profile.Workouts),
		RecentWorkouts:   RecentWorkouts(profile.Workouts, RecentOnDashboard),
		WeeklyVolume:     WeeklyVolume(profile.Workouts),
		WeightTrend:      WeightTrend(profile.WeightEntries, today, WeightWindowDays),
	}
	if all := WeightTrend(profile.WeightEntries, today, 0); len(all) > 0 {
		last := all[len(all)-1]
		d.LatestWeight = &models.WeightEntry{DateRecorded: last.Date, Weight: last.Weight}
	}
	return d
}

// RecentWorkouts returns up to n workouts from the end of the persisted
// order, most recent first.
func RecentWorkouts(workouts []models.Workout, n int) []models.Workout {
	n = max(0, min(n, len(workouts)))
	out := make([]models.Workout, 0, n)
	for i := len(workouts) - 1; i >= len(workouts)-n; i-- {
		out = append(out, workouts[i])
	}
	return out
}

// WorkoutsThisWeek counts workouts dated within the seven days ending today,
// both ends inclusive.
func WorkoutsThisWeek(workouts []models.Workout, today models.Date) int {
	count := 0
	for _, w := range workouts {
		if w.Date.IsZero() {
			continue
		}
		days := w.Date.DaysBefore(today)
		if days >= 0 && days <= WeekDays {
			count++
		}
	}
	return count
}

// LifetimeVolume sums reps × weight over every set of every workout.
func LifetimeVolume(workouts []models.Workout) float64 {
	var total float64
	for _, w := range workouts {
		total += w.Volume()
	}
	return total
}

// WeekStart returns the Monday starting the calendar week of d.
func WeekStart(d models.Date) models.Date {
	offset := (int(d.Weekday()) + 6) % 7
	return models.NewDate(d.AddDate(0, 0, -offset))
}

// WeeklyVolume groups workouts by the Monday of their week and sums their
// volume. The result is sorted by week.
func WeeklyVolume(workouts []models.Workout) []VolumePoint {
	totals := make(map[string]*VolumePoint)
	for _, w := range workouts {
		if w.Date.IsZero() {
			continue
		}
		start := WeekStart(w.Date)
		key := start.String()
		p, ok := totals[key]
		if !ok {
			p = &VolumePoint{WeekStart: start}
			totals[key] = p
		}
		p.TotalVolume += w.Volume()
	}

	out := make([]VolumePoint, 0, len(totals))
	for _, p := range totals {
		out = append(out, *p)
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].WeekStart.Before(out[j].WeekStart.Time)
	})
	return out
}

// WeightTrend returns the entries sorted by date. A positive windowDays keeps
// only entries dated at most that many days before today.
func WeightTrend(entries []models.WeightEntry, today models.Date, windowDays int) []WeightPoint {
	out := make([]WeightPoint, 0, len(entries))
	for _, e := range entries {
		if e.DateRecorded.IsZero() {
			continue
		}
		if windowDays > 0 && e.DateRecorded.DaysBefore(today) > windowDays {
			continue
		}
		out = append(out, WeightPoint{Date: e.DateRecorded, Weight: e.Weight})
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Date.Before(out[j].Date.Time)
	})
	return out
}

// Today returns the calendar date of now.
func Today() models.Date {
	return models.NewDate(time.Now())
}
