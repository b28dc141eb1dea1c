package server

import (
	"html/template"

	"github.com/claude/ascend/internal/dashboard"
	"github.com/claude/ascend/internal/models"
)

type loginPage struct {
	Username string
	Error    string
	Message  string
}

type dashboardPage struct {
	User        UserInfo
	Dashboard   dashboard.Dashboard
	VolumeChart template.HTML
	WeightChart template.HTML
	Error       string
	Notice      string
}

type workoutsPage struct {
	User     UserInfo
	Workouts []models.Workout
}

type errorPage struct {
	Message string
}

// chartHTML marks renderer output as trusted markup. The renderer escapes
// every text node it writes.
func chartHTML(svg string) template.HTML {
	return template.HTML(svg) //nolint:gosec
}

