package mcp

import (
	"context"
	"errors"
	"slices"
	"strings"
	"time"

	"github.com/claude/ascend/internal/api"
	"github.com/claude/ascend/internal/dashboard"
	"github.com/claude/ascend/internal/models"
	"github.com/mark3labs/mcp-go/mcp"
)

func today(now time.Time) models.Date {
	return models.NewDate(now)
}

// parseDateArg parses an optional YYYY-MM-DD or RFC 3339 argument. Empty
// input yields the zero date.
func parseDateArg(s string) (models.Date, error) {
	if s == "" {
		return models.Date{}, nil
	}
	return models.ParseDate(s)
}

// workoutFilter selects workouts for list_workouts. Zero fields do not filter.
type workoutFilter struct {
	start, end models.Date
	exercise   string
	limit      int
}

// filterWorkouts returns the matching workouts, most recent first.
func filterWorkouts(workouts []models.Workout, f workoutFilter) []models.Workout {
	needle := strings.ToLower(strings.TrimSpace(f.exercise))
	out := make([]models.Workout, 0, len(workouts))
	for _, w := range slices.Backward(workouts) {
		if !f.start.IsZero() && w.Date.Before(f.start.Time) {
			continue
		}
		if !f.end.IsZero() && w.Date.After(f.end.Time) {
			continue
		}
		if needle != "" && !hasExercise(w, needle) {
			continue
		}
		out = append(out, w)
		if f.limit > 0 && len(out) == f.limit {
			break
		}
	}
	return out
}

func hasExercise(w models.Workout, needle string) bool {
	for _, s := range w.Sets {
		if strings.Contains(strings.ToLower(s.Exercise.Name), needle) {
			return true
		}
	}
	return false
}

// profileError turns a DataSource failure into a tool error result.
func profileError(err error) *mcp.CallToolResult {
	switch {
	case errors.Is(err, ErrNotLoggedIn):
		return mcp.NewToolResultError("not logged in: run `ascend login` first")
	case errors.Is(err, api.ErrUnauthorized):
		return mcp.NewToolResultError("session expired: run `ascend login` again")
	default:
		return mcp.NewToolResultError("fetching profile failed: " + api.UserMessage(err))
	}
}

// --- Tool definitions ---

var toolGetDashboard = mcp.NewTool("get_dashboard",
	mcp.WithDescription("Dashboard summary for the logged-in user: total workouts, workouts in the last 7 days, lifetime volume, the 3 most recent workouts, latest weight, weekly volume and the 30-day weight trend."),
)

var toolGetWeeklyVolume = mcp.NewTool("get_weekly_volume",
	mcp.WithDescription("Total lifted volume (reps × weight) per calendar week, weeks starting Monday, oldest first."),
	mcp.WithNumber("weeks", mcp.Description("Only return the most recent N weeks. Defaults to all weeks.")),
)

var toolGetWeightTrend = mcp.NewTool("get_weight_trend",
	mcp.WithDescription("Body weight entries in chronological order."),
	mcp.WithNumber("days", mcp.Description("Trailing window in days. Defaults to 30. Use 0 for all entries.")),
)

var toolListWorkouts = mcp.NewTool("list_workouts",
	mcp.WithDescription("List workouts with their sets, most recent first. Optionally filter by date range and exercise name."),
	mcp.WithString("start", mcp.Description("Earliest workout date (YYYY-MM-DD).")),
	mcp.WithString("end", mcp.Description("Latest workout date (YYYY-MM-DD).")),
	mcp.WithString("exercise", mcp.Description("Only workouts containing this exercise (partial match, e.g. 'bench')")),
	mcp.WithNumber("limit", mcp.Description("Maximum number of workouts. Defaults to 20. Use 0 for no limit.")),
)

// --- Tool handlers ---

func (h *handlers) getDashboard(ctx context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	profile, err := h.ds.Profile(ctx)
	if err != nil {
		h.log.Error("mcp get_dashboard", "error", err)
		return profileError(err), nil
	}

	result, err := mcp.NewToolResultJSON(dashboard.Build(profile, today(h.now())))
	if err != nil {
		return mcp.NewToolResultError("serialization failed"), nil
	}
	return result, nil
}

func (h *handlers) getWeeklyVolume(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	weeks := req.GetInt("weeks", 0)
	if weeks < 0 {
		return mcp.NewToolResultError("weeks must not be negative"), nil
	}

	profile, err := h.ds.Profile(ctx)
	if err != nil {
		h.log.Error("mcp get_weekly_volume", "error", err)
		return profileError(err), nil
	}

	series := dashboard.WeeklyVolume(profile.Workouts)
	if weeks > 0 && len(series) > weeks {
		series = series[len(series)-weeks:]
	}

	result, err := mcp.NewToolResultJSON(series)
	if err != nil {
		return mcp.NewToolResultError("serialization failed"), nil
	}
	return result, nil
}

func (h *handlers) getWeightTrend(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	days := req.GetInt("days", dashboard.WeightWindowDays)
	if days < 0 {
		return mcp.NewToolResultError("days must not be negative"), nil
	}

	profile, err := h.ds.Profile(ctx)
	if err != nil {
		h.log.Error("mcp get_weight_trend", "error", err)
		return profileError(err), nil
	}

	trend := dashboard.WeightTrend(profile.WeightEntries, today(h.now()), days)

	result, err := mcp.NewToolResultJSON(trend)
	if err != nil {
		return mcp.NewToolResultError("serialization failed"), nil
	}
	return result, nil
}

func (h *handlers) listWorkouts(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	start, err := parseDateArg(req.GetString("start", ""))
	if err != nil {
		return mcp.NewToolResultError("invalid start date: " + err.Error()), nil
	}
	end, err := parseDateArg(req.GetString("end", ""))
	if err != nil {
		return mcp.NewToolResultError("invalid end date: " + err.Error()), nil
	}
	limit := req.GetInt("limit", 20)
	if limit < 0 {
		return mcp.NewToolResultError("limit must not be negative"), nil
	}

	profile, err := h.ds.Profile(ctx)
	if err != nil {
		h.log.Error("mcp list_workouts", "error", err)
		return profileError(err), nil
	}

	workouts := filterWorkouts(profile.Workouts, workoutFilter{
		start:    start,
		end:      end,
		exercise: req.GetString("exercise", ""),
		limit:    limit,
	})

	result, err := mcp.NewToolResultJSON(workouts)
	if err != nil {
		return mcp.NewToolResultError("serialization failed"), nil
	}
	return result, nil
}
