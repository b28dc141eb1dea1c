package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/claude/ascend/internal/api"
	"github.com/claude/ascend/internal/models"
	"github.com/mark3labs/mcp-go/mcp"
)

type fakeSource struct {
	profile *models.UserProfile
	err     error
}

func (f fakeSource) Profile(context.Context) (*models.UserProfile, error) {
	return f.profile, f.err
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func date(t *testing.T, s string) models.Date {
	t.Helper()
	d, err := models.ParseDate(s)
	if err != nil {
		t.Fatal(err)
	}
	return d
}

func sampleProfile(t *testing.T) *models.UserProfile {
	bench := models.Exercise{ID: 1, Name: "Bench Press"}
	squat := models.Exercise{ID: 2, Name: "Back Squat"}
	return &models.UserProfile{
		Username: "sam",
		Workouts: []models.Workout{
			{ID: "1", Name: "Legs", Date: date(t, "2025-05-01"), Sets: []models.Set{{Exercise: squat, Reps: 5, Weight: 200}}},
			{ID: "2", Name: "Push", Date: date(t, "2025-06-02"), Sets: []models.Set{{Exercise: bench, Reps: 5, Weight: 100}}},
			{ID: "3", Name: "Legs 2", Date: date(t, "2025-06-12"), Sets: []models.Set{{Exercise: squat, Reps: 3, Weight: 220}}},
		},
		WeightEntries: []models.WeightEntry{
			{DateRecorded: date(t, "2025-04-01"), Weight: 185},
			{DateRecorded: date(t, "2025-06-10"), Weight: 180},
		},
	}
}

func testHandlers(ds DataSource) *handlers {
	h := newHandlers(ds, testLogger())
	h.now = func() time.Time { return time.Date(2025, time.June, 14, 9, 0, 0, 0, time.Local) }
	return h
}

func callTool(t *testing.T, fn func(context.Context, mcp.CallToolRequest) (*mcp.CallToolResult, error), args map[string]any) (string, bool) {
	t.Helper()
	var req mcp.CallToolRequest
	req.Params.Arguments = args
	res, err := fn(context.Background(), req)
	if err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if len(res.Content) == 0 {
		t.Fatal("empty result")
	}
	text, ok := res.Content[0].(mcp.TextContent)
	if !ok {
		t.Fatalf("content type = %T", res.Content[0])
	}
	return text.Text, res.IsError
}

// TestGetDashboard verifies the dashboard tool returns the aggregate as JSON.
func TestGetDashboard(t *testing.T) {
	h := testHandlers(fakeSource{profile: sampleProfile(t)})
	text, isErr := callTool(t, h.getDashboard, nil)
	if isErr {
		t.Fatalf("tool error: %s", text)
	}

	var got struct {
		TotalWorkouts    int `json:"total_workouts"`
		WorkoutsThisWeek int `json:"workouts_this_week"`
		WeightTrend      []struct {
			Weight float64 `json:"weight"`
		} `json:"weight_trend"`
	}
	if err := json.Unmarshal([]byte(text), &got); err != nil {
		t.Fatal(err)
	}
	if got.TotalWorkouts != 3 || got.WorkoutsThisWeek != 1 {
		t.Errorf("got %+v", got)
	}
	if len(got.WeightTrend) != 1 || got.WeightTrend[0].Weight != 180 {
		t.Errorf("weight trend = %+v, want only the entry inside 30 days", got.WeightTrend)
	}
}

// TestGetWeeklyVolume verifies the weeks limit keeps the most recent weeks.
func TestGetWeeklyVolume(t *testing.T) {
	h := testHandlers(fakeSource{profile: sampleProfile(t)})

	text, _ := callTool(t, h.getWeeklyVolume, map[string]any{"weeks": 1})
	var got []struct {
		WeekStart   string  `json:"week_start"`
		TotalVolume float64 `json:"total_volume"`
	}
	if err := json.Unmarshal([]byte(text), &got); err != nil {
		t.Fatal(err)
	}
	if len(got) != 1 || got[0].WeekStart != "2025-06-09" || got[0].TotalVolume != 660 {
		t.Errorf("got %+v", got)
	}

	if _, isErr := callTool(t, h.getWeeklyVolume, map[string]any{"weeks": -1}); !isErr {
		t.Error("negative weeks should be rejected")
	}
}

// TestGetWeightTrend verifies the default window and the all-entries form.
func TestGetWeightTrend(t *testing.T) {
	h := testHandlers(fakeSource{profile: sampleProfile(t)})

	var trend []map[string]any
	text, _ := callTool(t, h.getWeightTrend, nil)
	if err := json.Unmarshal([]byte(text), &trend); err != nil {
		t.Fatal(err)
	}
	if len(trend) != 1 {
		t.Errorf("default window: %d entries, want 1", len(trend))
	}

	text, _ = callTool(t, h.getWeightTrend, map[string]any{"days": 0})
	if err := json.Unmarshal([]byte(text), &trend); err != nil {
		t.Fatal(err)
	}
	if len(trend) != 2 || trend[0]["date"] != "2025-04-01" {
		t.Errorf("all entries = %v", trend)
	}
}

// TestListWorkouts verifies the date, exercise and limit filters.
func TestListWorkouts(t *testing.T) {
	h := testHandlers(fakeSource{profile: sampleProfile(t)})

	tests := []struct {
		name string
		args map[string]any
		want []string
	}{
		{"default newest first", nil, []string{"3", "2", "1"}},
		{"exercise filter", map[string]any{"exercise": "squat"}, []string{"3", "1"}},
		{"date range", map[string]any{"start": "2025-06-01", "end": "2025-06-10"}, []string{"2"}},
		{"limit", map[string]any{"limit": 2}, []string{"3", "2"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			text, isErr := callTool(t, h.listWorkouts, tt.args)
			if isErr {
				t.Fatalf("tool error: %s", text)
			}
			var got []models.Workout
			if err := json.Unmarshal([]byte(text), &got); err != nil {
				t.Fatal(err)
			}
			if len(got) != len(tt.want) {
				t.Fatalf("got %d workouts, want %d", len(got), len(tt.want))
			}
			for i, w := range got {
				if w.ID.String() != tt.want[i] {
					t.Errorf("workout %d id = %s, want %s", i, w.ID, tt.want[i])
				}
			}
		})
	}

	if _, isErr := callTool(t, h.listWorkouts, map[string]any{"start": "not-a-date"}); !isErr {
		t.Error("invalid start should be a tool error")
	}
}

// TestToolErrorsFromSource verifies data source failures become tool errors
// rather than protocol errors.
func TestToolErrorsFromSource(t *testing.T) {
	tests := []struct {
		err  error
		want string
	}{
		{ErrNotLoggedIn, "not logged in"},
		{&api.Error{StatusCode: 401}, "session expired"},
		{&api.NetworkError{Err: errors.New("refused")}, "fetching profile failed"},
	}
	for _, tt := range tests {
		h := testHandlers(fakeSource{err: tt.err})
		text, isErr := callTool(t, h.getDashboard, nil)
		if !isErr || !strings.Contains(text, tt.want) {
			t.Errorf("err %v: got %q (isError=%v), want %q", tt.err, text, isErr, tt.want)
		}
	}
}

// TestRecentWorkoutsResource verifies the resource lists the last 14 days.
func TestRecentWorkoutsResource(t *testing.T) {
	h := testHandlers(fakeSource{profile: sampleProfile(t)})

	var req mcp.ReadResourceRequest
	req.Params.URI = "ascend://recent_workouts"
	contents, err := h.recentWorkouts(context.Background(), req)
	if err != nil {
		t.Fatal(err)
	}
	text, ok := contents[0].(mcp.TextResourceContents)
	if !ok {
		t.Fatalf("contents type = %T", contents[0])
	}
	var got []models.Workout
	if err := json.Unmarshal([]byte(text.Text), &got); err != nil {
		t.Fatal(err)
	}
	if len(got) != 2 || got[0].Name != "Legs 2" {
		t.Errorf("got %+v", got)
	}
}

// TestServerListsTools verifies New registers every tool over JSON-RPC.
func TestServerListsTools(t *testing.T) {
	s := New(fakeSource{profile: sampleProfile(t)}, "test", testLogger())
	ctx := context.Background()

	s.HandleMessage(ctx, json.RawMessage(`{"jsonrpc":"2.0","id":1,"method":"initialize","params":{"protocolVersion":"2025-03-26","capabilities":{},"clientInfo":{"name":"test","version":"0"}}}`))
	resp := s.HandleMessage(ctx, json.RawMessage(`{"jsonrpc":"2.0","id":2,"method":"tools/list"}`))

	data, err := json.Marshal(resp)
	if err != nil {
		t.Fatal(err)
	}
	for _, name := range []string{"get_dashboard", "get_weekly_volume", "get_weight_trend", "list_workouts"} {
		if !strings.Contains(string(data), `"`+name+`"`) {
			t.Errorf("tools/list missing %s: %s", name, data)
		}
	}
}
