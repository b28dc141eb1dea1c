package tui

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/claude/ascend/internal/api"
	"github.com/claude/ascend/internal/composer"
	"github.com/claude/ascend/internal/models"
)

type fakeBackend struct {
	exercises []models.Exercise
	stats     *models.ExerciseStats
	createErr error
	latest    *models.WeightEntry
	created   []models.WorkoutPayload
	weights   []float64
}

func (f *fakeBackend) FetchExercises(context.Context) ([]models.Exercise, error) {
	return f.exercises, nil
}

func (f *fakeBackend) FetchExerciseStats(context.Context, int) (*models.ExerciseStats, error) {
	return f.stats, nil
}

func (f *fakeBackend) CreateWorkout(_ context.Context, p models.WorkoutPayload) (*models.Workout, error) {
	if f.createErr != nil {
		return nil, f.createErr
	}
	f.created = append(f.created, p)
	return &models.Workout{ID: "9", Name: p.Name, Sets: p.Sets}, nil
}

func (f *fakeBackend) FetchLatestWeightEntry(context.Context) (*models.WeightEntry, error) {
	return f.latest, nil
}

func (f *fakeBackend) SubmitWeightEntry(_ context.Context, w float64) (*models.WeightEntry, error) {
	f.weights = append(f.weights, w)
	return &models.WeightEntry{Weight: w}, nil
}

type fakeSessions struct{ cleared bool }

func (f *fakeSessions) Clear(context.Context) error {
	f.cleared = true
	return nil
}

func testModel(t *testing.T, b *fakeBackend) (Model, *fakeSessions) {
	t.Helper()
	sessions := &fakeSessions{}
	m := New(context.Background(), b, sessions, slog.New(slog.NewTextHandler(io.Discard, nil)))
	m.now = func() time.Time { return time.Date(2025, time.June, 14, 9, 0, 0, 0, time.Local) }
	return m, sessions
}

func update(t *testing.T, m Model, msg tea.Msg) (Model, tea.Cmd) {
	t.Helper()
	next, cmd := m.Update(msg)
	nm, ok := next.(Model)
	if !ok {
		t.Fatalf("Update returned %T", next)
	}
	return nm, cmd
}

func typeText(t *testing.T, m Model, s string) Model {
	t.Helper()
	m, _ = update(t, m, tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)})
	return m
}

func withExercises(t *testing.T, m Model) Model {
	t.Helper()
	m, _ = update(t, m, exercisesMsg{exercises: []models.Exercise{{ID: 1, Name: "Bench Press"}, {ID: 2, Name: "Squat"}}})
	return m
}

// TestStaleTicksDropped verifies a tick scheduled before a pause never
// advances the timer.
func TestStaleTicksDropped(t *testing.T) {
	m, _ := testModel(t, &fakeBackend{})

	m, cmd := update(t, m, tickMsg{gen: 0})
	if m.composer.Elapsed() != 1 || cmd == nil {
		t.Fatalf("live tick: elapsed = %d cmd = %v", m.composer.Elapsed(), cmd)
	}

	m, _ = update(t, m, tea.KeyMsg{Type: tea.KeyCtrlT})
	if m.composer.State() != composer.Paused {
		t.Fatalf("state = %v, want paused", m.composer.State())
	}
	m, cmd = update(t, m, tickMsg{gen: 0})
	if m.composer.Elapsed() != 1 || cmd != nil {
		t.Errorf("stale tick while paused: elapsed = %d", m.composer.Elapsed())
	}

	m, cmd = update(t, m, tea.KeyMsg{Type: tea.KeyCtrlT})
	if cmd == nil {
		t.Fatal("resume should schedule a tick")
	}
	m, _ = update(t, m, tickMsg{gen: 0})
	if m.composer.Elapsed() != 1 {
		t.Errorf("tick from before the pause counted after resume")
	}
	m, _ = update(t, m, tickMsg{gen: m.tickGen})
	if m.composer.Elapsed() != 2 {
		t.Errorf("elapsed = %d, want 2", m.composer.Elapsed())
	}
}

// TestResetTimer verifies ctrl+r pauses and zeroes the clock.
func TestResetTimer(t *testing.T) {
	m, _ := testModel(t, &fakeBackend{})
	m, _ = update(t, m, tickMsg{gen: 0})
	m, _ = update(t, m, tea.KeyMsg{Type: tea.KeyCtrlR})
	if m.composer.Elapsed() != 0 || m.composer.State() != composer.Paused {
		t.Errorf("elapsed = %d state = %v", m.composer.Elapsed(), m.composer.State())
	}
}

// TestAddSetFlow verifies selecting an exercise, typing reps and weight and
// adding the set through the keyboard.
func TestAddSetFlow(t *testing.T) {
	b := &fakeBackend{stats: &models.ExerciseStats{PersonalRecord: 225}}
	m, _ := testModel(t, b)
	m = withExercises(t, m)

	m, cmd := update(t, m, tea.KeyMsg{Type: tea.KeyEnter})
	if in := m.composer.Input(); in.Exercise == nil || in.Exercise.Name != "Bench Press" {
		t.Fatalf("selected = %+v", in.Exercise)
	}
	if m.focus != focusReps || cmd == nil {
		t.Fatalf("focus = %v, want reps with stats fetch", m.focus)
	}

	m, _ = update(t, m, statsMsg{exerciseID: 1, stats: b.stats})
	if m.stats == nil || m.stats.PersonalRecord != 225 {
		t.Errorf("stats = %+v", m.stats)
	}

	m = typeText(t, m, "5")
	m, _ = update(t, m, tea.KeyMsg{Type: tea.KeyEnter})
	m = typeText(t, m, "185")
	m, _ = update(t, m, tea.KeyMsg{Type: tea.KeyEnter})

	sets := m.composer.Sets()
	if len(sets) != 1 || sets[0].Reps != 5 || sets[0].Weight != 185 {
		t.Fatalf("sets = %+v", sets)
	}
	if m.reps.Value() != "" || m.weight.Value() != "" || m.focus != focusReps {
		t.Errorf("inputs not cleared: reps %q weight %q focus %v", m.reps.Value(), m.weight.Value(), m.focus)
	}
	if m.composer.Input().Exercise == nil {
		t.Error("exercise selection should be kept")
	}
}

// TestAddSetValidation verifies a missing field shows the message and adds nothing.
func TestAddSetValidation(t *testing.T) {
	m, _ := testModel(t, &fakeBackend{})
	m = withExercises(t, m)
	m, _ = update(t, m, tea.KeyMsg{Type: tea.KeyEnter})
	m, _ = update(t, m, tea.KeyMsg{Type: tea.KeyEnter})
	m, _ = update(t, m, tea.KeyMsg{Type: tea.KeyEnter})

	if len(m.composer.Sets()) != 0 {
		t.Error("set added without reps and weight")
	}
	if m.errMsg != "Please fill out all fields before adding a set." {
		t.Errorf("errMsg = %q", m.errMsg)
	}
}

// TestStaleStatsIgnored verifies stats for a previously selected exercise are dropped.
func TestStaleStatsIgnored(t *testing.T) {
	m, _ := testModel(t, &fakeBackend{})
	m.statsFor = 2
	m, _ = update(t, m, statsMsg{exerciseID: 1, stats: &models.ExerciseStats{PersonalRecord: 1}})
	if m.stats != nil {
		t.Error("stats for another exercise were kept")
	}
}

// TestUnauthorizedLogsOut verifies a rejected token clears the session and quits.
func TestUnauthorizedLogsOut(t *testing.T) {
	m, sessions := testModel(t, &fakeBackend{})
	m, cmd := update(t, m, exercisesMsg{err: &api.Error{StatusCode: http.StatusUnauthorized}})
	if !m.Outcome().LoggedOut {
		t.Error("outcome should report logout")
	}
	if cmd == nil {
		t.Fatal("expected logout command")
	}
	if _, ok := cmd().(tea.QuitMsg); !ok {
		t.Error("logout should quit the program")
	}
	if !sessions.cleared {
		t.Error("session not cleared")
	}
}

// TestSaveOpensWeighIn verifies a successful save with an old weigh-in
// prompts for a check-in and records the submitted weight.
func TestSaveOpensWeighIn(t *testing.T) {
	b := &fakeBackend{}
	m, _ := testModel(t, b)

	m, _ = update(t, m, tea.KeyMsg{Type: tea.KeyCtrlS})
	if m.mode != modeSaveForm || m.form == nil {
		t.Fatalf("mode = %v, want save form", m.mode)
	}

	m.mode = modeSaving
	m, _ = update(t, m, m.save("Push Day", "")())
	if len(b.created) != 1 || b.created[0].Name != "Push Day" {
		t.Fatalf("created = %+v", b.created)
	}
	if m.mode != modeWeighIn {
		t.Fatalf("mode = %v, want weigh-in prompt", m.mode)
	}

	m, cmd := update(t, m, m.submitWeight(180.5)())
	if out := m.Outcome(); out.Workout == nil || out.Weight == nil || out.Weight.Weight != 180.5 {
		t.Errorf("outcome = %+v", out)
	}
	if cmd == nil {
		t.Error("expected quit after check-in")
	}
}

// TestSaveConcurrentWithView verifies the save command can run while the
// screen renders. Run with -race.
func TestSaveConcurrentWithView(t *testing.T) {
	b := &fakeBackend{}
	m, _ := testModel(t, b)
	m = withExercises(t, m)
	m.mode = modeSaving
	m.snapshot = m.summaryLine()

	cmd := m.save("Push Day", "")
	done := make(chan tea.Msg, 1)
	go func() { done <- cmd() }()

	var msg tea.Msg
	for msg == nil {
		_ = m.View()
		m, _ = update(t, m, tickMsg{gen: m.tickGen})
		select {
		case msg = <-done:
		default:
		}
	}
	if m.composer.State() == composer.Saved {
		t.Fatal("composer saved before the result was applied")
	}

	m, _ = update(t, m, msg)
	if m.composer.State() != composer.Saved {
		t.Errorf("state = %v, want saved", m.composer.State())
	}
	if len(b.created) != 1 || b.created[0].Name != "Push Day" {
		t.Errorf("created = %+v", b.created)
	}
}

// TestSaveSkipsRecentWeighIn verifies no prompt when weighed in this week.
func TestSaveSkipsRecentWeighIn(t *testing.T) {
	b := &fakeBackend{latest: &models.WeightEntry{DateRecorded: models.NewDate(time.Now().AddDate(0, 0, -2)), Weight: 180}}
	m, _ := testModel(t, b)
	m.mode = modeSaving
	m, cmd := update(t, m, m.save("Legs", "")())
	if m.mode == modeWeighIn {
		t.Error("prompted despite a recent weigh-in")
	}
	if cmd == nil || m.Outcome().Workout == nil {
		t.Error("expected quit with saved workout")
	}
}

// TestSaveFailureReturnsToComposer verifies a failed save keeps the workout editable.
func TestSaveFailureReturnsToComposer(t *testing.T) {
	b := &fakeBackend{createErr: &api.NetworkError{Err: errors.New("refused")}}
	m, _ := testModel(t, b)
	m.mode = modeSaving
	m, _ = update(t, m, m.save("Legs", "")())

	if m.mode != modeCompose {
		t.Errorf("mode = %v, want compose", m.mode)
	}
	if m.errMsg != "Network error. Could not connect to the server." {
		t.Errorf("errMsg = %q", m.errMsg)
	}
	if m.composer.State() == composer.Saved {
		t.Error("composer saved after failure")
	}
}

// TestEscClosesSaveForm verifies esc returns to the composer without saving.
func TestEscClosesSaveForm(t *testing.T) {
	b := &fakeBackend{}
	m, _ := testModel(t, b)
	m, _ = update(t, m, tea.KeyMsg{Type: tea.KeyCtrlS})
	m, _ = update(t, m, tea.KeyMsg{Type: tea.KeyEsc})
	if m.mode != modeCompose || len(b.created) != 0 {
		t.Errorf("mode = %v created = %d", m.mode, len(b.created))
	}
}
