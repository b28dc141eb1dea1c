// Package tui is the terminal workout composer.
package tui

import (
	"context"
	"log/slog"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"

	"github.com/claude/ascend/internal/composer"
	"github.com/claude/ascend/internal/models"
)

// Backend is the part of the API client the composer screen uses.
type Backend interface {
	composer.Backend
	FetchExercises(ctx context.Context) ([]models.Exercise, error)
	FetchExerciseStats(ctx context.Context, exerciseID int) (*models.ExerciseStats, error)
	SubmitWeightEntry(ctx context.Context, weight float64) (*models.WeightEntry, error)
}

// Sessions is cleared when the backend rejects the stored token.
type Sessions interface {
	Clear(ctx context.Context) error
}

type mode int

const (
	modeCompose mode = iota
	modeSaveForm
	modeSaving
	modeWeighIn
	modeSubmittingWeight
)

type focus int

const (
	focusExercises focus = iota
	focusReps
	focusWeight
)

type SaveFormModel struct {
	Title   string
	Comment string
}

type WeighInFormModel struct {
	Weight string
}

// Outcome is what the session produced, read after the program exits.
type Outcome struct {
	Workout   *models.Workout
	Weight    *models.WeightEntry
	Sets      int
	LoggedOut bool
}

// exerciseItem adapts a catalog exercise to the list component.
type exerciseItem struct {
	models.Exercise
}

func (i exerciseItem) FilterValue() string { return i.Name }
func (i exerciseItem) Title() string       { return i.Name }
func (i exerciseItem) Description() string { return "" }

type Model struct {
	ctx      context.Context
	backend  Backend
	sessions Sessions
	log      *slog.Logger
	now      func() time.Time

	composer *composer.Composer
	mode     mode
	focus    focus
	keys     KeyMap
	help     help.Model

	exercises list.Model
	reps      textinput.Model
	weight    textinput.Model

	// tickGen identifies the live timer loop. Ticks from older loops are dropped.
	tickGen int

	stats       *models.ExerciseStats
	statsFor    int
	form        *huh.Form
	saveForm    *SaveFormModel
	weighInForm *WeighInFormModel
	snapshot    string

	errMsg  string
	notice  string
	outcome Outcome

	width    int
	height   int
	quitting bool
}

// New creates the composer screen with a running timer.
func New(ctx context.Context, backend Backend, sessions Sessions, log *slog.Logger) Model {
	delegate := list.NewDefaultDelegate()
	delegate.ShowDescription = false
	exercises := list.New(nil, delegate, 32, 20)
	exercises.Title = "Exercises"
	exercises.SetShowHelp(false)
	exercises.SetStatusBarItemName("exercise", "exercises")

	reps := textinput.New()
	reps.Placeholder = "reps"
	reps.CharLimit = 4
	reps.Width = 8

	weight := textinput.New()
	weight.Placeholder = "lbs"
	weight.CharLimit = 7
	weight.Width = 8

	return Model{
		ctx:       ctx,
		backend:   backend,
		sessions:  sessions,
		log:       log,
		now:       time.Now,
		composer:  composer.New(backend, log, nil),
		keys:      DefaultKeyMap(),
		help:      help.New(),
		exercises: exercises,
		reps:      reps,
		weight:    weight,
	}
}

func (m Model) Init() tea.Cmd {
	return tea.Batch(tick(m.tickGen), m.fetchExercises())
}

// Outcome reports the saved workout, logged weight and logout state.
func (m Model) Outcome() Outcome {
	out := m.outcome
	out.Sets = len(m.composer.Sets())
	return out
}

// --- Messages and commands ---

type tickMsg struct{ gen int }

type exercisesMsg struct {
	exercises []models.Exercise
	err       error
}

type statsMsg struct {
	exerciseID int
	stats      *models.ExerciseStats
	err        error
}

type savedMsg struct {
	result *composer.SaveResult
	err    error
}

type weighInMsg struct {
	entry *models.WeightEntry
	err   error
}

func tick(gen int) tea.Cmd {
	return tea.Tick(time.Second, func(time.Time) tea.Msg {
		return tickMsg{gen: gen}
	})
}

func (m Model) fetchExercises() tea.Cmd {
	return func() tea.Msg {
		exercises, err := m.backend.FetchExercises(m.ctx)
		return exercisesMsg{exercises: exercises, err: err}
	}
}

func (m Model) fetchStats(exerciseID int) tea.Cmd {
	return func() tea.Msg {
		stats, err := m.backend.FetchExerciseStats(m.ctx, exerciseID)
		return statsMsg{exerciseID: exerciseID, stats: stats, err: err}
	}
}

// save builds the payload on the event loop. Only the backend calls run in
// the command; handleSaved applies the Saved transition.
func (m Model) save(title, comment string) tea.Cmd {
	c := m.composer
	payload := c.Payload(title, comment)
	ctx := m.ctx
	return func() tea.Msg {
		result, err := c.Submit(ctx, payload)
		return savedMsg{result: result, err: err}
	}
}

func (m Model) submitWeight(weight float64) tea.Cmd {
	return func() tea.Msg {
		entry, err := m.backend.SubmitWeightEntry(m.ctx, weight)
		return weighInMsg{entry: entry, err: err}
	}
}

// logout clears the rejected session and ends the program.
func (m Model) logout() tea.Cmd {
	return func() tea.Msg {
		if err := m.sessions.Clear(m.ctx); err != nil {
			m.log.Error("clearing session", "error", err)
		}
		return tea.Quit()
	}
}
