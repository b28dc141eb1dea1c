// Package composer holds the in-progress workout: the elapsed-time counter,
// the recorded sets and the set input buffer. Save turns it into a
// persisted workout and decides whether a weight check-in is due.
package composer

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/claude/ascend/internal/api"
	"github.com/claude/ascend/internal/models"
)

// WeighInInterval is how recent the latest weight entry must be for the
// check-in prompt to be skipped.
const WeighInInterval = 7

// ErrAlreadySaved is returned by operations on a saved workout.
var ErrAlreadySaved = errors.New("composer: workout already saved")

// State is the lifecycle state of the in-progress workout.
type State int

const (
	Running State = iota
	Paused
	Saved
)

func (s State) String() string {
	switch s {
	case Running:
		return "running"
	case Paused:
		return "paused"
	case Saved:
		return "saved"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

// Backend is the part of the API client the composer needs.
type Backend interface {
	CreateWorkout(ctx context.Context, payload models.WorkoutPayload) (*models.Workout, error)
	FetchLatestWeightEntry(ctx context.Context) (*models.WeightEntry, error)
}

// Summary holds the running totals over the recorded sets.
type Summary struct {
	Sets   int
	Reps   int
	Volume float64
}

// SaveResult is returned by a successful Save.
type SaveResult struct {
	Workout             *models.Workout
	ShouldPromptWeighIn bool
}

// Input is the set being typed. Reps and Weight hold raw text so partial
// input can be kept between keystrokes.
type Input struct {
	Exercise *models.Exercise
	Reps     string
	Weight   string
}

// Composer is the in-progress workout. It is not safe for concurrent use;
// it is owned by a single view.
type Composer struct {
	backend Backend
	log     *slog.Logger
	now     func() time.Time

	state   State
	elapsed int
	sets    []models.Set
	input   Input
}

// New creates a running composer with zero elapsed time and no sets.
// A nil now uses time.Now.
func New(backend Backend, log *slog.Logger, now func() time.Time) *Composer {
	if now == nil {
		now = time.Now
	}
	return &Composer{backend: backend, log: log, now: now, state: Running}
}

// State returns the current lifecycle state.
func (c *Composer) State() State { return c.state }

// Elapsed returns the elapsed time in seconds.
func (c *Composer) Elapsed() int { return c.elapsed }

// Toggle switches between Running and Paused. It has no effect once saved.
func (c *Composer) Toggle() State {
	switch c.state {
	case Running:
		c.state = Paused
	case Paused:
		c.state = Running
	}
	return c.state
}

// Tick advances the elapsed time by one second while running and reports
// whether it did.
func (c *Composer) Tick() bool {
	if c.state != Running {
		return false
	}
	c.elapsed++
	return true
}

// Reset pauses the timer and sets the elapsed time back to zero.
func (c *Composer) Reset() {
	if c.state == Saved {
		return
	}
	c.state = Paused
	c.elapsed = 0
}

// Input returns a copy of the input buffer.
func (c *Composer) Input() Input { return c.input }

// SelectExercise sets the exercise for the next set.
func (c *Composer) SelectExercise(ex models.Exercise) {
	c.input.Exercise = &ex
}

// SetReps stores the typed reps value.
func (c *Composer) SetReps(s string) { c.input.Reps = s }

// SetWeight stores the typed weight value.
func (c *Composer) SetWeight(s string) { c.input.Weight = s }

// AddSet validates the input buffer and appends it as a set. On success the
// reps and weight are cleared and the exercise is kept. On failure nothing
// changes and an *api.ValidationError is returned.
func (c *Composer) AddSet() (models.Set, error) {
	if c.state == Saved {
		return models.Set{}, ErrAlreadySaved
	}
	reps := strings.TrimSpace(c.input.Reps)
	weight := strings.TrimSpace(c.input.Weight)
	if c.input.Exercise == nil || reps == "" || weight == "" {
		return models.Set{}, api.NewValidationError("set", "Please fill out all fields before adding a set.")
	}
	r, err := strconv.Atoi(reps)
	if err != nil || r < 0 {
		return models.Set{}, api.NewValidationError("reps", "Invalid number for weight or reps.")
	}
	w, err := strconv.ParseFloat(weight, 64)
	if err != nil || w < 0 || math.IsNaN(w) || math.IsInf(w, 0) {
		return models.Set{}, api.NewValidationError("weight", "Invalid number for weight or reps.")
	}

	set := models.Set{Exercise: *c.input.Exercise, Reps: r, Weight: w}
	c.sets = append(c.sets, set)
	c.input.Reps = ""
	c.input.Weight = ""
	return set, nil
}

// Sets returns the recorded sets in insertion order.
func (c *Composer) Sets() []models.Set {
	out := make([]models.Set, len(c.sets))
	copy(out, c.sets)
	return out
}

// Summary computes the totals over the recorded sets.
func (c *Composer) Summary() Summary {
	s := Summary{Sets: len(c.sets)}
	for _, set := range c.sets {
		s.Reps += set.Reps
		s.Volume += set.Volume()
	}
	return s
}

// Groups partitions the recorded sets by exercise, in first-seen order.
func (c *Composer) Groups() []models.ExerciseGroup {
	return models.GroupByExercise(c.sets)
}

// ElapsedClock formats the elapsed time as MM:SS for the running display.
// Minutes are not wrapped at the hour.
func (c *Composer) ElapsedClock() string {
	return fmt.Sprintf("%02d:%02d", c.elapsed/60, c.elapsed%60)
}

// ElapsedTime formats the elapsed time as HH:MM:SS for the save payload.
func (c *Composer) ElapsedTime() string {
	return FormatElapsed(c.elapsed)
}

// FormatElapsed formats seconds as HH:MM:SS.
func FormatElapsed(seconds int) string {
	return fmt.Sprintf("%02d:%02d:%02d", seconds/3600, (seconds%3600)/60, seconds%60)
}

// Payload builds the create-workout body for the current state.
func (c *Composer) Payload(title, comment string) models.WorkoutPayload {
	sets := c.Sets()
	return models.WorkoutPayload{
		Name:        title,
		Date:        models.NewDate(c.now()).String(),
		ElapsedTime: c.ElapsedTime(),
		Comment:     comment,
		Sets:        sets,
	}
}

// Save submits the workout. A failed create leaves the composer as it was so
// the user can retry. After a successful create the composer is Saved and
// one latest-weight read decides whether to prompt for a check-in.
func (c *Composer) Save(ctx context.Context, title, comment string) (*SaveResult, error) {
	if c.state == Saved {
		return nil, ErrAlreadySaved
	}
	result, err := c.Submit(ctx, c.Payload(title, comment))
	if err != nil {
		return nil, err
	}
	c.MarkSaved()
	return result, nil
}

// Submit creates the workout from payload and reads the latest weight entry.
// It touches no composer state, so a view may run it off its own goroutine
// and apply the result with MarkSaved.
func (c *Composer) Submit(ctx context.Context, payload models.WorkoutPayload) (*SaveResult, error) {
	created, err := c.backend.CreateWorkout(ctx, payload)
	if err != nil {
		return nil, fmt.Errorf("saving workout: %w", err)
	}
	c.log.Info("workout saved", "id", created.ID, "sets", len(payload.Sets), "elapsed", payload.ElapsedTime)

	result := &SaveResult{Workout: created, ShouldPromptWeighIn: true}
	latest, err := c.backend.FetchLatestWeightEntry(ctx)
	if err != nil {
		c.log.Warn("fetching latest weight entry", "error", err)
		return result, nil
	}
	result.ShouldPromptWeighIn = ShouldPromptWeighIn(latest, models.NewDate(c.now()))
	return result, nil
}

// MarkSaved stops the timer for good. Later edits return ErrAlreadySaved.
func (c *Composer) MarkSaved() { c.state = Saved }

// ShouldPromptWeighIn reports whether a check-in is due: true unless latest
// is dated fewer than WeighInInterval days before today.
func ShouldPromptWeighIn(latest *models.WeightEntry, today models.Date) bool {
	if latest == nil || latest.DateRecorded.IsZero() {
		return true
	}
	return latest.DateRecorded.DaysBefore(today) >= WeighInInterval
}
