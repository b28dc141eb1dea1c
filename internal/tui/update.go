package tui

import (
	"errors"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"

	"github.com/claude/ascend/internal/api"
	"github.com/claude/ascend/internal/composer"
	"github.com/claude/ascend/internal/numfmt"
)

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		m.exercises.SetSize(32, max(msg.Height-6, 5))
		return m, nil

	case tickMsg:
		return m.handleTick(msg)

	case exercisesMsg:
		if msg.err != nil {
			return m.handleBackendError("loading exercises", msg.err)
		}
		items := make([]list.Item, len(msg.exercises))
		for i, ex := range msg.exercises {
			items[i] = exerciseItem{ex}
		}
		return m, m.exercises.SetItems(items)

	case statsMsg:
		if msg.err != nil {
			if errors.Is(msg.err, api.ErrUnauthorized) {
				return m.handleBackendError("loading exercise stats", msg.err)
			}
			m.log.Warn("loading exercise stats", "exercise", msg.exerciseID, "error", msg.err)
			return m, nil
		}
		if msg.exerciseID == m.statsFor {
			m.stats = msg.stats
		}
		return m, nil

	case savedMsg:
		return m.handleSaved(msg)

	case weighInMsg:
		if msg.err != nil {
			if errors.Is(msg.err, api.ErrUnauthorized) {
				return m.handleBackendError("logging weight", msg.err)
			}
			m.errMsg = api.UserMessage(msg.err)
			return m.openWeighIn()
		}
		m.outcome.Weight = msg.entry
		m.quitting = true
		return m, tea.Quit
	}

	switch m.mode {
	case modeSaveForm, modeWeighIn:
		return m.updateForm(msg)
	case modeSaving, modeSubmittingWeight:
		if msg, ok := msg.(tea.KeyMsg); ok && key.Matches(msg, m.keys.Quit) {
			m.quitting = true
			return m, tea.Quit
		}
		return m, nil
	}

	if msg, ok := msg.(tea.KeyMsg); ok {
		return m.handleKey(msg)
	}
	return m.updateFocused(msg)
}

// handleTick advances the timer for the live tick loop only.
func (m Model) handleTick(msg tickMsg) (tea.Model, tea.Cmd) {
	if msg.gen != m.tickGen {
		return m, nil
	}
	if m.mode == modeSaving {
		// Elapsed time was captured in the payload; hold the clock until the save reports back.
		return m, tick(m.tickGen)
	}
	if !m.composer.Tick() {
		return m, nil
	}
	return m, tick(m.tickGen)
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	filtering := m.focus == focusExercises && m.exercises.FilterState() == list.Filtering

	switch {
	case key.Matches(msg, m.keys.Quit):
		m.quitting = true
		return m, tea.Quit
	case key.Matches(msg, m.keys.Toggle):
		return m.toggleTimer()
	case key.Matches(msg, m.keys.Reset):
		m.composer.Reset()
		m.tickGen++
		return m, nil
	case key.Matches(msg, m.keys.Save):
		return m.openSaveForm()
	case filtering:
		return m.updateFocused(msg)
	case key.Matches(msg, m.keys.Next):
		return m.setFocus((m.focus + 1) % 3)
	case key.Matches(msg, m.keys.Prev):
		return m.setFocus((m.focus + 2) % 3)
	case key.Matches(msg, m.keys.Enter):
		return m.handleEnter()
	}
	return m.updateFocused(msg)
}

func (m Model) toggleTimer() (tea.Model, tea.Cmd) {
	state := m.composer.Toggle()
	m.tickGen++
	if state == composer.Running {
		return m, tick(m.tickGen)
	}
	return m, nil
}

func (m Model) handleEnter() (tea.Model, tea.Cmd) {
	switch m.focus {
	case focusExercises:
		item, ok := m.exercises.SelectedItem().(exerciseItem)
		if !ok {
			return m, nil
		}
		m.composer.SelectExercise(item.Exercise)
		m.errMsg = ""
		m.stats = nil
		m.statsFor = item.ID
		next, cmd := m.setFocus(focusReps)
		return next, tea.Batch(cmd, m.fetchStats(item.ID))
	case focusReps:
		return m.setFocus(focusWeight)
	default:
		return m.addSet()
	}
}

func (m Model) addSet() (tea.Model, tea.Cmd) {
	m.composer.SetReps(m.reps.Value())
	m.composer.SetWeight(m.weight.Value())
	set, err := m.composer.AddSet()
	if err != nil {
		m.errMsg = api.UserMessage(err)
		m.notice = ""
		return m, nil
	}
	m.errMsg = ""
	m.notice = fmt.Sprintf("Added %s: %d × %s lbs", set.Exercise.Name, set.Reps, numfmt.Weight(set.Weight))
	m.reps.SetValue("")
	m.weight.SetValue("")
	return m.setFocus(focusReps)
}

func (m Model) setFocus(f focus) (tea.Model, tea.Cmd) {
	m.focus = f
	m.reps.Blur()
	m.weight.Blur()
	switch f {
	case focusReps:
		return m, m.reps.Focus()
	case focusWeight:
		return m, m.weight.Focus()
	}
	return m, nil
}

// updateFocused forwards msg to the focused component and mirrors typed
// input into the composer's buffer.
func (m Model) updateFocused(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd
	switch m.focus {
	case focusExercises:
		m.exercises, cmd = m.exercises.Update(msg)
	case focusReps:
		m.reps, cmd = m.reps.Update(msg)
		m.composer.SetReps(m.reps.Value())
	case focusWeight:
		m.weight, cmd = m.weight.Update(msg)
		m.composer.SetWeight(m.weight.Value())
	}
	return m, cmd
}

func (m Model) openSaveForm() (tea.Model, tea.Cmd) {
	m.mode = modeSaveForm
	if m.saveForm == nil {
		m.saveForm = &SaveFormModel{}
	}
	m.form = NewSaveForm(m.saveForm)
	return m, m.form.Init()
}

func (m Model) openWeighIn() (tea.Model, tea.Cmd) {
	m.mode = modeWeighIn
	m.weighInForm = &WeighInFormModel{}
	m.form = NewWeighInForm(m.weighInForm)
	return m, m.form.Init()
}

func (m Model) updateForm(msg tea.Msg) (tea.Model, tea.Cmd) {
	if msg, ok := msg.(tea.KeyMsg); ok && msg.Type == tea.KeyEsc {
		return m.abortForm()
	}

	form, cmd := m.form.Update(msg)
	if f, ok := form.(*huh.Form); ok {
		m.form = f
	}

	switch m.form.State {
	case huh.StateCompleted:
		return m.completeForm()
	case huh.StateAborted:
		return m.abortForm()
	}
	return m, cmd
}

func (m Model) completeForm() (tea.Model, tea.Cmd) {
	m.form = nil
	switch m.mode {
	case modeSaveForm:
		m.mode = modeSaving
		m.errMsg = ""
		m.snapshot = m.summaryLine()
		return m, m.save(strings.TrimSpace(m.saveForm.Title), strings.TrimSpace(m.saveForm.Comment))
	case modeWeighIn:
		weight, err := api.ParseWeight(m.weighInForm.Weight)
		if err != nil {
			m.errMsg = api.UserMessage(err)
			return m.openWeighIn()
		}
		m.mode = modeSubmittingWeight
		return m, m.submitWeight(weight)
	}
	return m, nil
}

func (m Model) abortForm() (tea.Model, tea.Cmd) {
	m.form = nil
	if m.mode == modeWeighIn {
		// Skipping the check-in ends the session; the workout is already saved.
		m.quitting = true
		return m, tea.Quit
	}
	m.mode = modeCompose
	return m, nil
}

func (m Model) handleSaved(msg savedMsg) (tea.Model, tea.Cmd) {
	if msg.err != nil {
		if errors.Is(msg.err, api.ErrUnauthorized) {
			return m.handleBackendError("saving workout", msg.err)
		}
		m.mode = modeCompose
		m.errMsg = api.UserMessage(msg.err)
		m.log.Warn("saving workout", "error", msg.err)
		return m, nil
	}

	m.composer.MarkSaved()
	m.outcome.Workout = msg.result.Workout
	m.notice = "Workout saved."
	m.log.Info("workout saved", "sets", len(m.composer.Sets()))
	if msg.result.ShouldPromptWeighIn {
		return m.openWeighIn()
	}
	m.quitting = true
	return m, tea.Quit
}

// handleBackendError logs the user out on Unauthorized and otherwise shows
// the mapped message.
func (m Model) handleBackendError(op string, err error) (tea.Model, tea.Cmd) {
	if errors.Is(err, api.ErrUnauthorized) {
		m.log.Info("session rejected by backend, logging out", "op", op)
		m.outcome.LoggedOut = true
		m.errMsg = api.UserMessage(err)
		m.quitting = true
		return m, m.logout()
	}
	m.log.Warn(op, "error", err)
	m.errMsg = api.UserMessage(err)
	return m, nil
}

