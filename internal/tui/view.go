package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/claude/ascend/internal/composer"
	"github.com/claude/ascend/internal/datefmt"
	"github.com/claude/ascend/internal/numfmt"
)

func (m Model) View() string {
	if m.quitting {
		return ""
	}

	var content string
	switch m.mode {
	case modeSaveForm, modeWeighIn:
		content = m.form.View()
	case modeSaving:
		content = m.snapshot + "\n\n" + labelStyle.Render("Saving workout…")
	case modeSubmittingWeight:
		content = labelStyle.Render("Logging weight…")
	default:
		content = lipgloss.JoinHorizontal(lipgloss.Top,
			m.exercisesPanel(),
			"  ",
			m.workoutPanel(),
		)
	}

	return docStyle.Render(lipgloss.JoinVertical(lipgloss.Left,
		m.header(),
		"",
		content,
		m.messages(),
		m.help.View(m.keys),
	))
}

func (m Model) header() string {
	timer := timerStyle.Render(m.composer.ElapsedClock())
	if m.composer.State() == composer.Paused {
		timer += " " + pausedStyle.Render("paused")
	}
	return lipgloss.JoinHorizontal(lipgloss.Center, titleStyle.Render("New Workout"), "  ", timer)
}

func (m Model) exercisesPanel() string {
	return m.exercises.View()
}

func (m Model) workoutPanel() string {
	var b strings.Builder

	in := m.composer.Input()
	if in.Exercise == nil {
		b.WriteString(labelStyle.Render("Select an exercise to start adding sets."))
	} else {
		b.WriteString(exerciseStyle.Render(in.Exercise.Name))
		if m.stats != nil && m.statsFor == in.Exercise.ID {
			b.WriteString("\n")
			b.WriteString(labelStyle.Render(fmt.Sprintf("PR %s lbs", numfmt.Weight(m.stats.PersonalRecord))))
			if !m.stats.DateOfPR.IsZero() {
				b.WriteString(labelStyle.Render(" on " + datefmt.FormatDate(m.stats.DateOfPR, m.now())))
			}
		}
	}
	b.WriteString("\n\n")
	b.WriteString(m.inputLine("Reps  ", focusReps, m.reps.View()))
	b.WriteString("\n")
	b.WriteString(m.inputLine("Weight", focusWeight, m.weight.View()))
	b.WriteString("\n\n")

	for _, g := range m.composer.Groups() {
		b.WriteString(exerciseStyle.Render(g.Exercise))
		b.WriteString("\n")
		for i, s := range g.Sets {
			fmt.Fprintf(&b, "  %d. %d × %s lbs\n", i+1, s.Reps, numfmt.Weight(s.Weight))
		}
	}
	b.WriteString(m.summaryLine())

	return panelStyle.Render(b.String())
}

func (m Model) inputLine(label string, f focus, input string) string {
	style := labelStyle
	if m.focus == f {
		style = focusedLabelStyle
	}
	return style.Render(label) + " " + input
}

func (m Model) summaryLine() string {
	s := m.composer.Summary()
	return labelStyle.Render(fmt.Sprintf("%d sets · %d reps · %s lbs", s.Sets, s.Reps, numfmt.Weight(s.Volume)))
}

func (m Model) messages() string {
	switch {
	case m.errMsg != "":
		return "\n" + errorStyle.Render(m.errMsg)
	case m.notice != "":
		return "\n" + noticeStyle.Render(m.notice)
	}
	return ""
}
