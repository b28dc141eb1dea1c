package tui

import (
	"errors"
	"strings"

	"github.com/charmbracelet/huh"

	"github.com/claude/ascend/internal/api"
)

// NewSaveForm asks for the workout title and an optional comment.
func NewSaveForm(fm *SaveFormModel) *huh.Form {
	return huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Workout Title").
				Placeholder("e.g. Push Day").
				Value(&fm.Title).
				Validate(func(s string) error {
					if strings.TrimSpace(s) == "" {
						return errors.New("title cannot be empty")
					}
					return nil
				}),
			huh.NewText().
				Title("Comment").
				Lines(3).
				Value(&fm.Comment),
		),
	).WithTheme(huh.ThemeDracula())
}

// NewWeighInForm asks for the current body weight after a save.
func NewWeighInForm(fm *WeighInFormModel) *huh.Form {
	return huh.NewForm(
		huh.NewGroup(
			huh.NewNote().
				Title("Weekly check-in").
				Description("It has been a week since your last weigh-in. Esc to skip."),
			huh.NewInput().
				Title("Current Weight (lbs)").
				Value(&fm.Weight).
				Validate(func(s string) error {
					_, err := api.ParseWeight(s)
					if err != nil {
						return errors.New(api.UserMessage(err))
					}
					return nil
				}),
		),
	).WithTheme(huh.ThemeDracula())
}
