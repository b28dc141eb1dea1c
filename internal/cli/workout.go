package cli

import (
	"errors"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/claude/ascend/internal/api"
	"github.com/claude/ascend/internal/datefmt"
	"github.com/claude/ascend/internal/numfmt"
	"github.com/claude/ascend/internal/tui"
)

type WorkoutCmd struct{}

func (c *WorkoutCmd) Run(ctx *Context) error {
	if _, err := ctx.requireSession(); err != nil {
		return err
	}
	p := tea.NewProgram(tui.New(ctx.Ctx, ctx.API, ctx.Sessions, ctx.Log), tea.WithAltScreen(), tea.WithContext(ctx.Ctx))
	final, err := p.Run()
	if err != nil {
		return fmt.Errorf("running workout screen: %w", err)
	}
	m, ok := final.(tui.Model)
	if !ok {
		return errors.New("workout screen exited unexpectedly")
	}
	printOutcome(ctx, m.Outcome())
	return nil
}

func printOutcome(ctx *Context, out tui.Outcome) {
	switch {
	case out.LoggedOut:
		ctx.println("Session expired; run `ascend login`")
		return
	case out.Workout == nil:
		if out.Sets > 0 {
			ctx.printf("Workout discarded (%d unsaved sets)\n", out.Sets)
		} else {
			ctx.println("No workout saved")
		}
		return
	}
	w := out.Workout
	ctx.printf("%s %s (%d sets, %s lbs)\n", okStyle.Render("Saved"), w.Name, len(w.Sets), numfmt.Thousands(w.Volume()))
	if out.Weight != nil {
		ctx.printf("%s %s lbs\n", okStyle.Render("Weight logged:"), numfmt.Weight(out.Weight.Weight))
	}
}

type WeighInCmd struct {
	Weight string `arg:"" help:"Body weight in lbs."`
}

func (c *WeighInCmd) Run(ctx *Context) error {
	if _, err := ctx.requireSession(); err != nil {
		return err
	}
	weight, err := api.ParseWeight(c.Weight)
	if err != nil {
		return &userError{msg: api.UserMessage(err), err: err}
	}

	latest, err := ctx.API.FetchLatestWeightEntry(ctx.Ctx)
	if err != nil && errors.Is(err, api.ErrUnauthorized) {
		return ctx.fail(err)
	}
	if err != nil {
		ctx.Log.Warn("fetching latest weight entry", "error", err)
	}

	entry, err := ctx.API.SubmitWeightEntry(ctx.Ctx, weight)
	if err != nil {
		return ctx.fail(err)
	}
	ctx.Log.Info("weight logged", "weight", entry.Weight)
	ctx.printf("%s %s lbs\n", okStyle.Render("Weight logged:"), numfmt.Weight(entry.Weight))
	if latest != nil {
		diff := entry.Weight - latest.Weight
		ctx.println(mutedStyle.Render(fmt.Sprintf("%+.1f lbs since %s", diff, datefmt.FormatDate(latest.DateRecorded, ctx.now()))))
	}
	return nil
}
