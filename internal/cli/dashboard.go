package cli

import (
	"encoding/json"
	"slices"
	"strconv"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/claude/ascend/internal/chart"
	"github.com/claude/ascend/internal/dashboard"
	"github.com/claude/ascend/internal/datefmt"
	"github.com/claude/ascend/internal/models"
	"github.com/claude/ascend/internal/numfmt"
)

// sparkWidth is the number of weeks or entries drawn by the text sparklines.
const sparkWidth = 24

type DashboardCmd struct {
	JSON bool `help:"Print the dashboard as JSON." name:"json"`
}

func (c *DashboardCmd) Run(ctx *Context) error {
	sess, err := ctx.requireSession()
	if err != nil {
		return err
	}
	p, err := ctx.API.FetchProfile(ctx.Ctx, sess.UserID)
	if err != nil {
		return ctx.fail(err)
	}
	now := ctx.now()
	d := dashboard.Build(p, models.NewDate(now))

	if c.JSON {
		enc := json.NewEncoder(ctx.Out)
		enc.SetIndent("", "  ")
		return enc.Encode(d)
	}

	name := d.FirstName
	if name == "" {
		name = d.Username
	}
	ctx.println(headingStyle.Render("Welcome back, " + name))
	ctx.printf("  %-20s %d\n", "Total workouts", d.TotalWorkouts)
	ctx.printf("  %-20s %d\n", "This week", d.WorkoutsThisWeek)
	ctx.printf("  %-20s %s lbs\n", "Lifetime volume", numfmt.Thousands(d.LifetimeVolume))
	if d.LatestWeight != nil {
		ctx.printf("  %-20s %s lbs (%s)\n", "Latest weight", numfmt.Weight(d.LatestWeight.Weight),
			datefmt.FormatDate(d.LatestWeight.DateRecorded, now))
	}

	ctx.println()
	ctx.println(headingStyle.Render("Recent workouts"))
	if len(d.RecentWorkouts) == 0 {
		ctx.println("  No workouts yet")
	}
	for _, w := range d.RecentWorkouts {
		ctx.printf("  %-24s %-18s %3d sets  %s lbs\n", w.Name, datefmt.FormatDate(w.Date, now), len(w.Sets), numfmt.Thousands(w.Volume()))
	}

	if len(d.WeeklyVolume) > 0 {
		values := make([]float64, len(d.WeeklyVolume))
		for i, p := range d.WeeklyVolume {
			values[i] = p.TotalVolume
		}
		ctx.println()
		ctx.printf("%s %s\n", headingStyle.Render("Weekly volume"), mutedStyle.Render("(last "+pluralWeeks(min(len(values), sparkWidth))+")"))
		ctx.printf("  %s\n", chart.Sparkline(values, sparkWidth))
	}
	if len(d.WeightTrend) > 0 {
		values := make([]float64, len(d.WeightTrend))
		for i, p := range d.WeightTrend {
			values[i] = p.Weight
		}
		first, last := values[0], values[len(values)-1]
		ctx.println()
		ctx.printf("%s %s\n", headingStyle.Render("Weight"), mutedStyle.Render("(last 30 days)"))
		ctx.printf("  %s  %s → %s lbs\n", chart.Sparkline(values, sparkWidth), numfmt.Weight(first), numfmt.Weight(last))
	}
	return nil
}

func pluralWeeks(n int) string {
	if n == 1 {
		return "1 week"
	}
	return strconv.Itoa(n) + " weeks"
}

type WorkoutsCmd struct {
	Limit    int    `help:"Show at most this many workouts. 0 shows all." default:"10"`
	Exercise string `help:"Only workouts that include this exercise (case-insensitive substring)."`
}

func (c *WorkoutsCmd) Run(ctx *Context) error {
	sess, err := ctx.requireSession()
	if err != nil {
		return err
	}
	p, err := ctx.API.FetchProfile(ctx.Ctx, sess.UserID)
	if err != nil {
		return ctx.fail(err)
	}

	workouts := selectWorkouts(p.Workouts, c.Exercise, c.Limit)
	if len(workouts) == 0 {
		ctx.println("No workouts found")
		return nil
	}
	now := ctx.now()
	for i, w := range workouts {
		if i > 0 {
			ctx.println()
		}
		ctx.printf("%s  %s\n", headingStyle.Render(w.Name), mutedStyle.Render(datefmt.FormatDate(w.Date, now)))
		if w.ElapsedTime != "" {
			ctx.printf("  duration %s  volume %s lbs\n", w.ElapsedTime, numfmt.Thousands(w.Volume()))
		}
		for _, g := range models.GroupByExercise(w.Sets) {
			parts := make([]string, len(g.Sets))
			for j, s := range g.Sets {
				parts[j] = formatSet(s)
			}
			ctx.printf("  %-24s %s\n", g.Exercise, strings.Join(parts, ", "))
		}
		if w.Comment != "" {
			ctx.printf("  %s\n", mutedStyle.Render(w.Comment))
		}
	}
	return nil
}

// selectWorkouts returns the workouts newest first, filtered by exercise
// name and capped at limit when limit is positive.
func selectWorkouts(all []models.Workout, exercise string, limit int) []models.Workout {
	needle := strings.ToLower(strings.TrimSpace(exercise))
	var out []models.Workout
	for _, w := range slices.Backward(all) {
		if needle != "" && !slices.ContainsFunc(w.Sets, func(s models.Set) bool {
			return strings.Contains(strings.ToLower(s.Exercise.Name), needle)
		}) {
			continue
		}
		out = append(out, w)
		if limit > 0 && len(out) == limit {
			break
		}
	}
	return out
}

func formatSet(s models.Set) string {
	return strconv.Itoa(s.Reps) + "×" + numfmt.Weight(s.Weight)
}

type ExercisesCmd struct {
	Stats bool `help:"Include personal records for each exercise."`
}

// statsConcurrency bounds the parallel stats requests made by exercises --stats.
const statsConcurrency = 4

func (c *ExercisesCmd) Run(ctx *Context) error {
	if _, err := ctx.requireSession(); err != nil {
		return err
	}
	exercises, err := ctx.API.FetchExercises(ctx.Ctx)
	if err != nil {
		return ctx.fail(err)
	}
	if len(exercises) == 0 {
		ctx.println("No exercises in the catalog")
		return nil
	}

	stats := make([]*models.ExerciseStats, len(exercises))
	if c.Stats {
		g, gctx := errgroup.WithContext(ctx.Ctx)
		g.SetLimit(statsConcurrency)
		for i, ex := range exercises {
			g.Go(func() error {
				s, err := ctx.API.FetchExerciseStats(gctx, ex.ID)
				if err != nil {
					return err
				}
				stats[i] = s
				return nil
			})
		}
		if err := g.Wait(); err != nil {
			return ctx.fail(err)
		}
	}

	now := ctx.now()
	for i, ex := range exercises {
		if !c.Stats {
			ctx.printf("%-6d %s\n", ex.ID, ex.Name)
			continue
		}
		record := mutedStyle.Render("no record")
		if s := stats[i]; s != nil && s.PersonalRecord > 0 {
			record = "PR " + numfmt.Weight(s.PersonalRecord) + " lbs"
			if !s.DateOfPR.IsZero() {
				record += " on " + datefmt.FormatDate(s.DateOfPR, now)
			}
		}
		ctx.printf("%-6d %-28s %s\n", ex.ID, ex.Name, record)
	}
	return nil
}
