package cli

import (
	"fmt"
	"os"
	"strings"

	"github.com/claude/ascend/internal/importer"
)

type ImportAlphaCmd struct {
	File   string `arg:"" type:"existingfile" help:"Alpha Progression CSV export."`
	DryRun bool   `help:"Parse and report counts without creating workouts." name:"dry-run"`
	Unit   string `help:"Unit the backend stores weights in (${enum})." enum:"lbs,kg" default:"lbs"`
}

func (c *ImportAlphaCmd) Run(ctx *Context) error {
	if !c.DryRun {
		if _, err := ctx.requireSession(); err != nil {
			return err
		}
	}
	f, err := os.Open(c.File)
	if err != nil {
		return fmt.Errorf("opening export: %w", err)
	}
	defer f.Close()

	if c.DryRun {
		ctx.println(mutedStyle.Render("Dry run: nothing will be submitted"))
	}
	imp := importer.New(ctx.API, ctx.Log, importer.Options{DryRun: c.DryRun, Unit: c.Unit})
	stats, err := imp.ImportAlpha(ctx.Ctx, f)
	if stats != nil {
		printImportStats(ctx, stats, c.DryRun)
	}
	if err != nil {
		return ctx.fail(err)
	}
	ctx.Log.Info("import complete", "imported", stats.SessionsImported, "failed", stats.SessionsFailed)
	return nil
}

func printImportStats(ctx *Context, stats *importer.Stats, dryRun bool) {
	ctx.println(headingStyle.Render("Import"))
	ctx.printf("  %-20s %d\n", "sessions parsed", stats.SessionsParsed)
	if !dryRun {
		ctx.printf("  %-20s %d\n", "sessions imported", stats.SessionsImported)
		ctx.printf("  %-20s %d\n", "sessions skipped", stats.SessionsSkipped)
		ctx.printf("  %-20s %d\n", "sessions failed", stats.SessionsFailed)
	}
	ctx.printf("  %-20s %d\n", "sets", stats.SetsImported)
	ctx.printf("  %-20s %d\n", "warm-ups skipped", stats.WarmupsSkipped)
	if stats.SetsSkipped > 0 {
		ctx.printf("  %-20s %d\n", "sets skipped", stats.SetsSkipped)
	}
	if len(stats.UnknownExercises) > 0 {
		ctx.printf("  %-20s %s\n", "unknown exercises", strings.Join(stats.UnknownExercises, ", "))
	}
}
