// Package importer replays workout history exported by other apps into the
// backend through the regular create-workout endpoint.
package importer

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math"
	"sort"
	"strings"

	"github.com/claude/ascend/internal/api"
	"github.com/claude/ascend/internal/models"
)

// PoundsPerKilogram converts Alpha Progression weights to backend pounds.
const PoundsPerKilogram = 2.20462262

// Weight units accepted by Options.Unit.
const (
	UnitLbs = "lbs"
	UnitKg  = "kg"
)

// ImportComment is attached to every imported workout.
const ImportComment = "Imported from Alpha Progression"

// Backend is the part of the API client the importer uses.
type Backend interface {
	FetchExercises(ctx context.Context) ([]models.Exercise, error)
	CreateWorkout(ctx context.Context, payload models.WorkoutPayload) (*models.Workout, error)
}

// Options controls an import run.
type Options struct {
	// DryRun parses the export and reports counts without calling the backend.
	DryRun bool
	// Unit is the unit the backend stores weights in. Empty means UnitLbs.
	Unit string
}

// Stats tracks import progress.
type Stats struct {
	SessionsParsed   int
	SessionsImported int
	SessionsSkipped  int
	SessionsFailed   int

	SetsImported   int
	WarmupsSkipped int
	SetsSkipped    int

	UnknownExercises []string
}

// Importer submits parsed sessions as workouts.
type Importer struct {
	backend Backend
	log     *slog.Logger
	opts    Options
	stats   Stats
}

// New creates a new Importer.
func New(backend Backend, log *slog.Logger, opts Options) *Importer {
	if opts.Unit == "" {
		opts.Unit = UnitLbs
	}
	return &Importer{backend: backend, log: log, opts: opts}
}

// ImportAlpha parses an Alpha Progression export and creates one workout per
// session. Warm-up sets are skipped. Exercises missing from the catalog are
// reported in Stats and their sets left out. A rejected session stops the run.
func (imp *Importer) ImportAlpha(ctx context.Context, r io.Reader) (*Stats, error) {
	if imp.opts.Unit != UnitLbs && imp.opts.Unit != UnitKg {
		return nil, fmt.Errorf("unknown weight unit %q", imp.opts.Unit)
	}

	sessions, err := ParseAlpha(r)
	if err != nil {
		return nil, fmt.Errorf("parsing export: %w", err)
	}
	imp.stats.SessionsParsed = len(sessions)

	if imp.opts.DryRun {
		for _, s := range sessions {
			for _, ex := range s.Exercises {
				for _, set := range ex.Sets {
					if set.IsWarmup {
						imp.stats.WarmupsSkipped++
					} else {
						imp.stats.SetsImported++
					}
				}
			}
		}
		imp.log.Info("dry run, nothing submitted", "sessions", len(sessions))
		return &imp.stats, nil
	}

	catalog, err := imp.backend.FetchExercises(ctx)
	if err != nil {
		return nil, fmt.Errorf("fetching exercise catalog: %w", err)
	}
	index := catalogIndex(catalog)
	unknown := map[string]bool{}

	for _, s := range sessions {
		payload := imp.payload(s, index, unknown)
		if len(payload.Sets) == 0 {
			imp.log.Info("skipping session without known exercises", "session", s.Name, "date", payload.Date)
			imp.stats.SessionsSkipped++
			continue
		}

		if _, err := imp.backend.CreateWorkout(ctx, payload); err != nil {
			if errors.Is(err, api.ErrUnauthorized) {
				return &imp.stats, fmt.Errorf("creating workout %q: %w", s.Name, err)
			}
			imp.log.Warn("creating workout failed", "session", s.Name, "date", payload.Date, "error", err)
			imp.stats.SessionsFailed++
			continue
		}
		imp.log.Info("imported session", "session", s.Name, "date", payload.Date, "sets", len(payload.Sets))
		imp.stats.SessionsImported++
		imp.stats.SetsImported += len(payload.Sets)
	}

	for name := range unknown {
		imp.stats.UnknownExercises = append(imp.stats.UnknownExercises, name)
	}
	sort.Strings(imp.stats.UnknownExercises)
	return &imp.stats, nil
}

// payload converts a session into a create-workout body, recording unknown
// exercises and skipped sets along the way.
func (imp *Importer) payload(s Session, index map[string]models.Exercise, unknown map[string]bool) models.WorkoutPayload {
	p := models.WorkoutPayload{
		Name:        s.Name,
		Date:        models.NewDate(s.Date).String(),
		ElapsedTime: elapsedTime(s.Duration),
		Comment:     ImportComment,
		Sets:        []models.Set{},
	}
	for _, ex := range s.Exercises {
		match, ok := index[normalizeName(ex.Name)]
		for _, set := range ex.Sets {
			switch {
			case set.IsWarmup:
				imp.stats.WarmupsSkipped++
			case !ok:
				unknown[ex.Name] = true
				imp.stats.SetsSkipped++
			default:
				p.Sets = append(p.Sets, models.Set{
					Exercise: match,
					Reps:     set.Reps,
					Weight:   imp.convert(set.WeightKg),
				})
			}
		}
	}
	return p
}

func (imp *Importer) convert(kg float64) float64 {
	if imp.opts.Unit == UnitKg {
		return kg
	}
	return math.Round(kg*PoundsPerKilogram*10) / 10
}

func catalogIndex(catalog []models.Exercise) map[string]models.Exercise {
	index := make(map[string]models.Exercise, len(catalog))
	for _, ex := range catalog {
		index[normalizeName(ex.Name)] = ex
	}
	return index
}

// normalizeName folds case and collapses whitespace for catalog matching.
func normalizeName(name string) string {
	return strings.ToLower(strings.Join(strings.Fields(name), " "))
}
