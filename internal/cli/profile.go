package cli

import (
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/charmbracelet/huh"

	"github.com/claude/ascend/internal/api"
	"github.com/claude/ascend/internal/dashboard"
	"github.com/claude/ascend/internal/datefmt"
	"github.com/claude/ascend/internal/models"
	"github.com/claude/ascend/internal/numfmt"
	"github.com/claude/ascend/internal/profile"
)

type ProfileShowCmd struct{}

func (c *ProfileShowCmd) Run(ctx *Context) error {
	sess, err := ctx.requireSession()
	if err != nil {
		return err
	}
	p, err := ctx.API.FetchProfile(ctx.Ctx, sess.UserID)
	if err != nil {
		return ctx.fail(err)
	}
	printProfileFields(ctx, p.EditableFields())

	recent := dashboard.RecentWorkouts(p.Workouts, dashboard.RecentOnProfile)
	ctx.println()
	ctx.println(headingStyle.Render("Recent workouts"))
	if len(recent) == 0 {
		ctx.println("  No workouts yet")
	}
	for _, w := range recent {
		ctx.printf("  %-24s %-18s %s lbs\n", w.Name, datefmt.FormatDate(w.Date, ctx.now()), numfmt.Thousands(w.Volume()))
	}
	return nil
}

func printProfileFields(ctx *Context, u models.ProfileUpdate) {
	ctx.println(headingStyle.Render("Profile"))
	ctx.printf("  %-12s %s\n", "username", u.Username)
	ctx.printf("  %-12s %s\n", "email", u.Email)
	ctx.printf("  %-12s %s\n", "name", strings.TrimSpace(u.FirstName+" "+u.LastName))
	ctx.printf("  %-12s %s\n", "weight", optionalMeasurement(u.UserWeight, "lbs"))
	ctx.printf("  %-12s %s\n", "height", optionalMeasurement(u.UserHeight, "in"))
	gender := u.UserGender
	if gender == "" {
		gender = "-"
	}
	ctx.printf("  %-12s %s\n", "gender", gender)
}

func optionalMeasurement(v *float64, unit string) string {
	if v == nil {
		return "-"
	}
	return numfmt.Weight(*v) + " " + unit
}

type ProfileEditCmd struct {
	Set map[string]string `help:"Field to change, as field=value. Repeatable. Fields: ${fields}." mapsep:";"`
}

func (c *ProfileEditCmd) Run(ctx *Context) error {
	sess, err := ctx.requireSession()
	if err != nil {
		return err
	}
	editor := profile.NewEditor(ctx.API, sess.UserID)
	if _, err := editor.Load(ctx.Ctx); err != nil {
		return ctx.fail(err)
	}
	if err := editor.Begin(); err != nil {
		return err
	}

	if len(c.Set) == 0 {
		if err := runProfileForm(editor); err != nil {
			editor.Cancel()
			return err
		}
	} else {
		for field := range c.Set {
			if !slices.Contains(profile.Fields, field) {
				editor.Cancel()
				return fmt.Errorf("unknown profile field %q (fields: %s)", field, strings.Join(profile.Fields, ", "))
			}
		}
		for _, field := range profile.Fields {
			value, ok := c.Set[field]
			if !ok {
				continue
			}
			if err := editor.Set(field, value); err != nil {
				editor.Cancel()
				return &userError{msg: api.UserMessage(err), err: err}
			}
		}
	}

	updated, err := editor.Save(ctx.Ctx)
	if err != nil {
		return ctx.fail(err)
	}
	ctx.Log.Info("profile updated", "user", updated.Username)
	ctx.println(okStyle.Render("Profile saved"))
	printProfileFields(ctx, updated.EditableFields())
	return nil
}

// runProfileForm edits every field in one form, validating each value
// through the editor as it is typed.
func runProfileForm(editor *profile.Editor) error {
	cur := editor.Current()
	values := map[string]*string{}
	initial := map[string]string{
		profile.FieldUsername:  cur.Username,
		profile.FieldEmail:     cur.Email,
		profile.FieldFirstName: cur.FirstName,
		profile.FieldLastName:  cur.LastName,
		profile.FieldWeight:    measurementText(cur.UserWeight),
		profile.FieldHeight:    measurementText(cur.UserHeight),
		profile.FieldGender:    cur.UserGender,
	}
	titles := map[string]string{
		profile.FieldUsername:  "Username",
		profile.FieldEmail:     "Email",
		profile.FieldFirstName: "First name",
		profile.FieldLastName:  "Last name",
		profile.FieldWeight:    "Weight (lbs)",
		profile.FieldHeight:    "Height (in)",
	}

	var fields []huh.Field
	for _, name := range profile.Fields {
		v := initial[name]
		values[name] = &v
		if name == profile.FieldGender {
			opts := []huh.Option[string]{huh.NewOption("Prefer not to say", "")}
			for _, g := range profile.Genders {
				opts = append(opts, huh.NewOption(g, g))
			}
			fields = append(fields, huh.NewSelect[string]().Title("Gender").Options(opts...).Value(values[name]))
			continue
		}
		field := name
		fields = append(fields, huh.NewInput().
			Title(titles[name]).
			Value(values[name]).
			Validate(func(s string) error {
				if err := editor.Set(field, s); err != nil {
					return errors.New(api.UserMessage(err))
				}
				return nil
			}))
	}

	form := huh.NewForm(huh.NewGroup(fields...)).WithTheme(huh.ThemeDracula())
	if err := form.Run(); err != nil {
		return err
	}
	for _, name := range profile.Fields {
		if err := editor.Set(name, *values[name]); err != nil {
			return &userError{msg: api.UserMessage(err), err: err}
		}
	}
	return nil
}

func measurementText(v *float64) string {
	if v == nil {
		return ""
	}
	return numfmt.Weight(*v)
}
