package cli

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/huh"

	"github.com/claude/ascend/internal/api"
	"github.com/claude/ascend/internal/models"
	"github.com/claude/ascend/internal/numfmt"
	"github.com/claude/ascend/internal/profile"
	"github.com/claude/ascend/internal/session"
)

type LoginCmd struct {
	Username string `arg:"" optional:"" help:"Account username."`
	Password string `help:"Account password. Prompted when omitted." env:"ASCEND_PASSWORD"`
}

func (c *LoginCmd) Run(ctx *Context) error {
	if c.Username == "" || c.Password == "" {
		form := huh.NewForm(
			huh.NewGroup(
				huh.NewInput().
					Title("Username").
					Value(&c.Username).
					Validate(required("Username")),
				huh.NewInput().
					Title("Password").
					EchoMode(huh.EchoModePassword).
					Value(&c.Password).
					Validate(required("Password")),
			),
		).WithTheme(huh.ThemeDracula())
		if err := form.Run(); err != nil {
			return err
		}
	}

	creds := models.Credentials{Username: strings.TrimSpace(c.Username), Password: c.Password}
	resp, err := ctx.API.Login(ctx.Ctx, creds)
	if err != nil {
		ctx.Log.Info("login failed", "user", creds.Username, "error", err)
		return loginError(err)
	}
	if err := storeSession(ctx, resp); err != nil {
		return err
	}
	ctx.printf("%s %s\n", okStyle.Render("Logged in as"), resp.Username)
	return nil
}

// loginError keeps a rejected login from reading like an expired session.
func loginError(err error) error {
	if errors.Is(err, api.ErrUnauthorized) {
		return &userError{msg: "Invalid username or password.", err: err}
	}
	return &userError{msg: api.UserMessage(err), err: err}
}

func storeSession(ctx *Context, resp *models.AuthResponse) error {
	sess := session.Session{Token: resp.Token, UserID: resp.ID.String(), Username: resp.Username}
	if err := ctx.Sessions.Set(ctx.Ctx, sess); err != nil {
		return fmt.Errorf("storing session: %w", err)
	}
	return nil
}

type RegisterCmd struct {
	Username  string  `help:"Username."`
	Email     string  `help:"Email address."`
	FirstName string  `help:"First name." name:"first-name"`
	LastName  string  `help:"Last name." name:"last-name"`
	Password  string  `help:"Password. Prompted when omitted." env:"ASCEND_PASSWORD"`
	Weight    float64 `help:"Body weight in lbs."`
	Height    float64 `help:"Height in inches."`
	Gender    string  `help:"One of male, female, Other."`
}

func (c *RegisterCmd) Run(ctx *Context) error {
	reg := models.Registration{
		FirstName:       c.FirstName,
		LastName:        c.LastName,
		Email:           c.Email,
		Username:        c.Username,
		Password:        c.Password,
		ConfirmPassword: c.Password,
		UserGender:      c.Gender,
	}
	if c.Weight > 0 {
		reg.UserWeight = &c.Weight
	}
	if c.Height > 0 {
		reg.UserHeight = &c.Height
	}

	if reg.FirstName == "" || reg.LastName == "" || reg.Username == "" || reg.Email == "" || reg.Password == "" {
		if err := runRegistrationForm(&reg); err != nil {
			return err
		}
	}

	if err := api.ValidateRegistration(reg); err != nil {
		return &userError{msg: api.UserMessage(err), err: err}
	}
	resp, err := ctx.API.Register(ctx.Ctx, reg)
	if err != nil {
		return &userError{msg: api.UserMessage(err), err: err}
	}
	if err := storeSession(ctx, resp); err != nil {
		return err
	}
	ctx.printf("%s %s\n", okStyle.Render("Registered and logged in as"), resp.Username)
	return nil
}

// runRegistrationForm prompts for the registration fields, prefilled from reg.
func runRegistrationForm(reg *models.Registration) error {
	var weight, height string
	if reg.UserWeight != nil {
		weight = numfmt.Weight(*reg.UserWeight)
	}
	if reg.UserHeight != nil {
		height = numfmt.Weight(*reg.UserHeight)
	}
	genders := []huh.Option[string]{huh.NewOption("Prefer not to say", "")}
	for _, g := range profile.Genders {
		genders = append(genders, huh.NewOption(g, g))
	}

	form := huh.NewForm(
		huh.NewGroup(
			huh.NewInput().Title("First name").Value(&reg.FirstName).Validate(required("First name")),
			huh.NewInput().Title("Last name").Value(&reg.LastName).Validate(required("Last name")),
			huh.NewInput().Title("Email").Value(&reg.Email).Validate(required("Email")),
			huh.NewInput().Title("Username").Value(&reg.Username).Validate(required("Username")),
		),
		huh.NewGroup(
			huh.NewInput().Title("Password").EchoMode(huh.EchoModePassword).Value(&reg.Password).Validate(required("Password")),
			huh.NewInput().Title("Confirm password").EchoMode(huh.EchoModePassword).Value(&reg.ConfirmPassword).
				Validate(func(s string) error {
					if s != reg.Password {
						return errors.New("passwords do not match")
					}
					return nil
				}),
		),
		huh.NewGroup(
			huh.NewInput().Title("Weight (lbs)").Value(&weight).Validate(optionalNumber),
			huh.NewInput().Title("Height (in)").Value(&height).Validate(optionalNumber),
			huh.NewSelect[string]().Title("Gender").Options(genders...).Value(&reg.UserGender),
		),
	).WithTheme(huh.ThemeDracula())

	if err := form.Run(); err != nil {
		return err
	}
	reg.UserWeight = parseOptional(weight)
	reg.UserHeight = parseOptional(height)
	return nil
}

func required(name string) func(string) error {
	return func(s string) error {
		if strings.TrimSpace(s) == "" {
			return fmt.Errorf("%s is required", strings.ToLower(name))
		}
		return nil
	}
}

func optionalNumber(s string) error {
	if strings.TrimSpace(s) == "" {
		return nil
	}
	n, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil || n <= 0 {
		return errors.New("enter a positive number")
	}
	return nil
}

func parseOptional(s string) *float64 {
	n, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil || n <= 0 {
		return nil
	}
	return &n
}

type LogoutCmd struct{}

func (c *LogoutCmd) Run(ctx *Context) error {
	sess, ok := ctx.Sessions.Get()
	if err := ctx.Sessions.Clear(ctx.Ctx); err != nil {
		return fmt.Errorf("clearing session: %w", err)
	}
	if ok {
		ctx.printf("Logged out %s\n", sess.Username)
	} else {
		ctx.println("Not logged in")
	}
	return nil
}

type WhoamiCmd struct{}

func (c *WhoamiCmd) Run(ctx *Context) error {
	sess, err := ctx.requireSession()
	if err != nil {
		return err
	}
	ctx.printf("%s (id %s)\n", sess.Username, sess.UserID)
	ctx.printf("%s\n", mutedStyle.Render("backend "+ctx.Config.API.BaseURL))
	return nil
}
