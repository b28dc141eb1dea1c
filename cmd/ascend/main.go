package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/alecthomas/kong"

	"github.com/claude/ascend/internal/api"
	"github.com/claude/ascend/internal/cli"
	"github.com/claude/ascend/internal/config"
	"github.com/claude/ascend/internal/logging"
	"github.com/claude/ascend/internal/profile"
	"github.com/claude/ascend/internal/session"
)

// Version is set at build time via -ldflags.
var Version = "dev"

var CLI struct {
	Version kong.VersionFlag
	Config  string `help:"Config file path." type:"path" default:"${config_path}"`

	Login    cli.LoginCmd    `cmd:"" help:"Log in and store the session."`
	Register cli.RegisterCmd `cmd:"" help:"Create an account and log in."`
	Logout   cli.LogoutCmd   `cmd:"" help:"Forget the stored session."`
	Whoami   cli.WhoamiCmd   `cmd:"" help:"Show the logged-in user."`
	Profile  struct {
		Show cli.ProfileShowCmd `cmd:"" help:"Show profile and recent workouts." default:"1"`
		Edit cli.ProfileEditCmd `cmd:"" help:"Edit profile fields."`
	} `cmd:"" help:"View or edit your profile."`
	Exercises cli.ExercisesCmd `cmd:"" help:"List the exercise catalog."`
	Dashboard cli.DashboardCmd `cmd:"" help:"Show training and weight summaries."`
	Workouts  cli.WorkoutsCmd  `cmd:"" help:"List past workouts, newest first."`
	Workout   cli.WorkoutCmd   `cmd:"" help:"Record a workout in the interactive composer."`
	WeighIn   cli.WeighInCmd   `cmd:"" name:"weigh-in" help:"Log body weight."`
	Import    struct {
		Alpha cli.ImportAlphaCmd `cmd:"" help:"Import an Alpha Progression CSV export."`
	} `cmd:"" help:"Import workout history."`
	Serve cli.ServeCmd `cmd:"" help:"Serve the dashboard in the browser."`
	MCP   cli.MCPCmd   `cmd:"" name:"mcp" help:"Serve dashboard tools to MCP clients over stdio."`
}

func main() {
	kctx := kong.Parse(&CLI,
		kong.Name("ascend"),
		kong.Description("Workout and body-weight tracker client"),
		kong.UsageOnError(),
		kong.ConfigureHelp(kong.HelpOptions{
			Compact:             true,
			NoExpandSubcommands: true,
		}),
		kong.Vars{
			"version":     Version,
			"config_path": config.DefaultPath(),
			"fields":      strings.Join(profile.Fields, ", "),
		},
	)

	if err := run(kctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run(kctx *kong.Context) error {
	cfg, err := config.Load(CLI.Config)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	// Long-running commands log to stderr; the rest keep the terminal clean.
	mode := logging.File
	if cmd := kctx.Command(); cmd == "serve" || cmd == "mcp" {
		mode = logging.Console
	}
	log, logCloser, err := logging.New(logging.Options{Mode: mode, Level: cfg.Log.Level, File: cfg.Log.File})
	if err != nil {
		return fmt.Errorf("setting up logging: %w", err)
	}
	defer logCloser.Close()
	log.Debug("ascend starting", "version", Version, "command", kctx.Command())

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	backend, err := cli.OpenSessionBackend(ctx, cfg)
	if err != nil {
		return err
	}
	sessions, err := session.Open(ctx, backend, log)
	if err != nil {
		backend.Close()
		return fmt.Errorf("restoring session: %w", err)
	}
	defer sessions.Close()

	appCtx := &cli.Context{
		Ctx:      ctx,
		Config:   cfg,
		Log:      log,
		API:      api.NewClient(cfg.API.BaseURL, sessions, cfg.API.Timeout, log),
		Sessions: sessions,
		Out:      os.Stdout,
		Version:  Version,
	}
	return kctx.Run(appCtx)
}
