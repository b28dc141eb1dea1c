// Package cli implements the ascend subcommands. Each command is a kong
// struct with a Run(*Context) error method.
package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/claude/ascend/internal/api"
	"github.com/claude/ascend/internal/config"
	"github.com/claude/ascend/internal/session"
)

// ErrNotLoggedIn is returned by commands that need a session when none is stored.
var ErrNotLoggedIn = errors.New("not logged in; run `ascend login`")

// Context carries the dependencies shared by every command.
type Context struct {
	Ctx      context.Context
	Config   *config.Config
	Log      *slog.Logger
	API      *api.Client
	Sessions *session.Store
	Out      io.Writer
	Version  string
	Now      func() time.Time
}

var (
	headingStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#7D56F4"))
	mutedStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
	okStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("#04B575"))
)

func (c *Context) printf(format string, args ...any) {
	fmt.Fprintf(c.Out, format, args...)
}

func (c *Context) println(args ...any) {
	fmt.Fprintln(c.Out, args...)
}

func (c *Context) now() time.Time {
	if c.Now != nil {
		return c.Now()
	}
	return time.Now()
}

// requireSession returns the stored session or ErrNotLoggedIn.
func (c *Context) requireSession() (session.Session, error) {
	sess, ok := c.Sessions.Get()
	if !ok {
		return session.Session{}, ErrNotLoggedIn
	}
	return sess, nil
}

// userError is an API failure reduced to the message shown to the user.
// The original error stays reachable through errors.Is and errors.As.
type userError struct {
	msg string
	err error
}

func (e *userError) Error() string { return e.msg }
func (e *userError) Unwrap() error { return e.err }

// fail converts a backend error for display. An unauthorized response
// clears the stored session first.
func (c *Context) fail(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, ErrNotLoggedIn) {
		return err
	}
	if errors.Is(err, api.ErrUnauthorized) {
		c.Log.Info("backend rejected session, clearing")
		if cerr := c.Sessions.Clear(c.Ctx); cerr != nil {
			c.Log.Error("clearing session", "error", cerr)
		}
		return &userError{msg: api.UserMessage(err) + " Run `ascend login`.", err: err}
	}
	c.Log.Debug("command failed", "error", err)
	return &userError{msg: api.UserMessage(err), err: err}
}

