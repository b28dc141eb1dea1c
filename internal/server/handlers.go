package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"slices"
	"strconv"
	"strings"

	"github.com/claude/ascend/internal/api"
	"github.com/claude/ascend/internal/chart"
	"github.com/claude/ascend/internal/dashboard"
	"github.com/claude/ascend/internal/models"
	"github.com/claude/ascend/internal/session"
)

// errNoSession is returned by loadProfile when nobody is logged in.
var errNoSession = errors.New("no session")

// loadProfile fetches the logged-in user's profile. Concurrent calls for the
// same user share one backend request, which outlives the caller that started
// it. An unauthorized response clears the session.
func (s *Server) loadProfile(ctx context.Context) (*models.UserProfile, error) {
	sess, ok := s.sessions.Get()
	if !ok {
		return nil, errNoSession
	}
	v, err, shared := s.profiles.Do(sess.UserID, func() (any, error) {
		return s.api.FetchProfile(context.WithoutCancel(ctx), sess.UserID)
	})
	if err != nil {
		if errors.Is(err, api.ErrUnauthorized) {
			s.log.Info("session rejected by backend, clearing", "user", sess.Username)
			if cerr := s.sessions.Clear(ctx); cerr != nil {
				s.log.Error("clearing session", "error", cerr)
			}
		}
		return nil, err
	}
	s.log.Debug("profile loaded", "user", sess.Username, "shared", shared)
	return v.(*models.UserProfile), nil
}

func (s *Server) handleLoginPage(w http.ResponseWriter, r *http.Request) {
	if _, ok := s.sessions.Get(); ok {
		http.Redirect(w, r, "/", http.StatusSeeOther)
		return
	}
	s.render(w, http.StatusOK, "login.html", loginPage{Message: r.URL.Query().Get("message")})
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		s.render(w, http.StatusBadRequest, "login.html", loginPage{Error: "Invalid form submission."})
		return
	}
	creds := models.Credentials{
		Username: strings.TrimSpace(r.PostFormValue("username")),
		Password: r.PostFormValue("password"),
	}

	resp, err := s.api.Login(r.Context(), creds)
	if err != nil {
		s.log.Info("login failed", "user", creds.Username, "error", err)
		s.render(w, loginStatus(err), "login.html", loginPage{Username: creds.Username, Error: api.UserMessage(err)})
		return
	}

	sess := session.Session{Token: resp.Token, UserID: resp.ID.String(), Username: resp.Username}
	if err := s.sessions.Set(r.Context(), sess); err != nil {
		s.log.Error("storing session", "error", err)
		s.render(w, http.StatusInternalServerError, "login.html", loginPage{Username: creds.Username, Error: "Could not store your session."})
		return
	}
	s.log.Info("logged in", "user", resp.Username, "via", userInfoFromContext(r).Login)
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

func loginStatus(err error) int {
	var verr *api.ValidationError
	switch {
	case errors.As(err, &verr), errors.Is(err, api.ErrInvalidInput):
		return http.StatusBadRequest
	case errors.Is(err, api.ErrUnauthorized):
		return http.StatusUnauthorized
	default:
		return http.StatusBadGateway
	}
}

func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	if err := s.sessions.Clear(r.Context()); err != nil {
		s.log.Error("clearing session", "error", err)
	}
	http.Redirect(w, r, "/login", http.StatusSeeOther)
}

func (s *Server) handleDashboard(w http.ResponseWriter, r *http.Request) {
	profile, ok := s.profileOrRedirect(w, r)
	if !ok {
		return
	}
	d := dashboard.Build(profile, models.NewDate(s.now()))
	s.render(w, http.StatusOK, "dashboard.html", dashboardPage{
		User:        userInfoFromContext(r),
		Dashboard:   d,
		VolumeChart: chartHTML(chart.Volume(volumePoints(d.WeeklyVolume), 0, 0)),
		WeightChart: chartHTML(chart.Weight(weightPoints(d.WeightTrend), 0, 0)),
		Error:       r.URL.Query().Get("error"),
		Notice:      r.URL.Query().Get("notice"),
	})
}

func (s *Server) handleWorkouts(w http.ResponseWriter, r *http.Request) {
	profile, ok := s.profileOrRedirect(w, r)
	if !ok {
		return
	}
	workouts := slices.Clone(profile.Workouts)
	slices.Reverse(workouts)
	s.render(w, http.StatusOK, "workouts.html", workoutsPage{
		User:     userInfoFromContext(r),
		Workouts: workouts,
	})
}

func (s *Server) handleWeighIn(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		redirectWithQuery(w, r, "/", "error", "Invalid form submission.")
		return
	}
	weight, err := api.ParseWeight(r.PostFormValue("weight"))
	if err == nil {
		_, err = s.api.SubmitWeightEntry(r.Context(), weight)
	}
	if err != nil {
		if errors.Is(err, api.ErrUnauthorized) {
			s.clearAndRedirect(w, r)
			return
		}
		redirectWithQuery(w, r, "/", "error", api.UserMessage(err))
		return
	}
	s.log.Info("weight logged", "weight", weight)
	redirectWithQuery(w, r, "/", "notice", "Weight logged.")
}

func (s *Server) handleVolumeChart(w http.ResponseWriter, r *http.Request) {
	profile, ok := s.profileOrRedirect(w, r)
	if !ok {
		return
	}
	width, height := chartSize(r)
	points := volumePoints(dashboard.WeeklyVolume(profile.Workouts))
	writeSVG(w, chart.Volume(points, width, height))
}

func (s *Server) handleWeightChart(w http.ResponseWriter, r *http.Request) {
	profile, ok := s.profileOrRedirect(w, r)
	if !ok {
		return
	}
	width, height := chartSize(r)
	window := dashboard.WeightWindowDays
	if r.URL.Query().Get("range") == "all" {
		window = 0
	}
	trend := dashboard.WeightTrend(profile.WeightEntries, models.NewDate(s.now()), window)
	writeSVG(w, chart.Weight(weightPoints(trend), width, height))
}

func (s *Server) handleMe(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, userInfoFromContext(r))
}

func (s *Server) handleDashboardJSON(w http.ResponseWriter, r *http.Request) {
	profile, ok := s.profileOrJSONError(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, dashboard.Build(profile, models.NewDate(s.now())))
}

func (s *Server) handleProfileJSON(w http.ResponseWriter, r *http.Request) {
	profile, ok := s.profileOrJSONError(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, profile)
}

func (s *Server) profileOrJSONError(w http.ResponseWriter, r *http.Request) (*models.UserProfile, bool) {
	profile, err := s.loadProfile(r.Context())
	switch {
	case err == nil:
		return profile, true
	case errors.Is(err, errNoSession):
		writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "Not logged in."})
	case errors.Is(err, api.ErrUnauthorized):
		writeJSON(w, http.StatusUnauthorized, map[string]string{"error": api.UserMessage(err)})
	default:
		writeJSON(w, http.StatusBadGateway, map[string]string{"error": api.UserMessage(err)})
	}
	return nil, false
}

// profileOrRedirect loads the profile for a page handler. On failure it
// writes the response itself and reports false.
func (s *Server) profileOrRedirect(w http.ResponseWriter, r *http.Request) (*models.UserProfile, bool) {
	profile, err := s.loadProfile(r.Context())
	switch {
	case err == nil:
		return profile, true
	case errors.Is(err, errNoSession):
		http.Redirect(w, r, "/login", http.StatusSeeOther)
	case errors.Is(err, api.ErrUnauthorized):
		redirectWithQuery(w, r, "/login", "message", api.UserMessage(err))
	default:
		s.log.Error("loading profile", "error", err)
		s.render(w, http.StatusBadGateway, "error.html", errorPage{Message: api.UserMessage(err)})
	}
	return nil, false
}

func (s *Server) clearAndRedirect(w http.ResponseWriter, r *http.Request) {
	if err := s.sessions.Clear(r.Context()); err != nil {
		s.log.Error("clearing session", "error", err)
	}
	redirectWithQuery(w, r, "/login", "message", "Authentication failed. Please log in again.")
}

func (s *Server) render(w http.ResponseWriter, status int, name string, data any) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	if err := s.pages.ExecuteTemplate(w, name, data); err != nil {
		s.log.Error("rendering page", "page", name, "error", err)
	}
}

func redirectWithQuery(w http.ResponseWriter, r *http.Request, path, key, value string) {
	q := url.Values{}
	q.Set(key, value)
	http.Redirect(w, r, path+"?"+q.Encode(), http.StatusSeeOther)
}

// chartSize reads ?w= and ?h=, clamped to a sane canvas. Missing values use
// the chart defaults.
func chartSize(r *http.Request) (width, height int) {
	parse := func(key string) int {
		n, err := strconv.Atoi(r.URL.Query().Get(key))
		if err != nil || n <= 0 {
			return 0
		}
		return min(n, 4000)
	}
	return parse("w"), parse("h")
}

func volumePoints(series []dashboard.VolumePoint) []chart.Point {
	out := make([]chart.Point, len(series))
	for i, p := range series {
		out[i] = chart.Point{Time: p.WeekStart.Time, Value: p.TotalVolume}
	}
	return out
}

func weightPoints(series []dashboard.WeightPoint) []chart.Point {
	out := make([]chart.Point, len(series))
	for i, p := range series {
		out[i] = chart.Point{Time: p.Date.Time, Value: p.Weight}
	}
	return out
}

func writeSVG(w http.ResponseWriter, svg string) {
	w.Header().Set("Content-Type", "image/svg+xml")
	w.Header().Set("Cache-Control", "no-store")
	fmt.Fprint(w, svg)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
