package server

import (
	"context"
	"embed"
	"html/template"
	"log/slog"
	"net/http"
	"time"

	"github.com/claude/ascend/internal/datefmt"
	"github.com/claude/ascend/internal/models"
	"github.com/claude/ascend/internal/numfmt"
	"github.com/claude/ascend/internal/session"
	"github.com/go-chi/chi/v5"
	"golang.org/x/sync/singleflight"
)

//go:embed templates/*.html
var templateFS embed.FS

// Backend is the part of the API client the dashboard uses.
type Backend interface {
	Login(ctx context.Context, creds models.Credentials) (*models.AuthResponse, error)
	FetchProfile(ctx context.Context, userID string) (*models.UserProfile, error)
	SubmitWeightEntry(ctx context.Context, weight float64) (*models.WeightEntry, error)
}

// Sessions is the session store as seen by the dashboard.
type Sessions interface {
	Get() (session.Session, bool)
	Set(ctx context.Context, s session.Session) error
	Clear(ctx context.Context) error
}

// Server holds dependencies for HTTP handlers.
type Server struct {
	api      Backend
	sessions Sessions
	log      *slog.Logger
	router   chi.Router
	pages    *template.Template
	now      func() time.Time

	// profiles collapses concurrent profile fetches for the same user.
	profiles singleflight.Group
	whois    WhoIser
}

// New creates a new Server with all routes configured.
func New(api Backend, sessions Sessions, log *slog.Logger) *Server {
	s := &Server{
		api:      api,
		sessions: sessions,
		log:      log,
		router:   chi.NewRouter(),
		now:      time.Now,
	}
	s.pages = template.Must(template.New("").Funcs(template.FuncMap{
		"formatDate": func(d models.Date) string { return datefmt.FormatDate(d, s.now()) },
		"groups":     models.GroupByExercise,
		"number":     numfmt.Thousands,
		"inc":        func(i int) int { return i + 1 },
	}).ParseFS(templateFS, "templates/*.html"))
	s.routes()
	return s
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// SetTailscale resolves request identities through the tailnet. Must be
// called before the server starts serving.
func (s *Server) SetTailscale(who WhoIser) {
	s.whois = who
}

// identify attaches the caller's identity to the request context.
func (s *Server) identify(next http.Handler) http.Handler {
	dev := DevIdentity(next)
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if s.whois == nil {
			dev.ServeHTTP(w, r)
			return
		}
		TailscaleIdentity(s.whois, s.log)(next).ServeHTTP(w, r)
	})
}

// apiAccess opens the JSON API to other origins on the tailnet only. On a
// plain listener cross-site browser requests are refused.
func (s *Server) apiAccess(next http.Handler) http.Handler {
	cors, local := CORS(next), SameOrigin(next)
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if s.whois == nil {
			local.ServeHTTP(w, r)
			return
		}
		cors.ServeHTTP(w, r)
	})
}

func (s *Server) routes() {
	s.router.Use(RequestLogging(s.log))
	s.router.Use(http.NewCrossOriginProtection().Handler)
	s.router.Use(s.identify)

	s.router.Get("/login", s.handleLoginPage)
	s.router.Post("/login", s.handleLogin)
	s.router.Post("/logout", s.handleLogout)

	s.router.Group(func(r chi.Router) {
		r.Use(RequireSession(s.sessions))
		r.Get("/", s.handleDashboard)
		r.Get("/workouts", s.handleWorkouts)
		r.Post("/weigh-in", s.handleWeighIn)
		r.Get("/charts/volume.svg", s.handleVolumeChart)
		r.Get("/charts/weight.svg", s.handleWeightChart)
	})

	s.router.Route("/api", func(r chi.Router) {
		r.Use(s.apiAccess)
		r.Get("/me", s.handleMe)
		r.Get("/dashboard", s.handleDashboardJSON)
		r.Get("/profile", s.handleProfileJSON)
	})
}
