package api

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"math"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/claude/ascend/internal/models"
)

type staticTokens struct {
	token string
}

func (s staticTokens) Token() (string, bool) {
	return s.token, s.token != ""
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// newTestServer creates an httptest server that routes requests to handler
// functions keyed by "METHOD path".
func newTestServer(t *testing.T, handlers map[string]http.HandlerFunc) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		h, ok := handlers[r.Method+" "+r.URL.Path]
		if !ok {
			t.Errorf("unexpected request: %s %s", r.Method, r.URL.Path)
			http.NotFound(w, r)
			return
		}
		h(w, r)
	}))
}

func writeTestJSON(t *testing.T, w http.ResponseWriter, status int, v any) {
	t.Helper()
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		t.Fatal(err)
	}
}

func newTestClient(url, token string) *Client {
	return NewClient(url, staticTokens{token: token}, time.Second, discardLogger())
}

// TestLogin verifies the login body and the decoded auth response.
func TestLogin(t *testing.T) {
	ts := newTestServer(t, map[string]http.HandlerFunc{
		"POST /login/": func(w http.ResponseWriter, r *http.Request) {
			var creds models.Credentials
			if err := json.NewDecoder(r.Body).Decode(&creds); err != nil {
				t.Fatal(err)
			}
			if creds.Username != "sam" || creds.Password != "pw12345678" {
				t.Errorf("creds = %+v", creds)
			}
			if r.Header.Get("Authorization") != "" {
				t.Error("login must not send an Authorization header")
			}
			writeTestJSON(t, w, http.StatusOK, map[string]any{"token": "tok", "id": 12, "username": "sam"})
		},
	})
	defer ts.Close()

	resp, err := newTestClient(ts.URL, "").Login(context.Background(), models.Credentials{Username: "sam", Password: "pw12345678"})
	if err != nil {
		t.Fatal(err)
	}
	if resp.Token != "tok" || resp.ID != "12" || resp.Username != "sam" {
		t.Errorf("resp = %+v", resp)
	}
}

// TestUnauthorizedMapping verifies that 401 and 403 both classify as ErrUnauthorized.
func TestUnauthorizedMapping(t *testing.T) {
	for _, status := range []int{http.StatusUnauthorized, http.StatusForbidden} {
		ts := newTestServer(t, map[string]http.HandlerFunc{
			"GET /api/user/5/": func(w http.ResponseWriter, r *http.Request) {
				writeTestJSON(t, w, status, map[string]string{"detail": "Invalid token."})
			},
		})

		_, err := newTestClient(ts.URL, "stale").FetchProfile(context.Background(), "5")
		ts.Close()

		if !errors.Is(err, ErrUnauthorized) {
			t.Errorf("status %d: err = %v, want ErrUnauthorized", status, err)
		}
		if errors.Is(err, ErrServer) {
			t.Errorf("status %d: also classified as ErrServer", status)
		}
	}
}

// TestInvalidInputFieldErrors verifies that a 400 with field errors maps to
// ErrInvalidInput carrying those messages.
func TestInvalidInputFieldErrors(t *testing.T) {
	ts := newTestServer(t, map[string]http.HandlerFunc{
		"POST /register/": func(w http.ResponseWriter, r *http.Request) {
			writeTestJSON(t, w, http.StatusBadRequest, map[string]any{
				"password": []string{"Password must be at least 8 characters long."},
				"username": "A user with that username already exists.",
			})
		},
	})
	defer ts.Close()

	_, err := newTestClient(ts.URL, "").Register(context.Background(), models.Registration{
		FirstName: "A", LastName: "B", Email: "a@b.c", Username: "ab",
		Password: "short", ConfirmPassword: "short",
	})
	if !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("err = %v, want ErrInvalidInput", err)
	}
	var apiErr *Error
	if !errors.As(err, &apiErr) {
		t.Fatalf("err is %T, want *Error", err)
	}
	if got := apiErr.Fields["password"]; len(got) != 1 || got[0] != "Password must be at least 8 characters long." {
		t.Errorf("password field = %v", got)
	}
	if got := apiErr.Fields["username"]; len(got) != 1 {
		t.Errorf("username field = %v", got)
	}
	want := "Password must be at least 8 characters long. A user with that username already exists."
	if msg := UserMessage(err); msg != want {
		t.Errorf("UserMessage = %q, want %q", msg, want)
	}
}

// TestInvalidInputDetail verifies a 400 with only a detail message.
func TestInvalidInputDetail(t *testing.T) {
	ts := newTestServer(t, map[string]http.HandlerFunc{
		"POST /user/create-workout/": func(w http.ResponseWriter, r *http.Request) {
			writeTestJSON(t, w, http.StatusBadRequest, map[string]string{"detail": "Workout name is required."})
		},
	})
	defer ts.Close()

	_, err := newTestClient(ts.URL, "tok").CreateWorkout(context.Background(), models.WorkoutPayload{})
	if !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("err = %v, want ErrInvalidInput", err)
	}
	if msg := UserMessage(err); msg != "Workout name is required." {
		t.Errorf("UserMessage = %q", msg)
	}
}

// TestServerErrorCarriesStatus verifies other non-2xx statuses map to ErrServer.
func TestServerErrorCarriesStatus(t *testing.T) {
	ts := newTestServer(t, map[string]http.HandlerFunc{
		"GET /api/exercises/": func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, "boom", http.StatusInternalServerError)
		},
	})
	defer ts.Close()

	_, err := newTestClient(ts.URL, "tok").FetchExercises(context.Background())
	if !errors.Is(err, ErrServer) {
		t.Fatalf("err = %v, want ErrServer", err)
	}
	var apiErr *Error
	if !errors.As(err, &apiErr) || apiErr.StatusCode != http.StatusInternalServerError {
		t.Errorf("status = %v, want 500", apiErr)
	}
	if msg := UserMessage(err); msg != "A server error occurred. Please try again later." {
		t.Errorf("UserMessage = %q", msg)
	}
}

// TestNetworkError verifies that an unreachable server maps to ErrNetwork.
func TestNetworkError(t *testing.T) {
	ts := httptest.NewServer(http.NotFoundHandler())
	url := ts.URL
	ts.Close()

	_, err := newTestClient(url, "tok").FetchExercises(context.Background())
	if !errors.Is(err, ErrNetwork) {
		t.Fatalf("err = %v, want ErrNetwork", err)
	}
	if errors.Is(err, ErrServer) || errors.Is(err, ErrUnauthorized) {
		t.Error("network error misclassified")
	}
}

// TestMissingSessionNeverHitsNetwork verifies authenticated calls without a
// token fail as unauthorized before any request is sent.
func TestMissingSessionNeverHitsNetwork(t *testing.T) {
	ts := newTestServer(t, map[string]http.HandlerFunc{})
	defer ts.Close()

	_, err := newTestClient(ts.URL, "").FetchProfile(context.Background(), "1")
	if !errors.Is(err, ErrUnauthorized) {
		t.Errorf("err = %v, want ErrUnauthorized", err)
	}
}

// TestAuthorizationHeader verifies the token scheme and request id header.
func TestAuthorizationHeader(t *testing.T) {
	ts := newTestServer(t, map[string]http.HandlerFunc{
		"GET /api/exerciseStats/4": func(w http.ResponseWriter, r *http.Request) {
			if got := r.Header.Get("Authorization"); got != "Token abc" {
				t.Errorf("Authorization = %q, want %q", got, "Token abc")
			}
			if r.Header.Get("X-Request-ID") == "" {
				t.Error("missing X-Request-ID")
			}
			writeTestJSON(t, w, http.StatusOK, map[string]any{"personal_record": 142.5, "date_of_pr": "2025-05-01"})
		},
	})
	defer ts.Close()

	stats, err := newTestClient(ts.URL, "abc").FetchExerciseStats(context.Background(), 4)
	if err != nil {
		t.Fatal(err)
	}
	if stats.PersonalRecord != 142.5 || stats.DateOfPR.String() != "2025-05-01" {
		t.Errorf("stats = %+v", stats)
	}
}

// TestFetchLatestWeightEntry verifies the latest query flag and the empty case.
func TestFetchLatestWeightEntry(t *testing.T) {
	var entries []map[string]any
	ts := newTestServer(t, map[string]http.HandlerFunc{
		"GET /api/user/weightData/": func(w http.ResponseWriter, r *http.Request) {
			if r.URL.Query().Get("latest") != "true" {
				t.Errorf("latest = %q, want true", r.URL.Query().Get("latest"))
			}
			writeTestJSON(t, w, http.StatusOK, entries)
		},
	})
	defer ts.Close()
	client := newTestClient(ts.URL, "tok")

	entries = []map[string]any{}
	entry, err := client.FetchLatestWeightEntry(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if entry != nil {
		t.Errorf("entry = %+v, want nil", entry)
	}

	entries = []map[string]any{{"date_recorded": "2025-06-01", "weight": 81.2}}
	entry, err = client.FetchLatestWeightEntry(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if entry == nil || entry.Weight != 81.2 {
		t.Errorf("entry = %+v, want weight 81.2", entry)
	}
}

// TestSubmitWeightValidation verifies non-positive weights never reach the network.
func TestSubmitWeightValidation(t *testing.T) {
	ts := newTestServer(t, map[string]http.HandlerFunc{
		"POST /api/user/submitWeightData/": func(w http.ResponseWriter, r *http.Request) {
			var body map[string]float64
			_ = json.NewDecoder(r.Body).Decode(&body)
			writeTestJSON(t, w, http.StatusCreated, map[string]any{"date_recorded": "2025-06-02", "weight": body["weight"]})
		},
	})
	defer ts.Close()
	client := newTestClient(ts.URL, "tok")

	var verr *ValidationError
	if _, err := client.SubmitWeightEntry(context.Background(), 0); !errors.As(err, &verr) {
		t.Errorf("weight 0: err = %v, want ValidationError", err)
	}

	entry, err := client.SubmitWeightEntry(context.Background(), 80.5)
	if err != nil {
		t.Fatal(err)
	}
	if entry.Weight != 80.5 {
		t.Errorf("weight = %v, want 80.5", entry.Weight)
	}

	for _, in := range []string{"abc", "NaN", "Inf", "-Inf", "0"} {
		if _, err := ParseWeight(in); !errors.As(err, &verr) {
			t.Errorf("ParseWeight(%q) err = %v", in, err)
		}
	}
	if _, err := client.SubmitWeightEntry(context.Background(), math.NaN()); !errors.As(err, &verr) {
		t.Errorf("weight NaN: err = %v, want ValidationError", err)
	}
	if w, err := ParseWeight(" 72.4 "); err != nil || w != 72.4 {
		t.Errorf("ParseWeight = %v, %v", w, err)
	}
}

// TestUpdateProfile verifies the PUT path and body.
func TestUpdateProfile(t *testing.T) {
	ts := newTestServer(t, map[string]http.HandlerFunc{
		"PUT /user/profile/3/": func(w http.ResponseWriter, r *http.Request) {
			var update models.ProfileUpdate
			if err := json.NewDecoder(r.Body).Decode(&update); err != nil {
				t.Fatal(err)
			}
			if update.FirstName != "Ada" {
				t.Errorf("first_name = %q", update.FirstName)
			}
			writeTestJSON(t, w, http.StatusOK, update)
		},
	})
	defer ts.Close()

	profile, err := newTestClient(ts.URL, "tok").UpdateProfile(context.Background(), "3", models.ProfileUpdate{FirstName: "Ada"})
	if err != nil {
		t.Fatal(err)
	}
	if profile.FirstName != "Ada" {
		t.Errorf("profile = %+v", profile)
	}
}

// TestRegistrationValidation verifies client-side checks before register.
func TestRegistrationValidation(t *testing.T) {
	base := models.Registration{
		FirstName: "A", LastName: "B", Email: "a@b.c", Username: "ab",
		Password: "secret123", ConfirmPassword: "secret123",
	}
	if err := ValidateRegistration(base); err != nil {
		t.Errorf("valid registration: %v", err)
	}

	mismatch := base
	mismatch.ConfirmPassword = "other"
	var verr *ValidationError
	if err := ValidateRegistration(mismatch); !errors.As(err, &verr) || verr.Field != "confirm_password" {
		t.Errorf("mismatch err = %v", err)
	}

	missing := base
	missing.Email = " "
	if err := ValidateRegistration(missing); !errors.As(err, &verr) || verr.Field != "email" {
		t.Errorf("missing email err = %v", err)
	}
}
