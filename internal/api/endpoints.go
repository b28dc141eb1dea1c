package api

import (
	"context"
	"math"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/claude/ascend/internal/models"
)

// Login exchanges credentials for a token.
func (c *Client) Login(ctx context.Context, creds models.Credentials) (*models.AuthResponse, error) {
	if strings.TrimSpace(creds.Username) == "" || creds.Password == "" {
		return nil, NewValidationError("username", "Please fill in both fields.")
	}
	var resp models.AuthResponse
	if err := c.do(ctx, request{method: http.MethodPost, path: "/login/", body: creds}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Register creates an account and returns its token.
func (c *Client) Register(ctx context.Context, reg models.Registration) (*models.AuthResponse, error) {
	if err := ValidateRegistration(reg); err != nil {
		return nil, err
	}
	var resp models.AuthResponse
	if err := c.do(ctx, request{method: http.MethodPost, path: "/register/", body: reg}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// FetchProfile returns the full profile, including workouts and weight entries.
func (c *Client) FetchProfile(ctx context.Context, userID string) (*models.UserProfile, error) {
	var profile models.UserProfile
	path := "/api/user/" + url.PathEscape(userID) + "/"
	if err := c.do(ctx, request{method: http.MethodGet, path: path, auth: true}, &profile); err != nil {
		return nil, err
	}
	return &profile, nil
}

// UpdateProfile replaces the editable profile fields and returns the stored profile.
func (c *Client) UpdateProfile(ctx context.Context, userID string, update models.ProfileUpdate) (*models.UserProfile, error) {
	var profile models.UserProfile
	path := "/user/profile/" + url.PathEscape(userID) + "/"
	if err := c.do(ctx, request{method: http.MethodPut, path: path, body: update, auth: true}, &profile); err != nil {
		return nil, err
	}
	return &profile, nil
}

// FetchExercises returns the exercise catalog.
func (c *Client) FetchExercises(ctx context.Context) ([]models.Exercise, error) {
	var exercises []models.Exercise
	if err := c.do(ctx, request{method: http.MethodGet, path: "/api/exercises/", auth: true}, &exercises); err != nil {
		return nil, err
	}
	return exercises, nil
}

// FetchExerciseStats returns the user's record for one exercise.
func (c *Client) FetchExerciseStats(ctx context.Context, exerciseID int) (*models.ExerciseStats, error) {
	var stats models.ExerciseStats
	path := "/api/exerciseStats/" + strconv.Itoa(exerciseID)
	if err := c.do(ctx, request{method: http.MethodGet, path: path, auth: true}, &stats); err != nil {
		return nil, err
	}
	return &stats, nil
}

// CreateWorkout persists a finished workout.
func (c *Client) CreateWorkout(ctx context.Context, payload models.WorkoutPayload) (*models.Workout, error) {
	var created models.Workout
	if err := c.do(ctx, request{method: http.MethodPost, path: "/user/create-workout/", body: payload, auth: true}, &created); err != nil {
		return nil, err
	}
	return &created, nil
}

// FetchLatestWeightEntry returns the most recent weight entry, or nil when
// the user has none.
func (c *Client) FetchLatestWeightEntry(ctx context.Context) (*models.WeightEntry, error) {
	var entries []models.WeightEntry
	q := url.Values{}
	q.Set("latest", "true")
	if err := c.do(ctx, request{method: http.MethodGet, path: "/api/user/weightData/", query: q, auth: true}, &entries); err != nil {
		return nil, err
	}
	if len(entries) == 0 {
		return nil, nil
	}
	return &entries[0], nil
}

// SubmitWeightEntry records a body-weight check-in.
func (c *Client) SubmitWeightEntry(ctx context.Context, weight float64) (*models.WeightEntry, error) {
	if !validWeight(weight) {
		return nil, NewValidationError("weight", "Please enter a valid weight.")
	}
	body := map[string]float64{"weight": weight}
	var created models.WeightEntry
	if err := c.do(ctx, request{method: http.MethodPost, path: "/api/user/submitWeightData/", body: body, auth: true}, &created); err != nil {
		return nil, err
	}
	return &created, nil
}

// ParseWeight validates a typed weight value for a check-in.
func ParseWeight(s string) (float64, error) {
	w, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil || !validWeight(w) {
		return 0, NewValidationError("weight", "Please enter a valid weight.")
	}
	return w, nil
}

// validWeight reports whether w is a finite positive number.
func validWeight(w float64) bool {
	return w > 0 && !math.IsInf(w, 0)
}

// ValidateRegistration runs the checks done before a register request is sent.
// Password strength is left to the backend.
func ValidateRegistration(reg models.Registration) error {
	required := []struct {
		field, value string
	}{
		{"first_name", reg.FirstName},
		{"last_name", reg.LastName},
		{"email", reg.Email},
		{"username", reg.Username},
		{"password", reg.Password},
	}
	for _, r := range required {
		if strings.TrimSpace(r.value) == "" {
			return NewValidationError(r.field, "Please fill out all required fields.")
		}
	}
	if reg.Password != reg.ConfirmPassword {
		return NewValidationError("confirm_password", "Passwords do not match.")
	}
	return nil
}
